// Package llm implements the dual execution backend for Flusher and
// Summarizer LLM calls (spec.md §6.1): an HTTP executor against the
// Anthropic API and a CLI executor that shells out to a local `claude`
// binary, with auto-fallback between them.
package llm

import (
	"context"
	"errors"
	"os"
)

// Request is one model call: a system prompt plus the rendered user
// turn built by the Flusher or Summarizer.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	MaxTokens    int
}

// Response is the raw text returned by the model plus the token counts
// needed for usage accounting (spec.md §3 "AI-usage event").
type Response struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
	Model        string
	Executor     string
}

// Executor runs one Request against a backend.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Response, error)
	Name() string
}

// ErrAPIKeyRequired is returned by NewHTTPExecutor when no API key is
// available from either the explicit argument or the environment.
var ErrAPIKeyRequired = errors.New("llm: ANTHROPIC_API_KEY required for http executor")

// Resolve builds the Executor chain per REMEM_EXECUTOR/ANTHROPIC_API_KEY/
// ANTHROPIC_AUTH_TOKEN (spec.md §6.1 "executor selection", grounded on
// call_ai()'s auto-select check): an explicit REMEM_EXECUTOR value pins
// the backend; otherwise HTTP is preferred when either credential is
// present and falls back to CLI on the first call failure.
func Resolve(claudePath string) (Executor, error) {
	pref := os.Getenv("REMEM_EXECUTOR")
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	hasCredential := apiKey != "" || os.Getenv("ANTHROPIC_AUTH_TOKEN") != ""

	cli := NewCLIExecutor(claudePath)

	switch pref {
	case "cli":
		return cli, nil
	case "http":
		return NewHTTPExecutor(apiKey)
	}

	if !hasCredential {
		return cli, nil
	}
	http, err := NewHTTPExecutor(apiKey)
	if err != nil {
		return cli, nil
	}
	return &fallbackExecutor{primary: http, fallback: cli}, nil
}

// fallbackExecutor tries primary first and falls back to fallback on any
// error, per spec.md §6.1 "falls back to CLI on the first call failure".
type fallbackExecutor struct {
	primary  Executor
	fallback Executor
}

func (f *fallbackExecutor) Name() string { return f.primary.Name() + "+fallback:" + f.fallback.Name() }

func (f *fallbackExecutor) Execute(ctx context.Context, req Request) (*Response, error) {
	resp, err := f.primary.Execute(ctx, req)
	if err == nil {
		return resp, nil
	}
	return f.fallback.Execute(ctx, req)
}
