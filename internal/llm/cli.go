package llm

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

const defaultCLITimeout = 180 * time.Second

// CLIExecutor shells out to a local `claude` binary in print mode,
// grounded on the original's call_cli (spec.md §6.1 CLI executor):
// `claude -p --system-prompt <S> --model <M> --output-format text
// --no-session-persistence`, piping the user prompt on stdin.
type CLIExecutor struct {
	path    string
	timeout time.Duration
}

// NewCLIExecutor builds a CLIExecutor for the claude binary at path
// ("claude" resolved via PATH if empty).
func NewCLIExecutor(path string) *CLIExecutor {
	if path == "" {
		path = "claude"
	}
	return &CLIExecutor{path: path, timeout: defaultCLITimeout}
}

func (c *CLIExecutor) Name() string { return "cli" }

func (c *CLIExecutor) Execute(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = defaultHTTPModel
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{
		"-p",
		"--system-prompt", req.SystemPrompt,
		"--model", model,
		"--output-format", "text",
		"--no-session-persistence",
	}

	cmd := exec.CommandContext(ctx, c.path, args...)
	cmd.Stdin = bytes.NewReader([]byte(req.UserPrompt))
	cmd.Env = stripClaudeCodeEnv(os.Environ())

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := runWithGroupKill(ctx, cmd); err != nil {
		return nil, fmt.Errorf("llm: cli executor: %w (stderr: %s)", err, stderr.String())
	}

	text := stdout.String()
	inTok := EstimateTokens(req.SystemPrompt + req.UserPrompt)
	outTok := EstimateTokens(text)
	return &Response{
		Text:         text,
		InputTokens:  inTok,
		OutputTokens: outTok,
		Model:        model,
		Executor:     "cli",
	}, nil
}

// stripClaudeCodeEnv removes CLAUDECODE so the spawned claude process does
// not believe it is itself running inside an agent session.
func stripClaudeCodeEnv(env []string) []string {
	out := make([]string, 0, len(env))
	for _, kv := range env {
		if len(kv) >= len("CLAUDECODE=") && kv[:len("CLAUDECODE=")] == "CLAUDECODE=" {
			continue
		}
		if kv == "CLAUDECODE" {
			continue
		}
		out = append(out, kv)
	}
	return out
}
