package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/remem-dev/remem/internal/config"
	"github.com/remem-dev/remem/internal/gates"
	"github.com/remem-dev/remem/internal/llm"
	"github.com/remem-dev/remem/internal/queue"
	"github.com/remem-dev/remem/internal/store"
)

// app bundles the handles every hook subcommand needs, opened once per
// invocation and closed before the process exits.
type app struct {
	store *store.Store
	queue *queue.Queue
	gates *gates.Gates
}

func openApp(ctx context.Context) (*app, error) {
	s, err := store.Open(ctx, config.DataDir())
	if err != nil {
		return nil, fmt.Errorf("remem: open store: %w", err)
	}
	return &app{
		store: s,
		queue: queue.New(s.DB()),
		gates: gates.New(s.DB()),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// executor resolves the configured LLM backend per REMEM_EXECUTOR /
// REMEM_CLAUDE_PATH / ANTHROPIC_API_KEY (spec.md §6.1, §6.5).
func executor() (llm.Executor, error) {
	claudePath := config.String("claude-path")
	if claudePath == "" {
		claudePath = "claude"
	}
	return llm.Resolve(claudePath)
}

func modelName() string {
	if m := config.String("model"); m != "" {
		return m
	}
	return "haiku"
}

// readStdin reads the whole hook payload from stdin, as every hook
// subcommand expects (spec.md §6.2).
func readStdin() ([]byte, error) {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("remem: read stdin: %w", err)
	}
	return raw, nil
}
