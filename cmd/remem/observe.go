package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remem-dev/remem/internal/applog"
	"github.com/remem-dev/remem/internal/ingest"
	"github.com/remem-dev/remem/internal/projectkey"
)

// observeInput is the PostToolUse hook payload (spec.md §6.2).
type observeInput struct {
	SessionID    string          `json:"session_id"`
	Cwd          string          `json:"cwd"`
	ToolName     string          `json:"tool_name"`
	ToolInput    json.RawMessage `json:"tool_input"`
	ToolResponse json.RawMessage `json:"tool_response"`
}

func newObserveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "observe",
		Short:   "PostToolUse hook: filter and enqueue a tool-use event",
		GroupID: groupHooks,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readStdin()
			if err != nil {
				return err
			}

			var in observeInput
			if err := json.Unmarshal(raw, &in); err != nil {
				return fmt.Errorf("remem observe: parse input: %w", err)
			}
			ev := ingest.Event{
				SessionID:    in.SessionID,
				Cwd:          in.Cwd,
				ToolName:     in.ToolName,
				ToolInput:    in.ToolInput,
				ToolResponse: in.ToolResponse,
			}

			project, err := projectkey.From(ev.Cwd)
			if err != nil {
				return fmt.Errorf("remem observe: project key: %w", err)
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()

			queued, err := ingest.Enqueue(ctx, a.queue, ev, project)
			if err != nil {
				return fmt.Errorf("remem observe: enqueue: %w", err)
			}
			if !queued {
				applog.Debug("observe", fmt.Sprintf("skipped tool %q", ev.ToolName))
			}
			return nil
		},
	}
}
