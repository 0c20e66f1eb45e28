package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	remcontext "github.com/remem-dev/remem/internal/context"
)

// sessionInitInput is the SessionStart hook payload (spec.md §6.2):
// session_id and cwd are the only fields this hook consumes.
type sessionInitInput struct {
	SessionID string `json:"session_id"`
	Cwd       string `json:"cwd"`
}

func newSessionInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "session-init",
		Short:   "SessionStart hook: print the memory briefing for this project",
		GroupID: groupHooks,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readStdin()
			if err != nil {
				return err
			}

			var in sessionInitInput
			if err := json.Unmarshal(raw, &in); err != nil {
				return fmt.Errorf("remem session-init: parse input: %w", err)
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()

			renderer := remcontext.New(a.store)
			out, err := renderer.Render(ctx, remcontext.Options{Cwd: in.Cwd})
			if err != nil {
				return fmt.Errorf("remem session-init: render: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
