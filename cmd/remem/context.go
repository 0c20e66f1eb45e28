package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	remcontext "github.com/remem-dev/remem/internal/context"
)

func newContextCmd() *cobra.Command {
	var cwd string

	cmd := &cobra.Command{
		Use:     "context",
		Short:   "Print the session-start memory briefing",
		GroupID: groupOps,
		Long: `Renders the briefing a "session-init" hook prints at the start of a
session: recent observations, a timeline of prior session summaries, and a
token-savings estimate (spec.md §4.8).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cwd == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("remem context: getwd: %w", err)
				}
				cwd = wd
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()

			renderer := remcontext.New(a.store)
			out, err := renderer.Render(ctx, remcontext.Options{Cwd: cwd})
			if err != nil {
				return fmt.Errorf("remem context: render: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&cwd, "cwd", "", "project directory (default: current directory)")
	return cmd
}
