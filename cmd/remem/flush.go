package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remem-dev/remem/internal/flush"
)

func newFlushCmd() *cobra.Command {
	var sessionID, project string

	cmd := &cobra.Command{
		Use:     "flush",
		Short:   "Drain a session's pending tool-use events into observations",
		GroupID: groupOps,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" || project == "" {
				return fmt.Errorf("remem flush: --session-id and --project are required")
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()

			exec, err := executor()
			if err != nil {
				return fmt.Errorf("remem flush: resolve executor: %w", err)
			}

			flusher := flush.New(a.store, a.queue, exec, modelName())
			n, err := flusher.Flush(ctx, sessionID, project)
			if err != nil {
				return fmt.Errorf("remem flush: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "flushed %d observation(s)\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session-id", "", "content session id to flush")
	cmd.Flags().StringVar(&project, "project", "", "project key to flush into")
	return cmd
}
