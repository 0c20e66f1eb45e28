package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remem-dev/remem/internal/compact"
	"github.com/remem-dev/remem/internal/flush"
	"github.com/remem-dev/remem/internal/summarize"
)

// newSummarizeWorkerCmd builds the detached worker the Dispatcher spawns.
// Never invoked by a user or a Claude Code hook directly.
func newSummarizeWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "summarize-worker",
		Short:   "Detached worker: summarize, flush stale peers, compact",
		GroupID: groupHooks,
		Hidden:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readStdin()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()

			exec, err := executor()
			if err != nil {
				return fmt.Errorf("remem summarize-worker: resolve executor: %w", err)
			}
			model := modelName()

			flusher := flush.New(a.store, a.queue, exec, model)
			compactor := compact.New(a.store, exec, model)
			worker := summarize.NewWorker(a.store, a.queue, a.gates, flusher, compactor, exec, model)

			if err := worker.Run(ctx, raw); err != nil {
				return fmt.Errorf("remem summarize-worker: run: %w", err)
			}
			return nil
		},
	}
	return cmd
}
