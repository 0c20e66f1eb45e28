package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remem-dev/remem/internal/summarize"
)

func newSummarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "summarize",
		Short:   "Stop hook: gate-check and dispatch the summarizer worker",
		GroupID: groupHooks,
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

			dispatcher := summarize.NewDispatcher(a.gates, a.queue, "")
			if err := dispatcher.Dispatch(ctx, raw, []string{"summarize-worker"}); err != nil {
				return fmt.Errorf("remem summarize: dispatch: %w", err)
			}
			return nil
		},
	}
}
