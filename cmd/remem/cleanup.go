package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// cleanupQueueStaleAgeSecs and cleanupCompressedTTLDays match the
// maintenance windows the worker itself uses (spec.md §4.6 step 5,
// §4.7 compaction TTL), so a manual cleanup run agrees with what the
// background pipeline would eventually do on its own.
const (
	cleanupQueueStaleAgeSecs = 3600
	cleanupCompressedTTLDays = 90
)

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "cleanup",
		Short:   "Reclaim stale queue rows, orphan summaries, and expired compressed observations",
		GroupID: groupOps,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()

			staleEvents, err := a.queue.CleanupStale(ctx, cleanupQueueStaleAgeSecs)
			if err != nil {
				return fmt.Errorf("remem cleanup: queue: %w", err)
			}

			orphanSummaries, err := a.store.CleanupOrphanSummaries(ctx)
			if err != nil {
				return fmt.Errorf("remem cleanup: orphan summaries: %w", err)
			}

			dupSummaries, err := a.store.CleanupDuplicateSummaries(ctx)
			if err != nil {
				return fmt.Errorf("remem cleanup: duplicate summaries: %w", err)
			}

			expiredObs, err := a.store.CleanupExpiredCompressed(ctx, cleanupCompressedTTLDays)
			if err != nil {
				return fmt.Errorf("remem cleanup: expired observations: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "queue rows reclaimed: %d\norphan summaries removed: %d\nduplicate summaries removed: %d\nexpired compressed observations removed: %d\n",
				staleEvents, orphanSummaries, dupSummaries, expiredObs)
			return nil
		},
	}
}
