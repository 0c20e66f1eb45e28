package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/remem-dev/remem/internal/store"
)

func newUsageCmd() *cobra.Command {
	var (
		days    int
		today   bool
		limit   int64
		project string
		csvPath string
	)

	cmd := &cobra.Command{
		Use:     "usage",
		Short:   "Report AI-usage token and cost totals",
		GroupID: groupOps,
		RunE: func(cmd *cobra.Command, args []string) error {
			if today {
				days = 1
			}
			if days <= 0 {
				days = 30
			}
			since := time.Now().AddDate(0, 0, -days).Unix()
			if today {
				// Start of the current UTC day, the same day boundary DailySince groups by.
				y, m, d := time.Now().UTC().Date()
				since = time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()

			totals, err := a.store.TotalsSince(ctx, since, project)
			if err != nil {
				return fmt.Errorf("remem usage: totals: %w", err)
			}
			daily, err := a.store.DailySince(ctx, since, project)
			if err != nil {
				return fmt.Errorf("remem usage: daily: %w", err)
			}

			if limit <= 0 {
				limit = 20
			}
			events, err := a.store.EventsSince(ctx, since, limit, project)
			if err != nil {
				return fmt.Errorf("remem usage: events: %w", err)
			}

			if csvPath != "" {
				if err := writeUsageCSV(csvPath, daily); err != nil {
					return fmt.Errorf("remem usage: csv: %w", err)
				}
				printCSVConfirmation(cmd, csvPath)
			}

			printUsageReport(cmd, totals, daily, events)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "report window in days")
	cmd.Flags().BoolVar(&today, "today", false, "report only today's usage (overrides --days)")
	cmd.Flags().Int64Var(&limit, "limit", 20, "max recent events to list")
	cmd.Flags().StringVar(&project, "project", "", "restrict to a single project key")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write the daily breakdown to this CSV path")
	return cmd
}

func printUsageReport(cmd *cobra.Command, totals store.UsageTotals, daily []store.DailyUsage, events []*store.AIUsageEvent) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Calls: %d  Input tokens: %d  Output tokens: %d  Estimated cost: $%.4f\n\n",
		totals.Calls, totals.InputTokens, totals.OutputTokens, totals.EstimatedCostUSD)

	fmt.Fprintln(out, "Day        Calls  Input   Output   Cost")
	for _, d := range daily {
		fmt.Fprintf(out, "%-10s %5d  %6d  %6d   $%.4f\n", d.Day, d.Calls, d.InputTokens, d.OutputTokens, d.EstimatedCostUSD)
	}

	if len(events) == 0 {
		return
	}
	fmt.Fprintln(out, "\nRecent events:")
	for _, e := range events {
		fmt.Fprintf(out, "  %s  %-12s %-6s %-24s in=%d out=%d $%.4f\n",
			e.CreatedAt, e.Operation, e.Executor, e.Model, e.InputTokens, e.OutputTokens, e.EstimatedCostUSD)
	}
}

func writeUsageCSV(path string, daily []store.DailyUsage) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"day", "calls", "input_tokens", "output_tokens", "estimated_cost_usd"}); err != nil {
		return err
	}
	for _, d := range daily {
		row := []string{
			d.Day,
			strconv.FormatInt(d.Calls, 10),
			strconv.FormatInt(d.InputTokens, 10),
			strconv.FormatInt(d.OutputTokens, 10),
			strconv.FormatFloat(d.EstimatedCostUSD, 'f', 4, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// printCSVConfirmation colors the confirmation line only when stdout is a
// real terminal, checked with golang.org/x/term rather than assuming a
// pipe or redirect still wants ANSI escapes.
func printCSVConfirmation(cmd *cobra.Command, path string) {
	out := cmd.OutOrStdout()
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(out, "\033[32mwrote %s\033[0m\n", path)
		return
	}
	fmt.Fprintf(out, "wrote %s\n", path)
}
