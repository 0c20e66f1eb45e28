package store

import "context"

// RecordAIUsage appends one AI-usage event (spec.md §3 "AI-usage event",
// append-only).
func (s *Store) RecordAIUsage(ctx context.Context, project, operation, executor, model string, inputTokens, outputTokens int64, costUSD float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_usage_events (
			created_at, created_at_epoch, project, operation, executor, model,
			input_tokens, output_tokens, estimated_cost_usd
		) VALUES (strftime('%Y-%m-%dT%H:%M:%SZ','now'), strftime('%s','now'), ?, ?, ?, ?, ?, ?, ?)
	`, project, operation, executor, model, inputTokens, outputTokens, costUSD)
	return err
}

// UsageTotals is the aggregate row for a usage report window.
type UsageTotals struct {
	Calls            int64
	InputTokens      int64
	OutputTokens     int64
	TotalTokens      int64
	EstimatedCostUSD float64
}

// DailyUsage is one day's aggregate in a usage report.
type DailyUsage struct {
	Day              string
	UsageTotals
}

func (s *Store) usageTotalsSince(ctx context.Context, sinceEpoch int64, project string) (UsageTotals, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(input_tokens),0), COALESCE(SUM(output_tokens),0), COALESCE(SUM(estimated_cost_usd),0)
		FROM ai_usage_events WHERE created_at_epoch >= ?`
	args := []any{sinceEpoch}
	if project != "" {
		query += " AND project = ?"
		args = append(args, project)
	}

	var t UsageTotals
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&t.Calls, &t.InputTokens, &t.OutputTokens, &t.EstimatedCostUSD)
	t.TotalTokens = t.InputTokens + t.OutputTokens
	return t, err
}

// TotalsSince returns usage totals since sinceEpoch, optionally scoped by
// project (empty string = all projects).
func (s *Store) TotalsSince(ctx context.Context, sinceEpoch int64, project string) (UsageTotals, error) {
	return s.usageTotalsSince(ctx, sinceEpoch, project)
}

// DailySince returns per-day usage totals since sinceEpoch.
func (s *Store) DailySince(ctx context.Context, sinceEpoch int64, project string) ([]DailyUsage, error) {
	query := `SELECT date(created_at_epoch, 'unixepoch') as day, COUNT(*),
		COALESCE(SUM(input_tokens),0), COALESCE(SUM(output_tokens),0), COALESCE(SUM(estimated_cost_usd),0)
		FROM ai_usage_events WHERE created_at_epoch >= ?`
	args := []any{sinceEpoch}
	if project != "" {
		query += " AND project = ?"
		args = append(args, project)
	}
	query += " GROUP BY day ORDER BY day ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailyUsage
	for rows.Next() {
		var d DailyUsage
		if err := rows.Scan(&d.Day, &d.Calls, &d.InputTokens, &d.OutputTokens, &d.EstimatedCostUSD); err != nil {
			return nil, err
		}
		d.TotalTokens = d.InputTokens + d.OutputTokens
		out = append(out, d)
	}
	return out, rows.Err()
}

// EventsSince returns up to limit recent usage events since sinceEpoch,
// newest first.
func (s *Store) EventsSince(ctx context.Context, sinceEpoch int64, limit int64, project string) ([]*AIUsageEvent, error) {
	query := `SELECT id, created_at, created_at_epoch, COALESCE(project,''), operation, executor, COALESCE(model,''),
		input_tokens, output_tokens, estimated_cost_usd
		FROM ai_usage_events WHERE created_at_epoch >= ?`
	args := []any{sinceEpoch}
	if project != "" {
		query += " AND project = ?"
		args = append(args, project)
	}
	query += " ORDER BY created_at_epoch DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*AIUsageEvent
	for rows.Next() {
		var e AIUsageEvent
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.CreatedAtEpoch, &e.Project, &e.Operation, &e.Executor, &e.Model,
			&e.InputTokens, &e.OutputTokens, &e.EstimatedCostUSD); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
