package store

import (
	"context"
	"database/sql"
)

// FinalizeSummarize performs the atomic finalize of spec.md §4.6 step 10
// and tested by S8: delete existing summaries for (memorySessionID,
// project), insert the new one, upsert the cooldown row — one
// transaction. Returns the count of rows deleted.
func (s *Store) FinalizeSummarize(ctx context.Context, memorySessionID, project string, summary SessionSummary, msgHash string, nowEpoch int64) (int64, error) {
	var deleted int64
	err := s.RunInTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM session_summaries WHERE memory_session_id = ? AND project = ?
		`, memorySessionID, project)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO session_summaries (
				memory_session_id, project, request, completed, decisions, learned,
				next_steps, preferences, created_at, created_at_epoch, discovery_tokens
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%SZ','now'), strftime('%s','now'), ?)
		`, memorySessionID, project, summary.Request, summary.Completed, summary.Decisions,
			summary.Learned, summary.NextSteps, summary.Preferences, summary.DiscoveryTokens); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO summarize_cooldown (project, last_summarize_epoch, last_message_hash)
			VALUES (?, ?, ?)
			ON CONFLICT(project) DO UPDATE SET last_summarize_epoch = excluded.last_summarize_epoch,
				last_message_hash = excluded.last_message_hash
		`, project, nowEpoch, msgHash)
		return err
	})
	return deleted, err
}

// LatestSummary returns the most recent summary for (memorySessionID,
// project), used to build the <existing_summary> merge context
// (spec.md §4.6 step 6).
func (s *Store) LatestSummary(ctx context.Context, memorySessionID, project string) (*SessionSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, memory_session_id, project, request, completed, decisions, learned,
			next_steps, preferences, created_at, created_at_epoch, discovery_tokens
		FROM session_summaries
		WHERE memory_session_id = ? AND project = ?
		ORDER BY created_at_epoch DESC LIMIT 1
	`, memorySessionID, project)

	var sm SessionSummary
	err := row.Scan(&sm.ID, &sm.MemorySessionID, &sm.Project, &sm.Request, &sm.Completed, &sm.Decisions,
		&sm.Learned, &sm.NextSteps, &sm.Preferences, &sm.CreatedAt, &sm.CreatedAtEpoch, &sm.DiscoveryTokens)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sm, nil
}

// RecentSummaries returns up to limit recent summaries for project,
// newest first, for the Context Renderer (spec.md §4.8).
func (s *Store) RecentSummaries(ctx context.Context, project string, limit int) ([]*SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, memory_session_id, project, request, completed, decisions, learned,
			next_steps, preferences, created_at, created_at_epoch, discovery_tokens
		FROM session_summaries WHERE project = ?
		ORDER BY created_at_epoch DESC LIMIT ?
	`, project, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*SessionSummary
	for rows.Next() {
		var sm SessionSummary
		if err := rows.Scan(&sm.ID, &sm.MemorySessionID, &sm.Project, &sm.Request, &sm.Completed, &sm.Decisions,
			&sm.Learned, &sm.NextSteps, &sm.Preferences, &sm.CreatedAt, &sm.CreatedAtEpoch, &sm.DiscoveryTokens); err != nil {
			return nil, err
		}
		out = append(out, &sm)
	}
	return out, rows.Err()
}

// CleanupOrphanSummaries deletes summaries whose session no longer exists
// (supplemented cleanup command body, grounded on the original's
// cleanup_orphan_summaries).
func (s *Store) CleanupOrphanSummaries(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM session_summaries
		WHERE memory_session_id NOT IN (SELECT memory_session_id FROM sessions)
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CleanupDuplicateSummaries keeps only the newest summary per session,
// deleting the rest (grounded on cleanup_duplicate_summaries).
func (s *Store) CleanupDuplicateSummaries(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM session_summaries
		WHERE id NOT IN (
			SELECT MAX(id) FROM session_summaries GROUP BY memory_session_id, project
		)
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
