package store

import (
	"context"
	"database/sql"
)

// rowExecer lets UpsertSession run either directly against the Store's
// pool or inside a caller-provided transaction (the Flusher upserts the
// session as part of its single writable transaction, spec.md §4.5 step 7).
type rowExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UpsertSession creates the session row the first time a content id is
// upserted, or increments prompt_counter on re-upsert, per spec.md §3
// "Session" lifecycle. memorySessionID is "mem-" + first 8 bytes of
// contentSessionID, computed by the caller (internal/flush, via
// textutil.DeriveMemorySessionID) since it is pure string derivation with
// no store dependency.
func UpsertSession(ctx context.Context, ex rowExecer, contentSessionID, memorySessionID, project, userPrompt string, nowEpoch int64) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO sessions (content_session_id, memory_session_id, project, user_prompt, started_at_epoch, status, prompt_counter)
		VALUES (?, ?, ?, ?, ?, 'active', 1)
		ON CONFLICT(content_session_id) DO UPDATE SET
			prompt_counter = prompt_counter + 1
	`, contentSessionID, memorySessionID, project, userPrompt, nowEpoch)
	return err
}

// CountSessions returns how many sessions exist for project, used by the
// Context Renderer to size its recent-summaries window (spec.md §4.8
// "session_count + 1 recent summaries").
func (s *Store) CountSessions(ctx context.Context, project string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE project = ?`, project).Scan(&n)
	return n, err
}

// GetSessionByContentID looks up a session by its external id.
func (s *Store) GetSessionByContentID(ctx context.Context, contentSessionID string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, content_session_id, memory_session_id, project, user_prompt, started_at_epoch, status, prompt_counter
		FROM sessions WHERE content_session_id = ?
	`, contentSessionID)

	var sess Session
	if err := row.Scan(&sess.ID, &sess.ContentSessionID, &sess.MemorySessionID, &sess.Project, &sess.UserPrompt, &sess.StartedAtEpoch, &sess.Status, &sess.PromptCounter); err != nil {
		return nil, err
	}
	return &sess, nil
}
