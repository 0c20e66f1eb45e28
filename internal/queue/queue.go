// Package queue implements the lease-based pending-event queue (spec.md
// §4.2, component C2): an append-only table with a claim/release protocol
// so multiple Flusher invocations can coordinate through the store alone,
// with no shared memory across processes.
package queue

import (
	"context"
	"database/sql"
	"fmt"
)

// PendingEvent is one queued tool-use record (spec.md §3 "Pending event").
type PendingEvent struct {
	ID                 int64
	SessionID          string
	Project            string
	ToolName           string
	ToolInput          string
	ToolResponse       string
	Cwd                string
	CreatedAtEpoch     int64
	LeaseOwner         string
	LeaseExpiresEpoch  int64
}

// Queue operates the pending_observations table.
type Queue struct {
	db *sql.DB
}

// New wraps a database handle as a Queue.
func New(db *sql.DB) *Queue { return &Queue{db: db} }

// Enqueue inserts a new, unleased pending row (spec.md §4.2 "enqueue").
func (q *Queue) Enqueue(ctx context.Context, sessionID, project, toolName, toolInput, toolResponse, cwd string) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO pending_observations (session_id, project, tool_name, tool_input, tool_response, cwd, created_at_epoch)
		VALUES (?, ?, ?, ?, ?, ?, strftime('%s','now'))
	`, sessionID, project, toolName, toolInput, toolResponse, cwd)
	return err
}

// Claim atomically leases up to limit available rows for sessionID to
// owner for leaseSecs, ordered by id ascending, and returns the rows now
// owned by owner (spec.md §4.2 "claim"). A row is available when its
// lease is null or expired.
func (q *Queue) Claim(ctx context.Context, sessionID string, limit int, owner string, leaseSecs int64) ([]*PendingEvent, error) {
	_, err := q.db.ExecContext(ctx, `
		UPDATE pending_observations
		SET lease_owner = ?, lease_expires_epoch = strftime('%s','now') + ?
		WHERE id IN (
			SELECT id FROM pending_observations
			WHERE session_id = ?
			  AND (lease_owner IS NULL OR lease_expires_epoch < strftime('%s','now'))
			ORDER BY id ASC LIMIT ?
		)
	`, owner, leaseSecs, sessionID, limit)
	if err != nil {
		return nil, err
	}

	rows, err := q.db.QueryContext(ctx, `
		SELECT id, session_id, project, tool_name, COALESCE(tool_input,''), COALESCE(tool_response,''),
			COALESCE(cwd,''), created_at_epoch, COALESCE(lease_owner,''), COALESCE(lease_expires_epoch,0)
		FROM pending_observations
		WHERE session_id = ? AND lease_owner = ?
		ORDER BY id ASC
	`, sessionID, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*PendingEvent
	for rows.Next() {
		var e PendingEvent
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Project, &e.ToolName, &e.ToolInput, &e.ToolResponse,
			&e.Cwd, &e.CreatedAtEpoch, &e.LeaseOwner, &e.LeaseExpiresEpoch); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Release clears the lease fields for every row owned by owner without
// deleting them (spec.md §4.2 "release").
func (q *Queue) Release(ctx context.Context, owner string) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE pending_observations SET lease_owner = NULL, lease_expires_epoch = NULL WHERE lease_owner = ?
	`, owner)
	return err
}

// DeleteClaimed deletes only the rows owned by owner whose id is in ids,
// returning the count deleted (spec.md §4.2 "delete_claimed"). Callers
// must compare the count against len(ids) themselves — a mismatch is a
// fatal batch error per spec.md §4.5 step 7.
func (q *Queue) DeleteClaimed(ctx context.Context, owner string, ids []int64) (int64, error) {
	return q.deleteClaimed(ctx, q.db, owner, ids)
}

// DeleteClaimedTx is DeleteClaimed run inside an existing transaction, for
// the Flusher's single writable transaction (spec.md §4.5 step 7).
func (q *Queue) DeleteClaimedTx(ctx context.Context, tx *sql.Tx, owner string, ids []int64) (int64, error) {
	return q.deleteClaimed(ctx, tx, owner, ids)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (q *Queue) deleteClaimed(ctx context.Context, ex execer, owner string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ph := ""
	args := make([]any, 0, len(ids)+1)
	args = append(args, owner)
	for i, id := range ids {
		if i > 0 {
			ph += ","
		}
		ph += "?"
		args = append(args, id)
	}

	res, err := ex.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM pending_observations WHERE lease_owner = ? AND id IN (%s)
	`, ph), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountAvailable counts rows for sessionID that are currently unleased or
// whose lease has expired (spec.md §4.2 "count_available").
func (q *Queue) CountAvailable(ctx context.Context, sessionID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM pending_observations
		WHERE session_id = ? AND (lease_owner IS NULL OR lease_expires_epoch < strftime('%s','now'))
	`, sessionID).Scan(&n)
	return n, err
}

// StaleSessions returns distinct session ids in project with rows older
// than ageSecs that are not under an active lease (spec.md §4.2
// "stale_sessions").
func (q *Queue) StaleSessions(ctx context.Context, project string, ageSecs int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT DISTINCT session_id FROM pending_observations
		WHERE project = ?
		  AND created_at_epoch < strftime('%s','now') - ?
		  AND (lease_owner IS NULL OR lease_expires_epoch < strftime('%s','now'))
	`, project, ageSecs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// OldestPendingAgeSecs returns how old the oldest pending row is for
// sessionID. The Summarizer worker does not call it: it picks a stale
// peer with StaleSessions(project, 600) (spec.md §4.6 step 2).
func (q *Queue) OldestPendingAgeSecs(ctx context.Context, sessionID string) (int64, error) {
	var age int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(strftime('%s','now') - MIN(created_at_epoch), 0)
		FROM pending_observations WHERE session_id = ?
	`, sessionID).Scan(&age)
	return age, err
}

// CleanupStale deletes rows older than ageSecs that have no active lease
// (spec.md §4.2 "cleanup_stale"), returning the count deleted.
func (q *Queue) CleanupStale(ctx context.Context, ageSecs int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM pending_observations
		WHERE created_at_epoch < strftime('%s','now') - ?
		  AND (lease_owner IS NULL OR lease_expires_epoch < strftime('%s','now'))
	`, ageSecs)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
