package store

import (
	"context"
	"database/sql"
)

// obsCols is the canonical column list for scanning an Observation,
// grounded on the original implementation's shared OBS_COLS constant
// (db_query.rs) that eliminated repeated column-list duplication across
// query functions.
const obsCols = `id, memory_session_id, project, type, title, subtitle, narrative,
	facts, concepts, files_read, files_modified, prompt_number,
	created_at, created_at_epoch, discovery_tokens, status, last_accessed_epoch`

func scanObservation(row interface{ Scan(...any) error }) (*Observation, error) {
	var o Observation
	var facts, concepts, filesRead, filesModified string
	var promptNumber sql.NullInt64
	var lastAccessed sql.NullInt64

	if err := row.Scan(
		&o.ID, &o.MemorySessionID, &o.Project, &o.Type, &o.Title, &o.Subtitle, &o.Narrative,
		&facts, &concepts, &filesRead, &filesModified, &promptNumber,
		&o.CreatedAt, &o.CreatedAtEpoch, &o.DiscoveryTokens, &o.Status, &lastAccessed,
	); err != nil {
		return nil, err
	}

	o.Facts = decodeList(facts)
	o.Concepts = decodeList(concepts)
	o.FilesRead = decodeList(filesRead)
	o.FilesModified = decodeList(filesModified)
	if promptNumber.Valid {
		v := promptNumber.Int64
		o.PromptNumber = &v
	}
	if lastAccessed.Valid {
		v := lastAccessed.Int64
		o.LastAccessedEpoch = &v
	}
	return &o, nil
}

func collectObservations(rows *sql.Rows) ([]*Observation, error) {
	defer rows.Close()
	var out []*Observation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// InsertObservation inserts one parsed observation inside the caller's
// transaction (Flusher §4.5 step 7, Compactor §4.7).
func InsertObservation(ctx context.Context, ex rowExecer, o *Observation) (int64, error) {
	res, err := ex.ExecContext(ctx, `
		INSERT INTO observations (
			memory_session_id, project, type, title, subtitle, narrative,
			facts, concepts, files_read, files_modified, prompt_number,
			created_at, created_at_epoch, discovery_tokens, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%SZ','now'), strftime('%s','now'), ?, 'active')
	`, o.MemorySessionID, o.Project, o.Type, o.Title, o.Subtitle, o.Narrative,
		encodeList(o.Facts), encodeList(o.Concepts), encodeList(o.FilesRead), encodeList(o.FilesModified),
		o.PromptNumber, o.DiscoveryTokens)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// MarkStaleByFiles marks every other active observation in project that
// shares at least one entry in files with newObsID stale, per spec.md
// §4.5 step 7 "file-overlap rule". Grounded on the original's
// mark_stale_by_files json_each-based SQL.
func MarkStaleByFiles(ctx context.Context, tx *sql.Tx, project string, newObsID int64, files []string) error {
	if len(files) == 0 {
		return nil
	}
	filesJSON := encodeList(files)

	_, err := tx.ExecContext(ctx, `
		UPDATE observations
		SET status = 'stale'
		WHERE project = ?
		  AND id != ?
		  AND status = 'active'
		  AND EXISTS (
		      SELECT 1 FROM json_each(files_modified) fm
		      WHERE fm.value IN (SELECT value FROM json_each(?))
		  )
	`, project, newObsID, filesJSON)
	return err
}

// MarkCompressed marks the given observation ids compressed in one
// statement, per spec.md §4.7.
func MarkCompressed(ctx context.Context, ex rowExecer, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders, args := inClause(ids)
	_, err := ex.ExecContext(ctx, `UPDATE observations SET status = 'compressed' WHERE id IN (`+placeholders+`)`, args...)
	return err
}

func inClause(ids []int64) (string, []any) {
	ph := ""
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			ph += ","
		}
		ph += "?"
		args[i] = id
	}
	return ph, args
}

// CountActiveOrStale returns the count of non-compressed observations for
// project, used by the Compactor threshold check (spec.md §4.7).
func (s *Store) CountActiveOrStale(ctx context.Context, project string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM observations WHERE project = ? AND status IN ('active','stale')
	`, project).Scan(&n)
	return n, err
}

// OldestObservations returns up to min(count-keep, batch) of the oldest
// non-compressed observations for project, for Compactor input selection.
func (s *Store) OldestObservations(ctx context.Context, project string, keep, batch int64) ([]*Observation, error) {
	total, err := s.CountActiveOrStale(ctx, project)
	if err != nil {
		return nil, err
	}
	compressible := total - keep
	if compressible <= 0 {
		return nil, nil
	}
	take := compressible
	if take > batch {
		take = batch
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+obsCols+` FROM observations
		WHERE project = ? AND status IN ('active','stale')
		ORDER BY created_at_epoch ASC LIMIT ?
	`, project, take)
	if err != nil {
		return nil, err
	}
	return collectObservations(rows)
}

// RecentActiveObservations returns the limit most recent active
// observations for project, used by the Flusher's existing-memory context
// block (spec.md §4.5 step 3).
func (s *Store) RecentActiveObservations(ctx context.Context, project string, limit int) ([]*Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+obsCols+` FROM observations
		WHERE project = ? AND status = 'active'
		ORDER BY created_at_epoch DESC LIMIT ?
	`, project, limit)
	if err != nil {
		return nil, err
	}
	return collectObservations(rows)
}

// CleanupExpiredCompressed deletes compressed observations older than
// ttlDays, per the supplemented cleanup command body.
func (s *Store) CleanupExpiredCompressed(ctx context.Context, ttlDays int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM observations
		WHERE status = 'compressed'
		  AND created_at_epoch < CAST(strftime('%s','now') AS INTEGER) - (? * 86400)
	`, ttlDays)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
