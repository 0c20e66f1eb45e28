package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// SearchQuery parametrizes a full-text search (spec.md §4.4 "search").
type SearchQuery struct {
	Text         string
	Project      string
	Type         string
	IncludeStale bool
	Limit        int64
	Offset       int64
}

// SearchFTS runs a full-text query against observations_fts and ranks
// hits by the time-decayed, stale-penalized formula: rank * (1 + 0.5*(now
// - created_at_epoch)/2592000) + (1000 if status='stale'), matching
// db_query.rs search_observations_fts exactly (spec.md §4.4, §4.9).
func (s *Store) SearchFTS(ctx context.Context, q SearchQuery) ([]*Observation, error) {
	conditions := []string{"observations_fts MATCH ?"}
	args := []any{q.Text}

	if q.Project != "" {
		conditions = append(conditions, "o.project = ?")
		args = append(args, q.Project)
	}
	if q.Type != "" {
		conditions = append(conditions, "o.type = ?")
		args = append(args, q.Type)
	}
	if q.IncludeStale {
		conditions = append(conditions, "o.status IN ('active','stale')")
	} else {
		conditions = append(conditions, "o.status = 'active'")
	}

	where := conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, q.Offset)

	qualifiedCols := qualify("o", obsCols)
	query := fmt.Sprintf(`
		SELECT %s FROM observations o
		JOIN observations_fts ON observations_fts.rowid = o.id
		WHERE %s
		ORDER BY (
			rank * (1.0 + 0.5 * (strftime('%%s','now') - o.created_at_epoch) / 2592000.0)
			+ CASE WHEN o.status = 'stale' THEN 1000.0 ELSE 0.0 END
		)
		LIMIT ? OFFSET ?
	`, qualifiedCols, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectObservations(rows)
}

// ObservationsByIDs fetches observations by id, newest first, and bumps
// last_accessed_epoch for each (spec.md §4.4 "lookup by id"). Neither
// search ranking nor the Context Renderer reads last_accessed_epoch.
func (s *Store) ObservationsByIDs(ctx context.Context, ids []int64) ([]*Observation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ph, args := inClause(ids)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM observations WHERE id IN (%s) ORDER BY created_at_epoch DESC`, obsCols, ph), args...)
	if err != nil {
		return nil, err
	}
	out, err := collectObservations(rows)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE observations SET last_accessed_epoch = strftime('%%s','now') WHERE id IN (%s)`, ph), args...); err != nil {
		return nil, err
	}
	return out, nil
}

// TimelineAround returns depthBefore observations older than anchorID,
// the anchor itself, and depthAfter observations newer than it, sorted
// chronologically (spec.md §4.9, grounded on get_timeline_around).
func (s *Store) TimelineAround(ctx context.Context, anchorID, depthBefore, depthAfter int64, project string) ([]*Observation, error) {
	anchorRows, err := s.db.QueryContext(ctx, `SELECT `+obsCols+` FROM observations WHERE id = ?`, anchorID)
	if err != nil {
		return nil, err
	}
	anchors, err := collectObservations(anchorRows)
	if err != nil {
		return nil, err
	}
	if len(anchors) == 0 {
		return nil, sql.ErrNoRows
	}
	anchor := anchors[0]

	projectFilter := ""
	if project != "" {
		projectFilter = " AND project = ?"
	}

	fetch := func(cmp, order string, depth int64) ([]*Observation, error) {
		query := fmt.Sprintf(`SELECT %s FROM observations WHERE created_at_epoch %s ?%s ORDER BY created_at_epoch %s LIMIT ?`,
			obsCols, cmp, projectFilter, order)
		args := []any{anchor.CreatedAtEpoch}
		if project != "" {
			args = append(args, project)
		}
		args = append(args, depth)

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		return collectObservations(rows)
	}

	before, err := fetch("<", "DESC", depthBefore)
	if err != nil {
		return nil, err
	}
	after, err := fetch(">", "ASC", depthAfter)
	if err != nil {
		return nil, err
	}

	all := append(before, after...)
	all = append(all, anchor)
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAtEpoch < all[j].CreatedAtEpoch })
	return all, nil
}

// qualify prefixes every column in a comma-separated column list with
// "alias.", for reusing obsCols in queries that join against another table.
func qualify(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
