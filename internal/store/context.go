package store

import "context"

// ObservationsForContext loads up to limit non-compressed observations for
// project whose type is in allowedTypes, newest first, split into active
// and stale slices (spec.md §4.8 "Context Renderer" step 2). Passing a nil
// or empty allowedTypes matches every type.
func (s *Store) ObservationsForContext(ctx context.Context, project string, limit int, allowedTypes []string) (active, stale []*Observation, err error) {
	query := `SELECT ` + obsCols + ` FROM observations WHERE project = ? AND status IN ('active','stale')`
	args := []any{project}

	if len(allowedTypes) > 0 {
		ph, typeArgs := inClauseStrings(allowedTypes)
		query += ` AND type IN (` + ph + `)`
		args = append(args, typeArgs...)
	}
	query += ` ORDER BY created_at_epoch DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	all, err := collectObservations(rows)
	if err != nil {
		return nil, nil, err
	}

	for _, o := range all {
		if o.Status == StatusStale {
			stale = append(stale, o)
		} else {
			active = append(active, o)
		}
	}
	return active, stale, nil
}

func inClauseStrings(vals []string) (string, []any) {
	ph := ""
	args := make([]any, len(vals))
	for i, v := range vals {
		if i > 0 {
			ph += ","
		}
		ph += "?"
		args[i] = v
	}
	return ph, args
}
