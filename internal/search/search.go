// Package search implements the Search component (spec.md §4.4 /
// §4.9, component C8): a thin façade over the store's full-text query,
// id lookup, and timeline methods, kept as its own package because the
// CLI and MCP surfaces both depend on it without needing the rest of
// the store's write path.
package search

import (
	"context"

	"github.com/remem-dev/remem/internal/store"
)

// Searcher runs queries against a Store.
type Searcher struct {
	store *store.Store
}

// New wraps a Store as a Searcher.
func New(s *store.Store) *Searcher { return &Searcher{store: s} }

// Query is Searcher.FTS's input, re-exported from store.SearchQuery so
// callers don't need to import the store package directly.
type Query = store.SearchQuery

// FTS runs a full-text query ranked by recency and staleness.
func (s *Searcher) FTS(ctx context.Context, q Query) ([]*store.Observation, error) {
	return s.store.SearchFTS(ctx, q)
}

// ByIDs fetches observations by id and records access.
func (s *Searcher) ByIDs(ctx context.Context, ids []int64) ([]*store.Observation, error) {
	return s.store.ObservationsByIDs(ctx, ids)
}

// TimelineAround returns the observations surrounding anchorID.
func (s *Searcher) TimelineAround(ctx context.Context, anchorID, depthBefore, depthAfter int64, project string) ([]*store.Observation, error) {
	return s.store.TimelineAround(ctx, anchorID, depthBefore, depthAfter, project)
}
