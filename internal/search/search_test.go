package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remem-dev/remem/internal/store"
)

func TestSearcher_FTS_DelegatesToStore(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	o := &store.Observation{
		MemorySessionID: "mem-1",
		Project:         "p",
		Type:            "discovery",
		Title:           "cache invalidation bug",
		Narrative:       "fixed the cache invalidation bug",
	}
	_, err = store.InsertObservation(ctx, s.DB(), o)
	require.NoError(t, err)

	searcher := New(s)
	hits, err := searcher.FTS(ctx, Query{Text: "cache invalidation", Project: "p", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}
