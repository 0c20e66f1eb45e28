package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertTestObservation(t *testing.T, s *Store, project, title, narrative, status string) int64 {
	t.Helper()
	ctx := context.Background()
	o := &Observation{
		MemorySessionID: "mem-1",
		Project:         project,
		Type:            "discovery",
		Title:           title,
		Narrative:       narrative,
	}
	id, err := InsertObservation(ctx, s.db, o)
	require.NoError(t, err)
	if status != StatusActive {
		_, err := s.db.ExecContext(ctx, "UPDATE observations SET status = ? WHERE id = ?", status, id)
		require.NoError(t, err)
	}
	return id
}

// S6 — Search ranks stale observations behind active ones for an
// otherwise-tied query.
func TestSearchFTS_PenalizesStale(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	staleID := insertTestObservation(t, s, "p", "widget parser bug", "fixed the widget parser", StatusStale)
	activeID := insertTestObservation(t, s, "p", "widget parser bug", "fixed the widget parser again", StatusActive)

	hits, err := s.SearchFTS(ctx, SearchQuery{Text: "widget parser", Project: "p", IncludeStale: true, Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, activeID, hits[0].ID)
	assert.Equal(t, staleID, hits[1].ID)
}

func TestSearchFTS_ExcludesStaleByDefault(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	insertTestObservation(t, s, "p", "flaky test fix", "stabilized the flaky test", StatusStale)

	hits, err := s.SearchFTS(ctx, SearchQuery{Text: "flaky test", Project: "p", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestObservationsByIDs_RecordsAccess(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	id := insertTestObservation(t, s, "p", "title", "narrative", StatusActive)

	out, err := s.ObservationsByIDs(ctx, []int64{id})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].LastAccessedEpoch, "access stamp applies to the row, not the returned snapshot")

	out2, err := s.ObservationsByIDs(ctx, []int64{id})
	require.NoError(t, err)
	require.Len(t, out2, 1)
	require.NotNil(t, out2[0].LastAccessedEpoch)
}

func TestTimelineAround_OrdersChronologically(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	a := insertTestObservation(t, s, "p", "a", "first", StatusActive)
	b := insertTestObservation(t, s, "p", "b", "second", StatusActive)
	c := insertTestObservation(t, s, "p", "c", "third", StatusActive)

	for id, epoch := range map[int64]int64{a: 1000, b: 2000, c: 3000} {
		_, err := s.db.ExecContext(ctx, "UPDATE observations SET created_at_epoch = ? WHERE id = ?", epoch, id)
		require.NoError(t, err)
	}

	timeline, err := s.TimelineAround(ctx, b, 5, 5, "p")
	require.NoError(t, err)
	require.Len(t, timeline, 3)
	assert.Equal(t, a, timeline[0].ID)
	assert.Equal(t, b, timeline[1].ID)
	assert.Equal(t, c, timeline[2].ID)
}
