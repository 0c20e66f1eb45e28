package context

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remem-dev/remem/internal/projectkey"
	"github.com/remem-dev/remem/internal/store"
)

const testCwd = "/tmp/proj"

func testProject(t *testing.T) string {
	t.Helper()
	p, err := projectkey.From(testCwd)
	require.NoError(t, err)
	return p
}

func setupRenderer(t *testing.T) (*Renderer, *store.Store) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return New(s), s
}

func insertObs(t *testing.T, s *store.Store, obsType, title string) {
	t.Helper()
	_, err := store.InsertObservation(context.Background(), s.DB(), &store.Observation{
		MemorySessionID: "mem-abc",
		Project:         testProject(t),
		Type:            obsType,
		Title:           title,
		Subtitle:        "subtitle",
		Narrative:       "narrative text",
	})
	require.NoError(t, err)
}

func TestRender_EmptyProjectSaysNoMemory(t *testing.T) {
	r, _ := setupRenderer(t)
	out, err := r.Render(context.Background(), Options{Cwd: "/tmp/empty-proj"})
	require.NoError(t, err)
	assert.Contains(t, out, "No memory recorded yet")
}

func TestRender_HighValueTypesGetFullRendering(t *testing.T) {
	r, s := setupRenderer(t)
	insertObs(t, s, "bugfix", "fixed the race")
	insertObs(t, s, "discovery", "found a helper")

	out, err := r.Render(context.Background(), Options{Cwd: testCwd})
	require.NoError(t, err)

	assert.Contains(t, out, "[bugfix] fixed the race")
	assert.Contains(t, out, "narrative text")
	assert.Contains(t, out, "Other activity:")
	assert.Contains(t, out, "discovery")
}

func TestRender_FullCountCapsHighValueEntries(t *testing.T) {
	r, s := setupRenderer(t)
	for i := 0; i < 3; i++ {
		insertObs(t, s, "decision", "decision")
	}

	out, err := r.Render(context.Background(), Options{Cwd: testCwd, FullCount: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "narrative text"))
	assert.Contains(t, out, "Other activity:")
}

func TestRender_SummaryFooterAndTimeline(t *testing.T) {
	r, s := setupRenderer(t)
	ctx := context.Background()
	project := testProject(t)

	require.NoError(t, store.UpsertSession(ctx, s.DB(), "content-older", "mem-older", project, "do thing one", 500))
	require.NoError(t, store.UpsertSession(ctx, s.DB(), "content-newer", "mem-newer", project, "do thing two", 1500))

	_, err := s.FinalizeSummarize(ctx, "mem-older", project, store.SessionSummary{
		Request: "older request", Completed: "older completed",
	}, "hash-1", 1000)
	require.NoError(t, err)

	_, err = s.FinalizeSummarize(ctx, "mem-newer", project, store.SessionSummary{
		Request: "newest request", Completed: "newest completed",
	}, "hash-2", 2000)
	require.NoError(t, err)

	out, err := r.Render(ctx, Options{Cwd: testCwd})
	require.NoError(t, err)

	assert.Contains(t, out, "Most recent session:")
	assert.Contains(t, out, "newest request")
	assert.Contains(t, out, "Session history:")
	assert.Contains(t, out, "older request")
}

func TestRender_TokenEstimateLine(t *testing.T) {
	r, s := setupRenderer(t)
	insertObs(t, s, "feature", "added a feature")

	out, err := r.Render(context.Background(), Options{Cwd: testCwd})
	require.NoError(t, err)
	assert.Contains(t, out, "tokens to read this briefing")
}
