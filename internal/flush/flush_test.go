package flush

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remem-dev/remem/internal/llm"
	"github.com/remem-dev/remem/internal/queue"
	"github.com/remem-dev/remem/internal/store"
)

type fakeExecutor struct {
	text string
	err  error
}

func (f *fakeExecutor) Name() string { return "fake" }

func (f *fakeExecutor) Execute(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.text, InputTokens: 100, OutputTokens: 50, Model: "fake-model", Executor: "fake"}, nil
}

func setup(t *testing.T) (*store.Store, *queue.Queue) {
	t.Helper()
	s, err := store.Open(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, queue.New(s.DB())
}

const sampleObservationResponse = `<observation>
<type>bugfix</type>
<title>Fixed nil pointer in parser</title>
<subtitle>guarded against empty input</subtitle>
<narrative>Added a nil check before dereferencing the token stream.</narrative>
<facts><fact>parser.go line 42</fact></facts>
<concepts><concept>parsing</concept></concepts>
<files_modified><file>parser.go</file></files_modified>
</observation>`

func TestFlush_PersistsObservationsAndDrainsQueue(t *testing.T) {
	ctx := context.Background()
	s, q := setup(t)
	require.NoError(t, q.Enqueue(ctx, "sess1", "proj", "Write", `{"file_path":"parser.go"}`, "ok", "/tmp"))

	f := New(s, q, &fakeExecutor{text: sampleObservationResponse}, "haiku")
	n, err := f.Flush(ctx, "sess1", "proj")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	available, err := q.CountAvailable(ctx, "sess1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), available)

	recent, err := s.RecentActiveObservations(ctx, "proj", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "bugfix", recent[0].Type)
}

func TestFlush_EmptyQueueReturnsZero(t *testing.T) {
	ctx := context.Background()
	s, q := setup(t)

	f := New(s, q, &fakeExecutor{text: sampleObservationResponse}, "haiku")
	n, err := f.Flush(ctx, "sess1", "proj")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestFlush_NoObservationsParsedDrainsQueue(t *testing.T) {
	ctx := context.Background()
	s, q := setup(t)
	require.NoError(t, q.Enqueue(ctx, "sess1", "proj", "Write", "{}", "ok", "/tmp"))

	f := New(s, q, &fakeExecutor{text: "nothing worth recording"}, "haiku")
	n, err := f.Flush(ctx, "sess1", "proj")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	available, err := q.CountAvailable(ctx, "sess1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), available, "rows drain even with zero parsed observations")
}

func TestFlush_LLMFailureReleasesLease(t *testing.T) {
	ctx := context.Background()
	s, q := setup(t)
	require.NoError(t, q.Enqueue(ctx, "sess1", "proj", "Write", "{}", "ok", "/tmp"))

	f := New(s, q, &fakeExecutor{err: assert.AnError}, "haiku")
	n, err := f.Flush(ctx, "sess1", "proj")
	require.NoError(t, err, "LLM failures are not surfaced as errors")
	assert.Equal(t, 0, n)

	available, err := q.CountAvailable(ctx, "sess1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), available, "row is available again after lease release")
}

func TestFlush_FileOverlapMarksPriorObservationStale(t *testing.T) {
	ctx := context.Background()
	s, q := setup(t)

	first := &store.Observation{
		MemorySessionID: "mem-1",
		Project:         "proj",
		Type:            "feature",
		Title:           "added parser",
		FilesModified:   []string{"parser.go"},
	}
	firstID, err := store.InsertObservation(ctx, s.DB(), first)
	require.NoError(t, err)

	require.NoError(t, q.Enqueue(ctx, "sess1", "proj", "Write", `{"file_path":"parser.go"}`, "ok", "/tmp"))

	f := New(s, q, &fakeExecutor{text: sampleObservationResponse}, "haiku")
	n, err := f.Flush(ctx, "sess1", "proj")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	refreshed, err := s.ObservationsByIDs(ctx, []int64{firstID})
	require.NoError(t, err)
	require.Len(t, refreshed, 1)
	assert.Equal(t, store.StatusStale, refreshed[0].Status)
}
