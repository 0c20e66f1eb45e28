package compact

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remem-dev/remem/internal/llm"
	"github.com/remem-dev/remem/internal/store"
)

type fakeExecutor struct {
	text string
}

func (f *fakeExecutor) Name() string { return "fake" }
func (f *fakeExecutor) Execute(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return &llm.Response{Text: f.text, InputTokens: 200, OutputTokens: 80, Model: "fake-model", Executor: "fake"}, nil
}

func seedObservations(t *testing.T, s *store.Store, project string, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_, err := store.InsertObservation(ctx, s.DB(), &store.Observation{
			MemorySessionID: "mem-1",
			Project:         project,
			Type:            "discovery",
			Title:           "obs",
			Narrative:       "narrative",
		})
		require.NoError(t, err)
	}
}

func TestRun_NoOpBelowThreshold(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	seedObservations(t, s, "p", 10)

	c := New(s, &fakeExecutor{text: "<observation><type>discovery</type><title>merged</title></observation>"}, "haiku")
	require.NoError(t, c.Run(ctx, "p", time.Second))

	n, err := s.CountActiveOrStale(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
}

func TestRun_CompressesAboveThreshold(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	seedObservations(t, s, "p", Threshold+10)

	c := New(s, &fakeExecutor{text: "<observation><type>discovery</type><title>merged summary</title><narrative>condensed</narrative></observation>"}, "haiku")
	require.NoError(t, c.Run(ctx, "p", time.Second))

	active, err := s.CountActiveOrStale(ctx, "p")
	require.NoError(t, err)
	// Batch (30) observations moved from active/stale to compressed, one new
	// compressed-memory observation inserted in their place.
	assert.Equal(t, int64(Threshold+10-Batch+1), active)
}
