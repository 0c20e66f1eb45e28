package summarize

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remem-dev/remem/internal/compact"
	"github.com/remem-dev/remem/internal/flush"
	"github.com/remem-dev/remem/internal/gates"
	"github.com/remem-dev/remem/internal/llm"
	"github.com/remem-dev/remem/internal/projectkey"
	"github.com/remem-dev/remem/internal/queue"
	"github.com/remem-dev/remem/internal/store"
)

type fakeSummaryExecutor struct {
	text string
	err  error
}

func (f *fakeSummaryExecutor) Name() string { return "fake" }
func (f *fakeSummaryExecutor) Execute(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.text, InputTokens: 120, OutputTokens: 60, Model: "fake-model", Executor: "fake"}, nil
}

func setupWorker(t *testing.T, text string) (*Worker, *store.Store, *queue.Queue, *gates.Gates) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	q := queue.New(s.DB())
	g := gates.New(s.DB())
	executor := &fakeSummaryExecutor{text: text}
	f := flush.New(s, q, executor, "haiku")
	c := compact.New(s, executor, "haiku")

	return NewWorker(s, q, g, f, c, executor, "haiku"), s, q, g
}

const sampleSummaryResponse = `<summary>
<request>add login flow</request>
<completed>wired the handler</completed>
<decisions>used bcrypt</decisions>
<learned>session store was already keyed by user id</learned>
<next_steps>add tests</next_steps>
<preferences>keep PRs small</preferences>
</summary>`

func TestWorker_FinalizesSummaryAndReleasesLock(t *testing.T) {
	ctx := context.Background()
	w, s, q, g := setupWorker(t, sampleSummaryResponse)

	require.NoError(t, q.Enqueue(ctx, "sess1", "proj", "Write", `{"file_path":"a.go"}`, "ok", "/tmp/proj"))

	raw, err := json.Marshal(Input{
		SessionID:            "sess1",
		Cwd:                  "/tmp/proj",
		LastAssistantMessage: longEnoughMessage(),
	})
	require.NoError(t, err)

	require.NoError(t, w.Run(ctx, raw))

	memSessID := w.resolveMemorySessionID(ctx, "sess1")
	project, err2 := projectkey.From("/tmp/proj")
	require.NoError(t, err2)

	summary, err := s.LatestSummary(ctx, memSessID, project)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, "add login flow", summary.Request)

	err = g.TryAcquire(ctx, project, 180)
	assert.NoError(t, err, "lock must be released after finalize")
}

func TestWorker_SkipEnvelopeLeavesNoSummary(t *testing.T) {
	ctx := context.Background()
	w, s, q, _ := setupWorker(t, "<skip_summary/>")

	require.NoError(t, q.Enqueue(ctx, "sess1", "proj", "Write", "{}", "ok", "/tmp/proj"))

	raw, err := json.Marshal(Input{
		SessionID:            "sess1",
		Cwd:                  "/tmp/proj",
		LastAssistantMessage: longEnoughMessage(),
	})
	require.NoError(t, err)

	require.NoError(t, w.Run(ctx, raw))

	memSessID := w.resolveMemorySessionID(ctx, "sess1")
	project, err2 := projectkey.From("/tmp/proj")
	require.NoError(t, err2)
	summary, err := s.LatestSummary(ctx, memSessID, project)
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestWorker_RecheckCooldownSkips(t *testing.T) {
	ctx := context.Background()
	w, s, q, g := setupWorker(t, sampleSummaryResponse)

	require.NoError(t, q.Enqueue(ctx, "sess1", "proj", "Write", "{}", "ok", "/tmp/proj"))

	project, err2 := projectkey.From("/tmp/proj")
	require.NoError(t, err2)
	require.NoError(t, g.RecordSummarize(ctx, project, "unrelated-hash"))

	raw, err := json.Marshal(Input{
		SessionID:            "sess1",
		Cwd:                  "/tmp/proj",
		LastAssistantMessage: longEnoughMessage(),
	})
	require.NoError(t, err)

	require.NoError(t, w.Run(ctx, raw))

	memSessID := w.resolveMemorySessionID(ctx, "sess1")
	summary, err := s.LatestSummary(ctx, memSessID, project)
	require.NoError(t, err)
	assert.Nil(t, summary, "worker must bail out on the re-checked cooldown gate")
}

func TestWorker_TrivialMessageSkips(t *testing.T) {
	ctx := context.Background()
	w, s, q, _ := setupWorker(t, sampleSummaryResponse)

	require.NoError(t, q.Enqueue(ctx, "sess1", "proj", "Write", "{}", "ok", "/tmp/proj"))

	raw, err := json.Marshal(Input{SessionID: "sess1", Cwd: "/tmp/proj", LastAssistantMessage: "too short"})
	require.NoError(t, err)

	require.NoError(t, w.Run(ctx, raw))

	memSessID := w.resolveMemorySessionID(ctx, "sess1")
	project, err2 := projectkey.From("/tmp/proj")
	require.NoError(t, err2)
	summary, err := s.LatestSummary(ctx, memSessID, project)
	require.NoError(t, err)
	assert.Nil(t, summary)
}
