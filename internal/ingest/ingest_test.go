package ingest

import (
	"context"
	"encoding/json"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remem-dev/remem/internal/queue"
	"github.com/remem-dev/remem/internal/store"
	"github.com/remem-dev/remem/internal/textutil"
)

func TestShouldSkipBashCommand(t *testing.T) {
	assert.True(t, ShouldSkipBashCommand("git status"))
	assert.True(t, ShouldSkipBashCommand("  ls -la"))
	assert.False(t, ShouldSkipBashCommand("rm -rf build"))
}

func TestShouldRecord_FiltersSkipAndNonAction(t *testing.T) {
	assert.False(t, ShouldRecord(Event{ToolName: "TodoWrite"}))
	assert.False(t, ShouldRecord(Event{ToolName: "Read"}))
	assert.True(t, ShouldRecord(Event{ToolName: "Write"}))
}

func TestShouldRecord_SkipsRoutineBash(t *testing.T) {
	ev := Event{ToolName: "Bash", ToolInput: json.RawMessage(`{"command":"git log --oneline"}`)}
	assert.False(t, ShouldRecord(ev))

	ev2 := Event{ToolName: "Bash", ToolInput: json.RawMessage(`{"command":"rm -rf build"}`)}
	assert.True(t, ShouldRecord(ev2))
}

func TestTruncateUTF8_DoesNotSplitRune(t *testing.T) {
	s := "hello \xe4\xb8\xad\xe6\x96\x87" // "hello 中文"
	out := textutil.TruncateUTF8(s, 8)
	assert.LessOrEqual(t, len(out), 8)
	assert.True(t, utf8.ValidString(out), "truncation must not leave a partial rune")
}

func TestEnqueue_SkippedEventNotQueued(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := store.Open(ctx, dir)
	require.NoError(t, err)
	defer s.Close()
	q := queue.New(s.DB())

	queued, err := Enqueue(ctx, q, Event{ToolName: "TodoWrite", SessionID: "s1"}, "p")
	require.NoError(t, err)
	assert.False(t, queued)

	n, err := q.CountAvailable(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestEnqueue_ActionEventQueuedAndTruncated(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := store.Open(ctx, dir)
	require.NoError(t, err)
	defer s.Close()
	q := queue.New(s.DB())

	big := make([]byte, MaxResponseSize+500)
	for i := range big {
		big[i] = 'a'
	}
	resp, err := json.Marshal(string(big))
	require.NoError(t, err)

	queued, err := Enqueue(ctx, q, Event{
		ToolName:     "Write",
		SessionID:    "s1",
		Cwd:          "/tmp",
		ToolInput:    json.RawMessage(`{"file_path":"a.go"}`),
		ToolResponse: resp,
	}, "p")
	require.NoError(t, err)
	assert.True(t, queued)

	n, err := q.CountAvailable(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
