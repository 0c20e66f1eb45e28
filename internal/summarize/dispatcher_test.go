package summarize

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remem-dev/remem/internal/gates"
	"github.com/remem-dev/remem/internal/projectkey"
	"github.com/remem-dev/remem/internal/queue"
	"github.com/remem-dev/remem/internal/store"
)

func setupDispatcher(t *testing.T, workerScript string) (*Dispatcher, string) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	q := queue.New(s.DB())
	g := gates.New(s.DB())

	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "worker.sh")
	require.NoError(t, os.WriteFile(scriptPath, []byte(workerScript), 0755))

	return NewDispatcher(g, q, scriptPath), tmpDir
}

func longEnoughMessage() string {
	return "the assistant produced a long enough response to pass the trivial-message quick reject"
}

func TestDispatch_SkipsTrivialMessage(t *testing.T) {
	ctx := context.Background()
	d, tmpDir := setupDispatcher(t, "#!/bin/sh\necho should-not-run > \"$(dirname \"$0\")/ran\"\n")

	raw, err := json.Marshal(Input{SessionID: "s1", Cwd: "/tmp/proj", LastAssistantMessage: "too short"})
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(ctx, raw, nil))
	_, err = os.Stat(filepath.Join(tmpDir, "ran"))
	assert.True(t, os.IsNotExist(err), "worker must not be spawned for a trivial message")
}

func TestDispatch_SkipsBelowMinPending(t *testing.T) {
	ctx := context.Background()
	d, tmpDir := setupDispatcher(t, "#!/bin/sh\necho should-not-run > \"$(dirname \"$0\")/ran\"\n")

	raw, err := json.Marshal(Input{SessionID: "s1", Cwd: "/tmp/proj", LastAssistantMessage: longEnoughMessage()})
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(ctx, raw, nil))
	_, err = os.Stat(filepath.Join(tmpDir, "ran"))
	assert.True(t, os.IsNotExist(err), "worker must not be spawned below min-pending")
}

func TestDispatch_SpawnsWorkerWhenGatesPass(t *testing.T) {
	ctx := context.Background()
	outputFile := "stdin.txt"
	s, err := store.Open(ctx, t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	q := queue.New(s.DB())
	g := gates.New(s.DB())

	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "worker.sh")
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/bin/sh\ncat > "+filepath.Join(tmpDir, outputFile)+"\n"), 0755))

	d := NewDispatcher(g, q, scriptPath)

	for i := 0; i < MinPending; i++ {
		require.NoError(t, q.Enqueue(ctx, "s1", "proj", "Write", "{}", "ok", "/tmp"))
	}

	in := Input{SessionID: "s1", Cwd: "/tmp/proj", LastAssistantMessage: longEnoughMessage()}
	raw, err := json.Marshal(in)
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(ctx, raw, []string{"summarize-worker"}))

	deadline := filepath.Join(tmpDir, outputFile)
	require.Eventually(t, func() bool {
		_, err := os.Stat(deadline)
		return err == nil
	}, 3*time.Second, 50*time.Millisecond)

	data, err := os.ReadFile(deadline)
	require.NoError(t, err)
	assert.Contains(t, string(data), in.SessionID)
}

func TestDispatch_SkipsOnCooldown(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	q := queue.New(s.DB())
	g := gates.New(s.DB())

	for i := 0; i < MinPending; i++ {
		require.NoError(t, q.Enqueue(ctx, "s1", "proj", "Write", "{}", "ok", "/tmp"))
	}

	project, err := projectkey.From("/tmp/proj")
	require.NoError(t, err)
	require.NoError(t, g.RecordSummarize(ctx, project, "somehash"))

	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "worker.sh")
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/bin/sh\necho ran > "+filepath.Join(tmpDir, "ran")+"\n"), 0755))

	d := NewDispatcher(g, q, scriptPath)
	raw, err := json.Marshal(Input{SessionID: "s1", Cwd: "/tmp/proj", LastAssistantMessage: longEnoughMessage()})
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(ctx, raw, nil))
	_, statErr := os.Stat(filepath.Join(tmpDir, "ran"))
	assert.True(t, os.IsNotExist(statErr), "worker must not be spawned while on cooldown")
}
