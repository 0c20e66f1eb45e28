package gates_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remem-dev/remem/internal/gates"
	"github.com/remem-dev/remem/internal/store"
)

func testGates(t *testing.T) *gates.Gates {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(context.Background(), dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return gates.New(s.DB())
}

// S2 — Cooldown suppresses back-to-back summarize.
func TestIsOnCooldown(t *testing.T) {
	ctx := context.Background()
	g := testGates(t)

	on, err := g.IsOnCooldown(ctx, "p", 300)
	require.NoError(t, err)
	assert.False(t, on, "no cooldown row yet")

	require.NoError(t, g.RecordSummarize(ctx, "p", "h1"))

	on, err = g.IsOnCooldown(ctx, "p", 300)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = g.IsOnCooldown(ctx, "p", 0)
	require.NoError(t, err)
	assert.False(t, on, "zero window never blocks")
}

// S3 — Duplicate message is suppressed; a distinct message is not.
func TestIsDuplicateMessage(t *testing.T) {
	ctx := context.Background()
	g := testGates(t)

	dup, err := g.IsDuplicateMessage(ctx, "p", "h1")
	require.NoError(t, err)
	assert.False(t, dup)

	require.NoError(t, g.RecordSummarize(ctx, "p", "h1"))

	dup, err = g.IsDuplicateMessage(ctx, "p", "h1")
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = g.IsDuplicateMessage(ctx, "p", "h2")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestTryAcquire_BlocksWhileHeldThenExpires(t *testing.T) {
	ctx := context.Background()
	g := testGates(t)

	require.NoError(t, g.TryAcquire(ctx, "p", 120))

	err := g.TryAcquire(ctx, "p", 120)
	assert.ErrorIs(t, err, gates.ErrLocked)

	require.NoError(t, g.TryAcquire(ctx, "p", 0))
}

func TestTryAcquire_ReleaseAllowsReacquire(t *testing.T) {
	ctx := context.Background()
	g := testGates(t)

	require.NoError(t, g.TryAcquire(ctx, "p", 120))
	require.NoError(t, g.Release(ctx, "p"))
	require.NoError(t, g.TryAcquire(ctx, "p", 120))
}

func TestHashMessage_DeterministicAndDistinct(t *testing.T) {
	a := gates.HashMessage("hello world")
	b := gates.HashMessage("hello world")
	c := gates.HashMessage("hello world!")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}
