package retry

import (
	"context"
	"testing"
	"time"

	"module-loader/core/kvstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyDelay(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}

	assert.Equal(t, 100*time.Millisecond, p.Delay(0))
	assert.Equal(t, 200*time.Millisecond, p.Delay(1))
	assert.Equal(t, 400*time.Millisecond, p.Delay(2))
	assert.Equal(t, 800*time.Millisecond, p.Delay(3))
	assert.Equal(t, time.Second, p.Delay(4))
	assert.Equal(t, time.Second, p.Delay(200))

	assert.Zero(t, Policy{}.Delay(3))

	uncapped := Policy{BaseDelay: time.Millisecond}
	assert.Equal(t, 8*time.Millisecond, uncapped.Delay(3))
}

func TestPolicyBudget(t *testing.T) {
	p := Policy{MaxAttempts: 2}
	assert.False(t, p.Exhausted(0))
	assert.False(t, p.Exhausted(1))
	assert.True(t, p.Exhausted(2))
	assert.True(t, p.Exhausted(3))

	assert.Equal(t, 1, Policy{}.Limit())
	assert.Equal(t, 4, p.WithMaxAttempts(4).Limit())
	assert.Equal(t, 2, p.WithMaxAttempts(0).Limit())
	assert.Equal(t, DefaultMaxAttempts, DefaultPolicy().Limit())
}

func TestPolicyWait(t *testing.T) {
	t.Run("Elapses", func(t *testing.T) {
		p := Policy{BaseDelay: 5 * time.Millisecond}
		start := time.Now()
		require.NoError(t, p.Wait(context.Background(), 0))
		assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
	})

	t.Run("Cancelled", func(t *testing.T) {
		p := Policy{BaseDelay: time.Hour}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, p.Wait(ctx, 0), context.Canceled)
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	h := NewHistory(store)

	require.NoError(t, h.MarkFailed(ctx, "/js/core/b.js"))
	require.NoError(t, h.MarkFailed(ctx, "/js/core/a.js"))
	require.NoError(t, h.MarkFailed(ctx, "/js/core/a.js"))

	failed, err := h.Failed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/js/core/a.js", "/js/core/b.js"}, failed)

	raw, ok, _ := store.Get(ctx, HistoryKey)
	require.True(t, ok)
	assert.JSONEq(t, `["/js/core/a.js","/js/core/b.js"]`, raw)

	ok, err = NewHistory(store).IsFailed(ctx, "/js/core/b.js")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, h.Clear(ctx, "/js/core/a.js"))
	failed, _ = h.Failed(ctx)
	assert.Equal(t, []string{"/js/core/b.js"}, failed)

	require.NoError(t, h.ClearAll(ctx))
	failed, _ = h.Failed(ctx)
	assert.Empty(t, failed)
	_, ok, _ = store.Get(ctx, HistoryKey)
	assert.False(t, ok)
}

func TestHistoryCorrupt(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	require.NoError(t, store.Set(ctx, HistoryKey, "{not json"))

	_, err := NewHistory(store).Failed(ctx)
	assert.ErrorContains(t, err, "corrupt")
}
