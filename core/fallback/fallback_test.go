package fallback

import (
	"context"
	"errors"
	"testing"

	"module-loader/core/kvstore"
	"module-loader/core/module"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func authContract() module.Contract {
	return module.Contract{
		Path:     "/js/core/auth.js",
		Tier:     module.TierCore,
		Expected: []string{"login", "logout", "initialize", "refresh"},
		Async:    []string{"refresh"},
	}
}

func TestGenericFallback(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	f := NewFactory(nil, zap.New(core))
	fb := f.Create("auth", authContract(), errors.New("fetch failed"))

	assert.True(t, module.IsFallback(fb))
	assert.Equal(t, KindGeneric, fb.Kind())
	assert.Equal(t, []string{"login", "logout", "initialize", "refresh"}, fb.Exports())

	t.Run("Every contract export is callable", func(t *testing.T) {
		for _, name := range fb.Exports() {
			fn, ok := fb.Export(name)
			require.True(t, ok, name)
			assert.NotPanics(t, func() {
				_, err := fn(context.Background(), 1, "two", nil, []int{3})
				assert.NoError(t, err)
			})
		}
	})

	t.Run("Neutral values", func(t *testing.T) {
		ctx := context.Background()
		v, _ := module.Call(ctx, fb, "login", "user", "pass")
		assert.Nil(t, v)
		v, _ = module.Call(ctx, fb, "refresh")
		assert.Equal(t, module.Empty{}, v)
		v, _ = module.Call(ctx, fb, "initialize")
		assert.Equal(t, true, v)
		v, _ = module.Call(ctx, fb, "then")
		assert.Equal(t, module.Empty{}, v)
	})

	t.Run("Unknown exports resolve to stubs", func(t *testing.T) {
		fn, ok := fb.Export("somethingElse")
		require.True(t, ok)
		v, err := fn(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("Initialize never blocks startup", func(t *testing.T) {
		ok, err := fb.Initialize(context.Background())
		assert.True(t, ok)
		assert.NoError(t, err)
	})

	t.Run("Record", func(t *testing.T) {
		rec := fb.Record()
		assert.Equal(t, "auth", rec.Module)
		assert.Equal(t, module.TierCore, rec.Tier)
		assert.Equal(t, "fetch failed", rec.Origin)
		assert.Equal(t, "/js/core/auth.js", rec.Path)
	})

	assert.NotEmpty(t, logs.FilterMessage("Fallback export called").All())
	assert.Len(t, logs.FilterMessage("Using fallback module").All(), 1)
}

func TestEventBusFallback(t *testing.T) {
	f := NewFactory(nil, nil)
	fb := f.Create("event-bus", module.Contract{Expected: []string{"on", "emit", "reset"}}, nil)
	require.Equal(t, KindEventBus, fb.Kind())
	ctx := context.Background()

	var got []any
	id, err := module.Call(ctx, fb, "on", "saved", func(args ...any) { got = append(got, args...) })
	require.NoError(t, err)
	_, err = module.Call(ctx, fb, "once", "saved", func() { got = append(got, "once") })
	require.NoError(t, err)

	n, err := module.Call(ctx, fb, "emit", "saved", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, _ = module.Call(ctx, fb, "emit", "saved", 2)
	assert.Equal(t, 1, n)
	assert.Equal(t, []any{1, "once", 2}, got)

	removed, _ := module.Call(ctx, fb, "off", "saved", id)
	assert.Equal(t, 1, removed)
	count, _ := module.Call(ctx, fb, "listenerCount", "saved")
	assert.Equal(t, 0, count)

	_, err = module.Call(ctx, fb, "on", "saved", 42)
	assert.Error(t, err)

	v, err := module.Call(ctx, fb, "reset")
	assert.NoError(t, err)
	assert.Nil(t, v)
	assert.Contains(t, fb.Exports(), "listenerCount")
}

func TestTaskHistoryFallback(t *testing.T) {
	store := kvstore.NewMemory()
	f := NewFactory(store, nil)
	fb := f.Create("task_history", module.Contract{Expected: []string{"add", "list"}}, nil)
	require.Equal(t, KindTaskHistory, fb.Kind())
	ctx := context.Background()

	first, err := module.Call(ctx, fb, "add", map[string]any{"url": "a"})
	require.NoError(t, err)
	second, err := module.Call(ctx, fb, "add", "b")
	require.NoError(t, err)

	list, err := module.Call(ctx, fb, "list")
	require.NoError(t, err)
	tasks := list.([]Task)
	require.Len(t, tasks, 2)
	assert.Equal(t, first, tasks[0].ID)
	assert.Equal(t, second, tasks[1].ID)

	latest, _ := module.Call(ctx, fb, "list", 1)
	assert.Len(t, latest.([]Task), 1)

	got, _ := module.Call(ctx, fb, "get", second)
	assert.Equal(t, "b", got.(Task).Payload)

	t.Run("Persists across fallbacks", func(t *testing.T) {
		again := NewFactory(store, nil).Create("history", module.Contract{}, nil)
		list, err := module.Call(ctx, again, "list")
		require.NoError(t, err)
		assert.Len(t, list.([]Task), 2)
	})

	removed, _ := module.Call(ctx, fb, "remove", first)
	assert.Equal(t, true, removed)
	cleared, _ := module.Call(ctx, fb, "clear")
	assert.Equal(t, 1, cleared)
	missing, _ := module.Call(ctx, fb, "get", second)
	assert.Nil(t, missing)
}

func TestPanickingBuilder(t *testing.T) {
	f := NewFactory(nil, nil)
	f.Register("exploding", func(*Fallback) map[string]module.Export {
		panic("boom")
	}, "player")

	fb := f.Create("player", module.Contract{Expected: []string{"play"}}, nil)
	assert.Equal(t, KindMarker, fb.Kind())
	assert.True(t, fb.IsFallback())
	v, err := module.Call(context.Background(), fb, "play")
	assert.NoError(t, err)
	assert.Nil(t, v)
}
