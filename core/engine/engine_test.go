package engine

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"module-loader/core/kvstore"
	"module-loader/core/module"
	"module-loader/core/notify"
	"module-loader/core/registry"
	"module-loader/core/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handler func(ctx context.Context, call int) (module.Module, error)

// scriptedSource counts fetches per path and runs a handler when one is set.
type scriptedSource struct {
	mu       sync.Mutex
	calls    map[string]int
	handlers map[string]handler
}

func newScriptedSource() *scriptedSource {
	return &scriptedSource{calls: map[string]int{}, handlers: map[string]handler{}}
}

func (s *scriptedSource) on(filename string, h handler) *scriptedSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[filename] = h
	return s
}

func (s *scriptedSource) fail(filename string) *scriptedSource {
	return s.on(filename, func(context.Context, int) (module.Module, error) {
		return nil, errors.New("network error")
	})
}

func (s *scriptedSource) count(filename string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[filename]
}

func (s *scriptedSource) Fetch(ctx context.Context, canonical string) (module.Module, error) {
	filename := path.Base(canonical)
	s.mu.Lock()
	s.calls[filename]++
	call := s.calls[filename]
	h := s.handlers[filename]
	s.mu.Unlock()
	if h != nil {
		return h(ctx, call)
	}
	return plainModule(filename), nil
}

func plainModule(filename string) module.Module {
	name := strings.TrimSuffix(filename, path.Ext(filename))
	return module.New(name, map[string]module.Export{
		"ping": func(context.Context, ...any) (any, error) { return "pong:" + name, nil },
	})
}

func testRegistry() *registry.Registry {
	return registry.MustNew(registry.Definition{
		Root:          "/js",
		Priority:      []string{"x.js", "y.js"},
		NeverFallback: []string{"app.js"},
		Modules: []registry.Entry{
			{Filename: "auth.js", Tier: module.TierCore, Exports: []string{"login", "logout"}},
			{Filename: "a.js", Tier: module.TierCore, DependsOn: []string{"b.js"}},
			{Filename: "b.js", Tier: module.TierCore, DependsOn: []string{"a.js"}},
			{Filename: "c.js", Tier: module.TierFeature, Exports: []string{"ping"}},
			{Filename: "d.js", Tier: module.TierFeature},
			{Filename: "p.js", Tier: module.TierFeature, Exports: []string{"ping"}},
			{Filename: "q.js", Tier: module.TierFeature, Exports: []string{"ping"}},
			{Filename: "x.js", Tier: module.TierCore},
			{Filename: "y.js", Tier: module.TierCore},
			{Filename: "z.js", Tier: module.TierUtility},
			{Filename: "app.js", Tier: module.TierCore, Exports: []string{"start"}},
			{Filename: "ui.js", Tier: module.TierFeature, Exports: []string{"render", "mount", "initialize", "then"}, AsyncExports: []string{"mount"}},
			{Filename: "store.js", Tier: module.TierCore, Critical: true, DependsOn: []string{"config.js"}},
			{Filename: "config.js", Tier: module.TierCore, Critical: true},
			{Filename: "slow.js", Tier: module.TierUtility},
			{Filename: "flaky.js", Tier: module.TierUtility, Exports: []string{"ping"}},
		},
	})
}

func newTestEngine(t *testing.T, src *scriptedSource, mutate ...func(*Options)) (*Engine, *notify.Recorder) {
	t.Helper()
	recorder := notify.NewRecorder(0)
	opts := Options{
		Registry: testRegistry(),
		Source:   src,
		Policy:   retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
		Notifier: recorder,
		Timeout:  2 * time.Second,
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	e, err := New(opts)
	require.NoError(t, err)
	return e, recorder
}

func TestNew(t *testing.T) {
	_, err := New(Options{Source: newScriptedSource()})
	assert.Error(t, err)
	_, err = New(Options{Registry: testRegistry()})
	assert.Error(t, err)
}

func TestConcurrentLoadsShareOneFetch(t *testing.T) {
	release := make(chan struct{})
	src := newScriptedSource().on("auth.js", func(context.Context, int) (module.Module, error) {
		<-release
		return plainModule("auth.js"), nil
	})
	e, _ := newTestEngine(t, src)

	const callers = 25
	results := make([]module.Module, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := e.Load(context.Background(), "auth.js?v="+string(rune('a'+i)), LoadOptions{})
			assert.NoError(t, err)
			results[i] = m
		}(i)
	}
	time.Sleep(30 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, src.count("auth.js"))
	require.NotNil(t, results[0])
	for _, m := range results {
		assert.Same(t, results[0], m)
	}

	again, err := e.Load(context.Background(), "./auth 2.js", LoadOptions{})
	require.NoError(t, err)
	assert.Same(t, results[0], again)
	assert.Equal(t, 1, src.count("auth.js"))

	published, ok := e.Lookup("auth")
	require.True(t, ok)
	assert.Same(t, results[0], published)
}

func TestRequiredModuleExhaustsRetries(t *testing.T) {
	src := newScriptedSource().fail("auth.js")
	e, recorder := newTestEngine(t, src)
	ctx := context.Background()

	m, err := e.Load(ctx, "auth.js", LoadOptions{Required: true, MaxRetries: 2})
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, 2, src.count("auth.js"))
	assert.True(t, module.IsFallback(m))
	for _, name := range []string{"login", "logout"} {
		v, err := module.Call(ctx, m, name, "user", 42)
		assert.NoError(t, err)
		assert.Nil(t, v)
	}
	require.Len(t, recorder.List(), 1)
	assert.Equal(t, notify.LevelError, recorder.List()[0].Level)
	assert.Equal(t, "auth", recorder.List()[0].Module)

	rec, ok := e.Record("auth.js")
	require.True(t, ok)
	assert.Equal(t, 2, rec.Attempts)
	assert.True(t, errors.Is(rec.Err, ErrPermanentLoad))

	t.Run("Subsequent loads do not refetch", func(t *testing.T) {
		again, err := e.Load(ctx, "auth", LoadOptions{Required: true, MaxRetries: 2})
		require.NoError(t, err)
		assert.Same(t, m, again)
		again, err = e.Load(ctx, "auth", LoadOptions{SkipCache: true, MaxRetries: 5})
		require.NoError(t, err)
		assert.Same(t, m, again)
		assert.Equal(t, 2, src.count("auth.js"))
		assert.Len(t, recorder.List(), 1)
	})

	t.Run("Failure is persisted", func(t *testing.T) {
		assert.Equal(t, []string{"/js/core/auth.js"}, e.Failed(ctx))
	})
}

func TestCircularDependencyTerminates(t *testing.T) {
	e, _ := newTestEngine(t, newScriptedSource())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	m, err := e.Load(ctx, "a.js", LoadOptions{})
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.False(t, module.IsDeferred(m))
	v, err := module.Call(ctx, m, "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong:a", v)

	assert.Equal(t, [][]string{{"/js/core/a.js", "/js/core/b.js"}}, e.Cycles())
	assert.Equal(t, 1, e.CircularHits()["/js/core/a.js"])

	rec, _ := e.Record("b.js")
	assert.Equal(t, "loaded", string(rec.State))
}

func TestDeferredModuleForwardsOnceLoaded(t *testing.T) {
	var (
		e        *Engine
		captured module.Module
		early    any
	)
	src := newScriptedSource().
		on("c.js", func(ctx context.Context, _ int) (module.Module, error) {
			if _, err := e.Load(ctx, "d.js", LoadOptions{}); err != nil {
				return nil, err
			}
			return plainModule("c.js"), nil
		}).
		on("d.js", func(ctx context.Context, _ int) (module.Module, error) {
			m, err := e.Load(ctx, "c.js", LoadOptions{})
			if err != nil {
				return nil, err
			}
			captured = m
			early, _ = module.Call(ctx, m, "ping")
			return plainModule("d.js"), nil
		})
	e, _ = newTestEngine(t, src)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := e.Load(ctx, "c.js", LoadOptions{})
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.True(t, module.IsDeferred(captured))
	assert.Nil(t, early)

	v, err := module.Call(ctx, captured, "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong:c", v)

	completed, _ := e.Record("c.js")
	assert.False(t, module.IsDeferred(completed.Value))
}

func TestCrossLoadWaitIsBroken(t *testing.T) {
	var e *Engine
	pStarted, qStarted := make(chan struct{}), make(chan struct{})
	src := newScriptedSource().
		on("p.js", func(ctx context.Context, _ int) (module.Module, error) {
			close(pStarted)
			<-qStarted
			if _, err := e.Load(ctx, "q.js", LoadOptions{}); err != nil {
				return nil, err
			}
			return plainModule("p.js"), nil
		}).
		on("q.js", func(ctx context.Context, _ int) (module.Module, error) {
			close(qStarted)
			<-pStarted
			if _, err := e.Load(ctx, "p.js", LoadOptions{}); err != nil {
				return nil, err
			}
			return plainModule("q.js"), nil
		})
	e, _ = newTestEngine(t, src)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	results := make([]module.Module, 2)
	for i, ref := range []string{"p.js", "q.js"} {
		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			m, err := e.Load(ctx, ref, LoadOptions{MaxRetries: 1})
			assert.NoError(t, err)
			results[i] = m
		}(i, ref)
	}
	wg.Wait()

	require.NoError(t, ctx.Err())
	for _, m := range results {
		require.NotNil(t, m)
		assert.False(t, module.IsFallback(m))
	}
	assert.NotEmpty(t, e.CircularHits())
}

func TestFallbackExposesEveryRegisteredExport(t *testing.T) {
	e, _ := newTestEngine(t, newScriptedSource().fail("ui.js"))
	ctx := context.Background()

	m, err := e.Load(ctx, "ui", LoadOptions{MaxRetries: 1})
	require.NoError(t, err)
	require.True(t, module.IsFallback(m))

	entry, _ := e.Registry().ByFilename("ui.js")
	for _, name := range entry.Exports {
		fn, ok := m.Export(name)
		require.True(t, ok, name)
		assert.NotPanics(t, func() {
			_, err := fn(ctx, nil, 1, "x", map[string]int{"a": 1}, []any{nil})
			assert.NoError(t, err)
		})
	}
	v, _ := module.Call(ctx, m, "mount")
	assert.Equal(t, module.Empty{}, v)
	v, _ = module.Call(ctx, m, "initialize")
	assert.Equal(t, true, v)
}

func TestLoadManyOrdering(t *testing.T) {
	var (
		mu     sync.Mutex
		events []string
	)
	record := func(event string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
	}
	initializing := func(name string, ok bool) handler {
		return func(context.Context, int) (module.Module, error) {
			record("fetch " + name)
			return module.New(name, nil).WithInitializer(func(context.Context) (bool, error) {
				time.Sleep(10 * time.Millisecond)
				record("init " + name)
				return ok, nil
			}), nil
		}
	}
	src := newScriptedSource().
		on("x.js", initializing("x", true)).
		on("y.js", initializing("y", false)).
		on("z.js", func(context.Context, int) (module.Module, error) {
			record("fetch z")
			return plainModule("z.js"), nil
		})
	e, _ := newTestEngine(t, src)

	results, err := e.LoadMany(context.Background(), []string{"z", "y", "x"}, false, BatchOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, []string{"fetch x", "init x", "fetch y", "init y", "fetch z"}, events)

	rec, _ := e.Record("y.js")
	assert.ErrorIs(t, rec.InitErr, ErrInitialization)
	assert.Equal(t, "degraded", string(e.Health().Status))
}

func TestLoadManyCriticalDependencyOrder(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	track := func(name string) handler {
		return func(context.Context, int) (module.Module, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return plainModule(name + ".js"), nil
		}
	}
	src := newScriptedSource().on("store.js", track("store")).on("config.js", track("config"))
	e, _ := newTestEngine(t, src)

	_, err := e.LoadMany(context.Background(), []string{"store", "config"}, true, BatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"config", "store"}, order)
}

func TestLoadManyChunksOrdinaryModules(t *testing.T) {
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	slow := func(context.Context, int) (module.Module, error) {
		mu.Lock()
		active++
		maxSeen = max(maxSeen, active)
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return module.New("m", nil), nil
	}
	src := newScriptedSource()
	refs := []string{"c.js", "d.js", "z.js", "slow.js", "flaky.js"}
	for _, ref := range refs {
		src.on(ref, slow)
	}
	e, _ := newTestEngine(t, src)

	results, err := e.LoadMany(context.Background(), refs, false, BatchOptions{Concurrency: 2})
	require.NoError(t, err)
	assert.Len(t, results, len(refs))
	assert.LessOrEqual(t, maxSeen, 2)
	assert.GreaterOrEqual(t, maxSeen, 1)
}

func TestLoadManyRequiredFailures(t *testing.T) {
	t.Run("Fallbacks reported unless ignored", func(t *testing.T) {
		e, _ := newTestEngine(t, newScriptedSource().fail("z.js"))
		results, err := e.LoadMany(context.Background(), []string{"z", "c"}, true, BatchOptions{LoadOptions: LoadOptions{MaxRetries: 1}})
		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrPermanentLoad)
		assert.True(t, module.IsFallback(results["z"]))
		assert.NotNil(t, results["c"])

		e2, _ := newTestEngine(t, newScriptedSource().fail("z.js"))
		results, err = e2.LoadMany(context.Background(), []string{"z", "c"}, true, BatchOptions{LoadOptions: LoadOptions{MaxRetries: 1}, IgnoreErrors: true})
		assert.NoError(t, err)
		assert.True(t, module.IsFallback(results["z"]))
	})

	t.Run("Non-required failures degrade silently", func(t *testing.T) {
		e, recorder := newTestEngine(t, newScriptedSource().fail("z.js"))
		results, err := e.LoadMany(context.Background(), []string{"z"}, false, BatchOptions{LoadOptions: LoadOptions{MaxRetries: 1}})
		assert.NoError(t, err)
		assert.True(t, module.IsFallback(results["z"]))
		assert.Empty(t, recorder.List())
	})

	t.Run("Unresolvable references", func(t *testing.T) {
		e, recorder := newTestEngine(t, newScriptedSource())
		results, err := e.LoadMany(context.Background(), []string{" ", "c"}, true, BatchOptions{})
		assert.ErrorIs(t, err, ErrUnresolvablePath)
		assert.NotNil(t, results["c"])
		assert.Len(t, recorder.List(), 1)
	})
}

func TestNeverFallbackModule(t *testing.T) {
	e, recorder := newTestEngine(t, newScriptedSource().fail("app.js"))
	ctx := context.Background()

	m, err := e.Load(ctx, "app", LoadOptions{MaxRetries: 2})
	assert.Nil(t, m)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "/js/core/app.js", loadErr.Path)
	assert.Equal(t, 2, loadErr.Attempts)
	assert.ErrorIs(t, err, ErrPermanentLoad)

	_, err = e.Load(ctx, "app", LoadOptions{})
	assert.ErrorIs(t, err, ErrPermanentLoad)
	assert.Equal(t, 2, e.source.(*scriptedSource).count("app.js"))

	report := e.Health()
	assert.Equal(t, "critical", string(report.Status))
	assert.False(t, report.CanContinue)
	assert.Equal(t, []string{"/js/core/app.js"}, report.CriticalFailures)
	assert.Empty(t, recorder.List())

	_, err = e.LoadMany(ctx, []string{"app", "z"}, true, BatchOptions{})
	assert.ErrorIs(t, err, ErrPermanentLoad)
}

func TestNeverFallbackModuleBehindOverride(t *testing.T) {
	src := newScriptedSource().fail("app.js")
	e, _ := newTestEngine(t, src, func(o *Options) {
		o.Overrides = map[string]string{"app": "/cdn/app.js"}
	})

	m, err := e.Load(context.Background(), "app", LoadOptions{MaxRetries: 1})
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrPermanentLoad)

	report := e.Health()
	assert.Equal(t, "critical", string(report.Status))
	assert.False(t, report.CanContinue)
	assert.Equal(t, []string{"/cdn/app.js"}, report.CriticalFailures)
}

func TestUnresolvableNeverFallbackModule(t *testing.T) {
	t.Run("Registered name", func(t *testing.T) {
		e, _ := newTestEngine(t, newScriptedSource())
		e.SetOverride("app", "")

		_, err := e.Load(context.Background(), "app", LoadOptions{})
		assert.ErrorIs(t, err, ErrUnresolvablePath)

		report := e.Health()
		assert.Equal(t, "critical", string(report.Status))
		assert.False(t, report.CanContinue)
		assert.Equal(t, []string{"app"}, report.CriticalFailures)

		e.RemoveOverride("app")
		report = e.Health()
		assert.Equal(t, "healthy", string(report.Status))
		assert.True(t, report.CanContinue)
	})

	t.Run("Relative reference", func(t *testing.T) {
		e, _ := newTestEngine(t, newScriptedSource())
		e.SetOverride("./app.js", "")

		_, err := e.Load(context.Background(), "./app.js", LoadOptions{})
		assert.ErrorIs(t, err, ErrUnresolvablePath)
		assert.Equal(t, []string{"app"}, e.Unresolved())
		assert.False(t, e.Health().CanContinue)
	})
}

func TestRequiredFlagOfJoiningCaller(t *testing.T) {
	release := make(chan struct{})
	src := newScriptedSource().on("z.js", func(context.Context, int) (module.Module, error) {
		<-release
		return nil, errors.New("network error")
	})
	e, recorder := newTestEngine(t, src)
	ctx := context.Background()

	var wg sync.WaitGroup
	load := func(opts LoadOptions) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := e.Load(ctx, "z", opts)
			assert.NoError(t, err)
			assert.True(t, module.IsFallback(m))
		}()
	}

	load(LoadOptions{MaxRetries: 1})
	require.Eventually(t, func() bool { return src.count("z.js") == 1 }, time.Second, time.Millisecond)
	load(LoadOptions{MaxRetries: 1, Required: true})
	require.Eventually(t, func() bool { return e.requiredWaiting("/js/utility/z.js") }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, src.count("z.js"))
	require.Len(t, recorder.List(), 1)
	assert.Equal(t, "z", recorder.List()[0].Module)
	assert.False(t, e.requiredWaiting("/js/utility/z.js"))
}

func TestTimeoutDiscardsLateResult(t *testing.T) {
	src := newScriptedSource().on("slow.js", func(ctx context.Context, _ int) (module.Module, error) {
		time.Sleep(80 * time.Millisecond)
		return plainModule("slow.js"), nil
	})
	e, _ := newTestEngine(t, src, func(o *Options) { o.Timeout = 10 * time.Millisecond })

	m, err := e.Load(context.Background(), "slow", LoadOptions{MaxRetries: 1})
	require.NoError(t, err)
	assert.True(t, module.IsFallback(m))

	time.Sleep(120 * time.Millisecond)
	rec, _ := e.Record("slow")
	assert.Equal(t, "failed", string(rec.State))
	assert.True(t, rec.Fallback)
	assert.ErrorIs(t, rec.Err, context.DeadlineExceeded)
	published, _ := e.Lookup("slow")
	assert.True(t, module.IsFallback(published))
}

func TestCallerContextEndsBeforeLoad(t *testing.T) {
	release := make(chan struct{})
	src := newScriptedSource().on("z.js", func(context.Context, int) (module.Module, error) {
		<-release
		return plainModule("z.js"), nil
	})
	e, _ := newTestEngine(t, src)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	m, err := e.Load(ctx, "z", LoadOptions{})
	require.NoError(t, err)
	assert.True(t, module.IsFallback(m))

	close(release)
	require.Eventually(t, func() bool {
		rec, _ := e.Record("z")
		return rec.State == "loaded"
	}, time.Second, 5*time.Millisecond)

	real, err := e.Load(context.Background(), "z", LoadOptions{})
	require.NoError(t, err)
	assert.False(t, module.IsFallback(real))
}

func TestClearAndFixFailed(t *testing.T) {
	src := newScriptedSource().on("flaky.js", func(_ context.Context, call int) (module.Module, error) {
		if call <= 2 {
			return nil, errors.New("cdn unavailable")
		}
		return plainModule("flaky.js"), nil
	})
	e, _ := newTestEngine(t, src)
	ctx := context.Background()

	m, err := e.Load(ctx, "flaky", LoadOptions{MaxRetries: 2})
	require.NoError(t, err)
	assert.True(t, module.IsFallback(m))
	assert.Equal(t, []string{"/js/utility/flaky.js"}, e.Failed(ctx))

	results, err := e.FixFailed(ctx)
	require.NoError(t, err)
	require.Contains(t, results, "flaky")
	assert.False(t, module.IsFallback(results["flaky"]))
	v, _ := module.Call(ctx, results["flaky"], "ping")
	assert.Equal(t, "pong:flaky", v)
	assert.Empty(t, e.Failed(ctx))

	published, _ := e.Lookup("flaky")
	assert.Same(t, results["flaky"], published)

	fixed, err := e.FixFailed(ctx)
	require.NoError(t, err)
	assert.Empty(t, fixed)
}

func TestPersistedFailureSkipsFetch(t *testing.T) {
	store := kvstore.NewMemory()
	history := retry.NewHistory(store)
	require.NoError(t, history.MarkFailed(context.Background(), "/js/utility/z.js"))

	src := newScriptedSource()
	e, _ := newTestEngine(t, src, func(o *Options) { o.History = history })
	ctx := context.Background()

	m, err := e.Load(ctx, "z", LoadOptions{})
	require.NoError(t, err)
	assert.True(t, module.IsFallback(m))
	assert.Zero(t, src.count("z.js"))

	assert.Equal(t, []string{"/js/utility/z.js"}, e.ClearFailed(ctx))
	m, err = e.Load(ctx, "z", LoadOptions{})
	require.NoError(t, err)
	assert.False(t, module.IsFallback(m))
	assert.Equal(t, 1, src.count("z.js"))
}

func TestReload(t *testing.T) {
	src := newScriptedSource()
	e, _ := newTestEngine(t, src)
	ctx := context.Background()

	first, err := e.Load(ctx, "c", LoadOptions{})
	require.NoError(t, err)
	second, err := e.Reload(ctx, "c", LoadOptions{})
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, src.count("c.js"))
}

func TestSkipCacheReloadsHealthyModule(t *testing.T) {
	src := newScriptedSource()
	e, recorder := newTestEngine(t, src)
	ctx := context.Background()

	_, err := e.Load(ctx, "c", LoadOptions{Required: true})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		m, err := e.Load(ctx, "c", LoadOptions{Required: true, SkipCache: true})
		require.NoError(t, err)
		assert.False(t, module.IsFallback(m), "reload %d", i)
	}

	assert.Equal(t, 6, src.count("c.js"))
	rec, _ := e.Record("c")
	assert.Equal(t, "loaded", string(rec.State))
	assert.Equal(t, 1, rec.Attempts)
	assert.Empty(t, e.Failed(ctx))
	assert.Empty(t, recorder.List())
}

func TestPriorityModuleInitializesOnce(t *testing.T) {
	var inits int32
	src := newScriptedSource().on("x.js", func(context.Context, int) (module.Module, error) {
		return module.New("x", nil).WithInitializer(func(context.Context) (bool, error) {
			atomic.AddInt32(&inits, 1)
			return true, nil
		}), nil
	})
	e, _ := newTestEngine(t, src)
	ctx := context.Background()

	_, err := e.LoadMany(ctx, []string{"x.js"}, false, BatchOptions{})
	require.NoError(t, err)
	_, err = e.LoadMany(ctx, []string{"x.js", "z.js"}, false, BatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, src.count("x.js"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&inits))

	t.Run("Reloaded value initializes again", func(t *testing.T) {
		_, err := e.Reload(ctx, "x", LoadOptions{})
		require.NoError(t, err)
		_, err = e.LoadMany(ctx, []string{"x.js"}, false, BatchOptions{})
		require.NoError(t, err)
		assert.Equal(t, 2, src.count("x.js"))
		assert.Equal(t, int32(2), atomic.LoadInt32(&inits))
	})
}

func TestUnresolvableReference(t *testing.T) {
	e, recorder := newTestEngine(t, newScriptedSource())

	m, err := e.Load(context.Background(), "  ", LoadOptions{Required: true})
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrUnresolvablePath)
	assert.Len(t, recorder.List(), 1)

	_, err = e.Load(context.Background(), "?query", LoadOptions{})
	assert.ErrorIs(t, err, ErrUnresolvablePath)
	assert.Len(t, recorder.List(), 1)
}

func TestOverrides(t *testing.T) {
	src := newScriptedSource()
	e, _ := newTestEngine(t, src, func(o *Options) {
		o.Overrides = map[string]string{"legacy-auth": "/js/core/auth.js"}
	})
	ctx := context.Background()

	m, err := e.Load(ctx, "legacy-auth", LoadOptions{})
	require.NoError(t, err)
	v, _ := module.Call(ctx, m, "ping")
	assert.Equal(t, "pong:auth", v)

	e.SetOverride("ui", "/js/core/auth.js")
	again, err := e.Load(ctx, "ui", LoadOptions{})
	require.NoError(t, err)
	assert.Same(t, m, again)
	assert.Contains(t, e.Overrides(), "ui")

	e.RemoveOverride("ui")
	assert.Equal(t, "/js/feature/ui.js", e.Resolve("ui"))
}

func TestLoadErrorMatching(t *testing.T) {
	cause := errors.New("boom")
	err := &LoadError{Path: "/x.js", Kind: ErrPermanentLoad, Attempts: 3, Err: cause}
	assert.ErrorIs(t, err, ErrPermanentLoad)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrTransientLoad)
	assert.Equal(t, "load /x.js: permanent load failure after 3 attempt(s): boom", err.Error())
}
