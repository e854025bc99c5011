package modcache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"module-loader/core/module"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle(t *testing.T) {
	c := New()
	path := "/js/core/auth.js"

	_, ok := c.Get(path)
	assert.False(t, ok)

	c.Reserve(path)
	rec, ok := c.Get(path)
	require.True(t, ok)
	assert.Equal(t, StatePending, rec.State)

	c.MarkLoading(path)
	assert.True(t, c.IsLoading(path))
	_, ok = c.Completed(path)
	assert.False(t, ok)

	assert.Equal(t, 1, c.IncrementAttempts(path))
	mod := module.New("auth", nil)
	c.Complete(path, mod)

	value, ok := c.Completed(path)
	require.True(t, ok)
	assert.Same(t, mod, value)
	loaded, ok := c.Loaded(path)
	require.True(t, ok)
	assert.Same(t, mod, loaded)
	assert.Equal(t, 1, c.Attempts(path))
}

func TestFailWithFallback(t *testing.T) {
	c := New()
	path := "/js/core/auth.js"
	fb := module.New("auth", nil)

	c.MarkLoading(path)
	c.IncrementAttempts(path)
	c.IncrementAttempts(path)
	c.Fail(path, errors.New("boom"), fb)

	rec, _ := c.Get(path)
	assert.Equal(t, StateFailed, rec.State)
	assert.True(t, rec.Fallback)
	assert.EqualError(t, rec.Err, "boom")

	value, ok := c.Completed(path)
	require.True(t, ok)
	assert.Same(t, fb, value)
	_, ok = c.Loaded(path)
	assert.False(t, ok)
	assert.Equal(t, []string{path}, c.Failed())
}

func TestFailWithoutFallback(t *testing.T) {
	c := New()
	c.Fail("/a.js", errors.New("boom"), nil)
	_, ok := c.Completed("/a.js")
	assert.False(t, ok)
	rec, _ := c.Get("/a.js")
	assert.False(t, rec.Fallback)
}

func TestReset(t *testing.T) {
	c := New()
	c.IncrementAttempts("/a.js")
	c.Fail("/a.js", errors.New("boom"), module.New("a", nil))
	c.SetInitError("/a.js", errors.New("init"))

	assert.True(t, c.Reset("/a.js"))
	rec, _ := c.Get("/a.js")
	assert.Equal(t, StatePending, rec.State)
	assert.Zero(t, rec.Attempts)
	assert.Nil(t, rec.Value)
	assert.Nil(t, rec.InitErr)
	assert.Empty(t, c.Failed())

	c.MarkLoading("/b.js")
	assert.False(t, c.Reset("/b.js"))
	assert.False(t, c.Reset("/missing.js"))
}

func TestReloadStartsFreshBudget(t *testing.T) {
	c := New()
	path := "/js/feature/c.js"

	c.MarkLoading(path)
	c.IncrementAttempts(path)
	c.IncrementAttempts(path)
	c.Complete(path, module.New("c", nil))
	assert.Equal(t, 2, c.Attempts(path))

	c.MarkLoading(path)
	assert.Zero(t, c.Attempts(path))

	c.IncrementAttempts(path)
	c.Fail(path, errors.New("boom"), nil)
	c.MarkLoading(path)
	assert.Equal(t, 1, c.Attempts(path))
}

func TestInitialized(t *testing.T) {
	c := New()
	path := "/js/core/x.js"
	c.Complete(path, module.New("x", nil))

	c.SetInitError(path, errors.New("returned false"))
	rec, _ := c.Get(path)
	assert.False(t, rec.Initialized)

	c.SetInitError(path, nil)
	rec, _ = c.Get(path)
	assert.True(t, rec.Initialized)
	assert.Nil(t, rec.InitErr)

	c.Complete(path, module.New("x", nil))
	rec, _ = c.Get(path)
	assert.False(t, rec.Initialized)

	c.SetInitError(path, nil)
	assert.True(t, c.Reset(path))
	rec, _ = c.Get(path)
	assert.False(t, rec.Initialized)
}

func TestDoSharesInFlight(t *testing.T) {
	c := New()
	var calls int32
	release := make(chan struct{})
	mod := module.New("shared", nil)

	const callers = 20
	var wg sync.WaitGroup
	results := make([]module.Module, callers)
	started := make(chan struct{})
	var once sync.Once
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := <-c.Do("/shared.js", func() (module.Module, error) {
				atomic.AddInt32(&calls, 1)
				once.Do(func() { close(started) })
				<-release
				return mod, nil
			})
			assert.NoError(t, res.Err)
			results[i], _ = res.Val.(module.Module)
		}(i)
	}

	<-started
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, got := range results {
		assert.Same(t, mod, got)
	}
}

func TestRecordsSorted(t *testing.T) {
	c := New()
	c.Reserve("/b.js")
	c.Reserve("/a.js")
	recs := c.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "/a.js", recs[0].Path)
	assert.Equal(t, "/b.js", recs[1].Path)
}
