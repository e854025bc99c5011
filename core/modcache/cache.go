package modcache

import (
	"sort"
	"sync"
	"time"

	"module-loader/core/module"

	"golang.org/x/sync/singleflight"
)

// State is the lifecycle position of a module record.
type State string

const (
	StatePending State = "pending"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateFailed  State = "failed"
)

// Record is a snapshot of one module's load state.
type Record struct {
	Path     string
	State    State
	Attempts int
	Value    module.Module
	Err      error
	Fallback bool
	InitErr  error
	// Initialized is set once Value completed its initialize step.
	Initialized bool
	UpdatedAt   time.Time
}

// Cache is the keyed store of module records. It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	records map[string]*Record
	group   singleflight.Group
	now     func() time.Time
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		records: make(map[string]*Record),
		now:     time.Now,
	}
}

// record returns the record for path, creating a pending one. Callers hold mu.
func (c *Cache) record(path string) *Record {
	rec, ok := c.records[path]
	if !ok {
		rec = &Record{Path: path, State: StatePending, UpdatedAt: c.now()}
		c.records[path] = rec
	}
	return rec
}

// Get returns a copy of the record for path.
func (c *Cache) Get(path string) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[path]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Reserve creates a pending record for path if none exists.
func (c *Cache) Reserve(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(path)
}

// Completed returns the settled value for path: a loaded module, or the
// fallback stored for a failed one.
func (c *Cache) Completed(path string) (module.Module, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[path]
	if !ok || rec.Value == nil {
		return nil, false
	}
	switch rec.State {
	case StateLoaded, StateFailed:
		return rec.Value, true
	default:
		return nil, false
	}
}

// Loaded returns the real module for path, ignoring fallbacks.
func (c *Cache) Loaded(path string) (module.Module, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[path]
	if !ok || rec.State != StateLoaded || rec.Value == nil {
		return nil, false
	}
	return rec.Value, true
}

// MarkLoading moves path into the loading state. Reloading a loaded module
// starts a fresh attempt budget.
func (c *Cache) MarkLoading(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.record(path)
	if rec.State == StateLoaded {
		rec.Attempts = 0
	}
	rec.State = StateLoading
	rec.UpdatedAt = c.now()
}

// IsLoading reports whether a load of path is in progress.
func (c *Cache) IsLoading(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[path]
	return ok && rec.State == StateLoading
}

// IncrementAttempts bumps and returns the attempt counter for path.
func (c *Cache) IncrementAttempts(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.record(path)
	rec.Attempts++
	rec.UpdatedAt = c.now()
	return rec.Attempts
}

// Attempts returns the attempt counter for path.
func (c *Cache) Attempts(path string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if rec, ok := c.records[path]; ok {
		return rec.Attempts
	}
	return 0
}

// Complete stores a successfully loaded module.
func (c *Cache) Complete(path string, value module.Module) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.record(path)
	rec.State = StateLoaded
	rec.Value = value
	rec.Err = nil
	rec.Fallback = false
	rec.InitErr = nil
	rec.Initialized = false
	rec.UpdatedAt = c.now()
}

// Fail marks path failed. fallback may be nil when none is allowed.
func (c *Cache) Fail(path string, err error, fallback module.Module) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.record(path)
	rec.State = StateFailed
	rec.Err = err
	rec.Value = fallback
	rec.Fallback = fallback != nil
	rec.UpdatedAt = c.now()
}

// SetInitError records the outcome of a module's initialization step.
// A nil err clears a previous failure and marks the module initialized.
func (c *Cache) SetInitError(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.record(path)
	rec.InitErr = err
	rec.Initialized = err == nil
	rec.UpdatedAt = c.now()
}

// Reset returns a settled record to pending with a fresh attempt budget.
// Records that are loading are left alone. It reports whether path was reset.
func (c *Cache) Reset(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[path]
	if !ok || rec.State == StateLoading {
		return false
	}
	rec.State = StatePending
	rec.Attempts = 0
	rec.Value = nil
	rec.Err = nil
	rec.Fallback = false
	rec.InitErr = nil
	rec.Initialized = false
	rec.UpdatedAt = c.now()
	return true
}

// Failed lists the paths currently in the failed state, sorted.
func (c *Cache) Failed() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for path, rec := range c.records {
		if rec.State == StateFailed {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// Records returns copies of every record sorted by path.
func (c *Cache) Records() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Record, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Do runs fn once per path across concurrent callers. Every caller receives
// the same result on the returned channel.
func (c *Cache) Do(path string, fn func() (module.Module, error)) <-chan singleflight.Result {
	return c.group.DoChan(path, func() (any, error) {
		return fn()
	})
}
