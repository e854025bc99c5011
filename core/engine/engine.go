package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"module-loader/core/depgraph"
	"module-loader/core/fallback"
	"module-loader/core/health"
	"module-loader/core/kvstore"
	"module-loader/core/modcache"
	"module-loader/core/module"
	"module-loader/core/notify"
	"module-loader/core/registry"
	"module-loader/core/resolver"
	"module-loader/core/retry"
	"module-loader/core/source"

	"go.uber.org/zap"
)

// Engine is a loader context.
type Engine struct {
	registry  *registry.Registry
	resolver  *resolver.Resolver
	cache     *modcache.Cache
	graph     *depgraph.Graph
	source    source.Source
	policy    retry.Policy
	history   *retry.History
	fallbacks *fallback.Factory
	notifier  notify.Notifier
	logger    *zap.Logger

	timeout         time.Duration
	priorityTimeout time.Duration
	initTimeout     time.Duration
	concurrency     int

	mu         sync.RWMutex
	published  map[string]module.Module
	circular   map[string]int
	required   map[string]struct{}
	unresolved map[string]struct{}
}

// New builds an engine from opts.
func New(opts Options) (*Engine, error) {
	if opts.Registry == nil {
		return nil, errors.New("engine: registry is required")
	}
	if opts.Source == nil {
		return nil, errors.New("engine: module source is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := opts.Policy
	if policy == (retry.Policy{}) {
		policy = retry.DefaultPolicy()
	}
	history := opts.History
	if history == nil {
		history = retry.NewHistory(kvstore.NewMemory())
	}
	fallbacks := opts.Fallbacks
	if fallbacks == nil {
		fallbacks = fallback.NewFactory(nil, logger)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}

	e := &Engine{
		registry:        opts.Registry,
		resolver:        resolver.New(opts.Registry, opts.Overrides),
		cache:           modcache.New(),
		graph:           depgraph.New(),
		source:          opts.Source,
		policy:          policy,
		history:         history,
		fallbacks:       fallbacks,
		notifier:        notifier,
		logger:          logger,
		timeout:         orDuration(opts.Timeout, DefaultTimeout),
		priorityTimeout: orDuration(opts.PriorityTimeout, DefaultPriorityTimeout),
		initTimeout:     orDuration(opts.InitTimeout, DefaultInitTimeout),
		concurrency:     opts.Concurrency,
		published:       make(map[string]module.Module),
		circular:        make(map[string]int),
		required:        make(map[string]struct{}),
		unresolved:      make(map[string]struct{}),
	}
	if e.concurrency <= 0 {
		e.concurrency = DefaultConcurrency
	}
	return e, nil
}

func orDuration(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}

// Registry returns the static registry.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Resolve maps a reference to its canonical path, or "".
func (e *Engine) Resolve(ref string) string { return e.resolver.Resolve(ref) }

// SetOverride maps ref to path for every subsequent resolution.
func (e *Engine) SetOverride(ref, path string) {
	e.resolver.SetOverride(ref, path)
	e.logger.Info("Module override set", zap.String("reference", ref), zap.String("path", path))
}

// RemoveOverride deletes the override for ref.
func (e *Engine) RemoveOverride(ref string) {
	e.resolver.RemoveOverride(ref)
}

// Overrides returns the current override table.
func (e *Engine) Overrides() map[string]string { return e.resolver.Overrides() }

// Lookup returns the module published under a short name.
func (e *Engine) Lookup(name string) (module.Module, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.published[name]
	return m, ok
}

// Published lists the published short names, sorted.
func (e *Engine) Published() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.published))
	for name := range e.published {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Engine) publish(name string, m module.Module) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.published[name] = m
}

func (e *Engine) unpublishFallback(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if module.IsFallback(e.published[name]) {
		delete(e.published, name)
	}
}

// Record returns the cache record for a reference.
func (e *Engine) Record(ref string) (modcache.Record, bool) {
	canonical := e.resolver.Resolve(ref)
	if canonical == "" {
		return modcache.Record{}, false
	}
	return e.cache.Get(canonical)
}

// Records returns every cache record sorted by path.
func (e *Engine) Records() []modcache.Record { return e.cache.Records() }

// Cycles reports the cycles observed in the dependency graph.
func (e *Engine) Cycles() [][]string { return e.graph.DetectCycles() }

// Dependencies returns the observed dependency edges.
func (e *Engine) Dependencies() map[string][]string { return e.graph.Edges() }

// CircularHits counts deferred stand-ins handed out per path.
func (e *Engine) CircularHits() map[string]int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]int, len(e.circular))
	for path, n := range e.circular {
		out[path] = n
	}
	return out
}

// NeverFallback reports whether the module recorded at path must never
// fall back. Overridden paths are matched by their short name.
func (e *Engine) NeverFallback(path string) bool {
	return e.registry.NeverFallback(e.registry.ShortName(path))
}

// Unresolved lists never_fallback references that currently resolve to no
// path, sorted.
func (e *Engine) Unresolved() []string {
	set := make(map[string]struct{})
	for _, name := range e.registry.NeverFallbackNames() {
		entry, _ := e.registry.ByStem(name)
		if e.resolver.Resolve(name) == "" || e.resolver.Resolve(entry.Filename) == "" {
			set[name] = struct{}{}
		}
	}
	e.mu.RLock()
	for ref := range e.unresolved {
		if e.resolver.Resolve(ref) == "" {
			set[e.registry.ShortName(ref)] = struct{}{}
		}
	}
	e.mu.RUnlock()
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Health builds a diagnostics report over the current state.
func (e *Engine) Health() health.Report {
	return health.Build(e)
}

// Failed lists failed paths from the cache and the persisted history.
func (e *Engine) Failed(ctx context.Context) []string {
	set := make(map[string]struct{})
	for _, path := range e.cache.Failed() {
		set[path] = struct{}{}
	}
	persisted, err := e.history.Failed(ctx)
	if err != nil {
		e.logger.Warn("Failed to read module failure history", zap.Error(err))
	}
	for _, path := range persisted {
		set[path] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for path := range set {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

func (e *Engine) contractFor(canonical string) (module.Contract, registry.Entry, bool) {
	entry, ok := e.registry.Lookup(canonical)
	if !ok {
		return module.Contract{Path: canonical}, registry.Entry{}, false
	}
	return e.registry.Contract(entry, canonical), entry, true
}
