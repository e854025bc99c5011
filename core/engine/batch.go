package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"module-loader/core/depgraph"
	"module-loader/core/module"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type batchItem struct {
	ref       string
	canonical string
	name      string
	required  bool
}

type batchState struct {
	mu      sync.Mutex
	results map[string]module.Module
	errs    []error
}

func (s *batchState) set(name string, m module.Module) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[name] = m
}

func (s *batchState) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

// LoadMany loads refs and returns them keyed by short module name. Failed
// modules map to their fallback, or to nil when none is allowed.
//
// The returned error joins the failures of required modules (every module
// when allRequired is set, otherwise those flagged required in the
// registry) unless IgnoreErrors is set. A required priority or critical
// module that ends without a fallback stops the batch when allRequired is
// set; the results gathered so far are returned.
func (e *Engine) LoadMany(ctx context.Context, refs []string, allRequired bool, opts BatchOptions) (map[string]module.Module, error) {
	state := &batchState{results: make(map[string]module.Module, len(refs))}
	priority, critical, ordinary := e.partition(ctx, refs, allRequired, opts, state)

	priorityTimeout := opts.PriorityTimeout
	if priorityTimeout <= 0 {
		priorityTimeout = e.priorityTimeout
	}
	initTimeout := opts.InitTimeout
	if initTimeout <= 0 {
		initTimeout = e.initTimeout
	}

	for _, item := range priority {
		loadOpts := opts.LoadOptions
		loadOpts.Timeout = priorityTimeout
		m, ok := e.loadItem(ctx, item, loadOpts, opts, state)
		if !ok && allRequired && !opts.IgnoreErrors {
			return state.results, errors.Join(state.errs...)
		}
		if m != nil {
			if err := e.initialize(ctx, item.canonical, item.name, m, initTimeout); err != nil && item.required && !opts.IgnoreErrors {
				state.fail(err)
			}
		}
	}

	for _, item := range e.order(critical) {
		if _, ok := e.loadItem(ctx, item, opts.LoadOptions, opts, state); !ok && allRequired && !opts.IgnoreErrors {
			return state.results, errors.Join(state.errs...)
		}
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = e.concurrency
	}
	ordered := e.order(ordinary)
	for start := 0; start < len(ordered); start += concurrency {
		end := min(start+concurrency, len(ordered))
		var g errgroup.Group
		for _, item := range ordered[start:end] {
			g.Go(func() error {
				e.loadItem(ctx, item, opts.LoadOptions, opts, state)
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			state.fail(err)
			break
		}
	}

	if len(state.errs) > 0 {
		return state.results, errors.Join(state.errs...)
	}
	return state.results, nil
}

// partition resolves refs and splits them into the three batch phases.
func (e *Engine) partition(ctx context.Context, refs []string, allRequired bool, opts BatchOptions, state *batchState) (priority, critical, ordinary []batchItem) {
	seen := make(map[string]bool, len(refs))
	byName := make(map[string]batchItem, len(refs))
	for _, ref := range refs {
		canonical := e.resolver.Resolve(ref)
		if canonical == "" {
			required := allRequired || e.registry.IsRequired(ref)
			loadOpts := opts.LoadOptions
			loadOpts.Required = loadOpts.Required || required
			err := e.unresolvable(ctx, ref, loadOpts)
			state.set(ref, nil)
			if required && !opts.IgnoreErrors {
				state.fail(err)
			}
			continue
		}
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		name := e.registry.ShortName(canonical)
		item := batchItem{
			ref:       ref,
			canonical: canonical,
			name:      name,
			required:  allRequired || opts.Required || e.registry.IsRequired(name),
		}
		byName[name] = item
		switch {
		case e.registry.PriorityIndex(name) >= 0:
		case e.registry.IsCritical(name):
			critical = append(critical, item)
		default:
			ordinary = append(ordinary, item)
		}
	}
	for _, name := range e.registry.Priority() {
		if item, ok := byName[name]; ok {
			priority = append(priority, item)
		}
	}
	return priority, critical, ordinary
}

// order sorts items so declared and observed dependencies come first.
func (e *Engine) order(items []batchItem) []batchItem {
	if len(items) < 2 {
		return items
	}
	byPath := make(map[string]batchItem, len(items))
	paths := make([]string, 0, len(items))
	for _, item := range items {
		byPath[item.canonical] = item
		paths = append(paths, item.canonical)
	}
	deps := func(path string) []string {
		var out []string
		for _, dep := range e.registry.DependenciesOf(path) {
			if resolved := e.resolver.Resolve(dep); resolved != "" {
				out = append(out, resolved)
			}
		}
		return append(out, e.graph.Dependencies(path)...)
	}
	sorted, err := depgraph.Order(paths, deps)
	if err != nil {
		e.logger.Debug("Batch contains a dependency cycle, keeping request order for it", zap.Error(err))
	}
	out := make([]batchItem, 0, len(sorted))
	for _, path := range sorted {
		out = append(out, byPath[path])
	}
	return out
}

// loadItem loads one batch entry and records its outcome. It reports false
// when the module ended without any usable value.
func (e *Engine) loadItem(ctx context.Context, item batchItem, loadOpts LoadOptions, opts BatchOptions, state *batchState) (module.Module, bool) {
	loadOpts.Required = item.required
	m, err := e.Load(ctx, item.ref, loadOpts)
	state.set(item.name, m)

	switch {
	case err != nil:
		if item.required && !opts.IgnoreErrors {
			state.fail(err)
		} else {
			e.logger.Warn("Module unavailable", zap.String("module", item.name), zap.Error(err))
		}
		return nil, false
	case module.IsFallback(m) && item.required && !opts.IgnoreErrors:
		rec, _ := e.cache.Get(item.canonical)
		cause := rec.Err
		if cause == nil {
			cause = ErrPermanentLoad
		}
		state.fail(fmt.Errorf("required module %s is running on a fallback: %w", item.name, cause))
	}
	return m, true
}

// initialize runs the module's initialize step under timeout. False results,
// errors and timeouts are recorded on the cache record and returned. A value
// that already initialized successfully is not initialized again.
func (e *Engine) initialize(ctx context.Context, canonical, name string, m module.Module, timeout time.Duration) error {
	initializer, ok := m.(module.Initializer)
	if !ok || !module.HasInitializer(m) || module.IsFallback(m) || module.IsDeferred(m) {
		return nil
	}
	if rec, _ := e.cache.Get(canonical); rec.Initialized && rec.Value == m {
		e.logger.Debug("Module already initialized", zap.String("module", name))
		return nil
	}

	initCtx, cancel := context.WithTimeout(withAncestor(ctx, canonical), timeout)
	defer cancel()

	type outcome struct {
		ok  bool
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		ok, err := initializer.Initialize(initCtx)
		done <- outcome{ok: ok, err: err}
	}()

	var cause error
	select {
	case out := <-done:
		switch {
		case out.err != nil:
			cause = out.err
		case !out.ok:
			cause = errors.New("initialize returned false")
		}
	case <-initCtx.Done():
		cause = fmt.Errorf("timed out after %s: %w", timeout, initCtx.Err())
	}

	if cause == nil {
		e.cache.SetInitError(canonical, nil)
		e.logger.Info("Module initialized", zap.String("module", name))
		return nil
	}
	initErr := &LoadError{Path: canonical, Kind: ErrInitialization, Err: cause}
	e.cache.SetInitError(canonical, initErr)
	e.logger.Warn("Module initialization failed", zap.String("module", name), zap.Error(cause))
	return initErr
}
