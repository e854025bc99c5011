package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"module-loader/core/modcache"
	"module-loader/core/module"
	"module-loader/core/notify"
	"module-loader/core/registry"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Load returns the module for ref. Failures resolve to a fallback; an error
// is returned only for unresolvable references and never_fallback modules.
func (e *Engine) Load(ctx context.Context, ref string, opts LoadOptions) (module.Module, error) {
	canonical := e.resolver.Resolve(ref)
	if canonical == "" {
		return nil, e.unresolvable(ctx, ref, opts)
	}
	name := e.registry.ShortName(canonical)

	parent := currentLoad(ctx)
	if parent != "" {
		e.graph.RecordEdge(parent, canonical)
	}

	if !opts.SkipCache {
		if m, ok := e.cache.Completed(canonical); ok {
			return m, nil
		}
	}

	if !opts.BypassCircularCheck && parent != "" {
		if inChain(ctx, canonical) || e.waitsOnChain(ctx, canonical) {
			return e.deferred(canonical, name, parent), nil
		}
	}

	rec, _ := e.cache.Get(canonical)
	if e.exhausted(ctx, canonical, rec) {
		return e.settleExhausted(canonical, name, rec)
	}

	e.cache.Reserve(canonical)
	if opts.Required {
		e.markRequired(canonical)
	}
	results := e.cache.Do(canonical, func() (module.Module, error) {
		return e.run(withAncestor(context.WithoutCancel(ctx), canonical), canonical, name, opts)
	})

	select {
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		m, _ := res.Val.(module.Module)
		return m, nil
	case <-ctx.Done():
		return e.abandon(canonical, name, ctx.Err())
	}
}

func (e *Engine) unresolvable(ctx context.Context, ref string, opts LoadOptions) error {
	err := &LoadError{Path: ref, Kind: ErrUnresolvablePath}
	e.logger.Error("Module reference is unresolvable", zap.String("reference", ref))
	if e.registry.NeverFallback(ref) {
		e.mu.Lock()
		e.unresolved[ref] = struct{}{}
		e.mu.Unlock()
	}
	if opts.Required {
		e.notifier.Notify(ctx, notify.Notification{
			Level:   notify.LevelError,
			Module:  ref,
			Message: "A required module could not be located",
			Err:     err.Error(),
			At:      time.Now(),
		})
	}
	return err
}

// waitsOnChain reports whether the in-flight load of canonical waits,
// through other in-flight loads, on a load of the current call chain.
func (e *Engine) waitsOnChain(ctx context.Context, canonical string) bool {
	if !e.cache.IsLoading(canonical) {
		return false
	}
	for _, ancestor := range ancestors(ctx) {
		if e.graph.Reaches(canonical, ancestor, e.cache.IsLoading) {
			return true
		}
	}
	return false
}

// exhausted reports whether canonical has spent its retry budget. A failed
// record stays failed until it is cleared; a path recorded in the failure
// history counts as failed before its first attempt in this process.
func (e *Engine) exhausted(ctx context.Context, canonical string, rec modcache.Record) bool {
	if rec.State == modcache.StateFailed {
		return true
	}
	if rec.State == modcache.StateLoading || rec.Attempts > 0 {
		return false
	}
	failed, err := e.history.IsFailed(ctx, canonical)
	if err != nil {
		e.logger.Warn("Failed to read module failure history", zap.String("path", canonical), zap.Error(err))
		return false
	}
	return failed
}

// settleExhausted answers a load whose budget is spent without fetching.
func (e *Engine) settleExhausted(canonical, name string, rec modcache.Record) (module.Module, error) {
	if rec.Value != nil {
		return rec.Value, nil
	}
	cause := rec.Err
	if cause == nil {
		cause = errors.New("marked failed by a previous session")
	}
	loadErr := asLoadError(canonical, cause, rec.Attempts)
	if e.registry.NeverFallback(name) {
		e.cache.Fail(canonical, loadErr, nil)
		return nil, loadErr
	}
	contract, _, _ := e.contractFor(canonical)
	fb := e.fallbacks.Create(name, contract, loadErr)
	e.cache.Fail(canonical, loadErr, fb)
	e.publish(name, fb)
	return fb, nil
}

// abandon answers a caller whose context ended while a load was in flight.
// The load itself continues and settles the cache.
func (e *Engine) abandon(canonical, name string, cause error) (module.Module, error) {
	loadErr := &LoadError{Path: canonical, Kind: ErrTransientLoad, Attempts: e.cache.Attempts(canonical), Err: cause}
	if e.registry.NeverFallback(name) {
		return nil, loadErr
	}
	contract, _, _ := e.contractFor(canonical)
	return e.fallbacks.Create(name, contract, loadErr), nil
}

// run performs the load of canonical. It executes once per in-flight path.
func (e *Engine) run(ctx context.Context, canonical, name string, opts LoadOptions) (module.Module, error) {
	defer e.clearRequired(canonical)
	// A flight that started after another one settled must not fetch again.
	if rec, _ := e.cache.Get(canonical); rec.State == modcache.StateFailed {
		return e.settleExhausted(canonical, name, rec)
	}
	if m, ok := e.cache.Loaded(canonical); ok && !opts.SkipCache {
		return m, nil
	}

	log := e.logger.With(zap.String("module", name), zap.String("path", canonical), zap.String("load_id", uuid.NewString()))
	e.cache.MarkLoading(canonical)

	contract, entry, registered := e.contractFor(canonical)
	if registered {
		e.loadDependencies(ctx, entry, opts, log)
	}

	policy := e.policy.WithMaxAttempts(opts.MaxRetries)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = e.timeout
	}

	var lastErr error
	attempts := e.cache.Attempts(canonical)
	for !policy.Exhausted(attempts) {
		attempts = e.cache.IncrementAttempts(canonical)
		raw, err := e.fetch(ctx, canonical, timeout, log)
		if err == nil {
			bound := module.Bind(raw, contract)
			e.cache.Complete(canonical, bound)
			e.publish(name, bound)
			if err := e.history.Clear(ctx, canonical); err != nil {
				log.Warn("Failed to clear module failure history", zap.Error(err))
			}
			if missing := bound.Missing(); len(missing) > 0 {
				log.Warn("Module is missing expected exports", zap.Strings("missing", missing))
			}
			log.Info("Module loaded", zap.Int("attempt", attempts))
			return bound, nil
		}
		lastErr = err
		if policy.Exhausted(attempts) {
			break
		}
		delay := policy.Delay(attempts - 1)
		log.Warn("Module load failed, retrying",
			zap.Int("attempt", attempts),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := policy.Wait(ctx, attempts-1); err != nil {
			lastErr = err
			break
		}
	}

	required := opts.Required || entry.Required || e.requiredWaiting(canonical)
	return e.fail(ctx, canonical, name, contract, attempts, lastErr, required, log)
}

// markRequired records that a caller waiting on canonical needs it.
func (e *Engine) markRequired(canonical string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.required[canonical] = struct{}{}
}

func (e *Engine) requiredWaiting(canonical string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.required[canonical]
	return ok
}

func (e *Engine) clearRequired(canonical string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.required, canonical)
}

func (e *Engine) loadDependencies(ctx context.Context, entry registry.Entry, opts LoadOptions, log *zap.Logger) {
	for _, dep := range entry.DependsOn {
		_, err := e.Load(ctx, dep, LoadOptions{Timeout: opts.Timeout, MaxRetries: opts.MaxRetries})
		if err != nil {
			log.Warn("Declared dependency failed to load", zap.String("dependency", dep), zap.Error(err))
		}
	}
}

// fail records a permanent failure and returns the fallback, or an error
// for never_fallback modules.
func (e *Engine) fail(ctx context.Context, canonical, name string, contract module.Contract, attempts int, cause error, required bool, log *zap.Logger) (module.Module, error) {
	if cause == nil {
		cause = errors.New("no attempts made")
	}
	loadErr := &LoadError{Path: canonical, Kind: ErrPermanentLoad, Attempts: attempts, Err: cause}
	log.Error("Module failed permanently", zap.Int("attempts", attempts), zap.Error(cause))

	if err := e.history.MarkFailed(ctx, canonical); err != nil {
		log.Warn("Failed to persist module failure", zap.Error(err))
	}
	if required {
		e.notifier.Notify(ctx, notify.Notification{
			Level:   notify.LevelError,
			Module:  name,
			Message: fmt.Sprintf("Required module %s failed to load", name),
			Err:     loadErr.Error(),
			At:      time.Now(),
		})
	}

	if e.registry.NeverFallback(name) {
		e.cache.Fail(canonical, loadErr, nil)
		return nil, loadErr
	}
	fb := e.fallbacks.Create(name, contract, loadErr)
	e.cache.Fail(canonical, loadErr, fb)
	e.publish(name, fb)
	return fb, nil
}

type fetchResult struct {
	module module.Module
	err    error
}

// fetch makes one attempt against the module source. A result arriving
// after the attempt deadline is dropped.
func (e *Engine) fetch(ctx context.Context, canonical string, timeout time.Duration, log *zap.Logger) (module.Module, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var expired atomic.Bool
	results := make(chan fetchResult, 1)
	go func() {
		m, err := e.source.Fetch(attemptCtx, canonical)
		if expired.Load() && err == nil {
			log.Debug("Discarding module result that arrived after its deadline")
		}
		results <- fetchResult{module: m, err: err}
	}()

	select {
	case r := <-results:
		switch {
		case r.err != nil:
			return nil, &LoadError{Path: canonical, Kind: ErrTransientLoad, Err: r.err}
		case attemptCtx.Err() != nil:
			return nil, &LoadError{Path: canonical, Kind: ErrTransientLoad, Err: attemptCtx.Err()}
		case r.module == nil:
			return nil, &LoadError{Path: canonical, Kind: ErrTransientLoad, Err: errors.New("source returned no module")}
		default:
			return r.module, nil
		}
	case <-attemptCtx.Done():
		expired.Store(true)
		return nil, &LoadError{Path: canonical, Kind: ErrTransientLoad, Err: fmt.Errorf("timed out after %s: %w", timeout, attemptCtx.Err())}
	}
}

func asLoadError(canonical string, err error, attempts int) *LoadError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) && loadErr.Path == canonical {
		return loadErr
	}
	return &LoadError{Path: canonical, Kind: ErrPermanentLoad, Attempts: attempts, Err: err}
}
