package engine

import (
	"context"

	"module-loader/core/modcache"
	"module-loader/core/module"

	"go.uber.org/zap"
)

// Reload clears any failure for ref and loads it again, bypassing the cache.
func (e *Engine) Reload(ctx context.Context, ref string, opts LoadOptions) (module.Module, error) {
	if canonical := e.resolver.Resolve(ref); canonical != "" {
		e.cache.Reset(canonical)
		e.unpublishFallback(e.registry.ShortName(canonical))
		if err := e.history.Clear(ctx, canonical); err != nil {
			e.logger.Warn("Failed to clear module failure history", zap.Error(err))
		}
	}
	opts.SkipCache = true
	return e.Load(ctx, ref, opts)
}

// ClearFailed resets the failed state and attempt counter of the given
// canonical paths, or of every failed path when none are given. It returns
// the paths that were cleared.
func (e *Engine) ClearFailed(ctx context.Context, paths ...string) []string {
	if len(paths) == 0 {
		paths = e.Failed(ctx)
	}
	var cleared []string
	for _, path := range paths {
		rec, ok := e.cache.Get(path)
		if ok && rec.State != modcache.StateFailed {
			continue
		}
		if ok {
			e.cache.Reset(path)
		}
		e.unpublishFallback(e.registry.ShortName(path))
		cleared = append(cleared, path)
	}
	if len(cleared) > 0 {
		if err := e.history.Clear(ctx, cleared...); err != nil {
			e.logger.Warn("Failed to clear module failure history", zap.Error(err))
		}
		e.logger.Info("Cleared failed modules", zap.Strings("paths", cleared))
	}
	return cleared
}

// FixFailed clears every failed module and loads them again as one batch.
// Errors are ignored so that every module gets its attempt.
func (e *Engine) FixFailed(ctx context.Context) (map[string]module.Module, error) {
	cleared := e.ClearFailed(ctx)
	if len(cleared) == 0 {
		return map[string]module.Module{}, nil
	}
	return e.LoadMany(ctx, cleared, false, BatchOptions{
		LoadOptions:  LoadOptions{SkipCache: true},
		IgnoreErrors: true,
	})
}
