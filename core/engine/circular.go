package engine

import (
	"context"

	"module-loader/core/module"

	"go.uber.org/zap"
)

// deferredModule stands in for a module requested by its own load chain.
// Each call checks the cache first and forwards to the real module once it
// has loaded. It is never stored as the module's value.
type deferredModule struct {
	engine   *Engine
	path     string
	name     string
	contract module.Contract
}

func (e *Engine) deferred(canonical, name, requester string) module.Module {
	e.mu.Lock()
	e.circular[canonical]++
	e.mu.Unlock()

	e.logger.Warn("Circular module dependency, returning deferred module",
		zap.String("module", name),
		zap.String("path", canonical),
		zap.String("requested_by", requester),
		zap.Error(ErrCircularDependency))

	contract, _, _ := e.contractFor(canonical)
	return &deferredModule{engine: e, path: canonical, name: name, contract: contract}
}

func (d *deferredModule) resolved() (module.Module, bool) {
	return d.engine.cache.Loaded(d.path)
}

func (d *deferredModule) Name() string { return d.name }

// IsDeferred marks the circular stand-in.
func (d *deferredModule) IsDeferred() bool { return true }

// Resolve returns the real module once it has loaded.
func (d *deferredModule) Resolve() (module.Module, bool) { return d.resolved() }

func (d *deferredModule) Exports() []string {
	if m, ok := d.resolved(); ok {
		return m.Exports()
	}
	return append([]string(nil), d.contract.Expected...)
}

func (d *deferredModule) Export(name string) (module.Export, bool) {
	stub := module.Stub(name, d.contract.IsAsync(name), d.observe)
	return func(ctx context.Context, args ...any) (any, error) {
		if m, ok := d.resolved(); ok {
			if fn, ok := m.Export(name); ok {
				return fn(ctx, args...)
			}
		}
		return stub(ctx, args...)
	}, true
}

func (d *deferredModule) Initialize(ctx context.Context) (bool, error) {
	if m, ok := d.resolved(); ok {
		if initializer, ok := m.(module.Initializer); ok {
			return initializer.Initialize(ctx)
		}
	}
	return true, nil
}

func (d *deferredModule) observe(name string, args []any) {
	d.engine.logger.Debug("Deferred module export called before load completed",
		zap.String("module", d.name),
		zap.String("export", name),
		zap.Int("args", len(args)))
}
