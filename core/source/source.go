package source

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"module-loader/core/module"
)

// ErrNotFound is returned when a source has no module for a path.
var ErrNotFound = errors.New("module not found")

// Source fetches raw modules by canonical path.
type Source interface {
	Fetch(ctx context.Context, canonical string) (module.Module, error)
}

// Func adapts a function to Source.
type Func func(ctx context.Context, canonical string) (module.Module, error)

func (f Func) Fetch(ctx context.Context, canonical string) (module.Module, error) {
	return f(ctx, canonical)
}

// Factory constructs a builtin module.
type Factory func(ctx context.Context) (module.Module, error)

// Builtin serves modules compiled into the host.
type Builtin struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewBuiltin returns an empty builtin source.
func NewBuiltin() *Builtin {
	return &Builtin{factories: make(map[string]Factory)}
}

// Register binds a factory to key, which may be a canonical path, a
// filename or a short name.
func (b *Builtin) Register(key string, f Factory) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.factories[key] = f
}

// RegisterModule registers a prebuilt module under key.
func (b *Builtin) RegisterModule(key string, m module.Module) {
	b.Register(key, func(context.Context) (module.Module, error) { return m, nil })
}

// Len returns the number of registered factories.
func (b *Builtin) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.factories)
}

func (b *Builtin) Fetch(ctx context.Context, canonical string) (module.Module, error) {
	filename := path.Base(canonical)
	stem := strings.TrimSuffix(filename, path.Ext(filename))

	b.mu.RLock()
	var factory Factory
	for _, key := range []string{canonical, filename, stem} {
		if f, ok := b.factories[key]; ok {
			factory = f
			break
		}
	}
	b.mu.RUnlock()

	if factory == nil {
		return nil, fmt.Errorf("builtin %s: %w", canonical, ErrNotFound)
	}
	m, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("builtin %s: %w", canonical, err)
	}
	if m == nil {
		return nil, fmt.Errorf("builtin %s: factory returned no module", canonical)
	}
	return m, nil
}

// Chain tries each source in order and returns the first module found.
type Chain []Source

func (c Chain) Fetch(ctx context.Context, canonical string) (module.Module, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("%s: no module sources configured: %w", canonical, ErrNotFound)
	}
	var errs []error
	for _, src := range c {
		if src == nil {
			continue
		}
		m, err := src.Fetch(ctx, canonical)
		if err == nil {
			return m, nil
		}
		errs = append(errs, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			errs = append(errs, ctxErr)
			break
		}
	}
	return nil, errors.Join(errs...)
}
