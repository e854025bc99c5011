package module

import (
	"context"

	"module-loader/core/utils"
)

// Contract describes the call surface a registry entry promises.
type Contract struct {
	Path     string
	Tier     Tier
	Expected []string
	Async    []string
}

// IsAsync reports whether callers await the named export.
func (c Contract) IsAsync(name string) bool {
	for _, candidate := range c.Async {
		if candidate == name {
			return true
		}
	}
	return false
}

// Neutral returns the value a stub export resolves to.
func Neutral(name string, async bool) any {
	switch {
	case IsInitializeName(name):
		return true
	case async || IsThenableName(name):
		return Empty{}
	default:
		return nil
	}
}

// Stub returns an export that ignores its arguments and resolves to the
// neutral value for name. observe, when set, is told about every call.
func Stub(name string, async bool, observe func(name string, args []any)) Export {
	return func(_ context.Context, args ...any) (any, error) {
		if observe != nil {
			observe(name, args)
		}
		return Neutral(name, async), nil
	}
}

// Bound is a raw module adapted to its registry contract.
type Bound struct {
	raw      Module
	contract Contract
	missing  []string
}

// Bind adapts raw to contract. Expected exports the raw module lacks resolve
// to neutral stubs and are reported by Missing.
func Bind(raw Module, contract Contract) *Bound {
	if b, ok := raw.(*Bound); ok {
		raw = b.raw
	}
	bound := &Bound{raw: raw, contract: contract}
	for _, name := range contract.Expected {
		if _, ok := raw.Export(name); !ok {
			bound.missing = append(bound.missing, name)
		}
	}
	return bound
}

func (b *Bound) Name() string { return b.raw.Name() }

// Path returns the canonical path the module was loaded from.
func (b *Bound) Path() string { return b.contract.Path }

// Tier returns the registry tier of the module.
func (b *Bound) Tier() Tier { return b.contract.Tier }

// Raw returns the unwrapped module.
func (b *Bound) Raw() Module { return b.raw }

// Missing lists expected exports the raw module did not provide.
func (b *Bound) Missing() []string {
	out := make([]string, len(b.missing))
	copy(out, b.missing)
	return out
}

func (b *Bound) Exports() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, name := range b.contract.Expected {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	for _, name := range b.raw.Exports() {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

func (b *Bound) Export(name string) (Export, bool) {
	if fn, ok := b.raw.Export(name); ok {
		return fn, true
	}
	for _, missing := range b.missing {
		if missing == name {
			return Stub(name, b.contract.IsAsync(name), nil), true
		}
	}
	return nil, false
}

// Initialize delegates to the raw module's Initializer, or to an exported
// "initialize" function whose result is coerced to a boolean.
func (b *Bound) Initialize(ctx context.Context) (bool, error) {
	if initializer, ok := b.raw.(Initializer); ok {
		return initializer.Initialize(ctx)
	}
	fn, ok := b.raw.Export("initialize")
	if !ok {
		return true, nil
	}
	result, err := fn(ctx)
	if err != nil {
		return false, err
	}
	if result == nil {
		return true, nil
	}
	return utils.ToBool(result, true), nil
}

// HasInitializer reports whether m exposes an initialization step.
func HasInitializer(m Module) bool {
	if b, ok := m.(*Bound); ok {
		if _, ok := b.raw.(Initializer); ok {
			return true
		}
		_, ok := b.raw.Export("initialize")
		return ok
	}
	_, ok := m.(Initializer)
	return ok
}
