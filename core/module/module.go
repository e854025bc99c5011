package module

import (
	"context"
	"sort"
	"strings"
)

// Tier is the coarse category governing load priority and fallback strategy.
type Tier string

const (
	TierCore    Tier = "core"
	TierFeature Tier = "feature"
	TierUtility Tier = "utility"
)

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierCore, TierFeature, TierUtility:
		return true
	default:
		return false
	}
}

// Export is a single callable exposed by a module.
type Export func(ctx context.Context, args ...any) (any, error)

// Module is implemented by every loaded unit, real or synthetic.
type Module interface {
	Name() string
	Exports() []string
	Export(name string) (Export, bool)
}

// Initializer is implemented by modules that need a startup step.
// Returning false is a soft failure.
type Initializer interface {
	Initialize(ctx context.Context) (bool, error)
}

// Empty is the neutral value returned for calls that callers await.
type Empty struct{}

type fallbackMarker interface {
	IsFallback() bool
}

type deferredMarker interface {
	IsDeferred() bool
}

// IsFallback reports whether m is a synthesized stand-in for a failed module.
func IsFallback(m Module) bool {
	if m == nil {
		return false
	}
	fb, ok := m.(fallbackMarker)
	return ok && fb.IsFallback()
}

// IsDeferred reports whether m is a circular-load stand-in.
func IsDeferred(m Module) bool {
	if m == nil {
		return false
	}
	d, ok := m.(deferredMarker)
	return ok && d.IsDeferred()
}

// Call looks up name on m and invokes it. Missing exports yield nil.
func Call(ctx context.Context, m Module, name string, args ...any) (any, error) {
	if m == nil {
		return nil, nil
	}
	fn, ok := m.Export(name)
	if !ok || fn == nil {
		return nil, nil
	}
	return fn(ctx, args...)
}

// IsInitializeName reports names that startup sequences await for a boolean.
func IsInitializeName(name string) bool {
	switch strings.ToLower(name) {
	case "initialize", "init", "setup", "start":
		return true
	default:
		return false
	}
}

// IsThenableName reports names conventionally awaited on promise-like values.
func IsThenableName(name string) bool {
	switch name {
	case "then", "catch", "finally":
		return true
	default:
		return false
	}
}

// Static is a module backed by a fixed export table.
type Static struct {
	name    string
	exports map[string]Export
	init    func(ctx context.Context) (bool, error)
}

// New builds a Static module from the given exports.
func New(name string, exports map[string]Export) *Static {
	copied := make(map[string]Export, len(exports))
	for key, fn := range exports {
		copied[key] = fn
	}
	return &Static{name: name, exports: copied}
}

// WithInitializer attaches an initialization step to the module.
func (s *Static) WithInitializer(fn func(ctx context.Context) (bool, error)) *Static {
	s.init = fn
	return s
}

func (s *Static) Name() string { return s.name }

func (s *Static) Exports() []string {
	names := make([]string, 0, len(s.exports))
	for name := range s.exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Static) Export(name string) (Export, bool) {
	fn, ok := s.exports[name]
	return fn, ok
}

// Initialize runs the attached initializer, or reports success when none is set.
func (s *Static) Initialize(ctx context.Context) (bool, error) {
	if s.init == nil {
		return true, nil
	}
	return s.init(ctx)
}
