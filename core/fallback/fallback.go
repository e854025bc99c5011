package fallback

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"module-loader/core/kvstore"
	"module-loader/core/module"

	"go.uber.org/zap"
)

// Kind identifies which stand-in implementation a fallback uses.
type Kind string

const (
	KindGeneric     Kind = "generic"
	KindEventBus    Kind = "event_bus"
	KindTaskHistory Kind = "task_history"
	KindMarker      Kind = "marker"
)

// Record describes a synthesized fallback for diagnostics.
type Record struct {
	Module  string      `json:"module"`
	Path    string      `json:"path"`
	Tier    module.Tier `json:"tier"`
	Kind    Kind        `json:"kind"`
	Exports []string    `json:"exports"`
	Origin  string      `json:"origin,omitempty"`
}

// Builder produces concrete exports for a fallback.
type Builder func(fb *Fallback) map[string]module.Export

// Fallback is a degraded stand-in for a module.
type Fallback struct {
	name     string
	contract module.Contract
	kind     Kind
	origin   error
	exports  map[string]module.Export
	logger   *zap.Logger
}

func (f *Fallback) Name() string { return f.name }

// IsFallback marks the module as degraded.
func (f *Fallback) IsFallback() bool { return true }

// Kind returns the stand-in implementation in use.
func (f *Fallback) Kind() Kind { return f.kind }

// Origin returns the error that caused the fallback, if any.
func (f *Fallback) Origin() error { return f.origin }

// Exports lists the contract exports followed by any concrete extras.
func (f *Fallback) Exports() []string {
	seen := make(map[string]struct{}, len(f.contract.Expected)+len(f.exports))
	names := make([]string, 0, len(f.contract.Expected)+len(f.exports))
	for _, name := range f.contract.Expected {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	var extra []string
	for name := range f.exports {
		if _, ok := seen[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// Export always succeeds: concrete implementations win, anything else is a stub.
func (f *Fallback) Export(name string) (module.Export, bool) {
	if fn, ok := f.exports[name]; ok {
		return fn, true
	}
	return module.Stub(name, f.contract.IsAsync(name), f.observe), true
}

// Initialize reports success so startup sequences are never blocked.
func (f *Fallback) Initialize(context.Context) (bool, error) { return true, nil }

// Record returns a diagnostic description of the fallback.
func (f *Fallback) Record() Record {
	rec := Record{
		Module:  f.name,
		Path:    f.contract.Path,
		Tier:    f.contract.Tier,
		Kind:    f.kind,
		Exports: f.Exports(),
	}
	if f.origin != nil {
		rec.Origin = f.origin.Error()
	}
	return rec
}

func (f *Fallback) observe(name string, args []any) {
	f.logger.Debug("Fallback export called",
		zap.String("module", f.name),
		zap.String("export", name),
		zap.Int("args", len(args)))
}

// Factory creates fallbacks.
type Factory struct {
	store  kvstore.Store
	logger *zap.Logger

	mu       sync.RWMutex
	builders map[Kind]Builder
	aliases  map[string]Kind
}

// NewFactory returns a factory with the event bus and task history
// stand-ins registered. store backs the task history.
func NewFactory(store kvstore.Store, logger *zap.Logger) *Factory {
	if store == nil {
		store = kvstore.NewMemory()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Factory{
		store:    store,
		logger:   logger,
		builders: make(map[Kind]Builder),
		aliases:  make(map[string]Kind),
	}
	f.Register(KindEventBus, newEventBus, "event-bus", "event_bus", "eventbus", "events")
	f.Register(KindTaskHistory, f.newTaskHistory, "task-history", "task_history", "taskhistory", "history")
	return f
}

// Register binds a builder to kind and maps the given module names to it.
func (f *Factory) Register(kind Kind, b Builder, names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[kind] = b
	for _, name := range names {
		f.aliases[strings.ToLower(name)] = kind
	}
}

// KindFor returns the stand-in kind used for the named module.
func (f *Factory) KindFor(name string) Kind {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if kind, ok := f.aliases[strings.ToLower(name)]; ok {
		return kind
	}
	return KindGeneric
}

// Create builds a fallback for name honoring contract. origin is the error
// that made the module unavailable and may be nil.
func (f *Factory) Create(name string, contract module.Contract, origin error) (fb *Fallback) {
	fb = &Fallback{
		name:     name,
		contract: contract,
		kind:     f.KindFor(name),
		origin:   origin,
		exports:  map[string]module.Export{},
		logger:   f.logger,
	}

	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("Fallback construction panicked, using marker fallback",
				zap.String("module", name),
				zap.Any("panic", r))
			fb.kind = KindMarker
			fb.exports = map[string]module.Export{}
		}
	}()

	f.mu.RLock()
	build, ok := f.builders[fb.kind]
	f.mu.RUnlock()
	if ok {
		for export, fn := range build(fb) {
			if fn == nil {
				panic(fmt.Sprintf("nil export %s", export))
			}
			fb.exports[export] = fn
		}
	}

	f.logger.Warn("Using fallback module",
		zap.String("module", name),
		zap.String("kind", string(fb.kind)),
		zap.Error(origin))
	return fb
}
