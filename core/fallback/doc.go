// Package fallback synthesizes stand-ins for modules that failed to load.
//
// A Fallback exposes every export its registry contract promises, so callers
// never need to nil-check a degraded module. The implementation of each
// export is chosen by a tagged dispatch on module identity:
//
//   - KindEventBus: an in-memory event bus (on, off, once, emit).
//   - KindTaskHistory: a task list persisted through a kvstore.Store
//     (add, list, get, remove, clear).
//   - KindGeneric: every export is a stub that logs and returns the neutral
//     value for its name.
//
// Any export name outside the contract also resolves to a stub. A builder
// that panics produces a marker-only fallback (KindMarker) instead of
// propagating the panic.
//
// # Usage
//
//	f := fallback.NewFactory(store, logger)
//	fb := f.Create("auth", contract, err)
//	fb.IsFallback() // true
package fallback
