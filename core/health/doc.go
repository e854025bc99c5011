// Package health builds read-only diagnostics over loader state.
//
// Build takes a View (implemented by the engine) and derives:
//
//   - counts of pending, loading, loaded and failed modules;
//   - the modules currently running on a fallback;
//   - detected cycles and deferred stand-ins handed out per module;
//   - per-module attempt counts and initialization failures;
//   - an overall Status and the CanContinue predicate.
//
// Status is critical when a never_fallback module has failed, degraded when
// any module runs on a fallback or failed initialization, and healthy
// otherwise. CanContinue is false only when a never_fallback module failed
// without a fallback.
package health
