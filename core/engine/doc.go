// Package engine is the loader context: it resolves, loads, caches and
// sequences modules and degrades to fallbacks when a module cannot load.
//
// An Engine owns one module cache, one dependency graph and one override
// table. Nothing is global; create as many isolated engines as needed.
//
// # Load
//
// Load resolves a reference to its canonical path and then, in order:
//
//  1. returns the cached value (loaded module or stored fallback) unless
//     SkipCache is set;
//  2. returns a deferred stand-in if the path is already being loaded by an
//     ancestor of the call, or if joining its in-flight load would wait on
//     this call's own chain;
//  3. settles immediately to a fallback when the retry budget of the path
//     is exhausted, including failures recorded by a previous process;
//  4. otherwise joins or starts the single in-flight load for the path.
//
// A load fetches the declared dependencies of the module first, then calls
// the module source under a per-attempt deadline, retrying with exponential
// backoff. A result that arrives after its deadline is discarded. Terminal
// failures produce a fallback unless the module is listed as never_fallback,
// in which case Load returns a *LoadError.
//
// The chain of loads in progress travels in the context. Sources and
// initializers that load further modules must pass the context they were
// given so that dependency edges and cycles are observed.
//
// # LoadMany
//
// LoadMany loads a batch in three phases: modules on the registry priority
// list load and initialize one at a time in declared order; critical modules
// then load one at a time in dependency order; everything else loads in
// dependency order in concurrent chunks.
package engine
