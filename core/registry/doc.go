// Package registry holds the static module registry.
//
// The registry enumerates, per module filename, its tier, its expected export
// names and optionally its declared dependencies and initialization priority.
// It is loaded once at startup and is immutable afterwards. Both path
// resolution heuristics and fallback synthesis read from it.
//
// # File format
//
// Registry files are YAML or TOML, chosen by extension:
//
//	root: /modules
//	extension: .js
//	priority: [event-bus.js, auth.js]
//	never_fallback: [auth.js]
//	modules:
//	  - filename: auth.js
//	    tier: core
//	    exports: [login, logout]
//	    async_exports: [login]
//	    depends_on: [event-bus.js]
//	    required: true
package registry
