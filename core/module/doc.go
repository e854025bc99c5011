// Package module defines the runtime contract of a loadable module.
//
// A module is an independently deployed unit with a declared export surface.
// Sources produce raw modules; the engine binds them to their registry entry
// so every caller sees the same call surface whether the module loaded, was
// replaced by a fallback, or is a deferred stand-in for a circular load.
//
// # Contract
//
//	type Module interface {
//	    Name() string
//	    Exports() []string
//	    Export(name string) (Export, bool)
//	}
//
// Modules may additionally implement Initializer. Fallbacks implement the
// IsFallback marker and circular stand-ins implement IsDeferred.
//
// # Neutral values
//
// Stub exports never fail. They return nil for ordinary calls, Empty for
// names callers await, and true for initialize-like names.
package module
