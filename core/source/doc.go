// Package source implements module-source collaborators.
//
// A Source turns a canonical path into a raw module or a definitive error.
// The loader does not care how: several strategies are provided and can be
// tried in sequence with Chain.
//
// # Builtin
//
// Builtin holds in-process factories keyed by canonical path, filename or
// short name. Hosts register the modules compiled into the binary here.
//
// # Storage
//
// Storage downloads a module's source from object storage and evaluates it
// with the yaegi Go interpreter. A module source is a Go file in package
// main that defines:
//
//	func Exports() map[string]any
//
// and optionally one of:
//
//	func Initialize() bool
//	func Initialize() (bool, error)
//	func Initialize(ctx context.Context) (bool, error)
//
// Export values must be functions. Common shapes such as
// func(...any) (any, error) are adapted directly; any other function is
// called through reflection with its arguments converted where possible.
package source
