// Package integrity provides consistency checks between the module registry
// and the infrastructure the loader depends on.
//
// # Checks Provided
//
//   - Registry: every registry entry has a source object in the module bucket
//     under its canonical path; module objects without an entry are listed
//     as unregistered.
//   - History: when failed-module history is persisted in a database, the
//     key/value table matches the expected columns, types and primary key.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/registry : Runs the registry check.
//   - GET /integrity/history : Runs the history schema check.
package integrity
