// Package kvstore is the persistence port for small keyed string values.
//
// The loader keeps process-wide state such as the failed-module history and
// the task-history fallback behind this port instead of reaching for a
// storage substrate directly. Two backends are provided:
//
//   - Memory: a map guarded by a mutex, used by default and in tests.
//   - GormStore: a single table (key, value, updated_at) on MySQL or SQLite.
//
// Values are opaque strings; callers encode structured data themselves.
package kvstore
