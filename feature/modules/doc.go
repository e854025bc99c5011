// Package modules exposes the module loading engine over HTTP.
//
// It is a diagnostics and maintenance surface: operators can inspect the
// health report, the dependency cycles observed at runtime and the
// notification log, load modules on demand, and recover failed modules
// without restarting the process.
//
// # HTTP Endpoints
//
//   - GET /modules : Lists published modules.
//   - GET /modules/health : Health report (status, fallbacks, critical failures).
//   - GET /modules/cycles : Observed dependency edges, cycles and circular hits.
//   - GET /modules/notifications : Recent user-visible notifications.
//   - GET /modules/record?ref= : Load record of one module.
//   - POST /modules/load : Batch load {references, all_required, ignore_errors, skip_cache}.
//   - POST /modules/fix : Clear every failed module and load it again.
//   - POST /modules/clear : Clear failed state {paths}; all when empty.
//   - PUT /modules/overrides : Set a resolution override {reference, path}.
//   - DELETE /modules/overrides?ref= : Remove a resolution override.
package modules
