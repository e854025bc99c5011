// Package modcache owns module records and the in-flight load table.
//
// Every canonical path has at most one Record. A record moves from pending
// to loading when a load begins and to loaded or failed when it settles.
// Failed records keep their attempt counter across calls until Reset.
//
// Concurrent requests for the same path share one in-flight operation
// through a singleflight group keyed by path; the completed-result lookup
// (Completed) is separate from the in-flight table.
package modcache
