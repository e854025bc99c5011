// Package middleware groups the Fiber middleware of the diagnostics server.
//
//   - rayid tags each request with an X-Ray-ID, reusing one sent by the caller.
//   - auth guards the maintenance endpoints with the configured API key.
package middleware
