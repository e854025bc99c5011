// Package server holds the HTTP server configuration.
//
// The main entry point handles the server startup; this package only
// defines the settings the diagnostics surface listens with.
//
// # Configuration
//
// The Config struct defines the HTTP port, the API key protecting every
// route except the swagger UI, and the graceful shutdown window.
package server
