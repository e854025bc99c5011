// Package logger builds the zap logger shared by the engine, the CLI and the
// diagnostics server.
//
// Level accepts debug, info, warn (or warning) and error. Format selects
// json or colored console output; debug level switches to zap's development
// defaults.
//
// Request handlers use WithRayID so every line of one request carries the
// same ray_id field:
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "json"})
//	l := logger.WithRayID(log, c)
//	l.Warn("Module record not found", zap.String("reference", ref))
package logger
