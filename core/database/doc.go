// Package database handles database connections and schema inspection.
//
// It wraps GORM to open either a MySQL server or a SQLite file based on the
// application's configuration. The database backs the persisted key/value
// store used for failed-module history and the task-history fallback.
//
// # Connect
//
// Connect selects the dialector from Config.Driver, applies pool settings and
// pings the database before returning it.
//
// # Schema Inspection
//
// GetTableColumns lists a table's columns for both dialects. The integrity
// feature uses it to verify that the history table has the expected shape.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("Database unavailable, using memory history", zap.Error(err))
//	}
//
//	columns, err := database.GetTableColumns(db, "kv_entries")
package database
