// Package config resolves the module loader settings.
//
// Values are layered, later layers winning:
//
//  1. `default` struct tags of each section
//  2. an optional loader.yaml or loader.toml next to the .env file
//  3. the .env file
//  4. environment variables, dots replaced by underscores
//     (LOADER_TIMEOUT_MS -> loader.timeout_ms)
//
// List values given through the environment are comma separated.
//
// Sections: server, storage, log, database, loader and history. Validate
// checks the combinations the rest of the program relies on, such as a
// database driver being set when history persists in the database.
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
