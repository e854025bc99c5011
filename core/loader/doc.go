// Package loader mounts the HTTP features of the diagnostics server.
//
// A feature names itself, reports whether its dependencies are available and
// registers its routes:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// Manager.LoadAll mounts features in registration order and skips disabled
// ones. The server mounts the modules and integrity features.
package loader
