package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"module-loader/core/database"
	"module-loader/core/engine"
	"module-loader/core/kvstore"
	"module-loader/core/logger"
	"module-loader/core/server"
	"module-loader/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the optional settings file looked up next to .env, as
// loader.yaml or loader.toml.
const FileName = "loader"

// Config holds all configuration for the application.
type Config struct {
	// Server holds configuration for the diagnostics HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage module sources live in.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds the connection used by the database history backend.
	Database database.Config `mapstructure:"database"`
	// Loader holds the module loading engine settings.
	Loader engine.Config `mapstructure:"loader"`
	// History selects where failed modules and fallback state persist.
	History kvstore.Config `mapstructure:"history"`
}

// LoadConfig resolves configuration from struct defaults, an optional
// loader.yaml/loader.toml file, the .env file and the environment, in
// increasing precedence.
func LoadConfig(path string) (*Config, error) {
	envPath := filepath.Join(path, ".env")
	if path == "." {
		envPath = ".env"
	}
	// Missing in production
	_ = godotenv.Overload(envPath)

	v := viper.New()
	bindValues(v, Config{}, "")

	v.SetConfigName(FileName)
	v.AddConfigPath(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read %s config: %w", FileName, err)
		}
	}

	// SERVER_PORT -> server.port
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.Loader.Preload = compact(config.Loader.Preload)
	config.Loader.Overrides = compact(config.Loader.Overrides)

	return &config, nil
}

// Validate rejects settings that cannot be combined.
func (c *Config) Validate() error {
	var errs []error
	switch c.Loader.Source {
	case engine.SourceStorage, engine.SourceDir, engine.SourceChain:
	default:
		errs = append(errs, fmt.Errorf("loader.source: unknown source %q", c.Loader.Source))
	}
	if c.Loader.Concurrency < 1 {
		errs = append(errs, errors.New("loader.concurrency: must be at least 1"))
	}
	if c.Loader.RegistryPath == "" {
		errs = append(errs, errors.New("loader.registry_path: required"))
	}
	for _, pair := range c.Loader.Overrides {
		if ref, target, ok := strings.Cut(pair, "="); !ok || strings.TrimSpace(ref) == "" || strings.TrimSpace(target) == "" {
			errs = append(errs, fmt.Errorf("loader.overrides: %q is not ref=path", pair))
		}
	}
	switch c.History.Backend {
	case kvstore.BackendMemory:
	case kvstore.BackendDatabase:
		if !database.ValidIdentifier(c.History.Table) {
			errs = append(errs, fmt.Errorf("history.table: invalid table name %q", c.History.Table))
		}
		if c.Database.Driver != "mysql" && c.Database.Driver != "sqlite" {
			errs = append(errs, fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("history.backend: unknown backend %q", c.History.Backend))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// compact trims list items split from comma separated values and drops
// empty ones.
func compact(items []string) []string {
	out := items[:0]
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// bindValues walks the struct and registers every mapstructure key with its
// 'default' tag so AutomaticEnv can resolve it.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Empty defaults still register the key
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
