package cmd

import (
	"context"
	"fmt"

	"module-loader/core/config"
	"module-loader/core/database"
	"module-loader/core/engine"
	"module-loader/core/fallback"
	"module-loader/core/kvstore"
	"module-loader/core/logger"
	"module-loader/core/notify"
	"module-loader/core/registry"
	"module-loader/core/retry"
	"module-loader/core/source"
	"module-loader/core/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime is the wired application shared by every command.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB
	client   storage.Client
	registry *registry.Registry
	engine   *engine.Engine
	notes    *notify.Recorder
}

// bootstrap loads configuration and wires the engine and its collaborators.
func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: logg}

	// The database is only required when history persists in it.
	if cfg.History.Backend == kvstore.BackendDatabase {
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database connection required by history backend: %w", err)
		}
		rt.db = db
		logg.Info("Connected to history database", zap.String("driver", cfg.Database.Driver))
	}

	store, err := kvstore.Open(ctx, cfg.History, rt.db)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	rt.client = client

	reg, err := registry.LoadFile(cfg.Loader.RegistryPath)
	if err != nil {
		return nil, err
	}
	rt.registry = reg

	src, err := moduleSource(cfg, client, logg)
	if err != nil {
		return nil, err
	}

	rt.notes = notify.NewRecorder(cfg.Loader.Notifications)
	opts := cfg.Loader.Apply(engine.Options{
		Registry:  reg,
		Source:    src,
		History:   retry.NewHistory(store),
		Fallbacks: fallback.NewFactory(store, logg),
		Notifier:  notify.Multi{notify.NewLogNotifier(logg), rt.notes},
		Logger:    logg,
	})
	rt.engine, err = engine.New(opts)
	if err != nil {
		return nil, err
	}

	logg.Info("Module engine ready",
		zap.String("registry", cfg.Loader.RegistryPath),
		zap.Int("modules", len(reg.Entries())),
		zap.String("source", cfg.Loader.Source),
		zap.String("history", cfg.History.Backend))
	return rt, nil
}

func moduleSource(cfg *config.Config, client storage.Client, logg *zap.Logger) (source.Source, error) {
	fromStorage := source.NewStorage(client, cfg.Storage.Bucket, cfg.Storage.Prefix, logg)
	fromDir := source.NewDir(cfg.Loader.SourceDir, logg)
	switch cfg.Loader.Source {
	case "", engine.SourceStorage:
		return fromStorage, nil
	case engine.SourceDir:
		return fromDir, nil
	case engine.SourceChain:
		return source.Chain{fromStorage, fromDir}, nil
	default:
		return nil, fmt.Errorf("unknown module source %q", cfg.Loader.Source)
	}
}

// preload loads the configured preload list as one batch.
func (rt *runtime) preload(ctx context.Context) {
	if len(rt.cfg.Loader.Preload) == 0 {
		return
	}
	results, err := rt.engine.LoadMany(ctx, rt.cfg.Loader.Preload, false, engine.BatchOptions{})
	if err != nil {
		rt.logger.Warn("Preload reported failures", zap.Error(err))
	}
	rt.logger.Info("Preload completed", zap.Int("modules", len(results)))
}

func (rt *runtime) close() {
	_ = rt.logger.Sync()
	if rt.db != nil {
		if sqlDB, err := rt.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
