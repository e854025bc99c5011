package integrity

import (
	"context"
	"fmt"

	"module-loader/core/kvstore"
	"module-loader/core/registry"
	"module-loader/core/storage"
	"module-loader/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles integrity checks.
type Service struct {
	client   storage.Client
	bucket   string
	prefix   string
	registry *registry.Registry
	db       *gorm.DB
	history  kvstore.Config
	logger   *zap.Logger
}

// NewService creates a new integrity service. client and db may be nil; the
// checks that need them then report an error.
func NewService(client storage.Client, storageCfg storage.Config, reg *registry.Registry, db *gorm.DB, history kvstore.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:   client,
		bucket:   storageCfg.Bucket,
		prefix:   storageCfg.Prefix,
		registry: reg,
		db:       db,
		history:  history,
		logger:   logger,
	}
}

// CheckRegistry compares the registry with the module bucket.
func (s *Service) CheckRegistry(ctx context.Context) (*checks.RegistryReport, error) {
	if s.client == nil {
		return nil, fmt.Errorf("storage client is not configured")
	}
	return checks.CheckRegistry(ctx, s.client, s.bucket, s.prefix, s.registry)
}

// CheckHistory validates the failure history table. It is skipped unless
// the database backend is configured.
func (s *Service) CheckHistory() (*checks.SchemaReport, error) {
	if s.history.Backend != kvstore.BackendDatabase {
		return nil, fmt.Errorf("history backend is %q, schema check needs %q", s.history.Backend, kvstore.BackendDatabase)
	}
	return checks.CheckHistorySchema(s.db, s.history.Table)
}
