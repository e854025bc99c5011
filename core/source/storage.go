package source

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"module-loader/core/module"
	"module-loader/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// MaxSourceBytes bounds the size of a module source download.
const MaxSourceBytes = 4 << 20

// Storage fetches module sources from a bucket and interprets them.
type Storage struct {
	client storage.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewStorage returns a source reading objects from bucket under prefix.
func NewStorage(client storage.Client, bucket, prefix string, logger *zap.Logger) *Storage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Storage{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

func (s *Storage) Fetch(ctx context.Context, canonical string) (module.Module, error) {
	object := storage.ObjectName(s.prefix, canonical)
	reader, err := s.client.GetObject(ctx, s.bucket, object, minio.GetObjectOptions{})
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, fmt.Errorf("storage %s: %w", object, ErrNotFound)
		}
		return nil, fmt.Errorf("storage %s: %w", object, err)
	}
	defer reader.Close()

	code, err := io.ReadAll(io.LimitReader(reader, MaxSourceBytes+1))
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, fmt.Errorf("storage %s: %w", object, ErrNotFound)
		}
		return nil, fmt.Errorf("storage %s: read: %w", object, err)
	}
	if len(code) > MaxSourceBytes {
		return nil, fmt.Errorf("storage %s: source exceeds %d bytes", object, MaxSourceBytes)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(path.Base(canonical), path.Ext(canonical))
	m, err := Evaluate(name, code)
	if err != nil {
		return nil, fmt.Errorf("storage %s: %w", object, err)
	}
	s.logger.Debug("Module source evaluated",
		zap.String("path", canonical),
		zap.String("object", object),
		zap.Int("bytes", len(code)),
		zap.Strings("exports", m.Exports()))
	return m, nil
}
