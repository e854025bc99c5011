package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"module-loader/core/module"

	"go.uber.org/zap"
)

// Dir interprets module sources from a local directory laid out like the
// canonical paths.
type Dir struct {
	root   string
	logger *zap.Logger
}

// NewDir returns a source rooted at dir.
func NewDir(dir string, logger *zap.Logger) *Dir {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dir{root: dir, logger: logger}
}

func (d *Dir) Fetch(ctx context.Context, canonical string) (module.Module, error) {
	rel := strings.TrimLeft(path.Clean("/"+canonical), "/")
	file := filepath.Join(d.root, filepath.FromSlash(rel))

	info, err := os.Stat(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("dir %s: %w", file, ErrNotFound)
		}
		return nil, fmt.Errorf("dir %s: %w", file, err)
	}
	if info.Size() > MaxSourceBytes {
		return nil, fmt.Errorf("dir %s: source exceeds %d bytes", file, MaxSourceBytes)
	}
	code, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("dir %s: %w", file, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := Evaluate(strings.TrimSuffix(path.Base(rel), path.Ext(rel)), code)
	if err != nil {
		return nil, fmt.Errorf("dir %s: %w", file, err)
	}
	d.logger.Debug("Module source evaluated", zap.String("path", canonical), zap.String("file", file))
	return m, nil
}
