package cmd

import (
	"testing"

	"module-loader/core/config"
	"module-loader/core/source"
	"module-loader/core/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestModuleSource(t *testing.T) {
	client := new(mocks.Client)
	cfg := func(kind string) *config.Config {
		c := &config.Config{}
		c.Storage.Bucket = "modules"
		c.Loader.Source = kind
		c.Loader.SourceDir = t.TempDir()
		return c
	}

	t.Run("Storage by default", func(t *testing.T) {
		src, err := moduleSource(cfg(""), client, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &source.Storage{}, src)
	})

	t.Run("Directory", func(t *testing.T) {
		src, err := moduleSource(cfg("dir"), client, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &source.Dir{}, src)
	})

	t.Run("Chain tries storage before the directory", func(t *testing.T) {
		src, err := moduleSource(cfg("chain"), client, zap.NewNop())
		require.NoError(t, err)
		chain, ok := src.(source.Chain)
		require.True(t, ok)
		require.Len(t, chain, 2)
		assert.IsType(t, &source.Storage{}, chain[0])
		assert.IsType(t, &source.Dir{}, chain[1])
	})

	t.Run("Unknown source", func(t *testing.T) {
		_, err := moduleSource(cfg("cdn"), client, zap.NewNop())
		assert.Error(t, err)
	})
}
