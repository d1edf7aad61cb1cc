package logger_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.log")
	log, err := logger.New(logger.Config{Level: "debug", OutputPaths: []string{path}})
	require.NoError(t, err)

	log.With(logger.String("business", "Acme")).Info("fetched", logger.Int("status", 200))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"business":"Acme"`)
	assert.Contains(t, string(data), `"status":200`)
}

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	cfg := logger.Config{}
	cfg.SetDefaults()

	assert.Equal(t, logger.DefaultLevel, cfg.Level)
	assert.Equal(t, logger.DefaultFormat, cfg.Format)
	assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	nop := logger.NewNop()
	ctx := logger.WithContext(context.Background(), nop)

	assert.Same(t, nop, logger.FromContext(ctx))
	assert.NotNil(t, logger.FromContext(context.Background()))
}
