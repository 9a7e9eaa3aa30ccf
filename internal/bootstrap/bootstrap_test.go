package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/detect-speech/internal/config"
	"github.com/maauso/detect-speech/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Engine:     "energy",
		Threads:    1,
		ChunkSec:   30,
		PaddingSec: 0.5,
		FFmpegPath: "ffmpeg",
		TempDir:    t.TempDir(),
		LogFormat:  "text",
		LogLevel:   "warn",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDependencies(t *testing.T) {
	deps, err := NewDependencies(context.Background(), testConfig(t), discardLogger())
	require.NoError(t, err)

	require.NotNil(t, deps.Service)
	require.NotNil(t, deps.Metrics)
	assert.Same(t, deps.Metrics, deps.Service.Metrics())
}

func TestNewDependencies_UnknownEngine(t *testing.T) {
	cfg := testConfig(t)
	cfg.Engine = "whisper"

	_, err := NewDependencies(context.Background(), cfg, discardLogger())
	assert.Error(t, err)
}

func TestInitStorage(t *testing.T) {
	t.Run("local when S3 is not configured", func(t *testing.T) {
		cfg := testConfig(t)

		store, err := initStorage(context.Background(), cfg, discardLogger())
		require.NoError(t, err)
		assert.IsType(t, &storage.LocalStorage{}, store)
	})

	t.Run("S3 when bucket and region are set", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.S3Bucket = "bucket"
		cfg.S3Region = "us-east-1"
		cfg.S3Endpoint = "http://localhost:9000"
		cfg.AWSAccessKeyID = "key"
		cfg.AWSSecretAccessKey = "secret"

		store, err := initStorage(context.Background(), cfg, discardLogger())
		require.NoError(t, err)
		assert.IsType(t, &storage.S3Storage{}, store)
	})
}
