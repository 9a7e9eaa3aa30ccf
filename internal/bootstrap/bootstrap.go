// Package bootstrap provides dependency initialization for detect-speech.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maauso/detect-speech/internal/audio"
	"github.com/maauso/detect-speech/internal/config"
	"github.com/maauso/detect-speech/internal/media"
	"github.com/maauso/detect-speech/internal/metrics"
	"github.com/maauso/detect-speech/internal/run"
	"github.com/maauso/detect-speech/internal/storage"
	"github.com/maauso/detect-speech/internal/vad"
)

// Dependencies holds all initialized dependencies for one invocation.
type Dependencies struct {
	Service *run.Service
	Metrics *metrics.Metrics
}

// NewDependencies creates and initializes all dependencies for the application.
// cfg must already be validated.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	// Initialize storage
	store, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	engine, err := vad.ParseEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}
	vadCfg := vad.Config{
		Engine:    engine,
		ModelPath: cfg.ModelPath,
		Threads:   cfg.Threads,
		LogLevel:  config.ParseLogLevel(cfg.LogLevel),
		Logger:    logger,
	}
	newOracle := func() (vad.Oracle, error) {
		return vad.New(vadCfg)
	}

	// Decoding and cutting both shell out to ffmpeg
	decoder := audio.NewAutoDecoder(audio.NewFFmpegDecoder(cfg.FFmpegPath), logger)
	trimmer := media.NewFFmpegTrimmer(cfg.FFmpegPath)

	m := metrics.NewMetrics()

	svc := run.NewService(
		decoder,
		newOracle,
		trimmer,
		store,
		logger,
		run.WithChunkSeconds(cfg.ChunkSec),
		run.WithPadding(cfg.PaddingSec),
		run.WithWholeBufferSeconds(cfg.WholeBufferSec),
		run.WithMetrics(m),
	)

	return &Dependencies{
		Service: svc,
		Metrics: m,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(ctx, cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Debug("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Debug("local storage configured",
		slog.String("temp_dir", localStore.TempDir()),
	)
	return localStore, nil
}
