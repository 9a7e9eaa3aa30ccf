// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// DotEnvFile is the optional environment file read from the working directory.
const DotEnvFile = ".env"

// Static errors for configuration loading and validation.
var (
	// ErrInvalidConfig is returned when a value is outside its allowed range.
	ErrInvalidConfig = errors.New("config: invalid configuration")
	// ErrDotEnv is returned when the .env file exists but cannot be parsed.
	ErrDotEnv = errors.New("config: cannot load .env file")
)

// Config holds all configuration for the tool.
type Config struct {
	// Detection settings
	ModelPath      string  `env:"DETECT_SPEECH_MODEL" json:"model_path"`
	Engine         string  `env:"DETECT_SPEECH_ENGINE, default=auto" json:"engine" validate:"oneof=auto energy silero"`
	Threads        int     `env:"DETECT_SPEECH_THREADS, default=4" json:"threads" validate:"min=1"`
	ChunkSec       int     `env:"DETECT_SPEECH_CHUNK_SEC, default=30" json:"chunk_sec" validate:"min=1"`
	PaddingSec     float64 `env:"DETECT_SPEECH_PADDING_SEC, default=0.5" json:"padding_sec" validate:"min=0"`
	WholeBufferSec float64 `env:"DETECT_SPEECH_WHOLE_BUFFER_SEC, default=0" json:"whole_buffer_sec" validate:"min=0"`

	// External tools and scratch space
	FFmpegPath string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	TempDir    string `env:"TEMP_DIR" json:"temp_dir,omitempty"`

	// Metrics textfile
	MetricsFile string `env:"METRICS_FILE" json:"metrics_file,omitempty"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format" validate:"oneof=text json"`
	LogLevel  string `env:"LOG_LEVEL, default=warn" json:"log_level" validate:"oneof=debug info warn warning error"`
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads the optional .env file and then the environment. Variables already
// present in the environment take precedence over .env entries.
func Load(ctx context.Context) (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrDotEnv, path, err)
}

// Validate checks option ranges. It is called after command-line overrides
// have been applied.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// NewLogger creates a structured logger writing to stderr.
// When LogFormat is "json", it outputs JSON logs suitable for collection.
// Otherwise, it outputs human-readable logs through charmbracelet/log.
func (c *Config) NewLogger() *slog.Logger {
	return c.newLogger(os.Stderr)
}

func (c *Config) newLogger(w io.Writer) *slog.Logger {
	level := ParseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(level),
			ReportTimestamp: true,
			Prefix:          "detect-speech",
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Engine: %s, ModelPath: %s, Threads: %d, ChunkSec: %d, PaddingSec: %g, WholeBufferSec: %g, FFmpegPath: %s, TempDir: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Engine,
		c.ModelPath,
		c.Threads,
		c.ChunkSec,
		c.PaddingSec,
		c.WholeBufferSec,
		c.FFmpegPath,
		c.TempDir,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// ParseLogLevel converts a string log level to slog.Level.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
