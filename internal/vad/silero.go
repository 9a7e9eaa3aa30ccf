//go:build silero

package vad

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/streamer45/silero-vad-go/speech"
)

// SileroAvailable reports whether the Silero engine was compiled in.
const SileroAvailable = true

const (
	defaultSileroThreshold = 0.5
	// sileroWindow is the smallest buffer the model can classify at 16 kHz.
	sileroWindow = 512
)

// Silero wraps a Silero VAD detector. The ONNX runtime is loaded once per
// oracle and reset before every Detect call so chunks are classified
// independently.
type Silero struct {
	detector *speech.Detector
	logger   *slog.Logger
}

// NewSilero loads the model at cfg.ModelPath, or DefaultModelPath when unset.
func NewSilero(cfg Config) (*Silero, error) {
	if cfg.ModelPath == "" {
		cfg.ModelPath = DefaultModelPath
	}
	if err := checkModel(cfg.ModelPath); err != nil {
		return nil, err
	}

	threshold := cfg.Threshold
	if threshold <= 0 || threshold >= 1 {
		threshold = defaultSileroThreshold
	}
	minSilence := cfg.MinSilenceMs
	if minSilence <= 0 {
		minSilence = defaultMinSilenceMs
	}

	logger := engineLogger(cfg)
	detector, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:            cfg.ModelPath,
		SampleRate:           SampleRate,
		Threshold:            threshold,
		MinSilenceDurationMs: minSilence,
		SpeechPadMs:          cfg.SpeechPadMs,
		LogLevel:             sileroLogLevel(cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("vad: create silero detector: %w", err)
	}

	// The detector runs its ONNX session single-threaded; the hint is recorded only.
	logger.Debug("silero oracle initialized",
		slog.String("model", cfg.ModelPath),
		slog.Int("threads_hint", cfg.Threads),
		slog.Float64("threshold", float64(threshold)),
	)
	return &Silero{detector: detector, logger: logger}, nil
}

// sileroLogLevel maps a slog level onto the ONNX runtime's log severity.
func sileroLogLevel(level slog.Level) speech.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return speech.LevelVerbose
	case level <= slog.LevelInfo:
		return speech.LogLevelInfo
	case level <= slog.LevelWarn:
		return speech.LogLevelWarn
	default:
		return speech.LogLevelError
	}
}

// Detect implements Oracle.
func (s *Silero) Detect(samples []float32) (*Segments, error) {
	if len(samples) < sileroWindow {
		return NewSegments(nil, nil), nil
	}
	if err := s.detector.Reset(); err != nil {
		return nil, fmt.Errorf("vad: reset silero detector: %w", err)
	}

	segments, err := s.detector.Detect(samples)
	if err != nil {
		return nil, fmt.Errorf("vad: silero detect: %w", err)
	}

	limit := int(math.Ceil(float64(len(samples)) / SamplesPerCentisecond))
	intervals := make([]Interval, 0, len(segments))
	for _, seg := range segments {
		iv := Interval{T0: int(math.Floor(seg.SpeechStartAt * 100))}
		if seg.SpeechEndAt == 0 {
			// Speech still running when the buffer ended.
			iv.T1 = limit
		} else {
			iv.T1 = int(math.Ceil(seg.SpeechEndAt * 100))
		}
		iv.T0 = max(0, iv.T0)
		iv.T1 = min(limit, iv.T1)
		if iv.T1 <= iv.T0 {
			continue
		}
		if n := len(intervals); n > 0 && iv.T0 < intervals[n-1].T1 {
			intervals[n-1].T1 = max(intervals[n-1].T1, iv.T1)
			continue
		}
		intervals = append(intervals, iv)
	}

	s.logger.Debug("silero detect",
		slog.Int("samples", len(samples)),
		slog.Int("intervals", len(intervals)),
	)
	return NewSegments(intervals, nil), nil
}

// Close implements Oracle.
func (s *Silero) Close() error {
	if err := s.detector.Destroy(); err != nil {
		return fmt.Errorf("vad: destroy silero detector: %w", err)
	}
	return nil
}

var _ Oracle = (*Silero)(nil)
