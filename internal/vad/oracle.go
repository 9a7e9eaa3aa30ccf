// Package vad provides the voice-activity oracle used to locate speech in
// mono 16 kHz float PCM. An Oracle turns a buffer of samples into an ordered
// list of disjoint speech intervals expressed in centiseconds.
package vad

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// DefaultModelPath is the Silero model loaded when no path is configured.
const DefaultModelPath = "silero_vad.onnx"

// SampleRate is the only sample rate accepted by oracles.
const SampleRate = 16000

// SamplesPerCentisecond is the number of samples in one interval unit.
const SamplesPerCentisecond = SampleRate / 100

// Engine names an oracle implementation.
type Engine string

const (
	// EngineAuto selects silero when compiled in and energy otherwise.
	EngineAuto Engine = "auto"
	// EngineEnergy is the pure Go RMS detector.
	EngineEnergy Engine = "energy"
	// EngineSilero is the Silero neural detector (requires -tags silero).
	EngineSilero Engine = "silero"
)

// Static errors for oracle initialization and detection.
var (
	// ErrEngineUnavailable is returned when the requested engine was not compiled in.
	ErrEngineUnavailable = errors.New("vad: engine not available in this build")
	// ErrUnknownEngine is returned for engine names outside the supported set.
	ErrUnknownEngine = errors.New("vad: unknown engine")
	// ErrModelNotFound is returned when the configured model file cannot be read.
	ErrModelNotFound = errors.New("vad: model not found")
	// ErrReleased is returned when a released Segments value is read.
	ErrReleased = errors.New("vad: segments already released")
)

// Interval is a speech interval [T0, T1) in centiseconds relative to the
// start of the buffer passed to Detect.
type Interval struct {
	T0 int
	T1 int
}

// StartSeconds returns T0 in seconds.
func (iv Interval) StartSeconds() float64 { return float64(iv.T0) * 0.01 }

// EndSeconds returns T1 in seconds.
func (iv Interval) EndSeconds() float64 { return float64(iv.T1) * 0.01 }

func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d)cs", iv.T0, iv.T1)
}

// Segments is the result of one Detect call. It must be released by the
// caller once the needed fields have been read.
type Segments struct {
	intervals []Interval
	release   func()
	released  bool
}

// NewSegments wraps intervals in a Segments value. The optional release hook
// runs exactly once, on the first call to Release.
func NewSegments(intervals []Interval, release func()) *Segments {
	return &Segments{intervals: intervals, release: release}
}

// Len returns the number of intervals. A nil or released Segments has none.
func (s *Segments) Len() int {
	if s == nil || s.released {
		return 0
	}
	return len(s.intervals)
}

// At returns the i-th interval in chronological order.
func (s *Segments) At(i int) Interval {
	return s.intervals[i]
}

// First returns the earliest interval and false when there is none.
func (s *Segments) First() (Interval, bool) {
	if s.Len() == 0 {
		return Interval{}, false
	}
	return s.intervals[0], true
}

// Last returns the latest interval and false when there is none.
func (s *Segments) Last() (Interval, bool) {
	if s.Len() == 0 {
		return Interval{}, false
	}
	return s.intervals[len(s.intervals)-1], true
}

// Intervals returns a copy of the intervals.
func (s *Segments) Intervals() ([]Interval, error) {
	if s != nil && s.released {
		return nil, ErrReleased
	}
	out := make([]Interval, s.Len())
	if s != nil {
		copy(out, s.intervals)
	}
	return out, nil
}

// Release frees the result. It is safe to call more than once and on nil.
func (s *Segments) Release() {
	if s == nil || s.released {
		return
	}
	s.released = true
	if s.release != nil {
		s.release()
	}
	s.intervals = nil
}

// Oracle classifies buffers of mono 16 kHz samples. Implementations are not
// required to be safe for concurrent use.
type Oracle interface {
	// Detect returns the speech intervals found in samples, in chronological
	// order, non-overlapping, with T0 < T1. An empty result is not an error.
	Detect(samples []float32) (*Segments, error)

	// Close releases the loaded model.
	Close() error
}

// Config configures oracle initialization.
type Config struct {
	// Engine selects the implementation.
	Engine Engine
	// ModelPath is the model file used by model-backed engines. Empty selects
	// DefaultModelPath. A non-empty path must exist whatever the engine, and
	// with EngineAuto it requires the silero engine.
	ModelPath string
	// Threads is a hint for the engine's numeric kernels.
	Threads int
	// Threshold is the speech probability (silero) or RMS level (energy)
	// above which a frame is considered speech. Zero selects the engine default.
	Threshold float32
	// MinSilenceMs is the silence that must elapse before an interval ends.
	// Zero selects the engine default.
	MinSilenceMs int
	// SpeechPadMs pads each interval inside the engine. Zero means no padding.
	SpeechPadMs int
	// LogLevel limits engine diagnostics; only records at or above it are emitted.
	LogLevel slog.Level
	// Logger receives engine diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// ParseEngine converts a configuration string to an Engine.
func ParseEngine(s string) (Engine, error) {
	switch e := Engine(strings.ToLower(strings.TrimSpace(s))); e {
	case "", EngineAuto:
		return EngineAuto, nil
	case EngineEnergy, EngineSilero:
		return e, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEngine, s)
	}
}

// New initializes the oracle selected by cfg.Engine. EngineAuto resolves to
// silero when it is compiled in or an explicit model path is given, and to
// energy otherwise.
func New(cfg Config) (Oracle, error) {
	engine, err := ParseEngine(string(cfg.Engine))
	if err != nil {
		return nil, err
	}
	if engine == EngineAuto {
		engine = EngineEnergy
		if SileroAvailable || cfg.ModelPath != "" {
			engine = EngineSilero
		}
	}
	if engine == EngineSilero && !SileroAvailable {
		if cfg.ModelPath != "" {
			return nil, fmt.Errorf("%w: model %s needs the silero engine", ErrEngineUnavailable, cfg.ModelPath)
		}
		return nil, ErrEngineUnavailable
	}
	if cfg.ModelPath != "" {
		if err := checkModel(cfg.ModelPath); err != nil {
			return nil, err
		}
	}

	switch engine {
	case EngineSilero:
		o, err := NewSilero(cfg)
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		return NewEnergy(cfg), nil
	}
}

// checkModel reports an ErrModelNotFound unless path names a readable regular file.
func checkModel(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrModelNotFound, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrModelNotFound, path)
	}
	return nil
}

// engineLogger returns a logger that drops records below cfg.LogLevel.
func engineLogger(cfg Config) *slog.Logger {
	base := cfg.Logger
	if base == nil {
		base = slog.Default()
	}
	return slog.New(&levelHandler{level: cfg.LogLevel, handler: base.Handler()})
}
