// Package run provides the trimming pipeline: decode, locate speech, resolve
// edit points, cut, and move the result into place.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/maauso/detect-speech/internal/audio"
	"github.com/maauso/detect-speech/internal/boundary"
	"github.com/maauso/detect-speech/internal/media"
	"github.com/maauso/detect-speech/internal/metrics"
	"github.com/maauso/detect-speech/internal/run/id"
	"github.com/maauso/detect-speech/internal/storage"
	"github.com/maauso/detect-speech/internal/vad"
)

// Input contains the parameters for one run.
type Input struct {
	// Path is the media file to trim.
	Path string
	// Output is where the trimmed file is written. Empty means the input is
	// replaced in place through a temporary file.
	Output string
	// TrimStart and TrimEnd select the edges to cut. When neither is set
	// both are trimmed.
	TrimStart bool
	TrimEnd   bool
	// SplitStereo asks the decoder for per-channel buffers.
	SplitStereo bool
	// DryRun resolves edit points without cutting.
	DryRun bool
	// Upload publishes the written file to object storage.
	Upload bool
}

// Replace reports whether the input is overwritten.
func (in Input) Replace() bool {
	return in.Output == ""
}

// Report is the result of a run.
type Report struct {
	RunID   string
	Outcome Outcome
	// Result holds the resolved edit points.
	Result boundary.Result
	// Raw holds the unpadded edges and the oracle call count.
	Raw boundary.Raw
	// Written is the file that holds the trimmed audio. After a replace
	// failure it is the retained temporary file.
	Written string
	// URL is set when the trimmed file was published.
	URL string
}

// OracleFactory creates the oracle for one run.
type OracleFactory func() (vad.Oracle, error)

// Service coordinates decoding, detection and cutting.
type Service struct {
	decoder   audio.Decoder
	newOracle OracleFactory
	trimmer   media.Trimmer
	store     storage.Storage
	metrics   *metrics.Metrics
	logger    *slog.Logger

	chunkSamples   int
	padding        float64
	wholeBufferSec float64
	replace        func(src, dst string) error
}

// Option configures a Service.
type Option func(*Service)

// WithChunkSeconds sets the scan window length. Values below one are ignored.
func WithChunkSeconds(sec int) Option {
	return func(s *Service) {
		if sec >= 1 {
			s.chunkSamples = sec * boundary.SampleRate
		}
	}
}

// WithPadding sets the guard band added outside detected speech.
func WithPadding(sec float64) Option {
	return func(s *Service) {
		if sec >= 0 {
			s.padding = sec
		}
	}
}

// WithWholeBufferSeconds scans inputs no longer than sec with a single
// oracle call. Zero always scans in chunks.
func WithWholeBufferSeconds(sec float64) Option {
	return func(s *Service) {
		if sec >= 0 {
			s.wholeBufferSec = sec
		}
	}
}

// WithMetrics records the run into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService creates a Service. A nil logger uses slog.Default().
func NewService(
	decoder audio.Decoder,
	newOracle OracleFactory,
	trimmer media.Trimmer,
	store storage.Storage,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		decoder:      decoder,
		newOracle:    newOracle,
		trimmer:      trimmer,
		store:        store,
		metrics:      metrics.NewMetrics(),
		logger:       logger,
		chunkSamples: boundary.DefaultChunkSamples,
		padding:      boundary.DefaultPadding,
		replace:      media.Replace,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Metrics returns the metrics the service records into.
func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// Process runs the whole pipeline once.
//
// The workflow:
//  1. Decode the input into mono 16 kHz samples
//  2. Load the oracle
//  3. Scan for the speech onset and offset
//  4. Resolve padded edit points
//  5. Cut into the output or a temporary file
//  6. Move the temporary file over the input when replacing
//  7. Optionally publish the written file
func (s *Service) Process(ctx context.Context, in Input) (report *Report, err error) {
	report = &Report{RunID: id.Generate()}
	logger := s.logger.With(slog.String("run_id", report.RunID))

	defer func() {
		outcome := report.Outcome
		if err != nil {
			outcome = OutcomeFailed
		}
		s.metrics.Outcomes.WithLabelValues(string(outcome)).Inc()
	}()

	if err := validateInput(in); err != nil {
		return report, err
	}
	if !in.TrimStart && !in.TrimEnd {
		in.TrimStart, in.TrimEnd = true, true
	}

	logger.Info("processing",
		slog.String("input", in.Path),
		slog.String("output", in.Output),
		slog.Bool("trim_start", in.TrimStart),
		slog.Bool("trim_end", in.TrimEnd),
		slog.Bool("dry_run", in.DryRun),
	)

	oracle, err := s.newOracle()
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrOracleInit, err)
	}
	defer func() {
		if cerr := oracle.Close(); cerr != nil {
			logger.Warn("failed to release oracle", slog.String("error", cerr.Error()))
		}
	}()

	samples, err := s.decode(ctx, logger, in)
	if err != nil {
		return report, err
	}

	opts := boundary.Options{
		ScanStart:    in.TrimStart,
		ScanEnd:      in.TrimEnd,
		ChunkSamples: s.chunkSamples,
	}
	raw, err := s.scan(logger, samples, oracle, opts)
	report.Raw = raw
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrDetect, err)
	}

	total := samples.Duration()
	res := boundary.Resolve(raw, boundary.ResolveOptions{Options: opts, Padding: s.padding}, total)
	report.Result = res

	switch {
	case !res.SpeechFound:
		report.Outcome = OutcomeNoSpeech
		logger.Warn("no speech detected", slog.String("input", in.Path))
		return report, nil
	case !res.Significant:
		report.Outcome = OutcomeNoSignificantSilence
		logger.Info("no significant silence to trim", slog.String("range", res.String()))
		return report, nil
	case in.DryRun:
		report.Outcome = OutcomeDryRun
		return report, nil
	}

	if err := s.cut(ctx, logger, in, res, report); err != nil {
		return report, err
	}
	report.Outcome = OutcomeTrimmed

	if in.Upload {
		url, err := s.publish(ctx, report)
		if err != nil {
			return report, err
		}
		report.URL = url
		logger.Info("published trimmed file", slog.String("url", url))
	}

	return report, nil
}

func validateInput(in Input) error {
	if in.Path == "" {
		return fmt.Errorf("%w: missing input file", ErrUsage)
	}
	if in.Output == "" {
		return nil
	}
	src, err := filepath.Abs(in.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	dst, err := filepath.Abs(in.Output)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if src == dst {
		return fmt.Errorf("%w: output must differ from input (omit --output to replace in place)", ErrUsage)
	}
	return nil
}

func (s *Service) decode(ctx context.Context, logger *slog.Logger, in Input) (*audio.Samples, error) {
	started := time.Now()
	samples, err := s.decoder.Decode(ctx, in.Path, in.SplitStereo)
	s.metrics.DecodeDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	s.metrics.AudioSeconds.Set(samples.Duration())
	logger.Debug("decoded input",
		slog.Int("samples", len(samples.Mono)),
		slog.Float64("seconds", samples.Duration()),
		slog.Int("channels", len(samples.Channels)),
		slog.Duration("elapsed", time.Since(started)),
	)
	return samples, nil
}

func (s *Service) scan(logger *slog.Logger, samples *audio.Samples, oracle vad.Oracle, opts boundary.Options) (boundary.Raw, error) {
	started := time.Now()
	whole := s.wholeBufferSec > 0 && samples.Duration() <= s.wholeBufferSec

	var raw boundary.Raw
	var err error
	if whole {
		raw, err = boundary.ScanWhole(samples.Mono, oracle, opts)
		s.metrics.ObserveWholeScan(time.Since(started))
	} else {
		raw, err = boundary.Scan(samples.Mono, oracle, opts)
		s.metrics.ObserveScan(raw.Onset.Visited, raw.Offset.Visited, time.Since(started))
	}
	s.metrics.OracleCalls.Add(float64(raw.OracleCalls))
	if err != nil {
		s.metrics.OracleErrors.Inc()
		return raw, err
	}

	logger.Debug("scan finished",
		slog.Bool("whole_buffer", whole),
		slog.Int("oracle_calls", raw.OracleCalls),
		slog.Bool("onset_found", raw.Onset.Found),
		slog.Float64("onset", raw.Onset.Seconds),
		slog.Bool("offset_found", raw.Offset.Found),
		slog.Float64("offset", raw.Offset.Seconds),
	)
	return raw, nil
}

// cut writes the kept range and, when replacing, moves it over the input.
func (s *Service) cut(ctx context.Context, logger *slog.Logger, in Input, res boundary.Result, report *Report) error {
	target := in.Output
	if in.Replace() {
		tmp, err := s.store.TempOutput(ctx, in.Path)
		if err != nil {
			return fmt.Errorf("allocate temporary output: %w", err)
		}
		target = tmp
	}

	req := media.TrimRequest{
		Input:        in.Path,
		Output:       target,
		StartSeconds: res.StartSeconds,
		EndSeconds:   res.EndSeconds,
		HasEnd:       res.TrimsEnd(),
	}

	started := time.Now()
	if err := s.trimmer.Trim(ctx, req); err != nil {
		if in.Replace() {
			if cerr := s.store.Discard(target); cerr != nil {
				logger.Warn("failed to remove temporary output",
					slog.String("path", target),
					slog.String("error", cerr.Error()),
				)
			}
		}
		return fmt.Errorf("%w: %w", ErrSubprocess, err)
	}
	s.metrics.ObserveTrim(res.StartSeconds, res.TotalSeconds-res.EndSeconds, time.Since(started))

	if !in.Replace() {
		report.Written = target
		return nil
	}

	if err := s.replace(target, in.Path); err != nil {
		report.Written = target
		logger.Error("failed to replace input, trimmed output kept",
			slog.String("kept", target),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: trimmed output kept at %s: %w", ErrReplace, target, err)
	}
	report.Written = in.Path
	return nil
}

func (s *Service) publish(ctx context.Context, report *Report) (string, error) {
	f, err := os.Open(report.Written)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPublish, err)
	}
	defer f.Close()

	key := report.RunID + "/" + filepath.Base(report.Written)
	url, err := s.store.Publish(ctx, key, f)
	if err != nil {
		if errors.Is(err, storage.ErrS3NotConfigured) {
			return "", fmt.Errorf("%w: set S3_BUCKET and S3_REGION to upload: %w", ErrPublish, err)
		}
		return "", fmt.Errorf("%w: %w", ErrPublish, err)
	}
	s.metrics.Uploads.Inc()
	return url, nil
}
