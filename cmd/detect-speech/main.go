// Package main provides the detect-speech command: it finds where speech
// starts and ends in an audio file and trims the silence around it without
// re-encoding.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maauso/detect-speech/internal/bootstrap"
	"github.com/maauso/detect-speech/internal/boundary"
	"github.com/maauso/detect-speech/internal/config"
	"github.com/maauso/detect-speech/internal/run"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// cliOptions collects the flag values of one invocation.
type cliOptions struct {
	// output is empty when the input is replaced in place.
	output      string
	trimStart   bool
	trimEnd     bool
	model       string
	threads     int
	engine      string
	chunkSec    int
	splitStereo bool
	dryRun      bool
	upload      bool
}

// outputValue backs --output. Setting it turns off in-place replacement.
type outputValue struct{ opts *cliOptions }

func (v outputValue) String() string { return v.opts.output }
func (v outputValue) Type() string   { return "file" }

func (v outputValue) Set(s string) error {
	if s == "" {
		return errors.New("output path must not be empty")
	}
	v.opts.output = s
	return nil
}

// replaceValue backs --replace. Flags are applied in command-line order, so
// whichever of --output and --replace comes last decides.
type replaceValue struct{ opts *cliOptions }

func (v replaceValue) String() string { return strconv.FormatBool(v.opts.output == "") }
func (v replaceValue) Type() string   { return "bool" }

func (v replaceValue) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if on {
		v.opts.output = ""
	}
	return nil
}

func newRootCmd() *cobra.Command {
	cmd, _ := newRootCmdWithOptions()
	return cmd
}

func newRootCmdWithOptions() (*cobra.Command, *cliOptions) {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:   "detect-speech <audio_file>",
		Short: "Trim leading and trailing silence from an audio file",
		Long: `detect-speech finds the first and last speech in an audio file with a
voice activity detector, pads both edges by half a second and cuts the file
with ffmpeg in stream-copy mode. By default the input is replaced in place.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return fmt.Errorf("%w: %w", run.ErrUsage, err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, args[0], opts)
		},
	}
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w\n%s", run.ErrUsage, err, cmd.UsageString())
	})

	flags := cmd.Flags()
	flags.Var(outputValue{opts}, "output", "write the trimmed audio to `file` instead of replacing the input")
	replace := flags.VarPF(replaceValue{opts}, "replace", "i", "replace the input file in place (default)")
	replace.NoOptDefVal = "true"
	flags.BoolVarP(&opts.trimStart, "trim-start", "s", false, "trim silence before the speech")
	flags.BoolVarP(&opts.trimEnd, "trim-end", "e", false, "trim silence after the speech")
	flags.StringVar(&opts.model, "model", "", "voice activity model `file` (overrides DETECT_SPEECH_MODEL)")
	flags.IntVarP(&opts.threads, "threads", "t", 0, "thread hint for the detector (overrides DETECT_SPEECH_THREADS)")
	flags.StringVar(&opts.engine, "engine", "", "detector engine: auto, energy or silero (overrides DETECT_SPEECH_ENGINE)")
	flags.IntVar(&opts.chunkSec, "chunk-sec", 0, "scan window length in seconds (overrides DETECT_SPEECH_CHUNK_SEC)")
	flags.BoolVar(&opts.splitStereo, "split-stereo", false, "decode stereo inputs per channel as well")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "report the detected range without cutting")
	flags.BoolVar(&opts.upload, "upload", false, "publish the trimmed file to S3 (requires S3_BUCKET and S3_REGION)")

	return cmd, opts
}

func execute(cmd *cobra.Command, path string, opts *cliOptions) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", run.ErrUsage, err)
	}
	applyOverrides(cmd, cfg, opts)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", run.ErrUsage, err)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)
	logger.Debug("starting detect-speech", slog.String("config", cfg.String()))

	deps, err := bootstrap.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	report, err := deps.Service.Process(ctx, run.Input{
		Path:        path,
		Output:      opts.output,
		TrimStart:   opts.trimStart,
		TrimEnd:     opts.trimEnd,
		SplitStereo: opts.splitStereo,
		DryRun:      opts.dryRun,
		Upload:      opts.upload,
	})
	printReport(cmd.ErrOrStderr(), report)

	if cfg.MetricsFile != "" {
		if merr := deps.Metrics.WriteTextfile(cfg.MetricsFile); merr != nil {
			logger.Warn("failed to write metrics",
				slog.String("path", cfg.MetricsFile),
				slog.String("error", merr.Error()),
			)
		}
	}

	return err
}

// applyOverrides copies explicitly set flags over environment values.
func applyOverrides(cmd *cobra.Command, cfg *config.Config, opts *cliOptions) {
	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.ModelPath = opts.model
	}
	if flags.Changed("threads") {
		cfg.Threads = opts.threads
	}
	if flags.Changed("engine") {
		cfg.Engine = opts.engine
	}
	if flags.Changed("chunk-sec") {
		cfg.ChunkSec = opts.chunkSec
	}
}

func printReport(w io.Writer, report *run.Report) {
	if report == nil {
		return
	}
	res := report.Result

	if res.SpeechFound {
		if res.TrimsEnd() {
			fmt.Fprintf(w, "Detected speech from %s to %s.\n",
				boundary.FormatTimestamp(res.StartSeconds), boundary.FormatTimestamp(res.EndSeconds))
		} else {
			fmt.Fprintf(w, "Detected speech from %s.\n", boundary.FormatTimestamp(res.StartSeconds))
		}
	}

	switch report.Outcome {
	case run.OutcomeNoSpeech:
		fmt.Fprintln(w, "No speech detected.")
	case run.OutcomeNoSignificantSilence:
		fmt.Fprintln(w, "No significant silence to trim.")
	case run.OutcomeTrimmed:
		fmt.Fprintf(w, "Wrote %s.\n", report.Written)
	}
	if report.URL != "" {
		fmt.Fprintf(w, "Uploaded to %s.\n", report.URL)
	}
}
