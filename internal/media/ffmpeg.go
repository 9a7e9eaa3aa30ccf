package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Static errors for trim operations.
var (
	// ErrSameInputOutput is returned when a cut would write over its own input.
	ErrSameInputOutput = errors.New("media: output path must differ from input path")
	// ErrInvalidRange is returned when the kept range is empty or negative.
	ErrInvalidRange = errors.New("media: invalid trim range")
)

// FFmpegTrimmer implements Trimmer using the ffmpeg CLI.
type FFmpegTrimmer struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
}

// NewFFmpegTrimmer creates a new FFmpegTrimmer.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegTrimmer(ffmpegPath string) *FFmpegTrimmer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegTrimmer{ffmpegPath: ffmpegPath}
}

// Trim implements Trimmer.Trim. Seeking happens after -i so the cut is
// accurate for stream copy.
func (t *FFmpegTrimmer) Trim(ctx context.Context, req TrimRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	before, _ := os.Stat(req.Output)

	if err := t.runFFmpeg(ctx, trimArgs(req)); err != nil {
		if !touchedBy(req.Output, before) {
			return err
		}
		if rmErr := os.Remove(req.Output); rmErr != nil && !os.IsNotExist(rmErr) {
			return errors.Join(err, fmt.Errorf("remove partial output: %w", rmErr))
		}
		return err
	}
	return nil
}

// touchedBy reports whether path was created or rewritten since before was
// taken. A nil before means the file did not exist.
func touchedBy(path string, before os.FileInfo) bool {
	after, err := os.Stat(path)
	if err != nil {
		return false
	}
	if before == nil {
		return true
	}
	return !os.SameFile(before, after) ||
		before.Size() != after.Size() ||
		!before.ModTime().Equal(after.ModTime())
}

func validate(req TrimRequest) error {
	in, err := filepath.Abs(req.Input)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	out, err := filepath.Abs(req.Output)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if in == out {
		return fmt.Errorf("%w: %s", ErrSameInputOutput, req.Output)
	}
	if req.StartSeconds < 0 || (req.HasEnd && req.EndSeconds <= req.StartSeconds) {
		return fmt.Errorf("%w: start=%.3f end=%.3f", ErrInvalidRange, req.StartSeconds, req.EndSeconds)
	}
	return nil
}

// trimArgs builds the ffmpeg argument list for req.
func trimArgs(req TrimRequest) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-y", // Overwrite output file
		"-i", req.Input,
		"-ss", fmt.Sprintf("%.3f", req.StartSeconds),
	}
	if req.HasEnd {
		args = append(args, "-to", fmt.Sprintf("%.3f", req.EndSeconds))
	}
	return append(args,
		"-c", "copy", // Copy streams without re-encoding
		req.Output,
	)
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (t *FFmpegTrimmer) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

// ExitCode returns the ffmpeg exit status, or -1 if it did not exit normally.
func (e *FFmpegError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Verify interface implementation at compile time.
var _ Trimmer = (*FFmpegTrimmer)(nil)
