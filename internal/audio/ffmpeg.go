package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrFFprobeExecution is returned when the channel count cannot be read.
var ErrFFprobeExecution = errors.New("audio: ffprobe execution failed")

// FFmpegDecoder implements Decoder using the ffmpeg CLI. Any container and
// codec ffmpeg understands is accepted.
type FFmpegDecoder struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpegDecoder creates a new FFmpegDecoder.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found in PATH). ffprobe
// is looked up next to ffmpeg.
func NewFFmpegDecoder(ffmpegPath string) *FFmpegDecoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegDecoder{ffmpegPath: ffmpegPath, ffprobePath: siblingFFprobe(ffmpegPath)}
}

// siblingFFprobe returns the ffprobe binary installed alongside ffmpegPath.
func siblingFFprobe(ffmpegPath string) string {
	dir := filepath.Dir(ffmpegPath)
	if dir == "." && !strings.ContainsRune(ffmpegPath, filepath.Separator) {
		return "ffprobe"
	}
	return filepath.Join(dir, "ffprobe")
}

// Decode implements Decoder.Decode by piping raw little-endian float32 PCM
// out of ffmpeg.
func (d *FFmpegDecoder) Decode(ctx context.Context, path string, splitStereo bool) (*Samples, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}

	channels := 1
	if splitStereo {
		// ffmpeg would upmix a mono source into two identical channels.
		n, err := d.channelCount(ctx, path)
		if err != nil {
			return nil, err
		}
		if n == 2 {
			channels = 2
		}
	}

	raw, err := d.pcm(ctx, path, channels)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrEmptyAudio
	}

	if channels == 1 {
		return &Samples{Mono: raw}, nil
	}
	mono, split := deinterleave(raw)
	return &Samples{Mono: mono, Channels: split}, nil
}

// pcm runs ffmpeg and returns its f32le output decoded to floats.
func (d *FFmpegDecoder) pcm(ctx context.Context, path string, channels int) ([]float32, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-i", path,
		"-vn",
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(SampleRate),
		"-",
	}

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, d.ffmpegPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("ffmpeg error: %w, stderr: %s", err, stderr.String())
	}

	return float32sFromLE(stdout.Bytes()), nil
}

// channelCount returns the number of channels of the first audio stream.
func (d *FFmpegDecoder) channelCount(ctx context.Context, path string) (int, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, d.ffprobePath,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=channels",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	n, err := strconv.Atoi(strings.TrimSpace(stdout.String()))
	if err != nil {
		return 0, fmt.Errorf("%w: parse channels %q: %w", ErrFFprobeExecution, stdout.String(), err)
	}
	return n, nil
}

// float32sFromLE decodes little-endian float32 samples, dropping a trailing
// partial sample.
func float32sFromLE(data []byte) []float32 {
	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return samples
}

// Verify interface implementation at compile time.
var _ Decoder = (*FFmpegDecoder)(nil)
