package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available.
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping test")
	}
}

// fakeFFmpeg writes a shell script standing in for ffmpeg. It records its
// arguments to args.txt, writes "trimmed" to its last argument and exits
// with code.
func fakeFFmpeg(t *testing.T, code int) (path, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}

	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args.txt")
	script := fmt.Sprintf(`#!/bin/sh
printf '%%s\n' "$@" > %q
for last; do :; done
printf trimmed > "$last"
echo "fake ffmpeg stderr" >&2
exit %d
`, argsFile, code)

	path = filepath.Join(dir, "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte(script), 0700)) // #nosec G306 - test helper must be executable
	return path, argsFile
}

// failingFFmpeg writes a script that exits with code without touching any file.
func failingFFmpeg(t *testing.T, code int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := fmt.Sprintf("#!/bin/sh\necho \"input not readable\" >&2\nexit %d\n", code)
	require.NoError(t, os.WriteFile(path, []byte(script), 0700)) // #nosec G306 - test helper must be executable
	return path
}

// createTestAudio creates a short sine tone using ffmpeg.
func createTestAudio(t *testing.T, path string, duration float64) {
	t.Helper()

	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=440:duration=%.1f", duration),
		path,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test audio: %v\noutput: %s", err, output)
	}
}

func TestNewFFmpegTrimmer(t *testing.T) {
	t.Run("default path", func(t *testing.T) {
		tr := NewFFmpegTrimmer("")
		assert.Equal(t, "ffmpeg", tr.ffmpegPath)
	})

	t.Run("custom path", func(t *testing.T) {
		tr := NewFFmpegTrimmer("/usr/local/bin/ffmpeg")
		assert.Equal(t, "/usr/local/bin/ffmpeg", tr.ffmpegPath)
	})
}

func TestTrimArgs(t *testing.T) {
	t.Run("bounded range", func(t *testing.T) {
		args := trimArgs(TrimRequest{Input: "in.opus", Output: "out.opus", StartSeconds: 4.5, EndSeconds: 6, HasEnd: true})
		assert.Equal(t, []string{
			"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
			"-i", "in.opus",
			"-ss", "4.500",
			"-to", "6.000",
			"-c", "copy",
			"out.opus",
		}, args)
	})

	t.Run("open-ended range omits -to", func(t *testing.T) {
		args := trimArgs(TrimRequest{Input: "in.opus", Output: "out.opus", StartSeconds: 119.5, EndSeconds: 3600})
		assert.NotContains(t, args, "-to")
		assert.Contains(t, strings.Join(args, " "), "-ss 119.500")
		assert.Equal(t, "out.opus", args[len(args)-1])
	})
}

func TestTrim_Validation(t *testing.T) {
	tr := NewFFmpegTrimmer("/nonexistent/ffmpeg")
	ctx := context.Background()

	tests := []struct {
		name string
		req  TrimRequest
		want error
	}{
		{"same path", TrimRequest{Input: "a.opus", Output: "./a.opus"}, ErrSameInputOutput},
		{"negative start", TrimRequest{Input: "a.opus", Output: "b.opus", StartSeconds: -1}, ErrInvalidRange},
		{"end before start", TrimRequest{Input: "a.opus", Output: "b.opus", StartSeconds: 5, EndSeconds: 4, HasEnd: true}, ErrInvalidRange},
		{"empty range", TrimRequest{Input: "a.opus", Output: "b.opus", StartSeconds: 5, EndSeconds: 5, HasEnd: true}, ErrInvalidRange},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tr.Trim(ctx, tc.req), tc.want)
		})
	}
}

func TestTrim_FakeFFmpeg(t *testing.T) {
	t.Run("success writes output and passes args", func(t *testing.T) {
		bin, argsFile := fakeFFmpeg(t, 0)
		out := filepath.Join(t.TempDir(), "out.opus")

		err := NewFFmpegTrimmer(bin).Trim(context.Background(), TrimRequest{
			Input: "in.opus", Output: out, StartSeconds: 1, EndSeconds: 2, HasEnd: true,
		})
		require.NoError(t, err)

		content, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "trimmed", string(content))

		recorded, err := os.ReadFile(argsFile)
		require.NoError(t, err)
		assert.Equal(t, strings.Join(trimArgs(TrimRequest{
			Input: "in.opus", Output: out, StartSeconds: 1, EndSeconds: 2, HasEnd: true,
		}), "\n")+"\n", string(recorded))
	})

	t.Run("failure removes partial output", func(t *testing.T) {
		bin, _ := fakeFFmpeg(t, 3)
		out := filepath.Join(t.TempDir(), "out.opus")

		err := NewFFmpegTrimmer(bin).Trim(context.Background(), TrimRequest{Input: "in.opus", Output: out, StartSeconds: 1})
		require.Error(t, err)

		var ffErr *FFmpegError
		require.True(t, errors.As(err, &ffErr))
		assert.Equal(t, 3, ffErr.ExitCode())
		assert.Contains(t, ffErr.Stderr, "fake ffmpeg stderr")
		assert.Contains(t, ffErr.Error(), "ffmpeg error")

		_, statErr := os.Stat(out)
		assert.True(t, os.IsNotExist(statErr), "partial output must be removed")
	})

	t.Run("failure before writing keeps an existing output", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "keep.opus")
		require.NoError(t, os.WriteFile(out, []byte("user data"), 0600))

		err := NewFFmpegTrimmer(failingFFmpeg(t, 1)).Trim(context.Background(), TrimRequest{Input: "in.opus", Output: out, StartSeconds: 1})
		require.Error(t, err)

		content, readErr := os.ReadFile(out)
		require.NoError(t, readErr, "an output file ffmpeg never wrote must survive")
		assert.Equal(t, "user data", string(content))
	})

	t.Run("failure after overwriting removes the existing output", func(t *testing.T) {
		bin, _ := fakeFFmpeg(t, 3)
		out := filepath.Join(t.TempDir(), "overwritten.opus")
		require.NoError(t, os.WriteFile(out, []byte("user data"), 0600))

		err := NewFFmpegTrimmer(bin).Trim(context.Background(), TrimRequest{Input: "in.opus", Output: out, StartSeconds: 1})
		require.Error(t, err)

		_, statErr := os.Stat(out)
		assert.True(t, os.IsNotExist(statErr), "a partially rewritten output must be removed")
	})

	t.Run("missing binary", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.opus")
		err := NewFFmpegTrimmer(filepath.Join(t.TempDir(), "no-ffmpeg")).Trim(context.Background(), TrimRequest{Input: "in.opus", Output: out})

		var ffErr *FFmpegError
		require.True(t, errors.As(err, &ffErr))
		assert.Equal(t, -1, ffErr.ExitCode())
	})

	t.Run("cancelled context", func(t *testing.T) {
		bin, _ := fakeFFmpeg(t, 0)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewFFmpegTrimmer(bin).Trim(ctx, TrimRequest{Input: "in.opus", Output: filepath.Join(t.TempDir(), "o.opus")})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTrim_RealFFmpeg(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	in := filepath.Join(dir, "tone.wav")
	out := filepath.Join(dir, "tone_trimmed.wav")
	createTestAudio(t, in, 3)

	err := NewFFmpegTrimmer("").Trim(context.Background(), TrimRequest{
		Input: in, Output: out, StartSeconds: 0.5, EndSeconds: 2, HasEnd: true,
	})
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
