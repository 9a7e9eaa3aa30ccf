package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDecoder struct {
	calls []string
}

func (r *recordingDecoder) Decode(_ context.Context, path string, _ bool) (*Samples, error) {
	r.calls = append(r.calls, path)
	return &Samples{Mono: []float32{1}}, nil
}

func TestAutoDecoder(t *testing.T) {
	dir := t.TempDir()

	t.Run("16k wav is read directly", func(t *testing.T) {
		path := filepath.Join(dir, "direct.wav")
		writeWAV(t, path, SampleRate, 1, []int{1, 2, 3, 4})

		fallback := &recordingDecoder{}
		samples, err := NewAutoDecoder(fallback, nil).Decode(context.Background(), path, false)
		require.NoError(t, err)
		assert.Len(t, samples.Mono, 4)
		assert.Empty(t, fallback.calls)
	})

	t.Run("other wav falls back", func(t *testing.T) {
		path := filepath.Join(dir, "cd.wav")
		writeWAV(t, path, 44100, 2, []int{1, 2, 3, 4})

		fallback := &recordingDecoder{}
		_, err := NewAutoDecoder(fallback, nil).Decode(context.Background(), path, false)
		require.NoError(t, err)
		assert.Equal(t, []string{path}, fallback.calls)
	})

	t.Run("non wav goes straight to fallback", func(t *testing.T) {
		path := filepath.Join(dir, "voice.opus")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0600))

		fallback := &recordingDecoder{}
		_, err := NewAutoDecoder(fallback, nil).Decode(context.Background(), path, false)
		require.NoError(t, err)
		assert.Equal(t, []string{path}, fallback.calls)
	})

	t.Run("missing wav is not retried", func(t *testing.T) {
		fallback := &recordingDecoder{}
		_, err := NewAutoDecoder(fallback, nil).Decode(context.Background(), filepath.Join(dir, "missing.wav"), false)
		assert.ErrorIs(t, err, ErrInputNotFound)
		assert.Empty(t, fallback.calls)
	})
}
