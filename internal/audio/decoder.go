// Package audio decodes media files into mono 16 kHz float PCM for voice
// activity detection.
package audio

import (
	"context"
	"errors"
)

// SampleRate is the rate every decoder resamples to.
const SampleRate = 16000

// Static errors for decoding.
var (
	// ErrInputNotFound is returned when the input file does not exist.
	ErrInputNotFound = errors.New("audio: input file does not exist")
	// ErrEmptyAudio is returned when decoding produced no samples.
	ErrEmptyAudio = errors.New("audio: decoded stream is empty")
	// ErrNotWAV is returned by WAVDecoder for files that are not RIFF/WAVE.
	ErrNotWAV = errors.New("audio: not a WAV file")
	// ErrUnsupportedFormat is returned by WAVDecoder for WAV files it cannot
	// read directly (wrong rate, non-PCM or more than two channels).
	ErrUnsupportedFormat = errors.New("audio: unsupported WAV format")
)

// Samples is a decoded signal owned by the caller.
type Samples struct {
	// Mono is the downmixed signal at SampleRate.
	Mono []float32
	// Channels holds per-channel signals when stereo splitting was requested
	// and the source has exactly two channels. Nil otherwise, including for
	// mono sources.
	Channels [][]float32
}

// Duration returns the length of the mono signal in seconds.
func (s *Samples) Duration() float64 {
	return float64(len(s.Mono)) / SampleRate
}

// Decoder turns a media file into samples.
type Decoder interface {
	// Decode reads path and returns mono float samples at SampleRate. When
	// splitStereo is true the per-channel signals are returned as well.
	Decode(ctx context.Context, path string, splitStereo bool) (*Samples, error)
}

// deinterleave splits interleaved stereo into channels and a mono average.
func deinterleave(interleaved []float32) (mono []float32, channels [][]float32) {
	n := len(interleaved) / 2
	left := make([]float32, n)
	right := make([]float32, n)
	mono = make([]float32, n)
	for i := 0; i < n; i++ {
		l, r := interleaved[2*i], interleaved[2*i+1]
		left[i], right[i] = l, r
		mono[i] = (l + r) / 2
	}
	return mono, [][]float32{left, right}
}
