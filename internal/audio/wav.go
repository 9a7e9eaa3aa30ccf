package audio

import (
	"context"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM tag.
const wavFormatPCM = 1

// WAVDecoder reads PCM WAV files that are already at SampleRate without
// spawning a subprocess.
type WAVDecoder struct{}

// NewWAVDecoder creates a new WAVDecoder.
func NewWAVDecoder() *WAVDecoder {
	return &WAVDecoder{}
}

// Decode implements Decoder.Decode.
func (d *WAVDecoder) Decode(ctx context.Context, path string, splitStereo bool) (*Samples, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.Open(path) // #nosec G304 - path is the file the user asked to process
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, ErrNotWAV
	}
	if dec.WavAudioFormat != wavFormatPCM || dec.SampleRate != SampleRate || dec.NumChans == 0 || dec.NumChans > 2 {
		return nil, fmt.Errorf("%w: format=%d rate=%d channels=%d",
			ErrUnsupportedFormat, dec.WavAudioFormat, dec.SampleRate, dec.NumChans)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}
	if len(buf.Data) == 0 {
		return nil, ErrEmptyAudio
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 {
		bitDepth = buf.SourceBitDepth
	}
	interleaved := pcmToFloat(buf.Data, bitDepth)

	if dec.NumChans == 1 {
		return &Samples{Mono: interleaved}, nil
	}
	mono, channels := deinterleave(interleaved)
	if !splitStereo {
		channels = nil
	}
	return &Samples{Mono: mono, Channels: channels}, nil
}

// pcmToFloat scales integer PCM to [-1, 1). 8-bit WAV samples are unsigned
// with silence at 128; wider depths are signed.
func pcmToFloat(data []int, bitDepth int) []float32 {
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}
	scale := float32(int64(1) << (bitDepth - 1))
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v-offset) / scale
	}
	return out
}

// Verify interface implementation at compile time.
var _ Decoder = (*WAVDecoder)(nil)
