package audio

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
)

// AutoDecoder reads 16 kHz PCM WAV files directly and hands everything else
// to a fallback decoder, normally FFmpegDecoder.
type AutoDecoder struct {
	wav      Decoder
	fallback Decoder
	logger   *slog.Logger
}

// NewAutoDecoder creates an AutoDecoder.
func NewAutoDecoder(fallback Decoder, logger *slog.Logger) *AutoDecoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoDecoder{wav: NewWAVDecoder(), fallback: fallback, logger: logger}
}

// Decode implements Decoder.Decode.
func (d *AutoDecoder) Decode(ctx context.Context, path string, splitStereo bool) (*Samples, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		samples, err := d.wav.Decode(ctx, path, splitStereo)
		switch {
		case err == nil:
			d.logger.Debug("decoded wav directly", slog.String("path", path))
			return samples, nil
		case errors.Is(err, ErrNotWAV), errors.Is(err, ErrUnsupportedFormat):
			d.logger.Debug("wav fast path not applicable",
				slog.String("path", path),
				slog.String("reason", err.Error()),
			)
		default:
			return nil, err
		}
	}
	return d.fallback.Decode(ctx, path, splitStereo)
}

// Verify interface implementation at compile time.
var _ Decoder = (*AutoDecoder)(nil)
