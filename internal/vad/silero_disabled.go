//go:build !silero

package vad

// SileroAvailable reports whether the Silero engine was compiled in.
const SileroAvailable = false

// NewSilero always fails in builds without the silero tag.
func NewSilero(_ Config) (Oracle, error) {
	return nil, ErrEngineUnavailable
}
