// Package media cuts audio files without re-encoding and moves results into
// place.
package media

import "context"

// TrimRequest describes one stream-copy cut.
type TrimRequest struct {
	// Input is the source media file.
	Input string
	// Output is where the trimmed file is written. It must differ from Input.
	Output string
	// StartSeconds is the seek position of the kept range.
	StartSeconds float64
	// EndSeconds is the end of the kept range. Ignored unless HasEnd is set.
	EndSeconds float64
	// HasEnd bounds the cut at EndSeconds. When false the cut runs to the
	// end of the input.
	HasEnd bool
}

// Trimmer performs stream-copy seek-and-trim cuts.
type Trimmer interface {
	// Trim writes the [StartSeconds, EndSeconds) range of Input to Output
	// without re-encoding. On failure an Output the call created or rewrote
	// is removed; a pre-existing Output it never touched is kept.
	Trim(ctx context.Context, req TrimRequest) error
}
