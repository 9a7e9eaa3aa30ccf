// Package boundary locates the first and last speech in a signal and turns
// them into edit points for trimming.
//
// Scanning is expressed over lazy, restartable sequences: a chunk sequence
// describes which windows of the buffer to classify, Classify pairs each
// window with the oracle's verdict on demand, and ScanForward/ScanBackward
// consume those verdicts and stop pulling as soon as they have an answer,
// so windows past the answer are never classified.
package boundary

import (
	"fmt"
	"iter"
)

// SampleRate is the rate of every buffer scanned by this package.
const SampleRate = 16000

// DefaultChunkSeconds is the default window length.
const DefaultChunkSeconds = 30

// DefaultChunkSamples is DefaultChunkSeconds of audio.
const DefaultChunkSamples = DefaultChunkSeconds * SampleRate

// Chunk is the half-open sample range [Offset, Offset+Len) of a buffer.
type Chunk struct {
	Offset int
	Len    int
}

// End returns the exclusive end offset.
func (c Chunk) End() int { return c.Offset + c.Len }

// StartSeconds returns the chunk offset in seconds.
func (c Chunk) StartSeconds() float64 { return float64(c.Offset) / SampleRate }

func (c Chunk) String() string {
	return fmt.Sprintf("chunk[%d:%d]", c.Offset, c.End())
}

// ForwardChunks tiles [0, total) left to right with windows of at most size
// samples. The last window may be shorter.
func ForwardChunks(total, size int) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		if size <= 0 {
			size = total
		}
		for off := 0; off < total; off += size {
			if !yield(Chunk{Offset: off, Len: min(size, total-off)}) {
				return
			}
		}
	}
}

// BackwardChunks tiles [0, total) right to left: each window ends at the
// current right edge and extends size samples back, or to 0 if shorter.
//
// Windows are produced only while their right edge lies beyond floor, so
// the window that reaches back across floor is the last one. Pass 0 to scan
// the whole buffer.
func BackwardChunks(total, size, floor int) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		if size <= 0 {
			size = total
		}
		for right := total; right > 0 && right > floor; right -= size {
			left := max(0, right-size)
			if !yield(Chunk{Offset: left, Len: right - left}) {
				return
			}
		}
	}
}
