package boundary

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/maauso/detect-speech/internal/vad"
)

// ErrOracle wraps failures returned by the oracle during a scan.
var ErrOracle = errors.New("boundary: oracle detect failed")

// Detection is the oracle's verdict on one chunk. Segments is only valid
// until the consumer returns control to the sequence.
type Detection struct {
	Chunk    Chunk
	Segments *vad.Segments
}

// Classify lazily runs oracle over each chunk of samples. Every result is
// released as soon as the consumer has looked at it, whether or not it
// matched, and chunks after the consumer stops are never classified. An
// oracle error is yielded once and ends the sequence.
func Classify(samples []float32, chunks iter.Seq[Chunk], oracle vad.Oracle) iter.Seq2[Detection, error] {
	return func(yield func(Detection, error) bool) {
		for c := range chunks {
			segs, err := oracle.Detect(samples[c.Offset:c.End()])
			if err != nil {
				segs.Release()
				yield(Detection{Chunk: c}, fmt.Errorf("%w: %s: %w", ErrOracle, c, err))
				return
			}
			more := yield(Detection{Chunk: c, Segments: segs}, nil)
			segs.Release()
			if !more {
				return
			}
		}
	}
}

// Edge is a detected speech boundary in absolute seconds.
type Edge struct {
	Seconds float64
	Found   bool
	// Chunk is the window the edge was found in.
	Chunk Chunk
	// Visited counts the chunks pulled from the sequence.
	Visited int
}

// ScanForward returns the onset of the first interval in the first chunk
// that has any speech. Chunks after that one are not pulled.
func ScanForward(detections iter.Seq2[Detection, error]) (Edge, error) {
	var edge Edge
	for d, err := range detections {
		edge.Visited++
		if err != nil {
			return edge, err
		}
		first, ok := d.Segments.First()
		if !ok {
			continue
		}
		edge.Seconds = d.Chunk.StartSeconds() + first.StartSeconds()
		edge.Found = true
		edge.Chunk = d.Chunk
		return edge, nil
	}
	return edge, nil
}

// ScanBackward returns the offset of the last interval in the first chunk,
// in sequence order, that has any speech. Feed it right-to-left chunks.
func ScanBackward(detections iter.Seq2[Detection, error]) (Edge, error) {
	var edge Edge
	for d, err := range detections {
		edge.Visited++
		if err != nil {
			return edge, err
		}
		last, ok := d.Segments.Last()
		if !ok {
			continue
		}
		edge.Seconds = d.Chunk.StartSeconds() + last.EndSeconds()
		edge.Found = true
		edge.Chunk = d.Chunk
		return edge, nil
	}
	return edge, nil
}

// Options selects which edges to look for.
type Options struct {
	// ScanStart looks for the speech onset.
	ScanStart bool
	// ScanEnd looks for the speech offset.
	ScanEnd bool
	// ChunkSamples is the window length. Zero or negative means DefaultChunkSamples.
	ChunkSamples int
}

// Raw holds unpadded edges as found by a scan.
type Raw struct {
	Onset  Edge
	Offset Edge
	// OracleCalls is the number of Detect calls made.
	OracleCalls int
}

// Scan runs the chunked forward and backward scans. The backward scan is
// skipped when an onset was requested and not found, and it never reaches
// back past a discovered onset.
func Scan(samples []float32, oracle vad.Oracle, opts Options) (Raw, error) {
	size := opts.ChunkSamples
	if size <= 0 {
		size = DefaultChunkSamples
	}
	total := len(samples)

	var raw Raw
	if opts.ScanStart {
		onset, err := ScanForward(Classify(samples, ForwardChunks(total, size), oracle))
		raw.Onset = onset
		raw.OracleCalls += onset.Visited
		if err != nil {
			return raw, err
		}
		if !onset.Found {
			return raw, nil
		}
	}

	if opts.ScanEnd {
		floor := 0
		if raw.Onset.Found {
			floor = int(math.Floor(raw.Onset.Seconds * SampleRate))
		}
		offset, err := ScanBackward(Classify(samples, BackwardChunks(total, size, floor), oracle))
		raw.Offset = offset
		raw.OracleCalls += offset.Visited
		if err != nil {
			return raw, err
		}
	}
	return raw, nil
}

// ScanWhole classifies the entire buffer with a single oracle call. It gives
// the same edges as Scan whenever the chunk size covers the whole buffer.
func ScanWhole(samples []float32, oracle vad.Oracle, opts Options) (Raw, error) {
	var raw Raw
	if !opts.ScanStart && !opts.ScanEnd {
		return raw, nil
	}

	whole := Chunk{Offset: 0, Len: len(samples)}
	segs, err := oracle.Detect(samples)
	raw.OracleCalls = 1
	if err != nil {
		segs.Release()
		return raw, fmt.Errorf("%w: %s: %w", ErrOracle, whole, err)
	}
	defer segs.Release()

	if opts.ScanStart {
		raw.Onset.Visited = 1
		first, ok := segs.First()
		if !ok {
			return raw, nil
		}
		raw.Onset = Edge{Seconds: first.StartSeconds(), Found: true, Chunk: whole, Visited: 1}
	}
	if opts.ScanEnd {
		if last, ok := segs.Last(); ok {
			raw.Offset = Edge{Seconds: last.EndSeconds(), Found: true, Chunk: whole, Visited: 1}
		} else {
			raw.Offset.Visited = 1
		}
	}
	return raw, nil
}
