package boundary

import (
	"fmt"
	"math"
)

// DefaultPadding is the guard band, in seconds, added outside detected speech.
const DefaultPadding = 0.5

// significanceEpsilon is how close to the signal edges a padded cut point
// must be for the cut to count as removing nothing.
const significanceEpsilon = 0.01

// Result is the resolved pair of edit points.
type Result struct {
	// StartSeconds is where the kept audio begins.
	StartSeconds float64
	// EndSeconds is where the kept audio ends. Equal to TotalSeconds when
	// the end is not trimmed.
	EndSeconds float64
	// TotalSeconds is the duration of the scanned signal.
	TotalSeconds float64
	// SpeechFound is false when no requested edge had any speech.
	SpeechFound bool
	// Significant is false when the padded cut would remove (almost) nothing.
	Significant bool
}

// TrimsEnd reports whether the kept range stops before the end of the signal.
func (r Result) TrimsEnd() bool {
	return r.EndSeconds < r.TotalSeconds
}

func (r Result) String() string {
	return fmt.Sprintf("speech=%t significant=%t range=[%.3f, %.3f] of %.3f",
		r.SpeechFound, r.Significant, r.StartSeconds, r.EndSeconds, r.TotalSeconds)
}

// ResolveOptions controls padding. Scan selection comes from Options.
type ResolveOptions struct {
	Options
	// Padding is the guard band in seconds. Negative means DefaultPadding.
	Padding float64
}

// Resolve converts raw edges into edit points.
//
// An edge that was not requested leaves its side untouched: the start
// stays at 0 and the end at totalSeconds. When at least one requested edge
// was found, a requested edge that was not found is likewise left untouched.
// When none was found the result reports no speech.
func Resolve(raw Raw, opts ResolveOptions, totalSeconds float64) Result {
	pad := opts.Padding
	if pad < 0 {
		pad = DefaultPadding
	}

	res := Result{
		StartSeconds: 0,
		EndSeconds:   totalSeconds,
		TotalSeconds: totalSeconds,
	}

	onset := opts.ScanStart && raw.Onset.Found
	offset := opts.ScanEnd && raw.Offset.Found
	if !onset && !offset {
		return res
	}
	res.SpeechFound = true

	if onset {
		res.StartSeconds = math.Min(totalSeconds, math.Max(0, raw.Onset.Seconds-pad))
	}
	if offset {
		res.EndSeconds = math.Max(0, math.Min(totalSeconds, raw.Offset.Seconds+pad))
	}
	if res.EndSeconds < res.StartSeconds {
		// An offset before the onset carries no usable end; keep the tail.
		res.EndSeconds = totalSeconds
	}

	res.Significant = res.StartSeconds > significanceEpsilon ||
		totalSeconds-res.EndSeconds > significanceEpsilon
	return res
}

// FormatTimestamp renders seconds as [HH:]MM:SS.mmm, with hours only when
// non-zero.
func FormatTimestamp(seconds float64) string {
	ms := int64(math.Round(math.Max(0, seconds) * 1000))
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	secs := ms / 1_000
	ms -= secs * 1_000

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, ms)
	}
	return fmt.Sprintf("%02d:%02d.%03d", minutes, secs, ms)
}
