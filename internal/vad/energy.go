package vad

import (
	"log/slog"
	"math"
)

// Default parameters for the energy detector, tuned for 10 ms frames.
const (
	defaultEnergyThreshold = 0.015
	defaultMinSilenceMs    = 300
	// silenceRatio sets the release threshold relative to the attack threshold.
	silenceRatio = 0.55
	// minSpeechFrames is the run of loud frames needed to open an interval.
	minSpeechFrames = 3
)

// Energy is a pure Go oracle that classifies 10 ms frames by RMS level with
// hysteresis. It needs no model file and is always available.
type Energy struct {
	speechThreshold  float64
	silenceThreshold float64
	silenceFrames    int
	padFrames        int
	logger           *slog.Logger
}

// NewEnergy creates an energy oracle from cfg. ModelPath and Threads are ignored.
func NewEnergy(cfg Config) *Energy {
	threshold := float64(cfg.Threshold)
	if threshold <= 0 || threshold >= 1 {
		threshold = defaultEnergyThreshold
	}
	minSilence := cfg.MinSilenceMs
	if minSilence <= 0 {
		minSilence = defaultMinSilenceMs
	}

	e := &Energy{
		speechThreshold:  threshold,
		silenceThreshold: threshold * silenceRatio,
		silenceFrames:    max(1, minSilence/10),
		padFrames:        max(0, cfg.SpeechPadMs/10),
		logger:           engineLogger(cfg),
	}
	e.logger.Debug("energy oracle initialized",
		slog.Float64("speech_threshold", e.speechThreshold),
		slog.Int("silence_frames", e.silenceFrames),
	)
	return e
}

// Detect implements Oracle.
func (e *Energy) Detect(samples []float32) (*Segments, error) {
	frames := len(samples) / SamplesPerCentisecond
	if len(samples)%SamplesPerCentisecond != 0 {
		frames++
	}

	var (
		intervals  []Interval
		inSpeech   bool
		start      int
		lastLoud   int
		loudRun    int
		quietCount int
	)

	for f := 0; f < frames; f++ {
		lo := f * SamplesPerCentisecond
		hi := min(lo+SamplesPerCentisecond, len(samples))
		level := rms(samples[lo:hi])

		if !inSpeech {
			if level >= e.speechThreshold {
				loudRun++
				if loudRun >= minSpeechFrames {
					inSpeech = true
					start = f - loudRun + 1
					lastLoud = f
					quietCount = 0
				}
			} else {
				loudRun = 0
			}
			continue
		}

		if level < e.silenceThreshold {
			quietCount++
			if quietCount >= e.silenceFrames {
				intervals = append(intervals, Interval{T0: start, T1: lastLoud + 1})
				inSpeech = false
				loudRun = 0
			}
			continue
		}
		quietCount = 0
		lastLoud = f
	}
	if inSpeech {
		intervals = append(intervals, Interval{T0: start, T1: lastLoud + 1})
	}

	intervals = padIntervals(intervals, e.padFrames, frames)
	e.logger.Debug("energy detect",
		slog.Int("frames", frames),
		slog.Int("intervals", len(intervals)),
	)
	return NewSegments(intervals, nil), nil
}

// Close implements Oracle.
func (e *Energy) Close() error { return nil }

// padIntervals widens each interval by pad units, clamps to [0, limit] and
// merges intervals that come to overlap.
func padIntervals(in []Interval, pad, limit int) []Interval {
	if pad == 0 || len(in) == 0 {
		return in
	}
	out := make([]Interval, 0, len(in))
	for _, iv := range in {
		iv.T0 = max(0, iv.T0-pad)
		iv.T1 = min(limit, iv.T1+pad)
		if n := len(out); n > 0 && iv.T0 <= out[n-1].T1 {
			out[n-1].T1 = max(out[n-1].T1, iv.T1)
			continue
		}
		out = append(out, iv)
	}
	return out
}

func rms(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(frame)))
}

var _ Oracle = (*Energy)(nil)
