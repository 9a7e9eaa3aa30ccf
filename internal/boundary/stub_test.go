package boundary

import (
	"errors"

	"github.com/maauso/detect-speech/internal/vad"
)

// stubOracle answers Detect by chunk length and position. The respond func
// receives the call index and the chunk length in samples.
type stubOracle struct {
	respond  func(call, n int) []vad.Interval
	failAt   int
	calls    int
	lengths  []int
	released int
}

var errStub = errors.New("stub oracle failure")

func (s *stubOracle) Detect(samples []float32) (*vad.Segments, error) {
	call := s.calls
	s.calls++
	s.lengths = append(s.lengths, len(samples))
	if s.failAt > 0 && s.calls == s.failAt {
		return nil, errStub
	}
	var ivs []vad.Interval
	if s.respond != nil {
		ivs = s.respond(call, len(samples))
	}
	return vad.NewSegments(ivs, func() { s.released++ }), nil
}

func (s *stubOracle) Close() error { return nil }

// fixed always reports the same intervals.
func fixed(ivs ...vad.Interval) func(int, int) []vad.Interval {
	return func(int, int) []vad.Interval { return ivs }
}

// onCalls reports ivs only on the listed call indexes.
func onCalls(ivs []vad.Interval, calls ...int) func(int, int) []vad.Interval {
	return func(call, _ int) []vad.Interval {
		for _, c := range calls {
			if c == call {
				return ivs
			}
		}
		return nil
	}
}

func seconds(s float64) []float32 {
	return make([]float32, int(s*SampleRate))
}
