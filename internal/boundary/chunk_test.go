package boundary

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForwardChunks(t *testing.T) {
	tests := []struct {
		name        string
		total, size int
		want        []Chunk
	}{
		{"exact tiling", 6, 3, []Chunk{{0, 3}, {3, 3}}},
		{"short tail", 7, 3, []Chunk{{0, 3}, {3, 3}, {6, 1}}},
		{"size larger than buffer", 5, 10, []Chunk{{0, 5}}},
		{"empty buffer", 0, 3, nil},
		{"non-positive size covers all", 4, 0, []Chunk{{0, 4}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, slices.Collect(ForwardChunks(tc.total, tc.size)))
		})
	}
}

func TestBackwardChunks(t *testing.T) {
	tests := []struct {
		name               string
		total, size, floor int
		want               []Chunk
	}{
		{"exact tiling", 6, 3, 0, []Chunk{{3, 3}, {0, 3}}},
		{"short head", 7, 3, 0, []Chunk{{4, 3}, {1, 3}, {0, 1}}},
		{"size larger than buffer", 5, 10, 0, []Chunk{{0, 5}}},
		{"floor stops after crossing window", 10, 3, 5, []Chunk{{7, 3}, {4, 3}}},
		{"floor on a window edge", 9, 3, 6, []Chunk{{6, 3}}},
		{"floor at end yields nothing", 9, 3, 9, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, slices.Collect(BackwardChunks(tc.total, tc.size, tc.floor)))
		})
	}
}

func TestChunkSequencesAreRestartable(t *testing.T) {
	seq := ForwardChunks(10, 4)
	assert.Equal(t, slices.Collect(seq), slices.Collect(seq))

	back := BackwardChunks(10, 4, 0)
	assert.Equal(t, slices.Collect(back), slices.Collect(back))
}

func TestChunk_Seconds(t *testing.T) {
	c := Chunk{Offset: 4 * DefaultChunkSamples, Len: 10}
	assert.InDelta(t, 120.0, c.StartSeconds(), 1e-9)
	assert.Equal(t, 4*DefaultChunkSamples+10, c.End())
}
