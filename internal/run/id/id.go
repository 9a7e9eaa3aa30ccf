// Package id names trimming runs. A run ID tags every log record of the run
// and prefixes the object keys it publishes.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"time"
)

const (
	prefix      = "run-"
	stampLayout = "20060102T150405"
)

// Generate returns a new run ID such as run-20261019T101500-3f9a1c2b.
// IDs sort by start time in UTC.
func Generate() string {
	return newID(time.Now(), rand.Reader)
}

func newID(now time.Time, entropy io.Reader) string {
	id := prefix + now.UTC().Format(stampLayout)

	var suffix [4]byte
	if _, err := io.ReadFull(entropy, suffix[:]); err != nil {
		return id
	}
	return id + "-" + hex.EncodeToString(suffix[:])
}
