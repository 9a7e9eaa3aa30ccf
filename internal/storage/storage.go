// Package storage allocates and discards the temporary outputs of a trimming
// run and optionally publishes finished files to S3.
package storage

import (
	"context"
	"io"
)

// TempPrefix starts the name of every temporary output.
const TempPrefix = "detect-speech-"

// Storage holds the files a run writes before they reach their destination.
type Storage interface {
	// TempOutput allocates an empty file for the trimmed copy of input. The
	// name starts with TempPrefix and keeps input's extension. The caller
	// owns the file until it is moved or discarded.
	TempOutput(ctx context.Context, input string) (path string, err error)

	// Discard removes temporary outputs. Paths that no longer exist are
	// skipped, and every path is attempted.
	Discard(paths ...string) error

	// Publish uploads data under key and returns its URL.
	// Returns ErrS3NotConfigured if S3 is not configured.
	Publish(ctx context.Context, key string, data io.Reader) (url string, err error)
}
