package storage

import (
	"context"
	"io"
)

// Backend persists blobs under logical slash-separated paths.
type Backend interface {
	// Save writes r to path and returns the resolved location, which is
	// immediately readable.
	Save(ctx context.Context, path string, r io.Reader) (string, error)
	// Resolve maps a logical path to its on-disk location without touching it.
	Resolve(path string) string
}
