package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type implLocal struct {
	root string
}

// NewLocal creates a Backend rooted at the given directory.
func NewLocal(root string) Backend {
	return &implLocal{root: root}
}

func (s *implLocal) Resolve(path string) string {
	clean := filepath.Clean("/" + filepath.FromSlash(path))
	return filepath.Join(s.root, strings.TrimPrefix(clean, string(filepath.Separator)))
}

// Save writes to a temp file next to the destination and renames it into
// place, so a reader never observes a partially written file.
func (s *implLocal) Save(ctx context.Context, path string, r io.Reader) (string, error) {
	dest := s.Resolve(path)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close blob: %w", err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("persist blob: %w", err)
	}

	abs, err := filepath.Abs(dest)
	if err != nil {
		return dest, nil
	}
	return abs, nil
}

// ctxReader stops a long copy once the request is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
