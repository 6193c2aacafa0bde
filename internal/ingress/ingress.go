package ingress

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/nguyentantai21042004/meeting-flow/internal/model"
)

// Accept stores the blob under videos/<key>/<name>. An absent or empty blob
// fails before anything is written.
func (i *implIngress) Accept(ctx context.Context, media model.UploadedMedia) (model.MediaReference, error) {
	if media.Body == nil {
		return model.MediaReference{}, ErrNoFileProvided
	}

	name := sanitizeFilename(media.Filename)
	if name == "" {
		return model.MediaReference{}, ErrNoFileProvided
	}

	body := bufio.NewReader(media.Body)
	if _, err := body.Peek(1); err != nil {
		if err == io.EOF {
			return model.MediaReference{}, ErrNoFileProvided
		}
		return model.MediaReference{}, fmt.Errorf("read upload: %w", err)
	}

	key := i.newKey()
	logical := path.Join(videoNamespace, key, name)

	resolved, err := i.store.Save(ctx, logical, body)
	if err != nil {
		return model.MediaReference{}, fmt.Errorf("save upload: %w", err)
	}

	i.logger.Info(ctx, "Upload stored: %s -> %s", media.Filename, resolved)
	return model.MediaReference{
		Key:  key,
		Name: name,
		Path: resolved,
	}, nil
}

// sanitizeFilename keeps only the base name of a client supplied filename.
func sanitizeFilename(filename string) string {
	name := strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
