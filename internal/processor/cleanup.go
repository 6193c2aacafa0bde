package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// moveToArchived moves a handled input out of the watched folder
func (p *implProcessor) moveToArchived(ctx context.Context, videoPath string) error {
	if err := os.MkdirAll(p.archivedDir, 0755); err != nil {
		return fmt.Errorf("create archived dir: %w", err)
	}
	destPath := filepath.Join(p.archivedDir, filepath.Base(videoPath))

	p.logger.Info(ctx, "Moving to archived folder: %s -> %s", videoPath, destPath)

	if err := os.Rename(videoPath, destPath); err != nil {
		return fmt.Errorf("move to archived: %w", err)
	}

	return nil
}
