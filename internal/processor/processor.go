package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nguyentantai21042004/meeting-flow/internal/model"
	"github.com/nguyentantai21042004/meeting-flow/internal/pipeline"
	"github.com/nguyentantai21042004/meeting-flow/internal/report"
)

// Process runs the pipeline over a dropped file and writes its reports.
// A degraded summary still produces reports; a terminal failure does not.
func (p *implProcessor) Process(ctx context.Context, videoPath string) error {
	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Starting meeting processing: %s", videoPath)
	p.logger.Info(ctx, "========================================")

	f, err := os.Open(videoPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	outcome := p.pipeline.Run(ctx, model.UploadedMedia{
		Filename: filepath.Base(videoPath),
		Body:     f,
	}, pipeline.Options{Language: p.language})
	f.Close()

	if outcome.Failed() {
		return fmt.Errorf("process %s: %w", filepath.Base(videoPath), outcome.Err)
	}

	paths, err := report.Write(p.outputDir, outcome)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if err := p.moveToArchived(ctx, videoPath); err != nil {
		p.logger.Warn(ctx, "Failed to move original to archived folder: %v", err)
	}

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Processing %s!", outcome.Status)
	p.logger.Info(ctx, "Report: %s", paths.JSON)
	p.logger.Info(ctx, "Minutes: %s", paths.DOCX)
	p.logger.Info(ctx, "Processing time: %s", outcome.Duration)
	p.logger.Info(ctx, "========================================")

	return nil
}
