package pipeline

import (
	"context"

	"github.com/nguyentantai21042004/meeting-flow/internal/model"
)

// Pipeline runs one upload through ingress, extraction, transcription and
// summarization.
type Pipeline interface {
	Run(ctx context.Context, media model.UploadedMedia, opts Options) model.PipelineOutcome
}

// Options are per-run parameters.
type Options struct {
	// Language is the spoken-language hint; empty uses the transcriber default.
	Language string
}
