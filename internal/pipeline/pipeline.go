package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/model"
)

// Run executes the stages strictly in order. Ingress, extraction and
// transcription errors end the run; summarization can only degrade it.
func (p *implPipeline) Run(ctx context.Context, media model.UploadedMedia, opts Options) model.PipelineOutcome {
	startTime := time.Now()
	outcome := model.PipelineOutcome{Status: model.OutcomeFailed}
	finish := func() model.PipelineOutcome {
		outcome.Duration = time.Since(startTime)
		return outcome
	}

	// Step 1: Persist the upload
	ref, err := p.stages.Ingress.Accept(ctx, media)
	if err != nil {
		p.logger.Warn(ctx, "Upload rejected: %v", err)
		outcome.Err = fmt.Errorf("ingress: %w", err)
		return finish()
	}
	outcome.RequestID = ref.Key
	outcome.Media = ref
	ctx = logger.WithRequestID(ctx, ref.Key)

	p.logger.Info(ctx, "Starting meeting processing: %s", ref.Name)

	// Step 2: Extract audio
	stepStart := time.Now()
	audio, err := p.stages.Extractor.Extract(ctx, ref)
	if err != nil {
		p.logger.Error(ctx, "Audio extraction failed: %v", err)
		outcome.Err = err
		return finish()
	}
	p.logger.Debug(ctx, "Extraction took %s", time.Since(stepStart))
	if !p.keepArtifacts {
		defer p.cleanupArtifact(ctx, audio.Path)
	}

	// Step 3: Transcribe
	stepStart = time.Now()
	transcript, err := p.stages.Transcriber.Transcribe(ctx, audio, opts.Language)
	if err != nil {
		p.logger.Error(ctx, "Transcription failed: %v", err)
		outcome.Err = err
		return finish()
	}
	outcome.Transcript = transcript
	p.logger.Debug(ctx, "Transcription took %s", time.Since(stepStart))

	// Step 4: Summarize, degrading instead of failing
	outcome.Summary = p.stages.Summarizer.Summarize(ctx, transcript)
	outcome.Status = model.OutcomeComplete
	if outcome.Summary.Degraded {
		outcome.Status = model.OutcomeDegraded
	}

	outcome = finish()
	p.logger.Info(ctx, "Processing %s: %d tasks, took %s", outcome.Status, len(outcome.Summary.Tasks), outcome.Duration)
	return outcome
}

// cleanupArtifact removes the derived audio, logs warning if it fails
func (p *implPipeline) cleanupArtifact(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil {
		p.logger.Warn(ctx, "Failed to cleanup audio artifact %s: %v", path, err)
	} else {
		p.logger.Debug(ctx, "Cleaned up audio artifact: %s", path)
	}
}
