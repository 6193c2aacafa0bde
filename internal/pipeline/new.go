package pipeline

import (
	"github.com/nguyentantai21042004/meeting-flow/internal/extractor"
	"github.com/nguyentantai21042004/meeting-flow/internal/ingress"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/summarizer"
	"github.com/nguyentantai21042004/meeting-flow/internal/transcriber"
)

// Stages groups the four stage implementations.
type Stages struct {
	Ingress     ingress.Ingress
	Extractor   extractor.Extractor
	Transcriber transcriber.Transcriber
	Summarizer  summarizer.Summarizer
}

type implPipeline struct {
	stages        Stages
	keepArtifacts bool
	logger        logger.Logger
}

// New creates a Pipeline. With keepArtifacts the derived WAV is left on disk.
func New(stages Stages, keepArtifacts bool, log logger.Logger) Pipeline {
	return &implPipeline{
		stages:        stages,
		keepArtifacts: keepArtifacts,
		logger:        log,
	}
}
