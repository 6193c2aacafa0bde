package processor

import (
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/pipeline"
)

type implProcessor struct {
	pipeline    pipeline.Pipeline
	outputDir   string
	archivedDir string
	language    string
	logger      logger.Logger
}

// New creates a Processor that writes reports to outputDir and moves
// handled files to archivedDir.
func New(p pipeline.Pipeline, outputDir, archivedDir, language string, log logger.Logger) Processor {
	return &implProcessor{
		pipeline:    p,
		outputDir:   outputDir,
		archivedDir: archivedDir,
		language:    language,
		logger:      log,
	}
}
