package extractor

import (
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/pkg/executor"
)

type implExtractor struct {
	ffmpegPath string
	audioRoot  string
	executor   executor.Executor
	logger     logger.Logger
}

// New creates an ffmpeg backed Extractor writing artifacts under audioRoot.
func New(ffmpegPath, audioRoot string, exec executor.Executor, log logger.Logger) Extractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &implExtractor{
		ffmpegPath: ffmpegPath,
		audioRoot:  audioRoot,
		executor:   exec,
		logger:     log,
	}
}
