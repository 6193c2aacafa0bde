package summarizer

import (
	"github.com/nguyentantai21042004/meeting-flow/internal/gemini"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
)

type implSummarizer struct {
	completer Completer
	logger    logger.Logger
}

type implGeminiCompleter struct {
	client generator
	model  string
}

// New creates a Summarizer backed by completer.
func New(completer Completer, log logger.Logger) Summarizer {
	return &implSummarizer{
		completer: completer,
		logger:    log,
	}
}

// NewGeminiCompleter creates a Completer that asks model for JSON matching
// the summary schema.
func NewGeminiCompleter(client *gemini.Client, model string) Completer {
	return &implGeminiCompleter{
		client: client,
		model:  model,
	}
}
