package summarizer

import (
	"context"

	"github.com/nguyentantai21042004/meeting-flow/internal/model"
)

// FailedSummary replaces the summary when the completion could not be used.
const FailedSummary = "Summarization failed."

// Summarizer produces a summary and task list from a transcript. It never
// fails; on any error it returns a degraded result.
type Summarizer interface {
	Summarize(ctx context.Context, transcript model.Transcript) model.SummaryResult
}

// Completer sends one prompt to a language model and returns its JSON text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
