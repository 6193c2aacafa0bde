package summarizer

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/meeting-flow/internal/model"
)

const summaryPrompt = `Summarize this meeting and extract a list of actionable tasks with deadlines and who they're assigned to. Return the result as JSON with keys: summary, tasks (list of objects with task, description, owner, deadline).
Use an empty string for any task field the meeting does not mention.

Transcript:
%s
`

// Summarize asks the completer for structured JSON once. Any failure is
// logged and turned into the FailedSummary sentinel with no tasks.
func (s *implSummarizer) Summarize(ctx context.Context, transcript model.Transcript) model.SummaryResult {
	start := time.Now()
	s.logger.Info(ctx, "Summarizing transcript (%d characters)", len(transcript.Text))

	content, err := s.completer.Complete(ctx, fmt.Sprintf(summaryPrompt, transcript.Text))
	if err != nil {
		s.logger.Warn(ctx, "Summarization failed: %v", err)
		return degraded()
	}

	result, err := parseSummary(content)
	if err != nil {
		s.logger.Warn(ctx, "Summarization returned unusable content: %v", err)
		return degraded()
	}

	s.logger.Info(ctx, "Summary ready: %d tasks in %s", len(result.Tasks), time.Since(start))
	return result
}

func degraded() model.SummaryResult {
	return model.SummaryResult{
		Summary:  FailedSummary,
		Tasks:    []model.TaskRecord{},
		Degraded: true,
	}
}
