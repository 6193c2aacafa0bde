package summarizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/meeting-flow/internal/model"
)

type summaryPayload struct {
	Summary flexString    `json:"summary"`
	Tasks   []taskPayload `json:"tasks"`
}

type taskPayload struct {
	Task        flexString `json:"task"`
	Description flexString `json:"description"`
	Owner       flexString `json:"owner"`
	Deadline    flexString `json:"deadline"`
}

// UnmarshalJSON accepts a task object or a bare string naming the task.
func (t *taskPayload) UnmarshalJSON(data []byte) error {
	*t = taskPayload{}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return t.Task.UnmarshalJSON(data)
	}

	type plain taskPayload
	return json.Unmarshal(data, (*plain)(t))
}

// flexString accepts a JSON string, number or boolean; null leaves it empty.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case '{', '[':
		return fmt.Errorf("expected text, got %s", data[:1])
	default:
		*f = flexString(data)
	}
	return nil
}

// parseSummary decodes the completion. Missing keys default to empty
// values; anything that is not a JSON object is an error.
func parseSummary(content string) (model.SummaryResult, error) {
	body := stripCodeFence(content)
	if !strings.HasPrefix(body, "{") {
		return model.SummaryResult{}, errors.New("completion is not a JSON object")
	}

	var payload summaryPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return model.SummaryResult{}, fmt.Errorf("decode completion: %w", err)
	}

	tasks := make([]model.TaskRecord, 0, len(payload.Tasks))
	for _, t := range payload.Tasks {
		record := model.TaskRecord{
			Task:        string(t.Task),
			Description: string(t.Description),
			Owner:       string(t.Owner),
			Deadline:    string(t.Deadline),
		}
		// null, "" and {} elements carry nothing to act on
		if record == (model.TaskRecord{}) {
			continue
		}
		tasks = append(tasks, record)
	}

	return model.SummaryResult{
		Summary: string(payload.Summary),
		Tasks:   tasks,
	}, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models add even in
// JSON mode.
func stripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
