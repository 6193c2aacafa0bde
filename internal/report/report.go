// Package report writes pipeline outcomes to disk as JSON and DOCX meeting
// minutes. It is used by the watch and process commands.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/meeting-flow/internal/model"
)

// Paths lists the files written for one outcome.
type Paths struct {
	JSON string
	DOCX string
}

// Write stores <name>.json and <name>.docx under dir, where name is the
// upload's base name without extension.
func Write(dir string, outcome model.PipelineOutcome) (Paths, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Paths{}, fmt.Errorf("create report dir: %w", err)
	}

	name := reportName(outcome)
	paths := Paths{
		JSON: filepath.Join(dir, name+".json"),
		DOCX: filepath.Join(dir, name+".docx"),
	}

	data, err := json.MarshalIndent(outcome.Response(), "", "  ")
	if err != nil {
		return Paths{}, fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(paths.JSON, data, 0644); err != nil {
		return Paths{}, fmt.Errorf("write json report: %w", err)
	}

	title := fmt.Sprintf("Meeting minutes: %s", outcome.Media.Name)
	if err := minutesToDocx(title, time.Now(), outcome, paths.DOCX); err != nil {
		return Paths{}, fmt.Errorf("write docx report: %w", err)
	}

	return paths, nil
}

func reportName(outcome model.PipelineOutcome) string {
	name := outcome.Media.Name
	if name == "" {
		name = outcome.RequestID
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}
