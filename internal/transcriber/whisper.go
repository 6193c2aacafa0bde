package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/meeting-flow/internal/model"
	"github.com/nguyentantai21042004/meeting-flow/pkg/executor"
)

// Transcribe runs whisper.cpp over the artifact and reads back the .txt output.
func (w *implWhisper) Transcribe(ctx context.Context, audio model.AudioArtifact, language string) (model.Transcript, error) {
	if language == "" {
		language = w.defaultLanguage
	}

	// Whisper will append .txt
	outputPrefix := strings.TrimSuffix(audio.Path, filepath.Ext(audio.Path))
	txtPath := outputPrefix + ".txt"

	w.logger.Info(ctx, "Starting transcription with %d threads (language %s): %s", w.threads, language, audio.Path)

	// -l: force language, never auto-detect
	// -otxt: plain text output
	// -t: threads
	args := []string{
		"-m", w.modelPath,
		"-f", audio.Path,
		"-otxt",
		"-l", language,
		"-t", strconv.Itoa(w.threads),
		"--output-file", outputPrefix,
	}
	if w.prompt != "" {
		args = append(args, "--prompt", w.prompt)
	}

	if _, err := w.executor.Execute(ctx, w.binaryPath, args...); err != nil {
		var cmdErr *executor.CommandError
		if errors.As(err, &cmdErr) {
			return model.Transcript{}, &TranscriptionError{Err: fmt.Errorf("whisper: %s: %w", cmdErr.LastLine(), err)}
		}
		return model.Transcript{}, &TranscriptionError{Err: fmt.Errorf("whisper: %w", err)}
	}

	data, err := os.ReadFile(txtPath)
	if err != nil {
		return model.Transcript{}, &TranscriptionError{Err: fmt.Errorf("read whisper output: %w", err)}
	}
	if err := os.Remove(txtPath); err != nil {
		w.logger.Warn(ctx, "Failed to cleanup transcript file %s: %v", txtPath, err)
	}

	text := joinLines(string(data))
	w.logger.Info(ctx, "Transcription completed: %d characters", len(text))
	return model.Transcript{Text: text, Language: language}, nil
}

// joinLines collapses whisper's per-segment lines into one paragraph.
func joinLines(raw string) string {
	var parts []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
