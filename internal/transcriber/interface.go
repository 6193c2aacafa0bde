package transcriber

import (
	"context"

	"github.com/nguyentantai21042004/meeting-flow/internal/model"
)

// Transcriber turns an audio artifact into text in a declared language.
type Transcriber interface {
	Transcribe(ctx context.Context, audio model.AudioArtifact, language string) (model.Transcript, error)
}

// TranscriptionError wraps any speech-to-text failure. Its message is the
// upstream message so it can be shown to the client as-is.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return e.Err.Error()
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}
