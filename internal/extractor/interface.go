package extractor

import (
	"context"
	"fmt"

	"github.com/nguyentantai21042004/meeting-flow/internal/model"
)

// Extractor derives the speech-recognition audio track from stored media.
type Extractor interface {
	Extract(ctx context.Context, ref model.MediaReference) (model.AudioArtifact, error)
}

// ExtractionError wraps every failure to produce a usable audio artifact:
// corrupt input, unsupported codec, missing audio stream or a bad output.
type ExtractionError struct {
	Source string
	Output string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract audio from %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
