package transcriber

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nguyentantai21042004/meeting-flow/internal/model"
	"google.golang.org/genai"
)

const transcribeInstruction = `Transcribe the speech in the attached meeting recording verbatim.
The spoken language is %q; do not translate and do not detect another language.
Return only the transcript as plain text, with no timestamps, speaker labels or commentary.
If nothing is said, return an empty response.`

// maxInlineAudioBytes keeps an inline request under the API's 20 MB limit
// once the audio is base64 encoded. About seven minutes at 16 kHz mono.
const maxInlineAudioBytes = 14 << 20

// Transcribe sends short recordings inline and uploads longer ones through
// the Files API, always with a fixed-language instruction.
func (g *implGemini) Transcribe(ctx context.Context, audio model.AudioArtifact, language string) (model.Transcript, error) {
	if language == "" {
		language = g.defaultLanguage
	}

	info, err := os.Stat(audio.Path)
	if err != nil {
		return model.Transcript{}, &TranscriptionError{Err: fmt.Errorf("read audio: %w", err)}
	}

	instruction := fmt.Sprintf(transcribeInstruction, language)
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "text/plain",
	}

	var text string
	if info.Size() > g.inlineLimit {
		g.logger.Info(ctx, "Uploading %d bytes of audio for transcription with %s (language %s): %s", info.Size(), g.model, language, audio.Path)
		text, err = g.client.GenerateWithFile(ctx, g.model, instruction, audio.Path, "audio/wav", cfg)
	} else {
		data, readErr := os.ReadFile(audio.Path)
		if readErr != nil {
			return model.Transcript{}, &TranscriptionError{Err: fmt.Errorf("read audio: %w", readErr)}
		}

		g.logger.Info(ctx, "Starting transcription with %s (language %s): %s", g.model, language, audio.Path)
		contents := []*genai.Content{
			genai.NewContentFromParts([]*genai.Part{
				genai.NewPartFromText(instruction),
				genai.NewPartFromBytes(data, "audio/wav"),
			}, genai.RoleUser),
		}
		text, err = g.client.Generate(ctx, g.model, contents, cfg)
	}
	if err != nil {
		return model.Transcript{}, &TranscriptionError{Err: err}
	}

	text = strings.TrimSpace(text)
	g.logger.Info(ctx, "Transcription completed: %d characters", len(text))
	return model.Transcript{Text: text, Language: language}, nil
}
