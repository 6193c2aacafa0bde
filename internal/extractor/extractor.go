package extractor

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

// Extract converts the referenced media to 16kHz mono 16-bit PCM WAV.
func (e *implExtractor) Extract(ctx context.Context, ref model.MediaReference) (model.AudioArtifact, error) {
	audioPath := e.OutputPath(ref)

	fail := func(err error) (model.AudioArtifact, error) {
		return model.AudioArtifact{}, &ExtractionError{Source: ref.Path, Output: audioPath, Err: err}
	}

	if _, err := os.Stat(ref.Path); err != nil {
		return fail(fmt.Errorf("source not readable: %w", err))
	}

	if err := os.MkdirAll(filepath.Dir(audioPath), 0755); err != nil {
		return fail(fmt.Errorf("create audio dir: %w", err))
	}

	e.logger.Info(ctx, "Extracting audio: %s -> %s", ref.Path, audioPath)

	if _, err := e.executor.Execute(ctx, e.ffmpegPath, Args(ref.Path, audioPath)...); err != nil {
		var cmdErr *executor.CommandError
		if errors.As(err, &cmdErr) {
			return fail(fmt.Errorf("ffmpeg: %s: %w", cmdErr.LastLine(), err))
		}
		return fail(fmt.Errorf("ffmpeg: %w", err))
	}

	format, err := readWAVFormat(audioPath)
	if err != nil {
		return fail(fmt.Errorf("inspect output: %w", err))
	}
	if err := format.check(); err != nil {
		return fail(err)
	}

	e.logger.Info(ctx, "Audio extracted successfully: %s", audioPath)
	return model.AudioArtifact{
		Path:          audioPath,
		SampleRate:    int(format.SampleRate),
		Channels:      int(format.Channels),
		BitsPerSample: int(format.BitsPerSample),
	}, nil
}

// OutputPath is <audioRoot>/<key>/<base>.wav. The key keeps concurrent
// uploads with the same filename apart.
func (e *implExtractor) OutputPath(ref model.MediaReference) string {
	name := ref.Name
	if name == "" {
		name = filepath.Base(ref.Path)
	}
	base := strings.TrimSuffix(name, filepath.Ext(name)) + ".wav"
	return filepath.Join(e.audioRoot, ref.Key, base)
}

// Args builds the ffmpeg invocation for one extraction.
// -y: overwrite a stale artifact at the destination
// -vn: drop video; ffmpeg picks the best audio stream on its own
// -ac 1 / -ar 16000 / pcm_s16le: the fixed speech-recognition format
func Args(input, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-vn",
		"-ac", strconv.Itoa(model.AudioChannels),
		"-ar", strconv.Itoa(model.AudioSampleRate),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		output,
	}
}
