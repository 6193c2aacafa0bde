package transcriber

import (
	"context"
	"fmt"

	"github.com/nguyentantai21042004/meeting-flow/internal/config"
	"github.com/nguyentantai21042004/meeting-flow/internal/gemini"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/pkg/executor"
	"google.golang.org/genai"
)

// generator is the part of gemini.Client the gemini backend needs.
type generator interface {
	Generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error)
	GenerateWithFile(ctx context.Context, model, prompt, path, mimeType string, cfg *genai.GenerateContentConfig) (string, error)
}

type implWhisper struct {
	binaryPath      string
	modelPath       string
	threads         int
	prompt          string
	defaultLanguage string
	executor        executor.Executor
	logger          logger.Logger
}

type implGemini struct {
	client          generator
	model           string
	defaultLanguage string
	inlineLimit     int64
	logger          logger.Logger
}

// NewWhisper creates a Transcriber running the whisper.cpp CLI.
func NewWhisper(cfg config.WhisperConfig, defaultLanguage string, exec executor.Executor, log logger.Logger) Transcriber {
	return &implWhisper{
		binaryPath:      cfg.BinaryPath,
		modelPath:       cfg.ModelPath,
		threads:         cfg.Threads,
		prompt:          cfg.Prompt,
		defaultLanguage: defaultLanguage,
		executor:        exec,
		logger:          log,
	}
}

// NewGemini creates a Transcriber sending audio to a Gemini model.
func NewGemini(client *gemini.Client, model, defaultLanguage string, log logger.Logger) Transcriber {
	return &implGemini{
		client:          client,
		model:           model,
		defaultLanguage: defaultLanguage,
		inlineLimit:     maxInlineAudioBytes,
		logger:          log,
	}
}

// New picks the backend named in cfg.Transcriber.Backend.
func New(cfg *config.Config, exec executor.Executor, client *gemini.Client, log logger.Logger) (Transcriber, error) {
	switch cfg.Transcriber.Backend {
	case config.BackendWhisper:
		return NewWhisper(cfg.Whisper, cfg.Transcriber.Language, exec, log), nil
	case config.BackendGemini:
		if client == nil {
			return nil, fmt.Errorf("gemini transcriber requires a gemini client")
		}
		return NewGemini(client, cfg.Gemini.TranscribeModel, cfg.Transcriber.Language, log), nil
	default:
		return nil, fmt.Errorf("unknown transcriber backend %q", cfg.Transcriber.Backend)
	}
}
