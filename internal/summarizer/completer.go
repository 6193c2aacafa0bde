package summarizer

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

// ErrNoModel is returned by the completer used when no Gemini key is configured.
var ErrNoModel = errors.New("no language model configured")

const systemInstruction = "You are a helpful assistant."

type generator interface {
	Generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error)
}

var summarySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary": {Type: genai.TypeString},
		"tasks": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"task":        {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
					"owner":       {Type: genai.TypeString},
					"deadline":    {Type: genai.TypeString},
				},
			},
		},
	},
}

// Complete runs a single JSON-mode generation.
func (c *implGeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    summarySchema,
	}
	return c.client.Generate(ctx, c.model, genai.Text(prompt), cfg)
}

type unconfiguredCompleter struct{}

// NewUnconfiguredCompleter returns a Completer that always fails with
// ErrNoModel, so every summary degrades.
func NewUnconfiguredCompleter() Completer {
	return unconfiguredCompleter{}
}

func (unconfiguredCompleter) Complete(context.Context, string) (string, error) {
	return "", ErrNoModel
}
