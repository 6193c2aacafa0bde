// Package gemini wraps google.golang.org/genai for the transcriber and
// summarizer stages.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model produced no text candidate.
var ErrEmptyResponse = errors.New("empty response from Gemini")

// Client sends one GenerateContent call per request. When several API keys
// are configured, consecutive calls spread across them round-robin; a failed
// call is never retried on another key.
type Client struct {
	mu      sync.Mutex
	apiKeys []string
	next    int
}

// New creates a Client over the supplied API keys.
func New(apiKeys []string) (*Client, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("gemini: at least one API key is required")
	}
	return &Client{apiKeys: append([]string(nil), apiKeys...)}, nil
}

func (c *Client) pickKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.apiKeys[c.next]
	c.next = (c.next + 1) % len(c.apiKeys)
	return key
}

// Generate runs a single GenerateContent call and returns the concatenated
// text parts of the first candidate.
func (c *Client) Generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	client, err := c.newClient(ctx)
	if err != nil {
		return "", err
	}

	result, err := client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return candidateText(result)
}

// GenerateWithFile uploads the file at path through the Files API, sends
// prompt followed by a reference to it, and deletes the upload afterwards.
// Uploaded files are only visible to the key that created them, so a single
// key serves the whole call.
func (c *Client) GenerateWithFile(ctx context.Context, model, prompt, path, mimeType string, cfg *genai.GenerateContentConfig) (string, error) {
	client, err := c.newClient(ctx)
	if err != nil {
		return "", err
	}

	file, err := client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{MIMEType: mimeType})
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	defer client.Files.Delete(context.WithoutCancel(ctx), file.Name, nil)

	file, err = waitActive(ctx, file, func(ctx context.Context, name string) (*genai.File, error) {
		return client.Files.Get(ctx, name, nil)
	}, filePollInterval)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromURI(file.URI, file.MIMEType),
		}, genai.RoleUser),
	}

	result, err := client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return candidateText(result)
}

func (c *Client) newClient(ctx context.Context) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.pickKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

const filePollInterval = 2 * time.Second

// waitActive polls until an uploaded file leaves the PROCESSING state.
func waitActive(ctx context.Context, file *genai.File, get func(ctx context.Context, name string) (*genai.File, error), interval time.Duration) (*genai.File, error) {
	for {
		switch file.State {
		case genai.FileStateFailed:
			return nil, fmt.Errorf("file %s failed processing", file.Name)
		case genai.FileStateProcessing:
		default:
			return file, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		next, err := get(ctx, file.Name)
		if err != nil {
			return nil, fmt.Errorf("get file %s: %w", file.Name, err)
		}
		file = next
	}
}

func candidateText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	return text.String(), nil
}
