package gemini

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/genai"
)

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New() should fail without API keys")
	}
}

func TestPickKeyRoundRobin(t *testing.T) {
	c, err := New([]string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"a", "b", "c", "a"}
	for i, w := range want {
		if got := c.pickKey(); got != w {
			t.Errorf("pick %d = %q, want %q", i, got, w)
		}
	}
}

func TestCandidateText(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr error
	}{
		{name: "nil response", resp: nil, wantErr: ErrEmptyResponse},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantErr: ErrEmptyResponse},
		{
			name: "joins text parts",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{Parts: []*genai.Part{
						{Text: `{"summary":`},
						{Text: ""},
						{Text: `"ok"}`},
					}},
				}},
			},
			want: `{"summary":"ok"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := candidateText(tt.resp)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("candidateText() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("candidateText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWaitActive(t *testing.T) {
	tests := []struct {
		name      string
		initial   genai.FileState
		states    []genai.FileState
		wantErr   bool
		wantPolls int
	}{
		{name: "already active", initial: genai.FileStateActive},
		{name: "state not reported", initial: ""},
		{
			name:      "processing then active",
			initial:   genai.FileStateProcessing,
			states:    []genai.FileState{genai.FileStateProcessing, genai.FileStateActive},
			wantPolls: 2,
		},
		{
			name:      "processing then failed",
			initial:   genai.FileStateProcessing,
			states:    []genai.FileState{genai.FileStateFailed},
			wantErr:   true,
			wantPolls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			polls := 0
			get := func(ctx context.Context, name string) (*genai.File, error) {
				state := tt.states[polls]
				polls++
				return &genai.File{Name: name, URI: "https://files/" + name, MIMEType: "audio/wav", State: state}, nil
			}

			file := &genai.File{Name: "files/abc", State: tt.initial}
			got, err := waitActive(context.Background(), file, get, time.Millisecond)
			if (err != nil) != tt.wantErr {
				t.Fatalf("waitActive() error = %v, wantErr %v", err, tt.wantErr)
			}
			if polls != tt.wantPolls {
				t.Errorf("polls = %d, want %d", polls, tt.wantPolls)
			}
			if !tt.wantErr && got == nil {
				t.Error("waitActive() returned no file")
			}
		})
	}
}

func TestWaitActiveStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	get := func(ctx context.Context, name string) (*genai.File, error) {
		t.Fatal("get should not be called after cancellation")
		return nil, nil
	}

	_, err := waitActive(ctx, &genai.File{Name: "files/abc", State: genai.FileStateProcessing}, get, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("waitActive() error = %v, want context.Canceled", err)
	}
}
