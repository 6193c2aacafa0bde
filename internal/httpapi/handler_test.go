package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nguyentantai21042004/meeting-flow/internal/config"
	"github.com/nguyentantai21042004/meeting-flow/internal/extractor"
	"github.com/nguyentantai21042004/meeting-flow/internal/ingress"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/model"
	"github.com/nguyentantai21042004/meeting-flow/internal/pipeline"
	"github.com/nguyentantai21042004/meeting-flow/internal/storage"
	"github.com/nguyentantai21042004/meeting-flow/internal/summarizer"
	"github.com/nguyentantai21042004/meeting-flow/internal/testutil"
	"github.com/nguyentantai21042004/meeting-flow/internal/transcriber"
	"github.com/nguyentantai21042004/meeting-flow/pkg/executor"
)

func multipartRequest(t *testing.T, field, filename, content string, extra map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range extra {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, UploadPath, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
}

type fakePipeline struct {
	outcome model.PipelineOutcome
	media   model.UploadedMedia
	body    string
	opts    pipeline.Options
	calls   int
}

func (f *fakePipeline) Run(ctx context.Context, media model.UploadedMedia, opts pipeline.Options) model.PipelineOutcome {
	f.calls++
	f.media = media
	f.opts = opts
	if media.Body != nil {
		data, _ := io.ReadAll(media.Body)
		f.body = string(data)
	}
	return f.outcome
}

func TestUploadErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "no file",
			err:        ingress.ErrNoFileProvided,
			wantStatus: http.StatusBadRequest,
			wantError:  "No file uploaded.",
		},
		{
			name:       "extraction",
			err:        &extractor.ExtractionError{Source: "x", Err: errors.New("ffmpeg: moov atom not found")},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Audio extraction failed: ffmpeg: moov atom not found",
		},
		{
			name:       "transcription",
			err:        &transcriber.TranscriptionError{Err: errors.New("request timed out")},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Whisper transcription failed: request timed out",
		},
		{
			name:       "storage",
			err:        errors.New("save upload: disk full"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Processing failed: save upload: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &fakePipeline{outcome: model.PipelineOutcome{Status: model.OutcomeFailed, Err: tt.err}}
			h := NewHandler(fp, Options{}, logger.Nop())

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, multipartRequest(t, "file", "meeting.mp4", "media", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body errorBody
			decode(t, rec, &body)
			if body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
		})
	}
}

func TestUploadSuccess(t *testing.T) {
	fp := &fakePipeline{outcome: model.PipelineOutcome{
		RequestID:  "k1",
		Transcript: model.Transcript{Text: "Let's ship v2 by Friday, Asha owns it."},
		Summary: model.SummaryResult{
			Summary: "Ship v2.",
			Tasks:   []model.TaskRecord{{Task: "Ship v2", Owner: "Asha", Deadline: "Friday"}},
		},
		Status: model.OutcomeComplete,
	}}
	h := NewHandler(fp, Options{MaxUploadBytes: 1 << 20}, logger.Nop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "file", "meeting.mp4", "media", map[string]string{"language": "en"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if fp.media.Filename != "meeting.mp4" || fp.body != "media" {
		t.Errorf("pipeline got %q / %q", fp.media.Filename, fp.body)
	}
	if fp.opts.Language != "en" {
		t.Errorf("language = %q, want en", fp.opts.Language)
	}

	var resp model.Response
	decode(t, rec, &resp)
	if resp.Transcript == "" || resp.Summary != "Ship v2." || len(resp.Tasks) != 1 || resp.Tasks[0].Owner != "Asha" {
		t.Errorf("response = %+v", resp)
	}
}

func TestUploadMissingFieldReachesIngressWithoutBody(t *testing.T) {
	fp := &fakePipeline{outcome: model.PipelineOutcome{Status: model.OutcomeFailed, Err: ingress.ErrNoFileProvided}}
	h := NewHandler(fp, Options{}, logger.Nop())

	requests := map[string]*http.Request{
		"multipart without file": multipartRequest(t, "", "", "", map[string]string{"language": "en"}),
		"not multipart":          httptest.NewRequest(http.MethodPost, UploadPath, strings.NewReader("{}")),
	}

	for name, req := range requests {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if fp.media.Body != nil {
				t.Error("pipeline received a body for a request without a file")
			}
		})
	}
}

func TestUploadRejectedBeforePipeline(t *testing.T) {
	oversize := multipartRequest(t, "file", "meeting.mp4", strings.Repeat("x", 64<<10), nil)

	truncated := httptest.NewRequest(http.MethodPost, UploadPath, strings.NewReader("--x\r\ngarbage"))
	truncated.Header.Set("Content-Type", "multipart/form-data; boundary=x")

	tests := []struct {
		name       string
		opts       Options
		req        *http.Request
		wantStatus int
		wantError  string
	}{
		{
			name:       "upload too large",
			opts:       Options{MaxUploadBytes: 1024},
			req:        oversize,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantError:  "Upload exceeds 1024 bytes.",
		},
		{
			name:       "malformed multipart",
			opts:       Options{},
			req:        truncated,
			wantStatus: http.StatusBadRequest,
			wantError:  "Malformed upload.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &fakePipeline{}
			h := NewHandler(fp, tt.opts, logger.Nop())

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tt.req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body errorBody
			decode(t, rec, &body)
			if body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
			if fp.calls != 0 {
				t.Errorf("pipeline ran %d times for a rejected upload", fp.calls)
			}
		})
	}
}

// blockingPipeline holds its run slot until release is closed.
type blockingPipeline struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingPipeline) Run(ctx context.Context, media model.UploadedMedia, opts pipeline.Options) model.PipelineOutcome {
	b.calls.Add(1)
	close(b.started)
	<-b.release
	return model.PipelineOutcome{Status: model.OutcomeComplete}
}

func TestUploadBusyWhenNoSlotFrees(t *testing.T) {
	bp := &blockingPipeline{started: make(chan struct{}), release: make(chan struct{})}
	h := NewHandler(bp, Options{MaxConcurrent: 1, RequestTimeout: 50 * time.Millisecond}, logger.Nop())

	first := multipartRequest(t, "file", "first.mp4", "media", nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(httptest.NewRecorder(), first)
	}()
	<-bp.started

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "file", "second.mp4", "media", nil))

	close(bp.release)
	<-done

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	var body errorBody
	decode(t, rec, &body)
	if body.Error != "Server busy, try again later." {
		t.Errorf("error = %q", body.Error)
	}
	if n := bp.calls.Load(); n != 1 {
		t.Errorf("pipeline ran %d times, want only the first request", n)
	}
}

func TestUploadMethodNotAllowed(t *testing.T) {
	fp := &fakePipeline{}
	h := NewHandler(fp, Options{}, logger.Nop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, UploadPath, nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if fp.calls != 0 {
		t.Error("pipeline should not run for GET")
	}
}

func TestHealth(t *testing.T) {
	h := NewHandler(&fakePipeline{}, Options{MaxConcurrent: 3}, logger.Nop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Running != 0 || body.Capacity != 3 {
		t.Errorf("health = %+v", body)
	}
}

func TestSlotsBlockWhenFull(t *testing.T) {
	s := newSlots(1)
	if err := s.acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.inUse() != 1 {
		t.Errorf("inUse = %d, want 1", s.inUse())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.acquire(ctx); err == nil {
		t.Error("acquire on a full pool with a cancelled context should fail")
	}

	s.release()
	if s.inUse() != 0 {
		t.Errorf("inUse = %d after release, want 0", s.inUse())
	}
}

type countingCompleter struct {
	content string
	err     error
	calls   int
}

func (c *countingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.calls++
	return c.content, c.err
}

type stack struct {
	handler   http.Handler
	root      string
	completer *countingCompleter
}

// newStack wires the real stages; whisperRun scripts the whisper binary.
func newStack(t *testing.T, whisperRun func(testutil.Call) (string, error), completer *countingCompleter) *stack {
	t.Helper()
	root := t.TempDir()
	log := logger.Nop()

	exec := &testutil.Executor{Run: func(call testutil.Call) (string, error) {
		if call.Name == "ffmpeg" {
			return testutil.FFmpegWritingWAV(1, 16000, 16)(call)
		}
		return whisperRun(call)
	}}

	p := pipeline.New(pipeline.Stages{
		Ingress:   ingress.New(storage.NewLocal(root), log),
		Extractor: extractor.New("ffmpeg", filepath.Join(root, "audio"), exec, log),
		Transcriber: transcriber.NewWhisper(config.WhisperConfig{
			BinaryPath: "whisper",
			ModelPath:  "ggml-base.bin",
			Threads:    1,
		}, "hi", exec, log),
		Summarizer: summarizer.New(completer, log),
	}, false, log)

	return &stack{handler: NewHandler(p, Options{}, log), root: root, completer: completer}
}

func whisperSays(text string) func(testutil.Call) (string, error) {
	return func(call testutil.Call) (string, error) {
		prefix := testutil.ArgValue(call.Args, "--output-file")
		return "", os.WriteFile(prefix+".txt", []byte(text), 0644)
	}
}

func TestStackNoFileWritesNothing(t *testing.T) {
	s := newStack(t, whisperSays("x"), &countingCompleter{})

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, multipartRequest(t, "file", "meeting.mp4", "", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	entries, _ := os.ReadDir(s.root)
	if len(entries) != 0 {
		t.Errorf("storage written for an empty upload: %v", entries)
	}
}

func TestStackTranscriptionFailureSkipsSummary(t *testing.T) {
	failing := func(testutil.Call) (string, error) {
		return "", &executor.CommandError{Name: "whisper", Stderr: "timeout contacting GPU", Err: errors.New("exit status 1")}
	}
	s := newStack(t, failing, &countingCompleter{content: `{"summary": "x"}`})

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, multipartRequest(t, "file", "meeting.mp4", "media", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body errorBody
	decode(t, rec, &body)
	if !strings.HasPrefix(body.Error, "Whisper transcription failed: ") || !strings.Contains(body.Error, "timeout contacting GPU") {
		t.Errorf("error = %q", body.Error)
	}
	if s.completer.calls != 0 {
		t.Errorf("summarizer called %d times after transcription failure", s.completer.calls)
	}
}

func TestStackSummaryFailureDegrades(t *testing.T) {
	tests := []struct {
		name      string
		completer *countingCompleter
	}{
		{"service error", &countingCompleter{err: errors.New("503")}},
		{"non JSON", &countingCompleter{content: "Sure! Here's a summary."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStack(t, whisperSays("Let's ship v2 by Friday, Asha owns it."), tt.completer)

			rec := httptest.NewRecorder()
			s.handler.ServeHTTP(rec, multipartRequest(t, "file", "meeting.mp4", "media", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var raw map[string]interface{}
			decode(t, rec, &raw)
			if raw["transcript"] != "Let's ship v2 by Friday, Asha owns it." {
				t.Errorf("transcript = %v", raw["transcript"])
			}
			if raw["summary"] != summarizer.FailedSummary {
				t.Errorf("summary = %v", raw["summary"])
			}
			tasks, ok := raw["tasks"].([]interface{})
			if !ok || len(tasks) != 0 {
				t.Errorf("tasks = %#v, want []", raw["tasks"])
			}
			if raw["degraded"] != true {
				t.Errorf("degraded = %v, want true", raw["degraded"])
			}
		})
	}
}
