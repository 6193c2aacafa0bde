//go:build integration

package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/meeting-flow/internal/config"
	"github.com/nguyentantai21042004/meeting-flow/internal/extractor"
	"github.com/nguyentantai21042004/meeting-flow/internal/httpapi"
	"github.com/nguyentantai21042004/meeting-flow/internal/ingress"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/model"
	"github.com/nguyentantai21042004/meeting-flow/internal/pipeline"
	"github.com/nguyentantai21042004/meeting-flow/internal/storage"
	"github.com/nguyentantai21042004/meeting-flow/internal/summarizer"
	"github.com/nguyentantai21042004/meeting-flow/internal/testutil"
	"github.com/nguyentantai21042004/meeting-flow/internal/transcriber"
	"github.com/nguyentantai21042004/meeting-flow/pkg/executor"

	"github.com/cucumber/godog"
)

// mockCompleter returns a scripted completion and counts calls
type mockCompleter struct {
	content string
	err     error
	calls   int
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.calls++
	return m.content, m.err
}

// pipelineContext holds test state for pipeline scenarios
type pipelineContext struct {
	root      string
	language  string
	ffmpegErr error
	whisper   func(testutil.Call) (string, error)
	exec      *testutil.Executor
	completer *mockCompleter
	h         http.Handler
	responses []*httptest.ResponseRecorder
}

// SharedPipelineContext is reset before each scenario via Before hook
var SharedPipelineContext *pipelineContext

func getPipelineContext() *pipelineContext {
	return SharedPipelineContext
}

func InitializePipelineScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		root, err := os.MkdirTemp("", "meetflow-features-*")
		if err != nil {
			return c, err
		}
		SharedPipelineContext = &pipelineContext{
			root:      root,
			completer: &mockCompleter{err: errors.New("no completion scripted")},
			whisper: func(testutil.Call) (string, error) {
				return "", errors.New("no transcription scripted")
			},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if p := getPipelineContext(); p != nil {
			os.RemoveAll(p.root)
		}
		SharedPipelineContext = nil
		return c, nil
	})

	ctx.Step(`^the spoken language is "([^"]*)"$`, theSpokenLanguageIs)
	ctx.Step(`^ffmpeg extracts audio successfully$`, ffmpegExtractsAudioSuccessfully)
	ctx.Step(`^ffmpeg fails with "([^"]*)"$`, ffmpegFailsWith)
	ctx.Step(`^whisper transcribes "([^"]*)"$`, whisperTranscribes)
	ctx.Step(`^whisper fails with "([^"]*)"$`, whisperFailsWith)
	ctx.Step(`^the language model returns:$`, theLanguageModelReturns)
	ctx.Step(`^I upload without a file$`, iUploadWithoutAFile)
	ctx.Step(`^I upload "([^"]*)"$`, iUpload)
	ctx.Step(`^the response status should be (\d+)$`, theResponseStatusShouldBe)
	ctx.Step(`^the error should be "([^"]*)"$`, theErrorShouldBe)
	ctx.Step(`^the error should start with "([^"]*)"$`, theErrorShouldStartWith)
	ctx.Step(`^nothing should be stored$`, nothingShouldBeStored)
	ctx.Step(`^the transcript should be "([^"]*)"$`, theTranscriptShouldBe)
	ctx.Step(`^the summary should be "([^"]*)"$`, theSummaryShouldBe)
	ctx.Step(`^there should be (\d+) task owned by "([^"]*)" due "([^"]*)"$`, thereShouldBeTaskOwnedByDue)
	ctx.Step(`^there should be no tasks$`, thereShouldBeNoTasks)
	ctx.Step(`^the response should be marked degraded$`, theResponseShouldBeMarkedDegraded)
	ctx.Step(`^ffmpeg should have written "([^"]*)"$`, ffmpegShouldHaveWritten)
	ctx.Step(`^ffmpeg should have been called with audio arguments:$`, ffmpegShouldHaveBeenCalledWithAudioArguments)
	ctx.Step(`^whisper should not have been called$`, whisperShouldNotHaveBeenCalled)
	ctx.Step(`^the language model should not have been called$`, theLanguageModelShouldNotHaveBeenCalled)
	ctx.Step(`^both uploads should succeed$`, bothUploadsShouldSucceed)
	ctx.Step(`^the audio paths should differ$`, theAudioPathsShouldDiffer)
}

func theSpokenLanguageIs(lang string) error {
	getPipelineContext().language = lang
	return nil
}

func ffmpegExtractsAudioSuccessfully() error {
	getPipelineContext().ffmpegErr = nil
	return nil
}

func ffmpegFailsWith(stderr string) error {
	getPipelineContext().ffmpegErr = &executor.CommandError{
		Name:     "ffmpeg",
		ExitCode: 1,
		Stderr:   stderr,
		Err:      errors.New("exit status 1"),
	}
	return nil
}

func whisperTranscribes(text string) error {
	getPipelineContext().whisper = func(call testutil.Call) (string, error) {
		prefix := testutil.ArgValue(call.Args, "--output-file")
		return "", os.WriteFile(prefix+".txt", []byte(text), 0644)
	}
	return nil
}

func whisperFailsWith(stderr string) error {
	getPipelineContext().whisper = func(testutil.Call) (string, error) {
		return "", &executor.CommandError{Name: "whisper", ExitCode: 1, Stderr: stderr, Err: errors.New("exit status 1")}
	}
	return nil
}

func theLanguageModelReturns(doc *godog.DocString) error {
	p := getPipelineContext()
	p.completer.content = doc.Content
	p.completer.err = nil
	return nil
}

// handler builds the real stages over a scripted executor. Step functions
// change the script, so it is read at call time.
func (p *pipelineContext) handler() http.Handler {
	log := logger.Nop()
	p.exec = &testutil.Executor{Run: func(call testutil.Call) (string, error) {
		if call.Name == "ffmpeg" {
			if p.ffmpegErr != nil {
				return "", p.ffmpegErr
			}
			return testutil.FFmpegWritingWAV(model.AudioChannels, model.AudioSampleRate, model.AudioBitsPerSample)(call)
		}
		return p.whisper(call)
	}}

	pl := pipeline.New(pipeline.Stages{
		Ingress:   ingress.New(storage.NewLocal(p.root), log),
		Extractor: extractor.New("ffmpeg", filepath.Join(p.root, "audio"), p.exec, log),
		Transcriber: transcriber.NewWhisper(config.WhisperConfig{
			BinaryPath: "whisper",
			ModelPath:  "ggml-base.bin",
			Threads:    1,
		}, p.language, p.exec, log),
		Summarizer: summarizer.New(p.completer, log),
	}, false, log)

	return httpapi.NewHandler(pl, httpapi.Options{}, log)
}

func (p *pipelineContext) post(body *bytes.Buffer, contentType string) {
	if p.h == nil {
		p.h = p.handler()
	}
	p.send(p.h, body, contentType)
}

func (p *pipelineContext) send(h http.Handler, body *bytes.Buffer, contentType string) {
	req := httptest.NewRequest(http.MethodPost, httpapi.UploadPath, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	p.responses = append(p.responses, rec)
}

func iUploadWithoutAFile() error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("language", "hi"); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	getPipelineContext().post(&body, mw.FormDataContentType())
	return nil
}

func iUpload(name string) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := fw.Write([]byte("fake media bytes")); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	getPipelineContext().post(&body, mw.FormDataContentType())
	return nil
}

func (p *pipelineContext) last() (*httptest.ResponseRecorder, error) {
	if len(p.responses) == 0 {
		return nil, fmt.Errorf("no request was sent")
	}
	return p.responses[len(p.responses)-1], nil
}

func (p *pipelineContext) lastResponse() (model.Response, error) {
	rec, err := p.last()
	if err != nil {
		return model.Response{}, err
	}
	var resp model.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		return model.Response{}, fmt.Errorf("decode response %q: %w", rec.Body.String(), err)
	}
	return resp, nil
}

func (p *pipelineContext) lastError() (string, error) {
	rec, err := p.last()
	if err != nil {
		return "", err
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		return "", fmt.Errorf("decode error body %q: %w", rec.Body.String(), err)
	}
	return body.Error, nil
}

func theResponseStatusShouldBe(status int) error {
	rec, err := getPipelineContext().last()
	if err != nil {
		return err
	}
	if rec.Code != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	return nil
}

func theErrorShouldBe(expected string) error {
	msg, err := getPipelineContext().lastError()
	if err != nil {
		return err
	}
	if msg != expected {
		return fmt.Errorf("expected error %q, got %q", expected, msg)
	}
	return nil
}

func theErrorShouldStartWith(prefix string) error {
	msg, err := getPipelineContext().lastError()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(msg, prefix) {
		return fmt.Errorf("expected error starting with %q, got %q", prefix, msg)
	}
	return nil
}

func nothingShouldBeStored() error {
	entries, err := os.ReadDir(getPipelineContext().root)
	if err != nil {
		return err
	}
	if len(entries) != 0 {
		return fmt.Errorf("expected empty storage, found %d entries", len(entries))
	}
	return nil
}

func theTranscriptShouldBe(expected string) error {
	resp, err := getPipelineContext().lastResponse()
	if err != nil {
		return err
	}
	if resp.Transcript != expected {
		return fmt.Errorf("expected transcript %q, got %q", expected, resp.Transcript)
	}
	return nil
}

func theSummaryShouldBe(expected string) error {
	resp, err := getPipelineContext().lastResponse()
	if err != nil {
		return err
	}
	if resp.Summary != expected {
		return fmt.Errorf("expected summary %q, got %q", expected, resp.Summary)
	}
	return nil
}

func thereShouldBeTaskOwnedByDue(count int, owner, deadline string) error {
	resp, err := getPipelineContext().lastResponse()
	if err != nil {
		return err
	}
	if len(resp.Tasks) != count {
		return fmt.Errorf("expected %d tasks, got %d", count, len(resp.Tasks))
	}
	for _, task := range resp.Tasks {
		if task.Owner != owner || task.Deadline != deadline {
			return fmt.Errorf("expected task owned by %q due %q, got %+v", owner, deadline, task)
		}
	}
	return nil
}

func thereShouldBeNoTasks() error {
	rec, err := getPipelineContext().last()
	if err != nil {
		return err
	}
	// The key must be present as an empty array, not null or missing.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		return err
	}
	if got := string(raw["tasks"]); got != "[]" {
		return fmt.Errorf("expected tasks to be [], got %s", got)
	}
	return nil
}

func theResponseShouldBeMarkedDegraded() error {
	resp, err := getPipelineContext().lastResponse()
	if err != nil {
		return err
	}
	if !resp.Degraded {
		return fmt.Errorf("expected degraded response")
	}
	return nil
}

func (p *pipelineContext) callsTo(name string) []testutil.Call {
	if p.exec == nil {
		return nil
	}
	var calls []testutil.Call
	for _, c := range p.exec.Calls {
		if c.Name == name {
			calls = append(calls, c)
		}
	}
	return calls
}

func ffmpegShouldHaveWritten(name string) error {
	calls := getPipelineContext().callsTo("ffmpeg")
	if len(calls) == 0 {
		return fmt.Errorf("ffmpeg was not called")
	}
	out := calls[len(calls)-1].Args[len(calls[len(calls)-1].Args)-1]
	if filepath.Base(out) != name {
		return fmt.Errorf("expected ffmpeg output %q, got %q", name, out)
	}
	return nil
}

func ffmpegShouldHaveBeenCalledWithAudioArguments(table *godog.Table) error {
	calls := getPipelineContext().callsTo("ffmpeg")
	if len(calls) == 0 {
		return fmt.Errorf("ffmpeg was not called")
	}
	args := calls[len(calls)-1].Args
	for _, row := range table.Rows {
		flag, value := row.Cells[0].Value, row.Cells[1].Value
		if got := testutil.ArgValue(args, flag); got != value {
			return fmt.Errorf("expected %s %s, got %q in %v", flag, value, got, args)
		}
	}
	return nil
}

func whisperShouldNotHaveBeenCalled() error {
	if calls := getPipelineContext().callsTo("whisper"); len(calls) != 0 {
		return fmt.Errorf("expected no whisper calls, got %d", len(calls))
	}
	return nil
}

func theLanguageModelShouldNotHaveBeenCalled() error {
	if n := getPipelineContext().completer.calls; n != 0 {
		return fmt.Errorf("expected no language model calls, got %d", n)
	}
	return nil
}

func bothUploadsShouldSucceed() error {
	p := getPipelineContext()
	if len(p.responses) != 2 {
		return fmt.Errorf("expected 2 responses, got %d", len(p.responses))
	}
	for i, rec := range p.responses {
		if rec.Code != http.StatusOK {
			return fmt.Errorf("upload %d: status %d: %s", i+1, rec.Code, rec.Body.String())
		}
	}
	return nil
}

func theAudioPathsShouldDiffer() error {
	calls := getPipelineContext().callsTo("ffmpeg")
	if len(calls) != 2 {
		return fmt.Errorf("expected 2 ffmpeg calls, got %d", len(calls))
	}
	first := calls[0].Args[len(calls[0].Args)-1]
	second := calls[1].Args[len(calls[1].Args)-1]
	if first == second {
		return fmt.Errorf("both uploads extracted to %s", first)
	}
	return nil
}
