package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/model"
	"github.com/nguyentantai21042004/meeting-flow/internal/testutil"
	"github.com/nguyentantai21042004/meeting-flow/pkg/executor"
)

func setup(t *testing.T, run func(testutil.Call) (string, error)) (*implExtractor, *testutil.Executor, model.MediaReference) {
	t.Helper()
	root := t.TempDir()

	src := filepath.Join(root, "videos", "k1", "meeting.mp4")
	if err := os.MkdirAll(filepath.Dir(src), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("media"), 0644); err != nil {
		t.Fatal(err)
	}

	exec := &testutil.Executor{Run: run}
	ex := New("ffmpeg-custom", filepath.Join(root, "audio"), exec, logger.Nop()).(*implExtractor)
	return ex, exec, model.MediaReference{Key: "k1", Name: "meeting.mp4", Path: src}
}

func TestExtract(t *testing.T) {
	ex, exec, ref := setup(t, testutil.FFmpegWritingWAV(1, 16000, 16))

	art, err := ex.Extract(context.Background(), ref)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	wantPath := filepath.Join(ex.audioRoot, "k1", "meeting.wav")
	if art.Path != wantPath {
		t.Errorf("Path = %q, want %q", art.Path, wantPath)
	}
	if art.Channels != 1 || art.SampleRate != 16000 || art.BitsPerSample != 16 {
		t.Errorf("artifact format = %+v", art)
	}

	if len(exec.Calls) != 1 {
		t.Fatalf("ffmpeg calls = %d, want 1", len(exec.Calls))
	}
	call := exec.Calls[0]
	if call.Name != "ffmpeg-custom" {
		t.Errorf("binary = %q, want ffmpeg-custom", call.Name)
	}

	checks := map[string]string{
		"-i":   ref.Path,
		"-ac":  "1",
		"-ar":  "16000",
		"-c:a": "pcm_s16le",
	}
	for flag, want := range checks {
		if got := testutil.ArgValue(call.Args, flag); got != want {
			t.Errorf("arg %s = %q, want %q", flag, got, want)
		}
	}
	if !containsArg(call.Args, "-y") || !containsArg(call.Args, "-vn") {
		t.Errorf("args %v missing -y or -vn", call.Args)
	}
}

func TestExtractOverwritesStaleArtifact(t *testing.T) {
	ex, exec, ref := setup(t, testutil.FFmpegWritingWAV(1, 16000, 16))

	stale := ex.OutputPath(ref)
	if err := os.MkdirAll(filepath.Dir(stale), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, err := ex.Extract(context.Background(), ref); err != nil {
			t.Fatalf("run %d: Extract() error = %v", i+1, err)
		}
	}

	if len(exec.Calls) != 2 {
		t.Errorf("ffmpeg calls = %d, want 2", len(exec.Calls))
	}
	data, err := os.ReadFile(stale)
	if err != nil {
		t.Fatal(err)
	}
	if string(data[:4]) != "RIFF" {
		t.Error("stale artifact was not replaced")
	}
}

func TestExtractFailures(t *testing.T) {
	tests := []struct {
		name    string
		run     func(testutil.Call) (string, error)
		wantMsg string
	}{
		{
			name: "ffmpeg exits non-zero",
			run: func(testutil.Call) (string, error) {
				return "", &executor.CommandError{
					Name:     "ffmpeg",
					ExitCode: 1,
					Stderr:   "Input #0\nmoov atom not found",
					Err:      errors.New("exit status 1"),
				}
			},
			wantMsg: "moov atom not found",
		},
		{
			name:    "no output written",
			run:     func(testutil.Call) (string, error) { return "", nil },
			wantMsg: "inspect output",
		},
		{
			name:    "stereo output",
			run:     testutil.FFmpegWritingWAV(2, 16000, 16),
			wantMsg: "2 channels",
		},
		{
			name:    "wrong sample rate",
			run:     testutil.FFmpegWritingWAV(1, 44100, 16),
			wantMsg: "sample rate 44100",
		},
		{
			name: "not a wav file",
			run: func(call testutil.Call) (string, error) {
				return "", os.WriteFile(call.Args[len(call.Args)-1], []byte("ID3 definitely mp3 bytes"), 0644)
			},
			wantMsg: "not a RIFF/WAVE file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, _, ref := setup(t, tt.run)

			_, err := ex.Extract(context.Background(), ref)

			var extErr *ExtractionError
			if !errors.As(err, &extErr) {
				t.Fatalf("Extract() error = %v, want *ExtractionError", err)
			}
			if extErr.Source != ref.Path {
				t.Errorf("Source = %q, want %q", extErr.Source, ref.Path)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestExtractMissingSource(t *testing.T) {
	ex, exec, ref := setup(t, testutil.FFmpegWritingWAV(1, 16000, 16))
	ref.Path = filepath.Join(filepath.Dir(ref.Path), "gone.mp4")

	_, err := ex.Extract(context.Background(), ref)

	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("Extract() error = %v, want *ExtractionError", err)
	}
	if len(exec.Calls) != 0 {
		t.Errorf("ffmpeg should not run for a missing source")
	}
}

func TestOutputPath(t *testing.T) {
	ex := New("", "/data/audio", nil, logger.Nop()).(*implExtractor)

	tests := []struct {
		name string
		ref  model.MediaReference
		want string
	}{
		{"uses name", model.MediaReference{Key: "a", Name: "meeting.mp4", Path: "/x/y.bin"}, "/data/audio/a/meeting.wav"},
		{"falls back to path", model.MediaReference{Key: "b", Path: "/x/standup.mov"}, "/data/audio/b/standup.wav"},
		{"multiple dots", model.MediaReference{Key: "c", Name: "q3.review.mkv"}, "/data/audio/c/q3.review.wav"},
		{"no extension", model.MediaReference{Key: "d", Name: "recording"}, "/data/audio/d/recording.wav"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ex.OutputPath(tt.ref); got != filepath.FromSlash(tt.want) {
				t.Errorf("OutputPath() = %q, want %q", got, tt.want)
			}
		})
	}

	a := ex.OutputPath(model.MediaReference{Key: "k1", Name: "meeting.mp4"})
	b := ex.OutputPath(model.MediaReference{Key: "k2", Name: "meeting.mp4"})
	if a == b {
		t.Errorf("same filename with different keys collided on %q", a)
	}
}

func TestReadWAVFormatSkipsChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.wav")

	hdr := testutil.WAVHeader(1, 16000, 16, 0)
	// RIFF/WAVE, then a LIST chunk ahead of fmt, as some muxers write.
	list := []byte{'L', 'I', 'S', 'T', 3, 0, 0, 0, 'a', 'b', 'c', 0}
	data := append(append(append([]byte{}, hdr[:12]...), list...), hdr[12:]...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	f, err := readWAVFormat(path)
	if err != nil {
		t.Fatalf("readWAVFormat() error = %v", err)
	}
	if err := f.check(); err != nil {
		t.Errorf("check() error = %v", err)
	}
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}
