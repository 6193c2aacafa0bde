// Package testutil holds fakes shared by package tests and the feature suite.
package testutil

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
)

// WAVHeader returns a canonical 44-byte PCM WAV header followed by
// dataBytes zero bytes of audio.
func WAVHeader(channels, sampleRate, bitsPerSample, dataBytes int) []byte {
	blockAlign := channels * bitsPerSample / 8
	buf := make([]byte, 44+dataBytes)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataBytes))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(bitsPerSample))
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataBytes))
	return buf
}

// WriteWAV writes a WAV file with the given format, creating parent dirs.
func WriteWAV(path string, channels, sampleRate, bitsPerSample int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, WAVHeader(channels, sampleRate, bitsPerSample, 320), 0644)
}

// Call records one command passed to an Executor.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// Executor is a scripted executor.Executor. Run decides the outcome of each
// call; a nil Run succeeds with empty output.
type Executor struct {
	mu    sync.Mutex
	Calls []Call
	Run   func(call Call) (string, error)
}

func (e *Executor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	return e.ExecuteInDir(ctx, "", name, args...)
}

func (e *Executor) ExecuteInDir(ctx context.Context, dir string, name string, args ...string) (string, error) {
	call := Call{Dir: dir, Name: name, Args: append([]string(nil), args...)}

	e.mu.Lock()
	e.Calls = append(e.Calls, call)
	run := e.Run
	e.mu.Unlock()

	if run == nil {
		return "", nil
	}
	return run(call)
}

// FFmpegWritingWAV returns a Run func that behaves like a successful ffmpeg
// audio extraction, writing a WAV of the given format to the last argument.
func FFmpegWritingWAV(channels, sampleRate, bitsPerSample int) func(Call) (string, error) {
	return func(call Call) (string, error) {
		out := call.Args[len(call.Args)-1]
		return "", WriteWAV(out, channels, sampleRate, bitsPerSample)
	}
}

// ArgValue returns the argument following flag, or "".
func ArgValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}
