package executor

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestExecute(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	out, err := New().Execute(context.Background(), "sh", "-c", "printf hello")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "hello" {
		t.Errorf("Execute() = %q, want hello", out)
	}
}

func TestExecuteInDir(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	out, err := New().ExecuteInDir(context.Background(), dir, "sh", "-c", "pwd")
	if err != nil {
		t.Fatalf("ExecuteInDir() error = %v", err)
	}
	if !strings.Contains(strings.TrimSpace(out), dir) {
		t.Errorf("ExecuteInDir() pwd = %q, want %q", out, dir)
	}
}

func TestExecuteFailure(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	_, err := New().Execute(context.Background(), "sh", "-c", "echo first >&2; echo 'Invalid data found' >&2; exit 3")
	if err == nil {
		t.Fatal("Execute() expected error")
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error type = %T, want *CommandError", err)
	}
	if cmdErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", cmdErr.ExitCode)
	}
	if cmdErr.LastLine() != "Invalid data found" {
		t.Errorf("LastLine() = %q", cmdErr.LastLine())
	}
}

func TestExecuteMissingBinary(t *testing.T) {
	_, err := New().Execute(context.Background(), "definitely-not-a-real-binary-xyz")

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error type = %T, want *CommandError", err)
	}
	if cmdErr.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", cmdErr.ExitCode)
	}
	if cmdErr.LastLine() == "" {
		t.Error("LastLine() should fall back to the start error")
	}
}
