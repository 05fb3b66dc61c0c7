package command

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExecRunnerStdout(t *testing.T) {
	r := NewExecRunner()
	out, err := r.Run(context.Background(), "sh", "-c", "printf hello")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("expected hello, got %q", out)
	}
}

func TestExecRunnerWorkDirAndEnv(t *testing.T) {
	dir := t.TempDir()
	r := &ExecRunner{Dir: dir, Env: []string{"VT_TEST=42"}}

	out, err := r.Run(context.Background(), "sh", "-c", `touch marker; printf "%s" "$VT_TEST"`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if string(out) != "42" {
		t.Errorf("expected env value 42, got %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "marker")); err != nil {
		t.Errorf("command did not run in %s: %v", dir, err)
	}
}

func TestExecRunnerFailureCarriesStderr(t *testing.T) {
	r := NewExecRunner()
	_, err := r.Run(context.Background(), "sh", "-c", "echo 'Error: No available cask' >&2; exit 1")
	if !errors.Is(err, ErrCommand) {
		t.Fatalf("expected ErrCommand, got %v", err)
	}
	if !strings.Contains(err.Error(), "No available cask") {
		t.Errorf("error should carry stderr, got %v", err)
	}
}

func TestExecRunnerMissingExecutable(t *testing.T) {
	r := NewExecRunner()
	_, err := r.Run(context.Background(), "definitely-not-a-real-binary-vt")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExecRunnerContextCancel(t *testing.T) {
	r := NewExecRunner()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Run(ctx, "sh", "-c", "sleep 5")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Error("process was not killed on context end")
	}
}
