package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	ErrCommand  = errors.New("command failed")
	ErrNotFound = errors.New("executable not found")
)

// Runner executes external programs.
// This interface allows for mocking process execution in tests.
type Runner interface {
	// Run executes name with args and returns its standard output
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs programs with os/exec
type ExecRunner struct {
	// Dir is the working directory (empty = current directory)
	Dir string
	// Env holds extra KEY=VALUE pairs appended to the process environment
	Env []string
}

// NewExecRunner creates a runner in the current directory
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the program, killing it when ctx ends. A non-zero exit is
// reported as ErrCommand joined with the trimmed stderr.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// Wrap the error with stderr for context
		if stderr := strings.TrimSpace(stderrBuf.String()); stderr != "" {
			return nil, errors.Join(ErrCommand, fmt.Errorf("%s %s: %s", name, strings.Join(args, " "), stderr))
		}
		return nil, errors.Join(ErrCommand, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err))
	}

	return stdoutBuf.Bytes(), nil
}

// Ensure ExecRunner implements Runner interface
var _ Runner = (*ExecRunner)(nil)
