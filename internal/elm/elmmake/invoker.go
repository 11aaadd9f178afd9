// Package elmmake runs `elm make` and exposes its diagnostic channel as a
// line-oriented stream.
package elmmake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"sync"
)

// DefaultTool is the compiler executable looked up on PATH.
const DefaultTool = "elm"

// ErrToolUnavailable reports that the compiler executable could not be located.
var ErrToolUnavailable = errors.New("elm executable not found")

// Invoker starts one compiler run for a target file.
type Invoker interface {
	Make(ctx context.Context, file string) (Invocation, error)
}

// Invocation is a running compiler process.
//
// Stderr must be fully consumed before Wait. Close releases the stream and
// reaps the process; it is safe to call on every exit path, more than once.
type Invocation interface {
	Stderr() io.Reader
	Wait() error
	Close() error
}

// ExecInvoker spawns the real compiler.
type ExecInvoker struct {
	// Tool is the executable name or path; empty means DefaultTool.
	Tool string
	// Dir is the working directory, normally the workspace root.
	Dir string
}

// MakeArgs returns the fixed argument list for checking file.
func MakeArgs(file string) []string {
	return []string{"make", file, "--report=json", "--output=" + os.DevNull}
}

func (e *ExecInvoker) tool() string {
	if e.Tool == "" {
		return DefaultTool
	}
	return e.Tool
}

// Make starts `elm make <file> --report=json --output=/dev/null`.
// A missing executable yields ErrToolUnavailable; other start failures are
// returned as-is.
func (e *ExecInvoker) Make(ctx context.Context, file string) (Invocation, error) {
	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, e.tool(), MakeArgs(file)...)
	cmd.Dir = e.Dir

	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		_ = stderr.Close()
		cancel()
		if isNotFound(err, cmd.Path) {
			return nil, fmt.Errorf("%w: %s: %w", ErrToolUnavailable, e.tool(), err)
		}
		return nil, err
	}
	return &Process{cmd: cmd, stderr: stderr, cancel: cancel}, nil
}

// isNotFound distinguishes a missing executable from other start failures
// such as a missing working directory.
func isNotFound(err error, path string) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var pathErr *fs.PathError
	return errors.As(err, &pathErr) && pathErr.Path == path && errors.Is(pathErr.Err, fs.ErrNotExist)
}

// Process is an Invocation backed by os/exec.
type Process struct {
	cmd    *exec.Cmd
	stderr io.ReadCloser
	cancel context.CancelFunc

	closeOnce sync.Once
	waitOnce  sync.Once
	waitErr   error
}

// Stderr returns the diagnostic channel.
func (p *Process) Stderr() io.Reader { return p.stderr }

// Wait reaps the process. A non-zero exit status or a signal is not an error:
// the compiler exits 1 whenever it reports problems.
func (p *Process) Wait() error {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			p.waitErr = err
		}
	})
	return p.waitErr
}

// Close closes the diagnostic stream, stops the process if it is still
// running and reaps it.
func (p *Process) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.stderr.Close()
		if errors.Is(err, os.ErrClosed) {
			err = nil
		}
		p.cancel()
		_ = p.Wait()
	})
	return err
}
