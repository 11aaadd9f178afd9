// Package checkrun checks a set of files concurrently and reports progress.
package checkrun

import (
	"errors"
	"time"

	"elmdiag/internal/diag"
)

// Status captures the progress of one file.
type Status string

const (
	// StatusQueued indicates the file is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusChecking indicates elm make is running for the file.
	StatusChecking Status = "checking"
	// StatusDone indicates the check finished, with or without diagnostics.
	StatusDone Status = "done"
	// StatusError indicates the check itself failed.
	StatusError Status = "error"
)

// Event reports progress for a file.
type Event struct {
	File        string
	Status      Status
	Diagnostics int
	Err         error
	Elapsed     time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// FileResult is the outcome of checking one file.
type FileResult struct {
	File    string
	Groups  []diag.FileGroup
	Err     error
	Elapsed time.Duration
}

// Result holds per-file outcomes in request order.
type Result struct {
	Files []FileResult
}

// Groups concatenates every file's groups in request order.
func (r Result) Groups() []diag.FileGroup {
	var out []diag.FileGroup
	for _, f := range r.Files {
		out = append(out, f.Groups...)
	}
	return out
}

// HasErrors reports whether any check failed or reported an Error diagnostic.
func (r Result) HasErrors() bool {
	for _, f := range r.Files {
		if f.Err != nil || diag.HasErrors(f.Groups) {
			return true
		}
	}
	return false
}

// Err joins every per-file failure.
func (r Result) Err() error {
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errors.Join(errs...)
}
