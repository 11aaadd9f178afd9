package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedLine is returned when a diagnostic line is not valid JSON.
var ErrMalformedLine = errors.New("malformed report line")

// LineError locates a malformed line in the stream.
type LineError struct {
	Line int   // 1-based line number in the stream
	Err  error // wraps ErrMalformedLine
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Report is a decoded compiler document. The only implementations are
// *CompileErrors and *GeneralError.
type Report interface {
	Issues() []Issue
	isReport()
}

// CompileErrors lists per-file problems.
type CompileErrors struct {
	Errors []FileErrors `json:"errors"`
}

// FileErrors holds the problems reported against one file.
type FileErrors struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Problems []Problem `json:"problems"`
}

// Problem is one positional problem inside a file.
type Problem struct {
	Title   string  `json:"title"`
	Region  Region  `json:"region"`
	Message Message `json:"message"`
}

// GeneralError is a top-level error that does not point into a file region.
type GeneralError struct {
	Path    string  `json:"path"`
	Title   string  `json:"title"`
	Message Message `json:"message"`
}

func (*CompileErrors) isReport() {}
func (*GeneralError) isReport()  {}

// Issues expands every problem of every file, in document order.
func (c *CompileErrors) Issues() []Issue {
	var out []Issue
	for _, fe := range c.Errors {
		for _, p := range fe.Problems {
			out = append(out, Issue{
				File:     fe.Path,
				Region:   p.Region,
				Overview: p.Title,
				Details:  p.Message.Render(),
				Type:     TypeError,
			})
		}
	}
	return out
}

// Issues returns exactly one issue anchored at the top of the file.
func (g *GeneralError) Issues() []Issue {
	path := g.Path
	if path == "" {
		path = generalErrorFallbackPath
	}
	return []Issue{{
		File:     path,
		Region:   fileLevelRegion,
		Overview: g.Title,
		Details:  g.Message.Render(),
		Type:     TypeError,
	}}
}

type envelope struct {
	Type string `json:"type"`
}

// Decode decodes one document. Unknown discriminants yield (nil, nil).
func Decode(line []byte) (Report, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedLine, err)
	}
	var rep Report
	switch env.Type {
	case KindCompileErrors:
		rep = &CompileErrors{}
	case KindError:
		rep = &GeneralError{}
	default:
		return nil, nil
	}
	if err := json.Unmarshal(line, rep); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedLine, env.Type, err)
	}
	return rep, nil
}

// maxLineSize bounds a single document; compile-errors reports arrive on one line.
const maxLineSize = 16 * 1024 * 1024

// Stream decodes r line by line and calls fn for each issue in arrival order.
// The first malformed line stops the stream with a *LineError.
func Stream(r io.Reader, fn func(Issue)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		rep, err := Decode(line)
		if err != nil {
			return &LineError{Line: lineNo, Err: err}
		}
		if rep == nil {
			continue
		}
		for _, issue := range rep.Issues() {
			fn(issue)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning compiler report: %w", err)
	}
	return nil
}

// Parse collects every issue from r. No partial result is returned on error.
func Parse(r io.Reader) ([]Issue, error) {
	var issues []Issue
	if err := Stream(r, func(i Issue) { issues = append(issues, i) }); err != nil {
		return nil, err
	}
	return issues, nil
}
