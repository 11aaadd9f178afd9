package diagfmt

import (
	"encoding/json"
	"io"

	"elmdiag/internal/diag"
)

// DiagnosticJSON is one diagnostic with 1-based positions.
type DiagnosticJSON struct {
	Severity  string `json:"severity" msgpack:"severity"`
	Line      int    `json:"line" msgpack:"line"`
	Column    int    `json:"column" msgpack:"column"`
	EndLine   int    `json:"end_line" msgpack:"end_line"`
	EndColumn int    `json:"end_column" msgpack:"end_column"`
	Message   string `json:"message" msgpack:"message"`
	Source    string `json:"source" msgpack:"source"`
}

// FileJSON groups the diagnostics for one file.
type FileJSON struct {
	URI         string           `json:"uri" msgpack:"uri"`
	Path        string           `json:"path" msgpack:"path"`
	Diagnostics []DiagnosticJSON `json:"diagnostics" msgpack:"diagnostics"`
}

// DiagnosticsOutput is the root of JSON output.
type DiagnosticsOutput struct {
	Files    []FileJSON `json:"files" msgpack:"files"`
	Count    int        `json:"count" msgpack:"count"`
	Errors   int        `json:"errors" msgpack:"errors"`
	Warnings int        `json:"warnings" msgpack:"warnings"`
}

// BuildDiagnosticsOutput формирует структуру вывода без сериализации.
// Group and diagnostic order is preserved; Max cuts the tail.
func BuildDiagnosticsOutput(groups []diag.FileGroup, opts JSONOpts) DiagnosticsOutput {
	out := DiagnosticsOutput{Files: make([]FileJSON, 0, len(groups))}
	for _, g := range groups {
		if opts.Max > 0 && out.Count >= opts.Max {
			break
		}
		file := FileJSON{
			URI:         g.URI,
			Path:        displayPath(g.URI, opts.PathMode, opts.BaseDir),
			Diagnostics: make([]DiagnosticJSON, 0, len(g.Diagnostics)),
		}
		for _, d := range g.Diagnostics {
			if opts.Max > 0 && out.Count >= opts.Max {
				break
			}
			file.Diagnostics = append(file.Diagnostics, DiagnosticJSON{
				Severity:  d.Severity.String(),
				Line:      d.Range.Start.Line + 1,
				Column:    d.Range.Start.Character + 1,
				EndLine:   d.Range.End.Line + 1,
				EndColumn: d.Range.End.Character + 1,
				Message:   d.Message,
				Source:    d.Source,
			})
			out.Count++
			switch d.Severity {
			case diag.SevError:
				out.Errors++
			case diag.SevWarning:
				out.Warnings++
			}
		}
		out.Files = append(out.Files, file)
	}
	return out
}

// JSON writes groups as a single JSON document.
func JSON(w io.Writer, groups []diag.FileGroup, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	if opts.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(BuildDiagnosticsOutput(groups, opts))
}
