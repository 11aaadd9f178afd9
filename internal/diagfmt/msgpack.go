package diagfmt

import (
	"fmt"
	"io"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"elmdiag/internal/diag"
)

// msgpackSchema versions the binary layout.
const msgpackSchema = 1

// PositionPack is a 1-based position on the wire.
type PositionPack struct {
	Line   uint32 `msgpack:"l"`
	Column uint32 `msgpack:"c"`
}

type DiagnosticPack struct {
	Severity uint8        `msgpack:"sev"`
	Start    PositionPack `msgpack:"s"`
	End      PositionPack `msgpack:"e"`
	Message  string       `msgpack:"msg"`
	Source   string       `msgpack:"src"`
}

type FilePack struct {
	URI         string           `msgpack:"uri"`
	Diagnostics []DiagnosticPack `msgpack:"d"`
}

// ReportPack is the root of msgpack output.
type ReportPack struct {
	Schema uint16     `msgpack:"v"`
	Files  []FilePack `msgpack:"f"`
}

// Msgpack writes groups in the compact binary schema. Positions must be
// non-negative.
func Msgpack(w io.Writer, groups []diag.FileGroup) error {
	pack := ReportPack{Schema: msgpackSchema, Files: make([]FilePack, 0, len(groups))}
	for _, g := range groups {
		file := FilePack{URI: g.URI, Diagnostics: make([]DiagnosticPack, 0, len(g.Diagnostics))}
		for _, d := range g.Diagnostics {
			start, err := packPosition(d.Range.Start)
			if err != nil {
				return fmt.Errorf("%s: start: %w", g.URI, err)
			}
			end, err := packPosition(d.Range.End)
			if err != nil {
				return fmt.Errorf("%s: end: %w", g.URI, err)
			}
			file.Diagnostics = append(file.Diagnostics, DiagnosticPack{
				Severity: uint8(d.Severity),
				Start:    start,
				End:      end,
				Message:  d.Message,
				Source:   d.Source,
			})
		}
		pack.Files = append(pack.Files, file)
	}
	return msgpack.NewEncoder(w).Encode(&pack)
}

// DecodeMsgpack reads a report written by Msgpack back into groups.
func DecodeMsgpack(r io.Reader) ([]diag.FileGroup, error) {
	var pack ReportPack
	if err := msgpack.NewDecoder(r).Decode(&pack); err != nil {
		return nil, err
	}
	if pack.Schema != msgpackSchema {
		return nil, fmt.Errorf("unsupported msgpack schema %d", pack.Schema)
	}
	groups := make([]diag.FileGroup, 0, len(pack.Files))
	for _, f := range pack.Files {
		g := diag.FileGroup{URI: f.URI, Diagnostics: make([]diag.Diagnostic, 0, len(f.Diagnostics))}
		for _, d := range f.Diagnostics {
			g.Diagnostics = append(g.Diagnostics, diag.Diagnostic{
				Range:    diag.Range{Start: unpackPosition(d.Start), End: unpackPosition(d.End)},
				Severity: diag.Severity(d.Severity),
				Source:   d.Source,
				Message:  d.Message,
			})
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func packPosition(p diag.Position) (PositionPack, error) {
	line, err := safecast.Conv[uint32](p.Line + 1)
	if err != nil {
		return PositionPack{}, fmt.Errorf("line %d: %w", p.Line, err)
	}
	col, err := safecast.Conv[uint32](p.Character + 1)
	if err != nil {
		return PositionPack{}, fmt.Errorf("column %d: %w", p.Character, err)
	}
	return PositionPack{Line: line, Column: col}, nil
}

func unpackPosition(p PositionPack) diag.Position {
	return diag.Position{Line: int(p.Line) - 1, Character: int(p.Column) - 1}
}
