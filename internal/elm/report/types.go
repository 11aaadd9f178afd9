// Package report decodes the JSON reports that `elm make --report=json`
// writes to its diagnostic channel, one document per line.
package report

// Position is a 1-based line/column pair as emitted by the compiler.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Region is a 1-based inclusive span. It is passed through unvalidated.
type Region struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Issue is one compiler-reported problem before rendering.
type Issue struct {
	File     string
	Region   Region
	Overview string
	Details  string
	// Type carries the severity string ("error", "warning", ...).
	Type string
}

// TypeError is the severity string attached to every decoded issue.
const TypeError = "error"

// Document discriminants.
const (
	KindCompileErrors = "compile-errors"
	KindError         = "error"
)

// fileLevelRegion is used for reports that do not point into a file.
var fileLevelRegion = Region{
	Start: Position{Line: 1, Column: 1},
	End:   Position{Line: 1, Column: 1},
}

// generalErrorFallbackPath is used when an "error" report has no path;
// such reports are almost always about the project manifest.
const generalErrorFallbackPath = "./elm.json"
