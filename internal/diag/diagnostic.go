package diag

// Source labels every diagnostic produced by the compiler bridge.
const Source = "Elm"

// Position is a 0-based line/character pair.
type Position struct {
	Line      int `json:"line" msgpack:"line"`
	Character int `json:"character" msgpack:"character"`
}

// Range spans two positions.
type Range struct {
	Start Position `json:"start" msgpack:"start"`
	End   Position `json:"end" msgpack:"end"`
}

type Diagnostic struct {
	Range    Range    `json:"range" msgpack:"range"`
	Severity Severity `json:"severity" msgpack:"severity"`
	Source   string   `json:"source" msgpack:"source"`
	Message  string   `json:"message" msgpack:"message"`
}

// FileGroup holds the diagnostics reported against one document.
type FileGroup struct {
	URI         string       `json:"uri" msgpack:"uri"`
	Diagnostics []Diagnostic `json:"diagnostics" msgpack:"diagnostics"`
}

// CountBySeverity returns the number of errors and warnings across groups.
func CountBySeverity(groups []FileGroup) (errs, warns int) {
	for _, g := range groups {
		for _, d := range g.Diagnostics {
			switch d.Severity {
			case SevError:
				errs++
			case SevWarning:
				warns++
			}
		}
	}
	return errs, warns
}

// HasErrors reports whether any group carries an Error diagnostic.
func HasErrors(groups []FileGroup) bool {
	errs, _ := CountBySeverity(groups)
	return errs > 0
}
