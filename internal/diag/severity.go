package diag

// Severity is the LSP DiagnosticSeverity value.
type Severity uint8

const (
	// SevError marks a problem that prevents compilation.
	SevError Severity = 1
	// SevWarning marks a problem the compiler tolerates.
	SevWarning Severity = 2
)

func (s Severity) String() string {
	switch s {
	case SevError:
		return "ERROR"
	case SevWarning:
		return "WARNING"
	}
	return "UNKNOWN"
}

// SeverityOf maps an issue type string onto a Severity.
// Anything other than "error" or "warning" is treated as an error.
func SeverityOf(kind string) Severity {
	switch kind {
	case "warning":
		return SevWarning
	case "error":
		return SevError
	default:
		return SevError
	}
}
