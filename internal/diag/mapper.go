package diag

import (
	"regexp"

	"elmdiag/internal/elm/report"
)

// styleCode matches the bracketed part of an ANSI SGR sequence such as "[31m".
// The ESC byte preceding it, if any, is left untouched.
var styleCode = regexp.MustCompile(`\[\d+m`)

// CleanDetails strips terminal style codes from compiler detail text.
func CleanDetails(details string) string {
	return styleCode.ReplaceAllString(details, "")
}

// FromIssue converts a compiler issue into a Diagnostic.
// Regions are shifted from 1-based to 0-based without validation.
func FromIssue(issue report.Issue) Diagnostic {
	return Diagnostic{
		Range: Range{
			Start: fromPosition(issue.Region.Start),
			End:   fromPosition(issue.Region.End),
		},
		Severity: SeverityOf(issue.Type),
		Source:   Source,
		Message:  issue.Overview + " - " + CleanDetails(issue.Details),
	}
}

// FromIssues maps issues in order.
func FromIssues(issues []report.Issue) []Diagnostic {
	out := make([]Diagnostic, 0, len(issues))
	for _, issue := range issues {
		out = append(out, FromIssue(issue))
	}
	return out
}

func fromPosition(p report.Position) Position {
	return Position{Line: p.Line - 1, Character: p.Column - 1}
}
