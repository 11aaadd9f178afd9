package diag

import (
	"encoding/json"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elmdiag/internal/elm/report"
)

func issueAt(l1, c1, l2, c2 int) report.Issue {
	return report.Issue{
		File: "/ws/src/Main.elm",
		Region: report.Region{
			Start: report.Position{Line: l1, Column: c1},
			End:   report.Position{Line: l2, Column: c2},
		},
		Overview: "TYPE MISMATCH",
		Details:  "Expected Int",
		Type:     "error",
	}
}

func TestFromIssueShiftsRange(t *testing.T) {
	d := FromIssue(issueAt(3, 5, 3, 9))
	assert.Equal(t, Range{Start: Position{Line: 2, Character: 4}, End: Position{Line: 2, Character: 8}}, d.Range)
	assert.Equal(t, "TYPE MISMATCH - Expected Int", d.Message)
	assert.Equal(t, SevError, d.Severity)
	assert.Equal(t, "Elm", d.Source)
}

func TestFromIssueFileLevelRegion(t *testing.T) {
	d := FromIssue(issueAt(1, 1, 1, 1))
	assert.Equal(t, Range{}, d.Range)
}

func TestFromIssueDoesNotValidateRegion(t *testing.T) {
	d := FromIssue(issueAt(0, 0, 0, 0))
	assert.Equal(t, Position{Line: -1, Character: -1}, d.Range.Start)
}

func TestCleanDetails(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"[31mred[0m text", "red text"},
		{"\x1b[1mbold\x1b[0m", "\x1bbold\x1b"},
		{"[m stays", "[m stays"},
		{"[12345m", ""},
		{"a[1;31mb", "a[1;31mb"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, CleanDetails(tc.in), "input %q", tc.in)
	}
}

func TestFromIssueCleansDetailsOnly(t *testing.T) {
	issue := issueAt(1, 1, 1, 2)
	issue.Overview = "[31mTITLE"
	issue.Details = "[4mdetail[0m"
	d := FromIssue(issue)
	assert.Equal(t, "[31mTITLE - detail", d.Message)
}

func TestSeverityOf(t *testing.T) {
	assert.Equal(t, SevError, SeverityOf("error"))
	assert.Equal(t, SevWarning, SeverityOf("warning"))
	assert.Equal(t, SevError, SeverityOf(""))
	assert.Equal(t, SevError, SeverityOf("info"))
	assert.Equal(t, SevError, SeverityOf("Warning"))
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "ERROR", SevError.String())
	assert.Equal(t, "WARNING", SevWarning.String())
	assert.Equal(t, "UNKNOWN", Severity(9).String())
}

func TestFromIssuesPreservesOrder(t *testing.T) {
	a := issueAt(1, 1, 1, 2)
	a.Overview = "A"
	b := issueAt(2, 1, 2, 2)
	b.Overview = "B"
	got := FromIssues([]report.Issue{a, b})
	require.Len(t, got, 2)
	assert.Equal(t, "A - Expected Int", got[0].Message)
	assert.Equal(t, "B - Expected Int", got[1].Message)
	assert.Empty(t, FromIssues(nil))
}

func TestCountBySeverity(t *testing.T) {
	groups := []FileGroup{
		{URI: "file:///a", Diagnostics: []Diagnostic{{Severity: SevError}, {Severity: SevWarning}}},
		{URI: "file:///b", Diagnostics: []Diagnostic{{Severity: SevWarning}}},
	}
	errs, warns := CountBySeverity(groups)
	assert.Equal(t, 1, errs)
	assert.Equal(t, 2, warns)
	assert.True(t, HasErrors(groups))
	assert.False(t, HasErrors(groups[1:]))
}

func TestDiagnosticJSONShape(t *testing.T) {
	group := FileGroup{URI: "file:///ws/A.elm", Diagnostics: []Diagnostic{FromIssue(issueAt(2, 3, 2, 7))}}
	data, err := json.Marshal(group)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"uri": "file:///ws/A.elm",
		"diagnostics": [{
			"range": {"start": {"line": 1, "character": 2}, "end": {"line": 1, "character": 6}},
			"severity": 1,
			"source": "Elm",
			"message": "TYPE MISMATCH - Expected Int"
		}]
	}`, string(data))
}

func TestURIRoundTrip(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix paths")
	}
	path := "/ws/src/My Module.elm"
	uri := PathToURI(path)
	assert.Equal(t, "file:///ws/src/My%20Module.elm", uri)
	assert.Equal(t, path, URIToPath(uri))
}

func TestURIToPathRejectsOtherSchemes(t *testing.T) {
	assert.Equal(t, "", URIToPath("untitled:Untitled-1"))
	assert.Equal(t, "", URIToPath(""))
	assert.Equal(t, "", PathToURI(""))
}

func TestURIToPathBarePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "A.elm")
	assert.Equal(t, path, URIToPath(path))
}
