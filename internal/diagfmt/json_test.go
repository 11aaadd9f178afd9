package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"elmdiag/internal/diag"
)

// TestJSONBasic проверяет базовое JSON форматирование
func TestJSONBasic(t *testing.T) {
	groups := sampleGroups("/ws/src/Main.elm")

	var buf bytes.Buffer
	if err := JSON(&buf, groups, JSONOpts{PathMode: PathModeRelative, BaseDir: "/ws", Indent: true}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	if output.Count != 2 || output.Errors != 1 || output.Warnings != 1 {
		t.Fatalf("unexpected counts: %+v", output)
	}
	if len(output.Files) != 1 {
		t.Fatalf("Expected 1 file, got %d", len(output.Files))
	}
	file := output.Files[0]
	if file.Path != "src/Main.elm" || file.URI != "file:///ws/src/Main.elm" {
		t.Errorf("unexpected file identity: %+v", file)
	}
	d := file.Diagnostics[0]
	if d.Severity != "ERROR" || d.Line != 2 || d.Column != 9 || d.EndLine != 2 || d.EndColumn != 14 {
		t.Errorf("unexpected diagnostic: %+v", d)
	}
	if d.Source != "Elm" {
		t.Errorf("Expected source Elm, got %q", d.Source)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Errorf("expected indented output")
	}
}

func TestJSONMax(t *testing.T) {
	groups := append(sampleGroups("/ws/A.elm"), sampleGroups("/ws/B.elm")...)
	out := BuildDiagnosticsOutput(groups, JSONOpts{Max: 3})
	if out.Count != 3 {
		t.Fatalf("Expected count=3, got %d", out.Count)
	}
	if len(out.Files) != 2 || len(out.Files[1].Diagnostics) != 1 {
		t.Fatalf("unexpected truncation: %+v", out.Files)
	}
}

func TestJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, nil, JSONOpts{}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"files":[],"count":0,"errors":0,"warnings":0}` {
		t.Fatalf("unexpected empty output: %s", got)
	}
}

func TestSarif(t *testing.T) {
	var buf bytes.Buffer
	if err := Sarif(&buf, sampleGroups("/ws/Main.elm"), SarifRunMeta{ToolVersion: "0.1.0"}); err != nil {
		t.Fatalf("Sarif: %v", err)
	}
	var doc sarifDocument
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid SARIF: %v", err)
	}
	if doc.Version != "2.1.0" || len(doc.Runs) != 1 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	run := doc.Runs[0]
	if run.Tool.Driver.Name != "elmdiag" || run.Tool.Driver.Version != "0.1.0" {
		t.Fatalf("unexpected driver: %+v", run.Tool.Driver)
	}
	if len(run.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(run.Results))
	}
	first := run.Results[0]
	if first.RuleID != "TYPE MISMATCH" || first.Level != "error" {
		t.Fatalf("unexpected first result: %+v", first)
	}
	region := first.Locations[0].PhysicalLocation.Region
	if region.StartLine != 2 || region.StartColumn != 9 {
		t.Fatalf("unexpected region: %+v", region)
	}
	if run.Results[1].Level != "warning" {
		t.Fatalf("expected warning level, got %q", run.Results[1].Level)
	}
}

func TestSarifNoResults(t *testing.T) {
	var buf bytes.Buffer
	if err := Sarif(&buf, []diag.FileGroup{}, SarifRunMeta{}); err != nil {
		t.Fatalf("Sarif: %v", err)
	}
	if !strings.Contains(buf.String(), `"results": []`) {
		t.Fatalf("results must be an empty array, got %s", buf.String())
	}
}
