package diagfmt

import (
	"encoding/json"
	"io"
	"strings"

	"elmdiag/internal/diag"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
)

type sarifDocument struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema,omitempty"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

// Sarif форматирует диагностики в SARIF 2.1.0. The rule id is the compiler's
// problem title, the part of the message before " - ".
func Sarif(w io.Writer, groups []diag.FileGroup, meta SarifRunMeta) error {
	name := meta.ToolName
	if name == "" {
		name = "elmdiag"
	}
	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: name, Version: meta.ToolVersion}},
		Results: []sarifResult{},
	}
	for _, g := range groups {
		for _, d := range g.Diagnostics {
			title, _, _ := strings.Cut(d.Message, " - ")
			run.Results = append(run.Results, sarifResult{
				RuleID:  title,
				Level:   sarifLevel(d.Severity),
				Message: sarifMessage{Text: d.Message},
				Locations: []sarifLocation{{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{URI: g.URI},
						Region: sarifRegion{
							StartLine:   d.Range.Start.Line + 1,
							StartColumn: d.Range.Start.Character + 1,
							EndLine:     d.Range.End.Line + 1,
							EndColumn:   d.Range.End.Character + 1,
						},
					},
				}},
			})
		}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(sarifDocument{Version: sarifVersion, Schema: sarifSchema, Runs: []sarifRun{run}})
}

func sarifLevel(s diag.Severity) string {
	if s == diag.SevWarning {
		return "warning"
	}
	return "error"
}
