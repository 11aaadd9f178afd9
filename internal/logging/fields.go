package logging

// Structured field keys.
const (
	FieldError  = "error"
	FieldFile   = "file"
	FieldFiles  = "files"
	FieldRoot   = "root"
	FieldTool   = "tool"
	FieldURI    = "uri"
	FieldMethod = "method"

	FieldIssues      = "issues"
	FieldGroups      = "groups"
	FieldDiagnostics = "diagnostics"
	FieldDuration    = "duration"

	FieldVersion = "version"
	FieldCommit  = "commit"
)
