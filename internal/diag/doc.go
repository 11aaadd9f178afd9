// Package diag defines the editor-facing diagnostic model and the mapping
// from compiler issues onto it.
//
// # Data model
//
// Diagnostic mirrors the LSP Diagnostic record:
//
//   - Range – 0-based, start and end inclusive of the reported region.
//   - Severity – LSP numeric severity (Error = 1, Warning = 2).
//   - Message – "<overview> - <details>" with terminal style codes removed.
//   - Source – always "Elm".
//
// FileGroup pairs a document URI with the diagnostics reported for it, in the
// order the compiler emitted them.
//
// # Mapping
//
// FromIssue is a pure conversion from report.Issue. It performs no IO and
// carries no state, so callers may map issues from concurrent checks freely.
//
// Package diag does not format or publish anything. Rendering lives in
// internal/diagfmt and publishing in internal/lsp.
package diag
