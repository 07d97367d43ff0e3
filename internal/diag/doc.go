// Package diag defines the diagnostic model shared by the lexer, the parser
// and the semantic engine.
//
// Diagnostic is the central record: severity, a numeric Code with a stable
// string ID (LEX1xxx, SYN2xxx, SEM3xxx, IO4xxx, CFG5xxx, OBS6xxx), a short
// message, a primary span, optional notes and optional fixes.
//
// Producers emit through a Reporter so they stay decoupled from storage.
// The usual path is a ReportBuilder:
//
//	diag.ReportError(r, diag.SemaNameNotFound, span, "'x' was not declared").
//		WithNote(declSpan, "did you mean 'y'?").
//		Emit()
//
// BagReporter collects into a Bag, which supports sorting, deduplication and
// a capacity limit. Rendering lives in internal/diagfmt.
//
// Semantic problems are first-class values inside the engine (problem
// bindings and problem types); diagnostics are derived from them when a
// translation unit is checked and never drive control flow.
package diag
