// Package fuzztests holds fuzz harnesses for the front end: lexing,
// parsing and semantic analysis of arbitrary bytes must neither panic nor
// hang, and parsed trees must keep their span invariants.
package fuzztests
