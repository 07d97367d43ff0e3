package source

import (
	"os"
	"path/filepath"
)

// FileID indexes a FileSet in the order files were added.
type FileID uint32

// FileFlags records how a file's content was obtained and normalized.
type FileFlags uint8

const (
	// FileVirtual marks content that did not come from disk; fixes never
	// rewrite it.
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File is one source text after BOM removal and CRLF folding. LineIdx
// holds the offset of every '\n'; Hash is the SHA-256 of Content and keys
// the analysis cache.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 1-based line and byte column.
type LineCol struct {
	Line uint32
	Col  uint32
}

// Position converts a byte offset of f into a line and column.
func (f *File) Position(off uint32) LineCol {
	return toLineCol(f.LineIdx, off)
}

// GetLine returns line n (1-based) without its newline, or "" past the end.
func (f *File) GetLine(n uint32) string {
	if n == 0 || int(n) > len(f.LineIdx)+1 {
		return ""
	}
	start, end := uint32(0), uint32(len(f.Content)) //nolint:gosec // bounded by FileSet.Add
	if n > 1 {
		start = f.LineIdx[n-2] + 1
	}
	if int(n) <= len(f.LineIdx) {
		end = f.LineIdx[n-1]
	}
	if start > end {
		return ""
	}
	return string(f.Content[start:end])
}

// FormatPath renders the path for output. mode is "absolute", "relative"
// (to baseDir, or the working directory when empty), "basename", or "auto",
// which shortens long absolute paths to their base name.
func (f *File) FormatPath(mode, baseDir string) string {
	switch mode {
	case "basename":
		return filepath.Base(f.Path)
	case "auto":
		if filepath.IsAbs(f.Path) && len(f.Path) >= 40 {
			return filepath.Base(f.Path)
		}
		return f.Path
	}
	abs, err := filepath.Abs(f.Path)
	if err != nil {
		return f.Path
	}
	switch mode {
	case "absolute":
		return filepath.ToSlash(abs)
	case "relative":
		if baseDir == "" {
			baseDir, _ = os.Getwd()
		}
		if rel, err := filepath.Rel(baseDir, abs); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return f.Path
}
