package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// SourcePattern matches the translation units picked up from directories.
const SourcePattern = "**/*.{cpp,cc,cxx,c++,C,hpp,hh,hxx,h}"

// DiscoverFiles expands args into a sorted, de-duplicated file list.
// An argument is a file, a directory (searched with SourcePattern) or a
// doublestar glob. When args is empty the include patterns are used.
// Paths matching an exclude pattern are dropped.
func DiscoverFiles(args, include, exclude []string) ([]string, error) {
	if len(args) == 0 {
		args = include
	}
	seen := make(map[string]bool)
	var out []string
	add := func(p string) error {
		p = filepath.Clean(p)
		if seen[p] {
			return nil
		}
		ex, err := excluded(p, exclude)
		if err != nil {
			return err
		}
		if !ex {
			seen[p] = true
			out = append(out, p)
		}
		return nil
	}
	for _, arg := range args {
		info, statErr := os.Stat(arg)
		var matches []string
		var err error
		switch {
		case statErr == nil && info.IsDir():
			matches, err = doublestar.Glob(os.DirFS(arg), SourcePattern, doublestar.WithFilesOnly())
			for i, m := range matches {
				matches[i] = filepath.Join(arg, filepath.FromSlash(m))
			}
		case statErr == nil:
			matches = []string{arg}
		case !doublestar.ValidatePathPattern(arg):
			return nil, fmt.Errorf("invalid pattern %q", arg)
		default:
			matches, err = doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err == nil && len(matches) == 0 && !hasMeta(arg) {
				return nil, fmt.Errorf("%s: %w", arg, fs.ErrNotExist)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", arg, err)
		}
		for _, m := range matches {
			if err := add(m); err != nil {
				return nil, err
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

func excluded(path string, patterns []string) (bool, error) {
	slash := filepath.ToSlash(path)
	for _, pat := range patterns {
		ok, err := doublestar.Match(pat, slash)
		if err != nil {
			return false, fmt.Errorf("exclude pattern %q: %w", pat, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func hasMeta(p string) bool {
	for _, c := range p {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
