package driver

import (
	"cppsema/internal/config"
	"cppsema/internal/diag"
	"cppsema/internal/lexer"
	"cppsema/internal/source"
	"cppsema/internal/token"
)

type TokenizeResult struct {
	FileSet *source.FileSet
	File    *source.File
	Tokens  []token.Token
	Bag     *diag.Bag
}

// Tokenize lexes path with object-like macros expanded.
func Tokenize(path string, cfg *config.Config) (*TokenizeResult, error) {
	fs, id, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	bag := diag.NewBag(cfg.Engine.MaxDiagnostics)
	file := fs.Get(id)
	toks := lexer.Tokenize(file, lexer.Options{
		Reporter:   diag.BagReporter{Bag: bag},
		GNU:        cfg.Engine.GNUExtensions,
		Expansions: fs.Expansions(id),
	})
	return &TokenizeResult{FileSet: fs, File: file, Tokens: toks, Bag: bag}, nil
}

// loadFile gives each translation unit its own FileSet; units are analyzed
// on separate goroutines and share nothing.
func loadFile(path string) (*source.FileSet, source.FileID, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, 0, err
	}
	return fs, id, nil
}
