package driver

import (
	"fortio.org/safecast"

	"cppsema/internal/ast"
	"cppsema/internal/config"
	"cppsema/internal/diag"
	"cppsema/internal/parser"
	"cppsema/internal/source"
)

type ParseResult struct {
	FileSet *source.FileSet
	File    *source.File
	Builder *ast.Builder
	Root    ast.NodeID
	Bag     *diag.Bag
}

func Parse(path string, cfg *config.Config) (*ParseResult, error) {
	fs, id, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	return parseLoaded(fs, id, cfg)
}

func parseLoaded(fs *source.FileSet, id source.FileID, cfg *config.Config) (*ParseResult, error) {
	maxErrors, err := safecast.Conv[uint](cfg.Engine.MaxDiagnostics)
	if err != nil {
		return nil, err
	}
	bag := diag.NewBag(cfg.Engine.MaxDiagnostics)
	b := ast.NewBuilder(ast.Hints{}, nil)
	res := parser.ParseFile(fs, id, b, parser.Options{
		Reporter:  diag.BagReporter{Bag: bag},
		MaxErrors: maxErrors,
		GNU:       cfg.Engine.GNUExtensions,
	})
	return &ParseResult{FileSet: fs, File: fs.Get(id), Builder: b, Root: res.Root, Bag: bag}, nil
}
