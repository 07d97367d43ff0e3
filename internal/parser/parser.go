package parser

import (
	"cppsema/internal/ast"
	"cppsema/internal/diag"
	"cppsema/internal/lexer"
	"cppsema/internal/source"
	"cppsema/internal/token"
)

type Options struct {
	Reporter      diag.Reporter
	MaxErrors     uint
	CurrentErrors uint
	// GNU enables __typeof__, __attribute__ and __restrict.
	GNU bool
	// Expansions lets syntax errors inside macro replacements point back at
	// the #define.
	Expansions *source.Expansions
}

func (o *Options) Enough() bool {
	return o.MaxErrors > 0 && o.CurrentErrors >= o.MaxErrors
}

type Result struct {
	Root   ast.NodeID
	Errors uint
}

// Parser is a backtracking recursive-descent parser. Constructs whose
// meaning depends on whether a name denotes a type are parsed both ways
// and kept as ambiguity nodes for the semantic engine to resolve.
type Parser struct {
	toks     []token.Token
	pos      int
	b        *ast.Builder
	opts     Options
	lastSpan source.Span
	file     source.FileID

	// trial > 0 while parsing tentatively; errors then only set failed.
	trial  int
	failed bool

	// positions of '>>' tokens split into two '>' while closing template
	// argument lists, with the original token for undo.
	splits []split

	templates map[string]bool
	classes   []string // enclosing class names, innermost last
	noGt      int      // > 0 inside template argument lists
	forceInit bool     // treat declarator parentheses as an initializer
	// vexing is set when a declarator's parentheses parsed both as a
	// parameter list and as an initializer.
	vexing bool
	// pendingTemplate is set between a template parameter list and the
	// name its declaration introduces.
	pendingTemplate bool
}

type split struct {
	pos  int
	orig token.Token
}

// state is a backtracking point.
type state struct {
	pos      int
	splits   int
	lastSpan source.Span
}

// ParseFile tokenizes file (expanding object-like macros) and parses it as
// one translation unit into b.
func ParseFile(fs *source.FileSet, file source.FileID, b *ast.Builder, opts Options) Result {
	f := fs.Get(file)
	if opts.Expansions == nil {
		opts.Expansions = fs.Expansions(file)
	}
	toks := lexer.Tokenize(f, lexer.Options{
		Reporter:   opts.Reporter,
		GNU:        opts.GNU,
		Interner:   b.Strings,
		Expansions: opts.Expansions,
	})
	return ParseTokens(file, toks, b, opts)
}

// ParseTokens parses an already tokenized translation unit.
func ParseTokens(file source.FileID, toks []token.Token, b *ast.Builder, opts Options) Result {
	p := &Parser{
		toks:      toks,
		b:         b,
		opts:      opts,
		file:      file,
		templates: make(map[string]bool),
	}
	if len(p.toks) == 0 || p.toks[len(p.toks)-1].Kind != token.EOF {
		p.toks = append(p.toks, token.Token{Kind: token.EOF, Span: source.Span{File: file}})
	}
	root := p.parseTranslationUnit()
	b.Root = root
	return Result{Root: root, Errors: p.opts.CurrentErrors}
}

func (p *Parser) parseTranslationUnit() ast.NodeID {
	start := p.peek().Span
	tu := p.b.NewNode(ast.NodeTranslationUnit, start)
	for !p.at(token.EOF) {
		if p.opts.Enough() {
			break
		}
		before := p.pos
		decl := p.parseDeclaration(ctxNamespace)
		p.b.AddKid(tu, decl)
		if p.pos == before {
			p.err(diag.SynUnexpectedTopLevel, "unexpected "+describe(p.peek())+" at top level")
			p.recoverFrom(before)
		}
	}
	end := p.peek().Span
	p.b.Node(tu).Span = source.Span{File: p.file, Start: 0, End: end.End}
	return tu
}

func (p *Parser) save() state {
	return state{pos: p.pos, splits: len(p.splits), lastSpan: p.lastSpan}
}

func (p *Parser) restore(s state) {
	for len(p.splits) > s.splits {
		last := p.splits[len(p.splits)-1]
		p.splits = p.splits[:len(p.splits)-1]
		p.toks[last.pos] = last.orig
		p.toks = append(p.toks[:last.pos+1], p.toks[last.pos+2:]...)
	}
	p.pos = s.pos
	p.lastSpan = s.lastSpan
}

// attempt is the outcome of a tentative parse.
type attempt struct {
	node ast.NodeID
	ok   bool
	end  uint32 // source offset just past the last consumed token
	st   state
}

// try runs fn tentatively. On failure the parser is rewound; on success it
// stays after the parsed construct.
func (p *Parser) try(fn func() ast.NodeID) attempt {
	var id ast.NodeID
	res := p.tryOK(func() bool {
		id = fn()
		return id.IsValid()
	})
	res.node = id
	return res
}

func (p *Parser) tryOK(fn func() bool) attempt {
	st := p.save()
	savedFailed := p.failed
	p.failed = false
	p.trial++
	ok := fn()
	p.trial--
	ok = ok && !p.failed
	p.failed = savedFailed
	if !ok {
		p.restore(st)
		return attempt{}
	}
	return attempt{ok: true, end: p.lastSpan.End, st: p.save()}
}

// firstOf returns the first of fns that parses without errors. When none
// does, the first is parsed again so its errors are reported.
func (p *Parser) firstOf(fns ...func() ast.NodeID) ast.NodeID {
	st := p.save()
	for _, fn := range fns {
		if res := p.try(fn); res.ok {
			return res.node
		}
	}
	p.restore(st)
	return fns[0]()
}

// alternatives parses the same tokens as first and as second. When both
// succeed over the same extent an ambiguity node of kind holds them;
// otherwise the successful one wins, with first preferred. When neither
// succeeds second is parsed again for its diagnostics.
func (p *Parser) alternatives(kind ast.NodeKind, first, second func() ast.NodeID) ast.NodeID {
	st := p.save()
	a := p.try(first)
	p.restore(st)
	b := p.try(second)
	switch {
	case a.ok && b.ok && a.end == b.end:
		return p.ambiguity(kind, a.node, b.node)
	case b.ok && (!a.ok || b.end > a.end):
		return b.node
	case a.ok:
		p.restore(st)
		return first()
	}
	p.restore(st)
	return second()
}

func (p *Parser) ambiguity(kind ast.NodeKind, alts ...ast.NodeID) ast.NodeID {
	sp := p.b.Node(alts[0]).Span
	id := p.b.NewNode(kind, sp)
	for _, alt := range alts {
		p.b.AddKid(id, alt)
	}
	return id
}
