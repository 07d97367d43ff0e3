package sema

import (
	"cppsema/internal/ast"
	"cppsema/internal/diag"
	"cppsema/internal/source"
	"cppsema/internal/symbols"
	"cppsema/internal/trace"
	"cppsema/internal/types"
)

// Config tunes the engine.
type Config struct {
	// AllowRecursionBindings keeps the outer request alive when a name is
	// re-entered while it is being resolved: only the inner request sees a
	// provisional RECURSION_IN_LOOKUP problem. When false the outer request
	// fails with the same problem.
	AllowRecursionBindings bool
	// EvalStepBudget bounds constant evaluation; zero means the default.
	EvalStepBudget int
	// MaxInstantiationDepth bounds nested template instantiation.
	MaxInstantiationDepth int
}

const (
	defaultEvalSteps = 1 << 16
	defaultInstDepth = 64
)

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		AllowRecursionBindings: true,
		EvalStepBudget:         defaultEvalSteps,
		MaxInstantiationDepth:  defaultInstDepth,
	}
}

func (c Config) normalized() Config {
	if c.EvalStepBudget <= 0 {
		c.EvalStepBudget = defaultEvalSteps
	}
	if c.MaxInstantiationDepth <= 0 {
		c.MaxInstantiationDepth = defaultInstDepth
	}
	return c
}

// Options carries the collaborators of one analysis.
type Options struct {
	Reporter diag.Reporter
	Tracer   trace.Tracer
	// Types may be shared by callers that want to intern types themselves;
	// nil allocates a fresh interner.
	Types  *types.Interner
	Config Config
}

// Unit is the semantic model of one translation unit. Names are resolved
// on first request and the answer is memoized; a Unit is not safe for
// concurrent use.
type Unit struct {
	b        *ast.Builder
	root     ast.NodeID
	tab      *symbols.Table
	types    *types.Interner
	cfg      Config
	reporter diag.Reporter
	tracer   trace.Tracer
	span     *trace.Span

	// globalNS is a namespace binding owning the global scope so that '::'
	// qualifiers resolve like any other namespace.
	globalNS symbols.BindingID
	// autoParam stands for the deduced type of 'auto' while an initializer
	// is matched against a declared type.
	autoParam symbols.BindingID

	resolved  map[ast.NameID]symbols.BindingID
	resolving map[ast.NameID]bool
	cyclic    map[ast.NameID]bool
	// resolveStack lists the names being resolved, innermost last.
	resolveStack []ast.NameID

	// scopes maps scope-introducing nodes to their scope.
	scopes map[ast.NodeID]symbols.ScopeID
	// nodeBindings maps class, enum and lambda nodes and declarators to the
	// binding they introduce.
	nodeBindings map[ast.NodeID]symbols.BindingID
	specTypes    map[ast.NodeID]types.TypeID
	typing       map[symbols.BindingID]bool

	exprs    map[ast.NodeID]exprInfo
	inExpr   map[ast.NodeID]bool
	implicit map[ast.NodeID][]ast.NameID
	consts   map[ast.NodeID]constResult
	// evalNodes and evalActive guard constant evaluation against cycles
	// through initializers.
	evalNodes  map[ast.NodeID]bool
	evalActive map[symbols.BindingID]bool
	// exprProblems holds failures found while typing an expression that no
	// name carries, such as narrowing in a braced conversion.
	exprProblems map[ast.NodeID]symbols.BindingID
	settling     map[ast.NodeID]bool
	initialized  map[ast.NodeID]bool
	argLists     map[ast.NameID][]types.Arg

	delegated  map[symbols.BindingID]bool
	dependents map[dependentKey]symbols.BindingID
	// patterns links a specialized member to the member of the template
	// pattern it was produced from.
	patterns    map[symbols.BindingID]symbols.BindingID
	memberOf    map[memberKey]symbols.BindingID
	argMaps     map[symbols.BindingID]argMap
	membersDone map[symbols.BindingID]bool
	basesDone   map[symbols.BindingID]bool
	instances   map[symbols.BindingID]map[uint64][]symbols.BindingID
	// deferredClasses stands a class binding in for each dependent
	// template-id so that it can be used as a qualifier.
	deferredClasses map[types.TypeID]symbols.BindingID
	canonParams     []symbols.BindingID
	instDepth       int

	anonNamespaces map[symbols.ScopeID]symbols.ScopeID
	deferred       []func()
	classDepth     int
	completed      bool
	checked        bool

	// exhausted and tooDeep remember where evaluation or instantiation
	// was cut off, for Check to report.
	exhausted []ast.NodeID
	tooDeep   []symbols.BindingID
}

type dependentKey struct {
	qualifier types.TypeID
	name      source.StringID
}

type memberKey struct {
	owner   symbols.BindingID
	pattern symbols.BindingID
}

// Analyze builds the scope tree of the translation unit rooted at root and
// returns the unit ready for queries. Names are resolved lazily; call Check
// to resolve everything and report diagnostics.
func Analyze(b *ast.Builder, root ast.NodeID, opts Options) *Unit {
	u := newUnit(b, root, opts)
	u.span = trace.Begin(u.tracer, trace.ScopePass, "sema_declare", 0)
	defer u.span.End("")
	u.declareUnit()
	return u
}

func newUnit(b *ast.Builder, root ast.NodeID, opts Options) *Unit {
	in := opts.Types
	if in == nil {
		in = types.NewInterner()
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	u := &Unit{
		b:               b,
		root:            root,
		tab:             symbols.NewTable(symbols.Hints{}, b.Strings),
		types:           in,
		cfg:             opts.Config.normalized(),
		reporter:        reporter,
		tracer:          tracer,
		resolved:        make(map[ast.NameID]symbols.BindingID),
		resolving:       make(map[ast.NameID]bool),
		cyclic:          make(map[ast.NameID]bool),
		scopes:          make(map[ast.NodeID]symbols.ScopeID),
		nodeBindings:    make(map[ast.NodeID]symbols.BindingID),
		specTypes:       make(map[ast.NodeID]types.TypeID),
		typing:          make(map[symbols.BindingID]bool),
		exprs:           make(map[ast.NodeID]exprInfo),
		inExpr:          make(map[ast.NodeID]bool),
		implicit:        make(map[ast.NodeID][]ast.NameID),
		consts:          make(map[ast.NodeID]constResult),
		evalNodes:       make(map[ast.NodeID]bool),
		evalActive:      make(map[symbols.BindingID]bool),
		exprProblems:    make(map[ast.NodeID]symbols.BindingID),
		settling:        make(map[ast.NodeID]bool),
		initialized:     make(map[ast.NodeID]bool),
		argLists:        make(map[ast.NameID][]types.Arg),
		delegated:       make(map[symbols.BindingID]bool),
		dependents:      make(map[dependentKey]symbols.BindingID),
		patterns:        make(map[symbols.BindingID]symbols.BindingID),
		memberOf:        make(map[memberKey]symbols.BindingID),
		argMaps:         make(map[symbols.BindingID]argMap),
		membersDone:     make(map[symbols.BindingID]bool),
		basesDone:       make(map[symbols.BindingID]bool),
		instances:       make(map[symbols.BindingID]map[uint64][]symbols.BindingID),
		deferredClasses: make(map[types.TypeID]symbols.BindingID),
		anonNamespaces:  make(map[symbols.ScopeID]symbols.ScopeID),
	}
	u.globalNS = u.tab.NewBinding(symbols.Binding{
		Kind:  symbols.KindNamespace,
		Inner: u.tab.Global,
	})
	u.tab.Scope(u.tab.Global).Owner = u.globalNS
	u.autoParam = u.tab.NewBinding(symbols.Binding{
		Kind:  symbols.KindTemplateTypeParam,
		Name:  u.intern("auto"),
		Scope: u.tab.Global,
		Flags: symbols.FlagImplicit,
	})
	u.bind(u.autoParam).Type = u.types.TemplateParam(uint32(u.autoParam))
	u.scopes[root] = u.tab.Global
	return u
}

// Table exposes the scope tree and binding arena.
func (u *Unit) Table() *symbols.Table { return u.tab }

// Types exposes the type interner.
func (u *Unit) Types() *types.Interner { return u.types }

// Builder exposes the syntax tree the unit was built from.
func (u *Unit) Builder() *ast.Builder { return u.b }

// Root returns the translation unit node.
func (u *Unit) Root() ast.NodeID { return u.root }

// Binding returns the binding or nil.
func (u *Unit) Binding(id symbols.BindingID) *symbols.Binding {
	return u.tab.Binding(id)
}

// GlobalNamespace returns the binding standing for the global scope.
func (u *Unit) GlobalNamespace() symbols.BindingID { return u.globalNS }

// helpers --------------------------------------------------------------------

func (u *Unit) node(id ast.NodeID) *ast.Node { return u.b.Node(id) }

func (u *Unit) name(id ast.NameID) *ast.Name { return u.b.Name(id) }

func (u *Unit) bind(id symbols.BindingID) *symbols.Binding { return u.tab.Binding(id) }

func (u *Unit) intern(s string) source.StringID { return u.tab.Strings.Intern(s) }

func (u *Unit) spell(id source.StringID) string {
	s, _ := u.tab.Strings.Lookup(id)
	return s
}

func (u *Unit) isProblem(id symbols.BindingID) bool {
	return u.tab.Binding(id).IsProblem()
}

func (u *Unit) problem(code symbols.ProblemCode, name source.StringID, candidates ...symbols.BindingID) symbols.BindingID {
	return u.tab.NewProblem(code, name, candidates...)
}

func (u *Unit) kind(id symbols.BindingID) symbols.Kind {
	if b := u.tab.Binding(id); b != nil {
		return b.Kind
	}
	return symbols.KindInvalid
}

// entryPos converts a source offset into a declaration position. Offsets
// are shifted by one so that position zero keeps meaning "always visible".
func entryPos(sp source.Span) uint32 { return sp.Start + 1 }

func (u *Unit) namePos(id ast.NameID) uint32 {
	if n := u.name(id); n != nil {
		return entryPos(n.Span)
	}
	return 0
}

// debugSpan opens a node-level span when debug tracing is on.
func (u *Unit) debugSpan(name, detail string) func() {
	if u.tracer.Level() < trace.LevelDebug {
		return func() {}
	}
	var parent uint64
	if u.span != nil {
		parent = u.span.ID()
	}
	sp := trace.Begin(u.tracer, trace.ScopeNode, name, parent)
	if detail != "" {
		sp.WithExtra("name", detail)
	}
	return func() { sp.End("") }
}
