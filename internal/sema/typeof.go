package sema

import (
	"slices"

	"cppsema/internal/ast"
	"cppsema/internal/symbols"
	"cppsema/internal/token"
	"cppsema/internal/types"
)

// TypeOf returns the declared type of a binding, computing it on first use.
// Variables declared auto take the type deduced from their initializer.
func (u *Unit) TypeOf(id symbols.BindingID) types.TypeID {
	b := u.bind(id)
	if b == nil || b.IsProblem() {
		return types.NoTypeID
	}
	if b.Type.IsValid() {
		if b.Kind.IsFunction() && !u.typing[id] && u.containsParam(b.Type, u.autoParam) {
			u.deduceResult(id)
		}
		return u.bind(id).Type
	}
	if u.typing[id] {
		u.noteCycle()
		return u.types.Problem(types.ProblemCannotDeduceAuto)
	}
	u.typing[id] = true
	t := u.computeType(id)
	delete(u.typing, id)
	if b := u.bind(id); !b.Type.IsValid() {
		b.Type = t
	}
	return u.bind(id).Type
}

func (u *Unit) computeType(id symbols.BindingID) types.TypeID {
	if pattern, ok := u.patterns[id]; ok {
		if u.instDepth >= u.cfg.MaxInstantiationDepth {
			u.tooDeep = append(u.tooDeep, id)
			return u.types.Problem(types.ProblemInvalidType)
		}
		u.instDepth++
		defer func() { u.instDepth-- }()
		return u.subst(u.TypeOf(pattern), u.argsFor(id))
	}
	b := u.bind(id)
	switch b.Kind {
	case symbols.KindClass, symbols.KindClassTemplate:
		return u.classType(id)
	case symbols.KindEnumeration:
		return u.types.Enum(uint32(id))
	case symbols.KindEnumerator:
		if b.Owner.IsValid() {
			return u.types.Enum(uint32(b.Owner))
		}
		return u.types.Builtins().Int
	case symbols.KindTemplateTypeParam, symbols.KindTemplateTemplateParam, symbols.KindDependent:
		return u.types.TemplateParam(uint32(id))
	case symbols.KindTypedef, symbols.KindAliasTemplate:
		return u.typedefType(id)
	case symbols.KindUsingDeclaration:
		if ds := u.delegates(id); len(ds) > 0 {
			return u.TypeOf(ds[0])
		}
		return types.NoTypeID
	case symbols.KindNamespace, symbols.KindNamespaceAlias, symbols.KindLabel:
		return types.NoTypeID
	case symbols.KindTemplateNonTypeParam:
		tp := u.b.TemplateParam(b.Node)
		if tp == nil {
			return u.types.Builtins().Int
		}
		return u.paramDeclType(tp.Param)
	}
	if b.Kind.IsFunction() {
		if n := u.node(b.Node); n != nil && n.Kind == ast.NodeLambda {
			return u.lambdaCallType(id)
		}
		return u.declaredFunctionType(id)
	}
	return u.objectType(id)
}

// classType is the type of a class or the current instantiation of a class
// template.
func (u *Unit) classType(cls symbols.BindingID) types.TypeID {
	return u.types.Class(uint32(cls))
}

// functionType returns the function type of a function binding.
func (u *Unit) functionType(fn symbols.BindingID) types.TypeID {
	return u.TypeOf(fn)
}

func (u *Unit) typedefType(id symbols.BindingID) types.TypeID {
	b := u.bind(id)
	node := b.Node
	n := u.node(node)
	if n == nil {
		return u.types.Problem(types.ProblemInvalidType)
	}
	var target types.TypeID
	switch n.Kind {
	case ast.NodeAliasDecl:
		if len(n.Kids) < 2 {
			return u.types.Problem(types.ProblemInvalidType)
		}
		target = u.typeOfTypeID(n.Kids[1])
	case ast.NodeDeclarator:
		target = u.declaratorType(u.declSpecOf(node), node)
	default:
		return u.types.Problem(types.ProblemInvalidType)
	}
	if _, bad := u.types.ProblemOf(target); bad {
		return target
	}
	return u.types.Typedef(uint32(id), target)
}

// objectType types variables, fields and parameters.
func (u *Unit) objectType(id symbols.BindingID) types.TypeID {
	b := u.bind(id)
	node := b.Node
	n := u.node(node)
	if n == nil {
		return u.types.Problem(types.ProblemInvalidType)
	}
	switch n.Kind {
	case ast.NodeParamDecl:
		return u.types.DecayParam(u.specType(u.paramSpec(node)))
	case ast.NodeCapture:
		return u.captureType(node)
	}
	spec := u.declSpecOf(node)
	ds := u.b.DeclSpec(spec)
	t := u.declaratorType(spec, node)
	if ds != nil && (ds.TypeKind == ast.TypeSpecAuto || ds.TypeKind == ast.TypeSpecDecltypeAuto) {
		if b.Kind == symbols.KindField && b.Flags&symbols.FlagStatic == 0 {
			return u.types.Problem(types.ProblemAutoForNonStaticField)
		}
		return u.deduceDeclared(node, t, ds.TypeKind == ast.TypeSpecDecltypeAuto)
	}
	if b.Kind == symbols.KindParameter {
		return u.types.DecayParam(t)
	}
	// int a[] = {1, 2, 3} takes its bound from the initializer
	if tt := u.types.Underlying(t); tt.Kind == types.KindArray && !tt.Bound {
		if d := u.b.Declarator(node); d != nil && d.Init.IsValid() {
			if count, ok := u.initCount(d.Init); ok {
				return u.types.Intern(types.MakeArray(tt.Elem, count, true))
			}
		}
	}
	return t
}

// captureType deduces the type of an init-capture like an auto variable.
func (u *Unit) captureType(c ast.NodeID) types.TypeID {
	n := u.node(c)
	if len(n.Kids) < 2 {
		return u.types.Problem(types.ProblemCannotDeduceAuto)
	}
	byRef := n.Op == token.Amp
	init := u.initExpr(n.Kids[1])
	if !init.IsValid() {
		return u.types.Problem(types.ProblemCannotDeduceAuto)
	}
	info := u.exprOf(init)
	if _, bad := u.types.ProblemOf(info.t); bad || !info.t.IsValid() {
		return u.types.Problem(types.ProblemCannotDeduceAuto)
	}
	if byRef {
		return u.types.LRef(info.t)
	}
	return u.types.Decay(info.t)
}

// initExpr returns the single expression of an initializer.
func (u *Unit) initExpr(init ast.NodeID) ast.NodeID {
	n := u.node(init)
	if n == nil {
		return ast.NoNodeID
	}
	switch n.Kind {
	case ast.NodeInitEquals, ast.NodeInitParens, ast.NodeInitList:
		if len(n.Kids) == 1 {
			return n.Kids[0]
		}
		return ast.NoNodeID
	}
	return init
}

func (u *Unit) paramDeclType(param ast.NodeID) types.TypeID {
	if d := u.paramDeclarator(param); d.IsValid() {
		return u.declaratorType(u.paramSpec(param), d)
	}
	return u.specType(u.paramSpec(param))
}

// initCount counts the elements of a braced initializer or the characters
// of a string literal, terminator included.
func (u *Unit) initCount(init ast.NodeID) (uint32, bool) {
	id := init
	if n := u.node(id); n.Kind == ast.NodeInitEquals && len(n.Kids) > 0 {
		id = n.Kids[0]
	}
	n := u.node(id)
	switch n.Kind {
	case ast.NodeInitList:
		return uint32(len(n.Kids)), true
	case ast.NodeLiteral:
		if lit := u.b.Literal(id); lit != nil && lit.Kind == token.StringLit {
			return uint32(stringLength(lit.Text)) + 1, true
		}
	}
	return 0, false
}

// stringLength counts the characters of a possibly concatenated string
// literal, treating each escape sequence as one character.
func stringLength(text string) int {
	count := 0
	in := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"':
			in = !in
		case !in:
		case c == '\\':
			i++
			count++
		default:
			count++
		}
	}
	return count
}

// declaredFunctionType types a function from its declarator, deducing an
// auto return type from the body when needed.
func (u *Unit) declaredFunctionType(id symbols.BindingID) types.TypeID {
	b := u.bind(id)
	node := b.Node
	if u.node(node) == nil {
		return u.types.Problem(types.ProblemInvalidType)
	}
	return u.declaratorType(u.declSpecOf(node), node)
}

// deduceResult replaces a placeholder return type by the type deduced from
// the function's body.
func (u *Unit) deduceResult(fn symbols.BindingID) {
	b := u.bind(fn)
	info, ok := u.types.FnInfo(b.Type)
	if !ok {
		return
	}
	declared := info.Result
	deduced := *info
	deduced.Params = slices.Clone(info.Params)
	switch {
	case b.Flags&symbols.FlagVirtual != 0:
		deduced.Result = u.types.Problem(types.ProblemAutoForVirtualMethod)
	default:
		fd := u.b.FunctionDef(b.DefNode)
		if fd == nil || !fd.Body.IsValid() {
			if b.Flags&symbols.FlagDefined != 0 {
				return
			}
			deduced.Result = u.types.Problem(types.ProblemCannotDeduceAuto)
			break
		}
		u.typing[fn] = true
		deduced.Result = u.returnTypeFromBody(fd.Body, declared)
		delete(u.typing, fn)
	}
	u.bind(fn).Type = u.types.RegisterFn(deduced)
}

// typeOfTypeID types a type-id node (DeclSpec plus abstract declarator).
func (u *Unit) typeOfTypeID(node ast.NodeID) types.TypeID {
	n := u.node(node)
	if n == nil {
		return types.NoTypeID
	}
	if n.Kind == ast.NodeAmbiguousTypeOrExpr || n.Kind == ast.NodeAmbiguousTemplateArg {
		u.resolveAmbiguity(node)
		n = u.node(node)
	}
	if n.Kind != ast.NodeTypeID {
		return u.types.Problem(types.ProblemInvalidType)
	}
	var spec, decl ast.NodeID
	for _, k := range n.Kids {
		switch u.node(k).Kind {
		case ast.NodeDeclSpec:
			spec = k
		case ast.NodeDeclarator:
			decl = k
		}
	}
	if !decl.IsValid() {
		return u.specType(spec)
	}
	return u.declaratorType(spec, decl)
}

// declaratorType applies the declarator's operators to the type of spec.
func (u *Unit) declaratorType(spec, decl ast.NodeID) types.TypeID {
	base := u.specType(spec)
	if !spec.IsValid() {
		base = u.implicitResult(decl)
	}
	if _, bad := u.types.ProblemOf(base); bad {
		return base
	}
	return u.applyDeclarator(base, decl)
}

// implicitResult is the result type of declarators without decl-specifiers:
// constructors and destructors return void, conversion functions their
// target type.
func (u *Unit) implicitResult(decl ast.NodeID) types.TypeID {
	name := u.declaratorName(decl)
	if nm := u.name(u.b.Last(name)); nm != nil && nm.Kind == ast.NameConversion {
		return u.typeOfTypeID(nm.ConvType)
	}
	return u.types.Builtins().Void
}

func (u *Unit) applyDeclarator(t types.TypeID, decl ast.NodeID) types.TypeID {
	d := u.b.Declarator(decl)
	if d == nil {
		return t
	}
	for _, p := range d.Ptrs {
		switch p.Kind {
		case ast.PtrPointer:
			t = u.types.Pointer(t)
		case ast.PtrLRef:
			t = u.types.LRef(t)
		case ast.PtrRRef:
			t = u.types.RRef(t)
		case ast.PtrMember:
			cls := u.Resolve(u.b.NameOf(p.Class))
			if u.isProblem(cls) {
				return u.types.Problem(types.ProblemInvalidType)
			}
			t = u.types.Intern(types.MakeMemberPointer(u.TypeOf(cls), t))
		}
		t = u.types.Qualify(t, cvOf(p.CV))
	}
	for i := len(d.Chunks) - 1; i >= 0; i-- {
		c := &d.Chunks[i]
		switch c.Kind {
		case ast.ChunkArray:
			if c.Size.IsValid() {
				if v, ok := u.constValue(c.Size); ok && v >= 0 {
					t = u.types.Intern(types.MakeArray(t, uint32(v), true))
					continue
				}
			}
			t = u.types.Intern(types.MakeArray(t, 0, false))
		case ast.ChunkFunction:
			t = u.chunkFunction(t, c)
			d = u.b.Declarator(decl)
		}
	}
	if d.Nested.IsValid() {
		return u.applyDeclarator(t, d.Nested)
	}
	return t
}

func (u *Unit) chunkFunction(result types.TypeID, c *ast.Chunk) types.TypeID {
	params := c.Params
	variadic := c.Variadic
	ref := c.Ref
	cv := cvOf(c.CV)
	except := c.Except == ast.ExceptNoexcept
	if c.Except == ast.ExceptNoexceptExpr {
		v, ok := u.constValue(c.NoexceptExpr)
		except = !ok || v != 0
	}
	if c.Trailing.IsValid() {
		result = u.typeOfTypeID(c.Trailing)
	}
	if u.isVoidParams(params) {
		params = nil
	}
	info := types.FnInfo{Result: result, Variadic: variadic, CV: cv, Except: except}
	switch ref {
	case ast.RefLValue:
		info.Ref = types.RefLValue
	case ast.RefRValue:
		info.Ref = types.RefRValue
	}
	for _, p := range params {
		info.Params = append(info.Params, u.types.AdjustParam(u.paramDeclType(p)))
	}
	return u.types.RegisterFn(info)
}

func cvOf(q ast.CVQual) types.CV {
	var cv types.CV
	if q&ast.CVConst != 0 {
		cv |= types.Const
	}
	if q&ast.CVVolatile != 0 {
		cv |= types.Volatile
	}
	if q&ast.CVRestrict != 0 {
		cv |= types.Restrict
	}
	return cv
}

// specType types a decl-specifier-seq, cv included.
func (u *Unit) specType(spec ast.NodeID) types.TypeID {
	if t, ok := u.specTypes[spec]; ok {
		return t
	}
	ds := u.b.DeclSpec(spec)
	if ds == nil {
		return u.types.Builtins().Int
	}
	var t types.TypeID
	switch ds.TypeKind {
	case ast.TypeSpecBasic, ast.TypeSpecNone:
		t = u.types.Basic(basicOf(ds))
	case ast.TypeSpecNamed, ast.TypeSpecElaborated:
		t = u.typeOfEntity(u.Resolve(u.b.NameOf(ds.Name)))
	case ast.TypeSpecClass, ast.TypeSpecEnum:
		if b, ok := u.nodeBindings[ds.Spec]; ok {
			t = u.TypeOf(b)
		} else {
			t = u.types.Problem(types.ProblemInvalidType)
		}
	case ast.TypeSpecDecltype:
		t = u.decltypeOf(ds.Expr)
	case ast.TypeSpecTypeof:
		t = u.exprOf(ds.Expr).t
	case ast.TypeSpecAuto, ast.TypeSpecDecltypeAuto:
		t = u.bind(u.autoParam).Type
	}
	ds = u.b.DeclSpec(spec)
	if ds.CV != 0 {
		t = u.types.Qualify(t, cvOf(ds.CV))
	}
	u.specTypes[spec] = t
	return t
}

// typeOfEntity is the type a name in a type position denotes.
func (u *Unit) typeOfEntity(id symbols.BindingID) types.TypeID {
	b := u.bind(id)
	if b.IsProblem() {
		return u.types.Problem(types.ProblemInvalidType)
	}
	switch b.Kind {
	case symbols.KindClass, symbols.KindClassTemplate, symbols.KindEnumeration, symbols.KindTypedef,
		symbols.KindTemplateTypeParam, symbols.KindTemplateTemplateParam, symbols.KindDependent,
		symbols.KindAliasTemplate:
		return u.TypeOf(id)
	case symbols.KindUsingDeclaration:
		for _, d := range u.delegates(id) {
			if u.kind(d).IsType() {
				return u.TypeOf(d)
			}
		}
	}
	return u.types.Problem(types.ProblemInvalidType)
}

func basicOf(ds *ast.DeclSpecData) types.Basic {
	switch ds.Basic {
	case ast.BasicVoid:
		return types.Void
	case ast.BasicBool:
		return types.Bool
	case ast.BasicChar:
		switch {
		case ds.Signed:
			return types.SChar
		case ds.Unsigned:
			return types.UChar
		}
		return types.Char
	case ast.BasicChar16:
		return types.Char16
	case ast.BasicChar32:
		return types.Char32
	case ast.BasicWChar:
		return types.WChar
	case ast.BasicFloat:
		return types.Float
	case ast.BasicDouble:
		if ds.Long > 0 {
			return types.LongDouble
		}
		return types.Double
	}
	switch {
	case ds.Short:
		if ds.Unsigned {
			return types.UShort
		}
		return types.Short
	case ds.Long >= 2:
		if ds.Unsigned {
			return types.ULongLong
		}
		return types.LongLong
	case ds.Long == 1:
		if ds.Unsigned {
			return types.ULong
		}
		return types.Long
	case ds.Unsigned:
		return types.UInt
	}
	return types.Int
}

// decltypeOf applies the decltype rules: an unparenthesized name or member
// access yields the declared type, otherwise the value category decides.
func (u *Unit) decltypeOf(expr ast.NodeID) types.TypeID {
	info := u.exprOf(expr)
	n := u.node(expr)
	if n != nil && (n.Kind == ast.NodeIDExpr || n.Kind == ast.NodeMember) && info.binding.IsValid() {
		if k := u.kind(info.binding); k != symbols.KindEnumerator && !k.IsFunction() && k != symbols.KindTemplateNonTypeParam {
			return u.TypeOf(info.binding)
		}
	}
	switch info.cat {
	case LValue:
		return u.types.LRef(info.t)
	case XValue:
		return u.types.RRef(info.t)
	}
	return info.t
}

// deduceDeclared deduces the type of an auto declaration from its
// initializer or, in a range-based for, from the range's element.
func (u *Unit) deduceDeclared(decl ast.NodeID, declared types.TypeID, decltypeAuto bool) types.TypeID {
	d := u.b.Declarator(decl)
	var init ast.NodeID
	if d != nil && d.Init.IsValid() {
		in := u.node(d.Init)
		switch in.Kind {
		case ast.NodeInitEquals:
			if len(in.Kids) > 0 {
				init = in.Kids[0]
				if u.node(init).Kind == ast.NodeInitList {
					// auto x = {..} would need std::initializer_list
					return u.types.Problem(types.ProblemCannotDeduceAuto)
				}
			}
		case ast.NodeInitParens:
			if len(in.Kids) == 1 {
				init = in.Kids[0]
			}
		case ast.NodeInitList:
			if len(in.Kids) == 1 {
				init = in.Kids[0]
			}
		}
	}
	var info exprInfo
	switch {
	case init.IsValid():
		info = u.exprOf(init)
	case u.isRangeDecl(decl):
		info = u.rangeElement(decl)
	default:
		if decltypeAuto {
			return u.types.Problem(types.ProblemCannotDeduceDecltypeAuto)
		}
		return u.types.Problem(types.ProblemCannotDeduceAuto)
	}
	if !info.t.IsValid() {
		return u.types.Problem(types.ProblemCannotDeduceAuto)
	}
	if _, bad := u.types.ProblemOf(info.t); bad {
		return info.t
	}
	if decltypeAuto {
		if init.IsValid() {
			return u.decltypeOf(init)
		}
		return info.t
	}
	m, ok := u.deduceOne(declared, info, argMap{params: map[symbols.BindingID]types.Arg{}}, []symbols.BindingID{u.autoParam})
	if !ok {
		return u.types.Problem(types.ProblemCannotDeduceAuto)
	}
	return u.subst(declared, m)
}

// isRangeDecl reports the declarator of a range-based for declaration.
func (u *Unit) isRangeDecl(decl ast.NodeID) bool {
	rf := u.b.Enclosing(decl, ast.NodeRangeFor)
	if !rf.IsValid() {
		return false
	}
	c := u.b.Control(rf)
	for cur := decl; cur.IsValid() && cur != rf; cur = u.node(cur).Parent {
		if cur == c.Decl {
			return true
		}
	}
	return false
}

// rangeElement returns the element of the range a range-based for iterates:
// the element of an array, or what '*begin()' yields.
func (u *Unit) rangeElement(decl ast.NodeID) exprInfo {
	rf := u.b.Enclosing(decl, ast.NodeRangeFor)
	c := u.b.Control(rf)
	r := u.exprOf(c.Range)
	if tt := u.types.Underlying(r.t); tt.Kind == types.KindArray {
		return exprInfo{t: tt.Elem, cat: LValue}
	}
	begin := u.memberCallResult(r.t, u.intern("begin"), c.Range)
	if !begin.t.IsValid() {
		return exprInfo{}
	}
	return u.derefResult(begin, ast.NoNodeID)
}

// returnTypeFromBody deduces an auto return type from the first return
// statement with an operand; a body without one returns void.
func (u *Unit) returnTypeFromBody(body ast.NodeID, declared types.TypeID) types.TypeID {
	var ret ast.NodeID
	u.b.Walk(body, func(id ast.NodeID, n *ast.Node) bool {
		if ret.IsValid() || n.Kind == ast.NodeLambda || n.Kind == ast.NodeClassSpec {
			return false
		}
		if n.Kind == ast.NodeReturn && len(n.Kids) > 0 {
			ret = n.Kids[0]
			return false
		}
		return true
	})
	if !ret.IsValid() {
		return u.types.Builtins().Void
	}
	info := u.exprOf(ret)
	if !info.t.IsValid() {
		return u.types.Problem(types.ProblemCannotDeduceAuto)
	}
	if !declared.IsValid() {
		return u.types.Decay(info.t)
	}
	m, ok := u.deduceOne(declared, info, argMap{params: map[symbols.BindingID]types.Arg{}}, []symbols.BindingID{u.autoParam})
	if !ok {
		return u.types.Problem(types.ProblemCannotDeduceAuto)
	}
	return u.subst(declared, m)
}

// hasAutoResult reports functions declared with a placeholder return type
// and no trailing return type.
func (u *Unit) hasAutoResult(fn symbols.BindingID) bool {
	spec := u.declSpecOf(u.bind(fn).Node)
	ds := u.b.DeclSpec(spec)
	if ds == nil || (ds.TypeKind != ast.TypeSpecAuto && ds.TypeKind != ast.TypeSpecDecltypeAuto) {
		return false
	}
	fd := u.functionDeclarator(u.bind(fn).Node)
	if d := u.b.Declarator(fd); d != nil && len(d.Chunks) > 0 && d.Chunks[0].Trailing.IsValid() {
		return false
	}
	return true
}

