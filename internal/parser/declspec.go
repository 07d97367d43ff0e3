package parser

import (
	"cppsema/internal/ast"
	"cppsema/internal/diag"
	"cppsema/internal/token"
)

type declSpecMode uint8

const (
	// declSpecFull accepts storage classes, function specifiers and class
	// or enum definitions.
	declSpecFull declSpecMode = iota
	// declSpecParam is a parameter: no class definitions, no storage.
	declSpecParam
	// declSpecTypeOnly is a type-specifier-seq as in type-ids.
	declSpecTypeOnly
)

var storageKeywords = map[token.Kind]ast.StorageFlags{
	token.KwTypedef:     ast.StorageTypedef,
	token.KwStatic:      ast.StorageStatic,
	token.KwExtern:      ast.StorageExtern,
	token.KwFriend:      ast.StorageFriend,
	token.KwConstexpr:   ast.StorageConstexpr,
	token.KwInline:      ast.StorageInline,
	token.KwVirtual:     ast.StorageVirtual,
	token.KwExplicit:    ast.StorageExplicit,
	token.KwMutable:     ast.StorageMutable,
	token.KwThreadLocal: ast.StorageThreadLocal,
	token.KwRegister:    ast.StorageRegister,
}

var basicKeywords = map[token.Kind]ast.BasicKind{
	token.KwVoid:    ast.BasicVoid,
	token.KwBool:    ast.BasicBool,
	token.KwChar:    ast.BasicChar,
	token.KwChar16:  ast.BasicChar16,
	token.KwChar32:  ast.BasicChar32,
	token.KwWcharT:  ast.BasicWChar,
	token.KwInt:     ast.BasicInt,
	token.KwFloat:   ast.BasicFloat,
	token.KwDouble:  ast.BasicDouble,
}

// parseDeclSpecs parses a decl-specifier-seq. It returns 0 when no
// specifier at all was present.
func (p *Parser) parseDeclSpecs(mode declSpecMode) ast.NodeID {
	start := p.peek().Span
	var d ast.DeclSpecData
	var kids []ast.NodeID
	seen := false
	sawType := func() bool {
		return d.TypeKind != ast.TypeSpecNone || d.Signed || d.Unsigned || d.Short || d.Long > 0
	}
loop:
	for {
		p.skipAttributes()
		tok := p.peek()
		if flag, ok := storageKeywords[tok.Kind]; ok {
			if mode != declSpecFull {
				break loop
			}
			if tok.Kind == token.KwExtern && p.peekN(1).Kind == token.StringLit {
				break loop
			}
			p.advance()
			d.Storage |= flag
			seen = true
			continue
		}
		if basic, ok := basicKeywords[tok.Kind]; ok {
			if d.TypeKind != ast.TypeSpecNone && d.TypeKind != ast.TypeSpecBasic {
				break loop
			}
			p.advance()
			d.TypeKind = ast.TypeSpecBasic
			d.Basic = basic
			seen = true
			continue
		}
		switch tok.Kind {
		case token.KwConst:
			d.CV |= ast.CVConst
		case token.KwVolatile:
			d.CV |= ast.CVVolatile
		case token.KwRestrict:
			d.CV |= ast.CVRestrict
		case token.KwSigned:
			d.Signed = true
		case token.KwUnsigned:
			d.Unsigned = true
		case token.KwShort:
			d.Short = true
		case token.KwLong:
			d.Long++
		case token.KwAuto:
			if sawType() {
				break loop
			}
			d.TypeKind = ast.TypeSpecAuto
		case token.KwDecltype:
			if sawType() {
				break loop
			}
			if p.decltypeIsQualifier() {
				if !p.namedTypeSpec(&d, &kids, mode) {
					break loop
				}
				seen = true
				continue
			}
			p.parseDecltypeSpec(&d, &kids)
			seen = true
			continue
		case token.KwTypeof:
			if sawType() {
				break loop
			}
			p.parseTypeofSpec(&d, &kids)
			seen = true
			continue
		case token.KwClass, token.KwStruct, token.KwUnion:
			if sawType() {
				break loop
			}
			spec := p.parseClassSpec(mode, &d)
			if !spec.IsValid() {
				return ast.NoNodeID
			}
			kids = append(kids, spec)
			seen = true
			continue
		case token.KwEnum:
			if sawType() {
				break loop
			}
			spec := p.parseEnumSpec(mode, &d)
			if !spec.IsValid() {
				return ast.NoNodeID
			}
			kids = append(kids, spec)
			seen = true
			continue
		case token.KwTypename:
			if sawType() {
				break loop
			}
			p.advance()
			name := p.parseName(nameOpts{typename: true})
			if !name.IsValid() {
				return ast.NoNodeID
			}
			d.TypeKind = ast.TypeSpecNamed
			d.Name = name
			kids = append(kids, name)
			seen = true
			continue
		case token.Ident, token.ColonColon:
			if sawType() || !p.namedTypeSpec(&d, &kids, mode) {
				break loop
			}
			seen = true
			continue
		default:
			break loop
		}
		p.advance()
		seen = true
	}
	if !seen {
		return ast.NoNodeID
	}
	id := ast.NewWithPayload(p.b, ast.NodeDeclSpec, start, p.b.Payloads.DeclSpecs, d)
	for _, k := range kids {
		p.b.AddKid(id, k)
	}
	return p.finish(id, start)
}

// hasType reports whether a DeclSpec names a type.
func (p *Parser) hasType(spec ast.NodeID) bool {
	d := p.b.DeclSpec(spec)
	if d == nil {
		return false
	}
	return d.TypeKind != ast.TypeSpecNone || d.Signed || d.Unsigned || d.Short || d.Long > 0
}

// namedTypeSpec parses a type name inside a decl-specifier-seq. It leaves
// the tokens alone and returns false when they start a constructor,
// destructor or conversion declarator instead.
func (p *Parser) namedTypeSpec(d *ast.DeclSpecData, kids *[]ast.NodeID, mode declSpecMode) bool {
	if !p.atNameStart() {
		return false
	}
	tok := p.peek()
	if mode == declSpecFull && tok.Kind == token.Ident && p.peekN(1).Kind == token.LParen &&
		len(p.classes) > 0 && p.classes[len(p.classes)-1] == tok.Text {
		return false
	}
	st := p.save()
	res := p.try(func() ast.NodeID {
		return p.parseName(nameOpts{destructor: true, operator: true})
	})
	if !res.ok {
		return false
	}
	name := res.node
	if mode == declSpecFull && p.isConstructorName(name) {
		p.restore(st)
		return false
	}
	switch p.b.Name(p.b.Last(p.b.NameOf(name))).Kind {
	case ast.NameDestructor, ast.NameOperator, ast.NameConversion:
		p.restore(st)
		return false
	}
	d.TypeKind = ast.TypeSpecNamed
	d.Name = name
	*kids = append(*kids, name)
	return true
}

// isConstructorName reports A::A( and A<T>::A( shapes.
func (p *Parser) isConstructorName(name ast.NodeID) bool {
	if !p.at(token.LParen) {
		return false
	}
	id := p.b.NameOf(name)
	quals := p.b.Qualifiers(id)
	if len(quals) == 0 {
		return false
	}
	last := p.b.Spelling(p.b.Last(id))
	prev := quals[len(quals)-1]
	if n := p.b.Name(prev); n != nil && n.Kind == ast.NameTemplateID {
		prev = n.Template
	}
	return p.b.Spelling(prev) == last
}

func (p *Parser) decltypeIsQualifier() bool {
	if p.peekN(1).Kind != token.LParen {
		return false
	}
	depth := 0
	for i := p.pos + 1; i < len(p.toks); i++ {
		switch p.toks[i].Kind {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 {
				return i+1 < len(p.toks) && p.toks[i+1].Kind == token.ColonColon
			}
		case token.EOF:
			return false
		}
	}
	return false
}

func (p *Parser) parseDecltypeSpec(d *ast.DeclSpecData, kids *[]ast.NodeID) {
	p.advance() // decltype
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after decltype"); !ok {
		return
	}
	if p.at(token.KwAuto) && p.peekN(1).Kind == token.RParen {
		p.advance()
		p.advance()
		d.TypeKind = ast.TypeSpecDecltypeAuto
		return
	}
	saved := p.noGt
	p.noGt = 0
	expr := p.parseExpression()
	p.noGt = saved
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after decltype operand")
	d.TypeKind = ast.TypeSpecDecltype
	d.Expr = expr
	*kids = append(*kids, expr)
}

// parseTypeofSpec parses GNU typeof(type-or-expression).
func (p *Parser) parseTypeofSpec(d *ast.DeclSpecData, kids *[]ast.NodeID) {
	p.advance()
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after typeof"); !ok {
		return
	}
	saved := p.noGt
	p.noGt = 0
	operand := p.parseTypeOrExpr(token.RParen)
	p.noGt = saved
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after typeof operand")
	d.TypeKind = ast.TypeSpecTypeof
	d.Expr = operand
	*kids = append(*kids, operand)
}

// parseClassSpec parses a class-specifier or an elaborated class name.
func (p *Parser) parseClassSpec(mode declSpecMode, d *ast.DeclSpecData) ast.NodeID {
	keyTok := p.advance()
	start := keyTok.Span
	p.skipAttributes()
	var name ast.NodeID
	if p.atNameStart() {
		name = p.parseName(nameOpts{})
		if !name.IsValid() {
			return ast.NoNodeID
		}
	}
	final := false
	if p.at(token.Ident) && p.peek().Text == "final" && p.peekN(1).Kind != token.Semicolon {
		p.advance()
		final = true
	}
	isDef := mode != declSpecTypeOnly && (p.at(token.LBrace) || (p.at(token.Colon) && mode == declSpecFull))
	if !isDef {
		if !name.IsValid() {
			p.err(diag.SynExpectIdentifier, "expected class name or '{'")
			return ast.NoNodeID
		}
		if p.at(token.Semicolon) && mode == declSpecFull {
			p.setNameRole(name, ast.RoleDeclaration)
		}
		p.registerPendingTemplate(name)
		d.TypeKind = ast.TypeSpecElaborated
		d.Key = keyTok.Kind
		d.Name = name
		return name
	}
	if name.IsValid() {
		p.setNameRole(name, ast.RoleDefinition)
		p.registerPendingTemplate(name)
	}
	data := ast.ClassSpecData{Key: keyTok.Kind, Name: name, Final: final}
	id := ast.NewWithPayload(p.b, ast.NodeClassSpec, start, p.b.Payloads.Classes, data)
	p.b.AddKid(id, name)
	if p.eat(token.Colon) {
		for {
			base := p.parseBaseSpec()
			if !base.IsValid() {
				p.resync(token.LBrace)
				break
			}
			p.b.AddKid(id, base)
			p.b.ClassSpec(id).Bases = append(p.b.ClassSpec(id).Bases, base)
			if !p.eat(token.Comma) {
				break
			}
		}
	}
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{' to begin class body"); !ok {
		return p.finish(id, start)
	}
	className := ""
	if name.IsValid() {
		className = p.b.Spelling(p.b.Base(p.b.NameOf(name)))
	}
	p.classes = append(p.classes, className)
	savedNoGt, savedForce := p.noGt, p.forceInit
	p.noGt, p.forceInit = 0, false
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		before := p.pos
		var member ast.NodeID
		if p.atOr(token.KwPublic, token.KwProtected, token.KwPrivate) && p.peekN(1).Kind == token.Colon {
			tok := p.advance()
			p.advance()
			member = p.node(ast.NodeAccessSpec, tok.Span)
			p.b.Node(member).Op = tok.Kind
		} else {
			member = p.parseDeclaration(ctxClass)
		}
		if member.IsValid() {
			p.b.AddKid(id, member)
			p.b.ClassSpec(id).Members = append(p.b.ClassSpec(id).Members, member)
		}
		if p.pos == before {
			p.err(diag.SynUnexpectedToken, "unexpected "+describe(p.peek())+" in class body")
			p.recoverFrom(before)
		}
		if p.trial > 0 && p.failed {
			break
		}
	}
	p.forceInit = savedForce
	p.noGt = savedNoGt
	p.classes = p.classes[:len(p.classes)-1]
	p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close class body")
	d.TypeKind = ast.TypeSpecClass
	d.Spec = id
	return p.finish(id, start)
}

func (p *Parser) parseBaseSpec() ast.NodeID {
	start := p.peek().Span
	var flags ast.NodeFlags
	access := token.Invalid
	for {
		switch {
		case p.at(token.KwVirtual):
			p.advance()
			flags |= ast.FlagVirtual
			continue
		case p.atOr(token.KwPublic, token.KwProtected, token.KwPrivate):
			access = p.advance().Kind
			continue
		}
		break
	}
	if !p.atNameStart() {
		p.err(diag.SynBadBaseClause, "expected base class name")
		return ast.NoNodeID
	}
	name := p.parseName(nameOpts{})
	if !name.IsValid() {
		return ast.NoNodeID
	}
	if p.eat(token.Ellipsis) {
		flags |= ast.FlagPack
	}
	id := p.node(ast.NodeBaseSpec, start, name)
	n := p.b.Node(id)
	n.Op = access
	n.Flags |= flags
	return id
}

// parseEnumSpec parses an enum-specifier, an opaque enum declaration or an
// elaborated enum name.
func (p *Parser) parseEnumSpec(mode declSpecMode, d *ast.DeclSpecData) ast.NodeID {
	start := p.advance().Span // enum
	scoped := p.eat(token.KwClass) || p.eat(token.KwStruct)
	p.skipAttributes()
	var name ast.NodeID
	if p.atNameStart() {
		name = p.parseName(nameOpts{})
		if !name.IsValid() {
			return ast.NoNodeID
		}
	}
	var underlying ast.NodeID
	if p.at(token.Colon) && mode != declSpecTypeOnly {
		p.advance()
		tyStart := p.peek().Span
		spec := p.parseDeclSpecs(declSpecTypeOnly)
		if !spec.IsValid() {
			p.err(diag.SynExpectType, "expected underlying type after ':'")
			return ast.NoNodeID
		}
		underlying = p.node(ast.NodeTypeID, tyStart, spec)
	}
	hasBody := p.at(token.LBrace) && mode != declSpecTypeOnly
	opaque := !hasBody && mode == declSpecFull && p.at(token.Semicolon) && (scoped || underlying.IsValid())
	if !hasBody && !opaque {
		if !name.IsValid() {
			p.err(diag.SynExpectIdentifier, "expected enum name or '{'")
			return ast.NoNodeID
		}
		d.TypeKind = ast.TypeSpecElaborated
		d.Key = token.KwEnum
		d.Name = name
		return name
	}
	if name.IsValid() {
		if hasBody {
			p.setNameRole(name, ast.RoleDefinition)
		} else {
			p.setNameRole(name, ast.RoleDeclaration)
		}
	}
	data := ast.EnumSpecData{Name: name, Scoped: scoped, Underlying: underlying, Opaque: opaque}
	id := ast.NewWithPayload(p.b, ast.NodeEnumSpec, start, p.b.Payloads.Enums, data)
	p.b.AddKid(id, name)
	p.b.AddKid(id, underlying)
	if scoped {
		p.b.Node(id).Flags |= ast.FlagScoped
	}
	if opaque {
		p.b.Node(id).Flags |= ast.FlagOpaque
	}
	if hasBody {
		p.advance()
		for !p.at(token.RBrace) && !p.at(token.EOF) {
			e := p.parseEnumerator()
			if !e.IsValid() {
				p.resync(token.Comma, token.RBrace)
			} else {
				p.b.AddKid(id, e)
				p.b.EnumSpec(id).Enumerators = append(p.b.EnumSpec(id).Enumerators, e)
			}
			if !p.eat(token.Comma) {
				break
			}
		}
		p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close enumerator list")
	}
	d.TypeKind = ast.TypeSpecEnum
	d.Spec = id
	return p.finish(id, start)
}

func (p *Parser) parseEnumerator() ast.NodeID {
	tok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected enumerator name")
	if !ok {
		return ast.NoNodeID
	}
	name := p.simpleName(tok, ast.NameIdent, tok.Text)
	p.setRole(name, ast.RoleDefinition)
	p.skipAttributes()
	var value ast.NodeID
	if p.eat(token.Assign) {
		value = p.parseConditional()
	}
	return p.node(ast.NodeEnumerator, tok.Span, name, value)
}

// setNameRole gives a declared name its role; for a qualified name the
// final segment gets the same role.
func (p *Parser) setNameRole(node ast.NodeID, role ast.Role) {
	id := p.b.NameOf(node)
	if n := p.b.Name(id); n != nil {
		n.Role = role
	}
	if last := p.b.Last(id); last != id {
		if n := p.b.Name(last); n != nil {
			n.Role = role
		}
	}
}
