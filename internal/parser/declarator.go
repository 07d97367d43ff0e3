package parser

import (
	"cppsema/internal/ast"
	"cppsema/internal/diag"
	"cppsema/internal/token"
)

type declMode uint8

const (
	declNamed    declMode = iota // a declarator-id is required
	declAbstract                 // no declarator-id
	declEither                   // parameters
)

type declaratorOpts struct {
	mode     declMode
	init     bool // initializers allowed
	bitfield bool
	noParens bool // new-type-id: neither nested declarators nor function chunks
}

func (p *Parser) parseCV() ast.CVQual {
	var cv ast.CVQual
	for {
		switch p.peek().Kind {
		case token.KwConst:
			cv |= ast.CVConst
		case token.KwVolatile:
			cv |= ast.CVVolatile
		case token.KwRestrict:
			cv |= ast.CVRestrict
		default:
			return cv
		}
		p.advance()
	}
}

// parseDeclarator parses pointer operators, the declarator-id or a nested
// declarator, array and function suffixes, and for declarations the
// virt-specifiers, bit-field width and initializer.
func (p *Parser) parseDeclarator(o declaratorOpts) ast.NodeID {
	start := p.peek().Span
	var d ast.DeclaratorData
	var kids []ast.NodeID

ptrs:
	for {
		p.skipAttributes()
		switch {
		case p.at(token.Star):
			p.advance()
			d.Ptrs = append(d.Ptrs, ast.PtrOp{Kind: ast.PtrPointer, CV: p.parseCV()})
		case p.at(token.Amp):
			p.advance()
			d.Ptrs = append(d.Ptrs, ast.PtrOp{Kind: ast.PtrLRef})
		case p.at(token.AndAnd):
			p.advance()
			d.Ptrs = append(d.Ptrs, ast.PtrOp{Kind: ast.PtrRRef})
		case p.isPtrToMemberAt(p.pos):
			cls := p.parseName(nameOpts{})
			if !cls.IsValid() {
				return ast.NoNodeID
			}
			p.expect(token.ColonColon, diag.SynUnexpectedToken, "expected '::*'")
			p.expect(token.Star, diag.SynUnexpectedToken, "expected '::*'")
			kids = append(kids, cls)
			d.Ptrs = append(d.Ptrs, ast.PtrOp{Kind: ast.PtrMember, CV: p.parseCV(), Class: cls})
		default:
			break ptrs
		}
	}

	if p.at(token.Ellipsis) && o.mode == declEither {
		p.advance()
		d.Pack = true
	}
	switch {
	case p.at(token.LParen) && !o.noParens && p.parenStartsNested(o.mode):
		p.advance()
		nested := p.parseDeclarator(declaratorOpts{mode: o.mode})
		if !nested.IsValid() {
			return ast.NoNodeID
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close declarator"); !ok {
			return ast.NoNodeID
		}
		d.Nested = nested
		kids = append(kids, nested)
	case o.mode != declAbstract && p.atDeclaratorID():
		name := p.parseName(nameOpts{role: ast.RoleDeclaration, destructor: true, operator: true})
		if !name.IsValid() {
			return ast.NoNodeID
		}
		d.Name = name
		kids = append(kids, name)
		p.registerPendingTemplate(name)
	case o.mode == declNamed:
		p.err(diag.SynExpectDeclarator, "expected declarator, got "+describe(p.peek()))
		return ast.NoNodeID
	}

	for {
		if p.at(token.LBracket) && p.peekN(1).Kind != token.LBracket {
			p.advance()
			var size ast.NodeID
			if !p.at(token.RBracket) {
				saved := p.noGt
				p.noGt = 0
				size = p.parseConditional()
				p.noGt = saved
				kids = append(kids, size)
			}
			if _, ok := p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']'"); !ok {
				return ast.NoNodeID
			}
			d.Chunks = append(d.Chunks, ast.Chunk{Kind: ast.ChunkArray, Size: size})
			continue
		}
		if !p.at(token.LParen) || o.noParens {
			break
		}
		var chunk ast.Chunk
		var chunkKids []ast.NodeID
		parse := func() bool {
			var ok bool
			chunk, chunkKids, ok = p.parseFunctionChunk()
			return ok
		}
		if o.init && d.Name.IsValid() && len(d.Chunks) == 0 {
			if p.forceInit {
				break
			}
			before := p.save()
			asInit := p.tryOK(func() bool {
				init := p.parseParenInit()
				return init.IsValid() && len(p.b.Node(init).Kids) > 0
			})
			p.restore(before)
			asParams := p.tryOK(parse)
			if !asParams.ok {
				break
			}
			if asInit.ok && asInit.end == asParams.end {
				p.vexing = true
			}
		} else if !parse() {
			return ast.NoNodeID
		}
		d.Chunks = append(d.Chunks, chunk)
		kids = append(kids, chunkKids...)
	}

	isFunc := p.declaratorIsFunction(&d)
virt:
	for isFunc && p.at(token.Ident) {
		switch p.peek().Text {
		case "override":
			d.Override = true
		case "final":
			d.Final = true
		default:
			break virt
		}
		p.advance()
	}
	p.skipAttributes()
	if o.bitfield && p.at(token.Colon) {
		p.advance()
		d.BitWidth = p.parseConditional()
		kids = append(kids, d.BitWidth)
	}
	if o.init {
		switch {
		case p.at(token.Assign) && isFunc:
			next := p.peekN(1)
			switch {
			case next.Kind == token.IntLit && next.Text == "0":
				d.Pure = true
			case next.Kind == token.KwDefault:
				d.Default = true
			case next.Kind == token.KwDelete:
				d.Delete = true
			default:
				p.err(diag.SynUnexpectedToken, "expected '0', 'default' or 'delete' after '=' in function declaration")
				return ast.NoNodeID
			}
			p.advance()
			p.advance()
		case p.at(token.Assign):
			eq := p.advance().Span
			val := p.parseInitializerClause()
			if !val.IsValid() {
				return ast.NoNodeID
			}
			d.Init = p.node(ast.NodeInitEquals, eq, val)
			kids = append(kids, d.Init)
		case p.at(token.LParen) && !isFunc && d.Name.IsValid():
			d.Init = p.parseParenInit()
			if !d.Init.IsValid() {
				return ast.NoNodeID
			}
			kids = append(kids, d.Init)
		case p.at(token.LBrace) && !isFunc && d.Name.IsValid():
			d.Init = p.parseBracedInit()
			if !d.Init.IsValid() {
				return ast.NoNodeID
			}
			kids = append(kids, d.Init)
		}
	}

	id := ast.NewWithPayload(p.b, ast.NodeDeclarator, start, p.b.Payloads.Declarators, d)
	for _, k := range kids {
		p.b.AddKid(id, k)
	}
	return p.finish(id, start)
}

// declaratorIsFunction reports whether the declarator being built declares
// a function.
func (p *Parser) declaratorIsFunction(d *ast.DeclaratorData) bool {
	return d.Function(p.b) != nil
}

// atDeclaratorID reports whether the current token can begin a
// declarator-id.
func (p *Parser) atDeclaratorID() bool {
	switch p.peek().Kind {
	case token.Ident, token.KwOperator, token.Tilde:
		return true
	case token.ColonColon:
		return true
	case token.KwDecltype:
		return p.decltypeIsQualifier()
	}
	return false
}

// isPtrToMemberAt reports whether tokens at i spell a nested-name-specifier
// followed by '::*'.
func (p *Parser) isPtrToMemberAt(i int) bool {
	if i < len(p.toks) && p.toks[i].Kind == token.ColonColon {
		i++
	}
	for i < len(p.toks) {
		if p.toks[i].Kind != token.Ident {
			return false
		}
		name := p.toks[i].Text
		i++
		if i < len(p.toks) && p.toks[i].Kind == token.Lt && p.templates[name] {
			i = p.skipAngles(i)
			if i < 0 {
				return false
			}
		}
		if i+1 >= len(p.toks) || p.toks[i].Kind != token.ColonColon {
			return false
		}
		if p.toks[i+1].Kind == token.Star {
			return true
		}
		i++
	}
	return false
}

// skipAngles returns the index after the '>' matching the '<' at i, or -1.
func (p *Parser) skipAngles(i int) int {
	depth := 0
	for ; i < len(p.toks); i++ {
		switch p.toks[i].Kind {
		case token.Lt:
			depth++
		case token.Gt:
			depth--
		case token.Shr:
			depth -= 2
		case token.Semicolon, token.LBrace, token.RBrace, token.EOF:
			return -1
		}
		if depth <= 0 {
			return i + 1
		}
	}
	return -1
}

// parenStartsNested decides whether '(' opens a nested declarator rather
// than a parameter list.
func (p *Parser) parenStartsNested(mode declMode) bool {
	switch p.peekN(1).Kind {
	case token.Star, token.Amp, token.AndAnd:
		return true
	case token.Ident, token.ColonColon:
		if p.isPtrToMemberAt(p.pos + 1) {
			return true
		}
		return mode == declNamed
	case token.Tilde, token.KwOperator, token.LParen:
		return mode == declNamed
	}
	return false
}

// parseFunctionChunk parses '(' parameters ')' and the trailing
// cv-qualifiers, ref-qualifier, exception specification and return type.
func (p *Parser) parseFunctionChunk() (ast.Chunk, []ast.NodeID, bool) {
	return p.parseFunctionChunkWith(nil)
}

// parseFunctionChunkWith runs afterParams right after the closing ')'.
func (p *Parser) parseFunctionChunkWith(afterParams func()) (ast.Chunk, []ast.NodeID, bool) {
	var c ast.Chunk
	var kids []ast.NodeID
	c.Kind = ast.ChunkFunction
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '('"); !ok {
		return c, nil, false
	}
	saved := p.noGt
	p.noGt = 0
	defer func() { p.noGt = saved }()
	if !p.at(token.RParen) {
		for {
			if p.eat(token.Ellipsis) {
				c.Variadic = true
				break
			}
			param := p.parseParamDecl()
			if !param.IsValid() {
				return c, nil, false
			}
			c.Params = append(c.Params, param)
			kids = append(kids, param)
			if p.eat(token.Comma) {
				continue
			}
			if p.eat(token.Ellipsis) {
				c.Variadic = true
			}
			break
		}
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close parameter list"); !ok {
		return c, nil, false
	}
	if afterParams != nil {
		afterParams()
	}
	c.CV = p.parseCV()
	switch {
	case p.at(token.Amp):
		p.advance()
		c.Ref = ast.RefLValue
	case p.at(token.AndAnd):
		p.advance()
		c.Ref = ast.RefRValue
	}
	switch {
	case p.at(token.KwNoexcept):
		p.advance()
		c.Except = ast.ExceptNoexcept
		if p.at(token.LParen) {
			p.advance()
			c.Except = ast.ExceptNoexceptExpr
			c.NoexceptExpr = p.parseConditional()
			kids = append(kids, c.NoexceptExpr)
			if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after noexcept operand"); !ok {
				return c, nil, false
			}
		}
	case p.at(token.KwThrow):
		p.advance()
		c.Except = ast.ExceptThrow
		if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after throw"); !ok {
			return c, nil, false
		}
		for !p.at(token.RParen) && !p.at(token.EOF) {
			ty := p.parseTypeID()
			if !ty.IsValid() {
				return c, nil, false
			}
			kids = append(kids, ty)
			p.eat(token.Ellipsis)
			if !p.eat(token.Comma) {
				break
			}
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close exception specification"); !ok {
			return c, nil, false
		}
	}
	p.skipAttributes()
	if p.at(token.Arrow) {
		p.advance()
		c.Trailing = p.parseTypeID()
		if !c.Trailing.IsValid() {
			return c, nil, false
		}
		kids = append(kids, c.Trailing)
	}
	return c, kids, true
}

func (p *Parser) parseParamDecl() ast.NodeID {
	start := p.peek().Span
	spec := p.parseDeclSpecs(declSpecParam)
	if !spec.IsValid() || !p.hasType(spec) {
		p.err(diag.SynExpectType, "expected parameter type, got "+describe(p.peek()))
		return ast.NoNodeID
	}
	decl := p.parseDeclarator(declaratorOpts{mode: declEither})
	if !decl.IsValid() {
		return ast.NoNodeID
	}
	if p.at(token.Assign) {
		eq := p.advance().Span
		val := p.parseInitializerClause()
		if !val.IsValid() {
			return ast.NoNodeID
		}
		init := p.node(ast.NodeInitEquals, eq, val)
		p.b.AddKid(decl, init)
		p.b.Declarator(decl).Init = init
		p.finish(decl, p.b.Node(decl).Span)
	}
	if name := p.b.Declarator(decl).Innermost(p.b).Name; name.IsValid() {
		p.setNameRole(name, ast.RoleDefinition)
	}
	return p.node(ast.NodeParamDecl, start, spec, decl)
}

// parseTypeID parses a type-specifier-seq and an abstract declarator.
func (p *Parser) parseTypeID() ast.NodeID {
	start := p.peek().Span
	spec := p.parseDeclSpecs(declSpecTypeOnly)
	if !spec.IsValid() || !p.hasType(spec) {
		p.err(diag.SynExpectType, "expected type, got "+describe(p.peek()))
		return ast.NoNodeID
	}
	decl := p.parseDeclarator(declaratorOpts{mode: declAbstract})
	if !decl.IsValid() {
		return ast.NoNodeID
	}
	return p.node(ast.NodeTypeID, start, spec, decl)
}

// parseNewTypeID parses the type of a new-expression: no parentheses.
func (p *Parser) parseNewTypeID() ast.NodeID {
	start := p.peek().Span
	spec := p.parseDeclSpecs(declSpecTypeOnly)
	if !spec.IsValid() || !p.hasType(spec) {
		p.err(diag.SynExpectType, "expected type after 'new'")
		return ast.NoNodeID
	}
	decl := p.parseDeclarator(declaratorOpts{mode: declAbstract, noParens: true})
	if !decl.IsValid() {
		return ast.NoNodeID
	}
	return p.node(ast.NodeTypeID, start, spec, decl)
}

// parseConversionDeclarator parses the pointer operators of a
// conversion-type-id.
func (p *Parser) parseConversionDeclarator() ast.NodeID {
	start := p.peek().Span
	var d ast.DeclaratorData
	for {
		switch {
		case p.at(token.Star):
			p.advance()
			d.Ptrs = append(d.Ptrs, ast.PtrOp{Kind: ast.PtrPointer, CV: p.parseCV()})
			continue
		case p.at(token.Amp):
			p.advance()
			d.Ptrs = append(d.Ptrs, ast.PtrOp{Kind: ast.PtrLRef})
			continue
		case p.at(token.AndAnd):
			p.advance()
			d.Ptrs = append(d.Ptrs, ast.PtrOp{Kind: ast.PtrRRef})
			continue
		}
		break
	}
	id := ast.NewWithPayload(p.b, ast.NodeDeclarator, start, p.b.Payloads.Declarators, d)
	return p.finish(id, start)
}

// parseInitializerClause parses an assignment-expression or a braced list.
func (p *Parser) parseInitializerClause() ast.NodeID {
	if p.at(token.LBrace) {
		return p.parseBracedInit()
	}
	return p.parseAssignment()
}

// parseParenInit parses '(' expression-list ')' into an InitParens node.
func (p *Parser) parseParenInit() ast.NodeID {
	start := p.peek().Span
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '('"); !ok {
		return ast.NoNodeID
	}
	saved := p.noGt
	p.noGt = 0
	defer func() { p.noGt = saved }()
	id := p.b.NewNode(ast.NodeInitParens, start)
	if !p.parseInitList(id, token.RParen) {
		return ast.NoNodeID
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'"); !ok {
		return ast.NoNodeID
	}
	return p.finish(id, start)
}

// parseBracedInit parses '{' initializer-list '}'.
func (p *Parser) parseBracedInit() ast.NodeID {
	start := p.peek().Span
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{'"); !ok {
		return ast.NoNodeID
	}
	saved := p.noGt
	p.noGt = 0
	defer func() { p.noGt = saved }()
	id := p.b.NewNode(ast.NodeInitList, start)
	p.b.Node(id).Flags |= ast.FlagBraced
	if !p.parseInitList(id, token.RBrace) {
		return ast.NoNodeID
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close initializer list"); !ok {
		return ast.NoNodeID
	}
	return p.finish(id, start)
}

// parseInitList appends initializer clauses to parent until closer.
func (p *Parser) parseInitList(parent ast.NodeID, closer token.Kind) bool {
	for !p.at(closer) && !p.at(token.EOF) {
		start := p.peek().Span
		item := p.parseInitializerClause()
		if !item.IsValid() {
			return false
		}
		if p.eat(token.Ellipsis) {
			item = p.node(ast.NodePackExpansion, start, item)
		}
		p.b.AddKid(parent, item)
		if !p.eat(token.Comma) {
			break
		}
	}
	return true
}
