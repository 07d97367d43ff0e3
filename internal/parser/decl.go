package parser

import (
	"cppsema/internal/ast"
	"cppsema/internal/diag"
	"cppsema/internal/source"
	"cppsema/internal/token"
)

type declCtx uint8

const (
	ctxNamespace declCtx = iota
	ctxClass
	ctxBlock
)

// parseDeclaration parses one declaration in namespace, class or block
// scope.
func (p *Parser) parseDeclaration(ctx declCtx) ast.NodeID {
	p.skipAttributes()
	tok := p.peek()
	switch tok.Kind {
	case token.Semicolon:
		p.advance()
		return p.node(ast.NodeEmptyDecl, tok.Span)
	case token.KwNamespace:
		return p.parseNamespace(false)
	case token.KwInline:
		if p.peekN(1).Kind == token.KwNamespace {
			p.advance()
			return p.parseNamespace(true)
		}
	case token.KwUsing:
		return p.parseUsing()
	case token.KwTemplate:
		return p.parseTemplateDecl(ctx, false)
	case token.KwExtern:
		switch p.peekN(1).Kind {
		case token.StringLit:
			return p.parseLinkageSpec(ctx)
		case token.KwTemplate:
			p.advance()
			return p.parseTemplateDecl(ctx, true)
		}
	case token.KwStaticAssert:
		return p.parseStaticAssert()
	}
	return p.parseSimpleDeclaration(ctx)
}

// parseSimpleDeclaration parses a simple declaration or a function
// definition. A declarator whose parentheses read both as parameters and as
// an initializer yields an ambiguity between the two declarations.
func (p *Parser) parseSimpleDeclaration(ctx declCtx) ast.NodeID {
	savedVexing := p.vexing
	defer func() { p.vexing = savedVexing }()
	p.vexing = false
	if p.forceInit || ctx == ctxClass {
		return p.simpleDeclaration(ctx)
	}
	st := p.save()
	first := p.simpleDeclaration(ctx)
	vexing := p.vexing
	if !vexing || !first.IsValid() || p.b.Node(first).Kind != ast.NodeSimpleDecl {
		return first
	}
	end := p.lastSpan.End
	p.restore(st)
	p.forceInit = true
	second := p.try(func() ast.NodeID { return p.simpleDeclaration(ctx) })
	p.forceInit = false
	if second.ok && second.end == end {
		return p.ambiguity(ast.NodeAmbiguousStatement, first, second.node)
	}
	// replay the function reading to get back to its end
	p.restore(st)
	savedFailed := p.failed
	p.trial++
	p.simpleDeclaration(ctx)
	p.trial--
	p.failed = savedFailed
	return first
}

func (p *Parser) simpleDeclaration(ctx declCtx) ast.NodeID {
	start := p.peek().Span
	spec := p.parseDeclSpecs(declSpecFull)
	if p.at(token.Semicolon) && spec.IsValid() {
		d := p.b.DeclSpec(spec)
		switch d.TypeKind {
		case ast.TypeSpecClass, ast.TypeSpecEnum, ast.TypeSpecElaborated:
		default:
			p.err(diag.SynExpectDeclarator, "declaration does not declare anything")
		}
		p.advance()
		return p.node(ast.NodeSimpleDecl, start, spec)
	}
	if spec.IsValid() && !p.hasType(spec) && !p.atDeclaratorID() && !p.at(token.LParen) {
		p.err(diag.SynExpectType, "expected type, got "+describe(p.peek()))
		return ast.NoNodeID
	}
	var decls []ast.NodeID
	for {
		decl := p.parseDeclarator(declaratorOpts{mode: declNamed, init: true, bitfield: ctx == ctxClass})
		if !decl.IsValid() {
			if p.trial == 0 {
				p.resync(token.Semicolon, token.RBrace)
				p.eat(token.Semicolon)
			}
			return ast.NoNodeID
		}
		if len(decls) == 0 && p.atFunctionBody(decl) {
			return p.parseFunctionDef(start, spec, decl)
		}
		decls = append(decls, decl)
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after declaration, got "+describe(p.peek())); !ok {
		if p.trial == 0 {
			p.resync(token.Semicolon, token.RBrace)
			p.eat(token.Semicolon)
		}
	}
	for _, decl := range decls {
		p.setDeclaratorRole(decl, p.declaratorRole(spec, decl, ctx))
	}
	id := p.b.NewNode(ast.NodeSimpleDecl, start)
	p.b.AddKid(id, spec)
	for _, d := range decls {
		p.b.AddKid(id, d)
	}
	return p.finish(id, start)
}

// declaratorRole decides whether a declarator of a simple declaration
// declares or defines its entity.
func (p *Parser) declaratorRole(spec, decl ast.NodeID, ctx declCtx) ast.Role {
	var storage ast.StorageFlags
	if d := p.b.DeclSpec(spec); d != nil {
		storage = d.Storage
	}
	dd := p.b.Declarator(decl)
	switch {
	case storage&ast.StorageTypedef != 0:
		return ast.RoleDefinition
	case storage&ast.StorageFriend != 0:
		return ast.RoleDeclaration
	case dd.Function(p.b) != nil:
		if dd.Default || dd.Delete {
			return ast.RoleDefinition
		}
		return ast.RoleDeclaration
	case storage&ast.StorageExtern != 0 && !dd.Init.IsValid():
		return ast.RoleDeclaration
	case ctx == ctxClass && storage&ast.StorageStatic != 0:
		return ast.RoleDeclaration
	}
	return ast.RoleDefinition
}

func (p *Parser) setDeclaratorRole(decl ast.NodeID, role ast.Role) {
	d := p.b.Declarator(decl)
	if d == nil {
		return
	}
	if name := d.Innermost(p.b).Name; name.IsValid() {
		p.setNameRole(name, role)
	}
}

// atFunctionBody reports whether a function body, constructor initializer
// list or function-try-block follows decl.
func (p *Parser) atFunctionBody(decl ast.NodeID) bool {
	d := p.b.Declarator(decl)
	if d.Function(p.b) == nil || d.Init.IsValid() || d.Pure || d.Default || d.Delete {
		return false
	}
	switch p.peek().Kind {
	case token.LBrace, token.KwTry:
		return true
	case token.Colon:
		return !d.BitWidth.IsValid()
	}
	return false
}

func (p *Parser) parseFunctionDef(start source.Span, spec, decl ast.NodeID) ast.NodeID {
	data := ast.FunctionDefData{DeclSpec: spec, Declarator: decl}
	p.setDeclaratorRole(decl, ast.RoleDefinition)
	kids := []ast.NodeID{spec, decl}
	if p.eat(token.KwTry) {
		data.TryBlock = true
	}
	if p.eat(token.Colon) {
		for {
			init := p.parseCtorInit()
			if !init.IsValid() {
				p.resync(token.LBrace)
				break
			}
			data.CtorInits = append(data.CtorInits, init)
			kids = append(kids, init)
			if !p.eat(token.Comma) {
				break
			}
		}
	}
	// constructors are not recognized inside function bodies
	p.classes = append(p.classes, "")
	data.Body = p.parseCompound()
	p.classes = p.classes[:len(p.classes)-1]
	kids = append(kids, data.Body)
	if data.TryBlock {
		for p.at(token.KwCatch) {
			h := p.parseHandler()
			data.Handlers = append(data.Handlers, h)
			kids = append(kids, h)
		}
	}
	id := ast.NewWithPayload(p.b, ast.NodeFunctionDef, start, p.b.Payloads.FunctionDefs, data)
	for _, k := range kids {
		p.b.AddKid(id, k)
	}
	if !data.Body.IsValid() {
		return ast.NoNodeID
	}
	return p.finish(id, start)
}

// parseCtorInit parses one mem-initializer.
func (p *Parser) parseCtorInit() ast.NodeID {
	start := p.peek().Span
	name := p.parseName(nameOpts{})
	if !name.IsValid() {
		return ast.NoNodeID
	}
	var init ast.NodeID
	switch {
	case p.at(token.LParen):
		init = p.parseParenInit()
	case p.at(token.LBrace):
		init = p.parseBracedInit()
	default:
		p.err(diag.SynUnexpectedToken, "expected '(' or '{' in member initializer")
		return ast.NoNodeID
	}
	if !init.IsValid() {
		return ast.NoNodeID
	}
	id := p.node(ast.NodeCtorInit, start, name, init)
	if p.eat(token.Ellipsis) {
		p.b.Node(id).Flags |= ast.FlagPack
		p.finish(id, start)
	}
	return id
}

func (p *Parser) parseNamespace(inline bool) ast.NodeID {
	start := p.advance().Span // namespace
	var name ast.NodeID
	if p.at(token.Ident) {
		tok := p.advance()
		if p.at(token.Assign) {
			return p.parseNamespaceAlias(start, tok)
		}
		name = p.simpleName(tok, ast.NameIdent, tok.Text)
		p.setRole(name, ast.RoleDefinition)
	}
	id := p.b.NewNode(ast.NodeNamespaceDef, start)
	if inline {
		p.b.Node(id).Flags |= ast.FlagInline
	}
	p.b.AddKid(id, name)
	p.skipAttributes()
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{' after namespace name"); !ok {
		p.resync(token.Semicolon)
		p.eat(token.Semicolon)
		return p.finish(id, start)
	}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		before := p.pos
		p.b.AddKid(id, p.parseDeclaration(ctxNamespace))
		if p.pos == before {
			p.err(diag.SynUnexpectedToken, "unexpected "+describe(p.peek())+" in namespace")
			p.recoverFrom(before)
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close namespace")
	return p.finish(id, start)
}

func (p *Parser) parseNamespaceAlias(start source.Span, alias token.Token) ast.NodeID {
	p.advance() // =
	name := p.simpleName(alias, ast.NameIdent, alias.Text)
	p.setRole(name, ast.RoleDefinition)
	target := p.parseName(nameOpts{})
	if !target.IsValid() {
		return ast.NoNodeID
	}
	p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after namespace alias")
	return p.node(ast.NodeNamespaceAlias, start, name, target)
}

func (p *Parser) parseUsing() ast.NodeID {
	start := p.advance().Span // using
	if p.eat(token.KwNamespace) {
		name := p.parseName(nameOpts{})
		if !name.IsValid() {
			p.resync(token.Semicolon)
			p.eat(token.Semicolon)
			return ast.NoNodeID
		}
		p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after using-directive")
		return p.node(ast.NodeUsingDirective, start, name)
	}
	if p.at(token.Ident) && (p.peekN(1).Kind == token.Assign || p.peekN(1).Kind == token.KwAttribute) {
		tok := p.advance()
		name := p.simpleName(tok, ast.NameIdent, tok.Text)
		p.setRole(name, ast.RoleDefinition)
		p.registerPendingTemplate(name)
		p.skipAttributes()
		p.advance() // =
		ty := p.parseTypeID()
		if !ty.IsValid() {
			p.resync(token.Semicolon)
			p.eat(token.Semicolon)
			return ast.NoNodeID
		}
		p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after alias declaration")
		return p.node(ast.NodeAliasDecl, start, name, ty)
	}
	typename := p.eat(token.KwTypename)
	name := p.parseName(nameOpts{role: ast.RoleDeclaration, operator: true, typename: typename})
	if !name.IsValid() {
		p.resync(token.Semicolon)
		p.eat(token.Semicolon)
		return ast.NoNodeID
	}
	p.setNameRole(name, ast.RoleDeclaration)
	p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after using-declaration")
	id := p.node(ast.NodeUsingDecl, start, name)
	if typename {
		p.b.Node(id).Flags |= ast.FlagTypename
	}
	return id
}

// parseTemplateDecl parses a template declaration, an explicit
// specialization or an explicit instantiation.
func (p *Parser) parseTemplateDecl(ctx declCtx, extern bool) ast.NodeID {
	start := p.advance().Span // template
	if !p.at(token.Lt) {
		decl := p.parseDeclaration(ctx)
		id := p.node(ast.NodeExplicitInst, start, decl)
		if extern {
			p.b.Node(id).Flags |= ast.FlagExtern
		}
		return id
	}
	p.advance() // <
	var params []ast.NodeID
	p.noGt++
	for !p.atOr(token.Gt, token.Shr, token.EOF) {
		param := p.parseTemplateParam()
		if !param.IsValid() {
			p.resync(token.Comma, token.Gt)
		} else {
			params = append(params, param)
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	p.noGt--
	explicitSpec := len(params) == 0
	if !p.expectGt() {
		p.resync(token.Semicolon, token.LBrace)
	}
	p.pendingTemplate = !explicitSpec
	decl := p.parseDeclaration(ctx)
	p.pendingTemplate = false
	data := ast.TemplateData{Params: params, Decl: decl}
	id := ast.NewWithPayload(p.b, ast.NodeTemplateDecl, start, p.b.Payloads.Templates, data)
	for _, prm := range params {
		p.b.AddKid(id, prm)
	}
	p.b.AddKid(id, decl)
	if explicitSpec {
		p.b.Node(id).Flags |= ast.FlagExplicitSpec
	}
	return p.finish(id, start)
}

// registerPendingTemplate records the name introduced by a template
// declaration so later uses followed by '<' parse as template-ids.
func (p *Parser) registerPendingTemplate(name ast.NodeID) {
	if !p.pendingTemplate {
		return
	}
	p.pendingTemplate = false
	p.templates[p.b.Spelling(p.b.Base(p.b.NameOf(name)))] = true
}

func (p *Parser) parseTemplateParam() ast.NodeID {
	start := p.peek().Span
	switch {
	case p.at(token.KwTemplate):
		p.advance()
		if _, ok := p.expect(token.Lt, diag.SynBadTemplateParam, "expected '<' after 'template'"); !ok {
			return ast.NoNodeID
		}
		var inner []ast.NodeID
		for !p.atOr(token.Gt, token.Shr, token.EOF) {
			prm := p.parseTemplateParam()
			if !prm.IsValid() {
				return ast.NoNodeID
			}
			inner = append(inner, prm)
			if !p.eat(token.Comma) {
				break
			}
		}
		if !p.expectGt() {
			return ast.NoNodeID
		}
		if !p.atOr(token.KwClass, token.KwTypename) {
			p.err(diag.SynBadTemplateParam, "expected 'class' in template template parameter")
			return ast.NoNodeID
		}
		p.advance()
		data := ast.TemplateParamData{Kind: ast.TParamTemplate, Params: inner}
		data.Pack = p.eat(token.Ellipsis)
		if p.at(token.Ident) {
			tok := p.advance()
			data.Name = p.simpleName(tok, ast.NameIdent, tok.Text)
			p.setRole(data.Name, ast.RoleDefinition)
			p.templates[tok.Text] = true
		}
		if p.eat(token.Assign) {
			data.Default = p.parseName(nameOpts{})
		}
		id := ast.NewWithPayload(p.b, ast.NodeTemplateParam, start, p.b.Payloads.TParams, data)
		for _, k := range inner {
			p.b.AddKid(id, k)
		}
		p.b.AddKid(id, data.Name)
		p.b.AddKid(id, data.Default)
		return p.finish(id, start)
	case p.atOr(token.KwClass, token.KwTypename) && p.isTypeParam():
		p.advance()
		data := ast.TemplateParamData{Kind: ast.TParamType}
		data.Pack = p.eat(token.Ellipsis)
		if p.at(token.Ident) {
			tok := p.advance()
			data.Name = p.simpleName(tok, ast.NameIdent, tok.Text)
			p.setRole(data.Name, ast.RoleDefinition)
		}
		if p.eat(token.Assign) {
			data.Default = p.parseTypeID()
			if !data.Default.IsValid() {
				return ast.NoNodeID
			}
		}
		id := ast.NewWithPayload(p.b, ast.NodeTemplateParam, start, p.b.Payloads.TParams, data)
		p.b.AddKid(id, data.Name)
		p.b.AddKid(id, data.Default)
		return p.finish(id, start)
	}
	param := p.parseParamDecl()
	if !param.IsValid() {
		return ast.NoNodeID
	}
	data := ast.TemplateParamData{Kind: ast.TParamNonType, Param: param}
	decl := p.b.Declarator(p.b.Node(param).Kids[1])
	data.Pack = decl.Pack
	data.Name = decl.Innermost(p.b).Name
	if decl.Init.IsValid() {
		data.Default = decl.Init
	}
	id := ast.NewWithPayload(p.b, ast.NodeTemplateParam, start, p.b.Payloads.TParams, data)
	p.b.AddKid(id, param)
	return p.finish(id, start)
}

// isTypeParam distinguishes 'class T' / 'typename T' parameters from a
// non-type parameter whose type starts with 'typename'.
func (p *Parser) isTypeParam() bool {
	next := p.peekN(1)
	switch next.Kind {
	case token.Ellipsis, token.Comma, token.Gt, token.Shr, token.Assign:
		return true
	case token.Ident:
		switch p.peekN(2).Kind {
		case token.Comma, token.Gt, token.Shr, token.Assign:
			return true
		}
	}
	return false
}

func (p *Parser) parseLinkageSpec(ctx declCtx) ast.NodeID {
	start := p.advance().Span // extern
	p.advance()               // "C"
	id := p.b.NewNode(ast.NodeLinkageSpec, start)
	if p.eat(token.LBrace) {
		for !p.at(token.RBrace) && !p.at(token.EOF) {
			before := p.pos
			p.b.AddKid(id, p.parseDeclaration(ctx))
			if p.pos == before {
				p.err(diag.SynUnexpectedToken, "unexpected "+describe(p.peek())+" in linkage specification")
				p.recoverFrom(before)
			}
		}
		p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close linkage specification")
	} else {
		p.b.AddKid(id, p.parseDeclaration(ctx))
	}
	return p.finish(id, start)
}

func (p *Parser) parseStaticAssert() ast.NodeID {
	start := p.advance().Span
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after static_assert"); !ok {
		p.resync(token.Semicolon)
		p.eat(token.Semicolon)
		return ast.NoNodeID
	}
	cond := p.parseAssignment()
	var msg ast.NodeID
	if p.eat(token.Comma) {
		msg = p.parsePrimary()
	}
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close static_assert")
	p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after static_assert")
	return p.node(ast.NodeStaticAssert, start, cond, msg)
}
