package parser

import (
	"strings"

	"cppsema/internal/ast"
	"cppsema/internal/diag"
	"cppsema/internal/source"
	"cppsema/internal/token"
)

func (p *Parser) parsePrimary() ast.NodeID {
	tok := p.peek()
	start := tok.Span
	switch tok.Kind {
	case token.IntLit, token.FloatLit, token.CharLit, token.KwTrue, token.KwFalse, token.KwNullptr:
		p.advance()
		return ast.NewWithPayload(p.b, ast.NodeLiteral, start, p.b.Payloads.Literals,
			ast.LiteralData{Kind: tok.Kind, Text: tok.Text})
	case token.StringLit:
		// adjacent string literals concatenate
		var parts []string
		for p.at(token.StringLit) {
			parts = append(parts, p.advance().Text)
		}
		id := ast.NewWithPayload(p.b, ast.NodeLiteral, start, p.b.Payloads.Literals,
			ast.LiteralData{Kind: token.StringLit, Text: strings.Join(parts, " ")})
		return p.finish(id, start)
	case token.KwThis:
		p.advance()
		return p.node(ast.NodeThis, start)
	case token.LParen:
		p.advance()
		saved := p.noGt
		p.noGt = 0
		inner := p.parseExpression()
		p.noGt = saved
		if !inner.IsValid() {
			return ast.NoNodeID
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'"); !ok {
			return ast.NoNodeID
		}
		return p.node(ast.NodeParen, start, inner)
	case token.LBracket:
		return p.parseLambda()
	case token.KwStaticCast, token.KwDynamicCast, token.KwConstCast, token.KwReinterpretCast:
		return p.parseNamedCast()
	case token.KwTypeid:
		p.advance()
		if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after typeid"); !ok {
			return ast.NoNodeID
		}
		saved := p.noGt
		p.noGt = 0
		operand := p.parseTypeOrExpr(token.RParen)
		p.noGt = saved
		if !operand.IsValid() {
			return ast.NoNodeID
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after typeid operand"); !ok {
			return ast.NoNodeID
		}
		return p.node(ast.NodeTypeid, start, operand)
	case token.KwTypename:
		return p.parseTypeConstruct()
	case token.KwOperator:
		name := p.parseName(nameOpts{operator: true})
		if !name.IsValid() {
			return ast.NoNodeID
		}
		return p.node(ast.NodeIDExpr, start, name)
	}
	if tok.IsFundamentalType() || tok.Kind == token.KwAuto {
		return p.parseTypeConstruct()
	}
	if p.atNameStart() && !(tok.Kind == token.KwDecltype && !p.decltypeIsQualifier()) {
		name := p.parseName(nameOpts{destructor: true, operator: true})
		if !name.IsValid() {
			return ast.NoNodeID
		}
		if p.at(token.LBrace) {
			return p.namedBraceConstruct(start, name)
		}
		return p.node(ast.NodeIDExpr, start, name)
	}
	if tok.Kind == token.KwDecltype {
		return p.parseTypeConstruct()
	}
	p.err(diag.SynExpectExpression, "expected expression, got "+describe(tok))
	return ast.NoNodeID
}

// namedBraceConstruct builds T{...} for a named type T.
func (p *Parser) namedBraceConstruct(start source.Span, name ast.NodeID) ast.NodeID {
	spec := ast.NewWithPayload(p.b, ast.NodeDeclSpec, start, p.b.Payloads.DeclSpecs,
		ast.DeclSpecData{TypeKind: ast.TypeSpecNamed, Name: name})
	p.b.AddKid(spec, name)
	p.finish(spec, start)
	init := p.parseBracedInit()
	if !init.IsValid() {
		return ast.NoNodeID
	}
	id := p.node(ast.NodeTypeConstruct, start, spec, init)
	p.b.Node(id).Flags |= ast.FlagBraced
	return id
}

// parseTypeConstruct parses a functional cast T(args) or T{args} whose type
// starts with a keyword.
func (p *Parser) parseTypeConstruct() ast.NodeID {
	start := p.peek().Span
	spec := p.parseDeclSpecs(declSpecTypeOnly)
	if !spec.IsValid() || !p.hasType(spec) {
		p.err(diag.SynExpectType, "expected type, got "+describe(p.peek()))
		return ast.NoNodeID
	}
	var init ast.NodeID
	switch {
	case p.at(token.LParen):
		init = p.parseParenInit()
	case p.at(token.LBrace):
		init = p.parseBracedInit()
	default:
		p.err(diag.SynUnexpectedToken, "expected '(' or '{' after type in expression")
		return ast.NoNodeID
	}
	if !init.IsValid() {
		return ast.NoNodeID
	}
	id := p.node(ast.NodeTypeConstruct, start, spec, init)
	if p.b.Node(init).Kind == ast.NodeInitList {
		p.b.Node(id).Flags |= ast.FlagBraced
	}
	return id
}

func (p *Parser) parseNamedCast() ast.NodeID {
	tok := p.advance()
	start := tok.Span
	if _, ok := p.expect(token.Lt, diag.SynUnexpectedToken, "expected '<' after "+tok.Text); !ok {
		return ast.NoNodeID
	}
	p.noGt++
	ty := p.parseTypeID()
	ok := ty.IsValid() && p.expectGt()
	p.noGt--
	if !ok {
		return ast.NoNodeID
	}
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after cast type"); !ok {
		return ast.NoNodeID
	}
	saved := p.noGt
	p.noGt = 0
	operand := p.parseExpression()
	p.noGt = saved
	if !operand.IsValid() {
		return ast.NoNodeID
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after cast operand"); !ok {
		return ast.NoNodeID
	}
	id := p.node(ast.NodeNamedCast, start, ty, operand)
	p.b.Node(id).Op = tok.Kind
	return id
}

func (p *Parser) parseNew() ast.NodeID {
	start := p.peek().Span
	global := p.eat(token.ColonColon)
	p.advance() // new
	var data ast.NewData
	var kids []ast.NodeID
	if p.at(token.LParen) {
		// new (placement) T  versus  new (T)
		placement := p.try(func() ast.NodeID {
			args := p.parseParenInit()
			if !args.IsValid() || !(p.at(token.LParen) || p.mayStartTypeAt(p.pos)) {
				return ast.NoNodeID
			}
			return args
		})
		if placement.ok {
			data.Placement = p.b.Node(placement.node).Kids
			kids = append(kids, data.Placement...)
			p.b.Discard(placement.node)
		}
	}
	if p.at(token.LParen) {
		p.advance()
		data.Type = p.parseTypeID()
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after new type"); !ok {
			return ast.NoNodeID
		}
	} else {
		data.Type = p.parseNewTypeID()
	}
	if !data.Type.IsValid() {
		return ast.NoNodeID
	}
	kids = append(kids, data.Type)
	switch {
	case p.at(token.LParen):
		data.Init = p.parseParenInit()
	case p.at(token.LBrace):
		data.Init = p.parseBracedInit()
	}
	if data.Init.IsValid() {
		kids = append(kids, data.Init)
	}
	id := ast.NewWithPayload(p.b, ast.NodeNew, start, p.b.Payloads.News, data)
	for _, k := range kids {
		p.b.AddKid(id, k)
	}
	if global {
		p.b.Node(id).Flags |= ast.FlagGlobal
	}
	return p.finish(id, start)
}

func (p *Parser) parseDelete() ast.NodeID {
	start := p.peek().Span
	global := p.eat(token.ColonColon)
	p.advance() // delete
	var flags ast.NodeFlags
	if global {
		flags |= ast.FlagGlobal
	}
	if p.at(token.LBracket) && p.peekN(1).Kind == token.RBracket {
		p.advance()
		p.advance()
		flags |= ast.FlagArray
	}
	operand := p.parseCastExpr(precPointerToMember + 1)
	if !operand.IsValid() {
		return ast.NoNodeID
	}
	id := p.node(ast.NodeDelete, start, operand)
	p.b.Node(id).Flags |= flags
	return id
}

// parseLambda parses '[' captures ']' ['(' params ')' specifiers] body.
func (p *Parser) parseLambda() ast.NodeID {
	start := p.advance().Span // [
	var data ast.LambdaData
	var kids []ast.NodeID
	first := true
	for !p.at(token.RBracket) && !p.at(token.EOF) {
		if first && (p.at(token.Assign) || p.at(token.Amp)) &&
			(p.peekN(1).Kind == token.Comma || p.peekN(1).Kind == token.RBracket) {
			data.DefaultCapture = p.advance().Kind
		} else {
			c := p.parseCapture()
			if !c.IsValid() {
				return ast.NoNodeID
			}
			data.Captures = append(data.Captures, c)
			kids = append(kids, c)
		}
		first = false
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']' to close lambda capture"); !ok {
		return ast.NoNodeID
	}
	var mutable bool
	if p.at(token.LParen) {
		declStart := p.peek().Span
		chunk, chunkKids, ok := p.parseFunctionChunkWith(func() {
			if p.eat(token.KwMutable) {
				mutable = true
			}
		})
		if !ok {
			return ast.NoNodeID
		}
		data.Declarator = ast.NewWithPayload(p.b, ast.NodeDeclarator, declStart, p.b.Payloads.Declarators,
			ast.DeclaratorData{Chunks: []ast.Chunk{chunk}})
		for _, k := range chunkKids {
			p.b.AddKid(data.Declarator, k)
		}
		p.finish(data.Declarator, declStart)
		kids = append(kids, data.Declarator)
	}
	p.classes = append(p.classes, "")
	data.Body = p.parseCompound()
	p.classes = p.classes[:len(p.classes)-1]
	if !data.Body.IsValid() {
		return ast.NoNodeID
	}
	kids = append(kids, data.Body)
	id := ast.NewWithPayload(p.b, ast.NodeLambda, start, p.b.Payloads.Lambdas, data)
	for _, k := range kids {
		p.b.AddKid(id, k)
	}
	if mutable {
		p.b.Node(id).Op = token.KwMutable
	}
	return p.finish(id, start)
}

func (p *Parser) parseCapture() ast.NodeID {
	start := p.peek().Span
	if p.at(token.KwThis) {
		p.advance()
		return p.node(ast.NodeCapture, start, p.node(ast.NodeThis, start))
	}
	if p.at(token.Star) && p.peekN(1).Kind == token.KwThis {
		p.advance()
		this := p.advance().Span
		id := p.node(ast.NodeCapture, start, p.node(ast.NodeThis, this))
		p.b.Node(id).Op = token.Star
		return id
	}
	byRef := p.eat(token.Amp)
	tok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected capture name")
	if !ok {
		return ast.NoNodeID
	}
	name := p.simpleName(tok, ast.NameIdent, tok.Text)
	var init ast.NodeID
	switch {
	case p.at(token.Assign):
		eq := p.advance().Span
		val := p.parseInitializerClause()
		if !val.IsValid() {
			return ast.NoNodeID
		}
		init = p.node(ast.NodeInitEquals, eq, val)
		p.setRole(name, ast.RoleDefinition)
	case p.at(token.LParen):
		init = p.parseParenInit()
		p.setRole(name, ast.RoleDefinition)
	case p.at(token.LBrace):
		init = p.parseBracedInit()
		p.setRole(name, ast.RoleDefinition)
	}
	pack := p.eat(token.Ellipsis)
	id := p.node(ast.NodeCapture, start, name, init)
	n := p.b.Node(id)
	if byRef {
		n.Op = token.Amp
	}
	if pack {
		n.Flags |= ast.FlagPack
	}
	return id
}
