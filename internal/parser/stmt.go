package parser

import (
	"cppsema/internal/ast"
	"cppsema/internal/diag"
	"cppsema/internal/token"
)

func (p *Parser) parseCompound() ast.NodeID {
	start := p.peek().Span
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{', got "+describe(p.peek())); !ok {
		return ast.NoNodeID
	}
	saved, savedForce := p.noGt, p.forceInit
	p.noGt, p.forceInit = 0, false
	defer func() { p.noGt, p.forceInit = saved, savedForce }()
	id := p.b.NewNode(ast.NodeCompound, start)
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		before := p.pos
		stmt := p.parseStatement()
		p.b.AddKid(id, stmt)
		if p.pos == before {
			p.err(diag.SynExpectStatement, "expected statement, got "+describe(p.peek()))
			if p.trial > 0 {
				return ast.NoNodeID
			}
			p.recoverFrom(before)
		}
		if p.trial > 0 && p.failed {
			return ast.NoNodeID
		}
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close block"); !ok {
		return ast.NoNodeID
	}
	return p.finish(id, start)
}

func (p *Parser) parseStatement() ast.NodeID {
	p.skipAttributes()
	tok := p.peek()
	switch tok.Kind {
	case token.LBrace:
		return p.parseCompound()
	case token.Semicolon:
		p.advance()
		return p.node(ast.NodeNullStmt, tok.Span)
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwDo:
		return p.parseDo()
	case token.KwFor:
		return p.parseFor()
	case token.KwSwitch:
		return p.parseSwitch()
	case token.KwCase:
		p.advance()
		val := p.parseConditional()
		p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':' after case value")
		body := p.parseStatement()
		return p.node(ast.NodeCase, tok.Span, val, body)
	case token.KwDefault:
		p.advance()
		p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':' after default")
		body := p.parseStatement()
		return p.node(ast.NodeDefault, tok.Span, body)
	case token.KwBreak, token.KwContinue:
		p.advance()
		p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after "+tok.Text)
		if tok.Kind == token.KwBreak {
			return p.node(ast.NodeBreak, tok.Span)
		}
		return p.node(ast.NodeContinue, tok.Span)
	case token.KwReturn:
		p.advance()
		var val ast.NodeID
		if !p.at(token.Semicolon) {
			val = p.parseInitializerClauseOrExpr()
		}
		p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after return")
		return p.node(ast.NodeReturn, tok.Span, val)
	case token.KwGoto:
		p.advance()
		label, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected label after goto")
		var name ast.NodeID
		if ok {
			name = p.simpleName(label, ast.NameIdent, label.Text)
		}
		p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after goto")
		return p.node(ast.NodeGoto, tok.Span, name)
	case token.KwTry:
		return p.parseTry()
	case token.Ident:
		if p.peekN(1).Kind == token.Colon {
			p.advance()
			p.advance()
			name := p.simpleName(tok, ast.NameIdent, tok.Text)
			p.setRole(name, ast.RoleDefinition)
			body := p.parseStatement()
			return p.node(ast.NodeLabel, tok.Span, name, body)
		}
	}
	return p.parseDeclOrExprStatement()
}

// parseDeclOrExprStatement parses a statement that may be a declaration
// or an expression. Keyword-led declarations win outright; statements led
// by a name that parse both ways become ambiguity nodes.
func (p *Parser) parseDeclOrExprStatement() ast.NodeID {
	switch {
	case p.startsDeclaration():
		return p.firstOf(p.parseDeclStmt, p.parseExprStmt)
	case p.atNameStart():
		return p.alternatives(ast.NodeAmbiguousStatement, p.parseDeclStmt, p.parseExprStmt)
	}
	return p.parseExprStmt()
}

// startsDeclaration reports tokens that can only begin a declaration, or
// begin one in preference to a functional cast.
func (p *Parser) startsDeclaration() bool {
	tok := p.peek()
	if _, ok := storageKeywords[tok.Kind]; ok {
		return true
	}
	if tok.IsFundamentalType() || tok.IsCVQualifier() {
		return true
	}
	switch tok.Kind {
	case token.KwClass, token.KwStruct, token.KwUnion, token.KwEnum, token.KwTypedef,
		token.KwUsing, token.KwNamespace, token.KwStaticAssert, token.KwTemplate,
		token.KwAuto, token.KwTypename, token.KwRestrict, token.KwTypeof:
		return true
	}
	return false
}

func (p *Parser) parseDeclStmt() ast.NodeID {
	start := p.peek().Span
	decl := p.parseDeclaration(ctxBlock)
	if !decl.IsValid() {
		return ast.NoNodeID
	}
	return p.node(ast.NodeDeclStmt, start, decl)
}

func (p *Parser) parseExprStmt() ast.NodeID {
	start := p.peek().Span
	expr := p.parseExpression()
	if !expr.IsValid() {
		if p.trial == 0 {
			p.resync(token.Semicolon, token.RBrace)
			p.eat(token.Semicolon)
		}
		return ast.NoNodeID
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after expression, got "+describe(p.peek())); !ok && p.trial == 0 {
		p.resync(token.Semicolon, token.RBrace)
		p.eat(token.Semicolon)
	}
	return p.node(ast.NodeExprStmt, start, expr)
}

func (p *Parser) parseInitializerClauseOrExpr() ast.NodeID {
	if p.at(token.LBrace) {
		return p.parseBracedInit()
	}
	return p.parseExpression()
}

// parseCondition parses the condition of if, while and switch: a
// declaration with an initializer when one parses, otherwise an expression.
func (p *Parser) parseCondition() ast.NodeID {
	asDecl := func() ast.NodeID {
		start := p.peek().Span
		spec := p.parseDeclSpecs(declSpecFull)
		if !spec.IsValid() || !p.hasType(spec) {
			p.failed = true
			return ast.NoNodeID
		}
		decl := p.parseDeclarator(declaratorOpts{mode: declNamed, init: true})
		if !decl.IsValid() || !p.b.Declarator(decl).Init.IsValid() {
			p.failed = true
			return ast.NoNodeID
		}
		p.setDeclaratorRole(decl, ast.RoleDefinition)
		id := p.node(ast.NodeSimpleDecl, start, spec, decl)
		p.b.Node(id).Flags |= ast.FlagCondDecl
		return id
	}
	if res := p.try(asDecl); res.ok {
		return res.node
	}
	return p.parseExpression()
}

func (p *Parser) parseIf() ast.NodeID {
	start := p.advance().Span
	var data ast.ControlData
	var flags ast.NodeFlags
	if p.eat(token.KwConstexpr) {
		flags |= ast.FlagConstexpr
	}
	p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after if")
	data.Cond = p.parseCondition()
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after condition")
	data.Then = p.parseStatement()
	if p.eat(token.KwElse) {
		data.Else = p.parseStatement()
	}
	id := ast.NewWithPayload(p.b, ast.NodeIf, start, p.b.Payloads.Controls, data)
	p.b.Node(id).Flags |= flags
	for _, k := range []ast.NodeID{data.Cond, data.Then, data.Else} {
		p.b.AddKid(id, k)
	}
	return p.finish(id, start)
}

func (p *Parser) parseWhile() ast.NodeID {
	start := p.advance().Span
	var data ast.ControlData
	p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after while")
	data.Cond = p.parseCondition()
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after condition")
	data.Body = p.parseStatement()
	id := ast.NewWithPayload(p.b, ast.NodeWhile, start, p.b.Payloads.Controls, data)
	p.b.AddKid(id, data.Cond)
	p.b.AddKid(id, data.Body)
	return p.finish(id, start)
}

func (p *Parser) parseDo() ast.NodeID {
	start := p.advance().Span
	var data ast.ControlData
	data.Body = p.parseStatement()
	p.expect(token.KwWhile, diag.SynUnexpectedToken, "expected 'while' after do body")
	p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after while")
	data.Cond = p.parseExpression()
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after condition")
	p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after do-while")
	id := ast.NewWithPayload(p.b, ast.NodeDo, start, p.b.Payloads.Controls, data)
	p.b.AddKid(id, data.Body)
	p.b.AddKid(id, data.Cond)
	return p.finish(id, start)
}

func (p *Parser) parseSwitch() ast.NodeID {
	start := p.advance().Span
	var data ast.ControlData
	p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after switch")
	data.Cond = p.parseCondition()
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after condition")
	data.Body = p.parseStatement()
	id := ast.NewWithPayload(p.b, ast.NodeSwitch, start, p.b.Payloads.Controls, data)
	p.b.AddKid(id, data.Cond)
	p.b.AddKid(id, data.Body)
	return p.finish(id, start)
}

func (p *Parser) parseFor() ast.NodeID {
	start := p.advance().Span
	p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after for")
	if rf := p.try(p.parseRangeForHead); rf.ok {
		var data ast.ControlData
		data.Decl = rf.node
		data.Range = p.parseInitializerClauseOrExpr()
		p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after range")
		data.Body = p.parseStatement()
		id := ast.NewWithPayload(p.b, ast.NodeRangeFor, start, p.b.Payloads.Controls, data)
		p.b.AddKid(id, data.Decl)
		p.b.AddKid(id, data.Range)
		p.b.AddKid(id, data.Body)
		return p.finish(id, start)
	}
	var data ast.ControlData
	if p.at(token.Semicolon) {
		p.advance()
	} else {
		data.Init = p.parseDeclOrExprStatement()
	}
	if !p.at(token.Semicolon) {
		data.Cond = p.parseCondition()
	}
	p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' in for statement")
	if !p.at(token.RParen) {
		data.Incr = p.parseExpression()
	}
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after for clauses")
	data.Body = p.parseStatement()
	id := ast.NewWithPayload(p.b, ast.NodeFor, start, p.b.Payloads.Controls, data)
	for _, k := range []ast.NodeID{data.Init, data.Cond, data.Incr, data.Body} {
		p.b.AddKid(id, k)
	}
	return p.finish(id, start)
}

// parseRangeForHead parses 'decl-specifiers declarator :'.
func (p *Parser) parseRangeForHead() ast.NodeID {
	start := p.peek().Span
	spec := p.parseDeclSpecs(declSpecFull)
	if !spec.IsValid() || !p.hasType(spec) {
		return ast.NoNodeID
	}
	decl := p.parseDeclarator(declaratorOpts{mode: declNamed})
	if !decl.IsValid() || !p.at(token.Colon) {
		return ast.NoNodeID
	}
	p.setDeclaratorRole(decl, ast.RoleDefinition)
	id := p.node(ast.NodeSimpleDecl, start, spec, decl)
	p.advance() // :
	return id
}

func (p *Parser) parseTry() ast.NodeID {
	start := p.advance().Span
	body := p.parseCompound()
	id := p.b.NewNode(ast.NodeTry, start)
	p.b.AddKid(id, body)
	if !p.at(token.KwCatch) {
		p.err(diag.SynUnexpectedToken, "expected 'catch' after try block")
	}
	for p.at(token.KwCatch) {
		p.b.AddKid(id, p.parseHandler())
	}
	return p.finish(id, start)
}

// parseHandler parses 'catch ( exception-declaration ) compound'.
func (p *Parser) parseHandler() ast.NodeID {
	start := p.advance().Span // catch
	p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after catch")
	var param ast.NodeID
	all := false
	if p.eat(token.Ellipsis) {
		all = true
	} else {
		param = p.parseParamDecl()
	}
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after exception declaration")
	body := p.parseCompound()
	id := p.node(ast.NodeCatch, start, param, body)
	if all {
		p.b.Node(id).Op = token.Ellipsis
	}
	return id
}
