package parser

import (
	"cppsema/internal/ast"
	"cppsema/internal/diag"
	"cppsema/internal/source"
	"cppsema/internal/token"
)

const (
	precLogicalOr = 1 + iota
	precLogicalAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precPointerToMember
)

// binaryPrec returns the precedence of the current token as a binary
// operator, or 0. Inside template argument lists '>' and '>>' close the
// list instead.
func (p *Parser) binaryPrec() int {
	switch p.peek().Kind {
	case token.OrOr:
		return precLogicalOr
	case token.AndAnd:
		return precLogicalAnd
	case token.Pipe:
		return precBitOr
	case token.Caret:
		return precBitXor
	case token.Amp:
		return precBitAnd
	case token.EqEq, token.BangEq:
		return precEquality
	case token.Lt, token.LtEq, token.GtEq:
		return precRelational
	case token.Gt:
		if p.noGt > 0 {
			return 0
		}
		return precRelational
	case token.Shl:
		return precShift
	case token.Shr:
		if p.noGt > 0 {
			return 0
		}
		return precShift
	case token.Plus, token.Minus:
		return precAdditive
	case token.Star, token.Slash, token.Percent:
		return precMultiplicative
	case token.DotStar, token.ArrowStar:
		return precPointerToMember
	}
	return 0
}

// parseExpression parses a comma expression.
func (p *Parser) parseExpression() ast.NodeID {
	start := p.peek().Span
	left := p.parseAssignment()
	for left.IsValid() && p.at(token.Comma) && p.noGt == 0 {
		p.advance()
		right := p.parseAssignment()
		if !right.IsValid() {
			return ast.NoNodeID
		}
		left = p.binary(start, token.Comma, left, right)
	}
	return left
}

func (p *Parser) binary(start source.Span, op token.Kind, left, right ast.NodeID) ast.NodeID {
	id := p.node(ast.NodeBinary, start, left, right)
	p.b.Node(id).Op = op
	return id
}

func (p *Parser) parseAssignment() ast.NodeID {
	start := p.peek().Span
	if p.at(token.KwThrow) {
		p.advance()
		var operand ast.NodeID
		if !p.atOr(token.Semicolon, token.RParen, token.Comma, token.RBrace, token.Colon, token.RBracket) {
			operand = p.parseAssignment()
			if !operand.IsValid() {
				return ast.NoNodeID
			}
		}
		return p.node(ast.NodeThrow, start, operand)
	}
	left := p.parseConditional()
	if !left.IsValid() {
		return ast.NoNodeID
	}
	tok := p.peek()
	if !tok.IsAssignOp() || (tok.Kind == token.ShrAssign && p.noGt > 0) {
		return left
	}
	p.advance()
	right := p.parseInitializerClause()
	if !right.IsValid() {
		return ast.NoNodeID
	}
	return p.binary(start, tok.Kind, left, right)
}

func (p *Parser) parseConditional() ast.NodeID {
	start := p.peek().Span
	cond := p.parseBinary(precLogicalOr)
	if !cond.IsValid() || !p.at(token.Question) {
		return cond
	}
	p.advance()
	saved := p.noGt
	p.noGt = 0
	then := p.parseExpression()
	p.noGt = saved
	if !then.IsValid() {
		return ast.NoNodeID
	}
	if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':' in conditional expression"); !ok {
		return ast.NoNodeID
	}
	els := p.parseAssignment()
	if !els.IsValid() {
		return ast.NoNodeID
	}
	return p.node(ast.NodeConditional, start, cond, then, els)
}

func (p *Parser) parseBinary(minPrec int) ast.NodeID {
	left := p.parseCastExpr(minPrec)
	if !left.IsValid() {
		return ast.NoNodeID
	}
	return p.parseBinaryRest(left, minPrec)
}

func (p *Parser) parseBinaryRest(left ast.NodeID, minPrec int) ast.NodeID {
	start := p.b.Node(left).Span
	for {
		prec := p.binaryPrec()
		if prec == 0 || prec < minPrec {
			return left
		}
		op := p.advance().Kind
		right := p.parseBinary(prec + 1)
		if !right.IsValid() {
			return ast.NoNodeID
		}
		left = p.binary(start, op, left, right)
	}
}

// parseCastExpr parses a cast-expression. '(' name ')' followed by a token
// that may also continue a binary expression is parsed both ways.
func (p *Parser) parseCastExpr(minPrec int) ast.NodeID {
	if !p.at(token.LParen) || !p.mayStartTypeAt(p.pos+1) {
		return p.parseUnary()
	}
	st := p.save()
	start := p.peek().Span
	nameOnly := false
	cast := p.try(func() ast.NodeID {
		p.advance()
		ty := p.parseTypeID()
		if !ty.IsValid() || !p.at(token.RParen) {
			return ast.NoNodeID
		}
		p.advance()
		nameOnly = p.isNameOnlyTypeID(ty)
		if nameOnly && !p.mayStartCastOperand() {
			return ast.NoNodeID
		}
		operand := p.parseCastExpr(precPointerToMember + 1)
		if !operand.IsValid() {
			return ast.NoNodeID
		}
		return p.node(ast.NodeCast, start, ty, operand)
	})
	if !cast.ok {
		return p.parseUnary()
	}
	if !nameOnly {
		return cast.node
	}
	// After '(' name ')' the operand's first token decides what else the
	// tokens could mean.
	p.restore(st)
	op := p.tokenAfterParen()
	switch op {
	case token.LParen:
		return p.alternatives(ast.NodeAmbiguousExpression,
			func() ast.NodeID { return p.reparseCast(start) },
			p.parseUnary)
	case token.Star, token.Amp, token.Plus, token.Minus, token.AndAnd:
		prec := binaryPrecOf(op)
		if prec < minPrec {
			return p.parseUnary()
		}
		return p.alternatives(ast.NodeAmbiguousExpression,
			func() ast.NodeID {
				c := p.reparseCast(start)
				if !c.IsValid() {
					return ast.NoNodeID
				}
				return p.parseBinaryRest(c, prec+1)
			},
			func() ast.NodeID {
				left := p.parseUnary()
				if !left.IsValid() || p.peek().Kind != op {
					return ast.NoNodeID
				}
				p.advance()
				right := p.parseBinary(prec + 1)
				if !right.IsValid() {
					return ast.NoNodeID
				}
				return p.binary(start, op, left, right)
			})
	}
	return p.reparseCast(start)
}

func (p *Parser) reparseCast(start source.Span) ast.NodeID {
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '('"); !ok {
		return ast.NoNodeID
	}
	ty := p.parseTypeID()
	if !ty.IsValid() {
		return ast.NoNodeID
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after cast type"); !ok {
		return ast.NoNodeID
	}
	operand := p.parseCastExpr(precPointerToMember + 1)
	if !operand.IsValid() {
		return ast.NoNodeID
	}
	return p.node(ast.NodeCast, start, ty, operand)
}

func binaryPrecOf(k token.Kind) int {
	switch k {
	case token.Star:
		return precMultiplicative
	case token.Plus, token.Minus:
		return precAdditive
	case token.Amp:
		return precBitAnd
	case token.AndAnd:
		return precLogicalAnd
	}
	return 0
}

// tokenAfterParen returns the kind of the token after the ')' matching the
// '(' at the current position.
func (p *Parser) tokenAfterParen() token.Kind {
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		switch p.toks[i].Kind {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 && i+1 < len(p.toks) {
				return p.toks[i+1].Kind
			}
		case token.EOF:
			return token.EOF
		}
	}
	return token.EOF
}

// isNameOnlyTypeID reports a type-id consisting of a single possibly
// qualified name: the form that may equally be an expression.
func (p *Parser) isNameOnlyTypeID(ty ast.NodeID) bool {
	n := p.b.Node(ty)
	if n == nil || len(n.Kids) < 2 {
		return false
	}
	spec := p.b.DeclSpec(n.Kids[0])
	decl := p.b.Declarator(n.Kids[1])
	if spec == nil || decl == nil {
		return false
	}
	if spec.TypeKind != ast.TypeSpecNamed || spec.CV != 0 || p.b.Node(spec.Name).Has(ast.FlagTypename) {
		return false
	}
	return len(decl.Ptrs) == 0 && len(decl.Chunks) == 0 && !decl.Nested.IsValid()
}

// mayStartCastOperand reports whether the current token can begin the
// operand of a cast.
func (p *Parser) mayStartCastOperand() bool {
	tok := p.peek()
	if tok.IsLiteral() {
		return true
	}
	switch tok.Kind {
	case token.Ident, token.ColonColon, token.LParen, token.LBracket, token.Star, token.Amp,
		token.Plus, token.Minus, token.Bang, token.Tilde, token.PlusPlus, token.MinusMinus,
		token.AndAnd, token.KwThis, token.KwSizeof, token.KwAlignof, token.KwNew, token.KwDelete,
		token.KwStaticCast, token.KwDynamicCast, token.KwConstCast, token.KwReinterpretCast,
		token.KwTypeid, token.KwNoexcept, token.KwOperator, token.KwDecltype, token.KwTypename:
		return true
	}
	return tok.IsFundamentalType()
}

// mayStartTypeAt reports whether token i can begin a type-id.
func (p *Parser) mayStartTypeAt(i int) bool {
	if i >= len(p.toks) {
		return false
	}
	tok := p.toks[i]
	if tok.IsFundamentalType() || tok.IsCVQualifier() {
		return true
	}
	switch tok.Kind {
	case token.Ident, token.ColonColon, token.KwClass, token.KwStruct, token.KwUnion,
		token.KwEnum, token.KwTypename, token.KwDecltype, token.KwAuto, token.KwTypeof:
		return true
	}
	return false
}

func (p *Parser) parseUnary() ast.NodeID {
	tok := p.peek()
	start := tok.Span
	switch tok.Kind {
	case token.PlusPlus, token.MinusMinus, token.Star, token.Amp, token.Plus, token.Minus,
		token.Bang, token.Tilde:
		p.advance()
		operand := p.parseCastExpr(precPointerToMember + 1)
		if !operand.IsValid() {
			return ast.NoNodeID
		}
		id := p.node(ast.NodeUnary, start, operand)
		p.b.Node(id).Op = tok.Kind
		return id
	case token.KwSizeof, token.KwAlignof:
		return p.parseSizeof()
	case token.KwNoexcept:
		p.advance()
		if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after noexcept"); !ok {
			return ast.NoNodeID
		}
		saved := p.noGt
		p.noGt = 0
		operand := p.parseExpression()
		p.noGt = saved
		if !operand.IsValid() {
			return ast.NoNodeID
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after noexcept operand"); !ok {
			return ast.NoNodeID
		}
		return p.node(ast.NodeNoexcept, start, operand)
	case token.KwNew:
		return p.parseNew()
	case token.KwDelete:
		return p.parseDelete()
	case token.ColonColon:
		switch p.peekN(1).Kind {
		case token.KwNew:
			return p.parseNew()
		case token.KwDelete:
			return p.parseDelete()
		}
	}
	prim := p.parsePrimary()
	if !prim.IsValid() {
		return ast.NoNodeID
	}
	return p.parsePostfix(prim)
}

func (p *Parser) parseSizeof() ast.NodeID {
	tok := p.advance()
	start := tok.Span
	if tok.Kind == token.KwSizeof && p.at(token.Ellipsis) {
		p.advance()
		if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after sizeof..."); !ok {
			return ast.NoNodeID
		}
		name := p.parseName(nameOpts{})
		if !name.IsValid() {
			return ast.NoNodeID
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after sizeof... operand"); !ok {
			return ast.NoNodeID
		}
		return p.node(ast.NodeSizeofPack, start, name)
	}
	var operand ast.NodeID
	if p.at(token.LParen) && p.mayStartTypeAt(p.pos+1) {
		asType := func() ast.NodeID {
			p.advance()
			saved := p.noGt
			p.noGt = 0
			ty := p.parseTypeID()
			p.noGt = saved
			if !ty.IsValid() || !p.eat(token.RParen) {
				return ast.NoNodeID
			}
			return ty
		}
		asExpr := func() ast.NodeID { return p.parseUnary() }
		operand = p.alternatives(ast.NodeAmbiguousTypeOrExpr, asType, asExpr)
	} else {
		operand = p.parseUnary()
	}
	if !operand.IsValid() {
		return ast.NoNodeID
	}
	id := p.node(ast.NodeSizeof, start, operand)
	p.b.Node(id).Op = tok.Kind
	return id
}

// parseTypeOrExpr parses an operand that may be a type-id or an expression,
// both ending at closer.
func (p *Parser) parseTypeOrExpr(closer token.Kind) ast.NodeID {
	asType := func() ast.NodeID {
		ty := p.parseTypeID()
		if !p.at(closer) {
			return ast.NoNodeID
		}
		return ty
	}
	asExpr := func() ast.NodeID {
		e := p.parseExpression()
		if !p.at(closer) {
			return ast.NoNodeID
		}
		return e
	}
	return p.alternatives(ast.NodeAmbiguousTypeOrExpr, asType, asExpr)
}

func (p *Parser) parsePostfix(left ast.NodeID) ast.NodeID {
	start := p.b.Node(left).Span
	for {
		tok := p.peek()
		switch tok.Kind {
		case token.LBracket:
			if p.peekN(1).Kind == token.LBracket {
				return left
			}
			p.advance()
			saved := p.noGt
			p.noGt = 0
			idx := p.parseInitializerClauseOrExpr()
			p.noGt = saved
			if !idx.IsValid() {
				return ast.NoNodeID
			}
			if _, ok := p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']'"); !ok {
				return ast.NoNodeID
			}
			left = p.node(ast.NodeSubscript, start, left, idx)
		case token.LParen:
			args := p.parseParenInit()
			if !args.IsValid() {
				return ast.NoNodeID
			}
			id := p.b.NewNode(ast.NodeCall, start)
			p.b.AddKid(id, left)
			for _, a := range p.b.Node(args).Kids {
				p.b.AddKid(id, a)
			}
			p.b.Discard(args)
			left = p.finish(id, start)
		case token.Dot, token.Arrow:
			p.advance()
			name := p.parseName(nameOpts{destructor: true, operator: true})
			if !name.IsValid() {
				return ast.NoNodeID
			}
			left = p.node(ast.NodeMember, start, left, name)
			p.b.Node(left).Op = tok.Kind
		case token.PlusPlus, token.MinusMinus:
			p.advance()
			left = p.node(ast.NodeUnary, start, left)
			n := p.b.Node(left)
			n.Op = tok.Kind
			n.Flags |= ast.FlagPostfix
		default:
			return left
		}
	}
}
