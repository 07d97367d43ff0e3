package parser

import (
	"strings"

	"cppsema/internal/ast"
	"cppsema/internal/diag"
	"cppsema/internal/source"
	"cppsema/internal/token"
)

// nameOpts controls which forms parseName accepts in the final position.
type nameOpts struct {
	role       ast.Role
	destructor bool // ~X allowed
	operator   bool // operator-function-id and conversion-function-id allowed
	typename   bool // preceded by 'typename'
}

// atNameStart reports whether the current token can begin a name.
func (p *Parser) atNameStart() bool {
	switch p.peek().Kind {
	case token.Ident:
		return true
	case token.ColonColon:
		next := p.peekN(1).Kind
		return next == token.Ident || next == token.KwTemplate || next == token.KwOperator || next == token.Tilde
	case token.KwDecltype:
		return true
	}
	return false
}

// parseName parses an id-expression:
//
//	['::'] (segment '::' ['template'])* final
//
// and returns its NodeName node, or 0 after reporting an error.
func (p *Parser) parseName(o nameOpts) ast.NodeID {
	start := p.peek().Span
	global := p.eat(token.ColonColon)
	var segs []ast.NodeID
	for {
		kwTemplate := p.eat(token.KwTemplate)
		seg := p.parseUnqualified(o, kwTemplate)
		if !seg.IsValid() {
			return ast.NoNodeID
		}
		segs = append(segs, seg)
		if p.at(token.ColonColon) && p.canContinueQualified() {
			p.advance()
			continue
		}
		break
	}
	if !global && len(segs) == 1 {
		p.setRole(segs[0], o.role)
		if o.typename {
			p.b.Node(segs[0]).Flags |= ast.FlagTypename
		}
		return segs[0]
	}
	return p.qualified(start, global, segs, o)
}

// canContinueQualified is checked at '::' after a segment: the next token
// must continue the name, not start a pointer-to-member '::*'.
func (p *Parser) canContinueQualified() bool {
	switch p.peekN(1).Kind {
	case token.Ident, token.KwTemplate, token.KwOperator, token.Tilde:
		return true
	}
	return false
}

func (p *Parser) qualified(start source.Span, global bool, segs []ast.NodeID, o nameOpts) ast.NodeID {
	var sb strings.Builder
	if global {
		sb.WriteString("::")
	}
	ids := make([]ast.NameID, len(segs))
	for i, seg := range segs {
		ids[i] = p.b.NameOf(seg)
		if i > 0 {
			sb.WriteString("::")
		}
		sb.WriteString(p.b.Spelling(ids[i]))
	}
	for _, seg := range segs[:len(segs)-1] {
		p.setRole(seg, ast.RoleReference)
	}
	p.setRole(segs[len(segs)-1], o.role)
	_, node := p.b.NewName(ast.Name{
		Kind:     ast.NameQualified,
		Spelling: p.intern(sb.String()),
		Role:     o.role,
		Span:     p.spanFrom(start),
		Segments: ids,
		Global:   global,
	})
	for _, seg := range segs {
		p.b.AddKid(node, seg)
	}
	n := p.b.Node(node)
	if global {
		n.Flags |= ast.FlagGlobal
	}
	if o.typename {
		n.Flags |= ast.FlagTypename
	}
	return node
}

// setRole sets the role of the name held by node. The template name inside
// a template-id keeps its reference role.
func (p *Parser) setRole(node ast.NodeID, role ast.Role) {
	if name := p.b.Name(p.b.NameOf(node)); name != nil {
		name.Role = role
	}
}

func (p *Parser) simpleName(tok token.Token, kind ast.NameKind, spelling string) ast.NodeID {
	_, node := p.b.NewName(ast.Name{
		Kind:     kind,
		Spelling: p.intern(spelling),
		Span:     tok.Span,
	})
	return node
}

func (p *Parser) parseUnqualified(o nameOpts, kwTemplate bool) ast.NodeID {
	tok := p.peek()
	switch tok.Kind {
	case token.Ident:
		p.advance()
		node := p.simpleName(tok, ast.NameIdent, tok.Text)
		if p.at(token.Lt) && (kwTemplate || p.templates[tok.Text]) {
			return p.templateID(node, tok.Span)
		}
		return node
	case token.Tilde:
		if !o.destructor {
			break
		}
		p.advance()
		id, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected class name after '~'")
		if !ok {
			return ast.NoNodeID
		}
		_, node := p.b.NewName(ast.Name{
			Kind:     ast.NameDestructor,
			Spelling: p.intern("~" + id.Text),
			Span:     p.spanFrom(tok.Span),
		})
		return node
	case token.KwOperator:
		if !o.operator {
			break
		}
		return p.parseOperatorName()
	case token.KwDecltype:
		if p.peekN(1).Kind != token.LParen {
			break
		}
		p.advance()
		p.advance()
		saved := p.noGt
		p.noGt = 0
		expr := p.parseExpression()
		p.noGt = saved
		p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after decltype operand")
		_, node := p.b.NewName(ast.Name{
			Kind:     ast.NameDecltype,
			Spelling: p.intern(p.tokenText(tok.Span.Start)),
			Span:     p.spanFrom(tok.Span),
			Expr:     expr,
		})
		p.b.AddKid(node, expr)
		return node
	}
	p.err(diag.SynExpectIdentifier, "expected name, got "+describe(tok))
	return ast.NoNodeID
}

// templateID parses '<' args '>' after the template name node tmpl. When the
// arguments do not parse the '<' is left for the expression parser.
func (p *Parser) templateID(tmpl ast.NodeID, start source.Span) ast.NodeID {
	argsStart := p.pos
	var args []ast.NodeID
	res := p.try(func() ast.NodeID {
		var ok bool
		args, ok = p.parseTemplateArgs()
		if !ok {
			return ast.NoNodeID
		}
		return tmpl
	})
	if !res.ok {
		return tmpl
	}
	var sb strings.Builder
	sb.WriteString(p.b.Spelling(p.b.NameOf(tmpl)))
	sb.WriteString(joinTokens(p.toks[argsStart:p.pos]))
	_, node := p.b.NewName(ast.Name{
		Kind:     ast.NameTemplateID,
		Spelling: p.intern(sb.String()),
		Span:     p.spanFrom(start),
		Template: p.b.NameOf(tmpl),
		Args:     args,
	})
	p.b.AddKid(node, tmpl)
	for _, a := range args {
		p.b.AddKid(node, a)
	}
	return node
}

func (p *Parser) parseTemplateArgs() ([]ast.NodeID, bool) {
	p.advance() // '<'
	p.noGt++
	defer func() { p.noGt-- }()
	var args []ast.NodeID
	if !p.atOr(token.Gt, token.Shr) {
		for {
			start := p.peek().Span
			arg := p.parseTemplateArg()
			if !arg.IsValid() {
				return nil, false
			}
			if p.eat(token.Ellipsis) {
				arg = p.node(ast.NodePackExpansion, start, arg)
			}
			args = append(args, arg)
			if !p.eat(token.Comma) {
				break
			}
		}
	}
	return args, p.expectGt()
}

func (p *Parser) atTemplateArgEnd() bool {
	return p.atOr(token.Comma, token.Gt, token.Shr, token.Ellipsis)
}

func (p *Parser) parseTemplateArg() ast.NodeID {
	asType := func() ast.NodeID {
		id := p.parseTypeID()
		if !p.atTemplateArgEnd() {
			p.failed = true
		}
		return id
	}
	asExpr := func() ast.NodeID {
		id := p.parseAssignment()
		if !p.atTemplateArgEnd() {
			p.failed = true
		}
		return id
	}
	return p.alternatives(ast.NodeAmbiguousTemplateArg, asType, asExpr)
}

var operatorTokens = map[token.Kind]bool{
	token.Plus: true, token.Minus: true, token.Star: true, token.Slash: true,
	token.Percent: true, token.Caret: true, token.Amp: true, token.Pipe: true,
	token.Tilde: true, token.Bang: true, token.Assign: true, token.Lt: true,
	token.Gt: true, token.PlusAssign: true, token.MinusAssign: true,
	token.StarAssign: true, token.SlashAssign: true, token.PercentAssign: true,
	token.CaretAssign: true, token.AmpAssign: true, token.PipeAssign: true,
	token.Shl: true, token.Shr: true, token.ShlAssign: true, token.ShrAssign: true,
	token.EqEq: true, token.BangEq: true, token.LtEq: true, token.GtEq: true,
	token.AndAnd: true, token.OrOr: true, token.PlusPlus: true,
	token.MinusMinus: true, token.Comma: true, token.ArrowStar: true, token.Arrow: true,
}

// parseOperatorName parses operator-function-id and conversion-function-id.
func (p *Parser) parseOperatorName() ast.NodeID {
	start := p.advance().Span // 'operator'
	tok := p.peek()
	var spelling string
	op := tok.Kind
	switch {
	case tok.Kind == token.KwNew || tok.Kind == token.KwDelete:
		p.advance()
		spelling = "operator " + tok.Text
		if p.at(token.LBracket) && p.peekN(1).Kind == token.RBracket {
			p.advance()
			p.advance()
			spelling += "[]"
		}
	case tok.Kind == token.LParen:
		p.advance()
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' in 'operator()'"); !ok {
			return ast.NoNodeID
		}
		spelling = "operator()"
	case tok.Kind == token.LBracket:
		p.advance()
		if _, ok := p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']' in 'operator[]'"); !ok {
			return ast.NoNodeID
		}
		spelling = "operator[]"
	case operatorTokens[tok.Kind]:
		p.advance()
		spelling = "operator" + tok.Text
	default:
		return p.parseConversionName(start)
	}
	_, node := p.b.NewName(ast.Name{
		Kind:     ast.NameOperator,
		Spelling: p.intern(spelling),
		Span:     p.spanFrom(start),
		Op:       op,
	})
	return node
}

// parseConversionName parses the type part of 'operator T'.
func (p *Parser) parseConversionName(start source.Span) ast.NodeID {
	tyStart := p.peek().Span
	textStart := p.pos
	spec := p.parseDeclSpecs(declSpecTypeOnly)
	if !spec.IsValid() {
		p.err(diag.SynExpectType, "expected type after 'operator'")
		return ast.NoNodeID
	}
	decl := p.parseConversionDeclarator()
	typeID := p.node(ast.NodeTypeID, tyStart, spec, decl)
	_, node := p.b.NewName(ast.Name{
		Kind:     ast.NameConversion,
		Spelling: p.intern("operator " + joinTokens(p.toks[textStart:p.pos])),
		Span:     p.spanFrom(start),
		ConvType: typeID,
	})
	p.b.AddKid(node, typeID)
	return node
}

// tokenText joins the text of tokens from the one starting at off up to the
// current position.
func (p *Parser) tokenText(off uint32) string {
	i := p.pos
	for i > 0 && p.toks[i-1].Span.Start >= off {
		i--
	}
	return joinTokens(p.toks[i:p.pos])
}

// joinTokens renders tokens with a space only between adjacent words.
func joinTokens(toks []token.Token) string {
	var sb strings.Builder
	prevWord := false
	for _, t := range toks {
		word := t.Kind == token.Ident || t.IsKeyword() || t.IsLiteral()
		if word && prevWord {
			sb.WriteByte(' ')
		}
		if t.Text != "" {
			sb.WriteString(t.Text)
		} else {
			sb.WriteString(t.Kind.String())
		}
		prevWord = word
	}
	return sb.String()
}
