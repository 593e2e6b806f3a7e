package parser

import (
	"strconv"

	"github.com/vudoc/vudoc/internal/ast"
	"github.com/vudoc/vudoc/internal/lexer"
)

// Binary operator precedence levels, per §4.2's 15-level table. Higher
// binds tighter. `:=` (BIND) has no entry: no parser rule consumes it,
// and parseLetStmt binds with `=`.
//
// Function calls, member access, and indexing are implemented as
// tightest-binding postfix operations rather than at the looser level the
// table nominally assigns to member access: a member/call/index chain like
// `a.b(c)[d]` has to parse as one unit regardless of any operator to its
// right, and giving `.` table-literal (loose) precedence would make `a.b *
// c` parse as `a.(b * c)`, which no caller of this parser wants. Binary and
// prefix operators otherwise follow the table exactly.
const (
	precLowest = iota
	precOr
	precAnd
	precEquality
	precComparison
	precPipe
	precCompose
	precAdditive
	precMultiplicative
	precPower
)

var binPrec = map[lexer.Kind]int{
	lexer.OR:      precOr,
	lexer.AND:     precAnd,
	lexer.EQ:      precEquality,
	lexer.NEQ:     precEquality,
	lexer.LT:      precComparison,
	lexer.GT:      precComparison,
	lexer.LTE:     precComparison,
	lexer.GTE:     precComparison,
	lexer.PIPEOP:  precPipe,
	lexer.COMPOSE: precCompose,
	lexer.PLUS:    precAdditive,
	lexer.MINUS:   precAdditive,
	lexer.STAR:    precMultiplicative,
	lexer.SLASH:   precMultiplicative,
	lexer.PERCENT: precMultiplicative,
	lexer.CARET:   precPower,
}

var rightAssoc = map[lexer.Kind]bool{
	lexer.CARET: true,
}

// parseExpr is the Pratt entry point: parse an expression binding no
// looser than minPrec.
func (p *Parser) parseExpr(minPrec int) ast.Expr {
	if !p.enterNesting() {
		return &ast.Literal{ExprBase: ast.ExprBase{Sp: p.span(p.cur.Start)}, Kind: ast.UnitLit}
	}
	defer p.leaveNesting()

	left := p.parseUnary()

	for {
		switch p.cur.Kind {
		case lexer.COMPOSE:
			if precCompose < minPrec {
				return left
			}
			start := left.Span().Start
			p.advance()
			right := p.parseExprAt(precCompose + 1)
			left = &ast.ComposeExpr{ExprBase: ast.ExprBase{Sp: p.span(start)}, Left: left, Right: right}
			continue
		case lexer.PIPEOP:
			if precPipe < minPrec {
				return left
			}
			start := left.Span().Start
			p.advance()
			fn := p.parseExprAt(precPipe + 1)
			left = &ast.PipeExpr{ExprBase: ast.ExprBase{Sp: p.span(start)}, Value: left, Func: fn}
			continue
		}

		prec, ok := binPrec[p.cur.Kind]
		if !ok || prec < minPrec {
			return left
		}
		op := p.cur.Lexeme
		opKind := p.cur.Kind
		start := left.Span().Start
		p.advance()
		nextMin := prec + 1
		if rightAssoc[opKind] {
			nextMin = prec
		}
		right := p.parseExprAt(nextMin)
		left = &ast.BinaryExpr{ExprBase: ast.ExprBase{Sp: p.span(start)}, Op: op, Left: left, Right: right}
	}
}

// parseExprAt parses a right-hand operand at the given minimum precedence,
// still running the full postfix chain first.
func (p *Parser) parseExprAt(minPrec int) ast.Expr {
	return p.parseExpr(minPrec)
}

func (p *Parser) parseUnary() ast.Expr {
	start := p.cur.Start
	switch p.cur.Kind {
	case lexer.MINUS, lexer.NOT, lexer.BANG:
		op := p.cur.Lexeme
		p.advance()
		operand := p.parseUnary()
		if op == "!" {
			return &ast.EvalExpr{ExprBase: ast.ExprBase{Sp: p.span(start)}, Value: operand}
		}
		return &ast.UnaryExpr{ExprBase: ast.ExprBase{Sp: p.span(start)}, Op: op, Operand: operand}
	case lexer.QUOTE:
		p.advance()
		operand := p.parseUnary()
		return &ast.QuoteExpr{ExprBase: ast.ExprBase{Sp: p.span(start)}, Value: operand}
	case lexer.QMARK:
		p.advance()
		t := p.parseType()
		return &ast.ReflectExpr{ExprBase: ast.ExprBase{Sp: p.span(start)}, Target: t}
	case lexer.HASH:
		p.advance()
		name := p.expect(lexer.IDENT).Lexeme
		p.expect(lexer.LPAREN)
		var args []ast.Expr
		for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
			args = append(args, p.parseExpr(0))
			if _, ok := p.accept(lexer.COMMA); !ok {
				break
			}
		}
		p.expect(lexer.RPAREN)
		return &ast.MacroCall{ExprBase: ast.ExprBase{Sp: p.span(start)}, Name: name, Args: args}
	default:
		return p.parsePostfix(p.parsePrimary())
	}
}

// parsePostfix handles the tightest-binding chain of `.field`, `(args)`,
// and `[index]` after a primary expression.
func (p *Parser) parsePostfix(e ast.Expr) ast.Expr {
	start := e.Span().Start
	for {
		switch p.cur.Kind {
		case lexer.DOT:
			p.advance()
			field := p.expect(lexer.IDENT).Lexeme
			e = &ast.MemberExpr{ExprBase: ast.ExprBase{Sp: p.span(start)}, Object: e, Field: field}
		case lexer.LPAREN:
			p.advance()
			var args []ast.Expr
			for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
				args = append(args, p.parseExpr(0))
				if _, ok := p.accept(lexer.COMMA); !ok {
					break
				}
			}
			p.expect(lexer.RPAREN)
			e = &ast.CallExpr{ExprBase: ast.ExprBase{Sp: p.span(start)}, Callee: e, Args: args}
		case lexer.UNIT:
			// `f()` lexes its empty argument list as a single UNIT token.
			p.advance()
			e = &ast.CallExpr{ExprBase: ast.ExprBase{Sp: p.span(start)}, Callee: e}
		case lexer.LBRACKET:
			p.advance()
			idx := p.parseExpr(0)
			p.expect(lexer.RBRACKET)
			e = &ast.IndexExpr{ExprBase: ast.ExprBase{Sp: p.span(start)}, Base: e, Index: idx}
		case lexer.KW_AS:
			p.advance()
			t := p.parseType()
			e = &ast.CastExpr{ExprBase: ast.ExprBase{Sp: p.span(start)}, Value: e, Target: t}
		default:
			return e
		}
	}
}

func (p *Parser) parseLiteralExpr() ast.Expr {
	start := p.cur.Start
	neg := false
	if _, ok := p.accept(lexer.MINUS); ok {
		neg = true
	}
	switch p.cur.Kind {
	case lexer.INT:
		n, _ := strconv.ParseInt(p.cur.Lexeme, 10, 64)
		if neg {
			n = -n
		}
		suf := p.cur.Suffix
		p.advance()
		return &ast.Literal{ExprBase: ast.ExprBase{Sp: p.span(start)}, Kind: ast.IntLit, Value: n, Suffix: suf}
	case lexer.FLOAT:
		f, _ := strconv.ParseFloat(p.cur.Lexeme, 64)
		if neg {
			f = -f
		}
		suf := p.cur.Suffix
		p.advance()
		return &ast.Literal{ExprBase: ast.ExprBase{Sp: p.span(start)}, Kind: ast.FloatLit, Value: f, Suffix: suf}
	case lexer.STRING:
		s := p.cur.Lexeme
		p.advance()
		return &ast.Literal{ExprBase: ast.ExprBase{Sp: p.span(start)}, Kind: ast.StringLit, Value: s}
	case lexer.KW_TRUE:
		p.advance()
		return &ast.Literal{ExprBase: ast.ExprBase{Sp: p.span(start)}, Kind: ast.BoolLit, Value: true}
	case lexer.KW_FALSE:
		p.advance()
		return &ast.Literal{ExprBase: ast.ExprBase{Sp: p.span(start)}, Kind: ast.BoolLit, Value: false}
	default:
		p.errorf(diagSyntax, "expected literal, found %s", p.cur.Kind)
		p.advance()
		return &ast.Literal{ExprBase: ast.ExprBase{Sp: p.span(start)}, Kind: ast.UnitLit}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	start := p.cur.Start
	switch p.cur.Kind {
	case lexer.INT, lexer.FLOAT, lexer.STRING, lexer.KW_TRUE, lexer.KW_FALSE:
		return p.parseLiteralExpr()
	case lexer.UNIT:
		p.advance()
		return &ast.Literal{ExprBase: ast.ExprBase{Sp: p.span(start)}, Kind: ast.UnitLit}
	case lexer.IDENT:
		name := p.cur.Lexeme
		p.advance()
		if name[0] >= 'A' && name[0] <= 'Z' && p.at(lexer.LBRACE) {
			return p.parseRecordLit(start, name)
		}
		return &ast.Ident{ExprBase: ast.ExprBase{Sp: p.span(start)}, Name: name}
	case lexer.LBRACE:
		// A bare `{` at expression position is always a block; anonymous
		// (unnamed) record literals are not supported, only `Type{...}`
		// (disambiguated above in the IDENT case).
		return p.parseBlock()
	case lexer.LPAREN:
		p.advance()
		if _, ok := p.accept(lexer.RPAREN); ok {
			return &ast.Literal{ExprBase: ast.ExprBase{Sp: p.span(start)}, Kind: ast.UnitLit}
		}
		first := p.parseExpr(0)
		if _, ok := p.accept(lexer.COMMA); ok {
			elems := []ast.Expr{first}
			for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
				elems = append(elems, p.parseExpr(0))
				if _, ok := p.accept(lexer.COMMA); !ok {
					break
				}
			}
			p.expect(lexer.RPAREN)
			return &ast.TupleLit{ExprBase: ast.ExprBase{Sp: p.span(start)}, Elements: elems}
		}
		p.expect(lexer.RPAREN)
		return first
	case lexer.LBRACKET:
		p.advance()
		var elems []ast.Expr
		for !p.at(lexer.RBRACKET) && !p.at(lexer.EOF) {
			elems = append(elems, p.parseExpr(0))
			if _, ok := p.accept(lexer.COMMA); !ok {
				break
			}
		}
		p.expect(lexer.RBRACKET)
		return &ast.ListLit{ExprBase: ast.ExprBase{Sp: p.span(start)}, Elements: elems}
	case lexer.PIPE:
		p.advance()
		params := p.parseLambdaParams()
		p.expect(lexer.PIPE)
		var ret ast.Type
		if _, ok := p.accept(lexer.ARROW); ok {
			ret = p.parseType()
		}
		body := p.parseExpr(0)
		return &ast.LambdaExpr{ExprBase: ast.ExprBase{Sp: p.span(start)}, Params: params, ReturnType: ret, Body: body}
	case lexer.KW_IF:
		return p.parseIfExpr(start)
	case lexer.KW_MATCH:
		return p.parseMatchExpr(start)
	default:
		p.errorf(diagSyntax, "unexpected token in expression: %s", p.cur.Kind)
		p.advance()
		return &ast.Literal{ExprBase: ast.ExprBase{Sp: p.span(start)}, Kind: ast.UnitLit}
	}
}

func (p *Parser) parseLambdaParams() []*ast.Param {
	var params []*ast.Param
	for !p.at(lexer.PIPE) && !p.at(lexer.EOF) {
		pstart := p.cur.Start
		name := p.expect(lexer.IDENT).Lexeme
		var typ ast.Type
		if _, ok := p.accept(lexer.COLON); ok {
			typ = p.parseType()
		}
		params = append(params, &ast.Param{Name: name, Type: typ, Sp: p.span(pstart)})
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	return params
}

func (p *Parser) parseRecordLit(start int, typeName string) ast.Expr {
	p.expect(lexer.LBRACE)
	var fields []*ast.RecordField
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		fstart := p.cur.Start
		name := p.expect(lexer.IDENT).Lexeme
		p.expect(lexer.COLON)
		val := p.parseExpr(0)
		fields = append(fields, &ast.RecordField{Name: name, Value: val, Sp: p.span(fstart)})
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.RecordLit{ExprBase: ast.ExprBase{Sp: p.span(start)}, TypeName: typeName, Fields: fields}
}

func (p *Parser) parseIfExpr(start int) ast.Expr {
	p.expect(lexer.KW_IF)
	cond := p.parseExpr(0)
	p.accept(lexer.KW_THEN)
	then := p.parseBlockOrExpr()
	var elseExpr ast.Expr
	if _, ok := p.accept(lexer.KW_ELSE); ok {
		if p.at(lexer.KW_IF) {
			elseExpr = p.parseIfExpr(p.cur.Start)
		} else {
			elseExpr = p.parseBlockOrExpr()
		}
	}
	return &ast.IfExpr{ExprBase: ast.ExprBase{Sp: p.span(start)}, Cond: cond, Then: then, Else: elseExpr}
}

// parseBlockOrExpr accepts either a `{ ... }` block or a bare expression as
// an if/else arm body.
func (p *Parser) parseBlockOrExpr() ast.Expr {
	if p.at(lexer.LBRACE) {
		return p.parseBlock()
	}
	return p.parseExpr(0)
}

func (p *Parser) parseMatchExpr(start int) ast.Expr {
	p.expect(lexer.KW_MATCH)
	scrutinee := p.parseExpr(0)
	p.expect(lexer.LBRACE)
	var arms []*ast.MatchArm
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		astart := p.cur.Start
		pat := p.parsePattern()
		var guard ast.Expr
		if _, ok := p.accept(lexer.KW_IF); ok {
			guard = p.parseExpr(0)
		}
		p.expect(lexer.FARROW)
		body := p.parseExpr(0)
		arms = append(arms, &ast.MatchArm{Pattern: pat, Guard: guard, Body: body, Sp: p.span(astart)})
		if _, ok := p.accept(lexer.COMMA); !ok {
			p.accept(lexer.SEMI)
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.MatchExpr{ExprBase: ast.ExprBase{Sp: p.span(start)}, Scrutinee: scrutinee, Arms: arms}
}
