package parser

import (
	"github.com/vudoc/vudoc/internal/ast"
	"github.com/vudoc/vudoc/internal/diagnostics"
	"github.com/vudoc/vudoc/internal/lexer"
)

const diagSyntax = diagnostics.E001Syntax

// parsePattern parses a match-arm pattern: wildcard, literal, range, binder,
// tuple, record-destructure, or constructor (§3.3, §4.1).
func (p *Parser) parsePattern() ast.Pattern {
	start := p.cur.Start

	switch p.cur.Kind {
	case lexer.IDENT:
		if p.cur.Lexeme == "_" {
			p.advance()
			return &ast.WildcardPattern{PatternBase: ast.PatternBase{Sp: p.span(start)}}
		}
		name := p.cur.Lexeme
		if isUpperIdent(name) && p.atPeek(lexer.LPAREN) {
			p.advance()
			p.advance()
			var args []ast.Pattern
			for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
				args = append(args, p.parsePattern())
				if _, ok := p.accept(lexer.COMMA); !ok {
					break
				}
			}
			p.expect(lexer.RPAREN)
			return &ast.ConstructorPattern{PatternBase: ast.PatternBase{Sp: p.span(start)}, Tag: name, Args: args}
		}
		if isUpperIdent(name) && p.atPeek(lexer.LBRACE) {
			p.advance()
			fields, rest := p.parseFieldPatternList()
			return &ast.RecordPattern{PatternBase: ast.PatternBase{Sp: p.span(start)}, Fields: fields, Rest: rest}
		}
		p.advance()
		return &ast.BinderPattern{PatternBase: ast.PatternBase{Sp: p.span(start)}, Name: name}
	case lexer.LBRACE:
		fields, rest := p.parseFieldPatternList()
		return &ast.RecordPattern{PatternBase: ast.PatternBase{Sp: p.span(start)}, Fields: fields, Rest: rest}
	case lexer.LPAREN:
		p.advance()
		var elems []ast.Pattern
		for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
			elems = append(elems, p.parsePattern())
			if _, ok := p.accept(lexer.COMMA); !ok {
				break
			}
		}
		p.expect(lexer.RPAREN)
		return &ast.TuplePattern{PatternBase: ast.PatternBase{Sp: p.span(start)}, Elements: elems}
	case lexer.INT, lexer.FLOAT, lexer.STRING, lexer.KW_TRUE, lexer.KW_FALSE, lexer.MINUS:
		lo := p.parseLiteralExpr()
		if _, ok := p.accept(lexer.DOT); ok {
			p.expect(lexer.DOT)
			inclusive := true
			if _, ok := p.accept(lexer.ASSIGN); !ok {
				inclusive = false
			}
			hi := p.parseLiteralExpr()
			return &ast.RangePattern{PatternBase: ast.PatternBase{Sp: p.span(start)}, Low: lo, High: hi, Inclusive: inclusive}
		}
		lit, ok := lo.(*ast.Literal)
		if !ok {
			p.errorf(diagSyntax, "expected literal pattern")
			return &ast.WildcardPattern{PatternBase: ast.PatternBase{Sp: p.span(start)}}
		}
		return &ast.LiteralPattern{PatternBase: ast.PatternBase{Sp: p.span(start)}, Kind: lit.Kind, Value: lit.Value}
	default:
		p.errorf(diagSyntax, "expected pattern, found %s", p.cur.Kind)
		p.advance()
		return &ast.WildcardPattern{PatternBase: ast.PatternBase{Sp: p.span(start)}}
	}
}

func (p *Parser) parseFieldPatternList() ([]*ast.FieldPattern, bool) {
	p.expect(lexer.LBRACE)
	var fields []*ast.FieldPattern
	rest := false
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		if _, ok := p.accept(lexer.DOT); ok {
			p.expect(lexer.DOT)
			rest = true
			break
		}
		fstart := p.cur.Start
		name := p.expect(lexer.IDENT).Lexeme
		var sub ast.Pattern
		if _, ok := p.accept(lexer.COLON); ok {
			sub = p.parsePattern()
		} else {
			sub = &ast.BinderPattern{PatternBase: ast.PatternBase{Sp: p.span(fstart)}, Name: name}
		}
		fields = append(fields, &ast.FieldPattern{Name: name, Pattern: sub, Sp: p.span(fstart)})
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	p.expect(lexer.RBRACE)
	return fields, rest
}

func isUpperIdent(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c >= 'A' && c <= 'Z'
}
