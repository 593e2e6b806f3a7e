package parser

import (
	"github.com/vudoc/vudoc/internal/ast"
	"github.com/vudoc/vudoc/internal/lexer"
)

// parseType parses a type expression: named (optionally generic), function,
// tuple, or fixed-size array (§3.3).
func (p *Parser) parseType() ast.Type {
	start := p.cur.Start

	if _, ok := p.accept(lexer.LPAREN); ok {
		if _, ok := p.accept(lexer.RPAREN); ok {
			// () or () -> T
			if _, ok := p.accept(lexer.ARROW); ok {
				ret := p.parseType()
				return &ast.FuncType{Params: nil, Ret: ret, TypeBase: ast.TypeBase{Sp: p.span(start)}}
			}
			return &ast.TupleType{Elements: nil, TypeBase: ast.TypeBase{Sp: p.span(start)}}
		}
		first := p.parseType()
		if _, ok := p.accept(lexer.COMMA); ok {
			elems := []ast.Type{first}
			for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
				elems = append(elems, p.parseType())
				if _, ok := p.accept(lexer.COMMA); !ok {
					break
				}
			}
			p.expect(lexer.RPAREN)
			if _, ok := p.accept(lexer.ARROW); ok {
				ret := p.parseType()
				return &ast.FuncType{Params: elems, Ret: ret, TypeBase: ast.TypeBase{Sp: p.span(start)}}
			}
			return &ast.TupleType{Elements: elems, TypeBase: ast.TypeBase{Sp: p.span(start)}}
		}
		p.expect(lexer.RPAREN)
		if _, ok := p.accept(lexer.ARROW); ok {
			ret := p.parseType()
			return &ast.FuncType{Params: []ast.Type{first}, Ret: ret, TypeBase: ast.TypeBase{Sp: p.span(start)}}
		}
		return first
	}

	if _, ok := p.accept(lexer.LBRACKET); ok {
		elem := p.parseType()
		size := 0
		if _, ok := p.accept(lexer.SEMI); ok {
			size = p.parseIntLiteralValue()
		}
		p.expect(lexer.RBRACKET)
		return &ast.ArrayType{Element: elem, Size: size, TypeBase: ast.TypeBase{Sp: p.span(start)}}
	}

	name := p.expect(lexer.IDENT).Lexeme
	var args []ast.Type
	if _, ok := p.accept(lexer.LT); ok {
		for {
			args = append(args, p.parseType())
			if _, ok := p.accept(lexer.COMMA); !ok {
				break
			}
		}
		p.expect(lexer.GT)
	}
	return &ast.NamedType{Name: name, Args: args, TypeBase: ast.TypeBase{Sp: p.span(start)}}
}
