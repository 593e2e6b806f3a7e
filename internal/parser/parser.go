// Package parser implements recursive-descent declaration/statement parsing
// and a Pratt expression parser per spec §4.2, producing a best-effort
// internal/ast.File even in the presence of syntax errors.
package parser

import (
	"github.com/vudoc/vudoc/internal/ast"
	"github.com/vudoc/vudoc/internal/diagnostics"
	"github.com/vudoc/vudoc/internal/lexer"
)

// maxNestingDepth is the fixed limit from spec §7.
const maxNestingDepth = 256

// Parser turns a token stream into an AST, recovering from syntax errors by
// skipping to the next synchronization point (§4.2).
type Parser struct {
	lex   *lexer.Lexer
	cur   lexer.Token
	peek  lexer.Token
	Diags *diagnostics.Bag
	depth int
}

// New creates a Parser over src, lexing it on demand as tokens are consumed.
func New(src []byte) *Parser {
	p := &Parser{lex: lexer.New(src), Diags: &diagnostics.Bag{}}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

func (p *Parser) at(k lexer.Kind) bool  { return p.cur.Kind == k }
func (p *Parser) atPeek(k lexer.Kind) bool { return p.peek.Kind == k }

func (p *Parser) expect(k lexer.Kind) lexer.Token {
	if p.cur.Kind != k {
		p.errorf(diagnostics.E001Syntax, "expected %s, found %s", k, p.cur.Kind)
		return p.cur
	}
	tok := p.cur
	p.advance()
	return tok
}

func (p *Parser) accept(k lexer.Kind) (lexer.Token, bool) {
	if p.cur.Kind == k {
		tok := p.cur
		p.advance()
		return tok, true
	}
	return lexer.Token{}, false
}

func (p *Parser) span(start int) ast.Span {
	return ast.Span{Start: start, End: p.cur.Start}
}

func (p *Parser) errorf(code string, format string, args ...interface{}) {
	p.Diags.Errorf(code, ast.Span{Start: p.cur.Start, End: p.cur.End}, format, args...)
}

func (p *Parser) enterNesting() bool {
	p.depth++
	if p.depth > maxNestingDepth {
		p.errorf(diagnostics.E001Syntax, "exceeded maximum nesting depth (%d)", maxNestingDepth)
		return false
	}
	return true
}

func (p *Parser) leaveNesting() { p.depth-- }

// declOpeners are synchronization points for error recovery (§4.2, §7).
var declOpeners = map[lexer.Kind]bool{
	lexer.KW_TYPE: true, lexer.KW_TRAIT: true, lexer.KW_RULE: true,
	lexer.KW_SYSTEM: true, lexer.KW_EVOLUTION: true, lexer.KW_FUN: true,
	lexer.KW_CONST: true, lexer.KW_PUB: true, lexer.KW_PURE: true,
	lexer.KW_IMPORT: true, lexer.KW_MODULE: true, lexer.EOF: true,
}

// synchronize skips tokens until the next declaration opener or a
// top-level semicolon, per §4.2's recovery contract.
func (p *Parser) synchronize() {
	for !declOpeners[p.cur.Kind] {
		if p.cur.Kind == lexer.SEMI {
			p.advance()
			return
		}
		p.advance()
	}
}

// Parse is the package entry point: tokens -> best-effort *ast.File.
func Parse(src []byte) (*ast.File, *diagnostics.Bag) {
	p := New(src)
	return p.ParseFile(), p.Diags
}

// ParseFile parses an entire source file (§3.3).
func (p *Parser) ParseFile() *ast.File {
	start := p.cur.Start
	f := &ast.File{}

	if p.at(lexer.KW_MODULE) {
		f.Module = p.parseModuleDecl()
	}

	for p.at(lexer.KW_IMPORT) {
		f.Imports = append(f.Imports, p.parseImportDecl())
	}

	for !p.at(lexer.EOF) {
		before := p.cur.Start
		d := p.parseDecl()
		if d != nil {
			f.Decls = append(f.Decls, d)
		}
		if p.cur.Start == before && !p.at(lexer.EOF) {
			// Parser made no progress; force advancement to avoid looping.
			p.advance()
		}
	}

	f.Sp = p.span(start)
	return f
}

func (p *Parser) parseModuleDecl() *ast.ModuleDecl {
	start := p.cur.Start
	p.expect(lexer.KW_MODULE)
	path := p.parseDottedPath()
	sv := ast.Semver{}
	if _, ok := p.accept(lexer.AT); ok {
		sv = p.parseSemver()
	}
	return &ast.ModuleDecl{Path: path, Semver: sv, Sp: p.span(start)}
}

func (p *Parser) parseImportDecl() *ast.ImportDecl {
	start := p.cur.Start
	p.expect(lexer.KW_IMPORT)
	path := p.parseDottedPath()
	return &ast.ImportDecl{Path: path, Sp: p.span(start)}
}

func (p *Parser) parseDottedPath() string {
	s := p.expect(lexer.IDENT).Lexeme
	for p.at(lexer.SLASH) || p.at(lexer.DOT) {
		sep := p.cur.Lexeme
		p.advance()
		s += sep + p.expect(lexer.IDENT).Lexeme
	}
	return s
}

func (p *Parser) parseSemver() ast.Semver {
	// The lexer reads the "1.0" of "1.0.0" as one FLOAT token, so
	// MAJOR.MINOR can arrive as a FLOAT followed by DOT PATCH.
	if tok, ok := p.accept(lexer.FLOAT); ok {
		for i := 0; i < len(tok.Lexeme); i++ {
			if tok.Lexeme[i] == '.' {
				p.expect(lexer.DOT)
				patch := p.parseIntLiteralValue()
				return ast.Semver{Major: parseIntLexeme(tok.Lexeme[:i]), Minor: parseIntLexeme(tok.Lexeme[i+1:]), Patch: patch}
			}
		}
	}
	major := p.parseIntLiteralValue()
	p.expect(lexer.DOT)
	minor := p.parseIntLiteralValue()
	p.expect(lexer.DOT)
	patch := p.parseIntLiteralValue()
	return ast.Semver{Major: major, Minor: minor, Patch: patch}
}

func (p *Parser) parseIntLiteralValue() int {
	tok := p.expect(lexer.INT)
	return parseIntLexeme(tok.Lexeme)
}
