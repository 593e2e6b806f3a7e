package parser

import (
	"github.com/vudoc/vudoc/internal/ast"
	"github.com/vudoc/vudoc/internal/lexer"
)

// parseBlock parses `{ stmt* expr? }`. The trailing bare expression (no
// terminating `;`) becomes FinalExpr rather than a Statement, per §4.2's
// tie-break between statement and expression forms.
func (p *Parser) parseBlock() *ast.Block {
	start := p.cur.Start
	if !p.enterNesting() {
		return &ast.Block{ExprBase: ast.ExprBase{Sp: p.span(start)}}
	}
	defer p.leaveNesting()

	p.expect(lexer.LBRACE)
	b := &ast.Block{}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		if p.isExprStmtStart() {
			estart := p.cur.Start
			e := p.parseExpr(0)
			if p.at(lexer.ASSIGN) {
				p.advance()
				val := p.parseExpr(0)
				p.accept(lexer.SEMI)
				b.Statements = append(b.Statements, &ast.AssignStmt{StmtBase: ast.StmtBase{Sp: p.span(estart)}, Target: e, Value: val})
				continue
			}
			if _, ok := p.accept(lexer.SEMI); ok {
				b.Statements = append(b.Statements, &ast.ExprStmt{StmtBase: ast.StmtBase{Sp: p.span(estart)}, X: e})
				continue
			}
			if p.at(lexer.RBRACE) {
				b.FinalExpr = e
				break
			}
			b.Statements = append(b.Statements, &ast.ExprStmt{StmtBase: ast.StmtBase{Sp: p.span(estart)}, X: e})
			continue
		}
		before := p.cur.Start
		s := p.parseStmt()
		if s != nil {
			b.Statements = append(b.Statements, s)
		}
		if p.cur.Start == before && !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	b.Sp = p.span(start)
	return b
}

// isExprStmtStart reports whether the current token begins a bare
// expression statement rather than a keyword-led statement form.
func (p *Parser) isExprStmtStart() bool {
	switch p.cur.Kind {
	case lexer.KW_LET, lexer.KW_VAR, lexer.KW_RETURN, lexer.KW_WHILE,
		lexer.KW_FOR, lexer.KW_BREAK, lexer.KW_CONTINUE:
		return false
	default:
		return true
	}
}

func (p *Parser) parseStmt() ast.Stmt {
	start := p.cur.Start
	switch p.cur.Kind {
	case lexer.KW_LET:
		return p.parseLetStmt(start)
	case lexer.KW_VAR:
		return p.parseVarStmt(start)
	case lexer.KW_RETURN:
		p.advance()
		var val ast.Expr
		if !p.at(lexer.SEMI) && !p.at(lexer.RBRACE) {
			val = p.parseExpr(0)
		}
		p.accept(lexer.SEMI)
		return &ast.ReturnStmt{StmtBase: ast.StmtBase{Sp: p.span(start)}, Value: val}
	case lexer.KW_WHILE:
		p.advance()
		cond := p.parseExpr(0)
		body := p.parseBlock()
		return &ast.WhileStmt{StmtBase: ast.StmtBase{Sp: p.span(start)}, Cond: cond, Body: body}
	case lexer.KW_FOR:
		p.advance()
		name := p.expect(lexer.IDENT).Lexeme
		p.expect(lexer.KW_IN)
		iter := p.parseExpr(0)
		body := p.parseBlock()
		return &ast.ForStmt{StmtBase: ast.StmtBase{Sp: p.span(start)}, Binding: name, Iterable: iter, Body: body}
	case lexer.KW_BREAK:
		p.advance()
		p.accept(lexer.SEMI)
		return &ast.BreakStmt{StmtBase: ast.StmtBase{Sp: p.span(start)}}
	case lexer.KW_CONTINUE:
		p.advance()
		p.accept(lexer.SEMI)
		return &ast.ContinueStmt{StmtBase: ast.StmtBase{Sp: p.span(start)}}
	default:
		e := p.parseExpr(0)
		if p.at(lexer.ASSIGN) {
			p.advance()
			val := p.parseExpr(0)
			p.accept(lexer.SEMI)
			return &ast.AssignStmt{StmtBase: ast.StmtBase{Sp: p.span(start)}, Target: e, Value: val}
		}
		p.accept(lexer.SEMI)
		return &ast.ExprStmt{StmtBase: ast.StmtBase{Sp: p.span(start)}, X: e}
	}
}

func (p *Parser) parseLetStmt(start int) ast.Stmt {
	p.expect(lexer.KW_LET)
	name := p.expect(lexer.IDENT).Lexeme
	var typ ast.Type
	if _, ok := p.accept(lexer.COLON); ok {
		typ = p.parseType()
	}
	p.expect(lexer.ASSIGN)
	val := p.parseExpr(0)
	p.accept(lexer.SEMI)
	return &ast.LetStmt{StmtBase: ast.StmtBase{Sp: p.span(start)}, Name: name, Type: typ, Value: val}
}

func (p *Parser) parseVarStmt(start int) ast.Stmt {
	p.expect(lexer.KW_VAR)
	name := p.expect(lexer.IDENT).Lexeme
	var typ ast.Type
	if _, ok := p.accept(lexer.COLON); ok {
		typ = p.parseType()
	}
	p.expect(lexer.ASSIGN)
	val := p.parseExpr(0)
	p.accept(lexer.SEMI)
	return &ast.VarStmt{StmtBase: ast.StmtBase{Sp: p.span(start)}, Name: name, Type: typ, Value: val}
}
