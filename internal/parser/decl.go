package parser

import (
	"github.com/vudoc/vudoc/internal/ast"
	"github.com/vudoc/vudoc/internal/diagnostics"
	"github.com/vudoc/vudoc/internal/lexer"
)

// parseDecl parses one top-level declaration, recovering to the next
// synchronization point on error (§4.2).
func (p *Parser) parseDecl() ast.Decl {
	start := p.cur.Start
	doc := p.cur.Doc
	public := false
	if _, ok := p.accept(lexer.KW_PUB); ok {
		public = true
		if doc == "" {
			doc = p.cur.Doc
		}
	}

	var d ast.Decl
	switch p.cur.Kind {
	case lexer.KW_PURE, lexer.KW_FUN:
		d = p.parseFuncDecl(start, public, doc)
	case lexer.KW_TYPE:
		d = p.parseTypeDecl(start, public, doc)
	case lexer.KW_TRAIT:
		d = p.parseTraitDecl(start, public, doc)
	case lexer.KW_RULE:
		d = p.parseRuleDecl(start, public, doc)
	case lexer.KW_SYSTEM:
		d = p.parseSystemDecl(start, public, doc)
	case lexer.KW_EVOLUTION:
		d = p.parseEvolutionDecl(start, public, doc)
	case lexer.KW_CONST:
		d = p.parseConstDecl(start, public, doc)
	default:
		p.errorf(diagnostics.E001Syntax, "expected a declaration, found %s", p.cur.Kind)
		p.synchronize()
		return nil
	}

	if d != nil && public && doc == "" {
		p.Diags.Errorf(diagnostics.E001Syntax, d.Span(), "public declaration requires a documentation block")
	}
	return d
}

func (p *Parser) parseFuncDecl(start int, public bool, doc string) *ast.FuncDecl {
	pure := false
	if _, ok := p.accept(lexer.KW_PURE); ok {
		pure = true
	}
	p.expect(lexer.KW_FUN)
	name := p.expect(lexer.IDENT).Lexeme

	var generics []string
	if _, ok := p.accept(lexer.LT); ok {
		for {
			generics = append(generics, p.expect(lexer.IDENT).Lexeme)
			if _, ok := p.accept(lexer.COMMA); !ok {
				break
			}
		}
		p.expect(lexer.GT)
	}

	params := p.parseParamList()

	var ret ast.Type
	if _, ok := p.accept(lexer.ARROW); ok {
		ret = p.parseType()
	}

	body := p.parseBlock()

	return &ast.FuncDecl{
		DeclBase:   ast.DeclBase{Public: public, DocText: doc, Sp: p.span(start)},
		Name:       name,
		Generics:   generics,
		Params:     params,
		ReturnType: ret,
		Pure:       pure,
		Body:       body,
	}
}

func (p *Parser) parseParamList() []*ast.Param {
	// An empty parameter list `()` lexes as a single UNIT token.
	if _, ok := p.accept(lexer.UNIT); ok {
		return nil
	}
	p.expect(lexer.LPAREN)
	var params []*ast.Param
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		pstart := p.cur.Start
		pname := p.expect(lexer.IDENT).Lexeme
		var ptyp ast.Type
		if _, ok := p.accept(lexer.COLON); ok {
			ptyp = p.parseType()
		}
		params = append(params, &ast.Param{Name: pname, Type: ptyp, Sp: p.span(pstart)})
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	p.expect(lexer.RPAREN)
	return params
}

func (p *Parser) parseTypeDecl(start int, public bool, doc string) *ast.TypeDecl {
	p.expect(lexer.KW_TYPE)
	name := p.expect(lexer.IDENT).Lexeme
	var generics []string
	if _, ok := p.accept(lexer.LT); ok {
		for {
			generics = append(generics, p.expect(lexer.IDENT).Lexeme)
			if _, ok := p.accept(lexer.COMMA); !ok {
				break
			}
		}
		p.expect(lexer.GT)
	}

	p.expect(lexer.ASSIGN)

	var variants []*ast.Variant
	if p.at(lexer.LBRACE) {
		variants = []*ast.Variant{{Tag: "", Fields: p.parseFieldList(), Sp: p.span(start)}}
	} else {
		variants = p.parseEnumVariants()
	}

	return &ast.TypeDecl{
		DeclBase: ast.DeclBase{Public: public, DocText: doc, Sp: p.span(start)},
		Name:     name,
		Generics: generics,
		Variants: variants,
	}
}

func (p *Parser) parseEnumVariants() []*ast.Variant {
	var variants []*ast.Variant
	for {
		vstart := p.cur.Start
		tag := p.expect(lexer.IDENT).Lexeme
		var fields []*ast.FieldDecl
		if _, ok := p.accept(lexer.LPAREN); ok {
			for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
				fstart := p.cur.Start
				ftype := p.parseType()
				fields = append(fields, &ast.FieldDecl{Name: "", Type: ftype, Sp: p.span(fstart)})
				if _, ok := p.accept(lexer.COMMA); !ok {
					break
				}
			}
			p.expect(lexer.RPAREN)
		} else if p.at(lexer.LBRACE) {
			fields = p.parseFieldList()
		}
		variants = append(variants, &ast.Variant{Tag: tag, Fields: fields, Sp: p.span(vstart)})
		if _, ok := p.accept(lexer.PIPE); !ok {
			break
		}
	}
	return variants
}

func (p *Parser) parseFieldList() []*ast.FieldDecl {
	p.expect(lexer.LBRACE)
	var fields []*ast.FieldDecl
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		fstart := p.cur.Start
		fname := p.expect(lexer.IDENT).Lexeme
		p.expect(lexer.COLON)
		ftyp := p.parseType()
		var def ast.Expr
		if _, ok := p.accept(lexer.ASSIGN); ok {
			def = p.parseExpr(0)
		}
		var rule ast.Expr
		if _, ok := p.accept(lexer.KW_WITH); ok {
			rule = p.parseExpr(0)
		}
		fields = append(fields, &ast.FieldDecl{Name: fname, Type: ftyp, Default: def, InlineRule: rule, Sp: p.span(fstart)})
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	p.expect(lexer.RBRACE)
	return fields
}

func (p *Parser) parseTraitDecl(start int, public bool, doc string) *ast.TraitDecl {
	p.expect(lexer.KW_TRAIT)
	name := p.expect(lexer.IDENT).Lexeme
	var uses []string
	if _, ok := p.accept(lexer.COLON); ok {
		for {
			uses = append(uses, p.expect(lexer.IDENT).Lexeme)
			if _, ok := p.accept(lexer.COMMA); !ok {
				break
			}
		}
	}
	p.expect(lexer.LBRACE)
	var sigs []*ast.CapabilitySig
	var laws []*ast.Law
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		if p.at(lexer.KW_FORALL) {
			laws = append(laws, p.parseLaw())
			continue
		}
		sigs = append(sigs, p.parseCapabilitySig())
	}
	p.expect(lexer.RBRACE)
	return &ast.TraitDecl{
		DeclBase: ast.DeclBase{Public: public, DocText: doc, Sp: p.span(start)},
		Name:     name,
		Uses:     uses,
		Sigs:     sigs,
		Laws:     laws,
	}
}

func (p *Parser) parseCapabilitySig() *ast.CapabilitySig {
	start := p.cur.Start
	name := p.expect(lexer.IDENT).Lexeme
	p.expect(lexer.COLON)
	params := []ast.Type{}
	p.expect(lexer.LPAREN)
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		params = append(params, p.parseType())
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	p.expect(lexer.RPAREN)
	p.expect(lexer.ARROW)
	ret := p.parseType()
	return &ast.CapabilitySig{Name: name, Params: params, Ret: ret, Sp: p.span(start)}
}

func (p *Parser) parseLaw() *ast.Law {
	start := p.cur.Start
	p.expect(lexer.KW_FORALL)
	var binders []*ast.Binder
	for p.at(lexer.IDENT) {
		bstart := p.cur.Start
		bname := p.cur.Lexeme
		p.advance()
		var btyp ast.Type
		if _, ok := p.accept(lexer.COLON); ok {
			btyp = p.parseType()
		}
		binders = append(binders, &ast.Binder{Name: bname, Type: btyp, Sp: p.span(bstart)})
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	p.expect(lexer.DOT)
	body := p.parseExpr(0)
	return &ast.Law{Quant: binders, Body: body, Sp: p.span(start)}
}

func (p *Parser) parseRuleDecl(start int, public bool, doc string) *ast.RuleDecl {
	p.expect(lexer.KW_RULE)
	name := p.expect(lexer.IDENT).Lexeme
	p.expect(lexer.LBRACE)
	body := p.parseExpr(0)
	p.expect(lexer.RBRACE)
	return &ast.RuleDecl{
		DeclBase: ast.DeclBase{Public: public, DocText: doc, Sp: p.span(start)},
		Name:     name,
		Body:     body,
	}
}

func (p *Parser) parseSystemDecl(start int, public bool, doc string) *ast.SystemDecl {
	p.expect(lexer.KW_SYSTEM)
	name := p.expect(lexer.IDENT).Lexeme
	sv := ast.Semver{}
	if _, ok := p.accept(lexer.AT); ok {
		sv = p.parseSemver()
	}
	p.expect(lexer.LBRACE)
	var reqs []*ast.ModuleRequirement
	var body []ast.Stmt
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		if _, ok := p.accept(lexer.KW_REQUIRES); ok {
			rstart := p.cur.Start
			path := p.parseDottedPath()
			constraint := ""
			if tok, ok := p.accept(lexer.STRING); ok {
				constraint = tok.Lexeme
			}
			reqs = append(reqs, &ast.ModuleRequirement{Path: path, Constraint: constraint, Sp: p.span(rstart)})
			continue
		}
		body = append(body, p.parseStmt())
	}
	p.expect(lexer.RBRACE)
	return &ast.SystemDecl{
		DeclBase: ast.DeclBase{Public: public, DocText: doc, Sp: p.span(start)},
		Name:     name,
		Semver:   sv,
		Requires: reqs,
		Body:     body,
	}
}

func (p *Parser) parseEvolutionDecl(start int, public bool, doc string) *ast.EvolutionDecl {
	p.expect(lexer.KW_EVOLUTION)
	name := p.expect(lexer.IDENT).Lexeme
	p.expect(lexer.AT)
	parent := p.parseSemver()
	p.expect(lexer.GT)
	version := p.parseSemver()

	ev := &ast.EvolutionDecl{
		DeclBase:      ast.DeclBase{Public: public, DocText: doc, Sp: ast.Span{Start: start}},
		Name:          name,
		ParentVersion: parent,
		Version:       version,
	}
	if !parent.Less(version) {
		p.Diags.Errorf(diagnostics.E001Syntax, p.span(start), "evolution target version must be greater than parent version")
	}

	p.expect(lexer.LBRACE)
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		switch p.cur.Kind {
		case lexer.KW_ADDS:
			p.advance()
			ev.Adds = append(ev.Adds, p.parseFieldList()...)
		case lexer.KW_CHANGES:
			p.advance()
			p.expect(lexer.KW_TYPE)
			tstart := p.cur.Start
			field := p.expect(lexer.IDENT).Lexeme
			p.expect(lexer.ARROW)
			from := p.parseType()
			p.expect(lexer.ARROW)
			to := p.parseType()
			ev.Changes = append(ev.Changes, &ast.TypeChange{Field: field, From: from, To: to, Sp: p.span(tstart)})
		case lexer.KW_RENAMES:
			p.advance()
			rstart := p.cur.Start
			from := p.expect(lexer.IDENT).Lexeme
			p.expect(lexer.ARROW)
			to := p.expect(lexer.IDENT).Lexeme
			ev.Renames = append(ev.Renames, &ast.Rename{From: from, To: to, Sp: p.span(rstart)})
		case lexer.KW_REMOVES:
			p.advance()
			ev.Removes = append(ev.Removes, p.expect(lexer.IDENT).Lexeme)
		case lexer.KW_MIGRATE:
			p.advance()
			p.expect(lexer.COLON)
			ev.Migrate = p.parseExpr(0)
		default:
			p.errorf(diagnostics.E001Syntax, "unexpected token in evolution body: %s", p.cur.Kind)
			p.advance()
		}
		p.accept(lexer.SEMI)
	}
	p.expect(lexer.RBRACE)
	ev.Sp = p.span(start)
	return ev
}

func (p *Parser) parseConstDecl(start int, public bool, doc string) *ast.ConstDecl {
	p.expect(lexer.KW_CONST)
	name := p.expect(lexer.IDENT).Lexeme
	var typ ast.Type
	if _, ok := p.accept(lexer.COLON); ok {
		typ = p.parseType()
	}
	p.expect(lexer.ASSIGN)
	val := p.parseExpr(0)
	return &ast.ConstDecl{
		DeclBase: ast.DeclBase{Public: public, DocText: doc, Sp: p.span(start)},
		Name:     name,
		Type:     typ,
		Expr:     val,
	}
}
