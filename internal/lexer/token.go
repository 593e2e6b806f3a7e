package lexer

import "fmt"

// Kind identifies the category of a Token.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF

	IDENT
	INT
	FLOAT
	STRING
	BOOL

	// Declaration openers
	KW_TYPE
	KW_TRAIT
	KW_RULE
	KW_SYSTEM
	KW_EVOLUTION
	KW_FUN
	KW_CONST
	KW_MODULE
	KW_IMPORT

	// Visibility / effect markers
	KW_PUB
	KW_PURE
	KW_EFFECT

	// Predicate words / quantifiers
	KW_FORALL
	KW_EXISTS

	// Control flow
	KW_LET
	KW_VAR
	KW_IF
	KW_THEN
	KW_ELSE
	KW_MATCH
	KW_WITH
	KW_WHILE
	KW_FOR
	KW_IN
	KW_BREAK
	KW_CONTINUE
	KW_RETURN
	KW_TRUE
	KW_FALSE

	// Evolution sub-keywords
	KW_ADDS
	KW_CHANGES
	KW_RENAMES
	KW_REMOVES
	KW_MIGRATE
	KW_REQUIRES
	KW_AS

	// Operators
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	CARET
	EQ
	NEQ
	LT
	GT
	LTE
	GTE
	AND
	OR
	NOT
	ARROW   // ->
	BIND    // :=
	PIPEOP  // |>
	COMPOSE // >>
	LPIPE   // <|
	QUOTE   // '
	BANG    // !
	QMARK   // ?
	HASH    // #
	LQLIST  // [|
	RQLIST  // |]
	AT      // @
	DCOLON  // ::
	ASSIGN  // =
	COLON   // :

	// Delimiters
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	COMMA
	DOT
	SEMI
	PIPE // | (match arm separator / record field list)
	FARROW // =>
	UNIT   // ()
)

var names = map[Kind]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF",
	IDENT: "IDENT", INT: "INT", FLOAT: "FLOAT", STRING: "STRING", BOOL: "BOOL",
	KW_TYPE: "type", KW_TRAIT: "trait", KW_RULE: "rule", KW_SYSTEM: "system",
	KW_EVOLUTION: "evolution", KW_FUN: "fun", KW_CONST: "const", KW_MODULE: "module",
	KW_IMPORT: "import", KW_PUB: "pub", KW_PURE: "pure", KW_EFFECT: "effect",
	KW_FORALL: "forall", KW_EXISTS: "exists", KW_LET: "let", KW_VAR: "var",
	KW_IF: "if", KW_THEN: "then", KW_ELSE: "else", KW_MATCH: "match", KW_WITH: "with",
	KW_WHILE: "while", KW_FOR: "for", KW_IN: "in", KW_BREAK: "break",
	KW_CONTINUE: "continue", KW_RETURN: "return", KW_TRUE: "true", KW_FALSE: "false",
	KW_ADDS: "adds", KW_CHANGES: "changes", KW_RENAMES: "renames", KW_REMOVES: "removes",
	KW_MIGRATE: "migrate", KW_REQUIRES: "requires", KW_AS: "as",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%", CARET: "^",
	EQ: "==", NEQ: "!=", LT: "<", GT: ">", LTE: "<=", GTE: ">=",
	AND: "&&", OR: "||", NOT: "not", ARROW: "->", BIND: ":=",
	PIPEOP: "|>", COMPOSE: ">>", LPIPE: "<|", QUOTE: "'", BANG: "!",
	QMARK: "?", HASH: "#", LQLIST: "[|", RQLIST: "|]", AT: "@", DCOLON: "::",
	ASSIGN: "=", COLON: ":",
	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}", LBRACKET: "[", RBRACKET: "]",
	COMMA: ",", DOT: ".", SEMI: ";", PIPE: "|", FARROW: "=>", UNIT: "()",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var keywords = map[string]Kind{
	"type": KW_TYPE, "trait": KW_TRAIT, "rule": KW_RULE, "system": KW_SYSTEM,
	"evolution": KW_EVOLUTION, "fun": KW_FUN, "const": KW_CONST, "module": KW_MODULE,
	"import": KW_IMPORT, "pub": KW_PUB, "pure": KW_PURE, "effect": KW_EFFECT,
	"forall": KW_FORALL, "exists": KW_EXISTS, "let": KW_LET, "var": KW_VAR,
	"if": KW_IF, "then": KW_THEN, "else": KW_ELSE, "match": KW_MATCH, "with": KW_WITH,
	"while": KW_WHILE, "for": KW_FOR, "in": KW_IN, "break": KW_BREAK,
	"continue": KW_CONTINUE, "return": KW_RETURN, "true": KW_TRUE, "false": KW_FALSE,
	"adds": KW_ADDS, "changes": KW_CHANGES, "renames": KW_RENAMES, "removes": KW_REMOVES,
	"migrate": KW_MIGRATE, "requires": KW_REQUIRES, "as": KW_AS,
}

// LookupIdent classifies ident as a keyword token or IDENT.
func LookupIdent(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return IDENT
}

// Token is {kind, lexeme, span} per spec §3.2.
type Token struct {
	Kind   Kind
	Lexeme string
	Start  int
	End    int
	// Suffix carries a numeric literal's type suffix (i32, u64, f64, ...).
	Suffix string
	// Doc carries comment text immediately preceding this token, if any.
	Doc string
}

func (t Token) String() string {
	return fmt.Sprintf("Token{%s %q @%d..%d}", t.Kind, t.Lexeme, t.Start, t.End)
}

// IsKeyword reports whether t.Kind is one of the reserved words.
func (t Token) IsKeyword() bool {
	_, ok := names[t.Kind]
	return ok && t.Kind >= KW_TYPE && t.Kind <= KW_AS
}
