package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collect(src string) []Token {
	l := New([]byte(src))
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

func kinds(toks []Token) []Kind {
	ks := make([]Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestHelloWorldTokens(t *testing.T) {
	toks := collect(`fun main() { println("Hello") }`)
	require.Equal(t, []Kind{
		KW_FUN, IDENT, UNIT, LBRACE, IDENT, LPAREN, STRING, RPAREN, RBRACE, EOF,
	}, kinds(toks))
	require.Equal(t, "Hello", toks[6].Lexeme)
}

func TestSpecialSymbols(t *testing.T) {
	toks := collect(`a |> f >> g <| h ' !x ?T #m [| y |]`)
	got := kinds(toks)
	require.Contains(t, got, PIPEOP)
	require.Contains(t, got, COMPOSE)
	require.Contains(t, got, LPIPE)
	require.Contains(t, got, QUOTE)
	require.Contains(t, got, BANG)
	require.Contains(t, got, QMARK)
	require.Contains(t, got, HASH)
	require.Contains(t, got, LQLIST)
	require.Contains(t, got, RQLIST)
}

func TestNumericSuffix(t *testing.T) {
	toks := collect(`3i32 4.5f64`)
	require.Equal(t, INT, toks[0].Kind)
	require.Equal(t, "i32", toks[0].Suffix)
	require.Equal(t, FLOAT, toks[1].Kind)
	require.Equal(t, "f64", toks[1].Suffix)
}

func TestStringEscapes(t *testing.T) {
	toks := collect(`"a\nb\tc\\\"d\u{41}"`)
	require.Equal(t, STRING, toks[0].Kind)
	require.Equal(t, "a\nb\tc\\\"dA", toks[0].Lexeme)
}

func TestIllegalByteRecovers(t *testing.T) {
	toks := collect("a `b")
	require.Equal(t, []Kind{IDENT, ILLEGAL, IDENT, EOF}, kinds(toks))
}

func TestNestedBlockComment(t *testing.T) {
	toks := collect("/* outer /* inner */ still */ x")
	require.Equal(t, []Kind{IDENT, EOF}, kinds(toks))
}

func TestLineComment(t *testing.T) {
	toks := collect("x // trailing\ny")
	require.Equal(t, []Kind{IDENT, IDENT, EOF}, kinds(toks))
}

func TestSpanPreservation(t *testing.T) {
	src := "let x = 1"
	toks := collect(src)
	require.Equal(t, "let", src[toks[0].Start:toks[0].End])
	require.Equal(t, "x", src[toks[1].Start:toks[1].End])
}
