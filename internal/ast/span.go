// Package ast defines the surface abstract syntax tree for the Language:
// declarations, expressions, statements, types, and patterns, plus the
// Span value type threaded through every node for diagnostics.
package ast

import "fmt"

// Span is a half-open byte range [Start, End) into the source text. Spans
// are value types: they are copied, never shared by pointer, so lowering
// and type checking can carry them forward without aliasing the AST.
type Span struct {
	Start int
	End   int
}

// Join returns the smallest span covering both a and b. Used when a
// composite node's span must cover its first and last child token.
func (a Span) Join(b Span) Span {
	s := a
	if b.Start < s.Start {
		s.Start = b.Start
	}
	if b.End > s.End {
		s.End = b.End
	}
	return s
}

// LineCol derives 1-based line/column for an offset into src. Never stored
// on a node; computed on demand per the span-preservation invariant.
func LineCol(src []byte, offset int) (line, col int) {
	line, col = 1, 1
	if offset > len(src) {
		offset = len(src)
	}
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}
