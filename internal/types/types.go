// Package types implements the value-type lattice of §3.5: primitives,
// compound types, function types, user-defined names, and the inference
// artefacts (type variable, Any, Never, Unknown, Error) the checker uses
// while unifying.
package types

import "fmt"

// Type is the sum of every type-lattice member. It is a closed set,
// following the same sealed-interface approach as internal/ast.
type Type interface {
	typeNode()
	String() string
}

// Prim is a primitive scalar type.
type Prim int

const (
	I8 Prim = iota
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
	Bool
	Str
	Unit
)

var primNames = map[Prim]string{
	I8: "i8", I16: "i16", I32: "i32", I64: "i64",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64",
	F32: "f32", F64: "f64", Bool: "bool", Str: "string", Unit: "unit",
}

func (p Prim) String() string { return primNames[p] }

// TPrim wraps a Prim as a Type.
type TPrim struct{ Prim Prim }

func (TPrim) typeNode()        {}
func (t TPrim) String() string { return t.Prim.String() }

// TVar is an unresolved inference variable, identified by a monotonic ID.
type TVar struct{ ID int }

func (TVar) typeNode()        {}
func (t TVar) String() string { return fmt.Sprintf("t%d", t.ID) }

// TVec is `Vec<T>`.
type TVec struct{ Elem Type }

func (TVec) typeNode()        {}
func (t TVec) String() string { return fmt.Sprintf("Vec<%s>", t.Elem) }

// TOption is `Option<T>`.
type TOption struct{ Elem Type }

func (TOption) typeNode()        {}
func (t TOption) String() string { return fmt.Sprintf("Option<%s>", t.Elem) }

// TResult is `Result<T,E>`.
type TResult struct{ Ok, Err Type }

func (TResult) typeNode()        {}
func (t TResult) String() string { return fmt.Sprintf("Result<%s,%s>", t.Ok, t.Err) }

// TMap is `Map<K,V>`.
type TMap struct{ Key, Val Type }

func (TMap) typeNode()        {}
func (t TMap) String() string { return fmt.Sprintf("Map<%s,%s>", t.Key, t.Val) }

// TTuple is `(T, …)`.
type TTuple struct{ Elems []Type }

func (TTuple) typeNode() {}
func (t TTuple) String() string {
	s := "("
	for i, e := range t.Elems {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + ")"
}

// TArray is a fixed-size `[T; N]`.
type TArray struct {
	Elem Type
	Size int
}

func (TArray) typeNode()        {}
func (t TArray) String() string { return fmt.Sprintf("[%s; %d]", t.Elem, t.Size) }

// TFunc is `(T, …) -> R`.
type TFunc struct {
	Params []Type
	Ret    Type
}

func (TFunc) typeNode() {}
func (t TFunc) String() string {
	s := "("
	for i, p := range t.Params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s + ") -> " + t.Ret.String()
}

// TNamed is a user-defined record/enum type, optionally parameterised.
type TNamed struct {
	Name string
	Args []Type
}

func (TNamed) typeNode() {}
func (t TNamed) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	s := t.Name + "<"
	for i, a := range t.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ">"
}

// TAny is the top type (unifies with anything).
type TAny struct{}

func (TAny) typeNode()        {}
func (TAny) String() string   { return "Any" }

// TNever is the bottom type (the type of a non-returning expression, e.g.
// `vudo_panic`'s call site).
type TNever struct{}

func (TNever) typeNode()        {}
func (TNever) String() string   { return "Never" }

// TUnknown placeholds a type not yet solved; distinct from TVar in that it
// carries no identity to unify against.
type TUnknown struct{}

func (TUnknown) typeNode()        {}
func (TUnknown) String() string   { return "Unknown" }

// TError marks a node whose type could not be determined due to a prior
// diagnostic; checking continues past it without cascading further errors.
type TError struct{}

func (TError) typeNode()        {}
func (TError) String() string   { return "Error" }

// Equal reports nominal/structural equality (not unification) of a and b.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}
