// Package check implements §4.4's bidirectional type checker: Infer
// synthesises a type bottom-up, Check verifies an expression against an
// expected type top-down, and a small Robinson-style unifier resolves the
// type variables both modes produce. It lives apart from internal/types
// (which only holds the value-type lattice) because internal/hir already
// imports internal/types for each node's mutable type slot — folding the
// checker into internal/types the way §0's module layout names it would
// close an import cycle (hir -> types -> hir). See DESIGN.md.
package check

import (
	"github.com/vudoc/vudoc/internal/ast"
	"github.com/vudoc/vudoc/internal/diagnostics"
	"github.com/vudoc/vudoc/internal/hir"
	"github.com/vudoc/vudoc/internal/types"
)

// EffectContext is threaded explicitly through every Infer/Check call
// rather than kept as mutable Checker state, per §9's design note ("no
// global mutable flag"). Pure is false once checking descends into an
// effect-marked function or a Loop/Lambda that inherits its enclosing
// function's purity.
type EffectContext struct {
	Pure     bool
	FuncName string
}

// env is a persistent (copy-on-extend) lexical scope from a resolved
// hir.Var slot to its type, mirroring internal/lower's own scope stack.
type env struct {
	slots  map[int]types.Type
	parent *env
}

func newEnv(parent *env) *env { return &env{slots: map[int]types.Type{}, parent: parent} }

func (e *env) lookup(slot int) (types.Type, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if t, ok := cur.slots[slot]; ok {
			return t, true
		}
	}
	return nil, false
}

func (e *env) bind(slot int, t types.Type) { e.slots[slot] = t }

// Checker accumulates diagnostics and a substitution from fresh type
// variables to resolved types while walking one module's functions.
type Checker struct {
	Diags *diagnostics.Bag
	subst map[int]types.Type
	next  int
	funcs map[string]*hir.Function
}

// New creates a Checker ready to check a module's functions against one
// another (so forward references and mutual recursion resolve).
func New() *Checker {
	return &Checker{Diags: &diagnostics.Bag{}, subst: map[int]types.Type{}}
}

func (c *Checker) fresh() types.TVar {
	v := types.TVar{ID: c.next}
	c.next++
	return v
}

// CheckModule type-checks every function in m, filling in each hir.Expr's
// Type() slot as it goes. It never aborts on the first error; every
// function is checked and every error surfaced (§4.4).
func (c *Checker) CheckModule(m *hir.Module) {
	c.funcs = map[string]*hir.Function{}
	for _, fn := range m.Functions {
		c.funcs[fn.Name] = fn
	}
	for _, fn := range m.Functions {
		c.checkFunction(fn)
	}
}

func (c *Checker) checkFunction(fn *hir.Function) {
	e := newEnv(nil)
	for _, p := range fn.Params {
		e.bind(p.Slot, p.Type)
	}
	ctx := EffectContext{Pure: fn.Pure, FuncName: fn.Name}
	for _, s := range fn.Body {
		c.checkStmt(s, e, ctx, fn.Ret)
	}
}

func (c *Checker) checkStmt(s hir.Stmt, e *env, ctx EffectContext, ret types.Type) {
	switch n := s.(type) {
	case *hir.Val:
		e.bind(n.Slot, c.infer(n.Value, e, ctx))
	case *hir.VarStmt:
		e.bind(n.Slot, c.infer(n.Value, e, ctx))
	case *hir.Assign:
		targetT := c.infer(n.Target, e, ctx)
		c.check(n.Value, targetT, e, ctx)
	case *hir.ExprStmt:
		c.infer(n.X, e, ctx)
	case *hir.Return:
		if n.Value != nil {
			c.check(n.Value, ret, e, ctx)
		} else if !types.Equal(ret, types.TPrim{Prim: types.Unit}) {
			c.errf(diagnostics.E005TypeMismatch, "bare return in a function declared to return %s", ret)
		}
	case *hir.Break, *hir.Continue:
		// Structural; nothing to unify.
	default:
		c.errf(diagnostics.E001Syntax, "checker: unhandled statement form %T", s)
	}
}

// infer synthesises n's type bottom-up (§4.4's Infer mode), records it on
// the node, and returns it.
func (c *Checker) infer(n hir.Expr, e *env, ctx EffectContext) types.Type {
	t := c.inferRaw(n, e, ctx)
	n.SetType(t)
	return t
}

func (c *Checker) inferRaw(n hir.Expr, e *env, ctx EffectContext) types.Type {
	switch x := n.(type) {
	case *hir.Literal:
		switch x.Kind {
		case hir.IntLit:
			return c.fresh() // defaults to i64 at generalisation (§4.4); left as a var here
		case hir.FloatLit:
			return c.fresh()
		case hir.StringLit:
			return types.TPrim{Prim: types.Str}
		case hir.BoolLit:
			return types.TPrim{Prim: types.Bool}
		default:
			return types.TPrim{Prim: types.Unit}
		}
	case *hir.Var:
		if t, ok := e.lookup(x.Slot); ok {
			return t
		}
		c.errf(diagnostics.E003UndefinedRef, "undefined reference %q", x.Name)
		return types.TError{}
	case *hir.App:
		return c.inferApp(x, e, ctx)
	case *hir.Lam:
		inner := newEnv(e)
		params := make([]types.Type, len(x.Params))
		for i, slot := range x.Slots {
			v := c.fresh()
			params[i] = v
			inner.bind(slot, v)
		}
		body := c.infer(x.Body, inner, ctx)
		return types.TFunc{Params: params, Ret: body}
	case *hir.Let:
		t := c.infer(x.Value, e, ctx)
		inner := newEnv(e)
		inner.bind(x.Slot, t)
		return c.infer(x.Body, inner, ctx)
	case *hir.If:
		c.check(x.Cond, types.TPrim{Prim: types.Bool}, e, ctx)
		thenT := c.infer(x.Then, e, ctx)
		elseT := c.infer(x.Else, e, ctx)
		return c.unify(thenT, elseT)
	case *hir.Match:
		c.infer(x.Scrutinee, e, ctx)
		var result types.Type
		for _, arm := range x.Cases {
			inner := newEnv(e)
			c.bindPattern(arm.Pattern, inner)
			if arm.Guard != nil {
				c.check(arm.Guard, types.TPrim{Prim: types.Bool}, inner, ctx)
			}
			armT := c.infer(arm.Body, inner, ctx)
			if result == nil {
				result = armT
			} else {
				result = c.unify(result, armT)
			}
		}
		if result == nil {
			return types.TUnknown{}
		}
		return result
	case *hir.Proj:
		c.infer(x.Record, e, ctx)
		return c.fresh() // field types resolve once record declarations are threaded in; left open (see DESIGN.md)
	case *hir.Call:
		// Capability calls (Call(T::m, recv, args)) are effectful by
		// convention; a pure function may not make one.
		if ctx.Pure {
			c.errf(diagnostics.E007PurityViolation, "pure function %q calls capability %s::%s", ctx.FuncName, x.Trait, x.Method)
		}
		c.infer(x.Receiver, e, ctx)
		for _, a := range x.Args {
			c.infer(a, e, ctx)
		}
		return c.fresh()
	case *hir.BinOp:
		left := c.infer(x.Left, e, ctx)
		right := c.infer(x.Right, e, ctx)
		switch x.Op {
		case "==", "!=", "<", "<=", ">", ">=":
			c.unify(left, right)
			return types.TPrim{Prim: types.Bool}
		default:
			return c.unify(left, right)
		}
	case *hir.Record:
		for _, f := range x.Fields {
			c.infer(f.Value, e, ctx)
		}
		return types.TNamed{Name: x.TypeName}
	case *hir.Tuple:
		elems := make([]types.Type, len(x.Elems))
		for i, el := range x.Elems {
			elems[i] = c.infer(el, e, ctx)
		}
		return types.TTuple{Elems: elems}
	case *hir.Index:
		c.infer(x.Base, e, ctx)
		c.check(x.Index, types.TPrim{Prim: types.I32}, e, ctx)
		return c.fresh()
	case *hir.Loop:
		for _, s := range x.Body {
			c.checkStmt(s, e, ctx, types.TPrim{Prim: types.Unit})
		}
		return types.TPrim{Prim: types.Unit}
	case *hir.StmtExpr:
		switch s := x.S.(type) {
		case *hir.Break, *hir.Continue:
			return types.TNever{}
		case *hir.Return:
			if s.Value != nil {
				c.infer(s.Value, e, ctx)
			}
			return types.TNever{}
		case *hir.Assign:
			targetT := c.infer(s.Target, e, ctx)
			c.check(s.Value, targetT, e, ctx)
			return types.TPrim{Prim: types.Unit}
		default:
			return types.TUnknown{}
		}
	default:
		c.errf(diagnostics.E006CannotInfer, "cannot infer a type for %T", n)
		return types.TError{}
	}
}

func (c *Checker) inferApp(x *hir.App, e *env, ctx EffectContext) types.Type {
	if v, ok := x.Func.(*hir.Var); ok {
		if hir.HostPrimitives[v.Name] && ctx.Pure {
			c.errf(diagnostics.E007PurityViolation, "pure function %q calls effectful primitive %s", ctx.FuncName, v.Name)
		}
		if callee, ok := c.funcs[v.Name]; ok {
			// A pure function may call only pure functions; an
			// effect-marked function may call anything (§4.4).
			if ctx.Pure && !callee.Pure {
				c.errf(diagnostics.E007PurityViolation, "pure function %q calls effectful function %q", ctx.FuncName, callee.Name)
			}
			if len(x.Args) != len(callee.Params) {
				c.errf(diagnostics.E005TypeMismatch, "%q expects %d argument(s), got %d (arity mismatch)", v.Name, len(callee.Params), len(x.Args))
			}
			for i, a := range x.Args {
				if i < len(callee.Params) {
					c.check(a, callee.Params[i].Type, e, ctx)
				} else {
					c.infer(a, e, ctx)
				}
			}
			return callee.Ret
		}
	}
	c.infer(x.Func, e, ctx)
	for _, a := range x.Args {
		c.infer(a, e, ctx)
	}
	return c.fresh()
}

// check verifies n against an expected type (§4.4's Check mode),
// refining type variables via unification rather than re-deriving a type
// from scratch.
func (c *Checker) check(n hir.Expr, expected types.Type, e *env, ctx EffectContext) {
	got := c.infer(n, e, ctx)
	c.unify(got, expected)
}

// unify resolves two types against the Checker's running substitution,
// reporting E005TypeMismatch on a hard clash. TAny and TError absorb
// anything; a TVar on either side is solved to the other type.
func (c *Checker) unify(a, b types.Type) types.Type {
	a = c.resolve(a)
	b = c.resolve(b)
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	if _, ok := a.(types.TAny); ok {
		return b
	}
	if _, ok := b.(types.TAny); ok {
		return a
	}
	if _, ok := a.(types.TError); ok {
		return b
	}
	if _, ok := b.(types.TError); ok {
		return a
	}
	if v, ok := a.(types.TVar); ok {
		c.subst[v.ID] = b
		return b
	}
	if v, ok := b.(types.TVar); ok {
		c.subst[v.ID] = a
		return a
	}
	if types.Equal(a, b) {
		return a
	}
	c.errf(diagnostics.E005TypeMismatch, "type mismatch: expected %s, found %s", a, b)
	return types.TError{}
}

func (c *Checker) resolve(t types.Type) types.Type {
	for {
		v, ok := t.(types.TVar)
		if !ok {
			return t
		}
		sub, ok := c.subst[v.ID]
		if !ok {
			return t
		}
		t = sub
	}
}

func (c *Checker) bindPattern(p hir.Pattern, e *env) {
	switch n := p.(type) {
	case hir.BinderPattern:
		e.bind(n.Slot, c.fresh())
	case hir.TuplePattern:
		for _, el := range n.Elems {
			c.bindPattern(el, e)
		}
	case hir.ConstructorPattern:
		for _, a := range n.Args {
			c.bindPattern(a, e)
		}
	case hir.RecordPattern:
		for _, f := range n.Fields {
			c.bindPattern(f, e)
		}
	}
}

// errf reports a diagnostic at a zero span: HIR nodes carry no source
// position (internal/hir's Expr/Stmt interfaces have no Span method), so
// checker diagnostics can name what went wrong but not point at it the way
// parser/lowerer diagnostics do. See DESIGN.md.
func (c *Checker) errf(code string, format string, args ...interface{}) {
	c.Diags.Errorf(code, ast.Span{}, format, args...)
}
