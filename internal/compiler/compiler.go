// Package compiler wires the four phases §4 describes into one pipeline:
// Lex (inside parser) -> Parse -> Lower -> Check -> Emit. Each phase's
// diagnostics merge into one Bag (§7: "Phases abort only at phase end if
// errors ... are present"), and a later phase only runs once the one
// before it produced no errors, matching the teacher's run-to-the-first-
// hard-failure discipline while still accumulating every diagnostic a
// given phase can find before stopping.
package compiler

import (
	"github.com/vudoc/vudoc/internal/ast"
	"github.com/vudoc/vudoc/internal/check"
	"github.com/vudoc/vudoc/internal/diagnostics"
	"github.com/vudoc/vudoc/internal/hir"
	"github.com/vudoc/vudoc/internal/lower"
	"github.com/vudoc/vudoc/internal/parser"
	"github.com/vudoc/vudoc/internal/wasm"
)

// Result is everything a caller (cmd/vudoc, a test, or an embedder) might
// want out of one compile: the diagnostics accumulated across every phase
// reached, and, if Emit ran, the module's bytes.
type Result struct {
	File   *ast.File
	Module *hir.Module
	Wasm   []byte
	Diags  *diagnostics.Bag
	// EmitErr is set when every diagnostic-producing phase succeeded but
	// the backend itself failed (§7's "Emission" category has no stable
	// E0xx code of its own — unlike a type or syntax error, it is not
	// something the collaborator's source caused, so it is reported as an
	// internal failure, not a Bag entry).
	EmitErr error
}

// Pipeline runs Lex->Parse->Lower->Check->Emit over one source file. A
// non-nil *lower.Cache is consulted/populated keyed on lower.Key(path,
// src), so compiling the same unchanged source twice (e.g. across
// `vudoc check` then `vudoc emit` in one process) skips re-lowering.
type Pipeline struct {
	Path       string
	WasmConfig wasm.Config
	Cache      *lower.Cache
}

// New creates a Pipeline for path (used for diagnostic spans and the
// lowering cache key).
func New(path string) *Pipeline {
	return &Pipeline{Path: path}
}

// Compile runs every phase it can, given the previous phase's success.
// Diagnostics are merged across phases even when a later phase never
// runs, so the caller always sees everything that was wrong with earlier
// phases (§8 scenario S6: two declarations, the first ill-typed, the
// second still gets checked, because the checker itself keeps going past
// one bad declaration — Compile does not re-implement that, it just
// forwards the checker's full Bag).
func (p *Pipeline) Compile(src []byte) *Result {
	res := &Result{Diags: &diagnostics.Bag{}}

	file, parseDiags := parser.Parse(src)
	res.Diags.Merge(parseDiags)
	res.File = file
	if res.Diags.HasErrors() {
		return res
	}

	var mod *hir.Module
	key := ""
	if p.Cache != nil {
		key = lower.Key(p.Path, src)
		if cached, ok := p.Cache.Get(key); ok {
			mod = cached
		}
	}
	if mod == nil {
		l := lower.New(p.Path)
		mod = l.Module(file)
		res.Diags.Merge(l.Diags)
		if p.Cache != nil && !l.Diags.HasErrors() {
			p.Cache.Put(key, mod)
		}
	}
	res.Module = mod
	if res.Diags.HasErrors() {
		return res
	}

	c := check.New()
	c.CheckModule(mod)
	res.Diags.Merge(c.Diags)
	if res.Diags.HasErrors() {
		return res
	}

	out, err := wasm.Emit(mod, p.WasmConfig)
	if err != nil {
		res.EmitErr = err
		return res
	}
	res.Wasm = out
	return res
}
