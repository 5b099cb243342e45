// Package analyzer implements the two structural components that consume
// the type scope: the demand-driven Symbol Checker (type_check_modules /
// type_check_symbol) and the per-node Node Checker (type_check_node). Both
// share one Checker, mirroring how github.com/funvibe/funxy's analyzer
// package keeps naming, header, instance, and body analysis as methods on
// one Analyzer/walker pair rather than as separate unconnected types.
//
// Unlike the donor, there is no header/naming/instance pass here: this
// language has no traits, no generics, no extension methods, so the
// multi-pass pipeline those concerns need collapses into the two passes
// the spec actually calls for.
package analyzer

import (
	"sort"

	"github.com/corelangs/typecheck/internal/ast"
	"github.com/corelangs/typecheck/internal/diagnostics"
	"github.com/corelangs/typecheck/internal/symbols"
	"github.com/corelangs/typecheck/internal/token"
	"github.com/corelangs/typecheck/internal/typesystem"
)

// Checker owns the type scope and symbol table for one type_check_modules
// run. It is not safe for concurrent use — see the package's single-
// threaded cooperative concurrency model.
type Checker struct {
	Scope *typesystem.Scope
	Table *symbols.Table

	// TypeMap records every checked node's inferred Group, mirroring the
	// donor Analyzer's TypeMap map[ast.Node]typesystem.Type — there is no
	// separate typed-AST representation; a node's type lives in this
	// side-table instead of a rebuilt tree.
	TypeMap map[ast.Node]typesystem.Group

	// Strict, when set, makes TypeCheckModules stop at the first failing
	// symbol instead of accumulating every independent symbol's error.
	// Mirrors internal/config.Project.Strict.
	Strict bool
}

// New builds a Checker over a freshly constructed type scope and an already
// module-loaded symbol table.
func New(table *symbols.Table) *Checker {
	return &Checker{Scope: typesystem.NewScope(), Table: table, TypeMap: map[ast.Node]typesystem.Group{}}
}

// zeroRange is used for diagnostics that have no single anchoring source
// range of their own (e.g. a RecursiveConstant detected from the symbol
// checker's stack rather than from a specific node).
func zeroRange() token.Range { return token.Range{} }

// TypeCheckModules is the package's entry point: flatten every loaded
// module's symbols (already done by symbols.Table.LoadModule) and check
// each path. By default it accumulates errors across independent top-level
// symbols so a single pass surfaces as many diagnostics as possible; with
// Strict set it returns as soon as the first symbol fails.
func (c *Checker) TypeCheckModules() []*diagnostics.DiagnosticError {
	paths := c.Table.AllPaths()
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })

	var errs []*diagnostics.DiagnosticError
	for _, path := range paths {
		if err := c.TypeCheckSymbol(path); err != nil {
			errs = append(errs, err)
			if c.Strict {
				return errs
			}
		}
	}
	return errs
}

// flow is the (sometimes_returns, always_returns) pair every node checked
// as part of a statement sequence contributes.
type flow struct {
	Sometimes bool
	Always    bool
}

// seqCombine folds flow across a statement sequence: OR for both
// components. The spec deliberately does not simulate dead code — once
// always becomes true partway through a sequence, later statements can
// still flip sometimes but never unset always.
func seqCombine(a, b flow) flow {
	return flow{Sometimes: a.Sometimes || b.Sometimes, Always: a.Always || b.Always}
}

// branchCombine folds flow across the arms of a conditional: sometimes is
// true if any arm sometimes returns; always is true only if every arm
// (including a required else) always returns. A conditional missing an else
// arm can never always-return, since the fallthrough path never diverges.
func branchCombine(arms []flow, hasElse bool) flow {
	if !hasElse {
		var sometimes bool
		for _, a := range arms {
			sometimes = sometimes || a.Sometimes
		}
		return flow{Sometimes: sometimes}
	}
	always := true
	var sometimes bool
	for _, a := range arms {
		sometimes = sometimes || a.Sometimes
		always = always && a.Always
	}
	return flow{Sometimes: sometimes, Always: always}
}

// checkSequence checks a body of nodes in order against the enclosing
// return Group, threading variable-table mutations through scope and
// folding flow with seqCombine. It stops at the first error, per the
// spec's "errors from child nodes short-circuit their parent node" rule.
func (c *Checker) checkSequence(body []ast.Node, scope *symbols.Scope, returns typesystem.Group) (flow, *diagnostics.DiagnosticError) {
	var acc flow
	for _, n := range body {
		_, f, err := c.TypeCheckNode(n, scope, returns, nil, false)
		if err != nil {
			return flow{}, err
		}
		acc = seqCombine(acc, f)
	}
	return acc, nil
}
