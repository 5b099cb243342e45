package symbols

import (
	"testing"

	"github.com/corelangs/typecheck/internal/ast"
	"github.com/corelangs/typecheck/internal/token"
	"github.com/corelangs/typecheck/internal/typesystem"
)

func TestLookupFailsUntilFinishChecking(t *testing.T) {
	table := NewTable()
	table.LoadModule(&ast.Module{Path: []string{"main"}, Symbols: map[string]ast.Node{
		"x": &ast.IntegerLiteral{Value: 1},
	}})
	path := NewPath([]string{"main"}, "x")

	if _, ok := table.Lookup(path); ok {
		t.Fatalf("expected Lookup to fail before checking begins")
	}

	node, ok := table.BeginChecking(path)
	if !ok {
		t.Fatalf("expected BeginChecking to find the pending node")
	}
	if _, ok := table.Pending(path); ok {
		t.Errorf("expected the node to be removed from pending once checking begins")
	}
	if !table.IsChecking(path) {
		t.Errorf("expected IsChecking true once BeginChecking has run")
	}

	table.FinishChecking(path, &Symbol{Constant: &Constant{Value: node}})
	if table.IsChecking(path) {
		t.Errorf("expected IsChecking false once FinishChecking has run")
	}
	sym, ok := table.Lookup(path)
	if !ok || sym.Constant == nil {
		t.Fatalf("expected Lookup to find the finished constant")
	}
}

func TestInProgressProcedureOnlyVisibleWhileChecking(t *testing.T) {
	table := NewTable()
	path := Path("main.f")
	proc := &Procedure{ParameterNames: []string{"x"}}

	if _, ok := table.InProgressProcedure(path); ok {
		t.Fatalf("expected no in-progress procedure before publishing")
	}

	table.states[path] = stateChecking
	table.PublishProcedure(path, &Symbol{Procedure: proc})

	got, ok := table.InProgressProcedure(path)
	if !ok || got != proc {
		t.Fatalf("expected to read back the published in-progress procedure")
	}

	table.FinishChecking(path, &Symbol{Procedure: proc})
	if _, ok := table.InProgressProcedure(path); ok {
		t.Errorf("expected InProgressProcedure to stop reporting the symbol once it is done")
	}
}

func TestRecursionCallSiteBookkeeping(t *testing.T) {
	table := NewTable()
	path := Path("main.f")
	proc := &Procedure{ParameterNames: []string{"a", "b"}, ParameterTypes: make([]typesystem.Group, 2)}
	table.PushRecursion(path, proc)

	g1 := typesystem.Group{}
	table.RecordCallSite(path, 0, g1, token.Range{})
	table.RecordCallSite(path, 1, g1, token.Range{})

	entry := table.PopRecursion(path)
	if entry == nil {
		t.Fatalf("expected a recursion entry")
	}
	if len(entry.CallSites) != 2 {
		t.Fatalf("expected 2 parameter slots, got %d", len(entry.CallSites))
	}
	if len(entry.CallSites[0]) != 1 || len(entry.CallSites[1]) != 1 {
		t.Errorf("expected one recorded call-site argument per parameter")
	}
	if table.PopRecursion(path) != nil {
		t.Errorf("expected a second PopRecursion for the same path to find nothing")
	}
}

func TestScopeCloneIsIndependentOfParent(t *testing.T) {
	parent := NewScope(false)
	parent.Initialized["x"] = VariableBinding{Group: typesystem.Group{}}
	parent.Local["x"] = true

	child := parent.Clone()
	child.Initialized["y"] = VariableBinding{Group: typesystem.Group{}}
	child.Local["y"] = true

	if _, ok := parent.Initialized["y"]; ok {
		t.Errorf("expected a clone's new declarations not to leak into the parent")
	}
	if _, ok := child.Initialized["x"]; !ok {
		t.Errorf("expected the clone to start with the parent's existing declarations")
	}
}

func TestCloneNeverAllocatesCaptures(t *testing.T) {
	closureScope := NewScope(true)
	clone := closureScope.Clone()
	if clone.Captures != nil {
		t.Errorf("expected Clone to leave Captures nil; callers must set it explicitly")
	}
}

// A closure body's scope must start with none of the enclosing scope's
// names marked Local, so reading any of them is recognized as a capture,
// while still being able to read their values.
func TestCloneForClosureStartsWithEmptyLocal(t *testing.T) {
	parent := NewScope(false)
	parent.Initialized["n"] = VariableBinding{Group: typesystem.Group{}}
	parent.Local["n"] = true

	child := parent.CloneForClosure()

	if child.Local["n"] {
		t.Errorf("expected a closure's own scope not to inherit the enclosing scope's Local entries")
	}
	if _, ok := child.Initialized["n"]; !ok {
		t.Errorf("expected a closure's own scope to still see the enclosing scope's declarations")
	}
	if child.Captures == nil {
		t.Errorf("expected CloneForClosure to always allocate a fresh Captures map")
	}
}
