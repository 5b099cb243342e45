package diagnostics

import (
	"strings"
	"testing"

	"github.com/corelangs/typecheck/internal/token"
	"github.com/corelangs/typecheck/internal/typesystem"
)

func rng(line int) token.Range {
	pos := token.Position{File: "test.cl", Line: line, Column: 1}
	return token.Range{Start: pos, End: pos}
}

func TestAssertTypesSuccessReturnsNoError(t *testing.T) {
	scope := typesystem.NewScope()
	a := scope.RegisterGroup(typesystem.Primitives(typesystem.PrimInteger | typesystem.PrimFloat))
	b := scope.RegisterGroup(typesystem.Primitives(typesystem.PrimInteger))

	_, err := AssertTypes(scope, Variable("x", a, rng(1)), Condition(b, rng(2)))
	if err != nil {
		t.Fatalf("expected successful unification, got %v", err)
	}
}

func TestAssertTypesFailureReportsBothSides(t *testing.T) {
	scope := typesystem.NewScope()
	a := scope.RegisterGroup(typesystem.Primitives(typesystem.PrimInteger))
	b := scope.RegisterGroup(typesystem.Primitives(typesystem.PrimString))

	_, err := AssertTypes(scope, Variable("x", a, rng(1)), Condition(b, rng(2)))
	if err == nil {
		t.Fatalf("expected unification failure")
	}
	if err.Type != NoPossibleTypes {
		t.Errorf("expected NoPossibleTypes, got %v", err.Type)
	}
	if len(err.Info) != 2 {
		t.Fatalf("expected a two-sided diagnostic, got %d info sections", len(err.Info))
	}
	if !strings.Contains(err.Info[0].Message, "variable \"x\"") {
		t.Errorf("expected first side to cite the variable reason, got %q", err.Info[0].Message)
	}
	if !strings.Contains(err.Info[1].Message, "condition") {
		t.Errorf("expected second side to cite the condition reason, got %q", err.Info[1].Message)
	}
}

func TestErrorStringIncludesRanges(t *testing.T) {
	scope := typesystem.NewScope()
	a := scope.RegisterGroup(typesystem.Primitives(typesystem.PrimInteger))
	b := scope.RegisterGroup(typesystem.Primitives(typesystem.PrimString))

	_, err := AssertTypes(scope, Variable("x", a, rng(1)), Condition(b, rng(2)))
	if err == nil {
		t.Fatalf("expected failure")
	}
	s := err.Error()
	if !strings.Contains(s, "test.cl:1:1") || !strings.Contains(s, "test.cl:2:1") {
		t.Errorf("expected both source ranges in rendered error, got %q", s)
	}
}

func TestNewErrorCarriesID(t *testing.T) {
	e1 := NewError(RecursiveConstant, rng(1), "recursion through a constant")
	e2 := NewError(RecursiveConstant, rng(1), "recursion through a constant")
	if e1.ID == e2.ID {
		t.Errorf("expected distinct diagnostic IDs across separate errors")
	}
}
