package analyzer

import (
	"testing"

	"github.com/corelangs/typecheck/internal/diagnostics"
	"github.com/corelangs/typecheck/internal/fixtures"
	"github.com/corelangs/typecheck/internal/module"
	"github.com/corelangs/typecheck/internal/symbols"
)

// runArchive decodes a txtar fixture, loads every module it contains into a
// fresh symbol table, and runs a full checking pass over it.
func runArchive(t *testing.T, archive string) ([]*diagnostics.DiagnosticError, *Checker) {
	t.Helper()
	mods, err := fixtures.Decode([]byte(archive))
	if err != nil {
		t.Fatalf("decoding fixture: %s", err)
	}

	loader := module.NewLoader()
	for _, mod := range mods {
		loader.Add(mod)
	}

	table := symbols.NewTable()
	for _, mod := range loader.All() {
		table.LoadModule(mod)
	}

	checker := New(table)
	return checker.TypeCheckModules(), checker
}

func requireNoErrors(t *testing.T, errs []*diagnostics.DiagnosticError) {
	t.Helper()
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %d: %v", len(errs), errs)
	}
}

// Scenario 1: polymorphic identity. id's parameter stays unconstrained;
// distinct call sites narrow it to integer and string independently.
func TestPolymorphicIdentity(t *testing.T) {
	archive := `-- main.json --
{"symbols": {
	"id": {
		"kind": "Procedure", "name": "id",
		"parameters": [{"name": "x"}],
		"body": [{"kind": "Return", "value": {"kind": "VariableAccess", "name": "x"}}]
	},
	"callInt": {
		"kind": "Call",
		"callee": {"kind": "ModuleAccess", "path": ["main"], "name": "id"},
		"arguments": [{"kind": "IntegerLiteral", "intValue": 1}]
	},
	"callStr": {
		"kind": "Call",
		"callee": {"kind": "ModuleAccess", "path": ["main"], "name": "id"},
		"arguments": [{"kind": "StringLiteral", "stringValue": "hi"}]
	}
}}
`
	errs, _ := runArchive(t, archive)
	requireNoErrors(t, errs)
}

// Scenario 2: structural record growth. f's parameter carries an open
// object {x: any, ...}; a superset object succeeds, a mismatched one fails.
func TestStructuralRecordGrowthSucceeds(t *testing.T) {
	archive := `-- main.json --
{"symbols": {
	"f": {
		"kind": "Procedure", "name": "f",
		"parameters": [{"name": "p"}],
		"body": [{"kind": "Return", "value": {"kind": "ObjectAccess", "target": {"kind": "VariableAccess", "name": "p"}, "member": "x"}}]
	},
	"call": {
		"kind": "Call",
		"callee": {"kind": "ModuleAccess", "path": ["main"], "name": "f"},
		"arguments": [{"kind": "Object", "fields": {
			"x": {"kind": "IntegerLiteral", "intValue": 1},
			"y": {"kind": "IntegerLiteral", "intValue": 2}
		}}]
	}
}}
`
	errs, _ := runArchive(t, archive)
	requireNoErrors(t, errs)
}

func TestStructuralRecordGrowthFailsWhenFieldMissing(t *testing.T) {
	archive := `-- main.json --
{"symbols": {
	"f": {
		"kind": "Procedure", "name": "f",
		"parameters": [{"name": "p"}],
		"body": [{"kind": "Return", "value": {"kind": "ObjectAccess", "target": {"kind": "VariableAccess", "name": "p"}, "member": "x"}}]
	},
	"call": {
		"kind": "Call",
		"callee": {"kind": "ModuleAccess", "path": ["main"], "name": "f"},
		"arguments": [{"kind": "Object", "fields": {
			"y": {"kind": "IntegerLiteral", "intValue": 2}
		}}]
	}
}}
`
	errs, _ := runArchive(t, archive)
	if len(errs) == 0 {
		t.Fatalf("expected an error when the passed object lacks field x")
	}
	if errs[0].Type != diagnostics.NoPossibleTypes {
		t.Errorf("expected NoPossibleTypes, got %s", errs[0].Type)
	}
}

// Scenario 3: recursive mutual call. a and b's parameter/return Groups all
// unify to integer once both bodies finish checking.
func TestRecursiveMutualCall(t *testing.T) {
	archive := `-- main.json --
{"symbols": {
	"a": {
		"kind": "Procedure", "name": "a",
		"parameters": [{"name": "n"}],
		"body": [
			{"kind": "CaseCondition",
				"value": {"kind": "BinaryOp", "operator": "lessThan", "left": {"kind": "VariableAccess", "name": "n"}, "right": {"kind": "IntegerLiteral", "intValue": 1}},
				"body": [{"kind": "Return", "value": {"kind": "IntegerLiteral", "intValue": 0}}],
				"else": [{"kind": "Return", "value": {
					"kind": "Call",
					"callee": {"kind": "ModuleAccess", "path": ["main"], "name": "b"},
					"arguments": [{"kind": "BinaryOp", "operator": "subtract", "left": {"kind": "VariableAccess", "name": "n"}, "right": {"kind": "IntegerLiteral", "intValue": 1}}]
				}}]
			}
		]
	},
	"b": {
		"kind": "Procedure", "name": "b",
		"parameters": [{"name": "n"}],
		"body": [{"kind": "Return", "value": {
			"kind": "BinaryOp", "operator": "add",
			"left": {"kind": "Call", "callee": {"kind": "ModuleAccess", "path": ["main"], "name": "a"}, "arguments": [{"kind": "VariableAccess", "name": "n"}]},
			"right": {"kind": "IntegerLiteral", "intValue": 1}
		}}]
	}
}}
`
	errs, _ := runArchive(t, archive)
	requireNoErrors(t, errs)
}

// Scenario 6: closure captures. f's Closure carries n as a capture, and
// unifying f against (integer) -> integer narrows n's Group to integer.
func TestClosureCaptures(t *testing.T) {
	archive := `-- main.json --
{"symbols": {
	"makeIt": {
		"kind": "Procedure", "name": "makeIt",
		"parameters": [],
		"body": [
			{"kind": "Variable", "name": "n", "mutable": false, "value": {"kind": "IntegerLiteral", "intValue": 1}},
			{"kind": "Variable", "name": "f", "mutable": false, "value": {
				"kind": "Function",
				"parameters": [{"name": "x"}],
				"body": [{"kind": "Return", "value": {"kind": "BinaryOp", "operator": "add", "left": {"kind": "VariableAccess", "name": "x"}, "right": {"kind": "VariableAccess", "name": "n"}}}]
			}},
			{"kind": "Return", "value": {"kind": "Call", "callee": {"kind": "VariableAccess", "name": "f"}, "arguments": [{"kind": "IntegerLiteral", "intValue": 2}]}}
		]
	}
}}
`
	errs, checker := runArchive(t, archive)
	requireNoErrors(t, errs)

	var found bool
	for _, g := range checker.TypeMap {
		set := checker.Scope.GroupTypes(g)
		if set == nil || set.Closure == nil {
			continue
		}
		if _, ok := set.Closure.Captures["n"]; ok {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected f's ClosureType.Captures to record the captured variable \"n\"")
	}
}

// Scenario: recursive constant. A constant whose own value refers back to
// its own path must fail with RecursiveConstant, not loop forever.
func TestRecursiveConstantFails(t *testing.T) {
	archive := `-- main.json --
{"symbols": {
	"loop": {"kind": "ModuleAccess", "path": ["main"], "name": "loop"}
}}
`
	errs, _ := runArchive(t, archive)
	if len(errs) == 0 {
		t.Fatalf("expected a RecursiveConstant error")
	}
	if errs[0].Type != diagnostics.RecursiveConstant {
		t.Errorf("expected RecursiveConstant, got %s", errs[0].Type)
	}
}

// Invalid argument count on a direct call must be reported, not panic.
func TestInvalidParameterCount(t *testing.T) {
	archive := `-- main.json --
{"symbols": {
	"add2": {
		"kind": "Procedure", "name": "add2",
		"parameters": [{"name": "a"}, {"name": "b"}],
		"body": [{"kind": "Return", "value": {"kind": "BinaryOp", "operator": "add", "left": {"kind": "VariableAccess", "name": "a"}, "right": {"kind": "VariableAccess", "name": "b"}}}]
	},
	"call": {
		"kind": "Call",
		"callee": {"kind": "ModuleAccess", "path": ["main"], "name": "add2"},
		"arguments": [{"kind": "IntegerLiteral", "intValue": 1}]
	}
}}
`
	errs, _ := runArchive(t, archive)
	if len(errs) == 0 {
		t.Fatalf("expected an InvalidParameterCount error")
	}
	if errs[0].Type != diagnostics.InvalidParameterCount {
		t.Errorf("expected InvalidParameterCount, got %s", errs[0].Type)
	}
}

// When every branch of a conditional always-returns, there are vacuously
// zero non-diverging branches to disagree about a name's initialization, so
// the name must still promote to initialized (using its pre-branch Group)
// rather than being stuck uninitialized forever.
func TestUninitializedPromotedWhenEveryBranchDiverges(t *testing.T) {
	archive := `-- main.json --
{"symbols": {
	"f": {
		"kind": "Procedure", "name": "f",
		"parameters": [],
		"body": [
			{"kind": "Variable", "name": "x", "mutable": false},
			{"kind": "CaseCondition",
				"value": {"kind": "BooleanLiteral", "boolValue": true},
				"body": [{"kind": "Return", "value": {"kind": "IntegerLiteral", "intValue": 1}}],
				"else": [{"kind": "Return", "value": {"kind": "IntegerLiteral", "intValue": 2}}]
			},
			{"kind": "Return", "value": {"kind": "VariableAccess", "name": "x"}}
		]
	}
}}
`
	errs, _ := runArchive(t, archive)
	requireNoErrors(t, errs)
}

// Strict mode stops at the first failing symbol instead of accumulating
// every independent symbol's error.
func TestStrictStopsAtFirstError(t *testing.T) {
	archive := `-- main.json --
{"symbols": {
	"aBad": {"kind": "ModuleAccess", "path": ["main"], "name": "aBad"},
	"zBad": {"kind": "ModuleAccess", "path": ["main"], "name": "zBad"}
}}
`
	mods, err := fixtures.Decode([]byte(archive))
	if err != nil {
		t.Fatalf("decoding fixture: %s", err)
	}
	loader := module.NewLoader()
	for _, mod := range mods {
		loader.Add(mod)
	}
	table := symbols.NewTable()
	for _, mod := range loader.All() {
		table.LoadModule(mod)
	}

	checker := New(table)
	checker.Strict = true
	errs := checker.TypeCheckModules()
	if len(errs) != 1 {
		t.Fatalf("expected strict mode to stop after the first error, got %d errors", len(errs))
	}
}
