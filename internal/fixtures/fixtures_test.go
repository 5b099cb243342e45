package fixtures

import (
	"testing"

	"github.com/corelangs/typecheck/internal/ast"
)

func TestDecodeSingleModuleSingleConstant(t *testing.T) {
	archive := []byte(`-- main.json --
{"symbols": {"answer": {"kind": "IntegerLiteral", "intValue": 42}}}
`)
	mods, err := Decode(archive)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if len(mods) != 1 {
		t.Fatalf("expected 1 module, got %d", len(mods))
	}
	mod := mods[0]
	if got := mod.Path; len(got) != 1 || got[0] != "main" {
		t.Errorf("expected module path [main], got %v", got)
	}
	lit, ok := mod.Symbols["answer"].(*ast.IntegerLiteral)
	if !ok {
		t.Fatalf("expected *ast.IntegerLiteral, got %T", mod.Symbols["answer"])
	}
	if lit.Value != 42 {
		t.Errorf("expected 42, got %d", lit.Value)
	}
}

func TestDecodeNestedModulePath(t *testing.T) {
	archive := []byte(`-- pkg/math.json --
{"symbols": {"zero": {"kind": "IntegerLiteral", "intValue": 0}}}
`)
	mods, err := Decode(archive)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	want := []string{"pkg", "math"}
	got := mods[0].Path
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected path %v, got %v", want, got)
	}
}

func TestDecodeProcedureWithRecursiveCall(t *testing.T) {
	archive := []byte(`-- main.json --
{"symbols": {"countdown": {
	"kind": "Procedure",
	"name": "countdown",
	"parameters": [{"name": "n"}],
	"body": [
		{"kind": "Return", "value": {
			"kind": "Call",
			"callee": {"kind": "ModuleAccess", "path": [], "name": "countdown"},
			"arguments": [{"kind": "VariableAccess", "name": "n"}]
		}}
	]
}}}
`)
	mods, err := Decode(archive)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	proc, ok := mods[0].Symbols["countdown"].(*ast.Procedure)
	if !ok {
		t.Fatalf("expected *ast.Procedure, got %T", mods[0].Symbols["countdown"])
	}
	if len(proc.Parameters) != 1 || proc.Parameters[0].Name != "n" {
		t.Errorf("expected one parameter named n, got %+v", proc.Parameters)
	}
	if len(proc.Body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(proc.Body))
	}
	ret, ok := proc.Body[0].(*ast.Return)
	if !ok {
		t.Fatalf("expected *ast.Return, got %T", proc.Body[0])
	}
	call, ok := ret.Value.(*ast.Call)
	if !ok {
		t.Fatalf("expected *ast.Call, got %T", ret.Value)
	}
	if len(call.Arguments) != 1 {
		t.Errorf("expected 1 argument, got %d", len(call.Arguments))
	}
}

func TestDecodeUnknownKindFails(t *testing.T) {
	archive := []byte(`-- main.json --
{"symbols": {"bad": {"kind": "NotARealKind"}}}
`)
	if _, err := Decode(archive); err == nil {
		t.Fatalf("expected an error for an unknown node kind")
	}
}

func TestDecodeCaseVariantHasElseFlag(t *testing.T) {
	archive := []byte(`-- main.json --
{"symbols": {"describe": {
	"kind": "CaseVariant",
	"value": {"kind": "Variant", "tag": "Some", "payload": {"kind": "IntegerLiteral", "intValue": 1}},
	"variantBranches": [
		{"tag": "Some", "binding": "x", "body": [{"kind": "VariableAccess", "name": "x"}]}
	],
	"hasElse": true,
	"else": [{"kind": "IntegerLiteral", "intValue": 0}]
}}}
`)
	mods, err := Decode(archive)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	cv, ok := mods[0].Symbols["describe"].(*ast.CaseVariant)
	if !ok {
		t.Fatalf("expected *ast.CaseVariant, got %T", mods[0].Symbols["describe"])
	}
	if !cv.HasElse {
		t.Errorf("expected HasElse true")
	}
	if len(cv.Else) != 1 {
		t.Errorf("expected 1 else statement, got %d", len(cv.Else))
	}
	if len(cv.Branches) != 1 || cv.Branches[0].Binding != "x" {
		t.Errorf("expected one branch bound to x, got %+v", cv.Branches)
	}
}
