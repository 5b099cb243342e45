// Package fixtures decodes txtar archives into the untyped ast.Module
// values the checker consumes, giving package tests (and cmd/typecheck,
// whose inputs are txtar fixtures) a way to bundle a multi-module compilation unit as one text blob
// without a real lexer/parser in the loop — module loading and parsing are
// external collaborators the spec deliberately leaves out (see spec.md §1
// Non-goals), but *some* concrete way to hand the checker a tree is needed
// to drive it at all. Each txtar file is one module, JSON-encoded in the
// shape nodeDTO below; golang.org/x/tools/txtar is the donor's own
// already-required dependency for bundling multi-file fixtures.
package fixtures

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/tools/txtar"

	"github.com/corelangs/typecheck/internal/ast"
)

// Decode parses a txtar archive into one ast.Module per file, deriving each
// module's dotted path from its file name (slashes become path segments,
// any extension is stripped).
func Decode(data []byte) ([]*ast.Module, error) {
	arc := txtar.Parse(data)
	mods := make([]*ast.Module, 0, len(arc.Files))
	for _, f := range arc.Files {
		mod, err := decodeModule(f.Name, f.Data)
		if err != nil {
			return nil, fmt.Errorf("fixtures: decoding %q: %w", f.Name, err)
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

func decodeModule(name string, data []byte) (*ast.Module, error) {
	var dto moduleDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}

	symbols := make(map[string]ast.Node, len(dto.Symbols))
	for symName, raw := range dto.Symbols {
		node, err := decodeNode(raw)
		if err != nil {
			return nil, fmt.Errorf("symbol %q: %w", symName, err)
		}
		symbols[symName] = node
	}

	return &ast.Module{Path: modulePath(name), Symbols: symbols}, nil
}

func modulePath(fileName string) []string {
	trimmed := strings.TrimSuffix(fileName, filepathExt(fileName))
	return strings.Split(trimmed, "/")
}

func filepathExt(name string) string {
	for i := len(name) - 1; i >= 0 && name[i] != '/'; i-- {
		if name[i] == '.' {
			return name[i:]
		}
	}
	return ""
}

// moduleDTO is the on-disk shape of one txtar file: the module's local
// symbol table, keyed by name, each value a raw nodeDTO.
type moduleDTO struct {
	Symbols map[string]json.RawMessage `json:"symbols"`
}

// nodeDTO is the tagged-union wire shape for every ast.Node variant this
// decoder supports. Only the fields relevant to Kind are populated. It
// carries no source range, so every decoded node has the zero token.Range
// (fixtures rarely need real source positions, just structurally valid
// trees).
type nodeDTO struct {
	Kind string `json:"kind"`

	Name       string            `json:"name,omitempty"`
	Mutable    bool              `json:"mutable,omitempty"`
	Value      json.RawMessage   `json:"value,omitempty"`
	Target     json.RawMessage   `json:"target,omitempty"`
	Callee     json.RawMessage   `json:"callee,omitempty"`
	Arguments  []json.RawMessage `json:"arguments,omitempty"`
	Parameters []paramDTO        `json:"parameters,omitempty"`
	Body       []json.RawMessage `json:"body,omitempty"`
	Fields     map[string]json.RawMessage `json:"fields,omitempty"`
	Elements   []json.RawMessage `json:"elements,omitempty"`
	Member     string            `json:"member,omitempty"`
	Index      json.RawMessage   `json:"index,omitempty"`
	Operator   string            `json:"operator,omitempty"`
	Left       json.RawMessage   `json:"left,omitempty"`
	Right      json.RawMessage   `json:"right,omitempty"`
	Tag        string            `json:"tag,omitempty"`
	Payload    json.RawMessage   `json:"payload,omitempty"`
	Branches   []branchDTO       `json:"branches,omitempty"`
	VBranches  []variantBranchDTO `json:"variantBranches,omitempty"`
	Else       []json.RawMessage `json:"else,omitempty"`
	HasElse    bool              `json:"hasElse,omitempty"`
	Path       []string          `json:"path,omitempty"`

	BoolValue   bool    `json:"boolValue,omitempty"`
	IntValue    int64   `json:"intValue,omitempty"`
	FloatValue  float64 `json:"floatValue,omitempty"`
	StringValue string  `json:"stringValue,omitempty"`
}

type paramDTO struct {
	Name string `json:"name"`
}

type branchDTO struct {
	Pattern json.RawMessage   `json:"pattern"`
	Body    []json.RawMessage `json:"body"`
}

type variantBranchDTO struct {
	Tag     string            `json:"tag"`
	Binding string            `json:"binding,omitempty"`
	Body    []json.RawMessage `json:"body"`
}

var binaryOperators = map[string]ast.BinaryOperator{
	"add": ast.Add, "subtract": ast.Subtract, "multiply": ast.Multiply,
	"divide": ast.Divide, "modulo": ast.Modulo,
	"lessThan": ast.LessThan, "lessThanEqual": ast.LessThanEqual,
	"greaterThan": ast.GreaterThan, "greaterThanEqual": ast.GreaterThanEqual,
	"equals": ast.Equals, "notEquals": ast.NotEquals,
	"and": ast.And, "or": ast.Or,
}

func decodeNode(raw json.RawMessage) (ast.Node, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var dto nodeDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, err
	}
	return buildNode(dto)
}

func decodeNodeSlice(raws []json.RawMessage) ([]ast.Node, error) {
	out := make([]ast.Node, len(raws))
	for i, raw := range raws {
		n, err := decodeNode(raw)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func params(dtos []paramDTO) []ast.Parameter {
	out := make([]ast.Parameter, len(dtos))
	for i, p := range dtos {
		out[i] = ast.Parameter{Name: p.Name}
	}
	return out
}

func buildNode(dto nodeDTO) (ast.Node, error) {
	switch dto.Kind {
	case "Procedure":
		body, err := decodeNodeSlice(dto.Body)
		if err != nil {
			return nil, err
		}
		return &ast.Procedure{Name: dto.Name, Parameters: params(dto.Parameters), Body: body}, nil

	case "Function":
		body, err := decodeNodeSlice(dto.Body)
		if err != nil {
			return nil, err
		}
		return &ast.Function{Parameters: params(dto.Parameters), Body: body}, nil

	case "Variable":
		var value ast.Node
		if len(dto.Value) > 0 {
			v, err := decodeNode(dto.Value)
			if err != nil {
				return nil, err
			}
			value = v
		}
		return &ast.Variable{Name: dto.Name, Mutable: dto.Mutable, Value: value}, nil

	case "Assignment":
		target, err := decodeNode(dto.Target)
		if err != nil {
			return nil, err
		}
		value, err := decodeNode(dto.Value)
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{Target: target, Value: value}, nil

	case "Return":
		value, err := decodeNode(dto.Value)
		if err != nil {
			return nil, err
		}
		return &ast.Return{Value: value}, nil

	case "Call":
		callee, err := decodeNode(dto.Callee)
		if err != nil {
			return nil, err
		}
		args, err := decodeNodeSlice(dto.Arguments)
		if err != nil {
			return nil, err
		}
		return &ast.Call{Callee: callee, Arguments: args}, nil

	case "Object":
		fields := make(map[string]ast.Node, len(dto.Fields))
		for name, raw := range dto.Fields {
			n, err := decodeNode(raw)
			if err != nil {
				return nil, err
			}
			fields[name] = n
		}
		return &ast.Object{Fields: fields}, nil

	case "Array":
		elems, err := decodeNodeSlice(dto.Elements)
		if err != nil {
			return nil, err
		}
		return &ast.Array{Elements: elems}, nil

	case "ObjectAccess":
		target, err := decodeNode(dto.Target)
		if err != nil {
			return nil, err
		}
		return &ast.ObjectAccess{Target: target, Member: dto.Member}, nil

	case "ArrayAccess":
		target, err := decodeNode(dto.Target)
		if err != nil {
			return nil, err
		}
		index, err := decodeNode(dto.Index)
		if err != nil {
			return nil, err
		}
		return &ast.ArrayAccess{Target: target, Index: index}, nil

	case "VariableAccess":
		return &ast.VariableAccess{Name: dto.Name}, nil

	case "BooleanLiteral":
		return &ast.BooleanLiteral{Value: dto.BoolValue}, nil
	case "IntegerLiteral":
		return &ast.IntegerLiteral{Value: dto.IntValue}, nil
	case "FloatLiteral":
		return &ast.FloatLiteral{Value: dto.FloatValue}, nil
	case "StringLiteral":
		return &ast.StringLiteral{Value: dto.StringValue}, nil
	case "UnitLiteral":
		return &ast.UnitLiteral{}, nil

	case "BinaryOp":
		op, ok := binaryOperators[dto.Operator]
		if !ok {
			return nil, fmt.Errorf("unknown binary operator %q", dto.Operator)
		}
		left, err := decodeNode(dto.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeNode(dto.Right)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{Operator: op, Left: left, Right: right}, nil

	case "Negate":
		value, err := decodeNode(dto.Value)
		if err != nil {
			return nil, err
		}
		return &ast.Negate{Value: value}, nil

	case "Not":
		value, err := decodeNode(dto.Value)
		if err != nil {
			return nil, err
		}
		return &ast.Not{Value: value}, nil

	case "Variant":
		var payload ast.Node
		if len(dto.Payload) > 0 {
			p, err := decodeNode(dto.Payload)
			if err != nil {
				return nil, err
			}
			payload = p
		}
		return &ast.Variant{Tag: dto.Tag, Payload: payload}, nil

	case "CaseBranches":
		value, err := decodeNode(dto.Value)
		if err != nil {
			return nil, err
		}
		branches := make([]ast.ValueBranch, len(dto.Branches))
		for i, b := range dto.Branches {
			pattern, err := decodeNode(b.Pattern)
			if err != nil {
				return nil, err
			}
			body, err := decodeNodeSlice(b.Body)
			if err != nil {
				return nil, err
			}
			branches[i] = ast.ValueBranch{Pattern: pattern, Body: body}
		}
		elseBody, err := decodeNodeSlice(dto.Else)
		if err != nil {
			return nil, err
		}
		return &ast.CaseBranches{Value: value, Branches: branches, Else: elseBody}, nil

	case "CaseCondition":
		cond, err := decodeNode(dto.Value)
		if err != nil {
			return nil, err
		}
		then, err := decodeNodeSlice(dto.Body)
		if err != nil {
			return nil, err
		}
		elseBody, err := decodeNodeSlice(dto.Else)
		if err != nil {
			return nil, err
		}
		return &ast.CaseCondition{Condition: cond, Then: then, Else: elseBody}, nil

	case "CaseVariant":
		value, err := decodeNode(dto.Value)
		if err != nil {
			return nil, err
		}
		branches := make([]ast.VariantBranch, len(dto.VBranches))
		for i, b := range dto.VBranches {
			body, err := decodeNodeSlice(b.Body)
			if err != nil {
				return nil, err
			}
			branches[i] = ast.VariantBranch{Tag: b.Tag, Binding: b.Binding, Body: body}
		}
		var elseBody []ast.Node
		if dto.HasElse {
			eb, err := decodeNodeSlice(dto.Else)
			if err != nil {
				return nil, err
			}
			elseBody = eb
		}
		return &ast.CaseVariant{Value: value, Branches: branches, HasElse: dto.HasElse, Else: elseBody}, nil

	case "Static":
		value, err := decodeNode(dto.Value)
		if err != nil {
			return nil, err
		}
		return &ast.Static{Value: value}, nil

	case "ModuleAccess":
		return &ast.ModuleAccess{Path: dto.Path, Name: dto.Name}, nil

	case "Use":
		return &ast.Use{Path: dto.Path}, nil

	default:
		return nil, fmt.Errorf("unknown node kind %q", dto.Kind)
	}
}
