package analyzer

import (
	"fmt"

	"github.com/corelangs/typecheck/internal/ast"
	"github.com/corelangs/typecheck/internal/diagnostics"
	"github.com/corelangs/typecheck/internal/symbols"
	"github.com/corelangs/typecheck/internal/typesystem"
)

func (c *Checker) checkVariableDeclaration(node ast.Node, n *ast.Variable, scope *symbols.Scope, returns typesystem.Group, limitedTo *diagnostics.TypeAssertion) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	group := c.Scope.RegisterGroup(nil)
	var f flow

	if n.Value != nil {
		assertion := diagnostics.AssignedValue(group, n.Value.Range())
		_, vf, err := c.TypeCheckNode(n.Value, scope, returns, &assertion, false)
		if err != nil {
			return typesystem.Group{}, flow{}, err
		}
		f = vf
		scope.Initialized[n.Name] = symbols.VariableBinding{Group: group, Range: n.Range(), Mutable: n.Mutable}
	} else {
		scope.Uninitialized[n.Name] = symbols.VariableBinding{Group: group, Range: n.Range(), Mutable: n.Mutable}
	}
	scope.Local[n.Name] = true

	unit := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimUnit))
	res, err := c.finishAssertion(node, diagnostics.Unexplained(unit, n.Range()), limitedTo)
	return res, f, err
}

func (c *Checker) checkVariableAccess(node ast.Node, n *ast.VariableAccess, scope *symbols.Scope, limitedTo *diagnostics.TypeAssertion, assignment bool) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	if !scope.Local[n.Name] && scope.Captures != nil {
		if binding, ok := lookupBinding(scope, n.Name); ok {
			scope.Captures[n.Name] = binding.Group
		}
	}

	if binding, ok := scope.Initialized[n.Name]; ok {
		if assignment && !binding.Mutable {
			return typesystem.Group{}, flow{}, diagnostics.NewError(diagnostics.ImmutableAssignment, n.Range(),
				fmt.Sprintf("cannot assign to immutable variable %q", n.Name))
		}
		res, err := c.finishAssertion(node, diagnostics.Variable(n.Name, binding.Group, n.Range()), limitedTo)
		return res, flow{}, err
	}

	if binding, ok := scope.Uninitialized[n.Name]; ok {
		if !assignment {
			return typesystem.Group{}, flow{}, diagnostics.NewError(diagnostics.VariableWithoutValue, n.Range(),
				fmt.Sprintf("variable %q has no value yet", n.Name))
		}
		delete(scope.Uninitialized, n.Name)
		scope.Initialized[n.Name] = binding
		res, err := c.finishAssertion(node, diagnostics.Variable(n.Name, binding.Group, n.Range()), limitedTo)
		return res, flow{}, err
	}

	return typesystem.Group{}, flow{}, diagnostics.NewError(diagnostics.VariableDoesNotExist, n.Range(),
		fmt.Sprintf("variable %q does not exist", n.Name))
}

func (c *Checker) checkAssignment(node ast.Node, n *ast.Assignment, scope *symbols.Scope, returns typesystem.Group, limitedTo *diagnostics.TypeAssertion) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	rhsGroup, fv, err := c.TypeCheckNode(n.Value, scope, returns, nil, false)
	if err != nil {
		return typesystem.Group{}, flow{}, err
	}
	rhsAssertion := diagnostics.AssignedValue(rhsGroup, n.Value.Range())
	_, ft, err := c.TypeCheckNode(n.Target, scope, returns, &rhsAssertion, true)
	if err != nil {
		return typesystem.Group{}, flow{}, err
	}

	unit := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimUnit))
	res, err := c.finishAssertion(node, diagnostics.Unexplained(unit, n.Range()), limitedTo)
	return res, seqCombine(fv, ft), err
}

func (c *Checker) checkObjectLiteral(node ast.Node, n *ast.Object, scope *symbols.Scope, returns typesystem.Group, limitedTo *diagnostics.TypeAssertion) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	members := make(map[string]typesystem.Group, len(n.Fields))
	var acc flow
	for name, value := range n.Fields {
		g, f, err := c.TypeCheckNode(value, scope, returns, nil, false)
		if err != nil {
			return typesystem.Group{}, flow{}, err
		}
		members[name] = g
		acc = seqCombine(acc, f)
	}
	group := c.Scope.RegisterGroup(&typesystem.PossibilitySet{Object: &typesystem.ObjectType{Members: members, Fixed: true}})
	res, err := c.finishAssertion(node, diagnostics.Unexplained(group, n.Range()), limitedTo)
	return res, acc, err
}

func (c *Checker) checkArrayLiteral(node ast.Node, n *ast.Array, scope *symbols.Scope, returns typesystem.Group, limitedTo *diagnostics.TypeAssertion) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	elemGroup := c.Scope.RegisterGroup(nil)
	var acc flow
	for _, elem := range n.Elements {
		assertion := diagnostics.ArrayValues(elemGroup, elem.Range())
		_, f, err := c.TypeCheckNode(elem, scope, returns, &assertion, false)
		if err != nil {
			return typesystem.Group{}, flow{}, err
		}
		acc = seqCombine(acc, f)
	}
	group := c.Scope.RegisterGroup(&typesystem.PossibilitySet{Array: &typesystem.ArrayType{Element: elemGroup}})
	res, err := c.finishAssertion(node, diagnostics.Unexplained(group, n.Range()), limitedTo)
	return res, acc, err
}

func (c *Checker) checkObjectAccess(node ast.Node, n *ast.ObjectAccess, scope *symbols.Scope, returns typesystem.Group, limitedTo *diagnostics.TypeAssertion, assignment bool) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	result := c.Scope.RegisterGroup(nil)
	openObject := c.Scope.RegisterGroup(&typesystem.PossibilitySet{Object: &typesystem.ObjectType{
		Members: map[string]typesystem.Group{n.Member: result},
		Fixed:   false,
	}})
	targetAssertion := diagnostics.AccessedObject(openObject, n.Target.Range())
	_, f, err := c.TypeCheckNode(n.Target, scope, returns, &targetAssertion, false)
	if err != nil {
		return typesystem.Group{}, flow{}, err
	}
	res, err := c.finishAssertion(node, diagnostics.AccessResult(result, n.Range()), limitedTo)
	return res, f, err
}

func (c *Checker) checkArrayAccess(node ast.Node, n *ast.ArrayAccess, scope *symbols.Scope, returns typesystem.Group, limitedTo *diagnostics.TypeAssertion, assignment bool) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	result := c.Scope.RegisterGroup(nil)
	openArray := c.Scope.RegisterGroup(&typesystem.PossibilitySet{Array: &typesystem.ArrayType{Element: result}})
	targetAssertion := diagnostics.AccessedArray(openArray, n.Target.Range())
	_, ft, err := c.TypeCheckNode(n.Target, scope, returns, &targetAssertion, false)
	if err != nil {
		return typesystem.Group{}, flow{}, err
	}

	intGroup := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimInteger))
	indexAssertion := diagnostics.ArrayIndex(intGroup, n.Index.Range())
	_, fi, err := c.TypeCheckNode(n.Index, scope, returns, &indexAssertion, false)
	if err != nil {
		return typesystem.Group{}, flow{}, err
	}

	res, err := c.finishAssertion(node, diagnostics.AccessResult(result, n.Range()), limitedTo)
	return res, seqCombine(ft, fi), err
}

func (c *Checker) checkVariant(node ast.Node, n *ast.Variant, scope *symbols.Scope, returns typesystem.Group, limitedTo *diagnostics.TypeAssertion) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	var payload typesystem.Group
	var f flow
	if n.Payload != nil {
		g, pf, err := c.TypeCheckNode(n.Payload, scope, returns, nil, false)
		if err != nil {
			return typesystem.Group{}, flow{}, err
		}
		payload = g
		f = pf
	} else {
		payload = c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimUnit))
	}

	group := c.Scope.RegisterGroup(&typesystem.PossibilitySet{Variants: &typesystem.VariantsType{
		Cases: map[string]typesystem.Group{n.Tag: payload},
		Fixed: false,
	}})
	res, err := c.finishAssertion(node, diagnostics.Unexplained(group, n.Range()), limitedTo)
	return res, f, err
}
