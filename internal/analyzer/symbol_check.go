package analyzer

import (
	"github.com/corelangs/typecheck/internal/ast"
	"github.com/corelangs/typecheck/internal/diagnostics"
	"github.com/corelangs/typecheck/internal/symbols"
	"github.com/corelangs/typecheck/internal/typesystem"
)

// TypeCheckSymbol demand-checks the symbol at path, publishing a Procedure
// immediately with Body == nil so mutual recursion can proceed, and
// reporting RecursiveConstant if path is reached again while its Constant
// value is still being evaluated.
func (c *Checker) TypeCheckSymbol(path symbols.Path) *diagnostics.DiagnosticError {
	if _, ok := c.Table.Lookup(path); ok {
		return nil
	}
	if c.Table.IsChecking(path) {
		return diagnostics.NewError(diagnostics.RecursiveConstant, zeroRange(),
			"recursion through a constant: \""+string(path)+"\" is not yet finished evaluating")
	}

	node, ok := c.Table.BeginChecking(path)
	if !ok {
		return diagnostics.NewError(diagnostics.RecursiveConstant, zeroRange(),
			"recursion through a constant: \""+string(path)+"\" is not yet finished evaluating")
	}

	switch n := node.(type) {
	case *ast.Procedure:
		return c.checkProcedure(path, n)
	default:
		return c.checkConstant(path, node)
	}
}

func (c *Checker) checkProcedure(path symbols.Path, n *ast.Procedure) *diagnostics.DiagnosticError {
	paramTypes := make([]typesystem.Group, len(n.Parameters))
	for i := range n.Parameters {
		paramTypes[i] = c.Scope.RegisterGroup(nil)
	}
	returns := c.Scope.RegisterGroup(nil)

	proc := &symbols.Procedure{
		ParameterNames: paramNames(n.Parameters),
		ParameterTypes: paramTypes,
		Returns:        returns,
		Body:           nil,
		Range:          n.Range(),
	}
	c.Table.PublishProcedure(path, &symbols.Symbol{Procedure: proc})
	c.Table.PushRecursion(path, proc)

	scope := symbols.NewScope(false)
	for i, p := range n.Parameters {
		scope.Initialized[p.Name] = symbols.VariableBinding{Group: paramTypes[i], Range: p.Rng, Mutable: false}
		scope.Local[p.Name] = true
	}

	bodyFlow, err := c.checkSequence(n.Body, scope, returns)
	if err != nil {
		return err
	}
	if !bodyFlow.Always {
		unit := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimUnit))
		if _, dErr := diagnostics.AssertTypes(c.Scope,
			diagnostics.ImplicitUnitReturn(returns, n.Range()),
			diagnostics.Unexplained(unit, n.Range())); dErr != nil {
			return dErr
		}
	}

	entry := c.Table.PopRecursion(path)
	for i, sites := range entry.CallSites {
		dups := typesystem.NewTypeGroupDuplications(c.Scope)
		dup := dups.Duplicate(paramTypes[i])
		for _, site := range sites {
			if _, dErr := diagnostics.AssertTypes(c.Scope,
				diagnostics.ProcedureParameter(proc.ParameterNames[i], dup, n.Range()),
				diagnostics.CallParameterValue(i, site.Group, site.Range)); dErr != nil {
				return dErr
			}
		}
	}

	proc.Body = n.Body
	c.Table.FinishChecking(path, &symbols.Symbol{Procedure: proc})
	return nil
}

func (c *Checker) checkConstant(path symbols.Path, node ast.Node) *diagnostics.DiagnosticError {
	group := c.Scope.RegisterGroup(nil)
	scope := symbols.NewScope(false)

	_, _, err := c.TypeCheckNode(node, scope, typesystem.Group{}, &diagnostics.TypeAssertion{
		Group: group, Range: node.Range(), Reason: "constant",
	}, false)
	if err != nil {
		return err
	}

	c.Table.FinishChecking(path, &symbols.Symbol{Constant: &symbols.Constant{
		Value: node, ValueTypes: group, Range: node.Range(),
	}})
	return nil
}

func paramNames(params []ast.Parameter) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name
	}
	return out
}
