package analyzer

import (
	"fmt"

	"github.com/corelangs/typecheck/internal/ast"
	"github.com/corelangs/typecheck/internal/diagnostics"
	"github.com/corelangs/typecheck/internal/symbols"
	"github.com/corelangs/typecheck/internal/token"
	"github.com/corelangs/typecheck/internal/typesystem"
)

// TypeCheckNode is the structural heart of the checker: one recursive
// function handling every untyped node variant. limitedTo is an outside-in
// type expectation (e.g. from an enclosing if's condition slot); when
// present the node's computed Group is unified against it before
// returning. assignment is true exactly when node is being checked as the
// target of an Assignment.
//
// It returns the node's own inferred Group (recorded in c.TypeMap as a
// side effect) and the (sometimes_returns, always_returns) flow pair
// contributed by node and everything nested inside it.
func (c *Checker) TypeCheckNode(node ast.Node, scope *symbols.Scope, returns typesystem.Group, limitedTo *diagnostics.TypeAssertion, assignment bool) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	switch n := node.(type) {

	case *ast.BooleanLiteral:
		g := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimBoolean))
		res, err := c.finishAssertion(node, diagnostics.Literal("boolean", g, n.Range()), limitedTo)
		return res, flow{}, err
	case *ast.IntegerLiteral:
		g := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimInteger))
		res, err := c.finishAssertion(node, diagnostics.Literal("integer", g, n.Range()), limitedTo)
		return res, flow{}, err
	case *ast.FloatLiteral:
		g := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimFloat))
		res, err := c.finishAssertion(node, diagnostics.Literal("float", g, n.Range()), limitedTo)
		return res, flow{}, err
	case *ast.StringLiteral:
		g := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimString))
		res, err := c.finishAssertion(node, diagnostics.Literal("string", g, n.Range()), limitedTo)
		return res, flow{}, err
	case *ast.UnitLiteral:
		g := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimUnit))
		res, err := c.finishAssertion(node, diagnostics.Literal("unit", g, n.Range()), limitedTo)
		return res, flow{}, err

	case *ast.BinaryOp:
		return c.checkBinaryOp(node, n, scope, returns, limitedTo)
	case *ast.Negate:
		opGroup := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimInteger | typesystem.PrimFloat))
		argAssertion := diagnostics.ArithmeticArgument(opGroup, n.Value.Range())
		_, f, err := c.TypeCheckNode(n.Value, scope, returns, &argAssertion, false)
		if err != nil {
			return typesystem.Group{}, flow{}, err
		}
		res, err := c.finishAssertion(node, diagnostics.ArithmeticResult(opGroup, n.Range()), limitedTo)
		return res, f, err
	case *ast.Not:
		boolGroup := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimBoolean))
		argAssertion := diagnostics.LogicalArgument(boolGroup, n.Value.Range())
		_, f, err := c.TypeCheckNode(n.Value, scope, returns, &argAssertion, false)
		if err != nil {
			return typesystem.Group{}, flow{}, err
		}
		res, err := c.finishAssertion(node, diagnostics.LogicalResult(boolGroup, n.Range()), limitedTo)
		return res, f, err

	case *ast.Variable:
		return c.checkVariableDeclaration(node, n, scope, returns, limitedTo)
	case *ast.VariableAccess:
		return c.checkVariableAccess(node, n, scope, limitedTo, assignment)
	case *ast.Assignment:
		return c.checkAssignment(node, n, scope, returns, limitedTo)

	case *ast.Object:
		return c.checkObjectLiteral(node, n, scope, returns, limitedTo)
	case *ast.Array:
		return c.checkArrayLiteral(node, n, scope, returns, limitedTo)
	case *ast.ObjectAccess:
		return c.checkObjectAccess(node, n, scope, returns, limitedTo, assignment)
	case *ast.ArrayAccess:
		return c.checkArrayAccess(node, n, scope, returns, limitedTo, assignment)

	case *ast.Function:
		return c.checkFunction(node, n, scope, limitedTo)
	case *ast.Call:
		return c.checkCall(node, n, scope, returns, limitedTo)
	case *ast.ModuleAccess:
		return c.checkModuleAccess(node, n, limitedTo)

	case *ast.Return:
		assertion := diagnostics.ReturnedValues(returns, n.Value.Range())
		_, f, err := c.TypeCheckNode(n.Value, scope, returns, &assertion, false)
		if err != nil {
			return typesystem.Group{}, flow{}, err
		}
		self := c.Scope.RegisterGroup(nil)
		c.TypeMap[node] = self
		return self, seqCombine(f, flow{Sometimes: true, Always: true}), nil

	case *ast.Variant:
		return c.checkVariant(node, n, scope, returns, limitedTo)

	case *ast.CaseBranches:
		return c.checkCaseBranches(node, n, scope, returns)
	case *ast.CaseCondition:
		return c.checkCaseCondition(node, n, scope, returns)
	case *ast.CaseVariant:
		return c.checkCaseVariant(node, n, scope, returns)

	case *ast.Static:
		fresh := symbols.NewScope(false)
		g, f, err := c.TypeCheckNode(n.Value, fresh, returns, limitedTo, assignment)
		if err != nil {
			return typesystem.Group{}, flow{}, err
		}
		c.TypeMap[node] = g
		return g, f, nil

	case *ast.Target:
		panic("type_check_node: encountered ast.Target; assignment desugaring must replace it before checking")
	case *ast.Procedure:
		panic("type_check_node: encountered a nested ast.Procedure; nested procedures are not representable, use ast.Function")
	case *ast.Module, *ast.Use:
		panic("type_check_node: Module and Use are consumed before type_check_node ever sees them")

	default:
		panic(fmt.Sprintf("type_check_node: unhandled node kind %T", node))
	}
}

// finishAssertion narrows self.Group against limitedTo (when present),
// records the final Group in c.TypeMap under node, and returns it.
func (c *Checker) finishAssertion(node ast.Node, self diagnostics.TypeAssertion, limitedTo *diagnostics.TypeAssertion) (typesystem.Group, *diagnostics.DiagnosticError) {
	result := self.Group
	if limitedTo != nil {
		merged, err := diagnostics.AssertTypes(c.Scope, self, *limitedTo)
		if err != nil {
			return typesystem.Group{}, err
		}
		result = merged
	}
	c.TypeMap[node] = result
	return result, nil
}

func lookupBinding(scope *symbols.Scope, name string) (symbols.VariableBinding, bool) {
	if b, ok := scope.Initialized[name]; ok {
		return b, true
	}
	if b, ok := scope.Uninitialized[name]; ok {
		return b, true
	}
	return symbols.VariableBinding{}, false
}

func (c *Checker) checkBinaryOp(node ast.Node, n *ast.BinaryOp, scope *symbols.Scope, returns typesystem.Group, limitedTo *diagnostics.TypeAssertion) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	switch n.Operator {
	case ast.Add, ast.Subtract, ast.Multiply, ast.Divide, ast.Modulo:
		opGroup := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimInteger | typesystem.PrimFloat))
		return c.checkSharedGroupBinary(node, n, scope, returns, limitedTo, opGroup,
			diagnostics.ArithmeticArgument, diagnostics.ArithmeticResult)

	case ast.LessThan, ast.LessThanEqual, ast.GreaterThan, ast.GreaterThanEqual:
		opGroup := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimInteger | typesystem.PrimFloat))
		leftA := diagnostics.ComparisonArgument(opGroup, n.Left.Range())
		_, fl, err := c.TypeCheckNode(n.Left, scope, returns, &leftA, false)
		if err != nil {
			return typesystem.Group{}, flow{}, err
		}
		rightA := diagnostics.ComparisonArgument(opGroup, n.Right.Range())
		_, fr, err := c.TypeCheckNode(n.Right, scope, returns, &rightA, false)
		if err != nil {
			return typesystem.Group{}, flow{}, err
		}
		boolGroup := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimBoolean))
		res, err := c.finishAssertion(node, diagnostics.ComparisonResult(boolGroup, n.Range()), limitedTo)
		return res, seqCombine(fl, fr), err

	case ast.Equals, ast.NotEquals:
		sharedGroup := c.Scope.RegisterGroup(nil)
		leftA := diagnostics.ComparisonArgument(sharedGroup, n.Left.Range())
		_, fl, err := c.TypeCheckNode(n.Left, scope, returns, &leftA, false)
		if err != nil {
			return typesystem.Group{}, flow{}, err
		}
		rightA := diagnostics.ComparisonArgument(sharedGroup, n.Right.Range())
		_, fr, err := c.TypeCheckNode(n.Right, scope, returns, &rightA, false)
		if err != nil {
			return typesystem.Group{}, flow{}, err
		}
		boolGroup := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimBoolean))
		res, err := c.finishAssertion(node, diagnostics.ComparisonResult(boolGroup, n.Range()), limitedTo)
		return res, seqCombine(fl, fr), err

	case ast.And, ast.Or:
		boolGroup := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimBoolean))
		return c.checkSharedGroupBinary(node, n, scope, returns, limitedTo, boolGroup,
			diagnostics.LogicalArgument, diagnostics.LogicalResult)

	default:
		panic(fmt.Sprintf("type_check_node: unhandled binary operator %v", n.Operator))
	}
}

// checkSharedGroupBinary implements the arithmetic/logical shape where both
// operands and the result narrow the same Group together (an integer
// literal on one side forces the other side and the result to integer).
func (c *Checker) checkSharedGroupBinary(
	node ast.Node, n *ast.BinaryOp, scope *symbols.Scope, returns typesystem.Group, limitedTo *diagnostics.TypeAssertion,
	opGroup typesystem.Group,
	argumentFactory func(typesystem.Group, token.Range) diagnostics.TypeAssertion,
	resultFactory func(typesystem.Group, token.Range) diagnostics.TypeAssertion,
) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	leftA := argumentFactory(opGroup, n.Left.Range())
	_, fl, err := c.TypeCheckNode(n.Left, scope, returns, &leftA, false)
	if err != nil {
		return typesystem.Group{}, flow{}, err
	}
	rightA := argumentFactory(opGroup, n.Right.Range())
	_, fr, err := c.TypeCheckNode(n.Right, scope, returns, &rightA, false)
	if err != nil {
		return typesystem.Group{}, flow{}, err
	}
	res, err := c.finishAssertion(node, resultFactory(opGroup, n.Range()), limitedTo)
	return res, seqCombine(fl, fr), err
}
