package analyzer

import (
	"github.com/corelangs/typecheck/internal/ast"
	"github.com/corelangs/typecheck/internal/diagnostics"
	"github.com/corelangs/typecheck/internal/symbols"
	"github.com/corelangs/typecheck/internal/typesystem"
)

// branchResult pairs a cloned branch scope with the flow it contributed,
// so initializeVariables can read back which names each arm initialized
// without re-walking the branch bodies.
type branchResult struct {
	Scope *symbols.Scope
	Flow  flow
}

// initializeVariables implements the spec's definite-initialization merge:
// a name still uninitialized in parent before the branches ran is promoted
// to initialized there if every non-diverging branch initialized it (those
// branches' Groups for the name are unified together); a name left
// uninitialized by any non-diverging branch stays uninitialized in parent.
// Branches that always-return contribute no constraint, since control never
// falls through them into code after the case construct — if every branch
// diverges there are vacuously zero non-diverging branches to disagree, so
// the name promotes using its pre-branch Group unchanged.
func (c *Checker) initializeVariables(parent *symbols.Scope, branches []branchResult) *diagnostics.DiagnosticError {
	for name, parentBinding := range parent.Uninitialized {
		allInitialized := true
		unified := parentBinding.Group
		haveUnified := false

		for _, b := range branches {
			if b.Flow.Always {
				continue
			}
			binding, ok := b.Scope.Initialized[name]
			if !ok {
				allInitialized = false
				continue
			}
			if !haveUnified {
				unified = binding.Group
				haveUnified = true
				continue
			}
			merged, err := diagnostics.AssertTypes(c.Scope,
				diagnostics.Variable(name, unified, parentBinding.Range),
				diagnostics.Variable(name, binding.Group, binding.Range))
			if err != nil {
				return err
			}
			unified = merged
		}

		if allInitialized {
			delete(parent.Uninitialized, name)
			parent.Initialized[name] = symbols.VariableBinding{Group: unified, Range: parentBinding.Range, Mutable: parentBinding.Mutable}
		}
	}
	return nil
}

func (c *Checker) checkFunction(node ast.Node, n *ast.Function, scope *symbols.Scope, limitedTo *diagnostics.TypeAssertion) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	paramTypes := make([]typesystem.Group, len(n.Parameters))
	for i := range n.Parameters {
		paramTypes[i] = c.Scope.RegisterGroup(nil)
	}
	returns := c.Scope.RegisterGroup(nil)

	child := scope.CloneForClosure()
	for i, p := range n.Parameters {
		child.Initialized[p.Name] = symbols.VariableBinding{Group: paramTypes[i], Range: p.Rng, Mutable: false}
		child.Local[p.Name] = true
	}

	bodyFlow, err := c.checkSequence(n.Body, child, returns)
	if err != nil {
		return typesystem.Group{}, flow{}, err
	}
	if !bodyFlow.Always {
		unit := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimUnit))
		if _, dErr := diagnostics.AssertTypes(c.Scope,
			diagnostics.ImplicitUnitReturn(returns, n.Range()),
			diagnostics.Unexplained(unit, n.Range())); dErr != nil {
			return typesystem.Group{}, flow{}, dErr
		}
	}

	// Captures bubble upward: any name this closure captured that is not
	// local to the enclosing scope must itself be captured by the
	// enclosing closure, if it is one.
	if scope.Captures != nil {
		for name, g := range child.Captures {
			if !scope.Local[name] {
				scope.Captures[name] = g
			}
		}
	}

	closure := c.Scope.RegisterGroup(&typesystem.PossibilitySet{Closure: &typesystem.ClosureType{
		Params: paramTypes, Return: returns, Captures: child.Captures, HasCaptures: true,
	}})
	res, fErr := c.finishAssertion(node, diagnostics.Unexplained(closure, n.Range()), limitedTo)
	return res, flow{}, fErr
}

func (c *Checker) checkModuleAccess(node ast.Node, n *ast.ModuleAccess, limitedTo *diagnostics.TypeAssertion) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	path := symbols.NewPath(n.Path, n.Name)
	var sym *symbols.Symbol
	if proc, inProgress := c.Table.InProgressProcedure(path); inProgress {
		// A procedure still being checked is referenced through the
		// parameter and return Groups it published before its body.
		sym = &symbols.Symbol{Procedure: proc}
	} else {
		if dErr := c.TypeCheckSymbol(path); dErr != nil {
			return typesystem.Group{}, flow{}, dErr
		}
		found, ok := c.Table.Lookup(path)
		if !ok {
			return typesystem.Group{}, flow{}, diagnostics.NewError(diagnostics.VariableDoesNotExist, n.Range(),
				"symbol \""+string(path)+"\" does not exist")
		}
		sym = found
	}

	var group typesystem.Group
	if sym.Procedure != nil {
		dups := typesystem.NewTypeGroupDuplications(c.Scope)
		params := make([]typesystem.Group, len(sym.Procedure.ParameterTypes))
		for i, p := range sym.Procedure.ParameterTypes {
			params[i] = dups.Duplicate(p)
		}
		ret := dups.Duplicate(sym.Procedure.Returns)
		group = c.Scope.RegisterGroup(&typesystem.PossibilitySet{Closure: &typesystem.ClosureType{
			Params: params, Return: ret, HasCaptures: false,
		}})
	} else {
		dups := typesystem.NewTypeGroupDuplications(c.Scope)
		group = dups.Duplicate(sym.Constant.ValueTypes)
	}

	res, err := c.finishAssertion(node, diagnostics.Unexplained(group, n.Range()), limitedTo)
	return res, flow{}, err
}

func (c *Checker) checkCall(node ast.Node, n *ast.Call, scope *symbols.Scope, returns typesystem.Group, limitedTo *diagnostics.TypeAssertion) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	if ma, ok := n.Callee.(*ast.ModuleAccess); ok {
		return c.checkDirectCall(node, n, ma, scope, returns, limitedTo)
	}
	return c.checkIndirectCall(node, n, scope, returns, limitedTo)
}

// checkDirectCall handles a call whose callee is a ModuleAccess naming a
// procedure directly. If that procedure is still on the recursion stack
// (a mutually recursive call observed mid-body), arguments are recorded for
// post-hoc unification instead of checked against the procedure's Groups
// right away, since the parameter Groups may still narrow further before
// the body finishes.
func (c *Checker) checkDirectCall(node ast.Node, n *ast.Call, ma *ast.ModuleAccess, scope *symbols.Scope, returns typesystem.Group, limitedTo *diagnostics.TypeAssertion) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	path := symbols.NewPath(ma.Path, ma.Name)

	if c.Table.IsChecking(path) {
		// Still on the recursion stack: read its in-progress parameter and
		// return Groups (installed by PublishProcedure before its body
		// started) and record this call's arguments for post-hoc
		// unification once the body finishes — see symbols.RecursionEntry.
		proc, recOk := c.Table.InProgressProcedure(path)
		if !recOk {
			return typesystem.Group{}, flow{}, diagnostics.NewError(diagnostics.VariableDoesNotExist, n.Range(),
				"symbol \""+string(path)+"\" does not exist")
		}
		if len(n.Arguments) != len(proc.ParameterTypes) {
			return typesystem.Group{}, flow{}, diagnostics.NewError(diagnostics.InvalidParameterCount, n.Range(),
				"wrong number of arguments in recursive call")
		}
		var acc flow
		for i, arg := range n.Arguments {
			g, f, err := c.TypeCheckNode(arg, scope, returns, nil, false)
			if err != nil {
				return typesystem.Group{}, flow{}, err
			}
			c.Table.RecordCallSite(path, i, g, arg.Range())
			acc = seqCombine(acc, f)
		}
		dups := typesystem.NewTypeGroupDuplications(c.Scope)
		ret := dups.Duplicate(proc.Returns)
		res, err := c.finishAssertion(node, diagnostics.CallReturnValue(ret, n.Range()), limitedTo)
		return res, acc, err
	}

	if dErr := c.TypeCheckSymbol(path); dErr != nil {
		return typesystem.Group{}, flow{}, dErr
	}
	sym, ok := c.Table.Lookup(path)
	if !ok || sym.Procedure == nil {
		return typesystem.Group{}, flow{}, diagnostics.NewError(diagnostics.VariableDoesNotExist, n.Range(),
			"symbol \""+string(path)+"\" is not a procedure")
	}
	if len(n.Arguments) != len(sym.Procedure.ParameterTypes) {
		return typesystem.Group{}, flow{}, diagnostics.NewError(diagnostics.InvalidParameterCount, n.Range(),
			"wrong number of arguments")
	}

	dups := typesystem.NewTypeGroupDuplications(c.Scope)
	var acc flow
	for i, arg := range n.Arguments {
		paramGroup := dups.Duplicate(sym.Procedure.ParameterTypes[i])
		assertion := diagnostics.CallParameter(i, paramGroup, arg.Range())
		_, f, err := c.TypeCheckNode(arg, scope, returns, &assertion, false)
		if err != nil {
			return typesystem.Group{}, flow{}, err
		}
		acc = seqCombine(acc, f)
	}
	ret := dups.Duplicate(sym.Procedure.Returns)
	res, err := c.finishAssertion(node, diagnostics.CallReturnValue(ret, n.Range()), limitedTo)
	return res, acc, err
}

// checkIndirectCall handles every other callee shape: a closure-valued
// expression applied to arguments. A synthetic open Closure constructor is
// asserted against the callee's type; the shared unify algorithm's
// intersectClosures step does the parameter/return propagation for free.
func (c *Checker) checkIndirectCall(node ast.Node, n *ast.Call, scope *symbols.Scope, returns typesystem.Group, limitedTo *diagnostics.TypeAssertion) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	argGroups := make([]typesystem.Group, len(n.Arguments))
	var acc flow
	for i, arg := range n.Arguments {
		g, f, err := c.TypeCheckNode(arg, scope, returns, nil, false)
		if err != nil {
			return typesystem.Group{}, flow{}, err
		}
		argGroups[i] = g
		acc = seqCombine(acc, f)
	}

	result := c.Scope.RegisterGroup(nil)
	openClosure := c.Scope.RegisterGroup(&typesystem.PossibilitySet{Closure: &typesystem.ClosureType{
		Params: argGroups, Return: result, HasCaptures: false,
	}})
	calleeAssertion := diagnostics.CalledClosure(openClosure, n.Callee.Range())
	_, cf, err := c.TypeCheckNode(n.Callee, scope, returns, &calleeAssertion, false)
	if err != nil {
		return typesystem.Group{}, flow{}, err
	}

	res, fErr := c.finishAssertion(node, diagnostics.CallReturnValue(result, n.Range()), limitedTo)
	return res, seqCombine(acc, cf), fErr
}

func (c *Checker) checkCaseBranches(node ast.Node, n *ast.CaseBranches, scope *symbols.Scope, returns typesystem.Group) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	valueGroup := c.Scope.RegisterGroup(nil)
	valueAssertion := diagnostics.MatchedValue(valueGroup, n.Value.Range())
	_, vf, err := c.TypeCheckNode(n.Value, scope, returns, &valueAssertion, false)
	if err != nil {
		return typesystem.Group{}, flow{}, err
	}

	var branchResults []branchResult
	for _, arm := range n.Branches {
		child := scope.Clone()
		child.Captures = scope.Captures

		patternAssertion := diagnostics.MatchedValue(valueGroup, arm.Pattern.Range())
		if _, _, pErr := c.TypeCheckNode(arm.Pattern, child, returns, &patternAssertion, false); pErr != nil {
			return typesystem.Group{}, flow{}, pErr
		}

		bf, bErr := c.checkSequence(arm.Body, child, returns)
		if bErr != nil {
			return typesystem.Group{}, flow{}, bErr
		}
		branchResults = append(branchResults, branchResult{Scope: child, Flow: bf})
	}

	elseChild := scope.Clone()
	elseChild.Captures = scope.Captures
	ef, eErr := c.checkSequence(n.Else, elseChild, returns)
	if eErr != nil {
		return typesystem.Group{}, flow{}, eErr
	}
	branchResults = append(branchResults, branchResult{Scope: elseChild, Flow: ef})

	if iErr := c.initializeVariables(scope, branchResults); iErr != nil {
		return typesystem.Group{}, flow{}, iErr
	}

	arms := make([]flow, len(branchResults))
	for i, b := range branchResults {
		arms[i] = b.Flow
	}
	combined := branchCombine(arms, true)
	combined = seqCombine(vf, combined)

	unit := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimUnit))
	c.TypeMap[node] = unit
	return unit, combined, nil
}

func (c *Checker) checkCaseCondition(node ast.Node, n *ast.CaseCondition, scope *symbols.Scope, returns typesystem.Group) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	boolGroup := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimBoolean))
	condAssertion := diagnostics.Condition(boolGroup, n.Condition.Range())
	_, cf, err := c.TypeCheckNode(n.Condition, scope, returns, &condAssertion, false)
	if err != nil {
		return typesystem.Group{}, flow{}, err
	}

	thenScope := scope.Clone()
	thenScope.Captures = scope.Captures
	thenFlow, tErr := c.checkSequence(n.Then, thenScope, returns)
	if tErr != nil {
		return typesystem.Group{}, flow{}, tErr
	}

	elseScope := scope.Clone()
	elseScope.Captures = scope.Captures
	elseFlow, eErr := c.checkSequence(n.Else, elseScope, returns)
	if eErr != nil {
		return typesystem.Group{}, flow{}, eErr
	}

	branches := []branchResult{{Scope: thenScope, Flow: thenFlow}, {Scope: elseScope, Flow: elseFlow}}
	if iErr := c.initializeVariables(scope, branches); iErr != nil {
		return typesystem.Group{}, flow{}, iErr
	}

	combined := seqCombine(cf, branchCombine([]flow{thenFlow, elseFlow}, true))

	unit := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimUnit))
	c.TypeMap[node] = unit
	return unit, combined, nil
}

func (c *Checker) checkCaseVariant(node ast.Node, n *ast.CaseVariant, scope *symbols.Scope, returns typesystem.Group) (typesystem.Group, flow, *diagnostics.DiagnosticError) {
	cases := make(map[string]typesystem.Group, len(n.Branches))
	for _, arm := range n.Branches {
		cases[arm.Tag] = c.Scope.RegisterGroup(nil)
	}
	variants := c.Scope.RegisterGroup(&typesystem.PossibilitySet{Variants: &typesystem.VariantsType{
		Cases: cases, Fixed: !n.HasElse,
	}})
	valueAssertion := diagnostics.MatchedValue(variants, n.Value.Range())
	_, vf, err := c.TypeCheckNode(n.Value, scope, returns, &valueAssertion, false)
	if err != nil {
		return typesystem.Group{}, flow{}, err
	}

	var branchResults []branchResult
	for _, arm := range n.Branches {
		child := scope.Clone()
		child.Captures = scope.Captures
		if arm.Binding != "" {
			child.Initialized[arm.Binding] = symbols.VariableBinding{Group: cases[arm.Tag], Range: arm.Rng, Mutable: false}
			child.Local[arm.Binding] = true
		}
		bf, bErr := c.checkSequence(arm.Body, child, returns)
		if bErr != nil {
			return typesystem.Group{}, flow{}, bErr
		}
		branchResults = append(branchResults, branchResult{Scope: child, Flow: bf})
	}

	hasElse := n.HasElse
	if hasElse {
		elseChild := scope.Clone()
		elseChild.Captures = scope.Captures
		ef, eErr := c.checkSequence(n.Else, elseChild, returns)
		if eErr != nil {
			return typesystem.Group{}, flow{}, eErr
		}
		branchResults = append(branchResults, branchResult{Scope: elseChild, Flow: ef})
	}

	if iErr := c.initializeVariables(scope, branchResults); iErr != nil {
		return typesystem.Group{}, flow{}, iErr
	}

	arms := make([]flow, len(branchResults))
	for i, b := range branchResults {
		arms[i] = b.Flow
	}
	// Without an else the match is exhaustive (the scrutinee's Variants row
	// is closed), so the arms alone cover every path.
	combined := seqCombine(vf, branchCombine(arms, true))

	unit := c.Scope.RegisterGroup(typesystem.Primitives(typesystem.PrimUnit))
	c.TypeMap[node] = unit
	return unit, combined, nil
}
