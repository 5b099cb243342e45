// Package symbols holds the typed-or-in-progress symbol table the checker
// builds up across a full type_check_modules pass: Constants and Procedures
// keyed by fully qualified path, plus the variable-binding bookkeeping a
// single procedure body needs while it is being checked (initialized vs
// uninitialized tables, the captured-name set, and the recursive-procedure
// stack that makes mutual recursion possible).
//
// This is a much smaller table than github.com/funvibe/funxy's
// internal/symbols: the donor's SymbolTable additionally carries traits,
// instances, generic type parameters, and extension methods, none of which
// this language has (no generics, no traits — see the checker's
// non-goals). What survives here is the donor's demand-driven shape: a
// symbol starts absent, becomes "in progress" once its untyped form is
// removed from the pending map, and is reinstalled typed when checking
// finishes.
package symbols

import (
	"github.com/corelangs/typecheck/internal/ast"
	"github.com/corelangs/typecheck/internal/token"
	"github.com/corelangs/typecheck/internal/typesystem"
)

// Path is a fully qualified symbol name: module path segments plus the
// local name, joined for use as a map key.
type Path string

// NewPath joins a module path and a local name into one qualified Path.
func NewPath(modulePath []string, name string) Path {
	p := ""
	for _, seg := range modulePath {
		p += seg + "."
	}
	return Path(p + name)
}

// Constant is a top-level value binding. Value is nil while the constant is
// still being checked (used only internally; a Constant is never installed
// into a Table until Value is non-nil — see Table.states).
type Constant struct {
	Public     bool
	Value      ast.Node // the original untyped expression, for diagnostics
	ValueTypes typesystem.Group
	Range      token.Range
}

// Procedure is a top-level function binding. Body is nil exactly while the
// procedure is on the inference stack (its parameter and return Groups are
// already installed so recursive calls can proceed).
type Procedure struct {
	Public         bool
	ParameterNames []string
	ParameterTypes []typesystem.Group
	Returns        typesystem.Group
	Body           []ast.Node
	Range          token.Range
}

// IsRecursing reports whether this Procedure is still being checked (body
// not yet installed).
func (p *Procedure) IsRecursing() bool { return p.Body == nil }

// Symbol is one typed (or in-progress) top-level binding.
type Symbol struct {
	Constant  *Constant
	Procedure *Procedure
}

// state tags where a path currently sits in the demand-driven pipeline.
type state int

const (
	statePending state = iota // untyped node available, not yet started
	stateChecking
	stateDone
)

// Table is the demand-driven symbol store for one type_check_modules run.
// pending holds untyped nodes keyed by path; states marks in-progress
// paths (procedures keep their Symbol installed with Body == nil here, so
// recursive calls can read parameter/return Groups, while constants have no
// entry at all and so register as "absent" — see RecursiveConstant).
type Table struct {
	pending  map[Path]ast.Node
	symbols  map[Path]*Symbol
	states   map[Path]state
	recStack map[Path]*RecursionEntry
}

// NewTable builds an empty table. Call LoadModule for every module before
// checking begins.
func NewTable() *Table {
	return &Table{
		pending:  map[Path]ast.Node{},
		symbols:  map[Path]*Symbol{},
		states:   map[Path]state{},
		recStack: map[Path]*RecursionEntry{},
	}
}

// LoadModule flattens one module's local symbol map into the table's global
// pending map under its fully qualified paths.
func (t *Table) LoadModule(mod *ast.Module) {
	for name, node := range mod.Symbols {
		t.pending[NewPath(mod.Path, name)] = node
	}
}

// Lookup returns the typed symbol at path, if checking has finished for it.
func (t *Table) Lookup(path Path) (*Symbol, bool) {
	if t.states[path] != stateDone {
		return nil, false
	}
	s, ok := t.symbols[path]
	return s, ok
}

// Pending returns the untyped node still awaiting a check at path, and
// whether one exists.
func (t *Table) Pending(path Path) (ast.Node, bool) {
	n, ok := t.pending[path]
	return n, ok
}

// AllPaths returns every path the table knows about, pending or done,
// sorted is the caller's concern (the symbol checker wants determinism
// across a run but doesn't need the table itself to own sort order).
func (t *Table) AllPaths() []Path {
	seen := map[Path]bool{}
	var paths []Path
	for p := range t.pending {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	for p := range t.symbols {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	return paths
}

// BeginChecking removes path's untyped node from pending and marks it
// in-progress. Call this exactly once, right before checking starts.
func (t *Table) BeginChecking(path Path) (ast.Node, bool) {
	node, ok := t.pending[path]
	if !ok {
		return nil, false
	}
	delete(t.pending, path)
	t.states[path] = stateChecking
	return node, true
}

// IsChecking reports whether path is currently on the inference stack.
func (t *Table) IsChecking(path Path) bool {
	return t.states[path] == stateChecking
}

// InProgressProcedure returns the Procedure installed at path while it is
// still on the checking stack (Body == nil), for a recursive call site that
// needs to read its parameter/return Groups before FinishChecking runs.
func (t *Table) InProgressProcedure(path Path) (*Procedure, bool) {
	if t.states[path] != stateChecking {
		return nil, false
	}
	sym, ok := t.symbols[path]
	if !ok || sym.Procedure == nil {
		return nil, false
	}
	return sym.Procedure, true
}

// PublishProcedure installs sym (with Body possibly nil) as path's symbol
// while checking is still in progress — this is what lets a recursive call
// see the procedure's parameter and return Groups before its body finishes.
func (t *Table) PublishProcedure(path Path, sym *Symbol) {
	t.symbols[path] = sym
}

// FinishChecking marks path done. Call after PublishProcedure's Body has
// been filled in (for a Procedure) or after the Constant's Value/ValueTypes
// are final.
func (t *Table) FinishChecking(path Path, sym *Symbol) {
	t.symbols[path] = sym
	t.states[path] = stateDone
}

// RecursionEntry tracks, per formal parameter index, every call-site
// argument Group and source range recorded while its owning Procedure is
// still being checked. Once the body finishes, the symbol checker unifies
// each recorded argument against a freshly duplicated copy of the
// parameter's Group — this is the "post-hoc" half of recursive-call
// resolution.
type RecursionEntry struct {
	Procedure *Procedure
	CallSites [][]CallSiteArgument // CallSites[paramIndex] = every recorded argument at that position
}

// CallSiteArgument is one recorded argument Group plus the range it came
// from, for error reporting after post-hoc unification.
type CallSiteArgument struct {
	Group typesystem.Group
	Range token.Range
}

// PushRecursion starts tracking path's call sites while its Procedure body
// is being checked.
func (t *Table) PushRecursion(path Path, proc *Procedure) {
	t.recStack[path] = &RecursionEntry{
		Procedure: proc,
		CallSites: make([][]CallSiteArgument, len(proc.ParameterTypes)),
	}
}

// RecordCallSite appends one argument observation for path's recursive call
// at paramIndex — used when a call to a procedure still on the recursion
// stack is observed.
func (t *Table) RecordCallSite(path Path, paramIndex int, g typesystem.Group, rng token.Range) {
	entry := t.recStack[path]
	entry.CallSites[paramIndex] = append(entry.CallSites[paramIndex], CallSiteArgument{Group: g, Range: rng})
}

// PopRecursion removes and returns path's recursion entry once its body has
// finished checking.
func (t *Table) PopRecursion(path Path) *RecursionEntry {
	entry := t.recStack[path]
	delete(t.recStack, path)
	return entry
}

// VariableBinding is one name's current type Group, declaration range, and
// mutability, as tracked while a single procedure or closure body is being
// walked.
type VariableBinding struct {
	Group   typesystem.Group
	Range   token.Range
	Mutable bool
}

// Scope is the variable-tracking state for one body being checked: the
// initialized and uninitialized tables (a name is in exactly one, per the
// definite-initialization invariant), the set of names declared directly in
// this scope (as opposed to an enclosing one, which distinguishes a local
// read from a capture), and the set of names captured so far if this scope
// belongs to a closure.
type Scope struct {
	Initialized   map[string]VariableBinding
	Uninitialized map[string]VariableBinding
	Local         map[string]bool
	Captures      map[string]typesystem.Group // nil if this scope is not a closure body
}

// NewScope creates an empty variable-tracking scope. isClosure controls
// whether Captures is allocated (a top-level procedure body never
// captures; a Function literal's body always does).
func NewScope(isClosure bool) *Scope {
	s := &Scope{
		Initialized:   map[string]VariableBinding{},
		Uninitialized: map[string]VariableBinding{},
		Local:         map[string]bool{},
	}
	if isClosure {
		s.Captures = map[string]typesystem.Group{}
	}
	return s
}

// Clone produces an independent copy of s's Initialized/Uninitialized/Local
// tables, as required before checking each branch of a
// CaseBranches/CaseCondition/CaseVariant so that one branch's declarations
// and promotions don't leak into a sibling branch. The clone is still the
// same logical scope as s — every name already Local to s stays Local to
// the branch — so Clone never touches Captures either; the caller assigns
// it explicitly, identity-shared with the parent.
func (s *Scope) Clone() *Scope {
	c := &Scope{
		Initialized:   make(map[string]VariableBinding, len(s.Initialized)),
		Uninitialized: make(map[string]VariableBinding, len(s.Uninitialized)),
		Local:         make(map[string]bool, len(s.Local)),
	}
	for k, v := range s.Initialized {
		c.Initialized[k] = v
	}
	for k, v := range s.Uninitialized {
		c.Uninitialized[k] = v
	}
	for k, v := range s.Local {
		c.Local[k] = v
	}
	return c
}

// CloneForClosure produces the scope for a new Function literal's body.
// Unlike Clone, it is entering a genuinely new scope, not a sibling branch
// of s: every outer name stays visible (Initialized/Uninitialized carry
// over so the body can still read them) but none of them start out Local,
// so checkVariableAccess's capture check correctly treats any of them it
// touches as a capture rather than a local declaration. Captures is always
// a fresh, empty map — the caller fills it in as the body is checked.
func (s *Scope) CloneForClosure() *Scope {
	c := &Scope{
		Initialized:   make(map[string]VariableBinding, len(s.Initialized)),
		Uninitialized: make(map[string]VariableBinding, len(s.Uninitialized)),
		Local:         map[string]bool{},
		Captures:      map[string]typesystem.Group{},
	}
	for k, v := range s.Initialized {
		c.Initialized[k] = v
	}
	for k, v := range s.Uninitialized {
		c.Uninitialized[k] = v
	}
	return c
}
