// Package typesystem implements the type graph arena described by the core
// inference engine: type groups addressed by stable handles, a possibility
// set of candidate concrete constructors per group, and the structural
// constructor families (array, object, variants, closure) that nest further
// groups and so make the graph cyclic.
//
// The arena design mirrors github.com/funvibe/funxy's internal/typesystem
// package in spirit (a typed constructor value with cycle-safe traversal
// helpers keyed by a visited set, sorted map keys for deterministic
// rendering, doc comments proportional to how load-bearing a type is) but
// replaces that package's Hindley-Milner substitution map with the
// possibility-set-per-group model, which is what the donor's own dense
// inference code cannot express monomorphically: a funxy TVar is either
// unbound or bound to exactly one Type, never "one of {Integer, Float}".
package typesystem

import (
	"fmt"

	"github.com/google/uuid"
)

// Group is a stable handle into a Scope's arena. Two groups are aliases of
// one another once they have been unified; Group itself never changes after
// being handed out, only what it resolves to inside the owning Scope does.
type Group struct {
	idx     int
	scopeID uuid.UUID
}

// Primitive is a bitset family; a possibility set may hold any subset of the
// five primitive constructors simultaneously (e.g. "integer or float" while
// an arithmetic operand is still ambiguous).
type Primitive uint8

const (
	PrimUnit Primitive = 1 << iota
	PrimBoolean
	PrimInteger
	PrimFloat
	PrimString
)

func (p Primitive) has(f Primitive) bool { return p&f != 0 }

func (p Primitive) String() string {
	names := []struct {
		flag Primitive
		name string
	}{
		{PrimUnit, "Unit"}, {PrimBoolean, "Boolean"}, {PrimInteger, "Integer"},
		{PrimFloat, "Float"}, {PrimString, "String"},
	}
	out := ""
	for _, n := range names {
		if p.has(n.flag) {
			if out != "" {
				out += " | "
			}
			out += n.name
		}
	}
	return out
}

// ArrayType is the Array(element) constructor.
type ArrayType struct {
	Element Group
}

// ObjectType is the Object(members, fixed) constructor. Fixed = true means a
// closed row (the member set cannot grow during unification); false means an
// open row (a producer or consumer side that may still acquire members).
type ObjectType struct {
	Members map[string]Group
	Fixed   bool
}

// VariantsType is the Variants(cases, fixed) constructor. Same row semantics
// as ObjectType but dual polarity: closed means the scrutinee's full tag set
// is known (an exhaustive match), open means more tags may still appear.
type VariantsType struct {
	Cases map[string]Group
	Fixed bool
}

// ClosureType is the Closure(params, ret, captures) constructor. HasCaptures
// distinguishes a bare procedure reference (no captures map at all, the type
// of an unapplied top-level procedure) from a materialized closure value
// (captures present, possibly empty).
type ClosureType struct {
	Params      []Group
	Return      Group
	Captures    map[string]Group
	HasCaptures bool
}

// PossibilitySet is the contents of one type group: either "any type"
// (Any = true, every other field zero) or a finite set of candidate
// constructors. At most one of Array/Object/Variants/Closure may be present
// per side, alongside any subset of Primitives.
type PossibilitySet struct {
	Any        bool
	Primitives Primitive
	Array      *ArrayType
	Object     *ObjectType
	Variants   *VariantsType
	Closure    *ClosureType
}

// AnySet is the possibility set of an uninstantiated group.
func AnySet() *PossibilitySet { return &PossibilitySet{Any: true} }

// Primitives builds a possibility set containing exactly the given primitive
// constructors and nothing else — the set registered for a literal.
func Primitives(p Primitive) *PossibilitySet { return &PossibilitySet{Primitives: p} }

// IsEmpty reports whether a possibility set admits no concrete type at all
// (the result of a failed intersection; callers should never install this,
// it exists only as an intermediate value that LimitPossibleTypes rejects).
func (s *PossibilitySet) IsEmpty() bool {
	if s == nil {
		return true
	}
	if s.Any {
		return false
	}
	return s.Primitives == 0 && s.Array == nil && s.Object == nil && s.Variants == nil && s.Closure == nil
}

// ErrScopeMismatch is raised by every arena accessor when handed a Group
// minted by a different Scope. Groups are only ever meant to cross a scope
// boundary through TransferGroup, never by being passed around raw; hitting
// this means a caller kept a handle past the scope's lifetime or mixed up
// two compilation units.
type ErrScopeMismatch struct {
	GroupScope uuid.UUID
	ScopeID    uuid.UUID
}

func (e *ErrScopeMismatch) Error() string {
	return fmt.Sprintf("type group belongs to scope %s, not %s", e.GroupScope, e.ScopeID)
}
