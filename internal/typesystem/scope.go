package typesystem

import "github.com/google/uuid"

// Scope is the arena: every Group handed out by RegisterGroup belongs to
// exactly one Scope for its lifetime. Internally it is a union-find over
// slot indices — LimitPossibleTypes aliases two groups by pointing one
// slot's parent at the other, so group_internal_index (Find) is the
// "canonical identity after any aliasing" the spec calls for.
//
// Scopes are created per compilation unit (see ID, stamped so a CLI driver
// checking many units concurrently can tell diagnostics apart without the
// groups themselves ever crossing scopes).
type Scope struct {
	ID     uuid.UUID
	parent []int
	sets   []*PossibilitySet
}

// NewScope allocates a fresh, empty arena.
func NewScope() *Scope {
	return &Scope{ID: uuid.New()}
}

// RegisterGroup allocates a new group. A nil set means "any type".
func (s *Scope) RegisterGroup(set *PossibilitySet) Group {
	if set == nil {
		set = AnySet()
	}
	idx := len(s.parent)
	s.parent = append(s.parent, idx)
	s.sets = append(s.sets, set)
	return Group{idx: idx, scopeID: s.ID}
}

func (s *Scope) mustOwn(g Group) {
	if g.scopeID != s.ID {
		panic(&ErrScopeMismatch{GroupScope: g.scopeID, ScopeID: s.ID})
	}
}

// find returns the canonical slot index for g, compressing the path as it
// walks — the union-find workhorse behind every other operation.
func (s *Scope) find(idx int) int {
	for s.parent[idx] != idx {
		s.parent[idx] = s.parent[s.parent[idx]]
		idx = s.parent[idx]
	}
	return idx
}

// GroupInternalIndex returns the canonical identity of g after any aliasing.
// Two groups share an internal index iff they have been unified.
func (s *Scope) GroupInternalIndex(g Group) int {
	s.mustOwn(g)
	return s.find(g.idx)
}

// GroupTypes is a read-only view of g's possibility set. A nil result means
// "any type" (uninstantiated).
func (s *Scope) GroupTypes(g Group) *PossibilitySet {
	s.mustOwn(g)
	set := s.sets[s.find(g.idx)]
	if set.Any {
		return nil
	}
	return set
}

// SetGroupTypes overwrites g's possibility set outright.
func (s *Scope) SetGroupTypes(g Group, set *PossibilitySet) {
	s.mustOwn(g)
	if set == nil {
		set = AnySet()
	}
	s.sets[s.find(g.idx)] = set
}

// GroupConcrete collapses a still-unconstrained group to Unit for call sites
// that need *a* concrete primitive rather than an optional possibility set.
// Render does not use it: it prints an unconstrained group as "any".
// Grounded on the original implementation's group_concrete,
// which performs exactly this Any -> Unit collapse.
func (s *Scope) GroupConcrete(g Group) Primitive {
	set := s.GroupTypes(g)
	if set == nil {
		return PrimUnit
	}
	return set.Primitives
}

// handleOf reconstructs a Group handle for a canonical slot index already
// known to belong to this scope — used internally once Find has resolved a
// group, when a function needs to hand a Group back out to a caller.
func (s *Scope) handleOf(idx int) Group {
	return Group{idx: idx, scopeID: s.ID}
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}
