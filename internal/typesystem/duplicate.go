package typesystem

// TransferGroup deep-copies g and everything reachable through it into dest,
// preserving cycles via a visited map keyed by internal index. Used when the
// downstream pipeline (outside this package's concern) needs a group that
// outlives this Scope.
func (s *Scope) TransferGroup(g Group, dest *Scope) Group {
	s.mustOwn(g)
	return s.copyInto(g, dest, map[int]Group{})
}

// TypeGroupDuplications caches a structural copy-within-the-same-scope so
// that every group reachable once through a call's parameter/return
// subgraph is duplicated exactly once, preserving aliasing between parameter
// slots and the return type. One instance is shared across a single
// procedure instantiation at a call site.
type TypeGroupDuplications struct {
	scope *Scope
	cache map[int]Group
}

// NewTypeGroupDuplications starts a fresh duplication context over scope.
func NewTypeGroupDuplications(scope *Scope) *TypeGroupDuplications {
	return &TypeGroupDuplications{scope: scope, cache: map[int]Group{}}
}

// Duplicate produces a structural copy of g with all internal nodes freshly
// allocated, reusing any group already duplicated earlier in this call's
// subgraph.
func (d *TypeGroupDuplications) Duplicate(g Group) Group {
	d.scope.mustOwn(g)
	return d.scope.copyInto(g, d.scope, d.cache)
}

// copyInto is the shared cycle-safe copy routine behind both TransferGroup
// (dest may be a different scope) and Duplicate (dest is the same scope).
func (s *Scope) copyInto(g Group, dest *Scope, visited map[int]Group) Group {
	idx := s.find(g.idx)
	if already, ok := visited[idx]; ok {
		return already
	}

	newGroup := dest.RegisterGroup(nil)
	visited[idx] = newGroup

	newSet := s.copySet(s.sets[idx], dest, visited)
	dest.SetGroupTypes(newGroup, newSet)
	return newGroup
}

func (s *Scope) copySet(set *PossibilitySet, dest *Scope, visited map[int]Group) *PossibilitySet {
	if set.Any {
		return AnySet()
	}
	newSet := &PossibilitySet{Primitives: set.Primitives}

	if set.Array != nil {
		newSet.Array = &ArrayType{Element: s.copyInto(set.Array.Element, dest, visited)}
	}
	if set.Object != nil {
		newSet.Object = &ObjectType{Members: s.copyMembers(set.Object.Members, dest, visited), Fixed: set.Object.Fixed}
	}
	if set.Variants != nil {
		newSet.Variants = &VariantsType{Cases: s.copyMembers(set.Variants.Cases, dest, visited), Fixed: set.Variants.Fixed}
	}
	if set.Closure != nil {
		params := make([]Group, len(set.Closure.Params))
		for i, p := range set.Closure.Params {
			params[i] = s.copyInto(p, dest, visited)
		}
		newClosure := &ClosureType{
			Params:      params,
			Return:      s.copyInto(set.Closure.Return, dest, visited),
			HasCaptures: set.Closure.HasCaptures,
		}
		if set.Closure.HasCaptures {
			newClosure.Captures = s.copyMembers(set.Closure.Captures, dest, visited)
		}
		newSet.Closure = newClosure
	}
	return newSet
}

func (s *Scope) copyMembers(members map[string]Group, dest *Scope, visited map[int]Group) map[string]Group {
	out := make(map[string]Group, len(members))
	for name, g := range members {
		out[name] = s.copyInto(g, dest, visited)
	}
	return out
}
