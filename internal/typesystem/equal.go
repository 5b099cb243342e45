package typesystem

// GroupsEqual follows the same cycle-safe traversal as LimitPossibleTypes,
// testing subset-of-constructors and per-constructor structural equality
// without mutating anything. Used by Deduplicate to find constructor-level
// equal subgraphs and by tests asserting narrowing/aliasing invariants.
func (s *Scope) GroupsEqual(a, b Group) bool {
	s.mustOwn(a)
	s.mustOwn(b)
	return s.equal(a, b, map[[2]int]bool{})
}

func (s *Scope) equal(a, b Group, visited map[[2]int]bool) bool {
	ra, rb := s.find(a.idx), s.find(b.idx)
	if ra == rb {
		return true
	}
	key := pairKey(ra, rb)
	if visited[key] {
		return true
	}
	visited[key] = true
	return s.setsEqual(s.sets[ra], s.sets[rb], visited)
}

func (s *Scope) setsEqual(a, b *PossibilitySet, visited map[[2]int]bool) bool {
	if a.Any != b.Any {
		return false
	}
	if a.Any {
		return true
	}
	if a.Primitives != b.Primitives {
		return false
	}
	if (a.Array == nil) != (b.Array == nil) {
		return false
	}
	if a.Array != nil && !s.equal(a.Array.Element, b.Array.Element, visited) {
		return false
	}
	if (a.Object == nil) != (b.Object == nil) {
		return false
	}
	if a.Object != nil && !s.rowEqual(a.Object.Members, a.Object.Fixed, b.Object.Members, b.Object.Fixed, visited) {
		return false
	}
	if (a.Variants == nil) != (b.Variants == nil) {
		return false
	}
	if a.Variants != nil && !s.rowEqual(a.Variants.Cases, a.Variants.Fixed, b.Variants.Cases, b.Variants.Fixed, visited) {
		return false
	}
	if (a.Closure == nil) != (b.Closure == nil) {
		return false
	}
	if a.Closure != nil && !s.closuresEqual(a.Closure, b.Closure, visited) {
		return false
	}
	return true
}

func (s *Scope) rowEqual(aMembers map[string]Group, aFixed bool, bMembers map[string]Group, bFixed bool, visited map[[2]int]bool) bool {
	if aFixed != bFixed || len(aMembers) != len(bMembers) {
		return false
	}
	for name, ga := range aMembers {
		gb, ok := bMembers[name]
		if !ok || !s.equal(ga, gb, visited) {
			return false
		}
	}
	return true
}

func (s *Scope) closuresEqual(a, b *ClosureType, visited map[[2]int]bool) bool {
	if len(a.Params) != len(b.Params) || a.HasCaptures != b.HasCaptures {
		return false
	}
	for i := range a.Params {
		if !s.equal(a.Params[i], b.Params[i], visited) {
			return false
		}
	}
	if !s.equal(a.Return, b.Return, visited) {
		return false
	}
	if a.HasCaptures {
		if len(a.Captures) != len(b.Captures) {
			return false
		}
		for name, ga := range a.Captures {
			gb, ok := b.Captures[name]
			if !ok || !s.equal(ga, gb, visited) {
				return false
			}
		}
	}
	return true
}
