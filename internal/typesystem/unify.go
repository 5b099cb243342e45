package typesystem

// LimitPossibleTypes is the heart of inference: it computes the intersection
// of a's and b's possibility sets and, on success, unifies a and b to point
// at that intersection. It returns the unified handle, or ok = false when
// the intersection is empty — the caller is responsible for raising the
// type error (see package diagnostics).
func (s *Scope) LimitPossibleTypes(a, b Group) (Group, bool) {
	s.mustOwn(a)
	s.mustOwn(b)
	return s.limit(a, b, map[[2]int]bool{})
}

// limit performs the cycle-safe merge. visited is keyed by the pair of
// internal indices currently being compared; revisiting a pair mid-traversal
// means we are looping through a recursive structural type (e.g. a closure
// that captures itself) and we assume success to break the cycle, matching
// the co-inductive treatment the spec calls for.
func (s *Scope) limit(a, b Group, visited map[[2]int]bool) (Group, bool) {
	ra, rb := s.find(a.idx), s.find(b.idx)
	if ra == rb {
		return s.handleOf(ra), true
	}
	key := pairKey(ra, rb)
	if visited[key] {
		return s.handleOf(ra), true
	}
	visited[key] = true

	merged, ok := s.intersect(s.sets[ra], s.sets[rb], visited)
	if !ok {
		return Group{}, false
	}

	// Alias b onto a and install the merged set. Every future read through
	// either handle resolves through Find to the same slot.
	s.parent[rb] = ra
	s.sets[ra] = merged
	return s.handleOf(ra), true
}

// intersect computes the possibility-set intersection per spec §4.A:
// primitives keep a candidate iff present on both sides; each structural
// family is kept iff present on both sides, with its sub-groups unified
// recursively. A family present on only one side is dropped — it is no
// longer a valid candidate once the other side ruled it out.
func (s *Scope) intersect(a, b *PossibilitySet, visited map[[2]int]bool) (*PossibilitySet, bool) {
	if a.Any {
		return b, true
	}
	if b.Any {
		return a, true
	}

	merged := &PossibilitySet{Primitives: a.Primitives & b.Primitives}

	if a.Array != nil && b.Array != nil {
		elem, ok := s.limit(a.Array.Element, b.Array.Element, visited)
		if !ok {
			return nil, false
		}
		merged.Array = &ArrayType{Element: elem}
	}

	if a.Object != nil && b.Object != nil {
		members, fixed, ok := s.intersectRow(a.Object.Members, a.Object.Fixed, b.Object.Members, b.Object.Fixed, visited)
		if !ok {
			return nil, false
		}
		merged.Object = &ObjectType{Members: members, Fixed: fixed}
	}

	if a.Variants != nil && b.Variants != nil {
		cases, fixed, ok := s.intersectRow(a.Variants.Cases, a.Variants.Fixed, b.Variants.Cases, b.Variants.Fixed, visited)
		if !ok {
			return nil, false
		}
		merged.Variants = &VariantsType{Cases: cases, Fixed: fixed}
	}

	if a.Closure != nil && b.Closure != nil {
		closure, ok := s.intersectClosures(a.Closure, b.Closure, visited)
		if !ok {
			return nil, false
		}
		merged.Closure = closure
	}

	if merged.IsEmpty() {
		return nil, false
	}
	return merged, true
}

// intersectRow implements the shared Object/Variants row algebra: result
// members are the union of names; a name present on both sides unifies its
// payload, a name present on only one side survives only if that side's
// *counterpart* is open (not fixed) — an open row may still acquire it.
func (s *Scope) intersectRow(aMembers map[string]Group, aFixed bool, bMembers map[string]Group, bFixed bool, visited map[[2]int]bool) (map[string]Group, bool, bool) {
	result := make(map[string]Group, len(aMembers)+len(bMembers))

	for name, ga := range aMembers {
		gb, inB := bMembers[name]
		if !inB {
			if bFixed {
				return nil, false, false
			}
			result[name] = ga
			continue
		}
		g, ok := s.limit(ga, gb, visited)
		if !ok {
			return nil, false, false
		}
		result[name] = g
	}
	for name, gb := range bMembers {
		if _, already := aMembers[name]; already {
			continue
		}
		if aFixed {
			return nil, false, false
		}
		result[name] = gb
	}

	return result, aFixed || bFixed, true
}

// intersectClosures requires matching arity; parameters unify pairwise and
// the return type unifies. This is the spec's preferred "compiler/" variant
// (success implies a closure with unified parts) rather than the inverted
// limiter the source's src/ variant happened to contain — see SPEC_FULL.md §9.
func (s *Scope) intersectClosures(a, b *ClosureType, visited map[[2]int]bool) (*ClosureType, bool) {
	if len(a.Params) != len(b.Params) {
		return nil, false
	}
	params := make([]Group, len(a.Params))
	for i := range a.Params {
		g, ok := s.limit(a.Params[i], b.Params[i], visited)
		if !ok {
			return nil, false
		}
		params[i] = g
	}
	ret, ok := s.limit(a.Return, b.Return, visited)
	if !ok {
		return nil, false
	}

	captures, hasCaptures, ok := s.mergeCaptures(a, b, visited)
	if !ok {
		return nil, false
	}

	return &ClosureType{Params: params, Return: ret, Captures: captures, HasCaptures: hasCaptures}, true
}

// mergeCaptures implements the capture-merge open question from spec §9:
// captures propagate from whichever side has them; when both sides carry a
// captures map, common names unify their payloads and names unique to one
// side are kept as-is (rather than the source's "always pick the left side"
// behavior).
func (s *Scope) mergeCaptures(a, b *ClosureType, visited map[[2]int]bool) (map[string]Group, bool, bool) {
	if !a.HasCaptures && !b.HasCaptures {
		return nil, false, true
	}
	if a.HasCaptures && !b.HasCaptures {
		return a.Captures, true, true
	}
	if b.HasCaptures && !a.HasCaptures {
		return b.Captures, true, true
	}

	merged := make(map[string]Group, len(a.Captures)+len(b.Captures))
	for name, ga := range a.Captures {
		if gb, ok := b.Captures[name]; ok {
			g, ok := s.limit(ga, gb, visited)
			if !ok {
				return nil, false, false
			}
			merged[name] = g
		} else {
			merged[name] = ga
		}
	}
	for name, gb := range b.Captures {
		if _, already := a.Captures[name]; already {
			continue
		}
		merged[name] = gb
	}
	return merged, true, true
}
