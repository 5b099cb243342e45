package typesystem

// Deduplicate canonicalizes the scope by merging constructor-level equal
// subgraphs (array-of-X and array-of-X become one slot). It is run once at
// the end of inference before emitting the final type scope; running it
// twice must equal running it once (structural equality is preserved both
// times), since a second pass over an already-deduplicated arena finds no
// further equal pairs to merge.
func (s *Scope) Deduplicate() {
	changed := true
	for changed {
		changed = false
		roots := s.liveRoots()
		for i := 0; i < len(roots); i++ {
			for j := i + 1; j < len(roots); j++ {
				a, b := roots[i], roots[j]
				if s.find(a) == s.find(b) {
					continue
				}
				if s.equal(s.handleOf(a), s.handleOf(b), map[[2]int]bool{}) {
					s.parent[s.find(b)] = s.find(a)
					changed = true
				}
			}
		}
	}
}

// liveRoots returns the distinct canonical slot indices currently in use.
func (s *Scope) liveRoots() []int {
	seen := map[int]bool{}
	var roots []int
	for i := range s.parent {
		r := s.find(i)
		if !seen[r] {
			seen[r] = true
			roots = append(roots, r)
		}
	}
	return roots
}

// ConcreteMember is one (name, constructor) pair of a canonical record.
// Canonicalize emits them sorted by name, so the ConcreteObject form gives
// downstream consumers a fixed field order.
type ConcreteMember struct {
	Name  string
	Value *CanonicalType
}

// CanonicalType is the acyclic-at-the-leaves canonical form produced only by
// Canonicalize: a fully materialized snapshot of a group's possibility set,
// with cycles cut by a placeholder self-reference rather than a live Group
// handle. Nothing in ordinary unification ever produces one of these; it is
// strictly a copy-pass output, matching the spec's note that
// ConcreteObject is "created only by copy passes".
type CanonicalType struct {
	Primitives Primitive
	Array      *CanonicalType
	Object     []ConcreteMember
	Variants   []ConcreteMember
	Closure    *CanonicalClosure
	Recursive  bool // true if this node closes a cycle back to an ancestor
}

// CanonicalClosure mirrors ClosureType but with canonical sub-shapes.
type CanonicalClosure struct {
	Params []*CanonicalType
	Return *CanonicalType
}

// Canonicalize produces the ConcreteObject-bearing canonical snapshot of g.
// Sub-records become ordered ConcreteMember lists (alphabetical by field
// name, so the snapshot is deterministic regardless of map iteration order);
// a cycle back to a group already being canonicalized is cut with
// Recursive = true instead of infinite descent.
func (s *Scope) Canonicalize(g Group) *CanonicalType {
	s.mustOwn(g)
	return s.canon(g, map[int]bool{})
}

func (s *Scope) canon(g Group, onStack map[int]bool) *CanonicalType {
	idx := s.find(g.idx)
	if onStack[idx] {
		return &CanonicalType{Recursive: true}
	}
	onStack[idx] = true
	defer delete(onStack, idx)

	set := s.sets[idx]
	out := &CanonicalType{Primitives: set.Primitives}
	if set.Any {
		return out
	}
	if set.Array != nil {
		out.Array = s.canon(set.Array.Element, onStack)
	}
	if set.Object != nil {
		out.Object = s.canonRow(set.Object.Members, onStack)
	}
	if set.Variants != nil {
		out.Variants = s.canonRow(set.Variants.Cases, onStack)
	}
	if set.Closure != nil {
		params := make([]*CanonicalType, len(set.Closure.Params))
		for i, p := range set.Closure.Params {
			params[i] = s.canon(p, onStack)
		}
		out.Closure = &CanonicalClosure{Params: params, Return: s.canon(set.Closure.Return, onStack)}
	}
	return out
}

func (s *Scope) canonRow(members map[string]Group, onStack map[int]bool) []ConcreteMember {
	names := sortedKeys(members)
	out := make([]ConcreteMember, 0, len(names))
	for _, name := range names {
		out = append(out, ConcreteMember{Name: name, Value: s.canon(members[name], onStack)})
	}
	return out
}
