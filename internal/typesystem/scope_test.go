package typesystem

import (
	"testing"
	"time"
)

func TestAliasIdempotence(t *testing.T) {
	s := NewScope()
	a := s.RegisterGroup(Primitives(PrimInteger))
	got, ok := s.LimitPossibleTypes(a, a)
	if !ok {
		t.Fatalf("limit_possible_types(a, a) should never fail")
	}
	if s.GroupInternalIndex(got) != s.GroupInternalIndex(a) {
		t.Errorf("limit_possible_types(a, a) should return a's own handle")
	}
}

func TestNarrowingMonotonicity(t *testing.T) {
	s := NewScope()
	a := s.RegisterGroup(Primitives(PrimInteger | PrimFloat))
	b := s.RegisterGroup(Primitives(PrimInteger))
	merged, ok := s.LimitPossibleTypes(a, b)
	if !ok {
		t.Fatalf("expected unification to succeed")
	}
	got := s.GroupTypes(merged)
	if got.Primitives != PrimInteger {
		t.Errorf("expected narrowed set {Integer}, got %s", got.Primitives)
	}
}

func TestUnificationSymmetry(t *testing.T) {
	s1 := NewScope()
	a1 := s1.RegisterGroup(Primitives(PrimInteger | PrimFloat))
	b1 := s1.RegisterGroup(Primitives(PrimFloat | PrimString))
	m1, ok1 := s1.LimitPossibleTypes(a1, b1)

	s2 := NewScope()
	a2 := s2.RegisterGroup(Primitives(PrimFloat | PrimString))
	b2 := s2.RegisterGroup(Primitives(PrimInteger | PrimFloat))
	m2, ok2 := s2.LimitPossibleTypes(a2, b2)

	if ok1 != ok2 {
		t.Fatalf("unification should succeed/fail symmetrically")
	}
	if ok1 && s1.GroupTypes(m1).Primitives != s2.GroupTypes(m2).Primitives {
		t.Errorf("symmetric unification produced different possibility sets")
	}
}

func TestEmptyIntersectionFails(t *testing.T) {
	s := NewScope()
	a := s.RegisterGroup(Primitives(PrimInteger))
	b := s.RegisterGroup(Primitives(PrimString))
	if _, ok := s.LimitPossibleTypes(a, b); ok {
		t.Errorf("integer and string share no constructor, expected failure")
	}
}

func TestAnyGroupNeverEmpty(t *testing.T) {
	s := NewScope()
	g := s.RegisterGroup(nil)
	if set := s.GroupTypes(g); set != nil {
		t.Errorf("a freshly registered group should report 'any' (nil), got %v", set)
	}
}

func TestObjectRowWidening(t *testing.T) {
	s := NewScope()
	x := s.RegisterGroup(Primitives(PrimInteger))
	openParam := s.RegisterGroup(&PossibilitySet{Object: &ObjectType{
		Members: map[string]Group{"x": x},
		Fixed:   false,
	}})

	y := s.RegisterGroup(Primitives(PrimInteger))
	z := s.RegisterGroup(Primitives(PrimInteger))
	closedArg := s.RegisterGroup(&PossibilitySet{Object: &ObjectType{
		Members: map[string]Group{"x": y, "y": z},
		Fixed:   true,
	}})

	if _, ok := s.LimitPossibleTypes(openParam, closedArg); !ok {
		t.Fatalf("open row {x, ...} should accept closed {x, y}")
	}
}

func TestObjectRowMissingFieldFails(t *testing.T) {
	s := NewScope()
	x := s.RegisterGroup(Primitives(PrimInteger))
	openParam := s.RegisterGroup(&PossibilitySet{Object: &ObjectType{
		Members: map[string]Group{"x": x},
		Fixed:   false,
	}})

	w := s.RegisterGroup(Primitives(PrimInteger))
	closedArg := s.RegisterGroup(&PossibilitySet{Object: &ObjectType{
		Members: map[string]Group{"y": w},
		Fixed:   true,
	}})

	if _, ok := s.LimitPossibleTypes(openParam, closedArg); ok {
		t.Errorf("expected failure: closed {y} cannot satisfy required field x")
	}
}

func TestCyclicClosureUnifySafely(t *testing.T) {
	s := NewScope()
	// f : (x) -> f, a self-referential closure type.
	fGroup := s.RegisterGroup(nil)
	s.SetGroupTypes(fGroup, &PossibilitySet{Closure: &ClosureType{
		Params: []Group{s.RegisterGroup(Primitives(PrimInteger))},
		Return: fGroup,
	}})

	gGroup := s.RegisterGroup(nil)
	s.SetGroupTypes(gGroup, &PossibilitySet{Closure: &ClosureType{
		Params: []Group{s.RegisterGroup(Primitives(PrimInteger))},
		Return: gGroup,
	}})

	done := make(chan bool, 1)
	go func() {
		_, ok := s.LimitPossibleTypes(fGroup, gGroup)
		done <- ok
	}()
	select {
	case ok := <-done:
		if !ok {
			t.Errorf("cyclic closures should unify via the co-inductive cycle rule")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("LimitPossibleTypes did not terminate on a cyclic closure pair")
	}
}

func TestDuplicatePreservesAliasing(t *testing.T) {
	s := NewScope()
	shared := s.RegisterGroup(nil)
	param := s.RegisterGroup(&PossibilitySet{Array: &ArrayType{Element: shared}})
	ret := shared

	dups := NewTypeGroupDuplications(s)
	newParam := dups.Duplicate(param)
	newRet := dups.Duplicate(ret)

	newElem := s.GroupTypes(newParam).Array.Element
	if s.GroupInternalIndex(newElem) != s.GroupInternalIndex(newRet) {
		t.Errorf("duplicate should preserve aliasing between the param's element and the return group")
	}
	if s.GroupInternalIndex(newParam) == s.GroupInternalIndex(param) {
		t.Errorf("duplicate should allocate fresh slots, not reuse the original")
	}
}

func TestTransferRoundTrip(t *testing.T) {
	src := NewScope()
	self := src.RegisterGroup(nil)
	src.SetGroupTypes(self, &PossibilitySet{Array: &ArrayType{Element: self}})

	dest := NewScope()
	moved := src.TransferGroup(self, dest)

	movedSet := dest.GroupTypes(moved)
	if dest.GroupInternalIndex(movedSet.Array.Element) != dest.GroupInternalIndex(moved) {
		t.Errorf("transferred cyclic group should still point at itself in the destination scope")
	}

	back := dest.TransferGroup(moved, src)
	if !src.GroupsEqual(back, self) {
		t.Errorf("transferring the cyclic group back should yield a graph equal to the original")
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	s := NewScope()
	intA := s.RegisterGroup(Primitives(PrimInteger))
	arr1 := s.RegisterGroup(&PossibilitySet{Array: &ArrayType{Element: intA}})
	intB := s.RegisterGroup(Primitives(PrimInteger))
	arr2 := s.RegisterGroup(&PossibilitySet{Array: &ArrayType{Element: intB}})

	s.Deduplicate()
	firstPass := s.GroupInternalIndex(arr1) == s.GroupInternalIndex(arr2)
	if !firstPass {
		t.Fatalf("expected array-of-Integer and array-of-Integer to dedup to one slot")
	}
	s.Deduplicate()
	if s.GroupInternalIndex(arr1) != s.GroupInternalIndex(arr2) {
		t.Errorf("a second Deduplicate pass should not change the result of the first")
	}
}

func TestRenderCyclicGroupUsesLetterLabel(t *testing.T) {
	s := NewScope()
	self := s.RegisterGroup(nil)
	s.SetGroupTypes(self, &PossibilitySet{Array: &ArrayType{Element: self}})

	out := s.Render(self)
	if out == "" {
		t.Fatalf("expected non-empty rendering")
	}
	if !contains(out, "where") {
		t.Errorf("cyclic render should include a where-clause, got %q", out)
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
