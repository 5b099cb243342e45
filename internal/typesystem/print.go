package typesystem

import (
	"sort"
	"strings"
)

func sortedKeys(m map[string]Group) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Render renders a Group as a textual union with cycle handling: a first
// pass walks the graph counting how many times each internal index is
// referenced; any index referenced >= 2 times is assigned a letter label
// (A, B, C, ..., Z, AA, AB, ...). The main rendering is printed inline; a
// trailing "where A = ..., B = ..." clause gives the full definition of
// every labelled index, including ones that only appear because of a cycle
// back to themselves.
func (s *Scope) Render(g Group) string {
	s.mustOwn(g)
	counts := map[int]int{}
	s.countRefsIdx(s.find(g.idx), counts, map[int]bool{})

	var shared []int
	for idx, c := range counts {
		if c >= 2 {
			shared = append(shared, idx)
		}
	}
	sort.Ints(shared)

	letters := map[int]string{}
	for i, idx := range shared {
		letters[idx] = letterName(i)
	}

	body := s.renderRef(g, letters, true)
	if len(shared) == 0 {
		return body
	}

	defs := make([]string, len(shared))
	for i, idx := range shared {
		defs[i] = letters[idx] + " = " + s.renderRef(s.handleOf(idx), letters, true)
	}
	return body + " where " + strings.Join(defs, ", ")
}

// countRefsIdx walks the graph once, counting every time each canonical
// index is reached. Re-expansion stops the first time an index is seen
// again, so the walk always terminates even on a cyclic graph; an index
// counted twice means it is genuinely shared (or self-referential), which is
// exactly what needs a letter to avoid printing it inline forever.
func (s *Scope) countRefsIdx(idx int, counts map[int]int, expandedOnce map[int]bool) {
	counts[idx]++
	if expandedOnce[idx] {
		return
	}
	expandedOnce[idx] = true

	set := s.sets[idx]
	if set.Any {
		return
	}
	if set.Array != nil {
		s.countRefsIdx(s.find(set.Array.Element.idx), counts, expandedOnce)
	}
	if set.Object != nil {
		for _, name := range sortedKeys(set.Object.Members) {
			s.countRefsIdx(s.find(set.Object.Members[name].idx), counts, expandedOnce)
		}
	}
	if set.Variants != nil {
		for _, name := range sortedKeys(set.Variants.Cases) {
			s.countRefsIdx(s.find(set.Variants.Cases[name].idx), counts, expandedOnce)
		}
	}
	if set.Closure != nil {
		for _, p := range set.Closure.Params {
			s.countRefsIdx(s.find(p.idx), counts, expandedOnce)
		}
		s.countRefsIdx(s.find(set.Closure.Return.idx), counts, expandedOnce)
		for _, name := range sortedKeys(set.Closure.Captures) {
			s.countRefsIdx(s.find(set.Closure.Captures[name].idx), counts, expandedOnce)
		}
	}
}

// renderRef prints g. When top is false and g's canonical index has a
// letter, only the letter is printed — this is what keeps cyclic structures
// from recursing forever; top is true exactly at the root call and at each
// "where" clause definition, the two places a full body must be spelled out.
func (s *Scope) renderRef(g Group, letters map[int]string, top bool) string {
	idx := s.find(g.idx)
	if !top {
		if lbl, ok := letters[idx]; ok {
			return lbl
		}
	}
	return s.renderSet(s.sets[idx], letters)
}

func (s *Scope) renderSet(set *PossibilitySet, letters map[int]string) string {
	if set.Any {
		return "any"
	}

	var parts []string
	if set.Primitives != 0 {
		parts = append(parts, set.Primitives.String())
	}
	if set.Array != nil {
		parts = append(parts, "["+s.renderRef(set.Array.Element, letters, false)+"]")
	}
	if set.Object != nil {
		parts = append(parts, s.renderObject(set.Object, letters))
	}
	if set.Variants != nil {
		parts = append(parts, s.renderVariants(set.Variants, letters))
	}
	if set.Closure != nil {
		parts = append(parts, s.renderClosure(set.Closure, letters))
	}
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, " | ")
}

func (s *Scope) renderObject(o *ObjectType, letters map[int]string) string {
	names := sortedKeys(o.Members)
	fields := make([]string, len(names))
	for i, name := range names {
		fields[i] = name + " = " + s.renderRef(o.Members[name], letters, false)
	}
	suffix := ""
	if !o.Fixed {
		suffix = ", ..."
	}
	return "{ " + strings.Join(fields, ", ") + suffix + " }"
}

func (s *Scope) renderVariants(v *VariantsType, letters map[int]string) string {
	names := sortedKeys(v.Cases)
	cases := make([]string, len(names))
	for i, name := range names {
		cases[i] = "#" + name + " " + s.renderRef(v.Cases[name], letters, false)
	}
	body := strings.Join(cases, " | ")
	if !v.Fixed {
		if body != "" {
			body += " | ..."
		} else {
			body = "..."
		}
	}
	return "(" + body + ")"
}

func (s *Scope) renderClosure(c *ClosureType, letters map[int]string) string {
	params := make([]string, len(c.Params))
	for i, p := range c.Params {
		params[i] = s.renderRef(p, letters, false)
	}
	return "(" + strings.Join(params, ", ") + ") -> " + s.renderRef(c.Return, letters, false)
}

// letterName produces the A, B, ..., Z, AA, AB, ... sequence used for
// multiply-referenced cycle labels.
func letterName(i int) string {
	var out []byte
	i++
	for i > 0 {
		i--
		out = append([]byte{byte('A' + i%26)}, out...)
		i /= 26
	}
	return string(out)
}
