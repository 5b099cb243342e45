// Package module provides the minimal in-memory implementation of the
// checker's "modules" input: a mapping from module path to a Module
// exposing its local symbol table. Discovering modules on disk, resolving
// imports, and deciding what is exported are all out of this package's
// scope (and the checker's non-goals) — Loader only assembles the
// in-memory shape type_check_modules actually consumes.
package module

import "github.com/corelangs/typecheck/internal/ast"

// Loader collects modules by path before a checking run.
type Loader struct {
	modules map[string]*ast.Module
}

// NewLoader returns an empty Loader.
func NewLoader() *Loader {
	return &Loader{modules: map[string]*ast.Module{}}
}

// Add registers mod under its own Path, joined with "/" as the lookup key.
func (l *Loader) Add(mod *ast.Module) {
	l.modules[joinPath(mod.Path)] = mod
}

// Get returns the module previously added under path.
func (l *Loader) Get(path []string) (*ast.Module, bool) {
	m, ok := l.modules[joinPath(path)]
	return m, ok
}

// All returns every module the loader currently holds, keyed by joined
// path. Iteration order over the returned map is not meaningful; callers
// that need determinism should sort the keys themselves.
func (l *Loader) All() map[string]*ast.Module {
	return l.modules
}

func joinPath(path []string) string {
	out := ""
	for i, seg := range path {
		if i > 0 {
			out += "/"
		}
		out += seg
	}
	return out
}
