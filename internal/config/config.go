// Package config holds the checker's ambient settings: a handful of
// package-level vars for flags threaded through from cmd/typecheck (mirrors
// github.com/funvibe/funxy's internal/config, which favors plain vars over a
// config struct), plus a genuine file-backed layer for project-wide settings
// that don't belong on the command line every invocation.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the project config file Load looks for relative to the
// module root when no explicit path is given.
const DefaultFileName = ".typecheck.yaml"

// IsTestMode indicates the checker is running under its own test harness
// rather than a real CLI invocation. Set once at startup.
var IsTestMode = false

// Project is the on-disk shape of .typecheck.yaml. Every field is optional;
// a missing file is equivalent to every field at its zero value.
type Project struct {
	// Strict fails the run on the first diagnostic instead of collecting as
	// many as TypeCheckModules can find across independent symbols.
	Strict bool `yaml:"strict"`

	// ModuleRoots lists directories to search for modules, in order. It is
	// parsed but cmd/typecheck does not read it: the CLI takes its modules
	// only from the fixture files named on its command line.
	ModuleRoots []string `yaml:"moduleRoots"`

	// CacheDir, if set, is the directory cmd/typecheck keeps the on-disk
	// memoization store (internal/cache) in. Empty means no cache is used.
	CacheDir string `yaml:"cacheDir"`
}

// Load reads and parses path as a Project. A missing file is not an error —
// it returns the zero Project, exactly as if every setting were left
// unspecified — since .typecheck.yaml is an optional convenience, not a
// required manifest.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Project{}, nil
	}
	if err != nil {
		return nil, err
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
