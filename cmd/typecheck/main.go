// Command typecheck runs the type checker over one or more txtar fixture
// files, each bundling a set of modules (see internal/fixtures), and prints
// any diagnostics collected across them. It is a thin driver: lexing,
// parsing, and real module discovery are out of the checker's scope (see
// spec.md's Non-goals), so this binary's only job is wiring the ambient
// stack — config, logging, caching — around the four core components.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/corelangs/typecheck/internal/analyzer"
	"github.com/corelangs/typecheck/internal/cache"
	"github.com/corelangs/typecheck/internal/config"
	"github.com/corelangs/typecheck/internal/diagnostics"
	"github.com/corelangs/typecheck/internal/fixtures"
	"github.com/corelangs/typecheck/internal/module"
	"github.com/corelangs/typecheck/internal/symbols"
	"github.com/corelangs/typecheck/internal/telemetry"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <fixture.txtar> [fixture2.txtar...]\n", os.Args[0])
		os.Exit(1)
	}

	if os.Getenv("TYPECHECK_TEST_MODE") == "1" {
		config.IsTestMode = true
	}

	proj, err := config.Load(config.DefaultFileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading %s: %s\n", config.DefaultFileName, err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(os.Getenv("TYPECHECK_VERBOSE") == "1")
	colorize := isatty.IsTerminal(os.Stdout.Fd())

	var store *cache.Store
	if proj.CacheDir != "" {
		ctx := context.Background()
		store, err = cache.Open(ctx, filepath.Join(proj.CacheDir, "typecheck.sqlite"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "opening cache: %s\n", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	var g errgroup.Group
	results := make([]checkResult, len(os.Args)-1)
	for i, path := range os.Args[1:] {
		i, path := i, path
		g.Go(func() error {
			res := checkFixture(path, store, proj.Strict)
			results[i] = res
			telemetry.LogUnit(logger, telemetry.UnitResult{
				Path: path, SymbolCount: res.symbolCount, ErrorCount: len(res.errs), Duration: res.duration,
			})
			return nil
		})
	}
	_ = g.Wait()

	hasErrors := false
	for _, res := range results {
		if res.loadErr != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", res.path, res.loadErr)
			hasErrors = true
			continue
		}
		for _, e := range res.errs {
			hasErrors = true
			printDiagnostic(res.path, e, colorize)
		}
	}

	if hasErrors {
		os.Exit(1)
	}
}

type checkResult struct {
	path        string
	symbolCount int
	errs        []*diagnostics.DiagnosticError
	loadErr     error
	duration    time.Duration
}

func checkFixture(path string, store *cache.Store, strict bool) checkResult {
	start := time.Now()
	res := checkResult{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		res.loadErr = fmt.Errorf("reading fixture: %w", err)
		return res
	}

	mods, err := fixtures.Decode(data)
	if err != nil {
		res.loadErr = err
		return res
	}

	loader := module.NewLoader()
	for _, mod := range mods {
		loader.Add(mod)
	}

	table := symbols.NewTable()
	for _, mod := range loader.All() {
		table.LoadModule(mod)
	}
	res.symbolCount = len(table.AllPaths())

	checker := analyzer.New(table)
	checker.Strict = strict
	res.errs = checker.TypeCheckModules()
	res.duration = time.Since(start)

	if store != nil {
		ctx := context.Background()
		hash := sourceHash(data)
		for _, p := range sortedPaths(table) {
			sym, ok := table.Lookup(p)
			if !ok || sym.Procedure == nil {
				continue
			}
			if _, hit, err := store.Lookup(ctx, string(p), hash); err == nil && hit {
				continue
			}
			sig := "("
			for i, param := range sym.Procedure.ParameterTypes {
				if i > 0 {
					sig += ", "
				}
				sig += checker.Scope.Render(param)
			}
			sig += ") -> " + checker.Scope.Render(sym.Procedure.Returns)
			_ = store.Store(ctx, string(p), hash, sig)
		}
	}

	return res
}

func sortedPaths(table *symbols.Table) []symbols.Path {
	paths := table.AllPaths()
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}

func sourceHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func printDiagnostic(fixturePath string, e *diagnostics.DiagnosticError, colorize bool) {
	prefix := "error"
	if colorize {
		prefix = "\x1b[31merror\x1b[0m"
	}
	fmt.Fprintf(os.Stdout, "%s: %s: %s\n", prefix, fixturePath, e.Error())
}
