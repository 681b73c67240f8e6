// Package discover finds command and query handlers in Go source trees and
// renders the code registering them on the buses.
//
// Discovery is a build step: cmd/cqrsgen runs it and writes the generated
// file into the application, which then registers its handlers without any
// runtime scanning.
package discover

import (
	"cmp"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/code19m/errx"
	"golang.org/x/mod/modfile"

	"github.com/rise-and-shine/dispatch/cqrs"
)

const (
	CodeScanFailed = "DISCOVER_SCAN_FAILED"
)

// DefaultFilePatterns select the files considered by Scan.
//
//nolint:gochecknoglobals // read-only defaults
var DefaultFilePatterns = []string{"*_handler.go", "*.handler.go"}

//nolint:gochecknoglobals // read-only defaults
var skippedDirs = []string{"vendor", "testdata", "node_modules"}

// Options configures Scan.
type Options struct {
	// FilePatterns are filepath.Match patterns on file names.
	// Empty means DefaultFilePatterns.
	FilePatterns []string

	// Exclude lists directory names that are skipped wherever they appear.
	Exclude []string
}

// Handler is a discovered handler type.
type Handler struct {
	Kind       cqrs.Kind
	TypeName   string
	Identifier string

	// Package is the import path and PackageName the declared name of the
	// package defining the handler.
	Package     string
	PackageName string

	// Constructor is the name of the New<TypeName> function, empty when the
	// package does not declare one.
	Constructor string

	File string
}

// Scan walks root and returns the handlers declared in matching files,
// sorted by kind and identifier.
//
// A type is a handler when it is exported and its name ends with
// "CommandHandler" or "QueryHandler". Import paths are derived from the
// go.mod found in root or one of its parents.
func Scan(root string, opts Options) ([]Handler, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithCode(CodeScanFailed))
	}

	modDir, modPath, err := findModule(absRoot)
	if err != nil {
		return nil, err
	}

	patterns := opts.FilePatterns
	if len(patterns) == 0 {
		patterns = DefaultFilePatterns
	}

	var handlers []Handler
	constructors := make(map[string]map[string]bool)

	err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != absRoot && skipDir(d.Name(), opts.Exclude) {
				return filepath.SkipDir
			}
			return nil
		}

		if !matchFile(d.Name(), patterns) {
			return nil
		}

		found, err := scanFile(p)
		if err != nil || len(found) == 0 {
			return err
		}

		dir := filepath.Dir(p)
		if _, seen := constructors[dir]; !seen {
			ctors, err := scanConstructors(dir)
			if err != nil {
				return err
			}
			constructors[dir] = ctors
		}

		rel, err := filepath.Rel(modDir, dir)
		if err != nil {
			return err
		}
		importPath := path.Join(modPath, filepath.ToSlash(rel))

		for _, h := range found {
			h.Package = importPath
			if constructors[dir]["New"+h.TypeName] {
				h.Constructor = "New" + h.TypeName
			}
			handlers = append(handlers, h)
		}
		return nil
	})
	if err != nil {
		return nil, errx.Wrap(err, errx.WithCode(CodeScanFailed), errx.WithDetails(errx.D{"root": root}))
	}

	slices.SortFunc(handlers, func(a, b Handler) int {
		return cmp.Or(cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.Identifier, b.Identifier))
	})
	return handlers, nil
}

func scanFile(p string) ([]Handler, error) {
	file, err := parser.ParseFile(token.NewFileSet(), p, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}

	var handlers []Handler
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok || !ts.Name.IsExported() {
				continue
			}
			kind, ok := handlerKind(ts.Name.Name)
			if !ok {
				continue
			}
			handlers = append(handlers, Handler{
				Kind:        kind,
				TypeName:    ts.Name.Name,
				Identifier:  cqrs.IdentifierFor(kind, ts.Name.Name),
				PackageName: file.Name.Name,
				File:        p,
			})
		}
	}
	return handlers, nil
}

// scanConstructors returns the exported top-level functions of the
// non-test Go files in dir.
func scanConstructors(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	funcs := make(map[string]bool)
	fset := token.NewFileSet()
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}

		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, err
		}
		for _, decl := range file.Decls {
			if fn, ok := decl.(*ast.FuncDecl); ok && fn.Recv == nil && fn.Name.IsExported() {
				funcs[fn.Name.Name] = true
			}
		}
	}
	return funcs, nil
}

func handlerKind(typeName string) (cqrs.Kind, bool) {
	for _, k := range []cqrs.Kind{cqrs.KindCommand, cqrs.KindQuery} {
		if cqrs.IsHandlerTypeName(k, typeName) {
			return k, true
		}
	}
	return 0, false
}

func matchFile(name string, patterns []string) bool {
	if strings.HasSuffix(name, "_test.go") {
		return false
	}
	return slices.ContainsFunc(patterns, func(p string) bool {
		ok, _ := filepath.Match(p, name)
		return ok
	})
}

func skipDir(name string, exclude []string) bool {
	return strings.HasPrefix(name, ".") ||
		slices.Contains(skippedDirs, name) ||
		slices.Contains(exclude, name)
}

// findModule returns the directory and module path of the go.mod governing dir.
func findModule(dir string) (string, string, error) {
	for d := dir; ; d = filepath.Dir(d) {
		data, err := os.ReadFile(filepath.Join(d, "go.mod"))
		if err == nil {
			modPath := modfile.ModulePath(data)
			if modPath == "" {
				return "", "", errx.New("go.mod has no module directive",
					errx.WithCode(CodeScanFailed), errx.WithDetails(errx.D{"dir": d}))
			}
			return d, modPath, nil
		}
		if !os.IsNotExist(err) {
			return "", "", errx.Wrap(err, errx.WithCode(CodeScanFailed))
		}
		if filepath.Dir(d) == d {
			return "", "", errx.New("no go.mod found",
				errx.WithCode(CodeScanFailed), errx.WithDetails(errx.D{"dir": dir}))
		}
	}
}
