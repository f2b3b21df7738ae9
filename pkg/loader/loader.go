// Package loader discovers blueprint definitions in Go source files and
// generates the registry file that makes them available by name.
package loader

import (
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/marshallshelly/modelcitizen/pkg/blueprint"
)

// Definition is a blueprint definition struct found in source.
type Definition struct {
	Name    string // struct name
	Model   string // target model as written, e.g. "Car" or "models.Car"
	Alias   string
	Package string
	File    string
	Line    int
	Base    string // embedded base definition, if any
	Rules   []Rule
}

// Rule is one tagged field of a definition.
type Rule struct {
	Field string
	Kind  string
	Tag   string
}

// FindDefinitions scans a file or directory (recursively) for structs that
// embed blueprint.Of[T], directly or through another definition found in
// the same scan. Test and generated files are skipped.
func FindDefinitions(path string) ([]Definition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	var filesToParse []string

	if info.IsDir() {
		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isSourceFile(d.Name()) {
				filesToParse = append(filesToParse, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk directory: %w", err)
		}
	} else {
		if !strings.HasSuffix(path, ".go") {
			return nil, fmt.Errorf("file must have .go extension")
		}
		filesToParse = append(filesToParse, path)
	}

	var candidates []*Definition
	for _, file := range filesToParse {
		found, err := definitionsInFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load definitions from %s: %w", file, err)
		}
		candidates = append(candidates, found...)
	}

	return resolveBases(candidates), nil
}

func isSourceFile(name string) bool {
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasSuffix(name, ".gen.go")
}

// definitionsInFile returns every struct in filename that embeds a marker
// or another struct; the latter are kept as candidates for resolveBases.
func definitionsInFile(filename string) ([]*Definition, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filename, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	var defs []*Definition
	for _, decl := range node.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}

		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			structType, ok := typeSpec.Type.(*ast.StructType)
			if !ok || structType.Fields == nil {
				continue
			}

			def := &Definition{
				Name:    typeSpec.Name.Name,
				Package: node.Name.Name,
				File:    filename,
				Line:    fset.Position(typeSpec.Pos()).Line,
			}
			if inspectStruct(def, structType) {
				defs = append(defs, def)
			}
		}
	}
	return defs, nil
}

// inspectStruct fills def from the struct's fields and reports whether the
// struct can be a definition.
func inspectStruct(def *Definition, st *ast.StructType) bool {
	candidate := false
	for _, f := range st.Fields.List {
		tag := ""
		if f.Tag != nil {
			tag = reflect.StructTag(strings.Trim(f.Tag.Value, "`")).Get(blueprint.StructTagKey)
		}

		if len(f.Names) == 0 {
			if model, ok := markerTarget(f.Type); ok {
				def.Model = model
				def.Alias = blueprint.DefaultAlias
				if opts, err := blueprint.ParseTag("of," + tag); err == nil && opts.Get("alias") != "" {
					def.Alias = opts.Get("alias")
				}
				candidate = true
				continue
			}
			if ident, ok := f.Type.(*ast.Ident); ok && def.Base == "" {
				def.Base = ident.Name
				candidate = true
			}
			continue
		}

		if tag == "" || tag == "-" {
			continue
		}
		opts, err := blueprint.ParseTag(tag)
		if err != nil {
			continue
		}
		for _, name := range f.Names {
			def.Rules = append(def.Rules, Rule{Field: name.Name, Kind: opts.Kind, Tag: tag})
		}
	}
	return candidate
}

// markerTarget matches blueprint.Of[X] and Of[X], returning X as written.
func markerTarget(expr ast.Expr) (string, bool) {
	idx, ok := expr.(*ast.IndexExpr)
	if !ok {
		return "", false
	}

	switch x := idx.X.(type) {
	case *ast.SelectorExpr:
		if x.Sel.Name != "Of" {
			return "", false
		}
	case *ast.Ident:
		if x.Name != "Of" {
			return "", false
		}
	default:
		return "", false
	}

	return types.ExprString(idx.Index), true
}

// resolveBases gives definitions that only embed another definition the
// base's model, and drops candidates that never reach a marker.
func resolveBases(candidates []*Definition) []Definition {
	byName := make(map[string]*Definition, len(candidates))
	for _, d := range candidates {
		byName[d.Package+"."+d.Name] = d
	}

	var resolve func(d *Definition, seen map[*Definition]bool) bool
	resolve = func(d *Definition, seen map[*Definition]bool) bool {
		if d.Model != "" {
			return true
		}
		if d.Base == "" || seen[d] {
			return false
		}
		seen[d] = true
		base, ok := byName[d.Package+"."+d.Base]
		if !ok || !resolve(base, seen) {
			return false
		}
		d.Model, d.Alias = base.Model, base.Alias
		return true
	}

	var out []Definition
	for _, d := range candidates {
		if resolve(d, map[*Definition]bool{}) {
			out = append(out, *d)
		}
	}

	slices.SortFunc(out, func(a, b Definition) int {
		if c := strings.Compare(a.Package, b.Package); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// PackageName extracts the package name from the first Go file in a directory.
func PackageName(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	for _, file := range files {
		if file.IsDir() || !isSourceFile(file.Name()) {
			continue
		}

		path := filepath.Join(dir, file.Name())
		fset := token.NewFileSet()
		f, err := parser.ParseFile(fset, path, nil, parser.PackageClauseOnly)
		if err != nil {
			continue
		}

		return f.Name.Name, nil
	}

	return "", fmt.Errorf("no Go files found in %s", dir)
}

// GenerateRegistryFile writes a Go file for package pkg whose init function
// registers every definition of that package, and every model declared
// alongside them, with the global registry.
func GenerateRegistryFile(w io.Writer, pkg string, defs []Definition) error {
	var names, models []string
	for _, d := range defs {
		if d.Package != pkg {
			continue
		}
		if !slices.Contains(names, d.Name) {
			names = append(names, d.Name)
		}
		// models from other packages are registered by their own package
		if token.IsIdentifier(d.Model) && !slices.Contains(models, d.Model) {
			models = append(models, d.Model)
		}
	}
	slices.Sort(names)
	slices.Sort(models)

	var sb strings.Builder
	sb.WriteString("// Code generated by citizen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&sb, "package %s\n\n", pkg)
	sb.WriteString("import \"github.com/marshallshelly/modelcitizen/pkg/registry\"\n\n")
	sb.WriteString("func init() {\n")
	for _, name := range models {
		fmt.Fprintf(&sb, "\tif err := registry.RegisterModel(%s{}); err != nil {\n\t\tpanic(err)\n\t}\n", name)
	}
	for _, name := range names {
		fmt.Fprintf(&sb, "\tif err := registry.RegisterDefinition(%s{}); err != nil {\n\t\tpanic(err)\n\t}\n", name)
	}
	sb.WriteString("}\n")

	src, err := format.Source([]byte(sb.String()))
	if err != nil {
		return fmt.Errorf("failed to format generated file: %w", err)
	}
	_, err = w.Write(src)
	return err
}
