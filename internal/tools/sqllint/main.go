// Command sqllint checks every SQL string constant in the tree for the
// --sql <uuid> marker line and for living under internal/sqlinline.
// The marker keys runtime log lines back to their statement; the
// location rule keeps SQL out of handlers and repositories.
//
// Run it over the repository root:
//
//	go run ./internal/tools/sqllint .
package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// statementPattern matches statement shapes rather than bare keywords,
// so prose mentioning "update" or "with" does not trip the lint.
var statementPattern = regexp.MustCompile(`(?is)(\bselect\b.*\bfrom\b|\binsert\s+into\b|\bupdate\b.*\bset\b|\bdelete\s+from\b|\bwith\b.*\bas\s*\()`)

var markerPattern = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

type finding struct {
	pos     token.Position
	name    string
	message string
}

func main() {
	roots := os.Args[1:]
	if len(roots) == 0 {
		roots = []string{"."}
	}

	var findings []finding
	for _, root := range roots {
		fs, err := lintTree(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
		findings = append(findings, fs...)
	}

	for _, f := range findings {
		fmt.Fprintf(os.Stderr, "%s:%d: %s (%s)\n", f.pos.Filename, f.pos.Line, f.message, f.name)
	}
	if len(findings) > 0 {
		os.Exit(1)
	}
}

func lintTree(root string) ([]finding, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return lintFile(root)
	}

	var findings []finding
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		fs, err := lintFile(path)
		if err != nil {
			return err
		}
		findings = append(findings, fs...)
		return nil
	})
	return findings, err
}

// lintFile inspects const and var declarations only. String literals
// built by concatenation are invisible here, which is why the
// sqlinline package keeps every statement in one literal.
func lintFile(path string) ([]finding, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}
	inline := strings.Contains(filepath.ToSlash(path), "internal/sqlinline/")

	var findings []finding
	ast.Inspect(file, func(n ast.Node) bool {
		spec, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for _, value := range spec.Values {
			lit, ok := value.(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			text, err := unquote(lit.Value)
			if err != nil || !statementPattern.MatchString(text) {
				continue
			}
			pos := fset.Position(lit.Pos())
			if !inline {
				findings = append(findings, finding{pos: pos, name: specName(spec), message: "sql statement outside internal/sqlinline"})
				continue
			}
			if !markerPattern.MatchString(markerLine(text)) {
				findings = append(findings, finding{pos: pos, name: specName(spec), message: "missing or invalid --sql <uuid> marker"})
			}
		}
		return true
	})
	return findings, nil
}

func markerLine(s string) string {
	s = strings.TrimLeft(s, " \t\r\n")
	if idx := strings.IndexAny(s, "\r\n"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if strings.HasPrefix(v, "`") {
		return strings.Trim(v, "`"), nil
	}
	return strconv.Unquote(v)
}

func specName(spec *ast.ValueSpec) string {
	names := make([]string, 0, len(spec.Names))
	for _, ident := range spec.Names {
		if ident != nil {
			names = append(names, ident.Name)
		}
	}
	return strings.Join(names, ",")
}
