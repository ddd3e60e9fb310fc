package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	sqlKeywords   = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with)\b`)
	markerPattern = regexp.MustCompile(`^--sql ([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)
)

// Finding is one problem with a query constant.
type Finding struct {
	File    string
	Line    int
	Name    string
	Message string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", f.File, f.Line, f.Message, f.Name)
}

type markerSite struct {
	file string
	line int
	name string
}

// Linter checks that every SQL string constant starts with a unique
// "--sql <uuid>" marker. Markers let slow-query logs point back at the
// constant that issued the statement.
type Linter struct {
	findings []Finding
	markers  map[string][]markerSite
}

func NewLinter() *Linter {
	return &Linter{markers: map[string][]markerSite{}}
}

// Walk lints every .go file under root, skipping hidden and vendor
// directories.
func (l *Linter) Walk(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		return l.File(path, nil)
	})
}

// File lints one file. src may be nil to read from disk.
func (l *Linter) File(path string, src any) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, 0)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	ast.Inspect(file, func(n ast.Node) bool {
		spec, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, value := range spec.Values {
			lit, ok := value.(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			raw, err := unquote(lit.Value)
			if err != nil || !sqlKeywords.MatchString(raw) {
				continue
			}
			name := "_"
			if i < len(spec.Names) {
				name = spec.Names[i].Name
			}
			site := markerSite{file: path, line: fset.Position(lit.Pos()).Line, name: name}
			m := markerPattern.FindStringSubmatch(firstLine(raw))
			if m == nil {
				l.add(site, "missing or invalid --sql <uuid> marker")
				continue
			}
			l.markers[m[1]] = append(l.markers[m[1]], site)
		}
		return true
	})
	return nil
}

// Findings returns missing markers plus every reuse of a marker, in file
// and line order.
func (l *Linter) Findings() []Finding {
	out := append([]Finding(nil), l.findings...)
	for id, sites := range l.markers {
		if len(sites) < 2 {
			continue
		}
		first := sites[0]
		for _, s := range sites[1:] {
			out = append(out, Finding{
				File:    s.file,
				Line:    s.line,
				Name:    s.name,
				Message: fmt.Sprintf("marker %s already used by %s at %s:%d", id, first.name, first.file, first.line),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Line < out[j].Line
	})
	return out
}

func (l *Linter) add(s markerSite, msg string) {
	l.findings = append(l.findings, Finding{File: s.file, Line: s.line, Name: s.name, Message: msg})
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if v == "" {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}
