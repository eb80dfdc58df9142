// Package scope finds the function enclosing a usage site and classifies it
// by the React naming convention.
package scope

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/phobologic/i18nmigrate/internal/syntax"
)

// Kind is the syntactic form of a function.
type Kind string

const (
	Declaration Kind = "declaration"
	Expression  Kind = "expression"
	Arrow       Kind = "arrow"
)

// Class is the naming-convention classification of a function.
type Class string

const (
	Component Class = "component"
	Hook      Class = "hook"
	Other     Class = "other"
)

var functionKinds = map[string]Kind{
	"function_declaration":           Declaration,
	"generator_function_declaration": Declaration,
	"function":                       Expression,
	"function_expression":            Expression,
	"generator_function":             Expression,
	"arrow_function":                 Arrow,
}

// Expression wrappers a function may sit in between itself and the
// declarator that names it, e.g. memo(() => ...) or (() => ...) as FC.
var wrapperKinds = map[string]struct{}{
	"parenthesized_expression": {},
	"arguments":                {},
	"call_expression":          {},
	"as_expression":            {},
	"satisfies_expression":     {},
	"non_null_expression":      {},
}

// Record describes the function enclosing a usage site.
type Record struct {
	Node  int
	Kind  Kind
	Name  string
	Class Class
}

// Qualifies reports whether the function may receive a context hook call.
func (r *Record) Qualifies() bool {
	return r.Class == Component || r.Class == Hook
}

// Resolver answers scope queries over one Tree by chasing parent indices.
type Resolver struct {
	tree *syntax.Tree
}

// NewResolver creates a Resolver for t.
func NewResolver(t *syntax.Tree) *Resolver {
	return &Resolver{tree: t}
}

// Enclosing returns the nearest function strictly enclosing id, or nil.
func (r *Resolver) Enclosing(id int) *Record {
	for p := r.tree.Parent(id); p != syntax.None; p = r.tree.Parent(p) {
		kind, ok := functionKinds[r.tree.Kind(p)]
		if !ok {
			continue
		}
		name := r.name(p)
		return &Record{Node: p, Kind: kind, Name: name, Class: Classify(name)}
	}
	return nil
}

// Qualifying returns the nearest enclosing component or hook, climbing past
// callbacks and helpers nested inside it. It returns nil when no enclosing
// function qualifies.
func (r *Resolver) Qualifying(id int) *Record {
	for rec := r.Enclosing(id); rec != nil; rec = r.Enclosing(rec.Node) {
		if rec.Qualifies() {
			return rec
		}
	}
	return nil
}

// name infers a function's name from its own identifier or from the
// variable declarator it initializes.
func (r *Resolver) name(fn int) string {
	t := r.tree
	if id := t.ChildByField(fn, "name"); t.Kind(id) == "identifier" {
		return t.Text(id)
	}

	child, p := fn, t.Parent(fn)
	for p != syntax.None {
		kind := t.Kind(p)
		if kind == "variable_declarator" {
			if t.ChildByField(p, "value") != child {
				return ""
			}
			if id := t.ChildByField(p, "name"); t.Kind(id) == "identifier" {
				return t.Text(id)
			}
			return ""
		}
		if _, ok := wrapperKinds[kind]; !ok {
			return ""
		}
		// A function in callee position (an IIFE) is not named by the call's binding.
		if kind == "call_expression" && t.Kind(child) != "arguments" {
			return ""
		}
		child, p = p, t.Parent(p)
	}
	return ""
}

// Classify applies the naming convention: an uppercase first letter marks a
// component, "use" followed by an uppercase letter marks a hook.
func Classify(name string) Class {
	first, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return Other
	}
	if unicode.IsUpper(first) {
		return Component
	}
	if rest, ok := strings.CutPrefix(name, "use"); ok {
		if next, n := utf8.DecodeRuneInString(rest); n > 0 && unicode.IsUpper(next) {
			return Hook
		}
	}
	return Other
}
