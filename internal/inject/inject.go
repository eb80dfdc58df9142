// Package inject adds a context-acquisition statement to the components and
// hooks that use a translation macro and rewrites the usages to consume it.
package inject

import (
	"sort"
	"strings"

	"github.com/phobologic/i18nmigrate/internal/scope"
	"github.com/phobologic/i18nmigrate/internal/syntax"
)

// Rewrite returns the replacement text for a usage node. It receives the
// edit set so a usage containing other rewritten usages can Render them.
type Rewrite func(e *syntax.Edits, usage int) (string, error)

// Set records the function nodes already injected during one pass.
type Set map[int]bool

// Result summarizes one injection pass.
type Result struct {
	// Functions lists the names of the injected functions in document order.
	Functions []string
	// Unscoped counts usages with no enclosing component or hook.
	Unscoped int
}

// Pass injects statement into the nearest component or hook enclosing each
// usage and rewrites every usage with rewrite.
type Pass struct {
	Statement string
	Rewrite   Rewrite
	// Indent is the unit added per nesting level. Defaults to two spaces.
	Indent string
}

// Run records the pass's edits for usages into e. Usages must be given in
// document order. set may be nil. The first rewrite error aborts the run.
func (p *Pass) Run(t *syntax.Tree, e *syntax.Edits, usages []int, set Set) (Result, error) {
	if set == nil {
		set = make(Set)
	}
	var res Result
	resolver := scope.NewResolver(t)

	var targets []*scope.Record
	for _, u := range usages {
		rec := resolver.Qualifying(u)
		if rec == nil {
			res.Unscoped++
			continue
		}
		if set[rec.Node] {
			continue
		}
		set[rec.Node] = true
		targets = append(targets, rec)
	}

	// Innermost usages first so an enclosing usage renders their rewrites.
	for i := len(usages) - 1; i >= 0; i-- {
		text, err := p.Rewrite(e, usages[i])
		if err != nil {
			return Result{}, err
		}
		e.Replace(usages[i], text)
	}

	// Functions that start later are nested deeper or come later; either
	// way they never contain an earlier one, so descending start order
	// lets an outer body wrap render the inner edits.
	sort.SliceStable(targets, func(i, j int) bool {
		return t.Nodes[targets[i].Node].Start > t.Nodes[targets[j].Node].Start
	})
	for _, rec := range targets {
		if p.inject(t, e, rec.Node) {
			res.Functions = append(res.Functions, rec.Name)
		}
	}

	for i, j := 0, len(res.Functions)-1; i < j; i, j = i+1, j-1 {
		res.Functions[i], res.Functions[j] = res.Functions[j], res.Functions[i]
	}
	return res, nil
}

func (p *Pass) indent() string {
	if p.Indent == "" {
		return "  "
	}
	return p.Indent
}

// inject adds the statement to the body of fn, wrapping an expression body
// first. It reports false when the body already begins with the statement.
func (p *Pass) inject(t *syntax.Tree, e *syntax.Edits, fn int) bool {
	body := t.ChildByField(fn, "body")
	if body == syntax.None {
		return false
	}
	base := t.LineIndent(t.Nodes[fn].Start)

	if t.Kind(body) != "statement_block" {
		inner := base + p.indent()
		expr := e.Render(t.Nodes[body].Start, t.Nodes[body].End)
		e.Replace(body, "{\n"+inner+p.Statement+"\n"+inner+"return "+expr+";\n"+base+"}")
		return true
	}

	stmts := t.Elements(body)
	if len(stmts) > 0 && sameStatement(t.Text(stmts[0]), p.Statement) {
		return false
	}

	open := t.Nodes[body].Start + 1
	if len(stmts) == 0 {
		e.InsertAt(open, "\n"+base+p.indent()+p.Statement+"\n"+base)
		return true
	}
	inner := base + p.indent()
	closeBraceOnOwnLine(t, e, body, stmts[len(stmts)-1], base)
	first := t.Nodes[stmts[0]].Start
	if lineOf(t, first) == lineOf(t, open) {
		// { return x; } on one line: move the first statement down too.
		e.ReplaceRange(open, first, "\n"+inner+p.Statement+"\n"+inner)
		return true
	}
	e.InsertAt(open, "\n"+t.LineIndent(first)+p.Statement)
	return true
}

// closeBraceOnOwnLine moves the closing brace of body to its own line when it
// shares one with the last statement.
func closeBraceOnOwnLine(t *syntax.Tree, e *syntax.Edits, body, last int, base string) {
	closing := t.Nodes[body].End - 1
	if lineOf(t, t.Nodes[last].End) != lineOf(t, closing) {
		return
	}
	start := closing
	for start > t.Nodes[last].End && (t.Source[start-1] == ' ' || t.Source[start-1] == '\t') {
		start--
	}
	e.ReplaceRange(start, closing, "\n"+base)
}

func lineOf(t *syntax.Tree, offset int) int {
	line, _ := t.Position(offset)
	return line
}

// sameStatement compares two statements ignoring whitespace.
func sameStatement(a, b string) bool {
	norm := func(s string) string {
		return strings.TrimSuffix(strings.Join(strings.Fields(s), ""), ";")
	}
	return norm(a) == norm(b)
}
