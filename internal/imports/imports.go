// Package imports tracks ES module import bindings and edits them without
// ever producing duplicate specifiers.
package imports

import (
	"strings"

	"github.com/phobologic/i18nmigrate/internal/syntax"
)

// Kind is the form of an import specifier.
type Kind string

const (
	Named     Kind = "named"
	Default   Kind = "default"
	Namespace Kind = "namespace"
)

// Binding identifies an imported local name. An empty Module matches any
// module specifier.
type Binding struct {
	Module   string
	Imported string
	Local    string
	Kind     Kind
}

// Specifier is a binding found in the tree.
type Specifier struct {
	Binding
	Node int
}

// Declaration is one import statement.
type Declaration struct {
	Node       int
	Module     string
	Quote      byte
	Named      int // named_imports node, or syntax.None
	TypeOnly   bool
	Specifiers []Specifier
}

// Manager reads the import declarations of a tree and records pending
// changes. Changes reach an edit set only through Flush, so several
// operations on one declaration combine into a single consistent edit.
type Manager struct {
	tree    *syntax.Tree
	decls   []Declaration
	removed map[int]bool
	renamed map[int]string
	added   map[int][]string // declaration index -> specifier texts
	created []string
}

// NewManager scans the import declarations of t.
func NewManager(t *syntax.Tree) *Manager {
	m := &Manager{
		tree:    t,
		removed: make(map[int]bool),
		renamed: make(map[int]string),
		added:   make(map[int][]string),
	}
	for _, id := range t.FindKind("import_statement") {
		if t.Parent(id) == t.Root() {
			m.decls = append(m.decls, m.parseDeclaration(id))
		}
	}
	return m
}

func (m *Manager) parseDeclaration(id int) Declaration {
	t := m.tree
	d := Declaration{Node: id, Named: syntax.None, Quote: '\''}
	if src := t.ChildByField(id, "source"); src != syntax.None {
		d.Module, _ = t.StringValue(src)
		if text := t.Text(src); text != "" {
			d.Quote = text[0]
		}
	}
	for _, c := range t.Nodes[id].Children {
		switch t.Kind(c) {
		case "type":
			d.TypeOnly = true
		case "import_clause":
			m.parseClause(&d, c)
		}
	}
	return d
}

func (m *Manager) parseClause(d *Declaration, clause int) {
	t := m.tree
	for _, c := range t.Elements(clause) {
		switch t.Kind(c) {
		case "identifier":
			name := t.Text(c)
			d.Specifiers = append(d.Specifiers, Specifier{
				Binding: Binding{Module: d.Module, Imported: "default", Local: name, Kind: Default},
				Node:    c,
			})
		case "namespace_import":
			for _, n := range t.Elements(c) {
				if t.Kind(n) == "identifier" {
					d.Specifiers = append(d.Specifiers, Specifier{
						Binding: Binding{Module: d.Module, Imported: "*", Local: t.Text(n), Kind: Namespace},
						Node:    c,
					})
				}
			}
		case "named_imports":
			d.Named = c
			for _, s := range t.Elements(c) {
				if t.Kind(s) != "import_specifier" {
					continue
				}
				imported := t.Text(t.ChildByField(s, "name"))
				local := imported
				if alias := t.ChildByField(s, "alias"); alias != syntax.None {
					local = t.Text(alias)
				}
				d.Specifiers = append(d.Specifiers, Specifier{
					Binding: Binding{Module: d.Module, Imported: imported, Local: local, Kind: Named},
					Node:    s,
				})
			}
		}
	}
}

// Declarations returns the top-level import declarations in document order.
func (m *Manager) Declarations() []Declaration {
	return m.decls
}

// Find returns the specifiers matching b. Empty fields of b match anything.
func (m *Manager) Find(b Binding) []Specifier {
	var out []Specifier
	for _, d := range m.decls {
		for _, s := range d.Specifiers {
			if m.removed[s.Node] {
				continue
			}
			if (b.Module == "" || b.Module == s.Module) &&
				(b.Imported == "" || b.Imported == s.Imported) &&
				(b.Local == "" || b.Local == s.Local) &&
				(b.Kind == "" || b.Kind == s.Kind) {
				out = append(out, s)
			}
		}
	}
	return out
}

// References counts uses of name outside the node exclude.
func (m *Manager) References(name string, exclude int) int {
	t := m.tree
	count := 0
	for id := range t.Nodes {
		switch t.Nodes[id].Kind {
		case "identifier", "type_identifier", "shorthand_property_identifier",
			"shorthand_property_identifier_pattern":
		default:
			continue
		}
		if t.Text(id) != name {
			continue
		}
		if exclude != syntax.None && t.Contains(exclude, id) {
			continue
		}
		count++
	}
	return count
}

// RemoveIfDead drops every specifier matching b whose local name has no
// references left in the file. It reports whether anything was removed.
func (m *Manager) RemoveIfDead(b Binding) bool {
	removed := false
	for _, s := range m.Find(b) {
		if m.References(s.Local, s.Node) == 0 {
			m.removed[s.Node] = true
			removed = true
		}
	}
	return removed
}

// RemoveSpecifier drops the named import of imported from module regardless
// of remaining references.
func (m *Manager) RemoveSpecifier(module, imported string) bool {
	found := m.Find(Binding{Module: module, Imported: imported, Kind: Named})
	for _, s := range found {
		m.removed[s.Node] = true
	}
	return len(found) > 0
}

// Remove drops one specifier.
func (m *Manager) Remove(s Specifier) {
	m.removed[s.Node] = true
}

// Rename changes the local name of the named import of imported from module
// whose local name is from. It does nothing if a specifier with local name to
// already exists, so a rename never produces a duplicate binding.
func (m *Manager) Rename(module, imported, from, to string) bool {
	if from == to || len(m.Find(Binding{Local: to})) > 0 {
		return false
	}
	renamed := false
	for _, s := range m.Find(Binding{Module: module, Imported: imported, Local: from, Kind: Named}) {
		m.renamed[s.Node] = specifierText(imported, to)
		renamed = true
	}
	return renamed
}

// EnsureImport makes sure `import { imported as local } from module` exists,
// appending to an existing declaration of module when possible and
// otherwise adding a declaration after the last import.
func (m *Manager) EnsureImport(module, imported, local string) bool {
	if local == "" {
		local = imported
	}
	if len(m.Find(Binding{Module: module, Imported: imported, Local: local, Kind: Named})) > 0 {
		return false
	}
	text := specifierText(imported, local)
	for i, d := range m.decls {
		if d.Module != module || d.TypeOnly || m.hasNamespace(d) {
			continue
		}
		for _, a := range m.added[i] {
			if a == text {
				return false
			}
		}
		m.added[i] = append(m.added[i], text)
		return true
	}

	quote := byte('\'')
	if len(m.decls) > 0 {
		quote = m.decls[len(m.decls)-1].Quote
	}
	decl := "import { " + text + " } from " + string(quote) + module + string(quote) + ";"
	for _, c := range m.created {
		if c == decl {
			return false
		}
	}
	m.created = append(m.created, decl)
	return true
}

func (m *Manager) hasNamespace(d Declaration) bool {
	for _, s := range d.Specifiers {
		if s.Kind == Namespace {
			return true
		}
	}
	return false
}

func specifierText(imported, local string) string {
	if imported == local {
		return imported
	}
	return imported + " as " + local
}

// Flush writes the pending changes into e.
func (m *Manager) Flush(e *syntax.Edits) {
	anchor, firstRemoved := syntax.None, syntax.None
	for i, d := range m.decls {
		if m.flushDeclaration(e, d, m.added[i]) {
			if firstRemoved == syntax.None {
				firstRemoved = d.Node
			}
			continue
		}
		anchor = d.Node
	}

	if len(m.created) == 0 {
		return
	}
	block := strings.Join(m.created, "\n")
	switch {
	case anchor != syntax.None:
		// Insertions inside a removed declaration are dropped with it.
		e.InsertAfter(anchor, "\n"+block)
	case firstRemoved != syntax.None:
		e.InsertAt(m.lineStart(firstRemoved), block+"\n")
	default:
		pos := m.insertionPoint()
		if strings.TrimSpace(string(m.tree.Source[:pos])) == "" {
			pos = 0
		}
		sep := "\n"
		rest := strings.TrimLeft(string(m.tree.Source[pos:]), " \t\r")
		if rest != "" && !strings.HasPrefix(rest, "\n") {
			sep = "\n\n"
		}
		e.InsertAt(pos, block+sep)
	}
}

// lineStart returns the offset of the first byte of id's line when only
// blanks precede id on it, and id's own start otherwise.
func (m *Manager) lineStart(id int) int {
	src := m.tree.Source
	start := m.tree.Nodes[id].Start
	for start > 0 && (src[start-1] == ' ' || src[start-1] == '\t') {
		start--
	}
	if start == 0 || src[start-1] == '\n' {
		return start
	}
	return m.tree.Nodes[id].Start
}

// flushDeclaration edits one declaration and reports whether it was removed.
func (m *Manager) flushDeclaration(e *syntax.Edits, d Declaration, added []string) bool {
	t := m.tree
	var keptDefault, keptNamed []Specifier
	removedAny, renamedAny := false, false
	for _, s := range d.Specifiers {
		if m.removed[s.Node] {
			removedAny = true
			continue
		}
		if _, ok := m.renamed[s.Node]; ok {
			renamedAny = true
		}
		if s.Kind == Named {
			keptNamed = append(keptNamed, s)
		} else {
			keptDefault = append(keptDefault, s)
		}
	}
	if !removedAny && !renamedAny && len(added) == 0 {
		return false
	}

	if len(keptDefault) == 0 && len(keptNamed) == 0 && len(added) == 0 {
		e.Remove(d.Node)
		return true
	}

	if !removedAny && len(added) == 0 {
		for _, s := range keptNamed {
			if text, ok := m.renamed[s.Node]; ok {
				e.Replace(s.Node, text)
			}
		}
		return false
	}

	// Re-render the import clause from what is kept.
	var named []string
	for _, s := range keptNamed {
		if text, ok := m.renamed[s.Node]; ok {
			named = append(named, text)
		} else {
			named = append(named, t.Text(s.Node))
		}
	}
	named = append(named, added...)

	var parts []string
	for _, s := range keptDefault {
		if s.Kind == Namespace {
			parts = append(parts, t.Text(s.Node))
		} else {
			parts = append(parts, s.Local)
		}
	}
	if len(named) > 0 {
		parts = append(parts, "{ "+strings.Join(named, ", ")+" }")
	}

	clause := syntax.None
	for _, c := range t.Nodes[d.Node].Children {
		if t.Kind(c) == "import_clause" {
			clause = c
		}
	}
	if clause == syntax.None {
		return false
	}
	e.Replace(clause, strings.Join(parts, ", "))
	return false
}

// insertionPoint is the offset of the first statement that is neither a
// comment nor a directive prologue entry such as 'use client'.
func (m *Manager) insertionPoint() int {
	t := m.tree
	for _, c := range t.Nodes[t.Root()].Children {
		switch t.Kind(c) {
		case "comment", "hash_bang_line":
			continue
		case "expression_statement":
			if els := t.Elements(c); len(els) == 1 && t.Kind(els[0]) == "string" {
				continue
			}
		}
		return t.Nodes[c].Start
	}
	return len(t.Source)
}
