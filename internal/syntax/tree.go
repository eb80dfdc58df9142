// Package syntax turns tree-sitter parses into an index-addressed node arena
// and provides the query and byte-range edit operations the migration passes
// are built on.
package syntax

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/i18nmigrate/internal/lang"
)

// ErrSyntax is returned when the source does not parse cleanly.
var ErrSyntax = errors.New("syntax error")

// None is the ID returned by lookups that find nothing.
const None = -1

// Node is one entry of a Tree arena. Parent and Children hold arena indices.
type Node struct {
	Kind     string
	Field    string // field name within the parent, "" if unnamed
	Named    bool
	Missing  bool
	Start    int
	End      int
	Parent   int
	Children []int
}

// Tree is an immutable arena of nodes in document (pre-)order. Nodes[0] is
// the root. A Tree never holds tree-sitter memory, so it outlives the parse.
type Tree struct {
	Source []byte
	Nodes  []Node
}

// Parser parses source text into Trees. It wraps a single tree-sitter parser
// and must not be shared between goroutines.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a Parser for l.
func NewParser(l *lang.Language) *Parser {
	return &Parser{parser: l.NewParser()}
}

// Parse parses source and returns its arena. Sources with ERROR or MISSING
// nodes are rejected with ErrSyntax.
func (p *Parser) Parse(source []byte) (*Tree, error) {
	tsTree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	if tsTree == nil {
		return nil, fmt.Errorf("parsing: %w: no tree", ErrSyntax)
	}
	defer tsTree.Close()

	t := &Tree{Source: source}
	root := tsTree.RootNode()
	t.add(root, "", None)

	if root.HasError() {
		for id := range t.Nodes {
			n := &t.Nodes[id]
			if n.Kind == "ERROR" || n.Missing {
				line, col := t.Position(n.Start)
				return nil, fmt.Errorf("%w at %d:%d", ErrSyntax, line, col)
			}
		}
		return nil, ErrSyntax
	}
	return t, nil
}

func (t *Tree) add(n *sitter.Node, field string, parent int) int {
	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{
		Kind:    n.Type(),
		Field:   field,
		Named:   n.IsNamed(),
		Missing: n.IsMissing(),
		Start:   int(n.StartByte()),
		End:     int(n.EndByte()),
		Parent:  parent,
	})

	count := int(n.ChildCount())
	children := make([]int, 0, count)
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		children = append(children, t.add(child, n.FieldNameForChild(i), id))
	}
	t.Nodes[id].Children = children
	return id
}

// Root returns the ID of the program node.
func (t *Tree) Root() int {
	return 0
}

// Kind returns the node kind, or "" for None.
func (t *Tree) Kind(id int) string {
	if id == None {
		return ""
	}
	return t.Nodes[id].Kind
}

// Parent returns the parent ID, or None for the root.
func (t *Tree) Parent(id int) int {
	return t.Nodes[id].Parent
}

// Text returns the source text of a node.
func (t *Tree) Text(id int) string {
	n := &t.Nodes[id]
	return string(t.Source[n.Start:n.End])
}

// Find returns the IDs of every node matching pred, in document order.
func (t *Tree) Find(pred func(id int) bool) []int {
	var ids []int
	for id := range t.Nodes {
		if pred(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// FindKind returns every node of the given kind, in document order.
func (t *Tree) FindKind(kind string) []int {
	return t.Find(func(id int) bool { return t.Nodes[id].Kind == kind })
}

// ChildByField returns the first child stored under field, or None.
func (t *Tree) ChildByField(id int, field string) int {
	if id == None {
		return None
	}
	for _, c := range t.Nodes[id].Children {
		if t.Nodes[c].Field == field {
			return c
		}
	}
	return None
}

// Elements returns the named, non-comment children of a node. For list-like
// nodes (arguments, arrays, parameters, patterns) these are the list items.
func (t *Tree) Elements(id int) []int {
	var out []int
	for _, c := range t.Nodes[id].Children {
		n := &t.Nodes[c]
		if n.Named && n.Kind != "comment" {
			out = append(out, c)
		}
	}
	return out
}

// Contains reports whether id lies inside the byte range of outer (inclusive).
func (t *Tree) Contains(outer, id int) bool {
	o, n := &t.Nodes[outer], &t.Nodes[id]
	return n.Start >= o.Start && n.End <= o.End
}

// Unwrap skips parenthesized expressions.
func (t *Tree) Unwrap(id int) int {
	for id != None && t.Nodes[id].Kind == "parenthesized_expression" {
		els := t.Elements(id)
		if len(els) != 1 {
			return id
		}
		id = els[0]
	}
	return id
}

// Position returns the 1-based line and column of a byte offset.
func (t *Tree) Position(offset int) (line, col int) {
	before := t.Source[:offset]
	line = strings.Count(string(before), "\n") + 1
	col = offset - strings.LastIndexByte(string(before), '\n')
	return line, col
}

// LineIndent returns the leading whitespace of the line containing offset.
func (t *Tree) LineIndent(offset int) string {
	start := strings.LastIndexByte(string(t.Source[:offset]), '\n') + 1
	end := start
	for end < len(t.Source) && (t.Source[end] == ' ' || t.Source[end] == '\t') {
		end++
	}
	return string(t.Source[start:end])
}
