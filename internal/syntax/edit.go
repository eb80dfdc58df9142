package syntax

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrOverlappingEdits is returned by Apply when two edits partially overlap.
var ErrOverlappingEdits = errors.New("overlapping edits")

type edit struct {
	start, end int
	text       string
	seq        int
}

// Edits collects byte-range replacements against a Tree's source. Bytes no
// edit touches are copied verbatim, so formatting and comments survive.
//
// An edit fully contained in a larger one, or replacing the same range as a
// later one, is dropped on Apply: the outer edit is expected to have been
// built with Render, which already applied it.
type Edits struct {
	tree *Tree
	list []edit
}

// NewEdits starts an empty edit set for t.
func NewEdits(t *Tree) *Edits {
	return &Edits{tree: t}
}

// Tree returns the tree the edits apply to.
func (e *Edits) Tree() *Tree {
	return e.tree
}

// Len returns the number of recorded edits.
func (e *Edits) Len() int {
	return len(e.list)
}

// ReplaceRange replaces source[start:end] with text.
func (e *Edits) ReplaceRange(start, end int, text string) {
	e.list = append(e.list, edit{start: start, end: end, text: text, seq: len(e.list)})
}

// Replace replaces a node's text.
func (e *Edits) Replace(id int, text string) {
	n := &e.tree.Nodes[id]
	e.ReplaceRange(n.Start, n.End, text)
}

// InsertAt inserts text at a byte offset.
func (e *Edits) InsertAt(pos int, text string) {
	e.ReplaceRange(pos, pos, text)
}

// InsertAfter inserts text right after a node.
func (e *Edits) InsertAfter(id int, text string) {
	e.InsertAt(e.tree.Nodes[id].End, text)
}

// Remove deletes a node. A node that is alone on its line(s) takes the
// whole line with it, including the trailing newline.
func (e *Edits) Remove(id int) {
	n := &e.tree.Nodes[id]
	src := e.tree.Source

	start := n.Start
	for start > 0 && (src[start-1] == ' ' || src[start-1] == '\t') {
		start--
	}
	end := n.End
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	if (start == 0 || src[start-1] == '\n') && (end == len(src) || src[end] == '\n' || src[end] == '\r') {
		if end < len(src) && src[end] == '\r' {
			end++
		}
		if end < len(src) && src[end] == '\n' {
			end++
		}
		e.ReplaceRange(start, end, "")
		return
	}
	e.ReplaceRange(n.Start, n.End, "")
}

// RemoveElements deletes the given items from a comma-separated list along
// with their separators. items must be every element of the list in order.
func (e *Edits) RemoveElements(items []int, remove map[int]bool) {
	if len(remove) == 0 {
		return
	}
	nodes := e.tree.Nodes

	kept := 0
	for _, id := range items {
		if !remove[id] {
			kept++
		}
	}
	if kept == 0 {
		first, last := items[0], items[len(items)-1]
		end := nodes[last].End
		if next := e.tree.nextSibling(last); next != None && nodes[next].Kind == "," {
			end = nodes[next].End
		}
		e.ReplaceRange(nodes[first].Start, end, "")
		return
	}

	for i, id := range items {
		if !remove[id] {
			continue
		}
		keptAfter := false
		for _, later := range items[i+1:] {
			if !remove[later] {
				keptAfter = true
				break
			}
		}
		if keptAfter {
			// "a, b" -> "b": cut up to the start of the next item.
			e.ReplaceRange(nodes[id].Start, nodes[items[i+1]].Start, "")
		} else {
			// "a, b" -> "a": cut from the end of the previous item.
			e.ReplaceRange(nodes[items[i-1]].End, nodes[id].End, "")
		}
	}
}

func (t *Tree) nextSibling(id int) int {
	parent := t.Nodes[id].Parent
	if parent == None {
		return None
	}
	siblings := t.Nodes[parent].Children
	for i, c := range siblings {
		if c == id && i+1 < len(siblings) {
			return siblings[i+1]
		}
	}
	return None
}

// Render returns source[start:end] with every edit inside the range applied.
func (e *Edits) Render(start, end int) string {
	out, err := e.render(start, end, false)
	if err != nil {
		// Overlaps inside a sub-range are reported again by Apply.
		return string(e.tree.Source[start:end])
	}
	return out
}

// Apply returns the edited source. With no edits it returns the source
// unchanged.
func (e *Edits) Apply() ([]byte, error) {
	if len(e.list) == 0 {
		return e.tree.Source, nil
	}
	out, err := e.render(0, len(e.tree.Source), true)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (e *Edits) render(start, end int, inclusiveEnd bool) (string, error) {
	var selected []edit
	for _, ed := range e.list {
		if ed.start < start || ed.end > end {
			continue
		}
		if ed.start == ed.end && ed.start == end && !inclusiveEnd {
			continue
		}
		selected = append(selected, ed)
	}
	// Outer edits sort before the edits they contain; insertions sort before
	// a replacement starting at the same offset.
	sort.SliceStable(selected, func(i, j int) bool {
		a, b := selected[i], selected[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if (a.start == a.end) != (b.start == b.end) {
			return a.start == a.end
		}
		if a.end != b.end {
			return a.end > b.end
		}
		if a.start == a.end {
			return a.seq < b.seq
		}
		// Of two replacements of the same range the later one wins.
		return a.seq > b.seq
	})

	src := e.tree.Source
	var b strings.Builder
	cursor := start
	coverStart, coverEnd := -1, -1
	for _, ed := range selected {
		if ed.start < coverEnd {
			if ed.start >= coverStart && ed.end <= coverEnd {
				continue
			}
			line, col := e.tree.Position(ed.start)
			return "", fmt.Errorf("%w at %d:%d", ErrOverlappingEdits, line, col)
		}
		b.Write(src[cursor:ed.start])
		b.WriteString(ed.text)
		cursor = ed.end
		if ed.end > ed.start {
			coverStart, coverEnd = ed.start, ed.end
		}
	}
	b.Write(src[cursor:end])
	return b.String(), nil
}
