package syntax

import (
	"strconv"
	"strings"
)

// IsIdent reports whether id is an identifier spelled name.
func (t *Tree) IsIdent(id int, name string) bool {
	if id == None {
		return false
	}
	n := &t.Nodes[id]
	return n.Kind == "identifier" && string(t.Source[n.Start:n.End]) == name
}

// IsPlainCall reports whether id is a call with a parenthesized argument list,
// as opposed to a tagged template.
func (t *Tree) IsPlainCall(id int) bool {
	return t.Kind(id) == "call_expression" && t.Kind(t.ChildByField(id, "arguments")) == "arguments"
}

// IsCallTo reports whether id is a plain call whose callee is the identifier name.
func (t *Tree) IsCallTo(id int, name string) bool {
	return t.IsPlainCall(id) && t.IsIdent(t.ChildByField(id, "function"), name)
}

// IsMethodCall reports whether id is a plain call of object.property(...).
func (t *Tree) IsMethodCall(id int, object, property string) bool {
	if !t.IsPlainCall(id) {
		return false
	}
	fn := t.ChildByField(id, "function")
	if t.Kind(fn) != "member_expression" {
		return false
	}
	prop := t.ChildByField(fn, "property")
	return t.IsIdent(t.ChildByField(fn, "object"), object) &&
		t.Kind(prop) == "property_identifier" && t.Text(prop) == property
}

// Arguments returns the argument expressions of a plain call.
func (t *Tree) Arguments(call int) []int {
	args := t.ChildByField(call, "arguments")
	if t.Kind(args) != "arguments" {
		return nil
	}
	return t.Elements(args)
}

// TaggedTemplate returns the tag and template of a tagged template
// expression, or None, None.
func (t *Tree) TaggedTemplate(id int) (tag, template int) {
	if t.Kind(id) != "call_expression" {
		return None, None
	}
	tmpl := t.ChildByField(id, "arguments")
	if t.Kind(tmpl) != "template_string" {
		return None, None
	}
	return t.ChildByField(id, "function"), tmpl
}

// IsTaggedWith reports whether id is a template tagged by the bare identifier name.
func (t *Tree) IsTaggedWith(id int, name string) bool {
	tag, _ := t.TaggedTemplate(id)
	return t.IsIdent(tag, name)
}

// Template is a template literal split into raw literal text and
// substitution expressions. len(Quasis) == len(Exprs)+1.
type Template struct {
	Quasis []string
	Exprs  []int
}

// TemplateParts splits a template_string node.
func (t *Tree) TemplateParts(id int) Template {
	n := &t.Nodes[id]
	var tp Template
	cursor := n.Start + 1
	for _, c := range n.Children {
		if t.Nodes[c].Kind != "template_substitution" {
			continue
		}
		tp.Quasis = append(tp.Quasis, string(t.Source[cursor:t.Nodes[c].Start]))
		expr := None
		if els := t.Elements(c); len(els) > 0 {
			expr = els[0]
		}
		tp.Exprs = append(tp.Exprs, expr)
		cursor = t.Nodes[c].End
	}
	tp.Quasis = append(tp.Quasis, string(t.Source[cursor:n.End-1]))
	return tp
}

// StringValue returns the decoded value of a string literal node.
func (t *Tree) StringValue(id int) (string, bool) {
	if t.Kind(id) != "string" {
		return "", false
	}
	return UnquoteJS(t.Text(id)), true
}

// UnquoteJS decodes a single- or double-quoted JavaScript string literal.
// Escapes Go cannot interpret are kept verbatim.
func UnquoteJS(lit string) string {
	if len(lit) < 2 {
		return lit
	}
	body := lit[1 : len(lit)-1]
	if !strings.ContainsRune(body, '\\') {
		return body
	}
	body = strings.ReplaceAll(body, `\'`, `'`)
	if lit[0] == '\'' {
		body = strings.ReplaceAll(body, `"`, `\"`)
	}
	v, err := strconv.Unquote(`"` + body + `"`)
	if err != nil {
		return body
	}
	return v
}

// QuoteJS renders s as a single-quoted JavaScript string literal.
func QuoteJS(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
