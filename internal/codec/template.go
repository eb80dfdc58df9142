package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phobologic/i18nmigrate/internal/syntax"
)

// Template is a template literal body: raw literal segments around
// substitution source texts. len(Quasis) == len(Exprs)+1.
type Template struct {
	Quasis []string
	Exprs  []string
}

// Body renders the template back to raw body text.
func (t Template) Body() string {
	var b strings.Builder
	for i, q := range t.Quasis {
		b.WriteString(q)
		if i < len(t.Exprs) {
			b.WriteString("${")
			b.WriteString(t.Exprs[i])
			b.WriteString("}")
		}
	}
	return b.String()
}

// Flatten replaces substitution i with raw literal text, joining it with the
// segments on either side.
func (t *Template) Flatten(i int, raw string) {
	t.Quasis[i] = t.Quasis[i] + raw + t.Quasis[i+1]
	t.Quasis = append(t.Quasis[:i+1], t.Quasis[i+2:]...)
	t.Exprs = append(t.Exprs[:i], t.Exprs[i+1:]...)
}

// Value is one entry of an encoded call's values object.
type Value struct {
	Key    string
	Source string
}

// Call is the call-style form of a template: a message id with
// {name}/{index} placeholders and the values that fill them.
type Call struct {
	ID     string
	Values []Value
}

// Encode builds the call-style form of a template. Bare identifiers become
// {name}; any other expression becomes {index}, index being its position
// among the substitutions. isIdent reports whether substitution i is a bare
// identifier.
func Encode(t Template, isIdent func(i int) bool) (Call, error) {
	var id strings.Builder
	var idents, complex []Value
	seen := make(map[string]bool)

	for i, q := range t.Quasis {
		text := CookTemplate(q)
		if strings.ContainsAny(text, "{}") {
			return Call{}, fmt.Errorf("%w: literal brace in %q", ErrMalformedPlaceholder, text)
		}
		id.WriteString(text)
		if i == len(t.Exprs) {
			break
		}
		expr := t.Exprs[i]
		if isIdent(i) {
			id.WriteString("{" + expr + "}")
			if !seen[expr] {
				seen[expr] = true
				idents = append(idents, Value{Key: expr, Source: expr})
			}
			continue
		}
		key := strconv.Itoa(i)
		id.WriteString("{" + key + "}")
		complex = append(complex, Value{Key: key, Source: expr})
	}

	return Call{ID: id.String(), Values: append(idents, complex...)}, nil
}

// Render prints the call with the given callee, e.g. i18n._.
func (c Call) Render(callee string) string {
	lit := syntax.QuoteJS(c.ID)
	if len(c.Values) == 0 {
		return callee + "(" + lit + ")"
	}
	props := make([]string, len(c.Values))
	for i, v := range c.Values {
		if v.Key == v.Source {
			props[i] = v.Key
		} else {
			props[i] = v.Key + ": " + v.Source
		}
	}
	return callee + "(" + lit + ", { " + strings.Join(props, ", ") + " })"
}

// Placeholders converts the call's values into a placeholder map for Decode.
func (c Call) Placeholders() *Placeholders {
	p := NewPlaceholders()
	for _, v := range c.Values {
		p.Set(v.Key, false, v.Source)
	}
	return p
}
