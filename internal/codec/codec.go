// Package codec converts between call-style messages with placeholders and
// template literal bodies with embedded expressions.
package codec

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrUnsupportedLiteral   = errors.New("template literals are not supported as messages")
	ErrInvalidParamBinding  = errors.New("invalid parameter binding")
	ErrMalformedProperty    = errors.New("unexpected property in params argument")
	ErrMalformedPlaceholder = errors.New("malformed placeholder")
)

// Syntax selects the placeholder notation of a message.
type Syntax int

const (
	// DoubleBrace is the i18next notation, {{name}}. Placeholders without a
	// matching parameter are left in the text.
	DoubleBrace Syntax = iota
	// SingleBrace is the lingui/ICU notation, {name} or {0}. Every
	// placeholder must have a parameter.
	SingleBrace
)

var (
	identRe       = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
	singleBraceRe = regexp.MustCompile(`\{[\w$]+\}`)
)

// Param is one parameter bag entry. Source is an expression's source text,
// or for a Literal entry, raw template text that is spliced in as-is.
type Param struct {
	Name    string
	Literal bool
	Source  string
}

// Placeholders is an ordered placeholder map.
type Placeholders struct {
	order  []string
	byName map[string]Param
}

// NewPlaceholders returns an empty map.
func NewPlaceholders() *Placeholders {
	return &Placeholders{byName: make(map[string]Param)}
}

// Set adds or replaces an entry, keeping first-insertion order.
func (p *Placeholders) Set(name string, literal bool, source string) {
	if _, ok := p.byName[name]; !ok {
		p.order = append(p.order, name)
	}
	p.byName[name] = Param{Name: name, Literal: literal, Source: source}
}

// Get returns the entry for name.
func (p *Placeholders) Get(name string) (Param, bool) {
	if p == nil {
		return Param{}, false
	}
	v, ok := p.byName[name]
	return v, ok
}

// Names returns the entry names in insertion order.
func (p *Placeholders) Names() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.order...)
}

// Decoded is the template body produced by Decode.
type Decoded struct {
	Body          string
	Substitutions int
	Unresolved    []string
}

// Decode replaces the placeholders of message with parameter values and
// returns a template literal body (without backticks).
func Decode(message string, params *Placeholders, syn Syntax) (Decoded, error) {
	if syn == SingleBrace {
		return decodeSingle(message, params)
	}
	return decodeDouble(message, params)
}

func decodeDouble(message string, params *Placeholders) (Decoded, error) {
	var d Decoded
	var b strings.Builder
	rest := message
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			b.WriteString(EscapeTemplate(rest))
			break
		}
		closing := strings.Index(rest[open:], "}}")
		if closing < 0 {
			return Decoded{}, fmt.Errorf("%w: unterminated {{ in %q", ErrMalformedPlaceholder, message)
		}
		placeholder := rest[open : open+closing+2]
		name := strings.TrimSpace(placeholder[2 : len(placeholder)-2])
		if !identRe.MatchString(name) {
			return Decoded{}, fmt.Errorf("%w: %s in %q", ErrMalformedPlaceholder, placeholder, message)
		}

		b.WriteString(EscapeTemplate(rest[:open]))
		if p, ok := params.Get(name); ok {
			d.Substitutions += substitute(&b, p)
		} else {
			b.WriteString(EscapeTemplate(placeholder))
			d.Unresolved = append(d.Unresolved, name)
		}
		rest = rest[open+closing+2:]
	}
	d.Body = b.String()
	return d, nil
}

func decodeSingle(message string, params *Placeholders) (Decoded, error) {
	var d Decoded
	var b strings.Builder
	cursor := 0
	for _, loc := range singleBraceRe.FindAllStringIndex(message, -1) {
		name := message[loc[0]+1 : loc[1]-1]
		p, ok := params.Get(name)
		if !ok {
			return Decoded{}, fmt.Errorf("%w: no value for {%s} in %q", ErrInvalidParamBinding, name, message)
		}
		b.WriteString(EscapeTemplate(message[cursor:loc[0]]))
		d.Substitutions += substitute(&b, p)
		cursor = loc[1]
	}
	b.WriteString(EscapeTemplate(message[cursor:]))
	d.Body = b.String()
	return d, nil
}

func substitute(b *strings.Builder, p Param) int {
	if p.Literal {
		b.WriteString(p.Source)
		return strings.Count(p.Source, "${") - strings.Count(p.Source, `\${`)
	}
	b.WriteString("${")
	b.WriteString(p.Source)
	b.WriteString("}")
	return 1
}

// EscapeTemplate escapes text for use inside a template literal.
func EscapeTemplate(s string) string {
	if !strings.ContainsAny(s, "\\`$") {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "`", "\\`")
	return strings.ReplaceAll(s, "${", `\${`)
}

// CookTemplate decodes the escapes of raw template text.
func CookTemplate(raw string) string {
	if !strings.ContainsRune(raw, '\\') {
		return raw
	}
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 == len(raw) {
			b.WriteByte(c)
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\n':
		case '\\', '`', '$', '\'', '"', '{', '}':
			b.WriteByte(raw[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}
