package migrate

import (
	"fmt"
	"strconv"

	"github.com/phobologic/i18nmigrate/internal/codec"
	"github.com/phobologic/i18nmigrate/internal/imports"
	"github.com/phobologic/i18nmigrate/internal/inject"
	"github.com/phobologic/i18nmigrate/internal/syntax"
)

// MacroToRuntime replaces t`...` macros with i18n._(...) calls on the
// runtime returned by useLingui. Files that do not import the macro are
// returned unchanged.
func (m *Migrator) MacroToRuntime(p *syntax.Parser, src []byte) (*Result, error) {
	return m.execute(p, src, []pass{
		{"encode-macros", (*run).encodeMacros},
	})
}

func (r *run) encodeMacros(t *syntax.Tree, e *syntax.Edits) error {
	m := imports.NewManager(t)
	specs := m.Find(imports.Binding{Module: r.names.MacroModule, Imported: r.names.Macro, Kind: imports.Named})
	if len(specs) == 0 {
		return errStop
	}
	local := specs[0].Local
	m.RemoveSpecifier(r.names.MacroModule, r.names.Macro)

	usages := t.Find(func(id int) bool { return t.IsTaggedWith(id, local) })
	if len(usages) > 0 {
		m.EnsureImport(r.names.LinguiModule, r.names.LinguiHook, "")
	}
	m.Flush(e)

	p := &inject.Pass{
		Statement: r.names.contextStatement(),
		Rewrite: func(e *syntax.Edits, usage int) (string, error) {
			_, tmplNode := t.TaggedTemplate(usage)
			parts := t.TemplateParts(tmplNode)
			tmpl := codec.Template{Quasis: parts.Quasis}
			for _, expr := range parts.Exprs {
				if expr == syntax.None {
					return "", at(t, tmplNode, fmt.Errorf("%w: empty substitution", codec.ErrMalformedPlaceholder))
				}
				tmpl.Exprs = append(tmpl.Exprs, e.Render(t.Nodes[expr].Start, t.Nodes[expr].End))
			}
			call, err := codec.Encode(tmpl, func(i int) bool { return t.Kind(parts.Exprs[i]) == "identifier" })
			if err != nil {
				return "", at(t, usage, err)
			}
			r.result.Translated++
			return call.Render(r.names.runtimeCallee()), nil
		},
	}
	res, err := p.Run(t, e, usages, make(inject.Set))
	if err != nil {
		return err
	}
	r.result.Injected = append(r.result.Injected, res.Functions...)
	r.result.Unscoped += res.Unscoped
	return nil
}

// RuntimeToMacro replaces i18n._('Hello {name}', { name }) runtime calls
// with curried t(i18n)`Hello ${name}` macros.
func (m *Migrator) RuntimeToMacro(p *syntax.Parser, src []byte) (*Result, error) {
	return m.execute(p, src, []pass{
		{"ensure-macro-import", (*run).ensureMacroImport},
		{"decode-runtime-calls", (*run).decodeRuntimeCalls},
	})
}

// ensureMacroImport imports the macro into files that already use lingui.
func (r *run) ensureMacroImport(t *syntax.Tree, e *syntax.Edits) error {
	m := imports.NewManager(t)
	usesLingui := false
	for _, module := range []string{r.names.LinguiModule, r.names.LinguiCoreModule} {
		for _, name := range []string{"I18n", r.names.LinguiHook} {
			if len(m.Find(imports.Binding{Module: module, Imported: name, Kind: imports.Named})) > 0 {
				usesLingui = true
			}
		}
	}
	hasMacroModule := false
	for _, d := range m.Declarations() {
		if d.Module == r.names.MacroModule {
			hasMacroModule = true
		}
	}
	if usesLingui || hasMacroModule {
		m.EnsureImport(r.names.MacroModule, r.names.Macro, "")
		m.Flush(e)
	}
	return nil
}

func (r *run) runtimeCalls(t *syntax.Tree) []int {
	return t.Find(func(id int) bool {
		if !t.IsMethodCall(id, r.names.Runtime, r.names.RuntimeMethod) {
			return false
		}
		args := t.Arguments(id)
		return len(args) > 0 && (t.Kind(args[0]) == "string" || t.Kind(args[0]) == "template_string")
	})
}

func (r *run) decodeRuntimeCalls(t *syntax.Tree, e *syntax.Edits) error {
	calls := r.runtimeCalls(t)
	for i := len(calls) - 1; i >= 0; i-- {
		call := calls[i]
		body, err := r.decodeRuntimeCall(t, e, call)
		if err != nil {
			return at(t, call, err)
		}
		e.Replace(call, r.names.curriedMacro()+"`"+body+"`")
		r.result.Translated++
	}
	return nil
}

func (r *run) decodeRuntimeCall(t *syntax.Tree, e *syntax.Edits, call int) (string, error) {
	args := t.Arguments(call)
	var id string
	switch msg := args[0]; t.Kind(msg) {
	case "template_string":
		parts := t.TemplateParts(msg)
		if len(parts.Exprs) > 0 {
			return "", fmt.Errorf("%w: %s", codec.ErrUnsupportedLiteral, t.Text(msg))
		}
		id = codec.CookTemplate(parts.Quasis[0])
	default:
		id, _ = t.StringValue(msg)
	}

	params := codec.NewPlaceholders()
	if len(args) > 1 {
		obj := args[1]
		if t.Kind(obj) != "object" {
			return "", fmt.Errorf("%w: values must be an object literal, got %s", codec.ErrInvalidParamBinding, t.Text(obj))
		}
		for _, prop := range t.Elements(obj) {
			switch t.Kind(prop) {
			case "shorthand_property_identifier":
				params.Set(t.Text(prop), false, t.Text(prop))
			case "pair":
				name, ok := propertyKey(t, t.ChildByField(prop, "key"))
				if !ok {
					return "", fmt.Errorf("%w: %s", codec.ErrMalformedProperty, t.Text(prop))
				}
				value := t.ChildByField(prop, "value")
				params.Set(name, false, e.Render(t.Nodes[value].Start, t.Nodes[value].End))
			default:
				return "", fmt.Errorf("%w: %s", codec.ErrMalformedProperty, t.Text(prop))
			}
		}
	}

	decoded, err := codec.Decode(id, params, codec.SingleBrace)
	if err != nil {
		return "", err
	}
	return decoded.Body, nil
}

// propertyKey returns the name of an identifier, string or integer key.
func propertyKey(t *syntax.Tree, key int) (string, bool) {
	switch t.Kind(key) {
	case "property_identifier":
		return t.Text(key), true
	case "string":
		return t.StringValue(key)
	case "number":
		n, err := strconv.Atoi(t.Text(key))
		if err != nil || n < 0 {
			return "", false
		}
		return strconv.Itoa(n), true
	}
	return "", false
}
