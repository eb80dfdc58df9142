package migrate

import (
	"fmt"

	"github.com/phobologic/i18nmigrate/internal/codec"
	"github.com/phobologic/i18nmigrate/internal/dictionary"
	"github.com/phobologic/i18nmigrate/internal/imports"
	"github.com/phobologic/i18nmigrate/internal/inject"
	"github.com/phobologic/i18nmigrate/internal/syntax"
)

// NextToMacro migrates i18next calls to lingui macros. A file with no
// translation call and no reference to the translation function is
// returned unchanged without running any pass.
func (m *Migrator) NextToMacro(p *syntax.Parser, src []byte) (*Result, error) {
	return m.execute(p, src, []pass{
		{"short-circuit", (*run).shortCircuit},
		{"strip-translate-params", (*run).stripTranslateParams},
		{"remove-context-binding", (*run).removeContextBinding},
		{"remove-dead-context-imports", (*run).removeDeadContextImports},
		{"remove-hook-binding", (*run).removeHookBinding},
		{"add-macro-import", (*run).addMacroImport},
		{"remove-hook-import", (*run).removeHookImport},
		{"resolve-calls", (*run).resolveCalls},
		{"remove-instance-import", (*run).removeInstanceImport},
		{"normalize-macro", (*run).normalizeMacro},
		{"join-templates", (*run).joinTemplates},
		{"curry", (*run).curryMacro},
	})
}

// isTranslation reports whether id is t('...') or i18n.t('...') with a
// string or template message.
func (r *run) isTranslation(t *syntax.Tree, id int) bool {
	if !t.IsCallTo(id, r.names.Translate) && !t.IsMethodCall(id, r.names.Instance, r.names.Translate) {
		return false
	}
	args := t.Arguments(id)
	if len(args) == 0 {
		return false
	}
	kind := t.Kind(args[0])
	return kind == "string" || kind == "template_string"
}

func (r *run) translations(t *syntax.Tree) []int {
	return t.Find(func(id int) bool { return r.isTranslation(t, id) })
}

func (r *run) shortCircuit(t *syntax.Tree, _ *syntax.Edits) error {
	if len(r.translations(t)) > 0 {
		return nil
	}
	for id := range t.Nodes {
		if t.IsIdent(id, r.names.Translate) {
			return nil
		}
	}
	return errStop
}

// stripTranslateParams removes `t: TFunction` parameters, bare `t` call
// arguments and bare `t` array elements.
func (r *run) stripTranslateParams(t *syntax.Tree, e *syntax.Edits) error {
	for _, params := range t.FindKind("formal_parameters") {
		items := t.Elements(params)
		remove := make(map[int]bool)
		for _, p := range items {
			if r.isTranslateParam(t, p) {
				remove[p] = true
			}
		}
		e.RemoveElements(items, remove)
	}

	for id := range t.Nodes {
		var items []int
		switch {
		case t.IsPlainCall(id):
			items = t.Arguments(id)
		case t.Kind(id) == "array":
			items = t.Elements(id)
		default:
			continue
		}
		remove := make(map[int]bool)
		for _, item := range items {
			if t.IsIdent(item, r.names.Translate) {
				remove[item] = true
			}
		}
		e.RemoveElements(items, remove)
	}
	return nil
}

// isTranslateParam matches `t: TFunction`.
func (r *run) isTranslateParam(t *syntax.Tree, id int) bool {
	if t.Kind(id) != "required_parameter" && t.Kind(id) != "optional_parameter" {
		return false
	}
	if !t.IsIdent(t.ChildByField(id, "pattern"), r.names.Translate) {
		return false
	}
	ann := t.ChildByField(id, "type")
	if ann == syntax.None {
		return false
	}
	els := t.Elements(ann)
	return len(els) == 1 && t.Kind(els[0]) == "type_identifier" && t.Text(els[0]) == r.names.FunctionType
}

// removeContextBinding drops t from `const { t } = useMoniteContext()`, and
// the whole declarator when nothing else is destructured.
func (r *run) removeContextBinding(t *syntax.Tree, e *syntax.Edits) error {
	for _, decl := range t.FindKind("variable_declarator") {
		pattern := t.ChildByField(decl, "name")
		if t.Kind(pattern) != "object_pattern" || !t.IsCallTo(t.Unwrap(t.ChildByField(decl, "value")), r.names.ContextHook) {
			continue
		}
		items := t.Elements(pattern)
		remove := make(map[int]bool)
		for _, item := range items {
			if r.bindsTranslate(t, item) {
				remove[item] = true
			}
		}
		if len(remove) == 0 {
			continue
		}
		if len(remove) == len(items) {
			removeDeclarator(t, e, decl)
			continue
		}
		e.RemoveElements(items, remove)
	}
	return nil
}

// bindsTranslate matches `t` and `t: alias` inside an object pattern.
func (r *run) bindsTranslate(t *syntax.Tree, id int) bool {
	switch t.Kind(id) {
	case "shorthand_property_identifier_pattern":
		return t.Text(id) == r.names.Translate
	case "pair_pattern":
		key := t.ChildByField(id, "key")
		return t.Kind(key) == "property_identifier" && t.Text(key) == r.names.Translate
	}
	return false
}

// removeDeclarator removes a declarator, or its whole declaration when it
// is the only one.
func removeDeclarator(t *syntax.Tree, e *syntax.Edits, decl int) {
	parent := t.Parent(decl)
	var declarators []int
	for _, c := range t.Elements(parent) {
		if t.Kind(c) == "variable_declarator" {
			declarators = append(declarators, c)
		}
	}
	if len(declarators) == 1 {
		e.Remove(parent)
		return
	}
	e.RemoveElements(declarators, map[int]bool{decl: true})
}

func (r *run) removeDeadContextImports(t *syntax.Tree, e *syntax.Edits) error {
	m := imports.NewManager(t)
	m.RemoveIfDead(imports.Binding{Imported: r.names.ContextHook, Kind: imports.Named})
	m.RemoveIfDead(imports.Binding{Imported: r.names.FunctionType, Kind: imports.Named})
	m.Flush(e)
	return nil
}

// removeHookBinding drops every `... = useTranslation(...)` declarator.
func (r *run) removeHookBinding(t *syntax.Tree, e *syntax.Edits) error {
	byDeclaration := make(map[int][]int)
	var order []int
	for _, decl := range t.FindKind("variable_declarator") {
		if !t.IsCallTo(t.Unwrap(t.ChildByField(decl, "value")), r.names.Hook) {
			continue
		}
		parent := t.Parent(decl)
		if _, ok := byDeclaration[parent]; !ok {
			order = append(order, parent)
		}
		byDeclaration[parent] = append(byDeclaration[parent], decl)
	}
	for _, parent := range order {
		var declarators []int
		for _, c := range t.Elements(parent) {
			if t.Kind(c) == "variable_declarator" {
				declarators = append(declarators, c)
			}
		}
		if len(declarators) == len(byDeclaration[parent]) {
			e.Remove(parent)
			continue
		}
		remove := make(map[int]bool)
		for _, d := range byDeclaration[parent] {
			remove[d] = true
		}
		e.RemoveElements(declarators, remove)
	}
	return nil
}

func (r *run) addMacroImport(t *syntax.Tree, e *syntax.Edits) error {
	if len(r.translations(t)) == 0 {
		return nil
	}
	m := imports.NewManager(t)
	m.EnsureImport(r.names.MacroModule, r.names.Macro, r.names.MacroAlias)
	m.Flush(e)
	return nil
}

func (r *run) removeHookImport(t *syntax.Tree, e *syntax.Edits) error {
	m := imports.NewManager(t)
	m.RemoveSpecifier(r.names.HookModule, r.names.Hook)
	m.Flush(e)
	return nil
}

// resolveCalls replaces every translation call by a template tagged with
// the macro alias. Calls are visited innermost first: a call used directly
// as a parameter value is spliced into its parent's text, any other nested
// call is rendered inside the parameter expression.
func (r *run) resolveCalls(t *syntax.Tree, e *syntax.Edits) error {
	calls := r.translations(t)
	bodies := make(map[int]string, len(calls))
	for i := len(calls) - 1; i >= 0; i-- {
		call := calls[i]
		body, err := r.resolveCall(t, e, call, bodies)
		if err != nil {
			return at(t, call, err)
		}
		bodies[call] = body
		e.Replace(call, r.names.MacroAlias+"`"+body+"`")
		r.result.Translated++
	}
	return nil
}

func (r *run) resolveCall(t *syntax.Tree, e *syntax.Edits, call int, bodies map[int]string) (string, error) {
	args := t.Arguments(call)
	if t.Kind(args[0]) == "template_string" {
		return "", fmt.Errorf("%w: %s", codec.ErrUnsupportedLiteral, t.Text(args[0]))
	}
	if r.dict == nil {
		return "", dictionary.ErrMissingDictionaryOption
	}
	key, _ := t.StringValue(args[0])
	message, err := r.dict.ResolveMessage(key)
	if err != nil {
		return "", err
	}

	params := codec.NewPlaceholders()
	if len(args) > 1 {
		if params, err = r.placeholders(t, e, args[1], bodies); err != nil {
			return "", err
		}
	}

	decoded, err := codec.Decode(message, params, codec.DoubleBrace)
	if err != nil {
		return "", fmt.Errorf("message %q: %w", key, err)
	}
	r.result.Unresolved = append(r.result.Unresolved, decoded.Unresolved...)
	return decoded.Body, nil
}

// placeholders builds the placeholder map of a params object.
func (r *run) placeholders(t *syntax.Tree, e *syntax.Edits, obj int, bodies map[int]string) (*codec.Placeholders, error) {
	if t.Kind(obj) != "object" {
		return nil, fmt.Errorf("%w: params must be an object literal, got %s", codec.ErrInvalidParamBinding, t.Text(obj))
	}
	params := codec.NewPlaceholders()
	for _, prop := range t.Elements(obj) {
		switch t.Kind(prop) {
		case "shorthand_property_identifier":
			params.Set(t.Text(prop), false, t.Text(prop))
		case "pair":
			key := t.ChildByField(prop, "key")
			if t.Kind(key) != "property_identifier" {
				return nil, fmt.Errorf("%w: %s", codec.ErrMalformedProperty, t.Text(prop))
			}
			value := t.ChildByField(prop, "value")
			if body, ok := bodies[t.Unwrap(value)]; ok {
				params.Set(t.Text(key), true, body)
				continue
			}
			params.Set(t.Text(key), false, e.Render(t.Nodes[value].Start, t.Nodes[value].End))
		default:
			return nil, fmt.Errorf("%w: %s", codec.ErrMalformedProperty, t.Text(prop))
		}
	}
	return params, nil
}

func (r *run) removeInstanceImport(t *syntax.Tree, e *syntax.Edits) error {
	m := imports.NewManager(t)
	m.RemoveIfDead(imports.Binding{Local: r.names.Instance, Kind: imports.Default})
	m.Flush(e)
	return nil
}

// normalizeMacro renames the macro alias back to the macro name in the
// import and in tag positions.
func (r *run) normalizeMacro(t *syntax.Tree, e *syntax.Edits) error {
	m := imports.NewManager(t)
	aliased := m.Find(imports.Binding{Module: r.names.MacroModule, Imported: r.names.Macro, Local: r.names.MacroAlias, Kind: imports.Named})
	if len(aliased) > 0 {
		plain := m.Find(imports.Binding{Module: r.names.MacroModule, Imported: r.names.Macro, Local: r.names.Macro, Kind: imports.Named})
		if len(plain) > 0 {
			// Already imported under its own name: drop the alias.
			for _, s := range aliased {
				m.Remove(s)
			}
		} else {
			m.Rename(r.names.MacroModule, r.names.Macro, r.names.MacroAlias, r.names.Macro)
		}
		m.Flush(e)
	}

	for id := range t.Nodes {
		if tag, _ := t.TaggedTemplate(id); t.IsIdent(tag, r.names.MacroAlias) {
			e.Replace(tag, r.names.Macro)
		}
	}
	return nil
}

// joinTemplates flattens substitutions of macro templates whose value is a
// macro template without substitutions: t`a ${t`b`} c` becomes t`a b c`.
// Templates are visited innermost first so joins compose.
func (r *run) joinTemplates(t *syntax.Tree, e *syntax.Edits) error {
	tagged := t.Find(func(id int) bool { return t.IsTaggedWith(id, r.names.Macro) })
	joined := make(map[int]codec.Template, len(tagged))

	for i := len(tagged) - 1; i >= 0; i-- {
		call := tagged[i]
		_, tmplNode := t.TaggedTemplate(call)
		parts := t.TemplateParts(tmplNode)

		tmpl := codec.Template{Quasis: append([]string(nil), parts.Quasis...)}
		valid := true
		for _, expr := range parts.Exprs {
			if expr == syntax.None {
				valid = false
				break
			}
			tmpl.Exprs = append(tmpl.Exprs, e.Render(t.Nodes[expr].Start, t.Nodes[expr].End))
		}
		if !valid {
			continue
		}

		changed := false
		for j := len(parts.Exprs) - 1; j >= 0; j-- {
			inner, ok := joined[t.Unwrap(parts.Exprs[j])]
			if !ok || len(inner.Exprs) > 0 {
				continue
			}
			tmpl.Flatten(j, inner.Quasis[0])
			changed = true
		}
		joined[call] = tmpl
		if changed {
			e.Replace(tmplNode, "`"+tmpl.Body()+"`")
		}
	}
	return nil
}

// curryMacro rewrites t`...` to t(i18n)`...` and injects the useLingui
// statement into the components and hooks using it.
func (r *run) curryMacro(t *syntax.Tree, e *syntax.Edits) error {
	if !r.curry {
		return nil
	}
	usages := t.Find(func(id int) bool { return t.IsTaggedWith(id, r.names.Macro) })
	if len(usages) == 0 {
		return nil
	}

	m := imports.NewManager(t)
	m.EnsureImport(r.names.LinguiModule, r.names.LinguiHook, "")
	m.Flush(e)

	p := &inject.Pass{
		Statement: r.names.contextStatement(),
		Rewrite: func(e *syntax.Edits, usage int) (string, error) {
			_, tmpl := t.TaggedTemplate(usage)
			return r.names.curriedMacro() + e.Render(t.Nodes[tmpl].Start, t.Nodes[tmpl].End), nil
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
