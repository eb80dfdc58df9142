// Package migrate runs the ordered rewrite passes that move a source file
// between i18next calls, lingui macros and lingui runtime calls.
//
// Every pass is a function from source text to source text: it parses its
// input, records byte-range edits and applies them. Passes run in a fixed
// order and each relies on what its predecessors left behind; reordering
// them is unsupported.
package migrate

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/phobologic/i18nmigrate/internal/dictionary"
	"github.com/phobologic/i18nmigrate/internal/syntax"
)

// Mode selects a pipeline.
type Mode string

const (
	// NextToMacro rewrites i18next t('ns:key', {...}) calls into lingui
	// t`...` macros using a translation dictionary.
	NextToMacro Mode = "next-to-macro"
	// MacroToRuntime rewrites t`...` macros into i18n._(...) runtime calls
	// backed by the useLingui hook.
	MacroToRuntime Mode = "macro-to-runtime"
	// RuntimeToMacro rewrites i18n._(...) runtime calls into curried
	// t(i18n)`...` macros.
	RuntimeToMacro Mode = "runtime-to-macro"
)

// ErrUnknownMode is returned by ParseMode.
var ErrUnknownMode = errors.New("unknown mode")

// Modes lists the pipelines in a stable order.
func Modes() []Mode {
	return []Mode{NextToMacro, MacroToRuntime, RuntimeToMacro}
}

// ParseMode parses a mode name. The empty string selects NextToMacro.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return NextToMacro, nil
	}
	for _, m := range Modes() {
		if string(m) == strings.ToLower(strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q (want one of %s, %s, %s)", ErrUnknownMode, s, NextToMacro, MacroToRuntime, RuntimeToMacro)
}

// ParseCurry interprets the currying switch. Empty, "false" and "no" (any
// case) disable it; any other value enables it.
func ParseCurry(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "no":
		return false
	}
	return true
}

// Options configures a Migrator.
type Options struct {
	Mode Mode
	// Dictionary resolves i18next keys. Required for NextToMacro.
	Dictionary *dictionary.Dictionary
	// Curry makes NextToMacro finish with t(i18n) currying and useLingui
	// injection.
	Curry bool
	// Names overrides DefaultNames field by field.
	Names Names
}

// Result describes one migrated file.
type Result struct {
	Output  []byte
	Changed bool
	// Translated counts the resolved or encoded call sites.
	Translated int
	// Unresolved lists placeholders left in the output for lack of a value.
	Unresolved []string
	// Injected names the functions that received a useLingui statement.
	Injected []string
	// Unscoped counts macro usages outside any component or hook.
	Unscoped int
}

// Migrator holds the read-only state shared by every file of a run. It is
// safe for concurrent use; the Parser passed to Migrate is not.
type Migrator struct {
	mode  Mode
	dict  *dictionary.Dictionary
	curry bool
	names Names
}

// New validates opts and returns a Migrator.
func New(opts Options) (*Migrator, error) {
	mode := opts.Mode
	if mode == "" {
		mode = NextToMacro
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if mode == NextToMacro && opts.Dictionary == nil {
		return nil, dictionary.ErrMissingDictionaryOption
	}
	names := opts.Names.Merge(DefaultNames())
	if err := names.Validate(); err != nil {
		return nil, err
	}
	return &Migrator{mode: mode, dict: opts.Dictionary, curry: opts.Curry, names: names}, nil
}

// Mode returns the pipeline the Migrator runs.
func (m *Migrator) Mode() Mode {
	return m.mode
}

// Names returns the effective names.
func (m *Migrator) Names() Names {
	return m.names
}

// Migrate runs the Migrator's pipeline over src. On error no output is
// returned; callers keep the original text.
func (m *Migrator) Migrate(p *syntax.Parser, src []byte) (*Result, error) {
	switch m.mode {
	case MacroToRuntime:
		return m.MacroToRuntime(p, src)
	case RuntimeToMacro:
		return m.RuntimeToMacro(p, src)
	default:
		return m.NextToMacro(p, src)
	}
}

// pass is one step of a pipeline. run records edits against the tree; it
// returns errStop to end the pipeline early with the current text.
type pass struct {
	name string
	run  func(r *run, t *syntax.Tree, e *syntax.Edits) error
}

var errStop = errors.New("stop")

// run is the state of one pipeline execution over one file.
type run struct {
	*Migrator
	result Result
}

func (m *Migrator) execute(p *syntax.Parser, src []byte, passes []pass) (*Result, error) {
	r := &run{Migrator: m}
	current := src
	tree, err := p.Parse(current)
	if err != nil {
		return nil, err
	}
	for _, ps := range passes {
		if tree == nil {
			if tree, err = p.Parse(current); err != nil {
				return nil, fmt.Errorf("%s: reparsing output: %w", ps.name, err)
			}
		}
		e := syntax.NewEdits(tree)
		err := ps.run(r, tree, e)
		if errors.Is(err, errStop) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ps.name, err)
		}
		if e.Len() == 0 {
			continue
		}
		out, err := e.Apply()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ps.name, err)
		}
		current, tree = out, nil
	}
	r.result.Output = current
	r.result.Changed = !bytes.Equal(current, src)
	return &r.result, nil
}

// at prefixes err with the position of node id.
func at(t *syntax.Tree, id int, err error) error {
	line, col := t.Position(t.Nodes[id].Start)
	return fmt.Errorf("%d:%d: %w", line, col, err)
}
