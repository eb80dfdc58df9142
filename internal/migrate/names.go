package migrate

import (
	"fmt"
	"strings"
)

// Names are the identifiers and module specifiers the passes match and
// produce. The zero value is not usable; start from DefaultNames.
type Names struct {
	// Translate is the i18next translation function, t('ns:key').
	Translate string `toml:"translate"`
	// Hook is the react-i18next hook returning Translate.
	Hook string `toml:"hook"`
	// HookModule is the module Hook is imported from.
	HookModule string `toml:"hook_module"`
	// ContextHook is the app context hook that may also expose Translate.
	ContextHook string `toml:"context_hook"`
	// FunctionType is the type annotation of passed-around Translate params.
	FunctionType string `toml:"function_type"`
	// Instance is the i18next instance, used as Instance.Translate(...).
	Instance string `toml:"instance"`

	// Macro is the lingui macro tag.
	Macro string `toml:"macro"`
	// MacroModule is the module Macro is imported from.
	MacroModule string `toml:"macro_module"`
	// MacroAlias is the temporary local name of Macro during migration.
	MacroAlias string `toml:"macro_alias"`
	// LinguiHook is the lingui hook providing the runtime context.
	LinguiHook string `toml:"lingui_hook"`
	// LinguiModule is the module LinguiHook is imported from.
	LinguiModule string `toml:"lingui_module"`
	// LinguiCoreModule is the lingui core runtime module.
	LinguiCoreModule string `toml:"lingui_core_module"`
	// Runtime is the context value destructured from LinguiHook.
	Runtime string `toml:"runtime"`
	// RuntimeMethod is the runtime message lookup, Runtime.RuntimeMethod(id).
	RuntimeMethod string `toml:"runtime_method"`
}

// DefaultNames returns the names of a react-i18next to lingui migration.
func DefaultNames() Names {
	return Names{
		Translate:        "t",
		Hook:             "useTranslation",
		HookModule:       "react-i18next",
		ContextHook:      "useMoniteContext",
		FunctionType:     "TFunction",
		Instance:         "i18n",
		Macro:            "t",
		MacroModule:      "@lingui/macro",
		MacroAlias:       "translate",
		LinguiHook:       "useLingui",
		LinguiModule:     "@lingui/react",
		LinguiCoreModule: "@lingui/core",
		Runtime:          "i18n",
		RuntimeMethod:    "_",
	}
}

// Merge returns n with every empty field taken from base.
func (n Names) Merge(base Names) Names {
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	fill(&n.Translate, base.Translate)
	fill(&n.Hook, base.Hook)
	fill(&n.HookModule, base.HookModule)
	fill(&n.ContextHook, base.ContextHook)
	fill(&n.FunctionType, base.FunctionType)
	fill(&n.Instance, base.Instance)
	fill(&n.Macro, base.Macro)
	fill(&n.MacroModule, base.MacroModule)
	fill(&n.MacroAlias, base.MacroAlias)
	fill(&n.LinguiHook, base.LinguiHook)
	fill(&n.LinguiModule, base.LinguiModule)
	fill(&n.LinguiCoreModule, base.LinguiCoreModule)
	fill(&n.Runtime, base.Runtime)
	fill(&n.RuntimeMethod, base.RuntimeMethod)
	return n
}

// Validate rejects names the passes cannot produce valid code with.
func (n Names) Validate() error {
	idents := map[string]string{
		"translate":      n.Translate,
		"hook":           n.Hook,
		"context_hook":   n.ContextHook,
		"function_type":  n.FunctionType,
		"instance":       n.Instance,
		"macro":          n.Macro,
		"macro_alias":    n.MacroAlias,
		"lingui_hook":    n.LinguiHook,
		"runtime":        n.Runtime,
		"runtime_method": n.RuntimeMethod,
	}
	for field, v := range idents {
		if !isIdentifier(v) {
			return fmt.Errorf("names.%s: %q is not an identifier", field, v)
		}
	}
	if n.MacroAlias == n.Macro {
		return fmt.Errorf("names.macro_alias must differ from names.macro (%q)", n.Macro)
	}
	for field, v := range map[string]string{
		"hook_module":        n.HookModule,
		"macro_module":       n.MacroModule,
		"lingui_module":      n.LinguiModule,
		"lingui_core_module": n.LinguiCoreModule,
	} {
		if strings.TrimSpace(v) == "" || strings.ContainsAny(v, "'\"\n") {
			return fmt.Errorf("names.%s: invalid module specifier %q", field, v)
		}
	}
	return nil
}

// contextStatement is the hook call injected into components and hooks.
func (n Names) contextStatement() string {
	return "const { " + n.Runtime + " } = " + n.LinguiHook + "();"
}

// runtimeCallee is the runtime lookup, e.g. i18n._.
func (n Names) runtimeCallee() string {
	return n.Runtime + "." + n.RuntimeMethod
}

// curriedMacro is the macro applied to the runtime, e.g. t(i18n).
func (n Names) curriedMacro() string {
	return n.Macro + "(" + n.Runtime + ")"
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
