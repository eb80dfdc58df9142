package migrate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/phobologic/i18nmigrate/internal/codec"
	"github.com/phobologic/i18nmigrate/internal/dictionary"
	"github.com/phobologic/i18nmigrate/internal/lang"
	"github.com/phobologic/i18nmigrate/internal/syntax"
)

const testDictionary = `{
  "greeting": "Hello {{name}}",
  "common": {"title": "Title"},
  "items": {"count": "You have {{count}} items in {{place}}"},
  "place": {"cart": "your cart"},
  "labels": {"id": "Item {{id}}"}
}`

func newMigrator(t *testing.T, opts Options) *Migrator {
	t.Helper()
	if opts.Dictionary == nil && (opts.Mode == "" || opts.Mode == NextToMacro) {
		dict, err := dictionary.Parse([]byte(testDictionary))
		if err != nil {
			t.Fatalf("dictionary.Parse: %v", err)
		}
		opts.Dictionary = dict
	}
	m, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func migrate(t *testing.T, m *Migrator, langName, src string) *Result {
	t.Helper()
	res, err := m.Migrate(syntax.NewParser(lang.Languages[langName]), []byte(src))
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return res
}

// assertIdempotent feeds the output back in and expects no change.
func assertIdempotent(t *testing.T, m *Migrator, langName string, out []byte) {
	t.Helper()
	again := migrate(t, m, langName, string(out))
	if string(again.Output) != string(out) {
		t.Errorf("second run changed the output:\n%s\nfirst run:\n%s", again.Output, out)
	}
}

func TestNextToMacroGreeting(t *testing.T) {
	t.Parallel()

	src := `import { useTranslation } from 'react-i18next';

export const Greeting = ({ name }: { name: string }) => {
  const { t } = useTranslation();
  return <p>{t('greeting', { name })}</p>;
};
`
	want := `import { t } from '@lingui/macro';

export const Greeting = ({ name }: { name: string }) => {
  return <p>{t` + "`Hello ${name}`" + `}</p>;
};
`
	m := newMigrator(t, Options{})
	res := migrate(t, m, "tsx", src)
	if diff := cmp.Diff(want, string(res.Output)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if !res.Changed || res.Translated != 1 {
		t.Errorf("Changed = %v, Translated = %d", res.Changed, res.Translated)
	}
	assertIdempotent(t, m, "tsx", res.Output)
}

func TestNextToMacroCurry(t *testing.T) {
	t.Parallel()

	src := `import { useTranslation } from 'react-i18next';

export const Greeting = ({ name }: { name: string }) => {
  const { t } = useTranslation();
  return <p title={t('common:title')}>{t('greeting', { name })}</p>;
};

export function formatName(name: string) {
  return i18n.t('greeting', { name });
}
`
	want := `import { t } from '@lingui/macro';
import { useLingui } from '@lingui/react';

export const Greeting = ({ name }: { name: string }) => {
  const { i18n } = useLingui();
  return <p title={t(i18n)` + "`Title`" + `}>{t(i18n)` + "`Hello ${name}`" + `}</p>;
};

export function formatName(name: string) {
  return t(i18n)` + "`Hello ${name}`" + `;
}
`
	m := newMigrator(t, Options{Curry: true})
	res := migrate(t, m, "tsx", src)
	if diff := cmp.Diff(want, string(res.Output)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Greeting"}, res.Injected); diff != "" {
		t.Errorf("Injected mismatch (-want +got):\n%s", diff)
	}
	if res.Unscoped != 1 || res.Translated != 3 {
		t.Errorf("Unscoped = %d, Translated = %d", res.Unscoped, res.Translated)
	}
	assertIdempotent(t, m, "tsx", res.Output)
}

func TestNextToMacroNestedParams(t *testing.T) {
	t.Parallel()

	src := `import i18n from 'i18next';

export function useLabel(count) {
  return i18n.t('items:count', { count, place: t('place:cart') });
}
`
	want := `import { t } from '@lingui/macro';

export function useLabel(count) {
  return t` + "`You have ${count} items in your cart`" + `;
}
`
	m := newMigrator(t, Options{})
	res := migrate(t, m, "javascript", src)
	if diff := cmp.Diff(want, string(res.Output)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	assertIdempotent(t, m, "javascript", res.Output)
}

func TestNextToMacroStripsTranslateFunction(t *testing.T) {
	t.Parallel()

	src := `import { TFunction } from 'i18next';
import { useMoniteContext } from '@/core/context';

export const getLabel = (t: TFunction, id: string) => t('labels:id', { id });

export const useStatus = () => {
  const { t, api } = useMoniteContext();
  const items = useMemo(() => [getLabel(t, '1')], [t, api]);
  return items;
};
`
	want := `import { useMoniteContext } from '@/core/context';
import { t } from '@lingui/macro';

export const getLabel = (id: string) => t` + "`Item ${id}`" + `;

export const useStatus = () => {
  const { api } = useMoniteContext();
  const items = useMemo(() => [getLabel('1')], [api]);
  return items;
};
`
	m := newMigrator(t, Options{})
	res := migrate(t, m, "typescript", src)
	if diff := cmp.Diff(want, string(res.Output)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	assertIdempotent(t, m, "typescript", res.Output)
}

func TestNextToMacroRemovesEmptyContextBinding(t *testing.T) {
	t.Parallel()

	src := `import { useMoniteContext } from '@/core/context';

export const Title = () => {
  const { t } = useMoniteContext();
  return t('common:title');
};
`
	want := `import { t } from '@lingui/macro';

export const Title = () => {
  return t` + "`Title`" + `;
};
`
	m := newMigrator(t, Options{})
	res := migrate(t, m, "javascript", src)
	if diff := cmp.Diff(want, string(res.Output)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestNextToMacroJoinsNestedTemplates(t *testing.T) {
	t.Parallel()

	src := "import { t } from '@lingui/macro';\n\nconst a = t`Go ${t`home`} now ${t`to ${t`bed`}`}`;\n"
	want := "import { t } from '@lingui/macro';\n\nconst a = t`Go home now to bed`;\n"
	m := newMigrator(t, Options{})
	res := migrate(t, m, "javascript", src)
	if diff := cmp.Diff(want, string(res.Output)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestNextToMacroShortCircuit(t *testing.T) {
	t.Parallel()

	src := "// nothing to translate\nexport const x = format('a');\n"
	m := newMigrator(t, Options{Curry: true})
	res := migrate(t, m, "javascript", src)
	if res.Changed || string(res.Output) != src {
		t.Errorf("expected unchanged output, got:\n%s", res.Output)
	}
}

func TestNextToMacroErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want error
	}{
		{"template message", "t(`greeting`);\n", codec.ErrUnsupportedLiteral},
		{"missing key", "t('common:missing');\n", dictionary.ErrKeyNotFound},
		{"not a leaf", "t('common');\n", dictionary.ErrNotAStringLeaf},
		{"params not object", "t('greeting', params);\n", codec.ErrInvalidParamBinding},
		{"spread param", "t('greeting', { ...rest });\n", codec.ErrMalformedProperty},
		{"computed key", "t('greeting', { [key]: 1 });\n", codec.ErrMalformedProperty},
		{"syntax error", "t('greeting', {;\n", syntax.ErrSyntax},
	}
	m := newMigrator(t, Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := m.Migrate(syntax.NewParser(lang.Languages["javascript"]), []byte(tt.src))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if res != nil {
				t.Errorf("partial result returned: %s", res.Output)
			}
		})
	}
}

func TestNextToMacroReportsUnresolvedPlaceholders(t *testing.T) {
	t.Parallel()

	m := newMigrator(t, Options{})
	res := migrate(t, m, "javascript", "export const s = t('greeting');\n")
	if got := string(res.Output); got != "import { t } from '@lingui/macro';\n\nexport const s = t`Hello {{name}}`;\n" {
		t.Errorf("output:\n%s", got)
	}
	if diff := cmp.Diff([]string{"name"}, res.Unresolved); diff != "" {
		t.Errorf("Unresolved mismatch (-want +got):\n%s", diff)
	}
}

func TestNextToMacroKeepsOtherMacroAlias(t *testing.T) {
	t.Parallel()

	src := "import { t as tr } from '@lingui/macro';\nexport const a = tr`x`;\nexport const s = t('greeting', { name });\n"
	want := "import { t as tr, t } from '@lingui/macro';\nexport const a = tr`x`;\nexport const s = t`Hello ${name}`;\n"
	m := newMigrator(t, Options{})
	res := migrate(t, m, "javascript", src)
	if diff := cmp.Diff(want, string(res.Output)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestMacroToRuntime(t *testing.T) {
	t.Parallel()

	src := `import { t, plural } from '@lingui/macro';

export function Cart({ count, user }) {
  return <p>{t` + "`Hello ${user.name}, ${count} items`" + `}</p>;
}
`
	want := `import { plural } from '@lingui/macro';
import { useLingui } from '@lingui/react';

export function Cart({ count, user }) {
  const { i18n } = useLingui();
  return <p>{i18n._('Hello {0}, {count} items', { count, 0: user.name })}</p>;
}
`
	m := newMigrator(t, Options{Mode: MacroToRuntime})
	res := migrate(t, m, "tsx", src)
	if diff := cmp.Diff(want, string(res.Output)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Cart"}, res.Injected); diff != "" {
		t.Errorf("Injected mismatch (-want +got):\n%s", diff)
	}
	assertIdempotent(t, m, "tsx", res.Output)
}

func TestMacroToRuntimeMacroImportLast(t *testing.T) {
	t.Parallel()

	src := `import React from 'react';
import { t } from '@lingui/macro';

export function Title() {
  return <h1>{t` + "`Hello`" + `}</h1>;
}
`
	want := `import React from 'react';
import { useLingui } from '@lingui/react';

export function Title() {
  const { i18n } = useLingui();
  return <h1>{i18n._('Hello')}</h1>;
}
`
	m := newMigrator(t, Options{Mode: MacroToRuntime})
	res := migrate(t, m, "tsx", src)
	if diff := cmp.Diff(want, string(res.Output)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	assertIdempotent(t, m, "tsx", res.Output)
}

func TestMacroToRuntimeWithoutMacroImport(t *testing.T) {
	t.Parallel()

	src := "export const A = () => t`x`;\n"
	m := newMigrator(t, Options{Mode: MacroToRuntime})
	if res := migrate(t, m, "tsx", src); res.Changed {
		t.Errorf("file without macro import changed:\n%s", res.Output)
	}
}

func TestRuntimeToMacro(t *testing.T) {
	t.Parallel()

	src := `import { useLingui } from '@lingui/react';

export function Cart({ count, user }) {
  const { i18n } = useLingui();
  return <p>{i18n._('Hello {0}, {count} items', { count, 0: user.name })}</p>;
}
`
	want := `import { useLingui } from '@lingui/react';
import { t } from '@lingui/macro';

export function Cart({ count, user }) {
  const { i18n } = useLingui();
  return <p>{t(i18n)` + "`Hello ${user.name}, ${count} items`" + `}</p>;
}
`
	m := newMigrator(t, Options{Mode: RuntimeToMacro})
	res := migrate(t, m, "tsx", src)
	if diff := cmp.Diff(want, string(res.Output)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	assertIdempotent(t, m, "tsx", res.Output)
}

func TestRuntimeToMacroDollarIdentifier(t *testing.T) {
	t.Parallel()

	m := newMigrator(t, Options{Mode: RuntimeToMacro})
	src := "import { useLingui } from '@lingui/react';\nconst { i18n } = useLingui();\ni18n._('You have {$count} items', { $count });\n"
	want := "import { useLingui } from '@lingui/react';\nimport { t } from '@lingui/macro';\nconst { i18n } = useLingui();\nt(i18n)`You have ${$count} items`;\n"
	res := migrate(t, m, "javascript", src)
	if diff := cmp.Diff(want, string(res.Output)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRuntimeToMacroMissingValue(t *testing.T) {
	t.Parallel()

	m := newMigrator(t, Options{Mode: RuntimeToMacro})
	_, err := m.Migrate(syntax.NewParser(lang.Languages["javascript"]), []byte("i18n._('Hi {who}');\n"))
	if !errors.Is(err, codec.ErrInvalidParamBinding) {
		t.Fatalf("err = %v, want ErrInvalidParamBinding", err)
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{}); !errors.Is(err, dictionary.ErrMissingDictionaryOption) {
		t.Errorf("missing dictionary: err = %v", err)
	}
	if _, err := New(Options{Mode: "sideways"}); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("bad mode: err = %v", err)
	}
	if _, err := New(Options{Mode: RuntimeToMacro, Names: Names{MacroAlias: "t"}}); err == nil {
		t.Error("alias equal to macro accepted")
	}
	m, err := New(Options{Mode: MacroToRuntime, Names: Names{Runtime: "lingui"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Names().runtimeCallee(); got != "lingui._" {
		t.Errorf("runtimeCallee = %q", got)
	}
}

func TestParseCurry(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]bool{
		"": false, "false": false, "No": false, " FALSE ": false,
		"true": true, "yes": true, "1": true,
	} {
		if got := ParseCurry(in); got != want {
			t.Errorf("ParseCurry(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	if m, err := ParseMode(""); err != nil || m != NextToMacro {
		t.Errorf("ParseMode(\"\") = %q, %v", m, err)
	}
	if m, err := ParseMode("Runtime-To-Macro"); err != nil || m != RuntimeToMacro {
		t.Errorf("ParseMode = %q, %v", m, err)
	}
}
