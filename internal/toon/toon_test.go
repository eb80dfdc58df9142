package toon

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/phobologic/i18nmigrate/internal/model"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "src/App.tsx", "src/App.tsx"},
		{"dotted key", "common.greeting", "common.greeting"},
		{"message with placeholder", "Hello {{name}}", `"Hello {{name}}"`},
		{"plain message", "Save changes", "Save changes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	r := &model.Report{
		Root: "web",
		Mode: "next-to-macro",
		Files: []model.FileResult{
			{
				Path:       "src/App.tsx",
				Language:   "tsx",
				Status:     model.Migrated,
				Translated: 3,
				Injected:   []string{"App", "useTitle"},
				Unresolved: []string{"count"},
				Unscoped:   1,
			},
			{Path: "src/util.ts", Language: "typescript", Status: model.Unchanged},
			{
				Path:     "src/broken.js",
				Language: "javascript",
				Status:   model.Failed,
				Error:    "parse: syntax error at 3:1",
			},
		},
	}

	want := []string{
		"root: web",
		"mode: next-to-macro",
		"write: false",
		"summary[1]{migrated,unchanged,skipped,failed}:",
		"  1,1,0,1",
		"files[2]{path,language,status,translated,injected}:",
		"  src/App.tsx,tsx,migrated,3,App useTitle",
		`  src/broken.js,javascript,failed,0,""`,
		"unresolved[1]{file,placeholder}:",
		"  src/App.tsx,count",
		"unscoped[1]{file,usages}:",
		"  src/App.tsx,1",
		"errors[1]{file,error}:",
		`  src/broken.js,"parse: syntax error at 3:1"`,
	}
	got := strings.Split(Encode(r), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Encode mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	got := Encode(&model.Report{Root: ".", Mode: "macro-to-runtime", Write: true})
	if !strings.Contains(got, "write: true") {
		t.Errorf("expected write flag, got:\n%s", got)
	}
	if !strings.Contains(got, "files[0]{path,language,status,translated,injected}:") {
		t.Errorf("expected empty files section, got:\n%s", got)
	}
	if strings.Contains(got, "unresolved[") {
		t.Errorf("unresolved section must be omitted when empty, got:\n%s", got)
	}
}

func TestEncodeKeys(t *testing.T) {
	t.Parallel()

	got := EncodeKeys(
		[]string{"common.greeting", "common.save"},
		[]string{"Hello, {{name}}", "Save"},
	)
	want := "keys[2]{key,message}:\n  common.greeting,\"Hello, {{name}}\"\n  common.save,Save"
	if got != want {
		t.Errorf("EncodeKeys =\n%s\nwant\n%s", got, want)
	}
}
