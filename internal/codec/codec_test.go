package codec

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeDoubleBrace(t *testing.T) {
	t.Parallel()

	params := NewPlaceholders()
	params.Set("name", false, "user.name")
	params.Set("app", true, "Monite")

	got, err := Decode("Hello {{name}}, welcome to {{ app }}!", params, DoubleBrace)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if want := "Hello ${user.name}, welcome to Monite!"; got.Body != want {
		t.Errorf("Body = %q, want %q", got.Body, want)
	}
	if got.Substitutions != 1 {
		t.Errorf("Substitutions = %d, want 1", got.Substitutions)
	}
}

func TestDecodeRepeatedPlaceholder(t *testing.T) {
	t.Parallel()

	params := NewPlaceholders()
	params.Set("n", false, "count")

	got, err := Decode("{{n}} of {{n}}", params, DoubleBrace)
	if err != nil {
		t.Fatal(err)
	}
	if got.Body != "${count} of ${count}" {
		t.Errorf("Body = %q", got.Body)
	}
}

func TestDecodeUnresolvedIsKept(t *testing.T) {
	t.Parallel()

	got, err := Decode("Hi {{name}}", NewPlaceholders(), DoubleBrace)
	if err != nil {
		t.Fatal(err)
	}
	if got.Body != "Hi {{name}}" {
		t.Errorf("Body = %q", got.Body)
	}
	if diff := cmp.Diff([]string{"name"}, got.Unresolved); diff != "" {
		t.Errorf("Unresolved mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	for _, msg := range []string{"open {{ only", "{{count, number}} items", "{{}}"} {
		if _, err := Decode(msg, NewPlaceholders(), DoubleBrace); !errors.Is(err, ErrMalformedPlaceholder) {
			t.Errorf("Decode(%q) err = %v, want ErrMalformedPlaceholder", msg, err)
		}
	}
}

func TestDecodeEscapesTemplateText(t *testing.T) {
	t.Parallel()

	got, err := Decode("Cost: ${{amount}} `code` \\n", func() *Placeholders {
		p := NewPlaceholders()
		p.Set("amount", false, "price")
		return p
	}(), DoubleBrace)
	if err != nil {
		t.Fatal(err)
	}
	if want := "Cost: $${price} \\`code\\` \\\\n"; got.Body != want {
		t.Errorf("Body = %q, want %q", got.Body, want)
	}
}

func TestDecodeSingleBrace(t *testing.T) {
	t.Parallel()

	params := NewPlaceholders()
	params.Set("name", false, "name")
	params.Set("0", false, "items.length")

	got, err := Decode("Hello {name}, {0} new", params, SingleBrace)
	if err != nil {
		t.Fatal(err)
	}
	if got.Body != "Hello ${name}, ${items.length} new" {
		t.Errorf("Body = %q", got.Body)
	}

	if _, err := Decode("Hi {who}", params, SingleBrace); !errors.Is(err, ErrInvalidParamBinding) {
		t.Errorf("err = %v, want ErrInvalidParamBinding", err)
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	tmpl := Template{
		Quasis: []string{"Hello ", ", ", " of ", " and ", ""},
		Exprs:  []string{"name", "1 + getSize()", "length()", "name"},
	}
	idents := map[int]bool{0: true, 3: true}

	call, err := Encode(tmpl, func(i int) bool { return idents[i] })
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if want := "Hello {name}, {1} of {2} and {name}"; call.ID != want {
		t.Errorf("ID = %q, want %q", call.ID, want)
	}
	want := []Value{
		{Key: "name", Source: "name"},
		{Key: "1", Source: "1 + getSize()"},
		{Key: "2", Source: "length()"},
	}
	if diff := cmp.Diff(want, call.Values); diff != "" {
		t.Errorf("Values mismatch (-want +got):\n%s", diff)
	}
	if got := call.Render("i18n._"); got != "i18n._('Hello {name}, {1} of {2} and {name}', { name, 1: 1 + getSize(), 2: length() })" {
		t.Errorf("Render = %s", got)
	}
}

func TestEncodeWithoutExpressions(t *testing.T) {
	t.Parallel()

	call, err := Encode(Template{Quasis: []string{"It\\'s done"}}, func(int) bool { return false })
	if err != nil {
		t.Fatal(err)
	}
	if got := call.Render("i18n._"); got != `i18n._('It\'s done')` {
		t.Errorf("Render = %s", got)
	}
}

func TestEncodeRejectsBraces(t *testing.T) {
	t.Parallel()

	_, err := Encode(Template{Quasis: []string{"Use {braces}"}}, func(int) bool { return false })
	if !errors.Is(err, ErrMalformedPlaceholder) {
		t.Errorf("err = %v, want ErrMalformedPlaceholder", err)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tmpl := Template{
		Quasis: []string{"Hello ", ", you have ", " items `now`"},
		Exprs:  []string{"name", "1+getSize()"},
	}
	tmpl.Quasis[2] = " items \\`now\\`"

	call, err := Encode(tmpl, func(i int) bool { return i == 0 })
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(call.ID, call.Placeholders(), SingleBrace)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Body != tmpl.Body() {
		t.Errorf("round trip:\n got %q\nwant %q", decoded.Body, tmpl.Body())
	}
	if decoded.Substitutions != len(tmpl.Exprs) {
		t.Errorf("Substitutions = %d", decoded.Substitutions)
	}
}

func TestRoundTripDollarIdentifier(t *testing.T) {
	t.Parallel()

	tmpl := Template{Quasis: []string{"You have ", " items"}, Exprs: []string{"$count"}}
	call, err := Encode(tmpl, func(int) bool { return true })
	if err != nil {
		t.Fatal(err)
	}
	if call.ID != "You have {$count} items" {
		t.Errorf("ID = %q", call.ID)
	}
	decoded, err := Decode(call.ID, call.Placeholders(), SingleBrace)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Body != "You have ${$count} items" || decoded.Substitutions != 1 {
		t.Errorf("Decode = %+v", decoded)
	}

	if _, err := Decode("Hi {$who}", NewPlaceholders(), SingleBrace); !errors.Is(err, ErrInvalidParamBinding) {
		t.Errorf("err = %v, want ErrInvalidParamBinding", err)
	}
}

func TestTemplateFlatten(t *testing.T) {
	t.Parallel()

	tmpl := Template{Quasis: []string{"A ", " B ", " C"}, Exprs: []string{"t`x`", "y"}}
	tmpl.Flatten(0, "x")
	if got := tmpl.Body(); got != "A x B ${y} C" {
		t.Errorf("Body = %q", got)
	}
	if len(tmpl.Quasis) != 2 || len(tmpl.Exprs) != 1 {
		t.Errorf("shape = %d/%d", len(tmpl.Quasis), len(tmpl.Exprs))
	}
}

func TestPlaceholdersOrder(t *testing.T) {
	t.Parallel()

	p := NewPlaceholders()
	p.Set("b", false, "b")
	p.Set("a", false, "a")
	p.Set("b", true, "B")
	if diff := cmp.Diff([]string{"b", "a"}, p.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
	if v, _ := p.Get("b"); !v.Literal || v.Source != "B" {
		t.Errorf("Get(b) = %+v", v)
	}
}
