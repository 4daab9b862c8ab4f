package derive

import (
	"strings"
	"testing"

	"github.com/oapigen/oapigen/internal/typedef"
	"github.com/oapigen/oapigen/oapi"
)

func TestRenderLiteralOneLine(t *testing.T) {
	got := renderLiteral(1, []string{`Type: "string"`, `Format: "byte"`})
	want := `&oapi.Schema{Type: "string", Format: "byte"}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderLiteralBreaksLongParts(t *testing.T) {
	long := `Description: "` + strings.Repeat("x", 120) + `"`
	got := renderLiteral(2, []string{`Type: "string"`, long})
	if !strings.HasPrefix(got, "&oapi.Schema{\n") {
		t.Fatalf("long literal must break: %q", got)
	}
	if !strings.Contains(got, "\n\t\t\tType: \"string\",\n") {
		t.Errorf("parts must indent one past the literal:\n%s", got)
	}
	if !strings.HasSuffix(got, "\n\t\t}") {
		t.Errorf("close brace must sit at the literal's own depth:\n%s", got)
	}
}

func TestRenderLiteralEmpty(t *testing.T) {
	if got := renderLiteral(0, nil); got != "&oapi.Schema{}" {
		t.Errorf("got %q", got)
	}
}

func TestRenderGoValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "nil"},
		{"a\"b", `"a\"b"`},
		{true, "true"},
		{42, "42"},
		{int64(42), "42"},
		{3.5, "3.5"},
		{2.0, "2.0"},
		{[]any{1, "two"}, `[]any{1, "two"}`},
		{map[string]any{"b": 2, "a": 1}, `map[string]any{"a": 1, "b": 2}`},
	}
	for _, tc := range tests {
		if got := renderGoValue(tc.in); got != tc.want {
			t.Errorf("renderGoValue(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatFloatLiteral(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1.0"},
		{1.5, "1.5"},
		{1e21, "1e+21"},
		{-3, "-3.0"},
	}
	for _, tc := range tests {
		if got := formatFloatLiteral(tc.in); got != tc.want {
			t.Errorf("formatFloatLiteral(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTailPartsConstraints(t *testing.T) {
	s := &oapi.Schema{
		Minimum:   oapi.Ptr(0.0),
		MaxLength: oapi.Ptr(10),
		Pattern:   "^a",
	}
	parts := tailParts(s)
	want := []string{"Minimum: oapi.Ptr(0.0)", "MaxLength: oapi.Ptr(10)", `Pattern: "^a"`}
	if len(parts) != len(want) {
		t.Fatalf("parts = %v", parts)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("parts[%d] = %q, want %q", i, parts[i], want[i])
		}
	}
}

func TestGoType(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"int64", "int64"},
		{"bytes", "[]byte"},
		{"time", "time.Time"},
		{"Pet", "Pet"},
		{"[]Pet", "[]Pet"},
		{"map[string]*Pet", "map[string]*Pet"},
		{"Pair[int32, []string]", "Pair[int32, []string]"},
	}
	for _, tc := range tests {
		ref, err := typedef.ParseRef(tc.ref)
		if err != nil {
			t.Fatalf("ParseRef(%q): %v", tc.ref, err)
		}
		if got := GoType(ref); got != tc.want {
			t.Errorf("GoType(%q) = %q, want %q", tc.ref, got, tc.want)
		}
	}
}

func TestGoImports(t *testing.T) {
	ref, err := typedef.ParseRef("map[string][]time")
	if err != nil {
		t.Fatal(err)
	}
	imports := make(map[string]bool)
	GoImports(ref, imports)
	if !imports["time"] {
		t.Errorf("imports = %v", imports)
	}
}
