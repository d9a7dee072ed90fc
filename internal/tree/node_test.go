package tree

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseJSONKeepsKeyOrder(t *testing.T) {
	t.Parallel()

	n, err := ParseJSON([]byte(`{"zeta": 1, "alpha": {"b": true, "a": null}, "mid": ["x", 2.5]}`))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}

	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, n.Keys()); diff != "" {
		t.Errorf("top-level keys mismatch (-want +got):\n%s", diff)
	}

	alpha, _ := n.Get("alpha")
	if diff := cmp.Diff([]string{"b", "a"}, alpha.Keys()); diff != "" {
		t.Errorf("nested keys mismatch (-want +got):\n%s", diff)
	}

	mid, _ := n.Get("mid")
	if !mid.IsArray() || mid.Len() != 2 {
		t.Fatalf("Expected 2-item array, got %s of %d", mid.Kind, mid.Len())
	}
	if mid.Items[1].Value != Number("2.5") {
		t.Errorf("Expected number literal 2.5, got %#v", mid.Items[1].Value)
	}
}

func TestParseJSONRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := ParseJSON([]byte(`{"open": `)); err == nil {
		t.Error("Expected error for truncated JSON")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	src := NewMap()
	src.Set("name", String(`quote " and <tag>`))
	src.Set("count", Int(3))
	src.Set("items", NewArray(String("a"), Bool(false), Null()))

	out := src.JSON()
	if !strings.Contains(string(out), `<tag>`) {
		t.Errorf("Expected HTML characters to stay unescaped, got %s", out)
	}

	back, err := ParseJSON(out)
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if !back.Equal(src) {
		t.Errorf("Round trip changed tree:\n%s", out)
	}
	if diff := cmp.Diff(src.Keys(), back.Keys()); diff != "" {
		t.Errorf("Round trip changed key order (-want +got):\n%s", diff)
	}
}

func TestParseYAML(t *testing.T) {
	t.Parallel()

	n, err := ParseYAML([]byte(`
theme: dark
tabs: 2
ratio: 0.5
enabled: true
nothing: null
list:
  - one
  - two
`))
	if err != nil {
		t.Fatalf("ParseYAML failed: %v", err)
	}

	want := map[string]any{
		"theme":   "dark",
		"tabs":    int64(2),
		"ratio":   0.5,
		"enabled": true,
		"nothing": nil,
		"list":    []any{"one", "two"},
	}
	if diff := cmp.Diff(want, n.ToAny()); diff != "" {
		t.Errorf("ToAny mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"theme", "tabs", "ratio", "enabled", "nothing", "list"}, n.Keys()); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
}

func TestParseYAMLEmptyDocument(t *testing.T) {
	t.Parallel()

	n, err := ParseYAML([]byte("# only a comment\n"))
	if err != nil {
		t.Fatalf("ParseYAML failed: %v", err)
	}
	if !n.IsMap() || n.Len() != 0 {
		t.Errorf("Expected empty mapping, got %s of %d", n.Kind, n.Len())
	}
}

func TestParseYAMLMergeKey(t *testing.T) {
	t.Parallel()

	n, err := ParseYAML([]byte(`
base: &base
  a: 1
  b: 2
child:
  <<: *base
  b: 3
`))
	if err != nil {
		t.Fatalf("ParseYAML failed: %v", err)
	}
	child, _ := n.Get("child")
	want := map[string]any{"a": int64(1), "b": int64(3)}
	if diff := cmp.Diff(want, child.ToAny()); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	orig := NewMap()
	inner := NewMap()
	inner.Set("k", String("v"))
	orig.Set("inner", inner)

	c := orig.Clone()
	ci, _ := c.Get("inner")
	ci.Set("k", String("changed"))

	v, _ := inner.Get("k")
	if s, _ := v.Str(); s != "v" {
		t.Errorf("Clone shares structure with original: %q", s)
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	a := NewMap()
	a.Set("x", Num("1.0"))
	a.Set("y", String("z"))
	b := NewMap()
	b.Set("y", String("z"))
	b.Set("x", Num("1"))

	if !a.Equal(b) {
		t.Error("Expected mappings with same content in different order to be equal")
	}

	b.Set("y", String("other"))
	if a.Equal(b) {
		t.Error("Expected different values to be unequal")
	}

	if NewArray(String("a")).Equal(String("a")) {
		t.Error("Expected different kinds to be unequal")
	}
}

func TestDeleteKeepsOrder(t *testing.T) {
	t.Parallel()

	n := NewMap()
	for _, k := range []string{"a", "b", "c"} {
		n.Set(k, Null())
	}
	if !n.Delete("b") {
		t.Fatal("Expected Delete to report removal")
	}
	if n.Delete("missing") {
		t.Error("Expected Delete of missing key to report false")
	}
	if diff := cmp.Diff([]string{"a", "c"}, n.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestText(t *testing.T) {
	t.Parallel()

	n, err := ParseJSON([]byte(`{"status": "green", "deps": ["zap", {"version": 2}]}`))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if got, want := n.Text(), "status green deps zap version 2"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestFromAnyIsDeterministic(t *testing.T) {
	t.Parallel()

	v := map[string]any{"b": 1, "a": []any{"x", true}, "c": map[string]any{"z": nil}}
	first := FromAny(v).CompactJSON()
	for i := 0; i < 5; i++ {
		if got := FromAny(v).CompactJSON(); string(got) != string(first) {
			t.Fatalf("FromAny output changed: %s vs %s", got, first)
		}
	}
	if string(first) != `{"a":["x",true],"b":1,"c":{"z":null}}` {
		t.Errorf("Unexpected encoding: %s", first)
	}
}

func TestYAMLEncodingKeepsOrder(t *testing.T) {
	t.Parallel()

	n := NewMap()
	n.Set("zz", Int(1))
	n.Set("aa", String("dark"))
	out, err := n.YAML()
	if err != nil {
		t.Fatalf("YAML failed: %v", err)
	}
	if string(out) != "zz: 1\naa: dark\n" {
		t.Errorf("Unexpected YAML:\n%s", out)
	}
}
