package binding

import (
	"reflect"
	"testing"
)

func TestInterpolateResolvesPaths(t *testing.T) {
	data, err := Decode([]byte(`{"species":{"name":"Porygon","forms":[{"name":"porygon-z"}]},"id":137}`), ".json")
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	got := Interpolate("${species.name} #${id} ${species.forms[0].name}", data)
	if got != "Porygon #137 porygon-z" {
		t.Fatalf("unexpected interpolation: %q", got)
	}
}

func TestInterpolateKeepsMissing(t *testing.T) {
	data := map[string]any{"a": "x"}
	text := "${a}-${b}-${a.c}-${}"
	if got := Interpolate(text, data); got != "x-${b}-${a.c}-${}" {
		t.Fatalf("unexpected interpolation: %q", got)
	}
	if got := Missing(text, data); !reflect.DeepEqual(got, []string{"b", "a.c"}) {
		t.Fatalf("unexpected missing paths: %q", got)
	}
	if got := Interpolate("${a}", nil); got != "${a}" {
		t.Fatalf("nil data should keep placeholders: %q", got)
	}
}

func TestDecodeTOML(t *testing.T) {
	data, err := Decode([]byte("[species]\nname = \"mew\"\n"), ".toml")
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if got := Interpolate("${species.name}", data); got != "mew" {
		t.Fatalf("unexpected interpolation: %q", got)
	}
}

func TestResolveIndexes(t *testing.T) {
	data := map[string]any{
		"grid": []any{[]any{"a", "b"}, []any{"c"}},
		"dex":  []map[string]any{{"name": "mew"}},
	}
	cases := map[string]any{
		"grid[0][1]":  "b",
		"grid[1][0]":  "c",
		"dex[0].name": "mew",
	}
	for path, want := range cases {
		if got, ok := Resolve(data, path); !ok || got != want {
			t.Fatalf("Resolve(%q) = %v, %v", path, got, ok)
		}
	}
	for _, bad := range []string{"grid[2]", "grid[-1]", "grid[x]", "grid[0", "dex.name", ""} {
		if _, ok := Resolve(data, bad); ok {
			t.Fatalf("Resolve(%q) should fail", bad)
		}
	}
}
