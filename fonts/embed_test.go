package fonts

import "testing"

func TestLoadAcceptsPrefixes(t *testing.T) {
	for _, name := range []string{"", "go-regular", "embed:go-mono", "GO-BOLD.ttf"} {
		data, err := Load(name)
		if err != nil {
			t.Fatalf("Load(%q) error: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("Load(%q) returned no data", name)
		}
	}
}

func TestLoadUnknownFont(t *testing.T) {
	if _, err := Load("Inter-Regular"); err == nil {
		t.Fatalf("expected error for unknown font")
	}
}
