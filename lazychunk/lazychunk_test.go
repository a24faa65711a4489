package lazychunk

import (
	"testing"

	"github.com/depfused/depfused/types"
)

func TestDiscoverResolvesAgainstBaseURL(t *testing.T) {
	files := []types.JsFile{
		{
			URL:     "https://cdn.example.com/assets/main.js",
			Content: `import("./chunk-ABC123.js"); const x = "./chunk-DIHBRSVG.js";`,
		},
	}

	got := Discover(files)
	want := map[string]bool{
		"https://cdn.example.com/assets/chunk-ABC123.js":     true,
		"https://cdn.example.com/assets/chunk-DIHBRSVG.js":   true,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want keys of %v", got, want)
	}
	for _, u := range got {
		if !want[u] {
			t.Errorf("unexpected chunk url %s", u)
		}
	}
}

func TestDiscoverDedupsAcrossFiles(t *testing.T) {
	files := []types.JsFile{
		{URL: "https://a.com/x/main.js", Content: `"./chunk-SAME.js"`},
		{URL: "https://a.com/x/vendor.js", Content: `"./chunk-SAME.js"`},
	}
	got := Discover(files)
	if len(got) != 1 {
		t.Fatalf("expected 1 deduped chunk url, got %v", got)
	}
}

func TestDiscoverSkipsFilesWithNoSlash(t *testing.T) {
	files := []types.JsFile{{URL: "inline", Content: `"./chunk-X.js"`}}
	if got := Discover(files); len(got) != 0 {
		t.Fatalf("expected no chunks, got %v", got)
	}
}
