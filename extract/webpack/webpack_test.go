package webpack

import "testing"

func TestIsBundle(t *testing.T) {
	if !IsBundle("(window.webpackJsonp=window.webpackJsonp||[]).push") {
		t.Error("expected webpackJsonp push to be detected")
	}
	if !IsBundle("__webpack_require__(123)") {
		t.Error("expected __webpack_require__ to be detected")
	}
	if IsBundle("console.log('hello')") {
		t.Error("plain JS should not be detected as a webpack bundle")
	}
}

func TestPackageFromWebpackPath(t *testing.T) {
	cases := []struct {
		path string
		want string
		ok   bool
	}{
		{"./node_modules/lodash/index.js", "lodash", true},
		{"./node_modules/@company/utils/src/index.js", "@company/utils", true},
		{"./src/app.js", "", false},
	}
	for _, c := range cases {
		got, ok := packageFromWebpackPath(c.path)
		if ok != c.ok || got != c.want {
			t.Errorf("packageFromWebpackPath(%q) = (%q, %v), want (%q, %v)", c.path, got, ok, c.want, c.ok)
		}
	}
}

func TestExtractPackagesModuleIDComment(t *testing.T) {
	content := `/* 42 */ "./node_modules/lodash/index.js"`
	pkgs := ExtractPackages(content, "bundle.js")
	if len(pkgs) != 1 || pkgs[0].Name != "lodash" {
		t.Fatalf("expected lodash, got %v", pkgs)
	}
}

func TestExtractPackagesRequireMap(t *testing.T) {
	content := `"./node_modules/@scope/pkg/index.js": (function(module, exports) {})`
	pkgs := ExtractPackages(content, "bundle.js")
	if len(pkgs) != 1 || pkgs[0].Name != "@scope/pkg" {
		t.Fatalf("expected @scope/pkg, got %v", pkgs)
	}
}

func TestExtractPackagesVendorChunk(t *testing.T) {
	content := `vendors~react-dom.chunk.js`
	pkgs := ExtractPackages(content, "bundle.js")
	found := false
	for _, p := range pkgs {
		if p.Name == "react-dom" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected react-dom from vendor chunk name, got %v", pkgs)
	}
}

func TestExtractNextjsBuildID(t *testing.T) {
	content := `"/_next/static/abc123def/_buildManifest.js"`
	id, ok := ExtractNextjsBuildID(content)
	if !ok || id != "abc123def" {
		t.Fatalf("expected abc123def, got %q, %v", id, ok)
	}
}

func TestNextjsManifestURLs(t *testing.T) {
	urls := NextjsManifestURLs("https://example.com", "abc123")
	if len(urls) != 6 {
		t.Fatalf("expected 6 manifest URLs, got %d", len(urls))
	}
	if urls[0] != "https://example.com/_next/static/abc123/_buildManifest.js" {
		t.Fatalf("unexpected first URL: %s", urls[0])
	}
}
