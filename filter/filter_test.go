package filter

import "testing"

func TestIsLikelyCSSClass(t *testing.T) {
	cases := map[string]bool{
		"card--flipped":      true,
		"button__icon":       true,
		"disclosure--":       true,
		"card-back":          true,
		"button-primary":     true,
		"modal-dialog":       true,
		"vendor-card-image":  true,
		"dashboard-container": true,
		"profile-wrapper":    true,
		"user-container":     true,
		"@babel/core":        false,
		"react-dom":          false,
		"lodash":             false,
	}
	for name, want := range cases {
		if got := IsLikelyCSSClass(name); got != want {
			t.Errorf("IsLikelyCSSClass(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestIsRegexPattern(t *testing.T) {
	if !IsRegexPattern("@selectedprodcount/g") || !IsRegexPattern("pattern/gi") {
		t.Error("expected regex flags to be detected")
	}
	if IsRegexPattern("@babel/core") || IsRegexPattern("react") {
		t.Error("expected real packages to pass")
	}
}

func TestIsBundlerArtifact(t *testing.T) {
	if !IsBundlerArtifact("@playwri_cc9cc6913152bcb3157e8f498f9e38e0") {
		t.Error("expected parcel hash artifact to be detected")
	}
	if !IsBundlerArtifact("@sw_wm7ee5ic4mofrhisudwon4qpq4") {
		t.Error("expected turbopack hash to be detected")
	}
	if IsBundlerArtifact("@babel/core") || IsBundlerArtifact("react") {
		t.Error("expected real packages to pass")
	}
}

func TestIsObfuscationArtifact(t *testing.T) {
	for _, name := range []string{"0x158d0", "0xabcdef", "icjsn", "ipjsn"} {
		if !IsObfuscationArtifact(name) {
			t.Errorf("expected %q to be flagged as obfuscation artifact", name)
		}
	}
	for _, name := range []string{"react", "lodash", "@babel/core"} {
		if IsObfuscationArtifact(name) {
			t.Errorf("expected %q to pass", name)
		}
	}
}

func TestIsURLPathComponent(t *testing.T) {
	context := "http://www.cftc.gov/idc/groups/public/@customerprotection/documents/file/advisory.pdf"
	if !IsURLPathComponent("@customerprotection", context) {
		t.Error("expected URL path component to be detected")
	}
	importContext := "import foo from '@babel/core'"
	if IsURLPathComponent("@babel", importContext) {
		t.Error("expected import statement to not be flagged as URL")
	}
}

func TestIsServiceIntegration(t *testing.T) {
	if !IsServiceIntegration("disclosure--", "https://cmp.osano.com/script.js") {
		t.Error("expected osano CDN to be detected")
	}
	if !IsServiceIntegration("carrot-quest", "https://cdn.carrotquest.io/api.js") {
		t.Error("expected carrotquest CDN to be detected")
	}
	if IsServiceIntegration("react", "https://unpkg.com/react") {
		t.Error("expected unrelated CDN to pass")
	}
}

func TestIsI18nKey(t *testing.T) {
	if !IsI18nKey("@seo_tags/twitter_app_name", `"seo_texts@seo_tags/twitter_app_name"`) {
		t.Error("expected i18n key to be detected")
	}
	if IsI18nKey("@babel/core", "import '@babel/core'") {
		t.Error("expected real package to pass")
	}
}

func TestIsOdooModule(t *testing.T) {
	if !IsOdooModule("@auth_password_policy/password_policy", "", "https://careers.cyshield.com/web/assets/1/29a5eac/web.assets_frontend_lazy.min.js") {
		t.Error("expected odoo asset bundle URL to be detected")
	}
	odooContext := `odoo.define('@auth_password_policy/password_policy', ['@web/core/l10n/translation'], function(require) {`
	if !IsOdooModule("@auth_password_policy/password_policy", odooContext, "") {
		t.Error("expected odoo.define() context to be detected")
	}
	for _, name := range []string{"@web/core/registry", "@web_tour/tour_service", "@odoo/owl", "@mail/core/common"} {
		if !IsOdooModule(name, "", "") {
			t.Errorf("expected %q odoo scope to be detected", name)
		}
	}
	for _, name := range []string{"@babel/core", "@vue/compiler-sfc", "@getbento/website-components", "@playxp/style"} {
		if IsOdooModule(name, "", "") {
			t.Errorf("expected %q to not be flagged as odoo", name)
		}
	}
}

func TestShouldFilterPackage(t *testing.T) {
	for _, name := range []string{"card-back", "node_modules", "@prodcount/g", "0x158d0"} {
		if !ShouldFilterPackage(name, "", "") {
			t.Errorf("expected %q to be filtered", name)
		}
	}
	if !ShouldFilterPackage("disclosure--", "", "https://osano.com") {
		t.Error("expected disclosure-- with osano source to be filtered")
	}
	if !ShouldFilterPackage("@auth_password_policy/password_policy", "", "https://example.com/web/assets/bundle.js") {
		t.Error("expected odoo module under /web/assets/ to be filtered")
	}
	for _, name := range []string{"@babel/core", "react", "lodash"} {
		if ShouldFilterPackage(name, "", "") {
			t.Errorf("expected real package %q to pass", name)
		}
	}
}

func TestShouldFilterPackageDoesNotFilterConfirmedVulnerabilities(t *testing.T) {
	if ShouldFilterPackage("@getbento/website-components", "", "") {
		t.Error("confirmed real vulnerability must never be filtered")
	}
	if ShouldFilterPackage("@playxp/style", "", "") {
		t.Error("confirmed real vulnerability must never be filtered")
	}
	if ShouldFilterPackage("@getbento/website-components", "webpack://_N_E/./node_modules/@getbento/website-components/dist/", "") {
		t.Error("confirmed real vulnerability must never be filtered even with sourcemap context")
	}
	if ShouldFilterPackage("@playxp/style", "node_modules/@playxp/style/dist/images/ico-arrow.svg", "https://cdn.dak.gg") {
		t.Error("confirmed real vulnerability must never be filtered even with webpack context")
	}
}

func TestIsLikelyFalsePositive(t *testing.T) {
	for _, name := range []string{"id", "ab", "chunk_id", "webpackChunk", "list-a", "response", "g3ec", "xt1", "b558"} {
		if !IsLikelyFalsePositive(name) {
			t.Errorf("expected %q to be flagged as likely false positive", name)
		}
	}
	for _, name := range []string{"react", "lodash", "express"} {
		if IsLikelyFalsePositive(name) {
			t.Errorf("expected %q to pass", name)
		}
	}
	// scoped packages (other than the breakpoint-suffix case) are trusted
	if IsLikelyFalsePositive("@babel/core") {
		t.Error("expected scoped package to pass")
	}
	if !IsLikelyFalsePositive("@allocation-list/asset-list-xs") {
		t.Error("expected design-system breakpoint suffix scoped name to be flagged")
	}
}

func TestIsLikelyInternal(t *testing.T) {
	for _, name := range []string{"@company-internal/utils", "@private/auth", "my-internal-lib"} {
		if !IsLikelyInternal(name) {
			t.Errorf("expected %q to be flagged as internal", name)
		}
	}
	for _, name := range []string{"lodash", "@angular/core"} {
		if IsLikelyInternal(name) {
			t.Errorf("expected %q to pass", name)
		}
	}
}
