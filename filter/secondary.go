package filter

import "strings"

var bundlerArtifactNames = []string{
	"template_id", "chunk_id", "module_id", "webpack_require", "webpackChunk",
	"installedModules", "installedChunks", "__webpack",
	"list-v", "list-a", "list-b", "list-c", "list-d", "list-e",
}

var genericNames = map[string]bool{
	"id": true, "key": true, "value": true, "data": true, "config": true,
	"options": true, "params": true, "result": true, "response": true,
	"request": true, "error": true, "callback": true,
}

var jsBuiltinNames = map[string]bool{
	"constructor": true, "prototype": true, "object": true, "function": true,
	"array": true, "string": true, "number": true, "boolean": true,
	"symbol": true, "undefined": true, "null": true,
	"keys": true, "values": true, "entries": true, "length": true, "name": true,
	"apply": true, "call": true, "bind": true, "create": true, "define": true,
	"freeze": true, "seal": true, "assign": true, "hasownproperty": true,
	"tostring": true, "valueof": true, "getprototypeof": true,
	"isprototypeof": true, "propertyisenumerable": true,
}

var webpackSuffixes = []string{"-handler", "-tgl", "-btn", "-grp", "-chkbox"}

var webpackPatterns = []string{
	"consent-", "opt-out-", "privacy-", "purpose-", "feature-",
	"checkbox-", "legclaim-", "spl-", "header-id", "leg-",
	"close-pc-", "list-save-", "search-", "groups-", "option-",
	"cookie-", "label-", "purposes-", "header-container",
	"portal-", "uw-",
}

var brandNames = map[string]bool{"rakbank": true}

var tlds = []string{
	".com", ".org", ".net", ".io", ".co", ".me", ".ai", ".dev", ".app",
	".edu", ".gov", ".mil", ".int", ".biz", ".info", ".name", ".pro",
	".ae", ".uk", ".ca", ".au", ".de", ".fr", ".jp", ".cn", ".in",
	".br", ".ru", ".it", ".es", ".nl", ".se", ".no", ".dk", ".fi",
	".gr", ".si", ".la", ".be", ".ch", ".at",
}

var moreGenericNames = map[string]bool{
	"initialized": true, "loaded": true, "ready": true, "active": true,
	"enabled": true, "disabled": true, "visible": true, "hidden": true,
	"selected": true, "focused": true, "checked": true, "valid": true,
}

var domEventNames = map[string]bool{
	"mousedown": true, "mouseup": true, "mousemove": true, "mouseover": true,
	"mouseout": true, "mouseenter": true, "mouseleave": true,
	"touchstart": true, "touchend": true, "touchmove": true, "touchcancel": true,
	"keydown": true, "keyup": true, "keypress": true, "beforeunload": true,
	"visibilitychange": true, "readystatechange": true, "onmessage": true,
	"ontouchend": true, "ontouchstart": true, "pointerdown": true,
	"pointerup": true, "pointermove": true, "contextmenu": true,
	"focusin": true, "focusout": true, "compositionstart": true, "compositionend": true,
}

var webConstants = map[string]bool{
	"unsafe-url": true, "no-referrer": true, "same-origin": true,
	"strict-origin": true, "evenodd": true, "alphabetic": true,
	"experimental-webgl": true,
}

// IsLikelyFalsePositive runs a second, name-only heuristic pass over
// an extracted package name: design-system breakpoint suffixes,
// webpack/bundler identifiers, generic variable names, hex hashes,
// JS built-ins, and other shapes that are syntactically valid package
// names but are never what they look like. Scoped packages (other
// than the breakpoint-suffix case) are considered reliable and
// skipped.
func IsLikelyFalsePositive(name string) bool {
	if strings.HasPrefix(name, "@") {
		if hasAnySuffix(name, "-xs", "-sm", "-md", "-lg", "-xl") {
			if strings.Contains(name, "-list/") && strings.Contains(name, "-list-") {
				return true
			}
		}
		return false
	}

	if len(name) <= 2 {
		return true
	}

	if strings.HasSuffix(name, "_id") || strings.HasSuffix(name, "_ID") || strings.HasSuffix(name, "Id") {
		return true
	}

	for _, artifact := range bundlerArtifactNames {
		if name == artifact || strings.HasPrefix(name, artifact) {
			return true
		}
	}

	if len(name) <= 8 && strings.Contains(name, "-") {
		parts := strings.Split(name, "-")
		if len(parts) == 2 && len(parts[1]) <= 2 && isAllAlpha(parts[1]) {
			return true
		}
	}

	if genericNames[name] {
		return true
	}

	if len(name) >= 6 && isAllHex(name) {
		hasLetter, hasDigit := false, false
		for _, c := range name {
			if c >= '0' && c <= '9' {
				hasDigit = true
			} else {
				hasLetter = true
			}
		}
		if hasLetter && hasDigit {
			return true
		}
	}

	lower := strings.ToLower(name)
	if jsBuiltinNames[lower] {
		return true
	}

	if len(name) >= 3 && len(name) <= 4 {
		allLower := isAllLower(name)
		hasDigit := strings.ContainsAny(name, "0123456789")
		allAlnum := isAllAlnum(name)
		if allLower || (hasDigit && allAlnum) {
			return true
		}
	}

	for _, suf := range webpackSuffixes {
		if strings.HasSuffix(name, suf) {
			return true
		}
	}

	for _, pat := range webpackPatterns {
		if strings.HasPrefix(name, pat) || strings.Contains(name, pat) {
			return true
		}
	}

	if brandNames[lower] {
		return true
	}

	if strings.Contains(name, "-") {
		parts := strings.Split(name, "-")
		last := parts[len(parts)-1]
		if len(last) >= 12 && isAllHex(last) {
			return true
		}
	}

	for _, tld := range tlds {
		if strings.Contains(name, tld) {
			return true
		}
	}

	if moreGenericNames[lower] {
		return true
	}
	if domEventNames[lower] {
		return true
	}
	if webConstants[name] {
		return true
	}

	return false
}

// IsLikelyInternal reports whether name contains an indicator of an
// internal/private company package (its own scope or name spells out
// "internal", "private", a company/org/team marker). These are still
// reported as findings, since being internal doesn't make a scope claimed
// on the public registry, but callers may want to flag them
// separately.
func IsLikelyInternal(name string) bool {
	if strings.HasPrefix(name, "@") {
		scope, _, _ := strings.Cut(name, "/")
		for _, ind := range []string{"internal", "private", "corp", "company", "team", "org", "enterprise"} {
			if strings.Contains(scope, ind) {
				return true
			}
		}
	}
	for _, ind := range []string{"internal", "private", "-internal", "-private", "_internal", "_private"} {
		if strings.Contains(name, ind) {
			return true
		}
	}
	return false
}

func hasAnySuffix(s string, sufs ...string) bool {
	for _, suf := range sufs {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func isAllAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}

func isAllLower(s string) bool {
	for _, c := range s {
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

func isAllAlnum(s string) bool {
	for _, c := range s {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}
