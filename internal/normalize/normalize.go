// Package normalize turns a raw string pulled out of JS source into a
// candidate npm package name, or rejects it outright (relative imports,
// Node built-ins, and anything that can't be a valid npm package/scope
// name).
package normalize

import "strings"

var nodeBuiltins = map[string]bool{
	"assert": true, "async_hooks": true, "buffer": true, "child_process": true,
	"cluster": true, "console": true, "constants": true, "crypto": true,
	"dgram": true, "dns": true, "domain": true, "events": true, "fs": true,
	"http": true, "http2": true, "https": true, "inspector": true, "module": true,
	"net": true, "os": true, "path": true, "perf_hooks": true, "process": true,
	"punycode": true, "querystring": true, "readline": true, "repl": true,
	"stream": true, "string_decoder": true, "sys": true, "timers": true,
	"tls": true, "trace_events": true, "tty": true, "url": true, "util": true,
	"v8": true, "vm": true, "wasi": true, "worker_threads": true, "zlib": true,
}

// IsNodeBuiltin reports whether name (optionally "node:"-prefixed) is a
// Node.js built-in module, never a registry package.
func IsNodeBuiltin(name string) bool {
	base := strings.TrimPrefix(name, "node:")
	return nodeBuiltins[base]
}

// IsValidPackageName applies npm's name-validity rules: non-empty, <=214
// chars, no leading '.' or '_', lowercase+digits+[-_.] only.
func IsValidPackageName(name string) bool {
	if name == "" || len(name) > 214 {
		return false
	}
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return false
	}
	for _, c := range name {
		if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') && c != '-' && c != '_' && c != '.' {
			return false
		}
	}
	return true
}

// IsValidScope applies the same rules to a "@scope" string (including the @).
func IsValidScope(scope string) bool {
	if !strings.HasPrefix(scope, "@") {
		return false
	}
	name := scope[1:]
	if name == "" || len(name) > 214 {
		return false
	}
	for _, c := range name {
		if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') && c != '-' && c != '_' {
			return false
		}
	}
	return true
}

// PackageName normalizes a raw import/require specifier into a package
// name, or ("", false) if it can't be one (relative/absolute path, Node
// built-in, or invalid per npm naming rules).
func PackageName(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if strings.HasPrefix(trimmed, ".") || strings.HasPrefix(trimmed, "/") {
		return "", false
	}
	if IsNodeBuiltin(trimmed) {
		return "", false
	}

	if strings.HasPrefix(trimmed, "@") {
		parts := strings.SplitN(trimmed, "/", 3)
		if len(parts) < 2 {
			return "", false
		}
		scope, pkg := parts[0], parts[1]
		if !IsValidScope(scope) || !IsValidPackageName(pkg) {
			return "", false
		}
		return scope + "/" + pkg, true
	}

	pkg := strings.SplitN(trimmed, "/", 2)[0]
	if !IsValidPackageName(pkg) {
		return "", false
	}
	return pkg, true
}
