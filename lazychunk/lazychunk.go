// Package lazychunk finds lazy-loaded chunk URLs referenced inside
// already-captured JS (webpack/Angular-style chunk filename literals
// and dynamic imports) so the fetcher can pull them in for a second
// extraction pass.
package lazychunk

import (
	"regexp"

	"github.com/depfused/depfused/types"
)

var chunkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`["']\./?(chunk-[a-zA-Z0-9_-]+\.js)["']`),
	regexp.MustCompile(`import\s*\(\s*["']\./?(chunk-[a-zA-Z0-9_-]+\.js)["']\s*\)`),
	regexp.MustCompile(`["']\./?(chunk-[a-zA-Z0-9_-]+\.mjs)["']`),
}

// Discover scans files for lazy-chunk filename references and
// resolves them against each file's own base URL (its directory),
// returning the deduplicated set of absolute chunk URLs.
func Discover(files []types.JsFile) []string {
	seen := make(map[string]struct{})

	for _, f := range files {
		pos := lastSlash(f.URL)
		if pos < 0 {
			continue
		}
		base := f.URL[:pos+1]

		for _, re := range chunkPatterns {
			for _, m := range re.FindAllStringSubmatch(f.Content, -1) {
				chunkURL := base + m[1]
				seen[chunkURL] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	return out
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}
