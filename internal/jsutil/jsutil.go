// Package jsutil holds small helpers shared by capture and fetch: content
// hashing and sourceMappingURL comment extraction.
package jsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
)

var sourceMapPatterns = []*regexp.Regexp{
	regexp.MustCompile(`//[#@]\s*sourceMappingURL\s*=\s*(\S+)`),
	regexp.MustCompile(`/\*[#@]\s*sourceMappingURL\s*=\s*(\S+?)\s*\*/`),
}

// HashContent returns the hex-encoded SHA-256 digest of content.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ExtractSourceMapURL scans content for a sourceMappingURL comment and
// resolves it against baseURL. Returns "" if none is found.
func ExtractSourceMapURL(content, baseURL string) string {
	for _, re := range sourceMapPatterns {
		m := re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		mapURL := strings.TrimSpace(m[1])
		if strings.HasPrefix(mapURL, "data:") {
			return mapURL
		}
		if strings.HasPrefix(mapURL, "http://") || strings.HasPrefix(mapURL, "https://") {
			return mapURL
		}
		base, err := url.Parse(baseURL)
		if err != nil {
			continue
		}
		rel, err := url.Parse(mapURL)
		if err != nil {
			continue
		}
		return base.ResolveReference(rel).String()
	}
	return ""
}
