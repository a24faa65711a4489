// Package deobfuscate reverses common string-obfuscation tricks used to
// hide a package name from naive string scans: base64, hex/unicode
// escapes, String.fromCharCode, array-join, and string concatenation.
// Every hit is Low confidence; these patterns have the highest
// false-positive rate of any extractor in the pipeline.
package deobfuscate

import (
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/depfused/depfused/filter"
	"github.com/depfused/depfused/internal/normalize"
	"github.com/depfused/depfused/types"
)

var base64Patterns = []*regexp.Regexp{
	regexp.MustCompile(`require\s*\(\s*atob\s*\(\s*["']([A-Za-z0-9+/=]+)["']\s*\)`),
	regexp.MustCompile(`import\s*\(\s*atob\s*\(\s*["']([A-Za-z0-9+/=]+)["']\s*\)`),
	regexp.MustCompile(`(?:window\.)?atob\s*\(\s*["']([A-Za-z0-9+/=]+)["']\s*\)`),
	regexp.MustCompile(`Buffer\.from\s*\(\s*["']([A-Za-z0-9+/=]+)["']\s*,\s*["']base64["']\s*\)`),
}

var hexPatterns = []*regexp.Regexp{
	regexp.MustCompile(`["']((?:\\x[0-9a-fA-F]{2})+)["']`),
	regexp.MustCompile(`require\s*\(\s*["']((?:\\x[0-9a-fA-F]{2})+)["']\s*\)`),
}

var unicodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`["']((?:\\u[0-9a-fA-F]{4})+)["']`),
	regexp.MustCompile(`require\s*\(\s*["']((?:\\u[0-9a-fA-F]{4})+)["']\s*\)`),
}

var fromCharCodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`String\.fromCharCode\s*\(\s*([\d,\s]+)\s*\)`),
	regexp.MustCompile(`require\s*\(\s*String\.fromCharCode\s*\(\s*([\d,\s]+)\s*\)\s*\)`),
	regexp.MustCompile(`String\s*\[\s*["']fromCharCode["']\s*\]\s*\(\s*([\d,\s]+)\s*\)`),
}

var arrayJoinPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[\s*((?:["'][^"']*["']\s*,?\s*)+)\]\s*\.join\s*\(\s*["']['"]?\s*\)`),
	regexp.MustCompile(`require\s*\(\s*\[\s*((?:["'][^"']*["']\s*,?\s*)+)\]\s*\.join`),
}

var scopedConcatRe = regexp.MustCompile(`["']@["']\s*\+\s*["']([\w-]+)["']\s*\+\s*["']/["']\s*\+\s*["']([\w.-]+)["']`)

// ExtractPackages runs every decoding family over content and returns
// the deduplicated, filtered set of packages it can reconstruct.
func ExtractPackages(content, sourceURL string) []types.Package {
	seen := make(map[string]types.Package)

	add := func(name string) {
		if filter.ShouldFilterPackage(name, content, sourceURL) {
			return
		}
		seen[name] = types.Package{
			Name:             name,
			ExtractionMethod: types.MethodDeobfuscate,
			SourceURL:        sourceURL,
			Confidence:       types.ConfidenceLow,
		}
	}

	extractWithDecoder(content, base64Patterns, decodeBase64, add)
	extractWithDecoder(content, hexPatterns, decodeHex, add)
	extractWithDecoder(content, unicodePatterns, decodeUnicode, add)
	extractWithDecoder(content, fromCharCodePatterns, decodeCharCodes, add)
	extractWithDecoder(content, arrayJoinPatterns, decodeArrayJoin, add)
	extractConcatPackages(content, add)

	out := make([]types.Package, 0, len(seen))
	for _, pkg := range seen {
		out = append(out, pkg)
	}
	return out
}

func extractWithDecoder(content string, patterns []*regexp.Regexp, decode func(string) (string, bool), add func(name string)) {
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(content, -1) {
			decoded, ok := decode(m[1])
			if !ok {
				continue
			}
			if normalized, ok := normalize.PackageName(decoded); ok {
				add(normalized)
			}
		}
	}
}

// decodeBase64 decodes a standard-alphabet base64 string to UTF-8 text.
func decodeBase64(encoded string) (string, bool) {
	bytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || !utf8.Valid(bytes) {
		return "", false
	}
	return string(bytes), true
}

var hexEscapeRe = regexp.MustCompile(`\\x([0-9a-fA-F]{2})`)

// decodeHex turns "\x6c\x6f" into "lo".
func decodeHex(encoded string) (string, bool) {
	var sb strings.Builder
	for _, m := range hexEscapeRe.FindAllStringSubmatch(encoded, -1) {
		b, err := strconv.ParseUint(m[1], 16, 8)
		if err != nil {
			continue
		}
		sb.WriteByte(byte(b))
	}
	if sb.Len() == 0 {
		return "", false
	}
	return sb.String(), true
}

var unicodeEscapeRe = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)

// decodeUnicode decodes backslash-u escapes with four hex digits: the
// escapes for U+006C and U+006F become "lo".
func decodeUnicode(encoded string) (string, bool) {
	var sb strings.Builder
	for _, m := range unicodeEscapeRe.FindAllStringSubmatch(encoded, -1) {
		r, err := strconv.ParseUint(m[1], 16, 32)
		if err != nil {
			continue
		}
		sb.WriteRune(rune(r))
	}
	if sb.Len() == 0 {
		return "", false
	}
	return sb.String(), true
}

// decodeCharCodes turns "108,111,100" into "lod".
func decodeCharCodes(codesStr string) (string, bool) {
	var sb strings.Builder
	for _, part := range strings.Split(codesStr, ",") {
		n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			continue
		}
		sb.WriteRune(rune(n))
	}
	if sb.Len() == 0 {
		return "", false
	}
	return sb.String(), true
}

var arrayElementRe = regexp.MustCompile(`["']([^"']*)["']`)

// decodeArrayJoin turns `"l","o","d"` into "lod".
func decodeArrayJoin(arrayStr string) (string, bool) {
	var sb strings.Builder
	for _, m := range arrayElementRe.FindAllStringSubmatch(arrayStr, -1) {
		sb.WriteString(m[1])
	}
	if sb.Len() == 0 {
		return "", false
	}
	return sb.String(), true
}

// extractConcatPackages catches scoped package names built by string
// concatenation: "@" + "company" + "/" + "utils".
func extractConcatPackages(content string, add func(name string)) {
	for _, m := range scopedConcatRe.FindAllStringSubmatch(content, -1) {
		fullName := "@" + m[1] + "/" + m[2]
		if normalized, ok := normalize.PackageName(fullName); ok {
			add(normalized)
		}
	}
}

var obfuscationIndicators = []*regexp.Regexp{
	regexp.MustCompile(`\\x[0-9a-fA-F]{2}`),
	regexp.MustCompile(`\\u[0-9a-fA-F]{4}`),
	regexp.MustCompile(`String\.fromCharCode`),
	regexp.MustCompile(`\["fromCharCode"\]`),
	regexp.MustCompile(`atob\s*\(`),
	regexp.MustCompile(`\.split\s*\(\s*["']["']\s*\)\.reverse`),
	regexp.MustCompile(`eval\s*\(`),
	regexp.MustCompile(`Function\s*\(`),
}

var shortVarRe = regexp.MustCompile(`\b[a-z]\s*=`)

// IsLikelyObfuscated scores content against obfuscation indicators plus
// an excessive-single-letter-variable count (a minification signal): it
// flags content with at least two indicators, or one indicator plus more
// than 50 single-letter assignments.
func IsLikelyObfuscated(content string) bool {
	score := 0
	for _, re := range obfuscationIndicators {
		if re.MatchString(content) {
			score++
		}
	}
	shortVarCount := len(shortVarRe.FindAllString(content, -1))
	return score >= 2 || (score >= 1 && shortVarCount > 50)
}
