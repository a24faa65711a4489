// Package sourcemap discovers and parses JavaScript source maps: it
// probes for .map files that aren't referenced by a sourceMappingURL
// comment, and extracts package names from a source map's sources[]
// paths and embedded sourcesContent.
package sourcemap

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Prober tries a closed set of URL variations to find a source map
// for a JS file that doesn't reference one directly.
type Prober struct {
	client *http.Client
	ua     string
	logger *slog.Logger
}

// NewProber builds a Prober with the given timeout and User-Agent.
func NewProber(timeout time.Duration, userAgent string, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		client: &http.Client{Timeout: timeout},
		ua:     userAgent,
		logger: logger,
	}
}

// Probe tries every source-map URL variation for jsURL in order,
// returning the first one that responds with a validated source map.
func (p *Prober) Probe(ctx context.Context, jsURL string) (mapURL, content string, ok bool) {
	for _, candidate := range Variations(jsURL) {
		if body, fetched := p.tryFetch(ctx, candidate); fetched {
			p.logger.Debug("sourcemap: found via probe", "url", candidate)
			return candidate, body, true
		}
	}
	return "", "", false
}

func (p *Prober) tryFetch(ctx context.Context, url string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", p.ua)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		ct = strings.ToLower(ct)
		if !strings.Contains(ct, "json") && !strings.Contains(ct, "sourcemap") &&
			!strings.Contains(ct, "text/plain") && !strings.Contains(ct, "application/octet-stream") {
			return "", false
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", false
	}

	content := string(body)
	if !IsValidSourceMap(content) {
		return "", false
	}
	return content, true
}

// Variations returns the closed set of candidate .map URLs for a JS
// asset URL: a direct ".map" suffix, the un-minified/minified sibling
// path when applicable, and three common sourcemap sibling
// directories relative to the asset's own directory.
func Variations(jsURL string) []string {
	var variations []string

	variations = append(variations, jsURL+".map")

	if strings.Contains(jsURL, ".min.js") {
		withoutMin := strings.Replace(jsURL, ".min.js", ".js", 1)
		variations = append(variations, withoutMin+".map")
	}

	if strings.HasSuffix(jsURL, ".js") && !strings.Contains(jsURL, ".min.") {
		withMin := strings.Replace(jsURL, ".js", ".min.js", 1)
		variations = append(variations, withMin+".map")
	}

	if idx := strings.LastIndexByte(jsURL, '/'); idx >= 0 {
		baseURL := jsURL[:idx+1]
		filename := jsURL[idx+1:]
		variations = append(variations,
			fmt.Sprintf("%ssourcemaps/%s.map", baseURL, filename),
			fmt.Sprintf("%s_sourcemaps/%s.map", baseURL, filename),
			fmt.Sprintf("%smaps/%s.map", baseURL, filename),
		)
	}

	return variations
}

// IsValidSourceMap reports whether content looks like a real source
// map: a JSON object containing a "version" field and either
// "sources" or "mappings".
func IsValidSourceMap(content string) bool {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	if !strings.Contains(content, `"version"`) {
		return false
	}
	return strings.Contains(content, `"sources"`) || strings.Contains(content, `"mappings"`)
}

// DecodeInline decodes a base64-encoded inline source map embedded in
// a "data:application/json;base64,..." sourceMappingURL value.
func DecodeInline(dataURL string) (string, bool) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", false
	}
	const marker = ";base64,"
	idx := strings.Index(dataURL, marker)
	if idx < 0 {
		return "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(dataURL[idx+len(marker):])
	if err != nil {
		return "", false
	}
	return string(decoded), true
}
