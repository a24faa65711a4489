// Package fetch retrieves JS assets (lazy chunks, directly-probed URLs)
// over plain HTTP, with rate limiting, linear-backoff retry, and
// content-hash deduplication.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/depfused/depfused/internal/connectivity"
	"github.com/depfused/depfused/internal/jsutil"
	"github.com/depfused/depfused/types"
)

const maxBodyBytes = 10 << 20 // 10MB response body cap

// Option configures a JsFetcher.
type Option func(*JsFetcher)

// WithClient overrides the HTTP client.
func WithClient(c *http.Client) Option { return func(f *JsFetcher) { f.client = c } }

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option { return func(f *JsFetcher) { f.logger = l } }

// WithRateLimit sets the requests-per-second cap. Default: 10/s.
func WithRateLimit(perSecond float64) Option {
	return func(f *JsFetcher) { f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1) }
}

// JsFetcher fetches JS files with retry and dedup.
type JsFetcher struct {
	client  *http.Client
	cfg     types.HTTPConfig
	limiter *rate.Limiter
	logger  *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// New builds a JsFetcher.
func New(cfg types.HTTPConfig, opts ...Option) *JsFetcher {
	f := &JsFetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		limiter: rate.NewLimiter(10, 1),
		logger:  slog.Default(),
		seen:    make(map[string]struct{}),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// FetchOne fetches url with retry, returning nil if the content is a
// duplicate of something already seen, or if the fetch ultimately failed.
func (f *JsFetcher) FetchOne(ctx context.Context, url string, source types.JsSource) *types.JsFile {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil
	}

	var content string
	err := connectivity.Attempt(ctx, f.cfg.MaxRetries, 500*time.Millisecond, f.logger, func(attempt int) (int, error) {
		body, status, ferr := f.doFetch(ctx, url)
		if ferr != nil {
			return status, ferr
		}
		content = body
		return status, nil
	})
	if err != nil {
		f.logger.Debug("fetch: failed", "url", url, "error", err)
		return nil
	}

	hash := jsutil.HashContent(content)
	f.mu.Lock()
	_, dup := f.seen[hash]
	if !dup {
		f.seen[hash] = struct{}{}
	}
	f.mu.Unlock()
	if dup {
		return nil
	}

	return &types.JsFile{
		URL:          url,
		Content:      content,
		ContentHash:  hash,
		Source:       source,
		SourceMapURL: jsutil.ExtractSourceMapURL(content, url),
	}
}

func (f *JsFetcher) doFetch(ctx context.Context, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("fetch: do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp.StatusCode, fmt.Errorf("fetch: %s: HTTP %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("fetch: read body: %w", err)
	}
	return string(data), resp.StatusCode, nil
}
