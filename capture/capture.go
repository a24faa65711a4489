// Package capture renders a target URL in headless Chrome and collects
// every JavaScript asset the page loads, including assets fetched after
// the initial load (lazy chunks, deferred bundles).
package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/depfused/depfused/capture/internal/browser"
	"github.com/depfused/depfused/internal/jsutil"
	"github.com/depfused/depfused/types"
)

// Config controls capture timing and browser behavior.
type Config struct {
	Timeout      time.Duration // per-page navigation timeout
	Headless     bool
	FastMode     bool   // reduce settle waits; may miss some lazy-loaded JS
	RestartEvery int    // restart Chrome after this many pages (0 = never)
	ChromePath   string // explicit executable path; empty lets rod's launcher resolve one
	Logger       *slog.Logger
}

func (c Config) defaults() Config {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RestartEvery == 0 {
		c.RestartEvery = 50
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// BrowserCapture captures JS assets from target pages via CDP.
type BrowserCapture struct {
	cfg Config
}

// New builds a BrowserCapture.
func New(cfg Config) *BrowserCapture {
	return &BrowserCapture{cfg: cfg.defaults()}
}

// Capture loads a single URL in a fresh browser and returns its JS assets.
func (c *BrowserCapture) Capture(ctx context.Context, targetURL string) ([]types.JsFile, error) {
	mgr, err := browser.New(browser.Config{Headless: c.cfg.Headless, ChromePath: c.cfg.ChromePath, Logger: c.cfg.Logger})
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	defer mgr.Close()

	results := c.CaptureMultiple(ctx, mgr, []string{targetURL})
	return results[targetURL], nil
}

// CaptureGroup launches one browser, captures every URL in the group
// against it (benefiting from the restart/hang-kill safety nets in
// CaptureMultiple), and tears the browser down before returning. Callers
// outside this package use this instead of reaching for a *browser.Manager
// directly, since that type is internal to capture.
func (c *BrowserCapture) CaptureGroup(ctx context.Context, urls []string) map[string][]types.JsFile {
	mgr, err := browser.New(browser.Config{Headless: c.cfg.Headless, ChromePath: c.cfg.ChromePath, Logger: c.cfg.Logger})
	if err != nil {
		c.cfg.Logger.Error("capture: group browser launch failed", "error", err)
		results := make(map[string][]types.JsFile, len(urls))
		for _, u := range urls {
			results[u] = nil
		}
		return results
	}
	defer mgr.Close()

	return c.CaptureMultiple(ctx, mgr, urls)
}

// CaptureMultiple captures JS assets for a group of URLs sharing one
// browser instance, restarting it every RestartEvery pages and whenever a
// page hangs past its hard timeout. Order of processing matches urls, but
// the returned map has no ordering of its own.
func (c *BrowserCapture) CaptureMultiple(ctx context.Context, mgr *browser.Manager, urls []string) map[string][]types.JsFile {
	results := make(map[string][]types.JsFile, len(urls))
	pagesUsed := 0

	for _, u := range urls {
		if pagesUsed > 0 && c.cfg.RestartEvery > 0 && pagesUsed%c.cfg.RestartEvery == 0 {
			c.cfg.Logger.Info("capture: restarting browser to bound memory growth", "pages_used", pagesUsed)
			if err := mgr.Restart(ctx); err != nil {
				c.cfg.Logger.Warn("capture: browser restart failed", "error", err)
			}
		}

		pageTimeout := c.cfg.Timeout + 15*time.Second
		done := make(chan []types.JsFile, 1)
		go func(u string) {
			done <- c.captureOne(ctx, mgr, u)
		}(u)

		select {
		case files := <-done:
			results[u] = files
		case <-time.After(pageTimeout):
			c.cfg.Logger.Warn("capture: hard timeout, killing and restarting browser", "url", u, "timeout", pageTimeout)
			if err := mgr.Restart(ctx); err != nil {
				c.cfg.Logger.Warn("capture: browser restart after timeout failed", "error", err)
			}
			results[u] = nil
			pagesUsed = 0
			continue
		}
		pagesUsed++
	}

	return results
}

// captureOne navigates one page, listens for JS network responses, and
// waits out an adaptive settle window before returning what it captured.
func (c *BrowserCapture) captureOne(ctx context.Context, mgr *browser.Manager, targetURL string) []types.JsFile {
	page, err := mgr.NewPage()
	if err != nil {
		c.cfg.Logger.Warn("capture: new page failed", "error", err, "url", targetURL)
		return nil
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	page = page.Context(navCtx)

	var mu sync.Mutex
	files := make(map[string]types.JsFile)

	if err := proto.NetworkEnable{}.Call(page); err != nil {
		c.cfg.Logger.Warn("capture: network enable failed", "error", err, "url", targetURL)
	}

	go func() {
		page.EachEvent(func(e *proto.NetworkResponseReceived) {
			if !isJsResponse(e) {
				return
			}
			body, err := proto.NetworkGetResponseBody{RequestID: e.RequestID}.Call(page)
			if err != nil || body == nil {
				return
			}
			content := body.Body
			if body.Base64Encoded {
				if decoded, ok := decodeBase64(content); ok {
					content = decoded
				}
			}
			if content == "" {
				return
			}
			mu.Lock()
			files[e.Response.URL] = types.JsFile{
				URL:          e.Response.URL,
				Content:      content,
				ContentHash:  jsutil.HashContent(content),
				Source:       types.JsSourceBrowser,
				SourceMapURL: jsutil.ExtractSourceMapURL(content, e.Response.URL),
			}
			mu.Unlock()
		})()
	}()

	if err := page.Navigate(targetURL); err != nil {
		c.cfg.Logger.Warn("capture: navigation error, continuing with captured content", "error", err, "url", targetURL)
	} else if err := page.WaitLoad(); err != nil {
		c.cfg.Logger.Warn("capture: wait-load timeout, continuing", "error", err, "url", targetURL)
	}

	c.settle(&mu, files)

	mu.Lock()
	out := make([]types.JsFile, 0, len(files))
	for _, f := range files {
		out = append(out, f)
	}
	mu.Unlock()

	c.cfg.Logger.Info("capture: captured js files", "count", len(out), "url", targetURL)
	return out
}

// settle blocks until no new JS file has appeared for three consecutive
// 500ms checks (1.5s quiet period), or until the fast/normal max-wait
// window elapses, whichever comes first.
func (c *BrowserCapture) settle(mu *sync.Mutex, files map[string]types.JsFile) {
	const checkInterval = 500 * time.Millisecond
	maxWait := 3 * time.Second
	if c.cfg.FastMode {
		maxWait = 1 * time.Second
	}
	maxChecks := int(maxWait / checkInterval)

	mu.Lock()
	lastCount := len(files)
	mu.Unlock()
	noChange := 0

	for i := 0; i < maxChecks; i++ {
		time.Sleep(checkInterval)
		mu.Lock()
		current := len(files)
		mu.Unlock()
		if current == lastCount {
			noChange++
			if noChange >= 3 {
				return
			}
		} else {
			noChange = 0
			lastCount = current
		}
	}
}

func isJsResponse(e *proto.NetworkResponseReceived) bool {
	if e.Type == proto.NetworkResourceTypeScript {
		return true
	}
	mime := strings.ToLower(e.Response.MIMEType)
	if strings.Contains(mime, "javascript") {
		return true
	}
	u := e.Response.URL
	return strings.HasSuffix(u, ".js") || strings.Contains(u, ".js?")
}

func decodeBase64(s string) (string, bool) {
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}
