// Package browser manages headless Chrome instances for JS capture: one
// instance per URL group, with a unique profile directory so parallel
// groups never collide, periodic restart to bound memory growth, and a
// hang-kill restart when a page wedges the renderer.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"
	"github.com/go-rod/rod/lib/launcher"
)

var instanceCounter int64

// Config controls how a Manager launches Chrome.
type Config struct {
	Headless   bool
	ChromePath string // explicit executable path; empty lets the launcher resolve one
	Logger     *slog.Logger
}

func (c Config) defaults() Config {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Manager owns one Chrome process and its temporary profile directory.
type Manager struct {
	cfg     Config
	browser *rod.Browser
	lnch    *launcher.Launcher
	dataDir string
}

// New launches a fresh Chrome instance.
func New(cfg Config) (*Manager, error) {
	cfg = cfg.defaults()

	id := atomic.AddInt64(&instanceCounter, 1)
	dataDir := filepath.Join(os.TempDir(), fmt.Sprintf("depfused-browser-%d-%d", os.Getpid(), id))
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		cfg.Logger.Warn("browser: mkdir temp profile dir failed", "error", err, "dir", dataDir)
	}

	l := launcher.New().
		UserDataDir(dataDir).
		Headless(cfg.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("no-sandbox")
	if cfg.ChromePath != "" {
		l = l.Bin(cfg.ChromePath)
	}

	wsURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	b.IgnoreCertErrors(true)

	return &Manager{cfg: cfg, browser: b, lnch: l, dataDir: dataDir}, nil
}

// NewPage opens a stealth-patched blank page.
func (m *Manager) NewPage() (*rod.Page, error) {
	page, err := stealth.Page(m.browser)
	if err != nil {
		return nil, fmt.Errorf("browser: new page: %w", err)
	}
	return page, nil
}

// Close tears down the Chrome process and its profile directory.
func (m *Manager) Close() {
	if m.browser != nil {
		_ = m.browser.Close()
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
	}
	if m.dataDir != "" {
		_ = os.RemoveAll(m.dataDir)
	}
}

// Restart closes the current Chrome process and launches a new one in
// place, used both for periodic recycling and for killing a hung renderer.
func (m *Manager) Restart(ctx context.Context) error {
	m.Close()
	fresh, err := New(m.cfg)
	if err != nil {
		return err
	}
	m.browser = fresh.browser
	m.lnch = fresh.lnch
	m.dataDir = fresh.dataDir
	return nil
}
