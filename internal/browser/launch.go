// Package browser is the live dom.Document backend: a Chrome page driven
// over CDP with go-rod. Page events reach Go through a runtime binding
// installed by an injected bridge script and are dispatched on the
// pagetour event loop.
package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/standardbeagle/pagetour/internal/debug"
	"github.com/standardbeagle/pagetour/internal/eventloop"
)

// Config configures Launch.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of a running Chrome.
	// Empty launches a local one.
	RemoteURL string
	// Bin overrides the Chrome binary. Empty lets the launcher find or
	// download one.
	Bin      string
	Headless bool
	// Width and Height set the page viewport. Default: 1280x800.
	Width  int
	Height int
}

func (c *Config) defaults() {
	if c.Width <= 0 {
		c.Width = 1280
	}
	if c.Height <= 0 {
		c.Height = 800
	}
}

// Browser owns a Chrome connection.
type Browser struct {
	cfg  Config
	rod  *rod.Browser
	lnch *launcher.Launcher
}

// Launch starts Chrome, or connects to cfg.RemoteURL.
func Launch(ctx context.Context, cfg Config) (*Browser, error) {
	cfg.defaults()

	wsURL := cfg.RemoteURL
	var l *launcher.Launcher
	if wsURL == "" {
		l = launcher.New().Context(ctx).Headless(cfg.Headless)
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		debug.Info("browser", "launched chrome at %s", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if l != nil {
			l.Cleanup()
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	return &Browser{cfg: cfg, rod: b, lnch: l}, nil
}

// Open navigates a new tab to pageURL and returns it as a dom.Document
// whose events are posted to loop.
func (b *Browser) Open(ctx context.Context, pageURL string, loop eventloop.Loop) (*Page, error) {
	rp, err := b.rod.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	if err := rp.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  b.cfg.Width,
		Height: b.cfg.Height,
	}); err != nil {
		debug.Warn("browser", "set viewport: %v", err)
	}

	p := newPage(rp, loop)
	if err := p.installBridge(); err != nil {
		rp.Close()
		return nil, err
	}
	if err := rp.Context(ctx).Navigate(pageURL); err != nil {
		rp.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := rp.Context(ctx).WaitLoad(); err != nil {
		debug.Warn("browser", "wait load %s: %v", pageURL, err)
	}
	return p, nil
}

// Close shuts Chrome down.
func (b *Browser) Close() error {
	err := b.rod.Close()
	if b.lnch != nil {
		b.lnch.Cleanup()
	}
	return err
}
