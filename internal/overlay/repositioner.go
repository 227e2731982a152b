package overlay

import (
	"time"

	"github.com/standardbeagle/pagetour/internal/dom"
	"github.com/standardbeagle/pagetour/internal/eventloop"
)

// RepositionerConfig configures the Repositioner.
type RepositionerConfig struct {
	// ScrollDebounce is the quiet period after the last scroll event.
	// Default: 50ms
	ScrollDebounce time.Duration

	// ResizeDebounce is the quiet period after the last resize event.
	// Default: 100ms
	ResizeDebounce time.Duration
}

// DefaultRepositionerConfig returns the default configuration.
func DefaultRepositionerConfig() RepositionerConfig {
	return RepositionerConfig{
		ScrollDebounce: 50 * time.Millisecond,
		ResizeDebounce: 100 * time.Millisecond,
	}
}

// Repositioner calls one reposition routine after scroll and resize
// bursts settle. Scroll and resize are debounced independently.
type Repositioner struct {
	doc      dom.Document
	loop     eventloop.Loop
	cfg      RepositionerConfig
	fn       func()
	removers []func()

	scrollTimer eventloop.Timer
	resizeTimer eventloop.Timer
}

// NewRepositioner starts listening immediately.
func NewRepositioner(doc dom.Document, loop eventloop.Loop, cfg RepositionerConfig, fn func()) *Repositioner {
	if cfg.ScrollDebounce == 0 {
		cfg.ScrollDebounce = 50 * time.Millisecond
	}
	if cfg.ResizeDebounce == 0 {
		cfg.ResizeDebounce = 100 * time.Millisecond
	}

	r := &Repositioner{doc: doc, loop: loop, cfg: cfg, fn: fn}
	r.removers = []func(){
		doc.AddEventListener(dom.EventScroll, func(*dom.Event) {
			r.scrollTimer = r.debounce(r.scrollTimer, r.cfg.ScrollDebounce)
		}, dom.ListenerOptions{}),
		doc.AddEventListener(dom.EventResize, func(*dom.Event) {
			r.resizeTimer = r.debounce(r.resizeTimer, r.cfg.ResizeDebounce)
		}, dom.ListenerOptions{}),
	}
	return r
}

func (r *Repositioner) debounce(pending eventloop.Timer, d time.Duration) eventloop.Timer {
	if pending != nil {
		pending.Stop()
	}
	return r.loop.AfterFunc(d, r.fn)
}

// Stop removes the listeners and drops pending calls.
func (r *Repositioner) Stop() {
	for _, remove := range r.removers {
		remove()
	}
	r.removers = nil
	if r.scrollTimer != nil {
		r.scrollTimer.Stop()
	}
	if r.resizeTimer != nil {
		r.resizeTimer.Stop()
	}
}
