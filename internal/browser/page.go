package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/standardbeagle/pagetour/internal/debug"
	"github.com/standardbeagle/pagetour/internal/dom"
	"github.com/standardbeagle/pagetour/internal/eventloop"
)

//go:embed bridge.js
var bridgeJS string

const bindingName = "__pagetourEvent"

// bridgeEvent is what bridge.js sends through the binding.
type bridgeEvent struct {
	Type string `json:"type"`
	Ref  int    `json:"ref"`
	Key  string `json:"key"`
}

type listenerEntry struct {
	id   int
	fn   dom.Listener
	opts dom.ListenerOptions
}

// Page is a live Chrome tab seen as a dom.Document. Its methods must be
// called from the loop it was opened with; each one is a CDP round trip.
type Page struct {
	rod  *rod.Page
	loop eventloop.Loop
	log  debug.Logger

	listeners map[dom.EventType][]listenerEntry
	nextID    int

	stopOnce sync.Once
	cancel   context.CancelFunc
}

func newPage(rp *rod.Page, loop eventloop.Loop) *Page {
	return &Page{
		rod:       rp,
		loop:      loop,
		log:       debug.For("browser"),
		listeners: make(map[dom.EventType][]listenerEntry),
	}
}

// Rod exposes the underlying rod page.
func (p *Page) Rod() *rod.Page { return p.rod }

// installBridge adds the binding, schedules bridge.js on every new
// document and starts forwarding binding calls to the loop.
func (p *Page) installBridge() error {
	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(p.rod); err != nil {
		return fmt.Errorf("browser: add binding: %w", err)
	}
	if _, err := p.rod.EvalOnNewDocument(bridgeJS); err != nil {
		return fmt.Errorf("browser: install bridge: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.rod.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}
		var ev bridgeEvent
		if err := json.Unmarshal([]byte(e.Payload), &ev); err != nil {
			p.log.Warn("bad bridge payload: %v", err)
			return
		}
		var target dom.Element
		if ev.Ref != 0 {
			els, err := p.rod.ElementsByJS(rod.Eval(`(ref) => window.__pagetour.take(ref)`, ev.Ref))
			if err == nil && len(els) > 0 {
				target = p.wrap(els[0])
			}
		}
		p.loop.Post(func() {
			de := dom.NewEvent(dom.EventType(ev.Type), target)
			de.Key = ev.Key
			p.dispatch(de)
		})
	})()
	return nil
}

// Close stops event forwarding and closes the tab.
func (p *Page) Close() error {
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
	})
	return p.rod.Close()
}

func (p *Page) dispatch(ev *dom.Event) {
	for _, capture := range []bool{true, false} {
		snapshot := append([]listenerEntry(nil), p.listeners[ev.Type]...)
		for _, e := range snapshot {
			if e.opts.Capture != capture || !p.registered(ev.Type, e.id) {
				continue
			}
			if e.opts.Once {
				p.removeListener(ev.Type, e.id)
			}
			e.fn(ev)
			if ev.PropagationStopped() {
				return
			}
		}
	}
}

// AddEventListener implements dom.Document. Registering a capture click
// listener turns on in-page click suppression for non-pagetour targets,
// since the page's default action runs before Go sees the event.
func (p *Page) AddEventListener(typ dom.EventType, fn dom.Listener, opts dom.ListenerOptions) func() {
	p.nextID++
	id := p.nextID
	p.listeners[typ] = append(p.listeners[typ], listenerEntry{id: id, fn: fn, opts: opts})
	if typ == dom.EventClick && opts.Capture {
		p.syncCapture()
	}
	return func() {
		p.removeListener(typ, id)
		if typ == dom.EventClick && opts.Capture {
			p.syncCapture()
		}
	}
}

func (p *Page) removeListener(typ dom.EventType, id int) {
	entries := p.listeners[typ]
	for i, e := range entries {
		if e.id == id {
			p.listeners[typ] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

func (p *Page) registered(typ dom.EventType, id int) bool {
	for _, e := range p.listeners[typ] {
		if e.id == id {
			return true
		}
	}
	return false
}

func (p *Page) syncCapture() {
	on := false
	for _, e := range p.listeners[dom.EventClick] {
		if e.opts.Capture {
			on = true
			break
		}
	}
	if _, err := p.rod.Eval(`(on) => { if (window.__pagetour) window.__pagetour.capture = on }`, on); err != nil {
		p.log.Error("set click capture: %v", err)
	}
}

// byJS runs js (which must return an array of elements) and wraps the
// first result, or returns nil.
func (p *Page) byJS(js string, args ...interface{}) dom.Element {
	els, err := p.rod.ElementsByJS(rod.Eval(js, args...))
	if err != nil {
		p.log.Warn("query: %v", err)
		return nil
	}
	if len(els) == 0 {
		return nil
	}
	return p.wrap(els[0])
}

func (p *Page) evalString(js string, args ...interface{}) string {
	res, err := p.rod.Eval(js, args...)
	if err != nil {
		p.log.Warn("eval: %v", err)
		return ""
	}
	return res.Value.Str()
}

// QuerySelector implements dom.Document.
func (p *Page) QuerySelector(selector string) (dom.Element, error) {
	els, err := p.rod.ElementsByJS(rod.Eval(`(s) => { const e = document.querySelector(s); return e ? [e] : [] }`, selector))
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, nil
	}
	return p.wrap(els[0]), nil
}

// QuerySelectorAll implements dom.Document.
func (p *Page) QuerySelectorAll(selector string) ([]dom.Element, error) {
	els, err := p.rod.ElementsByJS(rod.Eval(`(s) => Array.from(document.querySelectorAll(s))`, selector))
	if err != nil {
		return nil, err
	}
	out := make([]dom.Element, 0, len(els))
	for _, el := range els {
		out = append(out, p.wrap(el))
	}
	return out, nil
}

// GetElementByID implements dom.Document.
func (p *Page) GetElementByID(id string) dom.Element {
	return p.byJS(`(id) => { const e = document.getElementById(id); return e ? [e] : [] }`, id)
}

// DocumentElement implements dom.Document.
func (p *Page) DocumentElement() dom.Element {
	return p.byJS(`() => [document.documentElement]`)
}

// Head implements dom.Document.
func (p *Page) Head() dom.Element {
	return p.byJS(`() => document.head ? [document.head] : []`)
}

// Body implements dom.Document.
func (p *Page) Body() dom.Element {
	return p.byJS(`() => document.body ? [document.body] : []`)
}

// CreateElement implements dom.Document. The element is detached until
// appended.
func (p *Page) CreateElement(tag string) (dom.Element, error) {
	els, err := p.rod.ElementsByJS(rod.Eval(`(t) => [document.createElement(t)]`, tag))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", tag, err)
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("create %s: no element returned", tag)
	}
	return p.wrap(els[0]), nil
}

// ReadyState implements dom.Document.
func (p *Page) ReadyState() dom.ReadyState {
	switch p.evalString(`() => document.readyState`) {
	case "complete":
		return dom.Complete
	case "interactive":
		return dom.Interactive
	default:
		return dom.Loading
	}
}

// Viewport implements dom.Document.
func (p *Page) Viewport() dom.Viewport {
	var vp dom.Viewport
	raw := p.evalString(`() => JSON.stringify({scroll_x: window.scrollX, scroll_y: window.scrollY, width: window.innerWidth, height: window.innerHeight})`)
	if raw == "" {
		return vp
	}
	if err := json.Unmarshal([]byte(raw), &vp); err != nil {
		p.log.Warn("viewport: %v", err)
	}
	return vp
}

// URL implements dom.Document.
func (p *Page) URL() string {
	return p.evalString(`() => location.href`)
}

// DocumentID identifies the document currently loaded in the tab. It
// changes on every navigation or reload and is empty before the bridge
// has run.
func (p *Page) DocumentID() string {
	return p.evalString(`() => window.__pagetour ? window.__pagetour.doc : ""`)
}

// ReplaceURL implements dom.Document.
func (p *Page) ReplaceURL(u string) error {
	_, err := p.rod.Eval(`(u) => history.replaceState(history.state, "", u)`, u)
	return err
}

func (p *Page) wrap(el *rod.Element) *Element {
	return &Element{page: p, el: el}
}

var _ dom.Document = (*Page)(nil)
