// Package instrument drives element picking in editor mode: hover
// highlights, click selects, the cancel key backs out.
package instrument

import (
	"strings"

	"github.com/standardbeagle/pagetour/internal/debug"
	"github.com/standardbeagle/pagetour/internal/dom"
	"github.com/standardbeagle/pagetour/internal/eventloop"
	"github.com/standardbeagle/pagetour/internal/geometry"
	"github.com/standardbeagle/pagetour/internal/locator"
)

// Reserved ids of instrumentation UI.
const (
	HighlightID = "pagetour-highlight"
	StyleID     = "pagetour-instrument-style"
)

// ReservedPrefix marks pagetour-owned ids and classes.
const ReservedPrefix = "pagetour-"

// DefaultCancelKey is the key that backs out of a selection.
const DefaultCancelKey = "Escape"

const styleRule = `* { user-select: none !important; -webkit-user-select: none !important; }
a, button, input, select, textarea, label { pointer-events: auto !important; }
#` + HighlightID + ` { pointer-events: none !important; }`

// Selection is emitted when the operator clicks an element.
type Selection struct {
	Locator  locator.Locator
	Snapshot locator.ElementSnapshot
}

// Options configures a Controller.
type Options struct {
	Engine    *locator.Engine
	CancelKey string
	// OwnIDs are extra element ids whose subtrees are never picked.
	OwnIDs []string
	// OnSelect and OnCancel receive picking events.
	OnSelect func(Selection)
	OnCancel func()
}

// Controller attaches page-wide capture listeners while active.
type Controller struct {
	doc  dom.Document
	loop eventloop.Loop
	opts Options
	log  debug.Logger

	active      bool
	highlight   dom.Element
	style       dom.Element
	removers    []func()
	cancelMount func()
}

// New creates an inactive controller.
func New(doc dom.Document, loop eventloop.Loop, opts Options) *Controller {
	if opts.Engine == nil {
		opts.Engine = locator.NewEngine(locator.DefaultOptions())
	}
	if opts.CancelKey == "" {
		opts.CancelKey = DefaultCancelKey
	}
	return &Controller{doc: doc, loop: loop, opts: opts, log: debug.For("instrument")}
}

// Active reports whether picking is on.
func (c *Controller) Active() bool { return c.active }

// Activate installs the highlight, the style rule and the three capture
// listeners. Activating an active controller does nothing.
func (c *Controller) Activate() {
	if c.active {
		return
	}
	c.active = true

	capture := dom.ListenerOptions{Capture: true}
	c.removers = []func(){
		c.doc.AddEventListener(dom.EventPointerOver, c.onPointerOver, capture),
		c.doc.AddEventListener(dom.EventClick, c.onClick, capture),
		c.doc.AddEventListener(dom.EventKeyDown, c.onKeyDown, capture),
	}
	c.cancelMount = dom.WhenInteractive(c.doc, c.loop, c.mount)
	c.log.Log("activated")
}

// Deactivate removes everything Activate installed.
func (c *Controller) Deactivate() {
	if !c.active {
		return
	}
	c.active = false

	for _, remove := range c.removers {
		remove()
	}
	c.removers = nil
	if c.cancelMount != nil {
		c.cancelMount()
		c.cancelMount = nil
	}
	if c.highlight != nil {
		if err := c.highlight.Remove(); err != nil {
			c.log.Error("remove highlight: %v", err)
		}
		c.highlight = nil
	}
	if c.style != nil {
		if err := c.style.Remove(); err != nil {
			c.log.Error("remove style: %v", err)
		}
		c.style = nil
	}
	c.log.Log("deactivated")
}

// HideHighlight hides the highlight without deactivating.
func (c *Controller) HideHighlight() {
	if c.highlight != nil {
		if err := c.highlight.SetStyle("display", "none"); err != nil {
			c.log.Error("hide highlight: %v", err)
		}
	}
}

// Highlight returns the highlight element, or nil before it is mounted.
func (c *Controller) Highlight() dom.Element { return c.highlight }

func (c *Controller) mount(body dom.Element) {
	c.cancelMount = nil

	hl, err := c.doc.CreateElement("div")
	if err == nil {
		err = hl.SetAttr("id", HighlightID)
	}
	if err == nil {
		err = dom.SetStyles(hl,
			"position", "absolute",
			"display", "none",
			"pointer-events", "none",
			"z-index", "2147483600",
			"border", "2px solid #2f80ed",
			"background", "rgba(47, 128, 237, 0.12)",
		)
	}
	if err == nil {
		err = body.AppendChild(hl)
	}
	if err != nil {
		c.log.Error("mount highlight: %v", err)
		return
	}
	c.highlight = hl

	parent := c.doc.Head()
	if parent == nil {
		parent = body
	}
	st, err := c.doc.CreateElement("style")
	if err == nil {
		err = st.SetAttr("id", StyleID)
	}
	if err == nil {
		err = st.SetText(styleRule)
	}
	if err == nil {
		err = parent.AppendChild(st)
	}
	if err != nil {
		c.log.Error("install style rule: %v", err)
		return
	}
	c.style = st
}

func (c *Controller) onPointerOver(ev *dom.Event) {
	el := ev.Target
	if el == nil || c.isOwn(el) || !geometry.IsVisible(el) {
		return
	}
	c.highlightRect(el.Rect())
}

func (c *Controller) onClick(ev *dom.Event) {
	el := ev.Target
	if el == nil || c.isOwn(el) {
		return
	}
	ev.PreventDefault()
	ev.StopPropagation()

	if !geometry.IsVisible(el) {
		return
	}
	sel := Selection{
		Locator:  c.opts.Engine.Generate(el),
		Snapshot: locator.Snapshot(el),
	}
	c.highlightRect(sel.Snapshot.Rect)
	c.log.Log("selected %s via %s", sel.Locator.Selector, sel.Locator.Method)
	if c.opts.OnSelect != nil {
		c.opts.OnSelect(sel)
	}
}

func (c *Controller) onKeyDown(ev *dom.Event) {
	if ev.Key != c.opts.CancelKey {
		return
	}
	c.HideHighlight()
	if c.opts.OnCancel != nil {
		c.opts.OnCancel()
	}
}

func (c *Controller) highlightRect(r dom.Rect) {
	if c.highlight == nil {
		return
	}
	box := geometry.Cover(r, c.doc.Viewport())
	err := dom.SetStyles(c.highlight,
		"display", "block",
		"top", dom.Px(box.Top),
		"left", dom.Px(box.Left),
		"width", dom.Px(box.Width),
		"height", dom.Px(box.Height),
	)
	if err != nil {
		c.log.Error("move highlight: %v", err)
	}
}

// isOwn reports whether el is pagetour UI: under a reserved id, or
// carrying a reserved id or class.
func (c *Controller) isOwn(el dom.Element) bool {
	for cur := el; cur != nil; cur = cur.Parent() {
		id := cur.ID()
		if strings.HasPrefix(id, ReservedPrefix) {
			return true
		}
		for _, own := range c.opts.OwnIDs {
			if id != "" && id == own {
				return true
			}
		}
		for _, cls := range cur.ClassList() {
			if strings.HasPrefix(cls, ReservedPrefix) {
				return true
			}
		}
	}
	return false
}
