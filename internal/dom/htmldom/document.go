// Package htmldom is an in-memory dom.Document built on golang.org/x/net/html
// with CSS selector matching from cascadia.
//
// There is no layout engine: element rectangles come from SetLayout, or
// from px values in an element's inline style (which is how overlays
// positioned by pagetour report their geometry). Computed style is read
// from the inline style attribute unless overridden with SetComputedStyle.
package htmldom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/standardbeagle/pagetour/internal/dom"
)

// DefaultViewport is used until SetViewport is called.
var DefaultViewport = dom.Viewport{Width: 1280, Height: 800}

type listenerEntry struct {
	id   int
	fn   dom.Listener
	opts dom.ListenerOptions
}

// Document implements dom.Document over a parsed node tree.
type Document struct {
	root     *html.Node
	url      string
	ready    dom.ReadyState
	viewport dom.Viewport

	wrappers map[*html.Node]*Element
	layout   map[*html.Node]dom.Rect
	styles   map[*html.Node]dom.ComputedStyle

	listeners     map[dom.EventType][]listenerEntry
	elemListeners map[*html.Node]map[dom.EventType][]dom.Listener
	nextID        int
}

// Parse reads a complete HTML document. The result is ready (Complete).
func Parse(r io.Reader, pageURL string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldom: parse: %w", err)
	}
	d := newDocument(root, pageURL)
	d.ready = dom.Complete
	return d, nil
}

// ParseString is Parse over a string.
func ParseString(markup, pageURL string) (*Document, error) {
	return Parse(strings.NewReader(markup), pageURL)
}

// NewLoading returns a document whose body has not been parsed yet, for
// exercising deferred mounting. Call FinishLoading to attach the body.
func NewLoading(pageURL string) *Document {
	root := &html.Node{Type: html.DocumentNode}
	htmlEl := &html.Node{Type: html.ElementNode, Data: "html", DataAtom: atom.Html}
	head := &html.Node{Type: html.ElementNode, Data: "head", DataAtom: atom.Head}
	htmlEl.AppendChild(head)
	root.AppendChild(htmlEl)
	return newDocument(root, pageURL)
}

func newDocument(root *html.Node, pageURL string) *Document {
	return &Document{
		root:          root,
		url:           pageURL,
		ready:         dom.Loading,
		viewport:      DefaultViewport,
		wrappers:      make(map[*html.Node]*Element),
		layout:        make(map[*html.Node]dom.Rect),
		styles:        make(map[*html.Node]dom.ComputedStyle),
		listeners:     make(map[dom.EventType][]listenerEntry),
		elemListeners: make(map[*html.Node]map[dom.EventType][]dom.Listener),
	}
}

// FinishLoading parses bodyMarkup into a new body element, marks the
// document interactive and dispatches DOMContentLoaded.
func (d *Document) FinishLoading(bodyMarkup string) error {
	htmlEl := d.documentNode()
	if htmlEl == nil {
		return fmt.Errorf("htmldom: no document element")
	}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(bodyMarkup), body)
	if err != nil {
		return fmt.Errorf("htmldom: parse body: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	htmlEl.AppendChild(body)
	d.ready = dom.Interactive
	d.Dispatch(dom.NewEvent(dom.EventDOMContentLoaded, nil))
	return nil
}

func (d *Document) wrap(n *html.Node) *Element {
	if n == nil {
		return nil
	}
	if w, ok := d.wrappers[n]; ok {
		return w
	}
	w := &Element{doc: d, node: n}
	d.wrappers[n] = w
	return w
}

// wrapElem avoids returning a typed nil inside the dom.Element interface.
func (d *Document) wrapElem(n *html.Node) dom.Element {
	if n == nil {
		return nil
	}
	return d.wrap(n)
}

func (d *Document) documentNode() *html.Node {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func (d *Document) childByAtom(a atom.Atom) *html.Node {
	htmlEl := d.documentNode()
	if htmlEl == nil {
		return nil
	}
	for c := htmlEl.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

// QuerySelector implements dom.Document.
func (d *Document) QuerySelector(selector string) (dom.Element, error) {
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("htmldom: invalid selector %q: %w", selector, err)
	}
	return d.wrapElem(cascadia.Query(d.root, sel)), nil
}

// QuerySelectorAll implements dom.Document.
func (d *Document) QuerySelectorAll(selector string) ([]dom.Element, error) {
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("htmldom: invalid selector %q: %w", selector, err)
	}
	nodes := cascadia.QueryAll(d.root, sel)
	out := make([]dom.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, d.wrap(n))
	}
	return out, nil
}

// GetElementByID implements dom.Document.
func (d *Document) GetElementByID(id string) dom.Element {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return d.wrapElem(found)
}

// DocumentElement implements dom.Document.
func (d *Document) DocumentElement() dom.Element { return d.wrapElem(d.documentNode()) }

// Head implements dom.Document.
func (d *Document) Head() dom.Element { return d.wrapElem(d.childByAtom(atom.Head)) }

// Body implements dom.Document.
func (d *Document) Body() dom.Element { return d.wrapElem(d.childByAtom(atom.Body)) }

// CreateElement implements dom.Document. The element is detached.
func (d *Document) CreateElement(tag string) (dom.Element, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return nil, fmt.Errorf("htmldom: empty tag name")
	}
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	return d.wrap(n), nil
}

// ReadyState implements dom.Document.
func (d *Document) ReadyState() dom.ReadyState { return d.ready }

// URL implements dom.Document.
func (d *Document) URL() string { return d.url }

// SetURL changes the document address, as a navigation would.
func (d *Document) SetURL(u string) { d.url = u }

// ReplaceURL implements dom.Document.
func (d *Document) ReplaceURL(u string) error {
	d.url = u
	return nil
}

// Viewport implements dom.Document.
func (d *Document) Viewport() dom.Viewport { return d.viewport }

// SetViewport replaces the viewport without dispatching events.
func (d *Document) SetViewport(vp dom.Viewport) { d.viewport = vp }

// ScrollTo moves the scroll offsets and dispatches a scroll event.
func (d *Document) ScrollTo(x, y float64) {
	d.viewport.ScrollX, d.viewport.ScrollY = x, y
	d.Dispatch(dom.NewEvent(dom.EventScroll, nil))
}

// Resize changes the viewport size and dispatches a resize event.
func (d *Document) Resize(width, height float64) {
	d.viewport.Width, d.viewport.Height = width, height
	d.Dispatch(dom.NewEvent(dom.EventResize, nil))
}

// SetLayout fixes the viewport-relative rectangle reported for el.
func (d *Document) SetLayout(el dom.Element, r dom.Rect) {
	if e, ok := el.(*Element); ok {
		d.layout[e.node] = r
	}
}

// SetComputedStyle overrides the style reported for el.
func (d *Document) SetComputedStyle(el dom.Element, s dom.ComputedStyle) {
	if e, ok := el.(*Element); ok {
		d.styles[e.node] = s
	}
}

// Render serializes the document.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String returns the serialized document.
func (d *Document) String() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

var (
	_ dom.Document = (*Document)(nil)
	_ dom.Element  = (*Element)(nil)
)
