// Package dom defines the page model pagetour components are written
// against. Backends live in dom/htmldom (parsed, in-memory documents) and
// internal/browser (a live Chrome page).
//
// All methods are expected to be called from the page's event loop.
package dom

import "errors"

// ErrDetached is returned by mutations on elements no longer in a document.
var ErrDetached = errors.New("element is not attached to a document")

// Attribute is a name/value pair in document order.
type Attribute struct {
	Name  string
	Value string
}

// Rect is a viewport-relative bounding rectangle in CSS pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Empty reports whether the rect has no rendered area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Viewport is the visible window: scroll offsets and inner size.
type Viewport struct {
	ScrollX float64 `json:"scroll_x"`
	ScrollY float64 `json:"scroll_y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// ComputedStyle is the subset of computed style pagetour reads.
type ComputedStyle struct {
	Display    string
	Visibility string
	Opacity    float64
}

// Element is a DOM element.
type Element interface {
	TagName() string // lower case
	ID() string
	Attr(name string) (string, bool)
	Attributes() []Attribute
	ClassList() []string
	Text() string

	Parent() Element // nil for the document element and detached nodes
	Children() []Element

	Rect() Rect
	Style() ComputedStyle

	// Same reports whether other refers to the same underlying node.
	Same(other Element) bool

	SetAttr(name, value string) error
	RemoveAttr(name string) error
	SetStyle(property, value string) error
	SetText(text string) error
	SetInnerHTML(markup string) error
	AppendChild(child Element) error
	Remove() error
}

// ReadyState mirrors document.readyState.
type ReadyState int

const (
	Loading ReadyState = iota
	Interactive
	Complete
)

// Document is a page. QuerySelector returns (nil, nil) when nothing
// matches and a non-nil error for an invalid selector.
type Document interface {
	QuerySelector(selector string) (Element, error)
	QuerySelectorAll(selector string) ([]Element, error)
	GetElementByID(id string) Element

	DocumentElement() Element
	Head() Element
	Body() Element // nil while the body has not been parsed

	CreateElement(tag string) (Element, error)

	ReadyState() ReadyState
	Viewport() Viewport
	URL() string
	// ReplaceURL rewrites the address without navigating, like
	// history.replaceState.
	ReplaceURL(url string) error

	AddEventListener(typ EventType, listener Listener, opts ListenerOptions) (remove func())
}

// ContainsOrSelf reports whether el is ancestor or el itself.
func ContainsOrSelf(ancestor, el Element) bool {
	for cur := el; cur != nil; cur = cur.Parent() {
		if cur.Same(ancestor) {
			return true
		}
	}
	return false
}

// HasClass reports whether el carries class name.
func HasClass(el Element, name string) bool {
	for _, c := range el.ClassList() {
		if c == name {
			return true
		}
	}
	return false
}
