package browser

import (
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"

	"github.com/standardbeagle/pagetour/internal/dom"
)

// Element is a live DOM element handle.
type Element struct {
	page *Page
	el   *rod.Element
}

// Rod exposes the underlying rod element.
func (e *Element) Rod() *rod.Element { return e.el }

func (e *Element) str(js string, args ...interface{}) string {
	res, err := e.el.Eval(js, args...)
	if err != nil {
		e.page.log.Warn("element eval: %v", err)
		return ""
	}
	return res.Value.Str()
}

func (e *Element) decode(js string, v interface{}) bool {
	raw := e.str(js)
	if raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		e.page.log.Warn("element decode: %v", err)
		return false
	}
	return true
}

func (e *Element) do(op, js string, args ...interface{}) error {
	if _, err := e.el.Eval(js, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// TagName implements dom.Element.
func (e *Element) TagName() string { return e.str(`() => this.tagName.toLowerCase()`) }

// ID implements dom.Element.
func (e *Element) ID() string { return e.str(`() => this.id`) }

// Attr implements dom.Element.
func (e *Element) Attr(name string) (string, bool) {
	v, err := e.el.Attribute(name)
	if err != nil {
		e.page.log.Warn("attribute %s: %v", name, err)
		return "", false
	}
	if v == nil {
		return "", false
	}
	return *v, true
}

// Attributes implements dom.Element.
func (e *Element) Attributes() []dom.Attribute {
	var pairs [][2]string
	e.decode(`() => JSON.stringify(Array.from(this.attributes, a => [a.name, a.value]))`, &pairs)
	out := make([]dom.Attribute, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, dom.Attribute{Name: p[0], Value: p[1]})
	}
	return out
}

// ClassList implements dom.Element.
func (e *Element) ClassList() []string {
	var classes []string
	e.decode(`() => JSON.stringify(Array.from(this.classList))`, &classes)
	return classes
}

// Text implements dom.Element.
func (e *Element) Text() string { return e.str(`() => this.textContent || ""`) }

// Parent implements dom.Element. The document element has no parent.
func (e *Element) Parent() dom.Element {
	els, err := e.el.ElementsByJS(rod.Eval(`() => {
		const p = this.parentElement;
		return p ? [p] : [];
	}`))
	if err != nil || len(els) == 0 {
		return nil
	}
	return e.page.wrap(els[0])
}

// Children implements dom.Element.
func (e *Element) Children() []dom.Element {
	els, err := e.el.ElementsByJS(rod.Eval(`() => Array.from(this.children)`))
	if err != nil {
		e.page.log.Warn("children: %v", err)
		return nil
	}
	out := make([]dom.Element, 0, len(els))
	for _, el := range els {
		out = append(out, e.page.wrap(el))
	}
	return out
}

// Rect implements dom.Element.
func (e *Element) Rect() dom.Rect {
	var r dom.Rect
	e.decode(`() => JSON.stringify(this.getBoundingClientRect())`, &r)
	return r
}

// Style implements dom.Element.
func (e *Element) Style() dom.ComputedStyle {
	var s struct {
		Display    string  `json:"display"`
		Visibility string  `json:"visibility"`
		Opacity    float64 `json:"opacity"`
	}
	if !e.decode(`() => {
		const s = getComputedStyle(this);
		return JSON.stringify({display: s.display, visibility: s.visibility, opacity: parseFloat(s.opacity)});
	}`, &s) {
		return dom.ComputedStyle{Display: "block", Visibility: "visible", Opacity: 1}
	}
	return dom.ComputedStyle{Display: s.Display, Visibility: s.Visibility, Opacity: s.Opacity}
}

// Same implements dom.Element by comparing backend node ids.
func (e *Element) Same(other dom.Element) bool {
	o, ok := other.(*Element)
	if !ok || o == nil {
		return false
	}
	if e.el.Object.ObjectID == o.el.Object.ObjectID {
		return true
	}
	a, err := e.el.Describe(0, false)
	if err != nil {
		return false
	}
	b, err := o.el.Describe(0, false)
	if err != nil {
		return false
	}
	return a.BackendNodeID == b.BackendNodeID
}

// SetAttr implements dom.Element.
func (e *Element) SetAttr(name, value string) error {
	return e.do("set attribute", `(n, v) => this.setAttribute(n, v)`, name, value)
}

// RemoveAttr implements dom.Element.
func (e *Element) RemoveAttr(name string) error {
	return e.do("remove attribute", `(n) => this.removeAttribute(n)`, name)
}

// SetStyle implements dom.Element.
func (e *Element) SetStyle(property, value string) error {
	return e.do("set style", `(p, v) => this.style.setProperty(p, v)`, property, value)
}

// SetText implements dom.Element.
func (e *Element) SetText(text string) error {
	return e.do("set text", `(t) => { this.textContent = t }`, text)
}

// SetInnerHTML implements dom.Element.
func (e *Element) SetInnerHTML(markup string) error {
	return e.do("set inner html", `(m) => { this.innerHTML = m }`, markup)
}

// AppendChild implements dom.Element.
func (e *Element) AppendChild(child dom.Element) error {
	c, ok := child.(*Element)
	if !ok {
		return fmt.Errorf("append child: foreign element %T", child)
	}
	return e.do("append child", `(c) => { this.appendChild(c) }`, c.el.Object)
}

// Remove implements dom.Element.
func (e *Element) Remove() error {
	return e.el.Remove()
}

var _ dom.Element = (*Element)(nil)
