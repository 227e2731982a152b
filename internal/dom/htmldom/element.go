package htmldom

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/standardbeagle/pagetour/internal/dom"
)

// Element implements dom.Element over an *html.Node. Each node has exactly
// one wrapper per document, so wrappers compare equal with ==.
type Element struct {
	doc  *Document
	node *html.Node
}

// Node exposes the underlying parse node.
func (e *Element) Node() *html.Node { return e.node }

// TagName implements dom.Element.
func (e *Element) TagName() string { return strings.ToLower(e.node.Data) }

// ID implements dom.Element.
func (e *Element) ID() string { return attr(e.node, "id") }

// Attr implements dom.Element.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// Attributes implements dom.Element.
func (e *Element) Attributes() []dom.Attribute {
	out := make([]dom.Attribute, 0, len(e.node.Attr))
	for _, a := range e.node.Attr {
		if a.Namespace != "" {
			continue
		}
		out = append(out, dom.Attribute{Name: a.Key, Value: a.Val})
	}
	return out
}

// ClassList implements dom.Element.
func (e *Element) ClassList() []string {
	return strings.Fields(attr(e.node, "class"))
}

// Text implements dom.Element.
func (e *Element) Text() string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return b.String()
}

// Parent implements dom.Element.
func (e *Element) Parent() dom.Element {
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(p)
}

// Children implements dom.Element.
func (e *Element) Children() []dom.Element {
	var out []dom.Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

// Same implements dom.Element.
func (e *Element) Same(other dom.Element) bool {
	o, ok := other.(*Element)
	return ok && o != nil && o.node == e.node
}

// Rect implements dom.Element.
func (e *Element) Rect() dom.Rect {
	if r, ok := e.doc.layout[e.node]; ok {
		return r
	}
	styles := parseStyle(attr(e.node, "style"))
	w, wok := px(styles["width"])
	h, hok := px(styles["height"])
	if !wok || !hok {
		return dom.Rect{}
	}
	left, _ := px(styles["left"])
	top, _ := px(styles["top"])
	r := dom.Rect{Left: left, Top: top, Width: w, Height: h}
	if styles["position"] == "absolute" {
		r.Left -= e.doc.viewport.ScrollX
		r.Top -= e.doc.viewport.ScrollY
	}
	return r
}

// Style implements dom.Element.
func (e *Element) Style() dom.ComputedStyle {
	if s, ok := e.doc.styles[e.node]; ok {
		return s
	}
	styles := parseStyle(attr(e.node, "style"))
	s := dom.ComputedStyle{Display: "block", Visibility: "visible", Opacity: 1}
	if v := styles["display"]; v != "" {
		s.Display = v
	}
	if v := styles["visibility"]; v != "" {
		s.Visibility = v
	}
	if v := styles["opacity"]; v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.Opacity = f
		}
	}
	if _, hidden := e.Attr("hidden"); hidden {
		s.Display = "none"
	}
	return s
}

// InlineStyle returns one inline style property.
func (e *Element) InlineStyle(property string) string {
	return parseStyle(attr(e.node, "style"))[property]
}

// SetAttr implements dom.Element.
func (e *Element) SetAttr(name, value string) error {
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			e.node.Attr[i].Val = value
			return nil
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
	return nil
}

// RemoveAttr implements dom.Element.
func (e *Element) RemoveAttr(name string) error {
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			e.node.Attr = append(e.node.Attr[:i], e.node.Attr[i+1:]...)
			return nil
		}
	}
	return nil
}

// SetStyle implements dom.Element. An empty value removes the property.
func (e *Element) SetStyle(property, value string) error {
	styles := parseStyle(attr(e.node, "style"))
	if value == "" {
		delete(styles, property)
	} else {
		styles[property] = value
	}
	return e.SetAttr("style", formatStyle(styles))
}

// SetText implements dom.Element.
func (e *Element) SetText(text string) error {
	e.clearChildren()
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return nil
}

// SetInnerHTML implements dom.Element.
func (e *Element) SetInnerHTML(markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), e.node)
	if err != nil {
		return fmt.Errorf("htmldom: parse fragment: %w", err)
	}
	e.clearChildren()
	for _, n := range nodes {
		e.node.AppendChild(n)
	}
	return nil
}

func (e *Element) clearChildren() {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
}

// AppendChild implements dom.Element. A child that is already attached is
// moved.
func (e *Element) AppendChild(child dom.Element) error {
	c, ok := child.(*Element)
	if !ok || c == nil {
		return fmt.Errorf("htmldom: foreign element %T", child)
	}
	if c.node.Parent != nil {
		c.node.Parent.RemoveChild(c.node)
	}
	e.node.AppendChild(c.node)
	return nil
}

// Remove implements dom.Element.
func (e *Element) Remove() error {
	if e.node.Parent == nil {
		return nil
	}
	e.node.Parent.RemoveChild(e.node)
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func parseStyle(s string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		if name != "" {
			out[name] = strings.TrimSpace(value)
		}
	}
	return out
}

func formatStyle(styles map[string]string) string {
	names := make([]string, 0, len(styles))
	for k := range styles {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+": "+styles[k])
	}
	return strings.Join(parts, "; ")
}

func px(v string) (float64, bool) {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
