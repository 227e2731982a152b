// Package geometry reads element boxes and places overlays next to them.
package geometry

import "github.com/standardbeagle/pagetour/internal/dom"

// BoundingRect returns el's viewport-relative box.
func BoundingRect(el dom.Element) dom.Rect {
	return el.Rect()
}

// IsVisible reports whether el is rendered: not display:none, not
// visibility:hidden, opacity above zero and a non-empty box.
func IsVisible(el dom.Element) bool {
	s := el.Style()
	if s.Display == "none" || s.Visibility == "hidden" || s.Opacity <= 0 {
		return false
	}
	return !el.Rect().Empty()
}

// InViewport reports whether any part of el's box lies inside the window.
func InViewport(el dom.Element, vp dom.Viewport) bool {
	r := el.Rect()
	return r.Bottom() > 0 && r.Right() > 0 && r.Top < vp.Height && r.Left < vp.Width
}

// ToPage converts a viewport-relative rect to document coordinates.
func ToPage(r dom.Rect, vp dom.Viewport) dom.Rect {
	r.Left += vp.ScrollX
	r.Top += vp.ScrollY
	return r
}
