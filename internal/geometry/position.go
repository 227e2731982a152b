package geometry

import (
	"fmt"

	"github.com/standardbeagle/pagetour/internal/dom"
)

// Placement is the side of the target an overlay sits on.
type Placement string

const (
	Top    Placement = "top"
	Bottom Placement = "bottom"
	Left   Placement = "left"
	Right  Placement = "right"
)

// ParsePlacement accepts the four side names; empty means Bottom.
func ParsePlacement(s string) (Placement, error) {
	switch p := Placement(s); p {
	case "":
		return Bottom, nil
	case Top, Bottom, Left, Right:
		return p, nil
	default:
		return "", fmt.Errorf("unknown placement %q", s)
	}
}

// Edge names the overlay edge that faces the target.
type Edge string

const (
	EdgeTop    Edge = "top"
	EdgeBottom Edge = "bottom"
	EdgeLeft   Edge = "left"
	EdgeRight  Edge = "right"
)

// Size is an overlay's rendered size.
type Size struct {
	Width  float64
	Height float64
}

// Result is an absolute, scroll-inclusive overlay position.
type Result struct {
	Top   float64 `json:"top"`
	Left  float64 `json:"left"`
	Arrow Edge    `json:"arrow"`
}

// Positioner computes overlay placement. Zero values select the defaults.
type Positioner struct {
	Offset float64 // gap between target and overlay
	Margin float64 // inset from the viewport edge when clamping
}

const (
	DefaultOffset = 12
	DefaultMargin = 10
)

// Position places an overlay of size on side of target, then clamps each
// axis into the visible window by the smallest translation. The side is
// never flipped.
func (p Positioner) Position(target dom.Rect, size Size, side Placement, vp dom.Viewport) Result {
	offset, margin := p.Offset, p.Margin
	if offset == 0 {
		offset = DefaultOffset
	}
	if margin == 0 {
		margin = DefaultMargin
	}

	centerX := target.Left + (target.Width-size.Width)/2
	centerY := target.Top + (target.Height-size.Height)/2

	var top, left float64
	var arrow Edge
	switch side {
	case Top:
		top, left, arrow = target.Top-size.Height-offset, centerX, EdgeBottom
	case Left:
		top, left, arrow = centerY, target.Left-size.Width-offset, EdgeRight
	case Right:
		top, left, arrow = centerY, target.Right()+offset, EdgeLeft
	default:
		top, left, arrow = target.Bottom()+offset, centerX, EdgeTop
	}

	top += vp.ScrollY
	left += vp.ScrollX

	return Result{
		Top:   clamp(top, size.Height, vp.ScrollY, vp.Height, margin),
		Left:  clamp(left, size.Width, vp.ScrollX, vp.Width, margin),
		Arrow: arrow,
	}
}

// clamp keeps [pos, pos+extent] inside [scroll+margin, scroll+view-margin].
// When the overlay is larger than the window the leading edge wins.
func clamp(pos, extent, scroll, view, margin float64) float64 {
	hi := scroll + view - margin - extent
	if pos > hi {
		pos = hi
	}
	if lo := scroll + margin; pos < lo {
		pos = lo
	}
	return pos
}

// Position uses the default offset and margin.
func Position(target dom.Rect, size Size, side Placement, vp dom.Viewport) Result {
	return Positioner{}.Position(target, size, side, vp)
}

// Cover returns the absolute box that exactly overlays target.
func Cover(target dom.Rect, vp dom.Viewport) dom.Rect {
	return ToPage(target, vp)
}
