package overlay

import (
	"github.com/microcosm-cc/bluemonday"

	"github.com/standardbeagle/pagetour/internal/annotation"
	"github.com/standardbeagle/pagetour/internal/dom"
	"github.com/standardbeagle/pagetour/internal/geometry"
)

// GuideOptions configures a GuideRenderer.
type GuideOptions struct {
	Positioner geometry.Positioner
	// DefaultSize is used on any axis the backend reports no layout for.
	DefaultSize geometry.Size
	// Policy sanitizes guide bodies. Default: bluemonday UGC.
	Policy *bluemonday.Policy
}

// DefaultGuideOptions returns the stock tooltip settings.
func DefaultGuideOptions() GuideOptions {
	return GuideOptions{
		DefaultSize: geometry.Size{Width: 280, Height: 120},
		Policy:      bluemonday.UGCPolicy(),
	}
}

// GuideRenderer mounts one tooltip per active guide.
type GuideRenderer struct {
	*renderer
	opts          GuideOptions
	removeDismiss func()
}

// NewGuideRenderer creates a renderer for doc. Clicking a tooltip's
// dismiss control removes that tooltip.
func NewGuideRenderer(doc dom.Document, opts GuideOptions) *GuideRenderer {
	def := DefaultGuideOptions()
	if opts.DefaultSize.Width <= 0 {
		opts.DefaultSize.Width = def.DefaultSize.Width
	}
	if opts.DefaultSize.Height <= 0 {
		opts.DefaultSize.Height = def.DefaultSize.Height
	}
	if opts.Policy == nil {
		opts.Policy = def.Policy
	}

	g := &GuideRenderer{
		renderer: newRenderer(doc, annotation.KindGuide, GuidesRootID),
		opts:     opts,
	}
	g.mount = g.build
	g.place = g.position
	g.removeDismiss = doc.AddEventListener(dom.EventClick, g.onClick, dom.ListenerOptions{})
	return g
}

// Render replaces every tooltip with those for pageKey.
func (g *GuideRenderer) Render(list []annotation.Annotation, pageKey string) error {
	return g.render(list, pageKey)
}

// UpdatePositions repositions mounted tooltips against fresh lookups.
func (g *GuideRenderer) UpdatePositions(list []annotation.Annotation) {
	g.updatePositions(list)
}

// Dismiss removes one tooltip.
func (g *GuideRenderer) Dismiss(id string) bool { return g.dismiss(id) }

// Destroy removes every tooltip, the container and the dismiss listener.
func (g *GuideRenderer) Destroy() {
	g.destroy()
	if g.removeDismiss != nil {
		g.removeDismiss()
		g.removeDismiss = nil
	}
}

// Mounted returns the ids of mounted tooltips in render order.
func (g *GuideRenderer) Mounted() []string { return g.mounted() }

// Surface returns the tooltip element for id, or nil.
func (g *GuideRenderer) Surface(id string) dom.Element { return g.surface(id) }

func (g *GuideRenderer) build(a annotation.Annotation, _ int) (dom.Element, error) {
	tip, err := g.doc.CreateElement("div")
	if err != nil {
		return nil, err
	}
	if err := tip.SetAttr("class", "pagetour-guide"); err != nil {
		return nil, err
	}
	if err := tip.SetAttr(AttrAnnotation, a.ID); err != nil {
		return nil, err
	}
	if err := dom.SetStyles(tip, "position", "absolute", "z-index", "2147483000"); err != nil {
		return nil, err
	}

	if a.Payload.Title != "" {
		title, err := g.child(tip, "pagetour-guide-title")
		if err != nil {
			return nil, err
		}
		if err := title.SetText(a.Payload.Title); err != nil {
			return nil, err
		}
	}

	body, err := g.child(tip, "pagetour-guide-body")
	if err != nil {
		return nil, err
	}
	if err := body.SetInnerHTML(g.opts.Policy.Sanitize(a.Payload.Body)); err != nil {
		return nil, err
	}

	closeBtn, err := g.doc.CreateElement("button")
	if err != nil {
		return nil, err
	}
	if err := closeBtn.SetAttr("class", "pagetour-guide-dismiss"); err != nil {
		return nil, err
	}
	if err := closeBtn.SetAttr(AttrDismiss, a.ID); err != nil {
		return nil, err
	}
	if err := closeBtn.SetText("×"); err != nil {
		return nil, err
	}
	if err := tip.AppendChild(closeBtn); err != nil {
		return nil, err
	}
	return tip, nil
}

func (g *GuideRenderer) child(parent dom.Element, class string) (dom.Element, error) {
	el, err := g.doc.CreateElement("div")
	if err != nil {
		return nil, err
	}
	if err := el.SetAttr("class", class); err != nil {
		return nil, err
	}
	return el, parent.AppendChild(el)
}

func (g *GuideRenderer) position(s *surface, target dom.Rect) error {
	size := g.opts.DefaultSize
	if r := s.el.Rect(); r.Width > 0 && r.Height > 0 {
		size = geometry.Size{Width: r.Width, Height: r.Height}
	}
	side := s.ann.Placement
	if side == "" {
		side = geometry.Bottom
	}

	res := g.opts.Positioner.Position(target, size, side, g.doc.Viewport())
	if err := s.el.SetAttr("class", "pagetour-guide pagetour-arrow-"+string(res.Arrow)); err != nil {
		return err
	}
	return dom.SetStyles(s.el, "top", dom.Px(res.Top), "left", dom.Px(res.Left))
}

func (g *GuideRenderer) onClick(ev *dom.Event) {
	for el := ev.Target; el != nil; el = el.Parent() {
		if id, ok := el.Attr(AttrDismiss); ok {
			g.Dismiss(id)
			return
		}
		if el.ID() == GuidesRootID {
			return
		}
	}
}
