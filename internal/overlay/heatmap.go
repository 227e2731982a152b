package overlay

import (
	"github.com/standardbeagle/pagetour/internal/annotation"
	"github.com/standardbeagle/pagetour/internal/dom"
	"github.com/standardbeagle/pagetour/internal/geometry"
)

// Palette is cycled across heatmap boxes by annotation index.
var Palette = []string{
	"rgba(255, 99, 71, 0.35)",
	"rgba(65, 105, 225, 0.35)",
	"rgba(50, 205, 50, 0.35)",
	"rgba(255, 215, 0, 0.35)",
	"rgba(186, 85, 211, 0.35)",
	"rgba(0, 206, 209, 0.35)",
}

// HeatmapRenderer covers each tagged feature with a translucent box.
type HeatmapRenderer struct {
	*renderer
	gate *Gate
}

// NewHeatmapRenderer creates a renderer gated by gate.
func NewHeatmapRenderer(doc dom.Document, gate *Gate) *HeatmapRenderer {
	h := &HeatmapRenderer{
		renderer: newRenderer(doc, annotation.KindFeatureTag, HeatmapRootID),
		gate:     gate,
	}
	h.mount = h.build
	h.place = h.position
	return h
}

// Gate returns the enabled flag.
func (h *HeatmapRenderer) Gate() *Gate { return h.gate }

// Render replaces every box with those for pageKey. While the gate is
// closed it only clears.
func (h *HeatmapRenderer) Render(list []annotation.Annotation, pageKey string) error {
	if !h.gate.Enabled() {
		h.clear()
		return nil
	}
	return h.render(list, pageKey)
}

// UpdatePositions realigns mounted boxes.
func (h *HeatmapRenderer) UpdatePositions(list []annotation.Annotation) {
	h.updatePositions(list)
}

// Dismiss removes one box.
func (h *HeatmapRenderer) Dismiss(id string) bool { return h.dismiss(id) }

// Destroy removes every box and the container.
func (h *HeatmapRenderer) Destroy() { h.destroy() }

// Mounted returns the ids of mounted boxes in render order.
func (h *HeatmapRenderer) Mounted() []string { return h.mounted() }

// Surface returns the box element for id, or nil.
func (h *HeatmapRenderer) Surface(id string) dom.Element { return h.surface(id) }

func (h *HeatmapRenderer) build(a annotation.Annotation, index int) (dom.Element, error) {
	box, err := h.doc.CreateElement("div")
	if err != nil {
		return nil, err
	}
	if err := box.SetAttr("class", "pagetour-heatmap-box"); err != nil {
		return nil, err
	}
	if err := box.SetAttr(AttrAnnotation, a.ID); err != nil {
		return nil, err
	}
	if a.Payload.Name != "" {
		if err := box.SetAttr("title", a.Payload.Name); err != nil {
			return nil, err
		}
	}
	return box, dom.SetStyles(box,
		"position", "absolute",
		"pointer-events", "none",
		"z-index", "2147482000",
		"background", Palette[index%len(Palette)],
	)
}

func (h *HeatmapRenderer) position(s *surface, target dom.Rect) error {
	r := geometry.Cover(target, h.doc.Viewport())
	return dom.SetStyles(s.el,
		"top", dom.Px(r.Top),
		"left", dom.Px(r.Left),
		"width", dom.Px(r.Width),
		"height", dom.Px(r.Height),
	)
}
