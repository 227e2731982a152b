// Package overlay draws annotations on top of the page: guide tooltips and
// the feature-tag heatmap. Each renderer owns one container and the
// surfaces inside it; nothing else touches them.
package overlay

import (
	"errors"
	"fmt"

	"github.com/standardbeagle/pagetour/internal/annotation"
	"github.com/standardbeagle/pagetour/internal/debug"
	"github.com/standardbeagle/pagetour/internal/dom"
	"github.com/standardbeagle/pagetour/internal/locator"
)

// ErrNoBody is returned when rendering into a document without a body.
var ErrNoBody = errors.New("document has no body")

// Reserved ids and attributes of overlay UI.
const (
	GuidesRootID  = "pagetour-guides-root"
	HeatmapRootID = "pagetour-heatmap-root"

	AttrAnnotation = "data-pagetour-annotation"
	AttrDismiss    = "data-pagetour-dismiss"
)

type surface struct {
	el    dom.Element
	ann   annotation.Annotation
	index int
}

// mountFunc builds the surface for one resolved annotation.
type mountFunc func(a annotation.Annotation, index int) (dom.Element, error)

// placeFunc positions a mounted surface against its target's rect.
type placeFunc func(s *surface, target dom.Rect) error

// renderer holds what both variants share: the container, the id-indexed
// surfaces and the render/update passes.
type renderer struct {
	doc    dom.Document
	kind   annotation.Kind
	rootID string
	log    debug.Logger

	root     dom.Element
	surfaces map[string]*surface
	order    []string

	mount mountFunc
	place placeFunc
}

func newRenderer(doc dom.Document, kind annotation.Kind, rootID string) *renderer {
	return &renderer{
		doc:      doc,
		kind:     kind,
		rootID:   rootID,
		log:      debug.For("overlay"),
		surfaces: make(map[string]*surface),
	}
}

func (r *renderer) ensureRoot() (dom.Element, error) {
	if r.root != nil {
		return r.root, nil
	}
	body := r.doc.Body()
	if body == nil {
		return nil, ErrNoBody
	}
	root, err := r.doc.CreateElement("div")
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", r.rootID, err)
	}
	if err := root.SetAttr("id", r.rootID); err != nil {
		return nil, err
	}
	if err := body.AppendChild(root); err != nil {
		return nil, fmt.Errorf("mount %s: %w", r.rootID, err)
	}
	r.root = root
	return root, nil
}

// render clears every surface, then mounts one per active annotation of
// the renderer's kind on pageKey whose locator resolves.
func (r *renderer) render(list []annotation.Annotation, pageKey string) error {
	r.clear()

	matches := annotation.Matching(list, r.kind, pageKey)
	if len(matches) == 0 {
		return nil
	}
	if _, err := r.ensureRoot(); err != nil {
		return err
	}

	for i, a := range matches {
		if !a.Renderable() {
			continue
		}
		target, ok := locator.Resolve(r.doc, a.Locator.Selector)
		if !ok {
			r.log.Warn("skipping %s %s: %q not found", a.Kind, a.ID, a.Locator.Selector)
			continue
		}
		el, err := r.mount(a, i)
		if err != nil {
			r.log.Error("mount %s: %v", a.ID, err)
			continue
		}
		if err := r.root.AppendChild(el); err != nil {
			r.log.Error("attach %s: %v", a.ID, err)
			continue
		}
		s := &surface{el: el, ann: a, index: i}
		r.surfaces[a.ID] = s
		r.order = append(r.order, a.ID)
		if err := r.place(s, target.Rect()); err != nil {
			r.log.Error("place %s: %v", a.ID, err)
		}
	}
	r.log.Log("rendered %d/%d %s on %s", len(r.order), len(matches), r.kind, pageKey)
	return nil
}

// updatePositions re-resolves each mounted surface's target. A newer copy
// of the annotation in list replaces the mounted one; targets that no
// longer resolve keep their last position.
func (r *renderer) updatePositions(list []annotation.Annotation) {
	latest := make(map[string]annotation.Annotation, len(list))
	for _, a := range list {
		latest[a.ID] = a
	}
	for _, id := range r.order {
		s := r.surfaces[id]
		if a, ok := latest[id]; ok {
			s.ann = a
		}
		target, ok := locator.Resolve(r.doc, s.ann.Locator.Selector)
		if !ok {
			continue
		}
		if err := r.place(s, target.Rect()); err != nil {
			r.log.Error("place %s: %v", id, err)
		}
	}
}

func (r *renderer) dismiss(id string) bool {
	s, ok := r.surfaces[id]
	if !ok {
		return false
	}
	if err := s.el.Remove(); err != nil {
		r.log.Error("remove %s: %v", id, err)
	}
	delete(r.surfaces, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *renderer) clear() {
	for _, id := range append([]string(nil), r.order...) {
		r.dismiss(id)
	}
}

func (r *renderer) destroy() {
	r.clear()
	if r.root != nil {
		if err := r.root.Remove(); err != nil {
			r.log.Error("remove %s: %v", r.rootID, err)
		}
		r.root = nil
	}
}

func (r *renderer) mounted() []string {
	return append([]string(nil), r.order...)
}

func (r *renderer) surface(id string) dom.Element {
	if s, ok := r.surfaces[id]; ok {
		return s.el
	}
	return nil
}

