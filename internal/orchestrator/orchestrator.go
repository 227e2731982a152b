// Package orchestrator composes locators, overlays, instrumentation and the
// editor channel into the two page modes: Viewer and Editor.
//
// An Orchestrator belongs to one page load and is the only writer of the
// page's mode. Like every component it touches, it must be driven from the
// page's event loop.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/standardbeagle/pagetour/internal/annotation"
	"github.com/standardbeagle/pagetour/internal/channel"
	"github.com/standardbeagle/pagetour/internal/debug"
	"github.com/standardbeagle/pagetour/internal/dom"
	"github.com/standardbeagle/pagetour/internal/eventloop"
	"github.com/standardbeagle/pagetour/internal/instrument"
	"github.com/standardbeagle/pagetour/internal/locator"
	"github.com/standardbeagle/pagetour/internal/overlay"
	"github.com/standardbeagle/pagetour/internal/session"
	"github.com/standardbeagle/pagetour/internal/store"
)

// Mode is Viewer (the zero value) or Editor with a variant.
type Mode struct {
	Editing bool
	Variant channel.Variant
}

// Viewer is the read-only mode.
var Viewer = Mode{}

// Editor returns the editing mode for v.
func Editor(v channel.Variant) Mode { return Mode{Editing: true, Variant: v} }

func (m Mode) String() string {
	if !m.Editing {
		return "viewer"
	}
	return "editor(" + string(m.Variant) + ")"
}

// Options wires an Orchestrator to its collaborators.
type Options struct {
	Doc     dom.Document
	Loop    eventloop.Loop
	Store   store.Store
	Session session.Provider

	// Channel supplies the editor URL, dialer and retry settings. Variant
	// and OnMessage are set per editor session.
	Channel channel.Options

	Engine     *locator.Engine
	Guide      overlay.GuideOptions
	Reposition overlay.RepositionerConfig
	HeatmapOn  bool
	CancelKey  string
}

// Orchestrator owns the page mode.
type Orchestrator struct {
	opts  Options
	doc   dom.Document
	loop  eventloop.Loop
	state session.State
	log   debug.Logger

	mode        Mode
	annotations []annotation.Annotation

	guides       *overlay.GuideRenderer
	heatmap      *overlay.HeatmapRenderer
	repositioner *overlay.Repositioner
	cancelDraw   func()

	ch    *channel.Channel
	instr *instrument.Controller
	aff   *affordance
}

// New builds an Orchestrator in Viewer mode. The session provider is read
// here, once.
func New(opts Options) (*Orchestrator, error) {
	if opts.Doc == nil || opts.Loop == nil || opts.Store == nil || opts.Session == nil {
		return nil, fmt.Errorf("orchestrator: document, loop, store and session are required")
	}
	if opts.Engine == nil {
		opts.Engine = locator.NewEngine(locator.DefaultOptions())
	}

	o := &Orchestrator{
		opts:  opts,
		doc:   opts.Doc,
		loop:  opts.Loop,
		state: opts.Session.State(),
		log:   debug.For("orchestrator"),
	}
	o.guides = overlay.NewGuideRenderer(o.doc, opts.Guide)
	o.heatmap = overlay.NewHeatmapRenderer(o.doc, overlay.NewGate(opts.HeatmapOn))
	o.heatmap.Gate().SetCallbacks(o.drawHeatmap, o.drawHeatmap)
	o.instr = instrument.New(o.doc, o.loop, instrument.Options{
		Engine:    opts.Engine,
		CancelKey: opts.CancelKey,
		OnSelect:  o.onSelect,
		OnCancel:  o.onCancel,
	})
	return o, nil
}

// Mode returns the current mode.
func (o *Orchestrator) Mode() Mode { return o.mode }

// Annotations returns the list from the last load.
func (o *Orchestrator) Annotations() []annotation.Annotation { return o.annotations }

// Guides exposes the guide renderer.
func (o *Orchestrator) Guides() *overlay.GuideRenderer { return o.guides }

// Heatmap exposes the heatmap renderer.
func (o *Orchestrator) Heatmap() *overlay.HeatmapRenderer { return o.heatmap }

// Channel returns the editor channel, or nil in Viewer mode.
func (o *Orchestrator) Channel() *channel.Channel { return o.ch }

// Instrument returns the picking controller.
func (o *Orchestrator) Instrument() *instrument.Controller { return o.instr }

// Start enters Editor when the session asked for it (a consumed launch
// request or a persisted flag) and Viewer otherwise, and begins keeping
// overlays aligned with scroll and resize.
func (o *Orchestrator) Start(ctx context.Context) error {
	if o.repositioner == nil {
		o.repositioner = overlay.NewRepositioner(o.doc, o.loop, o.opts.Reposition, o.reposition)
	}
	if o.state.WantsEditor() {
		o.log.Info("resuming %s (launched=%v persisted=%v)", Editor(o.state.Variant), o.state.Launched, o.state.Persisted)
		return o.EnterEditor(ctx, o.state.Variant)
	}
	return o.Render(ctx)
}

// EnterEditor switches to Editor(v). Entering the current mode does
// nothing; entering another variant replaces the editor session.
func (o *Orchestrator) EnterEditor(ctx context.Context, v channel.Variant) error {
	if o.mode == Editor(v) {
		return nil
	}
	if o.mode.Editing {
		o.teardownEditor()
	}

	chOpts := o.opts.Channel
	chOpts.Variant = v
	chOpts.OnMessage = o.route
	o.ch = channel.New(o.doc, o.loop, chOpts)
	if err := o.ch.Create(); err != nil {
		o.ch = nil
		return fmt.Errorf("failed to create editor surface: %w", err)
	}
	if v.PicksOnEntry() {
		o.instr.Activate()
	}
	o.aff = mountAffordance(o.doc, o.loop, v, func() {
		if err := o.ExitEditor(context.Background()); err != nil {
			o.log.Error("exit editor: %v", err)
		}
	})
	o.mode = Editor(v)

	if err := o.opts.Session.SetEditor(v); err != nil {
		o.log.Warn("persist editor flag: %v", err)
	}
	o.log.Info("entered %s", o.mode)
	return o.Render(ctx)
}

// ExitEditor tears the editor down in reverse order, clears the persisted
// flag and renders for viewing.
func (o *Orchestrator) ExitEditor(ctx context.Context) error {
	if !o.mode.Editing {
		return nil
	}
	o.teardownEditor()
	o.mode = Viewer

	if err := o.opts.Session.ClearEditor(); err != nil {
		o.log.Warn("clear editor flag: %v", err)
	}
	o.log.Info("entered %s", o.mode)
	return o.Render(ctx)
}

func (o *Orchestrator) teardownEditor() {
	if o.aff != nil {
		o.aff.unmount()
		o.aff = nil
	}
	o.instr.Deactivate()
	if o.ch != nil {
		o.ch.Destroy()
		o.ch = nil
	}
}

// Render reloads annotations from the store and redraws guides for the
// current path and, with the heatmap on, feature tags for the current URL.
// Drawing waits for the body. Store failures are returned.
func (o *Orchestrator) Render(ctx context.Context) error {
	list, err := o.opts.Store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load annotations: %w", err)
	}
	o.annotations = list

	if o.cancelDraw != nil {
		o.cancelDraw()
	}
	o.cancelDraw = dom.WhenInteractive(o.doc, o.loop, func(dom.Element) {
		o.cancelDraw = nil
		o.draw()
	})
	return nil
}

func (o *Orchestrator) draw() {
	if err := o.guides.Render(o.annotations, annotation.PathKey(o.doc.URL())); err != nil {
		o.log.Error("render guides: %v", err)
	}
	o.drawHeatmap()
}

func (o *Orchestrator) drawHeatmap() {
	if o.doc.Body() == nil {
		return
	}
	if err := o.heatmap.Render(o.annotations, annotation.URLKey(o.doc.URL())); err != nil {
		o.log.Error("render heatmap: %v", err)
	}
}

func (o *Orchestrator) reposition() {
	o.guides.UpdatePositions(o.annotations)
	o.heatmap.UpdatePositions(o.annotations)
}

// SaveAnnotation stores a and redraws. The store error, if any, is
// returned unchanged in meaning; a redraw failure after a successful save
// is only logged.
func (o *Orchestrator) SaveAnnotation(ctx context.Context, a annotation.Annotation) (annotation.Annotation, error) {
	stored, err := o.opts.Store.Save(ctx, a)
	if err != nil {
		return annotation.Annotation{}, fmt.Errorf("failed to save %s: %w", a.Kind, err)
	}
	if err := o.Render(ctx); err != nil {
		o.log.Error("redraw after save: %v", err)
	}
	return stored, nil
}

// Destroy removes everything the orchestrator mounted, for page unload.
// The persisted editor flag is left alone.
func (o *Orchestrator) Destroy() {
	if o.repositioner != nil {
		o.repositioner.Stop()
		o.repositioner = nil
	}
	if o.cancelDraw != nil {
		o.cancelDraw()
		o.cancelDraw = nil
	}
	o.teardownEditor()
	o.guides.Destroy()
	o.heatmap.Destroy()
}
