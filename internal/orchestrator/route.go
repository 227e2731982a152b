package orchestrator

import (
	"context"

	"github.com/standardbeagle/pagetour/internal/annotation"
	"github.com/standardbeagle/pagetour/internal/channel"
	"github.com/standardbeagle/pagetour/internal/instrument"
)

// route handles one message from the editor surface.
func (o *Orchestrator) route(msg channel.SurfaceMessage) {
	ctx := context.Background()

	switch m := msg.(type) {
	case channel.SaveGuide:
		status := annotation.Status(m.Status)
		if status == "" {
			status = annotation.StatusActive
		}
		pageKey := m.PageKey
		if pageKey == "" {
			pageKey = annotation.PathKey(o.doc.URL())
		}
		o.saveAndAck(ctx, annotation.Annotation{
			ID:        m.ID,
			Kind:      annotation.KindGuide,
			Locator:   m.Locator,
			Placement: m.Placement,
			Payload:   annotation.Payload{Title: m.Title, Body: m.Body},
			PageKey:   pageKey,
			Status:    status,
		})

	case channel.SaveTagPage:
		o.saveAndAck(ctx, annotation.Annotation{
			ID:      m.ID,
			Kind:    annotation.KindPageTag,
			Payload: annotation.Payload{Name: m.Name},
			PageKey: annotation.PathKey(o.doc.URL()),
			Status:  annotation.StatusActive,
		})

	case channel.SaveTagFeature:
		o.saveAndAck(ctx, annotation.Annotation{
			ID:      m.ID,
			Kind:    annotation.KindFeatureTag,
			Locator: m.Locator,
			Payload: annotation.Payload{Name: m.Name},
			PageKey: annotation.URLKey(o.doc.URL()),
			Status:  annotation.StatusActive,
		})

	case channel.ActivateSelector:
		o.instr.Activate()

	case channel.ClearSelection:
		o.instr.HideHighlight()
		o.send(channel.ClearSelectionAck{})

	case channel.HeatmapToggle:
		o.heatmap.Gate().Set(m.Enabled)
		o.send(channel.HeatmapToggleAck{Enabled: o.heatmap.Gate().Enabled()})

	case channel.Cancel:
		o.instr.HideHighlight()

	case channel.Saved:
		// The channel hides the frame.

	case channel.ExitEditor:
		if err := o.ExitEditor(ctx); err != nil {
			o.log.Error("exit editor: %v", err)
		}

	case channel.Unknown:
		o.log.Log("ignoring surface message %q", m.Kind)
	}
}

// saveAndAck saves a and reports the outcome to the surface. On failure
// the surface stays open with the error.
func (o *Orchestrator) saveAndAck(ctx context.Context, a annotation.Annotation) {
	if a.ID == "" {
		a.ID = annotation.NewID()
	}
	stored, err := o.SaveAnnotation(ctx, a)
	if err != nil {
		o.log.Error("%v", err)
		o.send(channel.SavedAck{ID: a.ID, Error: err.Error()})
		o.showSurface()
		return
	}
	o.log.Info("saved %s %s on %s", stored.Kind, stored.ID, stored.PageKey)
	o.send(channel.SavedAck{ID: stored.ID})
}

func (o *Orchestrator) onSelect(sel instrument.Selection) {
	o.send(channel.ElementSelected{Locator: sel.Locator, Snapshot: sel.Snapshot})
	o.showSurface()
}

func (o *Orchestrator) onCancel() {
	o.send(channel.ClearSelectionAck{})
}

func (o *Orchestrator) send(msg channel.HostMessage) {
	if o.ch == nil {
		o.log.Log("no editor surface for %s", msg.Type())
		return
	}
	o.ch.Send(msg)
}

func (o *Orchestrator) showSurface() {
	if o.ch != nil {
		o.ch.Show()
	}
}
