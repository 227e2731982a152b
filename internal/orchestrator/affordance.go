package orchestrator

import (
	"github.com/standardbeagle/pagetour/internal/channel"
	"github.com/standardbeagle/pagetour/internal/debug"
	"github.com/standardbeagle/pagetour/internal/dom"
	"github.com/standardbeagle/pagetour/internal/eventloop"
)

// Ids of the "currently editing" affordance.
const (
	BorderID = "pagetour-editor-border"
	BadgeID  = "pagetour-editor-badge"
	ExitID   = "pagetour-editor-exit"
)

var badgeText = map[channel.Variant]string{
	channel.VariantGuide:      "Editing guides",
	channel.VariantTagPage:    "Tagging pages",
	channel.VariantTagFeature: "Tagging features",
}

// affordance is the page border, badge and exit control shown in Editor
// mode.
type affordance struct {
	els         []dom.Element
	exit        dom.Element
	removeClick func()
	cancelMount func()
}

func mountAffordance(doc dom.Document, loop eventloop.Loop, v channel.Variant, onExit func()) *affordance {
	a := &affordance{}
	a.removeClick = doc.AddEventListener(dom.EventClick, func(ev *dom.Event) {
		if a.exit != nil && ev.Target != nil && dom.ContainsOrSelf(a.exit, ev.Target) {
			ev.PreventDefault()
			onExit()
		}
	}, dom.ListenerOptions{})
	a.cancelMount = dom.WhenInteractive(doc, loop, func(body dom.Element) {
		a.cancelMount = nil
		if err := a.build(doc, body, v); err != nil {
			debug.Error("orchestrator", "mount editing affordance: %v", err)
		}
	})
	return a
}

func (a *affordance) build(doc dom.Document, body dom.Element, v channel.Variant) error {
	if _, err := a.element(doc, body, "div", BorderID,
		"position", "fixed",
		"top", "0",
		"left", "0",
		"right", "0",
		"bottom", "0",
		"border", "3px solid #7c3aed",
		"pointer-events", "none",
		"z-index", "2147483640",
	); err != nil {
		return err
	}

	badge, err := a.element(doc, body, "div", BadgeID,
		"position", "fixed",
		"top", "8px",
		"left", "8px",
		"padding", "4px 10px",
		"border-radius", "4px",
		"background", "#7c3aed",
		"color", "#fff",
		"font", "12px/1.4 system-ui, sans-serif",
		"z-index", "2147483641",
	)
	if err != nil {
		return err
	}
	text := badgeText[v]
	if text == "" {
		text = "Editing"
	}
	if err := badge.SetText(text); err != nil {
		return err
	}

	exit, err := a.element(doc, body, "button", ExitID,
		"position", "fixed",
		"bottom", "12px",
		"left", "12px",
		"padding", "6px 12px",
		"z-index", "2147483641",
	)
	if err != nil {
		return err
	}
	if err := exit.SetAttr("type", "button"); err != nil {
		return err
	}
	if err := exit.SetText("Exit editor"); err != nil {
		return err
	}
	a.exit = exit
	return nil
}

func (a *affordance) element(doc dom.Document, body dom.Element, tag, id string, styles ...string) (dom.Element, error) {
	el, err := doc.CreateElement(tag)
	if err != nil {
		return nil, err
	}
	if err := el.SetAttr("id", id); err != nil {
		return nil, err
	}
	if err := dom.SetStyles(el, styles...); err != nil {
		return nil, err
	}
	if err := body.AppendChild(el); err != nil {
		return nil, err
	}
	a.els = append(a.els, el)
	return el, nil
}

func (a *affordance) unmount() {
	if a.cancelMount != nil {
		a.cancelMount()
		a.cancelMount = nil
	}
	a.removeClick()
	for i := len(a.els) - 1; i >= 0; i-- {
		if err := a.els[i].Remove(); err != nil {
			debug.Error("orchestrator", "remove %s: %v", a.els[i].ID(), err)
		}
	}
	a.els = nil
	a.exit = nil
}
