package instrument

import (
	"testing"

	"github.com/standardbeagle/pagetour/internal/dom"
	"github.com/standardbeagle/pagetour/internal/dom/htmldom"
	"github.com/standardbeagle/pagetour/internal/eventloop"
	"github.com/standardbeagle/pagetour/internal/locator"
)

const page = `<!doctype html><html><head></head><body>
<button id="go" style="width: 60px; height: 20px">Go</button>
<a href="/x" data-testid="link" style="width: 40px; height: 10px">x</a>
<p id="ghost" style="display: none; width: 10px; height: 10px">hidden</p>
<div id="pagetour-badge" style="width: 10px; height: 10px"><span style="width: 5px; height: 5px">own</span></div>
</body></html>`

type harness struct {
	doc        *htmldom.Document
	ctrl       *Controller
	selections []Selection
	cancels    int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	d, err := htmldom.ParseString(page, "https://example.com/")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	h := &harness{doc: d}
	h.ctrl = New(d, eventloop.NewManual(), Options{
		OnSelect: func(s Selection) { h.selections = append(h.selections, s) },
		OnCancel: func() { h.cancels++ },
	})
	return h
}

func (h *harness) el(t *testing.T, sel string) dom.Element {
	t.Helper()
	el, err := h.doc.QuerySelector(sel)
	if err != nil || el == nil {
		t.Fatalf("QuerySelector(%q) = %v, %v", sel, el, err)
	}
	return el
}

func TestActivateTwiceIsNoop(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Activate()
	h.ctrl.Activate()

	for _, typ := range []dom.EventType{dom.EventPointerOver, dom.EventClick, dom.EventKeyDown} {
		if n := h.doc.ListenerCount(typ); n != 1 {
			t.Errorf("%s listeners = %d; want 1", typ, n)
		}
	}
	if hs, _ := h.doc.QuerySelectorAll("#" + HighlightID); len(hs) != 1 {
		t.Errorf("highlight surfaces = %d; want 1", len(hs))
	}
	if ss, _ := h.doc.QuerySelectorAll("#" + StyleID); len(ss) != 1 {
		t.Errorf("style rules = %d; want 1", len(ss))
	}
}

func TestDeactivateRemovesEverything(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Activate()
	h.ctrl.Deactivate()
	h.ctrl.Deactivate()

	for _, typ := range []dom.EventType{dom.EventPointerOver, dom.EventClick, dom.EventKeyDown} {
		if n := h.doc.ListenerCount(typ); n != 0 {
			t.Errorf("%s listeners = %d after Deactivate", typ, n)
		}
	}
	if h.doc.GetElementByID(HighlightID) != nil || h.doc.GetElementByID(StyleID) != nil {
		t.Error("highlight or style rule left behind")
	}
	if h.ctrl.Active() {
		t.Error("Active() = true after Deactivate")
	}
}

func TestHoverHighlights(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Activate()
	hl := h.ctrl.Highlight().(*htmldom.Element)

	h.doc.Hover(h.el(t, "#go"))
	if hl.InlineStyle("display") != "block" || hl.InlineStyle("width") != "60px" {
		t.Errorf("highlight after hover: display=%q width=%q", hl.InlineStyle("display"), hl.InlineStyle("width"))
	}

	h.doc.Hover(h.el(t, "#ghost"))
	if hl.InlineStyle("width") != "60px" {
		t.Error("invisible element moved the highlight")
	}

	h.doc.Hover(h.el(t, "#pagetour-badge span"))
	if hl.InlineStyle("width") != "60px" {
		t.Error("own UI moved the highlight")
	}
}

func TestClickSelects(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Activate()

	pageClicks := 0
	link := h.el(t, `[data-testid="link"]`)
	h.doc.AddElementListener(link, dom.EventClick, func(*dom.Event) { pageClicks++ })

	ev := h.doc.Click(link)
	if !ev.DefaultPrevented() {
		t.Error("click default not prevented")
	}
	if pageClicks != 0 {
		t.Error("page handler saw the capture-phase click")
	}
	if len(h.selections) != 1 {
		t.Fatalf("selections = %d; want 1", len(h.selections))
	}

	sel := h.selections[0]
	want := locator.Locator{Selector: `[data-testid="link"]`, Confidence: locator.High, Method: locator.MethodTestID}
	if sel.Locator != want {
		t.Errorf("Locator = %+v; want %+v", sel.Locator, want)
	}
	if sel.Snapshot.TagName != "a" || sel.Snapshot.Attributes["href"] != "/x" {
		t.Errorf("Snapshot = %+v", sel.Snapshot)
	}
	if hl := h.ctrl.Highlight().(*htmldom.Element); hl.InlineStyle("width") != "40px" {
		t.Error("selection was not highlighted")
	}
}

func TestClickOnInvisibleOrOwnUI(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Activate()

	ev := h.doc.Click(h.el(t, "#ghost"))
	if !ev.DefaultPrevented() {
		t.Error("page default should be prevented even for invisible targets")
	}
	h.doc.Click(h.el(t, "#pagetour-badge span"))
	if len(h.selections) != 0 {
		t.Errorf("selections = %d; want 0", len(h.selections))
	}
}

func TestCancelKeyHidesWithoutDeactivating(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Activate()
	h.doc.Hover(h.el(t, "#go"))

	h.doc.KeyDown("a")
	if h.cancels != 0 {
		t.Fatal("non-cancel key cancelled")
	}

	h.doc.KeyDown(DefaultCancelKey)
	if h.cancels != 1 {
		t.Errorf("cancels = %d; want 1", h.cancels)
	}
	if hl := h.ctrl.Highlight().(*htmldom.Element); hl.InlineStyle("display") != "none" {
		t.Error("highlight still shown after cancel")
	}
	if !h.ctrl.Active() {
		t.Error("cancel must not deactivate")
	}
}

func TestActivateBeforeBodyDefersMount(t *testing.T) {
	loop := eventloop.NewManual()
	d := htmldom.NewLoading("https://example.com/")
	c := New(d, loop, Options{})
	c.Activate()

	if c.Highlight() != nil {
		t.Fatal("highlight mounted without a body")
	}
	if err := d.FinishLoading(`<p>hi</p>`); err != nil {
		t.Fatal(err)
	}
	if c.Highlight() == nil {
		t.Error("highlight not mounted after DOMContentLoaded")
	}
	c.Deactivate()
	if loop.Pending() != 0 {
		t.Errorf("timers left after Deactivate: %d", loop.Pending())
	}
}
