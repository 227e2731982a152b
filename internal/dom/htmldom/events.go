package htmldom

import (
	"golang.org/x/net/html"

	"github.com/standardbeagle/pagetour/internal/dom"
)

// AddEventListener implements dom.Document. Listeners are document-level;
// capture listeners run before any element listener on the target path.
func (d *Document) AddEventListener(typ dom.EventType, fn dom.Listener, opts dom.ListenerOptions) func() {
	d.nextID++
	id := d.nextID
	d.listeners[typ] = append(d.listeners[typ], listenerEntry{id: id, fn: fn, opts: opts})
	return func() { d.removeListener(typ, id) }
}

func (d *Document) removeListener(typ dom.EventType, id int) {
	entries := d.listeners[typ]
	for i, e := range entries {
		if e.id == id {
			d.listeners[typ] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// ListenerCount reports how many document listeners are registered for typ.
func (d *Document) ListenerCount(typ dom.EventType) int {
	return len(d.listeners[typ])
}

// AddElementListener registers a page handler on el for the bubble phase,
// the way page scripts usually do.
func (d *Document) AddElementListener(el dom.Element, typ dom.EventType, fn dom.Listener) {
	e, ok := el.(*Element)
	if !ok {
		return
	}
	m := d.elemListeners[e.node]
	if m == nil {
		m = make(map[dom.EventType][]dom.Listener)
		d.elemListeners[e.node] = m
	}
	m[typ] = append(m[typ], fn)
}

// Dispatch runs ev through document capture listeners, element listeners
// from the target up to the root, then document bubble listeners.
func (d *Document) Dispatch(ev *dom.Event) *dom.Event {
	if d.runDocument(ev, true) {
		return ev
	}

	if t, ok := ev.Target.(*Element); ok && t != nil {
		for n := t.node; n != nil; n = n.Parent {
			if n.Type != html.ElementNode {
				continue
			}
			for _, fn := range d.elemListeners[n][ev.Type] {
				fn(ev)
			}
			if ev.PropagationStopped() {
				return ev
			}
		}
	}

	d.runDocument(ev, false)
	return ev
}

// runDocument calls matching document listeners and reports whether
// propagation was stopped.
func (d *Document) runDocument(ev *dom.Event, capture bool) bool {
	snapshot := append([]listenerEntry(nil), d.listeners[ev.Type]...)
	for _, e := range snapshot {
		if e.opts.Capture != capture || !d.stillRegistered(ev.Type, e.id) {
			continue
		}
		if e.opts.Once {
			d.removeListener(ev.Type, e.id)
		}
		e.fn(ev)
		if ev.PropagationStopped() {
			return true
		}
	}
	return false
}

func (d *Document) stillRegistered(typ dom.EventType, id int) bool {
	for _, e := range d.listeners[typ] {
		if e.id == id {
			return true
		}
	}
	return false
}

// Hover dispatches a pointer-over event at el.
func (d *Document) Hover(el dom.Element) *dom.Event {
	return d.Dispatch(dom.NewEvent(dom.EventPointerOver, el))
}

// Click dispatches a click at el.
func (d *Document) Click(el dom.Element) *dom.Event {
	return d.Dispatch(dom.NewEvent(dom.EventClick, el))
}

// KeyDown dispatches a key press at the body.
func (d *Document) KeyDown(key string) *dom.Event {
	ev := dom.NewEvent(dom.EventKeyDown, d.Body())
	ev.Key = key
	return d.Dispatch(ev)
}
