package dom

// EventType names a DOM event.
type EventType string

const (
	EventPointerOver      EventType = "mouseover"
	EventClick            EventType = "click"
	EventKeyDown          EventType = "keydown"
	EventScroll           EventType = "scroll"
	EventResize           EventType = "resize"
	EventDOMContentLoaded EventType = "DOMContentLoaded"
)

// Event is a dispatched DOM event.
type Event struct {
	Type   EventType
	Target Element // nil for window-level events
	Key    string  // keydown only

	defaultPrevented bool
	stopped          bool
}

// NewEvent creates an event for dispatch.
func NewEvent(typ EventType, target Element) *Event {
	return &Event{Type: typ, Target: target}
}

// PreventDefault cancels the page's default handling.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation stops the event from reaching further listeners.
func (e *Event) StopPropagation() { e.stopped = true }

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool { return e.stopped }

// Listener handles an event.
type Listener func(*Event)

// ListenerOptions controls registration.
type ListenerOptions struct {
	// Capture registers for the capture phase at the document, ahead of
	// any page handler on the path to the target.
	Capture bool
	// Once removes the listener after its first call.
	Once bool
}
