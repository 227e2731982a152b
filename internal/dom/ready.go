package dom

import (
	"time"

	"github.com/standardbeagle/pagetour/internal/eventloop"
)

// readyPoll is how often WhenInteractive re-checks for a body when the
// DOMContentLoaded event is not observed.
const readyPoll = 50 * time.Millisecond

// WhenInteractive runs fn once the document has a body. If the body already
// exists fn runs immediately; otherwise it runs on DOMContentLoaded or on a
// short poll, whichever comes first. The returned func cancels a pending
// call.
func WhenInteractive(doc Document, loop eventloop.Loop, fn func(body Element)) (cancel func()) {
	if body := doc.Body(); body != nil {
		fn(body)
		return func() {}
	}

	done := false
	var timer eventloop.Timer
	var removeListener func()

	run := func() {
		if done {
			return
		}
		body := doc.Body()
		if body == nil {
			return
		}
		done = true
		if timer != nil {
			timer.Stop()
		}
		if removeListener != nil {
			removeListener()
		}
		fn(body)
	}

	removeListener = doc.AddEventListener(EventDOMContentLoaded, func(*Event) { run() }, ListenerOptions{Once: true})

	var poll func()
	poll = func() {
		if done {
			return
		}
		run()
		if !done {
			timer = loop.AfterFunc(readyPoll, poll)
		}
	}
	timer = loop.AfterFunc(readyPoll, poll)

	return func() {
		done = true
		if timer != nil {
			timer.Stop()
		}
		removeListener()
	}
}
