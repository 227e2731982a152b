// Package channel connects the page to the isolated editor surface: it
// owns the editor frame, waits for the surface to load, and moves typed
// messages in both directions.
package channel

import (
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/standardbeagle/pagetour/internal/debug"
	"github.com/standardbeagle/pagetour/internal/dom"
	"github.com/standardbeagle/pagetour/internal/eventloop"
)

// FrameID is the id of the editor frame element.
const FrameID = "pagetour-editor-frame"

var (
	// ErrNotReady is logged when a message is dropped after the ready timeout.
	ErrNotReady = errors.New("editor surface not ready")
	// ErrNoDialer is returned by Create when Options.Dial is nil.
	ErrNoDialer = errors.New("channel has no transport dialer")
)

// Options configures a Channel.
type Options struct {
	// EditorURL is the editor server base, e.g. http://127.0.0.1:7420.
	EditorURL string
	// Variant selects the editor page.
	Variant Variant
	// Dial opens the transport for a surface token.
	Dial Dialer
	// RetryDelay is the wait between send attempts before ready.
	// Default: 100ms
	RetryDelay time.Duration
	// ReadyTimeout drops a message not delivered within it. Zero retries
	// forever.
	ReadyTimeout time.Duration
	// OnMessage receives every decoded surface message.
	OnMessage func(SurfaceMessage)
}

// Channel owns at most one editor frame at a time.
type Channel struct {
	doc  dom.Document
	loop eventloop.Loop
	opts Options
	log  debug.Logger

	frame       dom.Element
	transport   Transport
	token       string
	ready       bool
	visible     bool
	generation  int
	cancelMount func()
}

// New creates a channel with no surface.
func New(doc dom.Document, loop eventloop.Loop, opts Options) *Channel {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 100 * time.Millisecond
	}
	return &Channel{doc: doc, loop: loop, opts: opts, log: debug.For("channel")}
}

// Create builds the frame, opens the transport and mounts the frame once
// the body exists. It does nothing when a surface already exists.
func (c *Channel) Create() error {
	if c.frame != nil {
		return nil
	}
	if c.opts.Dial == nil {
		return ErrNoDialer
	}

	gen := c.generation + 1
	token := uuid.NewString()

	frame, err := c.doc.CreateElement("iframe")
	if err != nil {
		return err
	}
	err = frame.SetAttr("id", FrameID)
	if err == nil {
		err = frame.SetAttr("src", c.frameURL(token))
	}
	if err == nil {
		err = dom.SetStyles(frame,
			"position", "fixed",
			"top", "0",
			"right", "0",
			"width", "380px",
			"height", "100%",
			"border", "none",
			"z-index", "2147483646",
			"display", "block",
		)
	}
	if err != nil {
		return err
	}

	t := c.opts.Dial(token)
	err = t.Open(Handlers{
		Load:    func() { c.loop.Post(func() { c.handleLoad(gen) }) },
		Unload:  func() { c.loop.Post(func() { c.handleUnload(gen) }) },
		Message: func(data []byte) { c.loop.Post(func() { c.handleMessage(gen, data) }) },
	})
	if err != nil {
		t.Close()
		return err
	}

	c.generation = gen
	c.token = token
	c.frame = frame
	c.transport = t
	c.visible = true
	c.cancelMount = dom.WhenInteractive(c.doc, c.loop, func(body dom.Element) {
		if err := body.AppendChild(frame); err != nil {
			c.log.Error("mount frame: %v", err)
		}
	})
	c.log.Log("created %s surface %s", c.opts.Variant, c.token)
	return nil
}

// FrameURL is the editor page address for the current surface.
func (c *Channel) FrameURL() string { return c.frameURL(c.token) }

func (c *Channel) frameURL(token string) string {
	return c.opts.EditorURL + "/editor/" + url.PathEscape(string(c.opts.Variant)) + "?token=" + url.QueryEscape(token)
}

// Token identifies the current surface; empty when none exists.
func (c *Channel) Token() string { return c.token }

// Ready reports whether the handshake has completed.
func (c *Channel) Ready() bool { return c.ready }

// Frame returns the frame element, or nil.
func (c *Channel) Frame() dom.Element { return c.frame }

// handleLoad runs on every surface load, so a reloaded surface gets its
// own ready message.
func (c *Channel) handleLoad(gen int) {
	if gen != c.generation || c.frame == nil {
		return
	}
	c.ready = true
	c.log.Log("surface %s ready", c.token)
	c.Send(Ready{})
}

func (c *Channel) handleUnload(gen int) {
	if gen != c.generation || c.frame == nil || !c.ready {
		return
	}
	c.ready = false
	c.log.Log("surface %s unloaded", c.token)
}

func (c *Channel) handleMessage(gen int, data []byte) {
	if gen != c.generation || c.frame == nil {
		return
	}
	msg, err := DecodeSurface(data)
	if err != nil {
		c.log.Warn("dropping message: %v", err)
		return
	}
	c.log.Trace("received %s", msg.Type())
	if c.opts.OnMessage != nil {
		c.opts.OnMessage(msg)
	}
	switch msg.(type) {
	case Cancel, Saved:
		c.Hide()
	}
}

// Send delivers msg once the surface is ready. Before that, and after a
// failed write, it retries every RetryDelay until ReadyTimeout, if set,
// elapses.
func (c *Channel) Send(msg HostMessage) {
	c.send(msg, c.generation, c.loop.Now())
}

func (c *Channel) send(msg HostMessage, gen int, first time.Time) {
	if gen != c.generation || c.transport == nil {
		c.log.Trace("no surface for %s", msg.Type())
		return
	}
	if !c.ready {
		if t := c.opts.ReadyTimeout; t > 0 && c.loop.Now().Sub(first) >= t {
			c.log.Error("dropping %s after %v: %v", msg.Type(), t, ErrNotReady)
			return
		}
		c.loop.AfterFunc(c.opts.RetryDelay, func() { c.send(msg, gen, first) })
		return
	}

	data, err := EncodeHost(msg)
	if err != nil {
		c.log.Error("%v", err)
		return
	}
	if err := c.transport.Send(data); err != nil {
		if errors.Is(err, ErrClosed) {
			c.log.Error("send %s: %v", msg.Type(), err)
			return
		}
		// The surface went away without an unload yet; wait for it to
		// load again.
		c.log.Warn("send %s: %v, retrying", msg.Type(), err)
		c.ready = false
		c.send(msg, gen, c.loop.Now())
		return
	}
	c.log.Trace("sent %s", msg.Type())
}

// Show makes the frame visible.
func (c *Channel) Show() { c.setDisplay("block") }

// Hide hides the frame without destroying it.
func (c *Channel) Hide() { c.setDisplay("none") }

// Visible reports whether the frame exists and is shown.
func (c *Channel) Visible() bool {
	return c.frame != nil && c.visible
}

func (c *Channel) setDisplay(v string) {
	if c.frame == nil {
		return
	}
	if err := c.frame.SetStyle("display", v); err != nil {
		c.log.Error("set frame display: %v", err)
		return
	}
	c.visible = v != "none"
}

// Destroy closes the transport, removes the frame and resets readiness.
// Pending sends are dropped. Create may be called again afterwards.
func (c *Channel) Destroy() {
	if c.frame == nil {
		return
	}
	c.generation++
	if c.cancelMount != nil {
		c.cancelMount()
		c.cancelMount = nil
	}
	if err := c.transport.Close(); err != nil {
		c.log.Warn("close transport: %v", err)
	}
	if err := c.frame.Remove(); err != nil {
		c.log.Error("remove frame: %v", err)
	}
	c.frame = nil
	c.transport = nil
	c.token = ""
	c.ready = false
	c.visible = false
	c.log.Log("destroyed surface")
}
