package channel

import (
	"errors"
	"sync"
)

var (
	// ErrClosed is returned by Send on a closed transport.
	ErrClosed = errors.New("transport closed")
	// ErrNotConnected is returned by Send while no surface is attached.
	ErrNotConnected = errors.New("editor surface not connected")
)

// Handlers are the transport callbacks. They may be invoked from any
// goroutine, but never concurrently and always in event order.
type Handlers struct {
	// Load fires each time the surface (re)loads and can receive.
	Load func()
	// Unload fires when a loaded surface goes away. Sends fail with
	// ErrNotConnected until the next Load.
	Unload func()
	// Message fires for every frame the surface sends.
	Message func([]byte)
}

// Transport carries encoded messages between the page and one editor
// surface.
type Transport interface {
	// Open begins loading the surface.
	Open(h Handlers) error
	Send(data []byte) error
	Close() error
}

// Dialer creates the transport for the surface identified by token.
type Dialer func(token string) Transport

// Pipe is an in-process Transport. The Surface end plays the editor.
type Pipe struct {
	mu       sync.Mutex
	h        Handlers
	opened   bool
	closed   bool
	unloaded bool
	received [][]byte
}

// NewPipe creates an unopened pipe.
func NewPipe() *Pipe { return &Pipe{} }

// Open implements Transport.
func (p *Pipe) Open(h Handlers) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.h, p.opened = h, true
	return nil
}

// Send implements Transport.
func (p *Pipe) Send(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.unloaded {
		return ErrNotConnected
	}
	p.received = append(p.received, append([]byte(nil), data...))
	return nil
}

// Close implements Transport.
func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Opened reports whether Open was called.
func (p *Pipe) Opened() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opened
}

// Closed reports whether Close was called.
func (p *Pipe) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Load simulates the surface finishing its load.
func (p *Pipe) Load() {
	p.mu.Lock()
	p.unloaded = false
	cb := p.h.Load
	p.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Unload simulates the surface going away, e.g. a frame reload. Sends
// fail until the next Load.
func (p *Pipe) Unload() {
	p.mu.Lock()
	p.unloaded = true
	cb := p.h.Unload
	p.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Emit sends a message from the surface to the page.
func (p *Pipe) Emit(msg SurfaceMessage) error {
	data, err := EncodeSurface(msg)
	if err != nil {
		return err
	}
	return p.EmitRaw(data)
}

// EmitRaw sends raw bytes from the surface to the page.
func (p *Pipe) EmitRaw(data []byte) error {
	p.mu.Lock()
	cb, closed := p.h.Message, p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if cb != nil {
		cb(data)
	}
	return nil
}

// Received decodes everything the page has sent so far.
func (p *Pipe) Received() ([]HostMessage, error) {
	p.mu.Lock()
	frames := append([][]byte(nil), p.received...)
	p.mu.Unlock()

	out := make([]HostMessage, 0, len(frames))
	for _, f := range frames {
		m, err := DecodeHost(f)
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
	return out, nil
}
