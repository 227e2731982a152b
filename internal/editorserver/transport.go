package editorserver

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/standardbeagle/pagetour/internal/channel"
)

// ErrNotConnected is returned by Send while no surface is connected.
var ErrNotConnected = channel.ErrNotConnected

// wsTransport is the page side of one surface's websocket. The surface
// loading the editor page and connecting counts as load completion; the
// socket closing counts as unload.
type wsTransport struct {
	hub   *Hub
	token string

	// eventMu orders attach and detach with their callbacks. Send does
	// not take it.
	eventMu sync.Mutex

	mu     sync.Mutex
	conn   *websocket.Conn
	h      channel.Handlers
	closed bool
}

var _ channel.Transport = (*wsTransport)(nil)

func (t *wsTransport) Open(h channel.Handlers) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return channel.ErrClosed
	}
	t.h = h
	return nil
}

func (t *wsTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return channel.ErrClosed
	}
	if t.conn == nil {
		return ErrNotConnected
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.closed = true
	t.conn = nil
	t.mu.Unlock()

	t.hub.remove(t.token)
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// attach binds the surface connection and fires Load. Only one surface
// may attach at a time. It returns the message handler.
func (t *wsTransport) attach(conn *websocket.Conn) (func([]byte), bool) {
	t.eventMu.Lock()
	defer t.eventMu.Unlock()

	t.mu.Lock()
	if t.closed || t.conn != nil {
		t.mu.Unlock()
		return nil, false
	}
	t.conn = conn
	h := t.h
	t.mu.Unlock()

	if h.Load != nil {
		h.Load()
	}
	return h.Message, true
}

// detach unbinds conn and fires Unload if it was still attached.
func (t *wsTransport) detach(conn *websocket.Conn) {
	t.eventMu.Lock()
	defer t.eventMu.Unlock()

	t.mu.Lock()
	if t.conn != conn {
		t.mu.Unlock()
		return
	}
	t.conn = nil
	h, closed := t.h, t.closed
	t.mu.Unlock()

	if !closed && h.Unload != nil {
		h.Unload()
	}
}

// Hub tracks the transports waiting for or serving a surface.
type Hub struct {
	mu         sync.Mutex
	transports map[string]*wsTransport
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{transports: make(map[string]*wsTransport)}
}

// Dial registers a transport for token. It satisfies channel.Dialer.
func (h *Hub) Dial(token string) channel.Transport {
	t := &wsTransport{hub: h, token: token}
	h.mu.Lock()
	h.transports[token] = t
	h.mu.Unlock()
	return t
}

// Len reports how many transports are registered.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.transports)
}

func (h *Hub) lookup(token string) (*wsTransport, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.transports[token]
	return t, ok
}

func (h *Hub) remove(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.transports, token)
}
