// Package editorserver hosts the editor surface pages and the websocket
// endpoint that carries channel messages between a surface and the page.
package editorserver

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/standardbeagle/pagetour/internal/channel"
	"github.com/standardbeagle/pagetour/internal/debug"
)

//go:embed static/editor.html
var staticFS embed.FS

var editorPage = template.Must(template.ParseFS(staticFS, "static/editor.html"))

// Config configures the server.
type Config struct {
	// Addr is the listen address, e.g. 127.0.0.1:7420.
	Addr string
	// AllowedOrigins restricts websocket origins. Empty allows any.
	AllowedOrigins []string
}

// Server serves editor pages and surface websockets.
type Server struct {
	cfg      Config
	hub      *Hub
	router   chi.Router
	upgrader websocket.Upgrader
	log      debug.Logger

	httpServer *http.Server
	listener   net.Listener
}

// New creates a server; call Start to listen.
func New(cfg Config) *Server {
	s := &Server{
		cfg: cfg,
		hub: NewHub(),
		log: debug.For("editorserver"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/editor/{variant}", s.handleEditor)
	r.Get("/ws/{token}", s.handleSocket)
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the transport hub.
func (s *Server) Hub() *Hub { return s.hub }

// Dial satisfies channel.Dialer.
func (s *Server) Dial(token string) channel.Transport { return s.hub.Dial(token) }

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve: %v", err)
		}
	}()
	s.log.Info("listening on %s", ln.Addr())
	return nil
}

// URL returns the base URL once started.
func (s *Server) URL() string {
	if s.listener == nil {
		return "http://" + s.cfg.Addr
	}
	return "http://" + s.listener.Addr().String()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range s.cfg.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	s.log.Warn("rejected websocket from origin %q", origin)
	return false
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	variant, err := channel.ParseVariant(chi.URLParam(r, "variant"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Variant string
		Token   string
	}{string(variant), token}
	if err := editorPage.Execute(w, data); err != nil {
		s.log.Error("render editor page: %v", err)
	}
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	t, ok := s.hub.lookup(token)
	if !ok {
		http.Error(w, "unknown surface", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade %s: %v", token, err)
		return
	}

	onMessage, ok := t.attach(conn)
	if !ok {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "surface already connected"))
		conn.Close()
		return
	}
	defer func() {
		t.detach(conn)
		conn.Close()
	}()
	s.log.Log("surface %s connected from %s", token, r.RemoteAddr)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Trace("surface %s read: %v", token, err)
			}
			return
		}
		if onMessage != nil {
			onMessage(data)
		}
	}
}
