// Package debugserver serves prometheus metrics, a health probe and the
// net/http/pprof endpoints on a local address. It is off unless an address
// is configured.
package debugserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	netpprof "net/http/pprof"
	"strings"
	"sync"

	"github.com/codefionn/bbqterm/internal/consts"
	"github.com/codefionn/bbqterm/internal/logger"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Health is the body of /healthz.
type Health struct {
	Status     string `json:"status"`
	Session    string `json:"session,omitempty"`
	Connected  bool   `json:"connected"`
	QueueDepth int    `json:"queue_depth"`
}

// HealthFunc reports the current health. It is called from HTTP handler
// goroutines and must be safe for concurrent use.
type HealthFunc func() Health

// Server is the debug HTTP server.
type Server struct {
	addr   string
	health HealthFunc
	router *httprouter.Router
	logger *logger.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	stopping bool
}

// New creates a server for addr. health may be nil.
func New(addr string, health HealthFunc) *Server {
	s := &Server{
		addr:   addr,
		health: health,
		router: httprouter.New(),
		logger: logger.Global().WithPrefix("debug"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/debug/pprof/*name", handlePprof)
	s.router.POST("/debug/pprof/*name", handlePprof)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind debug server: %w", err)
	}
	s.listener = ln
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: consts.Timeout5Seconds,
		ErrorLog:          logger.NewStdLogger(s.logger, slog.LevelError),
	}

	srv := s.server
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("debug server error: %v", err)
		}
	}()

	s.logger.Info("debug server listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop shuts the server down. It is safe to call more than once.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping || s.server == nil {
		return nil
	}
	s.stopping = true

	ctx, cancel := context.WithTimeout(context.Background(), consts.Timeout5Seconds)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown debug server: %w", err)
	}
	s.server = nil
	s.listener = nil
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	h := Health{Status: "ok"}
	if s.health != nil {
		h = s.health()
	}
	if h.Status == "" {
		h.Status = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if h.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(h)
}

func handlePprof(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	switch name := strings.Trim(ps.ByName("name"), "/"); name {
	case "":
		netpprof.Index(w, r)
	case "cmdline":
		netpprof.Cmdline(w, r)
	case "profile":
		netpprof.Profile(w, r)
	case "symbol":
		netpprof.Symbol(w, r)
	case "trace":
		netpprof.Trace(w, r)
	default:
		netpprof.Handler(name).ServeHTTP(w, r)
	}
}
