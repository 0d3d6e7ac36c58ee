package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fpokrzywa/weaver-live/backend/modules/platform/api"
	"github.com/fpokrzywa/weaver-live/backend/modules/platform/config"
	"github.com/fpokrzywa/weaver-live/backend/modules/platform/logger"
	"github.com/fpokrzywa/weaver-live/backend/modules/platform/middleware"
	"github.com/fpokrzywa/weaver-live/backend/modules/weaver/users"
	"github.com/fpokrzywa/weaver-live/backend/modules/weaver/workspace"
	"github.com/fpokrzywa/weaver-live/cli/modules"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/accounts"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/auth"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/system"
)

// Deps are the services the daemon serves
type Deps struct {
	Accounts *accounts.Service
	Auth     *auth.Authenticator
	Bus      *eventbus.Bus
	Metrics  *system.MetricsCollector // optional
}

// Server represents the weaver daemon
type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	router     *api.Router
	hub        *WSHub
	pages      *workspace.Pages
	metrics    *system.MetricsCollector
	started    time.Time
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Accounts == nil || deps.Auth == nil {
		return nil, errors.New("accounts and auth services are required")
	}
	if deps.Bus == nil {
		deps.Bus = eventbus.NewBus()
	}

	mux := http.NewServeMux()
	s := &Server{
		cfg:     cfg,
		router:  api.NewRouter(mux, middleware.RequireAccess),
		pages:   workspace.NewPages(),
		metrics: deps.Metrics,
		started: time.Now(),
	}
	s.hub = NewWSHub(deps.Bus, s.pages, cfg.CORS.AllowedOrigins)

	s.router.Handle("GET /health", api.Public, "Liveness probe", s.health)
	s.router.Handle("GET /api/status", api.Authenticated, "Daemon status and host metrics", s.status)
	s.router.Handle("GET /api/routes", api.Public, "This list", s.routes)
	s.router.Handle("GET /ws", api.Authenticated, "Navigation event stream", s.hub.ServeWS)

	users.RegisterRoutes(s.router, deps.Accounts, deps.Auth, deps.Bus)
	workspace.RegisterRoutes(s.router, s.pages)

	// Apply middleware chain: security headers -> CORS -> access log -> auth
	var handler http.Handler = mux
	handler = middleware.Auth(deps.Auth)(handler)
	if l := logger.GetGlobalLogger(); l != nil {
		handler = l.Requests(handler)
	}
	handler = middleware.CORS(cfg.CORS)(handler)
	handler = middleware.SecurityHeaders(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler returns the root handler with the middleware chain applied
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Routes returns the registered routes
func (s *Server) Routes() []api.Route {
	return s.router.Routes()
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	s.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// Close disconnects websocket clients and releases the widget pages
func (s *Server) Close() {
	s.hub.Close()
	s.pages.Close()
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	api.SendData(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// StatusResponse describes the running daemon
type StatusResponse struct {
	Version string          `json:"version"`
	Uptime  string          `json:"uptime"`
	Clients int             `json:"ws_clients"`
	Pages   int             `json:"pages"`
	Metrics *system.Metrics `json:"metrics,omitempty"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Version: modules.AppVersion,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Clients: s.hub.ClientCount(),
		Pages:   s.pages.Count(),
	}
	if s.metrics != nil {
		m := s.metrics.Get()
		resp.Metrics = &m
	}
	api.SendData(w, resp)
}

func (s *Server) routes(w http.ResponseWriter, r *http.Request) {
	type route struct {
		Pattern     string `json:"pattern"`
		Access      string `json:"access"`
		Description string `json:"description"`
	}
	out := make([]route, 0)
	for _, rt := range s.router.Routes() {
		out = append(out, route{Pattern: rt.Pattern, Access: rt.Access.String(), Description: rt.Description})
	}
	api.SendData(w, out)
}
