// Package server runs an application's main and admin HTTP listeners from
// its configuration document.
package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/reoring/confdoc/config"
	"github.com/reoring/confdoc/internal/metrics"
)

// Listener names.
const (
	MainListener  = "main"
	AdminListener = "admin"
)

// Options configures a Server.
type Options struct {
	Holder  *config.Holder
	Metrics *metrics.Collector
	Logger  zerolog.Logger
	// RequestTimeout bounds request handling on both routers (60s when zero).
	RequestTimeout time.Duration
}

// Server owns the main router, where the application mounts its routes, and
// the admin router with health, metrics and configuration endpoints.
type Server struct {
	Main  chi.Router
	Admin chi.Router

	holder  *config.Holder
	metrics *metrics.Collector
	logger  zerolog.Logger
}

// New builds both routers.
func New(opt Options) *Server {
	timeout := opt.RequestTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	s := &Server{
		holder:  opt.Holder,
		metrics: opt.Metrics,
		logger:  opt.Logger,
	}
	s.Main = s.newRouter(MainListener, timeout)
	s.Admin = s.newRouter(AdminListener, timeout)

	s.Admin.Get("/healthz", s.health)
	s.Admin.Get("/config", s.showConfig)
	if s.metrics != nil {
		path := "/metrics"
		if p, ok := s.holder.Get().String("metrics.path"); ok && p != "" {
			path = p
		}
		s.Admin.Get(path, s.serveMetrics)
	}
	return s
}

func (s *Server) newRouter(listener string, timeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(s.logger.With().Str("listener", listener).Logger()))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	if s.metrics != nil {
		r.Use(NewMetricsMiddleware(s.metrics, listener))
	}
	return r
}

// Addrs returns the main and admin addresses from the current configuration.
func (s *Server) Addrs() (main, admin string) {
	doc := s.holder.Get()
	host, _ := doc.String("http.host")
	port, _ := doc.Int("http.port")
	adminPort, _ := doc.Int("http.adminPort")
	return net.JoinHostPort(host, strconv.FormatInt(port, 10)),
		net.JoinHostPort(host, strconv.FormatInt(adminPort, 10))
}

// Bind adds both listeners to f at the configured addresses and logs their
// routes.
func (s *Server) Bind(f *Farm) error {
	mainAddr, adminAddr := s.Addrs()
	if err := f.Listen(AdminListener, adminAddr, s.Admin); err != nil {
		return err
	}
	if err := f.Listen(MainListener, mainAddr, s.Main); err != nil {
		return err
	}
	LogRoutes(s.logger, MainListener, s.Main)
	LogRoutes(s.logger, AdminListener, s.Admin)
	return nil
}

// Run binds both listeners and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	f := NewFarm(s.logger)
	if err := s.Bind(f); err != nil {
		return err
	}
	return f.Serve(ctx)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type configResponse struct {
	Generation string `json:"generation"`
	Config     any    `json:"config"`
}

func (s *Server) showConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, configResponse{
		Generation: s.holder.Generation(),
		Config:     s.holder.Get(),
	})
}

func (s *Server) serveMetrics(w http.ResponseWriter, r *http.Request) {
	if enabled, ok := s.holder.Get().Bool("metrics.enabled"); ok && !enabled {
		http.NotFound(w, r)
		return
	}
	s.metrics.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
