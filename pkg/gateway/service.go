// Package gateway serves the control surface over HTTP next to the bus, with
// health and readiness probes, a JSON view of the live menu and Prometheus
// metrics.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"menuscript/pkg/config"
	"menuscript/pkg/control"
	"menuscript/pkg/errs"
	"menuscript/pkg/menu"
	"menuscript/pkg/session"
)

// Session is the part of an export session the gateway reads directly.
type Session interface {
	control.Session
	Snapshot(ctx context.Context) (menu.Snapshot, error)
	Status(ctx context.Context) (session.Status, error)
}

type Service struct {
	cfg     config.GatewayConfig
	log     *slog.Logger
	session Session
	surface *control.Surface
	metrics http.Handler

	mu        sync.RWMutex
	startedAt time.Time
}

type statusResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Session       session.Status `json:"session"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
}

// NewService wires the routes. metrics may be nil, in which case /metrics
// answers 404.
func NewService(cfg config.GatewayConfig, sess Session, metrics http.Handler, log *slog.Logger) (*Service, error) {
	if sess == nil {
		return nil, errors.New("session is required")
	}
	if log == nil {
		log = slog.Default()
	}
	if metrics == nil {
		metrics = http.NotFoundHandler()
	}

	return &Service{
		cfg:     cfg,
		log:     log.With("component", "gateway"),
		session: sess,
		surface: control.NewSurface(sess, log),
		metrics: metrics,
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/status", s.handleStatus)
	r.Get("/menu", s.handleMenu)
	r.Method(http.MethodGet, "/metrics", s.metrics)

	r.Post("/menu/publish", s.handlePublish)
	r.Post("/menu/unpublish", s.handleUnpublish)
	r.Post("/walk", s.handleWalk)
	r.Post("/actions/pop", s.handlePop)
	r.Post("/quit", s.handleQuit)
	return r
}

// Run serves until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	server := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Gateway started", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start gateway: %w", err)
	}
	return nil
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondStatus(w, r, http.StatusOK, "ok")
}

// handleReady reports ready while the session loop is running.
func (s *Service) handleReady(w http.ResponseWriter, r *http.Request) {
	status, err := s.session.Status(r.Context())
	if err != nil || status.State == session.StateStopped {
		s.respondStatus(w, r, http.StatusServiceUnavailable, "not_ready")
		return
	}
	s.respondStatus(w, r, http.StatusOK, "ready")
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondStatus(w, r, http.StatusOK, "ok")
}

func (s *Service) respondStatus(w http.ResponseWriter, r *http.Request, statusCode int, status string) {
	sessionStatus, err := s.session.Status(r.Context())
	if err != nil {
		s.log.Warn("Failed to read session status", "error", err)
	}
	s.writeJSON(w, statusCode, statusResponse{
		Status:        status,
		UptimeSeconds: s.uptime(),
		Session:       sessionStatus,
	})
}

func (s *Service) uptime() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startedAt.IsZero() {
		return 0
	}
	return int64(time.Since(s.startedAt).Seconds())
}

func (s *Service) handleMenu(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Service) handlePublish(w http.ResponseWriter, r *http.Request) {
	if err := s.surface.PublishMenu(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeState(w, r)
}

func (s *Service) handleUnpublish(w http.ResponseWriter, r *http.Request) {
	if err := s.surface.UnpublishMenu(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeState(w, r)
}

// handleWalk takes the step count from ?steps=N; -1 walks everything.
func (s *Service) handleWalk(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("steps")
	steps, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("steps must be an int32, got %q", raw)})
		return
	}
	if err := s.surface.Walk(r.Context(), int32(steps)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeState(w, r)
}

func (s *Service) handlePop(w http.ResponseWriter, r *http.Request) {
	name, err := s.surface.PopActivatedAction(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"action": name})
}

func (s *Service) handleQuit(w http.ResponseWriter, r *http.Request) {
	if err := s.surface.Quit(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) writeState(w http.ResponseWriter, r *http.Request) {
	status, err := s.session.Status(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	category := errs.CategoryOf(err)
	s.writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), Category: category})
}

// statusFor maps error categories to HTTP status codes.
func statusFor(err error) int {
	switch errs.CategoryOf(err) {
	case errs.NotFound, errs.Empty:
		return http.StatusNotFound
	case errs.DuplicateName, errs.InvalidState:
		return http.StatusConflict
	case errs.InvalidPath, errs.TypeMismatch:
		return http.StatusBadRequest
	case errs.Unavailable:
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Service) writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write response", "error", err)
	}
}
