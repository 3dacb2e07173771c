// Package server exposes the title service over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraciasty/titlecss/internal/logging"
	"github.com/kraciasty/titlecss/internal/metrics"
	"github.com/kraciasty/titlecss/internal/service"
	"github.com/kraciasty/titlecss/internal/store"
)

const (
	maxJSONBody = 64 << 10
	maxPageBody = 4 << 20
)

// Config configures a Server.
type Config struct {
	// AdminToken is the bearer token that identifies staff. When empty no
	// request is treated as staff.
	AdminToken string
	Logger     *slog.Logger
}

// Server routes HTTP requests to a TitleService.
type Server struct {
	svc        *service.TitleService
	adminToken string
	logger     *slog.Logger
	mux        *http.ServeMux
}

// New creates a Server and registers its routes.
func New(svc *service.TitleService, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		svc:        svc,
		adminToken: cfg.AdminToken,
		logger:     logger.With("component", "server"),
		mux:        http.NewServeMux(),
	}

	s.mux.HandleFunc("PUT /admin/users/{id}/title-css", s.handleUpdateTitleCSS)
	s.mux.HandleFunc("GET /users/{id}", s.handleGetUser)
	s.mux.HandleFunc("GET /users/{id}/post-author", s.handleGetPostAuthor)
	s.mux.HandleFunc("POST /render", s.handleRender)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s
}

// Handler returns the root handler with logging and metrics middleware.
func (s *Server) Handler() http.Handler {
	return logging.HTTPMiddlewareWithLogger(s.logger, metrics.HTTPMiddleware(s.mux))
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type updateRequest struct {
	TitleCSS string `json:"title_css"`
}

type updateResponse struct {
	Success string `json:"success"`
	service.UpdateResult
}

func (s *Server) handleUpdateTitleCSS(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	res, err := s.svc.UpdateTitleCSS(r.Context(), s.actor(r), r.PathValue("id"), req.TitleCSS)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updateResponse{Success: "OK", UpdateResult: res})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.PublicUser(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleGetPostAuthor(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.PostAuthor(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.RenderPage(r.Context(), http.MaxBytesReader(w, r.Body, maxPageBody))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

// actor identifies the caller. A matching bearer token marks staff.
func (s *Server) actor(r *http.Request) service.Actor {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || s.adminToken == "" {
		return service.Actor{}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
		return service.Actor{}
	}
	return service.Actor{ID: "admin", Staff: true}
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
	case errors.As(err, &maxErr):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large"})
	default:
		s.logger.Error("request failed",
			"request_id", logging.RequestID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
