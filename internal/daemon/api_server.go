package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lmbridge/internal/api"
	"lmbridge/internal/config"
	"lmbridge/internal/logging"
	"lmbridge/internal/services"
)

const maxRequestBody = 1 << 20

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logger,
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(cfg.Paths.APIToken),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes(token string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestContext)
	r.Use(authMiddleware(token))

	r.Get("/api/status", s.handleStatus)
	r.Route("/api/providers", func(r chi.Router) {
		r.Get("/", s.handleListProviders)
		r.Post("/", s.handleCreateProvider)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetProvider)
			r.Put("/", s.handleUpdateProvider)
			r.Delete("/", s.handleDeleteProvider)
		})
	})
	r.Get("/api/metadata-source", s.handleMetadataSource)
	r.Put("/api/albums", s.handleReplaceAlbums)
	r.Get("/api/commands", s.handleListCommands)
	r.Post("/api/commands/{id}/complete", s.handleCompleteCommand)
	r.Post("/api/reconcile", s.handleReconcile)
	return r
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil || s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.daemon.Status(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *apiServer) handleListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := s.daemon.service.ListProviders(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ProviderListResponse{Providers: providers})
}

func (s *apiServer) handleCreateProvider(w http.ResponseWriter, r *http.Request) {
	var req api.ProviderRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.daemon.service.CreateProvider(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *apiServer) handleGetProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := s.providerID(w, r)
	if !ok {
		return
	}
	p, err := s.daemon.service.GetProvider(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ProviderResponse{Provider: p})
}

func (s *apiServer) handleUpdateProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := s.providerID(w, r)
	if !ok {
		return
	}
	var req api.ProviderRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.daemon.service.UpdateProvider(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleDeleteProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := s.providerID(w, r)
	if !ok {
		return
	}
	p, err := s.daemon.service.DeleteProvider(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ProviderResponse{Provider: p})
}

func (s *apiServer) handleMetadataSource(w http.ResponseWriter, r *http.Request) {
	value, err := s.daemon.service.MetadataSource(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.MetadataSourceResponse{MetadataSource: value})
}

func (s *apiServer) handleReplaceAlbums(w http.ResponseWriter, r *http.Request) {
	var req api.AlbumsRequest
	if !s.decode(w, r, &req) {
		return
	}
	count, err := s.daemon.service.ReplaceAlbums(r.Context(), req.Albums)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.AlbumsResponse{Count: count})
}

func (s *apiServer) handleListCommands(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	commands, err := s.daemon.service.ListCommands(r.Context(), status)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.CommandListResponse{Commands: commands})
}

func (s *apiServer) handleCompleteCommand(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := s.daemon.service.CompleteCommand(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if err := s.daemon.service.Reconcile(r.Context()); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *apiServer) providerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid provider id")
		return 0, false
	}
	return id, true
}

func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	status := services.StatusCode(err)
	if status >= http.StatusInternalServerError {
		s.log().Error("api request failed", logging.Error(err))
	}
	s.writeError(w, status, err.Error())
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
