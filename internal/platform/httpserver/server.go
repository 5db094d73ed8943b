package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	dropservice "moveserver/contexts/geo-rewards/drop-service"
	dropdomainerrors "moveserver/contexts/geo-rewards/drop-service/domain/errors"
	drophttp "moveserver/contexts/geo-rewards/drop-service/transport/http"
	"moveserver/internal/platform/messaging"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "moveserver/internal/platform/httpserver/docs"
)

const shutdownTimeout = 10 * time.Second

// SchemaMigrator is implemented by the durable store only.
type SchemaMigrator interface {
	EnsureSchema(ctx context.Context) error
}

type Options struct {
	Drops   dropservice.Module
	Events  *messaging.Fanout
	Metrics http.Handler
	// Migrator is nil when the process runs on the volatile store.
	Migrator     SchemaMigrator
	MigrateToken string
	Version      string
	Addr         string
	Logger       *slog.Logger
}

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	version      string
	drops        dropservice.Module
	events       *messaging.Fanout
	metrics      http.Handler
	migrator     SchemaMigrator
	migrateToken string

	// streams is cancelled when shutdown starts so open /events handlers return.
	streams     context.Context
	stopStreams context.CancelFunc
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		version:      opts.Version,
		drops:        opts.Drops,
		events:       opts.Events,
		metrics:      opts.Metrics,
		migrator:     opts.Migrator,
		migrateToken: opts.MigrateToken,
	}
	s.streams, s.stopStreams = context.WithCancel(context.Background())
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener. Event streams are closed as soon as
// shutdown begins; other requests drain for up to shutdownTimeout.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.RegisterOnShutdown(s.stopStreams)

	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", listener.Addr().String(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		s.stopStreams()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
	s.mux.HandleFunc("POST /admin/migrate", s.handleMigrate)
	s.mux.HandleFunc("GET /events", s.handleEvents)

	for _, prefix := range []string{"/api", ""} {
		s.mux.HandleFunc("GET "+prefix+"/drops", s.handleListDrops)
		s.mux.HandleFunc("POST "+prefix+"/drops", s.handleCreateDrop)
		s.mux.HandleFunc("GET "+prefix+"/drops/{drop_id}", s.handleGetDrop)
		s.mux.HandleFunc("PATCH "+prefix+"/drops/{drop_id}", s.handleUpdateDrop)
		s.mux.HandleFunc("DELETE "+prefix+"/drops/{drop_id}", s.handleDeleteDrop)
		s.mux.HandleFunc("GET "+prefix+"/drops/{drop_id}/claims", s.handleListDropClaims)

		s.mux.HandleFunc("POST "+prefix+"/claims", s.handleSubmitClaim)
		s.mux.HandleFunc("GET "+prefix+"/claims", s.handleListRewards)

		s.mux.HandleFunc("GET "+prefix+"/stats", s.handleStats)
	}
}

// handleHealth godoc
// @Summary Liveness and active backend
// @Tags ops
// @Produce json
// @Success 200 {object} httptransport.HealthResponse
// @Router /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := drophttp.HealthResponse{
		OK:      true,
		DB:      s.drops.Backend.Name(),
		Version: s.version,
	}
	if err := s.drops.Backend.Ping(r.Context()); err != nil {
		s.logger.Warn("health ping failed",
			"event", "health_ping_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"backend", resp.DB,
			"error", err.Error(),
		)
		resp.OK = false
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// handleMigrate godoc
// @Summary Create durable tables and indexes if missing
// @Tags ops
// @Produce json
// @Param token query string true "Migration token"
// @Success 200 {object} httptransport.MigrateResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /admin/migrate [post]
func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	if s.migrateToken == "" || r.URL.Query().Get("token") != s.migrateToken {
		writeDropError(w, http.StatusUnauthorized, "unauthorized", "valid migrate token is required", nil)
		return
	}
	if s.migrator == nil {
		writeDropError(w, http.StatusBadRequest, "no_database", "durable store is not active", nil)
		return
	}
	if err := s.migrator.EnsureSchema(r.Context()); err != nil {
		s.logger.Error("schema migration failed",
			"event", "admin_migrate_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeDropDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drophttp.MigrateResponse{OK: true, Message: "schema ensured"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDropError(w http.ResponseWriter, status int, code string, message string, shortfall *int) {
	writeJSON(w, status, drophttp.ErrorResponse{
		OK:              false,
		Code:            code,
		Message:         message,
		ShortfallMeters: shortfall,
	})
}

func writeDropDomainError(w http.ResponseWriter, err error) {
	if shortfall, ok := dropdomainerrors.ShortfallMeters(err); ok {
		writeDropError(w, http.StatusForbidden, "too_far", err.Error(), &shortfall)
		return
	}
	switch {
	case errors.Is(err, dropdomainerrors.ErrInvalidDropInput):
		writeDropError(w, http.StatusBadRequest, "invalid_drop", err.Error(), nil)
	case errors.Is(err, dropdomainerrors.ErrInvalidClaimPayload):
		writeDropError(w, http.StatusBadRequest, "bad_payload", err.Error(), nil)
	case errors.Is(err, dropdomainerrors.ErrDropNotFound):
		writeDropError(w, http.StatusNotFound, "drop_not_found", err.Error(), nil)
	case errors.Is(err, dropdomainerrors.ErrAlreadyClaimed):
		writeDropError(w, http.StatusConflict, "already_claimed", err.Error(), nil)
	case errors.Is(err, dropdomainerrors.ErrBackendUnavailable):
		writeDropError(w, http.StatusServiceUnavailable, "backend_unavailable", "storage backend unavailable", nil)
	default:
		writeDropError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}
