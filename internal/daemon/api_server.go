package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/silogos/Antree-sub001/internal/api"
	"github.com/silogos/Antree-sub001/internal/config"
	"github.com/silogos/Antree-sub001/internal/lifecycle"
	"github.com/silogos/Antree-sub001/internal/logging"
	"github.com/silogos/Antree-sub001/internal/store"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address is empty")
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", srv.handleHealth)
	mux.HandleFunc("GET /api/events", srv.handleEvents)

	mux.HandleFunc("GET /api/templates", srv.handleListTemplates)
	mux.HandleFunc("POST /api/templates", srv.handleCreateTemplate)
	mux.HandleFunc("GET /api/templates/{id}", srv.handleGetTemplate)
	mux.HandleFunc("DELETE /api/templates/{id}", srv.handleDeleteTemplate)
	mux.HandleFunc("POST /api/templates/{id}/statuses", srv.handleAppendTemplateStatus)

	mux.HandleFunc("GET /api/queues", srv.handleListQueues)
	mux.HandleFunc("POST /api/queues", srv.handleCreateQueue)
	mux.HandleFunc("GET /api/queues/{id}", srv.handleGetQueue)
	mux.HandleFunc("PATCH /api/queues/{id}", srv.handleUpdateQueue)
	mux.HandleFunc("DELETE /api/queues/{id}", srv.handleDeleteQueue)
	mux.HandleFunc("POST /api/queues/{id}/reset", srv.handleResetQueue)
	mux.HandleFunc("GET /api/queues/{id}/sessions", srv.handleListSessions)
	mux.HandleFunc("GET /api/queues/{id}/sessions/active", srv.handleActiveSession)

	mux.HandleFunc("GET /api/sessions/{id}", srv.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", srv.handleDeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/transition", srv.handleTransitionSession)
	mux.HandleFunc("GET /api/sessions/{id}/statuses", srv.handleSessionStatuses)
	mux.HandleFunc("POST /api/sessions/{id}/statuses", srv.handleAppendSessionStatus)
	mux.HandleFunc("GET /api/sessions/{id}/items", srv.handleListItems)
	mux.HandleFunc("POST /api/sessions/{id}/items", srv.handleCreateItem)

	mux.HandleFunc("PATCH /api/statuses/{id}", srv.handleUpdateSessionStatus)
	mux.HandleFunc("DELETE /api/statuses/{id}", srv.handleDeleteSessionStatus)

	mux.HandleFunc("GET /api/items/{id}", srv.handleGetItem)
	mux.HandleFunc("PATCH /api/items/{id}", srv.handleUpdateItem)
	mux.HandleFunc("DELETE /api/items/{id}", srv.handleDeleteItem)
	mux.HandleFunc("POST /api/items/{id}/move", srv.handleMoveItem)

	handler := srv.metricsMiddleware(mux)
	handler = authMiddleware(cfg.Paths.APIToken, handler)

	srv.server = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: /api/events streams until the client leaves.
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	// Shutdown waits for the SSE handlers, and those only return once the
	// hub closes their done channels. Closing the hub here keeps a graceful
	// stop from sitting out the whole grace period behind live streams.
	s.server.RegisterOnShutdown(s.daemon.hub.Close)

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownGraceSeconds*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownGraceSeconds*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
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

func (s *apiServer) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Code: code, Message: message})
}

// writeDomainError maps lifecycle and storage failures onto stable HTTP
// statuses and machine-readable codes.
func (s *apiServer) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, api.CodeNotFound, err.Error())
	case errors.Is(err, store.ErrNoActiveSession):
		s.writeError(w, http.StatusConflict, api.CodeNoActiveSession, err.Error())
	case errors.Is(err, store.ErrStatusInUse):
		s.writeError(w, http.StatusConflict, api.CodeStatusInUse, err.Error())
	case errors.Is(err, store.ErrTemplateInUse):
		s.writeError(w, http.StatusConflict, api.CodeTemplateInUse, err.Error())
	case errors.Is(err, store.ErrInvalidTransition):
		s.writeError(w, http.StatusConflict, api.CodeInvalidTransition, err.Error())
	case errors.Is(err, store.ErrStatusMismatch):
		s.writeError(w, http.StatusUnprocessableEntity, api.CodeStatusMismatch, err.Error())
	case errors.Is(err, lifecycle.ErrValidation):
		s.writeError(w, http.StatusUnprocessableEntity, api.CodeValidation, err.Error())
	default:
		s.log().Error("request failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
	}
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
