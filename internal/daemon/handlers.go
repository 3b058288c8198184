package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/silogos/Antree-sub001/internal/api"
	"github.com/silogos/Antree-sub001/internal/lifecycle"
	"github.com/silogos/Antree-sub001/internal/logging"
	"github.com/silogos/Antree-sub001/internal/store"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer io.Copy(io.Discard, body)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", lifecycle.ErrValidation)
	}
	return nil
}

// handleHealth always answers 200. Storage trouble is reported inside the
// payload as status "degraded" so hub counts and request metrics stay
// visible while the database is down.
func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := "ok"
	payload := api.HealthResponse{
		PID:         os.Getpid(),
		Connections: s.daemon.hub.TotalConnections(),
		Topics:      s.daemon.hub.TopicCounts(),
	}

	health, err := s.daemon.store.CheckHealth(ctx)
	if err != nil {
		status = "degraded"
		if health.Error == "" {
			health.Error = err.Error()
		}
		s.log().Warn("database health check failed", logging.Error(err))
	} else if !health.IntegrityCheck || len(health.MissingTables) > 0 {
		status = "degraded"
	}
	payload.Database = api.FromDatabaseHealth(health)

	if counts, err := s.daemon.store.EntityCounts(ctx); err != nil {
		status = "degraded"
		if payload.Database.Error == "" {
			payload.Database.Error = err.Error()
		}
	} else {
		payload.Counts = api.FromCounts(counts)
	}

	if s.daemon.metrics != nil {
		payload.Requests = api.FromMetricsSnapshot(s.daemon.metrics.Snapshot())
	}
	payload.Status = status
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.daemon.manager.ListTemplates(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	items := make([]api.Template, 0, len(templates))
	for _, tpl := range templates {
		items = append(items, api.FromTemplate(tpl))
	}
	s.writeJSON(w, http.StatusOK, api.ListResponse[api.Template]{Items: items})
}

func (s *apiServer) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	specs := make([]lifecycle.StatusSpec, 0, len(req.Statuses))
	for _, st := range req.Statuses {
		specs = append(specs, lifecycle.StatusSpec{Label: st.Label, Color: st.Color})
	}
	tpl, err := s.daemon.manager.CreateTemplate(r.Context(), req.Name, specs)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.FromTemplate(tpl))
}

func (s *apiServer) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.daemon.manager.GetTemplate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromTemplate(tpl))
}

func (s *apiServer) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.daemon.manager.DeleteTemplate(r.Context(), r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *apiServer) handleAppendTemplateStatus(w http.ResponseWriter, r *http.Request) {
	var req api.CreateTemplateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	st, err := s.daemon.manager.AppendTemplateStatus(r.Context(), r.PathValue("id"), req.Label, req.Color)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.FromTemplateStatus(st))
}

func (s *apiServer) handleListQueues(w http.ResponseWriter, r *http.Request) {
	queues, err := s.daemon.manager.ListQueues(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	items := make([]api.Queue, 0, len(queues))
	for _, q := range queues {
		items = append(items, api.FromQueue(q))
	}
	s.writeJSON(w, http.StatusOK, api.ListResponse[api.Queue]{Items: items})
}

func (s *apiServer) handleCreateQueue(w http.ResponseWriter, r *http.Request) {
	var req api.CreateQueueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	q, err := s.daemon.manager.CreateQueue(r.Context(), req.Name, req.TemplateID, req.CreatedBy)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.FromQueue(q))
}

func (s *apiServer) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	q, err := s.daemon.manager.GetQueue(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromQueue(q))
}

func (s *apiServer) handleUpdateQueue(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateQueueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	q, err := s.daemon.manager.UpdateQueue(r.Context(), r.PathValue("id"), req.Name, req.IsActive, req.UpdatedBy)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromQueue(q))
}

func (s *apiServer) handleDeleteQueue(w http.ResponseWriter, r *http.Request) {
	if err := s.daemon.manager.DeleteQueue(r.Context(), r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *apiServer) handleResetQueue(w http.ResponseWriter, r *http.Request) {
	res, err := s.daemon.manager.ResetQueue(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.FromResetResult(res))
}

func (s *apiServer) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.daemon.manager.ListSessions(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	items := make([]api.Session, 0, len(sessions))
	for _, sess := range sessions {
		items = append(items, api.FromSession(sess))
	}
	s.writeJSON(w, http.StatusOK, api.ListResponse[api.Session]{Items: items})
}

func (s *apiServer) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.daemon.manager.ActiveSession(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNoActiveSession) {
			s.writeError(w, http.StatusNotFound, api.CodeNoActiveSession, err.Error())
			return
		}
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSession(sess))
}

func (s *apiServer) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.daemon.manager.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSession(sess))
}

func (s *apiServer) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.daemon.manager.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *apiServer) handleTransitionSession(w http.ResponseWriter, r *http.Request) {
	var req api.TransitionSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	sess, err := s.daemon.manager.TransitionSession(r.Context(), r.PathValue("id"), req.State)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSession(sess))
}

func (s *apiServer) handleSessionStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.daemon.manager.SessionStatuses(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	items := make([]api.SessionStatus, 0, len(statuses))
	for _, st := range statuses {
		items = append(items, api.FromSessionStatus(st))
	}
	s.writeJSON(w, http.StatusOK, api.ListResponse[api.SessionStatus]{Items: items})
}

func (s *apiServer) handleAppendSessionStatus(w http.ResponseWriter, r *http.Request) {
	var req api.CreateSessionStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	st, err := s.daemon.manager.AppendSessionStatus(r.Context(), r.PathValue("id"), req.Label, req.Color)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.FromSessionStatus(st))
}

func (s *apiServer) handleUpdateSessionStatus(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateSessionStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	st, err := s.daemon.manager.UpdateSessionStatus(r.Context(), r.PathValue("id"), req.Label, req.Color)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSessionStatus(st))
}

func (s *apiServer) handleDeleteSessionStatus(w http.ResponseWriter, r *http.Request) {
	if err := s.daemon.manager.DeleteSessionStatus(r.Context(), r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *apiServer) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.daemon.manager.ListItems(r.Context(), r.PathValue("id"), r.URL.Query().Get("status"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	dtos := make([]api.Item, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, api.FromItem(item))
	}
	s.writeJSON(w, http.StatusOK, api.ListResponse[api.Item]{Items: dtos})
}

func (s *apiServer) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req api.CreateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	// The route is session scoped; resolve the owning queue so creation
	// goes through the active-session check.
	sess, err := s.daemon.manager.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if !sess.State.IsActive() {
		s.writeError(w, http.StatusConflict, api.CodeNoActiveSession, "session is not active")
		return
	}
	item, err := s.daemon.manager.CreateItem(r.Context(), sess.QueueID, req.Number, req.Name, req.StatusID, req.Metadata)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.FromItem(item))
}

func (s *apiServer) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.daemon.manager.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromItem(item))
}

func (s *apiServer) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	item, err := s.daemon.manager.UpdateItem(r.Context(), r.PathValue("id"), req.Name, req.Metadata)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromItem(item))
}

func (s *apiServer) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.daemon.manager.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *apiServer) handleMoveItem(w http.ResponseWriter, r *http.Request) {
	var req api.MoveItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDomainError(w, err)
		return
	}
	item, err := s.daemon.manager.MoveItem(r.Context(), r.PathValue("id"), req.StatusID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromItem(item))
}
