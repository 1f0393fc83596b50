package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"labtrace/internal/audit"
	"labtrace/internal/entity"
	"labtrace/internal/gateway"
	"labtrace/internal/lifecycle"
	"labtrace/pkg/domain"
	dErrors "labtrace/pkg/domain-errors"
	"labtrace/pkg/platform/httputil"
)

// Handler carries the gateway behind every route.
type Handler struct {
	gw     *gateway.Gateway
	logger *slog.Logger
}

func NewHandler(gw *gateway.Gateway, logger *slog.Logger) *Handler {
	return &Handler{gw: gw, logger: logger}
}

// URL segments are plural; kinds are singular.
var kindsByPath = map[string]domain.Kind{
	"samples":     domain.KindSample,
	"experiments": domain.KindExperiment,
	"notebooks":   domain.KindNotebook,
	"users":       domain.KindUser,
	"molecules":   domain.KindMolecule,
}

func kindFromURL(r *http.Request) (domain.Kind, bool) {
	kind, ok := kindsByPath[chi.URLParam(r, "kind")]
	return kind, ok
}

type createRequest struct {
	// Transition defaults to the kind's canonical entry transition. An
	// explicit value supports entry variants like submitting an experiment
	// straight to pending approval.
	Transition string            `json:"transition,omitempty"`
	Payload    map[string]string `json:"payload"`
}

type transitionRequest struct {
	Transition string            `json:"transition"`
	Payload    map[string]string `json:"payload,omitempty"`
}

// entryTransitions maps each kind to its default entry transition.
var entryTransitions = map[domain.Kind]lifecycle.Transition{
	domain.KindSample:     lifecycle.Create,
	domain.KindExperiment: lifecycle.Create,
	domain.KindNotebook:   lifecycle.Create,
	domain.KindUser:       lifecycle.Create,
	domain.KindMolecule:   lifecycle.Register,
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromURL(r)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown entity kind"))
		return
	}

	req, ok := httputil.Decode[createRequest](w, r, h.logger)
	if !ok {
		return
	}

	transition := entryTransitions[kind]
	if req.Transition != "" {
		transition = lifecycle.Transition(req.Transition)
	}

	rec, err := h.gw.Apply(r.Context(), gateway.Intent{
		Kind:       kind,
		Transition: transition,
		Payload:    entity.Payload(req.Payload),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromURL(r)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown entity kind"))
		return
	}

	rec, err := h.gw.Get(r.Context(), kind, domain.EntityID(chi.URLParam(r, "id")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromURL(r)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown entity kind"))
		return
	}

	req, ok := httputil.Decode[transitionRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.Transition == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "transition is required"))
		return
	}

	rec, err := h.gw.Apply(r.Context(), gateway.Intent{
		Kind:       kind,
		EntityID:   domain.EntityID(chi.URLParam(r, "id")),
		Transition: lifecycle.Transition(req.Transition),
		Payload:    entity.Payload(req.Payload),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

type accessRequest struct {
	UserID string `json:"user_id"`
	Action string `json:"action"` // "grant" or "revoke"
}

func (h *Handler) handleNotebookAccess(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[accessRequest](w, r, h.logger)
	if !ok {
		return
	}

	userID, err := domain.ParseActorID(req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	notebookID := domain.EntityID(chi.URLParam(r, "id"))
	var nb *entity.Notebook
	switch req.Action {
	case "grant":
		nb, err = h.gw.GrantAccess(r.Context(), notebookID, userID)
	case "revoke":
		nb, err = h.gw.RevokeAccess(r.Context(), notebookID, userID)
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "action must be grant or revoke"))
		return
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, nb)
}

type roleChangeRequest struct {
	Role string `json:"role"`
}

func (h *Handler) handleRoleChange(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[roleChangeRequest](w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.gw.ChangeRole(r.Context(), domain.EntityID(chi.URLParam(r, "id")), domain.Role(req.Role))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handlePermissions(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.gw.Matrix())
}

func (h *Handler) handleAuditQuery(w http.ResponseWriter, r *http.Request) {
	filter, err := auditFilterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	recs, err := h.gw.QueryAudit(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if recs == nil {
		recs = []audit.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, recs)
}

func auditFilterFromQuery(r *http.Request) (audit.Filter, error) {
	var f audit.Filter
	q := r.URL.Query()

	if v := q.Get("actor_id"); v != "" {
		id, err := domain.ParseActorID(v)
		if err != nil {
			return f, err
		}
		f.ActorID = &id
	}
	if v := q.Get("kind"); v != "" {
		kind, err := domain.ParseKind(v)
		if err != nil {
			return f, err
		}
		f.EntityKind = &kind
	}
	if v := q.Get("entity_id"); v != "" {
		id := domain.EntityID(v)
		f.EntityID = &id
	}
	if v := q.Get("category"); v != "" {
		c := audit.Category(v)
		f.Category = &c
	}
	if v := q.Get("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, dErrors.New(dErrors.CodeInvalidInput, "from must be RFC3339")
		}
		f.From = ts
	}
	if v := q.Get("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, dErrors.New(dErrors.CodeInvalidInput, "to must be RFC3339")
		}
		f.To = ts
	}
	if v := q.Get("after_seq"); v != "" {
		seq, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return f, dErrors.New(dErrors.CodeInvalidInput, "after_seq must be an integer")
		}
		f.AfterSeq = seq
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return f, dErrors.New(dErrors.CodeInvalidInput, "limit must be a non-negative integer")
		}
		f.Limit = limit
	}
	return f, nil
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
