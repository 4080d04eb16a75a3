// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/Shivanand-hulikatti/group-planner/internal/apperr"
	"github.com/Shivanand-hulikatti/group-planner/internal/model"
	"github.com/Shivanand-hulikatti/group-planner/internal/service"
	"github.com/Shivanand-hulikatti/group-planner/internal/session"
)

// SessionSource returns the caller's session store for one request.
type SessionSource func(w http.ResponseWriter, r *http.Request) session.Store

// EventHandler holds all HTTP handlers for the planner API.
type EventHandler struct {
	svc      *service.EventService
	registry *service.Registry
	sessions SessionSource
	validate *validator.Validate
	logger   *slog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService, registry *service.Registry, sessions SessionSource, logger *slog.Logger) *EventHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &EventHandler{
		svc:      svc,
		registry: registry,
		sessions: sessions,
		validate: v,
		logger:   logger,
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// decodeValid decodes the body into dst and runs its validate tags.
func (h *EventHandler) decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "min":
			parts = append(parts, fmt.Sprintf("%s needs at least %s item(s)", fe.Field(), fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// fail maps an error to its HTTP status. Store and unexpected failures are
// logged and hidden from the client.
func (h *EventHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	msg := err.Error()
	var ae *apperr.Error
	if errors.As(err, &ae) {
		msg = ae.Message
	}

	switch apperr.CodeOf(err) {
	case apperr.CodeInvalidInput:
		writeError(w, http.StatusBadRequest, err.Error())
	case apperr.CodeUnauthorized:
		writeError(w, http.StatusUnauthorized, msg)
	case apperr.CodeNotFound:
		writeError(w, http.StatusNotFound, msg)
	case apperr.CodeConflict:
		writeError(w, http.StatusConflict, msg)
	case apperr.CodeStoreUnavailable:
		h.logger.Error("store unavailable", "request_id", chimiddleware.GetReqID(r.Context()), "error", err)
		writeError(w, http.StatusServiceUnavailable, "storage is unavailable, try again later")
	default:
		h.logger.Error("request failed", "request_id", chimiddleware.GetReqID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *EventHandler) session(w http.ResponseWriter, r *http.Request) *session.Manager {
	return session.NewManager(h.sessions(w, r))
}

// currentParticipant returns the signed-in participant for the event or
// writes a 401.
func (h *EventHandler) currentParticipant(w http.ResponseWriter, r *http.Request, eventID string) (string, bool) {
	name, ok, err := h.session(w, r).Current(r.Context(), eventID)
	if err != nil {
		h.fail(w, r, err)
		return "", false
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "sign in to this event first")
		return "", false
	}
	return name, true
}

// ─── Events ───────────────────────────────────────────────────────────────────

// CreateEvent handles POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	rec, err := h.svc.CreateEvent(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// GetEvent handles GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ReplaceEvent handles PUT /api/events/{id}
func (h *EventHandler) ReplaceEvent(w http.ResponseWriter, r *http.Request) {
	var rec model.EventRecord
	if err := decodeJSON(w, r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	out, err := h.svc.ReplaceEvent(r.Context(), chi.URLParam(r, "id"), rec)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// DeleteEvent handles DELETE /api/events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteEvent(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.session(w, r).Clear(r.Context(), id); err != nil {
		h.logger.Warn("sign-out after event delete failed", "request_id", chimiddleware.GetReqID(r.Context()), "event_id", id, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /api/events/{id}/summary
// Returns the availability heatmap and ranked suggestions.
func (h *EventHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// ─── Participants and sessions ────────────────────────────────────────────────

// ListParticipants handles GET /api/events/{id}/auth
// Returns registered names only, never password hashes.
func (h *EventHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.GetEvent(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	names, err := h.registry.ListNames(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"participants": names})
}

// Register handles POST /api/events/{id}/auth/register
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req model.CredentialsRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if err := h.registry.Register(r.Context(), h.session(w, r), id, name, req.Password); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.SessionResponse{EventID: id, Participant: name})
}

// Authenticate handles POST /api/events/{id}/auth/authenticate
func (h *EventHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req model.CredentialsRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if err := h.registry.Authenticate(r.Context(), h.session(w, r), id, name, req.Password); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SessionResponse{EventID: id, Participant: name})
}

// CurrentSession handles GET /api/events/{id}/auth/session
func (h *EventHandler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name, _, err := h.session(w, r).Current(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SessionResponse{EventID: id, Participant: name})
}

// SignOut handles DELETE /api/events/{id}/auth/session
func (h *EventHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.session(w, r).Clear(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveAvailability handles PUT /api/events/{id}/participants/me
// Replaces the signed-in participant's dates.
func (h *EventHandler) SaveAvailability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	me, ok := h.currentParticipant(w, r, id)
	if !ok {
		return
	}
	var req model.AvailabilityRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	rec, err := h.svc.SaveAvailability(r.Context(), id, me, req.Dates)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteParticipant handles DELETE /api/events/{id}/participants/{name}
// Participants may only delete themselves.
func (h *EventHandler) DeleteParticipant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	me, ok := h.currentParticipant(w, r, id)
	if !ok {
		return
	}
	// chi matches on the escaped path when it contains %2F, so unescape here.
	target, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid participant name in path")
		return
	}
	if target != me {
		writeError(w, http.StatusUnauthorized, "you can only delete your own entry")
		return
	}
	rec, err := h.svc.DeleteParticipant(r.Context(), h.session(w, r), id, me)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ─── Suggestions ──────────────────────────────────────────────────────────────

// AddSuggestion handles POST /api/events/{id}/suggestions
func (h *EventHandler) AddSuggestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	me, ok := h.currentParticipant(w, r, id)
	if !ok {
		return
	}
	var req model.SuggestionRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	_, created, err := h.svc.AddSuggestion(r.Context(), id, me, req.Name, req.Description)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// EditSuggestion handles PATCH /api/events/{id}/suggestions/{sid}
func (h *EventHandler) EditSuggestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	me, ok := h.currentParticipant(w, r, id)
	if !ok {
		return
	}
	var req model.SuggestionRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	rec, err := h.svc.EditSuggestion(r.Context(), id, me, chi.URLParam(r, "sid"), req.Name, req.Description)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteSuggestion handles DELETE /api/events/{id}/suggestions/{sid}
func (h *EventHandler) DeleteSuggestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	me, ok := h.currentParticipant(w, r, id)
	if !ok {
		return
	}
	rec, err := h.svc.DeleteSuggestion(r.Context(), id, me, chi.URLParam(r, "sid"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Vote handles PUT /api/events/{id}/suggestions/{sid}/vote
// A null voteType withdraws the caller's vote.
func (h *EventHandler) Vote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	me, ok := h.currentParticipant(w, r, id)
	if !ok {
		return
	}
	var req model.VoteRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	rec, err := h.svc.Vote(r.Context(), id, me, chi.URLParam(r, "sid"), req.VoteType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
