// Package api provides HTTP handlers for the catalog API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/catalog/internal/core/auth"
	"github.com/artpar/catalog/internal/core/domain"
	"github.com/artpar/catalog/internal/core/validation"
	"github.com/artpar/catalog/internal/shell/locks"
	"github.com/artpar/catalog/internal/shell/store"
	"github.com/go-chi/chi/v5"
)

// Response messages.
const (
	messageCreateForbidden = "You do not have permission to add an artist."
	messageUpdateForbidden = "You do not have permission to update an artist."
	messageNotFound        = "This artist does not exist in the database."
	messageMalformedBody   = "Request body could not be parsed."
	messageInternal        = "Something went wrong while processing this request."
	messageDuplicate       = "Artist with this name already exists."
)

// Log routes.
const (
	routeCreate = "/api/v1/artists : POST"
	routeUpdate = "/api/v1/artists/:id : PATCH"
)

// =============================================================================
// Handler
// =============================================================================

// Handler serves the artist endpoints.
type Handler struct {
	store   store.Store
	locker  locks.Locker
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewHandler creates a new API handler. A nil locker falls back to an
// in-process one; nil metrics get a fresh registry.
func NewHandler(s store.Store, l locks.Locker, m *Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if l == nil {
		l = locks.NewMemoryLocker()
	}
	if m == nil {
		m = NewMetrics()
	}
	return &Handler{
		store:   s,
		locker:  l,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Routes mounts the artist routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/artists", func(r chi.Router) {
		r.Post("/", h.handleCreateArtist)
		r.Get("/", h.handleListArtists)
		r.Get("/{id}", h.handleGetArtist)
		r.Patch("/{id}", h.handleUpdateArtist)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", "check", "database", "error", err)
		checks["database"] = "failed"
		writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}
	checks["database"] = "ok"

	writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Create
// =============================================================================

func (h *Handler) handleCreateArtist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !auth.CanModifyArtists(auth.FromContext(ctx)) {
		h.fail(w, opCreate, http.StatusForbidden, messageCreateForbidden, nil)
		return
	}

	mediaType, ok := h.expectContentType(w, r, opCreate)
	if !ok {
		return
	}

	fields, err := decodeFields(w, r, mediaType)
	if err != nil {
		h.fail(w, opCreate, http.StatusBadRequest, messageMalformedBody, nil)
		return
	}
	req, err := bindCreateRequest(fields)
	if err != nil {
		h.fail(w, opCreate, http.StatusBadRequest, messageMalformedBody, nil)
		return
	}

	if f := validation.ValidateCreateArtist(req.Name, req.Status, req.Availability); f != nil {
		h.failValidation(w, opCreate, f)
		return
	}

	artist := domain.NewArtist(req.fields(), h.now())

	unlock, err := h.locker.Lock(ctx, artist.SafeName)
	if err != nil {
		h.internalError(w, opCreate, routeCreate, "failed to acquire name lock", err)
		return
	}
	defer unlock()

	existing, err := h.store.GetArtistByName(ctx, artist.Name)
	if err == nil {
		h.fail(w, opCreate, http.StatusConflict, conflictMessage(existing), nil)
		return
	}
	if !isNotFound(err) {
		h.internalError(w, opCreate, routeCreate, "failed to look up artist by name", err)
		return
	}

	if err := h.store.CreateArtist(ctx, artist); err != nil {
		if isDuplicateName(err) {
			h.fail(w, opCreate, http.StatusConflict, h.duplicateMessage(r, artist.Name), nil)
			return
		}
		h.internalError(w, opCreate, routeCreate, "failed to create artist", err)
		return
	}

	h.logger.Info(artist.Name+" successfully created.", "route", routeCreate, "id", artist.ID)

	h.respond(w, opCreate, http.StatusCreated, MessageResponse{
		Message: artist.Name + " has been successfully added to the database.",
		Data:    artist,
	})
}

// =============================================================================
// Update
// =============================================================================

func (h *Handler) handleUpdateArtist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !auth.CanModifyArtists(auth.FromContext(ctx)) {
		h.fail(w, opUpdate, http.StatusForbidden, messageUpdateForbidden, nil)
		return
	}

	mediaType, ok := h.expectContentType(w, r, opUpdate)
	if !ok {
		return
	}

	h.logger.Debug("Attempting to update artist...", "route", routeUpdate)

	id, ok := validation.ParseArtistID(chi.URLParam(r, "id"))
	if !ok {
		h.fail(w, opUpdate, http.StatusBadRequest, validation.MessageInvalidID, nil)
		return
	}

	current, err := h.store.GetArtist(ctx, id)
	if err != nil {
		if isNotFound(err) {
			h.fail(w, opUpdate, http.StatusNotFound, messageNotFound, nil)
			return
		}
		h.internalError(w, opUpdate, routeUpdate, "failed to get artist", err)
		return
	}

	fields, err := decodeFields(w, r, mediaType)
	if err != nil {
		h.fail(w, opUpdate, http.StatusBadRequest, messageMalformedBody, nil)
		return
	}
	changes, err := changesFromFields(fields)
	if err != nil {
		h.fail(w, opUpdate, http.StatusBadRequest, messageMalformedBody, nil)
		return
	}
	if f := validation.ValidateArtistChanges(changes); f != nil {
		h.failValidation(w, opUpdate, f)
		return
	}

	changes = changes.Derive(current)

	if changes.SafeName != nil && *changes.SafeName != current.SafeName {
		unlock, err := h.locker.Lock(ctx, *changes.SafeName)
		if err != nil {
			h.internalError(w, opUpdate, routeUpdate, "failed to acquire name lock", err)
			return
		}
		defer unlock()

		existing, err := h.store.GetArtistByName(ctx, *changes.Name)
		if err == nil && existing.ID != current.ID {
			h.fail(w, opUpdate, http.StatusConflict, conflictMessage(existing), nil)
			return
		}
		if err != nil && !isNotFound(err) {
			h.internalError(w, opUpdate, routeUpdate, "failed to look up artist by name", err)
			return
		}
	}

	updated, err := h.store.UpdateArtist(ctx, id, changes)
	if err != nil {
		switch {
		case isNotFound(err):
			h.fail(w, opUpdate, http.StatusNotFound, messageNotFound, nil)
		case isDuplicateName(err) && changes.Name != nil:
			h.fail(w, opUpdate, http.StatusConflict, h.duplicateMessage(r, *changes.Name), nil)
		default:
			h.internalError(w, opUpdate, routeUpdate, "failed to update artist", err)
		}
		return
	}

	h.logger.Info(current.Name+" successfully updated.", "route", routeUpdate, "id", id)

	h.respond(w, opUpdate, http.StatusOK, updated)
}

// =============================================================================
// Read
// =============================================================================

func (h *Handler) handleGetArtist(w http.ResponseWriter, r *http.Request) {
	id, ok := validation.ParseArtistID(chi.URLParam(r, "id"))
	if !ok {
		h.fail(w, opGet, http.StatusBadRequest, validation.MessageInvalidID, nil)
		return
	}

	artist, err := h.store.GetArtist(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.fail(w, opGet, http.StatusNotFound, messageNotFound, nil)
			return
		}
		h.internalError(w, opGet, "/api/v1/artists/:id : GET", "failed to get artist", err)
		return
	}

	h.respond(w, opGet, http.StatusOK, artist)
}

func (h *Handler) handleListArtists(w http.ResponseWriter, r *http.Request) {
	opts := store.DefaultListOptions()

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			opts.Limit = l
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil {
			opts.Offset = o
		}
	}

	artists, err := h.store.ListArtists(r.Context(), opts)
	if err != nil {
		h.internalError(w, opList, "/api/v1/artists : GET", "failed to list artists", err)
		return
	}

	h.respond(w, opList, http.StatusOK, artists)
}

// =============================================================================
// Content Negotiation
// =============================================================================

// expectContentType enforces a present and allowed Content-Type. On failure
// it writes the response itself: 400 when absent, 415 when not allowed.
func (h *Handler) expectContentType(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	header := r.Header.Get("Content-Type")
	if header == "" {
		h.fail(w, op, http.StatusBadRequest, validation.MessageMissingContentType, nil)
		return "", false
	}
	mediaType, ok := validation.CheckContentType(header)
	if !ok {
		h.fail(w, op, http.StatusUnsupportedMediaType,
			"Unsupported content-type. Expected one of: "+strings.Join(validation.AllowedContentTypes, ", "), nil)
		return "", false
	}
	return mediaType, true
}

// =============================================================================
// Response Helpers
// =============================================================================

func (h *Handler) respond(w http.ResponseWriter, op string, status int, v any) {
	h.metrics.Observe(op, outcomeFor(op, status))
	writeJSON(w, status, v)
}

func (h *Handler) fail(w http.ResponseWriter, op string, status int, message string, data any) {
	h.respond(w, op, status, MessageResponse{Message: message, Data: data})
}

func (h *Handler) failValidation(w http.ResponseWriter, op string, f *validation.Failure) {
	var data any
	switch {
	case len(f.Missing) > 0:
		data = MissingFieldsData{Missing: f.Missing}
	case len(f.Values) > 0:
		data = AllowedValuesData{Values: f.Values}
	}
	h.fail(w, op, http.StatusBadRequest, f.Message, data)
}

func (h *Handler) internalError(w http.ResponseWriter, op, route, msg string, err error) {
	h.logger.Error(msg, "route", route, "error", err)
	h.fail(w, op, http.StatusInternalServerError, messageInternal, nil)
}

// duplicateMessage names the record that won a race on name.
func (h *Handler) duplicateMessage(r *http.Request, name string) string {
	existing, err := h.store.GetArtistByName(r.Context(), name)
	if err != nil {
		return messageDuplicate
	}
	return conflictMessage(existing)
}

func conflictMessage(existing *domain.Artist) string {
	return fmt.Sprintf("%s (%d | %s: %s)", messageDuplicate, existing.ID, existing.SafeName, existing.Name)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// isNotFound checks if an error is a not found error.
func isNotFound(err error) bool {
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		return errors.Is(storeErr.Unwrap(), store.ErrNotFound)
	}
	return false
}

// isDuplicateName checks if an error is a name uniqueness violation.
func isDuplicateName(err error) bool {
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		return errors.Is(storeErr.Unwrap(), store.ErrDuplicateName)
	}
	return false
}
