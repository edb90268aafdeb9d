package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kalendar-app/kalendar/internal/auth"
	"github.com/kalendar-app/kalendar/internal/service"
)

// EventHandler serves the calendar-event endpoints.
type EventHandler struct {
	events *service.EventService
	logger *slog.Logger
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(events *service.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

type createEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Color       string `json:"color"`
	UserID      int64  `json:"userId"`
}

// updateEventRequest is a partial update: a field left out of the JSON stays
// nil and the stored value is preserved. An explicit "" for description
// overwrites it; an explicit "" for time clears the time-of-day.
type updateEventRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Color       *string `json:"color"`
}

// HandleList returns the events on one calendar.
//
// HTTP: GET /api/events?year=2024&month=12&userId=3
//
// All three query parameters are optional. userId selects another user's
// calendar (admins only). year and month scope to a single month — only
// when both are present; one alone is ignored entirely.
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	year := queryInt(r, "year")
	month := queryInt(r, "month")
	targetUserID := int64(queryInt(r, "userId"))

	events, err := h.events.List(r.Context(), actor, targetUserID, year, month)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

// HandleCreate stores a new event.
//
// HTTP: POST /api/events
// Body: {"title": "...", "date": "2024-12-24", "time": "18:00", ...}
//
// A userId in the body creates the event on that user's calendar; only
// admins may target someone else. createdBy always records the caller.
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("create event: invalid JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	event, err := h.events.Create(r.Context(), actor, service.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Color:       req.Color,
		UserID:      req.UserID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// HandleUpdate applies a partial update.
//
// HTTP: PUT /api/events/{id}
func (h *EventHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "event id must be an integer",
		})
		return
	}

	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("update event: invalid JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	event, err := h.events.Update(r.Context(), actor, id, service.UpdateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Color:       req.Color,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// HandleDelete removes an event.
//
// HTTP: DELETE /api/events/{id}
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "event id must be an integer",
		})
		return
	}

	if err := h.events.Delete(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "event deleted successfully"})
}

// HandleExport downloads one calendar as an .ics file, with the same
// scoping and month filter as HandleList.
//
// HTTP: GET /api/events/export?year=2024&month=12&userId=3
func (h *EventHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	year := queryInt(r, "year")
	month := queryInt(r, "month")
	targetUserID := int64(queryInt(r, "userId"))

	doc, err := h.events.Export(r.Context(), actor, targetUserID, year, month)
	if err != nil {
		writeError(w, err)
		return
	}

	filename := "calendar.ics"
	if year > 0 && month > 0 {
		filename = fmt.Sprintf("calendar-%d-%d.ics", year, month)
	}

	w.Header().Set("Content-Type", "text/calendar")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		h.logger.Error("failed to write export body", slog.String("error", err.Error()))
	}
}

// queryInt parses an optional integer query parameter; absent or malformed
// values come back as zero, which every caller treats as "not supplied".
func queryInt(r *http.Request, name string) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
