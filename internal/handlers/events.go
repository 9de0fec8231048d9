package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/saltspray/heatline/internal/app"
	"github.com/saltspray/heatline/internal/models"
)

type EventHandler struct {
	service *app.Service
}

func NewEventHandler(service *app.Service) *EventHandler {
	return &EventHandler{
		service: service,
	}
}

func (h *EventHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return false
	}

	operator := r.Header.Get(h.service.Config.API.OperatorIDHeader)
	if operator == "" {
		http.Error(w, "Invalid operator id specified", http.StatusUnauthorized)
		return false
	}

	if err := h.service.ValidateAuthAndOperator(r, operator); err != nil {
		logger.Error.Printf("Auth failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func (h *EventHandler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	var ev models.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.CreateEvent(&ev); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (h *EventHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	events, err := h.service.Store.ListEvents()
	if err != nil {
		logger.Error.Printf("Failed to list events: %v", err)
		http.Error(w, "Failed to fetch events", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": events,
	})
}

func (h *EventHandler) HandleSetEventStatus(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	var req struct {
		Status models.HeatStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ev, err := h.service.UpdateEventStatus(r.PathValue("eventID"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// HandleListHeats returns an event's heats with draw and score ledger.
func (h *EventHandler) HandleListHeats(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	eventID := r.PathValue("eventID")
	if eventID == "" {
		logger.Error.Printf("Failed to extract event from path: %s", r.URL.Path)
		http.Error(w, "Invalid event", http.StatusBadRequest)
		return
	}

	details, err := h.service.ListHeatDetails(eventID)
	if err != nil {
		logger.Error.Printf("Failed to fetch heats for event %s: %v", eventID, err)
		http.Error(w, "Failed to fetch heats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": details,
	})
}
