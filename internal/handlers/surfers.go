package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/saltspray/heatline/internal/app"
	"github.com/saltspray/heatline/internal/models"
)

type SurferHandler struct {
	service *app.Service
}

func NewSurferHandler(service *app.Service) *SurferHandler {
	return &SurferHandler{
		service: service,
	}
}

func (h *SurferHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
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

func (h *SurferHandler) HandleCreateSurfer(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	var surfer models.Surfer
	if err := json.NewDecoder(r.Body).Decode(&surfer); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.CreateSurfer(&surfer); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, surfer)
}

func (h *SurferHandler) HandleListSurfers(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	surfers, err := h.service.Store.ListSurfers()
	if err != nil {
		logger.Error.Printf("Failed to list surfers: %v", err)
		http.Error(w, "Failed to fetch surfers", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": surfers,
	})
}

func (h *SurferHandler) HandleGetSurfer(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	surfer, err := h.service.Store.GetSurfer(r.PathValue("surferID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, surfer)
}

// HandleEliminate is a terminal state set: an eliminated surfer never
// re-enters the event and their rosters stop earning.
func (h *SurferHandler) HandleEliminate(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	surfer, err := h.service.EliminateSurfer(r.PathValue("surferID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, surfer)
}

func (h *SurferHandler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	surfer, err := h.service.AdvanceSurfer(r.PathValue("surferID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, surfer)
}

// HandleSetStatus is the generic operator state set for the remaining
// transitions (Waiting -> Next Heat and the like).
func (h *SurferHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	var req struct {
		Status models.SurferStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	surfer, err := h.service.UpdateSurferStatus(r.PathValue("surferID"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, surfer)
}
