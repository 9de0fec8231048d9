package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/saltspray/heatline/internal/app"
	"github.com/saltspray/heatline/internal/metrics"
	"github.com/saltspray/heatline/internal/models"
)

type HeatHandler struct {
	service *app.Service
}

func NewHeatHandler(service *app.Service) *HeatHandler {
	return &HeatHandler{
		service: service,
	}
}

func (h *HeatHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
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

// HandleCreateHeat creates one heat inside an event's round.
func (h *HeatHandler) HandleCreateHeat(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	var heat models.Heat
	if err := json.NewDecoder(r.Body).Decode(&heat); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.CreateHeat(&heat); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, heat)
}

// HandleWaveScore appends one judged wave to the heat's score ledger.
func (h *HeatHandler) HandleWaveScore(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		metrics.APIRequestDuration.WithLabelValues(
			r.URL.Path,
			r.Method,
			"200",
		).Observe(duration)
	}()

	if !h.authorize(w, r) {
		return
	}

	heatID := r.PathValue("heatID")
	if heatID == "" {
		http.Error(w, "Invalid heat", http.StatusBadRequest)
		return
	}

	var req struct {
		SurferID string          `json:"surfer_id"`
		Score    decimal.Decimal `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ws, err := h.service.SubmitWaveScore(heatID, req.SurferID, req.Score)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.WaveScoresTotal.WithLabelValues(heatID, req.SurferID).Inc()

	writeJSON(w, http.StatusCreated, ws)
}

// HandleGetHeat returns one heat with its draw and score ledger.
func (h *HeatHandler) HandleGetHeat(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	detail, err := h.service.GetHeatDetail(r.PathValue("heatID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleFinalize settles a live heat and distributes fantasy points.
// The response always carries the full per-surfer, per-owner outcome
// list so a partially settled heat can be reconciled by hand.
func (h *HeatHandler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		metrics.APIRequestDuration.WithLabelValues(
			r.URL.Path,
			r.Method,
			"200",
		).Observe(duration)
	}()

	if !h.authorize(w, r) {
		return
	}

	heatID := r.PathValue("heatID")
	if heatID == "" {
		http.Error(w, "Invalid heat", http.StatusBadRequest)
		return
	}

	result, err := h.service.FinalizeHeat(heatID)
	if err != nil {
		writeError(w, err)
		return
	}

	status := "settled"
	if !result.FullySettled() {
		status = "partial"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": status,
		"result": result,
	})
}

func (h *HeatHandler) HandleStartHeat(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	heat, err := h.service.StartHeat(r.PathValue("heatID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, heat)
}

func (h *HeatHandler) HandleEndHeat(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	heat, err := h.service.EndHeat(r.PathValue("heatID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, heat)
}

// HandleAssignSurfer adds a surfer to the heat draw. Duplicates are a
// no-op so bulk imports can replay the same draw.
func (h *HeatHandler) HandleAssignSurfer(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	heatID := r.PathValue("heatID")

	var req struct {
		SurferID string `json:"surfer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SurferID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.service.AssignSurfer(heatID, req.SurferID)
	if err != nil {
		writeError(w, err)
		return
	}

	if !created {
		writeJSON(w, http.StatusOK, map[string]string{"status": "already assigned"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "assigned"})
}

func (h *HeatHandler) HandleUnassignSurfer(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	if err := h.service.UnassignSurfer(r.PathValue("heatID"), r.PathValue("surferID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unassigned"})
}
