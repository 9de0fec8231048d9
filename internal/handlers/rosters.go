package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/saltspray/heatline/internal/app"
)

type RosterHandler struct {
	service *app.Service
}

func NewRosterHandler(service *app.Service) *RosterHandler {
	return &RosterHandler{
		service: service,
	}
}

// HandleDraftPick records one fantasy pick. Budget rules live in the
// drafting client; the engine only needs the entry to exist so
// settlement can pay it.
func (h *RosterHandler) HandleDraftPick(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	var req struct {
		OwnerID  string `json:"owner_id"`
		SurferID string `json:"surfer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.service.DraftPick(req.OwnerID, req.SurferID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *RosterHandler) HandleOwnerRoster(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	ownerID := r.PathValue("ownerID")
	if ownerID == "" {
		http.Error(w, "Invalid owner", http.StatusBadRequest)
		return
	}

	entries, err := h.service.Store.ListRosterEntriesByOwner(ownerID)
	if err != nil {
		logger.Error.Printf("Failed to list roster for owner %s: %v", ownerID, err)
		http.Error(w, "Failed to fetch roster", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": entries,
	})
}

// HandleLeaderboard serves owners ordered by their denormalized season
// totals, the read owner_totals exists for.
func (h *RosterHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	rows, err := h.service.Leaderboard(limit)
	if err != nil {
		logger.Error.Printf("Failed to fetch leaderboard: %v", err)
		http.Error(w, "Failed to fetch leaderboard", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": rows,
	})
}
