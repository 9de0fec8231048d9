package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/saltspray/heatline/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Debug.Printf("Error encoding response: %v", err)
	}
}

// writeError maps the sentinel error kinds onto HTTP statuses. Anything
// unrecognized is a 500 with the detail kept out of the response body.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrHeatNotLive):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		logger.Error.Printf("Internal error: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
