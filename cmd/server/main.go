package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/saltspray/heatline/internal/app"
	"github.com/saltspray/heatline/internal/handlers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debug.Println("No .env file found, continuing with system environment variables")
	}

	configPath := os.Getenv("HEATLINE_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	service, err := app.NewService(configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	eventHandler := handlers.NewEventHandler(service)
	heatHandler := handlers.NewHeatHandler(service)
	surferHandler := handlers.NewSurferHandler(service)
	rosterHandler := handlers.NewRosterHandler(service)

	http.HandleFunc("POST /api/v1/events", eventHandler.HandleCreateEvent)
	http.HandleFunc("GET /api/v1/events", eventHandler.HandleListEvents)
	http.HandleFunc("POST /api/v1/events/{eventID}/status", eventHandler.HandleSetEventStatus)
	http.HandleFunc("GET /api/v1/events/{eventID}/heats", eventHandler.HandleListHeats)

	http.HandleFunc("POST /api/v1/heats", heatHandler.HandleCreateHeat)
	http.HandleFunc("GET /api/v1/heats/{heatID}", heatHandler.HandleGetHeat)
	http.HandleFunc("POST /api/v1/heats/{heatID}/scores", heatHandler.HandleWaveScore)
	http.HandleFunc("POST /api/v1/heats/{heatID}/start", heatHandler.HandleStartHeat)
	http.HandleFunc("POST /api/v1/heats/{heatID}/end", heatHandler.HandleEndHeat)
	http.HandleFunc("POST /api/v1/heats/{heatID}/finalize", heatHandler.HandleFinalize)
	http.HandleFunc("POST /api/v1/heats/{heatID}/assignments", heatHandler.HandleAssignSurfer)
	http.HandleFunc("DELETE /api/v1/heats/{heatID}/assignments/{surferID}", heatHandler.HandleUnassignSurfer)

	http.HandleFunc("POST /api/v1/surfers", surferHandler.HandleCreateSurfer)
	http.HandleFunc("GET /api/v1/surfers", surferHandler.HandleListSurfers)
	http.HandleFunc("GET /api/v1/surfers/{surferID}", surferHandler.HandleGetSurfer)
	http.HandleFunc("POST /api/v1/surfers/{surferID}/eliminate", surferHandler.HandleEliminate)
	http.HandleFunc("POST /api/v1/surfers/{surferID}/advance", surferHandler.HandleAdvance)
	http.HandleFunc("POST /api/v1/surfers/{surferID}/status", surferHandler.HandleSetStatus)

	http.HandleFunc("POST /api/v1/rosters", rosterHandler.HandleDraftPick)
	http.HandleFunc("GET /api/v1/rosters/{ownerID}", rosterHandler.HandleOwnerRoster)
	http.HandleFunc("GET /api/v1/leaderboard", rosterHandler.HandleLeaderboard)

	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting heatline server on %s", service.Config.Server.Port)
	logger.Debug.Println("Requiring headers:")
	for _, h := range service.Config.API.RequiredHeaders {
		logger.Debug.Printf("  %s: %s", h.Name, h.Value)
	}
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Heatline server failed: %v", err)
	}
}
