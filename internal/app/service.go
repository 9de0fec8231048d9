package app

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saltspray/heatline/internal/models"
	"github.com/saltspray/heatline/internal/scoring"
	"github.com/saltspray/heatline/internal/settlement"
	"github.com/saltspray/heatline/internal/store"
)

type Service struct {
	Config     *Config
	Store      store.HeatStore
	Auth       *Auth
	Aggregator *scoring.Aggregator
	Engine     *settlement.Engine
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	aggregator := scoring.NewAggregator(config.Scoring.BestWaves)

	return &Service{
		Config:     config,
		Store:      store,
		Auth:       auth,
		Aggregator: aggregator,
		Engine:     settlement.NewEngine(store, aggregator),
	}, nil
}

// HeatDetail is the operator's view of one heat: membership and the raw
// score ledger alongside the heat row itself.
type HeatDetail struct {
	models.Heat
	Assignments []models.HeatAssignment `json:"assignments"`
	Scores      []models.WaveScore      `json:"scores"`
}

// SubmitWaveScore appends one judged wave to the ledger. Scores are
// never edited afterwards; a correction is just another submission.
func (s *Service) SubmitWaveScore(heatID, surferID string, score decimal.Decimal) (*models.WaveScore, error) {
	ws := &models.WaveScore{
		HeatID:      heatID,
		SurferID:    surferID,
		Score:       score,
		SubmittedAt: time.Now().UTC().Unix(),
	}
	if err := ws.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.Store.GetHeat(heatID); err != nil {
		return nil, err
	}
	if _, err := s.Store.GetSurfer(surferID); err != nil {
		return nil, err
	}

	if err := s.Store.CreateWaveScore(ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// FinalizeHeat runs settlement for a live heat.
func (s *Service) FinalizeHeat(heatID string) (*settlement.Result, error) {
	return s.Engine.FinalizeHeat(heatID)
}

// StartHeat flips UPCOMING -> LIVE and marks the assigned surfers as in
// the water. Surfer flips are best-effort: a heat can go live even if a
// status write trails behind.
func (s *Service) StartHeat(heatID string) (*models.Heat, error) {
	heat, err := s.Store.GetHeat(heatID)
	if err != nil {
		return nil, err
	}
	if err := heat.Status.Transition(models.HeatLive); err != nil {
		return nil, err
	}

	swapped, err := s.Store.SwapHeatStatus(heatID, models.HeatUpcoming, models.HeatLive)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, fmt.Errorf("%w: heat %s -> %s", models.ErrInvalidTransition, heat.Status, models.HeatLive)
	}
	heat.Status = models.HeatLive

	assignments, err := s.Store.ListHeatAssignments(heatID)
	if err != nil {
		return heat, nil
	}
	for _, a := range assignments {
		surfer, err := s.Store.GetSurfer(a.SurferID)
		if err != nil {
			continue
		}
		if surfer.Status.CanTransition(models.SurferInWater) {
			_ = s.Store.SetSurferStatus(a.SurferID, models.SurferInWater)
		}
	}

	return heat, nil
}

// EndHeat closes a live heat without settling it. Points are only ever
// distributed by FinalizeHeat; a heat ended this way stays unpaid.
func (s *Service) EndHeat(heatID string) (*models.Heat, error) {
	heat, err := s.Store.GetHeat(heatID)
	if err != nil {
		return nil, err
	}
	if err := heat.Status.Transition(models.HeatCompleted); err != nil {
		return nil, err
	}

	swapped, err := s.Store.SwapHeatStatus(heatID, models.HeatLive, models.HeatCompleted)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, fmt.Errorf("%w: heat %s -> %s", models.ErrInvalidTransition, heat.Status, models.HeatCompleted)
	}
	heat.Status = models.HeatCompleted
	return heat, nil
}

// UpdateSurferStatus is a direct operator state set, validated against
// the transition table. Elimination is a judgment call made by a human;
// nothing here infers it from heat totals.
func (s *Service) UpdateSurferStatus(surferID string, status models.SurferStatus) (*models.Surfer, error) {
	surfer, err := s.Store.GetSurfer(surferID)
	if err != nil {
		return nil, err
	}
	if err := surfer.Status.Transition(status); err != nil {
		return nil, err
	}
	if err := s.Store.SetSurferStatus(surferID, status); err != nil {
		return nil, err
	}
	surfer.Status = status
	return surfer, nil
}

func (s *Service) EliminateSurfer(surferID string) (*models.Surfer, error) {
	return s.UpdateSurferStatus(surferID, models.SurferEliminated)
}

// AdvanceSurfer sends a surfer back to Waiting for the next round.
func (s *Service) AdvanceSurfer(surferID string) (*models.Surfer, error) {
	return s.UpdateSurferStatus(surferID, models.SurferWaiting)
}

func (s *Service) CreateEvent(ev *models.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	return s.Store.CreateEvent(ev)
}

func (s *Service) UpdateEventStatus(eventID string, status models.HeatStatus) (*models.Event, error) {
	ev, err := s.Store.GetEvent(eventID)
	if err != nil {
		return nil, err
	}
	if err := ev.Status.Transition(status); err != nil {
		return nil, err
	}
	if err := s.Store.SetEventStatus(eventID, status); err != nil {
		return nil, err
	}
	ev.Status = status
	return ev, nil
}

func (s *Service) CreateHeat(h *models.Heat) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if _, err := s.Store.GetEvent(h.EventID); err != nil {
		return err
	}
	return s.Store.CreateHeat(h)
}

// ListHeatDetails returns an event's heats with their draw and score
// ledger, the shape the operator dashboard renders.
func (s *Service) ListHeatDetails(eventID string) ([]HeatDetail, error) {
	heats, err := s.Store.ListHeats(eventID)
	if err != nil {
		return nil, err
	}

	details := make([]HeatDetail, 0, len(heats))
	for _, h := range heats {
		assignments, err := s.Store.ListHeatAssignments(h.ID)
		if err != nil {
			return nil, err
		}
		scores, err := s.Store.ListWaveScores(h.ID)
		if err != nil {
			return nil, err
		}
		details = append(details, HeatDetail{
			Heat:        h,
			Assignments: assignments,
			Scores:      scores,
		})
	}
	return details, nil
}

// GetHeatDetail returns one heat with its draw and score ledger.
func (s *Service) GetHeatDetail(heatID string) (*HeatDetail, error) {
	heat, err := s.Store.GetHeat(heatID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.Store.ListHeatAssignments(heatID)
	if err != nil {
		return nil, err
	}
	scores, err := s.Store.ListWaveScores(heatID)
	if err != nil {
		return nil, err
	}
	return &HeatDetail{
		Heat:        *heat,
		Assignments: assignments,
		Scores:      scores,
	}, nil
}

// AssignSurfer puts a surfer into a heat's draw. Assigning the same
// surfer twice reports created=false and stores nothing new, so bulk
// imports can replay safely.
func (s *Service) AssignSurfer(heatID, surferID string) (bool, error) {
	if _, err := s.Store.GetHeat(heatID); err != nil {
		return false, err
	}
	if _, err := s.Store.GetSurfer(surferID); err != nil {
		return false, err
	}
	return s.Store.CreateHeatAssignment(heatID, surferID)
}

// UnassignSurfer removes a surfer from a heat's draw. Completed heats
// are history and their draw is immutable.
func (s *Service) UnassignSurfer(heatID, surferID string) error {
	heat, err := s.Store.GetHeat(heatID)
	if err != nil {
		return err
	}
	if heat.Status == models.HeatCompleted {
		return fmt.Errorf("%w: cannot change the draw of a completed heat", models.ErrInvalidTransition)
	}
	return s.Store.DeleteHeatAssignment(heatID, surferID)
}

func (s *Service) CreateSurfer(surfer *models.Surfer) error {
	if surfer.Status == "" {
		surfer.Status = models.SurferWaiting
	}
	if err := surfer.Validate(); err != nil {
		return err
	}
	return s.Store.CreateSurfer(surfer)
}

// DraftPick records an owner drafting a surfer. Points start at zero
// and only settlement moves them.
func (s *Service) DraftPick(ownerID, surferID string) (*models.RosterEntry, error) {
	entry := &models.RosterEntry{
		OwnerID:  ownerID,
		SurferID: surferID,
		Points:   decimal.Zero,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Store.GetSurfer(surferID); err != nil {
		return nil, err
	}
	if err := s.Store.CreateRosterEntry(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) Leaderboard(limit int) ([]models.OwnerTotal, error) {
	if limit <= 0 {
		limit = s.Config.Leaderboard.DefaultLimit
	}
	return s.Store.FetchLeaderboard(limit)
}

func (s *Service) ValidateAuthAndOperator(r *http.Request, operator string) error {
	if !s.Config.Server.EnableAuth {
		return nil
	}

	authHeader := r.Header.Get(s.Auth.tokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return fmt.Errorf("Invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	return s.Auth.ValidateToken(r.Context(), operator, token)
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
