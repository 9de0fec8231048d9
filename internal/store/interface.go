package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/saltspray/heatline/internal/models"
)

// HeatStore is the persistence boundary for the settlement engine and
// the operator commands. Implementations exist for postgres and sqlite.
type HeatStore interface {
	Close() error
	ApplyMigrations(dir string) error

	CreateEvent(ev *models.Event) error
	GetEvent(eventID string) (*models.Event, error)
	ListEvents() ([]models.Event, error)
	SetEventStatus(eventID string, status models.HeatStatus) error

	CreateHeat(h *models.Heat) error
	GetHeat(heatID string) (*models.Heat, error)
	ListHeats(eventID string) ([]models.Heat, error)
	// SwapHeatStatus is a compare-and-swap on heat status. It reports
	// whether the row actually flipped; false with a nil error means the
	// heat was not in `from` (never started, already settled, or another
	// operator won the race).
	SwapHeatStatus(heatID string, from, to models.HeatStatus) (bool, error)

	// CreateHeatAssignment reports created=false when the (heat, surfer)
	// pair already exists; the duplicate is a benign no-op so bulk
	// imports can re-run.
	CreateHeatAssignment(heatID, surferID string) (bool, error)
	DeleteHeatAssignment(heatID, surferID string) error
	ListHeatAssignments(heatID string) ([]models.HeatAssignment, error)
	SetHeatTotal(heatID, surferID string, total decimal.Decimal) error

	CreateWaveScore(ws *models.WaveScore) error
	ListWaveScores(heatID string) ([]models.WaveScore, error)

	CreateSurfer(surfer *models.Surfer) error
	GetSurfer(surferID string) (*models.Surfer, error)
	ListSurfers() ([]models.Surfer, error)
	SetSurferStatus(surferID string, status models.SurferStatus) error

	CreateRosterEntry(entry *models.RosterEntry) error
	ListRosterEntriesBySurfer(surferID string) ([]models.RosterEntry, error)
	ListRosterEntriesByOwner(ownerID string) ([]models.RosterEntry, error)
	// AddRosterPoints and IncrementOwnerTotal are single-statement
	// `x = x + ?` updates so concurrent settlements of different heats
	// sharing an owner cannot lose increments.
	AddRosterPoints(entryID string, amount decimal.Decimal) error
	IncrementOwnerTotal(ownerID string, amount decimal.Decimal) error
	GetOwnerTotal(ownerID string) (*models.OwnerTotal, error)
	FetchLeaderboard(limit int) ([]models.OwnerTotal, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) CreateEvent(ev *models.Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Status == "" {
		ev.Status = models.HeatUpcoming
	}
	_, err := s.DB.NamedExec(`
		INSERT INTO events (id, name, slug, status, start_date, end_date)
		VALUES (:id, :name, :slug, :status, :start_date, :end_date)
	`, ev)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (s *BaseStore) GetEvent(eventID string) (*models.Event, error) {
	var ev models.Event
	query := s.Converter(`
		SELECT id, name, slug, status, start_date, end_date
		FROM events
		WHERE id = ?
	`)

	err := s.DB.Get(&ev, query, eventID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("event %s: %w", eventID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &ev, nil
}

func (s *BaseStore) ListEvents() ([]models.Event, error) {
	var events []models.Event
	err := s.DB.Select(&events, `
		SELECT id, name, slug, status, start_date, end_date
		FROM events
		ORDER BY start_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (s *BaseStore) SetEventStatus(eventID string, status models.HeatStatus) error {
	query := s.Converter(`UPDATE events SET status = ? WHERE id = ?`)
	res, err := s.DB.Exec(query, status, eventID)
	if err != nil {
		return fmt.Errorf("failed to set event status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("event %s: %w", eventID, models.ErrNotFound)
	}
	return nil
}

func (s *BaseStore) CreateHeat(h *models.Heat) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.Status == "" {
		h.Status = models.HeatUpcoming
	}
	_, err := s.DB.NamedExec(`
		INSERT INTO heats (id, event_id, round_number, heat_number, status)
		VALUES (:id, :event_id, :round_number, :heat_number, :status)
	`, h)
	if err != nil {
		return fmt.Errorf("failed to create heat: %w", err)
	}
	return nil
}

func (s *BaseStore) GetHeat(heatID string) (*models.Heat, error) {
	var h models.Heat
	query := s.Converter(`
		SELECT id, event_id, round_number, heat_number, status
		FROM heats
		WHERE id = ?
	`)

	err := s.DB.Get(&h, query, heatID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("heat %s: %w", heatID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get heat: %w", err)
	}
	return &h, nil
}

func (s *BaseStore) ListHeats(eventID string) ([]models.Heat, error) {
	var heats []models.Heat
	query := s.Converter(`
		SELECT id, event_id, round_number, heat_number, status
		FROM heats
		WHERE event_id = ?
		ORDER BY round_number, heat_number ASC
	`)

	err := s.DB.Select(&heats, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list heats: %w", err)
	}
	return heats, nil
}

func (s *BaseStore) SwapHeatStatus(heatID string, from, to models.HeatStatus) (bool, error) {
	query := s.Converter(`UPDATE heats SET status = ? WHERE id = ? AND status = ?`)
	res, err := s.DB.Exec(query, to, heatID, from)
	if err != nil {
		return false, fmt.Errorf("failed to swap heat status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check heat status swap: %w", err)
	}
	return n == 1, nil
}

func (s *BaseStore) CreateHeatAssignment(heatID, surferID string) (bool, error) {
	query := s.Converter(`
		INSERT INTO heat_assignments (heat_id, surfer_id)
		VALUES (?, ?)
		ON CONFLICT (heat_id, surfer_id) DO NOTHING
	`)
	res, err := s.DB.Exec(query, heatID, surferID)
	if err != nil {
		return false, fmt.Errorf("failed to create heat assignment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check heat assignment insert: %w", err)
	}
	return n == 1, nil
}

func (s *BaseStore) DeleteHeatAssignment(heatID, surferID string) error {
	query := s.Converter(`
		DELETE FROM heat_assignments
		WHERE heat_id = ? AND surfer_id = ?
	`)
	res, err := s.DB.Exec(query, heatID, surferID)
	if err != nil {
		return fmt.Errorf("failed to delete heat assignment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("assignment %s/%s: %w", heatID, surferID, models.ErrNotFound)
	}
	return nil
}

func (s *BaseStore) ListHeatAssignments(heatID string) ([]models.HeatAssignment, error) {
	var assignments []models.HeatAssignment
	query := s.Converter(`
		SELECT heat_id, surfer_id, heat_total
		FROM heat_assignments
		WHERE heat_id = ?
		ORDER BY surfer_id ASC
	`)

	err := s.DB.Select(&assignments, query, heatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list heat assignments: %w", err)
	}
	return assignments, nil
}

func (s *BaseStore) SetHeatTotal(heatID, surferID string, total decimal.Decimal) error {
	query := s.Converter(`
		UPDATE heat_assignments
		SET heat_total = ?
		WHERE heat_id = ? AND surfer_id = ?
	`)
	res, err := s.DB.Exec(query, total, heatID, surferID)
	if err != nil {
		return fmt.Errorf("failed to set heat total: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("assignment %s/%s: %w", heatID, surferID, models.ErrNotFound)
	}
	return nil
}

func (s *BaseStore) CreateWaveScore(ws *models.WaveScore) error {
	if ws.ID == "" {
		ws.ID = uuid.NewString()
	}
	_, err := s.DB.NamedExec(`
		INSERT INTO wave_scores (id, heat_id, surfer_id, score, submitted_at)
		VALUES (:id, :heat_id, :surfer_id, :score, :submitted_at)
	`, ws)
	if err != nil {
		return fmt.Errorf("failed to create wave score: %w", err)
	}
	return nil
}

func (s *BaseStore) ListWaveScores(heatID string) ([]models.WaveScore, error) {
	var scores []models.WaveScore
	query := s.Converter(`
		SELECT id, heat_id, surfer_id, score, submitted_at
		FROM wave_scores
		WHERE heat_id = ?
		ORDER BY submitted_at ASC
	`)

	err := s.DB.Select(&scores, query, heatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wave scores: %w", err)
	}
	return scores, nil
}

func (s *BaseStore) CreateSurfer(surfer *models.Surfer) error {
	if surfer.ID == "" {
		surfer.ID = uuid.NewString()
	}
	if surfer.Status == "" {
		surfer.Status = models.SurferWaiting
	}
	_, err := s.DB.NamedExec(`
		INSERT INTO surfers (id, name, country, stance, tier, value, status)
		VALUES (:id, :name, :country, :stance, :tier, :value, :status)
	`, surfer)
	if err != nil {
		return fmt.Errorf("failed to create surfer: %w", err)
	}
	return nil
}

func (s *BaseStore) GetSurfer(surferID string) (*models.Surfer, error) {
	var surfer models.Surfer
	query := s.Converter(`
		SELECT id, name, country, stance, tier, value, status
		FROM surfers
		WHERE id = ?
	`)

	err := s.DB.Get(&surfer, query, surferID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("surfer %s: %w", surferID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get surfer: %w", err)
	}
	return &surfer, nil
}

func (s *BaseStore) ListSurfers() ([]models.Surfer, error) {
	var surfers []models.Surfer
	err := s.DB.Select(&surfers, `
		SELECT id, name, country, stance, tier, value, status
		FROM surfers
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list surfers: %w", err)
	}
	return surfers, nil
}

func (s *BaseStore) SetSurferStatus(surferID string, status models.SurferStatus) error {
	query := s.Converter(`UPDATE surfers SET status = ? WHERE id = ?`)
	res, err := s.DB.Exec(query, status, surferID)
	if err != nil {
		return fmt.Errorf("failed to set surfer status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("surfer %s: %w", surferID, models.ErrNotFound)
	}
	return nil
}

func (s *BaseStore) CreateRosterEntry(entry *models.RosterEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := s.DB.NamedExec(`
		INSERT INTO roster_entries (id, owner_id, surfer_id, points)
		VALUES (:id, :owner_id, :surfer_id, :points)
	`, entry)
	if err != nil {
		return fmt.Errorf("failed to create roster entry: %w", err)
	}

	// Ensure the denormalized leaderboard row exists up front so
	// settlement increments never miss it.
	query := s.Converter(`
		INSERT INTO owner_totals (owner_id, total)
		VALUES (?, 0)
		ON CONFLICT (owner_id) DO NOTHING
	`)
	if _, err := s.DB.Exec(query, entry.OwnerID); err != nil {
		return fmt.Errorf("failed to ensure owner total: %w", err)
	}
	return nil
}

func (s *BaseStore) ListRosterEntriesBySurfer(surferID string) ([]models.RosterEntry, error) {
	var entries []models.RosterEntry
	query := s.Converter(`
		SELECT id, owner_id, surfer_id, points
		FROM roster_entries
		WHERE surfer_id = ?
		ORDER BY owner_id ASC
	`)

	err := s.DB.Select(&entries, query, surferID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster entries by surfer: %w", err)
	}
	return entries, nil
}

func (s *BaseStore) ListRosterEntriesByOwner(ownerID string) ([]models.RosterEntry, error) {
	var entries []models.RosterEntry
	query := s.Converter(`
		SELECT id, owner_id, surfer_id, points
		FROM roster_entries
		WHERE owner_id = ?
		ORDER BY surfer_id ASC
	`)

	err := s.DB.Select(&entries, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster entries by owner: %w", err)
	}
	return entries, nil
}

func (s *BaseStore) AddRosterPoints(entryID string, amount decimal.Decimal) error {
	query := s.Converter(`
		UPDATE roster_entries
		SET points = points + ?
		WHERE id = ?
	`)
	res, err := s.DB.Exec(query, amount, entryID)
	if err != nil {
		return fmt.Errorf("failed to add roster points: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("roster entry %s: %w", entryID, models.ErrNotFound)
	}
	return nil
}

func (s *BaseStore) IncrementOwnerTotal(ownerID string, amount decimal.Decimal) error {
	query := s.Converter(`
		UPDATE owner_totals
		SET total = total + ?
		WHERE owner_id = ?
	`)
	res, err := s.DB.Exec(query, amount, ownerID)
	if err != nil {
		return fmt.Errorf("failed to increment owner total: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("owner %s: %w", ownerID, models.ErrNotFound)
	}
	return nil
}

func (s *BaseStore) GetOwnerTotal(ownerID string) (*models.OwnerTotal, error) {
	var total models.OwnerTotal
	query := s.Converter(`
		SELECT owner_id, total
		FROM owner_totals
		WHERE owner_id = ?
	`)

	err := s.DB.Get(&total, query, ownerID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("owner %s: %w", ownerID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get owner total: %w", err)
	}
	return &total, nil
}

func (s *BaseStore) FetchLeaderboard(limit int) ([]models.OwnerTotal, error) {
	var rows []models.OwnerTotal
	query := s.Converter(`
		SELECT owner_id, total
		FROM owner_totals
		ORDER BY total DESC, owner_id ASC
		LIMIT ?
	`)

	err := s.DB.Select(&rows, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	return rows, nil
}
