// internal/store/sqlite/store_test.go
package sqlite

import (
	"log"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltspray/heatline/internal/models"
)

// setupTestDB creates an in-memory SQLite database with the translated
// production schema applied.
func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	s, err := NewSQLiteStore(":memory:", "../../../migrations")
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		err := s.Close()
		require.NoError(t, err, "Failed to close database")
	}

	return s, cleanup
}

type testData struct {
	store *SQLiteStore
	event *models.Event
	heat  *models.Heat
	now   time.Time
}

func setupTestData(t *testing.T) (*testData, func()) {
	s, cleanup := setupTestDB(t)

	event := &models.Event{
		Name: "Pipeline Masters",
		Slug: "pipeline-masters",
	}
	require.NoError(t, s.CreateEvent(event), "Failed to insert test event")

	heat := &models.Heat{
		EventID:     event.ID,
		RoundNumber: 1,
		HeatNumber:  3,
	}
	require.NoError(t, s.CreateHeat(heat), "Failed to insert test heat")

	return &testData{
		store: s,
		event: event,
		heat:  heat,
		now:   time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
	}, cleanup
}

func (td *testData) createSurfer(t *testing.T, name string) *models.Surfer {
	surfer := &models.Surfer{
		Name:    name,
		Country: "BRA",
		Stance:  "Regular",
		Tier:    "A",
		Value:   decimal.RequireFromString("9.50"),
	}
	require.NoError(t, td.store.CreateSurfer(surfer), "Failed to insert test surfer")
	return surfer
}

func TestMain(m *testing.M) {
	log.Println("Starting SQLite store tests...")
	code := m.Run()
	log.Println("Finished SQLite store tests")
	os.Exit(code)
}

func TestEventAndHeatLookups(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	t.Run("get event", func(t *testing.T) {
		got, err := td.store.GetEvent(td.event.ID)
		require.NoError(t, err)
		assert.Equal(t, "pipeline-masters", got.Slug)
		assert.Equal(t, models.HeatUpcoming, got.Status)
	})

	t.Run("get heat", func(t *testing.T) {
		got, err := td.store.GetHeat(td.heat.ID)
		require.NoError(t, err)
		assert.Equal(t, td.event.ID, got.EventID)
		assert.Equal(t, models.HeatUpcoming, got.Status)
	})

	t.Run("get missing heat", func(t *testing.T) {
		_, err := td.store.GetHeat("no-such-heat")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("list heats ordered by round and number", func(t *testing.T) {
		earlier := &models.Heat{EventID: td.event.ID, RoundNumber: 1, HeatNumber: 1}
		require.NoError(t, td.store.CreateHeat(earlier))

		heats, err := td.store.ListHeats(td.event.ID)
		require.NoError(t, err)
		require.Len(t, heats, 2)
		assert.Equal(t, 1, heats[0].HeatNumber)
		assert.Equal(t, 3, heats[1].HeatNumber)
	})
}

func TestSwapHeatStatus(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	t.Run("upcoming to live flips once", func(t *testing.T) {
		swapped, err := td.store.SwapHeatStatus(td.heat.ID, models.HeatUpcoming, models.HeatLive)
		require.NoError(t, err)
		assert.True(t, swapped)

		swapped, err = td.store.SwapHeatStatus(td.heat.ID, models.HeatUpcoming, models.HeatLive)
		require.NoError(t, err)
		assert.False(t, swapped, "second swap must lose the race")
	})

	t.Run("live to completed flips once", func(t *testing.T) {
		swapped, err := td.store.SwapHeatStatus(td.heat.ID, models.HeatLive, models.HeatCompleted)
		require.NoError(t, err)
		assert.True(t, swapped)

		swapped, err = td.store.SwapHeatStatus(td.heat.ID, models.HeatLive, models.HeatCompleted)
		require.NoError(t, err)
		assert.False(t, swapped)

		got, err := td.store.GetHeat(td.heat.ID)
		require.NoError(t, err)
		assert.Equal(t, models.HeatCompleted, got.Status)
	})
}

func TestHeatAssignments(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	surfer := td.createSurfer(t, "Gabriel Medina")

	t.Run("assignment is idempotent", func(t *testing.T) {
		created, err := td.store.CreateHeatAssignment(td.heat.ID, surfer.ID)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = td.store.CreateHeatAssignment(td.heat.ID, surfer.ID)
		require.NoError(t, err)
		assert.False(t, created, "duplicate assignment must be a no-op")

		assignments, err := td.store.ListHeatAssignments(td.heat.ID)
		require.NoError(t, err)
		assert.Len(t, assignments, 1)
	})

	t.Run("heat total starts null and records once set", func(t *testing.T) {
		assignments, err := td.store.ListHeatAssignments(td.heat.ID)
		require.NoError(t, err)
		require.Len(t, assignments, 1)
		assert.False(t, assignments[0].HeatTotal.Valid, "unsettled assignment has no total")

		total := decimal.RequireFromString("14.33")
		require.NoError(t, td.store.SetHeatTotal(td.heat.ID, surfer.ID, total))

		assignments, err = td.store.ListHeatAssignments(td.heat.ID)
		require.NoError(t, err)
		require.True(t, assignments[0].HeatTotal.Valid)
		assert.True(t, total.Equal(assignments[0].HeatTotal.Decimal))
	})

	t.Run("set total for missing assignment", func(t *testing.T) {
		err := td.store.SetHeatTotal(td.heat.ID, "no-such-surfer", decimal.Zero)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("delete assignment", func(t *testing.T) {
		require.NoError(t, td.store.DeleteHeatAssignment(td.heat.ID, surfer.ID))

		err := td.store.DeleteHeatAssignment(td.heat.ID, surfer.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestWaveScoreLedger(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	surfer := td.createSurfer(t, "Filipe Toledo")

	raw := []string{"6.50", "7.83", "5.00"}
	for i, score := range raw {
		ws := &models.WaveScore{
			HeatID:      td.heat.ID,
			SurferID:    surfer.ID,
			Score:       decimal.RequireFromString(score),
			SubmittedAt: td.now.Add(time.Duration(i) * time.Minute).Unix(),
		}
		require.NoError(t, td.store.CreateWaveScore(ws), "Failed to insert wave score")
	}

	scores, err := td.store.ListWaveScores(td.heat.ID)
	require.NoError(t, err)
	require.Len(t, scores, 3)
	for i, want := range raw {
		assert.True(t, decimal.RequireFromString(want).Equal(scores[i].Score),
			"scores must come back in submission order")
	}
}

func TestSurferStatus(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	surfer := td.createSurfer(t, "Caroline Marks")

	t.Run("new surfer waits", func(t *testing.T) {
		got, err := td.store.GetSurfer(surfer.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SurferWaiting, got.Status)
	})

	t.Run("status update sticks", func(t *testing.T) {
		require.NoError(t, td.store.SetSurferStatus(surfer.ID, models.SurferEliminated))

		got, err := td.store.GetSurfer(surfer.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SurferEliminated, got.Status)
	})

	t.Run("missing surfer", func(t *testing.T) {
		err := td.store.SetSurferStatus("no-such-surfer", models.SurferWaiting)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestRosterPayouts(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	surfer := td.createSurfer(t, "John John Florence")

	entry := &models.RosterEntry{
		OwnerID:  "fan.alice",
		SurferID: surfer.ID,
		Points:   decimal.RequireFromString("100.00"),
	}
	require.NoError(t, td.store.CreateRosterEntry(entry))

	t.Run("draft pick seeds the leaderboard row", func(t *testing.T) {
		total, err := td.store.GetOwnerTotal("fan.alice")
		require.NoError(t, err)
		assert.True(t, total.Total.IsZero())
	})

	t.Run("increments accumulate", func(t *testing.T) {
		payout := decimal.RequireFromString("14.50")
		require.NoError(t, td.store.AddRosterPoints(entry.ID, payout))
		require.NoError(t, td.store.AddRosterPoints(entry.ID, payout))
		require.NoError(t, td.store.IncrementOwnerTotal("fan.alice", payout))
		require.NoError(t, td.store.IncrementOwnerTotal("fan.alice", payout))

		entries, err := td.store.ListRosterEntriesByOwner("fan.alice")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, decimal.RequireFromString("129.00").Equal(entries[0].Points))

		total, err := td.store.GetOwnerTotal("fan.alice")
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("29.00").Equal(total.Total))
	})

	t.Run("increment for missing owner", func(t *testing.T) {
		err := td.store.IncrementOwnerTotal("no.such.fan", decimal.New(1, 0))
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("lookup by surfer", func(t *testing.T) {
		entries, err := td.store.ListRosterEntriesBySurfer(surfer.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "fan.alice", entries[0].OwnerID)
	})
}

func TestFetchLeaderboard(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	surfer := td.createSurfer(t, "Italo Ferreira")

	owners := map[string]string{
		"fan.alice": "64.50",
		"fan.bob":   "114.50",
		"fan.carol": "12.00",
	}
	for owner, total := range owners {
		entry := &models.RosterEntry{OwnerID: owner, SurferID: surfer.ID}
		require.NoError(t, td.store.CreateRosterEntry(entry))
		require.NoError(t, td.store.IncrementOwnerTotal(owner, decimal.RequireFromString(total)))
	}

	t.Run("ordered by total descending", func(t *testing.T) {
		rows, err := td.store.FetchLeaderboard(10)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "fan.bob", rows[0].OwnerID)
		assert.Equal(t, "fan.alice", rows[1].OwnerID)
		assert.Equal(t, "fan.carol", rows[2].OwnerID)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		rows, err := td.store.FetchLeaderboard(2)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "fan.bob", rows[0].OwnerID)
	})
}
