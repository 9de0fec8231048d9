package settlement

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saltspray/heatline/internal/models"
	"github.com/saltspray/heatline/internal/scoring"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Close() error {
	return nil
}

func (m *MockStore) ApplyMigrations(dir string) error {
	return nil
}

func (m *MockStore) CreateEvent(ev *models.Event) error {
	return nil
}

func (m *MockStore) GetEvent(eventID string) (*models.Event, error) {
	return nil, nil
}

func (m *MockStore) ListEvents() ([]models.Event, error) {
	return nil, nil
}

func (m *MockStore) SetEventStatus(eventID string, status models.HeatStatus) error {
	return nil
}

func (m *MockStore) CreateHeat(h *models.Heat) error {
	return nil
}

func (m *MockStore) GetHeat(heatID string) (*models.Heat, error) {
	args := m.Called(heatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Heat), args.Error(1)
}

func (m *MockStore) ListHeats(eventID string) ([]models.Heat, error) {
	return nil, nil
}

func (m *MockStore) SwapHeatStatus(heatID string, from, to models.HeatStatus) (bool, error) {
	args := m.Called(heatID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) CreateHeatAssignment(heatID, surferID string) (bool, error) {
	return false, nil
}

func (m *MockStore) DeleteHeatAssignment(heatID, surferID string) error {
	return nil
}

func (m *MockStore) ListHeatAssignments(heatID string) ([]models.HeatAssignment, error) {
	args := m.Called(heatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HeatAssignment), args.Error(1)
}

func (m *MockStore) SetHeatTotal(heatID, surferID string, total decimal.Decimal) error {
	args := m.Called(heatID, surferID, total)
	return args.Error(0)
}

func (m *MockStore) CreateWaveScore(ws *models.WaveScore) error {
	return nil
}

func (m *MockStore) ListWaveScores(heatID string) ([]models.WaveScore, error) {
	args := m.Called(heatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WaveScore), args.Error(1)
}

func (m *MockStore) CreateSurfer(surfer *models.Surfer) error {
	return nil
}

func (m *MockStore) GetSurfer(surferID string) (*models.Surfer, error) {
	return nil, nil
}

func (m *MockStore) ListSurfers() ([]models.Surfer, error) {
	return nil, nil
}

func (m *MockStore) SetSurferStatus(surferID string, status models.SurferStatus) error {
	return nil
}

func (m *MockStore) CreateRosterEntry(entry *models.RosterEntry) error {
	return nil
}

func (m *MockStore) ListRosterEntriesBySurfer(surferID string) ([]models.RosterEntry, error) {
	args := m.Called(surferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RosterEntry), args.Error(1)
}

func (m *MockStore) ListRosterEntriesByOwner(ownerID string) ([]models.RosterEntry, error) {
	return nil, nil
}

func (m *MockStore) AddRosterPoints(entryID string, amount decimal.Decimal) error {
	args := m.Called(entryID, amount)
	return args.Error(0)
}

func (m *MockStore) IncrementOwnerTotal(ownerID string, amount decimal.Decimal) error {
	args := m.Called(ownerID, amount)
	return args.Error(0)
}

func (m *MockStore) GetOwnerTotal(ownerID string) (*models.OwnerTotal, error) {
	return nil, nil
}

func (m *MockStore) FetchLeaderboard(limit int) ([]models.OwnerTotal, error) {
	return nil, nil
}

// decEq matches a decimal argument by numeric value rather than
// internal representation.
func decEq(s string) interface{} {
	want := decimal.RequireFromString(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return want.Equal(d)
	})
}

func liveHeat(heatID string) *models.Heat {
	return &models.Heat{
		ID:          heatID,
		EventID:     "evt-1",
		RoundNumber: 2,
		HeatNumber:  1,
		Status:      models.HeatLive,
	}
}

func waves(heatID, surferID string, scores ...string) []models.WaveScore {
	var out []models.WaveScore
	for i, s := range scores {
		out = append(out, models.WaveScore{
			HeatID:      heatID,
			SurferID:    surferID,
			Score:       decimal.RequireFromString(s),
			SubmittedAt: int64(1700000000 + i),
		})
	}
	return out
}

func TestFinalizeHeat_PaysEveryHolder(t *testing.T) {
	store := new(MockStore)
	engine := NewEngine(store, scoring.NewAggregator(2))

	store.On("GetHeat", "h1").Return(liveHeat("h1"), nil)
	store.On("ListHeatAssignments", "h1").Return([]models.HeatAssignment{
		{HeatID: "h1", SurferID: "s1"},
	}, nil)
	store.On("SwapHeatStatus", "h1", models.HeatLive, models.HeatCompleted).Return(true, nil)
	store.On("ListWaveScores", "h1").Return(waves("h1", "s1", "5.00", "8.00", "6.50"), nil)

	// Best two of [5.0, 8.0, 6.5] is 14.50, paid to both holders.
	store.On("SetHeatTotal", "h1", "s1", decEq("14.50")).Return(nil)
	store.On("ListRosterEntriesBySurfer", "s1").Return([]models.RosterEntry{
		{ID: "r-alice", OwnerID: "fan.alice", SurferID: "s1"},
		{ID: "r-bob", OwnerID: "fan.bob", SurferID: "s1"},
	}, nil)
	store.On("AddRosterPoints", "r-alice", decEq("14.50")).Return(nil)
	store.On("AddRosterPoints", "r-bob", decEq("14.50")).Return(nil)
	store.On("IncrementOwnerTotal", "fan.alice", decEq("14.50")).Return(nil)
	store.On("IncrementOwnerTotal", "fan.bob", decEq("14.50")).Return(nil)

	result, err := engine.FinalizeHeat("h1")
	require.NoError(t, err)
	assert.True(t, result.FullySettled())
	assert.Equal(t, 0, result.FailureCount())
	require.Len(t, result.Surfers, 1)
	assert.True(t, decimal.RequireFromString("14.50").Equal(result.Surfers[0].HeatTotal))
	assert.Len(t, result.Surfers[0].Payouts, 2)

	store.AssertExpectations(t)
}

func TestFinalizeHeat_ThreeOwnerFanOut(t *testing.T) {
	store := new(MockStore)
	engine := NewEngine(store, scoring.NewAggregator(2))

	store.On("GetHeat", "h1").Return(liveHeat("h1"), nil)
	store.On("ListHeatAssignments", "h1").Return([]models.HeatAssignment{
		{HeatID: "h1", SurferID: "s1"},
	}, nil)
	store.On("SwapHeatStatus", "h1", models.HeatLive, models.HeatCompleted).Return(true, nil)
	store.On("ListWaveScores", "h1").Return(waves("h1", "s1", "6.50", "7.83", "5.00"), nil)

	store.On("SetHeatTotal", "h1", "s1", decEq("14.33")).Return(nil)
	store.On("ListRosterEntriesBySurfer", "s1").Return([]models.RosterEntry{
		{ID: "r1", OwnerID: "fan.a", SurferID: "s1"},
		{ID: "r2", OwnerID: "fan.b", SurferID: "s1"},
		{ID: "r3", OwnerID: "fan.c", SurferID: "s1"},
	}, nil)
	for _, id := range []string{"r1", "r2", "r3"} {
		store.On("AddRosterPoints", id, decEq("14.33")).Return(nil)
	}
	for _, owner := range []string{"fan.a", "fan.b", "fan.c"} {
		store.On("IncrementOwnerTotal", owner, decEq("14.33")).Return(nil)
	}

	result, err := engine.FinalizeHeat("h1")
	require.NoError(t, err)
	assert.True(t, result.FullySettled())
	assert.Len(t, result.Surfers[0].Payouts, 3)

	store.AssertExpectations(t)
}

func TestFinalizeHeat_SurferWithoutWavesScoresZero(t *testing.T) {
	store := new(MockStore)
	engine := NewEngine(store, scoring.NewAggregator(2))

	store.On("GetHeat", "h1").Return(liveHeat("h1"), nil)
	store.On("ListHeatAssignments", "h1").Return([]models.HeatAssignment{
		{HeatID: "h1", SurferID: "s1"},
		{HeatID: "h1", SurferID: "s2"},
	}, nil)
	store.On("SwapHeatStatus", "h1", models.HeatLive, models.HeatCompleted).Return(true, nil)
	store.On("ListWaveScores", "h1").Return(waves("h1", "s1", "9.00"), nil)

	store.On("SetHeatTotal", "h1", "s1", decEq("9.00")).Return(nil)
	store.On("SetHeatTotal", "h1", "s2", decEq("0")).Return(nil)
	store.On("ListRosterEntriesBySurfer", "s1").Return([]models.RosterEntry{}, nil)
	store.On("ListRosterEntriesBySurfer", "s2").Return([]models.RosterEntry{}, nil)

	result, err := engine.FinalizeHeat("h1")
	require.NoError(t, err)
	assert.True(t, result.FullySettled())
	require.Len(t, result.Surfers, 2)

	store.AssertExpectations(t)
}

func TestFinalizeHeat_SecondRunLosesTheSwap(t *testing.T) {
	store := new(MockStore)
	engine := NewEngine(store, scoring.NewAggregator(2))

	heat := liveHeat("h1")
	heat.Status = models.HeatCompleted
	store.On("GetHeat", "h1").Return(heat, nil)
	store.On("ListHeatAssignments", "h1").Return([]models.HeatAssignment{
		{HeatID: "h1", SurferID: "s1"},
	}, nil)
	store.On("SwapHeatStatus", "h1", models.HeatLive, models.HeatCompleted).Return(false, nil)

	_, err := engine.FinalizeHeat("h1")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrHeatNotLive)

	// Nothing may be paid when the swap is lost.
	store.AssertNotCalled(t, "SetHeatTotal", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "AddRosterPoints", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "IncrementOwnerTotal", mock.Anything, mock.Anything)
}

func TestFinalizeHeat_NoAssignedSurfers(t *testing.T) {
	store := new(MockStore)
	engine := NewEngine(store, scoring.NewAggregator(2))

	store.On("GetHeat", "h1").Return(liveHeat("h1"), nil)
	store.On("ListHeatAssignments", "h1").Return([]models.HeatAssignment{}, nil)

	_, err := engine.FinalizeHeat("h1")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)

	store.AssertNotCalled(t, "SwapHeatStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalizeHeat_PartialFailureKeepsPaying(t *testing.T) {
	store := new(MockStore)
	engine := NewEngine(store, scoring.NewAggregator(2))

	store.On("GetHeat", "h1").Return(liveHeat("h1"), nil)
	store.On("ListHeatAssignments", "h1").Return([]models.HeatAssignment{
		{HeatID: "h1", SurferID: "s1"},
	}, nil)
	store.On("SwapHeatStatus", "h1", models.HeatLive, models.HeatCompleted).Return(true, nil)
	store.On("ListWaveScores", "h1").Return(waves("h1", "s1", "7.00", "7.00"), nil)

	store.On("SetHeatTotal", "h1", "s1", decEq("14.00")).Return(nil)
	store.On("ListRosterEntriesBySurfer", "s1").Return([]models.RosterEntry{
		{ID: "r-broken", OwnerID: "fan.a", SurferID: "s1"},
		{ID: "r-fine", OwnerID: "fan.b", SurferID: "s1"},
	}, nil)
	store.On("AddRosterPoints", "r-broken", decEq("14.00")).Return(errors.New("disk on fire"))
	store.On("AddRosterPoints", "r-fine", decEq("14.00")).Return(nil)
	store.On("IncrementOwnerTotal", "fan.b", decEq("14.00")).Return(nil)

	result, err := engine.FinalizeHeat("h1")
	require.NoError(t, err, "partial failure is reported in the result, not as an error")
	assert.False(t, result.FullySettled())
	assert.Equal(t, 1, result.FailureCount())

	payouts := result.Surfers[0].Payouts
	require.Len(t, payouts, 2)
	assert.False(t, payouts[0].OK())
	assert.Equal(t, StepRosterAdd, payouts[0].Step)
	assert.True(t, payouts[1].OK())

	// The broken entry's owner never gets the season-total bump.
	store.AssertNotCalled(t, "IncrementOwnerTotal", "fan.a", mock.Anything)
	store.AssertExpectations(t)
}

func TestFinalizeHeat_HeatTotalFailureSkipsPayouts(t *testing.T) {
	store := new(MockStore)
	engine := NewEngine(store, scoring.NewAggregator(2))

	store.On("GetHeat", "h1").Return(liveHeat("h1"), nil)
	store.On("ListHeatAssignments", "h1").Return([]models.HeatAssignment{
		{HeatID: "h1", SurferID: "s1"},
	}, nil)
	store.On("SwapHeatStatus", "h1", models.HeatLive, models.HeatCompleted).Return(true, nil)
	store.On("ListWaveScores", "h1").Return(waves("h1", "s1", "4.00", "3.00"), nil)
	store.On("SetHeatTotal", "h1", "s1", decEq("7.00")).Return(errors.New("disk on fire"))

	result, err := engine.FinalizeHeat("h1")
	require.NoError(t, err)
	assert.False(t, result.FullySettled())
	require.Len(t, result.Surfers, 1)
	assert.Equal(t, StepHeatTotal, result.Surfers[0].Step)

	// No payout without a durably written total.
	store.AssertNotCalled(t, "ListRosterEntriesBySurfer", mock.Anything)
	store.AssertNotCalled(t, "AddRosterPoints", mock.Anything, mock.Anything)
}
