// Package settlement closes out a finished heat: it aggregates every
// assigned surfer's waves, records heat totals, and pays the totals out
// to every fantasy roster holding those surfers.
package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/saltspray/heatline/internal/metrics"
	"github.com/saltspray/heatline/internal/models"
	"github.com/saltspray/heatline/internal/scoring"
	"github.com/saltspray/heatline/internal/store"
)

type Engine struct {
	store      store.HeatStore
	aggregator *scoring.Aggregator
}

func NewEngine(s store.HeatStore, aggregator *scoring.Aggregator) *Engine {
	return &Engine{
		store:      s,
		aggregator: aggregator,
	}
}

// FinalizeHeat settles a live heat. The LIVE->COMPLETED status swap runs
// first and doubles as the idempotency and concurrency guard: a second
// call, or a concurrent operator, fails the swap and pays nothing.
//
// Writes after the swap are not atomic as a group. A surfer's heat-total
// write happens before any of their payouts; each failed write is
// recorded in the Result and processing continues with the remaining
// independent paths.
func (e *Engine) FinalizeHeat(heatID string) (*Result, error) {
	heat, err := e.store.GetHeat(heatID)
	if err != nil {
		return nil, err
	}

	assignments, err := e.store.ListHeatAssignments(heatID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, fmt.Errorf("%w: heat %s has no assigned surfers", models.ErrValidation, heatID)
	}

	swapped, err := e.store.SwapHeatStatus(heatID, models.HeatLive, models.HeatCompleted)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, fmt.Errorf("%w: heat %s is %s", models.ErrHeatNotLive, heatID, heat.Status)
	}

	scores, err := e.store.ListWaveScores(heatID)
	if err != nil {
		// The guard already flipped the heat; surface the whole run as
		// failed so the operator knows nothing was paid.
		return nil, fmt.Errorf("heat %s marked completed but scores could not be read: %w", heatID, err)
	}

	totals := e.aggregator.SurferTotals(scores)

	result := &Result{HeatID: heatID}
	for _, assignment := range assignments {
		result.Surfers = append(result.Surfers, e.settleSurfer(heatID, assignment.SurferID, totals[assignment.SurferID]))
	}

	metrics.SettlementsTotal.WithLabelValues(outcomeLabel(result)).Inc()
	if !result.FullySettled() {
		logger.Error.Printf("Heat %s settled with %d failed writes", heatID, result.FailureCount())
	} else {
		logger.Info.Printf("Heat %s settled: %d surfers", heatID, len(result.Surfers))
	}

	return result, nil
}

func (e *Engine) settleSurfer(heatID, surferID string, total decimal.Decimal) SurferResult {
	res := SurferResult{
		SurferID:  surferID,
		HeatTotal: total,
		Payouts:   []PayoutResult{},
	}

	// Heat total is recorded before any payout so points are never
	// distributed for a total that was not durably written.
	if err := e.store.SetHeatTotal(heatID, surferID, total); err != nil {
		res.Step = StepHeatTotal
		res.Error = err.Error()
		metrics.PayoutFailures.WithLabelValues(StepHeatTotal).Inc()
		return res
	}
	metrics.HeatTotals.Observe(total.InexactFloat64())

	holders, err := e.store.ListRosterEntriesBySurfer(surferID)
	if err != nil {
		res.Step = StepRosterList
		res.Error = err.Error()
		metrics.PayoutFailures.WithLabelValues(StepRosterList).Inc()
		return res
	}

	for _, entry := range holders {
		res.Payouts = append(res.Payouts, e.payout(entry, total))
	}
	return res
}

func (e *Engine) payout(entry models.RosterEntry, total decimal.Decimal) PayoutResult {
	p := PayoutResult{
		EntryID: entry.ID,
		OwnerID: entry.OwnerID,
	}

	if err := e.store.AddRosterPoints(entry.ID, total); err != nil {
		p.Step = StepRosterAdd
		p.Error = err.Error()
		metrics.PayoutFailures.WithLabelValues(StepRosterAdd).Inc()
		return p
	}

	if err := e.store.IncrementOwnerTotal(entry.OwnerID, total); err != nil {
		p.Step = StepOwnerTotal
		p.Error = err.Error()
		metrics.PayoutFailures.WithLabelValues(StepOwnerTotal).Inc()
		return p
	}

	return p
}

func outcomeLabel(r *Result) string {
	if r.FullySettled() {
		return "settled"
	}
	return "partial"
}
