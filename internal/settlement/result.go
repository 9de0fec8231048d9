package settlement

import (
	"github.com/shopspring/decimal"
)

// Steps a payout can fail on. Failures are independent write paths, so
// the report names the exact step for manual reconciliation.
const (
	StepHeatTotal  = "heat_total"
	StepRosterList = "roster_lookup"
	StepRosterAdd  = "roster_points"
	StepOwnerTotal = "owner_total"
)

// PayoutResult is the outcome of crediting one roster entry and its
// owner's running total.
type PayoutResult struct {
	EntryID string `json:"entry_id"`
	OwnerID string `json:"owner_id"`
	Step    string `json:"step,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (p PayoutResult) OK() bool {
	return p.Error == ""
}

// SurferResult is everything that happened while settling one surfer:
// their computed heat total, whether it was durably recorded, and the
// fan-out to every roster holding them.
type SurferResult struct {
	SurferID  string          `json:"surfer_id"`
	HeatTotal decimal.Decimal `json:"heat_total"`
	Step      string          `json:"step,omitempty"`
	Error     string          `json:"error,omitempty"`
	Payouts   []PayoutResult  `json:"payouts"`
}

func (s SurferResult) OK() bool {
	if s.Error != "" {
		return false
	}
	for _, p := range s.Payouts {
		if !p.OK() {
			return false
		}
	}
	return true
}

// Result aggregates per-surfer and per-owner outcomes of one finalize
// run. The engine never rolls back, so a partially settled heat is
// reported, not retried; operators remediate the failed subset by hand.
type Result struct {
	HeatID  string         `json:"heat_id"`
	Surfers []SurferResult `json:"surfers"`
}

// FullySettled reports whether every write in the run landed.
func (r *Result) FullySettled() bool {
	for _, s := range r.Surfers {
		if !s.OK() {
			return false
		}
	}
	return true
}

// FailureCount counts failed write paths across all surfers.
func (r *Result) FailureCount() int {
	n := 0
	for _, s := range r.Surfers {
		if s.Error != "" {
			n++
		}
		for _, p := range s.Payouts {
			if !p.OK() {
				n++
			}
		}
	}
	return n
}
