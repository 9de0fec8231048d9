// internal/scoring/aggregator.go
package scoring

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/saltspray/heatline/internal/models"
)

// DefaultBestWaves is the WSL-style rule: a surfer's heat total is the
// sum of their two highest-scoring waves.
const DefaultBestWaves = 2

// Aggregator turns a surfer's raw wave scores into a heat total. The
// wave count is configurable per deployment but defaults to best-2.
type Aggregator struct {
	BestWaves int `toml:"best_waves"`
}

func NewAggregator(bestWaves int) *Aggregator {
	if bestWaves <= 0 {
		bestWaves = DefaultBestWaves
	}
	return &Aggregator{BestWaves: bestWaves}
}

// HeatTotal sums the top-N wave scores. Fewer than N waves sum whatever
// is there; no waves yield zero. Pure: the input slice is not modified.
func (a *Aggregator) HeatTotal(scores []decimal.Decimal) decimal.Decimal {
	sorted := make([]decimal.Decimal, len(scores))
	copy(sorted, scores)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].GreaterThan(sorted[j])
	})

	n := a.BestWaves
	if len(sorted) < n {
		n = len(sorted)
	}

	total := decimal.Zero
	for _, s := range sorted[:n] {
		total = total.Add(s)
	}
	return total
}

// SurferTotals groups a heat's full score ledger by surfer and
// aggregates each one. Surfers with no scored waves are absent from the
// result; settlement treats them as zero.
func (a *Aggregator) SurferTotals(scores []models.WaveScore) map[string]decimal.Decimal {
	bySurfer := make(map[string][]decimal.Decimal)
	for _, ws := range scores {
		bySurfer[ws.SurferID] = append(bySurfer[ws.SurferID], ws.Score)
	}

	totals := make(map[string]decimal.Decimal, len(bySurfer))
	for surferID, waves := range bySurfer {
		totals[surferID] = a.HeatTotal(waves)
	}
	return totals
}

// Format renders a total with exactly two fractional digits, the way
// judges and broadcasts print heat scores.
func Format(total decimal.Decimal) string {
	return total.StringFixed(2)
}
