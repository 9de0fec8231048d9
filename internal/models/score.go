package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Judged waves are marked 0.00-10.00 with two decimal places.
var (
	MinWaveScore = decimal.Zero
	MaxWaveScore = decimal.NewFromInt(10)
)

// WaveScore is one judged wave attempt. Rows are append-only: a wrong
// score is corrected by submitting another row, never by editing, so the
// ledger keeps full audit history.
type WaveScore struct {
	ID          string          `db:"id" json:"id"`
	HeatID      string          `db:"heat_id" json:"heat_id" validate:"required"`
	SurferID    string          `db:"surfer_id" json:"surfer_id" validate:"required"`
	Score       decimal.Decimal `db:"score" json:"score"`
	SubmittedAt int64           `db:"submitted_at" json:"submitted_at"`
}

func (w *WaveScore) Validate() error {
	if err := validate.Struct(w); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if w.Score.LessThan(MinWaveScore) || w.Score.GreaterThan(MaxWaveScore) {
		return fmt.Errorf("%w: wave score %s outside [0.00, 10.00]", ErrValidation, w.Score)
	}
	if !w.Score.Equal(w.Score.Round(2)) {
		return fmt.Errorf("%w: wave score %s has more than two decimal places", ErrValidation, w.Score)
	}
	return nil
}
