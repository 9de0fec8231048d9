package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Heat is a single judged round among 2-4 surfers. (heat_number, round,
// event) is unique; status walks UPCOMING -> LIVE -> COMPLETED and never
// back.
type Heat struct {
	ID          string     `db:"id" json:"id"`
	EventID     string     `db:"event_id" json:"event_id" validate:"required"`
	RoundNumber int        `db:"round_number" json:"round_number" validate:"required,min=1"`
	HeatNumber  int        `db:"heat_number" json:"heat_number" validate:"required,min=1"`
	Status      HeatStatus `db:"status" json:"status"`
}

func (h *Heat) Validate() error {
	if err := validate.Struct(h); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// HeatAssignment is a surfer's membership in a heat and, after
// settlement, the durable record of their result. HeatTotal stays NULL
// until the heat is finalized and is written exactly once.
type HeatAssignment struct {
	HeatID    string              `db:"heat_id" json:"heat_id"`
	SurferID  string              `db:"surfer_id" json:"surfer_id"`
	HeatTotal decimal.NullDecimal `db:"heat_total" json:"heat_total"`
}
