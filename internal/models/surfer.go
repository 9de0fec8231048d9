package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Surfer is an athlete on the tour. Value and Tier drive the excluded
// team-builder's budget rules; the engine only persists them. Status is
// set by explicit operator action or settlement outcome, never inferred.
type Surfer struct {
	ID      string          `db:"id" json:"id"`
	Name    string          `db:"name" json:"name" validate:"required"`
	Country string          `db:"country" json:"country" validate:"required,len=3"`
	Stance  string          `db:"stance" json:"stance" validate:"oneof=Regular Goofy"`
	Tier    string          `db:"tier" json:"tier" validate:"oneof=A B C"`
	Value   decimal.Decimal `db:"value" json:"value"`
	Status  SurferStatus    `db:"status" json:"status"`
}

func (s *Surfer) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
