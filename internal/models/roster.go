package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RosterEntry is one fantasy pick: an owner holding a surfer. Points is
// that pick's cumulative contribution and only ever grows; settlement
// adds the surfer's heat total to every entry holding them.
type RosterEntry struct {
	ID       string          `db:"id" json:"id"`
	OwnerID  string          `db:"owner_id" json:"owner_id" validate:"required"`
	SurferID string          `db:"surfer_id" json:"surfer_id" validate:"required"`
	Points   decimal.Decimal `db:"points" json:"points"`
}

func (r *RosterEntry) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// OwnerTotal denormalizes an owner's season-wide sum so the leaderboard
// is a single ordered select. It is incremented in lockstep with roster
// entries during settlement, never recomputed per read.
type OwnerTotal struct {
	OwnerID string          `db:"owner_id" json:"owner_id"`
	Total   decimal.Decimal `db:"total" json:"total"`
}
