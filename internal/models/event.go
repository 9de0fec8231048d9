package models

import "fmt"

// Event is one competition stop, e.g. "Pipeline Masters". Heats hang off
// an event by round and heat number.
type Event struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name" validate:"required"`
	Slug      string     `db:"slug" json:"slug" validate:"required,max=64"`
	Status    HeatStatus `db:"status" json:"status"`
	StartDate string     `db:"start_date" json:"start_date"`
	EndDate   string     `db:"end_date" json:"end_date"`
}

func (e *Event) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
