package models

import "fmt"

// HeatStatus is the lifecycle of a heat. Transitions are one-directional:
// UPCOMING -> LIVE -> COMPLETED. Events share the same lifecycle.
type HeatStatus string

const (
	HeatUpcoming  HeatStatus = "UPCOMING"
	HeatLive      HeatStatus = "LIVE"
	HeatCompleted HeatStatus = "COMPLETED"
)

var heatTransitions = map[HeatStatus][]HeatStatus{
	HeatUpcoming:  {HeatLive},
	HeatLive:      {HeatCompleted},
	HeatCompleted: {},
}

func (s HeatStatus) Valid() bool {
	_, ok := heatTransitions[s]
	return ok
}

// CanTransition reports whether the table allows s -> to.
func (s HeatStatus) CanTransition(to HeatStatus) bool {
	for _, next := range heatTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates s -> to against the table, returning
// ErrInvalidTransition for anything not listed.
func (s HeatStatus) Transition(to HeatStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown heat status %q", ErrValidation, to)
	}
	if !s.CanTransition(to) {
		return fmt.Errorf("%w: heat %s -> %s", ErrInvalidTransition, s, to)
	}
	return nil
}

// SurferStatus tracks an athlete's competitive state within an event.
// Eliminated is terminal: once out, a surfer never re-enters the event.
type SurferStatus string

const (
	SurferWaiting    SurferStatus = "Waiting"
	SurferInWater    SurferStatus = "In Water Now"
	SurferNextHeat   SurferStatus = "Next Heat"
	SurferEliminated SurferStatus = "Eliminated"
)

var surferTransitions = map[SurferStatus][]SurferStatus{
	SurferWaiting:    {SurferInWater, SurferNextHeat, SurferEliminated},
	SurferNextHeat:   {SurferInWater, SurferEliminated},
	SurferInWater:    {SurferWaiting, SurferNextHeat, SurferEliminated},
	SurferEliminated: {},
}

func (s SurferStatus) Valid() bool {
	_, ok := surferTransitions[s]
	return ok
}

func (s SurferStatus) CanTransition(to SurferStatus) bool {
	for _, next := range surferTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s SurferStatus) Transition(to SurferStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown surfer status %q", ErrValidation, to)
	}
	if !s.CanTransition(to) {
		return fmt.Errorf("%w: surfer %s -> %s", ErrInvalidTransition, s, to)
	}
	return nil
}
