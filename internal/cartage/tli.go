package cartage

import (
	"fmt"

	"github.com/Simplici0/packout/internal/apperrors"
)

// DefaultSupervisorOwnerHours is the time a supervisor spends reviewing
// total-loss items with the owner.
const DefaultSupervisorOwnerHours = 1.5

// TLIInput describes disposal trips for total-loss items (TLI) from the loss
// site to the dumpster.
type TLIInput struct {
	RoundTripMinutes     float64  `json:"round_trip_minutes"`
	SinglePersonLoads    int      `json:"single_person_loads"`
	TwoPersonLoads       int      `json:"two_person_loads"`
	SupervisorOwnerHours *float64 `json:"supervisor_owner_hours,omitempty"`
}

type TLIResult struct {
	TotalMinutes      float64 `json:"total_minutes"`
	GeneralLaborHours float64 `json:"general_labor_hours"`
	SupervisorHours   float64 `json:"supervisor_hours"`
}

// ComputeTLI returns disposal labor. Two-person loads cost two people per trip.
func ComputeTLI(in TLIInput) (TLIResult, error) {
	if in.RoundTripMinutes < 0 || in.SinglePersonLoads < 0 || in.TwoPersonLoads < 0 {
		return TLIResult{}, fmt.Errorf("disposal trips must be non-negative: %w", apperrors.ErrInvalidInput)
	}
	owner := DefaultSupervisorOwnerHours
	if in.SupervisorOwnerHours != nil {
		owner = *in.SupervisorOwnerHours
	}
	if owner < 0 {
		return TLIResult{}, fmt.Errorf("supervisor owner hours %v: %w", owner, apperrors.ErrInvalidInput)
	}

	single := in.RoundTripMinutes * float64(in.SinglePersonLoads)
	double := in.RoundTripMinutes * 2 * float64(in.TwoPersonLoads)
	total := single + double

	return TLIResult{
		TotalMinutes:      round2(total),
		GeneralLaborHours: round4(total / 60),
		SupervisorHours:   round4(owner),
	}, nil
}
