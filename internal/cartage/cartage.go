package cartage

import (
	"fmt"
	"math"

	"github.com/Simplici0/packout/internal/apperrors"
)

// Standards are the fixed handling times, in minutes, shared by every job.
type Standards struct {
	PadWrapTag        float64 `json:"pad_wrap_tag" yaml:"pad_wrap_tag"`
	LoadTag           float64 `json:"load_tag" yaml:"load_tag"`
	UnloadTag         float64 `json:"unload_tag" yaml:"unload_tag"`
	MoveTagToStorage  float64 `json:"move_tag_to_storage" yaml:"move_tag_to_storage"`
	Load3Box          float64 `json:"load_3box" yaml:"load_3box"`
	Unload3Box        float64 `json:"unload_3box" yaml:"unload_3box"`
	Move3BoxToStorage float64 `json:"move_3box_to_storage" yaml:"move_3box_to_storage"`
}

// DefaultStandards returns the factory time standards.
func DefaultStandards() Standards {
	return Standards{
		PadWrapTag:        8,
		LoadTag:           3,
		UnloadTag:         3,
		MoveTagToStorage:  5,
		Load3Box:          3,
		Unload3Box:        2,
		Move3BoxToStorage: 6,
	}
}

func (s Standards) validate() error {
	for _, v := range []float64{s.PadWrapTag, s.LoadTag, s.UnloadTag, s.MoveTagToStorage, s.Load3Box, s.Unload3Box, s.Move3BoxToStorage} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("time standards must be non-negative: %w", apperrors.ErrInvalidInput)
		}
	}
	return nil
}

// Input holds the job-specific cartage parameters. CarryTimeMinutes is the time
// to carry one load from inside the house to the truck; it depends on the house
// layout and has no default.
type Input struct {
	DriveTimeMinutes float64    `json:"drive_time_minutes"`
	TruckLoads       int        `json:"truck_loads"`
	CrewSize         int        `json:"crew_size"`
	CarryTimeMinutes float64    `json:"carry_time_minutes"`
	TagCount         int        `json:"tag_count"`
	BoxCount         int        `json:"box_count"`
	Standards        *Standards `json:"standards,omitempty"`
}

// Result is the person-hour breakdown of a cartage calculation. GeneralLaborHours
// and SupervisorHours are the two billing categories.
type Result struct {
	TagHours          float64 `json:"tag_hours"`
	BoxHours          float64 `json:"box_hours"`
	CrewHours         float64 `json:"crew_hours"`
	TotalHours        float64 `json:"total_hours"`
	GeneralLaborHours float64 `json:"general_labor_hours"`
	SupervisorHours   float64 `json:"supervisor_hours"`
	MinutesPerTag     float64 `json:"minutes_per_tag"`
	MinutesPerBox     float64 `json:"minutes_per_box"`

	Input Input `json:"input"`
}

// Compute converts handling counts and travel into person-hours.
//
// One supervisor is present for the whole job, so supervisor hours are
// 1/crew_size of the total; with no crew everything is general labor.
func Compute(in Input) (Result, error) {
	if err := validate(in); err != nil {
		return Result{}, err
	}

	std := DefaultStandards()
	if in.Standards != nil {
		std = *in.Standards
		if err := std.validate(); err != nil {
			return Result{}, err
		}
	}

	minutesPerTag := std.PadWrapTag + std.LoadTag + std.UnloadTag + std.MoveTagToStorage + in.CarryTimeMinutes
	tagHours := round4(minutesPerTag * float64(in.TagCount) / 60)

	// A dolly load carries three boxes; its service time is split evenly.
	minutesPer3Box := std.Load3Box + std.Unload3Box + std.Move3BoxToStorage + in.CarryTimeMinutes
	minutesPerBox := minutesPer3Box / 3
	boxHours := round4(minutesPerBox * float64(in.BoxCount) / 60)

	roundTrip := in.DriveTimeMinutes * 2
	crewHours := round4(roundTrip * float64(in.CrewSize) * float64(in.TruckLoads) / 60)

	// The total is the exact sum of the reported components.
	total := tagHours + boxHours + crewHours

	general, supervisor := total, 0.0
	if in.CrewSize > 0 {
		supervisor = round4(total / float64(in.CrewSize))
		general = round4(total - supervisor)
	}

	in.Standards = &std
	return Result{
		TagHours:          tagHours,
		BoxHours:          boxHours,
		CrewHours:         crewHours,
		TotalHours:        total,
		GeneralLaborHours: general,
		SupervisorHours:   supervisor,
		MinutesPerTag:     round2(minutesPerTag),
		MinutesPerBox:     round2(minutesPerBox),
		Input:             in,
	}, nil
}

func validate(in Input) error {
	switch {
	case in.DriveTimeMinutes < 0 || math.IsNaN(in.DriveTimeMinutes):
		return fmt.Errorf("drive time %v: %w", in.DriveTimeMinutes, apperrors.ErrInvalidInput)
	case in.CarryTimeMinutes < 0 || math.IsNaN(in.CarryTimeMinutes):
		return fmt.Errorf("carry time %v: %w", in.CarryTimeMinutes, apperrors.ErrInvalidInput)
	case in.TruckLoads < 0:
		return fmt.Errorf("truck loads %d: %w", in.TruckLoads, apperrors.ErrInvalidInput)
	case in.CrewSize < 0:
		return fmt.Errorf("crew size %d: %w", in.CrewSize, apperrors.ErrInvalidInput)
	case in.TagCount < 0:
		return fmt.Errorf("tag count %d: %w", in.TagCount, apperrors.ErrInvalidInput)
	case in.BoxCount < 0:
		return fmt.Errorf("box count %d: %w", in.BoxCount, apperrors.ErrInvalidInput)
	}
	return nil
}

func round4(v float64) float64 { return math.Round(v*1e4) / 1e4 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
