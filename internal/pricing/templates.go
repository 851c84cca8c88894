package pricing

import (
	"fmt"
	"math"

	"github.com/Simplici0/packout/internal/apperrors"
	"github.com/Simplici0/packout/internal/provision"
)

// DefaultHandlingRate is the per person-hour billing rate that yields a 65%
// labor margin for the default crew.
const DefaultHandlingRate = 79.04

// Bubble wrap widths in inches.
const (
	BubbleWrap24 = 24
	BubbleWrap48 = 48
)

// bubbleWrap48Cost is the manual price for wide bubble wrap.
const bubbleWrap48Cost = 0.40

// FivePhaseInput holds the quantities for a phased estimate. VaultMonths is
// vaults times storage duration. A nil HandlingRate bills DefaultHandlingRate;
// an explicit zero bills handling at $0.
type FivePhaseInput struct {
	Tags             int      `json:"tag_count"`
	Boxes            int      `json:"box_count"`
	LgBoxes          int      `json:"lg_boxes"`
	XLBoxes          int      `json:"xl_boxes"`
	HandlingHours    float64  `json:"handling_hours"`
	VanDays          int      `json:"moving_van_days"`
	VaultMonths      int      `json:"vault_months"`
	Pads             *int     `json:"pad_count,omitempty"`
	HandlingRate     *float64 `json:"handling_rate,omitempty"`
	BubbleWrapWidth  int      `json:"bubble_wrap_width"`
	ClimateStorageSF int      `json:"climate_storage_sf"`
}

func (in FivePhaseInput) validate() error {
	for name, v := range map[string]int{
		"tags": in.Tags, "boxes": in.Boxes, "lg boxes": in.LgBoxes, "xl boxes": in.XLBoxes,
		"van days": in.VanDays, "vault months": in.VaultMonths, "climate storage sf": in.ClimateStorageSF,
	} {
		if v < 0 {
			return fmt.Errorf("%s %d: %w", name, v, apperrors.ErrInvalidInput)
		}
	}
	if in.HandlingHours < 0 {
		return fmt.Errorf("handling hours %v: %w", in.HandlingHours, apperrors.ErrInvalidInput)
	}
	if in.HandlingRate != nil && (*in.HandlingRate < 0 || math.IsNaN(*in.HandlingRate)) {
		return fmt.Errorf("handling rate %v: %w", *in.HandlingRate, apperrors.ErrInvalidInput)
	}
	if in.BubbleWrapWidth != 0 && in.BubbleWrapWidth != BubbleWrap24 && in.BubbleWrapWidth != BubbleWrap48 {
		return fmt.Errorf("bubble wrap width %d: %w", in.BubbleWrapWidth, apperrors.ErrInvalidInput)
	}
	return nil
}

// BuildFivePhase lays out the packout, handling to storage, storage, handling
// from storage and pack-back phases. Packing labor is embedded in the per-unit
// box and TAG rates; the handling phases bill transport labor at HandlingRate.
func BuildFivePhase(in FivePhaseInput) ([]LineItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	pads, err := provision.DerivePads(in.Tags, in.Pads)
	if err != nil {
		return nil, err
	}
	rate := DefaultHandlingRate
	if in.HandlingRate != nil {
		rate = *in.HandlingRate
	}
	width := in.BubbleWrapWidth
	if width == 0 {
		width = BubbleWrap48
	}

	boxes, tags := float64(in.Boxes), float64(in.Tags)
	items := []LineItem{
		newItem(KindBoxMedium, DescBoxMedium, boxes, "EA", PhasePackout),
	}
	if in.LgBoxes > 0 {
		items = append(items, newItem(KindBoxLarge, DescBoxLarge, float64(in.LgBoxes), "EA", PhasePackout))
	}
	if in.XLBoxes > 0 {
		items = append(items, newItem(KindBoxXL, DescBoxXL, float64(in.XLBoxes), "EA", PhasePackout))
	}
	items = append(items,
		newItem(KindTag, DescTag, tags, "EA", PhasePackout),
		newItem(KindPad, DescPad, float64(pads), "EA", PhasePackout),
	)
	if width == BubbleWrap48 {
		items = append(items, newItem(KindBubbleWrap, DescBubbleWrap48, float64(max(100, in.Boxes*7)), "LF", PhasePackout).
			withCost(bubbleWrap48Cost))
	} else {
		items = append(items, newItem(KindBubbleWrap, DescBubbleWrap24, float64(max(50, in.Boxes*3)), "LF", PhasePackout))
	}
	items = append(items,
		newItem(KindStretchWrap, DescStretchWrap, float64(max(2, in.Boxes/35)), "RL", PhasePackout),

		newItem(KindLabor, DescLabor, in.HandlingHours, "HR", PhaseHandlingToStorage).withCost(rate),
		newItem(KindMovingVan, DescMovingVan, float64(in.VanDays), "EA", PhaseHandlingToStorage),

		newItem(KindStorageVault, DescStorageVault, float64(in.VaultMonths), "MO", PhaseStorage),
	)
	if in.ClimateStorageSF > 0 {
		items = append(items, newItem(KindStorageClimate, DescStorageClimate, float64(in.ClimateStorageSF), "SF", PhaseStorage))
	}
	items = append(items,
		newItem(KindMovingVan, DescMovingVan, float64(in.VanDays), "EA", PhaseHandlingFromStorage),
		newItem(KindLabor, DescLabor, in.HandlingHours, "HR", PhaseHandlingFromStorage).withCost(rate),

		newItem(KindBoxMedium, DescBoxMedium, boxes, "EA", PhasePackBack),
	)
	if in.LgBoxes > 0 {
		items = append(items, newItem(KindBoxLarge, DescBoxLarge, float64(in.LgBoxes), "EA", PhasePackBack))
	}
	items = append(items,
		newItem(KindTag, DescTag, tags, "EA", PhasePackBack),
		newItem(KindDebrisHaul, DescDebrisHaul, 1, "EA", PhasePackBack),
	)
	return items, nil
}

// StandardInput holds the quantities for a single-phase estimate.
type StandardInput struct {
	Tags            int     `json:"tag_count"`
	Boxes           int     `json:"box_count"`
	LgBoxes         int     `json:"lg_boxes"`
	XLBoxes         int     `json:"xl_boxes"`
	LaborHours      float64 `json:"labor_hours"`
	SupervisorHours float64 `json:"supervisor_hours"`
	StorageMonths   int     `json:"storage_months"`
	VanDays         int     `json:"moving_van_days"`
}

// BuildStandard lays out a single-phase estimate billed from cartage hours.
func BuildStandard(in StandardInput) ([]LineItem, error) {
	if in.Tags < 0 || in.Boxes < 0 || in.LgBoxes < 0 || in.XLBoxes < 0 ||
		in.LaborHours < 0 || in.SupervisorHours < 0 || in.StorageMonths < 0 || in.VanDays < 0 {
		return nil, fmt.Errorf("standard estimate quantities must be non-negative: %w", apperrors.ErrInvalidInput)
	}

	items := []LineItem{
		newItem(KindLabor, DescLabor, in.LaborHours, "HR", PhaseNone),
		newItem(KindSupervisor, DescSupervisor, in.SupervisorHours, "HR", PhaseNone),
		newItem(KindTag, DescTag, float64(in.Tags), "EA", PhaseNone),
		newItem(KindBoxMedium, DescBoxMedium, float64(in.Boxes), "EA", PhaseNone),
	}
	if in.LgBoxes > 0 {
		items = append(items, newItem(KindBoxLarge, DescBoxLarge, float64(in.LgBoxes), "EA", PhaseNone))
	}
	if in.XLBoxes > 0 {
		items = append(items, newItem(KindBoxXL, DescBoxXL, float64(in.XLBoxes), "EA", PhaseNone))
	}
	return append(items,
		newItem(KindPad, DescPad, float64(in.Tags), "EA", PhaseNone),
		newItem(KindMovingVan, DescMovingVan, float64(in.VanDays), "EA", PhaseNone),
		newItem(KindStorageVault, DescStorageVault, float64(in.StorageMonths), "MO", PhaseNone),
		newItem(KindStretchWrap, DescStretchWrap, float64(max(1, in.Boxes/50)), "RL", PhaseNone),
		newItem(KindBubbleWrap, DescBubbleWrap24, float64(max(50, in.Boxes*3)), "LF", PhaseNone),
		newItem(KindDebrisHaul, DescDebrisHaul, 1, "EA", PhaseNone),
	), nil
}
