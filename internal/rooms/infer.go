package rooms

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Simplici0/packout/internal/apperrors"
)

// Thresholds are the calibrated constants of box inference.
type Thresholds struct {
	// DensityBump is the TAG density ratio above which every room is read one
	// tier denser than labeled.
	DensityBump float64 `json:"density_bump" yaml:"density_bump"`
	// ClosetBoost is the ratio above which closet allocations go up one more tier.
	ClosetBoost float64 `json:"closet_boost" yaml:"closet_boost"`
	// HiddenTrust is the share of the prediction a hidden-content room must
	// reach on camera to keep its visual count.
	HiddenTrust float64 `json:"hidden_trust" yaml:"hidden_trust"`
	// VisibleTrust plays the same role for open rooms and uncategorized rooms.
	VisibleTrust float64 `json:"visible_trust" yaml:"visible_trust"`
}

// DefaultThresholds returns the calibrated thresholds used when none are configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DensityBump:  1.5,
		ClosetBoost:  1.75,
		HiddenTrust:  0.5,
		VisibleTrust: 0.4,
	}
}

// Validate rejects non-positive density thresholds and trust shares outside [0,1].
func (t Thresholds) Validate() error {
	if t.DensityBump <= 0 || t.ClosetBoost <= 0 {
		return fmt.Errorf("density thresholds must be positive: %w", apperrors.ErrInvalidInput)
	}
	if t.HiddenTrust < 0 || t.HiddenTrust > 1 || t.VisibleTrust < 0 || t.VisibleTrust > 1 {
		return fmt.Errorf("trust shares must be within [0,1]: %w", apperrors.ErrInvalidInput)
	}
	return nil
}

// Rooms whose visual box count is reliable because contents sit in the open.
var photoReliable = map[Category]bool{
	LivingRoom: true,
	DiningRoom: true,
	Hallway:    true,
	Exterior:   true,
	Laundry:    true,
}

// Rooms where drawers, cabinets and closets hide most of the boxes.
var hiddenContent = map[Category]bool{
	Bedroom:        true,
	BedroomPrimary: true,
	BedroomGuest:   true,
	BedroomKids:    true,
	Kitchen:        true,
	Office:         true,
	Bathroom:       true,
	Closet:         true,
	Garage:         true,
	Basement:       true,
}

// Decision records how one room's box count was derived.
type Decision struct {
	Room             string   `json:"room"`
	Category         Category `json:"category"`
	LabeledDensity   Density  `json:"labeled_density"`
	EffectiveDensity Density  `json:"effective_density"`
	LookupBoxes      int      `json:"lookup_boxes"`
	ClosetBonus      int      `json:"closet_bonus"`
	PantryBonus      int      `json:"pantry_bonus"`
	Predicted        int      `json:"predicted"`
	Before           int      `json:"before"`
	After            int      `json:"after"`
	Upgraded         bool     `json:"upgraded"`
}

// Inference is the outcome of InferBoxCounts. Rooms is a new slice; the
// input rooms are never modified.
type Inference struct {
	Rooms         []Room     `json:"rooms"`
	TotalTags     int        `json:"total_tags"`
	BaselineTags  int        `json:"baseline_tags"`
	TagRatio      float64    `json:"tag_ratio"`
	DensityBumped bool       `json:"density_bumped"`
	ClosetBoosted bool       `json:"closet_boosted"`
	Decisions     []Decision `json:"decisions,omitempty"`
}

// Upgraded counts rooms whose box count changed.
func (inf Inference) Upgraded() int {
	n := 0
	for _, d := range inf.Decisions {
		if d.After > d.Before {
			n++
		}
	}
	return n
}

// Inferer corrects walk-through box counts for contents a camera cannot see.
type Inferer struct {
	baselines   Baselines
	allocations Allocations
	thresholds  Thresholds
	logger      *zap.Logger
}

// NewInferer builds an Inferer. Nil baselines and empty allocations fall back
// to the built-in tables.
func NewInferer(baselines Baselines, allocations Allocations, thresholds Thresholds, logger *zap.Logger) (*Inferer, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	if baselines == nil {
		baselines = DefaultBaselines()
	}
	if allocations.Closet == nil && allocations.Pantry == nil {
		allocations = DefaultAllocations()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inferer{
		baselines:   baselines,
		allocations: allocations,
		thresholds:  thresholds,
		logger:      logger.Named("box-inference"),
	}, nil
}

func (inf *Inferer) Baselines() Baselines { return inf.baselines }

// InferBoxCounts predicts box counts per room from the labeled density, the
// house-wide TAG density and the closet and pantry space the walk-through
// missed. A room's box count never goes down.
func (inf *Inferer) InferBoxCounts(rooms []Room) Inference {
	out := make([]Room, len(rooms))
	for i, r := range rooms {
		out[i] = r.clone()
	}

	totalTags, totalBoxes := Totals(rooms)
	result := Inference{Rooms: out, TotalTags: totalTags}
	if totalTags == 0 {
		return result
	}

	hasCloset, hasPantry := false, false
	for _, r := range rooms {
		if r.Category == Closet {
			hasCloset = true
		}
		if strings.Contains(strings.ToLower(r.Name), "pantry") {
			hasPantry = true
		}
	}

	baselineTags := 0
	for _, r := range rooms {
		baselineTags += inf.baselines.Tags(r.Category, ParseDensity(string(r.Density)))
	}
	ratio := float64(totalTags) / float64(max(baselineTags, 1))
	bumped := ratio > inf.thresholds.DensityBump
	boosted := ratio > inf.thresholds.ClosetBoost

	result.BaselineTags = baselineTags
	result.TagRatio = ratio
	result.DensityBumped = bumped
	result.ClosetBoosted = boosted

	inf.logger.Info("Box prediction",
		zap.Int("rooms", len(rooms)),
		zap.Int("tags", totalTags),
		zap.Int("photo_boxes", totalBoxes),
		zap.Float64("tag_ratio", ratio),
		zap.Bool("density_bumped", bumped))

	for i, r := range rooms {
		d := inf.decide(r, bumped, boosted, hasCloset, hasPantry)
		if d.After > d.Before {
			out[i] = r.withBoxes(d.After)
			inf.logger.Debug("Room boxes upgraded",
				zap.String("room", r.Name),
				zap.String("category", string(r.Category)),
				zap.String("density", string(d.EffectiveDensity)),
				zap.Int("from", d.Before),
				zap.Int("to", d.After),
				zap.Int("lookup", d.LookupBoxes),
				zap.Int("closet", d.ClosetBonus),
				zap.Int("pantry", d.PantryBonus))
		}
		result.Decisions = append(result.Decisions, d)
	}
	return result
}

func (inf *Inferer) decide(r Room, bumped, boosted, hasCloset, hasPantry bool) Decision {
	labeled := ParseDensity(string(r.Density))
	effective := labeled
	if bumped {
		effective = labeled.Bump()
	}
	photo := r.Boxes()

	lookup := inf.baselines.Boxes(r.Category, effective)

	// Bedroom baselines were calibrated with closets included.
	if hasCloset && inf.allocations.hasCloset(r.Category) {
		portion := inf.allocations.closet(r.Category, effective, 0)
		lookup = max(lookup-portion/2, 0)
	}

	closetBonus := 0
	if !hasCloset && inf.allocations.hasCloset(r.Category) {
		closetCat := r.Category
		if closetCat == Bedroom && isPrimaryBedroomName(r.Name) {
			closetCat = BedroomPrimary
		}
		closetDensity := effective
		if boosted {
			closetDensity = effective.Bump()
		}
		closetBonus = inf.allocations.closet(closetCat, closetDensity, defaultClosetBoxes)
	}

	pantryBonus := 0
	if r.Category == Kitchen && !hasPantry {
		pantryBonus = inf.allocations.pantry(effective)
	}

	predicted := lookup + closetBonus + pantryBonus

	var upgrade bool
	switch {
	case hiddenContent[r.Category]:
		upgrade = float64(photo) < float64(predicted)*inf.thresholds.HiddenTrust
	case photoReliable[r.Category]:
		upgrade = (bumped && float64(photo) < float64(lookup)*inf.thresholds.VisibleTrust) ||
			(photo == 0 && predicted > 0)
	default:
		upgrade = float64(photo) < float64(predicted)*inf.thresholds.VisibleTrust
	}

	after := photo
	bonus := closetBonus + pantryBonus
	switch {
	case !upgrade && bonus > 0:
		after = photo + bonus
	case upgrade && predicted > photo:
		after = predicted
	}

	return Decision{
		Room:             r.Name,
		Category:         r.Category,
		LabeledDensity:   labeled,
		EffectiveDensity: effective,
		LookupBoxes:      lookup,
		ClosetBonus:      closetBonus,
		PantryBonus:      pantryBonus,
		Predicted:        predicted,
		Before:           photo,
		After:            max(after, photo),
		Upgraded:         upgrade,
	}
}

// Validate rejects rooms with a negative visual TAG or box count.
func Validate(rooms []Room) error {
	for _, r := range rooms {
		if r.Tags() < 0 || r.Boxes() < 0 {
			return fmt.Errorf("room %q has negative counts: %w", r.Name, apperrors.ErrInvalidInput)
		}
	}
	return nil
}

// DistributeBoxes spreads a house-wide box total across rooms by TAG share.
// No room loses boxes. Rooms are returned unchanged when no TAGs were counted.
func DistributeBoxes(rooms []Room, total int) ([]Room, error) {
	if total < 0 {
		return nil, fmt.Errorf("box total %d: %w", total, apperrors.ErrInvalidInput)
	}
	out := make([]Room, len(rooms))
	totalTags, _ := Totals(rooms)
	for i, r := range rooms {
		if totalTags == 0 {
			out[i] = r.clone()
			continue
		}
		share := total * r.Tags() / totalTags
		out[i] = r.withBoxes(max(r.Boxes(), share))
	}
	return out, nil
}
