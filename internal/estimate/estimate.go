// Package estimate runs a packout job through room inference, cartage,
// provisioning, the phased price template and the scope check.
package estimate

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/Simplici0/packout/internal/adjust"
	"github.com/Simplici0/packout/internal/apperrors"
	"github.com/Simplici0/packout/internal/cartage"
	"github.com/Simplici0/packout/internal/labor"
	"github.com/Simplici0/packout/internal/pricing"
	"github.com/Simplici0/packout/internal/provision"
	"github.com/Simplici0/packout/internal/rooms"
	"github.com/Simplici0/packout/internal/scope"
)

// Settings are the fallbacks applied when a job leaves a field unset.
type Settings struct {
	DriveTimeMinutes float64
	StorageMonths    int
	TargetMargin     float64
	PackBackDiscount float64
	BubbleWrapWidth  int
}

func DefaultSettings() Settings {
	return Settings{
		DriveTimeMinutes: 25,
		StorageMonths:    2,
		TargetMargin:     labor.DefaultTargetMargin,
		PackBackDiscount: pricing.DefaultPackBackDiscount,
		BubbleWrapWidth:  pricing.BubbleWrap48,
	}
}

// Job is one packout to estimate. CarryTimeMinutes is required; zero values
// elsewhere fall back to Settings or to figures derived from the rooms. A nil
// HandlingRate bills at the target-margin rate.
type Job struct {
	Customer         string       `json:"customer"`
	Rooms            []rooms.Room `json:"rooms"`
	BoxOverride      *int         `json:"box_override,omitempty"`
	CarryTimeMinutes *float64     `json:"carry_time_minutes"`
	DriveTimeMinutes *float64     `json:"drive_time_minutes,omitempty"`
	CrewSize         int          `json:"crew_size,omitempty"`
	TruckLoads       int          `json:"truck_loads,omitempty"`
	Vaults           *int         `json:"vaults,omitempty"`
	StorageMonths    int          `json:"storage_months,omitempty"`
	Pads             *int         `json:"pad_count,omitempty"`
	HandlingRate     *float64     `json:"handling_rate,omitempty"`
	BubbleWrapWidth  int          `json:"bubble_wrap_width,omitempty"`
	ClimateStorageSF int          `json:"climate_storage_sf,omitempty"`
	PackBackDiscount *float64     `json:"pack_back_discount,omitempty"`
	ApplyCorrections bool         `json:"apply_corrections,omitempty"`
	RecentEra        bool         `json:"recent_era,omitempty"`
}

// Estimate is the full output of one pipeline run.
type Estimate struct {
	Customer      string               `json:"customer"`
	Rooms         []rooms.Room         `json:"rooms"`
	Inference     *rooms.Inference     `json:"inference,omitempty"`
	InitialBoxes  int                  `json:"initial_boxes"`
	TagCount      int                  `json:"tag_count"`
	BoxCount      int                  `json:"box_count"`
	LgBoxes       int                  `json:"lg_boxes"`
	XLBoxes       int                  `json:"xl_boxes"`
	Adjusted      *adjust.Estimate     `json:"adjusted,omitempty"`
	CrewSize      int                  `json:"crew_size"`
	TruckLoads    int                  `json:"truck_loads"`
	Cartage       cartage.Result       `json:"cartage"`
	HandlingHours float64              `json:"handling_hours"`
	HandlingRate  float64              `json:"handling_rate"`
	Vaults        provision.Vaults     `json:"vaults"`
	StorageMonths int                  `json:"storage_months"`
	VaultMonths   int                  `json:"vault_months"`
	Pads          int                  `json:"pad_count"`
	Priced        pricing.Result       `json:"priced"`
	PhaseTotals   []pricing.PhaseTotal `json:"phase_totals"`
	Scope         scope.Result         `json:"scope"`
}

// Generator runs the estimate pipeline. It holds only read-only reference
// data, so one Generator may serve concurrent jobs.
type Generator struct {
	inferer  *rooms.Inferer
	engine   *pricing.Engine
	adjuster *adjust.Adjuster
	labor    *labor.Calculator
	settings Settings
	logger   *zap.Logger
}

// NewGenerator wires the calculators together. adjuster may be nil when no
// correction table is loaded; a nil labor calculator uses the default crew.
func NewGenerator(inferer *rooms.Inferer, engine *pricing.Engine, adjuster *adjust.Adjuster, calc *labor.Calculator, settings Settings, logger *zap.Logger) (*Generator, error) {
	if inferer == nil || engine == nil {
		return nil, fmt.Errorf("estimate generator requires an inferer and a pricing engine: %w", apperrors.ErrInvalidInput)
	}
	if calc == nil {
		calc = labor.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		inferer:  inferer,
		engine:   engine,
		adjuster: adjuster,
		labor:    calc,
		settings: settings,
		logger:   logger.Named("estimate"),
	}, nil
}

// SuggestCrew sizes the crew and truck loads from the number of rooms.
func SuggestCrew(roomCount int) (crew, trucks int) {
	switch {
	case roomCount <= 5:
		return 5, 1
	case roomCount <= 9:
		return 6, 2
	case roomCount <= 14:
		return 7, 3
	default:
		return 8, 4
	}
}

// SplitBoxes derives the large and extra-large box lines from the medium count.
func SplitBoxes(boxes int) (lg, xl int) {
	if boxes > 30 {
		lg = boxes / 15
	}
	if boxes > 80 {
		xl = boxes / 40
	}
	return lg, xl
}

func (g *Generator) validate(job Job) error {
	if len(job.Rooms) == 0 {
		return fmt.Errorf("job has no rooms: %w", apperrors.ErrInvalidInput)
	}
	if job.CarryTimeMinutes == nil {
		return fmt.Errorf("carry time is required: %w", apperrors.ErrInvalidInput)
	}
	if job.CrewSize < 0 || job.TruckLoads < 0 || job.StorageMonths < 0 {
		return fmt.Errorf("crew %d, trucks %d, months %d: %w", job.CrewSize, job.TruckLoads, job.StorageMonths, apperrors.ErrInvalidInput)
	}
	if job.ApplyCorrections && g.adjuster == nil {
		return fmt.Errorf("corrections requested but no correction table is loaded: %w", apperrors.ErrInvalidInput)
	}
	return rooms.Validate(job.Rooms)
}

// Generate produces a priced, scope-checked estimate for job. ctx is checked
// between stages.
func (g *Generator) Generate(ctx context.Context, job Job) (Estimate, error) {
	if err := g.validate(job); err != nil {
		return Estimate{}, err
	}
	est := Estimate{Customer: job.Customer}

	normalized := rooms.Normalize(job.Rooms)
	_, est.InitialBoxes = rooms.Totals(normalized)
	if job.BoxOverride != nil {
		distributed, err := rooms.DistributeBoxes(normalized, *job.BoxOverride)
		if err != nil {
			return Estimate{}, err
		}
		est.Rooms = distributed
		g.logger.Info("Manual box override", zap.String("customer", job.Customer), zap.Int("boxes", *job.BoxOverride))
	} else {
		inf := g.inferer.InferBoxCounts(normalized)
		est.Rooms = inf.Rooms
		est.Inference = &inf
	}
	est.TagCount, est.BoxCount = rooms.Totals(est.Rooms)

	if err := ctx.Err(); err != nil {
		return Estimate{}, err
	}

	if job.ApplyCorrections {
		adj, err := g.adjuster.Adjust(adjust.Raw{Tags: float64(est.TagCount), Boxes: float64(est.BoxCount)}, job.RecentEra)
		if err != nil {
			return Estimate{}, err
		}
		est.Adjusted = &adj
		est.TagCount = int(math.Round(adj.Tags.Adjusted))
		est.BoxCount = int(math.Round(adj.Boxes.Adjusted))
	}

	est.CrewSize, est.TruckLoads = SuggestCrew(len(est.Rooms))
	if job.CrewSize > 0 {
		est.CrewSize = job.CrewSize
	}
	if job.TruckLoads > 0 {
		est.TruckLoads = job.TruckLoads
	}
	drive := g.settings.DriveTimeMinutes
	if job.DriveTimeMinutes != nil {
		drive = *job.DriveTimeMinutes
	}

	cart, err := cartage.Compute(cartage.Input{
		DriveTimeMinutes: drive,
		TruckLoads:       est.TruckLoads,
		CrewSize:         est.CrewSize,
		CarryTimeMinutes: *job.CarryTimeMinutes,
		TagCount:         est.TagCount,
		BoxCount:         est.BoxCount,
	})
	if err != nil {
		return Estimate{}, err
	}
	est.Cartage = cart
	est.HandlingHours = cart.TotalHours

	if err := ctx.Err(); err != nil {
		return Estimate{}, err
	}

	if job.Vaults != nil {
		est.Vaults, err = provision.ManualVaults(*job.Vaults)
	} else {
		est.Vaults, err = provision.DeriveVaults(est.TagCount, est.BoxCount)
	}
	if err != nil {
		return Estimate{}, err
	}
	est.StorageMonths = g.settings.StorageMonths
	if job.StorageMonths > 0 {
		est.StorageMonths = job.StorageMonths
	}
	est.VaultMonths = est.Vaults.Total * est.StorageMonths

	if est.Pads, err = provision.DerivePads(est.TagCount, job.Pads); err != nil {
		return Estimate{}, err
	}
	est.LgBoxes, est.XLBoxes = SplitBoxes(est.BoxCount)

	if job.HandlingRate != nil {
		est.HandlingRate = *job.HandlingRate
	} else if est.HandlingRate, err = g.labor.BillingRateForMargin(g.settings.TargetMargin); err != nil {
		return Estimate{}, err
	}
	width := job.BubbleWrapWidth
	if width == 0 {
		width = g.settings.BubbleWrapWidth
	}

	pads, rate := est.Pads, est.HandlingRate
	items, err := pricing.BuildFivePhase(pricing.FivePhaseInput{
		Tags:             est.TagCount,
		Boxes:            est.BoxCount,
		LgBoxes:          est.LgBoxes,
		XLBoxes:          est.XLBoxes,
		HandlingHours:    est.HandlingHours,
		VanDays:          est.TruckLoads,
		VaultMonths:      est.VaultMonths,
		Pads:             &pads,
		HandlingRate:     &rate,
		BubbleWrapWidth:  width,
		ClimateStorageSF: job.ClimateStorageSF,
	})
	if err != nil {
		return Estimate{}, err
	}

	if err := ctx.Err(); err != nil {
		return Estimate{}, err
	}

	discount := g.settings.PackBackDiscount
	if job.PackBackDiscount != nil {
		discount = *job.PackBackDiscount
	}
	if est.Priced, err = g.engine.PriceFivePhase(items, discount); err != nil {
		return Estimate{}, err
	}
	est.PhaseTotals = est.Priced.PhaseTotals()

	est.Scope = scope.Check(est.Priced.Items(), scopeContext(est))

	g.logger.Info("Estimate generated",
		zap.String("customer", job.Customer),
		zap.Int("tags", est.TagCount),
		zap.Int("boxes", est.BoxCount),
		zap.Float64("handling_hours", est.HandlingHours),
		zap.Int("vault_months", est.VaultMonths),
		zap.Float64("subtotal_rcv", est.Priced.SubtotalRCV),
		zap.Int("flags", len(est.Priced.Flags)),
		zap.Int("scope_score", est.Scope.Score))
	return est, nil
}

func scopeContext(est Estimate) scope.Context {
	ctx := scope.Context{TagCount: est.TagCount, BoxCount: est.BoxCount}
	for _, r := range est.Rooms {
		if r.Category.IsBedroom() {
			ctx.HasBedroom = true
		}
		if r.Category == rooms.Kitchen || r.Category == rooms.DiningRoom {
			ctx.HasKitchenOrDining = true
		}
	}
	return ctx
}

// Summary renders the headline figures of an estimate.
func Summary(est Estimate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ESTIMATE: %s\n", est.Customer)
	fmt.Fprintf(&b, "TAGs: %d  Boxes: %d med + %d lg + %d xl (initial: %d)\n",
		est.TagCount, est.BoxCount, est.LgBoxes, est.XLBoxes, est.InitialBoxes)
	fmt.Fprintf(&b, "Crew: %d staff, %d truck load(s)\n", est.CrewSize, est.TruckLoads)
	fmt.Fprintf(&b, "Handling: %.1f hr/direction @ $%.2f/hr\n", est.HandlingHours, est.HandlingRate)
	fmt.Fprintf(&b, "Storage: %d vaults x %d months (%s)\n", est.Vaults.Total, est.StorageMonths, est.Vaults.Method)
	fmt.Fprintf(&b, "Pads: %d\n", est.Pads)
	fmt.Fprintf(&b, "Total RCV: $%.2f\n", est.Priced.SubtotalRCV)
	return b.String()
}

// Report renders the summary, the phased estimate and the scope check.
func Report(est Estimate) string {
	parts := []string{Summary(est), pricing.FormatFivePhase(est.Priced), scope.FormatReport(est.Scope)}
	if est.Adjusted != nil {
		parts = append(parts, adjust.FormatReport(*est.Adjusted))
	}
	return strings.Join(parts, "\n\n")
}
