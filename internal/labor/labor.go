package labor

import (
	"fmt"
	"math"
	"strings"

	"github.com/Simplici0/packout/internal/apperrors"
)

// Reference hourly rates used when comparing a billing rate against the price list.
const (
	ReferenceLaborRate      = 58.70
	ReferenceSupervisorRate = 79.31
	DefaultTargetMargin     = 0.65
)

// Burden holds employer tax and insurance rates applied on top of wages.
type Burden struct {
	FICA        float64 `json:"fica" yaml:"fica"`
	SUTA        float64 `json:"suta" yaml:"suta"`
	FUTA        float64 `json:"futa" yaml:"futa"`
	WorkersComp float64 `json:"workers_comp" yaml:"workers_comp"`
}

// DefaultBurden returns the Arizona mover burden profile.
func DefaultBurden() Burden {
	return Burden{
		FICA:        0.0765,
		SUTA:        0.025,
		FUTA:        0.006,
		WorkersComp: 0.15,
	}
}

// Total returns the combined burden rate.
func (b Burden) Total() float64 {
	return b.FICA + b.SUTA + b.FUTA + b.WorkersComp
}

// Crew describes crew composition and hourly wages.
type Crew struct {
	TechWage        float64 `json:"tech_wage" yaml:"tech_wage"`
	SupervisorWage  float64 `json:"supervisor_wage" yaml:"supervisor_wage"`
	TechCount       int     `json:"tech_count" yaml:"tech_count"`
	SupervisorCount int     `json:"supervisor_count" yaml:"supervisor_count"`
}

// DefaultCrew returns a two-tech, one-supervisor crew.
func DefaultCrew() Crew {
	return Crew{
		TechWage:        21.00,
		SupervisorWage:  24.00,
		TechCount:       2,
		SupervisorCount: 1,
	}
}

// Size returns the head count of the crew.
func (c Crew) Size() int {
	return c.TechCount + c.SupervisorCount
}

// HourlyWages returns the sum of all wages for one wall-clock hour.
func (c Crew) HourlyWages() float64 {
	return c.TechWage*float64(c.TechCount) + c.SupervisorWage*float64(c.SupervisorCount)
}

// BlendedWage returns the average wage across the crew.
func (c Crew) BlendedWage() float64 {
	if c.Size() == 0 {
		return 0
	}
	return c.HourlyWages() / float64(c.Size())
}

// Calculator computes burdened labor costs and the billing rate needed for a margin.
type Calculator struct {
	crew   Crew
	burden Burden
}

// NewCalculator validates the crew and burden and returns a Calculator.
func NewCalculator(crew Crew, burden Burden) (*Calculator, error) {
	if crew.TechCount < 0 || crew.SupervisorCount < 0 {
		return nil, fmt.Errorf("crew counts must be non-negative: %w", apperrors.ErrInvalidInput)
	}
	if crew.Size() == 0 {
		return nil, fmt.Errorf("crew must have at least one member: %w", apperrors.ErrInvalidInput)
	}
	if crew.TechWage < 0 || crew.SupervisorWage < 0 {
		return nil, fmt.Errorf("wages must be non-negative: %w", apperrors.ErrInvalidInput)
	}
	if burden.Total() < 0 {
		return nil, fmt.Errorf("burden rate must be non-negative: %w", apperrors.ErrInvalidInput)
	}
	return &Calculator{crew: crew, burden: burden}, nil
}

// Default returns a calculator for the default crew and burden.
func Default() *Calculator {
	return &Calculator{crew: DefaultCrew(), burden: DefaultBurden()}
}

func (c *Calculator) Crew() Crew     { return c.crew }
func (c *Calculator) Burden() Burden { return c.burden }

// BurdenedCost returns the loaded hourly cost of one employee earning wage.
func (c *Calculator) BurdenedCost(wage float64) float64 {
	return wage * (1 + c.burden.Total())
}

func (c *Calculator) BurdenedTechCost() float64 {
	return c.BurdenedCost(c.crew.TechWage)
}

func (c *Calculator) BurdenedSupervisorCost() float64 {
	return c.BurdenedCost(c.crew.SupervisorWage)
}

// CrewCostPerHour is the burdened cost of the whole crew per wall-clock hour.
func (c *Calculator) CrewCostPerHour() float64 {
	return c.BurdenedTechCost()*float64(c.crew.TechCount) +
		c.BurdenedSupervisorCost()*float64(c.crew.SupervisorCount)
}

// BlendedCostPerPerson is the average burdened cost per person-hour.
func (c *Calculator) BlendedCostPerPerson() float64 {
	return c.CrewCostPerHour() / float64(c.crew.Size())
}

// BillingRateForMargin returns the per person-hour rate, rounded to cents, at which
// revenue minus burdened cost equals margin of revenue.
func (c *Calculator) BillingRateForMargin(margin float64) (float64, error) {
	if margin < 0 || margin >= 1 {
		return 0, fmt.Errorf("target margin %.4f outside [0,1): %w", margin, apperrors.ErrInvalidInput)
	}
	rate := c.BlendedCostPerPerson() / (1 - margin)
	return math.Round(rate*100) / 100, nil
}

// MarginAtRate returns the margin achieved when billing rate per person-hour.
func (c *Calculator) MarginAtRate(rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return (rate - c.BlendedCostPerPerson()) / rate
}

// FormatBreakdown renders the rate derivation as a plain-text report.
func (c *Calculator) FormatBreakdown(margin float64) (string, error) {
	target, err := c.BillingRateForMargin(margin)
	if err != nil {
		return "", err
	}

	rule := strings.Repeat("=", 65)
	factor := 1 + c.burden.Total()

	var b strings.Builder
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "LABOR RATE ANALYSIS")
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Crew: %d techs @ $%.2f/hr + %d supervisor @ $%.2f/hr\n",
		c.crew.TechCount, c.crew.TechWage, c.crew.SupervisorCount, c.crew.SupervisorWage)
	fmt.Fprintf(&b, "Total crew: %d | Base wages: $%.2f/hr\n", c.crew.Size(), c.crew.HourlyWages())
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Employer Burden:")
	fmt.Fprintf(&b, "  FICA (SS + Medicare):  %.2f%%\n", c.burden.FICA*100)
	fmt.Fprintf(&b, "  SUTA (state):          %.2f%%\n", c.burden.SUTA*100)
	fmt.Fprintf(&b, "  FUTA (federal):        %.2f%%\n", c.burden.FUTA*100)
	fmt.Fprintf(&b, "  Workers' Comp:         %.1f%%\n", c.burden.WorkersComp*100)
	fmt.Fprintf(&b, "  Total burden:          %.2f%%\n", c.burden.Total()*100)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Burdened Hourly Cost:")
	fmt.Fprintf(&b, "  Tech:       $%.2f x %.4f = $%.2f/hr\n", c.crew.TechWage, factor, c.BurdenedTechCost())
	fmt.Fprintf(&b, "  Supervisor: $%.2f x %.4f = $%.2f/hr\n", c.crew.SupervisorWage, factor, c.BurdenedSupervisorCost())
	fmt.Fprintf(&b, "  Crew total: $%.2f/hr (%d people)\n", c.CrewCostPerHour(), c.crew.Size())
	fmt.Fprintf(&b, "  Blended:    $%.2f/hr per person\n", c.BlendedCostPerPerson())
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Target margin: %.0f%%\n", margin*100)
	fmt.Fprintf(&b, "Required billing rate: $%.2f/hr per person\n", target)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Rate Comparison:")
	fmt.Fprintf(&b, "  Reference LAB:  $%.2f/hr -> %.1f%% margin\n", ReferenceLaborRate, c.MarginAtRate(ReferenceLaborRate)*100)
	fmt.Fprintf(&b, "  Reference LABS: $%.2f/hr -> %.1f%% margin\n", ReferenceSupervisorRate, c.MarginAtRate(ReferenceSupervisorRate)*100)
	fmt.Fprintf(&b, "  Target rate:    $%.2f/hr -> %.0f%% margin", target, margin*100)

	return b.String(), nil
}
