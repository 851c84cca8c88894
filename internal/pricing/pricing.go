// Package pricing resolves unit costs for estimate line items against a
// historical price reference and totals the estimate.
package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/packout/internal/apperrors"
)

// CostSource records where a line's unit cost came from.
type CostSource string

const (
	SourceReference  CostSource = "reference"
	SourceOverride   CostSource = "override"
	SourceDiscounted CostSource = "discounted"
	SourceNotFound   CostSource = "not_found"
)

const (
	// DeviationLimitPct is how far a manual unit cost may stray from the
	// reference median before it is flagged.
	DeviationLimitPct = 20.0
	// DefaultPackBackDiscount is the pack-back rate reduction on packed boxes.
	DefaultPackBackDiscount = 0.14
)

// PricedLine is a LineItem with its resolved cost, totals and any flag.
type PricedLine struct {
	LineItem
	AppliedUnitCost float64    `json:"applied_unit_cost"`
	RCV             float64    `json:"rcv"`
	Tax             float64    `json:"tax"`
	RCVWithTax      float64    `json:"rcv_with_tax"`
	CostSource      CostSource `json:"cost_source"`
	Match           string     `json:"match"`
	ReferenceMedian float64    `json:"reference_median,omitempty"`
	DeviationPct    float64    `json:"deviation_pct"`
	Flagged         bool       `json:"flagged"`
	FlagReason      string     `json:"flag_reason,omitempty"`
}

// Flag is a priced line that needs a human look.
type Flag struct {
	Description  string  `json:"desc"`
	Phase        Phase   `json:"phase,omitempty"`
	Reason       string  `json:"reason"`
	UnitCost     float64 `json:"unit_cost"`
	DeviationPct float64 `json:"deviation_pct"`
}

// Result is a priced estimate. SubtotalRCV is the exact cent sum of line RCVs.
type Result struct {
	Lines        []PricedLine `json:"line_items"`
	SubtotalRCV  float64      `json:"subtotal_rcv"`
	TotalTax     float64      `json:"total_tax"`
	TotalWithTax float64      `json:"total_rcv_with_tax"`
	Flags        []Flag       `json:"flags,omitempty"`
	Missing      []string     `json:"missing_items,omitempty"`
}

// Items returns the unpriced line items in estimate order.
func (r Result) Items() []LineItem {
	out := make([]LineItem, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = l.LineItem
	}
	return out
}

// PhaseTotal is the RCV of one estimate phase.
type PhaseTotal struct {
	Phase Phase   `json:"phase"`
	RCV   float64 `json:"rcv"`
}

// PhaseTotals sums RCV per phase in order of first appearance.
func (r Result) PhaseTotals() []PhaseTotal {
	var out []PhaseTotal
	idx := make(map[Phase]int)
	sums := make(map[Phase]decimal.Decimal)
	for _, l := range r.Lines {
		if _, ok := idx[l.Phase]; !ok {
			idx[l.Phase] = len(out)
			out = append(out, PhaseTotal{Phase: l.Phase})
		}
		sums[l.Phase] = sums[l.Phase].Add(decimal.NewFromFloat(l.RCV))
	}
	for i, pt := range out {
		out[i].RCV = sums[pt.Phase].InexactFloat64()
	}
	return out
}

// Policy carries pricing adjustments that depend on where a line sits in the
// estimate rather than on the line itself.
type Policy struct {
	// PackBackDiscount reduces the reference price of packed-box lines in the
	// pack-back phase. Zero means no discount.
	PackBackDiscount float64 `json:"pack_back_discount"`
}

func (p Policy) validate() error {
	if p.PackBackDiscount < 0 || p.PackBackDiscount >= 1 || math.IsNaN(p.PackBackDiscount) {
		return fmt.Errorf("pack-back discount %v outside [0,1): %w", p.PackBackDiscount, apperrors.ErrInvalidInput)
	}
	return nil
}

// Engine prices line items against a reference table.
type Engine struct {
	table   *Table
	taxRate float64
}

// NewEngine returns an Engine over table that adds taxRate on every line's
// RCV. A nil table or a negative rate is rejected.
func NewEngine(table *Table, taxRate float64) (*Engine, error) {
	if table == nil {
		return nil, fmt.Errorf("pricing engine requires a reference table: %w", apperrors.ErrInvalidInput)
	}
	if taxRate < 0 || math.IsNaN(taxRate) {
		return nil, fmt.Errorf("tax rate %v: %w", taxRate, apperrors.ErrInvalidInput)
	}
	return &Engine{table: table, taxRate: taxRate}, nil
}

func (e *Engine) Table() *Table    { return e.table }
func (e *Engine) TaxRate() float64 { return e.taxRate }

// PriceLine resolves one item's unit cost and computes its RCV and tax.
func (e *Engine) PriceLine(item LineItem, policy Policy) (PricedLine, error) {
	if err := policy.validate(); err != nil {
		return PricedLine{}, err
	}
	if item.Quantity < 0 || math.IsNaN(item.Quantity) {
		return PricedLine{}, fmt.Errorf("quantity %v for %q: %w", item.Quantity, item.Description, apperrors.ErrInvalidInput)
	}
	if item.UnitCost != nil && *item.UnitCost < 0 {
		return PricedLine{}, fmt.Errorf("unit cost %v for %q: %w", *item.UnitCost, item.Description, apperrors.ErrInvalidInput)
	}

	item.Kind = item.ResolvedKind()
	match := e.table.Find(item.Description)
	line := PricedLine{LineItem: item, Match: match.Method}
	if match.Found() {
		line.ReferenceMedian = match.Reference.Median
	}

	switch {
	case item.UnitCost != nil:
		line.AppliedUnitCost = *item.UnitCost
		line.CostSource = SourceOverride
		if match.Found() && match.Reference.Median > 0 {
			median := match.Reference.Median
			line.DeviationPct = math.Round((*item.UnitCost-median)/median*1000) / 10
			if math.Abs(line.DeviationPct) > DeviationLimitPct {
				line.Flagged = true
				line.FlagReason = fmt.Sprintf("Unit cost $%.2f deviates %+.1f%% from reference median $%.2f",
					*item.UnitCost, line.DeviationPct, median)
			}
		}
	case match.Found():
		line.fillFromReference(match.Reference)
		line.AppliedUnitCost = match.Reference.Median
		line.CostSource = SourceReference
		if item.Phase == PhasePackBack && item.Kind.IsPackedBox() && policy.PackBackDiscount > 0 {
			line.AppliedUnitCost = money(decimal.NewFromFloat(match.Reference.Median).
				Mul(decimal.NewFromFloat(1 - policy.PackBackDiscount)))
			line.CostSource = SourceDiscounted
		}
	default:
		line.CostSource = SourceNotFound
		line.Flagged = true
		line.FlagReason = "No pricing reference found for: " + item.Description
	}

	rcv := decimal.NewFromFloat(line.AppliedUnitCost).Mul(decimal.NewFromFloat(item.Quantity)).Round(2)
	tax := rcv.Mul(decimal.NewFromFloat(e.taxRate)).Round(2)
	line.RCV = rcv.InexactFloat64()
	line.Tax = tax.InexactFloat64()
	line.RCVWithTax = rcv.Add(tax).InexactFloat64()

	if item.Quantity == 0 && line.CostSource != SourceNotFound {
		line.Flagged = true
		line.FlagReason = "Zero quantity - template placeholder?"
	}
	return line, nil
}

func (l *PricedLine) fillFromReference(ref Reference) {
	if l.Unit == "" {
		l.Unit = ref.Unit
	}
	if l.Category == "" {
		l.Category = ref.Category
	}
	if l.Selector == "" {
		l.Selector = ref.Selector
	}
	if l.GroupDescription == "" {
		l.GroupDescription = ref.GroupDescription
	}
}

// PriceEstimate prices every item without phase adjustments.
func (e *Engine) PriceEstimate(items []LineItem) (Result, error) {
	return e.price(items, Policy{})
}

// PriceFivePhase prices a phased estimate, discounting pack-back box lines.
func (e *Engine) PriceFivePhase(items []LineItem, packBackDiscount float64) (Result, error) {
	return e.price(items, Policy{PackBackDiscount: packBackDiscount})
}

func (e *Engine) price(items []LineItem, policy Policy) (Result, error) {
	if err := policy.validate(); err != nil {
		return Result{}, err
	}

	res := Result{Lines: make([]PricedLine, 0, len(items))}
	subtotal, tax := decimal.Zero, decimal.Zero
	for _, item := range items {
		line, err := e.PriceLine(item, policy)
		if err != nil {
			return Result{}, err
		}
		res.Lines = append(res.Lines, line)
		subtotal = subtotal.Add(decimal.NewFromFloat(line.RCV))
		tax = tax.Add(decimal.NewFromFloat(line.Tax))

		if line.Flagged {
			res.Flags = append(res.Flags, Flag{
				Description:  line.Description,
				Phase:        line.Phase,
				Reason:       line.FlagReason,
				UnitCost:     line.AppliedUnitCost,
				DeviationPct: line.DeviationPct,
			})
		}
		if line.CostSource == SourceNotFound {
			res.Missing = append(res.Missing, line.Description)
		}
	}

	res.SubtotalRCV = subtotal.InexactFloat64()
	res.TotalTax = tax.InexactFloat64()
	res.TotalWithTax = subtotal.Add(tax).InexactFloat64()
	return res, nil
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
