// Package adjust applies historical estimate-to-final correction factors to
// an initial estimate and reports a plausible range around each figure.
package adjust

import (
	"fmt"
	"math"
	"strings"

	"github.com/Simplici0/packout/internal/apperrors"
)

// Raw are the unadjusted figures. Zero labor or RCV means not provided.
type Raw struct {
	Tags       float64 `json:"tags"`
	Boxes      float64 `json:"boxes"`
	LaborHours float64 `json:"labor_hours"`
	RCV        float64 `json:"rcv"`
}

// Band is one adjusted figure with its low and high bounds.
type Band struct {
	Raw      float64  `json:"raw"`
	Adjusted float64  `json:"adjusted"`
	Low      float64  `json:"low"`
	High     float64  `json:"high"`
	Factor   Selected `json:"factor"`
}

// Estimate is the adjusted estimate. Confidence is the weaker of the TAG and
// box confidences.
type Estimate struct {
	Tags       Band     `json:"tags"`
	Boxes      Band     `json:"boxes"`
	Labor      Band     `json:"labor"`
	RCV        Band     `json:"rcv"`
	Confidence float64  `json:"confidence"`
	Notes      []string `json:"notes,omitempty"`
}

// Adjuster holds a loaded correction-factor table.
type Adjuster struct {
	table Table
}

// NewAdjuster returns an Adjuster over table.
func NewAdjuster(table Table) *Adjuster {
	return &Adjuster{table: table}
}

func (a *Adjuster) Table() Table { return a.table }

const laborDefaultStd = 0.2

// Adjust scales raw figures by the selected multipliers. Counts round to whole
// items, labor to a tenth of an hour and RCV to cents.
func (a *Adjuster) Adjust(raw Raw, recentEra bool) (Estimate, error) {
	for name, v := range map[string]float64{"tags": raw.Tags, "boxes": raw.Boxes, "labor hours": raw.LaborHours, "rcv": raw.RCV} {
		if v < 0 || math.IsNaN(v) {
			return Estimate{}, fmt.Errorf("raw %s %v: %w", name, v, apperrors.ErrInvalidInput)
		}
	}

	tagF := a.table.Tags.Select(recentEra, defaultStd)
	boxF := a.table.Boxes.Select(recentEra, defaultStd)
	laborF := a.table.Labor.Select(recentEra, laborDefaultStd)
	rcvF := a.table.RCV.Select(recentEra, defaultStd)

	est := Estimate{
		Tags:       band(raw.Tags, tagF, 0),
		Boxes:      band(raw.Boxes, boxF, 0),
		Labor:      band(raw.LaborHours, laborF, 1),
		RCV:        band(raw.RCV, rcvF, 2),
		Confidence: min(tagF.Confidence, boxF.Confidence),
	}

	est.Notes = append(est.Notes, trendNote("TAGs", tagF.Value)...)
	est.Notes = append(est.Notes, trendNote("Boxes", boxF.Value)...)
	if len(a.table.CommonlyAdded) > 0 {
		top := make([]string, 0, 3)
		for _, item := range a.table.CommonlyAdded[:min(3, len(a.table.CommonlyAdded))] {
			top = append(top, truncate(item.Desc, 50))
		}
		est.Notes = append(est.Notes, "Commonly added in finals: "+strings.Join(top, "; "))
	}
	return est, nil
}

func band(raw float64, f Selected, places int) Band {
	return Band{
		Raw:      raw,
		Adjusted: roundTo(raw*f.Value, places),
		Low:      math.Max(0, roundTo(raw*math.Max(0.5, f.Value-f.Std), places)),
		High:     roundTo(raw*(f.Value+f.Std), places),
		Factor:   f,
	}
}

func trendNote(label string, factor float64) []string {
	switch {
	case factor > 1.05:
		return []string{fmt.Sprintf("%s typically increase %.0f%% from estimate to final", label, (factor-1)*100)}
	case factor < 0.95:
		return []string{fmt.Sprintf("%s typically decrease %.0f%% from estimate to final", label, (1-factor)*100)}
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}

// FormatReport renders the adjustment as a fixed-width text table.
func FormatReport(est Estimate) string {
	rule := strings.Repeat("=", 60)

	var b strings.Builder
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "ESTIMATE ADJUSTMENT REPORT (Confidence: %.0f%%)\n", est.Confidence*100)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "%-20s %10s %10s %10s %10s\n", "Metric", "Initial", "Adjusted", "Low", "High")
	fmt.Fprintln(&b, strings.Repeat("-", 62))
	fmt.Fprintf(&b, "%-20s %10.0f %10.0f %10.0f %10.0f\n", "TAGs", est.Tags.Raw, est.Tags.Adjusted, est.Tags.Low, est.Tags.High)
	fmt.Fprintf(&b, "%-20s %10.0f %10.0f %10.0f %10.0f", "Boxes", est.Boxes.Raw, est.Boxes.Adjusted, est.Boxes.Low, est.Boxes.High)
	if est.Labor.Raw > 0 {
		fmt.Fprintf(&b, "\n%-20s %10.1f %10.1f %10.1f %10.1f", "Labor Hours", est.Labor.Raw, est.Labor.Adjusted, est.Labor.Low, est.Labor.High)
	}
	if est.RCV.Raw > 0 {
		fmt.Fprintf(&b, "\n%-20s $%9.0f $%9.0f $%9.0f $%9.0f", "RCV", est.RCV.Raw, est.RCV.Adjusted, est.RCV.Low, est.RCV.High)
	}
	if len(est.Notes) > 0 {
		fmt.Fprint(&b, "\n\nNotes:")
		for _, note := range est.Notes {
			fmt.Fprintf(&b, "\n  - %s", note)
		}
	}
	return b.String()
}
