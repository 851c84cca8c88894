// Package scope checks an assembled estimate for missing scope elements and
// suggests commonly paired items.
package scope

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Simplici0/packout/internal/pricing"
)

type Severity string

const (
	Critical Severity = "critical"
	Warning  Severity = "warning"
	Info     Severity = "info"
)

// Flag categories.
const (
	CategoryMissingElement = "missing_element"
	CategoryZeroQuantity   = "zero_qty"
	CategoryMissingPhase   = "missing_phase"
)

const (
	startScore      = 100
	criticalPenalty = 15
	warningPenalty  = 5
	zeroQtyPenalty  = 2
)

type Flag struct {
	Severity Severity `json:"severity"`
	Category string   `json:"category"`
	Message  string   `json:"message"`
}

// Suggestion is an item commonly present on jobs of this size.
type Suggestion struct {
	Description string `json:"desc"`
	Quantity    int    `json:"suggested_qty"`
	Reason      string `json:"reason"`
}

// Context describes the job behind the estimate.
type Context struct {
	TagCount           int  `json:"tag_count"`
	BoxCount           int  `json:"box_count"`
	HasBedroom         bool `json:"has_bedroom"`
	HasKitchenOrDining bool `json:"has_kitchen_or_dining"`
}

// Result is the completeness report. Score starts at 100 and never drops below 0.
type Result struct {
	Score         int          `json:"score"`
	Flags         []Flag       `json:"flags"`
	MissingPhases []string     `json:"missing_phases,omitempty"`
	PhasesPresent []string     `json:"phases_present,omitempty"`
	Suggestions   []Suggestion `json:"suggested_additions,omitempty"`
}

// Count returns the number of flags at severity.
func (r Result) Count(sev Severity) int {
	n := 0
	for _, f := range r.Flags {
		if f.Severity == sev {
			n++
		}
	}
	return n
}

// Element is a scope element most packout estimates carry.
type Element struct {
	ID       string
	Kinds    []pricing.Kind
	Severity Severity
	Message  string
}

// RequiredElements lists the elements checked on every estimate.
var RequiredElements = []Element{
	{"packing_labor", []pricing.Kind{pricing.KindLabor}, Critical, "Missing packing labor (CPS LAB)"},
	{"supervisor", []pricing.Kind{pricing.KindSupervisor}, Critical, "Missing supervisor hours (CPS LABS)"},
	{"tag_inventory", []pricing.Kind{pricing.KindTag}, Critical, "Missing TAG item inventory line"},
	{"box_packing", []pricing.Kind{pricing.KindBoxMedium}, Critical, "Missing box packing line (med box high density)"},
	{"moving_van", []pricing.Kind{pricing.KindMovingVan}, Critical, "Missing moving van rental"},
	{"storage", []pricing.Kind{pricing.KindStorageVault, pricing.KindStorageClimate}, Warning, "Missing storage: most packouts need at least 3 months"},
	{"furniture_pads", []pricing.Kind{pricing.KindPad}, Warning, "Missing furniture pads/blankets"},
	{"stretch_wrap", []pricing.Kind{pricing.KindStretchWrap}, Warning, "Missing stretch film/wrap"},
	{"haul_debris", []pricing.Kind{pricing.KindDebrisHaul}, Warning, "Missing debris haul"},
}

var packBackPattern = regexp.MustCompile(`unpack.*invent|unpack.*reset|packback|pack back`)

type inventory struct {
	kinds  map[pricing.Kind]bool
	phases map[pricing.Phase]bool
	text   string
}

func (inv inventory) hasAny(kinds ...pricing.Kind) bool {
	for _, k := range kinds {
		if inv.kinds[k] {
			return true
		}
	}
	return false
}

func takeInventory(items []pricing.LineItem) inventory {
	inv := inventory{kinds: make(map[pricing.Kind]bool), phases: make(map[pricing.Phase]bool)}
	descs := make([]string, 0, len(items))
	for _, it := range items {
		inv.kinds[it.ResolvedKind()] = true
		inv.phases[it.Phase] = true
		descs = append(descs, strings.ToLower(it.Description))
	}
	inv.text = strings.Join(descs, " | ")
	return inv
}

// Check scores an estimate's completeness. Items without a Kind are
// classified from their description.
func Check(items []pricing.LineItem, ctx Context) Result {
	inv := takeInventory(items)
	res := Result{Score: startScore}

	for _, el := range RequiredElements {
		if inv.hasAny(el.Kinds...) {
			continue
		}
		res.Flags = append(res.Flags, Flag{Severity: el.Severity, Category: CategoryMissingElement, Message: el.Message})
		if el.Severity == Critical {
			res.Score -= criticalPenalty
		} else {
			res.Score -= warningPenalty
		}
	}

	for _, it := range items {
		if it.Quantity == 0 && it.Description != "" {
			res.Flags = append(res.Flags, Flag{
				Severity: Warning,
				Category: CategoryZeroQuantity,
				Message:  "Zero quantity: " + truncate(it.Description, 60),
			})
			res.Score -= zeroQtyPenalty
		}
	}

	phases := []struct {
		name    string
		present bool
		flag    *Flag
	}{
		{"packout", inv.phases[pricing.PhasePackout] || inv.hasAny(pricing.KindLabor, pricing.KindTag),
			&Flag{Critical, CategoryMissingPhase, "No packout scope found"}},
		{"storage", inv.phases[pricing.PhaseStorage] || inv.hasAny(pricing.KindStorageVault, pricing.KindStorageClimate),
			&Flag{Warning, CategoryMissingPhase, "No storage scope: 86% of packouts include storage"}},
		{"packback", inv.phases[pricing.PhasePackBack] || packBackPattern.MatchString(inv.text), nil},
		{"cleaning", inv.hasAny(pricing.KindCleaning),
			&Flag{Info, CategoryMissingPhase, "No cleaning scope: only 14% of estimates include cleaning (commonly added later as supplement)"}},
	}
	for _, p := range phases {
		switch {
		case p.present:
			res.PhasesPresent = append(res.PhasesPresent, p.name)
		case p.flag != nil:
			res.MissingPhases = append(res.MissingPhases, p.name)
			res.Flags = append(res.Flags, *p.flag)
		}
	}

	res.Suggestions = suggest(inv, ctx)
	res.Score = max(0, res.Score)
	return res
}

func suggest(inv inventory, ctx Context) []Suggestion {
	var out []Suggestion

	switch {
	case inv.hasAny(pricing.KindWardrobeBox):
	case ctx.TagCount > 50:
		out = append(out, Suggestion{
			Description: pricing.DescWardrobeBox,
			Quantity:    max(2, ctx.TagCount/20),
			Reason:      fmt.Sprintf("Large job (%d TAGs): wardrobe boxes commonly needed", ctx.TagCount),
		})
	case ctx.HasBedroom:
		out = append(out, Suggestion{
			Description: pricing.DescWardrobeBox,
			Quantity:    4,
			Reason:      "Bedrooms present: wardrobe boxes commonly needed for hanging clothes",
		})
	}

	if ctx.BoxCount > 100 && !inv.hasAny(pricing.KindPackingPaper) {
		out = append(out, Suggestion{
			Description: pricing.DescPackingPaper,
			Quantity:    max(5, ctx.BoxCount/20),
			Reason:      fmt.Sprintf("%d boxes: packing paper commonly needed", ctx.BoxCount),
		})
	}

	if ctx.BoxCount > 50 && !inv.hasAny(pricing.KindBoxLarge) {
		out = append(out, Suggestion{
			Description: pricing.DescBoxLarge,
			Quantity:    max(1, ctx.BoxCount/20),
			Reason:      "Large boxes commonly needed for oversized items",
		})
	}

	if ctx.HasKitchenOrDining && !inv.hasAny(pricing.KindBubbleWrap) {
		out = append(out, Suggestion{
			Description: pricing.DescBubbleWrap24,
			Quantity:    max(50, ctx.BoxCount*3),
			Reason:      "Kitchen or dining room present: fragile items need bubble wrap",
		})
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// FormatReport renders the scope check as plain text.
func FormatReport(res Result) string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "SCOPE CHECK REPORT - Score: %d/100\n", res.Score)
	fmt.Fprint(&b, rule)

	sections := []struct {
		sev    Severity
		title  string
		marker string
	}{
		{Critical, "CRITICAL", "[!]"},
		{Warning, "WARNINGS", "[?]"},
		{Info, "INFO", "[i]"},
	}
	for _, s := range sections {
		n := res.Count(s.sev)
		if n == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n\n%s (%d):", s.title, n)
		for _, f := range res.Flags {
			if f.Severity == s.sev {
				fmt.Fprintf(&b, "\n  %s %s", s.marker, f.Message)
			}
		}
	}

	if len(res.MissingPhases) > 0 {
		fmt.Fprintf(&b, "\n\nMISSING PHASES: %s", strings.Join(res.MissingPhases, ", "))
	}
	if len(res.Suggestions) > 0 {
		fmt.Fprint(&b, "\n\nSUGGESTED ADDITIONS:")
		for _, s := range res.Suggestions {
			fmt.Fprintf(&b, "\n  + %s (qty: %d)\n    Reason: %s", s.Description, s.Quantity, s.Reason)
		}
	}

	switch {
	case res.Score >= 90:
		fmt.Fprint(&b, "\n\nScope looks complete.")
	case res.Score >= 70:
		fmt.Fprint(&b, "\n\nScope is mostly complete: review warnings above.")
	default:
		fmt.Fprint(&b, "\n\nScope has significant gaps: review critical items above.")
	}
	return b.String()
}
