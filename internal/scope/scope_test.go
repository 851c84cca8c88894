package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/packout/internal/pricing"
)

func completeItems(t *testing.T) []pricing.LineItem {
	t.Helper()
	items, err := pricing.BuildStandard(pricing.StandardInput{
		Tags: 40, Boxes: 30, LaborHours: 12, SupervisorHours: 3, StorageMonths: 2, VanDays: 1,
	})
	require.NoError(t, err)
	return append(items, pricing.LineItem{Description: pricing.DescCleanBox, Quantity: 4, Kind: pricing.KindCleaning})
}

func without(items []pricing.LineItem, kind pricing.Kind) []pricing.LineItem {
	var out []pricing.LineItem
	for _, it := range items {
		if it.ResolvedKind() != kind {
			out = append(out, it)
		}
	}
	return out
}

func missingElements(res Result, sev Severity) int {
	n := 0
	for _, f := range res.Flags {
		if f.Severity == sev && f.Category == CategoryMissingElement {
			n++
		}
	}
	return n
}

func TestCheck_CompleteEstimate(t *testing.T) {
	res := Check(completeItems(t), Context{TagCount: 40, BoxCount: 30})

	assert.Equal(t, 100, res.Score)
	assert.Empty(t, res.Flags)
	assert.Empty(t, res.MissingPhases)
	assert.Empty(t, res.Suggestions)
	assert.Equal(t, []string{"packout", "storage", "cleaning"}, res.PhasesPresent)
	assert.Contains(t, FormatReport(res), "Scope looks complete.")
}

func TestCheck_EachMissingElementCostsItsPenalty(t *testing.T) {
	base := Check(completeItems(t), Context{})

	for _, el := range RequiredElements {
		t.Run(el.ID, func(t *testing.T) {
			items := completeItems(t)
			for _, k := range el.Kinds {
				items = without(items, k)
			}
			res := Check(items, Context{})

			penalty := warningPenalty
			if el.Severity == Critical {
				penalty = criticalPenalty
			}
			assert.Equal(t, base.Score-penalty, res.Score)
			assert.Equal(t, missingElements(base, el.Severity)+1, missingElements(res, el.Severity))
			assert.Contains(t, res.Flags, Flag{Severity: el.Severity, Category: CategoryMissingElement, Message: el.Message})
		})
	}
}

func TestCheck_ZeroQuantityLines(t *testing.T) {
	items := completeItems(t)
	items[0].Quantity = 0
	items = append(items, pricing.LineItem{Quantity: 0})

	res := Check(items, Context{})

	assert.Equal(t, 98, res.Score)
	require.Equal(t, 1, res.Count(Warning))
	assert.Equal(t, CategoryZeroQuantity, res.Flags[0].Category)
	assert.Equal(t, "Zero quantity: "+pricing.DescLabor, res.Flags[0].Message)
}

func TestCheck_MissingPhasesDoNotCostPoints(t *testing.T) {
	items := []pricing.LineItem{
		{Description: pricing.DescMovingVan, Quantity: 1},
	}
	res := Check(items, Context{})

	assert.Equal(t, []string{"packout", "storage", "cleaning"}, res.MissingPhases)
	// Four critical and four warning elements missing.
	assert.Equal(t, 100-4*criticalPenalty-4*warningPenalty, res.Score)
	assert.Equal(t, 5, res.Count(Critical))
	assert.Equal(t, 5, res.Count(Warning))
	assert.Equal(t, 1, res.Count(Info))
}

func TestCheck_ScoreFloorsAtZero(t *testing.T) {
	var items []pricing.LineItem
	for range 30 {
		items = append(items, pricing.LineItem{Description: "placeholder", Quantity: 0})
	}
	res := Check(items, Context{})
	assert.Equal(t, 0, res.Score)
	assert.Contains(t, FormatReport(res), "Scope has significant gaps")
}

func TestCheck_FivePhaseEstimateLacksSupervisor(t *testing.T) {
	items, err := pricing.BuildFivePhase(pricing.FivePhaseInput{
		Tags: 84, Boxes: 60, HandlingHours: 12, VanDays: 1, VaultMonths: 6,
	})
	require.NoError(t, err)

	res := Check(items, Context{TagCount: 84, BoxCount: 60})

	assert.Equal(t, 85, res.Score)
	assert.Equal(t, 1, res.Count(Critical))
	assert.Contains(t, res.PhasesPresent, "packback")
	assert.Equal(t, []string{"cleaning"}, res.MissingPhases)
}

func TestCheck_Suggestions(t *testing.T) {
	items := completeItems(t)

	res := Check(items, Context{TagCount: 120, BoxCount: 140})
	require.Len(t, res.Suggestions, 3)
	assert.Equal(t, Suggestion{
		Description: pricing.DescWardrobeBox,
		Quantity:    6,
		Reason:      "Large job (120 TAGs): wardrobe boxes commonly needed",
	}, res.Suggestions[0])
	assert.Equal(t, pricing.DescPackingPaper, res.Suggestions[1].Description)
	assert.Equal(t, 7, res.Suggestions[1].Quantity)
	assert.Equal(t, pricing.DescBoxLarge, res.Suggestions[2].Description)
	assert.Equal(t, 7, res.Suggestions[2].Quantity)

	small := Check(items, Context{TagCount: 55, BoxCount: 60})
	require.Len(t, small.Suggestions, 2)
	assert.Equal(t, 2, small.Suggestions[0].Quantity)
	assert.Equal(t, 3, small.Suggestions[1].Quantity)

	// Suggestions never change the score.
	assert.Equal(t, 100, res.Score)
}

func TestCheck_ContextSuggestions(t *testing.T) {
	items := without(completeItems(t), pricing.KindBubbleWrap)

	res := Check(items, Context{TagCount: 20, BoxCount: 10, HasBedroom: true, HasKitchenOrDining: true})
	require.Len(t, res.Suggestions, 2)
	assert.Equal(t, pricing.DescWardrobeBox, res.Suggestions[0].Description)
	assert.Equal(t, 4, res.Suggestions[0].Quantity)
	assert.Equal(t, pricing.DescBubbleWrap24, res.Suggestions[1].Description)
	assert.Equal(t, 50, res.Suggestions[1].Quantity)

	withWardrobe := append(items, pricing.LineItem{Description: pricing.DescWardrobeBox, Quantity: 2})
	res = Check(withWardrobe, Context{TagCount: 200, HasBedroom: true})
	assert.Empty(t, res.Suggestions)
}

func TestFormatReport(t *testing.T) {
	items := without(completeItems(t), pricing.KindSupervisor)
	res := Check(items, Context{TagCount: 120, BoxCount: 30})

	out := FormatReport(res)
	assert.Contains(t, out, "SCOPE CHECK REPORT - Score: 85/100")
	assert.Contains(t, out, "CRITICAL (1):\n  [!] Missing supervisor hours (CPS LABS)")
	assert.Contains(t, out, "+ "+pricing.DescWardrobeBox+" (qty: 6)")
	assert.Contains(t, out, "Scope is mostly complete")
}
