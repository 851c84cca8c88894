package adjust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/packout/internal/apperrors"
)

func f64(v float64) *float64 { return &v }

func sampleTable() Table {
	return Table{
		Tags: Factor{
			AllEstimates:    Stats{Median: 1.1, Std: f64(0.2), N: 12},
			PostAcquisition: Stats{Median: 1.2, Std: f64(0.1), N: 4},
		},
		Boxes: Factor{
			AllEstimates:    Stats{Median: 1.5, Std: f64(0.4), N: 10},
			PostAcquisition: Stats{Median: 1.3, Std: f64(0.2), N: 2},
		},
		Labor: Factor{
			AllEstimates: Stats{Median: 0.9, N: 8},
		},
		CommonlyAdded: []AddedItem{
			{Desc: "Wardrobe box - w/blanket cover", Frequency: 7},
			{Desc: "Packing paper", Frequency: 5},
			{Desc: "Lamp box", Frequency: 4},
			{Desc: "Mirror carton", Frequency: 2},
		},
	}
}

func TestSelectPolicy(t *testing.T) {
	table := sampleTable()

	recent := table.Tags.Select(true, defaultStd)
	assert.Equal(t, SourcePostAcquisition, recent.Source)
	assert.Equal(t, 1.2, recent.Value)
	assert.InDelta(t, 0.7, recent.Confidence, 1e-9)

	blended := table.Boxes.Select(true, defaultStd)
	assert.Equal(t, SourceBlended, blended.Source)
	assert.InDelta(t, 1.38, blended.Value, 1e-9)
	assert.InDelta(t, 0.28, blended.Std, 1e-9)
	assert.InDelta(t, 0.7, blended.Confidence, 1e-9)

	older := table.Tags.Select(false, defaultStd)
	assert.Equal(t, SourceAllEstimates, older.Source)
	assert.Equal(t, 1.1, older.Value)
	assert.InDelta(t, 0.66, older.Confidence, 1e-9)

	labor := table.Labor.Select(true, laborDefaultStd)
	assert.Equal(t, SourceAllEstimates, labor.Source)
	assert.Equal(t, laborDefaultStd, labor.Std)

	none := Factor{}.Select(true, defaultStd)
	assert.Equal(t, Selected{Value: 1.0, Std: 0.3, Confidence: 0.5, Source: SourceDefault}, none)
}

func TestSelectConfidenceCaps(t *testing.T) {
	many := Factor{
		AllEstimates:    Stats{Median: 1, N: 40},
		PostAcquisition: Stats{Median: 1, N: 20},
	}
	assert.Equal(t, 0.95, many.Select(true, defaultStd).Confidence)
	assert.Equal(t, 0.80, many.Select(false, defaultStd).Confidence)
}

func TestAdjust_RecentEraUsesMedianDirectly(t *testing.T) {
	a := NewAdjuster(Table{
		Tags: Factor{PostAcquisition: Stats{Median: 1.25, N: 5}, AllEstimates: Stats{Median: 2, N: 9}},
		RCV:  Factor{PostAcquisition: Stats{Median: 1.25, N: 3}, AllEstimates: Stats{Median: 2, N: 9}},
	})

	est, err := a.Adjust(Raw{Tags: 100, RCV: 15000}, true)
	require.NoError(t, err)

	assert.Equal(t, 100*1.25, est.Tags.Adjusted)
	assert.Equal(t, 15000*1.25, est.RCV.Adjusted)
}

func TestAdjust_BandsAndNotes(t *testing.T) {
	a := NewAdjuster(sampleTable())

	est, err := a.Adjust(Raw{Tags: 100, Boxes: 150, LaborHours: 60}, true)
	require.NoError(t, err)

	assert.Equal(t, 120.0, est.Tags.Adjusted)
	assert.Equal(t, 110.0, est.Tags.Low)
	assert.Equal(t, 130.0, est.Tags.High)

	assert.Equal(t, 207.0, est.Boxes.Adjusted)
	assert.Equal(t, 54.0, est.Labor.Adjusted)
	assert.Equal(t, 0.0, est.RCV.Adjusted)

	assert.InDelta(t, 0.7, est.Confidence, 1e-9)
	require.Len(t, est.Notes, 3)
	assert.Equal(t, "TAGs typically increase 20% from estimate to final", est.Notes[0])
	assert.Equal(t, "Boxes typically increase 38% from estimate to final", est.Notes[1])
	assert.Equal(t, "Commonly added in finals: Wardrobe box - w/blanket cover; Packing paper; Lamp box", est.Notes[2])
}

func TestAdjust_LowBandFloors(t *testing.T) {
	a := NewAdjuster(Table{
		Tags: Factor{AllEstimates: Stats{Median: 0.6, Std: f64(0.5), N: 6}},
	})

	est, err := a.Adjust(Raw{Tags: 100}, false)
	require.NoError(t, err)

	assert.Equal(t, 50.0, est.Tags.Low, "multiplier floor of 0.5")
	assert.Equal(t, 110.0, est.Tags.High)
	assert.Contains(t, est.Notes[0], "TAGs typically decrease 40%")
}

func TestAdjust_RejectsNegativeInput(t *testing.T) {
	_, err := NewAdjuster(Table{}).Adjust(Raw{Tags: -1}, true)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestFormatReport(t *testing.T) {
	est, err := NewAdjuster(sampleTable()).Adjust(Raw{Tags: 100, Boxes: 150, LaborHours: 60, RCV: 15000}, true)
	require.NoError(t, err)

	out := FormatReport(est)
	assert.Contains(t, out, "ESTIMATE ADJUSTMENT REPORT (Confidence: 70%)")
	assert.Contains(t, out, "Labor Hours")
	assert.Contains(t, out, "RCV")
	assert.Contains(t, out, "Notes:")
}
