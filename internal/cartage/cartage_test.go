package cartage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/packout/internal/apperrors"
)

func TestCompute_ValidatedJobs(t *testing.T) {
	noMoveTag := DefaultStandards()
	noMoveTag.MoveTagToStorage = 0

	tests := []struct {
		name       string
		in         Input
		tagHours   float64
		boxHours   float64
		crewHours  float64
		general    float64
		supervisor float64
		tolerance  float64
	}{
		{
			name:       "cash estimate",
			in:         Input{DriveTimeMinutes: 33, TruckLoads: 4, CrewSize: 8, CarryTimeMinutes: 10, TagCount: 165, BoxCount: 200},
			tagHours:   79.75,
			boxHours:   23.3333,
			crewHours:  35.2,
			general:    120.998,
			supervisor: 17.285,
			tolerance:  0.01,
		},
		{
			name:       "harmon estimate without move-to-storage",
			in:         Input{DriveTimeMinutes: 48, TruckLoads: 1, CrewSize: 8, CarryTimeMinutes: 7, TagCount: 100, BoxCount: 100, Standards: &noMoveTag},
			tagHours:   35.0,
			boxHours:   10.0,
			crewHours:  12.8,
			general:    50.575,
			supervisor: 7.225,
			tolerance:  0.01,
		},
		{
			name:       "qaqish estimate",
			in:         Input{DriveTimeMinutes: 32, TruckLoads: 2, CrewSize: 7, CarryTimeMinutes: 6, TagCount: 125, BoxCount: 150},
			tagHours:   52.0833,
			boxHours:   14.1667,
			crewHours:  14.9333,
			general:    69.5857,
			supervisor: 11.5976,
			tolerance:  0.02,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compute(tt.in)
			require.NoError(t, err)

			assert.InDelta(t, tt.tagHours, res.TagHours, tt.tolerance)
			assert.InDelta(t, tt.boxHours, res.BoxHours, tt.tolerance)
			assert.InDelta(t, tt.crewHours, res.CrewHours, tt.tolerance)
			assert.InDelta(t, tt.general, res.GeneralLaborHours, tt.tolerance)
			assert.InDelta(t, tt.supervisor, res.SupervisorHours, tt.tolerance)
		})
	}
}

func TestCompute_CashFinalAndHarmonGarage(t *testing.T) {
	final, err := Compute(Input{DriveTimeMinutes: 33, TruckLoads: 4, CrewSize: 8, CarryTimeMinutes: 10, TagCount: 202, BoxCount: 188})
	require.NoError(t, err)
	assert.InDelta(t, 135.4208, final.GeneralLaborHours, 0.01)
	assert.InDelta(t, 19.3458, final.SupervisorHours, 0.01)

	std := DefaultStandards()
	std.MoveTagToStorage = 0
	garage, err := Compute(Input{DriveTimeMinutes: 48, TruckLoads: 1, CrewSize: 3, CarryTimeMinutes: 5, TagCount: 59, BoxCount: 15, Standards: &std})
	require.NoError(t, err)
	assert.InDelta(t, 16.5444, garage.GeneralLaborHours, 0.01)
	assert.InDelta(t, 8.2722, garage.SupervisorHours, 0.01)
}

func TestCompute_ZeroCrewPutsEverythingInGeneralLabor(t *testing.T) {
	res, err := Compute(Input{DriveTimeMinutes: 20, TruckLoads: 2, CrewSize: 0, CarryTimeMinutes: 5, TagCount: 40, BoxCount: 60})
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.SupervisorHours)
	assert.Equal(t, res.TotalHours, res.GeneralLaborHours)
	assert.Equal(t, 0.0, res.CrewHours)
}

func TestCompute_TotalIsSumOfComponents(t *testing.T) {
	inputs := []Input{
		{DriveTimeMinutes: 33, TruckLoads: 4, CrewSize: 8, CarryTimeMinutes: 10, TagCount: 165, BoxCount: 200},
		{DriveTimeMinutes: 17.5, TruckLoads: 3, CrewSize: 5, CarryTimeMinutes: 3.25, TagCount: 71, BoxCount: 149},
		{DriveTimeMinutes: 0, TruckLoads: 0, CrewSize: 1, CarryTimeMinutes: 0, TagCount: 0, BoxCount: 0},
		{DriveTimeMinutes: 61, TruckLoads: 1, CrewSize: 6, CarryTimeMinutes: 11, TagCount: 1, BoxCount: 1},
	}

	for _, in := range inputs {
		res, err := Compute(in)
		require.NoError(t, err)
		assert.Equal(t, res.TagHours+res.BoxHours+res.CrewHours, res.TotalHours)
	}

	for _, drive := range []float64{0, 12.5, 33, 47} {
		for _, carry := range []float64{0, 3.25, 7, 10} {
			for crew := 0; crew <= 8; crew += 4 {
				for tags := 0; tags <= 300; tags += 37 {
					in := Input{DriveTimeMinutes: drive, TruckLoads: 3, CrewSize: crew, CarryTimeMinutes: carry, TagCount: tags, BoxCount: tags * 2}
					res, err := Compute(in)
					require.NoError(t, err)
					require.Equal(t, res.TagHours+res.BoxHours+res.CrewHours, res.TotalHours, "%+v", in)
				}
			}
		}
	}
}

func TestCompute_ZeroCountsYieldZeroComponentHours(t *testing.T) {
	res, err := Compute(Input{DriveTimeMinutes: 30, TruckLoads: 1, CrewSize: 4, CarryTimeMinutes: 6})
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.TagHours)
	assert.Equal(t, 0.0, res.BoxHours)
	assert.InDelta(t, 4.0, res.CrewHours, 1e-9)
	assert.InDelta(t, 25.0, res.MinutesPerTag, 1e-9)
	assert.InDelta(t, 5.67, res.MinutesPerBox, 1e-9)
}

func TestCompute_RejectsNegativeInput(t *testing.T) {
	bad := []Input{
		{CrewSize: -1},
		{TagCount: -3},
		{BoxCount: -1},
		{TruckLoads: -2},
		{DriveTimeMinutes: -5},
		{CarryTimeMinutes: -1},
		{Standards: &Standards{PadWrapTag: -1}},
	}

	for _, in := range bad {
		_, err := Compute(in)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "%+v", in)
	}
}

func TestComputeTLI(t *testing.T) {
	res, err := ComputeTLI(TLIInput{RoundTripMinutes: 6, SinglePersonLoads: 10, TwoPersonLoads: 5})
	require.NoError(t, err)

	assert.InDelta(t, 120, res.TotalMinutes, 1e-9)
	assert.InDelta(t, 2.0, res.GeneralLaborHours, 1e-9)
	assert.InDelta(t, DefaultSupervisorOwnerHours, res.SupervisorHours, 1e-9)

	owner := 0.75
	res, err = ComputeTLI(TLIInput{RoundTripMinutes: 4, SinglePersonLoads: 1, SupervisorOwnerHours: &owner})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, res.SupervisorHours, 1e-9)

	_, err = ComputeTLI(TLIInput{RoundTripMinutes: -1})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
