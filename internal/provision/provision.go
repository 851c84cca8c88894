// Package provision derives storage vault and furniture pad quantities from
// TAG and box counts.
package provision

import (
	"fmt"
	"math"

	"github.com/Simplici0/packout/internal/apperrors"
)

const (
	boxesPerVault = 60
	tagsPerVault  = 20
	itemsPerVault = 50
)

// Vault estimation methods.
const (
	MethodComponent = "component"
	MethodCapacity  = "capacity"
	MethodManual    = "manual"
)

// Vaults is the outcome of vault derivation.
type Vaults struct {
	Total          int    `json:"total"`
	BoxVaults      int    `json:"box_vaults"`
	TagVaults      int    `json:"tag_vaults"`
	CapacityVaults int    `json:"capacity_vaults"`
	Method         string `json:"method"`
}

// DeriveVaults estimates storage vaults two ways and keeps the lower figure,
// since an estimator can always add vaults by hand. Ties report the component
// method. At least one vault is always returned.
func DeriveVaults(tags, boxes int) (Vaults, error) {
	if tags < 0 || boxes < 0 {
		return Vaults{}, fmt.Errorf("vault derivation with %d tags, %d boxes: %w", tags, boxes, apperrors.ErrInvalidInput)
	}

	boxVaults := ceilDiv(boxes, boxesPerVault)
	tagVaults := ceilDiv(tags, tagsPerVault)
	component := boxVaults + tagVaults
	capacity := ceilDiv(tags+boxes, itemsPerVault)

	method := MethodComponent
	if component > capacity {
		method = MethodCapacity
	}

	return Vaults{
		Total:          max(1, min(component, capacity)),
		BoxVaults:      boxVaults,
		TagVaults:      tagVaults,
		CapacityVaults: capacity,
		Method:         method,
	}, nil
}

// ManualVaults records an estimator's explicit vault count.
func ManualVaults(n int) (Vaults, error) {
	if n < 1 {
		return Vaults{}, fmt.Errorf("vault count %d: %w", n, apperrors.ErrInvalidInput)
	}
	return Vaults{Total: n, Method: MethodManual}, nil
}

func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}

// Pad ratio anchors: a modest home and a luxury home.
const (
	modestTags   = 31
	modestRatio  = 0.645
	luxuryTags   = 84
	luxuryRatio  = 1.226
	maxPadRatio  = 1.25
	minPadsTotal = 1
)

// PadRatio returns furniture pads per TAG, interpolated between the two anchors.
func PadRatio(tags int) float64 {
	var ratio float64
	switch {
	case tags <= modestTags:
		ratio = modestRatio
	case tags >= luxuryTags:
		ratio = luxuryRatio
	default:
		ratio = modestRatio + float64(tags-modestTags)/float64(luxuryTags-modestTags)*(luxuryRatio-modestRatio)
	}
	return math.Min(ratio, maxPadRatio)
}

// DerivePads returns the pad count for a job. A non-nil override is used as is.
func DerivePads(tags int, override *int) (int, error) {
	if override != nil {
		if *override < 0 {
			return 0, fmt.Errorf("pad override %d: %w", *override, apperrors.ErrInvalidInput)
		}
		return *override, nil
	}
	if tags < 0 {
		return 0, fmt.Errorf("pad derivation with %d tags: %w", tags, apperrors.ErrInvalidInput)
	}
	if tags == 0 {
		return minPadsTotal, nil
	}
	return max(minPadsTotal, int(math.RoundToEven(float64(tags)*PadRatio(tags)))), nil
}
