package pricing

import (
	"regexp"
	"strings"
)

// Kind identifies what a line item is, independent of its wording.
type Kind string

const (
	KindLabor          Kind = "labor"
	KindSupervisor     Kind = "supervisor"
	KindTag            Kind = "tag"
	KindBoxMedium      Kind = "box_medium"
	KindBoxLarge       Kind = "box_large"
	KindBoxXL          Kind = "box_xl"
	KindPad            Kind = "pad"
	KindBubbleWrap     Kind = "bubble_wrap"
	KindStretchWrap    Kind = "stretch_wrap"
	KindMovingVan      Kind = "moving_van"
	KindStorageVault   Kind = "storage_vault"
	KindStorageClimate Kind = "storage_climate"
	KindDebrisHaul     Kind = "debris_haul"
	KindWardrobeBox    Kind = "wardrobe_box"
	KindPackingPaper   Kind = "packing_paper"
	KindBoxAndTape     Kind = "box_tape"
	KindCleaning       Kind = "cleaning"
	KindOther          Kind = "other"
)

// IsPackedBox reports whether the item is a packed-box service line. Pack-back
// discounts apply only to these.
func (k Kind) IsPackedBox() bool {
	return k == KindBoxMedium || k == KindBoxLarge || k == KindBoxXL
}

// IsStorage reports whether the item bills off-site storage.
func (k Kind) IsStorage() bool {
	return k == KindStorageVault || k == KindStorageClimate
}

// Phase groups line items in a multi-phase estimate.
type Phase string

const (
	PhaseNone                Phase = ""
	PhasePackout             Phase = "Packout"
	PhaseHandlingToStorage   Phase = "Handling to Storage"
	PhaseStorage             Phase = "Storage"
	PhaseHandlingFromStorage Phase = "Handling from Storage"
	PhasePackBack            Phase = "Pack back"
)

// Standard line-item descriptions as they appear on estimates.
const (
	DescLabor          = "Inventory, Packing, Boxing, and Moving charge - per hour"
	DescSupervisor     = "Contents Evaluation and/or Supervisor/Admin - per hour"
	DescTag            = "Evaluate, tag, & inventory miscellaneous - per item"
	DescBoxMedium      = "Eval. pack & invent. misc items - per Med box-high density"
	DescBoxLarge       = "Eval. pack & invent. misc items - per Lg box-high density"
	DescBoxXL          = "Eval. pack & invent. misc items - per Xlg box-high density"
	DescPad            = "Provide furniture lightweight blanket/pad"
	DescBubbleWrap24   = `Bubble wrap - 24" wide - Add-on cost for fragile items`
	DescBubbleWrap48   = `Bubble wrap - 48" wide - Add-on cost for fragile items`
	DescStretchWrap    = `Provide stretch film/wrap - 20" x 1000' roll`
	DescMovingVan      = "Moving van (21'-27') and equipment (per day)"
	DescStorageVault   = "Off-site storage vault (per month)"
	DescStorageClimate = "Off-site storage & insur. - climate control. (per month)"
	DescDebrisHaul     = "Haul debris - per pickup truck load - including dump fees"
	DescWardrobeBox    = "Provide wardrobe box & tape - large size"
	DescPackingPaper   = "Provide box, packing paper & tape - medium size"
	DescBoxAndTape     = "Provide box & tape - medium size"
	DescCleanBox       = "Clean misc items - per Med box"
)

// LineItem is an unpriced estimate line. A nil UnitCost means the price comes
// from the reference table.
type LineItem struct {
	Description      string   `json:"desc"`
	Quantity         float64  `json:"qty"`
	Unit             string   `json:"unit,omitempty"`
	UnitCost         *float64 `json:"unit_cost,omitempty"`
	Category         string   `json:"cat,omitempty"`
	Selector         string   `json:"sel,omitempty"`
	GroupDescription string   `json:"group_desc,omitempty"`
	Kind             Kind     `json:"kind,omitempty"`
	Phase            Phase    `json:"phase,omitempty"`
}

// ResolvedKind returns the item's Kind, classifying the description when the
// item was built without one.
func (li LineItem) ResolvedKind() Kind {
	if li.Kind != "" {
		return li.Kind
	}
	return ClassifyDescription(li.Description)
}

func newItem(kind Kind, desc string, qty float64, unit string, phase Phase) LineItem {
	return LineItem{Description: desc, Quantity: qty, Unit: unit, Kind: kind, Phase: phase}
}

func (li LineItem) withCost(cost float64) LineItem {
	li.UnitCost = &cost
	return li
}

type kindPattern struct {
	kind    Kind
	pattern *regexp.Regexp
}

// More specific patterns come first: "Xlg box-high density" also matches the
// large-box pattern, and packing paper lines mention "box & tape".
var kindPatterns = []kindPattern{
	{KindLabor, regexp.MustCompile(`packing.*boxing.*moving.*per hour|moving charge.*per hour|inventory.*packing.*boxing`)},
	{KindSupervisor, regexp.MustCompile(`supervisor.*admin.*per hour|contents evaluation.*per hour`)},
	{KindTag, regexp.MustCompile(`evaluate.*tag.*inventory|tag.*inventory.*per item`)},
	{KindCleaning, regexp.MustCompile(`clean misc items|clean bric-a-brac|clean.*med box`)},
	{KindBoxXL, regexp.MustCompile(`xlg box|xl box`)},
	{KindBoxLarge, regexp.MustCompile(`lg box.*high density|per lg box`)},
	{KindBoxMedium, regexp.MustCompile(`med box.*high density|per med box`)},
	{KindMovingVan, regexp.MustCompile(`moving van`)},
	{KindStorageClimate, regexp.MustCompile(`storage.*climate|climate control`)},
	{KindStorageVault, regexp.MustCompile(`storage vault|off-site storage`)},
	{KindPad, regexp.MustCompile(`furniture.*blanket.*pad|lightweight blanket`)},
	{KindStretchWrap, regexp.MustCompile(`stretch film|stretch wrap`)},
	{KindBubbleWrap, regexp.MustCompile(`bubble wrap`)},
	{KindDebrisHaul, regexp.MustCompile(`haul debris|dump fee`)},
	{KindWardrobeBox, regexp.MustCompile(`wardrobe box`)},
	{KindPackingPaper, regexp.MustCompile(`packing paper`)},
	{KindBoxAndTape, regexp.MustCompile(`box (&|and) tape`)},
}

// ClassifyDescription derives a Kind from free text. It is used once for lines
// that arrive without a Kind.
func ClassifyDescription(desc string) Kind {
	lower := strings.ToLower(desc)
	for _, kp := range kindPatterns {
		if kp.pattern.MatchString(lower) {
			return kp.kind
		}
	}
	return KindOther
}
