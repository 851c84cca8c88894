package rooms

// Counts maps a density tier to an expected count.
type Counts map[Density]int

func tiers(light, medium, heavy, veryHeavy int) Counts {
	return Counts{Light: light, Medium: medium, Heavy: heavy, VeryHeavy: veryHeavy}
}

// Baseline is the expected TAG and box count for one room category.
type Baseline struct {
	TypicalTags  Counts   `json:"typical_tags" yaml:"typical_tags"`
	TypicalBoxes Counts   `json:"typical_boxes" yaml:"typical_boxes"`
	CommonTags   []string `json:"common_tags,omitempty" yaml:"common_tags,omitempty"`
}

// Baselines is the room-type baseline table. It is read-only once built.
type Baselines map[Category]Baseline

const (
	defaultLookupTags  = 5
	defaultLookupBoxes = 6
)

func (b Baselines) row(cat Category) (Baseline, bool) {
	if row, ok := b[cat]; ok {
		return row, true
	}
	row, ok := b[Other]
	return row, ok
}

// Tags returns the expected TAG count, falling back to the "other" row for an
// unknown category.
func (b Baselines) Tags(cat Category, d Density) int {
	row, ok := b.row(cat)
	if !ok {
		return defaultLookupTags
	}
	if n, ok := row.TypicalTags[d]; ok {
		return n
	}
	return defaultLookupTags
}

// Boxes returns the expected box count, falling back like Tags.
func (b Baselines) Boxes(cat Category, d Density) int {
	row, ok := b.row(cat)
	if !ok {
		return defaultLookupBoxes
	}
	if n, ok := row.TypicalBoxes[d]; ok {
		return n
	}
	return defaultLookupBoxes
}

// DefaultBaselines returns the built-in baseline table.
func DefaultBaselines() Baselines {
	return Baselines{
		Kitchen: {
			TypicalTags:  tiers(4, 6, 9, 12),
			TypicalBoxes: tiers(15, 25, 40, 55),
			CommonTags:   []string{"refrigerator", "dining table", "bar stools", "microwave"},
		},
		LivingRoom: {
			TypicalTags:  tiers(8, 12, 16, 22),
			TypicalBoxes: tiers(4, 8, 14, 20),
			CommonTags:   []string{"sofa", "loveseat", "coffee table", "tv", "end table", "lamp"},
		},
		DiningRoom: {
			TypicalTags:  tiers(6, 9, 12, 15),
			TypicalBoxes: tiers(3, 6, 10, 14),
			CommonTags:   []string{"dining table", "dining chair", "china cabinet", "buffet"},
		},
		Bedroom: {
			TypicalTags:  tiers(6, 9, 12, 16),
			TypicalBoxes: tiers(6, 10, 16, 24),
			CommonTags:   []string{"bed frame", "mattress", "dresser", "nightstand"},
		},
		BedroomPrimary: {
			TypicalTags:  tiers(8, 11, 15, 20),
			TypicalBoxes: tiers(10, 16, 25, 35),
			CommonTags:   []string{"king bed", "mattress", "dresser", "armoire", "nightstand"},
		},
		BedroomGuest: {
			TypicalTags:  tiers(5, 7, 10, 13),
			TypicalBoxes: tiers(4, 8, 12, 18),
			CommonTags:   []string{"queen bed", "mattress", "nightstand"},
		},
		BedroomKids: {
			TypicalTags:  tiers(6, 9, 12, 15),
			TypicalBoxes: tiers(8, 12, 18, 26),
			CommonTags:   []string{"twin bed", "desk", "toy chest", "bookshelf"},
		},
		Bathroom: {
			TypicalTags:  tiers(1, 2, 3, 4),
			TypicalBoxes: tiers(3, 5, 8, 12),
			CommonTags:   []string{"vanity stool", "wall mirror"},
		},
		Closet: {
			TypicalTags:  tiers(1, 2, 3, 4),
			TypicalBoxes: tiers(8, 15, 25, 35),
			CommonTags:   []string{"shelving unit", "shoe rack"},
		},
		Office: {
			TypicalTags:  tiers(4, 7, 10, 14),
			TypicalBoxes: tiers(8, 14, 22, 30),
			CommonTags:   []string{"desk", "office chair", "filing cabinet", "bookshelf"},
		},
		Garage: {
			TypicalTags:  tiers(6, 12, 20, 30),
			TypicalBoxes: tiers(10, 20, 35, 50),
			CommonTags:   []string{"workbench", "tool chest", "bicycle", "freezer", "shelving unit"},
		},
		Laundry: {
			TypicalTags:  tiers(1, 2, 3, 4),
			TypicalBoxes: tiers(2, 4, 6, 9),
			CommonTags:   []string{"washer", "dryer"},
		},
		Hallway: {
			TypicalTags:  tiers(2, 3, 5, 7),
			TypicalBoxes: tiers(1, 2, 4, 6),
			CommonTags:   []string{"console table", "wall art"},
		},
		Exterior: {
			TypicalTags:  tiers(3, 6, 10, 14),
			TypicalBoxes: tiers(1, 3, 5, 8),
			CommonTags:   []string{"patio table", "patio chair", "grill"},
		},
		Basement: {
			TypicalTags:  tiers(6, 10, 16, 22),
			TypicalBoxes: tiers(10, 18, 30, 42),
			CommonTags:   []string{"sectional", "treadmill", "storage shelving"},
		},
		Other: {
			TypicalTags:  tiers(3, 5, 8, 11),
			TypicalBoxes: tiers(4, 6, 10, 14),
		},
	}
}

// Allocations are the box counts added for storage a walk-through cannot see.
type Allocations struct {
	Closet map[Category]Counts `json:"closet" yaml:"closet"`
	Pantry Counts              `json:"pantry" yaml:"pantry"`
}

const (
	defaultClosetBoxes = 6
	defaultPantryBoxes = 5
)

// DefaultAllocations returns the closet and pantry allocation tables.
func DefaultAllocations() Allocations {
	return Allocations{
		Closet: map[Category]Counts{
			BedroomPrimary: tiers(5, 15, 25, 35),
			Bedroom:        tiers(3, 8, 15, 22),
			BedroomGuest:   tiers(3, 6, 12, 18),
			BedroomKids:    tiers(3, 10, 18, 28),
		},
		Pantry: tiers(2, 5, 10, 15),
	}
}

func (a Allocations) hasCloset(cat Category) bool {
	_, ok := a.Closet[cat]
	return ok
}

// closet returns the closet allocation; fallback is used when the tier is absent.
func (a Allocations) closet(cat Category, d Density, fallback int) int {
	if n, ok := a.Closet[cat][d]; ok {
		return n
	}
	return fallback
}

func (a Allocations) pantry(d Density) int {
	if n, ok := a.Pantry[d]; ok {
		return n
	}
	return defaultPantryBoxes
}
