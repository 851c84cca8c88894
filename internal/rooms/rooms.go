package rooms

import (
	"strings"
)

// Density is a qualitative fullness tier for a room.
type Density string

const (
	Light     Density = "light"
	Medium    Density = "medium"
	Heavy     Density = "heavy"
	VeryHeavy Density = "very_heavy"
)

// Tiers lists densities from emptiest to fullest.
var Tiers = []Density{Light, Medium, Heavy, VeryHeavy}

// ParseDensity normalizes a density label. Unknown or empty labels are Medium.
func ParseDensity(s string) Density {
	d := Density(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Light, Medium, Heavy, VeryHeavy:
		return d
	case "very heavy", "very-heavy":
		return VeryHeavy
	}
	return Medium
}

// Bump returns the next tier up, capped at VeryHeavy.
func (d Density) Bump() Density {
	for i, t := range Tiers {
		if t == d {
			if i+1 < len(Tiers) {
				return Tiers[i+1]
			}
			return VeryHeavy
		}
	}
	return Heavy
}

// Category is a standard room type used to key baselines.
type Category string

const (
	Kitchen        Category = "kitchen"
	LivingRoom     Category = "living_room"
	DiningRoom     Category = "dining_room"
	Bedroom        Category = "bedroom"
	BedroomPrimary Category = "bedroom_primary"
	BedroomGuest   Category = "bedroom_guest"
	BedroomKids    Category = "bedroom_kids"
	Bathroom       Category = "bathroom"
	Closet         Category = "closet"
	Office         Category = "office"
	Garage         Category = "garage"
	Laundry        Category = "laundry"
	Hallway        Category = "hallway"
	Exterior       Category = "exterior"
	Basement       Category = "basement"
	Other          Category = "other"
)

// IsBedroom reports whether rooms of this category carry a closet allocation.
func (c Category) IsBedroom() bool {
	switch c {
	case Bedroom, BedroomPrimary, BedroomGuest, BedroomKids:
		return true
	}
	return false
}

// Room is one room of the inventory. VisualTags and VisualBoxes are the counts
// seen on the walk-through; nil means nothing was counted.
type Room struct {
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Density     Density  `json:"density"`
	VisualTags  *int     `json:"visual_tags,omitempty"`
	VisualBoxes *int     `json:"visual_boxes,omitempty"`
}

func (r Room) Tags() int {
	if r.VisualTags == nil {
		return 0
	}
	return *r.VisualTags
}

func (r Room) Boxes() int {
	if r.VisualBoxes == nil {
		return 0
	}
	return *r.VisualBoxes
}

// clone copies r so the count pointers are not shared with the caller.
func (r Room) clone() Room {
	out := r
	if r.VisualTags != nil {
		v := *r.VisualTags
		out.VisualTags = &v
	}
	if r.VisualBoxes != nil {
		v := *r.VisualBoxes
		out.VisualBoxes = &v
	}
	return out
}

func (r Room) withBoxes(n int) Room {
	out := r.clone()
	out.VisualBoxes = &n
	return out
}

// Totals returns the summed TAG and box counts across rooms.
func Totals(rooms []Room) (tags, boxes int) {
	for _, r := range rooms {
		tags += r.Tags()
		boxes += r.Boxes()
	}
	return tags, boxes
}

// Normalize fills in a category from the room name when it is missing and
// defaults unknown density labels to Medium.
func Normalize(rooms []Room) []Room {
	out := make([]Room, len(rooms))
	for i, r := range rooms {
		r = r.clone()
		if strings.TrimSpace(string(r.Category)) == "" {
			r.Category = Classify(r.Name)
		} else {
			r.Category = Category(strings.ToLower(strings.TrimSpace(string(r.Category))))
		}
		r.Density = ParseDensity(string(r.Density))
		out[i] = r
	}
	return out
}

type keywordGroup struct {
	category Category
	keywords []string
}

// Order matters: the first group with a matching keyword wins.
var classifierKeywords = []keywordGroup{
	{Kitchen, []string{"kitchen", "pantry"}},
	{LivingRoom, []string{"living room", "family room", "front room", "great room", "den",
		"sitting room", "formal living", "living area"}},
	{DiningRoom, []string{"dining room", "dining"}},
	{Bedroom, []string{"bedroom", "primary bedroom", "master bedroom", "guest room",
		"primary bed", "guest bedroom", "second bedroom", "entry bedroom", "mil suite",
		"exercise room", "sewing room", "media room", "bed 1", "bed 2", "bed 3"}},
	{Bathroom, []string{"bathroom", "bath", "powder room"}},
	{Closet, []string{"closet"}},
	{Office, []string{"office"}},
	{Garage, []string{"garage"}},
	{Laundry, []string{"laundry room", "laundry"}},
	{Hallway, []string{"hallway", "foyer", "entry", "stairs"}},
	{Exterior, []string{"exterior", "trailer"}},
	{Basement, []string{"basement"}},
}

// Classify maps a free-text room name to a category by keyword substring.
func Classify(name string) Category {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, g := range classifierKeywords {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				return g.category
			}
		}
	}
	return Other
}

// isPrimaryBedroomName detects a primary bedroom filed under the generic category.
func isPrimaryBedroomName(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range []string{"master", "primary", "main bed"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
