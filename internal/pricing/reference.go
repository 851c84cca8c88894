package pricing

import (
	"strings"
)

// Reference is one row of the historical price reference.
type Reference struct {
	Description      string  `json:"desc" yaml:"desc"`
	Unit             string  `json:"unit" yaml:"unit"`
	Category         string  `json:"cat" yaml:"cat"`
	Selector         string  `json:"sel" yaml:"sel"`
	GroupDescription string  `json:"group_desc,omitempty" yaml:"group_desc,omitempty"`
	Median           float64 `json:"unit_cost_weighted_median" yaml:"unit_cost_weighted_median"`
	P25              float64 `json:"unit_cost_p25" yaml:"unit_cost_p25"`
	P75              float64 `json:"unit_cost_p75" yaml:"unit_cost_p75"`
	SampleCount      int     `json:"sample_count" yaml:"sample_count"`
}

// How a description was resolved against the reference.
const (
	MatchExact = "exact"
	MatchFuzzy = "fuzzy"
	MatchNone  = "none"
)

// FuzzyThreshold is the word-overlap score a fuzzy match must exceed.
const FuzzyThreshold = 0.6

// Match is the outcome of a reference lookup.
type Match struct {
	Reference Reference
	Method    string
	Score     float64
}

func (m Match) Found() bool { return m.Method != MatchNone }

type indexedRef struct {
	key   string
	words map[string]struct{}
	ref   Reference
}

// Table is an indexed, read-only price reference.
type Table struct {
	rows  []indexedRef
	exact map[string]int
}

func normalizeKey(desc string) string {
	return strings.ToLower(strings.TrimSpace(desc))
}

func wordSet(key string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(key) {
		set[w] = struct{}{}
	}
	return set
}

// NewTable indexes reference rows. When two rows share a description the first wins.
func NewTable(refs []Reference) *Table {
	t := &Table{exact: make(map[string]int, len(refs))}
	for _, r := range refs {
		key := normalizeKey(r.Description)
		if _, dup := t.exact[key]; dup {
			continue
		}
		t.exact[key] = len(t.rows)
		t.rows = append(t.rows, indexedRef{key: key, words: wordSet(key), ref: r})
	}
	return t
}

// Rows returns the reference rows in table order.
func (t *Table) Rows() []Reference {
	out := make([]Reference, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.ref
	}
	return out
}

func (t *Table) Len() int { return len(t.rows) }

// Find resolves a description. An exact case-insensitive match always wins;
// otherwise the row with the best word-overlap score above FuzzyThreshold is
// used, earlier rows winning ties.
func (t *Table) Find(desc string) Match {
	key := normalizeKey(desc)
	if i, ok := t.exact[key]; ok {
		return Match{Reference: t.rows[i].ref, Method: MatchExact, Score: 1}
	}

	words := wordSet(key)
	best, bestScore := -1, 0.0
	for i, row := range t.rows {
		score := overlap(words, row.words)
		if score > bestScore && score > FuzzyThreshold {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return Match{Method: MatchNone}
	}
	return Match{Reference: t.rows[best].ref, Method: MatchFuzzy, Score: bestScore}
}

// overlap is |a∩b| / |a∪b|.
func overlap(a, b map[string]struct{}) float64 {
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(max(union, 1))
}

// DefaultReferences returns the built-in price reference covering every line
// the estimate templates emit.
func DefaultReferences() []Reference {
	return []Reference{
		{Description: DescBoxMedium, Unit: "EA", Category: "CPS", Selector: "BXMH", Median: 47.50, P25: 44.10, P75: 50.25, SampleCount: 38},
		{Description: DescBoxLarge, Unit: "EA", Category: "CPS", Selector: "BXLH", Median: 62.40, P25: 58.00, P75: 66.80, SampleCount: 21},
		{Description: DescBoxXL, Unit: "EA", Category: "CPS", Selector: "BXXH", Median: 79.85, P25: 74.30, P75: 85.10, SampleCount: 9},
		{Description: DescTag, Unit: "EA", Category: "CPS", Selector: "TAG", Median: 8.62, P25: 8.05, P75: 9.10, SampleCount: 41},
		{Description: DescPad, Unit: "EA", Category: "CPS", Selector: "PAD", Median: 12.67, P25: 11.90, P75: 13.40, SampleCount: 35},
		{Description: DescBubbleWrap24, Unit: "LF", Category: "CPS", Selector: "BWRAP", Median: 0.27, P25: 0.25, P75: 0.30, SampleCount: 27},
		{Description: DescBubbleWrap48, Unit: "LF", Category: "CPS", Selector: "BWRAP48", Median: 0.48, P25: 0.44, P75: 0.52, SampleCount: 6},
		{Description: DescStretchWrap, Unit: "RL", Category: "CPS", Selector: "STRW", Median: 38.35, P25: 36.10, P75: 40.60, SampleCount: 33},
		{Description: DescLabor, Unit: "HR", Category: "CPS", Selector: "LAB", Median: 58.70, P25: 55.20, P75: 61.45, SampleCount: 44},
		{Description: DescSupervisor, Unit: "HR", Category: "CPS", Selector: "LABS", Median: 79.31, P25: 75.00, P75: 83.60, SampleCount: 40},
		{Description: DescMovingVan, Unit: "EA", Category: "CPS", Selector: "VAN", Median: 228.04, P25: 215.00, P75: 240.75, SampleCount: 39},
		{Description: DescStorageVault, Unit: "MO", Category: "CPS", Selector: "STOR", Median: 116.29, P25: 110.00, P75: 122.50, SampleCount: 36},
		{Description: DescStorageClimate, Unit: "SF", Category: "CPS", Selector: "STORC", Median: 1.12, P25: 1.05, P75: 1.20, SampleCount: 8},
		{Description: DescDebrisHaul, Unit: "EA", Category: "DMO", Selector: "PU", Median: 183.91, P25: 170.00, P75: 195.40, SampleCount: 30},
		{Description: DescWardrobeBox, Unit: "EA", Category: "CPS", Selector: "BXWR", Median: 27.35, P25: 25.80, P75: 29.10, SampleCount: 17},
		{Description: DescPackingPaper, Unit: "EA", Category: "CPS", Selector: "BXPM", Median: 7.93, P25: 7.40, P75: 8.45, SampleCount: 14},
		{Description: DescBoxAndTape, Unit: "EA", Category: "CPS", Selector: "BXM", Median: 5.10, P25: 4.80, P75: 5.45, SampleCount: 19},
		{Description: DescCleanBox, Unit: "EA", Category: "CPS", Selector: "CLMB", Median: 21.36, P25: 19.90, P75: 22.75, SampleCount: 5},
	}
}
