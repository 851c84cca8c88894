package adjust

// Metric names as they appear in a correction-factor document.
const (
	MetricTags  = "tag_multiplier"
	MetricBoxes = "box_multiplier"
	MetricLabor = "labor_multiplier"
	MetricRCV   = "rcv_multiplier"
)

// Stats summarizes final/estimate ratios over one subset of historical jobs.
type Stats struct {
	Median float64  `json:"median" yaml:"median"`
	Std    *float64 `json:"std,omitempty" yaml:"std,omitempty"`
	N      int      `json:"n" yaml:"n"`
}

// Factor is one metric's correction data. AllEstimates covers every job;
// PostAcquisition covers only the recent operating era.
type Factor struct {
	Value           float64 `json:"value" yaml:"value"`
	Confidence      float64 `json:"confidence" yaml:"confidence"`
	AllEstimates    Stats   `json:"all_estimates" yaml:"all_estimates"`
	PostAcquisition Stats   `json:"post_acquisition" yaml:"post_acquisition"`
}

type AddedItem struct {
	Desc      string `json:"desc" yaml:"desc"`
	Frequency int    `json:"frequency" yaml:"frequency"`
}

type Metadata struct {
	Generated            string `json:"generated,omitempty" yaml:"generated,omitempty"`
	TotalPairs           int    `json:"total_pairs" yaml:"total_pairs"`
	PostAcquisitionPairs int    `json:"post_acquisition_pairs" yaml:"post_acquisition_pairs"`
}

// Table is the correction-factor document. It is read-only once loaded.
type Table struct {
	Metadata      Metadata    `json:"metadata" yaml:"metadata"`
	Tags          Factor      `json:"tag_multiplier" yaml:"tag_multiplier"`
	Boxes         Factor      `json:"box_multiplier" yaml:"box_multiplier"`
	Labor         Factor      `json:"labor_multiplier" yaml:"labor_multiplier"`
	RCV           Factor      `json:"rcv_multiplier" yaml:"rcv_multiplier"`
	CommonlyAdded []AddedItem `json:"commonly_added_items" yaml:"commonly_added_items"`
}

// Factor returns the named metric and whether the name is known.
func (t Table) Factor(metric string) (Factor, bool) {
	switch metric {
	case MetricTags:
		return t.Tags, true
	case MetricBoxes:
		return t.Boxes, true
	case MetricLabor:
		return t.Labor, true
	case MetricRCV:
		return t.RCV, true
	}
	return Factor{}, false
}

// Where a selected multiplier came from.
const (
	SourcePostAcquisition = "post_acquisition"
	SourceBlended         = "blended"
	SourceAllEstimates    = "all_estimates"
	SourceDefault         = "default"
)

const (
	minRecentSamples = 3
	recentWeight     = 0.6
	defaultStd       = 0.3
	defaultConf      = 0.5
)

// Selected is the multiplier chosen for one metric.
type Selected struct {
	Value      float64 `json:"value"`
	Std        float64 `json:"std"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

func stdOr(s Stats, fallback float64) float64 {
	if s.Std == nil {
		return fallback
	}
	return *s.Std
}

// Select picks a multiplier. Recent-era data wins once it has enough samples,
// is blended with all-data when sparse, and is ignored for older jobs. With no
// data at all the multiplier is the identity.
func (f Factor) Select(recentEra bool, fallbackStd float64) Selected {
	post, all := f.PostAcquisition, f.AllEstimates

	switch {
	case recentEra && post.N >= minRecentSamples:
		return Selected{
			Value:      post.Median,
			Std:        stdOr(post, fallbackStd),
			Confidence: min(0.95, 0.5+float64(post.N)*0.05),
			Source:     SourcePostAcquisition,
		}
	case recentEra && post.N >= 1 && all.N > 0:
		return Selected{
			Value:      roundTo(recentWeight*post.Median+(1-recentWeight)*all.Median, 3),
			Std:        recentWeight*stdOr(post, fallbackStd) + (1-recentWeight)*stdOr(all, fallbackStd),
			Confidence: min(0.80, 0.4+float64(all.N)*0.03),
			Source:     SourceBlended,
		}
	case all.N > 0:
		return Selected{
			Value:      all.Median,
			Std:        stdOr(all, fallbackStd),
			Confidence: min(0.80, 0.3+float64(all.N)*0.03),
			Source:     SourceAllEstimates,
		}
	}
	return Selected{Value: 1.0, Std: defaultStd, Confidence: defaultConf, Source: SourceDefault}
}
