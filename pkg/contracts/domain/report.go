package domain

import (
	"time"
)

// ToleranceBreach records one date where a produced factor diverged from its
// reference by more than the configured tolerance.
type ToleranceBreach struct {
	Date       time.Time `json:"date"`
	Produced   float64   `json:"produced"`
	Reference  float64   `json:"reference"`
	Difference float64   `json:"difference"`
}

// FactorComparison summarizes one produced series against its reference over
// the overlapping dates. Correlations and difference statistics are computed
// on dates where both sides are present; coverage gaps are counted, never
// imputed.
type FactorComparison struct {
	Factor       string            `json:"factor"`
	Observations int               `json:"observations"`
	CoverageGaps int               `json:"coverage_gaps"`
	Pearson      float64           `json:"pearson"`
	Spearman     float64           `json:"spearman"`
	MeanAbsDiff  float64           `json:"mean_abs_diff"`
	MaxAbsDiff   float64           `json:"max_abs_diff"`
	Breaches     []ToleranceBreach `json:"breaches,omitempty"`
	MissingRef   bool              `json:"missing_reference,omitempty"`
}

// ValidationReport is the single surface where divergence and gap statistics
// appear. It never mutates or corrects either series.
type ValidationReport struct {
	GeneratedAt time.Time          `json:"generated_at"`
	StartDate   time.Time          `json:"start_date"`
	Tolerance   float64            `json:"tolerance"`
	Factors     []FactorComparison `json:"factors"`
}

// TotalBreaches counts tolerance breaches across all factors.
func (r ValidationReport) TotalBreaches() int {
	var n int
	for _, f := range r.Factors {
		n += len(f.Breaches)
	}
	return n
}

// TotalGaps counts coverage gaps across all factors.
func (r ValidationReport) TotalGaps() int {
	var n int
	for _, f := range r.Factors {
		n += f.CoverageGaps
	}
	return n
}

// ComparisonFor returns the comparison entry for a factor name.
func (r ValidationReport) ComparisonFor(factor string) (FactorComparison, bool) {
	for _, f := range r.Factors {
		if f.Factor == factor {
			return f, true
		}
	}
	return FactorComparison{}, false
}
