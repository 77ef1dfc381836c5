package factors

import (
	"fmt"

	apperrors "github.com/aidanvyas/asset-pricing-code/internal/errors"
	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// Rebalance is how often a sort re-forms its portfolios.
type Rebalance string

const (
	// RebalanceAnnual forms portfolios each June and holds them for the
	// formation year, July through the following June.
	RebalanceAnnual Rebalance = "annual"
	// RebalanceMonthly re-forms portfolios every month; the formation month
	// is also the holding month, since the characteristics are lagged.
	RebalanceMonthly Rebalance = "monthly"
)

// WeightScheme is how members are weighted inside a cell.
type WeightScheme string

const (
	WeightValue WeightScheme = "value"
	WeightEqual WeightScheme = "equal"
)

// SortSpec describes one sort as data. The engine treats every sort
// identically, so adding a factor is adding a spec, not a code path.
type SortSpec struct {
	// Name is the emitted factor series name.
	Name string

	// Characteristic is the attribute the cross-section is cut on.
	Characteristic domain.Characteristic

	// Rebalance picks annual June formation or monthly formation.
	Rebalance Rebalance

	// Quantiles are the characteristic cutpoints, strictly increasing in
	// (0,1). Two cutpoints make the classical low/medium/high split.
	Quantiles []float64

	// SizeQuantiles override the engine-wide size cutpoints for this sort.
	// Empty keeps the engine default (the median).
	SizeQuantiles []float64

	// LongBucket and ShortBucket name the characteristic buckets held long
	// and short. An inverted sort (investment) holds the low bucket long.
	LongBucket  domain.Bucket
	ShortBucket domain.Bucket

	// RequirePositiveBookEquity restricts formation eligibility and the
	// breakpoint reference subpopulation to positive book equity.
	RequirePositiveBookEquity bool

	// RequireCharacteristicPresent additionally restricts the reference
	// subpopulation to candidates whose characteristic is present, so the
	// size median is taken over the same names as the characteristic
	// cutpoints. Monthly momentum leaves this off: its size median spans
	// the whole reference population, momentum known or not.
	RequireCharacteristicPresent bool

	// EmitSizeLeg emits the sort's small-minus-big series alongside the
	// factor, for composition into the size factor.
	EmitSizeLeg bool
}

// Validate reports a configuration error when the spec is not runnable.
func (s SortSpec) Validate() error {
	if s.Name == "" {
		return apperrors.NewConfigurationError("sort", "spec without a name")
	}
	if s.Characteristic == "" {
		return apperrors.NewConfigurationError(s.Name, "spec without a characteristic")
	}
	if s.Rebalance != RebalanceAnnual && s.Rebalance != RebalanceMonthly {
		return apperrors.NewConfigurationError(s.Name, fmt.Sprintf("unknown rebalance %q", s.Rebalance))
	}
	if len(s.Quantiles) == 0 {
		return apperrors.NewConfigurationError(s.Name, "spec without characteristic quantiles")
	}
	if err := checkQuantiles(s.Name, s.Quantiles); err != nil {
		return err
	}
	if err := checkQuantiles(s.Name, s.SizeQuantiles); err != nil {
		return err
	}
	if s.LongBucket == "" || s.ShortBucket == "" {
		return apperrors.NewConfigurationError(s.Name, "spec without long/short buckets")
	}
	if s.LongBucket == s.ShortBucket {
		return apperrors.NewConfigurationError(s.Name, "long and short buckets coincide")
	}
	return nil
}

func checkQuantiles(name string, quantiles []float64) error {
	prev := 0.0
	for _, q := range quantiles {
		if q <= 0 || q >= 1 {
			return apperrors.NewConfigurationError(name, fmt.Sprintf("quantile %v outside (0,1)", q))
		}
		if q <= prev {
			return apperrors.NewConfigurationError(name, "quantiles must be strictly increasing")
		}
		prev = q
	}
	return nil
}

// Candidate is one security considered at a rebalance date. Size and
// Characteristic keep missing-value semantics; Eligible marks formation
// eligibility and Reference marks membership in the breakpoint reference
// subpopulation.
type Candidate struct {
	SecurityID     int64
	Size           domain.Value
	Characteristic domain.Value
	Eligible       bool
	Reference      bool
}
