package factors

import (
	"math"
	"sort"

	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// Breakpoints are the ascending cutpoints of one axis at one rebalance
// date: an explicit per-date value, never engine state.
type Breakpoints []float64

// ComputeBreakpoints evaluates the given quantiles over the present values,
// interpolating linearly between order statistics. Missing values are
// dropped, never imputed. No present value yields nil; a single present
// value is returned for every quantile.
func ComputeBreakpoints(values []domain.Value, quantiles []float64) Breakpoints {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !v.IsMissing() {
			present = append(present, v.Float64)
		}
	}
	if len(present) == 0 {
		return nil
	}
	sort.Float64s(present)

	cuts := make(Breakpoints, len(quantiles))
	for i, q := range quantiles {
		cuts[i] = interpolate(present, q)
	}
	return cuts
}

// interpolate evaluates the empirical quantile of ascending values at q,
// the linear-interpolation convention: position (n-1)q between order
// statistics.
func interpolate(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
