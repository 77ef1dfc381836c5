package returns

import (
	"time"

	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// MonthKey identifies one security-month. Month is always the month-end
// date, so lookups built from different sources join exactly.
type MonthKey struct {
	SecurityID int64
	Month      time.Time
}

// NewMonthKey normalizes date to month end.
func NewMonthKey(securityID int64, date time.Time) MonthKey {
	return MonthKey{SecurityID: securityID, Month: domain.MonthEnd(date)}
}

// MomentumCalculator computes the prior-return characteristic: for month t,
// the mean of adjusted returns over the window months ending skip months
// before t. Every window month must have a present return, otherwise the
// characteristic is missing; calendar gaps in the series count as missing
// months.
type MomentumCalculator struct {
	window int
	skip   int
}

// NewMomentumCalculator returns a calculator over the given window and skip,
// both in months. The conventional configuration is window 11, skip 2, i.e.
// returns from t-12 through t-2.
func NewMomentumCalculator(window, skip int) *MomentumCalculator {
	return &MomentumCalculator{window: window, skip: skip}
}

// Compute returns the momentum characteristic for every observed
// security-month that has one. Months with an incomplete window are absent
// from the result, which callers must treat as a missing characteristic.
func (m *MomentumCalculator) Compute(observations []domain.SecurityObservation) map[MonthKey]domain.Value {
	type series map[int]domain.Value

	bySecurity := make(map[int64]series)
	for _, obs := range observations {
		s, ok := bySecurity[obs.SecurityID]
		if !ok {
			s = make(series)
			bySecurity[obs.SecurityID] = s
		}
		s[monthIndex(obs.PeriodEnd)] = obs.Return
	}

	out := make(map[MonthKey]domain.Value)
	for _, obs := range observations {
		s := bySecurity[obs.SecurityID]
		idx := monthIndex(obs.PeriodEnd)

		sum := 0.0
		complete := true
		for back := m.skip; back < m.skip+m.window; back++ {
			r, ok := s[idx-back]
			if !ok || r.IsMissing() {
				complete = false
				break
			}
			sum += r.Float64
		}
		if !complete {
			continue
		}
		out[NewMonthKey(obs.SecurityID, obs.PeriodEnd)] = domain.NewValue(sum / float64(m.window))
	}
	return out
}

// monthIndex maps a date to a consecutive month counter so that adjacent
// calendar months differ by exactly one.
func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}
