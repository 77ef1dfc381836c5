package factors

import (
	"time"

	"github.com/aidanvyas/asset-pricing-code/internal/panel"
	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// CellReturn computes one formed cell's return for a holding month: the
// weighted mean of member returns over members passing the holding screen,
// meaning a present return, a positive weight under the scheme, and an
// admissible share class in the holding month. No qualifying member makes
// the cell missing, never zero and never a division error.
func CellReturn(p *panel.Panel, portfolio domain.Portfolio, month time.Time, u Universe, scheme WeightScheme) domain.Value {
	var num, den float64
	for _, m := range portfolio.Members {
		row, ok := p.Row(m.SecurityID, month)
		if !ok {
			continue
		}
		if !u.AdmitsShareClass(row.ShareClassCode) || row.Return.IsMissing() {
			continue
		}
		w, ok := holdingWeight(row, scheme)
		if !ok {
			continue
		}
		num += w * row.Return.Float64
		den += w
	}
	if den == 0 {
		return domain.Missing()
	}
	return domain.NewValue(num / den)
}

// holdingWeight is the member's weight in a holding month. Value weighting
// uses the panel's lagged weight and drops members without a positive one.
func holdingWeight(row panel.Row, scheme WeightScheme) (float64, bool) {
	if scheme == WeightEqual {
		return 1, true
	}
	if !row.Weight.Positive() {
		return 0, false
	}
	return row.Weight.Float64, true
}

// MarketReturn computes the weighted return of the full eligible universe
// for one month: positive market equity, a positive weight, an admissible
// share class and exchange, and a present return.
func MarketReturn(p *panel.Panel, month time.Time, u Universe, scheme WeightScheme) domain.Value {
	var num, den float64
	for _, row := range p.RowsAt(month) {
		if !u.AdmitsShareClass(row.ShareClassCode) || !u.AdmitsExchange(row.ExchangeCode) {
			continue
		}
		if !row.MarketEquity.Positive() || row.Return.IsMissing() {
			continue
		}
		w, ok := holdingWeight(row, scheme)
		if !ok {
			continue
		}
		num += w * row.Return.Float64
		den += w
	}
	if den == 0 {
		return domain.Missing()
	}
	return domain.NewValue(num / den)
}
