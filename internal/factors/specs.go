package factors

import (
	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// Emitted factor series names. The market series is already net of the
// risk-free rate.
const (
	FactorHML = "HML"
	FactorRMW = "RMW"
	FactorCMA = "CMA"
	FactorUMD = "UMD"
	FactorMKT = "MKT-RF"
	FactorSMB = "SMB"
)

// SizeLegName is the name a sort's small-minus-big leg is emitted under.
func SizeLegName(sortName string) string {
	return "SMB_" + sortName
}

// DefaultSpecs returns the named sorts. Characteristic and size cutpoints
// are left empty so the engine fills them from configuration:
//
//   - HML: annual size-by-book-to-market, long value short growth, formed
//     over positive book equity only.
//   - RMW: annual size-by-profitability, long robust short weak, formed
//     over positive book equity with the profitability population also
//     bounding the size split.
//   - CMA: annual size-by-asset-growth, long conservative short aggressive.
//   - UMD: monthly size-by-momentum, long winners short losers; the size
//     split spans the full reference population, momentum known or not.
//
// The three annual sorts emit size legs for the size factor.
func DefaultSpecs() []SortSpec {
	return []SortSpec{
		{
			Name:                      FactorHML,
			Characteristic:            domain.CharacteristicBookToMarket,
			Rebalance:                 RebalanceAnnual,
			LongBucket:                domain.BucketHigh,
			ShortBucket:               domain.BucketLow,
			RequirePositiveBookEquity: true,
			EmitSizeLeg:               true,
		},
		{
			Name:                         FactorRMW,
			Characteristic:               domain.CharacteristicOperatingProfitability,
			Rebalance:                    RebalanceAnnual,
			LongBucket:                   domain.BucketHigh,
			ShortBucket:                  domain.BucketLow,
			RequirePositiveBookEquity:    true,
			RequireCharacteristicPresent: true,
			EmitSizeLeg:                  true,
		},
		{
			Name:                         FactorCMA,
			Characteristic:               domain.CharacteristicAssetGrowth,
			Rebalance:                    RebalanceAnnual,
			LongBucket:                   domain.BucketLow,
			ShortBucket:                  domain.BucketHigh,
			RequireCharacteristicPresent: true,
			EmitSizeLeg:                  true,
		},
		{
			Name:           FactorUMD,
			Characteristic: domain.CharacteristicMomentum,
			Rebalance:      RebalanceMonthly,
			LongBucket:     domain.BucketHigh,
			ShortBucket:    domain.BucketLow,
		},
	}
}
