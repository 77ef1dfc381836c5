package domain

import (
	"fmt"
	"time"
)

// Characteristic names a sortable security attribute. The factor engine
// computes characteristics at formation time and sorts on them by name, so a
// sort definition is configuration data rather than a dedicated code path.
type Characteristic string

const (
	CharacteristicSize                   Characteristic = "size"
	CharacteristicBookToMarket           Characteristic = "book_to_market"
	CharacteristicOperatingProfitability Characteristic = "operating_profitability"
	CharacteristicAssetGrowth            Characteristic = "asset_growth"
	CharacteristicMomentum               Characteristic = "momentum"
)

// Bucket labels one side of a sort split.
type Bucket string

const (
	BucketSmall Bucket = "S"
	BucketBig   Bucket = "B"
	BucketLow   Bucket = "L"
	BucketMid   Bucket = "M"
	BucketHigh  Bucket = "H"
)

// CellKey identifies one cell of a sort grid: the size bucket concatenated
// with the characteristic bucket ("SH", "BL"), or a single bucket for
// one-dimensional sorts.
type CellKey string

// Cell builds the key for a size-by-characteristic intersection.
func Cell(size, characteristic Bucket) CellKey {
	return CellKey(string(size) + string(characteristic))
}

// PortfolioMember is one constituent with its normalized weight.
type PortfolioMember struct {
	SecurityID int64   `json:"security_id"`
	Weight     float64 `json:"weight"`
}

// Portfolio is the membership of one sort cell formed at one rebalance date.
// Membership and weights are immutable once formed and hold until the next
// rebalance. Weights are non-negative and sum to one over the members; an
// empty portfolio contributes no return.
type Portfolio struct {
	RebalanceDate time.Time         `json:"rebalance_date"`
	Cell          CellKey           `json:"cell"`
	Members       []PortfolioMember `json:"members"`
}

// WeightSum returns the total member weight, which is 1 for any non-empty
// well-formed portfolio.
func (p Portfolio) WeightSum() float64 {
	var sum float64
	for _, m := range p.Members {
		sum += m.Weight
	}
	return sum
}

// FactorObservation is one dated factor return. A missing Return records a
// coverage gap for that date rather than a zero.
type FactorObservation struct {
	Date   time.Time `json:"date"`
	Return Value     `json:"return"`
}

// FactorSeries is a named, append-only return series with strictly
// increasing dates.
type FactorSeries struct {
	Name         string              `json:"name"`
	Observations []FactorObservation `json:"observations"`
}

// Append adds an observation, enforcing chronological order.
func (s *FactorSeries) Append(obs FactorObservation) error {
	if n := len(s.Observations); n > 0 && !s.Observations[n-1].Date.Before(obs.Date) {
		return fmt.Errorf("append %s: date %s not after %s",
			s.Name, obs.Date.Format("2006-01-02"), s.Observations[n-1].Date.Format("2006-01-02"))
	}
	s.Observations = append(s.Observations, obs)
	return nil
}

// At returns the observation for the given date.
func (s FactorSeries) At(date time.Time) (FactorObservation, bool) {
	for _, obs := range s.Observations {
		if obs.Date.Equal(date) {
			return obs, true
		}
	}
	return FactorObservation{}, false
}

// Gaps counts observations whose return is missing.
func (s FactorSeries) Gaps() int {
	var n int
	for _, obs := range s.Observations {
		if obs.Return.IsMissing() {
			n++
		}
	}
	return n
}

// Len returns the number of observations.
func (s FactorSeries) Len() int {
	return len(s.Observations)
}
