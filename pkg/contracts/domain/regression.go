package domain

import (
	"context"
	"time"
)

// CrossSectionObservation is one security's row in a monthly cross-sectional
// regression: its excess return for the month and the characteristic
// exposures known at the start of the month. Rows are built from the aligned
// panel, so the non-anticipation invariant carries over unchanged.
type CrossSectionObservation struct {
	Date         time.Time          `json:"date"`
	SecurityID   int64              `json:"security_id"`
	ExcessReturn float64            `json:"excess_return"`
	Exposures    map[string]float64 `json:"exposures"`
}

// RiskPremiumEstimate is one month's estimated cross-sectional price of each
// characteristic.
type RiskPremiumEstimate struct {
	Date         time.Time          `json:"date"`
	Coefficients map[string]float64 `json:"coefficients"`
	Observations int                `json:"observations"`
}

// CrossSectionEstimator states the regression contract: monthly
// cross-sections in, one premium estimate per month out, chronologically
// ordered. Estimation mechanics (Fama-MacBeth averaging, winsorization,
// standard errors) live outside this engine.
type CrossSectionEstimator interface {
	Estimate(ctx context.Context, observations []CrossSectionObservation) ([]RiskPremiumEstimate, error)
}
