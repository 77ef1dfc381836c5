package domain

import (
	"time"
)

// Exchange codes used by the universe and breakpoint filters.
const (
	ExchangeNYSE   = 1
	ExchangeAMEX   = 2
	ExchangeNASDAQ = 3
)

// Share-class codes admitted to the default universe (ordinary common shares).
const (
	ShareClassCommon         = 10
	ShareClassCommonIncorpUS = 11
)

// SecurityObservation is one month of return and share data for one security.
// One record per security per month-end; market capitalization is always
// derived from price and shares, never stored or trusted from input.
type SecurityObservation struct {
	SecurityID        int64     `json:"security_id" validate:"required,gt=0"`
	IssuerID          int64     `json:"issuer_id,omitempty"`
	PeriodEnd         time.Time `json:"period_end_date" validate:"required"`
	Return            Value     `json:"return"`
	ReturnExDividends Value     `json:"return_ex_dividends"`
	SharesOutstanding float64   `json:"shares_outstanding" validate:"min=0"`
	Price             Value     `json:"price"`
	ShareClassCode    int       `json:"share_class_code"`
	ExchangeCode      int       `json:"exchange_code"`
}

// MarketCapitalization returns |price| * shares outstanding. Quote-derived
// prices are flagged negative upstream, so the magnitude is taken; a missing
// price yields a missing capitalization.
func (o SecurityObservation) MarketCapitalization() Value {
	if o.Price.IsMissing() {
		return Missing()
	}
	return NewValue(o.Price.Abs().Float64 * o.SharesOutstanding)
}

// Issuer returns the issuer identifier, falling back to the security
// identifier when the input carries no issuer mapping.
func (o SecurityObservation) Issuer() int64 {
	if o.IssuerID != 0 {
		return o.IssuerID
	}
	return o.SecurityID
}

// Delisting codes in [520, 584] and code 500 mark performance-related exits
// (dropped or delisted for cause rather than merger or exchange).
const (
	DelistingCodeUnknown     = 500
	delistingPerformanceLow  = 520
	delistingPerformanceHigh = 584
)

// DelistingEvent is the terminal event for a security that left its exchange
// other than through a normal trade. At most one per security.
type DelistingEvent struct {
	SecurityID      int64     `json:"security_id" validate:"required,gt=0"`
	EventDate       time.Time `json:"event_date" validate:"required"`
	DelistingReturn Value     `json:"delisting_return"`
	DelistingCode   int       `json:"delisting_code"`
}

// IsPerformanceRelated reports whether the delisting code marks a
// performance-related exit, which carries a penalty return when the actual
// delisting return was never recorded.
func (e DelistingEvent) IsPerformanceRelated() bool {
	return e.DelistingCode == DelistingCodeUnknown ||
		(e.DelistingCode >= delistingPerformanceLow && e.DelistingCode <= delistingPerformanceHigh)
}
