package domain

import (
	"time"
)

// AccountingRecord is one fiscal year of reported fundamentals for one
// accounting entity. PublicAvailability is the earliest date the record may
// legally inform any downstream computation; it must postdate FiscalPeriodEnd
// by at least the configured minimum disclosure lag. A zero PublicAvailability
// means the loader left it to the engine's default availability policy.
type AccountingRecord struct {
	EntityID           int64     `json:"entity_id" validate:"required,gt=0"`
	FiscalPeriodEnd    time.Time `json:"fiscal_period_end_date" validate:"required"`
	PublicAvailability time.Time `json:"public_availability_date"`

	// Preferred stock: redemption value, liquidating value, par value.
	PSTKRV Value `json:"pstkrv"`
	PSTKL  Value `json:"pstkl"`
	PSTK   Value `json:"pstk"`

	// Equity and balance sheet: stockholders' equity, common equity,
	// total assets, total liabilities, other liabilities.
	SEQ Value `json:"seq"`
	CEQ Value `json:"ceq"`
	AT  Value `json:"at"`
	LT  Value `json:"lt"`
	LO  Value `json:"lo"`

	// Deferred taxes: deferred taxes and investment tax credit, deferred
	// taxes (balance sheet), investment tax credit.
	TXDITC Value `json:"txditc"`
	TXDB   Value `json:"txdb"`
	ITCB   Value `json:"itcb"`

	// Income statement: sales, total revenue, operating expenses, cost of
	// goods sold, selling general and administrative, gross profit, EBITDA,
	// operating income before depreciation, interest expense.
	SALE   Value `json:"sale"`
	REVT   Value `json:"revt"`
	XOPR   Value `json:"xopr"`
	COGS   Value `json:"cogs"`
	XSGA   Value `json:"xsga"`
	GP     Value `json:"gp"`
	EBITDA Value `json:"ebitda"`
	OIBDP  Value `json:"oibdp"`
	XINT   Value `json:"xint"`

	// Debt: long-term debt, current liabilities.
	DLTT Value `json:"dltt"`
	LCT  Value `json:"lct"`
}

// AvailableBy reports whether the record was publicly known on the given
// date. Records with a zero availability date are never available; the
// engine derives availability before alignment runs.
func (r AccountingRecord) AvailableBy(date time.Time) bool {
	return !r.PublicAvailability.IsZero() && !r.PublicAvailability.After(date)
}
