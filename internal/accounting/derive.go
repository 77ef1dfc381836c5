// Package accounting derives fundamental metrics from raw accounting
// records and aligns them to securities point-in-time, so that no
// computation ever sees a record before its public availability date.
package accounting

import (
	"sort"
	"time"

	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// Fundamentals carries the derived metrics of one accounting record. All
// metrics use missing-value semantics: an unresolvable fallback chain yields
// a missing value, never zero.
type Fundamentals struct {
	EntityID           int64        `json:"entity_id"`
	SecurityID         int64        `json:"security_id,omitempty"`
	FiscalPeriodEnd    time.Time    `json:"fiscal_period_end"`
	PublicAvailability time.Time    `json:"public_availability"`
	BookEquity         domain.Value `json:"book_equity"`
	OperatingProfit    domain.Value `json:"operating_profit"`
	ProfitToBook       domain.Value `json:"profit_to_book"`
	TotalAssets        domain.Value `json:"total_assets"`
	AssetGrowth        domain.Value `json:"asset_growth"`

	// FiscalYearsOnFile counts the entity's earlier fiscal records, so the
	// first record of an entity carries 0. Filled by DeriveAll.
	FiscalYearsOnFile int `json:"fiscal_years_on_file"`
}

// preferredStock resolves the preferred stock value: redemption value first,
// then liquidating value, then carrying value.
func preferredStock(r domain.AccountingRecord) domain.Value {
	return domain.Coalesce(r.PSTKRV, r.PSTKL, r.PSTK)
}

// stockholdersEquity resolves total stockholders' equity: reported figure
// first, then common equity plus preferred stock, then assets minus
// liabilities.
func stockholdersEquity(r domain.AccountingRecord) domain.Value {
	pstk := preferredStock(r)
	return domain.Coalesce(
		r.SEQ,
		r.CEQ.Add(pstk.OrZero()),
		r.AT.Sub(r.LT),
	)
}

// deferredTaxes resolves deferred taxes and investment tax credit.
func deferredTaxes(r domain.AccountingRecord) domain.Value {
	return domain.Coalesce(r.TXDITC, r.TXDB.Add(r.ITCB))
}

// BookEquity computes book equity: stockholders' equity plus deferred taxes
// minus preferred stock. Missing stockholders' equity makes the whole figure
// missing; missing deferred taxes or preferred stock contribute zero.
func BookEquity(r domain.AccountingRecord) domain.Value {
	seq := stockholdersEquity(r)
	return seq.Add(deferredTaxes(r).OrZero()).Sub(preferredStock(r).OrZero())
}

// revenue resolves net sales, falling back to total revenue.
func revenue(r domain.AccountingRecord) domain.Value {
	return domain.Coalesce(r.SALE, r.REVT)
}

// operatingExpenses resolves total operating expenses, falling back to cost
// of goods sold plus selling, general and administrative expense.
func operatingExpenses(r domain.AccountingRecord) domain.Value {
	return domain.Coalesce(r.XOPR, r.COGS.Add(r.XSGA))
}

// grossProfit resolves gross profit, falling back to revenue minus cost of
// goods sold.
func grossProfit(r domain.AccountingRecord) domain.Value {
	return domain.Coalesce(r.GP, revenue(r).Sub(r.COGS))
}

// ebitda resolves earnings before interest, taxes, depreciation and
// amortization through the reported figure, operating income before
// depreciation, revenue minus operating expenses, and finally gross profit
// minus SG&A.
func ebitda(r domain.AccountingRecord) domain.Value {
	return domain.Coalesce(
		r.EBITDA,
		r.OIBDP,
		revenue(r).Sub(operatingExpenses(r)),
		grossProfit(r).Sub(r.XSGA),
	)
}

// OperatingProfit computes operating profitability: EBITDA minus interest
// expense. Interest expense is required; a record without it has no
// operating profit.
func OperatingProfit(r domain.AccountingRecord) domain.Value {
	return ebitda(r).Sub(r.XINT)
}

// TotalAssets resolves total assets, falling back to the sum of equity,
// long-term debt and current liabilities components.
func TotalAssets(r domain.AccountingRecord) domain.Value {
	seq := stockholdersEquity(r)
	return domain.Coalesce(
		r.AT,
		seq.Add(r.DLTT).
			Add(r.LCT.OrZero()).
			Add(r.LO.OrZero()).
			Add(r.TXDITC.OrZero()),
	)
}

// Derive computes the per-record metrics that need no history. AssetGrowth
// requires the entity's prior fiscal record and is filled by DeriveAll.
func Derive(r domain.AccountingRecord) Fundamentals {
	be := BookEquity(r)
	op := OperatingProfit(r)
	return Fundamentals{
		EntityID:           r.EntityID,
		FiscalPeriodEnd:    r.FiscalPeriodEnd,
		PublicAvailability: r.PublicAvailability,
		BookEquity:         be,
		OperatingProfit:    op,
		ProfitToBook:       op.Div(be),
		TotalAssets:        TotalAssets(r),
		AssetGrowth:        domain.Missing(),
	}
}

// DeriveAll derives fundamentals for every record, fills asset growth
// against the same entity's previous fiscal record ordered by fiscal period
// end, and stamps each record's fiscal sequence. The previous record is used
// whatever the gap between the two fiscal periods. Output order follows
// (entity, fiscal period end).
func DeriveAll(records []domain.AccountingRecord) []Fundamentals {
	sorted := make([]domain.AccountingRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].EntityID != sorted[j].EntityID {
			return sorted[i].EntityID < sorted[j].EntityID
		}
		return sorted[i].FiscalPeriodEnd.Before(sorted[j].FiscalPeriodEnd)
	})

	out := make([]Fundamentals, 0, len(sorted))
	for i, rec := range sorted {
		f := Derive(rec)
		if i > 0 && sorted[i-1].EntityID == rec.EntityID {
			prev := out[len(out)-1]
			f.AssetGrowth = f.TotalAssets.Sub(prev.TotalAssets).Div(prev.TotalAssets)
			f.FiscalYearsOnFile = prev.FiscalYearsOnFile + 1
		}
		out = append(out, f)
	}
	return out
}

// ApplyAvailabilityPolicy fills the public availability date of records that
// arrive without one: December 31 of the fiscal period's calendar year plus
// the configured disclosure lag, snapped to month end. Records carrying an
// explicit availability date are returned unchanged.
func ApplyAvailabilityPolicy(records []domain.AccountingRecord, lagMonths int) []domain.AccountingRecord {
	out := make([]domain.AccountingRecord, len(records))
	copy(out, records)
	for i := range out {
		if out[i].PublicAvailability.IsZero() {
			out[i].PublicAvailability = DefaultAvailability(out[i].FiscalPeriodEnd, lagMonths)
		}
	}
	return out
}

// DefaultAvailability returns the assumed availability date for a fiscal
// period end: the following December 31 plus lagMonths, at month end.
func DefaultAvailability(fiscalPeriodEnd time.Time, lagMonths int) time.Time {
	return domain.AddMonthsEnd(domain.YearEnd(fiscalPeriodEnd), lagMonths)
}
