package panel

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/aidanvyas/asset-pricing-code/internal/accounting"
	apperrors "github.com/aidanvyas/asset-pricing-code/internal/errors"
	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// Book equity arrives in millions while market equity is price times shares
// outstanding in thousands; the ratio needs book equity scaled to thousands.
const bookEquityScale = 1000

// Assembler builds Panels from delisting-adjusted security observations and
// a point-in-time accounting aligner.
type Assembler struct {
	aligner *accounting.Aligner
}

// NewAssembler returns an Assembler that joins June formation rows against
// the given aligner.
func NewAssembler(aligner *accounting.Aligner) *Assembler {
	return &Assembler{aligner: aligner}
}

// Assemble builds the panel: issuer aggregation, formation-year tagging,
// lagged weights, and June formation snapshots. Observations must already
// carry delisting-adjusted returns. Duplicate security-months are an
// integrity error.
func (a *Assembler) Assemble(ctx context.Context, observations []domain.SecurityObservation) (*Panel, error) {
	logger := slog.Default()
	logger.InfoContext(ctx, "assembling monthly panel", "observations", len(observations))

	aggregated, err := aggregateIssuers(observations)
	if err != nil {
		return nil, err
	}

	bySecurity := make(map[int64][]Row)
	for _, row := range aggregated {
		bySecurity[row.SecurityID] = append(bySecurity[row.SecurityID], row)
	}

	rows := make([]Row, 0, len(aggregated))
	decemberME := make(map[int64]map[int]domain.Value)
	for securityID, series := range bySecurity {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		sort.Slice(series, func(i, j int) bool { return series[i].Month.Before(series[j].Month) })
		buildSecuritySeries(series)
		decemberME[securityID] = decemberEquity(series)
		rows = append(rows, series...)
	}

	formations := a.buildFormationRows(rows, decemberME)

	p := newPanel(rows, formations)
	logger.InfoContext(ctx, "panel assembled",
		"rows", p.Len(),
		"securities", len(bySecurity),
		"months", len(p.Months()),
		"formation_rows", len(p.formRows),
	)
	return p, nil
}

// aggregateIssuers collapses each issuer-month to its largest security,
// assigned the issuer-summed market equity. Securities without a computable
// market equity never anchor an issuer and add nothing to the sum; an
// issuer-month where nothing can be priced is dropped.
func aggregateIssuers(observations []domain.SecurityObservation) ([]Row, error) {
	type issuerMonth struct {
		issuerID int64
		month    time.Time
	}

	seen := make(map[rowKey]struct{}, len(observations))
	groups := make(map[issuerMonth][]domain.SecurityObservation)
	for _, obs := range observations {
		if obs.SecurityID <= 0 {
			return nil, apperrors.NewIntegrityError("panel", "observation without security identifier").
				WithContext("period_end", obs.PeriodEnd.Format("2006-01-02"))
		}
		month := domain.MonthEnd(obs.PeriodEnd)
		key := rowKey{obs.SecurityID, month}
		if _, dup := seen[key]; dup {
			return nil, apperrors.NewIntegrityError("panel", "duplicate security-month observation").
				WithContext("security_id", obs.SecurityID).
				WithContext("month", month.Format("2006-01-02"))
		}
		seen[key] = struct{}{}
		group := issuerMonth{obs.Issuer(), month}
		groups[group] = append(groups[group], obs)
	}

	rows := make([]Row, 0, len(groups))
	for group, members := range groups {
		primary, total, ok := primarySecurity(members)
		if !ok {
			continue
		}
		rows = append(rows, Row{
			SecurityID:        primary.SecurityID,
			Month:             group.month,
			Return:            primary.Return,
			ReturnExDividends: primary.ReturnExDividends,
			MarketEquity:      total,
			ShareClassCode:    primary.ShareClassCode,
			ExchangeCode:      primary.ExchangeCode,
		})
	}
	return rows, nil
}

// primarySecurity picks the priced member with the largest market equity,
// ties broken by the lowest security identifier, and returns it with the
// group's summed market equity. ok is false when no member is priced.
func primarySecurity(members []domain.SecurityObservation) (domain.SecurityObservation, domain.Value, bool) {
	var (
		primary domain.SecurityObservation
		largest domain.Value
		total   domain.Value
		found   bool
	)
	for _, m := range members {
		me := m.MarketCapitalization()
		if me.IsMissing() {
			continue
		}
		total = total.OrZero().Add(me)
		if !found || me.Float64 > largest.Float64 ||
			(me.Float64 == largest.Float64 && m.SecurityID < primary.SecurityID) {
			primary, largest, found = m, me, true
		}
	}
	return primary, total, found
}

// buildSecuritySeries fills the history-dependent columns of one security's
// chronologically sorted rows: months on file, formation-year tags, lagged
// market equity, and the formation-year value weight.
func buildSecuritySeries(series []Row) {
	one := domain.NewValue(1)
	var base, cum domain.Value
	for i := range series {
		r := &series[i]
		r.MonthsOnFile = i

		ffdate := domain.AddMonthsEnd(r.Month, -6)
		r.FormationYear = ffdate.Year()
		r.FormationMonth = int(ffdate.Month())

		if i == 0 {
			// No earlier observation: back the month's own equity out of
			// its ex-dividend return.
			r.LaggedMarketEquity = r.MarketEquity.Div(one.Add(r.ReturnExDividends))
		} else {
			r.LaggedMarketEquity = series[i-1].MarketEquity
		}

		if i == 0 || r.FormationYear != series[i-1].FormationYear {
			cum = one
			if r.FormationMonth == 1 {
				base = r.LaggedMarketEquity
			} else {
				// Entered mid formation year: no July base exists, so the
				// weight stays missing until the next July.
				base = domain.Missing()
			}
		}
		if r.FormationMonth == 1 {
			r.Weight = r.LaggedMarketEquity
		} else {
			r.Weight = base.Mul(cum)
		}
		cum = cum.Mul(one.Add(r.ReturnExDividends))
	}
}

// decemberEquity maps calendar year to the security's December market
// equity.
func decemberEquity(series []Row) map[int]domain.Value {
	out := make(map[int]domain.Value)
	for _, r := range series {
		if r.Month.Month() == time.December {
			out[r.Month.Year()] = r.MarketEquity
		}
	}
	return out
}

// buildFormationRows produces one snapshot per June row, joining the prior
// December market equity and the accounting fundamentals available at that
// June.
func (a *Assembler) buildFormationRows(rows []Row, decemberME map[int64]map[int]domain.Value) []FormationRow {
	formations := make([]FormationRow, 0, len(rows)/12+1)
	for _, r := range rows {
		if r.Month.Month() != time.June {
			continue
		}
		f := FormationRow{
			SecurityID:      r.SecurityID,
			Month:           r.Month,
			MarketEquity:    r.MarketEquity,
			DecemberME:      domain.Missing(),
			BookEquity:      domain.Missing(),
			BookToMarket:    domain.Missing(),
			Profitability:   domain.Missing(),
			AssetGrowth:     domain.Missing(),
			ShareClassCode:  r.ShareClassCode,
			ExchangeCode:    r.ExchangeCode,
			MonthsOnFile:    r.MonthsOnFile,
			AccountingYears: -1,
		}
		if dec, ok := decemberME[r.SecurityID][r.Month.Year()-1]; ok {
			f.DecemberME = dec
		}
		if fund, ok := a.aligner.At(r.SecurityID, r.Month); ok {
			f.BookEquity = fund.BookEquity
			f.Profitability = fund.ProfitToBook
			f.AssetGrowth = fund.AssetGrowth
			f.AccountingYears = fund.FiscalYearsOnFile
			f.BookToMarket = fund.BookEquity.Mul(domain.NewValue(bookEquityScale)).Div(f.DecemberME)
		}
		formations = append(formations, f)
	}
	return formations
}
