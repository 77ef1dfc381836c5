package factors

import (
	"time"

	"github.com/aidanvyas/asset-pricing-code/internal/config"
	"github.com/aidanvyas/asset-pricing-code/internal/panel"
	"github.com/aidanvyas/asset-pricing-code/internal/returns"
	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// Universe screens candidates by share class and exchange. Membership
// exchanges bound the investable universe; reference exchanges bound the
// subpopulation breakpoints are computed on.
type Universe struct {
	shareClasses map[int]bool
	exchanges    map[int]bool
	reference    map[int]bool
}

// NewUniverse builds the universe screens from configuration.
func NewUniverse(cfg config.FactorsConfig) Universe {
	return Universe{
		shareClasses: toSet(cfg.UniverseShareCodes),
		exchanges:    toSet(cfg.UniverseExchangeCodes),
		reference:    toSet(cfg.BreakpointExchangeCodes),
	}
}

func toSet(codes []int) map[int]bool {
	set := make(map[int]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return set
}

// AdmitsShareClass reports whether the share class belongs to the universe.
func (u Universe) AdmitsShareClass(code int) bool {
	return u.shareClasses[code]
}

// AdmitsExchange reports whether the exchange belongs to the universe.
func (u Universe) AdmitsExchange(code int) bool {
	return u.exchanges[code]
}

// IsReferenceExchange reports whether the exchange feeds breakpoints.
func (u Universe) IsReferenceExchange(code int) bool {
	return u.reference[code]
}

// annualCandidates screens one June's formation snapshots for an annual
// sort. Formation eligibility needs an admissible share class and exchange,
// positive market and December equity, a second fiscal year on file, and
// positive book equity when the spec demands it. Reference membership
// additionally needs a reference exchange, plus a present characteristic
// when the spec keys its size split to the characteristic population.
func annualCandidates(p *panel.Panel, june time.Time, spec SortSpec, u Universe) []Candidate {
	snapshots := p.FormationsAt(june)
	candidates := make([]Candidate, 0, len(snapshots))
	for _, f := range snapshots {
		c := Candidate{
			SecurityID:     f.SecurityID,
			Size:           f.MarketEquity,
			Characteristic: formationCharacteristic(f, spec.Characteristic),
		}
		c.Eligible = u.AdmitsShareClass(f.ShareClassCode) &&
			u.AdmitsExchange(f.ExchangeCode) &&
			f.MarketEquity.Positive() &&
			f.DecemberME.Positive() &&
			f.AccountingYears >= 1 &&
			(!spec.RequirePositiveBookEquity || f.BookEquity.Positive())
		c.Reference = c.Eligible &&
			u.IsReferenceExchange(f.ExchangeCode) &&
			(!spec.RequireCharacteristicPresent || !c.Characteristic.IsMissing())
		candidates = append(candidates, c)
	}
	return candidates
}

// monthlyCandidates screens one month's panel rows for a monthly sort. The
// characteristic comes from the momentum table; eligibility needs an
// admissible share class and exchange, positive market equity and a second
// month on file.
func monthlyCandidates(p *panel.Panel, month time.Time, spec SortSpec, u Universe,
	momentum map[returns.MonthKey]domain.Value) []Candidate {
	rows := p.RowsAt(month)
	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		c := Candidate{
			SecurityID:     row.SecurityID,
			Size:           row.MarketEquity,
			Characteristic: momentum[returns.NewMonthKey(row.SecurityID, month)],
		}
		c.Eligible = u.AdmitsShareClass(row.ShareClassCode) &&
			u.AdmitsExchange(row.ExchangeCode) &&
			row.MarketEquity.Positive() &&
			row.MonthsOnFile >= 1
		c.Reference = c.Eligible &&
			u.IsReferenceExchange(row.ExchangeCode) &&
			(!spec.RequireCharacteristicPresent || !c.Characteristic.IsMissing())
		candidates = append(candidates, c)
	}
	return candidates
}

// formationCharacteristic reads the sort characteristic off a formation
// snapshot.
func formationCharacteristic(f panel.FormationRow, c domain.Characteristic) domain.Value {
	switch c {
	case domain.CharacteristicBookToMarket:
		return f.BookToMarket
	case domain.CharacteristicOperatingProfitability:
		return f.Profitability
	case domain.CharacteristicAssetGrowth:
		return f.AssetGrowth
	case domain.CharacteristicSize:
		return f.MarketEquity
	default:
		return domain.Missing()
	}
}
