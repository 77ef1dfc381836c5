package panel

import (
	"sort"
	"time"

	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// Row is one security-month of the assembled panel. MarketEquity is
// issuer-aggregated; Weight is the lagged value weight and never reflects
// the month's own price move. FormationYear/FormationMonth place the row in
// its July-through-June formation year (July = 1).
type Row struct {
	SecurityID         int64        `json:"security_id"`
	Month              time.Time    `json:"month"`
	Return             domain.Value `json:"return"`
	ReturnExDividends  domain.Value `json:"return_ex_dividends"`
	MarketEquity       domain.Value `json:"market_equity"`
	LaggedMarketEquity domain.Value `json:"lagged_market_equity"`
	Weight             domain.Value `json:"weight"`
	ShareClassCode     int          `json:"share_class_code"`
	ExchangeCode       int          `json:"exchange_code"`
	MonthsOnFile       int          `json:"months_on_file"`
	FormationYear      int          `json:"formation_year"`
	FormationMonth     int          `json:"formation_month"`
}

// FormationRow is one security's June formation snapshot: the sizing and
// characteristic values an annual sort cuts on. AccountingYears counts the
// linked entity's earlier fiscal records and is -1 when no accounting record
// was available at the snapshot date.
type FormationRow struct {
	SecurityID      int64        `json:"security_id"`
	Month           time.Time    `json:"month"`
	MarketEquity    domain.Value `json:"market_equity"`
	DecemberME      domain.Value `json:"december_market_equity"`
	BookEquity      domain.Value `json:"book_equity"`
	BookToMarket    domain.Value `json:"book_to_market"`
	Profitability   domain.Value `json:"profitability"`
	AssetGrowth     domain.Value `json:"asset_growth"`
	ShareClassCode  int          `json:"share_class_code"`
	ExchangeCode    int          `json:"exchange_code"`
	MonthsOnFile    int          `json:"months_on_file"`
	AccountingYears int          `json:"accounting_years"`
}

type rowKey struct {
	securityID int64
	month      time.Time
}

// Panel is the assembled monthly panel: rows ordered by (month, security)
// with per-month and per-key indexes, plus the June formation snapshots.
// A Panel is immutable once built.
type Panel struct {
	rows       []Row
	months     []time.Time
	byMonth    map[time.Time][]Row
	rowIndex   map[rowKey]int
	formRows   []FormationRow
	formations map[time.Time][]FormationRow
	formIndex  map[rowKey]int
}

func newPanel(rows []Row, formRows []FormationRow) *Panel {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Month.Equal(rows[j].Month) {
			return rows[i].Month.Before(rows[j].Month)
		}
		return rows[i].SecurityID < rows[j].SecurityID
	})
	sort.Slice(formRows, func(i, j int) bool {
		if !formRows[i].Month.Equal(formRows[j].Month) {
			return formRows[i].Month.Before(formRows[j].Month)
		}
		return formRows[i].SecurityID < formRows[j].SecurityID
	})

	p := &Panel{
		rows:       rows,
		byMonth:    make(map[time.Time][]Row),
		rowIndex:   make(map[rowKey]int, len(rows)),
		formRows:   formRows,
		formations: make(map[time.Time][]FormationRow),
		formIndex:  make(map[rowKey]int, len(formRows)),
	}
	start := 0
	for i := range rows {
		p.rowIndex[rowKey{rows[i].SecurityID, rows[i].Month}] = i
		if i == len(rows)-1 || !rows[i+1].Month.Equal(rows[i].Month) {
			p.byMonth[rows[i].Month] = rows[start : i+1]
			p.months = append(p.months, rows[i].Month)
			start = i + 1
		}
	}
	start = 0
	for i := range formRows {
		p.formIndex[rowKey{formRows[i].SecurityID, formRows[i].Month}] = i
		if i == len(formRows)-1 || !formRows[i+1].Month.Equal(formRows[i].Month) {
			p.formations[formRows[i].Month] = formRows[start : i+1]
			start = i + 1
		}
	}
	return p
}

// Months returns the distinct panel months in ascending order. The slice is
// shared; callers must not modify it.
func (p *Panel) Months() []time.Time {
	return p.months
}

// Rows returns every panel row ordered by (month, security).
func (p *Panel) Rows() []Row {
	return p.rows
}

// RowsAt returns the rows of one month, ordered by security.
func (p *Panel) RowsAt(month time.Time) []Row {
	return p.byMonth[domain.MonthEnd(month)]
}

// Row returns the row of one security-month.
func (p *Panel) Row(securityID int64, month time.Time) (Row, bool) {
	i, ok := p.rowIndex[rowKey{securityID, domain.MonthEnd(month)}]
	if !ok {
		return Row{}, false
	}
	return p.rows[i], true
}

// FormationDates returns the June snapshot dates in ascending order.
func (p *Panel) FormationDates() []time.Time {
	dates := make([]time.Time, 0, len(p.formations))
	for d := range p.formations {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// FormationsAt returns the formation snapshots of one June, ordered by
// security.
func (p *Panel) FormationsAt(month time.Time) []FormationRow {
	return p.formations[domain.MonthEnd(month)]
}

// Formation returns one security's snapshot for a June formation date.
func (p *Panel) Formation(securityID int64, month time.Time) (FormationRow, bool) {
	i, ok := p.formIndex[rowKey{securityID, domain.MonthEnd(month)}]
	if !ok {
		return FormationRow{}, false
	}
	return p.formRows[i], true
}

// Len returns the number of panel rows.
func (p *Panel) Len() int {
	return len(p.rows)
}
