package factors

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aidanvyas/asset-pricing-code/internal/config"
	apperrors "github.com/aidanvyas/asset-pricing-code/internal/errors"
	"github.com/aidanvyas/asset-pricing-code/internal/panel"
	"github.com/aidanvyas/asset-pricing-code/internal/returns"
	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// Inputs carries everything one computation run consumes. The panel and
// momentum table are read-only during the run.
type Inputs struct {
	// Panel is the assembled monthly panel.
	Panel *panel.Panel

	// Momentum is the per-security-month momentum characteristic.
	Momentum map[returns.MonthKey]domain.Value

	// RiskFree is the monthly risk-free series in decimal units.
	RiskFree domain.ReferenceSeries

	// Specs are the sorts to run; empty runs DefaultSpecs.
	Specs []SortSpec
}

// Engine computes factor return series from an assembled panel. An Engine
// is stateless across runs and safe for concurrent use.
type Engine struct {
	factors  config.FactorsConfig
	universe Universe
	scheme   WeightScheme
	workers  int
	logger   *slog.Logger
}

// NewEngine builds an engine from configuration. A nil logger falls back to
// the process default.
func NewEngine(cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Compute.MaxParallelDates
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{
		factors:  cfg.Factors,
		universe: NewUniverse(cfg.Factors),
		scheme:   WeightScheme(cfg.Factors.WeightingScheme),
		workers:  workers,
		logger:   logger,
	}
}

// sortRun is one spec's per-run state: its axis labels and the formations
// at every rebalance date.
type sortRun struct {
	spec     SortSpec
	sizeAxis []domain.Bucket
	charAxis []domain.Bucket
	formed   map[time.Time]*formation
}

// formation is the formed state of one sort at one rebalance date. gap
// marks a date whose reference subpopulation was empty; every cell return
// for such a date is missing and the run continues.
type formation struct {
	cells map[domain.CellKey]domain.Portfolio
	gap   bool
}

// Compute runs every spec over the panel calendar and returns the factor
// series in a deterministic order: each sort, its size leg when emitted,
// the market excess return, and the size factor composed from the legs.
// Every series spans the full panel calendar; dates that could not be
// computed carry missing values.
func (e *Engine) Compute(ctx context.Context, in Inputs) ([]domain.FactorSeries, error) {
	if in.Panel == nil || in.Panel.Len() == 0 {
		return nil, apperrors.NewValidationError("factors", "panel has no rows")
	}
	specs := in.Specs
	if len(specs) == 0 {
		specs = DefaultSpecs()
	}

	runs := make([]*sortRun, len(specs))
	seen := make(map[string]bool, len(specs))
	for i, spec := range specs {
		normalized, err := e.normalize(spec)
		if err != nil {
			return nil, err
		}
		if seen[normalized.Name] {
			return nil, apperrors.NewConfigurationError(normalized.Name, "duplicate sort name")
		}
		seen[normalized.Name] = true
		runs[i] = &sortRun{
			spec:     normalized,
			sizeAxis: sizeLabels(len(normalized.SizeQuantiles) + 1),
			charAxis: characteristicLabels(len(normalized.Quantiles) + 1),
		}
	}

	months := in.Panel.Months()
	e.logger.InfoContext(ctx, "computing factor series",
		"sorts", len(runs),
		"months", len(months),
		"weighting", string(e.scheme),
		"workers", e.workers,
	)

	for _, run := range runs {
		if err := e.form(ctx, run, in); err != nil {
			return nil, err
		}
	}

	riskFree := indexSeries(in.RiskFree)
	results := make([]map[string]domain.Value, len(months))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, month := range months {
		i, month := i, month
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = e.computeMonth(in, runs, month, riskFree)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	series, err := assemble(runs, months, results)
	if err != nil {
		return nil, err
	}
	for _, s := range series {
		e.logger.InfoContext(ctx, "factor series computed",
			"name", s.Name,
			"observations", s.Len(),
			"gaps", s.Gaps(),
		)
	}
	return series, nil
}

// normalize fills a spec's open settings from configuration and validates
// the result.
func (e *Engine) normalize(spec SortSpec) (SortSpec, error) {
	if spec.Rebalance == "" {
		spec.Rebalance = Rebalance(e.factors.RebalanceFrequency)
	}
	if len(spec.Quantiles) == 0 {
		spec.Quantiles = e.factors.BreakpointQuantiles
	}
	if len(spec.SizeQuantiles) == 0 {
		spec.SizeQuantiles = e.factors.SizeQuantiles
	}
	if err := spec.Validate(); err != nil {
		return SortSpec{}, err
	}
	return spec, nil
}

// form builds the spec's portfolios at every rebalance date, fanning dates
// out across the worker pool into pre-indexed slots.
func (e *Engine) form(ctx context.Context, run *sortRun, in Inputs) error {
	dates := rebalanceDates(in.Panel, run.spec.Rebalance)
	slots := make([]*formation, len(dates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, date := range dates {
		i, date := i, date
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			slots[i] = e.formDate(run, date, in)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	run.formed = make(map[time.Time]*formation, len(dates))
	gaps := 0
	for i, date := range dates {
		run.formed[date] = slots[i]
		if slots[i].gap {
			gaps++
		}
	}
	e.logger.DebugContext(ctx, "portfolios formed",
		"sort", run.spec.Name,
		"rebalance_dates", len(dates),
		"reference_gaps", gaps,
	)
	return nil
}

// formDate forms one rebalance date: screen candidates, cut breakpoints on
// the reference subpopulation, and assign cells. An empty reference
// subpopulation (or one with no present characteristic) is a coverage gap.
func (e *Engine) formDate(run *sortRun, date time.Time, in Inputs) *formation {
	var candidates []Candidate
	if run.spec.Rebalance == RebalanceAnnual {
		candidates = annualCandidates(in.Panel, date, run.spec, e.universe)
	} else {
		candidates = monthlyCandidates(in.Panel, date, run.spec, e.universe, in.Momentum)
	}

	var refSizes, refChars []domain.Value
	for _, c := range candidates {
		if !c.Reference {
			continue
		}
		refSizes = append(refSizes, c.Size)
		refChars = append(refChars, c.Characteristic)
	}
	sizeCuts := ComputeBreakpoints(refSizes, run.spec.SizeQuantiles)
	charCuts := ComputeBreakpoints(refChars, run.spec.Quantiles)
	if len(sizeCuts) == 0 || len(charCuts) == 0 {
		return &formation{gap: true}
	}

	cells := FormPortfolios(date, candidates, sizeCuts, charCuts, run.sizeAxis, run.charAxis, e.scheme)
	return &formation{cells: cells}
}

// rebalanceDates lists a spec's formation dates over the panel calendar.
func rebalanceDates(p *panel.Panel, rebalance Rebalance) []time.Time {
	if rebalance == RebalanceMonthly {
		return p.Months()
	}
	return p.FormationDates()
}

// computeMonth computes every spec's factor value and the market excess
// return for one month. Each worker writes only its own slot.
func (e *Engine) computeMonth(in Inputs, runs []*sortRun, month time.Time, riskFree map[time.Time]float64) map[string]domain.Value {
	out := make(map[string]domain.Value, 2*len(runs)+1)
	for _, run := range runs {
		cells, ok := e.cellsFor(run, month)
		if !ok {
			out[run.spec.Name] = domain.Missing()
			if run.spec.EmitSizeLeg {
				out[SizeLegName(run.spec.Name)] = domain.Missing()
			}
			continue
		}
		cellReturns := make(map[domain.CellKey]domain.Value, len(cells))
		for key, portfolio := range cells {
			cellReturns[key] = CellReturn(in.Panel, portfolio, month, e.universe, e.scheme)
		}
		out[run.spec.Name] = ComposeLongShort(cellReturns, run.sizeAxis, run.spec.LongBucket, run.spec.ShortBucket)
		if run.spec.EmitSizeLeg {
			out[SizeLegName(run.spec.Name)] = ComposeSizeLeg(cellReturns, run.charAxis)
		}
	}

	market := MarketReturn(in.Panel, month, e.universe, e.scheme)
	if rf, ok := riskFree[month]; ok {
		out[FactorMKT] = market.Sub(domain.NewValue(rf))
	} else {
		out[FactorMKT] = domain.Missing()
	}
	return out
}

// cellsFor resolves the formation governing a holding month: the month
// itself for monthly sorts, the formation year's June for annual sorts.
// false means no formation governs the month, either before the first
// rebalance or on a formation date that gapped.
func (e *Engine) cellsFor(run *sortRun, month time.Time) (map[domain.CellKey]domain.Portfolio, bool) {
	date := month
	if run.spec.Rebalance == RebalanceAnnual {
		ffdate := domain.AddMonthsEnd(month, -6)
		date = domain.MonthEnd(time.Date(ffdate.Year(), time.June, 1, 0, 0, 0, 0, time.UTC))
	}
	f, ok := run.formed[date]
	if !ok || f.gap {
		return nil, false
	}
	return f.cells, true
}

// assemble turns the per-month result maps into chronologically ordered
// series, composing the size factor from the emitted size legs last.
func assemble(runs []*sortRun, months []time.Time, results []map[string]domain.Value) ([]domain.FactorSeries, error) {
	names := make([]string, 0, 2*len(runs)+1)
	var legs []string
	for _, run := range runs {
		names = append(names, run.spec.Name)
		if run.spec.EmitSizeLeg {
			leg := SizeLegName(run.spec.Name)
			names = append(names, leg)
			legs = append(legs, leg)
		}
	}
	names = append(names, FactorMKT)

	series := make([]domain.FactorSeries, 0, len(names)+1)
	for _, name := range names {
		s := domain.FactorSeries{Name: name}
		for i, month := range months {
			if err := s.Append(domain.FactorObservation{Date: month, Return: results[i][name]}); err != nil {
				return nil, err
			}
		}
		series = append(series, s)
	}

	if len(legs) > 0 {
		smb := domain.FactorSeries{Name: FactorSMB}
		for i, month := range months {
			values := make([]domain.Value, 0, len(legs))
			for _, leg := range legs {
				values = append(values, results[i][leg])
			}
			if err := smb.Append(domain.FactorObservation{Date: month, Return: ComposeAverage(values...)}); err != nil {
				return nil, err
			}
		}
		series = append(series, smb)
	}
	return series, nil
}

// indexSeries indexes a reference series by month end for constant-time
// lookups inside the month loop.
func indexSeries(s domain.ReferenceSeries) map[time.Time]float64 {
	idx := make(map[time.Time]float64, len(s.Points))
	for _, p := range s.Points {
		idx[domain.MonthEnd(p.Date)] = p.Return
	}
	return idx
}
