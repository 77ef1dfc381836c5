package pipeline

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/aidanvyas/asset-pricing-code/internal/config"
	apperrors "github.com/aidanvyas/asset-pricing-code/internal/errors"
	"github.com/aidanvyas/asset-pricing-code/internal/factors"
	"github.com/aidanvyas/asset-pricing-code/internal/infrastructure"
	"github.com/aidanvyas/asset-pricing-code/internal/shared/testutil"
	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func v(f float64) domain.Value { return domain.NewValue(f) }

func observation(id int64, month time.Time, ret, price float64, shareClass int) domain.SecurityObservation {
	return domain.SecurityObservation{
		SecurityID:        id,
		PeriodEnd:         month,
		Return:            v(ret),
		ReturnExDividends: v(0),
		Price:             v(price),
		SharesOutstanding: 1,
		ShareClassCode:    shareClass,
		ExchangeCode:      1,
	}
}

// gridSecurity is one member of the end-to-end fixture: four small and four
// big names whose characteristics all rank in the same order, so every sort
// forms the same two-by-three grid.
type gridSecurity struct {
	id         int64
	size       float64
	bm         float64
	profit     float64
	growth     float64
	momentum   float64
	julyReturn float64
}

func gridSecurities() []gridSecurity {
	return []gridSecurity{
		{1, 10, 0.10, 0.05, -0.10, -0.50, 0.01},
		{2, 20, 0.40, 0.20, 0.02, 0.20, 0.03},
		{3, 30, 0.80, 0.40, 0.10, 0.50, 0.02},
		{4, 40, 1.20, 0.60, 0.30, 0.90, 0.05},
		{5, 100, 0.15, 0.07, -0.05, -0.40, 0.02},
		{6, 200, 0.45, 0.22, 0.03, 0.25, 0.01},
		{7, 300, 0.85, 0.42, 0.12, 0.55, 0.04},
		{8, 400, 1.25, 0.65, 0.35, 1.00, 0.06},
	}
}

// Cell returns of the grid fixture for July 1964, value weighted.
func gridCellReturns() (sl, sm, sh, bl, bm, bh float64) {
	sl = (10*0.01 + 20*0.03) / 30
	sm = 0.02
	sh = 0.05
	bl = 0.02
	bm = 0.01
	bh = (300*0.04 + 400*0.06) / 700
	return
}

// gridDataset builds raw inputs whose July 1964 factor values are exact by
// hand. Every grid name trades continuously from June 1962 with a flat
// price and a constant monthly return equal to its target momentum, so the
// prior-return windows resolve to the grid values; two fiscal years of
// accounting arrive without availability dates and rely on the availability
// policy; a ninth, non-common security delists in December 1963 without
// touching any universe. References cover HML exactly and UMD with a
// planted 100 bps divergence.
func gridDataset() domain.Dataset {
	var ds domain.Dataset
	first := date(1962, time.June, 30)
	last := date(1964, time.August, 31)

	for _, s := range gridSecurities() {
		entity := 100 + s.id
		ds.Links = append(ds.Links, domain.Link{
			EntityID:   entity,
			SecurityID: s.id,
			ValidFrom:  date(1960, time.January, 1),
		})

		be := s.bm * s.size / 1000
		ds.Accounting = append(ds.Accounting,
			domain.AccountingRecord{
				EntityID:        entity,
				FiscalPeriodEnd: date(1962, time.December, 31),
				SEQ:             v(1),
				EBITDA:          v(1),
				XINT:            v(0),
				AT:              v(100),
			},
			domain.AccountingRecord{
				EntityID:        entity,
				FiscalPeriodEnd: date(1963, time.December, 31),
				SEQ:             v(be),
				EBITDA:          v(s.profit * be),
				XINT:            v(0),
				AT:              v(100 * (1 + s.growth)),
			},
		)

		for month := first; !month.After(last); month = domain.AddMonthsEnd(month, 1) {
			ret := s.momentum
			switch {
			case month.Equal(date(1964, time.July, 31)):
				ret = s.julyReturn
			case month.Equal(date(1964, time.August, 31)):
				ret = 0.01
			}
			ds.Securities = append(ds.Securities, observation(s.id, month, ret, s.size, 10))
		}
	}

	for month := first; !month.After(date(1963, time.December, 31)); month = domain.AddMonthsEnd(month, 1) {
		ds.Securities = append(ds.Securities, observation(9, month, 0, 50, 73))
	}
	ds.Delistings = []domain.DelistingEvent{{
		SecurityID:    9,
		EventDate:     date(1963, time.December, 31),
		DelistingCode: domain.DelistingCodeUnknown,
	}}

	ds.RiskFree = domain.ReferenceSeries{Name: "RF", Points: []domain.SeriesPoint{
		{Date: date(1964, time.July, 31), Return: 0.003},
		{Date: date(1964, time.August, 31), Return: 0.002},
	}}

	sl, _, sh, bl, _, bh := gridCellReturns()
	wantHML := (sh+bh)/2 - (sl+bl)/2
	ds.Reference = []domain.ReferenceSeries{
		{Name: factors.FactorHML, Points: []domain.SeriesPoint{
			{Date: date(1964, time.July, 31), Return: wantHML},
			{Date: date(1964, time.August, 31), Return: 0},
		}},
		{Name: factors.FactorUMD, Points: []domain.SeriesPoint{
			{Date: date(1964, time.July, 31), Return: wantHML + 0.01},
		}},
	}
	return ds
}

func runner(t *testing.T) *Runner {
	t.Helper()
	r, err := NewRunner(config.Default(), nil, nil)
	require.NoError(t, err)
	return r
}

func factorAt(t *testing.T, report *RunReport, name string, y int, m time.Month) domain.Value {
	t.Helper()
	s, ok := report.SeriesFor(name)
	require.True(t, ok, "no series named %s", name)
	o, ok := s.At(domain.MonthEnd(date(y, m, 1)))
	require.True(t, ok, "%s has no %d-%02d observation", name, y, int(m))
	return o.Return
}

func TestRunProducesFullReport(t *testing.T) {
	report, err := runner(t).Run(context.Background(), gridDataset())
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.Failed())
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	stages := make([]string, len(report.Stages))
	for i, s := range report.Stages {
		stages[i] = s.Stage
		assert.Empty(t, s.Error)
	}
	assert.Equal(t, []string{
		StageIntegrity, StageLink, StageAlign, StageDerive,
		StageReturns, StagePanel, StageFactors, StageValidate,
	}, stages)

	names := make([]string, len(report.Series))
	for i, s := range report.Series {
		names[i] = s.Name
		assert.Equal(t, 27, s.Len(), "%s spans June 1962 through August 1964", s.Name)
	}
	assert.Equal(t, []string{
		"HML", "SMB_HML", "RMW", "SMB_RMW", "CMA", "SMB_CMA", "UMD", "MKT-RF", "SMB",
	}, names)

	sl, sm, sh, bl, bm, bh := gridCellReturns()
	wantHML := (sh+bh)/2 - (sl+bl)/2
	wantSMB := (sl+sm+sh)/3 - (bl+bm+bh)/3
	wantMKT := (10*0.01+20*0.03+30*0.02+40*0.05+100*0.02+200*0.01+300*0.04+400*0.06)/1100 - 0.003

	assert.InDelta(t, wantHML, factorAt(t, report, factors.FactorHML, 1964, time.July).Float64, 1e-12)
	assert.InDelta(t, wantHML, factorAt(t, report, factors.FactorRMW, 1964, time.July).Float64, 1e-12)
	assert.InDelta(t, -wantHML, factorAt(t, report, factors.FactorCMA, 1964, time.July).Float64, 1e-12)
	assert.InDelta(t, wantHML, factorAt(t, report, factors.FactorUMD, 1964, time.July).Float64, 1e-12)
	assert.InDelta(t, wantSMB, factorAt(t, report, factors.FactorSMB, 1964, time.July).Float64, 1e-12)
	assert.InDelta(t, wantMKT, factorAt(t, report, factors.FactorMKT, 1964, time.July).Float64, 1e-12)
	assert.InDelta(t, 0.01-0.002, factorAt(t, report, factors.FactorMKT, 1964, time.August).Float64, 1e-12)

	// Uniform August returns cancel, and the momentum windows are still
	// complete, so August is a zero rather than a gap.
	assert.InDelta(t, 0.0, factorAt(t, report, factors.FactorHML, 1964, time.August).Float64, 1e-12)
	assert.InDelta(t, 0.0, factorAt(t, report, factors.FactorUMD, 1964, time.August).Float64, 1e-12)

	// The June 1963 formation has no seasoned accounting behind it.
	assert.True(t, factorAt(t, report, factors.FactorHML, 1964, time.June).IsMissing())

	hml, ok := report.SeriesFor(factors.FactorHML)
	require.True(t, ok)
	assert.Equal(t, 25, hml.Gaps(), "only July and August 1964 follow a formed annual sort")
	umd, ok := report.SeriesFor(factors.FactorUMD)
	require.True(t, ok)
	assert.Equal(t, 12, umd.Gaps(), "prior-return windows are complete from June 1963 on")
}

func TestRunValidatesAgainstReferences(t *testing.T) {
	report, err := runner(t).Run(context.Background(), gridDataset())
	require.NoError(t, err)

	require.Len(t, report.Validation.Factors, 9, "one comparison per produced series")

	hml, ok := report.Validation.ComparisonFor(factors.FactorHML)
	require.True(t, ok)
	assert.False(t, hml.MissingRef)
	assert.Equal(t, 2, hml.Observations)
	assert.Equal(t, 0, hml.CoverageGaps)
	assert.Empty(t, hml.Breaches)
	assert.InDelta(t, 1.0, hml.Pearson, 1e-9)

	umd, ok := report.Validation.ComparisonFor(factors.FactorUMD)
	require.True(t, ok)
	assert.Len(t, umd.Breaches, 1, "the planted 100 bps divergence surfaces")
	assert.Equal(t, 1, report.Validation.TotalBreaches())

	rmw, ok := report.Validation.ComparisonFor(factors.FactorRMW)
	require.True(t, ok)
	assert.True(t, rmw.MissingRef)
	assert.Equal(t, 12, rmw.CoverageGaps, "unformed months after the validation start")
}

func TestRunPinsDatasetFingerprints(t *testing.T) {
	ds := gridDataset()
	first, err := runner(t).Run(context.Background(), ds)
	require.NoError(t, err)

	second, err := runner(t).Run(context.Background(), ds)
	require.NoError(t, err)

	assert.Len(t, first.Fingerprints.Securities, 64)
	assert.Equal(t, first.Fingerprints, second.Fingerprints, "same dataset, same identity")

	ds.Securities[0].Return = v(0.5)
	changed, err := runner(t).Run(context.Background(), ds)
	require.NoError(t, err)
	assert.NotEqual(t, first.Fingerprints.Securities, changed.Fingerprints.Securities)
	assert.Equal(t, first.Fingerprints.Accounting, changed.Fingerprints.Accounting)
}

func TestRunCustomSpec(t *testing.T) {
	spec := factors.SortSpec{
		Name:                      "VALUE",
		Characteristic:            domain.CharacteristicBookToMarket,
		LongBucket:                domain.BucketHigh,
		ShortBucket:               domain.BucketLow,
		RequirePositiveBookEquity: true,
	}

	report, err := runner(t).Run(context.Background(), gridDataset(), spec)
	require.NoError(t, err)

	names := make([]string, len(report.Series))
	for i, s := range report.Series {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"VALUE", "MKT-RF"}, names, "no size leg, no composed size factor")

	sl, _, sh, bl, _, bh := gridCellReturns()
	got := factorAt(t, report, "VALUE", 1964, time.July)
	require.False(t, got.IsMissing())
	assert.InDelta(t, (sh+bh)/2-(sl+bl)/2, got.Float64, 1e-12)
}

func TestRunReportsIntegrityFailure(t *testing.T) {
	ds := gridDataset()
	ds.Securities = append(ds.Securities, ds.Securities[0])

	report, err := runner(t).Run(context.Background(), ds)
	require.Error(t, err)
	var list *apperrors.ErrorList
	require.ErrorAs(t, err, &list)

	require.NotNil(t, report)
	assert.True(t, report.Failed())
	require.Len(t, report.Stages, 1, "the run stops at the first failing stage")
	assert.Equal(t, StageIntegrity, report.Stages[0].Stage)
	assert.NotEmpty(t, report.Stages[0].Error)
	assert.Empty(t, report.Series)
	assert.Len(t, report.Fingerprints.Securities, 64,
		"identity is pinned even for rejected datasets")
}

func TestRunHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := runner(t).Run(ctx, gridDataset())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Empty(t, report.Stages, "no stage starts after cancellation")
}

func TestRunAdoptsContextTraceID(t *testing.T) {
	ctx := infrastructure.WithTraceID(context.Background(), "run-under-test")

	report, err := runner(t).Run(ctx, gridDataset())
	require.NoError(t, err)
	assert.Equal(t, "run-under-test", report.RunID)
}

func TestRunRecordsMetrics(t *testing.T) {
	metrics, err := infrastructure.CreateEngineMetrics(otel.Meter("pipeline-test"))
	require.NoError(t, err)

	r, err := NewRunner(config.Default(), metrics, nil)
	require.NoError(t, err)

	report, err := r.Run(context.Background(), gridDataset())
	require.NoError(t, err)
	assert.False(t, report.Failed())
}

func TestNewRunnerRejectsBadStartDate(t *testing.T) {
	cfg := config.Default()
	cfg.Validation.StartDate = "July 1963"

	_, err := NewRunner(cfg, nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestRunReportTimings(t *testing.T) {
	report, err := runner(t).Run(context.Background(), gridDataset())
	require.NoError(t, err)

	timing, ok := report.TimingFor(StageFactors)
	require.True(t, ok)
	assert.False(t, timing.StartedAt.IsZero())

	_, ok = report.TimingFor("render")
	assert.False(t, ok)
	assert.GreaterOrEqual(t, report.Duration(), time.Duration(0))
}

func TestRunEmitsStructuredLogs(t *testing.T) {
	rec := testutil.NewLogRecorder()
	r, err := NewRunner(config.Default(), nil, rec.Logger())
	require.NoError(t, err)

	report, err := r.Run(context.Background(), gridDataset())
	require.NoError(t, err)

	assert.True(t, rec.Has(slog.LevelInfo, "pipeline run starting"))
	assert.True(t, rec.Has(slog.LevelInfo, "pipeline run completed"))
	assert.True(t, rec.Has(slog.LevelInfo, "dataset integrity verified"),
		"stage components log through the injected logger")

	completed := rec.ByMessage("stage completed")
	require.Len(t, completed, len(report.Stages))
	for _, record := range completed {
		assert.Equal(t, report.RunID, record.Attrs["run_id"],
			"runner records carry the run identity")
	}

	starts := rec.ByMessage("pipeline run starting")
	require.Len(t, starts, 1)
	assert.Equal(t, report.RunID, starts[0].Attrs["run_id"])
}

func TestRunLogsFailure(t *testing.T) {
	ds := gridDataset()
	ds.Securities = append(ds.Securities, ds.Securities[0])

	rec := testutil.NewLogRecorder()
	r, err := NewRunner(config.Default(), nil, rec.Logger())
	require.NoError(t, err)

	_, err = r.Run(context.Background(), ds)
	require.Error(t, err)

	assert.True(t, rec.Has(slog.LevelWarn, "dataset failed integrity checks"))
	assert.True(t, rec.Has(slog.LevelError, "stage failed"))
	assert.True(t, rec.Has(slog.LevelError, "pipeline run failed"))
}
