package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aidanvyas/asset-pricing-code/internal/config"
	apperrors "github.com/aidanvyas/asset-pricing-code/internal/errors"
	"github.com/aidanvyas/asset-pricing-code/internal/factors"
	"github.com/aidanvyas/asset-pricing-code/internal/infrastructure"
	"github.com/aidanvyas/asset-pricing-code/internal/returns"
	"github.com/aidanvyas/asset-pricing-code/internal/validation"
	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// TracerName identifies pipeline spans.
const TracerName = "assetpricing.pipeline"

// Runner executes the fixed stage sequence over one in-memory dataset. A
// Runner is stateless across runs and safe for concurrent use; each run
// gets its own State.
type Runner struct {
	stages  []Stage
	metrics *infrastructure.EngineMetrics
	runtime *infrastructure.RuntimeMetrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewRunner wires the stage sequence from configuration. A nil logger
// falls back to the process default; nil metrics disable instrument
// recording, runtime sampling included, without touching tracing.
func NewRunner(cfg *config.Config, metrics *infrastructure.EngineMetrics, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	comparator, err := validation.NewComparator(cfg.Validation, logger)
	if err != nil {
		return nil, err
	}

	// Engine instruments are injected; runtime instruments come off the
	// global meter so they share whatever provider the process installed.
	var runtimeMetrics *infrastructure.RuntimeMetrics
	if metrics != nil {
		runtimeMetrics, err = infrastructure.NewRuntimeMetrics(otel.Meter(infrastructure.MeterName))
		if err != nil {
			return nil, err
		}
	}

	stages := []Stage{
		&integrityStage{checker: validation.NewChecker(cfg.Panel, logger)},
		&linkStage{},
		&alignStage{lagMonths: cfg.Panel.MinDisclosureLagMonths},
		&deriveStage{},
		&returnsStage{
			builder:  returns.NewBuilder(cfg.Factors.DelistingPenaltyMajor, cfg.Factors.DelistingPenaltyMinor),
			momentum: returns.NewMomentumCalculator(cfg.Factors.MomentumWindowMonths, cfg.Factors.MomentumSkipMonths),
		},
		&panelStage{},
		&factorsStage{engine: factors.NewEngine(cfg, logger)},
		&validateStage{comparator: comparator},
	}

	return &Runner{
		stages:  stages,
		metrics: metrics,
		runtime: runtimeMetrics,
		tracer:  otel.Tracer(TracerName),
		logger:  logger,
	}, nil
}

// Run executes every stage in order and assembles the run report. The
// report is returned even when a stage fails, carrying the fingerprints
// and the timings of the stages that ran. The run identity comes from the
// context trace ID; a context without one gets a fresh ID.
func (r *Runner) Run(ctx context.Context, ds domain.Dataset, specs ...factors.SortSpec) (*RunReport, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	runID := infrastructure.GetTraceID(ctx)
	logger := r.logger.With("run_id", runID)

	report := &RunReport{
		RunID:        runID,
		StartedAt:    time.Now(),
		Fingerprints: validation.Fingerprint(ds),
	}

	ctx, span := r.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("pipeline.stages", len(r.stages)),
			attribute.Int("dataset.securities", len(ds.Securities)),
			attribute.Int("dataset.accounting", len(ds.Accounting)),
		),
	)
	defer span.End()

	logger.InfoContext(ctx, "pipeline run starting",
		"stages", len(r.stages),
		"securities", len(ds.Securities),
		"accounting", len(ds.Accounting),
		"links", len(ds.Links),
		"delistings", len(ds.Delistings),
		"securities_fingerprint", report.Fingerprints.Securities,
	)

	infrastructure.RecordActiveRunChange(ctx, r.metrics, 1)
	defer infrastructure.RecordActiveRunChange(ctx, r.metrics, -1)

	state := &State{Dataset: ds, Specs: specs}
	var runErr error
	for _, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			logger.WarnContext(ctx, "pipeline run cancelled",
				"before_stage", stage.Name(),
			)
			runErr = err
			break
		}
		timing, err := r.runStage(ctx, stage, state, runID, logger)
		report.Stages = append(report.Stages, timing)
		if err != nil {
			runErr = err
			break
		}
	}

	report.FinishedAt = time.Now()
	report.Series = state.Series
	report.Validation = state.Validation

	duration := report.Duration()
	infrastructure.RecordRunMetrics(ctx, r.metrics, runID, duration, runErr)

	if runErr != nil {
		span.SetStatus(codes.Error, runErr.Error())
		logger.ErrorContext(ctx, "pipeline run failed",
			"duration", duration,
			"stages_run", len(report.Stages),
			"error", runErr,
		)
		return report, runErr
	}

	r.recordOutcome(ctx, state, report)
	span.SetStatus(codes.Ok, "pipeline run completed")
	logger.InfoContext(ctx, "pipeline run completed",
		"duration", duration,
		"series", len(report.Series),
		"tolerance_breaches", report.Validation.TotalBreaches(),
		"coverage_gaps", report.Validation.TotalGaps(),
	)

	if r.runtime != nil {
		stats := r.runtime.Sample(ctx)
		logger.DebugContext(ctx, "runtime footprint",
			"goroutines", stats.Goroutines,
			"heap_alloc_bytes", stats.HeapAlloc,
			"heap_sys_bytes", stats.HeapSys,
			"gc_count", stats.GCCount,
		)
	}
	return report, nil
}

// runStage executes one stage inside its own span and records its metrics.
func (r *Runner) runStage(ctx context.Context, stage Stage, state *State, runID string, logger *slog.Logger) (StageTiming, error) {
	ctx, span := r.tracer.Start(ctx, "pipeline.stage."+stage.Name(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("stage.name", stage.Name()),
		),
	)
	defer span.End()

	logger.InfoContext(ctx, "stage starting", "stage", stage.Name())

	start := time.Now()
	err := stage.Run(ctx, state)
	duration := time.Since(start)

	infrastructure.RecordStageMetrics(ctx, r.metrics, runID, stage.Name(), duration, err)
	span.SetAttributes(attribute.Float64("stage.duration_seconds", duration.Seconds()))

	timing := StageTiming{Stage: stage.Name(), StartedAt: start, Duration: duration}
	if err != nil {
		timing.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.recordStageFailure(ctx, stage.Name(), err)
		logger.ErrorContext(ctx, "stage failed",
			"stage", stage.Name(),
			"duration", duration,
			"error", err,
		)
		return timing, err
	}

	span.SetStatus(codes.Ok, "stage completed")
	logger.InfoContext(ctx, "stage completed",
		"stage", stage.Name(),
		"duration", duration,
	)
	return timing, nil
}

// recordStageFailure feeds stage-specific failure counters. Integrity
// failures carry the full violation list, so the counter advances by the
// number of violations rather than by one.
func (r *Runner) recordStageFailure(ctx context.Context, stage string, err error) {
	if r.metrics == nil || stage != StageIntegrity {
		return
	}
	var list *apperrors.ErrorList
	if errors.As(err, &list) {
		r.metrics.IntegrityViolations.Add(ctx, int64(len(list.Errors)))
	}
}

// recordOutcome feeds the dataset-level counters after a successful run.
func (r *Runner) recordOutcome(ctx context.Context, state *State, report *RunReport) {
	if r.metrics == nil {
		return
	}
	if state.Panel != nil {
		r.metrics.RebalanceDates.Add(ctx, int64(len(state.Panel.FormationDates())))
	}
	for _, s := range state.Series {
		var present int64
		for _, obs := range s.Observations {
			if !obs.Return.IsMissing() {
				present++
			}
		}
		infrastructure.RecordFactorObservations(ctx, r.metrics, s.Name, present)
	}
	r.metrics.CoverageGaps.Add(ctx, int64(report.Validation.TotalGaps()))
	r.metrics.ToleranceBreaches.Add(ctx, int64(report.Validation.TotalBreaches()))
}
