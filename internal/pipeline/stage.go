package pipeline

import (
	"context"

	"github.com/aidanvyas/asset-pricing-code/internal/accounting"
	"github.com/aidanvyas/asset-pricing-code/internal/factors"
	"github.com/aidanvyas/asset-pricing-code/internal/linking"
	"github.com/aidanvyas/asset-pricing-code/internal/panel"
	"github.com/aidanvyas/asset-pricing-code/internal/returns"
	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// Stage names, in execution order. They appear in logs, span names, stage
// metrics and the run report.
const (
	StageIntegrity = "integrity"
	StageLink      = "link"
	StageAlign     = "align"
	StageDerive    = "derive"
	StageReturns   = "returns"
	StagePanel     = "panel"
	StageFactors   = "factors"
	StageValidate  = "validate"
)

// Stage is one step of a pipeline run. The pipeline is inherently
// sequential: every stage consumes products written by its predecessors, so
// stages execute in a fixed order and a failure stops the run.
type Stage interface {
	// Name identifies the stage in logs, spans and metrics.
	Name() string

	// Run executes the stage against the shared run state.
	Run(ctx context.Context, state *State) error
}

// State carries one run's intermediate products from stage to stage. Each
// stage writes only its own fields; everything it reads was written by an
// earlier stage. The Dataset and Specs fields are the run's inputs and are
// never modified.
type State struct {
	// Dataset is the full input: observations, accounting, links,
	// delistings, the risk-free series and the reference series.
	Dataset domain.Dataset

	// Specs are the sorts to run; empty means the default suite.
	Specs []factors.SortSpec

	// Accounting holds the records after the availability policy stamped
	// the rows that arrived without a public availability date.
	Accounting []domain.AccountingRecord

	// Fundamentals are the derived book equity, operating profitability
	// and asset growth figures, one per fiscal year.
	Fundamentals []accounting.Fundamentals

	// Resolver maps reporting entities to securities at a date.
	Resolver *linking.Resolver

	// Aligner serves the latest publicly available fundamentals for a
	// security at a date.
	Aligner *accounting.Aligner

	// Observations are the security months with delisting returns spliced
	// in.
	Observations []domain.SecurityObservation

	// Momentum is the per-security-month momentum characteristic.
	Momentum map[returns.MonthKey]domain.Value

	// Panel is the assembled monthly security panel.
	Panel *panel.Panel

	// Series are the computed factor return series.
	Series []domain.FactorSeries

	// Validation compares every produced series against its reference.
	Validation domain.ValidationReport
}
