package pipeline

import (
	"context"

	"github.com/aidanvyas/asset-pricing-code/internal/accounting"
	"github.com/aidanvyas/asset-pricing-code/internal/factors"
	"github.com/aidanvyas/asset-pricing-code/internal/linking"
	"github.com/aidanvyas/asset-pricing-code/internal/panel"
	"github.com/aidanvyas/asset-pricing-code/internal/returns"
	"github.com/aidanvyas/asset-pricing-code/internal/validation"
)

// integrityStage rejects datasets with structural violations before any
// computation consumes them.
type integrityStage struct {
	checker *validation.Checker
}

func (s *integrityStage) Name() string { return StageIntegrity }

func (s *integrityStage) Run(ctx context.Context, state *State) error {
	return s.checker.Check(ctx, state.Dataset)
}

// linkStage builds the entity-to-security resolver from the link table.
type linkStage struct{}

func (s *linkStage) Name() string { return StageLink }

func (s *linkStage) Run(ctx context.Context, state *State) error {
	resolver, err := linking.NewResolver(state.Dataset.Links)
	if err != nil {
		return err
	}
	state.Resolver = resolver
	return nil
}

// alignStage applies the availability policy: records that arrived without
// a public availability date get fiscal year end plus the minimum
// disclosure lag, snapped to month end. Records with an explicit date pass
// through untouched; the integrity stage already rejected any inside the
// lag.
type alignStage struct {
	lagMonths int
}

func (s *alignStage) Name() string { return StageAlign }

func (s *alignStage) Run(ctx context.Context, state *State) error {
	state.Accounting = accounting.ApplyAvailabilityPolicy(state.Dataset.Accounting, s.lagMonths)
	return nil
}

// deriveStage computes fundamentals from the aligned records and indexes
// them for point-in-time lookup by security.
type deriveStage struct{}

func (s *deriveStage) Name() string { return StageDerive }

func (s *deriveStage) Run(ctx context.Context, state *State) error {
	state.Fundamentals = accounting.DeriveAll(state.Accounting)
	state.Aligner = accounting.NewAligner(state.Fundamentals, state.Resolver)
	return nil
}

// returnsStage splices delisting returns into the observation rows and
// computes the momentum characteristic over the spliced series.
type returnsStage struct {
	builder  *returns.Builder
	momentum *returns.MomentumCalculator
}

func (s *returnsStage) Name() string { return StageReturns }

func (s *returnsStage) Run(ctx context.Context, state *State) error {
	state.Observations = s.builder.Build(state.Dataset.Securities, state.Dataset.Delistings)
	state.Momentum = s.momentum.Compute(state.Observations)
	return nil
}

// panelStage assembles the monthly panel: issuer aggregation, market
// equity series, December equity carry and formation rows.
type panelStage struct{}

func (s *panelStage) Name() string { return StagePanel }

func (s *panelStage) Run(ctx context.Context, state *State) error {
	p, err := panel.NewAssembler(state.Aligner).Assemble(ctx, state.Observations)
	if err != nil {
		return err
	}
	state.Panel = p
	return nil
}

// factorsStage runs the sort specs over the panel calendar.
type factorsStage struct {
	engine *factors.Engine
}

func (s *factorsStage) Name() string { return StageFactors }

func (s *factorsStage) Run(ctx context.Context, state *State) error {
	series, err := s.engine.Compute(ctx, factors.Inputs{
		Panel:    state.Panel,
		Momentum: state.Momentum,
		RiskFree: state.Dataset.RiskFree,
		Specs:    state.Specs,
	})
	if err != nil {
		return err
	}
	state.Series = series
	return nil
}

// validateStage compares every produced series against its published
// reference. Divergence never fails the stage; it is reported, not
// corrected.
type validateStage struct {
	comparator *validation.Comparator
}

func (s *validateStage) Name() string { return StageValidate }

func (s *validateStage) Run(ctx context.Context, state *State) error {
	state.Validation = s.comparator.Compare(ctx, state.Series, state.Dataset.Reference)
	return nil
}
