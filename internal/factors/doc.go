// Package factors builds long-short factor return series from the assembled
// security panel.
//
// One configurable engine replaces the classical per-factor scripts: a sort
// is described by a SortSpec (which characteristic, when it rebalances, how
// the cross-section is cut, which buckets are held long and short), and the
// engine runs every spec through the same four steps:
//
//  1. Universe selection: at each rebalance date the candidates are screened
//     by share class, exchange, positive size, and seasoning; a separate
//     reference subpopulation (NYSE by default) is marked for breakpoints.
//  2. Breakpoints: cutpoints at the configured quantiles of the reference
//     subpopulation, linearly interpolated between order statistics. Missing
//     characteristic values are dropped, never imputed. Cutpoints computed
//     on the reference subpopulation are applied to the whole universe.
//  3. Sorting: every eligible candidate with the required characteristics
//     lands in exactly one cell of the size-by-characteristic grid;
//     boundary ties go to the lower bucket. Membership is fixed until the
//     next rebalance.
//  4. Aggregation and composition: each cell's holding-month return is the
//     weighted mean over members with a positive weight and a present
//     return, and the factor is the mean of the long cells minus the mean
//     of the short cells. A missing constituent makes the factor missing
//     for that date: gaps propagate, they are never zeroed.
//
// The named specs in specs.go reproduce the Fama-French 2x3 sorts (value,
// profitability, investment), a monthly momentum sort, the value-weighted
// market return over the risk-free rate, and the size factor composed from
// the three annual sorts' size legs.
//
// # Concurrency
//
// Formation dates and holding months are independent given the immutable
// panel, so the engine fans both out across an errgroup-bounded pool; each
// worker writes a pre-indexed slot, keeping the output calendar strictly
// chronological no matter the completion order. A single date's failure to
// form (an empty reference subpopulation) degrades to missing values for
// that date and never aborts the run.
//
// # Usage
//
//	engine := factors.NewEngine(cfg, slog.Default())
//	series, err := engine.Compute(ctx, factors.Inputs{
//	    Panel:    p,
//	    Momentum: momentum,
//	    RiskFree: dataset.RiskFree,
//	})
package factors
