// Package pipeline orchestrates a full factor-construction run over one
// in-memory dataset.
//
// A run is a fixed sequence of stages, each consuming the products of its
// predecessors: integrity checking, link resolution, availability
// alignment, fundamental derivation, delisting splicing and momentum,
// panel assembly, factor computation, and reference validation. The
// sequence is inherently serial (a stage cannot start before its inputs
// exist) while the factor stage fans per-date work out across its own
// bounded pool.
//
// Every stage runs inside its own span with structured logs and duration
// metrics keyed by the run ID, which is the context trace ID (generated
// when absent). The product is a RunReport: the factor series, the
// validation report, fingerprints pinning the exact dataset consumed, and
// per-stage timings. A failed run still reports the stages that ran.
//
// Usage:
//
//	runner, err := pipeline.NewRunner(cfg, metrics, logger)
//	if err != nil {
//	    return err
//	}
//	report, err := runner.Run(ctx, dataset)
package pipeline
