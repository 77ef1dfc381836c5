package pipeline

import (
	"time"

	"github.com/aidanvyas/asset-pricing-code/internal/validation"
	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// StageTiming records one stage execution inside a run.
type StageTiming struct {
	Stage     string        `json:"stage"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// RunReport is the complete product of one pipeline run: the factor series,
// the reference validation report, the fingerprints pinning the exact
// dataset consumed, and per-stage timings. Rendering and export are the
// caller's concern. A failed run still returns a report carrying the
// timings of the stages that ran.
type RunReport struct {
	RunID        string                  `json:"run_id"`
	StartedAt    time.Time               `json:"started_at"`
	FinishedAt   time.Time               `json:"finished_at"`
	Fingerprints validation.Fingerprints `json:"fingerprints"`
	Series       []domain.FactorSeries   `json:"series,omitempty"`
	Validation   domain.ValidationReport `json:"validation"`
	Stages       []StageTiming           `json:"stages"`
}

// Duration returns the wall-clock time of the whole run.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failed reports whether any stage recorded an error.
func (r *RunReport) Failed() bool {
	for _, s := range r.Stages {
		if s.Error != "" {
			return true
		}
	}
	return false
}

// SeriesFor returns the produced series for a factor name.
func (r *RunReport) SeriesFor(name string) (domain.FactorSeries, bool) {
	for _, s := range r.Series {
		if s.Name == name {
			return s, true
		}
	}
	return domain.FactorSeries{}, false
}

// TimingFor returns the timing entry for a stage name.
func (r *RunReport) TimingFor(stage string) (StageTiming, bool) {
	for _, t := range r.Stages {
		if t.Stage == stage {
			return t, true
		}
	}
	return StageTiming{}, false
}
