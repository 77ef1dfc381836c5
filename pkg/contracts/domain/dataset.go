package domain

import (
	"time"
)

// SeriesPoint is one dated return of a complete (gap-free) external series.
type SeriesPoint struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
}

// ReferenceSeries is a published factor series used for validation, keyed by
// the factor name it corresponds to. Returns are in decimal units.
type ReferenceSeries struct {
	Name   string        `json:"name"`
	Points []SeriesPoint `json:"points"`
}

// At returns the point for the given date.
func (s ReferenceSeries) At(date time.Time) (float64, bool) {
	for _, p := range s.Points {
		if p.Date.Equal(date) {
			return p.Return, true
		}
	}
	return 0, false
}

// Dataset bundles every input table the engine consumes. All tables arrive
// already parsed and fully material; the engine performs no I/O after this
// point. The loader that fills it is an external collaborator.
type Dataset struct {
	Securities []SecurityObservation `json:"securities"`
	Accounting []AccountingRecord    `json:"accounting"`
	Links      []Link                `json:"links"`
	Delistings []DelistingEvent      `json:"delistings"`

	// RiskFree is the monthly risk-free return series in decimal units.
	RiskFree ReferenceSeries `json:"risk_free"`

	// Reference holds the published series the validator compares against,
	// one per produced factor name.
	Reference []ReferenceSeries `json:"reference"`
}

// ReferenceFor returns the reference series matching a factor name.
func (d Dataset) ReferenceFor(name string) (ReferenceSeries, bool) {
	for _, s := range d.Reference {
		if s.Name == name {
			return s, true
		}
	}
	return ReferenceSeries{}, false
}
