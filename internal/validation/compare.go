package validation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/aidanvyas/asset-pricing-code/internal/config"
	apperrors "github.com/aidanvyas/asset-pricing-code/internal/errors"
	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// Comparator aligns produced factor series with their published references
// and reports divergence statistics. The comparison is an inner join by
// date from the configured start onward; neither series is mutated.
type Comparator struct {
	tolerance float64
	start     time.Time
	logger    *slog.Logger
}

// NewComparator builds a comparator from the validation configuration. A nil
// logger falls back to the process default.
func NewComparator(cfg config.ValidationConfig, logger *slog.Logger) (*Comparator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start, err := time.ParseInLocation("2006-01-02", cfg.StartDate, time.UTC)
	if err != nil {
		return nil, apperrors.NewConfigurationError("validation.start_date",
			fmt.Sprintf("not a date: %q", cfg.StartDate))
	}
	return &Comparator{tolerance: cfg.Tolerance, start: start, logger: logger}, nil
}

// Compare summarizes every produced series against its reference. Series
// without a reference still appear in the report with their coverage gaps
// counted and MissingRef set.
func (c *Comparator) Compare(ctx context.Context, produced []domain.FactorSeries,
	references []domain.ReferenceSeries) domain.ValidationReport {

	report := domain.ValidationReport{
		GeneratedAt: time.Now().UTC(),
		StartDate:   c.start,
		Tolerance:   c.tolerance,
	}
	for _, series := range produced {
		comparison := c.compareOne(series, references)
		report.Factors = append(report.Factors, comparison)
		c.logger.DebugContext(ctx, "factor compared",
			"factor", comparison.Factor,
			"observations", comparison.Observations,
			"pearson", comparison.Pearson,
			"breaches", len(comparison.Breaches),
			"coverage_gaps", comparison.CoverageGaps,
		)
	}
	c.logger.InfoContext(ctx, "reference comparison complete",
		"factors", len(report.Factors),
		"breaches", report.TotalBreaches(),
		"coverage_gaps", report.TotalGaps(),
	)
	return report
}

func (c *Comparator) compareOne(series domain.FactorSeries, references []domain.ReferenceSeries) domain.FactorComparison {
	comparison := domain.FactorComparison{Factor: series.Name}

	reference, ok := referenceFor(references, series.Name)
	if !ok {
		comparison.MissingRef = true
		for _, obs := range series.Observations {
			if !obs.Date.Before(c.start) && obs.Return.IsMissing() {
				comparison.CoverageGaps++
			}
		}
		return comparison
	}

	refIndex := make(map[time.Time]float64, len(reference.Points))
	for _, p := range reference.Points {
		refIndex[domain.MonthEnd(p.Date)] = p.Return
	}

	var producedValues, referenceValues, absDiffs []float64
	for _, obs := range series.Observations {
		if obs.Date.Before(c.start) {
			continue
		}
		refValue, covered := refIndex[domain.MonthEnd(obs.Date)]
		if !covered {
			continue
		}
		if obs.Return.IsMissing() {
			comparison.CoverageGaps++
			continue
		}
		diff := obs.Return.Float64 - refValue
		producedValues = append(producedValues, obs.Return.Float64)
		referenceValues = append(referenceValues, refValue)
		absDiffs = append(absDiffs, math.Abs(diff))
		if math.Abs(diff) > c.tolerance {
			comparison.Breaches = append(comparison.Breaches, domain.ToleranceBreach{
				Date:       obs.Date,
				Produced:   obs.Return.Float64,
				Reference:  refValue,
				Difference: diff,
			})
		}
	}

	comparison.Observations = len(producedValues)
	if len(absDiffs) > 0 {
		comparison.MeanAbsDiff = stat.Mean(absDiffs, nil)
		max := absDiffs[0]
		for _, d := range absDiffs[1:] {
			if d > max {
				max = d
			}
		}
		comparison.MaxAbsDiff = max
	}
	if len(producedValues) >= 2 {
		comparison.Pearson = stat.Correlation(producedValues, referenceValues, nil)
		comparison.Spearman = stat.Correlation(ranks(producedValues), ranks(referenceValues), nil)
	}
	return comparison
}

func referenceFor(references []domain.ReferenceSeries, name string) (domain.ReferenceSeries, bool) {
	for _, r := range references {
		if r.Name == name {
			return r, true
		}
	}
	return domain.ReferenceSeries{}, false
}

// ranks replaces values by their ascending rank, ties sharing the average
// rank, so a Pearson correlation over ranks is the Spearman coefficient.
func ranks(values []float64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return values[order[i]] < values[order[j]] })

	ranked := make([]float64, len(values))
	for i := 0; i < len(order); {
		j := i
		for j+1 < len(order) && values[order[j+1]] == values[order[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranked[order[k]] = avg
		}
		i = j + 1
	}
	return ranked
}
