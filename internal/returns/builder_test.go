package returns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func v(f float64) domain.Value { return domain.NewValue(f) }

func defaultBuilder() *Builder { return NewBuilder(-0.30, -0.55) }

func TestSpliceCompoundsRegularAndDelisting(t *testing.T) {
	builder := defaultBuilder()

	out := builder.Build(
		[]domain.SecurityObservation{
			{SecurityID: 1, PeriodEnd: date(1987, 10, 31), Return: v(0.05), ExchangeCode: domain.ExchangeNYSE},
		},
		[]domain.DelistingEvent{
			{SecurityID: 1, EventDate: date(1987, 10, 15), DelistingReturn: v(-0.10), DelistingCode: 233},
		},
	)

	require.Len(t, out, 1)
	require.False(t, out[0].Return.IsMissing())
	assert.InDelta(t, -0.055, out[0].Return.Float64, 1e-12)
}

func TestSpliceMissingRegularUsesDelistingAlone(t *testing.T) {
	builder := defaultBuilder()

	out := builder.Build(
		[]domain.SecurityObservation{
			{SecurityID: 1, PeriodEnd: date(1987, 10, 31), Return: domain.Missing(), ExchangeCode: domain.ExchangeNYSE},
		},
		[]domain.DelistingEvent{
			{SecurityID: 1, EventDate: date(1987, 10, 15), DelistingReturn: v(-0.40), DelistingCode: 552},
		},
	)

	require.Len(t, out, 1)
	require.False(t, out[0].Return.IsMissing())
	assert.InDelta(t, -0.40, out[0].Return.Float64, 1e-12)
}

func TestSplicePenaltyByExchange(t *testing.T) {
	tests := []struct {
		name     string
		exchange int
		code     int
		regular  domain.Value
		want     float64
	}{
		{
			name:     "performance exit on nyse",
			exchange: domain.ExchangeNYSE,
			code:     500,
			regular:  domain.Missing(),
			want:     -0.30,
		},
		{
			name:     "performance exit on amex",
			exchange: domain.ExchangeAMEX,
			code:     520,
			regular:  domain.Missing(),
			want:     -0.30,
		},
		{
			name:     "performance exit on nasdaq",
			exchange: domain.ExchangeNASDAQ,
			code:     584,
			regular:  domain.Missing(),
			want:     -0.55,
		},
		{
			name:     "penalty compounds with regular return",
			exchange: domain.ExchangeNYSE,
			code:     552,
			regular:  v(0.10),
			// (1.10)(0.70) - 1
			want: -0.23,
		},
		{
			name:     "unknown exchange gets no penalty",
			exchange: 0,
			code:     552,
			regular:  v(0.10),
			want:     0.10,
		},
		{
			name:     "non-performance exit gets no penalty",
			exchange: domain.ExchangeNYSE,
			code:     233,
			regular:  v(0.10),
			want:     0.10,
		},
		{
			name:     "non-performance exit with missing regular compounds as zero",
			exchange: domain.ExchangeNYSE,
			code:     233,
			regular:  domain.Missing(),
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := defaultBuilder()
			out := builder.Build(
				[]domain.SecurityObservation{
					{SecurityID: 1, PeriodEnd: date(1987, 10, 31), Return: tt.regular, ExchangeCode: tt.exchange},
				},
				[]domain.DelistingEvent{
					{SecurityID: 1, EventDate: date(1987, 10, 15), DelistingCode: tt.code},
				},
			)

			require.Len(t, out, 1)
			require.False(t, out[0].Return.IsMissing(),
				"the delisting month always carries a present return")
			assert.InDelta(t, tt.want, out[0].Return.Float64, 1e-12)
		})
	}
}

func TestBuildLeavesOtherMonthsUntouched(t *testing.T) {
	builder := defaultBuilder()

	observations := []domain.SecurityObservation{
		{SecurityID: 1, PeriodEnd: date(1987, 8, 31), Return: v(0.02), ExchangeCode: domain.ExchangeNYSE},
		{SecurityID: 1, PeriodEnd: date(1987, 9, 30), Return: domain.Missing(), ExchangeCode: domain.ExchangeNYSE},
		{SecurityID: 1, PeriodEnd: date(1987, 10, 31), Return: v(0.05), ExchangeCode: domain.ExchangeNYSE},
		{SecurityID: 2, PeriodEnd: date(1987, 10, 31), Return: v(0.03), ExchangeCode: domain.ExchangeNASDAQ},
	}

	out := builder.Build(observations, []domain.DelistingEvent{
		{SecurityID: 1, EventDate: date(1987, 10, 2), DelistingReturn: v(-0.10), DelistingCode: 552},
	})

	require.Len(t, out, 4)

	assert.InDelta(t, 0.02, out[0].Return.Float64, 1e-12, "months before the event pass through")
	assert.True(t, out[1].Return.IsMissing(), "a missing return outside the event month stays missing")
	assert.InDelta(t, -0.055, out[2].Return.Float64, 1e-12)
	assert.InDelta(t, 0.03, out[3].Return.Float64, 1e-12, "other securities pass through")

	// The input slice is never mutated.
	assert.InDelta(t, 0.05, observations[2].Return.Float64, 1e-12)
}

func TestBuildIgnoresEventWithoutObservation(t *testing.T) {
	builder := defaultBuilder()

	out := builder.Build(
		[]domain.SecurityObservation{
			{SecurityID: 1, PeriodEnd: date(1987, 8, 31), Return: v(0.02), ExchangeCode: domain.ExchangeNYSE},
		},
		[]domain.DelistingEvent{
			{SecurityID: 1, EventDate: date(1987, 10, 15), DelistingReturn: v(-0.10), DelistingCode: 552},
		},
	)

	require.Len(t, out, 1)
	assert.InDelta(t, 0.02, out[0].Return.Float64, 1e-12)
}

func TestBuildPreservesExDividendReturns(t *testing.T) {
	builder := defaultBuilder()

	out := builder.Build(
		[]domain.SecurityObservation{
			{
				SecurityID:        1,
				PeriodEnd:         date(1987, 10, 31),
				Return:            v(0.05),
				ReturnExDividends: v(0.04),
				ExchangeCode:      domain.ExchangeNYSE,
			},
		},
		[]domain.DelistingEvent{
			{SecurityID: 1, EventDate: date(1987, 10, 15), DelistingReturn: v(-0.10), DelistingCode: 552},
		},
	)

	require.Len(t, out, 1)
	assert.InDelta(t, 0.04, out[0].ReturnExDividends.Float64, 1e-12,
		"the splice adjusts total returns only; weight compounding keeps the raw series")
}
