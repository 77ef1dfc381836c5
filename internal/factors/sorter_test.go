package factors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

func TestAxisLabels(t *testing.T) {
	assert.Equal(t, []domain.Bucket{"S", "B"}, sizeLabels(2))
	assert.Equal(t, []domain.Bucket{"S", "S1", "S2", "B"}, sizeLabels(4))
	assert.Equal(t, []domain.Bucket{"L", "H"}, characteristicLabels(2))
	assert.Equal(t, []domain.Bucket{"L", "M", "H"}, characteristicLabels(3))
	assert.Equal(t, []domain.Bucket{"L", "M1", "M2", "M3", "H"}, characteristicLabels(5))
}

func TestBucketAtTiesToLower(t *testing.T) {
	axis := characteristicLabels(3)
	cuts := Breakpoints{0.3, 0.7}

	assert.Equal(t, domain.BucketLow, bucketAt(0.1, cuts, axis))
	assert.Equal(t, domain.BucketLow, bucketAt(0.3, cuts, axis), "boundary value belongs to the lower bucket")
	assert.Equal(t, domain.BucketMid, bucketAt(0.31, cuts, axis))
	assert.Equal(t, domain.BucketMid, bucketAt(0.7, cuts, axis))
	assert.Equal(t, domain.BucketHigh, bucketAt(0.71, cuts, axis))
}

func TestBucketAtDegenerateCuts(t *testing.T) {
	// A one-member reference population collapses every cutpoint to the
	// same value; placement still lands every candidate in a bucket.
	axis := characteristicLabels(3)
	cuts := Breakpoints{5, 5}

	assert.Equal(t, domain.BucketLow, bucketAt(5, cuts, axis))
	assert.Equal(t, domain.BucketHigh, bucketAt(5.0001, cuts, axis))
}

func candidate(id int64, size, char float64) Candidate {
	return Candidate{
		SecurityID:     id,
		Size:           domain.NewValue(size),
		Characteristic: domain.NewValue(char),
		Eligible:       true,
	}
}

func TestFormPortfoliosAssignsCells(t *testing.T) {
	date := time.Date(1964, time.June, 30, 0, 0, 0, 0, time.UTC)
	candidates := []Candidate{
		candidate(1, 10, 0.1),  // SL
		candidate(2, 20, 0.5),  // SM
		candidate(3, 30, 0.9),  // SH
		candidate(4, 100, 0.1), // BL
		candidate(5, 200, 0.9), // BH
	}
	cells := FormPortfolios(date, candidates,
		Breakpoints{50}, Breakpoints{0.3, 0.7},
		sizeLabels(2), characteristicLabels(3), WeightValue)

	require.Len(t, cells, 5)
	for _, want := range []struct {
		cell domain.CellKey
		id   int64
	}{
		{"SL", 1}, {"SM", 2}, {"SH", 3}, {"BL", 4}, {"BH", 5},
	} {
		p, ok := cells[want.cell]
		require.True(t, ok, "cell %s", want.cell)
		require.Len(t, p.Members, 1)
		assert.Equal(t, want.id, p.Members[0].SecurityID)
		assert.Equal(t, want.cell, p.Cell)
		assert.True(t, p.RebalanceDate.Equal(date))
	}
	_, ok := cells["BM"]
	assert.False(t, ok, "no candidate landed in BM")
}

func TestFormPortfoliosSkipsIneligibleAndMissing(t *testing.T) {
	date := time.Date(1964, time.June, 30, 0, 0, 0, 0, time.UTC)
	ineligible := candidate(2, 10, 0.1)
	ineligible.Eligible = false
	noSize := candidate(3, 0, 0.1)
	noSize.Size = domain.Missing()
	noChar := candidate(4, 10, 0)
	noChar.Characteristic = domain.Missing()

	cells := FormPortfolios(date,
		[]Candidate{candidate(1, 10, 0.1), ineligible, noSize, noChar},
		Breakpoints{50}, Breakpoints{0.3, 0.7},
		sizeLabels(2), characteristicLabels(3), WeightValue)

	require.Len(t, cells, 1)
	require.Len(t, cells["SL"].Members, 1)
	assert.Equal(t, int64(1), cells["SL"].Members[0].SecurityID)
}

func TestFormPortfoliosNormalizesValueWeights(t *testing.T) {
	date := time.Date(1964, time.June, 30, 0, 0, 0, 0, time.UTC)
	cells := FormPortfolios(date,
		[]Candidate{candidate(3, 30, 0.1), candidate(1, 10, 0.1), candidate(2, 60, 0.1)},
		Breakpoints{100}, Breakpoints{0.3, 0.7},
		sizeLabels(2), characteristicLabels(3), WeightValue)

	p := cells["SL"]
	require.Len(t, p.Members, 3)

	// Members are ordered by security, weights proportional to size.
	assert.Equal(t, int64(1), p.Members[0].SecurityID)
	assert.Equal(t, int64(2), p.Members[1].SecurityID)
	assert.Equal(t, int64(3), p.Members[2].SecurityID)
	assert.InDelta(t, 0.1, p.Members[0].Weight, 1e-12)
	assert.InDelta(t, 0.6, p.Members[1].Weight, 1e-12)
	assert.InDelta(t, 0.3, p.Members[2].Weight, 1e-12)

	var sum float64
	for _, m := range p.Members {
		sum += m.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestFormPortfoliosEqualWeights(t *testing.T) {
	date := time.Date(1964, time.June, 30, 0, 0, 0, 0, time.UTC)
	cells := FormPortfolios(date,
		[]Candidate{candidate(1, 10, 0.1), candidate(2, 90, 0.1)},
		Breakpoints{100}, Breakpoints{0.3, 0.7},
		sizeLabels(2), characteristicLabels(3), WeightEqual)

	p := cells["SL"]
	require.Len(t, p.Members, 2)
	assert.InDelta(t, 0.5, p.Members[0].Weight, 1e-12)
	assert.InDelta(t, 0.5, p.Members[1].Weight, 1e-12)
}
