package factors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

func sixCells(sl, sm, sh, bl, bm, bh float64) map[domain.CellKey]domain.Value {
	return map[domain.CellKey]domain.Value{
		"SL": domain.NewValue(sl), "SM": domain.NewValue(sm), "SH": domain.NewValue(sh),
		"BL": domain.NewValue(bl), "BM": domain.NewValue(bm), "BH": domain.NewValue(bh),
	}
}

func TestComposeLongShort(t *testing.T) {
	cells := sixCells(0.01, 0.02, 0.05, 0.02, 0.01, 0.03)
	got := ComposeLongShort(cells, sizeLabels(2), domain.BucketHigh, domain.BucketLow)
	// (SH+BH)/2 - (SL+BL)/2
	assert.False(t, got.IsMissing())
	assert.InDelta(t, 0.04-0.015, got.Float64, 1e-12)
}

func TestComposeLongShortInverted(t *testing.T) {
	// A low-minus-high sort is the same composition with the legs swapped.
	cells := sixCells(0.01, 0.02, 0.05, 0.02, 0.01, 0.03)
	straight := ComposeLongShort(cells, sizeLabels(2), domain.BucketHigh, domain.BucketLow)
	inverted := ComposeLongShort(cells, sizeLabels(2), domain.BucketLow, domain.BucketHigh)
	assert.InDelta(t, -straight.Float64, inverted.Float64, 1e-12)
}

func TestComposeLongShortFailsClosed(t *testing.T) {
	cells := sixCells(0.01, 0.02, 0.05, 0.02, 0.01, 0.03)
	cells["BH"] = domain.Missing()
	assert.True(t, ComposeLongShort(cells, sizeLabels(2), domain.BucketHigh, domain.BucketLow).IsMissing(),
		"a missing constituent cell poisons the factor")

	delete(cells, "SL")
	assert.True(t, ComposeLongShort(cells, sizeLabels(2), domain.BucketHigh, domain.BucketLow).IsMissing(),
		"an absent cell is missing, not zero")
}

func TestComposeLongShortIgnoresMidCells(t *testing.T) {
	cells := sixCells(0.01, 0.02, 0.05, 0.02, 0.01, 0.03)
	cells["SM"] = domain.Missing()
	cells["BM"] = domain.Missing()
	got := ComposeLongShort(cells, sizeLabels(2), domain.BucketHigh, domain.BucketLow)
	assert.False(t, got.IsMissing(), "mid cells do not enter a high-minus-low factor")
}

func TestComposeSizeLeg(t *testing.T) {
	cells := sixCells(0.03, 0.02, 0.04, 0.01, 0.02, 0.00)
	got := ComposeSizeLeg(cells, characteristicLabels(3))
	assert.InDelta(t, 0.03-0.01, got.Float64, 1e-12)

	cells["BM"] = domain.Missing()
	assert.True(t, ComposeSizeLeg(cells, characteristicLabels(3)).IsMissing(),
		"the size leg spans all characteristic buckets")
}

func TestComposeAverage(t *testing.T) {
	got := ComposeAverage(domain.NewValue(0.01), domain.NewValue(0.02), domain.NewValue(0.03))
	assert.InDelta(t, 0.02, got.Float64, 1e-12)

	assert.True(t, ComposeAverage().IsMissing())
	assert.True(t, ComposeAverage(domain.NewValue(0.01), domain.Missing()).IsMissing())
}
