package factors

import (
	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// ComposeLongShort builds the factor value for one date from its cell
// returns: the mean of the long-bucket cells across the size axis minus the
// mean of the short-bucket cells. Any missing constituent makes the factor
// missing: composition fails closed, it never substitutes zero.
func ComposeLongShort(cells map[domain.CellKey]domain.Value, sizeAxis []domain.Bucket,
	long, short domain.Bucket) domain.Value {

	longLeg := meanAcross(cells, sizeAxis, long)
	shortLeg := meanAcross(cells, sizeAxis, short)
	return longLeg.Sub(shortLeg)
}

// ComposeSizeLeg builds the small-minus-big series of a two-dimensional
// sort: the mean of the small cells across the characteristic axis minus
// the mean of the big cells. Fails closed like ComposeLongShort.
func ComposeSizeLeg(cells map[domain.CellKey]domain.Value, charAxis []domain.Bucket) domain.Value {
	small := meanAcrossChar(cells, domain.BucketSmall, charAxis)
	big := meanAcrossChar(cells, domain.BucketBig, charAxis)
	return small.Sub(big)
}

// ComposeAverage is the equal mean of the given values, missing when any
// constituent is missing.
func ComposeAverage(values ...domain.Value) domain.Value {
	if len(values) == 0 {
		return domain.Missing()
	}
	sum := domain.NewValue(0)
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.Div(domain.NewValue(float64(len(values))))
}

// meanAcross averages one characteristic bucket over every size bucket.
func meanAcross(cells map[domain.CellKey]domain.Value, sizeAxis []domain.Bucket, char domain.Bucket) domain.Value {
	values := make([]domain.Value, 0, len(sizeAxis))
	for _, size := range sizeAxis {
		values = append(values, cells[domain.Cell(size, char)])
	}
	return ComposeAverage(values...)
}

// meanAcrossChar averages one size bucket over every characteristic bucket.
func meanAcrossChar(cells map[domain.CellKey]domain.Value, size domain.Bucket, charAxis []domain.Bucket) domain.Value {
	values := make([]domain.Value, 0, len(charAxis))
	for _, char := range charAxis {
		values = append(values, cells[domain.Cell(size, char)])
	}
	return ComposeAverage(values...)
}
