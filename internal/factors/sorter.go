package factors

import (
	"fmt"
	"sort"
	"time"

	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// sizeLabels returns the bucket labels of a size axis with n buckets,
// small to big.
func sizeLabels(n int) []domain.Bucket {
	labels := make([]domain.Bucket, n)
	for i := 1; i < n-1; i++ {
		labels[i] = domain.Bucket(fmt.Sprintf("S%d", i))
	}
	labels[n-1] = domain.BucketBig
	labels[0] = domain.BucketSmall
	return labels
}

// characteristicLabels returns the bucket labels of a characteristic axis
// with n buckets, low to high.
func characteristicLabels(n int) []domain.Bucket {
	labels := make([]domain.Bucket, n)
	for i := 1; i < n-1; i++ {
		if n == 3 {
			labels[i] = domain.BucketMid
		} else {
			labels[i] = domain.Bucket(fmt.Sprintf("M%d", i))
		}
	}
	labels[n-1] = domain.BucketHigh
	labels[0] = domain.BucketLow
	return labels
}

// bucketAt places a value on an axis: the bucket of the first cutpoint at
// or above the value, boundary ties to the lower bucket.
func bucketAt(value float64, cuts Breakpoints, labels []domain.Bucket) domain.Bucket {
	for i, cut := range cuts {
		if value <= cut {
			return labels[i]
		}
	}
	return labels[len(labels)-1]
}

// FormPortfolios assigns every eligible candidate with a present size and
// characteristic to exactly one cell of the sort grid and returns the
// formed cells. A candidate missing either attribute lands in no cell.
// Member weights are normalized within the cell under the scheme, so every
// non-empty portfolio's weights sum to one.
func FormPortfolios(date time.Time, candidates []Candidate, sizeCuts, charCuts Breakpoints,
	sizeAxis, charAxis []domain.Bucket, scheme WeightScheme) map[domain.CellKey]domain.Portfolio {

	members := make(map[domain.CellKey][]domain.PortfolioMember)
	sums := make(map[domain.CellKey]float64)
	for _, c := range candidates {
		if !c.Eligible || c.Size.IsMissing() || c.Characteristic.IsMissing() {
			continue
		}
		cell := domain.Cell(
			bucketAt(c.Size.Float64, sizeCuts, sizeAxis),
			bucketAt(c.Characteristic.Float64, charCuts, charAxis),
		)
		weight := 1.0
		if scheme == WeightValue {
			weight = c.Size.Float64
		}
		members[cell] = append(members[cell], domain.PortfolioMember{SecurityID: c.SecurityID, Weight: weight})
		sums[cell] += weight
	}

	portfolios := make(map[domain.CellKey]domain.Portfolio, len(members))
	for cell, ms := range members {
		sort.Slice(ms, func(i, j int) bool { return ms[i].SecurityID < ms[j].SecurityID })
		if sums[cell] > 0 {
			for i := range ms {
				ms[i].Weight /= sums[cell]
			}
		}
		portfolios[cell] = domain.Portfolio{RebalanceDate: date, Cell: cell, Members: ms}
	}
	return portfolios
}
