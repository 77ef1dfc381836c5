package accounting

import (
	"sort"
	"time"

	"github.com/aidanvyas/asset-pricing-code/internal/linking"
)

// Aligner answers point-in-time fundamentals lookups per security. A record
// becomes visible at its public availability date and forward-fills until a
// later record supersedes it. Immutable after construction, safe for
// concurrent use.
type Aligner struct {
	bySecurity map[int64][]Fundamentals
	mapped     int
	dropped    int
}

// NewAligner resolves each fundamentals record to a security through the
// link table (at the record's availability date) and indexes the mapped
// records. Records of entities with no covering link are dropped; callers
// treat those entities as outside the investable universe.
func NewAligner(fundamentals []Fundamentals, resolver *linking.Resolver) *Aligner {
	a := &Aligner{bySecurity: make(map[int64][]Fundamentals)}

	for _, f := range fundamentals {
		securityID, ok := resolver.Resolve(f.EntityID, f.PublicAvailability)
		if !ok {
			a.dropped++
			continue
		}
		f.SecurityID = securityID
		a.bySecurity[securityID] = append(a.bySecurity[securityID], f)
		a.mapped++
	}

	// Availability ascending, ties by fiscal period end ascending, so the
	// last record at or before a query date is the freshest disclosure.
	for _, records := range a.bySecurity {
		sort.SliceStable(records, func(i, j int) bool {
			if !records[i].PublicAvailability.Equal(records[j].PublicAvailability) {
				return records[i].PublicAvailability.Before(records[j].PublicAvailability)
			}
			return records[i].FiscalPeriodEnd.Before(records[j].FiscalPeriodEnd)
		})
	}

	return a
}

// At returns the fundamentals in force for the security on date: the record
// with the greatest availability date at or before date, ties broken toward
// the later fiscal period end. The second return is false when nothing had
// been disclosed yet.
func (a *Aligner) At(securityID int64, date time.Time) (Fundamentals, bool) {
	records := a.bySecurity[securityID]
	idx := sort.Search(len(records), func(i int) bool {
		return records[i].PublicAvailability.After(date)
	})
	if idx == 0 {
		return Fundamentals{}, false
	}
	return records[idx-1], true
}

// Records returns the security's mapped fundamentals in disclosure order,
// for callers that walk the panel sequentially instead of querying.
func (a *Aligner) Records(securityID int64) []Fundamentals {
	return a.bySecurity[securityID]
}

// Mapped returns how many records resolved to a security.
func (a *Aligner) Mapped() int {
	return a.mapped
}

// Dropped returns how many records had no covering link.
func (a *Aligner) Dropped() int {
	return a.dropped
}
