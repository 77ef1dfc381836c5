// Package linking resolves accounting entity identifiers to security
// identifiers through a validity-windowed link table.
package linking

import (
	"fmt"
	"sort"
	"time"

	apperrors "github.com/aidanvyas/asset-pricing-code/internal/errors"
	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// Resolver answers point-in-time entity-to-security lookups. It is immutable
// after construction and safe for concurrent use.
type Resolver struct {
	byEntity map[int64][]domain.Link
	total    int
}

// NewResolver validates and indexes the link table. Candidate links for an
// entity are kept ordered so that Resolve can return the first covering link:
// lowest priority rank first, then latest validity start.
func NewResolver(links []domain.Link) (*Resolver, error) {
	byEntity := make(map[int64][]domain.Link)

	for i, link := range links {
		if err := checkLink(i, link); err != nil {
			return nil, err
		}
		byEntity[link.EntityID] = append(byEntity[link.EntityID], link)
	}

	for _, candidates := range byEntity {
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].PriorityRank != candidates[j].PriorityRank {
				return candidates[i].PriorityRank < candidates[j].PriorityRank
			}
			return candidates[i].ValidFrom.After(candidates[j].ValidFrom)
		})
	}

	return &Resolver{byEntity: byEntity, total: len(links)}, nil
}

// checkLink rejects malformed rows before they can poison lookups.
func checkLink(pos int, link domain.Link) error {
	switch {
	case link.EntityID == 0:
		return apperrors.NewIntegrityError("linking",
			fmt.Sprintf("link %d has no entity identifier", pos))
	case link.SecurityID == 0:
		return apperrors.NewIntegrityError("linking",
			fmt.Sprintf("link %d has no security identifier", pos)).
			WithContext("entity_id", link.EntityID)
	case link.ValidFrom.IsZero():
		return apperrors.NewIntegrityError("linking",
			fmt.Sprintf("link %d has no validity start", pos)).
			WithContext("entity_id", link.EntityID)
	case !link.Open() && link.ValidTo.Before(link.ValidFrom):
		return apperrors.NewIntegrityError("linking",
			fmt.Sprintf("link %d validity window ends before it starts", pos)).
			WithContext("entity_id", link.EntityID).
			WithContext("valid_from", link.ValidFrom.Format("2006-01-02")).
			WithContext("valid_to", link.ValidTo.Format("2006-01-02"))
	case link.PriorityRank < 0:
		return apperrors.NewIntegrityError("linking",
			fmt.Sprintf("link %d has negative priority rank", pos)).
			WithContext("entity_id", link.EntityID)
	}
	return nil
}

// Resolve returns the security mapped to entityID on date. At most one
// security is returned: among links whose validity window covers the date,
// the lowest priority rank wins and ties break toward the latest validity
// start. An entity with no covering link resolves to (0, false); callers
// treat that as exclusion, not as an error.
func (r *Resolver) Resolve(entityID int64, date time.Time) (int64, bool) {
	for _, link := range r.byEntity[entityID] {
		if link.Covers(date) {
			return link.SecurityID, true
		}
	}
	return 0, false
}

// Entities returns the number of distinct entities with at least one link.
func (r *Resolver) Entities() int {
	return len(r.byEntity)
}

// Len returns the number of indexed links.
func (r *Resolver) Len() int {
	return r.total
}
