package domain

import (
	"time"
)

// Priority ranks for entity-to-security links. Primary links (rank 0) are the
// issuer's designated primary security; secondary links cover the remainder.
// Lower rank wins when links overlap.
const (
	LinkPriorityPrimary   = 0
	LinkPrioritySecondary = 1
)

// Link maps an accounting entity to a security over a validity window. A zero
// ValidTo marks a link that is still open; resolution treats it as covering
// every date from ValidFrom forward.
type Link struct {
	EntityID     int64     `json:"entity_id" validate:"required,gt=0"`
	SecurityID   int64     `json:"security_id" validate:"required,gt=0"`
	ValidFrom    time.Time `json:"valid_from" validate:"required"`
	ValidTo      time.Time `json:"valid_to"`
	PriorityRank int       `json:"priority_rank" validate:"min=0"`
}

// Covers reports whether the link is valid on the given date.
func (l Link) Covers(date time.Time) bool {
	if date.Before(l.ValidFrom) {
		return false
	}
	return l.ValidTo.IsZero() || !date.After(l.ValidTo)
}

// Open reports whether the link has no recorded end date.
func (l Link) Open() bool {
	return l.ValidTo.IsZero()
}
