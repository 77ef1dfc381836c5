// Package returns produces the adjusted monthly return series: regular
// returns spliced with terminal delisting events, and the momentum
// characteristic derived from the adjusted series.
package returns

import (
	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// Builder splices delisting events into monthly return series. Penalties
// substitute for unrecorded delisting returns on performance-related exits,
// keyed by the exchange the security last traded on.
type Builder struct {
	penaltyMajor float64 // NYSE and AMEX
	penaltyMinor float64 // NASDAQ
}

// NewBuilder returns a Builder with the given penalty returns. Penalties are
// expressed as simple returns in [-1, 0].
func NewBuilder(penaltyMajor, penaltyMinor float64) *Builder {
	return &Builder{penaltyMajor: penaltyMajor, penaltyMinor: penaltyMinor}
}

// Build returns a copy of the observations with the delisting month's return
// replaced by the spliced total: (1+regular)*(1+delisting)-1. Only in that
// month does a missing regular return compound as zero; every other month
// passes through unchanged, missing stays missing. Ex-dividend returns are
// never touched. Events whose month has no observation are ignored.
func (b *Builder) Build(observations []domain.SecurityObservation, events []domain.DelistingEvent) []domain.SecurityObservation {
	bySecurity := make(map[int64]domain.DelistingEvent, len(events))
	for _, e := range events {
		bySecurity[e.SecurityID] = e
	}

	out := make([]domain.SecurityObservation, len(observations))
	copy(out, observations)

	for i := range out {
		event, ok := bySecurity[out[i].SecurityID]
		if !ok || !domain.SameMonth(out[i].PeriodEnd, event.EventDate) {
			continue
		}
		out[i].Return = b.splice(out[i], event)
	}
	return out
}

// splice compounds the regular and delisting returns for the event month.
func (b *Builder) splice(obs domain.SecurityObservation, event domain.DelistingEvent) domain.Value {
	regular := obs.Return.OrZero()
	delisting := b.resolveDelistingReturn(event, obs.ExchangeCode)
	return regular.Add(domain.NewValue(1)).
		Mul(delisting.Add(domain.NewValue(1))).
		Sub(domain.NewValue(1))
}

// resolveDelistingReturn returns the recorded delisting return, or the
// exchange-keyed penalty when a performance-related exit has none, or zero.
func (b *Builder) resolveDelistingReturn(event domain.DelistingEvent, exchangeCode int) domain.Value {
	if !event.DelistingReturn.IsMissing() {
		return event.DelistingReturn
	}
	if event.IsPerformanceRelated() {
		switch exchangeCode {
		case domain.ExchangeNYSE, domain.ExchangeAMEX:
			return domain.NewValue(b.penaltyMajor)
		case domain.ExchangeNASDAQ:
			return domain.NewValue(b.penaltyMinor)
		}
	}
	return domain.NewValue(0)
}
