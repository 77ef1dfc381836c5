package validation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aidanvyas/asset-pricing-code/internal/config"
	apperrors "github.com/aidanvyas/asset-pricing-code/internal/errors"
	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// Checker verifies a dataset before any computation consumes it. Every rule
// is evaluated even after the first violation, so one run surfaces the full
// damage report instead of one row at a time.
type Checker struct {
	lagMonths int
	logger    *slog.Logger
}

// NewChecker builds a checker from the panel configuration. A nil logger
// falls back to the process default.
func NewChecker(cfg config.PanelConfig, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{lagMonths: cfg.MinDisclosureLagMonths, logger: logger}
}

// Check runs every integrity rule over the dataset. A nil return means the
// dataset is sound; otherwise the returned *errors.ErrorList carries one
// integrity error per violation.
func (c *Checker) Check(ctx context.Context, ds domain.Dataset) error {
	errs := &apperrors.ErrorList{}
	c.checkObservations(ds.Securities, errs)
	c.checkAccounting(ds.Accounting, errs)
	c.checkDelistings(ds.Delistings, errs)
	c.checkLinks(ds.Links, errs)

	if errs.HasErrors() {
		c.logger.WarnContext(ctx, "dataset failed integrity checks",
			"violations", len(errs.Errors),
		)
		return errs
	}
	c.logger.InfoContext(ctx, "dataset integrity verified",
		"securities", len(ds.Securities),
		"accounting", len(ds.Accounting),
		"links", len(ds.Links),
		"delistings", len(ds.Delistings),
	)
	return nil
}

type securityMonth struct {
	securityID int64
	month      time.Time
}

func (c *Checker) checkObservations(observations []domain.SecurityObservation, errs *apperrors.ErrorList) {
	seen := make(map[securityMonth]bool, len(observations))
	for i, obs := range observations {
		if obs.SecurityID <= 0 {
			errs.Add(apperrors.NewIntegrityError("observations",
				fmt.Sprintf("observation %d has no security identifier", i)))
			continue
		}
		key := securityMonth{obs.SecurityID, domain.MonthEnd(obs.PeriodEnd)}
		if seen[key] {
			errs.Add(apperrors.NewIntegrityError("observations", "duplicate security-month").
				WithContext("security_id", obs.SecurityID).
				WithContext("month", key.month.Format("2006-01")))
			continue
		}
		seen[key] = true
	}
}

type entityFiscal struct {
	entityID  int64
	fiscalEnd time.Time
}

func (c *Checker) checkAccounting(records []domain.AccountingRecord, errs *apperrors.ErrorList) {
	seen := make(map[entityFiscal]bool, len(records))
	for i, rec := range records {
		if rec.EntityID <= 0 {
			errs.Add(apperrors.NewIntegrityError("accounting",
				fmt.Sprintf("record %d has no entity identifier", i)))
			continue
		}
		key := entityFiscal{rec.EntityID, rec.FiscalPeriodEnd}
		if seen[key] {
			errs.Add(apperrors.NewIntegrityError("accounting", "duplicate entity-fiscal period").
				WithContext("entity_id", rec.EntityID).
				WithContext("fiscal_period_end", rec.FiscalPeriodEnd.Format("2006-01-02")))
			continue
		}
		seen[key] = true

		// A zero availability date is filled by the availability policy
		// before alignment; only explicit dates can violate the lag.
		if rec.PublicAvailability.IsZero() {
			continue
		}
		earliest := domain.AddMonthsEnd(rec.FiscalPeriodEnd, c.lagMonths)
		if rec.PublicAvailability.Before(earliest) {
			errs.Add(apperrors.NewIntegrityError("accounting", "availability inside the disclosure lag").
				WithContext("entity_id", rec.EntityID).
				WithContext("fiscal_period_end", rec.FiscalPeriodEnd.Format("2006-01-02")).
				WithContext("public_availability", rec.PublicAvailability.Format("2006-01-02")).
				WithContext("min_lag_months", c.lagMonths))
		}
	}
}

func (c *Checker) checkDelistings(events []domain.DelistingEvent, errs *apperrors.ErrorList) {
	seen := make(map[int64]bool, len(events))
	for i, event := range events {
		if event.SecurityID <= 0 {
			errs.Add(apperrors.NewIntegrityError("delistings",
				fmt.Sprintf("event %d has no security identifier", i)))
			continue
		}
		if event.EventDate.IsZero() {
			errs.Add(apperrors.NewIntegrityError("delistings", "event without a date").
				WithContext("security_id", event.SecurityID))
			continue
		}
		if seen[event.SecurityID] {
			errs.Add(apperrors.NewIntegrityError("delistings", "multiple delisting events").
				WithContext("security_id", event.SecurityID))
			continue
		}
		seen[event.SecurityID] = true
	}
}

func (c *Checker) checkLinks(links []domain.Link, errs *apperrors.ErrorList) {
	for i, link := range links {
		switch {
		case link.EntityID <= 0:
			errs.Add(apperrors.NewIntegrityError("links",
				fmt.Sprintf("link %d has no entity identifier", i)))
		case link.SecurityID <= 0:
			errs.Add(apperrors.NewIntegrityError("links",
				fmt.Sprintf("link %d has no security identifier", i)).
				WithContext("entity_id", link.EntityID))
		case link.ValidFrom.IsZero():
			errs.Add(apperrors.NewIntegrityError("links",
				fmt.Sprintf("link %d has no validity start", i)).
				WithContext("entity_id", link.EntityID))
		case !link.Open() && link.ValidTo.Before(link.ValidFrom):
			errs.Add(apperrors.NewIntegrityError("links", "validity window ends before it starts").
				WithContext("entity_id", link.EntityID).
				WithContext("valid_from", link.ValidFrom.Format("2006-01-02")).
				WithContext("valid_to", link.ValidTo.Format("2006-01-02")))
		}
	}
}
