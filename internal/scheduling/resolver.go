package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonflow/backend/internal/catalog"
	"github.com/salonflow/backend/pkg/db/models"
	pkgerrors "github.com/salonflow/backend/pkg/errors"
)

// resolvedBooking aggregates the catalog lookups for a set of requested
// services. Durations come from the catalog; prices are the caller-declared
// applied prices, recorded per line so later catalog edits never rewrite
// history.
type resolvedBooking struct {
	totalDuration time.Duration
	total         decimal.Decimal
	items         []models.AppointmentItem
}

// resolveServices validates the requested service lines against the catalog
// and derives the appointment's duration, total and line items. Duplicate
// service IDs are legal and count once per occurrence. The order total is the
// sum of the applied prices, never recomputed from the catalog, and must be
// strictly positive.
func resolveServices(ctx context.Context, repo catalog.Repository, lines []ServiceLineInput) (*resolvedBooking, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one service is required")
	}

	unique := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if line.ServiceID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "service id must not be empty")
		}
		if line.AppliedPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "applied price must not be negative")
		}
		if _, ok := seen[line.ServiceID]; ok {
			continue
		}
		seen[line.ServiceID] = struct{}{}
		unique = append(unique, line.ServiceID)
	}

	services, err := repo.FindServicesByIDs(ctx, unique)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog services")
	}

	byID := make(map[uuid.UUID]models.CatalogService, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
	}

	missing := make([]uuid.UUID, 0)
	for _, id := range unique {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog service not found").
			WithDetails(map[string]any{"service_ids": missing})
	}

	resolved := &resolvedBooking{
		total: decimal.Zero,
		items: make([]models.AppointmentItem, 0, len(lines)),
	}
	for _, line := range lines {
		svc := byID[line.ServiceID]
		if !svc.Active {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "catalog service is inactive").
				WithDetails(map[string]any{"service_id": svc.ID})
		}
		resolved.totalDuration += time.Duration(svc.DurationMinutes) * time.Minute
		resolved.total = resolved.total.Add(line.AppliedPrice)
		resolved.items = append(resolved.items, models.AppointmentItem{
			ServiceID:    svc.ID,
			AppliedPrice: line.AppliedPrice,
		})
	}

	if resolved.totalDuration <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resolved duration must be positive")
	}
	if !resolved.total.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}

	return resolved, nil
}
