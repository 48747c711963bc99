package incidents

import (
	"context"

	"github.com/gridwatch/toc-portal/internal/domain"
)

// Repository defines the interface for incident storage.
type Repository interface {
	// Create persists the incident together with its creation marker and
	// charger associations in one transaction. The incident's ID and
	// timestamps are filled in on return.
	Create(ctx context.Context, incident *domain.Incident, marker *domain.TimelineEvent) error

	// Get returns an incident with its ledger and charger associations
	// eagerly attached. Returns ErrIncidentNotFound if the id does not
	// resolve.
	Get(ctx context.Context, id string) (*domain.Incident, error)

	// List returns incidents matching the query, eagerly loaded, ordered
	// and windowed per the query.
	List(ctx context.Context, query ListQuery) ([]*domain.Incident, error)

	// Update applies the present fields, replaces charger associations
	// when fields.ChargerIDs is set, and appends statusEvent (may be nil)
	// in one transaction. Returns the updated incident eagerly loaded.
	Update(ctx context.Context, id string, fields UpdateFields, statusEvent *domain.TimelineEvent) (*domain.Incident, error)

	// Exists reports whether an incident with the given id exists.
	Exists(ctx context.Context, id string) (bool, error)

	// AppendEvent appends a ledger entry, filling in its ID and timestamp.
	AppendEvent(ctx context.Context, event *domain.TimelineEvent) error

	// AssignMany sets the assignee on every matching incident in one
	// statement. Unresolved ids are skipped; returns rows updated.
	AssignMany(ctx context.Context, ids []string, assigneeID string) (int64, error)

	// UpdateStatusMany sets the status on every matching incident in one
	// statement. Unresolved ids are skipped; returns rows updated.
	UpdateStatusMany(ctx context.Context, ids []string, status domain.IncidentStatus) (int64, error)

	// SetTags replaces the incident's tag set.
	SetTags(ctx context.Context, id string, tags []string) error

	// FindByTag returns the first incident carrying the exact tag, or
	// ErrIncidentNotFound.
	FindByTag(ctx context.Context, tag string) (*domain.Incident, error)
}

// UpdateFields carries a partial update. Nil fields are left untouched.
// A non-nil ChargerIDs fully replaces the charger association set.
type UpdateFields struct {
	Title         *string
	Description   *string
	SeverityLevel *domain.SeverityLevel
	Priority      *domain.IncidentPriority
	Status        *domain.IncidentStatus
	FaultReported *string
	RootCause     *string
	ActionTaken   *string
	InScope       *bool
	Tags          *[]string
	CustomerID    *string
	SiteID        *string
	AssignedToID  *string
	ChargerIDs    *[]string
}

// FleetChecker validates incident references against the fleet registry.
type FleetChecker interface {
	CustomerExists(ctx context.Context, id string) (bool, error)
	SiteExists(ctx context.Context, id string) (bool, error)
	// CountChargers returns how many of the given ids resolve to chargers.
	CountChargers(ctx context.Context, ids []string) (int, error)
}
