package incidents

import (
	"context"
	"fmt"

	"github.com/gridwatch/toc-portal/internal/domain"
)

// Service implements the incident lifecycle logic.
type Service struct {
	repo  Repository
	fleet FleetChecker
}

// NewService creates a new incident service.
func NewService(repo Repository, fleet FleetChecker) *Service {
	return &Service{repo: repo, fleet: fleet}
}

// CreateInput holds data for creating an incident.
type CreateInput struct {
	Title         string
	Description   *string
	SeverityLevel *domain.SeverityLevel
	Priority      *domain.IncidentPriority
	Source        domain.IncidentSource
	FaultReported *string
	RootCause     *string
	ActionTaken   *string
	InScope       *bool
	CustomerID    *string
	SiteID        *string
	ChargerIDs    []string
	Tags          []string
}

// UpdateInput holds a partial incident update. Nil fields are untouched.
type UpdateInput struct {
	Title         *string
	Description   *string
	SeverityLevel *domain.SeverityLevel
	Priority      *domain.IncidentPriority
	Status        *domain.IncidentStatus
	FaultReported *string
	RootCause     *string
	ActionTaken   *string
	InScope       *bool
	CustomerID    *string
	SiteID        *string
	AssignedToID  *string
	ChargerIDs    *[]string
	Tags          *[]string
}

// BulkActionKind is one of the recognized bulk mutations.
type BulkActionKind string

// Bulk action kinds.
const (
	BulkAssign BulkActionKind = "assign"
	BulkTag    BulkActionKind = "tag"
	BulkClose  BulkActionKind = "close"
)

// BulkActionInput holds a bulk mutation over a set of incidents.
type BulkActionInput struct {
	IDs          []string
	Action       BulkActionKind
	AssignedToID *string
	Tags         []string
}

// BulkResult summarizes a bulk action.
type BulkResult struct {
	Count int64 `json:"count"`
}

// Create validates references and persists a new incident together with
// its creation ledger marker. authorID may be nil for system-originated
// creation.
func (s *Service) Create(ctx context.Context, input CreateInput, authorID *string) (*domain.Incident, error) {
	if err := s.validateReferences(ctx, input.CustomerID, input.SiteID, input.ChargerIDs); err != nil {
		return nil, err
	}

	incident := &domain.Incident{
		Title:         input.Title,
		Description:   input.Description,
		SeverityLevel: input.SeverityLevel,
		Priority:      input.Priority,
		Status:        domain.IncidentStatusOpen,
		Source:        input.Source,
		FaultReported: input.FaultReported,
		RootCause:     input.RootCause,
		ActionTaken:   input.ActionTaken,
		InScope:       true,
		Tags:          dedupeTags(input.Tags),
		CustomerID:    input.CustomerID,
		SiteID:        input.SiteID,
		ChargerIDs:    input.ChargerIDs,
	}
	if input.InScope != nil {
		incident.InScope = *input.InScope
	}

	marker := domain.NewCreatedEvent("", authorID)
	if err := s.repo.Create(ctx, incident, marker); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}

	incident.Timeline = []*domain.TimelineEvent{marker}
	return incident, nil
}

// Get returns an incident with ledger and charger associations attached.
func (s *Service) Get(ctx context.Context, id string) (*domain.Incident, error) {
	return s.repo.Get(ctx, id)
}

// List returns incidents matching the composed query.
func (s *Service) List(ctx context.Context, query ListQuery) ([]*domain.Incident, error) {
	return s.repo.List(ctx, query)
}

// Update applies a partial update. Charger associations, when present,
// are fully replaced. A status change appends a status_change ledger
// entry in the same transaction.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*domain.Incident, error) {
	var chargerIDs []string
	if input.ChargerIDs != nil {
		chargerIDs = *input.ChargerIDs
	}
	if err := s.validateReferences(ctx, input.CustomerID, input.SiteID, chargerIDs); err != nil {
		return nil, err
	}

	fields := UpdateFields{
		Title:         input.Title,
		Description:   input.Description,
		SeverityLevel: input.SeverityLevel,
		Priority:      input.Priority,
		Status:        input.Status,
		FaultReported: input.FaultReported,
		RootCause:     input.RootCause,
		ActionTaken:   input.ActionTaken,
		InScope:       input.InScope,
		CustomerID:    input.CustomerID,
		SiteID:        input.SiteID,
		AssignedToID:  input.AssignedToID,
		ChargerIDs:    input.ChargerIDs,
	}
	if input.Tags != nil {
		tags := dedupeTags(*input.Tags)
		fields.Tags = &tags
	}

	var statusEvent *domain.TimelineEvent
	if input.Status != nil {
		statusEvent = domain.NewStatusChangeEvent(id, *input.Status)
	}

	incident, err := s.repo.Update(ctx, id, fields, statusEvent)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

// AddComment appends a comment ledger entry. The incident itself is not
// mutated.
func (s *Service) AddComment(ctx context.Context, id string, authorID *string, text string) (*domain.TimelineEvent, error) {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check incident: %w", err)
	}
	if !exists {
		return nil, ErrIncidentNotFound
	}

	event := domain.NewCommentEvent(id, authorID, text)
	if err := s.repo.AppendEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("append comment: %w", err)
	}
	return event, nil
}

// BulkAction applies one mutation to a set of incidents.
//
// assign and close are single-statement updates: ids that do not resolve
// are skipped and the returned count reflects rows actually updated.
// tag walks the targets one by one (read, union, write) and fails fast on
// the first missing id, leaving earlier targets tagged. Bulk assignment
// appends no ledger entries.
func (s *Service) BulkAction(ctx context.Context, input BulkActionInput) (*BulkResult, error) {
	if len(input.IDs) == 0 {
		return nil, fmt.Errorf("%w: ids must not be empty", ErrInvalidBulkAction)
	}

	switch input.Action {
	case BulkAssign:
		if input.AssignedToID == nil || *input.AssignedToID == "" {
			return nil, ErrMissingAssignee
		}
		count, err := s.repo.AssignMany(ctx, input.IDs, *input.AssignedToID)
		if err != nil {
			return nil, fmt.Errorf("bulk assign: %w", err)
		}
		return &BulkResult{Count: count}, nil

	case BulkTag:
		if len(input.Tags) == 0 {
			return nil, ErrMissingTags
		}
		for _, id := range input.IDs {
			incident, err := s.repo.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			union := dedupeTags(append(append([]string{}, incident.Tags...), input.Tags...))
			if err := s.repo.SetTags(ctx, id, union); err != nil {
				return nil, fmt.Errorf("tag incident %s: %w", id, err)
			}
		}
		return &BulkResult{Count: int64(len(input.IDs))}, nil

	case BulkClose:
		count, err := s.repo.UpdateStatusMany(ctx, input.IDs, domain.IncidentStatusResolved)
		if err != nil {
			return nil, fmt.Errorf("bulk close: %w", err)
		}
		return &BulkResult{Count: count}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidBulkAction, input.Action)
}

// ExternalIDTag encodes an externally supplied identifier as the synthetic
// tag used for ingestion idempotency.
func ExternalIDTag(externalID string) string {
	return "externalId:" + externalID
}

// FindByExternalID returns the incident previously ingested under the
// given external identifier, or ErrIncidentNotFound.
func (s *Service) FindByExternalID(ctx context.Context, externalID string) (*domain.Incident, error) {
	return s.repo.FindByTag(ctx, ExternalIDTag(externalID))
}

// validateReferences confirms that present customer/site references exist
// and that every charger id resolves.
func (s *Service) validateReferences(ctx context.Context, customerID, siteID *string, chargerIDs []string) error {
	if customerID != nil {
		ok, err := s.fleet.CustomerExists(ctx, *customerID)
		if err != nil {
			return fmt.Errorf("check customer: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrCustomerNotFound, *customerID)
		}
	}

	if siteID != nil {
		ok, err := s.fleet.SiteExists(ctx, *siteID)
		if err != nil {
			return fmt.Errorf("check site: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrSiteNotFound, *siteID)
		}
	}

	if len(chargerIDs) > 0 {
		count, err := s.fleet.CountChargers(ctx, chargerIDs)
		if err != nil {
			return fmt.Errorf("check chargers: %w", err)
		}
		if count != len(chargerIDs) {
			return fmt.Errorf("%w: %d of %d ids resolved", ErrInvalidChargerReference, count, len(chargerIDs))
		}
	}

	return nil
}

// dedupeTags collapses duplicates preserving first-seen order.
func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
