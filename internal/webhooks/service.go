// Package webhooks accepts third-party incident reports and turns them
// into incidents at most once per external identifier.
package webhooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/gridwatch/toc-portal/internal/domain"
	"github.com/gridwatch/toc-portal/internal/incidents"
)

// systemAuthor is recorded on ledger entries for ingested incidents.
const systemAuthor = "system"

// DuplicateError reports that the external identifier was already
// ingested, carrying the existing incident's id for the caller.
type DuplicateError struct {
	IncidentID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("incident already exists for external id: %s", e.IncidentID)
}

// IncidentService is the slice of the incident lifecycle the adapter
// delegates to.
type IncidentService interface {
	Create(ctx context.Context, input incidents.CreateInput, authorID *string) (*domain.Incident, error)
	FindByExternalID(ctx context.Context, externalID string) (*domain.Incident, error)
}

// ReportInput is a third-party incident report.
type ReportInput struct {
	ExternalID    string
	Title         string
	Description   *string
	SeverityLevel *domain.SeverityLevel
	FaultReported *string
	CustomerID    *string
	SiteID        *string
	ChargerIDs    []string
	Tags          []string
}

// Service implements the external ingestion adapter.
type Service struct {
	incidents IncidentService
}

// NewService creates a new ingestion service.
func NewService(incidentService IncidentService) *Service {
	return &Service{incidents: incidentService}
}

// Ingest creates an incident for the report unless one already exists for
// its external identifier, in which case a DuplicateError carrying the
// existing id is returned.
//
// The duplicate check and the create are not atomic: two concurrent
// ingestions of the same external id can both pass the check and create
// two incidents. Accepted risk; callers must not rely on the check for
// correctness under concurrency.
func (s *Service) Ingest(ctx context.Context, input ReportInput) (*domain.Incident, error) {
	existing, err := s.incidents.FindByExternalID(ctx, input.ExternalID)
	if err == nil {
		return nil, &DuplicateError{IncidentID: existing.ID}
	}
	if !errors.Is(err, incidents.ErrIncidentNotFound) {
		return nil, fmt.Errorf("check external id: %w", err)
	}

	author := systemAuthor
	tags := append(append([]string{}, input.Tags...), incidents.ExternalIDTag(input.ExternalID))

	incident, err := s.incidents.Create(ctx, incidents.CreateInput{
		Title:         input.Title,
		Description:   input.Description,
		SeverityLevel: input.SeverityLevel,
		Source:        domain.SourceImported,
		FaultReported: input.FaultReported,
		CustomerID:    input.CustomerID,
		SiteID:        input.SiteID,
		ChargerIDs:    input.ChargerIDs,
		Tags:          tags,
	}, &author)
	if err != nil {
		return nil, err
	}
	return incident, nil
}
