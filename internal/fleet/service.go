// Package fleet exposes the customer/site/charger registry backing
// incident references.
package fleet

import (
	"context"

	"github.com/gridwatch/toc-portal/internal/domain"
)

// Service provides fleet reads and reference checks.
type Service struct {
	repo Repository
}

// NewService creates a new fleet service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListCustomers returns all customers ordered by name.
func (s *Service) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

// ListSites returns all sites with their customers, ordered by name.
func (s *Service) ListSites(ctx context.Context) ([]*domain.Site, error) {
	return s.repo.ListSites(ctx)
}

// ListSitesByCustomer returns the customer's sites ordered by name.
func (s *Service) ListSitesByCustomer(ctx context.Context, customerID string) ([]*domain.Site, error) {
	return s.repo.ListSitesByCustomer(ctx, customerID)
}

// ListChargers returns all chargers with site and customer attached,
// ordered by identifier.
func (s *Service) ListChargers(ctx context.Context) ([]*domain.Charger, error) {
	return s.repo.ListChargers(ctx)
}

// ListChargersBySite returns the site's chargers ordered by identifier.
func (s *Service) ListChargersBySite(ctx context.Context, siteID string) ([]*domain.Charger, error) {
	return s.repo.ListChargersBySite(ctx, siteID)
}

// CustomerExists implements incidents.FleetChecker.
func (s *Service) CustomerExists(ctx context.Context, id string) (bool, error) {
	return s.repo.CustomerExists(ctx, id)
}

// SiteExists implements incidents.FleetChecker.
func (s *Service) SiteExists(ctx context.Context, id string) (bool, error) {
	return s.repo.SiteExists(ctx, id)
}

// CountChargers implements incidents.FleetChecker.
func (s *Service) CountChargers(ctx context.Context, ids []string) (int, error) {
	return s.repo.CountChargers(ctx, ids)
}
