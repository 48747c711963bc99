package fleet

import (
	"context"

	"github.com/gridwatch/toc-portal/internal/domain"
)

// Repository defines the interface for fleet reference data. Customers,
// sites, and chargers are owned by the persistence layer; this module only
// reads them and answers existence checks.
type Repository interface {
	ListCustomers(ctx context.Context) ([]*domain.Customer, error)
	ListSites(ctx context.Context) ([]*domain.Site, error)
	ListSitesByCustomer(ctx context.Context, customerID string) ([]*domain.Site, error)
	ListChargers(ctx context.Context) ([]*domain.Charger, error)
	ListChargersBySite(ctx context.Context, siteID string) ([]*domain.Charger, error)

	CustomerExists(ctx context.Context, id string) (bool, error)
	SiteExists(ctx context.Context, id string) (bool, error)
	CountChargers(ctx context.Context, ids []string) (int, error)
}
