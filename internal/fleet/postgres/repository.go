// Package postgres provides the PostgreSQL implementation of the fleet
// repository.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridwatch/toc-portal/internal/domain"
)

// Repository implements fleet.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListCustomers returns all customers ordered by name.
func (r *Repository) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM customers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]*domain.Customer, 0)
	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(&customer.ID, &customer.Name, &customer.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, &customer)
	}
	return customers, rows.Err()
}

// ListSites returns all sites with their customers, ordered by name.
func (r *Repository) ListSites(ctx context.Context) ([]*domain.Site, error) {
	query := `
		SELECT s.id, s.name, s.customer_id, s.created_at,
			c.id, c.name, c.created_at
		FROM sites s
		JOIN customers c ON c.id = s.customer_id
		ORDER BY s.name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	sites := make([]*domain.Site, 0)
	for rows.Next() {
		var site domain.Site
		var customer domain.Customer
		err := rows.Scan(
			&site.ID, &site.Name, &site.CustomerID, &site.CreatedAt,
			&customer.ID, &customer.Name, &customer.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		site.Customer = &customer
		sites = append(sites, &site)
	}
	return sites, rows.Err()
}

// ListSitesByCustomer returns the customer's sites ordered by name.
func (r *Repository) ListSitesByCustomer(ctx context.Context, customerID string) ([]*domain.Site, error) {
	query := `SELECT id, name, customer_id, created_at FROM sites WHERE customer_id = $1 ORDER BY name`
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("list sites by customer: %w", err)
	}
	defer rows.Close()

	sites := make([]*domain.Site, 0)
	for rows.Next() {
		var site domain.Site
		if err := rows.Scan(&site.ID, &site.Name, &site.CustomerID, &site.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, &site)
	}
	return sites, rows.Err()
}

// ListChargers returns all chargers with site and customer attached,
// ordered by identifier.
func (r *Repository) ListChargers(ctx context.Context) ([]*domain.Charger, error) {
	query := `
		SELECT ch.id, ch.identifier, ch.site_id, ch.created_at,
			s.id, s.name, s.customer_id, s.created_at,
			c.id, c.name, c.created_at
		FROM chargers ch
		JOIN sites s ON s.id = ch.site_id
		JOIN customers c ON c.id = s.customer_id
		ORDER BY ch.identifier
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list chargers: %w", err)
	}
	defer rows.Close()

	chargers := make([]*domain.Charger, 0)
	for rows.Next() {
		var charger domain.Charger
		var site domain.Site
		var customer domain.Customer
		err := rows.Scan(
			&charger.ID, &charger.Identifier, &charger.SiteID, &charger.CreatedAt,
			&site.ID, &site.Name, &site.CustomerID, &site.CreatedAt,
			&customer.ID, &customer.Name, &customer.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan charger: %w", err)
		}
		site.Customer = &customer
		charger.Site = &site
		chargers = append(chargers, &charger)
	}
	return chargers, rows.Err()
}

// ListChargersBySite returns the site's chargers ordered by identifier.
func (r *Repository) ListChargersBySite(ctx context.Context, siteID string) ([]*domain.Charger, error) {
	query := `SELECT id, identifier, site_id, created_at FROM chargers WHERE site_id = $1 ORDER BY identifier`
	rows, err := r.db.Query(ctx, query, siteID)
	if err != nil {
		return nil, fmt.Errorf("list chargers by site: %w", err)
	}
	defer rows.Close()

	chargers := make([]*domain.Charger, 0)
	for rows.Next() {
		var charger domain.Charger
		if err := rows.Scan(&charger.ID, &charger.Identifier, &charger.SiteID, &charger.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan charger: %w", err)
		}
		chargers = append(chargers, &charger)
	}
	return chargers, rows.Err()
}

// CustomerExists reports whether a customer with the given id exists.
func (r *Repository) CustomerExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check customer exists: %w", err)
	}
	return exists, nil
}

// SiteExists reports whether a site with the given id exists.
func (r *Repository) SiteExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sites WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check site exists: %w", err)
	}
	return exists, nil
}

// CountChargers returns how many of the given ids resolve to chargers.
func (r *Repository) CountChargers(ctx context.Context, ids []string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM chargers WHERE id = ANY($1)`, ids).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count chargers: %w", err)
	}
	return count, nil
}
