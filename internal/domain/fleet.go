package domain

import "time"

// Customer owns one or more sites.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Site is a physical location belonging to a customer.
type Site struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CustomerID string    `json:"customerId"`
	Customer   *Customer `json:"customer,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Charger is a piece of field equipment installed at a site.
type Charger struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	SiteID     string    `json:"siteId"`
	Site       *Site     `json:"site,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
