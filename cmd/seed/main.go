// Command seed populates the database with demo fleet data and incidents.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridwatch/toc-portal/internal/config"
	"github.com/gridwatch/toc-portal/internal/domain"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := seed(ctx, db); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}

	slog.Info("seed complete")
}

var customerNames = []string{"Northvolt Fleet", "GreenRoute Logistics", "Metro Transit Authority"}

var siteNames = []string{"Depot North", "Depot South", "Harbor Terminal", "Airport Hub", "City Center"}

func seed(ctx context.Context, db *pgxpool.Pool) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	_, err = tx.Exec(ctx, `TRUNCATE customers, sites, chargers, incidents, incident_chargers, timeline_events CASCADE`)
	if err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	var chargerIDs []string
	var customerIDs []string
	var siteIDs []string

	for _, customerName := range customerNames {
		var customerID string
		err := tx.QueryRow(ctx,
			`INSERT INTO customers (name) VALUES ($1) RETURNING id`,
			customerName,
		).Scan(&customerID)
		if err != nil {
			return fmt.Errorf("insert customer %q: %w", customerName, err)
		}
		customerIDs = append(customerIDs, customerID)

		for i, siteName := range siteNames {
			var siteID string
			err := tx.QueryRow(ctx,
				`INSERT INTO sites (name, customer_id) VALUES ($1, $2) RETURNING id`,
				fmt.Sprintf("%s %s", customerName, siteName), customerID,
			).Scan(&siteID)
			if err != nil {
				return fmt.Errorf("insert site %q: %w", siteName, err)
			}
			siteIDs = append(siteIDs, siteID)

			for c := 1; c <= 5; c++ {
				var chargerID string
				err := tx.QueryRow(ctx,
					`INSERT INTO chargers (identifier, site_id) VALUES ($1, $2) RETURNING id`,
					fmt.Sprintf("CHG-%02d-%02d", i+1, c), siteID,
				).Scan(&chargerID)
				if err != nil {
					return fmt.Errorf("insert charger: %w", err)
				}
				chargerIDs = append(chargerIDs, chargerID)
			}
		}
	}

	if err := seedIncidents(ctx, tx, customerIDs, siteIDs, chargerIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type seedIncident struct {
	title    string
	severity domain.SeverityLevel
	priority domain.IncidentPriority
	status   domain.IncidentStatus
	source   domain.IncidentSource
	tags     []string
}

var demoIncidents = []seedIncident{
	{"Charger bank offline after grid fault", domain.SeveritySEV1, domain.PriorityCritical, domain.IncidentStatusOpen, domain.SourceManual, []string{"grid", "outage"}},
	{"Intermittent OCPP disconnects", domain.SeveritySEV2, domain.PriorityHigh, domain.IncidentStatusInProgress, domain.SourceManual, []string{"ocpp"}},
	{"Payment terminal unresponsive", domain.SeveritySEV3, domain.PriorityMedium, domain.IncidentStatusOpen, domain.SourceManual, []string{"payments"}},
	{"Cable lock stuck on connector 2", domain.SeveritySEV2, domain.PriorityMedium, domain.IncidentStatusMonitoring, domain.SourceManual, []string{"hardware"}},
	{"Firmware rollout failed on site", domain.SeveritySEV1A, domain.PriorityHigh, domain.IncidentStatusInProgress, domain.SourceImported, []string{"firmware", "externalId:fw-2209"}},
	{"Ground fault breaker tripping", domain.SeveritySEV1, domain.PriorityCritical, domain.IncidentStatusOpen, domain.SourceImported, []string{"electrical", "externalId:gf-0042"}},
	{"Display backlight dead", domain.SeveritySEV3, domain.PriorityLow, domain.IncidentStatusResolved, domain.SourceManual, []string{"hardware"}},
	{"Charging session stuck at 0 kW", domain.SeveritySEV2, domain.PriorityHigh, domain.IncidentStatusOpen, domain.SourceWebhook, []string{"sessions", "externalId:ses-7781"}},
	{"RFID reader rejecting valid cards", domain.SeveritySEV2, domain.PriorityMedium, domain.IncidentStatusInProgress, domain.SourceManual, []string{"auth"}},
	{"Site gateway loses LTE uplink nightly", domain.SeveritySEV1A, domain.PriorityHigh, domain.IncidentStatusMonitoring, domain.SourceManual, []string{"network"}},
}

func seedIncidents(ctx context.Context, tx pgx.Tx, customerIDs, siteIDs, chargerIDs []string) error {
	for i, inc := range demoIncidents {
		customerID := customerIDs[i%len(customerIDs)]
		siteID := siteIDs[i%len(siteIDs)]

		var incidentID string
		err := tx.QueryRow(ctx, `
			INSERT INTO incidents (title, severity_level, priority, status, source, tags, customer_id, site_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`, inc.title, inc.severity, inc.priority, inc.status, inc.source, inc.tags, customerID, siteID).Scan(&incidentID)
		if err != nil {
			return fmt.Errorf("insert incident %q: %w", inc.title, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO incident_chargers (incident_id, charger_id) VALUES ($1, $2)
		`, incidentID, chargerIDs[i%len(chargerIDs)])
		if err != nil {
			return fmt.Errorf("associate charger: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO timeline_events (incident_id, type, payload)
			VALUES ($1, $2, $3)
		`, incidentID, domain.EventTypeCreated, map[string]string{"text": "Incident created"})
		if err != nil {
			return fmt.Errorf("insert creation event: %w", err)
		}
	}
	return nil
}
