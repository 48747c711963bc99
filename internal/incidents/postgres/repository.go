// Package postgres provides the PostgreSQL implementation of the incidents
// repository.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridwatch/toc-portal/internal/domain"
	"github.com/gridwatch/toc-portal/internal/incidents"
)

// incidentColumns is the column list scanned by scanIncident.
const incidentColumns = `
	id, title, description, severity_level, priority, status, source,
	fault_reported, root_cause, action_taken, in_scope, tags,
	customer_id, site_id, assigned_to_id, created_at, updated_at
`

// sortColumns maps allow-listed API sort fields to SQL columns. The query
// engine has already rejected anything outside this set.
var sortColumns = map[string]string{
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
	"title":         "title",
	"status":        "status",
	"priority":      "priority",
	"severityLevel": "severity_level",
	"customerId":    "customer_id",
	"siteId":        "site_id",
	"assignedToId":  "assigned_to_id",
}

// Repository implements incidents.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts the incident, its charger associations, and the creation
// marker in one transaction.
func (r *Repository) Create(ctx context.Context, incident *domain.Incident, marker *domain.TimelineEvent) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	query := `
		INSERT INTO incidents (
			title, description, severity_level, priority, status, source,
			fault_reported, root_cause, action_taken, in_scope, tags,
			customer_id, site_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		incident.Title,
		incident.Description,
		incident.SeverityLevel,
		incident.Priority,
		incident.Status,
		incident.Source,
		incident.FaultReported,
		incident.RootCause,
		incident.ActionTaken,
		incident.InScope,
		incident.Tags,
		incident.CustomerID,
		incident.SiteID,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}

	if err := associateChargersTx(ctx, tx, incident.ID, incident.ChargerIDs); err != nil {
		return err
	}

	marker.IncidentID = incident.ID
	if err := appendEventTx(ctx, tx, marker); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get retrieves an incident with timeline and charger associations.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`

	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}

	if err := r.loadAssociations(ctx, []*domain.Incident{incident}); err != nil {
		return nil, err
	}
	return incident, nil
}

// List retrieves incidents matching the query, eagerly loaded.
func (r *Repository) List(ctx context.Context, q incidents.ListQuery) ([]*domain.Incident, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + incidentColumns + ` FROM incidents WHERE 1=1`)

	args := []interface{}{}
	argNum := 1
	addArg := func(clause string, value interface{}) {
		sb.WriteString(fmt.Sprintf(clause, argNum))
		args = append(args, value)
		argNum++
	}

	if q.Status != nil {
		addArg(" AND status = $%d", *q.Status)
	}
	if q.Priority != nil {
		addArg(" AND priority = $%d", *q.Priority)
	}
	if q.SeverityLevel != nil {
		addArg(" AND severity_level = $%d", *q.SeverityLevel)
	}
	if q.CustomerID != nil {
		addArg(" AND customer_id = $%d", *q.CustomerID)
	}
	if q.SiteID != nil {
		addArg(" AND site_id = $%d", *q.SiteID)
	}
	if len(q.Tags) > 0 {
		// Overlap, not containment: at least one requested tag matches.
		addArg(" AND tags && $%d", q.Tags)
	}
	if q.Search != "" {
		pattern := "%" + escapeLike(q.Search) + "%"
		sb.WriteString(fmt.Sprintf(` AND (
			title ILIKE $%d
			OR root_cause ILIKE $%d
			OR action_taken ILIKE $%d
			OR EXISTS (
				SELECT 1 FROM timeline_events te
				WHERE te.incident_id = incidents.id
				AND te.payload->>'text' ILIKE $%d
			)
		)`, argNum, argNum, argNum, argNum))
		args = append(args, pattern)
		argNum++
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", incidents.ErrInvalidSortField, q.SortBy)
	}
	direction := "DESC"
	if q.SortOrder == incidents.SortAsc {
		direction = "ASC"
	}
	sb.WriteString(fmt.Sprintf(" ORDER BY %s %s", column, direction))

	addArg(" LIMIT $%d", q.Limit)
	addArg(" OFFSET $%d", q.Offset)

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		result = append(result, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}

	if err := r.loadAssociations(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Update applies present fields, replaces charger associations when set,
// and appends the status event, all in one transaction.
func (r *Repository) Update(ctx context.Context, id string, fields incidents.UpdateFields, statusEvent *domain.TimelineEvent) (*domain.Incident, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	sets := []string{"updated_at = now()"}
	args := []interface{}{}
	argNum := 1
	set := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argNum))
		args = append(args, value)
		argNum++
	}

	if fields.Title != nil {
		set("title", *fields.Title)
	}
	if fields.Description != nil {
		set("description", *fields.Description)
	}
	if fields.SeverityLevel != nil {
		set("severity_level", *fields.SeverityLevel)
	}
	if fields.Priority != nil {
		set("priority", *fields.Priority)
	}
	if fields.Status != nil {
		set("status", *fields.Status)
	}
	if fields.FaultReported != nil {
		set("fault_reported", *fields.FaultReported)
	}
	if fields.RootCause != nil {
		set("root_cause", *fields.RootCause)
	}
	if fields.ActionTaken != nil {
		set("action_taken", *fields.ActionTaken)
	}
	if fields.InScope != nil {
		set("in_scope", *fields.InScope)
	}
	if fields.Tags != nil {
		set("tags", *fields.Tags)
	}
	if fields.CustomerID != nil {
		set("customer_id", *fields.CustomerID)
	}
	if fields.SiteID != nil {
		set("site_id", *fields.SiteID)
	}
	if fields.AssignedToID != nil {
		set("assigned_to_id", *fields.AssignedToID)
	}

	query := fmt.Sprintf(
		`UPDATE incidents SET %s WHERE id = $%d RETURNING `+incidentColumns,
		strings.Join(sets, ", "), argNum,
	)
	args = append(args, id)

	incident, err := scanIncident(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("update incident: %w", err)
	}

	if fields.ChargerIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM incident_chargers WHERE incident_id = $1`, id); err != nil {
			return nil, fmt.Errorf("clear chargers: %w", err)
		}
		if err := associateChargersTx(ctx, tx, id, *fields.ChargerIDs); err != nil {
			return nil, err
		}
	}

	if statusEvent != nil {
		if err := appendEventTx(ctx, tx, statusEvent); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if err := r.loadAssociations(ctx, []*domain.Incident{incident}); err != nil {
		return nil, err
	}
	return incident, nil
}

// Exists reports whether an incident with the given id exists.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM incidents WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check incident exists: %w", err)
	}
	return exists, nil
}

// AppendEvent appends a single ledger entry.
func (r *Repository) AppendEvent(ctx context.Context, event *domain.TimelineEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO timeline_events (incident_id, author_id, type, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err = r.db.QueryRow(ctx, query, event.IncidentID, event.AuthorID, event.Type, payload).
		Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// AssignMany sets the assignee on every matching incident.
func (r *Repository) AssignMany(ctx context.Context, ids []string, assigneeID string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE incidents SET assigned_to_id = $1, updated_at = now() WHERE id = ANY($2)`,
		assigneeID, ids,
	)
	if err != nil {
		return 0, fmt.Errorf("assign incidents: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UpdateStatusMany sets the status on every matching incident.
func (r *Repository) UpdateStatusMany(ctx context.Context, ids []string, status domain.IncidentStatus) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE incidents SET status = $1, updated_at = now() WHERE id = ANY($2)`,
		status, ids,
	)
	if err != nil {
		return 0, fmt.Errorf("update incident statuses: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SetTags replaces the incident's tag set.
func (r *Repository) SetTags(ctx context.Context, id string, tags []string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE incidents SET tags = $1, updated_at = now() WHERE id = $2`,
		tags, id,
	)
	if err != nil {
		return fmt.Errorf("set tags: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return incidents.ErrIncidentNotFound
	}
	return nil
}

// FindByTag returns the first incident carrying the exact tag. Uses the
// GIN index on tags; associations are not loaded.
func (r *Repository) FindByTag(ctx context.Context, tag string) (*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE tags @> ARRAY[$1] LIMIT 1`

	incident, err := scanIncident(r.db.QueryRow(ctx, query, tag))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("find by tag: %w", err)
	}
	return incident, nil
}

// loadAssociations attaches timelines and charger ids for a page of
// incidents with two batched queries.
func (r *Repository) loadAssociations(ctx context.Context, page []*domain.Incident) error {
	if len(page) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Incident, len(page))
	ids := make([]string, 0, len(page))
	for _, incident := range page {
		incident.Timeline = make([]*domain.TimelineEvent, 0)
		incident.ChargerIDs = make([]string, 0)
		byID[incident.ID] = incident
		ids = append(ids, incident.ID)
	}

	eventRows, err := r.db.Query(ctx, `
		SELECT id, incident_id, author_id, type, payload, created_at
		FROM timeline_events
		WHERE incident_id = ANY($1)
		ORDER BY created_at, id
	`, ids)
	if err != nil {
		return fmt.Errorf("load timelines: %w", err)
	}
	defer eventRows.Close()

	for eventRows.Next() {
		var event domain.TimelineEvent
		var raw []byte
		if err := eventRows.Scan(&event.ID, &event.IncidentID, &event.AuthorID, &event.Type, &raw, &event.CreatedAt); err != nil {
			return fmt.Errorf("scan timeline event: %w", err)
		}
		event.Payload, err = decodePayload(event.Type, raw)
		if err != nil {
			return err
		}
		if incident, ok := byID[event.IncidentID]; ok {
			incident.Timeline = append(incident.Timeline, &event)
		}
	}
	if err := eventRows.Err(); err != nil {
		return fmt.Errorf("iterate timeline events: %w", err)
	}

	chargerRows, err := r.db.Query(ctx, `
		SELECT incident_id, charger_id
		FROM incident_chargers
		WHERE incident_id = ANY($1)
		ORDER BY charger_id
	`, ids)
	if err != nil {
		return fmt.Errorf("load chargers: %w", err)
	}
	defer chargerRows.Close()

	for chargerRows.Next() {
		var incidentID, chargerID string
		if err := chargerRows.Scan(&incidentID, &chargerID); err != nil {
			return fmt.Errorf("scan incident charger: %w", err)
		}
		if incident, ok := byID[incidentID]; ok {
			incident.ChargerIDs = append(incident.ChargerIDs, chargerID)
		}
	}
	if err := chargerRows.Err(); err != nil {
		return fmt.Errorf("iterate incident chargers: %w", err)
	}

	return nil
}

// scanIncident scans one incidentColumns row.
func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var incident domain.Incident
	err := row.Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&incident.SeverityLevel,
		&incident.Priority,
		&incident.Status,
		&incident.Source,
		&incident.FaultReported,
		&incident.RootCause,
		&incident.ActionTaken,
		&incident.InScope,
		&incident.Tags,
		&incident.CustomerID,
		&incident.SiteID,
		&incident.AssignedToID,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if incident.Tags == nil {
		incident.Tags = make([]string, 0)
	}
	return &incident, nil
}

// decodePayload unmarshals a stored payload into its typed form.
func decodePayload(eventType domain.TimelineEventType, raw []byte) (domain.EventPayload, error) {
	switch eventType {
	case domain.EventTypeCreated:
		var p domain.CreatedPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode created payload: %w", err)
		}
		return p, nil
	case domain.EventTypeComment:
		var p domain.CommentPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode comment payload: %w", err)
		}
		return p, nil
	case domain.EventTypeStatusChange:
		var p domain.StatusChangePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode status_change payload: %w", err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown timeline event type %q", eventType)
}

// associateChargersTx inserts charger associations for an incident.
func associateChargersTx(ctx context.Context, tx pgx.Tx, incidentID string, chargerIDs []string) error {
	for _, chargerID := range chargerIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO incident_chargers (incident_id, charger_id) VALUES ($1, $2)`,
			incidentID, chargerID,
		)
		if err != nil {
			return fmt.Errorf("associate charger %s: %w", chargerID, err)
		}
	}
	return nil
}

// appendEventTx inserts a ledger entry inside a transaction.
func appendEventTx(ctx context.Context, tx pgx.Tx, event *domain.TimelineEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO timeline_events (incident_id, author_id, type, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, event.IncidentID, event.AuthorID, event.Type, payload).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// escapeLike escapes LIKE pattern metacharacters in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// rollback rolls back a transaction, ignoring the already-closed error.
func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Error("failed to rollback transaction", "error", err)
	}
}
