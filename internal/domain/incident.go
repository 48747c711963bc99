package domain

import "time"

// IncidentStatus represents the lifecycle status of an incident.
type IncidentStatus string

// Incident statuses.
const (
	IncidentStatusOpen       IncidentStatus = "OPEN"
	IncidentStatusInProgress IncidentStatus = "IN_PROGRESS"
	IncidentStatusMonitoring IncidentStatus = "MONITORING"
	IncidentStatusResolved   IncidentStatus = "RESOLVED"
)

// IncidentPriority represents the operational priority of an incident.
type IncidentPriority string

// Incident priorities.
const (
	PriorityLow      IncidentPriority = "LOW"
	PriorityMedium   IncidentPriority = "MEDIUM"
	PriorityHigh     IncidentPriority = "HIGH"
	PriorityCritical IncidentPriority = "CRITICAL"
)

// SeverityLevel represents the severity of an incident, SEV0 being the most severe.
type SeverityLevel string

// Severity levels, most severe first.
const (
	SeveritySEV0  SeverityLevel = "SEV0"
	SeveritySEV1  SeverityLevel = "SEV1"
	SeveritySEV1A SeverityLevel = "SEV1A"
	SeveritySEV2  SeverityLevel = "SEV2"
	SeveritySEV3  SeverityLevel = "SEV3"
)

// IncidentSource indicates how an incident entered the system.
type IncidentSource string

// Incident sources.
const (
	SourceManual   IncidentSource = "MANUAL"
	SourceImported IncidentSource = "IMPORTED"
	SourceWebhook  IncidentSource = "WEBHOOK"
)

// Incident represents a tracked operational problem on field equipment.
type Incident struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   *string           `json:"description"`
	SeverityLevel *SeverityLevel    `json:"severityLevel"`
	Priority      *IncidentPriority `json:"priority"`
	Status        IncidentStatus    `json:"status"`
	Source        IncidentSource    `json:"source"`
	FaultReported *string           `json:"faultReported"`
	RootCause     *string           `json:"rootCause"`
	ActionTaken   *string           `json:"actionTaken"`
	InScope       bool              `json:"inScope"`
	Tags          []string          `json:"tags"`
	CustomerID    *string           `json:"customerId"`
	SiteID        *string           `json:"siteId"`
	AssignedToID  *string           `json:"assignedToId"`
	ChargerIDs    []string          `json:"chargerIds"`
	Timeline      []*TimelineEvent  `json:"timeline,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// IsValid checks if the status is a known incident status.
func (s IncidentStatus) IsValid() bool {
	return s == IncidentStatusOpen ||
		s == IncidentStatusInProgress ||
		s == IncidentStatusMonitoring ||
		s == IncidentStatusResolved
}

// IsValid checks if the priority is a known incident priority.
func (p IncidentPriority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh || p == PriorityCritical
}

// IsValid checks if the severity level is a known level.
func (s SeverityLevel) IsValid() bool {
	return s == SeveritySEV0 || s == SeveritySEV1 || s == SeveritySEV1A ||
		s == SeveritySEV2 || s == SeveritySEV3
}

// Rank returns the position of the severity on the ordered scale,
// 0 for the most severe. Unknown levels rank last.
func (s SeverityLevel) Rank() int {
	switch s {
	case SeveritySEV0:
		return 0
	case SeveritySEV1:
		return 1
	case SeveritySEV1A:
		return 2
	case SeveritySEV2:
		return 3
	case SeveritySEV3:
		return 4
	}
	return 5
}

// IsValid checks if the source is a known incident source.
func (s IncidentSource) IsValid() bool {
	return s == SourceManual || s == SourceImported || s == SourceWebhook
}

// HasTag reports whether the incident carries the given tag.
func (i *Incident) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
