package incidents

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/gridwatch/toc-portal/internal/domain"
)

// Pagination bounds.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// SortOrder is the direction of a list query.
type SortOrder string

// Sort orders.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// sortFields is the allow-list of sortable fields. Anything outside this
// set is rejected before a query is composed; sort input never reaches
// SQL unchecked.
var sortFields = map[string]struct{}{
	"createdAt":     {},
	"updatedAt":     {},
	"title":         {},
	"status":        {},
	"priority":      {},
	"severityLevel": {},
	"customerId":    {},
	"siteId":        {},
	"assignedToId":  {},
}

// ListQuery holds the composed filter, sort, and pagination window for
// listing incidents. Omitting every filter returns the full incident set.
type ListQuery struct {
	Limit     int
	Offset    int
	SortBy    string
	SortOrder SortOrder

	Status        *domain.IncidentStatus
	Priority      *domain.IncidentPriority
	SeverityLevel *domain.SeverityLevel
	CustomerID    *string
	SiteID        *string

	// Tags matches incidents carrying at least one of the given tags.
	Tags []string

	// Search matches case-insensitively against title, root cause, action
	// taken, and ledger comment text.
	Search string
}

// ParseListQuery builds a ListQuery from URL query parameters, applying
// defaults, clamping pagination, and validating the sort field against
// the allow-list.
func ParseListQuery(values url.Values) (ListQuery, error) {
	q := ListQuery{
		Limit:     DefaultLimit,
		Offset:    0,
		SortBy:    "createdAt",
		SortOrder: SortDesc,
	}

	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return ListQuery{}, fmt.Errorf("%w: limit=%q", ErrInvalidPagination, raw)
		}
		q.Limit = n
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	if raw := values.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return ListQuery{}, fmt.Errorf("%w: offset=%q", ErrInvalidPagination, raw)
		}
		q.Offset = n
	}

	if raw := values.Get("sortBy"); raw != "" {
		if _, ok := sortFields[raw]; !ok {
			return ListQuery{}, fmt.Errorf("%w: %q", ErrInvalidSortField, raw)
		}
		q.SortBy = raw
	}

	if raw := values.Get("sortOrder"); raw != "" {
		switch SortOrder(raw) {
		case SortAsc, SortDesc:
			q.SortOrder = SortOrder(raw)
		default:
			return ListQuery{}, fmt.Errorf("%w: %q", ErrInvalidSortOrder, raw)
		}
	}

	if raw := values.Get("status"); raw != "" {
		status := domain.IncidentStatus(raw)
		if !status.IsValid() {
			return ListQuery{}, fmt.Errorf("%w: status=%q", ErrInvalidFilter, raw)
		}
		q.Status = &status
	}

	if raw := values.Get("priority"); raw != "" {
		priority := domain.IncidentPriority(raw)
		if !priority.IsValid() {
			return ListQuery{}, fmt.Errorf("%w: priority=%q", ErrInvalidFilter, raw)
		}
		q.Priority = &priority
	}

	if raw := values.Get("severityLevel"); raw != "" {
		severity := domain.SeverityLevel(raw)
		if !severity.IsValid() {
			return ListQuery{}, fmt.Errorf("%w: severityLevel=%q", ErrInvalidFilter, raw)
		}
		q.SeverityLevel = &severity
	}

	if raw := values.Get("customerId"); raw != "" {
		q.CustomerID = &raw
	}
	if raw := values.Get("siteId"); raw != "" {
		q.SiteID = &raw
	}

	if raw := values.Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				q.Tags = append(q.Tags, tag)
			}
		}
	}

	if raw := values.Get("search"); raw != "" {
		q.Search = norm.NFC.String(strings.TrimSpace(raw))
	}

	return q, nil
}
