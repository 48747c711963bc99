package incidents

import "errors"

// Lifecycle errors.
var (
	ErrIncidentNotFound = errors.New("incident not found")

	// Reference errors: the payload names an entity that does not exist.
	ErrCustomerNotFound        = errors.New("customer not found")
	ErrSiteNotFound            = errors.New("site not found")
	ErrInvalidChargerReference = errors.New("invalid charger reference")

	// Bulk action errors.
	ErrInvalidBulkAction = errors.New("invalid bulk action")
	ErrMissingAssignee   = errors.New("assignedToId is required for assign action")
	ErrMissingTags       = errors.New("tags are required for tag action")
)

// Query errors.
var (
	ErrInvalidSortField  = errors.New("sort field is not allowed")
	ErrInvalidSortOrder  = errors.New("sort order must be asc or desc")
	ErrInvalidPagination = errors.New("limit and offset must be non-negative")
	ErrInvalidFilter     = errors.New("invalid filter value")
)
