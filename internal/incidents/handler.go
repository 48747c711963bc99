// Package incidents provides the incident lifecycle service, query engine,
// and HTTP handlers.
package incidents

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gridwatch/toc-portal/internal/domain"
	"github.com/gridwatch/toc-portal/internal/pkg/httputil"
)

// Handler handles HTTP requests for the incidents module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new incidents handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterViewerRoutes registers read-only routes (view capability).
func (h *Handler) RegisterViewerRoutes(r chi.Router) {
	r.Get("/incidents", h.List)
	r.Get("/incidents/{id}", h.Get)
}

// RegisterEditorRoutes registers mutating routes (edit capability).
func (h *Handler) RegisterEditorRoutes(r chi.Router) {
	r.Post("/incidents", h.Create)
	r.Post("/incidents/bulk", h.BulkAction)
	r.Patch("/incidents/{id}", h.Update)
	r.Post("/incidents/{id}/comment", h.AddComment)
}

// CreateIncidentRequest represents the request body for creating an incident.
type CreateIncidentRequest struct {
	Title         string   `json:"title" validate:"required,min=1,max=500"`
	Description   *string  `json:"description"`
	SeverityLevel *string  `json:"severityLevel" validate:"omitempty,oneof=SEV0 SEV1 SEV1A SEV2 SEV3"`
	Priority      *string  `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Source        string   `json:"source" validate:"required,oneof=MANUAL IMPORTED WEBHOOK"`
	FaultReported *string  `json:"faultReported"`
	RootCause     *string  `json:"rootCause"`
	ActionTaken   *string  `json:"actionTaken"`
	InScope       *bool    `json:"inScope"`
	CustomerID    *string  `json:"customerId" validate:"omitempty,uuid4"`
	SiteID        *string  `json:"siteId" validate:"omitempty,uuid4"`
	ChargerIDs    []string `json:"chargerIds" validate:"omitempty,dive,uuid4"`
	Tags          []string `json:"tags" validate:"omitempty,dive,min=1,max=100"`
}

// ToInput converts the request to a service input.
func (r *CreateIncidentRequest) ToInput() CreateInput {
	return CreateInput{
		Title:         r.Title,
		Description:   r.Description,
		SeverityLevel: severityPtr(r.SeverityLevel),
		Priority:      priorityPtr(r.Priority),
		Source:        domain.IncidentSource(r.Source),
		FaultReported: r.FaultReported,
		RootCause:     r.RootCause,
		ActionTaken:   r.ActionTaken,
		InScope:       r.InScope,
		CustomerID:    r.CustomerID,
		SiteID:        r.SiteID,
		ChargerIDs:    r.ChargerIDs,
		Tags:          r.Tags,
	}
}

// UpdateIncidentRequest represents a partial update. Absent fields are
// left untouched; chargerIds, when present, replaces the association set.
type UpdateIncidentRequest struct {
	Title         *string   `json:"title" validate:"omitempty,min=1,max=500"`
	Description   *string   `json:"description"`
	SeverityLevel *string   `json:"severityLevel" validate:"omitempty,oneof=SEV0 SEV1 SEV1A SEV2 SEV3"`
	Priority      *string   `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Status        *string   `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS MONITORING RESOLVED"`
	FaultReported *string   `json:"faultReported"`
	RootCause     *string   `json:"rootCause"`
	ActionTaken   *string   `json:"actionTaken"`
	InScope       *bool     `json:"inScope"`
	CustomerID    *string   `json:"customerId" validate:"omitempty,uuid4"`
	SiteID        *string   `json:"siteId" validate:"omitempty,uuid4"`
	AssignedToID  *string   `json:"assignedToId" validate:"omitempty,uuid4"`
	ChargerIDs    *[]string `json:"chargerIds" validate:"omitempty,dive,uuid4"`
	Tags          *[]string `json:"tags" validate:"omitempty,dive,min=1,max=100"`
}

// ToInput converts the request to a service input.
func (r *UpdateIncidentRequest) ToInput() UpdateInput {
	input := UpdateInput{
		Title:         r.Title,
		Description:   r.Description,
		SeverityLevel: severityPtr(r.SeverityLevel),
		Priority:      priorityPtr(r.Priority),
		FaultReported: r.FaultReported,
		RootCause:     r.RootCause,
		ActionTaken:   r.ActionTaken,
		InScope:       r.InScope,
		CustomerID:    r.CustomerID,
		SiteID:        r.SiteID,
		AssignedToID:  r.AssignedToID,
		ChargerIDs:    r.ChargerIDs,
		Tags:          r.Tags,
	}
	if r.Status != nil {
		status := domain.IncidentStatus(*r.Status)
		input.Status = &status
	}
	return input
}

// CommentRequest represents the request body for adding a comment.
type CommentRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

// BulkActionRequest represents the request body for a bulk action.
type BulkActionRequest struct {
	IDs          []string `json:"ids" validate:"required,min=1,dive,uuid4"`
	Action       string   `json:"action" validate:"required,oneof=assign tag close"`
	AssignedToID *string  `json:"assignedToId" validate:"omitempty,uuid4"`
	Tags         []string `json:"tags" validate:"omitempty,dive,min=1,max=100"`
}

// List handles GET /incidents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query, err := ParseListQuery(r.URL.Query())
	if err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incidents, err := h.service.List(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, incidents)
}

// Create handles POST /incidents.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.Create(r.Context(), req.ToInput(), callerID(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, incident)
}

// Get handles GET /incidents/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, incident)
}

// Update handles PATCH /incidents/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req.ToInput())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, incident)
}

// AddComment handles POST /incidents/{id}/comment.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	event, err := h.service.AddComment(r.Context(), chi.URLParam(r, "id"), callerID(r), req.Text)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, event)
}

// BulkAction handles POST /incidents/bulk.
func (h *Handler) BulkAction(w http.ResponseWriter, r *http.Request) {
	var req BulkActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	result, err := h.service.BulkAction(r.Context(), BulkActionInput{
		IDs:          req.IDs,
		Action:       BulkActionKind(req.Action),
		AssignedToID: req.AssignedToID,
		Tags:         req.Tags,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
		{Error: ErrIncidentNotFound, Status: http.StatusNotFound},
		{Error: ErrCustomerNotFound, Status: http.StatusBadRequest},
		{Error: ErrSiteNotFound, Status: http.StatusBadRequest},
		{Error: ErrInvalidChargerReference, Status: http.StatusBadRequest},
		{Error: ErrInvalidBulkAction, Status: http.StatusBadRequest},
		{Error: ErrMissingAssignee, Status: http.StatusBadRequest},
		{Error: ErrMissingTags, Status: http.StatusBadRequest},
	})
}

// callerID returns the authenticated user id, or nil outside auth routes.
func callerID(r *http.Request) *string {
	caller := httputil.GetCaller(r.Context())
	if caller.UserID == "" {
		return nil
	}
	return &caller.UserID
}

func severityPtr(raw *string) *domain.SeverityLevel {
	if raw == nil {
		return nil
	}
	severity := domain.SeverityLevel(*raw)
	return &severity
}

func priorityPtr(raw *string) *domain.IncidentPriority {
	if raw == nil {
		return nil
	}
	priority := domain.IncidentPriority(*raw)
	return &priority
}
