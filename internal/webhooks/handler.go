package webhooks

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/gridwatch/toc-portal/internal/domain"
	"github.com/gridwatch/toc-portal/internal/incidents"
	"github.com/gridwatch/toc-portal/internal/pkg/httputil"
	"github.com/gridwatch/toc-portal/internal/pkg/metrics"
)

// ingestionSecretHeader carries the shared secret for webhook callers.
const ingestionSecretHeader = "X-Ingestion-Secret"

// Handler handles HTTP requests for the webhooks module.
type Handler struct {
	service   *Service
	validator *validator.Validate
	secret    string
	limiter   *rate.Limiter
}

// NewHandler creates a new webhooks handler. An empty secret disables the
// shared-secret check.
func NewHandler(service *Service, secret string, limit float64, burst int) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
		secret:    secret,
		limiter:   rate.NewLimiter(rate.Limit(limit), burst),
	}
}

// RegisterRoutes registers webhook routes. They sit outside the
// authenticated API surface and are guarded by the shared secret and a
// rate limiter instead.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(h.guard).Post("/incidents", h.Ingest)
}

// guard rejects requests that miss the shared secret or exceed the
// ingestion rate.
func (h *Handler) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.secret != "" {
			provided := r.Header.Get(ingestionSecretHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
				metrics.WebhookIngestions.WithLabelValues(metrics.IngestionRejected).Inc()
				httputil.Error(w, http.StatusUnauthorized, "invalid ingestion secret")
				return
			}
		}
		if !h.limiter.Allow() {
			metrics.WebhookIngestions.WithLabelValues(metrics.IngestionRejected).Inc()
			httputil.Error(w, http.StatusTooManyRequests, "ingestion rate exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ReportRequest represents an incoming third-party incident report.
type ReportRequest struct {
	ExternalID    string   `json:"externalId" validate:"required,min=1,max=200"`
	Title         string   `json:"title" validate:"required,min=1,max=500"`
	Description   *string  `json:"description"`
	SeverityLevel *string  `json:"severityLevel" validate:"omitempty,oneof=SEV0 SEV1 SEV1A SEV2 SEV3"`
	FaultReported *string  `json:"faultReported"`
	CustomerID    *string  `json:"customerId" validate:"omitempty,uuid4"`
	SiteID        *string  `json:"siteId" validate:"omitempty,uuid4"`
	ChargerIDs    []string `json:"chargerIds" validate:"omitempty,dive,uuid4"`
	Tags          []string `json:"tags" validate:"omitempty,dive,min=1,max=100"`
}

// ToInput converts the request to a service input.
func (r *ReportRequest) ToInput() ReportInput {
	input := ReportInput{
		ExternalID:    r.ExternalID,
		Title:         r.Title,
		Description:   r.Description,
		FaultReported: r.FaultReported,
		CustomerID:    r.CustomerID,
		SiteID:        r.SiteID,
		ChargerIDs:    r.ChargerIDs,
		Tags:          r.Tags,
	}
	if r.SeverityLevel != nil {
		severity := domain.SeverityLevel(*r.SeverityLevel)
		input.SeverityLevel = &severity
	}
	return input
}

// Ingest handles POST /webhooks/incidents.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.WebhookIngestions.WithLabelValues(metrics.IngestionRejected).Inc()
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		metrics.WebhookIngestions.WithLabelValues(metrics.IngestionRejected).Inc()
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.Ingest(r.Context(), req.ToInput())
	if err != nil {
		var dup *DuplicateError
		if errors.As(err, &dup) {
			metrics.WebhookIngestions.WithLabelValues(metrics.IngestionDuplicate).Inc()
			httputil.JSON(w, http.StatusConflict, map[string]interface{}{
				"error":      map[string]string{"message": "incident already exists for external id"},
				"incidentId": dup.IncidentID,
			})
			return
		}
		metrics.WebhookIngestions.WithLabelValues(metrics.IngestionRejected).Inc()
		httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
			{Error: incidents.ErrCustomerNotFound, Status: http.StatusBadRequest},
			{Error: incidents.ErrSiteNotFound, Status: http.StatusBadRequest},
			{Error: incidents.ErrInvalidChargerReference, Status: http.StatusBadRequest},
		})
		return
	}

	metrics.WebhookIngestions.WithLabelValues(metrics.IngestionAccepted).Inc()
	httputil.JSON(w, http.StatusCreated, incident)
}
