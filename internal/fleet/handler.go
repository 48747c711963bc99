package fleet

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gridwatch/toc-portal/internal/pkg/httputil"
)

// Handler handles HTTP requests for fleet reference data.
type Handler struct {
	service *Service
}

// NewHandler creates a new fleet handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers all fleet routes (view capability).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/customers", h.ListCustomers)
	r.Get("/customers/{customerId}/sites", h.ListCustomerSites)
	r.Get("/sites", h.ListSites)
	r.Get("/sites/{siteId}/chargers", h.ListSiteChargers)
	r.Get("/chargers", h.ListChargers)
}

// ListCustomers handles GET /customers.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}
	httputil.JSON(w, http.StatusOK, customers)
}

// ListCustomerSites handles GET /customers/{customerId}/sites.
func (h *Handler) ListCustomerSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.service.ListSitesByCustomer(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}
	httputil.JSON(w, http.StatusOK, sites)
}

// ListSites handles GET /sites.
func (h *Handler) ListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.service.ListSites(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}
	httputil.JSON(w, http.StatusOK, sites)
}

// ListSiteChargers handles GET /sites/{siteId}/chargers.
func (h *Handler) ListSiteChargers(w http.ResponseWriter, r *http.Request) {
	chargers, err := h.service.ListChargersBySite(r.Context(), chi.URLParam(r, "siteId"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}
	httputil.JSON(w, http.StatusOK, chargers)
}

// ListChargers handles GET /chargers.
func (h *Handler) ListChargers(w http.ResponseWriter, r *http.Request) {
	chargers, err := h.service.ListChargers(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}
	httputil.JSON(w, http.StatusOK, chargers)
}
