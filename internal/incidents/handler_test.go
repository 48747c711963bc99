package incidents

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwatch/toc-portal/internal/domain"
)

func newHandlerTestRouter() (*chi.Mux, *fakeRepository) {
	service, repo := newTestService()
	handler := NewHandler(service)
	router := chi.NewRouter()
	handler.RegisterViewerRoutes(router)
	handler.RegisterEditorRoutes(router)
	return router, repo
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Create(t *testing.T) {
	router, _ := newHandlerTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/incidents", map[string]interface{}{
		"title":         "Charger bank offline",
		"source":        "MANUAL",
		"severityLevel": "SEV1",
		"priority":      "CRITICAL",
		"tags":          []string{"grid"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var incident domain.Incident
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &incident))
	assert.NotEmpty(t, incident.ID)
	assert.Equal(t, domain.IncidentStatusOpen, incident.Status)
	assert.Equal(t, []string{"grid"}, incident.Tags)
}

func TestHandler_Create_ValidationErrors(t *testing.T) {
	router, _ := newHandlerTestRouter()

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing title", map[string]interface{}{"source": "MANUAL"}},
		{"missing source", map[string]interface{}{"title": "x"}},
		{"bad source", map[string]interface{}{"title": "x", "source": "EMAIL"}},
		{"bad severity", map[string]interface{}{"title": "x", "source": "MANUAL", "severityLevel": "SEV7"}},
		{"bad customer id", map[string]interface{}{"title": "x", "source": "MANUAL", "customerId": "not-a-uuid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/incidents", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandler_Create_InvalidJSON(t *testing.T) {
	router, _ := newHandlerTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/incidents", bytes.NewReader([]byte("{broken")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Get(t *testing.T) {
	router, repo := newHandlerTestRouter()
	incident := repo.add(&domain.Incident{Title: "found"})

	rec := doJSON(t, router, http.MethodGet, "/incidents/"+incident.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.Incident
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "found", got.Title)
}

func TestHandler_Get_NotFound(t *testing.T) {
	router, _ := newHandlerTestRouter()

	rec := doJSON(t, router, http.MethodGet, "/incidents/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_List_RejectsUnknownSortField(t *testing.T) {
	router, _ := newHandlerTestRouter()

	rec := doJSON(t, router, http.MethodGet, "/incidents?sortBy=secret", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Update(t *testing.T) {
	router, repo := newHandlerTestRouter()
	incident := repo.add(&domain.Incident{Title: "before", Status: domain.IncidentStatusOpen})

	rec := doJSON(t, router, http.MethodPatch, "/incidents/"+incident.ID, map[string]interface{}{
		"title":  "after",
		"status": "RESOLVED",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.Incident
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "after", got.Title)
	assert.Equal(t, domain.IncidentStatusResolved, got.Status)
}

func TestHandler_Update_BadStatus(t *testing.T) {
	router, repo := newHandlerTestRouter()
	incident := repo.add(&domain.Incident{Title: "x"})

	rec := doJSON(t, router, http.MethodPatch, "/incidents/"+incident.ID, map[string]interface{}{
		"status": "CLOSED",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_AddComment(t *testing.T) {
	router, repo := newHandlerTestRouter()
	incident := repo.add(&domain.Incident{Title: "x"})

	rec := doJSON(t, router, http.MethodPost, "/incidents/"+incident.ID+"/comment", map[string]interface{}{
		"text": "replaced the fuse",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var event domain.TimelineEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
	assert.Equal(t, domain.EventTypeComment, event.Type)

	rec = doJSON(t, router, http.MethodPost, "/incidents/"+incident.ID+"/comment", map[string]interface{}{
		"text": "",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_BulkAction(t *testing.T) {
	router, repo := newHandlerTestRouter()
	a := repo.add(&domain.Incident{ID: "0e3a4b7e-9a1c-4f58-b1d2-6c3f5a8e9d01", Title: "a", Status: domain.IncidentStatusOpen})
	missing := "1f4b5c8f-0b2d-4a69-82e3-7d4a6b9fae12"

	rec := doJSON(t, router, http.MethodPost, "/incidents/bulk", map[string]interface{}{
		"ids":    []string{a.ID, missing},
		"action": "close",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result BulkResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, int64(1), result.Count)
	assert.Equal(t, domain.IncidentStatusResolved, repo.incidents[a.ID].Status)
}

func TestHandler_BulkAction_Validation(t *testing.T) {
	router, _ := newHandlerTestRouter()

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"empty ids", map[string]interface{}{"ids": []string{}, "action": "close"}},
		{"unknown action", map[string]interface{}{"ids": []string{"0e3a4b7e-9a1c-4f58-b1d2-6c3f5a8e9d01"}, "action": "archive"}},
		{"non-uuid id", map[string]interface{}{"ids": []string{"nope"}, "action": "close"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/incidents/bulk", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
