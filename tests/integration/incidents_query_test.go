//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwatch/toc-portal/internal/domain"
	"github.com/gridwatch/toc-portal/internal/testutil"
)

func listIncidents(t *testing.T, client *testutil.Client, query string) []domain.Incident {
	t.Helper()
	resp, err := client.GET("/api/incidents" + query)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var incidents []domain.Incident
	testutil.DecodeJSON(t, resp, &incidents)
	return incidents
}

func TestIncidentListFilters(t *testing.T) {
	editor := editorClient(t)

	customerID := createCustomer(t, "Filter Energy")
	siteID := createSite(t, "Filter Depot", customerID)

	createIncident(t, editor, map[string]interface{}{
		"title":         "Filter target",
		"source":        "MANUAL",
		"severityLevel": "SEV0",
		"priority":      "CRITICAL",
		"customerId":    customerID,
		"siteId":        siteID,
		"tags":          []string{"filter-a", "filter-b"},
	})
	createIncident(t, editor, map[string]interface{}{
		"title":         "Filter bystander",
		"source":        "MANUAL",
		"severityLevel": "SEV3",
		"priority":      "LOW",
		"tags":          []string{"filter-c"},
	})

	incidents := listIncidents(t, editor, "?customerId="+customerID)
	require.Len(t, incidents, 1)
	assert.Equal(t, "Filter target", incidents[0].Title)

	incidents = listIncidents(t, editor, "?severityLevel=SEV0&customerId="+customerID)
	require.Len(t, incidents, 1)

	// has-some semantics: any of the requested tags matches.
	incidents = listIncidents(t, editor, "?tags=filter-b,unknown-tag")
	require.Len(t, incidents, 1)
	assert.Equal(t, "Filter target", incidents[0].Title)
}

func TestIncidentListSortAndPagination(t *testing.T) {
	editor := editorClient(t)

	customerID := createCustomer(t, "Sort Energy")
	for _, title := range []string{"sort-a", "sort-b", "sort-c"} {
		createIncident(t, editor, map[string]interface{}{
			"title":      title,
			"source":     "MANUAL",
			"customerId": customerID,
		})
	}

	incidents := listIncidents(t, editor, "?customerId="+customerID+"&sortBy=title&sortOrder=asc")
	require.Len(t, incidents, 3)
	assert.Equal(t, "sort-a", incidents[0].Title)
	assert.Equal(t, "sort-c", incidents[2].Title)

	incidents = listIncidents(t, editor, "?customerId="+customerID+"&sortBy=title&sortOrder=asc&limit=2&offset=1")
	require.Len(t, incidents, 2)
	assert.Equal(t, "sort-b", incidents[0].Title)
}

func TestIncidentListRejectsUnknownSortField(t *testing.T) {
	client := newTestClientWithoutValidation().WithToken(signToken(t, "00000000-0000-4000-8000-000000000002", domain.RoleViewer))

	resp, err := client.GET("/api/incidents?sortBy=payload")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.GET("/api/incidents?status=ARCHIVED")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestIncidentSearchReachesLedgerComments(t *testing.T) {
	editor := editorClient(t)

	incident := createIncident(t, editor, map[string]interface{}{
		"title":  "Search anchor",
		"source": "MANUAL",
	})

	resp, err := editor.POST("/api/incidents/"+incident.ID+"/comment", map[string]interface{}{
		"text": "replaced the zebra relay",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	incidents := listIncidents(t, editor, "?search=zebra+relay")
	require.Len(t, incidents, 1)
	assert.Equal(t, incident.ID, incidents[0].ID)
}
