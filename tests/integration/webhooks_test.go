//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwatch/toc-portal/internal/domain"
	"github.com/gridwatch/toc-portal/internal/testutil"
)

func webhookClient(t *testing.T) *testutil.Client {
	t.Helper()
	client := newTestClient(t)
	client.Headers["X-Ingestion-Secret"] = testIngestionSecret
	return client
}

func TestWebhookIngestion(t *testing.T) {
	client := webhookClient(t)
	externalID := "ext-" + uuid.NewString()

	resp, err := client.POST("/webhooks/incidents", map[string]interface{}{
		"externalId":    externalID,
		"title":         "Charger unreachable",
		"severityLevel": "SEV2",
		"tags":          []string{"ocpp"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var incident domain.Incident
	testutil.DecodeJSON(t, resp, &incident)
	assert.Equal(t, domain.SourceImported, incident.Source)
	assert.Contains(t, incident.Tags, "ocpp")
	assert.Contains(t, incident.Tags, "externalId:"+externalID)

	// The creation marker carries the system author.
	require.Len(t, incident.Timeline, 1)
	require.NotNil(t, incident.Timeline[0].AuthorID)
	assert.Equal(t, "system", *incident.Timeline[0].AuthorID)
}

func TestWebhookIngestionDeduplicates(t *testing.T) {
	client := webhookClient(t)
	externalID := "ext-" + uuid.NewString()

	report := map[string]interface{}{
		"externalId": externalID,
		"title":      "Charger unreachable",
	}

	resp, err := client.POST("/webhooks/incidents", report)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created domain.Incident
	testutil.DecodeJSON(t, resp, &created)

	resp, err = client.POST("/webhooks/incidents", report)
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var conflict struct {
		IncidentID string `json:"incidentId"`
	}
	testutil.DecodeJSON(t, resp, &conflict)
	assert.Equal(t, created.ID, conflict.IncidentID)
}

func TestWebhookIngestionDistinctExternalIDs(t *testing.T) {
	client := webhookClient(t)

	for i := 0; i < 2; i++ {
		resp, err := client.POST("/webhooks/incidents", map[string]interface{}{
			"externalId": "ext-" + uuid.NewString(),
			"title":      "Charger unreachable",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()
	}
}

func TestWebhookRequiresSecret(t *testing.T) {
	client := newTestClientWithoutValidation()

	resp, err := client.POST("/webhooks/incidents", map[string]interface{}{
		"externalId": "ext-" + uuid.NewString(),
		"title":      "no secret",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	client.Headers["X-Ingestion-Secret"] = "wrong"
	resp, err = client.POST("/webhooks/incidents", map[string]interface{}{
		"externalId": "ext-" + uuid.NewString(),
		"title":      "wrong secret",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestWebhookValidatesReport(t *testing.T) {
	client := newTestClientWithoutValidation()
	client.Headers["X-Ingestion-Secret"] = testIngestionSecret

	resp, err := client.POST("/webhooks/incidents", map[string]interface{}{
		"title": "missing external id",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}
