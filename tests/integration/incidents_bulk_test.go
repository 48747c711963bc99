//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwatch/toc-portal/internal/domain"
	"github.com/gridwatch/toc-portal/internal/incidents"
	"github.com/gridwatch/toc-portal/internal/testutil"
)

func TestBulkClosePartialSuccess(t *testing.T) {
	editor := editorClient(t)

	a := createIncident(t, editor, map[string]interface{}{"title": "bulk-close-a", "source": "MANUAL"})
	b := createIncident(t, editor, map[string]interface{}{"title": "bulk-close-b", "source": "MANUAL"})
	missing := uuid.NewString()

	resp, err := editor.POST("/api/incidents/bulk", map[string]interface{}{
		"ids":    []string{a.ID, b.ID, missing},
		"action": "close",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result incidents.BulkResult
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, int64(2), result.Count)

	fetchResp, err := editor.GET("/api/incidents/" + a.ID)
	require.NoError(t, err)
	var fetched domain.Incident
	testutil.DecodeJSON(t, fetchResp, &fetched)
	assert.Equal(t, domain.IncidentStatusResolved, fetched.Status)
}

func TestBulkAssign(t *testing.T) {
	editor := editorClient(t)

	a := createIncident(t, editor, map[string]interface{}{"title": "bulk-assign-a", "source": "MANUAL"})
	assignee := uuid.NewString()

	resp, err := editor.POST("/api/incidents/bulk", map[string]interface{}{
		"ids":          []string{a.ID},
		"action":       "assign",
		"assignedToId": assignee,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result incidents.BulkResult
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, int64(1), result.Count)

	fetchResp, err := editor.GET("/api/incidents/" + a.ID)
	require.NoError(t, err)
	var fetched domain.Incident
	testutil.DecodeJSON(t, fetchResp, &fetched)
	require.NotNil(t, fetched.AssignedToID)
	assert.Equal(t, assignee, *fetched.AssignedToID)
}

func TestBulkAssignRequiresAssignee(t *testing.T) {
	editor := editorClient(t)
	a := createIncident(t, editor, map[string]interface{}{"title": "bulk-assign-missing", "source": "MANUAL"})

	client := newTestClientWithoutValidation().WithToken(signToken(t, uuid.NewString(), domain.RoleEditor))
	resp, err := client.POST("/api/incidents/bulk", map[string]interface{}{
		"ids":    []string{a.ID},
		"action": "assign",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestBulkTagUnion(t *testing.T) {
	editor := editorClient(t)

	a := createIncident(t, editor, map[string]interface{}{
		"title":  "bulk-tag-a",
		"source": "MANUAL",
		"tags":   []string{"a", "b"},
	})

	resp, err := editor.POST("/api/incidents/bulk", map[string]interface{}{
		"ids":    []string{a.ID},
		"action": "tag",
		"tags":   []string{"b", "c"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	fetchResp, err := editor.GET("/api/incidents/" + a.ID)
	require.NoError(t, err)
	var fetched domain.Incident
	testutil.DecodeJSON(t, fetchResp, &fetched)
	assert.Equal(t, []string{"a", "b", "c"}, fetched.Tags)
}

func TestBulkTagMissingIDFailsFast(t *testing.T) {
	editor := editorClient(t)
	a := createIncident(t, editor, map[string]interface{}{"title": "bulk-tag-fail", "source": "MANUAL"})

	client := newTestClientWithoutValidation().WithToken(signToken(t, uuid.NewString(), domain.RoleEditor))
	resp, err := client.POST("/api/incidents/bulk", map[string]interface{}{
		"ids":    []string{a.ID, uuid.NewString()},
		"action": "tag",
		"tags":   []string{"stray"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	// The resolvable target was tagged before the failure.
	fetchResp, err := editor.GET("/api/incidents/" + a.ID)
	require.NoError(t, err)
	var fetched domain.Incident
	testutil.DecodeJSON(t, fetchResp, &fetched)
	assert.Contains(t, fetched.Tags, "stray")
}
