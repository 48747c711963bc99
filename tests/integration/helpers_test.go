//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gridwatch/toc-portal/internal/domain"
	"github.com/gridwatch/toc-portal/internal/testutil"
)

// signToken mints an HS256 token the way the external identity provider
// does, with the role carried in user_metadata.
func signToken(t *testing.T, userID string, role domain.Role) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
		"user_metadata": map[string]interface{}{
			"role": string(role),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func viewerClient(t *testing.T) *testutil.Client {
	t.Helper()
	return newTestClient(t).WithToken(signToken(t, uuid.NewString(), domain.RoleViewer))
}

func editorClient(t *testing.T) *testutil.Client {
	t.Helper()
	return newTestClient(t).WithToken(signToken(t, uuid.NewString(), domain.RoleEditor))
}

func adminClient(t *testing.T) *testutil.Client {
	t.Helper()
	return newTestClient(t).WithToken(signToken(t, uuid.NewString(), domain.RoleAdmin))
}

// createCustomer inserts a customer row and returns its id.
func createCustomer(t *testing.T, name string) string {
	t.Helper()
	var id string
	err := testDB.QueryRow(context.Background(),
		`INSERT INTO customers (name) VALUES ($1) RETURNING id`, name,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// createSite inserts a site row and returns its id.
func createSite(t *testing.T, name, customerID string) string {
	t.Helper()
	var id string
	err := testDB.QueryRow(context.Background(),
		`INSERT INTO sites (name, customer_id) VALUES ($1, $2) RETURNING id`, name, customerID,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// createCharger inserts a charger row and returns its id.
func createCharger(t *testing.T, identifier, siteID string) string {
	t.Helper()
	var id string
	err := testDB.QueryRow(context.Background(),
		`INSERT INTO chargers (identifier, site_id) VALUES ($1, $2) RETURNING id`, identifier, siteID,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// createIncident creates an incident via the API and returns it decoded.
func createIncident(t *testing.T, client *testutil.Client, body map[string]interface{}) domain.Incident {
	t.Helper()

	resp, err := client.POST("/api/incidents", body)
	require.NoError(t, err)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create incident: status=%d body=%s", resp.StatusCode, testutil.ReadBody(t, resp))
	}

	var incident domain.Incident
	testutil.DecodeJSON(t, resp, &incident)
	return incident
}
