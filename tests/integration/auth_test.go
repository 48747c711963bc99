//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwatch/toc-portal/internal/domain"
)

func TestAuthRequired(t *testing.T) {
	client := newTestClientWithoutValidation()

	resp, err := client.GET("/api/incidents")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(-time.Hour).Unix(),
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	client := newTestClientWithoutValidation().WithToken(token)
	resp, err := client.GET("/api/incidents")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	client := newTestClientWithoutValidation().WithToken(token)
	resp, err := client.GET("/api/incidents")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestViewerCanReadButNotMutate(t *testing.T) {
	viewer := viewerClient(t)

	resp, err := viewer.GET("/api/incidents")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	raw := newTestClientWithoutValidation().WithToken(signToken(t, uuid.NewString(), domain.RoleViewer))
	resp, err = raw.POST("/api/incidents", map[string]interface{}{
		"title":  "viewer attempt",
		"source": "MANUAL",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestEditorAndAdminCanMutate(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleEditor, domain.RoleAdmin} {
		client := newTestClient(t).WithToken(signToken(t, uuid.NewString(), role))
		incident := createIncident(t, client, map[string]interface{}{
			"title":  "mutation by " + string(role),
			"source": "MANUAL",
		})
		assert.NotEmpty(t, incident.ID)
	}
}

func TestUnknownRoleDefaultsToViewer(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(time.Hour).Unix(),
		"user_metadata": map[string]interface{}{
			"role": "superuser",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	client := newTestClientWithoutValidation().WithToken(token)

	resp, err := client.GET("/api/incidents")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.POST("/api/incidents", map[string]interface{}{
		"title":  "unknown role attempt",
		"source": "MANUAL",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()
}
