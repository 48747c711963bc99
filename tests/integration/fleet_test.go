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

func TestFleetListings(t *testing.T) {
	viewer := viewerClient(t)

	customerID := createCustomer(t, "Fleet Listing Energy")
	siteID := createSite(t, "Fleet Listing Depot", customerID)
	chargerID := createCharger(t, "CHG-FL-01", siteID)

	resp, err := viewer.GET("/api/customers")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var customers []domain.Customer
	testutil.DecodeJSON(t, resp, &customers)
	require.NotEmpty(t, customers)

	resp, err = viewer.GET("/api/customers/" + customerID + "/sites")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sites []domain.Site
	testutil.DecodeJSON(t, resp, &sites)
	require.Len(t, sites, 1)
	assert.Equal(t, siteID, sites[0].ID)

	resp, err = viewer.GET("/api/sites/" + siteID + "/chargers")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var chargers []domain.Charger
	testutil.DecodeJSON(t, resp, &chargers)
	require.Len(t, chargers, 1)
	assert.Equal(t, chargerID, chargers[0].ID)
	assert.Equal(t, "CHG-FL-01", chargers[0].Identifier)
}

func TestFleetSiteListingsIncludeCustomer(t *testing.T) {
	viewer := viewerClient(t)

	customerID := createCustomer(t, "Fleet Join Energy")
	siteID := createSite(t, "Fleet Join Depot", customerID)

	resp, err := viewer.GET("/api/sites")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sites []domain.Site
	testutil.DecodeJSON(t, resp, &sites)

	var found *domain.Site
	for i := range sites {
		if sites[i].ID == siteID {
			found = &sites[i]
			break
		}
	}
	require.NotNil(t, found)
	require.NotNil(t, found.Customer)
	assert.Equal(t, "Fleet Join Energy", found.Customer.Name)
}
