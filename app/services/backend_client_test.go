package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quickship/charge-console/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (MarketplaceClient, SessionService, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	session := NewSessionService("test-token")
	return NewMarketplaceClient(srv.URL, session, 5*time.Second), session, srv
}

func TestGetRouteCatalogUnwrapsEnvelope(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/route", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("token"))

		// The catalog arrives double-nested in a pagination envelope.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data": []map[string]any{
					{"id": 1, "name": "Coastal Corridor", "locations": []map[string]any{
						{"id": 1, "name": "Harbor Terminal"},
					}},
				},
			},
		})
	}))

	routes, err := client.GetRouteCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "Coastal Corridor", routes[0].Name)
	require.Len(t, routes[0].Locations, 1)
	assert.Equal(t, "Harbor Terminal", routes[0].Locations[0].Name)
}

func TestListChargeRoutesSearchParam(t *testing.T) {
	var gotQuery string
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"routes": []map[string]any{
					{"id": 7, "zone_name": "Coastal Corridor"},
				},
			},
		})
	}))

	records, err := client.ListChargeRoutes(context.Background(), "coastal south")
	require.NoError(t, err)
	assert.Equal(t, "coastal south", gotQuery)
	require.Len(t, records, 1)
	assert.Equal(t, int64(7), records[0].ID)
}

func TestCreateChargeRouteSendsPayload(t *testing.T) {
	var body map[string]any
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/delivery-charge-routes", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
	}))

	route := models.NewDeliveryChargeRoute()
	route.ZoneName = "Coastal Corridor"
	route.FromPoint = "Harbor Terminal"
	route.ToPoint = "North Depot"

	err := client.CreateChargeRoute(context.Background(), route.ToAPIPayload())
	require.NoError(t, err)
	assert.Equal(t, "Coastal Corridor", body["zone_name"])
	assert.Equal(t, []any{}, body["weight_ranges"], "disabled strategies serialize as empty arrays")
}

func TestUnauthorizedExpiresSession(t *testing.T) {
	client, session, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	expired := false
	session.OnExpired(func() { expired = true })

	_, err := client.ListChargeRoutes(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.True(t, expired, "a 401 fires the session expiry callbacks")
	assert.Empty(t, session.Token())
}

func TestResetAdminPasswordSkipsSessionExpiry(t *testing.T) {
	client, session, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/reset-password", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "current password is wrong"})
	}))

	expired := false
	session.OnExpired(func() { expired = true })

	err := client.ResetAdminPassword(context.Background(), "wrong", "newpass")
	require.Error(t, err)

	// A wrong current password is an input error, not a dead token.
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.False(t, expired)
	assert.Equal(t, "test-token", session.Token())
}

func TestErrorEnvelopeFieldErrors(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "validation failed",
			"data": map[string]any{
				"zone_name":        []string{"already exists"},
				"flat_base_charge": []string{"must be positive", "required"},
			},
		})
	}))

	err := client.DeleteChargeRoute(context.Background(), 3)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsValidationError())
	assert.Equal(t, "validation failed", apiErr.Message)
	assert.Equal(t,
		"flat_base_charge: must be positive, required; zone_name: already exists",
		apiErr.FlattenFields())
}

func TestAPIErrorFlattenFallsBackToMessage(t *testing.T) {
	apiErr := &APIError{StatusCode: 502, Message: "bad gateway"}
	assert.Equal(t, "bad gateway", apiErr.FlattenFields())
	assert.False(t, apiErr.IsValidationError())

	blank := &APIError{StatusCode: 500}
	assert.Equal(t, "backend returned status 500", blank.Error())
}

func TestGetDeliveryDashboard(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/delivery-dashboard", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"product_charges": 10,
				"zone_routes":     3,
				"weight_charges":  6,
			},
		})
	}))

	summary, err := client.GetDeliveryDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), summary.ProductCharges)
	assert.Equal(t, int64(3), summary.ZoneRoutes)
	assert.Equal(t, int64(6), summary.WeightCharges)
}

func TestMetricEndpointStripsIDs(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/delivery-charge-routes", "/delivery-charge-routes"},
		{"/delivery-charge-routes/42", "/delivery-charge-routes/:id"},
		{"/delivery-charge-routes?search=x", "/delivery-charge-routes"},
		{"/route", "/route"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, metricEndpoint(tt.path))
	}
}
