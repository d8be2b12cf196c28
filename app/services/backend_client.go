package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/quickship/charge-console/models"
)

// ErrSessionExpired is returned when the backend rejects the stored token.
// The session callbacks fire before this error reaches the caller.
var ErrSessionExpired = errors.New("backend session expired")

var (
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Total number of requests issued to the marketplace backend",
		},
		[]string{"endpoint", "status"},
	)

	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Marketplace backend request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

// APIError is a structured backend rejection: the envelope message plus the
// per-field validation map from `data`.
type APIError struct {
	StatusCode  int
	Message     string
	FieldErrors map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// FlattenFields concatenates the field error map into one readable message,
// falling back to the envelope message when the backend sent no field detail.
func (e *APIError) FlattenFields() string {
	if len(e.FieldErrors) == 0 {
		return e.Error()
	}
	fields := make([]string, 0, len(e.FieldErrors))
	for f := range e.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.FieldErrors[f], ", "))
	}
	return strings.Join(parts, "; ")
}

// IsValidationError reports whether the backend rejected the request with a 4xx.
func (e *APIError) IsValidationError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// DeliveryDashboard carries the aggregate counts of the delivery dashboard endpoint.
type DeliveryDashboard struct {
	ProductCharges int64 `json:"product_charges"`
	ZoneRoutes     int64 `json:"zone_routes"`
	WeightCharges  int64 `json:"weight_charges"`
}

// MarketplaceClient is the typed client for the remote marketplace backend.
// Every call attaches the session token; any 401 outside the password-reset
// flow expires the session before the error is returned.
type MarketplaceClient interface {
	GetRouteCatalog(ctx context.Context) ([]models.ReferenceRoute, error)
	ListChargeRoutes(ctx context.Context, search string) ([]models.ChargeRouteRecord, error)
	GetChargeRoute(ctx context.Context, id int64) (*models.ChargeRouteRecord, error)
	CreateChargeRoute(ctx context.Context, payload models.ChargeRoutePayload) error
	UpdateChargeRoute(ctx context.Context, id int64, payload models.ChargeRoutePayload) error
	DeleteChargeRoute(ctx context.Context, id int64) error
	GetDeliveryDashboard(ctx context.Context) (*DeliveryDashboard, error)
	ResetAdminPassword(ctx context.Context, currentPassword, newPassword string) error
}

type marketplaceClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Session    SessionService
	Timeout    time.Duration
}

// NewMarketplaceClient creates a backend client bound to the given session.
func NewMarketplaceClient(baseURL string, session SessionService, timeout time.Duration) MarketplaceClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &marketplaceClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Session:    session,
		Timeout:    timeout,
	}
}

// The route catalog arrives in a paginated envelope; the console reads one page.
type routeCatalogEnvelope struct {
	Data struct {
		Data []models.ReferenceRoute `json:"data"`
	} `json:"data"`
}

func (c *marketplaceClient) GetRouteCatalog(ctx context.Context) ([]models.ReferenceRoute, error) {
	var env routeCatalogEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/route", nil, &env, false); err != nil {
		return nil, err
	}
	return env.Data.Data, nil
}

type chargeRouteListEnvelope struct {
	Data struct {
		Routes []models.ChargeRouteRecord `json:"routes"`
	} `json:"data"`
}

func (c *marketplaceClient) ListChargeRoutes(ctx context.Context, search string) ([]models.ChargeRouteRecord, error) {
	path := "/delivery-charge-routes"
	if strings.TrimSpace(search) != "" {
		path += "?search=" + url.QueryEscape(search)
	}
	var env chargeRouteListEnvelope
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &env, false); err != nil {
		return nil, err
	}
	return env.Data.Routes, nil
}

type chargeRouteEnvelope struct {
	Data models.ChargeRouteRecord `json:"data"`
}

func (c *marketplaceClient) GetChargeRoute(ctx context.Context, id int64) (*models.ChargeRouteRecord, error) {
	var env chargeRouteEnvelope
	path := "/delivery-charge-routes/" + strconv.FormatInt(id, 10)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &env, false); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *marketplaceClient) CreateChargeRoute(ctx context.Context, payload models.ChargeRoutePayload) error {
	return c.doJSON(ctx, http.MethodPost, "/delivery-charge-routes", payload, nil, false)
}

func (c *marketplaceClient) UpdateChargeRoute(ctx context.Context, id int64, payload models.ChargeRoutePayload) error {
	path := "/delivery-charge-routes/" + strconv.FormatInt(id, 10)
	return c.doJSON(ctx, http.MethodPut, path, payload, nil, false)
}

func (c *marketplaceClient) DeleteChargeRoute(ctx context.Context, id int64) error {
	path := "/delivery-charge-routes/" + strconv.FormatInt(id, 10)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, false)
}

type dashboardEnvelope struct {
	Data DeliveryDashboard `json:"data"`
}

func (c *marketplaceClient) GetDeliveryDashboard(ctx context.Context) (*DeliveryDashboard, error) {
	var env dashboardEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/delivery-dashboard", nil, &env, false); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

type resetPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ResetAdminPassword is the one endpoint where a 401 must not expire the
// session: a wrong current password is an input error, not a dead token.
func (c *marketplaceClient) ResetAdminPassword(ctx context.Context, currentPassword, newPassword string) error {
	body := resetPasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword}
	return c.doJSON(ctx, http.MethodPost, "/admin/reset-password", body, nil, true)
}

// Backend error envelope: {message, data: {field: [messages]}}
type errorEnvelope struct {
	Message string              `json:"message"`
	Data    map[string][]string `json:"data"`
}

func (c *marketplaceClient) doJSON(ctx context.Context, method, path string, payload, out any, skipSessionExpiry bool) error {
	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t := c.Session.Token(); t != "" {
		req.Header.Set("token", t)
	}

	endpoint := metricEndpoint(path)
	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		backendRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return err
	}
	defer resp.Body.Close()
	backendRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	backendRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusUnauthorized && !skipSessionExpiry {
		c.Session.Expire()
		return ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var env errorEnvelope
		if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr == nil {
			apiErr.Message = env.Message
			apiErr.FieldErrors = env.Data
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// metricEndpoint strips IDs and query strings to keep label cardinality low.
func metricEndpoint(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if _, err := strconv.ParseInt(p, 10, 64); err == nil && p != "" {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
