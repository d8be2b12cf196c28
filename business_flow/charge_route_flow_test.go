package businessflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/quickship/charge-console/app/dto"
	"github.com/quickship/charge-console/app/services"
	"github.com/quickship/charge-console/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMarketplaceClient implements services.MarketplaceClient with
// per-method hooks so each test scripts exactly the backend it needs.
type fakeMarketplaceClient struct {
	mu sync.Mutex

	catalogFn   func(ctx context.Context) ([]models.ReferenceRoute, error)
	listFn      func(ctx context.Context, search string) ([]models.ChargeRouteRecord, error)
	getFn       func(ctx context.Context, id int64) (*models.ChargeRouteRecord, error)
	createFn    func(ctx context.Context, payload models.ChargeRoutePayload) error
	updateFn    func(ctx context.Context, id int64, payload models.ChargeRoutePayload) error
	deleteFn    func(ctx context.Context, id int64) error
	dashboardFn func(ctx context.Context) (*services.DeliveryDashboard, error)

	listCalls   int
	createCalls int
	updateCalls int
	deleteCalls int
}

func (f *fakeMarketplaceClient) GetRouteCatalog(ctx context.Context) ([]models.ReferenceRoute, error) {
	if f.catalogFn != nil {
		return f.catalogFn(ctx)
	}
	return nil, nil
}

func (f *fakeMarketplaceClient) ListChargeRoutes(ctx context.Context, search string) ([]models.ChargeRouteRecord, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	if f.listFn != nil {
		return f.listFn(ctx, search)
	}
	return nil, nil
}

func (f *fakeMarketplaceClient) GetChargeRoute(ctx context.Context, id int64) (*models.ChargeRouteRecord, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return nil, &services.APIError{StatusCode: 404}
}

func (f *fakeMarketplaceClient) CreateChargeRoute(ctx context.Context, payload models.ChargeRoutePayload) error {
	f.mu.Lock()
	f.createCalls++
	f.mu.Unlock()
	if f.createFn != nil {
		return f.createFn(ctx, payload)
	}
	return nil
}

func (f *fakeMarketplaceClient) UpdateChargeRoute(ctx context.Context, id int64, payload models.ChargeRoutePayload) error {
	f.mu.Lock()
	f.updateCalls++
	f.mu.Unlock()
	if f.updateFn != nil {
		return f.updateFn(ctx, id, payload)
	}
	return nil
}

func (f *fakeMarketplaceClient) DeleteChargeRoute(ctx context.Context, id int64) error {
	f.mu.Lock()
	f.deleteCalls++
	f.mu.Unlock()
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func (f *fakeMarketplaceClient) GetDeliveryDashboard(ctx context.Context) (*services.DeliveryDashboard, error) {
	if f.dashboardFn != nil {
		return f.dashboardFn(ctx)
	}
	return &services.DeliveryDashboard{}, nil
}

func (f *fakeMarketplaceClient) ResetAdminPassword(ctx context.Context, currentPassword, newPassword string) error {
	return nil
}

// fakeAuditRepo captures audit entries in memory.
type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*models.AuditEntry
}

func (r *fakeAuditRepo) ByID(ctx context.Context, id uint) (*models.AuditEntry, error) {
	return nil, nil
}

func (r *fakeAuditRepo) Save(ctx context.Context, entity *models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entity)
	return nil
}

func (r *fakeAuditRepo) SaveBatch(ctx context.Context, entities []*models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entities...)
	return nil
}

func (r *fakeAuditRepo) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditEntry, error) {
	return nil, nil
}

func (r *fakeAuditRepo) ListByZone(ctx context.Context, zoneName string, limit, offset int) ([]*models.AuditEntry, error) {
	return nil, nil
}

func (r *fakeAuditRepo) ListFailed(ctx context.Context, limit, offset int) ([]*models.AuditEntry, error) {
	return nil, nil
}

func (r *fakeAuditRepo) last() *models.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return nil
	}
	return r.entries[len(r.entries)-1]
}

func validSaveRequest() *dto.SaveChargeRouteRequest {
	return &dto.SaveChargeRouteRequest{
		ZoneName:       "Coastal Corridor",
		FromPoint:      "Harbor Terminal",
		ToPoint:        "North Depot",
		FlatBaseCharge: "12.5",
	}
}

func sampleRecord(id int64, zone string) models.ChargeRouteRecord {
	return models.ChargeRouteRecord{
		ID:             id,
		ZoneName:       zone,
		FromPoint:      "Harbor Terminal",
		ToPoint:        "North Depot",
		Status:         models.ChargeRouteStatusActive,
		Currency:       models.DefaultCurrency,
		FlatBaseCharge: 12.5,
	}
}

func TestCreateChargeRouteValidationGates(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*dto.SaveChargeRouteRequest)
		checkFn func(error) bool
	}{
		{
			name:    "missing zone name",
			mutate:  func(r *dto.SaveChargeRouteRequest) { r.ZoneName = "  " },
			checkFn: IsZoneNameRequired,
		},
		{
			name:    "missing start point",
			mutate:  func(r *dto.SaveChargeRouteRequest) { r.FromPoint = "" },
			checkFn: IsFromPointRequired,
		},
		{
			name:    "missing end point",
			mutate:  func(r *dto.SaveChargeRouteRequest) { r.ToPoint = "" },
			checkFn: IsToPointRequired,
		},
		{
			name:    "identical points",
			mutate:  func(r *dto.SaveChargeRouteRequest) { r.ToPoint = r.FromPoint },
			checkFn: IsPointsNotDistinct,
		},
		{
			name:    "missing flat charge",
			mutate:  func(r *dto.SaveChargeRouteRequest) { r.FlatBaseCharge = "" },
			checkFn: IsFlatBaseChargeRequired,
		},
		{
			name:    "negative flat charge",
			mutate:  func(r *dto.SaveChargeRouteRequest) { r.FlatBaseCharge = "-1" },
			checkFn: IsFlatBaseChargeNegative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeMarketplaceClient{}
			flow := NewChargeRouteFlow(client, nil, 0)

			req := validSaveRequest()
			tt.mutate(req)

			_, err := flow.CreateChargeRoute(context.Background(), req, "", nil)
			require.Error(t, err)
			assert.True(t, tt.checkFn(err))

			// A failed gate never reaches the backend.
			assert.Zero(t, client.createCalls)
			assert.Zero(t, client.listCalls)
		})
	}
}

func TestUpdateChargeRouteValidationGate(t *testing.T) {
	client := &fakeMarketplaceClient{}
	flow := NewChargeRouteFlow(client, nil, 0)

	req := validSaveRequest()
	req.FlatBaseCharge = "-0.01"

	_, err := flow.UpdateChargeRoute(context.Background(), 4, req, "", nil)
	require.Error(t, err)
	assert.True(t, IsFlatBaseChargeNegative(err))

	// The gate runs on the normalized charge, before any backend call.
	assert.Zero(t, client.updateCalls)
	assert.Zero(t, client.listCalls)

	// Unparsable input coerces to zero and clears the gate.
	req.FlatBaseCharge = "abc"
	_, err = flow.UpdateChargeRoute(context.Background(), 4, req, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, client.updateCalls)
}

func TestCreateChargeRouteSuccess(t *testing.T) {
	var captured models.ChargeRoutePayload
	client := &fakeMarketplaceClient{
		createFn: func(ctx context.Context, payload models.ChargeRoutePayload) error {
			captured = payload
			return nil
		},
		listFn: func(ctx context.Context, search string) ([]models.ChargeRouteRecord, error) {
			return []models.ChargeRouteRecord{sampleRecord(1, "Coastal Corridor")}, nil
		},
	}
	audit := &fakeAuditRepo{}
	flow := NewChargeRouteFlow(client, audit, 0)

	req := validSaveRequest()
	req.Weight = dto.StrategyDTO{
		Enabled: true,
		Tiers: []dto.TierDTO{
			{MinBound: "0", MaxBound: "10", PerUnitCharge: "2"},
		},
	}

	res, err := flow.CreateChargeRoute(context.Background(), req, "coastal", NewClientMetadata("10.0.0.1", "test-agent"))
	require.NoError(t, err)

	assert.Equal(t, "Coastal Corridor", captured.ZoneName)
	assert.Equal(t, models.ChargeRouteStatusActive, captured.Status, "status defaults to Active")
	assert.Equal(t, models.DefaultCurrency, captured.Currency)
	assert.Equal(t, 12.5, captured.FlatBaseCharge)
	require.Len(t, captured.WeightRanges, 1)
	assert.Equal(t, 2.0, captured.WeightRanges[0].PerUnitCharge)
	assert.NotNil(t, captured.DistanceRanges)
	assert.Empty(t, captured.DistanceRanges)

	assert.False(t, res.StaleList)
	require.Len(t, res.Routes, 1)

	entry := audit.last()
	require.NotNil(t, entry)
	assert.Equal(t, models.AuditActionChargeRouteCreated, entry.Action)
	assert.False(t, entry.IsFailed())
	require.NotNil(t, entry.ZoneName)
	assert.Equal(t, "Coastal Corridor", *entry.ZoneName)
}

func TestCreateChargeRouteBackendFailureAudited(t *testing.T) {
	client := &fakeMarketplaceClient{
		createFn: func(ctx context.Context, payload models.ChargeRoutePayload) error {
			return &services.APIError{StatusCode: 422, Message: "rejected", FieldErrors: map[string][]string{
				"zone_name": {"already exists"},
			}}
		},
	}
	audit := &fakeAuditRepo{}
	flow := NewChargeRouteFlow(client, audit, 0)

	_, err := flow.CreateChargeRoute(context.Background(), validSaveRequest(), "", nil)
	require.Error(t, err)

	var bizErr *BusinessError
	require.ErrorAs(t, err, &bizErr)
	assert.Equal(t, "CHARGE_ROUTE_CREATE_FAILED", bizErr.Code)
	assert.Equal(t, "zone_name: already exists", bizErr.Message)

	entry := audit.last()
	require.NotNil(t, entry)
	assert.Equal(t, models.AuditActionChargeRouteCreateFailed, entry.Action)
	assert.True(t, entry.IsFailed())
}

func TestUpdateChargeRouteRecordsChangedFields(t *testing.T) {
	existing := sampleRecord(9, "Old Zone")
	client := &fakeMarketplaceClient{
		getFn: func(ctx context.Context, id int64) (*models.ChargeRouteRecord, error) {
			rec := existing
			return &rec, nil
		},
		listFn: func(ctx context.Context, search string) ([]models.ChargeRouteRecord, error) {
			return nil, nil
		},
	}
	audit := &fakeAuditRepo{}
	flow := NewChargeRouteFlow(client, audit, 0)

	req := validSaveRequest()
	req.ZoneName = "New Zone"
	req.FlatBaseCharge = "99"

	_, err := flow.UpdateChargeRoute(context.Background(), 9, req, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, client.updateCalls)

	entry := audit.last()
	require.NotNil(t, entry)
	assert.Equal(t, models.AuditActionChargeRouteUpdated, entry.Action)
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, int64(9), *entry.TargetID)
	assert.Contains(t, []string(entry.ChangedFields), "zone_name")
	assert.Contains(t, []string(entry.ChangedFields), "flat_base_charge")
	assert.NotContains(t, []string(entry.ChangedFields), "from_point")
}

func TestDeleteChargeRouteRequiresConfirmation(t *testing.T) {
	client := &fakeMarketplaceClient{}
	flow := NewChargeRouteFlow(client, nil, 0)

	_, err := flow.DeleteChargeRoute(context.Background(), 5, false, "", nil)
	require.Error(t, err)
	assert.True(t, IsDeleteNotConfirmed(err))

	// An unconfirmed delete never reaches the backend.
	assert.Zero(t, client.deleteCalls)
}

func TestDeleteChargeRouteConfirmed(t *testing.T) {
	client := &fakeMarketplaceClient{
		listFn: func(ctx context.Context, search string) ([]models.ChargeRouteRecord, error) {
			return nil, nil
		},
	}
	audit := &fakeAuditRepo{}
	flow := NewChargeRouteFlow(client, audit, 0)

	res, err := flow.DeleteChargeRoute(context.Background(), 5, true, "term", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, client.deleteCalls)
	assert.False(t, res.StaleList)

	entry := audit.last()
	require.NotNil(t, entry)
	assert.Equal(t, models.AuditActionChargeRouteDeleted, entry.Action)
}

func TestReloadFailureMarksListStale(t *testing.T) {
	client := &fakeMarketplaceClient{
		listFn: func(ctx context.Context, search string) ([]models.ChargeRouteRecord, error) {
			return nil, errors.New("backend down")
		},
	}
	flow := NewChargeRouteFlow(client, nil, 0)

	res, err := flow.CreateChargeRoute(context.Background(), validSaveRequest(), "", nil)

	// The mutation succeeded upstream; the reload failure must not turn it
	// into an error.
	require.NoError(t, err)
	assert.True(t, res.StaleList)
	assert.Contains(t, res.Message, "created successfully")
	assert.Contains(t, res.Message, "the list may be stale")
	assert.NotNil(t, res.Routes)
	assert.Empty(t, res.Routes)
}

func TestGetChargeRouteNotFound(t *testing.T) {
	client := &fakeMarketplaceClient{
		getFn: func(ctx context.Context, id int64) (*models.ChargeRouteRecord, error) {
			return nil, &services.APIError{StatusCode: 404}
		},
	}
	flow := NewChargeRouteFlow(client, nil, 0)

	_, err := flow.GetChargeRoute(context.Background(), 123)
	require.Error(t, err)
	assert.True(t, IsChargeRouteNotFound(err))
}

func TestGetChargeRouteHydratesForm(t *testing.T) {
	rec := sampleRecord(3, "Coastal Corridor")
	rec.WeightRanges = []models.TierRecord{
		{MinBound: 0, MaxBound: 10, PerUnitCharge: 2.5},
	}
	client := &fakeMarketplaceClient{
		getFn: func(ctx context.Context, id int64) (*models.ChargeRouteRecord, error) {
			return &rec, nil
		},
	}
	flow := NewChargeRouteFlow(client, nil, 0)

	res, err := flow.GetChargeRoute(context.Background(), 3)
	require.NoError(t, err)

	form := res.Route
	require.NotNil(t, form.ID)
	assert.Equal(t, int64(3), *form.ID)
	assert.Equal(t, "12.5", form.FlatBaseCharge)
	assert.True(t, form.Weight.Enabled)
	require.Len(t, form.Weight.Tiers, 1)
	assert.Equal(t, "10", form.Weight.Tiers[0].MaxBound)

	// Absent strategies hydrate disabled with one editable default tier.
	assert.False(t, form.Distance.Enabled)
	require.Len(t, form.Distance.Tiers, 1)
	assert.Equal(t, "0", form.Distance.Tiers[0].MinBound)
}

func TestSessionExpiredPassesThrough(t *testing.T) {
	client := &fakeMarketplaceClient{
		listFn: func(ctx context.Context, search string) ([]models.ChargeRouteRecord, error) {
			return nil, services.ErrSessionExpired
		},
	}
	flow := NewChargeRouteFlow(client, nil, 0)

	_, err := flow.ListChargeRoutes(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrSessionExpired)

	var bizErr *BusinessError
	assert.False(t, errors.As(err, &bizErr), "session expiry must not be wrapped")
}

func TestSearchSupersededDuringDebounce(t *testing.T) {
	client := &fakeMarketplaceClient{
		listFn: func(ctx context.Context, search string) ([]models.ChargeRouteRecord, error) {
			return []models.ChargeRouteRecord{sampleRecord(1, search)}, nil
		},
	}
	flow := NewChargeRouteFlow(client, nil, 80*time.Millisecond)

	firstErr := make(chan error, 1)
	go func() {
		_, err := flow.SearchChargeRoutes(context.Background(), "co")
		firstErr <- err
	}()

	// Let the first attempt enter its debounce window, then supersede it.
	time.Sleep(20 * time.Millisecond)
	res, err := flow.SearchChargeRoutes(context.Background(), "coastal")
	require.NoError(t, err)
	assert.Equal(t, "coastal", res.Search)

	err = <-firstErr
	require.Error(t, err)
	assert.True(t, IsSearchSuperseded(err))
}

func TestSearchStaleResponseDiscarded(t *testing.T) {
	var flow ChargeRouteFlow
	client := &fakeMarketplaceClient{}
	client.listFn = func(ctx context.Context, search string) ([]models.ChargeRouteRecord, error) {
		// A newer keystroke arrives while this response is in flight.
		flow.(*ChargeRouteFlowImpl).search.Begin()
		return []models.ChargeRouteRecord{sampleRecord(1, search)}, nil
	}
	flow = NewChargeRouteFlow(client, nil, 0)

	_, err := flow.SearchChargeRoutes(context.Background(), "harbor")
	require.Error(t, err)
	assert.True(t, IsSearchSuperseded(err))
}

func TestSearchCancelledContext(t *testing.T) {
	client := &fakeMarketplaceClient{}
	flow := NewChargeRouteFlow(client, nil, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := flow.SearchChargeRoutes(ctx, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, client.listCalls)
}

func TestExportChargeRoutes(t *testing.T) {
	client := &fakeMarketplaceClient{
		listFn: func(ctx context.Context, search string) ([]models.ChargeRouteRecord, error) {
			return []models.ChargeRouteRecord{sampleRecord(1, "Coastal Corridor")}, nil
		},
	}
	audit := &fakeAuditRepo{}
	flow := NewChargeRouteFlow(client, audit, 0)

	data, filename, err := flow.ExportChargeRoutes(context.Background(), "", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Contains(t, filename, "delivery-charge-routes-")
	assert.Contains(t, filename, ".xlsx")

	entry := audit.last()
	require.NotNil(t, entry)
	assert.Equal(t, models.AuditActionDirectoryExported, entry.Action)
}

func TestSearchSequencer(t *testing.T) {
	seq := newSearchSequencer(0)

	first := seq.Begin()
	assert.True(t, seq.Latest(first))

	second := seq.Begin()
	assert.False(t, seq.Latest(first))
	assert.True(t, seq.Latest(second))
}
