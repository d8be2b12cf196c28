package businessflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quickship/charge-console/app/dto"
	"github.com/quickship/charge-console/app/services"
	"github.com/quickship/charge-console/models"
	"github.com/quickship/charge-console/repository"
	"github.com/quickship/charge-console/utils"
	"github.com/xuri/excelize/v2"
)

// ChargeRouteFlow defines the directory operations over delivery charge routes.
type ChargeRouteFlow interface {
	ListChargeRoutes(ctx context.Context, search string) (*dto.ListChargeRoutesResponse, error)
	SearchChargeRoutes(ctx context.Context, term string) (*dto.ListChargeRoutesResponse, error)
	GetChargeRoute(ctx context.Context, id int64) (*dto.GetChargeRouteResponse, error)
	CreateChargeRoute(ctx context.Context, req *dto.SaveChargeRouteRequest, search string, meta *ClientMetadata) (*dto.MutateChargeRouteResponse, error)
	UpdateChargeRoute(ctx context.Context, id int64, req *dto.SaveChargeRouteRequest, search string, meta *ClientMetadata) (*dto.MutateChargeRouteResponse, error)
	DeleteChargeRoute(ctx context.Context, id int64, confirmed bool, search string, meta *ClientMetadata) (*dto.MutateChargeRouteResponse, error)
	ExportChargeRoutes(ctx context.Context, search string, meta *ClientMetadata) ([]byte, string, error)
}

type ChargeRouteFlowImpl struct {
	client    services.MarketplaceClient
	auditRepo repository.AuditEntryRepository
	search    *searchSequencer
}

func NewChargeRouteFlow(client services.MarketplaceClient, auditRepo repository.AuditEntryRepository, searchDebounce time.Duration) ChargeRouteFlow {
	return &ChargeRouteFlowImpl{
		client:    client,
		auditRepo: auditRepo,
		search:    newSearchSequencer(searchDebounce),
	}
}

// ListChargeRoutes fetches the directory, filtered server-side by the search term.
func (f *ChargeRouteFlowImpl) ListChargeRoutes(ctx context.Context, search string) (*dto.ListChargeRoutesResponse, error) {
	records, err := f.client.ListChargeRoutes(ctx, search)
	if err != nil {
		return nil, f.wrapBackendError("CHARGE_ROUTE_LIST_FAILED", "Failed to list delivery charge routes", err)
	}
	items := make([]dto.ChargeRouteItem, 0, len(records))
	for _, rec := range records {
		items = append(items, ToChargeRouteItem(rec))
	}
	return &dto.ListChargeRoutesResponse{
		Message: "Delivery charge routes retrieved successfully",
		Search:  search,
		Routes:  items,
	}, nil
}

// SearchChargeRoutes is the type-ahead variant of ListChargeRoutes. Each call
// supersedes any still-pending one: the attempt waits out the debounce
// window, bails if a newer keystroke arrived meanwhile, and discards its own
// result if it was overtaken while the backend call was in flight.
func (f *ChargeRouteFlowImpl) SearchChargeRoutes(ctx context.Context, term string) (*dto.ListChargeRoutesResponse, error) {
	seq := f.search.Begin()
	if delay := f.search.Delay(); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !f.search.Latest(seq) {
		return nil, ErrSearchSuperseded
	}
	res, err := f.ListChargeRoutes(ctx, term)
	if err != nil {
		return nil, err
	}
	if !f.search.Latest(seq) {
		return nil, ErrSearchSuperseded
	}
	return res, nil
}

// GetChargeRoute fetches one aggregate and maps it into the edit form shape.
func (f *ChargeRouteFlowImpl) GetChargeRoute(ctx context.Context, id int64) (*dto.GetChargeRouteResponse, error) {
	rec, err := f.client.GetChargeRoute(ctx, id)
	if err != nil {
		var apiErr *services.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return nil, NewBusinessError("CHARGE_ROUTE_NOT_FOUND", "Delivery charge route not found", ErrChargeRouteNotFound)
		}
		return nil, f.wrapBackendError("CHARGE_ROUTE_FETCH_FAILED", "Failed to fetch delivery charge route", err)
	}
	return &dto.GetChargeRouteResponse{
		Message: "Delivery charge route retrieved successfully",
		Route:   ToChargeRouteForm(models.FromAPIResponse(*rec)),
	}, nil
}

// CreateChargeRoute validates the request, submits it, audits the attempt,
// and reloads the directory at the caller's current search term.
func (f *ChargeRouteFlowImpl) CreateChargeRoute(ctx context.Context, req *dto.SaveChargeRouteRequest, search string, meta *ClientMetadata) (*dto.MutateChargeRouteResponse, error) {
	if err := validateSaveRequest(req); err != nil {
		return nil, err
	}
	payload := buildPayload(nil, req)

	if err := f.client.CreateChargeRoute(ctx, payload); err != nil {
		f.recordAudit(ctx, models.AuditActionChargeRouteCreateFailed, &payload.ZoneName, nil, nil, meta, err)
		return nil, f.wrapBackendError("CHARGE_ROUTE_CREATE_FAILED", "Failed to create delivery charge route", err)
	}
	f.recordAudit(ctx, models.AuditActionChargeRouteCreated, &payload.ZoneName, nil, nil, meta, nil)

	return f.reloadAfterMutation(ctx, "Delivery charge route created successfully", search)
}

// UpdateChargeRoute validates and submits an update, recording which fields
// changed relative to the currently persisted record.
func (f *ChargeRouteFlowImpl) UpdateChargeRoute(ctx context.Context, id int64, req *dto.SaveChargeRouteRequest, search string, meta *ClientMetadata) (*dto.MutateChargeRouteResponse, error) {
	if err := validateSaveRequest(req); err != nil {
		return nil, err
	}
	payload := buildPayload(&id, req)

	var changed []string
	if existing, err := f.client.GetChargeRoute(ctx, id); err == nil {
		changed = diffPayload(*existing, payload)
	}

	if err := f.client.UpdateChargeRoute(ctx, id, payload); err != nil {
		f.recordAudit(ctx, models.AuditActionChargeRouteUpdateFailed, &payload.ZoneName, &id, changed, meta, err)
		return nil, f.wrapBackendError("CHARGE_ROUTE_UPDATE_FAILED", "Failed to update delivery charge route", err)
	}
	f.recordAudit(ctx, models.AuditActionChargeRouteUpdated, &payload.ZoneName, &id, changed, meta, nil)

	return f.reloadAfterMutation(ctx, "Delivery charge route updated successfully", search)
}

// DeleteChargeRoute removes an aggregate. The confirmation gate is absolute:
// without it no DELETE ever reaches the backend.
func (f *ChargeRouteFlowImpl) DeleteChargeRoute(ctx context.Context, id int64, confirmed bool, search string, meta *ClientMetadata) (*dto.MutateChargeRouteResponse, error) {
	if !confirmed {
		return nil, NewBusinessError("CHARGE_ROUTE_DELETE_NOT_CONFIRMED", "Delete requires explicit confirmation", ErrDeleteNotConfirmed)
	}
	if err := f.client.DeleteChargeRoute(ctx, id); err != nil {
		f.recordAudit(ctx, models.AuditActionChargeRouteDeleteFailed, nil, &id, nil, meta, err)
		return nil, f.wrapBackendError("CHARGE_ROUTE_DELETE_FAILED", "Failed to delete delivery charge route", err)
	}
	f.recordAudit(ctx, models.AuditActionChargeRouteDeleted, nil, &id, nil, meta, nil)

	return f.reloadAfterMutation(ctx, "Delivery charge route deleted successfully", search)
}

// ExportChargeRoutes renders the current directory view as an XLSX workbook.
func (f *ChargeRouteFlowImpl) ExportChargeRoutes(ctx context.Context, search string, meta *ClientMetadata) ([]byte, string, error) {
	res, err := f.ListChargeRoutes(ctx, search)
	if err != nil {
		return nil, "", err
	}

	wb := excelize.NewFile()
	defer wb.Close()
	const sheet = "Charge Routes"
	wb.SetSheetName(wb.GetSheetName(0), sheet)

	headers := []string{"ID", "Zone", "Start Point", "End Point", "Vendor ID", "Status", "Currency", "Flat Base Charge", "Weight Tiers", "Distance Tiers", "Cube Tiers"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := wb.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", err
		}
	}
	for row, item := range res.Routes {
		vendor := ""
		if item.VendorID != nil {
			vendor = fmt.Sprintf("%d", *item.VendorID)
		}
		values := []any{item.ID, item.ZoneName, item.FromPoint, item.ToPoint, vendor, item.Status, item.Currency, item.FlatBaseCharge, item.WeightTiers, item.DistanceTiers, item.CubeTiers}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := wb.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", err
			}
		}
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		return nil, "", err
	}
	f.recordAudit(ctx, models.AuditActionDirectoryExported, nil, nil, nil, meta, nil)

	filename := "delivery-charge-routes-" + utils.UTCNowFormat("20060102-150405") + ".xlsx"
	return buf.Bytes(), filename, nil
}

// reloadAfterMutation refreshes the directory after a successful mutation.
// A failed reload does not undo anything upstream; the caller gets the
// mutation result with a stale-list marker instead of an error.
func (f *ChargeRouteFlowImpl) reloadAfterMutation(ctx context.Context, message, search string) (*dto.MutateChargeRouteResponse, error) {
	res, err := f.ListChargeRoutes(ctx, search)
	if err != nil {
		log.Println("Directory reload after mutation failed:", err)
		return &dto.MutateChargeRouteResponse{
			Message:   message + " (directory reload failed, the list may be stale)",
			Routes:    []dto.ChargeRouteItem{},
			StaleList: true,
		}, nil
	}
	return &dto.MutateChargeRouteResponse{
		Message: message,
		Routes:  res.Routes,
	}, nil
}

// validateSaveRequest applies the hard pre-submission gates. Tier-level bound
// ordering is deliberately left to the backend; the legacy console never
// checked it either.
func validateSaveRequest(req *dto.SaveChargeRouteRequest) error {
	if strings.TrimSpace(req.ZoneName) == "" {
		return NewBusinessError("CHARGE_ROUTE_ZONE_REQUIRED", "Zone name is required", ErrZoneNameRequired)
	}
	if strings.TrimSpace(req.FromPoint) == "" {
		return NewBusinessError("CHARGE_ROUTE_FROM_POINT_REQUIRED", "Start point is required", ErrFromPointRequired)
	}
	if strings.TrimSpace(req.ToPoint) == "" {
		return NewBusinessError("CHARGE_ROUTE_TO_POINT_REQUIRED", "End point is required", ErrToPointRequired)
	}
	if req.FromPoint == req.ToPoint {
		return NewBusinessError("CHARGE_ROUTE_POINTS_NOT_DISTINCT", "Start and end point must be distinct", ErrPointsNotDistinct)
	}
	if strings.TrimSpace(req.FlatBaseCharge) == "" {
		return NewBusinessError("CHARGE_ROUTE_FLAT_CHARGE_REQUIRED", "Flat base charge is required", ErrFlatBaseChargeRequired)
	}
	agg := toAggregate(nil, req)
	if agg.Pricing.BuildPayload().FlatBaseCharge < 0 {
		return NewBusinessError("CHARGE_ROUTE_FLAT_CHARGE_NEGATIVE", "Flat base charge must be zero or greater", ErrFlatBaseChargeNegative)
	}
	return nil
}

func buildPayload(id *int64, req *dto.SaveChargeRouteRequest) models.ChargeRoutePayload {
	route := toAggregate(id, req)
	return route.ToAPIPayload()
}

// diffPayload names the top-level fields whose submitted values differ from
// the persisted record, for the audit trail.
func diffPayload(existing models.ChargeRouteRecord, payload models.ChargeRoutePayload) []string {
	var changed []string
	if existing.ZoneName != payload.ZoneName {
		changed = append(changed, "zone_name")
	}
	if existing.FromPoint != payload.FromPoint {
		changed = append(changed, "from_point")
	}
	if existing.ToPoint != payload.ToPoint {
		changed = append(changed, "to_point")
	}
	if !int64PtrEqual(existing.VendorID, payload.VendorID) {
		changed = append(changed, "vendor_id")
	}
	if existing.Status != payload.Status {
		changed = append(changed, "status")
	}
	if existing.Currency != payload.Currency {
		changed = append(changed, "currency")
	}
	if existing.FlatBaseCharge != payload.FlatBaseCharge {
		changed = append(changed, "flat_base_charge")
	}
	if len(existing.WeightRanges) != len(payload.WeightRanges) {
		changed = append(changed, "weight_ranges")
	}
	if len(existing.DistanceRanges) != len(payload.DistanceRanges) {
		changed = append(changed, "distance_ranges")
	}
	if len(existing.CubeRanges) != len(payload.CubeRanges) {
		changed = append(changed, "cube_ranges")
	}
	return changed
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (f *ChargeRouteFlowImpl) wrapBackendError(code, message string, err error) error {
	if errors.Is(err, services.ErrSessionExpired) {
		return err
	}
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && apiErr.IsValidationError() {
		return NewBusinessError(code, apiErr.FlattenFields(), err)
	}
	return NewBusinessError(code, message, err)
}

// recordAudit persists an audit entry for a mutation attempt. Audit failures
// are logged, never surfaced; the mutation outcome stands on its own.
func (f *ChargeRouteFlowImpl) recordAudit(ctx context.Context, action string, zone *string, target *int64, changed []string, meta *ClientMetadata, opErr error) {
	if f.auditRepo == nil {
		return
	}
	entry := &models.AuditEntry{
		Action:        action,
		ZoneName:      zone,
		TargetID:      target,
		ChangedFields: changed,
		Success:       utils.ToPtr(opErr == nil),
		CreatedAt:     utils.UTCNow(),
	}
	if opErr != nil {
		entry.ErrorMessage = utils.ToPtr(opErr.Error())
	}
	requestID := uuid.New().String()
	if meta != nil {
		if meta.RequestID != "" {
			requestID = meta.RequestID
		}
		if raw, err := json.Marshal(meta); err == nil {
			entry.Metadata = raw
		}
	}
	entry.RequestID = &requestID

	if err := f.auditRepo.Save(ctx, entry); err != nil {
		log.Println("Failed to record audit entry:", err)
	}
}
