// Package businessflow contains the business logic for the charge console.
package businessflow

import (
	"github.com/quickship/charge-console/app/dto"
	"github.com/quickship/charge-console/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds the caller information recorded on audit entries.
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToChargeRouteItem maps a backend record to a directory table row.
func ToChargeRouteItem(rec models.ChargeRouteRecord) dto.ChargeRouteItem {
	return dto.ChargeRouteItem{
		ID:             rec.ID,
		ZoneName:       rec.ZoneName,
		FromPoint:      rec.FromPoint,
		ToPoint:        rec.ToPoint,
		VendorID:       rec.VendorID,
		Status:         rec.Status,
		Currency:       rec.Currency,
		FlatBaseCharge: rec.FlatBaseCharge,
		WeightTiers:    len(rec.WeightRanges),
		DistanceTiers:  len(rec.DistanceRanges),
		CubeTiers:      len(rec.CubeRanges),
	}
}

// ToChargeRouteForm maps an aggregate into the raw form shape for edit hydration.
func ToChargeRouteForm(route models.DeliveryChargeRoute) dto.ChargeRouteForm {
	return dto.ChargeRouteForm{
		ID:             route.ID,
		ZoneName:       route.ZoneName,
		FromPoint:      route.FromPoint,
		ToPoint:        route.ToPoint,
		VendorID:       route.VendorID,
		Status:         route.Status,
		Currency:       route.Currency,
		FlatBaseCharge: route.Pricing.FlatBaseCharge,
		FlatEnabled:    route.Pricing.FlatEnabled,
		Weight:         toStrategyDTO(route.Pricing.Strategy(models.StrategyWeight)),
		Distance:       toStrategyDTO(route.Pricing.Strategy(models.StrategyDistance)),
		Cube:           toStrategyDTO(route.Pricing.Strategy(models.StrategyCube)),
	}
}

func toStrategyDTO(s models.Strategy) dto.StrategyDTO {
	tiers := make([]dto.TierDTO, 0, len(s.Tiers()))
	for _, t := range s.Tiers() {
		enabled := t.Enabled
		tiers = append(tiers, dto.TierDTO{
			MinBound:      t.MinBound,
			MaxBound:      t.MaxBound,
			PerUnitCharge: t.PerUnitCharge,
			MinCharge:     t.MinCharge,
			MaxCharge:     t.MaxCharge,
			Enabled:       &enabled,
		})
	}
	return dto.StrategyDTO{Enabled: s.Enabled(), Tiers: tiers}
}

// toAggregate maps a save request into the editable aggregate. Raw values
// pass through untouched; normalization happens at payload build.
func toAggregate(id *int64, req *dto.SaveChargeRouteRequest) models.DeliveryChargeRoute {
	route := models.NewDeliveryChargeRoute()
	route.ID = id
	route.ZoneName = req.ZoneName
	route.FromPoint = req.FromPoint
	route.ToPoint = req.ToPoint
	route.VendorID = req.VendorID
	if req.Status != "" {
		route.Status = req.Status
	}
	if req.Currency != "" {
		route.Currency = req.Currency
	}
	route.Pricing.FlatBaseCharge = req.FlatBaseCharge
	route.Pricing.FlatEnabled = req.FlatEnabled == nil || *req.FlatEnabled
	route.Pricing.SetStrategy(models.StrategyWeight, fromStrategyDTO(req.Weight))
	route.Pricing.SetStrategy(models.StrategyDistance, fromStrategyDTO(req.Distance))
	route.Pricing.SetStrategy(models.StrategyCube, fromStrategyDTO(req.Cube))
	return route
}

func fromStrategyDTO(s dto.StrategyDTO) models.Strategy {
	tiers := make([]models.RawTier, 0, len(s.Tiers))
	for _, t := range s.Tiers {
		tiers = append(tiers, models.RawTier{
			MinBound:      t.MinBound,
			MaxBound:      t.MaxBound,
			PerUnitCharge: t.PerUnitCharge,
			MinCharge:     t.MinCharge,
			MaxCharge:     t.MaxCharge,
			Enabled:       t.Enabled == nil || *t.Enabled,
		})
	}
	if s.Enabled {
		return models.EnabledStrategy(tiers)
	}
	return models.DisabledStrategy(tiers)
}
