package models

// Charge route status values as exchanged with the backend.
const (
	ChargeRouteStatusActive   = "Active"
	ChargeRouteStatusInactive = "Inactive"
)

// DefaultCurrency is applied when a route is created without an explicit currency.
const DefaultCurrency = "USD"

// DeliveryChargeRoute is the editable aggregate: a named zone with start and
// end points, an optional vendor scope, and a pricing strategy set.
//
// ZoneName links to the reference route catalog by plain string, not by
// foreign key. A charge route therefore survives renames or deletions of the
// reference route it was created from; the backend contract relies on this.
type DeliveryChargeRoute struct {
	ID        *int64
	ZoneName  string
	FromPoint string
	ToPoint   string
	VendorID  *int64
	Status    string
	Currency  string
	Pricing   PricingStrategySet
}

// NewDeliveryChargeRoute returns the default create-form state.
func NewDeliveryChargeRoute() DeliveryChargeRoute {
	return DeliveryChargeRoute{
		Status:   ChargeRouteStatusActive,
		Currency: DefaultCurrency,
		Pricing:  NewPricingStrategySet(),
	}
}

// ChargeRoutePayload is the create/update request body sent to the backend.
type ChargeRoutePayload struct {
	ZoneName  string `json:"zone_name"`
	FromPoint string `json:"from_point"`
	ToPoint   string `json:"to_point"`
	VendorID  *int64 `json:"vendor_id"`
	Status    string `json:"status"`
	Currency  string `json:"currency"`
	PricingPayload
}

// ToAPIPayload serializes the aggregate into the backend contract.
func (r *DeliveryChargeRoute) ToAPIPayload() ChargeRoutePayload {
	currency := r.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	return ChargeRoutePayload{
		ZoneName:       r.ZoneName,
		FromPoint:      r.FromPoint,
		ToPoint:        r.ToPoint,
		VendorID:       r.VendorID,
		Status:         r.Status,
		Currency:       currency,
		PricingPayload: r.Pricing.BuildPayload(),
	}
}

// TierRecord is a tier as returned by the backend. Enabled is a pointer
// because older records omit it; a missing value means the tier is on.
type TierRecord struct {
	MinBound      float64  `json:"min_bound"`
	MaxBound      float64  `json:"max_bound"`
	PerUnitCharge float64  `json:"per_unit_charge"`
	MinCharge     *float64 `json:"min_charge"`
	MaxCharge     *float64 `json:"max_charge"`
	Enabled       *bool    `json:"enabled"`
}

// ChargeRouteRecord is a charge route as returned by the backend list and
// single-fetch endpoints.
type ChargeRouteRecord struct {
	ID             int64        `json:"id"`
	ZoneName       string       `json:"zone_name"`
	FromPoint      string       `json:"from_point"`
	ToPoint        string       `json:"to_point"`
	VendorID       *int64       `json:"vendor_id"`
	Status         string       `json:"status"`
	Currency       string       `json:"currency"`
	FlatBaseCharge float64      `json:"flat_base_charge"`
	FlatEnabled    *bool        `json:"flat_enabled"`
	WeightRanges   []TierRecord `json:"weight_ranges"`
	DistanceRanges []TierRecord `json:"distance_ranges"`
	CubeRanges     []TierRecord `json:"cube_ranges"`
}

// FromAPIResponse maps a backend record into the editable form shape for the
// edit-mode hydration path. Numeric values become strings so the editor
// round-trips them unchanged, and strategies with no persisted tiers hydrate
// disabled with one default tier retained.
func FromAPIResponse(rec ChargeRouteRecord) DeliveryChargeRoute {
	id := rec.ID
	currency := rec.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	pricing := PricingStrategySet{
		FlatBaseCharge: formatAmount(rec.FlatBaseCharge),
		FlatEnabled:    rec.FlatEnabled == nil || *rec.FlatEnabled,
		weight:         hydrateStrategy(rec.WeightRanges),
		distance:       hydrateStrategy(rec.DistanceRanges),
		cube:           hydrateStrategy(rec.CubeRanges),
	}
	return DeliveryChargeRoute{
		ID:        &id,
		ZoneName:  rec.ZoneName,
		FromPoint: rec.FromPoint,
		ToPoint:   rec.ToPoint,
		VendorID:  rec.VendorID,
		Status:    rec.Status,
		Currency:  currency,
		Pricing:   pricing,
	}
}

func hydrateStrategy(records []TierRecord) Strategy {
	if len(records) == 0 {
		return DisabledStrategy([]RawTier{NewRawTier()})
	}
	tiers := make([]RawTier, 0, len(records))
	for _, rec := range records {
		tiers = append(tiers, RawTier{
			MinBound:      formatAmount(rec.MinBound),
			MaxBound:      formatAmount(rec.MaxBound),
			PerUnitCharge: formatAmount(rec.PerUnitCharge),
			MinCharge:     formatClamp(rec.MinCharge),
			MaxCharge:     formatClamp(rec.MaxCharge),
			Enabled:       rec.Enabled == nil || *rec.Enabled,
		})
	}
	return EnabledStrategy(tiers)
}
