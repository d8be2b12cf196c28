package dto

// TierDTO carries one pricing tier in its raw form shape. All numeric fields
// stay strings so the gateway applies the same lenient normalization the
// legacy console did; Enabled is a pointer because a missing value means on.
type TierDTO struct {
	MinBound      string `json:"min_bound"`
	MaxBound      string `json:"max_bound"`
	PerUnitCharge string `json:"per_unit_charge"`
	MinCharge     string `json:"min_charge"`
	MaxCharge     string `json:"max_charge"`
	Enabled       *bool  `json:"enabled"`
}

// StrategyDTO is one toggleable tiered strategy of a save request.
type StrategyDTO struct {
	Enabled bool      `json:"enabled"`
	Tiers   []TierDTO `json:"tiers"`
}

// SaveChargeRouteRequest is the create/update body accepted by the gateway.
type SaveChargeRouteRequest struct {
	ZoneName       string      `json:"zone_name" validate:"required"`
	FromPoint      string      `json:"from_point" validate:"required"`
	ToPoint        string      `json:"to_point" validate:"required"`
	VendorID       *int64      `json:"vendor_id"`
	Status         string      `json:"status" validate:"omitempty,oneof=Active Inactive"`
	Currency       string      `json:"currency"`
	FlatBaseCharge string      `json:"flat_base_charge" validate:"required"`
	FlatEnabled    *bool       `json:"flat_enabled"`
	Weight         StrategyDTO `json:"weight"`
	Distance       StrategyDTO `json:"distance"`
	Cube           StrategyDTO `json:"cube"`
}

// ChargeRouteItem is one row of the directory table.
type ChargeRouteItem struct {
	ID             int64   `json:"id"`
	ZoneName       string  `json:"zone_name"`
	FromPoint      string  `json:"from_point"`
	ToPoint        string  `json:"to_point"`
	VendorID       *int64  `json:"vendor_id,omitempty"`
	Status         string  `json:"status"`
	Currency       string  `json:"currency"`
	FlatBaseCharge float64 `json:"flat_base_charge"`
	WeightTiers    int     `json:"weight_tiers"`
	DistanceTiers  int     `json:"distance_tiers"`
	CubeTiers      int     `json:"cube_tiers"`
}

type ListChargeRoutesResponse struct {
	Message string            `json:"message"`
	Search  string            `json:"search,omitempty"`
	Routes  []ChargeRouteItem `json:"routes"`
}

// ChargeRouteForm is the edit-hydration shape: a single charge route mapped
// back into raw form values.
type ChargeRouteForm struct {
	ID             *int64      `json:"id"`
	ZoneName       string      `json:"zone_name"`
	FromPoint      string      `json:"from_point"`
	ToPoint        string      `json:"to_point"`
	VendorID       *int64      `json:"vendor_id"`
	Status         string      `json:"status"`
	Currency       string      `json:"currency"`
	FlatBaseCharge string      `json:"flat_base_charge"`
	FlatEnabled    bool        `json:"flat_enabled"`
	Weight         StrategyDTO `json:"weight"`
	Distance       StrategyDTO `json:"distance"`
	Cube           StrategyDTO `json:"cube"`
}

type GetChargeRouteResponse struct {
	Message string          `json:"message"`
	Route   ChargeRouteForm `json:"route"`
}

// MutateChargeRouteResponse is returned by create, update, and delete. The
// directory is reloaded after every mutation; StaleList reports a reload
// failure after the mutation itself succeeded upstream.
type MutateChargeRouteResponse struct {
	Message   string            `json:"message"`
	Routes    []ChargeRouteItem `json:"routes"`
	StaleList bool              `json:"stale_list,omitempty"`
}
