package dto

// DeliveryDashboardResponse carries the aggregate counts shown on the
// delivery summary view.
type DeliveryDashboardResponse struct {
	Message        string `json:"message"`
	ProductCharges int64  `json:"product_charges"`
	ZoneRoutes     int64  `json:"zone_routes"`
	WeightCharges  int64  `json:"weight_charges"`
}
