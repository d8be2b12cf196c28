package businessflow

import (
	"context"

	"github.com/quickship/charge-console/app/dto"
	"github.com/quickship/charge-console/app/services"
)

// DashboardFlow serves the delivery summary counts.
type DashboardFlow interface {
	GetDeliverySummary(ctx context.Context) (*dto.DeliveryDashboardResponse, error)
}

type DashboardFlowImpl struct {
	client services.MarketplaceClient
}

func NewDashboardFlow(client services.MarketplaceClient) DashboardFlow {
	return &DashboardFlowImpl{client: client}
}

func (f *DashboardFlowImpl) GetDeliverySummary(ctx context.Context) (*dto.DeliveryDashboardResponse, error) {
	summary, err := f.client.GetDeliveryDashboard(ctx)
	if err != nil {
		return nil, NewBusinessError("DELIVERY_DASHBOARD_FAILED", "Failed to load delivery dashboard", err)
	}
	return &dto.DeliveryDashboardResponse{
		Message:        "Delivery dashboard retrieved successfully",
		ProductCharges: summary.ProductCharges,
		ZoneRoutes:     summary.ZoneRoutes,
		WeightCharges:  summary.WeightCharges,
	}, nil
}
