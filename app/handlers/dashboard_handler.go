package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/quickship/charge-console/app/dto"
	"github.com/quickship/charge-console/app/services"
	businessflow "github.com/quickship/charge-console/business_flow"
)

// DashboardHandlerInterface defines the delivery summary endpoint.
type DashboardHandlerInterface interface {
	GetDeliverySummary(c fiber.Ctx) error
}

// DashboardHandler implements the delivery summary endpoint.
type DashboardHandler struct {
	flow businessflow.DashboardFlow
}

func NewDashboardHandler(flow businessflow.DashboardFlow) DashboardHandlerInterface {
	return &DashboardHandler{flow: flow}
}

func (h *DashboardHandler) ErrorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

func (h *DashboardHandler) SuccessResponse(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// GetDeliverySummary returns the aggregate delivery counts.
func (h *DashboardHandler) GetDeliverySummary(c fiber.Ctx) error {
	res, err := h.flow.GetDeliverySummary(h.createRequestContext(c))
	if err != nil {
		if errors.Is(err, services.ErrSessionExpired) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Backend session expired", "SESSION_EXPIRED", nil)
		}
		log.Println("Delivery summary failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Delivery summary failed", "DELIVERY_DASHBOARD_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Delivery summary retrieved", res)
}

func (h *DashboardHandler) createRequestContext(c fiber.Ctx) context.Context {
	return createRequestContextWithTimeout(c, "/api/v1/delivery-dashboard", 30*time.Second)
}
