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

// RouteCatalogHandlerInterface defines the read-only reference catalog endpoints.
type RouteCatalogHandlerInterface interface {
	ListRouteCatalog(c fiber.Ctx) error
	ListRoutePoints(c fiber.Ctx) error
}

// RouteCatalogHandler implements the read-only reference catalog endpoints.
type RouteCatalogHandler struct {
	flow businessflow.RouteResolverFlow
}

func NewRouteCatalogHandler(flow businessflow.RouteResolverFlow) RouteCatalogHandlerInterface {
	return &RouteCatalogHandler{flow: flow}
}

func (h *RouteCatalogHandler) ErrorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

func (h *RouteCatalogHandler) SuccessResponse(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// ListRouteCatalog returns the reference route catalog for the zone dropdown.
func (h *RouteCatalogHandler) ListRouteCatalog(c fiber.Ctx) error {
	res, err := h.flow.ListRouteCatalog(h.createRequestContext(c))
	if err != nil {
		if errors.Is(err, services.ErrSessionExpired) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Backend session expired", "SESSION_EXPIRED", nil)
		}
		log.Println("List route catalog failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "List route catalog failed", "ROUTE_CATALOG_LOAD_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Route catalog retrieved", res)
}

// ListRoutePoints returns the selectable points of one catalog route.
func (h *RouteCatalogHandler) ListRoutePoints(c fiber.Ctx) error {
	routeName := c.Query("route")
	if routeName == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Route name is required", "ROUTE_NAME_REQUIRED", nil)
	}
	res, err := h.flow.ListRoutePoints(h.createRequestContext(c), routeName)
	if err != nil {
		if businessflow.IsRouteNotInCatalog(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Route not found in the reference catalog", "ROUTE_NOT_IN_CATALOG", nil)
		}
		if errors.Is(err, services.ErrSessionExpired) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Backend session expired", "SESSION_EXPIRED", nil)
		}
		log.Println("List route points failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "List route points failed", "ROUTE_POINTS_LOAD_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Route points retrieved", res)
}

func (h *RouteCatalogHandler) createRequestContext(c fiber.Ctx) context.Context {
	return createRequestContextWithTimeout(c, "/api/v1/route-catalog", 30*time.Second)
}
