package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/quickship/charge-console/app/dto"
	"github.com/quickship/charge-console/app/services"
	businessflow "github.com/quickship/charge-console/business_flow"
	"github.com/quickship/charge-console/utils"
)

// ChargeRouteHandlerInterface defines the directory endpoints for delivery charge routes.
type ChargeRouteHandlerInterface interface {
	ListChargeRoutes(c fiber.Ctx) error
	SearchChargeRoutes(c fiber.Ctx) error
	GetChargeRoute(c fiber.Ctx) error
	CreateChargeRoute(c fiber.Ctx) error
	UpdateChargeRoute(c fiber.Ctx) error
	DeleteChargeRoute(c fiber.Ctx) error
	ExportChargeRoutes(c fiber.Ctx) error
}

// ChargeRouteHandler implements the directory endpoints for delivery charge routes.
type ChargeRouteHandler struct {
	flow      businessflow.ChargeRouteFlow
	validator *validator.Validate
}

func NewChargeRouteHandler(flow businessflow.ChargeRouteFlow) ChargeRouteHandlerInterface {
	return &ChargeRouteHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *ChargeRouteHandler) ErrorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

func (h *ChargeRouteHandler) SuccessResponse(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// ListChargeRoutes returns the directory, filtered by the optional search term.
func (h *ChargeRouteHandler) ListChargeRoutes(c fiber.Ctx) error {
	res, err := h.flow.ListChargeRoutes(h.createRequestContext(c, "/api/v1/delivery-charge-routes"), c.Query("search"))
	if err != nil {
		return h.flowErrorResponse(c, err, "CHARGE_ROUTE_LIST_FAILED", "List delivery charge routes failed")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Delivery charge routes retrieved", res)
}

// SearchChargeRoutes is the type-ahead search endpoint. Requests superseded
// by a newer keystroke return a conflict so the caller can drop the result.
func (h *ChargeRouteHandler) SearchChargeRoutes(c fiber.Ctx) error {
	res, err := h.flow.SearchChargeRoutes(h.createRequestContext(c, "/api/v1/delivery-charge-routes/search"), c.Query("term"))
	if err != nil {
		if businessflow.IsSearchSuperseded(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Search superseded by a newer request", "SEARCH_SUPERSEDED", nil)
		}
		return h.flowErrorResponse(c, err, "CHARGE_ROUTE_SEARCH_FAILED", "Search delivery charge routes failed")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Delivery charge routes retrieved", res)
}

// GetChargeRoute returns one charge route mapped into the edit form shape.
func (h *ChargeRouteHandler) GetChargeRoute(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid charge route ID", "INVALID_ID", nil)
	}
	res, err := h.flow.GetChargeRoute(h.createRequestContext(c, "/api/v1/delivery-charge-routes/:id"), id)
	if err != nil {
		if businessflow.IsChargeRouteNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Delivery charge route not found", "CHARGE_ROUTE_NOT_FOUND", nil)
		}
		return h.flowErrorResponse(c, err, "CHARGE_ROUTE_FETCH_FAILED", "Fetch delivery charge route failed")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Delivery charge route retrieved", res)
}

// CreateChargeRoute creates a new charge route and reloads the directory at
// the caller's current search term.
func (h *ChargeRouteHandler) CreateChargeRoute(c fiber.Ctx) error {
	var req dto.SaveChargeRouteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validateRequest(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err)
	}

	res, err := h.flow.CreateChargeRoute(h.createRequestContext(c, "/api/v1/delivery-charge-routes"), &req, c.Query("search"), h.clientMetadata(c))
	if err != nil {
		return h.flowErrorResponse(c, err, "CHARGE_ROUTE_CREATE_FAILED", "Create delivery charge route failed")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Delivery charge route created", res)
}

// UpdateChargeRoute updates an existing charge route.
func (h *ChargeRouteHandler) UpdateChargeRoute(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid charge route ID", "INVALID_ID", nil)
	}
	var req dto.SaveChargeRouteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validateRequest(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err)
	}

	res, err := h.flow.UpdateChargeRoute(h.createRequestContext(c, "/api/v1/delivery-charge-routes/:id"), id, &req, c.Query("search"), h.clientMetadata(c))
	if err != nil {
		return h.flowErrorResponse(c, err, "CHARGE_ROUTE_UPDATE_FAILED", "Update delivery charge route failed")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Delivery charge route updated", res)
}

// DeleteChargeRoute deletes a charge route. The destructive action requires
// confirm=true; without it the backend is never contacted.
func (h *ChargeRouteHandler) DeleteChargeRoute(c fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid charge route ID", "INVALID_ID", nil)
	}
	confirmed := c.Query("confirm") == "true"

	res, err := h.flow.DeleteChargeRoute(h.createRequestContext(c, "/api/v1/delivery-charge-routes/:id"), id, confirmed, c.Query("search"), h.clientMetadata(c))
	if err != nil {
		if businessflow.IsDeleteNotConfirmed(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Delete requires explicit confirmation", "CHARGE_ROUTE_DELETE_NOT_CONFIRMED", nil)
		}
		return h.flowErrorResponse(c, err, "CHARGE_ROUTE_DELETE_FAILED", "Delete delivery charge route failed")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Delivery charge route deleted", res)
}

// ExportChargeRoutes streams the directory as an XLSX workbook.
func (h *ChargeRouteHandler) ExportChargeRoutes(c fiber.Ctx) error {
	data, filename, err := h.flow.ExportChargeRoutes(h.createRequestContext(c, "/api/v1/delivery-charge-routes/export"), c.Query("search"), h.clientMetadata(c))
	if err != nil {
		return h.flowErrorResponse(c, err, "CHARGE_ROUTE_EXPORT_FAILED", "Export delivery charge routes failed")
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

func (h *ChargeRouteHandler) validateRequest(req *dto.SaveChargeRouteRequest) []string {
	if err := h.validator.Struct(req); err != nil {
		var validationErrors []string
		for _, e := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(e))
		}
		return validationErrors
	}
	return nil
}

// flowErrorResponse maps flow errors onto the response taxonomy: expired
// sessions become 401, pre-submission and backend validation failures become
// 400 with the business code, everything else is a 500.
func (h *ChargeRouteHandler) flowErrorResponse(c fiber.Ctx, err error, fallbackCode, fallbackMessage string) error {
	if errors.Is(err, services.ErrSessionExpired) {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Backend session expired", "SESSION_EXPIRED", nil)
	}

	var bizErr *businessflow.BusinessError
	code := fallbackCode
	message := fallbackMessage
	if errors.As(err, &bizErr) {
		code = bizErr.Code
		message = bizErr.Message
	}

	if isSubmissionGateError(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, message, code, nil)
	}

	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		if apiErr.IsValidationError() {
			return h.ErrorResponse(c, fiber.StatusBadRequest, message, code, apiErr.FieldErrors)
		}
		log.Println(fallbackMessage+":", err)
		return h.ErrorResponse(c, fiber.StatusBadGateway, fallbackMessage, code, nil)
	}

	log.Println(fallbackMessage+":", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
}

// isSubmissionGateError reports whether err is one of the pre-submission
// validation gates that never reached the backend.
func isSubmissionGateError(err error) bool {
	return businessflow.IsZoneNameRequired(err) ||
		businessflow.IsFromPointRequired(err) ||
		businessflow.IsToPointRequired(err) ||
		businessflow.IsPointsNotDistinct(err) ||
		businessflow.IsFlatBaseChargeRequired(err) ||
		businessflow.IsFlatBaseChargeNegative(err)
}

func (h *ChargeRouteHandler) clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	meta := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	meta.SetRequestID(c.Get(businessflow.RequestIDKey))
	return meta
}

func parseID(c fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

// createRequestContext mirrors other handlers for request-scoped values
func (h *ChargeRouteHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get(businessflow.RequestIDKey))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
