// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/arvand/waitline/app/dto"
	businessflow "github.com/arvand/waitline/business_flow"
	"github.com/arvand/waitline/utils"
	"github.com/gofiber/fiber/v3"
)

// operatorID extracts the authenticated operator id set by the auth middleware
func operatorID(c fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("operator_id").(uint)
	return id, ok
}

// clientMetadata builds flow metadata from the request
func clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if requestID := c.Get("X-Request-ID"); requestID != "" {
		metadata.SetRequestID(requestID)
	}
	return metadata
}

func createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}

func errorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func successResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// flowErrorResponse maps flow errors to HTTP statuses. Not-found and access
// errors keep their own codes; a serving conflict carries the blocking ticket
// in the error details.
func flowErrorResponse(c fiber.Ctx, err error, fallbackCode, fallbackMessage string) error {
	switch {
	case businessflow.IsQueueNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Queue not found", "QUEUE_NOT_FOUND", nil)
	case businessflow.IsTicketNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Ticket not found", "TICKET_NOT_FOUND", nil)
	case businessflow.IsQueueAccessDenied(err):
		return errorResponse(c, fiber.StatusForbidden, "You can only manage your own queues", "QUEUE_ACCESS_DENIED", nil)
	case businessflow.IsQueueInactive(err):
		return errorResponse(c, fiber.StatusBadRequest, "Queue is inactive", "QUEUE_INACTIVE", nil)
	case businessflow.IsQueueNameTaken(err):
		return errorResponse(c, fiber.StatusConflict, "A queue with this name already exists", "QUEUE_NAME_TAKEN", nil)
	case businessflow.IsServingConflict(err):
		var conflict *businessflow.ServingConflictError
		if errors.As(err, &conflict) && conflict.ServingTicket != nil {
			serving := businessflow.ToTicketDTO(*conflict.ServingTicket)
			return errorResponse(c, fiber.StatusConflict, "Another ticket is being served", "SERVING_CONFLICT", serving)
		}
		return errorResponse(c, fiber.StatusConflict, "Another ticket is being served", "SERVING_CONFLICT", nil)
	case businessflow.IsIllegalTransition(err):
		return errorResponse(c, fiber.StatusBadRequest, err.Error(), "ILLEGAL_TRANSITION", nil)
	case businessflow.IsInvalidPeriod(err):
		return errorResponse(c, fiber.StatusBadRequest, err.Error(), "INVALID_PERIOD", nil)
	case businessflow.IsInvariantViolation(err):
		return errorResponse(c, fiber.StatusInternalServerError, "Internal state error", "INVARIANT_VIOLATION", nil)
	}
	var be *businessflow.BusinessError
	if errors.As(err, &be) {
		switch be.Code {
		case "INVALID_NAME", "INVALID_DESCRIPTION", "INVALID_CUSTOMER_NAME":
			return errorResponse(c, fiber.StatusBadRequest, be.Message, be.Code, nil)
		}
	}
	return errorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
}
