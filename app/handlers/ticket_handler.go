package handlers

import (
	"github.com/arvand/waitline/app/dto"
	"github.com/arvand/waitline/app/middleware"
	businessflow "github.com/arvand/waitline/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// TicketHandlerInterface defines the contract for ticket handlers
type TicketHandlerInterface interface {
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	MoveUp(c fiber.Ctx) error
	MoveDown(c fiber.Ctx) error
	Assign(c fiber.Ctx) error
	Complete(c fiber.Ctx) error
	Cancel(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
}

// TicketHandler handles ticket-related HTTP requests
type TicketHandler struct {
	flow      businessflow.TicketFlow
	validator *validator.Validate
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(flow businessflow.TicketFlow) *TicketHandler {
	return &TicketHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *TicketHandler) Create(c fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}

	opID, ok := operatorID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Operator ID not found in context", "MISSING_OPERATOR_ID", nil)
	}

	result, err := h.flow.AddTicket(createRequestContext(c, "/api/v1/tickets"), &req, opID, clientMetadata(c))
	if err != nil {
		return flowErrorResponse(c, err, "CREATE_TICKET_FAILED", "Failed to create ticket")
	}

	middleware.RecordTicketTransition("add")
	return successResponse(c, fiber.StatusCreated, "Ticket created successfully", result)
}

func (h *TicketHandler) List(c fiber.Ctx) error {
	opID, ok := operatorID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Operator ID not found in context", "MISSING_OPERATOR_ID", nil)
	}

	var status *string
	if s := c.Query("status"); s != "" {
		status = &s
	}

	result, err := h.flow.ListTickets(createRequestContext(c, "/api/v1/queues/:uuid/tickets"), c.Params("uuid"), status, opID, clientMetadata(c))
	if err != nil {
		return flowErrorResponse(c, err, "LIST_TICKETS_FAILED", "Failed to list tickets")
	}

	return successResponse(c, fiber.StatusOK, "Tickets retrieved successfully", result)
}

func (h *TicketHandler) MoveUp(c fiber.Ctx) error {
	opID, ok := operatorID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Operator ID not found in context", "MISSING_OPERATOR_ID", nil)
	}

	result, err := h.flow.MoveUp(createRequestContext(c, "/api/v1/tickets/:uuid/move-up"), c.Params("uuid"), opID, clientMetadata(c))
	if err != nil {
		return flowErrorResponse(c, err, "MOVE_TICKET_FAILED", "Failed to move ticket")
	}

	middleware.RecordTicketTransition("move_up")
	return successResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *TicketHandler) MoveDown(c fiber.Ctx) error {
	opID, ok := operatorID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Operator ID not found in context", "MISSING_OPERATOR_ID", nil)
	}

	result, err := h.flow.MoveDown(createRequestContext(c, "/api/v1/tickets/:uuid/move-down"), c.Params("uuid"), opID, clientMetadata(c))
	if err != nil {
		return flowErrorResponse(c, err, "MOVE_TICKET_FAILED", "Failed to move ticket")
	}

	middleware.RecordTicketTransition("move_down")
	return successResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *TicketHandler) Assign(c fiber.Ctx) error {
	opID, ok := operatorID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Operator ID not found in context", "MISSING_OPERATOR_ID", nil)
	}

	result, err := h.flow.AssignTicket(createRequestContext(c, "/api/v1/tickets/:uuid/assign"), c.Params("uuid"), opID, clientMetadata(c))
	if err != nil {
		return flowErrorResponse(c, err, "ASSIGN_TICKET_FAILED", "Failed to assign ticket")
	}

	middleware.RecordTicketTransition("assign")
	return successResponse(c, fiber.StatusOK, "Ticket assigned", result)
}

func (h *TicketHandler) Complete(c fiber.Ctx) error {
	opID, ok := operatorID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Operator ID not found in context", "MISSING_OPERATOR_ID", nil)
	}

	result, err := h.flow.CompleteTicket(createRequestContext(c, "/api/v1/tickets/:uuid/complete"), c.Params("uuid"), opID, clientMetadata(c))
	if err != nil {
		return flowErrorResponse(c, err, "COMPLETE_TICKET_FAILED", "Failed to complete ticket")
	}

	middleware.RecordTicketTransition("complete")
	return successResponse(c, fiber.StatusOK, "Ticket completed", result)
}

func (h *TicketHandler) Cancel(c fiber.Ctx) error {
	opID, ok := operatorID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Operator ID not found in context", "MISSING_OPERATOR_ID", nil)
	}

	result, err := h.flow.CancelTicket(createRequestContext(c, "/api/v1/tickets/:uuid/cancel"), c.Params("uuid"), opID, clientMetadata(c))
	if err != nil {
		return flowErrorResponse(c, err, "CANCEL_TICKET_FAILED", "Failed to cancel ticket")
	}

	middleware.RecordTicketTransition("cancel")
	return successResponse(c, fiber.StatusOK, "Ticket cancelled", result)
}

func (h *TicketHandler) Delete(c fiber.Ctx) error {
	opID, ok := operatorID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Operator ID not found in context", "MISSING_OPERATOR_ID", nil)
	}

	result, err := h.flow.DeleteTicket(createRequestContext(c, "/api/v1/tickets/:uuid"), c.Params("uuid"), opID, clientMetadata(c))
	if err != nil {
		return flowErrorResponse(c, err, "DELETE_TICKET_FAILED", "Failed to delete ticket")
	}

	middleware.RecordTicketTransition("delete")
	return successResponse(c, fiber.StatusOK, "Ticket deleted successfully", result)
}
