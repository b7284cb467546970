package handlers

import (
	"github.com/arvand/waitline/app/dto"
	businessflow "github.com/arvand/waitline/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// QueueHandlerInterface defines the contract for queue handlers
type QueueHandlerInterface interface {
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	Stats(c fiber.Ctx) error
}

// QueueHandler handles queue-related HTTP requests
type QueueHandler struct {
	flow      businessflow.QueueFlow
	validator *validator.Validate
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(flow businessflow.QueueFlow) *QueueHandler {
	return &QueueHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *QueueHandler) Create(c fiber.Ctx) error {
	var req dto.CreateQueueRequest
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

	result, err := h.flow.CreateQueue(createRequestContext(c, "/api/v1/queues"), &req, opID, clientMetadata(c))
	if err != nil {
		return flowErrorResponse(c, err, "CREATE_QUEUE_FAILED", "Failed to create queue")
	}

	return successResponse(c, fiber.StatusCreated, "Queue created successfully", result)
}

func (h *QueueHandler) List(c fiber.Ctx) error {
	opID, ok := operatorID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Operator ID not found in context", "MISSING_OPERATOR_ID", nil)
	}

	result, err := h.flow.ListQueues(createRequestContext(c, "/api/v1/queues"), opID, clientMetadata(c))
	if err != nil {
		return flowErrorResponse(c, err, "LIST_QUEUES_FAILED", "Failed to list queues")
	}

	return successResponse(c, fiber.StatusOK, "Queues retrieved successfully", result)
}

func (h *QueueHandler) Get(c fiber.Ctx) error {
	opID, ok := operatorID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Operator ID not found in context", "MISSING_OPERATOR_ID", nil)
	}

	result, err := h.flow.GetQueue(createRequestContext(c, "/api/v1/queues/:uuid"), c.Params("uuid"), opID, clientMetadata(c))
	if err != nil {
		return flowErrorResponse(c, err, "GET_QUEUE_FAILED", "Failed to get queue")
	}

	return successResponse(c, fiber.StatusOK, "Queue retrieved successfully", result)
}

func (h *QueueHandler) Update(c fiber.Ctx) error {
	var req dto.UpdateQueueRequest
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

	result, err := h.flow.UpdateQueue(createRequestContext(c, "/api/v1/queues/:uuid"), c.Params("uuid"), &req, opID, clientMetadata(c))
	if err != nil {
		return flowErrorResponse(c, err, "UPDATE_QUEUE_FAILED", "Failed to update queue")
	}

	return successResponse(c, fiber.StatusOK, "Queue updated successfully", result)
}

func (h *QueueHandler) Delete(c fiber.Ctx) error {
	opID, ok := operatorID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Operator ID not found in context", "MISSING_OPERATOR_ID", nil)
	}

	result, err := h.flow.DeleteQueue(createRequestContext(c, "/api/v1/queues/:uuid"), c.Params("uuid"), opID, clientMetadata(c))
	if err != nil {
		return flowErrorResponse(c, err, "DELETE_QUEUE_FAILED", "Failed to delete queue")
	}

	return successResponse(c, fiber.StatusOK, "Queue deleted successfully", result)
}

func (h *QueueHandler) Stats(c fiber.Ctx) error {
	opID, ok := operatorID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Operator ID not found in context", "MISSING_OPERATOR_ID", nil)
	}

	result, err := h.flow.QueueStats(createRequestContext(c, "/api/v1/queues/:uuid/stats"), c.Params("uuid"), opID, clientMetadata(c))
	if err != nil {
		return flowErrorResponse(c, err, "QUEUE_STATS_FAILED", "Failed to get queue stats")
	}

	return successResponse(c, fiber.StatusOK, "Queue stats retrieved successfully", result)
}
