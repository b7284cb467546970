package handlers

import (
	"fmt"

	businessflow "github.com/arvand/waitline/business_flow"
	"github.com/arvand/waitline/utils"
	"github.com/gofiber/fiber/v3"
)

// AnalyticsHandlerInterface defines the contract for analytics handlers
type AnalyticsHandlerInterface interface {
	QueueReport(c fiber.Ctx) error
	ExportQueueReport(c fiber.Ctx) error
	Overview(c fiber.Ctx) error
}

// AnalyticsHandler handles analytics-related HTTP requests
type AnalyticsHandler struct {
	flow businessflow.AnalyticsFlow
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(flow businessflow.AnalyticsFlow) *AnalyticsHandler {
	return &AnalyticsHandler{flow: flow}
}

func (h *AnalyticsHandler) QueueReport(c fiber.Ctx) error {
	opID, ok := operatorID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Operator ID not found in context", "MISSING_OPERATOR_ID", nil)
	}

	result, err := h.flow.QueueReport(createRequestContext(c, "/api/v1/analytics/queue/:uuid"), c.Params("uuid"), c.Query("period"), opID, clientMetadata(c))
	if err != nil {
		return flowErrorResponse(c, err, "ANALYTICS_FAILED", "Failed to build analytics report")
	}

	return successResponse(c, fiber.StatusOK, "Analytics retrieved successfully", result)
}

func (h *AnalyticsHandler) ExportQueueReport(c fiber.Ctx) error {
	opID, ok := operatorID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Operator ID not found in context", "MISSING_OPERATOR_ID", nil)
	}

	report, err := h.flow.QueueReport(createRequestContext(c, "/api/v1/analytics/queue/:uuid/export"), c.Params("uuid"), c.Query("period"), opID, clientMetadata(c))
	if err != nil {
		return flowErrorResponse(c, err, "ANALYTICS_FAILED", "Failed to build analytics report")
	}

	buf, err := businessflow.ExportQueueReport(report)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to export report", "EXPORT_FAILED", nil)
	}

	filename := fmt.Sprintf("queue-report-%s-%s.xlsx", report.Period, utils.UTCNow().Format("2006-01-02"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}

func (h *AnalyticsHandler) Overview(c fiber.Ctx) error {
	opID, ok := operatorID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Operator ID not found in context", "MISSING_OPERATOR_ID", nil)
	}

	result, err := h.flow.Overview(createRequestContext(c, "/api/v1/analytics/overview"), opID, clientMetadata(c))
	if err != nil {
		return flowErrorResponse(c, err, "OVERVIEW_FAILED", "Failed to build overview")
	}

	return successResponse(c, fiber.StatusOK, "Overview retrieved successfully", result)
}
