package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/secureauth/sentinel/internal/audit"
	"github.com/spf13/cast"
)

type AlertHandler struct {
	auditService *audit.AuditService
}

func NewAlertHandler(auditService *audit.AuditService) *AlertHandler {
	return &AlertHandler{auditService: auditService}
}

// GetAlerts lists unresolved alerts, newest first. An empty list means the
// system is genuinely clean; retrieval failures are reported as errors so
// the viewer never mistakes a broken backend for a quiet one.
func (h *AlertHandler) GetAlerts(ctx *fiber.Ctx) error {
	alerts, err := h.auditService.ListActiveAlerts(ctx.Context())
	if err != nil {
		slog.Error("Failed to list active alerts", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "Could not retrieve alerts"),
		)
	}
	return ctx.JSON(NewDataResponse(alerts))
}

func (h *AlertHandler) PostResolveAlert(ctx *fiber.Ctx) error {
	alertID, err := cast.ToUint64E(ctx.Params("id"))
	if err != nil || alertID == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "Invalid alert id"),
		)
	}

	if err := h.auditService.ResolveAlert(ctx.Context(), alertID); err != nil {
		if audit.IsNotFound(err) {
			return ctx.Status(fiber.StatusNotFound).JSON(
				NewErrorResponse(fiber.StatusNotFound, "Alert not found"),
			)
		}
		slog.Error("Failed to resolve alert", "alertId", alertID, "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "Could not resolve alert"),
		)
	}
	return ctx.JSON(NewDataResponse(ResolveAlertResponse{AlertID: alertID, Resolved: true}))
}
