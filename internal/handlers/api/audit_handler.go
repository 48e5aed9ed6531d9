package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/secureauth/sentinel/internal/audit"
	"github.com/secureauth/sentinel/internal/report"
	"github.com/spf13/cast"
)

type AuditHandler struct {
	auditService  *audit.AuditService
	reportService *report.Service
}

func NewAuditHandler(auditService *audit.AuditService, reportService *report.Service) *AuditHandler {
	return &AuditHandler{
		auditService:  auditService,
		reportService: reportService,
	}
}

// PostEvent is the sole ingestion entry point. Validation failures are 400
// and must not be retried unmodified; storage failures are 500 and the
// caller may retry the whole call.
func (h *AuditHandler) PostEvent(ctx *fiber.Ctx) error {
	var req ReportEventRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "Malformed request body"),
		)
	}
	origin := req.Origin
	if origin == "" {
		origin = ctx.IP()
	}

	eventID, err := h.auditService.ReportEvent(ctx.Context(), audit.ReportEventOptions{
		Subject:   req.Subject,
		EventType: req.EventType,
		Status:    req.Status,
		Origin:    origin,
		Detail:    req.Detail,
	})
	if err != nil {
		if errors.Is(err, audit.ErrUnknownEventType) || errors.Is(err, audit.ErrUnknownStatus) {
			return ctx.Status(fiber.StatusBadRequest).JSON(
				NewErrorResponse(fiber.StatusBadRequest, err.Error()),
			)
		}
		slog.Error("Failed to ingest audit event", "subject", req.Subject, "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "Event ingestion failed"),
		)
	}
	return ctx.Status(fiber.StatusCreated).JSON(
		NewDataResponse(ReportEventResponse{EventID: eventID}),
	)
}

func (h *AuditHandler) GetSummary(ctx *fiber.Ctx) error {
	hours := cast.ToInt(ctx.Query("hours"))
	summary, err := h.reportService.Summary(ctx.Context(), hours)
	if err != nil {
		slog.Error("Failed to build audit summary", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "Could not retrieve summary"),
		)
	}
	return ctx.JSON(NewDataResponse(summary))
}

func (h *AuditHandler) GetUserActivity(ctx *fiber.Ctx) error {
	subject := ctx.Params("subject")
	if subject == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "Missing subject"),
		)
	}
	limit := cast.ToInt(ctx.Query("limit"))
	events, err := h.reportService.UserActivity(ctx.Context(), subject, limit)
	if err != nil {
		slog.Error("Failed to load user activity", "subject", subject, "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "Could not retrieve user activity"),
		)
	}
	return ctx.JSON(NewDataResponse(events))
}

// GetExport streams a verbatim dump of the whole audit log.
func (h *AuditHandler) GetExport(ctx *fiber.Ctx) error {
	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if _, err := h.reportService.Export(ctx.Context(), ctx.Response().BodyWriter()); err != nil {
		slog.Error("Failed to export audit log", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "Could not export audit log"),
		)
	}
	return nil
}
