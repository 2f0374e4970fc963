package profile

import (
	"errors"
	"strconv"

	"account-mirror/core/logger"
	"account-mirror/feature/profile/audit"
	"account-mirror/feature/profile/events"
	"account-mirror/feature/profile/snapshot"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the profile feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the profile routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/profile")
	group.Post("/:accountID/import", h.HandleImport)
	group.Get("/import/:jobID", h.HandleJobStatus)
	group.Post("/:accountID/sync", h.HandleSync)
	group.Get("/:accountID/audit", h.HandleAudit)
}

// HandleImport accepts a full snapshot and schedules its reconciliation,
// returning the job id to poll.
func (h *Handler) HandleImport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	accountID, err := parseAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var req ImportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
	}

	jobID, err := h.service.StartImport(c.Context(), accountID, req)
	if err != nil {
		if errors.Is(err, snapshot.ErrInvalidPayload) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("import schedule failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": jobID})
}

// HandleJobStatus reports the state of a scheduled import.
func (h *Handler) HandleJobStatus(c *fiber.Ctx) error {
	job, ok := h.service.JobStatus(c.Params("jobID"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown job"})
	}
	return c.JSON(job)
}

// HandleSync applies one live event synchronously.
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	accountID, err := parseAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var env events.Envelope
	if err := c.BodyParser(&env); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed event envelope"})
	}

	result, err := h.service.ApplyEvent(c.Context(), accountID, &env)
	if err != nil {
		l.Error("event apply failed", zap.String("command", env.Command()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"skipped": result})
}

// HandleAudit diffs the mirror against the latest archived snapshot.
func (h *Handler) HandleAudit(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	accountID, err := parseAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	report, err := h.service.AuditMirror(c.Context(), accountID)
	if err != nil {
		switch {
		case errors.Is(err, ErrArchiveDisabled):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, audit.ErrNoSnapshots):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("audit failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(report)
}

func parseAccountID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("accountID"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid account id")
	}
	return uint(id), nil
}
