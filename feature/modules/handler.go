package modules

import (
	"errors"
	"strings"

	"module-loader/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the module engine.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the modules routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/modules")
	group.Get("/", h.HandleList)
	group.Get("/health", h.HandleHealth)
	group.Get("/cycles", h.HandleCycles)
	group.Get("/notifications", h.HandleNotifications)
	group.Get("/record", h.HandleRecord)
	group.Post("/load", h.HandleLoad)
	group.Post("/fix", h.HandleFix)
	group.Post("/clear", h.HandleClear)
	group.Put("/overrides", h.HandleSetOverride)
	group.Delete("/overrides", h.HandleRemoveOverride)
}

// HandleList lists published modules.
// @Summary List Modules
// @Description Lists the modules published under their short names, fallbacks included.
// @Tags modules
// @Produce json
// @Success 200 {array} modules.ModuleView "Published modules"
// @Router /modules [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	return c.JSON(h.service.Published())
}

// HandleHealth returns the health report.
// @Summary Module Health
// @Description Reports load status, fallbacks, critical failures and cycles. Responds 503 when the application cannot continue.
// @Tags modules
// @Produce json
// @Success 200 {object} health.Report "Health Report"
// @Failure 503 {object} health.Report "Critical module unavailable"
// @Router /modules/health [get]
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	report := h.service.Health()
	if !report.CanContinue {
		return c.Status(fiber.StatusServiceUnavailable).JSON(report)
	}
	return c.JSON(report)
}

// HandleCycles returns the dependency graph observations.
// @Summary Dependency Cycles
// @Description Lists observed dependency edges, detected cycles and circular stand-in counts.
// @Tags modules
// @Produce json
// @Success 200 {object} modules.CyclesReport "Cycles Report"
// @Router /modules/cycles [get]
func (h *Handler) HandleCycles(c *fiber.Ctx) error {
	return c.JSON(h.service.Cycles())
}

// HandleNotifications returns recent notifications.
// @Summary Notifications
// @Description Lists the most recent user-visible notifications raised by required module failures.
// @Tags modules
// @Produce json
// @Success 200 {array} notify.Notification "Notifications"
// @Router /modules/notifications [get]
func (h *Handler) HandleNotifications(c *fiber.Ctx) error {
	return c.JSON(h.service.Notifications())
}

// HandleRecord returns the load record of a module.
// @Summary Module Record
// @Description Returns the load state, attempts and last error of one module.
// @Tags modules
// @Produce json
// @Param ref query string true "Module reference (filename, short name or path)"
// @Success 200 {object} modules.RecordView "Record"
// @Failure 400 {object} map[string]string "Missing reference"
// @Failure 404 {object} map[string]string "Unknown module"
// @Router /modules/record [get]
func (h *Handler) HandleRecord(c *fiber.Ctx) error {
	ref := c.Query("ref")
	if strings.TrimSpace(ref) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ref is required"})
	}
	rec, ok := h.service.Record(ref)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "module has no record", "ref": ref})
	}
	return c.JSON(rec)
}

// HandleLoad loads a batch of modules.
// @Summary Load Modules
// @Description Loads the given references with priority, critical and concurrent ordinary phases.
// @Tags modules
// @Accept json
// @Produce json
// @Param request body modules.LoadRequest true "Load request"
// @Success 200 {object} modules.LoadResponse "Load results"
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /modules/load [post]
func (h *Handler) HandleLoad(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req LoadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body", "details": err.Error()})
	}
	resp, err := h.service.Load(c.UserContext(), req)
	if errors.Is(err, ErrNoReferences) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	l.Info("Batch load completed",
		zap.Int("references", len(req.References)),
		zap.String("status", string(resp.Health.Status)))
	return c.JSON(resp)
}

// HandleFix reloads every failed module.
// @Summary Fix Failed Modules
// @Description Clears every failed module, including the persisted history, and loads them again.
// @Tags modules
// @Produce json
// @Success 200 {object} modules.LoadResponse "Load results"
// @Router /modules/fix [post]
func (h *Handler) HandleFix(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	resp := h.service.Fix(c.UserContext())
	l.Info("Failed modules reloaded", zap.Int("modules", len(resp.Results)))
	return c.JSON(resp)
}

// HandleClear clears failed state.
// @Summary Clear Failed Modules
// @Description Resets the failed state and attempt counters of the given paths, or of every failed module.
// @Tags modules
// @Accept json
// @Produce json
// @Param request body modules.ClearRequest false "Paths to clear"
// @Success 200 {object} map[string][]string "Cleared paths"
// @Router /modules/clear [post]
func (h *Handler) HandleClear(c *fiber.Ctx) error {
	var req ClearRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body", "details": err.Error()})
		}
	}
	return c.JSON(fiber.Map{"cleared": h.service.Clear(c.UserContext(), req.Paths)})
}

// HandleSetOverride sets a resolution override.
// @Summary Set Override
// @Description Maps a reference to a path verbatim. Takes effect for subsequent loads.
// @Tags modules
// @Accept json
// @Produce json
// @Param request body modules.OverrideRequest true "Override"
// @Success 200 {object} map[string]string "Override table"
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /modules/overrides [put]
func (h *Handler) HandleSetOverride(c *fiber.Ctx) error {
	var req OverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body", "details": err.Error()})
	}
	if strings.TrimSpace(req.Reference) == "" || strings.TrimSpace(req.Path) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reference and path are required"})
	}
	return c.JSON(h.service.SetOverride(req.Reference, req.Path))
}

// HandleRemoveOverride removes a resolution override.
// @Summary Remove Override
// @Tags modules
// @Produce json
// @Param ref query string true "Overridden reference"
// @Success 200 {object} map[string]string "Override table"
// @Failure 400 {object} map[string]string "Missing reference"
// @Router /modules/overrides [delete]
func (h *Handler) HandleRemoveOverride(c *fiber.Ctx) error {
	ref := c.Query("ref")
	if strings.TrimSpace(ref) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ref is required"})
	}
	return c.JSON(h.service.RemoveOverride(ref))
}
