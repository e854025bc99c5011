package integrity

import (
	"module-loader/core/logger"
	"module-loader/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	// Force import for Swagger
	var _ = checks.SchemaReport{}
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/registry", h.HandleRegistryCheck)
	group.Get("/history", h.HandleHistoryCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs the registry and history checks. Failing checks are reported inline.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	report := make(map[string]interface{})

	if regReport, err := h.service.CheckRegistry(c.Context()); err != nil {
		report["registry"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["registry"] = regReport
	}

	if histReport, err := h.service.CheckHistory(); err != nil {
		report["history"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["history"] = histReport
	}

	return c.JSON(report)
}

// HandleRegistryCheck compares the registry with the module bucket.
// @Summary Check Registry
// @Description Verifies that every registered module has a source object and lists unregistered module objects.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} checks.RegistryReport "Registry Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/registry [get]
func (h *Handler) HandleRegistryCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckRegistry(c.Context())
	if err != nil {
		l.Error("Registry check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if len(report.Missing) > 0 {
		l.Warn("Registered modules missing from storage", zap.Strings("missing", report.Missing))
	}
	return c.JSON(report)
}

// HandleHistoryCheck checks the failure history table schema.
// @Summary Check History Schema
// @Description Checks that the failure history table matches the expected key/value columns.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} checks.SchemaReport "Schema Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/history [get]
func (h *Handler) HandleHistoryCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Starting history schema check")

	report, err := h.service.CheckHistory()
	if err != nil {
		l.Error("History schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}
