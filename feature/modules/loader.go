package modules

import (
	"module-loader/core/engine"
	"module-loader/core/notify"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the modules feature.
func NewFeature(e *engine.Engine, notes *notify.Recorder, logger *zap.Logger) *Feature {
	svc := NewService(e, notes, logger)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "modules"
}

// IsEnabled reports whether an engine is wired.
func (f *Feature) IsEnabled() bool {
	return f.service.engine != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
