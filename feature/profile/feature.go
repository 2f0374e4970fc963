package profile

import (
	"account-mirror/core/jobs"
	"account-mirror/core/storage"
	"account-mirror/feature/profile/snapshot"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the Profile feature.
func NewFeature(db *gorm.DB, logger *zap.Logger, runner *jobs.Runner, defaults snapshot.ImportOptions, archive storage.Client, bucket string) *Feature {
	svc := NewService(db, logger, runner, defaults, archive, bucket)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "profile"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
