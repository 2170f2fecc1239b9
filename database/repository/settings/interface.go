// File: database/repository/settings/interface.go
package settingsRepo

import (
	"context"

	"morningfocus/database"
	"morningfocus/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// SettingsRepository stores the single settings document.
type SettingsRepository interface {
	// Get returns the stored settings, creating the defaults on first use.
	Get(ctx context.Context) (*models.UserSettings, error)
	// Save replaces the stored settings.
	Save(ctx context.Context, s *models.UserSettings) error
}

type mongoSettingsRepo struct {
	coll *mongo.Collection
}

// NewMongoSettingsRepo constructs a new MongoDB SettingsRepository.
func NewMongoSettingsRepo() SettingsRepository {
	return &mongoSettingsRepo{
		coll: database.DB().Collection("settings"),
	}
}
