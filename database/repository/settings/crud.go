package settingsRepo

import (
	"context"
	"fmt"
	"time"

	"morningfocus/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoSettingsRepo) Get(ctx context.Context) (*models.UserSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	defaults := models.DefaultSettings()
	defaults.UpdatedAt = time.Now().UTC()

	// Insert the defaults only when no document exists yet.
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	update := bson.M{"$setOnInsert": defaults}

	var s models.UserSettings
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": models.SettingsID}, update, opts).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &s, nil
}

func (r *mongoSettingsRepo) Save(ctx context.Context, s *models.UserSettings) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.ID = models.SettingsID
	s.UpdatedAt = time.Now().UTC()

	_, err := r.coll.ReplaceOne(ctx, bson.M{"id": models.SettingsID}, s, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
