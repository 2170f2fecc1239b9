// File: database/repository/reflection/interface.go
package reflectionRepo

import (
	"context"

	"morningfocus/database"
	"morningfocus/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ReflectionRepository stores evening reflections, one per date.
type ReflectionRepository interface {
	// UpsertByDate creates the reflection for date or replaces the text of the existing one.
	UpsertByDate(ctx context.Context, date, reflectionText string) (*models.Reflection, error)
	// GetByID returns database.ErrNotFound when no reflection has the id.
	GetByID(ctx context.Context, id string) (*models.Reflection, error)
	// List returns reflections ordered by date, newest first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]models.Reflection, error)
	SetPlannedTask(ctx context.Context, id, topTask, aiFeedback string, durationMinutes int) (*models.Reflection, error)
	SetCompleted(ctx context.Context, id string, completed bool) (*models.Reflection, error)
}

type mongoReflectionRepo struct {
	coll *mongo.Collection
}

// NewMongoReflectionRepo constructs a new MongoDB ReflectionRepository.
func NewMongoReflectionRepo() ReflectionRepository {
	return &mongoReflectionRepo{
		coll: database.DB().Collection("reflections"),
	}
}
