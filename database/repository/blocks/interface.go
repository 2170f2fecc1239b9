// File: database/repository/blocks/interface.go
package blocksRepo

import (
	"context"

	"morningfocus/database"
	"morningfocus/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// BlocksRepository stores the confirmed focus blocks of each reflection.
type BlocksRepository interface {
	// ReplaceForReflection deletes every block of the reflection, then inserts blocks
	// with fresh ids. The stored blocks are returned in input order.
	ReplaceForReflection(ctx context.Context, reflectionID string, blocks []models.ScheduledBlock) ([]models.ScheduledBlock, error)
	// ListByReflection returns the blocks of one reflection ordered by index.
	ListByReflection(ctx context.Context, reflectionID string) ([]models.ScheduledBlock, error)
	// ListByReflections groups the blocks of many reflections, each group ordered by index.
	ListByReflections(ctx context.Context, reflectionIDs []string) (map[string][]models.ScheduledBlock, error)
}

type mongoBlocksRepo struct {
	coll *mongo.Collection
}

// NewMongoBlocksRepo constructs a new MongoDB BlocksRepository.
func NewMongoBlocksRepo() BlocksRepository {
	return &mongoBlocksRepo{
		coll: database.DB().Collection("scheduled_blocks"),
	}
}
