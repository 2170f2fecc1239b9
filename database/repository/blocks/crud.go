package blocksRepo

import (
	"context"
	"fmt"
	"time"

	"morningfocus/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoBlocksRepo) ReplaceForReflection(ctx context.Context, reflectionID string, blocks []models.ScheduledBlock) ([]models.ScheduledBlock, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.coll.DeleteMany(ctx, bson.M{"reflectionId": reflectionID}); err != nil {
		return nil, fmt.Errorf("failed to clear blocks of reflection %s: %w", reflectionID, err)
	}

	stored := make([]models.ScheduledBlock, 0, len(blocks))
	docs := make([]interface{}, 0, len(blocks))
	for _, b := range blocks {
		b.ID = uuid.New().String()
		b.ReflectionID = reflectionID
		b.StartTime = b.StartTime.UTC()
		b.EndTime = b.EndTime.UTC()
		stored = append(stored, b)
		docs = append(docs, b)
	}
	if len(docs) == 0 {
		return stored, nil
	}

	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("failed to insert blocks of reflection %s: %w", reflectionID, err)
	}
	return stored, nil
}

func (r *mongoBlocksRepo) ListByReflection(ctx context.Context, reflectionID string) ([]models.ScheduledBlock, error) {
	grouped, err := r.ListByReflections(ctx, []string{reflectionID})
	if err != nil {
		return nil, err
	}
	if blocks, ok := grouped[reflectionID]; ok {
		return blocks, nil
	}
	return []models.ScheduledBlock{}, nil
}

func (r *mongoBlocksRepo) ListByReflections(ctx context.Context, reflectionIDs []string) (map[string][]models.ScheduledBlock, error) {
	out := make(map[string][]models.ScheduledBlock, len(reflectionIDs))
	if len(reflectionIDs) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "reflectionId", Value: 1}, {Key: "blockIndex", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"reflectionId": bson.M{"$in": reflectionIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var b models.ScheduledBlock
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to decode block: %w", err)
		}
		out[b.ReflectionID] = append(out[b.ReflectionID], b)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blocks: %w", err)
	}
	return out, nil
}
