package reflectionRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"morningfocus/database"
	"morningfocus/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoReflectionRepo) UpsertByDate(ctx context.Context, date, reflectionText string) (*models.Reflection, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"reflectionText": reflectionText},
		"$setOnInsert": bson.M{
			"id":                       uuid.New().String(),
			"date":                     date,
			"aiFeedback":               "",
			"topTask":                  "",
			"estimatedDurationMinutes": models.DefaultDurationMinutes,
			"completed":                false,
			"createdAt":                time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.Reflection
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"date": date}, update, opts).Decode(&out)
	if mongo.IsDuplicateKeyError(err) {
		// Lost an insert race on the unique date index; the document exists now.
		err = r.coll.FindOneAndUpdate(ctx, bson.M{"date": date}, update, opts).Decode(&out)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert reflection for %s: %w", date, err)
	}
	return &out, nil
}

func (r *mongoReflectionRepo) GetByID(ctx context.Context, id string) (*models.Reflection, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var out models.Reflection
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch reflection %s: %w", id, err)
	}
	return &out, nil
}

func (r *mongoReflectionRepo) List(ctx context.Context, limit int) ([]models.Reflection, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reflections: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]models.Reflection, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode reflections: %w", err)
	}
	return out, nil
}

func (r *mongoReflectionRepo) SetPlannedTask(ctx context.Context, id, topTask, aiFeedback string, durationMinutes int) (*models.Reflection, error) {
	return r.updateOne(ctx, id, bson.M{
		"topTask":                  topTask,
		"aiFeedback":               aiFeedback,
		"estimatedDurationMinutes": durationMinutes,
	})
}

func (r *mongoReflectionRepo) SetCompleted(ctx context.Context, id string, completed bool) (*models.Reflection, error) {
	return r.updateOne(ctx, id, bson.M{"completed": completed})
}

// updateOne applies $set to the reflection and returns the updated document.
func (r *mongoReflectionRepo) updateOne(ctx context.Context, id string, set bson.M) (*models.Reflection, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out models.Reflection
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": set}, opts).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update reflection %s: %w", id, err)
	}
	return &out, nil
}
