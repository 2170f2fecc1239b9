// File: database/repository/larktoken/interface.go
package larkTokenRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"morningfocus/database"
	"morningfocus/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LarkTokenRepository stores at most one Lark user token.
type LarkTokenRepository interface {
	// Get returns nil, nil when no token is stored.
	Get(ctx context.Context) (*models.LarkToken, error)
	// Save replaces any stored token.
	Save(ctx context.Context, token *models.LarkToken) error
	Delete(ctx context.Context) error
}

type mongoLarkTokenRepo struct {
	coll *mongo.Collection
}

// NewMongoLarkTokenRepo constructs a new MongoDB LarkTokenRepository.
func NewMongoLarkTokenRepo() LarkTokenRepository {
	return &mongoLarkTokenRepo{
		coll: database.DB().Collection("lark_tokens"),
	}
}

func (r *mongoLarkTokenRepo) Get(ctx context.Context) (*models.LarkToken, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var t models.LarkToken
	if err := r.coll.FindOne(ctx, bson.M{"id": models.LarkTokenID}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch lark token: %w", err)
	}
	return &t, nil
}

func (r *mongoLarkTokenRepo) Save(ctx context.Context, token *models.LarkToken) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	token.ID = models.LarkTokenID
	token.UpdatedAt = time.Now().UTC()

	_, err := r.coll.ReplaceOne(ctx, bson.M{"id": models.LarkTokenID}, token, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save lark token: %w", err)
	}
	return nil
}

func (r *mongoLarkTokenRepo) Delete(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to delete lark token: %w", err)
	}
	return nil
}
