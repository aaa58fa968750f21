package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unifiedui/handoff-service/internal/core/docdb"
	"github.com/unifiedui/handoff-service/internal/domain/models"
)

// HandoffsCollection implements docdb.HandoffsCollection.
type HandoffsCollection struct {
	coll *mongo.Collection
}

// Create inserts a new handoff request.
func (c *HandoffsCollection) Create(ctx context.Context, handoff *models.HandoffRequest) error {
	if handoff.ID == "" {
		return fmt.Errorf("handoff ID is required")
	}
	if _, err := c.coll.InsertOne(ctx, handoff); err != nil {
		return fmt.Errorf("failed to insert handoff: %w", err)
	}
	return nil
}

// Get retrieves a handoff request by ID.
func (c *HandoffsCollection) Get(ctx context.Context, id string) (*models.HandoffRequest, error) {
	var handoff models.HandoffRequest
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&handoff)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get handoff: %w", err)
	}
	return &handoff, nil
}

// Update replaces an existing handoff request.
func (c *HandoffsCollection) Update(ctx context.Context, handoff *models.HandoffRequest) error {
	result, err := c.coll.ReplaceOne(ctx, bson.M{"_id": handoff.ID}, handoff)
	if err != nil {
		return fmt.Errorf("failed to update handoff: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("handoff %s not found", handoff.ID)
	}
	return nil
}

// Delete removes a handoff request.
func (c *HandoffsCollection) Delete(ctx context.Context, id string) error {
	if _, err := c.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete handoff: %w", err)
	}
	return nil
}

// List returns handoff requests matching the filter.
func (c *HandoffsCollection) List(ctx context.Context, opts *docdb.ListHandoffsOptions) ([]*models.HandoffRequest, error) {
	filter := bson.M{}
	findOpts := options.Find().SetSort(bson.D{{Key: "requestedAt", Value: 1}})
	if opts != nil {
		if opts.Status != "" {
			filter["status"] = opts.Status
		}
		if opts.BotID != "" {
			filter["botId"] = opts.BotID
		}
		if opts.Limit > 0 {
			findOpts.SetLimit(opts.Limit)
		}
		if opts.OrderBy == docdb.SortOrderDesc {
			findOpts.SetSort(bson.D{{Key: "requestedAt", Value: -1}})
		}
	}

	cursor, err := c.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list handoffs: %w", err)
	}
	defer cursor.Close(ctx)

	handoffs := make([]*models.HandoffRequest, 0)
	if err := cursor.All(ctx, &handoffs); err != nil {
		return nil, fmt.Errorf("failed to decode handoffs: %w", err)
	}
	return handoffs, nil
}

// EnsureIndexes creates the queue index.
func (c *HandoffsCollection) EnsureIndexes(ctx context.Context) error {
	_, err := c.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "requestedAt", Value: 1}},
			Options: options.Index().SetName("status_requestedAt"),
		},
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().SetName("sessionId"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create handoffs indexes: %w", err)
	}
	return nil
}
