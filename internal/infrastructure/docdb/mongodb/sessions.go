package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unifiedui/handoff-service/internal/domain/models"
)

// SessionsCollection implements docdb.SessionsCollection.
type SessionsCollection struct {
	coll *mongo.Collection
}

// Get retrieves a session by ID.
func (c *SessionsCollection) Get(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// Create inserts a new session.
func (c *SessionsCollection) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		return fmt.Errorf("session ID is required")
	}
	if _, err := c.coll.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// Update replaces an existing session.
func (c *SessionsCollection) Update(ctx context.Context, session *models.Session) error {
	result, err := c.coll.ReplaceOne(ctx, bson.M{"_id": session.ID}, session)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("session %s not found", session.ID)
	}
	return nil
}

// EnsureIndexes creates the bot lookup index.
func (c *SessionsCollection) EnsureIndexes(ctx context.Context) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "botId", Value: 1}, {Key: "updatedAt", Value: -1}},
		Options: options.Index().SetName("botId_updatedAt"),
	})
	if err != nil {
		return fmt.Errorf("failed to create sessions index: %w", err)
	}
	return nil
}
