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

// FeedbackCollection implements docdb.FeedbackCollection. The unique
// (sessionId, messageId) index turns a second insert into a lookup.
type FeedbackCollection struct {
	coll *mongo.Collection
}

// Submit inserts the rating unless one already exists for the message.
func (c *FeedbackCollection) Submit(ctx context.Context, feedback *models.Feedback) (*models.Feedback, bool, error) {
	_, err := c.coll.InsertOne(ctx, feedback)
	if err == nil {
		return feedback, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, false, fmt.Errorf("failed to insert feedback: %w", err)
	}

	var existing models.Feedback
	filter := bson.M{"sessionId": feedback.SessionID, "messageId": feedback.MessageID}
	if err := c.coll.FindOne(ctx, filter).Decode(&existing); err != nil {
		return nil, false, fmt.Errorf("failed to load existing feedback: %w", err)
	}
	return &existing, false, nil
}

// ListBySession returns every rating in a session.
func (c *FeedbackCollection) ListBySession(ctx context.Context, sessionID string) ([]*models.Feedback, error) {
	cursor, err := c.coll.Find(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer cursor.Close(ctx)

	feedback := make([]*models.Feedback, 0)
	if err := cursor.All(ctx, &feedback); err != nil {
		return nil, fmt.Errorf("failed to decode feedback: %w", err)
	}
	return feedback, nil
}

// EnsureIndexes creates the uniqueness index.
func (c *FeedbackCollection) EnsureIndexes(ctx context.Context) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "messageId", Value: 1}},
		Options: options.Index().SetName("sessionId_messageId_unique").SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create feedback index: %w", err)
	}
	return nil
}

// LeadsCollection implements docdb.LeadsCollection.
type LeadsCollection struct {
	coll *mongo.Collection
}

// Submit inserts the lead unless the session already has one.
func (c *LeadsCollection) Submit(ctx context.Context, lead *models.Lead) (*models.Lead, bool, error) {
	_, err := c.coll.InsertOne(ctx, lead)
	if err == nil {
		return lead, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, false, fmt.Errorf("failed to insert lead: %w", err)
	}

	existing, err := c.GetBySession(ctx, lead.SessionID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetBySession returns the session's lead or nil.
func (c *LeadsCollection) GetBySession(ctx context.Context, sessionID string) (*models.Lead, error) {
	var lead models.Lead
	err := c.coll.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&lead)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return &lead, nil
}

// EnsureIndexes creates the one-lead-per-session index.
func (c *LeadsCollection) EnsureIndexes(ctx context.Context) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sessionId", Value: 1}},
		Options: options.Index().SetName("sessionId_unique").SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create leads index: %w", err)
	}
	return nil
}
