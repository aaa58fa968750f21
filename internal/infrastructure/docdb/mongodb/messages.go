package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unifiedui/handoff-service/internal/domain/models"
)

// MessagesCollection implements docdb.MessagesCollection.
type MessagesCollection struct {
	coll *mongo.Collection
}

// Append inserts a sequenced message.
func (c *MessagesCollection) Append(ctx context.Context, message *models.Message) error {
	if message.ID == "" || message.SessionID == "" || message.Seq <= 0 {
		return fmt.Errorf("message must be stamped before it is stored")
	}
	if _, err := c.coll.InsertOne(ctx, message); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("seq %d already taken in session %s: %w", message.Seq, message.SessionID, err)
		}
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListSince returns messages with seq > since in seq order.
func (c *MessagesCollection) ListSince(ctx context.Context, sessionID string, since int64) ([]*models.Message, error) {
	filter := bson.M{"sessionId": sessionID, "seq": bson.M{"$gt": since}}
	findOpts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})

	cursor, err := c.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := make([]*models.Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}

// EnsureIndexes creates the unique ordering index.
func (c *MessagesCollection) EnsureIndexes(ctx context.Context) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "seq", Value: 1}},
		Options: options.Index().SetName("sessionId_seq_unique").SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create messages index: %w", err)
	}
	return nil
}
