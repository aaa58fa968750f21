// Package mongodb provides the MongoDB conversation store.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unifiedui/handoff-service/internal/core/docdb"
)

// Collection names.
const (
	MessagesCollectionName = "messages"
	SessionsCollectionName = "sessions"
	HandoffsCollectionName = "handoffs"
	FeedbackCollectionName = "feedback"
	LeadsCollectionName    = "leads"
)

// Client implements the docdb.Client interface for MongoDB.
type Client struct {
	client   *mongo.Client
	messages *MessagesCollection
	sessions *SessionsCollection
	handoffs *HandoffsCollection
	feedback *FeedbackCollection
	leads    *LeadsCollection
}

var _ docdb.Client = (*Client)(nil)

// ClientConfig holds MongoDB connection configuration.
type ClientConfig struct {
	URI          string
	DatabaseName string
}

// NewClient creates a new MongoDB client.
func NewClient(ctx context.Context, config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.URI == "" {
		return nil, fmt.Errorf("mongodb URI is required")
	}
	if config.DatabaseName == "" {
		return nil, fmt.Errorf("database name is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(config.DatabaseName)
	return &Client{
		client:   client,
		messages: &MessagesCollection{coll: db.Collection(MessagesCollectionName)},
		sessions: &SessionsCollection{coll: db.Collection(SessionsCollectionName)},
		handoffs: &HandoffsCollection{coll: db.Collection(HandoffsCollectionName)},
		feedback: &FeedbackCollection{coll: db.Collection(FeedbackCollectionName)},
		leads:    &LeadsCollection{coll: db.Collection(LeadsCollectionName)},
	}, nil
}

// Messages returns the session logs.
func (c *Client) Messages() docdb.MessagesCollection { return c.messages }

// Sessions returns the session state collection.
func (c *Client) Sessions() docdb.SessionsCollection { return c.sessions }

// Handoffs returns the handoff request collection.
func (c *Client) Handoffs() docdb.HandoffsCollection { return c.handoffs }

// Feedback returns the message rating collection.
func (c *Client) Feedback() docdb.FeedbackCollection { return c.feedback }

// Leads returns the captured lead collection.
func (c *Client) Leads() docdb.LeadsCollection { return c.leads }

// Ping verifies the connection to MongoDB.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongodb ping failed: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (c *Client) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	return nil
}

// EnsureIndexes creates all necessary indexes for all collections.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{MessagesCollectionName, c.messages.EnsureIndexes},
		{SessionsCollectionName, c.sessions.EnsureIndexes},
		{HandoffsCollectionName, c.handoffs.EnsureIndexes},
		{FeedbackCollectionName, c.feedback.EnsureIndexes},
		{LeadsCollectionName, c.leads.EnsureIndexes},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("failed to ensure %s indexes: %w", step.name, err)
		}
	}
	return nil
}
