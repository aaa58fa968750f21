package docdb

import "context"

// Client groups the typed collections of the conversation store.
type Client interface {
	Messages() MessagesCollection
	Sessions() SessionsCollection
	Handoffs() HandoffsCollection
	Feedback() FeedbackCollection
	Leads() LeadsCollection

	// EnsureIndexes creates the indexes every collection relies on.
	EnsureIndexes(ctx context.Context) error

	// Ping verifies the database connection.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close(ctx context.Context) error
}
