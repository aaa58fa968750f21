package docdb

import (
	"context"

	"github.com/unifiedui/handoff-service/internal/domain/models"
)

// MessagesCollection stores the append-only session logs.
type MessagesCollection interface {
	// Append inserts a sequenced message. Inserting a second message with the
	// same session and seq fails.
	Append(ctx context.Context, message *models.Message) error

	// ListSince returns the messages of a session with seq > since, ordered
	// by seq ascending.
	ListSince(ctx context.Context, sessionID string, since int64) ([]*models.Message, error)
}
