package docdb

import (
	"context"

	"github.com/unifiedui/handoff-service/internal/domain/models"
)

// SessionsCollection stores session state.
type SessionsCollection interface {
	// Get returns the session or nil if it does not exist.
	Get(ctx context.Context, id string) (*models.Session, error)

	// Create inserts a new session.
	Create(ctx context.Context, session *models.Session) error

	// Update replaces an existing session.
	Update(ctx context.Context, session *models.Session) error
}
