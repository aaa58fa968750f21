package docdb

import (
	"context"

	"github.com/unifiedui/handoff-service/internal/domain/models"
)

// ListHandoffsOptions filters handoff requests. Empty fields match all.
type ListHandoffsOptions struct {
	Status  models.HandoffStatus
	BotID   string
	Limit   int64
	OrderBy SortOrder // Order by requestedAt
}

// HandoffsCollection stores handoff requests, including resolved ones.
type HandoffsCollection interface {
	// Create inserts a new request.
	Create(ctx context.Context, handoff *models.HandoffRequest) error

	// Get returns the request or nil if it does not exist.
	Get(ctx context.Context, id string) (*models.HandoffRequest, error)

	// Update replaces an existing request.
	Update(ctx context.Context, handoff *models.HandoffRequest) error

	// Delete removes a request. Deleting a missing request is not an error.
	Delete(ctx context.Context, id string) error

	// List returns requests matching the options.
	List(ctx context.Context, opts *ListHandoffsOptions) ([]*models.HandoffRequest, error)
}
