package docdb

import (
	"context"

	"github.com/unifiedui/handoff-service/internal/domain/models"
)

// FeedbackCollection stores message ratings. Submit is idempotent: when a
// rating for the message already exists it is returned unchanged with
// created == false.
type FeedbackCollection interface {
	Submit(ctx context.Context, feedback *models.Feedback) (stored *models.Feedback, created bool, err error)
	ListBySession(ctx context.Context, sessionID string) ([]*models.Feedback, error)
}

// LeadsCollection stores captured leads, at most one per session.
type LeadsCollection interface {
	Submit(ctx context.Context, lead *models.Lead) (stored *models.Lead, created bool, err error)
	GetBySession(ctx context.Context, sessionID string) (*models.Lead, error)
}
