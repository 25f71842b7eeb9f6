package port

import (
	"context"

	"github.com/rl1809/stock-count/internal/core/domain"
)

type EventRepository interface {
	// Publish appends a lifecycle event to the activity feed
	Publish(ctx context.Context, event domain.CountEvent) error

	// Recent returns up to limit events, newest first
	Recent(ctx context.Context, limit int) ([]domain.CountEvent, error)
}
