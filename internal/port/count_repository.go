package port

import (
	"context"
	"time"

	"github.com/rl1809/stock-count/internal/core/domain"
)

type CountRepository interface {
	// CreateCount persists a new count and returns it with its ID assigned
	CreateCount(ctx context.Context, count domain.InventoryCount) (*domain.InventoryCount, error)

	// GetCount returns the count with its items in recording order
	GetCount(ctx context.Context, id int64) (*domain.InventoryCount, error)

	// ListCounts returns matching counts in creation order with ItemCount set
	ListCounts(ctx context.Context, filter domain.CountFilter) ([]domain.InventoryCount, error)

	// AppendItem atomically checks the count still accepts items and appends.
	// Returns domain.ErrInvalidState if the count was closed first.
	AppendItem(ctx context.Context, countID int64, item domain.CountItem) (*domain.CountItem, error)

	// CloseCount atomically moves the count to closed. Mutually exclusive with
	// AppendItem on the same count; returns domain.ErrInvalidState if already closed.
	CloseCount(ctx context.Context, countID int64, closedAt time.Time) error
}
