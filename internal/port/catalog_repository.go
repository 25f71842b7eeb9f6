package port

import (
	"context"

	"github.com/rl1809/stock-count/internal/core/domain"
)

// CatalogRepository is the read side of the user/product/warehouse catalog,
// plus the assignment write. Lookups of missing records return a
// domain.ErrNotFound error.
type CatalogRepository interface {
	// GetUser returns the user with its assigned warehouse IDs
	GetUser(ctx context.Context, id int64) (*domain.User, error)

	GetWarehouse(ctx context.Context, id int64) (*domain.Warehouse, error)

	// GetWarehousesByIDs returns the warehouses that exist among ids; missing ids are skipped
	GetWarehousesByIDs(ctx context.Context, ids []int64) ([]domain.Warehouse, error)

	// ListWarehouses returns the whole warehouse catalog ordered by ID
	ListWarehouses(ctx context.Context) ([]domain.Warehouse, error)

	GetProduct(ctx context.Context, id int64) (*domain.Product, error)

	// GetUserAssignedWarehouses reads the assignment set at call time
	GetUserAssignedWarehouses(ctx context.Context, userID int64) ([]domain.Warehouse, error)

	// SetUserAssignedWarehouses replaces the user's assignment set
	SetUserAssignedWarehouses(ctx context.Context, userID int64, warehouseIDs []int64) error
}
