package service

import (
	"context"
	"fmt"

	"github.com/rl1809/stock-count/internal/core/domain"
	"github.com/rl1809/stock-count/internal/port"
)

type WarehouseSet map[int64]struct{}

func (s WarehouseSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// WarehouseResolver answers which warehouses a user may operate on. It reads
// the catalog on every call; assignments may change between requests.
type WarehouseResolver struct {
	catalog port.CatalogRepository
}

func NewWarehouseResolver(catalog port.CatalogRepository) *WarehouseResolver {
	return &WarehouseResolver{catalog: catalog}
}

func (r *WarehouseResolver) ResolveAccessibleWarehouses(ctx context.Context, user domain.User) ([]domain.Warehouse, error) {
	if user.IsAdmin() {
		warehouses, err := r.catalog.ListWarehouses(ctx)
		if err != nil {
			return nil, fmt.Errorf("list warehouses: %w", err)
		}
		return warehouses, nil
	}

	warehouses, err := r.catalog.GetUserAssignedWarehouses(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get assigned warehouses of user %d: %w", user.ID, err)
	}
	return warehouses, nil
}

func (r *WarehouseResolver) AccessibleSet(ctx context.Context, user domain.User) (WarehouseSet, error) {
	warehouses, err := r.ResolveAccessibleWarehouses(ctx, user)
	if err != nil {
		return nil, err
	}

	set := make(WarehouseSet, len(warehouses))
	for _, w := range warehouses {
		set[w.ID] = struct{}{}
	}
	return set, nil
}
