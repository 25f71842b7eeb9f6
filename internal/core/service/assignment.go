package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/rl1809/stock-count/internal/core/domain"
)

// AssignWarehouses replaces the warehouses assigned to userID. Only
// administrators may call it, and every warehouse must exist.
func (s *CountService) AssignWarehouses(ctx context.Context, actor domain.User, userID int64, warehouseIDs []int64) ([]domain.Warehouse, error) {
	if err := s.guard.RequireAdmin(actor); err != nil {
		return nil, err
	}

	target, err := s.catalog.GetUser(ctx, userID)
	if err != nil {
		return nil, storeErr("get user", err)
	}

	ids, err := uniqueIDs(warehouseIDs)
	if err != nil {
		return nil, err
	}

	warehouses, err := s.catalog.GetWarehousesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get warehouses: %w", err)
	}
	if len(warehouses) != len(ids) {
		return nil, domain.NewNotFound("warehouses not found: %v", missingIDs(ids, warehouses))
	}

	if err := s.catalog.SetUserAssignedWarehouses(ctx, target.ID, ids); err != nil {
		return nil, storeErr("set assigned warehouses", err)
	}

	s.logger.Info("warehouses assigned",
		zap.Int64("user_id", target.ID),
		zap.Int64s("warehouse_ids", ids),
		zap.Int64("actor_id", actor.ID),
	)
	return warehouses, nil
}

func (s *CountService) UserWarehouses(ctx context.Context, actor domain.User, userID int64) ([]domain.Warehouse, error) {
	if err := s.guard.RequireAdmin(actor); err != nil {
		return nil, err
	}

	target, err := s.catalog.GetUser(ctx, userID)
	if err != nil {
		return nil, storeErr("get user", err)
	}

	warehouses, err := s.catalog.GetUserAssignedWarehouses(ctx, target.ID)
	if err != nil {
		return nil, storeErr("get assigned warehouses", err)
	}
	return warehouses, nil
}

func uniqueIDs(ids []int64) ([]int64, error) {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, domain.NewValidation("invalid warehouse id %d", id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func missingIDs(ids []int64, found []domain.Warehouse) []int64 {
	have := make(map[int64]struct{}, len(found))
	for _, w := range found {
		have[w.ID] = struct{}{}
	}
	var missing []int64
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
