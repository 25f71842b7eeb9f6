package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/stock-count/internal/core/domain"
)

func TestAssignWarehouses(t *testing.T) {
	env := newTestEnv(t, ClosePolicyAdmin, 100)
	ctx := context.Background()

	got, err := env.svc.AssignWarehouses(ctx, admin, u2.ID, []int64{9, 6, 9})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(6), got[0].ID)
	assert.Equal(t, int64(9), got[1].ID)

	// The guard sees the new assignment on the very next call.
	count, err := env.svc.CreateCount(ctx, u2, NewCount{Name: "Sur", CutOffDate: "2026-02-28", WarehouseID: 9})
	require.NoError(t, err)
	assert.Equal(t, int64(9), count.WarehouseID)

	current, err := env.svc.UserWarehouses(ctx, admin, u2.ID)
	require.NoError(t, err)
	assert.Len(t, current, 2)

	_, err = env.svc.AssignWarehouses(ctx, admin, u2.ID, nil)
	require.NoError(t, err)
	_, err = env.svc.AddItem(ctx, u2, count.ID, p1.ID, 1)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestAssignWarehouses_Errors(t *testing.T) {
	env := newTestEnv(t, ClosePolicyAdmin, 100)
	ctx := context.Background()

	_, err := env.svc.AssignWarehouses(ctx, u1, u2.ID, []int64{5})
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = env.svc.AssignWarehouses(ctx, admin, 404, []int64{5})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.svc.AssignWarehouses(ctx, admin, u2.ID, []int64{5, 0})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.svc.AssignWarehouses(ctx, admin, u2.ID, []int64{5, 77})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "77")

	// Failed calls leave the previous assignment untouched.
	current, err := env.svc.UserWarehouses(ctx, admin, u2.ID)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, int64(6), current[0].ID)

	_, err = env.svc.UserWarehouses(ctx, u2, u2.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}
