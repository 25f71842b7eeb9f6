package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryCount_States(t *testing.T) {
	tests := []struct {
		status       CountStatus
		acceptsItems bool
		closed       bool
	}{
		{CountStatusInProgress, true, false},
		{CountStatusCompleted, false, false},
		{CountStatusClosed, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			c := &InventoryCount{Status: tt.status}
			assert.Equal(t, tt.acceptsItems, c.AcceptsItems())
			assert.Equal(t, tt.closed, c.IsClosed())
		})
	}
}

func TestParseCountStatus(t *testing.T) {
	for _, s := range []string{"in_progress", "completed", "closed"} {
		got, err := ParseCountStatus(s)
		require.NoError(t, err)
		assert.Equal(t, CountStatus(s), got)
	}

	_, err := ParseCountStatus("open")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCountFilter_Match(t *testing.T) {
	c := &InventoryCount{WarehouseID: 5, Status: CountStatusClosed}

	assert.True(t, CountFilter{}.Match(c))
	assert.True(t, CountFilter{WarehouseID: 5}.Match(c))
	assert.True(t, CountFilter{WarehouseID: 5, Status: CountStatusClosed}.Match(c))
	assert.False(t, CountFilter{WarehouseID: 6}.Match(c))
	assert.False(t, CountFilter{Status: CountStatusInProgress}.Match(c))
}

func TestProduct_PackageSize(t *testing.T) {
	assert.Equal(t, 12, Product{UnitsPerPackage: 12}.PackageSize())
	assert.Equal(t, 1, Product{}.PackageSize())
	assert.Equal(t, 1, Product{UnitsPerPackage: -3}.PackageSize())
}

func TestRole(t *testing.T) {
	assert.True(t, User{Role: RoleAdmin}.IsAdmin())
	assert.False(t, User{Role: RoleUser}.IsAdmin())
	assert.True(t, RoleUser.Valid())
	assert.False(t, Role("owner").Valid())
}
