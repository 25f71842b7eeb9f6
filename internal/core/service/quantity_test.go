package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/stock-count/internal/core/domain"
)

func TestComputeQuantity(t *testing.T) {
	tests := []struct {
		name     string
		perPack  int
		packages int
		want     int
	}{
		{"box of twelve", 12, 3, 36},
		{"single unit product", 1, 7, 7},
		{"zero package size counts as one", 0, 4, 4},
		{"negative package size counts as one", -6, 4, 4},
		{"one package", 24, 1, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeQuantity(domain.Product{UnitsPerPackage: tt.perPack}, tt.packages)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeQuantity_Property(t *testing.T) {
	for size := -2; size <= 50; size++ {
		p := domain.Product{UnitsPerPackage: size}
		for n := 1; n <= 200; n++ {
			got, err := ComputeQuantity(p, n)
			require.NoError(t, err)
			require.Equal(t, n*max(size, 1), got, "size=%d n=%d", size, n)
		}
	}
}

func TestComputeQuantity_RejectsNonPositive(t *testing.T) {
	for _, n := range []int{0, -1, math.MinInt} {
		_, err := ComputeQuantity(domain.Product{UnitsPerPackage: 12}, n)
		assert.ErrorIs(t, err, domain.ErrValidation, "packages=%d", n)
	}
}

func TestComputeQuantity_RejectsOverflow(t *testing.T) {
	_, err := ComputeQuantity(domain.Product{UnitsPerPackage: 1000}, math.MaxInt/10)
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := ComputeQuantity(domain.Product{UnitsPerPackage: 1}, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, got)
}
