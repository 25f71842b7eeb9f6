package service

import (
	"math"

	"github.com/rl1809/stock-count/internal/core/domain"
)

// ComputeQuantity converts a number of packages of product into units.
// It is the only source of an item's persisted quantity.
func ComputeQuantity(product domain.Product, packagesCount int) (int, error) {
	if packagesCount <= 0 {
		return 0, domain.NewValidation("packages count must be a positive integer, got %d", packagesCount)
	}

	size := product.PackageSize()
	if packagesCount > math.MaxInt/size {
		return 0, domain.NewValidation("packages count %d is too large", packagesCount)
	}

	return packagesCount * size, nil
}
