package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultPackagingUnit = "Unidad"

type Product struct {
	ID              int64
	Name            string
	Description     string
	Price           decimal.Decimal
	PackagingUnit   string
	UnitsPerPackage int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PackageSize is the number of units in one package. Products stored without
// a positive size count as single units.
func (p Product) PackageSize() int {
	if p.UnitsPerPackage < 1 {
		return 1
	}
	return p.UnitsPerPackage
}
