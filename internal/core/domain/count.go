package domain

import "time"

type CountStatus string

const (
	CountStatusInProgress CountStatus = "in_progress"
	// CountStatusCompleted is reserved. No operation produces it; counts in
	// this state are read-only.
	CountStatusCompleted CountStatus = "completed"
	CountStatusClosed    CountStatus = "closed"
)

func ParseCountStatus(s string) (CountStatus, error) {
	switch st := CountStatus(s); st {
	case CountStatusInProgress, CountStatusCompleted, CountStatusClosed:
		return st, nil
	}
	return "", NewValidation("unknown count status %q", s)
}

// CutOffDateLayout is the wire format of a count's cut-off date.
const CutOffDateLayout = "2006-01-02"

type InventoryCount struct {
	ID          int64
	Name        string
	CutOffDate  time.Time
	WarehouseID int64
	Status      CountStatus
	CreatedBy   int64
	CreatedAt   time.Time
	ClosedAt    *time.Time
	// ItemCount is filled by listings, which do not load Items.
	ItemCount int
	Items     []CountItem
}

// AcceptsItems reports whether items may still be appended.
func (c *InventoryCount) AcceptsItems() bool {
	return c.Status == CountStatusInProgress
}

func (c *InventoryCount) IsClosed() bool {
	return c.Status == CountStatusClosed
}

type CountItem struct {
	ID            int64
	CountID       int64
	WarehouseID   int64
	ProductID     int64
	PackagesCount int
	Quantity      int
	CreatedAt     time.Time
}

// CountFilter narrows ListCounts. Zero values mean "any".
type CountFilter struct {
	WarehouseID int64
	Status      CountStatus
}

func (f CountFilter) Match(c *InventoryCount) bool {
	if f.WarehouseID != 0 && c.WarehouseID != f.WarehouseID {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	return true
}

// CountDetail is a count with the display names of what it references.
type CountDetail struct {
	InventoryCount
	WarehouseName   string
	CreatorUsername string
}
