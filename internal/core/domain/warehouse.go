package domain

import "time"

type Warehouse struct {
	ID        int64
	Name      string
	Location  string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
