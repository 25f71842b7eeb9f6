package domain

import "time"

type EventType string

const (
	EventCountCreated EventType = "count.created"
	EventItemAdded    EventType = "item.added"
	EventCountClosed  EventType = "count.closed"
)

// CountEvent records an accepted lifecycle mutation for the activity feed.
type CountEvent struct {
	ID          string
	Type        EventType
	CountID     int64
	WarehouseID int64
	ActorID     int64
	ItemID      int64
	ProductID   int64
	Quantity    int
	OccurredAt  time.Time
}
