package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/stock-count/internal/core/domain"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func testStream(t *testing.T, client *redis.Client) string {
	stream := fmt.Sprintf("stockcount:test:%d", time.Now().UnixNano())
	t.Cleanup(func() { client.Del(context.Background(), stream) })
	return stream
}

func TestRedisPublish_RoundTrip(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, testStream(t, client))

	event := domain.CountEvent{
		ID:          uuid.NewString(),
		Type:        domain.EventItemAdded,
		CountID:     7,
		WarehouseID: 5,
		ActorID:     2,
		ItemID:      11,
		ProductID:   3,
		Quantity:    36,
		OccurredAt:  time.Date(2026, 1, 31, 10, 0, 0, 123456000, time.UTC),
	}
	if err := adapter.Publish(ctx, event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	events, err := adapter.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.ID != event.ID || got.Type != event.Type || got.Quantity != 36 || got.ItemID != 11 {
		t.Errorf("unexpected event %+v", got)
	}
	if !got.OccurredAt.Equal(event.OccurredAt) {
		t.Errorf("occurred_at changed: %s != %s", got.OccurredAt, event.OccurredAt)
	}
}

func TestRedisPublish_Idempotent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, testStream(t, client))

	event := domain.CountEvent{ID: uuid.NewString(), Type: domain.EventCountCreated, CountID: 1, WarehouseID: 5}
	t.Cleanup(func() { client.Del(context.Background(), eventKeyPrefix+event.ID) })

	for i := 0; i < 3; i++ {
		if err := adapter.Publish(ctx, event); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	n, err := client.XLen(ctx, adapter.stream).Result()
	if err != nil {
		t.Fatalf("XLen failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 stream entry, got %d", n)
	}
}

func TestRedisRecent_NewestFirst(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, testStream(t, client))

	for i := int64(1); i <= 5; i++ {
		event := domain.CountEvent{ID: uuid.NewString(), Type: domain.EventCountCreated, CountID: i, WarehouseID: 5}
		t.Cleanup(func() { client.Del(context.Background(), eventKeyPrefix+event.ID) })
		if err := adapter.Publish(ctx, event); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	events, err := adapter.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, want := range []int64{5, 4, 3} {
		if events[i].CountID != want {
			t.Errorf("position %d: expected count %d, got %d", i, want, events[i].CountID)
		}
	}
}

func TestDecodeEvent_RejectsBadNumbers(t *testing.T) {
	_, err := decodeEvent(map[string]any{"id": "x", "count_id": "seven"})
	if err == nil {
		t.Error("expected decode error")
	}
}
