package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/stock-count/internal/core/domain"
)

const (
	DefaultEventStream = "stockcount:events"
	eventKeyPrefix     = "stockcount:event:"
	eventKeyTTL        = 24 * time.Hour
	streamMaxLen       = 10000
)

// publishEventScript appends to the stream only the first time an event ID
// is seen, so workers can retry a publish safely.
var publishEventScript = redis.NewScript(`
local ok = redis.call('SET', KEYS[1], 1, 'NX', 'EX', ARGV[1])
if not ok then
	return 0
end

redis.call('XADD', KEYS[2], 'MAXLEN', '~', ARGV[2], '*', unpack(ARGV, 3))
return 1
`)

type RedisAdapter struct {
	client *redis.Client
	stream string
}

func NewRedisAdapter(client *redis.Client, stream string) *RedisAdapter {
	if stream == "" {
		stream = DefaultEventStream
	}
	return &RedisAdapter{client: client, stream: stream}
}

func (r *RedisAdapter) Publish(ctx context.Context, event domain.CountEvent) error {
	keys := []string{eventKeyPrefix + event.ID, r.stream}
	args := []any{
		int(eventKeyTTL.Seconds()),
		streamMaxLen,
		"id", event.ID,
		"type", string(event.Type),
		"count_id", event.CountID,
		"warehouse_id", event.WarehouseID,
		"actor_id", event.ActorID,
		"item_id", event.ItemID,
		"product_id", event.ProductID,
		"quantity", event.Quantity,
		"occurred_at", event.OccurredAt.UTC().Format(time.RFC3339Nano),
	}

	if err := publishEventScript.Run(ctx, r.client, keys, args...).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	return nil
}

func (r *RedisAdapter) Recent(ctx context.Context, limit int) ([]domain.CountEvent, error) {
	msgs, err := r.client.XRevRangeN(ctx, r.stream, "+", "-", int64(limit)).Result()
	if err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}

	events := make([]domain.CountEvent, 0, len(msgs))
	for _, msg := range msgs {
		event, err := decodeEvent(msg.Values)
		if err != nil {
			return nil, fmt.Errorf("decode stream entry %s: %w", msg.ID, err)
		}
		events = append(events, event)
	}
	return events, nil
}

func decodeEvent(values map[string]any) (domain.CountEvent, error) {
	str := func(key string) string {
		s, _ := values[key].(string)
		return s
	}
	num := func(key string) (int64, error) {
		raw := str(key)
		if raw == "" {
			return 0, nil
		}
		return strconv.ParseInt(raw, 10, 64)
	}

	e := domain.CountEvent{
		ID:   str("id"),
		Type: domain.EventType(str("type")),
	}

	var err error
	if e.CountID, err = num("count_id"); err != nil {
		return e, err
	}
	if e.WarehouseID, err = num("warehouse_id"); err != nil {
		return e, err
	}
	if e.ActorID, err = num("actor_id"); err != nil {
		return e, err
	}
	if e.ItemID, err = num("item_id"); err != nil {
		return e, err
	}
	if e.ProductID, err = num("product_id"); err != nil {
		return e, err
	}
	quantity, err := num("quantity")
	if err != nil {
		return e, err
	}
	e.Quantity = int(quantity)

	if raw := str("occurred_at"); raw != "" {
		if e.OccurredAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return e, err
		}
	}
	return e, nil
}
