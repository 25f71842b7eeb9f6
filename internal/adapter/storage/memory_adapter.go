package storage

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-memdb"

	"github.com/rl1809/stock-count/internal/core/domain"
)

const (
	tableUser      = "user"
	tableWarehouse = "warehouse"
	tableProduct   = "product"
	tableCount     = "count"
	tableItem      = "item"
	tableEvent     = "event"
)

var memorySchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tableUser:      idTable(tableUser, "ID"),
		tableWarehouse: idTable(tableWarehouse, "ID"),
		tableProduct:   idTable(tableProduct, "ID"),
		tableCount:     idTable(tableCount, "ID"),
		tableItem: {
			Name: tableItem,
			Indexes: map[string]*memdb.IndexSchema{
				"id":       {Name: "id", Unique: true, Indexer: &memdb.IntFieldIndex{Field: "ID"}},
				"count_id": {Name: "count_id", Indexer: &memdb.IntFieldIndex{Field: "CountID"}},
			},
		},
		tableEvent: {
			Name: tableEvent,
			Indexes: map[string]*memdb.IndexSchema{
				"id":       {Name: "id", Unique: true, Indexer: &memdb.IntFieldIndex{Field: "Seq"}},
				"event_id": {Name: "event_id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "EventID"}},
			},
		},
	},
}

func idTable(name, field string) *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: name,
		Indexes: map[string]*memdb.IndexSchema{
			"id": {Name: "id", Unique: true, Indexer: &memdb.IntFieldIndex{Field: field}},
		},
	}
}

type eventRecord struct {
	Seq     int64
	EventID string
	Event   domain.CountEvent
}

// MemoryAdapter keeps the catalog, counts and activity feed in a go-memdb
// database. Write transactions are serialized by memdb, which makes
// AppendItem and CloseCount mutually exclusive. Stored objects are never
// mutated in place.
type MemoryAdapter struct {
	db       *memdb.MemDB
	countSeq atomic.Int64
	itemSeq  atomic.Int64
	eventSeq atomic.Int64
}

func NewMemoryAdapter() (*MemoryAdapter, error) {
	db, err := memdb.NewMemDB(memorySchema)
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return &MemoryAdapter{db: db}, nil
}

// PutUser inserts or replaces a catalog user.
func (m *MemoryAdapter) PutUser(user domain.User) error {
	user.WarehouseIDs = append([]int64(nil), user.WarehouseIDs...)
	return m.put(tableUser, &user)
}

func (m *MemoryAdapter) PutWarehouse(warehouse domain.Warehouse) error {
	return m.put(tableWarehouse, &warehouse)
}

func (m *MemoryAdapter) PutProduct(product domain.Product) error {
	if product.PackagingUnit == "" {
		product.PackagingUnit = domain.DefaultPackagingUnit
	}
	return m.put(tableProduct, &product)
}

func (m *MemoryAdapter) put(table string, obj any) error {
	txn := m.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(table, obj); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	txn.Commit()
	return nil
}

func (m *MemoryAdapter) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	user, err := firstUser(txn, id)
	if err != nil {
		return nil, err
	}
	out := *user
	out.WarehouseIDs = append([]int64(nil), user.WarehouseIDs...)
	return &out, nil
}

func (m *MemoryAdapter) GetWarehouse(ctx context.Context, id int64) (*domain.Warehouse, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tableWarehouse, "id", id)
	if err != nil {
		return nil, fmt.Errorf("query warehouse: %w", err)
	}
	if raw == nil {
		return nil, domain.NewNotFound("warehouse %d not found", id)
	}
	w := *raw.(*domain.Warehouse)
	return &w, nil
}

func (m *MemoryAdapter) GetWarehousesByIDs(ctx context.Context, ids []int64) ([]domain.Warehouse, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	return warehousesByIDs(txn, ids)
}

func (m *MemoryAdapter) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableWarehouse, "id")
	if err != nil {
		return nil, fmt.Errorf("query warehouses: %w", err)
	}

	var warehouses []domain.Warehouse
	for raw := it.Next(); raw != nil; raw = it.Next() {
		warehouses = append(warehouses, *raw.(*domain.Warehouse))
	}
	return warehouses, nil
}

func (m *MemoryAdapter) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tableProduct, "id", id)
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	if raw == nil {
		return nil, domain.NewNotFound("product %d not found", id)
	}
	p := *raw.(*domain.Product)
	return &p, nil
}

func (m *MemoryAdapter) GetUserAssignedWarehouses(ctx context.Context, userID int64) ([]domain.Warehouse, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	user, err := firstUser(txn, userID)
	if err != nil {
		return nil, err
	}
	return warehousesByIDs(txn, user.WarehouseIDs)
}

func (m *MemoryAdapter) SetUserAssignedWarehouses(ctx context.Context, userID int64, warehouseIDs []int64) error {
	txn := m.db.Txn(true)
	defer txn.Abort()

	user, err := firstUser(txn, userID)
	if err != nil {
		return err
	}

	updated := *user
	updated.WarehouseIDs = append([]int64(nil), warehouseIDs...)
	updated.UpdatedAt = time.Now().UTC()
	if err := txn.Insert(tableUser, &updated); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	txn.Commit()
	return nil
}

func (m *MemoryAdapter) CreateCount(ctx context.Context, count domain.InventoryCount) (*domain.InventoryCount, error) {
	txn := m.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableWarehouse, "id", count.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("query warehouse: %w", err)
	}
	if raw == nil {
		return nil, domain.NewNotFound("warehouse %d not found", count.WarehouseID)
	}

	count.ID = m.countSeq.Add(1)
	count.Items = nil
	count.ItemCount = 0
	stored := count
	if err := txn.Insert(tableCount, &stored); err != nil {
		return nil, fmt.Errorf("insert count: %w", err)
	}

	txn.Commit()
	return &count, nil
}

func (m *MemoryAdapter) GetCount(ctx context.Context, id int64) (*domain.InventoryCount, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	count, err := firstCount(txn, id)
	if err != nil {
		return nil, err
	}

	out := *count
	out.Items, err = itemsOf(txn, id)
	if err != nil {
		return nil, err
	}
	out.ItemCount = len(out.Items)
	return &out, nil
}

func (m *MemoryAdapter) ListCounts(ctx context.Context, filter domain.CountFilter) ([]domain.InventoryCount, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableCount, "id")
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}

	counts := []domain.InventoryCount{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		c := *raw.(*domain.InventoryCount)
		if !filter.Match(&c) {
			continue
		}
		items, err := itemsOf(txn, c.ID)
		if err != nil {
			return nil, err
		}
		c.ItemCount = len(items)
		counts = append(counts, c)
	}
	return counts, nil
}

func (m *MemoryAdapter) AppendItem(ctx context.Context, countID int64, item domain.CountItem) (*domain.CountItem, error) {
	txn := m.db.Txn(true)
	defer txn.Abort()

	count, err := firstCount(txn, countID)
	if err != nil {
		return nil, err
	}
	if !count.AcceptsItems() {
		return nil, domain.NewInvalidState("count %d is %s and no longer accepts items", countID, count.Status)
	}

	item.ID = m.itemSeq.Add(1)
	item.CountID = countID
	stored := item
	if err := txn.Insert(tableItem, &stored); err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	txn.Commit()
	return &item, nil
}

func (m *MemoryAdapter) CloseCount(ctx context.Context, countID int64, closedAt time.Time) error {
	txn := m.db.Txn(true)
	defer txn.Abort()

	count, err := firstCount(txn, countID)
	if err != nil {
		return err
	}
	if count.IsClosed() {
		return domain.NewInvalidState("count %d is already closed", countID)
	}

	closed := *count
	closed.Status = domain.CountStatusClosed
	closed.ClosedAt = &closedAt
	if err := txn.Insert(tableCount, &closed); err != nil {
		return fmt.Errorf("update count: %w", err)
	}

	txn.Commit()
	return nil
}

// Publish stores the event once; republishing the same event ID is a no-op.
func (m *MemoryAdapter) Publish(ctx context.Context, event domain.CountEvent) error {
	txn := m.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tableEvent, "event_id", event.ID)
	if err != nil {
		return fmt.Errorf("query event: %w", err)
	}
	if existing != nil {
		return nil
	}

	rec := &eventRecord{Seq: m.eventSeq.Add(1), EventID: event.ID, Event: event}
	if err := txn.Insert(tableEvent, rec); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	txn.Commit()
	return nil
}

func (m *MemoryAdapter) Recent(ctx context.Context, limit int) ([]domain.CountEvent, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	it, err := txn.GetReverse(tableEvent, "id")
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	events := []domain.CountEvent{}
	for raw := it.Next(); raw != nil && len(events) < limit; raw = it.Next() {
		events = append(events, raw.(*eventRecord).Event)
	}
	return events, nil
}

func firstUser(txn *memdb.Txn, id int64) (*domain.User, error) {
	raw, err := txn.First(tableUser, "id", id)
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if raw == nil {
		return nil, domain.NewNotFound("user %d not found", id)
	}
	return raw.(*domain.User), nil
}

func firstCount(txn *memdb.Txn, id int64) (*domain.InventoryCount, error) {
	raw, err := txn.First(tableCount, "id", id)
	if err != nil {
		return nil, fmt.Errorf("query count: %w", err)
	}
	if raw == nil {
		return nil, domain.NewNotFound("count %d not found", id)
	}
	return raw.(*domain.InventoryCount), nil
}

func itemsOf(txn *memdb.Txn, countID int64) ([]domain.CountItem, error) {
	it, err := txn.Get(tableItem, "count_id", countID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}

	items := []domain.CountItem{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		items = append(items, *raw.(*domain.CountItem))
	}
	return items, nil
}

func warehousesByIDs(txn *memdb.Txn, ids []int64) ([]domain.Warehouse, error) {
	warehouses := []domain.Warehouse{}
	for _, id := range ids {
		raw, err := txn.First(tableWarehouse, "id", id)
		if err != nil {
			return nil, fmt.Errorf("query warehouse: %w", err)
		}
		if raw != nil {
			warehouses = append(warehouses, *raw.(*domain.Warehouse))
		}
	}
	sort.Slice(warehouses, func(i, j int) bool { return warehouses[i].ID < warehouses[j].ID })
	return warehouses, nil
}
