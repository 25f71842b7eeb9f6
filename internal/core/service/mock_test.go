package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rl1809/stock-count/internal/core/domain"
)

var errStoreDown = errors.New("store unavailable")

// mockCatalog is a map-backed CatalogRepository that counts assignment reads.
type mockCatalog struct {
	mu          sync.Mutex
	users       map[int64]domain.User
	warehouses  map[int64]domain.Warehouse
	products    map[int64]domain.Product
	assignReads int
	fail        error
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		users:      make(map[int64]domain.User),
		warehouses: make(map[int64]domain.Warehouse),
		products:   make(map[int64]domain.Product),
	}
}

func (m *mockCatalog) addWarehouses(ids ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.warehouses[id] = domain.Warehouse{ID: id, Name: fmt.Sprintf("W%d", id)}
	}
}

func (m *mockCatalog) addUser(u domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *mockCatalog) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	u, ok := m.users[id]
	if !ok {
		return nil, domain.NewNotFound("user %d not found", id)
	}
	return &u, nil
}

func (m *mockCatalog) GetWarehouse(ctx context.Context, id int64) (*domain.Warehouse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	w, ok := m.warehouses[id]
	if !ok {
		return nil, domain.NewNotFound("warehouse %d not found", id)
	}
	return &w, nil
}

func (m *mockCatalog) GetWarehousesByIDs(ctx context.Context, ids []int64) ([]domain.Warehouse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byIDs(ids), nil
}

func (m *mockCatalog) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	ids := make([]int64, 0, len(m.warehouses))
	for id := range m.warehouses {
		ids = append(ids, id)
	}
	return m.byIDs(ids), nil
}

func (m *mockCatalog) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.NewNotFound("product %d not found", id)
	}
	return &p, nil
}

func (m *mockCatalog) GetUserAssignedWarehouses(ctx context.Context, userID int64) ([]domain.Warehouse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignReads++
	if m.fail != nil {
		return nil, m.fail
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, domain.NewNotFound("user %d not found", userID)
	}
	return m.byIDs(u.WarehouseIDs), nil
}

func (m *mockCatalog) SetUserAssignedWarehouses(ctx context.Context, userID int64, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return domain.NewNotFound("user %d not found", userID)
	}
	u.WarehouseIDs = append([]int64(nil), ids...)
	m.users[userID] = u
	return nil
}

func (m *mockCatalog) byIDs(ids []int64) []domain.Warehouse {
	out := []domain.Warehouse{}
	for _, id := range ids {
		if w, ok := m.warehouses[id]; ok {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
