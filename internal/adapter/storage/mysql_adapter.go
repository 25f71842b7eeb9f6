package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rl1809/stock-count/internal/core/domain"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate creates the schema if it does not exist yet.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := m.db.QueryRowContext(ctx, `
		SELECT id, username, email, role, created_at, updated_at
		FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("user %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT warehouse_id FROM user_warehouses WHERE user_id = ? ORDER BY warehouse_id`, id)
	if err != nil {
		return nil, fmt.Errorf("query user warehouses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var wid int64
		if err := rows.Scan(&wid); err != nil {
			return nil, fmt.Errorf("scan user warehouse: %w", err)
		}
		u.WarehouseIDs = append(u.WarehouseIDs, wid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user warehouses: %w", err)
	}

	return &u, nil
}

func (m *MySQLAdapter) GetWarehouse(ctx context.Context, id int64) (*domain.Warehouse, error) {
	var w domain.Warehouse
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, location, capacity, created_at, updated_at
		FROM warehouses WHERE id = ?`, id,
	).Scan(&w.ID, &w.Name, &w.Location, &w.Capacity, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("warehouse %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query warehouse: %w", err)
	}
	return &w, nil
}

func (m *MySQLAdapter) GetWarehousesByIDs(ctx context.Context, ids []int64) ([]domain.Warehouse, error) {
	if len(ids) == 0 {
		return []domain.Warehouse{}, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return m.queryWarehouses(ctx, `
		SELECT id, name, location, capacity, created_at, updated_at
		FROM warehouses WHERE id IN (`+placeholders(len(ids))+`) ORDER BY id`, args...)
}

func (m *MySQLAdapter) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	return m.queryWarehouses(ctx, `
		SELECT id, name, location, capacity, created_at, updated_at
		FROM warehouses ORDER BY id`)
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var (
		p    domain.Product
		desc sql.NullString
		unit sql.NullString
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, packaging_unit, units_per_package, created_at, updated_at
		FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &desc, &p.Price, &unit, &p.UnitsPerPackage, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("product %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}

	p.Description = desc.String
	p.PackagingUnit = unit.String
	if p.PackagingUnit == "" {
		p.PackagingUnit = domain.DefaultPackagingUnit
	}
	return &p, nil
}

func (m *MySQLAdapter) GetUserAssignedWarehouses(ctx context.Context, userID int64) ([]domain.Warehouse, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if !exists {
		return nil, domain.NewNotFound("user %d not found", userID)
	}

	return m.queryWarehouses(ctx, `
		SELECT w.id, w.name, w.location, w.capacity, w.created_at, w.updated_at
		FROM warehouses w
		JOIN user_warehouses uw ON uw.warehouse_id = w.id
		WHERE uw.user_id = ?
		ORDER BY w.id`, userID)
}

func (m *MySQLAdapter) SetUserAssignedWarehouses(ctx context.Context, userID int64, warehouseIDs []int64) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = ? FOR UPDATE`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFound("user %d not found", userID)
	}
	if err != nil {
		return fmt.Errorf("lock user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_warehouses WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear user warehouses: %w", err)
	}

	for _, wid := range warehouseIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_warehouses (user_id, warehouse_id) VALUES (?, ?)`, userID, wid,
		); err != nil {
			return fmt.Errorf("insert user warehouse: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) CreateCount(ctx context.Context, count domain.InventoryCount) (*domain.InventoryCount, error) {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory_counts (name, cut_off_date, warehouse_id, status, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		count.Name, count.CutOffDate, count.WarehouseID, count.Status, count.CreatedBy, count.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert count: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("count id: %w", err)
	}

	count.ID = id
	count.Items = nil
	count.ItemCount = 0
	return &count, nil
}

func (m *MySQLAdapter) GetCount(ctx context.Context, id int64) (*domain.InventoryCount, error) {
	var (
		c        domain.InventoryCount
		closedAt sql.NullTime
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, cut_off_date, warehouse_id, status, created_by, created_at, closed_at
		FROM inventory_counts WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.CutOffDate, &c.WarehouseID, &c.Status, &c.CreatedBy, &c.CreatedAt, &closedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("count %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query count: %w", err)
	}
	if closedAt.Valid {
		t := closedAt.Time
		c.ClosedAt = &t
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT id, count_id, warehouse_id, product_id, packages_count, quantity, created_at
		FROM inventory_items WHERE count_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	c.Items = []domain.CountItem{}
	for rows.Next() {
		var it domain.CountItem
		if err := rows.Scan(&it.ID, &it.CountID, &it.WarehouseID, &it.ProductID, &it.PackagesCount, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	c.ItemCount = len(c.Items)
	return &c, nil
}

func (m *MySQLAdapter) ListCounts(ctx context.Context, filter domain.CountFilter) ([]domain.InventoryCount, error) {
	var (
		where []string
		args  []any
	)
	if filter.WarehouseID != 0 {
		where = append(where, "c.warehouse_id = ?")
		args = append(args, filter.WarehouseID)
	}
	if filter.Status != "" {
		where = append(where, "c.status = ?")
		args = append(args, filter.Status)
	}

	query := `
		SELECT c.id, c.name, c.cut_off_date, c.warehouse_id, c.status, c.created_by, c.created_at, c.closed_at,
			(SELECT COUNT(*) FROM inventory_items i WHERE i.count_id = c.id)
		FROM inventory_counts c`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY c.id"

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	counts := []domain.InventoryCount{}
	for rows.Next() {
		var (
			c        domain.InventoryCount
			closedAt sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.CutOffDate, &c.WarehouseID, &c.Status, &c.CreatedBy, &c.CreatedAt, &closedAt, &c.ItemCount); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		if closedAt.Valid {
			t := closedAt.Time
			c.ClosedAt = &t
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

// AppendItem locks the count row so a concurrent CloseCount either commits
// before (and the append fails) or waits until the item is durable.
func (m *MySQLAdapter) AppendItem(ctx context.Context, countID int64, item domain.CountItem) (*domain.CountItem, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	status, err := lockCount(ctx, tx, countID)
	if err != nil {
		return nil, err
	}
	if status != domain.CountStatusInProgress {
		return nil, domain.NewInvalidState("count %d is %s and no longer accepts items", countID, status)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO inventory_items (count_id, warehouse_id, product_id, packages_count, quantity, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		countID, item.WarehouseID, item.ProductID, item.PackagesCount, item.Quantity, item.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("item id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	item.ID = id
	item.CountID = countID
	return &item, nil
}

func (m *MySQLAdapter) CloseCount(ctx context.Context, countID int64, closedAt time.Time) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	status, err := lockCount(ctx, tx, countID)
	if err != nil {
		return err
	}
	if status == domain.CountStatusClosed {
		return domain.NewInvalidState("count %d is already closed", countID)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE inventory_counts SET status = ?, closed_at = ? WHERE id = ?`,
		domain.CountStatusClosed, closedAt, countID,
	); err != nil {
		return fmt.Errorf("close count: %w", err)
	}

	return tx.Commit()
}

func lockCount(ctx context.Context, tx *sql.Tx, countID int64) (domain.CountStatus, error) {
	var status domain.CountStatus
	err := tx.QueryRowContext(ctx, `
		SELECT status FROM inventory_counts WHERE id = ? FOR UPDATE`, countID,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.NewNotFound("count %d not found", countID)
	}
	if err != nil {
		return "", fmt.Errorf("lock count: %w", err)
	}
	return status, nil
}

func (m *MySQLAdapter) queryWarehouses(ctx context.Context, query string, args ...any) ([]domain.Warehouse, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query warehouses: %w", err)
	}
	defer rows.Close()

	warehouses := []domain.Warehouse{}
	for rows.Next() {
		var w domain.Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.Location, &w.Capacity, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		warehouses = append(warehouses, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate warehouses: %w", err)
	}
	return warehouses, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
