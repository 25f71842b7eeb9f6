package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/stock-count/internal/core/domain"
	"github.com/rl1809/stock-count/internal/port"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

// NewCount is the input of CreateCount. CutOffDate is a YYYY-MM-DD date.
type NewCount struct {
	Name        string
	CutOffDate  string
	WarehouseID int64
}

type QuantityPreview struct {
	Product       domain.Product
	PackagesCount int
	Quantity      int
}

type CountService struct {
	catalog port.CatalogRepository
	counts  port.CountRepository
	feed    port.EventRepository
	guard   *Guard
	logger  *zap.Logger
	events  chan domain.CountEvent
	now     func() time.Time
}

// NewCountService wires the lifecycle manager. feed may be nil, in which case
// RecentActivity returns nothing. Accepted mutations are queued on Events()
// for asynchronous publishing; when the queue is full the event is dropped.
func NewCountService(catalog port.CatalogRepository, counts port.CountRepository, feed port.EventRepository, guard *Guard, queueSize int, logger *zap.Logger) *CountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CountService{
		catalog: catalog,
		counts:  counts,
		feed:    feed,
		guard:   guard,
		logger:  logger,
		events:  make(chan domain.CountEvent, queueSize),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *CountService) CreateCount(ctx context.Context, creator domain.User, in NewCount) (*domain.CountDetail, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidation("name is required")
	}
	rawDate := strings.TrimSpace(in.CutOffDate)
	if rawDate == "" {
		return nil, domain.NewValidation("cut-off date is required")
	}
	cutOff, err := time.Parse(domain.CutOffDateLayout, rawDate)
	if err != nil {
		return nil, domain.NewValidation("cut-off date %q is not a YYYY-MM-DD date", rawDate)
	}

	warehouse, err := s.catalog.GetWarehouse(ctx, in.WarehouseID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewValidation("warehouse %d does not exist", in.WarehouseID)
	}
	if err != nil {
		return nil, fmt.Errorf("get warehouse %d: %w", in.WarehouseID, err)
	}

	if err := s.authorize(ctx, creator, warehouse.ID, ActionCreate); err != nil {
		return nil, err
	}

	created, err := s.counts.CreateCount(ctx, domain.InventoryCount{
		Name:        name,
		CutOffDate:  cutOff,
		WarehouseID: warehouse.ID,
		Status:      domain.CountStatusInProgress,
		CreatedBy:   creator.ID,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return nil, storeErr("create count", err)
	}

	s.logger.Info("count created",
		zap.Int64("count_id", created.ID),
		zap.Int64("warehouse_id", created.WarehouseID),
		zap.Int64("actor_id", creator.ID),
	)
	s.emit(domain.CountEvent{
		Type:        domain.EventCountCreated,
		CountID:     created.ID,
		WarehouseID: created.WarehouseID,
		ActorID:     creator.ID,
		OccurredAt:  created.CreatedAt,
	})

	return &domain.CountDetail{
		InventoryCount:  *created,
		WarehouseName:   warehouse.Name,
		CreatorUsername: creator.Username,
	}, nil
}

func (s *CountService) AddItem(ctx context.Context, actor domain.User, countID, productID int64, packagesCount int) (*domain.CountItem, error) {
	count, err := s.counts.GetCount(ctx, countID)
	if err != nil {
		return nil, storeErr("get count", err)
	}
	if !count.AcceptsItems() {
		return nil, domain.NewInvalidState("count %d is %s and no longer accepts items", count.ID, count.Status)
	}

	if err := s.authorize(ctx, actor, count.WarehouseID, ActionModify); err != nil {
		return nil, err
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, storeErr("get product", err)
	}

	quantity, err := ComputeQuantity(*product, packagesCount)
	if err != nil {
		return nil, err
	}

	item, err := s.counts.AppendItem(ctx, count.ID, domain.CountItem{
		CountID:       count.ID,
		WarehouseID:   count.WarehouseID,
		ProductID:     product.ID,
		PackagesCount: packagesCount,
		Quantity:      quantity,
		CreatedAt:     s.now(),
	})
	if err != nil {
		return nil, storeErr("append item", err)
	}

	s.logger.Info("item added",
		zap.Int64("count_id", count.ID),
		zap.Int64("item_id", item.ID),
		zap.Int64("product_id", item.ProductID),
		zap.Int("packages_count", item.PackagesCount),
		zap.Int("quantity", item.Quantity),
		zap.Int64("actor_id", actor.ID),
	)
	s.emit(domain.CountEvent{
		Type:        domain.EventItemAdded,
		CountID:     count.ID,
		WarehouseID: count.WarehouseID,
		ActorID:     actor.ID,
		ItemID:      item.ID,
		ProductID:   item.ProductID,
		Quantity:    item.Quantity,
		OccurredAt:  item.CreatedAt,
	})

	return item, nil
}

// CloseCount freezes the count. Closing twice fails with ErrInvalidState.
func (s *CountService) CloseCount(ctx context.Context, actor domain.User, countID int64) (*domain.CountDetail, error) {
	count, err := s.counts.GetCount(ctx, countID)
	if err != nil {
		return nil, storeErr("get count", err)
	}
	if count.IsClosed() {
		return nil, domain.NewInvalidState("count %d is already closed", count.ID)
	}

	if err := s.authorize(ctx, actor, count.WarehouseID, ActionClose); err != nil {
		return nil, err
	}

	closedAt := s.now()
	if err := s.counts.CloseCount(ctx, count.ID, closedAt); err != nil {
		return nil, storeErr("close count", err)
	}

	closed, err := s.counts.GetCount(ctx, count.ID)
	if err != nil {
		return nil, storeErr("reload count", err)
	}

	s.logger.Info("count closed",
		zap.Int64("count_id", closed.ID),
		zap.Int64("warehouse_id", closed.WarehouseID),
		zap.Int("items", len(closed.Items)),
		zap.Int64("actor_id", actor.ID),
	)
	s.emit(domain.CountEvent{
		Type:        domain.EventCountClosed,
		CountID:     closed.ID,
		WarehouseID: closed.WarehouseID,
		ActorID:     actor.ID,
		OccurredAt:  closedAt,
	})

	return s.detail(ctx, closed), nil
}

// ListCounts applies filter in the store, then drops counts outside the
// actor's accessible warehouses.
func (s *CountService) ListCounts(ctx context.Context, actor domain.User, filter domain.CountFilter) ([]domain.CountDetail, error) {
	counts, err := s.counts.ListCounts(ctx, filter)
	if err != nil {
		return nil, storeErr("list counts", err)
	}

	visible, err := s.guard.FilterCounts(ctx, actor, counts)
	if err != nil {
		return nil, err
	}

	names := newNameCache(s.catalog)
	details := make([]domain.CountDetail, 0, len(visible))
	for _, c := range visible {
		details = append(details, domain.CountDetail{
			InventoryCount:  c,
			WarehouseName:   names.warehouse(ctx, c.WarehouseID),
			CreatorUsername: names.user(ctx, c.CreatedBy),
		})
	}
	return details, nil
}

func (s *CountService) GetCountDetail(ctx context.Context, actor domain.User, countID int64) (*domain.CountDetail, error) {
	count, err := s.counts.GetCount(ctx, countID)
	if err != nil {
		return nil, storeErr("get count", err)
	}

	if err := s.authorize(ctx, actor, count.WarehouseID, ActionView); err != nil {
		return nil, err
	}

	return s.detail(ctx, count), nil
}

func (s *CountService) ListItems(ctx context.Context, actor domain.User, countID int64) ([]domain.CountItem, error) {
	detail, err := s.GetCountDetail(ctx, actor, countID)
	if err != nil {
		return nil, err
	}
	return detail.Items, nil
}

func (s *CountService) AccessibleWarehouses(ctx context.Context, actor domain.User) ([]domain.Warehouse, error) {
	return s.guard.resolver.ResolveAccessibleWarehouses(ctx, actor)
}

// PreviewQuantity computes the units an item would get without recording it.
func (s *CountService) PreviewQuantity(ctx context.Context, productID int64, packagesCount int) (*QuantityPreview, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, storeErr("get product", err)
	}

	quantity, err := ComputeQuantity(*product, packagesCount)
	if err != nil {
		return nil, err
	}

	return &QuantityPreview{Product: *product, PackagesCount: packagesCount, Quantity: quantity}, nil
}

// RecentActivity returns the newest feed events the actor may see.
func (s *CountService) RecentActivity(ctx context.Context, actor domain.User, limit int) ([]domain.CountEvent, error) {
	if s.feed == nil {
		return []domain.CountEvent{}, nil
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	events, err := s.feed.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("read activity feed: %w", err)
	}
	return s.guard.FilterEvents(ctx, actor, events)
}

func (s *CountService) Events() <-chan domain.CountEvent {
	return s.events
}

// Close stops the event queue. Call it after the transports have stopped.
func (s *CountService) Close() {
	close(s.events)
}

func (s *CountService) authorize(ctx context.Context, actor domain.User, warehouseID int64, action Action) error {
	decision, err := s.guard.Authorize(ctx, actor, warehouseID, action)
	if err != nil {
		return fmt.Errorf("authorize %s: %w", action, err)
	}
	if !decision.Allowed {
		s.logger.Warn("access denied",
			zap.Int64("actor_id", actor.ID),
			zap.Int64("warehouse_id", warehouseID),
			zap.String("action", string(action)),
			zap.String("reason", string(decision.Reason)),
		)
	}
	return decision.Err(action, warehouseID)
}

func (s *CountService) emit(event domain.CountEvent) {
	event.ID = uuid.NewString()
	select {
	case s.events <- event:
	default:
		s.logger.Warn("event queue full, dropping event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Int64("count_id", event.CountID),
		)
	}
}

func (s *CountService) detail(ctx context.Context, count *domain.InventoryCount) *domain.CountDetail {
	names := newNameCache(s.catalog)
	return &domain.CountDetail{
		InventoryCount:  *count,
		WarehouseName:   names.warehouse(ctx, count.WarehouseID),
		CreatorUsername: names.user(ctx, count.CreatedBy),
	}
}

// storeErr passes rule violations through untouched and wraps anything else.
func storeErr(op string, err error) error {
	if domain.KindOf(err) != 0 {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

// nameCache memoizes display names for the duration of one operation.
type nameCache struct {
	catalog    port.CatalogRepository
	warehouses map[int64]string
	users      map[int64]string
}

func newNameCache(catalog port.CatalogRepository) *nameCache {
	return &nameCache{
		catalog:    catalog,
		warehouses: make(map[int64]string),
		users:      make(map[int64]string),
	}
}

func (c *nameCache) warehouse(ctx context.Context, id int64) string {
	if name, ok := c.warehouses[id]; ok {
		return name
	}
	var name string
	if w, err := c.catalog.GetWarehouse(ctx, id); err == nil {
		name = w.Name
	}
	c.warehouses[id] = name
	return name
}

func (c *nameCache) user(ctx context.Context, id int64) string {
	if name, ok := c.users[id]; ok {
		return name
	}
	var name string
	if u, err := c.catalog.GetUser(ctx, id); err == nil {
		name = u.Username
	}
	c.users[id] = name
	return name
}
