package handler

import (
	"time"

	"github.com/rl1809/stock-count/internal/core/domain"
	"github.com/rl1809/stock-count/internal/core/service"
)

type CreateCountRequest struct {
	Name        string `json:"name"`
	CutOffDate  string `json:"cut_off_date"`
	WarehouseID int64  `json:"warehouse_id" binding:"required"`
}

// AddItemRequest has no quantity field; the server always derives it.
type AddItemRequest struct {
	ProductID     int64 `json:"product_id" binding:"required"`
	PackagesCount int   `json:"packages_count"`
}

type AssignWarehousesRequest struct {
	WarehouseIDs []int64 `json:"warehouse_ids" binding:"required"`
}

type CountResponse struct {
	ID              int64              `json:"id"`
	Name            string             `json:"name"`
	CutOffDate      string             `json:"cut_off_date"`
	WarehouseID     int64              `json:"warehouse_id"`
	WarehouseName   string             `json:"warehouse_name"`
	Status          domain.CountStatus `json:"status"`
	ReadOnly        bool               `json:"read_only"`
	CreatedBy       int64              `json:"created_by"`
	CreatorUsername string             `json:"creator_username"`
	CreatedAt       time.Time          `json:"created_at"`
	ClosedAt        *time.Time         `json:"closed_at"`
	ItemsCount      int                `json:"items_count"`
	Items           []ItemResponse     `json:"items,omitempty"`
}

type ItemResponse struct {
	ID            int64     `json:"id"`
	CountID       int64     `json:"count_id"`
	WarehouseID   int64     `json:"warehouse_id"`
	ProductID     int64     `json:"product_id"`
	PackagesCount int       `json:"packages_count"`
	Quantity      int       `json:"quantity"`
	CreatedAt     time.Time `json:"created_at"`
}

type WarehouseResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

type QuantityPreviewResponse struct {
	ProductID       int64  `json:"product_id"`
	PackagingUnit   string `json:"packaging_unit"`
	UnitsPerPackage int    `json:"units_per_package"`
	PackagesCount   int    `json:"packages_count"`
	Quantity        int    `json:"quantity"`
}

type EventResponse struct {
	ID          string           `json:"id"`
	Type        domain.EventType `json:"type"`
	CountID     int64            `json:"count_id"`
	WarehouseID int64            `json:"warehouse_id"`
	ActorID     int64            `json:"actor_id"`
	ItemID      int64            `json:"item_id,omitempty"`
	ProductID   int64            `json:"product_id,omitempty"`
	Quantity    int              `json:"quantity,omitempty"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"`
}

func toCountResponse(d *domain.CountDetail, withItems bool) CountResponse {
	resp := CountResponse{
		ID:              d.ID,
		Name:            d.Name,
		CutOffDate:      d.CutOffDate.Format(domain.CutOffDateLayout),
		WarehouseID:     d.WarehouseID,
		WarehouseName:   d.WarehouseName,
		Status:          d.Status,
		ReadOnly:        !d.AcceptsItems(),
		CreatedBy:       d.CreatedBy,
		CreatorUsername: d.CreatorUsername,
		CreatedAt:       d.CreatedAt,
		ClosedAt:        d.ClosedAt,
		ItemsCount:      d.ItemCount,
	}
	if len(d.Items) > resp.ItemsCount {
		resp.ItemsCount = len(d.Items)
	}
	if withItems {
		resp.Items = toItemResponses(d.Items)
	}
	return resp
}

func toCountResponses(details []domain.CountDetail) []CountResponse {
	out := make([]CountResponse, 0, len(details))
	for i := range details {
		out = append(out, toCountResponse(&details[i], false))
	}
	return out
}

func toItemResponse(it domain.CountItem) ItemResponse {
	return ItemResponse{
		ID:            it.ID,
		CountID:       it.CountID,
		WarehouseID:   it.WarehouseID,
		ProductID:     it.ProductID,
		PackagesCount: it.PackagesCount,
		Quantity:      it.Quantity,
		CreatedAt:     it.CreatedAt,
	}
}

func toItemResponses(items []domain.CountItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResponse(it))
	}
	return out
}

func toWarehouseResponses(warehouses []domain.Warehouse) []WarehouseResponse {
	out := make([]WarehouseResponse, 0, len(warehouses))
	for _, w := range warehouses {
		out = append(out, WarehouseResponse{ID: w.ID, Name: w.Name, Location: w.Location, Capacity: w.Capacity})
	}
	return out
}

func toQuantityPreviewResponse(p *service.QuantityPreview) QuantityPreviewResponse {
	return QuantityPreviewResponse{
		ProductID:       p.Product.ID,
		PackagingUnit:   p.Product.PackagingUnit,
		UnitsPerPackage: p.Product.PackageSize(),
		PackagesCount:   p.PackagesCount,
		Quantity:        p.Quantity,
	}
}

func toEventResponses(events []domain.CountEvent) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventResponse{
			ID:          e.ID,
			Type:        e.Type,
			CountID:     e.CountID,
			WarehouseID: e.WarehouseID,
			ActorID:     e.ActorID,
			ItemID:      e.ItemID,
			ProductID:   e.ProductID,
			Quantity:    e.Quantity,
			OccurredAt:  e.OccurredAt,
		})
	}
	return out
}
