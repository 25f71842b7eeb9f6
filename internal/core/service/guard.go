package service

import (
	"context"
	"fmt"

	"github.com/rl1809/stock-count/internal/core/domain"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionView   Action = "view"
	ActionModify Action = "modify"
	ActionClose  Action = "close"
	ActionList   Action = "list"
)

// ClosePolicy decides who may close a count.
type ClosePolicy string

const (
	// ClosePolicyAdmin lets only administrators close counts.
	ClosePolicyAdmin ClosePolicy = "admin"
	// ClosePolicyAssigned lets any actor with access to the warehouse close.
	ClosePolicyAssigned ClosePolicy = "assigned"
)

func ParseClosePolicy(s string) (ClosePolicy, error) {
	switch p := ClosePolicy(s); p {
	case ClosePolicyAdmin, ClosePolicyAssigned:
		return p, nil
	}
	return "", fmt.Errorf("unknown close policy %q", s)
}

type Decision struct {
	Allowed bool
	Reason  domain.DenyReason
}

var allow = Decision{Allowed: true}

func deny(reason domain.DenyReason) Decision {
	return Decision{Reason: reason}
}

// Err converts a denial into a domain error; it returns nil when allowed.
func (d Decision) Err(action Action, warehouseID int64) error {
	if d.Allowed {
		return nil
	}
	if d.Reason == domain.ReasonAdminRequired {
		return domain.NewAccessDenied(d.Reason, "only administrators may %s counts", action)
	}
	return domain.NewAccessDenied(d.Reason, "not assigned to warehouse %d", warehouseID)
}

// Guard authorizes count operations against the resolver's output. Admins
// go through the same path; the resolver hands them the whole catalog.
type Guard struct {
	resolver    *WarehouseResolver
	closePolicy ClosePolicy
}

func NewGuard(resolver *WarehouseResolver, closePolicy ClosePolicy) *Guard {
	if closePolicy == "" {
		closePolicy = ClosePolicyAdmin
	}
	return &Guard{resolver: resolver, closePolicy: closePolicy}
}

func (g *Guard) Authorize(ctx context.Context, user domain.User, warehouseID int64, action Action) (Decision, error) {
	if action == ActionClose && g.closePolicy == ClosePolicyAdmin && !user.IsAdmin() {
		return deny(domain.ReasonAdminRequired), nil
	}

	set, err := g.resolver.AccessibleSet(ctx, user)
	if err != nil {
		return Decision{}, err
	}
	if !set.Contains(warehouseID) {
		return deny(domain.ReasonNotAssigned), nil
	}
	return allow, nil
}

// FilterCounts keeps the counts whose warehouse user may see, preserving order.
func (g *Guard) FilterCounts(ctx context.Context, user domain.User, counts []domain.InventoryCount) ([]domain.InventoryCount, error) {
	set, err := g.resolver.AccessibleSet(ctx, user)
	if err != nil {
		return nil, err
	}

	visible := make([]domain.InventoryCount, 0, len(counts))
	for _, c := range counts {
		if set.Contains(c.WarehouseID) {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// FilterEvents is FilterCounts for activity feed entries.
func (g *Guard) FilterEvents(ctx context.Context, user domain.User, events []domain.CountEvent) ([]domain.CountEvent, error) {
	set, err := g.resolver.AccessibleSet(ctx, user)
	if err != nil {
		return nil, err
	}

	visible := make([]domain.CountEvent, 0, len(events))
	for _, e := range events {
		if set.Contains(e.WarehouseID) {
			visible = append(visible, e)
		}
	}
	return visible, nil
}

// RequireAdmin guards catalog-level operations that are not scoped to a warehouse.
func (g *Guard) RequireAdmin(user domain.User) error {
	if user.IsAdmin() {
		return nil
	}
	return domain.NewAccessDenied(domain.ReasonAdminRequired, "administrator role required")
}
