package enums

import (
	"fmt"
	"slices"
)

// OrderStatus tracks the lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderSuccessors lists the legal next states. Terminal states have none.
var orderSuccessors = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: nil,
	OrderStatusCancelled: nil,
}

func (v OrderStatus) String() string { return string(v) }

func (v OrderStatus) IsValid() bool {
	_, ok := orderSuccessors[v]
	return ok
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	if v := OrderStatus(value); v.IsValid() {
		return v, nil
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

func (v OrderStatus) IsTerminal() bool {
	return v.IsValid() && len(orderSuccessors[v]) == 0
}

// CanTransitionTo reports whether next is a legal successor of v.
func (v OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return slices.Contains(orderSuccessors[v], next)
}
