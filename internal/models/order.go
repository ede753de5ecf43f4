package models

import "time"

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusServed    OrderStatus = "served"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderFlow is the forward progression of a non-cancelled order
var orderFlow = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusServed,
}

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:   "注文受付中",
	OrderStatusConfirmed: "注文確認済み",
	OrderStatusPreparing: "調理中",
	OrderStatusReady:     "準備完了",
	OrderStatusServed:    "提供済み",
	OrderStatusCancelled: "キャンセル",
}

var orderStatusColors = map[OrderStatus]string{
	OrderStatusPending:   "orange",
	OrderStatusConfirmed: "blue",
	OrderStatusPreparing: "purple",
	OrderStatusReady:     "green",
	OrderStatusServed:    "gray",
	OrderStatusCancelled: "red",
}

var orderStatusMessages = map[OrderStatus]string{
	OrderStatusPending:   "ご注文を受け付けました。確認中です...",
	OrderStatusConfirmed: "ご注文を確認しました。調理を開始します。",
	OrderStatusPreparing: "調理中です。もうしばらくお待ちください。",
	OrderStatusReady:     "お料理が完成しました！スタッフがお持ちします。",
	OrderStatusServed:    "お料理をお渡ししました。ありがとうございます！",
	OrderStatusCancelled: "ご注文がキャンセルされました。",
}

// IsActive reports whether the order is still in the kitchen pipeline
func (s OrderStatus) IsActive() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing, OrderStatusReady:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusServed || s == OrderStatusCancelled
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

// CanTransitionTo reports whether the server may move an order from s to next.
// Orders only move forward, and any active order may be cancelled.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() || !next.Valid() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	return flowIndex(next) > flowIndex(s)
}

func flowIndex(s OrderStatus) int {
	for i, st := range orderFlow {
		if st == s {
			return i
		}
	}
	return -1
}

// Label returns the customer-facing label for the status
func (s OrderStatus) Label() string {
	if l, ok := orderStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Color returns the display color for the status
func (s OrderStatus) Color() string {
	if c, ok := orderStatusColors[s]; ok {
		return c
	}
	return "default"
}

// Message returns the customer-facing progress message for the status
func (s OrderStatus) Message() string {
	if m, ok := orderStatusMessages[s]; ok {
		return m
	}
	return "状況を確認中です..."
}

// Order represents a placed customer order. The client never changes its status.
type Order struct {
	ID                  string      `json:"id"`
	SessionID           string      `json:"sessionId"`
	OrderNumber         string      `json:"orderNumber"`
	Status              OrderStatus `json:"status"`
	Items               []OrderItem `json:"items"`
	TotalAmount         int64       `json:"totalAmount"`
	SpecialInstructions string      `json:"specialInstructions,omitempty"`
	PlacedAt            time.Time   `json:"placedAt"`
	EstimatedReadyAt    *time.Time  `json:"estimatedReadyAt,omitempty"`
	CompletedAt         *time.Time  `json:"completedAt,omitempty"`
}

// OrderItem is an immutable snapshot of a cart line at placement time
type OrderItem struct {
	ID                  string    `json:"id"`
	OrderID             string    `json:"orderId"`
	MenuItemID          string    `json:"menuItemId"`
	MenuItem            *MenuItem `json:"menuItem,omitempty"`
	Quantity            int       `json:"quantity"`
	UnitPrice           int64     `json:"unitPrice"`
	TotalPrice          int64     `json:"totalPrice"`
	SpecialInstructions string    `json:"specialInstructions,omitempty"`
}

// Name returns the display name of the ordered item
func (i OrderItem) Name() string {
	if i.MenuItem != nil && i.MenuItem.Name != "" {
		return i.MenuItem.Name
	}
	return i.MenuItemID
}

// ActiveOrder returns the first active order in history. History is expected
// most recent first, as served.
func ActiveOrder(history []Order) (Order, bool) {
	for _, o := range history {
		if o.Status.IsActive() {
			return o, true
		}
	}
	return Order{}, false
}
