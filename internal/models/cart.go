package models

import (
	"fmt"
	"time"
)

// Cart quantity bounds for a single line
const (
	MinItemQuantity = 1
	MaxItemQuantity = 99
)

// CartItem is a single line in a cart
type CartItem struct {
	ID                  string    `json:"id"`
	MenuItemID          string    `json:"menuItemId"`
	MenuItem            *MenuItem `json:"menuItem,omitempty"`
	Quantity            int       `json:"quantity"`
	UnitPrice           int64     `json:"unitPrice"`
	TotalPrice          int64     `json:"totalPrice"`
	SpecialInstructions string    `json:"specialInstructions,omitempty"`
	AddedAt             time.Time `json:"addedAt"`
}

// Cart is owned by exactly one order session. Totals are derived from items.
type Cart struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"sessionId"`
	Items       []CartItem `json:"items"`
	TotalItems  int        `json:"totalItems"`
	TotalAmount int64      `json:"totalAmount"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// IsEmpty reports whether the cart has no lines. A nil cart is empty.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Recalculate derives line and cart totals from quantities and unit prices
func (c *Cart) Recalculate() {
	c.TotalItems = 0
	c.TotalAmount = 0
	for i := range c.Items {
		it := &c.Items[i]
		it.TotalPrice = it.UnitPrice * int64(it.Quantity)
		c.TotalItems += it.Quantity
		c.TotalAmount += it.TotalPrice
	}
}

// Validate checks that the stored totals agree with the items
func (c *Cart) Validate() error {
	var items int
	var amount int64
	for _, it := range c.Items {
		if it.Quantity < MinItemQuantity || it.Quantity > MaxItemQuantity {
			return fmt.Errorf("cart item %s: quantity %d out of range", it.ID, it.Quantity)
		}
		if it.TotalPrice != it.UnitPrice*int64(it.Quantity) {
			return fmt.Errorf("cart item %s: total price %d does not match %d x %d",
				it.ID, it.TotalPrice, it.Quantity, it.UnitPrice)
		}
		items += it.Quantity
		amount += it.TotalPrice
	}
	if items != c.TotalItems {
		return fmt.Errorf("cart total items %d does not match sum %d", c.TotalItems, items)
	}
	if amount != c.TotalAmount {
		return fmt.Errorf("cart total amount %d does not match sum %d", c.TotalAmount, amount)
	}
	return nil
}

// Line finds a cart line by ID
func (c *Cart) Line(itemID string) (CartItem, bool) {
	if c == nil {
		return CartItem{}, false
	}
	for _, it := range c.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return CartItem{}, false
}
