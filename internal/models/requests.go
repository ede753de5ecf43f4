package models

// AddToCartRequest adds a menu item to the session cart
type AddToCartRequest struct {
	MenuItemID          string `json:"menuItemId"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"specialInstructions,omitempty"`
}

// UpdateCartItemRequest changes the quantity of a cart line
type UpdateCartItemRequest struct {
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"specialInstructions,omitempty"`
}

// PlaceOrderRequest turns the current cart into an order
type PlaceOrderRequest struct {
	SpecialInstructions string `json:"specialInstructions,omitempty"`
}

// OrderSessionResponse is the bootstrap payload for an order session
type OrderSessionResponse struct {
	Session OrderSession `json:"session"`
	Menu    Menu         `json:"menu"`
	Cart    Cart         `json:"cart"`
}

// MenuResponse wraps the session menu
type MenuResponse = Menu

// CartResponse wraps the session cart
type CartResponse struct {
	Cart Cart `json:"cart"`
}

// PlaceOrderResponse carries the created order and an advisory wait estimate
type PlaceOrderResponse struct {
	Order             Order `json:"order"`
	EstimatedWaitTime int   `json:"estimatedWaitTime"` // minutes
}

// OrderHistoryResponse lists the orders placed in a session, most recent first
type OrderHistoryResponse struct {
	Orders     []Order `json:"orders"`
	TotalCount int     `json:"totalCount"`
}

// OrderStatusRequest is used by staff to advance an order
type OrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}
