package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/howlrs/pos-qr-go/internal/api"
	"github.com/howlrs/pos-qr-go/internal/memstore"
	"github.com/howlrs/pos-qr-go/internal/models"
	"github.com/howlrs/pos-qr-go/internal/websockets"
)

// OrderHandler handles the customer ordering flow and staff order updates
type OrderHandler struct {
	store  *memstore.Store
	hub    *websockets.Hub
	logger log.FieldLogger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(store *memstore.Store, hub *websockets.Hub, logger log.FieldLogger) *OrderHandler {
	return &OrderHandler{store: store, hub: hub, logger: logger}
}

// RegisterRoutes adds the public customer routes
func (h *OrderHandler) RegisterRoutes(r *mux.Router) {
	s := r.PathPrefix("/order/session/{sessionId}").Subrouter()
	s.HandleFunc("", h.getSession).Methods(http.MethodGet)
	s.HandleFunc("/menu", h.getMenu).Methods(http.MethodGet)
	s.HandleFunc("/cart", h.getCart).Methods(http.MethodGet)
	s.HandleFunc("/cart", h.addToCart).Methods(http.MethodPost)
	s.HandleFunc("/cart", h.clearCart).Methods(http.MethodDelete)
	s.HandleFunc("/cart/items/{itemId}", h.updateCartItem).Methods(http.MethodPut)
	s.HandleFunc("/cart/items/{itemId}", h.removeCartItem).Methods(http.MethodDelete)
	s.HandleFunc("/place", h.placeOrder).Methods(http.MethodPost)
	s.HandleFunc("/history", h.history).Methods(http.MethodGet)
}

// RegisterStaffRoutes adds the store routes that move orders along
func (h *OrderHandler) RegisterStaffRoutes(r *mux.Router) {
	r.HandleFunc("/store/orders/{orderId}/status", h.updateStatus).Methods(http.MethodPatch)
}

func (h *OrderHandler) getSession(w http.ResponseWriter, r *http.Request) {
	resp, err := h.store.Session(mux.Vars(r)["sessionId"])
	if err != nil {
		api.FromError(w, err)
		return
	}
	api.OK(w, resp)
}

func (h *OrderHandler) getMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.store.Menu(mux.Vars(r)["sessionId"])
	if err != nil {
		api.FromError(w, err)
		return
	}
	api.OK(w, menu)
}

func (h *OrderHandler) getCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.store.Cart(mux.Vars(r)["sessionId"])
	respondCart(w, cart, err)
}

func (h *OrderHandler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req models.AddToCartRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, err.Error())
		return
	}
	cart, err := h.store.AddToCart(mux.Vars(r)["sessionId"], req)
	respondCart(w, cart, err)
}

func (h *OrderHandler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCartItemRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, err.Error())
		return
	}
	vars := mux.Vars(r)
	cart, err := h.store.UpdateCartItem(vars["sessionId"], vars["itemId"], req)
	respondCart(w, cart, err)
}

func (h *OrderHandler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	cart, err := h.store.RemoveCartItem(vars["sessionId"], vars["itemId"])
	respondCart(w, cart, err)
}

func (h *OrderHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.store.ClearCart(mux.Vars(r)["sessionId"])
	respondCart(w, cart, err)
}

func respondCart(w http.ResponseWriter, cart *models.Cart, err error) {
	if err != nil {
		api.FromError(w, err)
		return
	}
	api.OK(w, models.CartResponse{Cart: *cart})
}

func (h *OrderHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req models.PlaceOrderRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, err.Error())
		return
	}
	sessionID := mux.Vars(r)["sessionId"]
	resp, err := h.store.PlaceOrder(sessionID, req)
	if err != nil {
		api.FromError(w, err)
		return
	}

	h.logger.WithFields(log.Fields{
		"sessionId":   sessionID,
		"orderNumber": resp.Order.OrderNumber,
	}).Info("Order placed")
	api.Created(w, resp)
}

func (h *OrderHandler) history(w http.ResponseWriter, r *http.Request) {
	resp, err := h.store.History(mux.Vars(r)["sessionId"])
	if err != nil {
		api.FromError(w, err)
		return
	}
	api.OK(w, resp)
}

// updateStatus advances an order and notifies the session's subscribers
func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.OrderStatusRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, err.Error())
		return
	}
	order, err := h.store.AdvanceOrder(mux.Vars(r)["orderId"], req.Status)
	if err != nil {
		api.FromError(w, err)
		return
	}

	h.hub.PublishOrderUpdate(order.SessionID, order)
	api.OK(w, order)
}
