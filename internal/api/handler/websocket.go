package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/howlrs/pos-qr-go/internal/api"
	"github.com/howlrs/pos-qr-go/internal/memstore"
	"github.com/howlrs/pos-qr-go/internal/websockets"
)

// WebSocketHandler upgrades order feed subscriptions
type WebSocketHandler struct {
	hub      *websockets.Hub
	store    *memstore.Store
	upgrader *websocket.Upgrader
}

func NewWebSocketHandler(hub *websockets.Hub, store *memstore.Store, origins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		store:    store,
		upgrader: websockets.NewUpgrader(origins),
	}
}

// RegisterRoutes adds the order feed route
func (h *WebSocketHandler) RegisterRoutes(r *mux.Router) {
	r.Handle("/ws/order/{sessionId}", h).Methods(http.MethodGet)
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	if _, err := h.store.Session(sessionID); err != nil {
		api.FromError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written the error response
		return
	}

	websockets.ServeWs(h.hub, conn, sessionID)
}
