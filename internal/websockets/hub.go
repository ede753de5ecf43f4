package websockets

import (
	"context"
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Hub fans order updates out to the clients subscribed to each session
type Hub struct {
	clients map[*Client]bool

	register chan *Client

	unregister chan *Client

	sessionChannels map[string]map[*Client]bool

	done chan struct{}

	logger log.FieldLogger

	mu sync.Mutex
}

func NewHub(logger log.FieldLogger) *Hub {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Hub{
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		clients:         make(map[*Client]bool),
		sessionChannels: make(map[string]map[*Client]bool),
		done:            make(chan struct{}),
		logger:          logger,
	}
}

// Subscribers returns the number of clients listening to sessionID
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessionChannels[sessionID])
}

// PublishToSession sends msg to every client of sessionID. Clients that cannot
// keep up are dropped.
func (h *Hub) PublishToSession(sessionID string, msg Message) {
	msg.SessionID = sessionID
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).Error("Error marshaling message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.sessionChannels[sessionID] {
		select {
		case client.send <- payload:
		default:
			h.dropLocked(client)
		}
	}
}

// PublishOrderUpdate announces a changed order to its session
func (h *Hub) PublishOrderUpdate(sessionID string, order any) {
	data, err := json.Marshal(order)
	if err != nil {
		h.logger.WithError(err).Error("Error marshaling order")
		return
	}
	h.PublishToSession(sessionID, Message{Type: TypeOrderUpdate, Data: data})
}

// dropLocked forgets client and closes its send channel. Callers hold h.mu.
func (h *Hub) dropLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if subs, ok := h.sessionChannels[client.sessionID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.sessionChannels, client.sessionID)
		}
	}
	close(client.send)
}

// Run serves registrations until ctx ends, then disconnects every client
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.mu.Lock()
		for client := range h.clients {
			h.dropLocked(client)
		}
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if _, ok := h.sessionChannels[client.sessionID]; !ok {
				h.sessionChannels[client.sessionID] = make(map[*Client]bool)
			}
			h.sessionChannels[client.sessionID][client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			h.dropLocked(client)
			h.mu.Unlock()
		}
	}
}
