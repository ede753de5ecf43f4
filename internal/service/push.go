package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/howlrs/pos-qr-go/internal/client"
	"github.com/howlrs/pos-qr-go/internal/models"
)

// Push message types
const (
	FeedOrderUpdate = "order.update"
	FeedPing        = "ping"
	FeedPong        = "pong"
)

// FeedMessage is one push message of the order status feed
type FeedMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

// Order decodes the order carried by an order.update message
func (m FeedMessage) Order() (*models.Order, error) {
	if len(m.Data) == 0 {
		return nil, errors.New("feed message has no data")
	}
	var o models.Order
	if err := json.Unmarshal(m.Data, &o); err != nil {
		return nil, fmt.Errorf("decode feed order: %w", err)
	}
	return &o, nil
}

// StatusFeed listens for pushed order updates of a session and marks its
// history stale when one arrives. It only speeds up what RefreshHistory
// already does.
type StatusFeed struct {
	baseURL string
	dialer  *websocket.Dialer
	logger  log.FieldLogger
}

// NewStatusFeed creates a feed against baseURL, a ws:// or wss:// root. An
// http(s) root is converted.
func NewStatusFeed(baseURL string, logger log.FieldLogger) *StatusFeed {
	if logger == nil {
		logger = log.StandardLogger()
	}
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		baseURL = "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		baseURL = "ws://" + strings.TrimPrefix(baseURL, "http://")
	}
	return &StatusFeed{
		baseURL: strings.TrimRight(baseURL, "/"),
		dialer:  websocket.DefaultDialer,
		logger:  logger,
	}
}

// URL returns the feed address of a session
func (f *StatusFeed) URL(sessionID string) string {
	return f.baseURL + client.StatusFeedPath(sessionID)
}

// Run subscribes to the feed of s until ctx ends or the connection drops.
// Every order.update invalidates the session history before onUpdate runs.
func (f *StatusFeed) Run(ctx context.Context, s *OrderSession, onUpdate func(FeedMessage)) error {
	target := f.URL(s.ID())
	if _, err := url.Parse(target); err != nil {
		return fmt.Errorf("status feed url: %w", err)
	}

	conn, resp, err := f.dialer.DialContext(ctx, target, http.Header{})
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial status feed: %s: %w", resp.Status, err)
		}
		return fmt.Errorf("dial status feed: %w", err)
	}
	defer conn.Close()

	logger := f.logger.WithField("sessionId", s.ID())
	logger.Info("Subscribed to order status feed")

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read status feed: %w", err)
		}

		// The server may batch several messages in one frame.
		dec := json.NewDecoder(bytes.NewReader(raw))
		for dec.More() {
			var msg FeedMessage
			if err := dec.Decode(&msg); err != nil {
				logger.WithError(err).Warn("Skipping unreadable feed message")
				break
			}
			switch msg.Type {
			case FeedOrderUpdate:
				s.InvalidateHistory()
				if onUpdate != nil {
					onUpdate(msg)
				}
			case FeedPing:
				pong, _ := json.Marshal(FeedMessage{Type: FeedPong})
				if err := conn.WriteMessage(websocket.TextMessage, pong); err != nil {
					return fmt.Errorf("write pong: %w", err)
				}
			default:
				logger.WithField("type", msg.Type).Debug("Ignoring feed message")
			}
		}
	}
}
