package models

import "time"

// SessionStatus represents the lifecycle state of an order session
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusExpired   SessionStatus = "expired"
)

// SeatRef is the seat summary embedded in an order session
type SeatRef struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Name   string `json:"name"`
}

// StoreRef is the store summary embedded in an order session
type StoreRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// OrderSession is a seat+store pairing created when a customer scans a QR code
type OrderSession struct {
	ID        string        `json:"id"`
	SeatID    string        `json:"seatId"`
	StoreID   string        `json:"storeId"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Seat      SeatRef       `json:"seat"`
	Store     StoreRef      `json:"store"`
}

// Usable reports whether cart and order operations are allowed at now
func (s *OrderSession) Usable(now time.Time) bool {
	if s == nil {
		return false
	}
	return s.Status == SessionStatusActive && now.Before(s.ExpiresAt)
}

// Remaining returns the time left before the session expires, never negative
func (s *OrderSession) Remaining(now time.Time) time.Duration {
	if s == nil || !now.Before(s.ExpiresAt) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}
