package models

import "time"

// SeatStatus represents the floor state of a seat
type SeatStatus string

const (
	SeatStatusAvailable   SeatStatus = "available"
	SeatStatusOccupied    SeatStatus = "occupied"
	SeatStatusReserved    SeatStatus = "reserved"
	SeatStatusCleaning    SeatStatus = "cleaning"
	SeatStatusMaintenance SeatStatus = "maintenance"
)

// Valid reports whether s is a known seat status
func (s SeatStatus) Valid() bool {
	switch s {
	case SeatStatusAvailable, SeatStatusOccupied, SeatStatusReserved,
		SeatStatusCleaning, SeatStatusMaintenance:
		return true
	}
	return false
}

// SeatPosition places a seat on the floor plan
type SeatPosition struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Seat is a table or counter seat with its QR code
type Seat struct {
	ID          string        `json:"id"`
	StoreID     string        `json:"storeId"`
	Number      string        `json:"number"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Capacity    int           `json:"capacity"`
	Status      SeatStatus    `json:"status"`
	QRCode      string        `json:"qrCode"`
	QRCodeURL   string        `json:"qrCodeUrl"`
	Position    *SeatPosition `json:"position,omitempty"`
	IsActive    bool          `json:"isActive"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// CreateSeatRequest is used for seat creation
type CreateSeatRequest struct {
	Number      string        `json:"number"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Capacity    int           `json:"capacity"`
	Position    *SeatPosition `json:"position,omitempty"`
}

// UpdateSeatRequest is used for partial seat updates
type UpdateSeatRequest struct {
	Number      *string       `json:"number,omitempty"`
	Name        *string       `json:"name,omitempty"`
	Description *string       `json:"description,omitempty"`
	Capacity    *int          `json:"capacity,omitempty"`
	Status      *SeatStatus   `json:"status,omitempty"`
	Position    *SeatPosition `json:"position,omitempty"`
	IsActive    *bool         `json:"isActive,omitempty"`
}

// SeatResponse wraps a single seat
type SeatResponse struct {
	Seat Seat `json:"seat"`
}

// SeatsListResponse is a page of seats
type SeatsListResponse struct {
	Seats []Seat `json:"seats"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// QRCodeResponse describes the QR code printed on a seat
type QRCodeResponse struct {
	QRCode     string `json:"qrCode"`
	QRCodeURL  string `json:"qrCodeUrl"`
	SessionURL string `json:"sessionUrl"`
}
