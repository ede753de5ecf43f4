package memstore

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/howlrs/pos-qr-go/internal/models"
)

// qrImageSize is the edge length of generated QR code images
const qrImageSize = 256

// ListStores returns a page of stores
func (s *Store) ListStores(params models.ListParams) *models.StoresListResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(params.Search)
	var all []models.Store
	for _, st := range s.stores {
		if params.IsActive != nil && st.IsActive != *params.IsActive {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(st.Name), q) && !strings.Contains(strings.ToLower(st.Address), q) {
			continue
		}
		all = append(all, *st)
	}
	sortedByCreation(all, func(st models.Store) time.Time { return st.CreatedAt }, func(st models.Store) string { return st.ID })
	items, total, p, l := page(all, params)
	return &models.StoresListResponse{Stores: items, Total: total, Page: p, Limit: l}
}

// GetStore returns a store
func (s *Store) GetStore(id string) (*models.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stores[id]
	if !ok {
		return nil, notFound("store", id)
	}
	out := *st
	return &out, nil
}

// CreateStore creates a store with default settings unless given
func (s *Store) CreateStore(req models.CreateStoreRequest) (*models.Store, error) {
	if req.Name == "" {
		return nil, invalid("store name is required")
	}
	now := s.now()
	st := &models.Store{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		Phone:       req.Phone,
		Email:       req.Email,
		IsActive:    true,
		Settings:    defaultSettings(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Settings != nil {
		st.Settings = *req.Settings
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores[st.ID] = st
	out := *st
	return &out, nil
}

func defaultSettings() models.StoreSettings {
	return models.StoreSettings{
		Timezone:     "Asia/Tokyo",
		Currency:     "JPY",
		Language:     "ja",
		OrderTimeout: 30,
		MaxSeats:     50,
		Features:     []models.StoreFeature{models.FeatureQROrdering, models.FeatureTableService},
	}
}

// UpdateStore applies a partial update to a store
func (s *Store) UpdateStore(id string, req models.UpdateStoreRequest) (*models.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stores[id]
	if !ok {
		return nil, notFound("store", id)
	}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, invalid("store name is required")
		}
		st.Name = *req.Name
	}
	if req.Description != nil {
		st.Description = *req.Description
	}
	if req.Address != nil {
		st.Address = *req.Address
	}
	if req.Phone != nil {
		st.Phone = *req.Phone
	}
	if req.Email != nil {
		st.Email = *req.Email
	}
	if req.IsActive != nil {
		st.IsActive = *req.IsActive
	}
	if req.Settings != nil {
		st.Settings = *req.Settings
	}
	st.UpdatedAt = s.now()
	out := *st
	return &out, nil
}

// SetStoreActive toggles a store's active flag
func (s *Store) SetStoreActive(id string, active bool) (*models.Store, error) {
	return s.UpdateStore(id, models.UpdateStoreRequest{IsActive: &active})
}

// DeleteStore removes a store and its seats
func (s *Store) DeleteStore(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stores[id]; !ok {
		return notFound("store", id)
	}
	delete(s.stores, id)
	delete(s.menus, id)
	for seatID, seat := range s.seats {
		if seat.StoreID == id {
			delete(s.seats, seatID)
			delete(s.qrs, seatID)
		}
	}
	return nil
}

// StoreStats summarizes the orders placed at a store
func (s *Store) StoreStats(id string) (*models.StoreStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stores[id]; !ok {
		return nil, notFound("store", id)
	}

	var stats models.StoreStats
	y, m, d := s.now().Date()
	for _, seat := range s.seats {
		if seat.StoreID == id && seat.Status == models.SeatStatusOccupied {
			stats.ActiveSeats++
		}
	}
	for _, o := range s.byID {
		sess, ok := s.sessions[o.SessionID]
		if !ok || sess.StoreID != id || o.Status == models.OrderStatusCancelled {
			continue
		}
		stats.TotalOrders++
		stats.TotalRevenue += o.TotalAmount
		if oy, om, od := o.PlacedAt.Date(); oy == y && om == m && od == d {
			stats.OrdersToday++
			stats.RevenueToday += o.TotalAmount
		}
	}
	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = float64(stats.TotalRevenue) / float64(stats.TotalOrders)
	}
	return &stats, nil
}

// ListSeats returns a page of a store's seats
func (s *Store) ListSeats(storeID string, params models.ListParams) *models.SeatsListResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(params.Search)
	var all []models.Seat
	for _, seat := range s.seats {
		if seat.StoreID != storeID {
			continue
		}
		if params.Status != "" && string(seat.Status) != params.Status {
			continue
		}
		if params.IsActive != nil && seat.IsActive != *params.IsActive {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(seat.Name), q) && !strings.Contains(strings.ToLower(seat.Number), q) {
			continue
		}
		all = append(all, *seat)
	}
	sortedByCreation(all, func(st models.Seat) time.Time { return st.CreatedAt }, func(st models.Seat) string { return st.Number })
	items, total, p, l := page(all, params)
	return &models.SeatsListResponse{Seats: items, Total: total, Page: p, Limit: l}
}

func (s *Store) seatLocked(storeID, id string) (*models.Seat, error) {
	seat, ok := s.seats[id]
	if !ok || seat.StoreID != storeID {
		return nil, notFound("seat", id)
	}
	return seat, nil
}

// GetSeat returns a seat of a store
func (s *Store) GetSeat(storeID, id string) (*models.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, err := s.seatLocked(storeID, id)
	if err != nil {
		return nil, err
	}
	out := *seat
	return &out, nil
}

// CreateSeat adds a seat to a store and issues its first QR code
func (s *Store) CreateSeat(storeID string, req models.CreateSeatRequest) (*models.Seat, error) {
	if req.Number == "" || req.Capacity <= 0 {
		return nil, invalid("seat number and a positive capacity are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stores[storeID]; !ok {
		return nil, notFound("store", storeID)
	}
	for _, seat := range s.seats {
		if seat.StoreID == storeID && seat.Number == req.Number {
			return nil, invalid("seat number %s already exists", req.Number)
		}
	}
	now := s.now()
	seat := &models.Seat{
		ID:          uuid.NewString(),
		StoreID:     storeID,
		Number:      req.Number,
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
		Status:      models.SeatStatusAvailable,
		Position:    req.Position,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.seats[seat.ID] = seat
	if _, err := s.issueQRLocked(seat, ""); err != nil {
		delete(s.seats, seat.ID)
		return nil, err
	}
	out := *seat
	return &out, nil
}

// UpdateSeat applies a partial update to a seat
func (s *Store) UpdateSeat(storeID, id string, req models.UpdateSeatRequest) (*models.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, err := s.seatLocked(storeID, id)
	if err != nil {
		return nil, err
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, invalid("unknown seat status %q", *req.Status)
	}
	if req.Capacity != nil && *req.Capacity <= 0 {
		return nil, invalid("capacity must be positive")
	}
	if req.Number != nil {
		seat.Number = *req.Number
	}
	if req.Name != nil {
		seat.Name = *req.Name
	}
	if req.Description != nil {
		seat.Description = *req.Description
	}
	if req.Capacity != nil {
		seat.Capacity = *req.Capacity
	}
	if req.Status != nil {
		seat.Status = *req.Status
	}
	if req.Position != nil {
		seat.Position = req.Position
	}
	if req.IsActive != nil {
		seat.IsActive = *req.IsActive
	}
	seat.UpdatedAt = s.now()
	out := *seat
	return &out, nil
}

// SetSeatStatus changes a seat's floor status
func (s *Store) SetSeatStatus(storeID, id string, status models.SeatStatus) (*models.Seat, error) {
	return s.UpdateSeat(storeID, id, models.UpdateSeatRequest{Status: &status})
}

// DeleteSeat removes a seat and retires its QR code
func (s *Store) DeleteSeat(storeID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.seatLocked(storeID, id); err != nil {
		return err
	}
	if sid, ok := s.qrs[id]; ok {
		if sess, ok := s.sessions[sid]; ok && sess.Status == models.SessionStatusActive {
			sess.Status = models.SessionStatusCompleted
		}
	}
	delete(s.seats, id)
	delete(s.qrs, id)
	return nil
}

// SeatQR returns the current QR code of a seat
func (s *Store) SeatQR(storeID, id string) (*models.QRCodeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, err := s.seatLocked(storeID, id)
	if err != nil {
		return nil, err
	}
	return &models.QRCodeResponse{
		QRCode:     seat.QRCode,
		QRCodeURL:  seat.QRCodeURL,
		SessionURL: s.sessionURL(s.qrs[id]),
	}, nil
}

// RegenerateSeatQR opens a new session for the seat and completes the old one
func (s *Store) RegenerateSeatQR(storeID, id string) (*models.QRCodeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, err := s.seatLocked(storeID, id)
	if err != nil {
		return nil, err
	}
	if old, ok := s.sessions[s.qrs[id]]; ok && old.Status == models.SessionStatusActive {
		old.Status = models.SessionStatusCompleted
	}
	return s.issueQRLocked(seat, "")
}

func (s *Store) sessionURL(sessionID string) string {
	return strings.TrimRight(s.opts.PublicURL, "/") + "/order/" + sessionID
}

// issueQRLocked opens a session for seat and renders its QR code. An empty
// sessionID gets a fresh one. Callers hold s.mu.
func (s *Store) issueQRLocked(seat *models.Seat, sessionID string) (*models.QRCodeResponse, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	now := s.now()
	st := s.stores[seat.StoreID]
	sess := &models.OrderSession{
		ID:        sessionID,
		SeatID:    seat.ID,
		StoreID:   seat.StoreID,
		Status:    models.SessionStatusActive,
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.SessionTTL),
		Seat:      models.SeatRef{ID: seat.ID, Number: seat.Number, Name: seat.Name},
	}
	if st != nil {
		sess.Store = models.StoreRef{ID: st.ID, Name: st.Name, Address: st.Address, Phone: st.Phone}
	}

	url := s.sessionURL(sessionID)
	png, err := qrcode.Encode(url, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, err
	}

	s.sessions[sessionID] = sess
	s.qrs[seat.ID] = sessionID
	seat.QRCode = uuid.NewString()
	seat.QRCodeURL = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	seat.UpdatedAt = now

	return &models.QRCodeResponse{QRCode: seat.QRCode, QRCodeURL: seat.QRCodeURL, SessionURL: url}, nil
}
