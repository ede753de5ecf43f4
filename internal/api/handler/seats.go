package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/howlrs/pos-qr-go/internal/api"
	"github.com/howlrs/pos-qr-go/internal/memstore"
	"github.com/howlrs/pos-qr-go/internal/middleware"
	"github.com/howlrs/pos-qr-go/internal/models"
)

// SeatHandler handles the seats of the caller's store
type SeatHandler struct {
	store *memstore.Store
}

// NewSeatHandler creates a new seat handler
func NewSeatHandler(store *memstore.Store) *SeatHandler {
	return &SeatHandler{store: store}
}

// RegisterRoutes adds the store seat routes
func (h *SeatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/store/seats", h.withStore(h.list)).Methods(http.MethodGet)
	r.HandleFunc("/store/seats", h.withStore(h.create)).Methods(http.MethodPost)
	r.HandleFunc("/store/seats/{seatId}", h.withStore(h.get)).Methods(http.MethodGet)
	r.HandleFunc("/store/seats/{seatId}", h.withStore(h.update)).Methods(http.MethodPut)
	r.HandleFunc("/store/seats/{seatId}", h.withStore(h.delete)).Methods(http.MethodDelete)
	r.HandleFunc("/store/seats/{seatId}/status", h.withStore(h.setStatus)).Methods(http.MethodPatch)
	r.HandleFunc("/store/seats/{seatId}/qr", h.withStore(h.qr)).Methods(http.MethodGet)
	r.HandleFunc("/store/seats/{seatId}/qr/regenerate", h.withStore(h.regenerateQR)).Methods(http.MethodPost)
}

type seatHandlerFunc func(w http.ResponseWriter, r *http.Request, storeID string)

// withStore resolves the store the caller manages from its token
func (h *SeatHandler) withStore(next seatHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || claims.StoreID == "" {
			api.Forbidden(w, "no store assigned")
			return
		}
		next(w, r, claims.StoreID)
	}
}

func (h *SeatHandler) list(w http.ResponseWriter, r *http.Request, storeID string) {
	api.OK(w, h.store.ListSeats(storeID, listParams(r)))
}

func (h *SeatHandler) get(w http.ResponseWriter, r *http.Request, storeID string) {
	seat, err := h.store.GetSeat(storeID, mux.Vars(r)["seatId"])
	respondSeat(w, http.StatusOK, seat, err)
}

func (h *SeatHandler) create(w http.ResponseWriter, r *http.Request, storeID string) {
	var req models.CreateSeatRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, err.Error())
		return
	}
	seat, err := h.store.CreateSeat(storeID, req)
	respondSeat(w, http.StatusCreated, seat, err)
}

func (h *SeatHandler) update(w http.ResponseWriter, r *http.Request, storeID string) {
	var req models.UpdateSeatRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, err.Error())
		return
	}
	seat, err := h.store.UpdateSeat(storeID, mux.Vars(r)["seatId"], req)
	respondSeat(w, http.StatusOK, seat, err)
}

func (h *SeatHandler) setStatus(w http.ResponseWriter, r *http.Request, storeID string) {
	var req models.SeatStatusRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, err.Error())
		return
	}
	seat, err := h.store.SetSeatStatus(storeID, mux.Vars(r)["seatId"], req.Status)
	respondSeat(w, http.StatusOK, seat, err)
}

func (h *SeatHandler) delete(w http.ResponseWriter, r *http.Request, storeID string) {
	if err := h.store.DeleteSeat(storeID, mux.Vars(r)["seatId"]); err != nil {
		api.FromError(w, err)
		return
	}
	api.OK(w, nil)
}

func (h *SeatHandler) qr(w http.ResponseWriter, r *http.Request, storeID string) {
	qr, err := h.store.SeatQR(storeID, mux.Vars(r)["seatId"])
	if err != nil {
		api.FromError(w, err)
		return
	}
	api.OK(w, qr)
}

func (h *SeatHandler) regenerateQR(w http.ResponseWriter, r *http.Request, storeID string) {
	qr, err := h.store.RegenerateSeatQR(storeID, mux.Vars(r)["seatId"])
	if err != nil {
		api.FromError(w, err)
		return
	}
	api.OK(w, qr)
}

func respondSeat(w http.ResponseWriter, status int, seat *models.Seat, err error) {
	if err != nil {
		api.FromError(w, err)
		return
	}
	api.JSON(w, status, models.SeatResponse{Seat: *seat})
}
