package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/howlrs/pos-qr-go/internal/api"
	"github.com/howlrs/pos-qr-go/internal/memstore"
	"github.com/howlrs/pos-qr-go/internal/models"
)

// StoreHandler handles store administration
type StoreHandler struct {
	store *memstore.Store
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(store *memstore.Store) *StoreHandler {
	return &StoreHandler{store: store}
}

// RegisterRoutes adds the admin store routes
func (h *StoreHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/admin/stores", h.list).Methods(http.MethodGet)
	r.HandleFunc("/admin/stores", h.create).Methods(http.MethodPost)
	r.HandleFunc("/admin/stores/{storeId}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/admin/stores/{storeId}", h.update).Methods(http.MethodPut)
	r.HandleFunc("/admin/stores/{storeId}", h.delete).Methods(http.MethodDelete)
	r.HandleFunc("/admin/stores/{storeId}/status", h.setStatus).Methods(http.MethodPatch)
	r.HandleFunc("/admin/stores/{storeId}/stats", h.stats).Methods(http.MethodGet)
}

func (h *StoreHandler) list(w http.ResponseWriter, r *http.Request) {
	api.OK(w, h.store.ListStores(listParams(r)))
}

func (h *StoreHandler) get(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.GetStore(mux.Vars(r)["storeId"])
	respondStore(w, http.StatusOK, st, err)
}

func (h *StoreHandler) create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStoreRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, err.Error())
		return
	}
	st, err := h.store.CreateStore(req)
	respondStore(w, http.StatusCreated, st, err)
}

func (h *StoreHandler) update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateStoreRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, err.Error())
		return
	}
	st, err := h.store.UpdateStore(mux.Vars(r)["storeId"], req)
	respondStore(w, http.StatusOK, st, err)
}

func (h *StoreHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, err.Error())
		return
	}
	st, err := h.store.SetStoreActive(mux.Vars(r)["storeId"], req.IsActive)
	respondStore(w, http.StatusOK, st, err)
}

func (h *StoreHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteStore(mux.Vars(r)["storeId"]); err != nil {
		api.FromError(w, err)
		return
	}
	api.OK(w, nil)
}

func (h *StoreHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.StoreStats(mux.Vars(r)["storeId"])
	if err != nil {
		api.FromError(w, err)
		return
	}
	api.OK(w, models.StoreStatsResponse{Stats: *stats})
}

func respondStore(w http.ResponseWriter, status int, st *models.Store, err error) {
	if err != nil {
		api.FromError(w, err)
		return
	}
	api.JSON(w, status, models.StoreResponse{Store: *st})
}
