package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/howlrs/pos-qr-go/internal/api"
	"github.com/howlrs/pos-qr-go/internal/memstore"
	"github.com/howlrs/pos-qr-go/internal/middleware"
	"github.com/howlrs/pos-qr-go/internal/models"
)

// ManagerHandler handles store manager accounts
type ManagerHandler struct {
	store *memstore.Store
}

// NewManagerHandler creates a new manager handler
func NewManagerHandler(store *memstore.Store) *ManagerHandler {
	return &ManagerHandler{store: store}
}

// RegisterRoutes adds the admin manager routes
func (h *ManagerHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/admin/managers", h.list).Methods(http.MethodGet)
	r.HandleFunc("/admin/managers", h.create).Methods(http.MethodPost)
	r.HandleFunc("/admin/managers/{managerId}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/admin/managers/{managerId}", h.update).Methods(http.MethodPut)
	r.HandleFunc("/admin/managers/{managerId}", h.delete).Methods(http.MethodDelete)
	r.HandleFunc("/admin/managers/{managerId}/status", h.setStatus).Methods(http.MethodPatch)
}

func (h *ManagerHandler) list(w http.ResponseWriter, r *http.Request) {
	api.OK(w, h.store.ListManagers(listParams(r)))
}

func (h *ManagerHandler) get(w http.ResponseWriter, r *http.Request) {
	m, err := h.store.Manager(mux.Vars(r)["managerId"])
	respondManager(w, http.StatusOK, m, err)
}

func (h *ManagerHandler) create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateManagerRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, err.Error())
		return
	}
	createdBy, _ := middleware.GetUserID(r.Context())
	m, err := h.store.CreateManager(req, createdBy)
	respondManager(w, http.StatusCreated, m, err)
}

func (h *ManagerHandler) update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateManagerRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, err.Error())
		return
	}
	m, err := h.store.UpdateManager(mux.Vars(r)["managerId"], req)
	respondManager(w, http.StatusOK, m, err)
}

func (h *ManagerHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, err.Error())
		return
	}
	m, err := h.store.SetManagerActive(mux.Vars(r)["managerId"], req.IsActive)
	respondManager(w, http.StatusOK, m, err)
}

func (h *ManagerHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteManager(mux.Vars(r)["managerId"]); err != nil {
		api.FromError(w, err)
		return
	}
	api.OK(w, nil)
}

func respondManager(w http.ResponseWriter, status int, m *models.Manager, err error) {
	if err != nil {
		api.FromError(w, err)
		return
	}
	api.JSON(w, status, models.ManagerResponse{Manager: *m})
}
