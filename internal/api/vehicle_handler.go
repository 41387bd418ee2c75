package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"parkreserve/internal/auth"
	"parkreserve/internal/db"
	"parkreserve/internal/entities"
	"parkreserve/internal/service"
)

type VehicleAPI interface {
	Create(ctx context.Context, actor auth.Actor, in service.CreateVehicleInput) (*db.Vehicle, error)
	Get(ctx context.Context, actor auth.Actor, id string) (*db.Vehicle, error)
	GetByPlate(ctx context.Context, actor auth.Actor, plate string) (*db.Vehicle, error)
	Update(ctx context.Context, actor auth.Actor, id string, patch service.VehiclePatch) (*db.Vehicle, error)
	Delete(ctx context.Context, actor auth.Actor, id string) error
	List(ctx context.Context, actor auth.Actor, filter entities.VehicleFilter, page entities.Page) ([]db.Vehicle, int, error)
}

type VehicleHandler struct {
	Service VehicleAPI
}

func NewVehicleHandler(svc VehicleAPI) *VehicleHandler {
	return &VehicleHandler{Service: svc}
}

func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	var req CreateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	vehicle, err := h.Service.Create(r.Context(), actor, service.CreateVehicleInput{
		PlateNumber: req.PlateNumber,
		Type:        entities.VehicleType(req.Type),
		Size:        entities.SlotSize(req.Size),
		Attributes:  req.Attributes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, vehicle)
}

func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	vehicle, err := h.Service.Get(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

func (h *VehicleHandler) GetByPlate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	vehicle, err := h.Service.GetByPlate(r.Context(), actor, mux.Vars(r)["plate"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	var req UpdateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	patch := service.VehiclePatch{
		PlateNumber: req.PlateNumber,
		Attributes:  req.Attributes,
	}
	if req.Type != nil {
		t := entities.VehicleType(*req.Type)
		patch.Type = &t
	}
	if req.Size != nil {
		s := entities.SlotSize(*req.Size)
		patch.Size = &s
	}
	vehicle, err := h.Service.Update(r.Context(), actor, mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	if err := h.Service.Delete(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Vehicle deleted successfully"})
}

func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	q := r.URL.Query()
	filter := entities.VehicleFilter{PlateNumber: q.Get("plate_number")}
	if raw := q.Get("type"); raw != "" {
		if !entities.ValidVehicleType(raw) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid vehicle type"})
			return
		}
		t := entities.VehicleType(raw)
		filter.Type = &t
	}

	page := parsePage(r)
	vehicles, total, err := h.Service.List(r.Context(), actor, filter, page)
	if err != nil {
		writeError(w, err)
		return
	}
	if vehicles == nil {
		vehicles = []db.Vehicle{}
	}
	writeJSON(w, http.StatusOK, newListResponse(vehicles, page, total))
}
