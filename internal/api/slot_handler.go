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

type SlotAPI interface {
	Create(ctx context.Context, actor auth.Actor, in service.CreateSlotInput) (*db.ParkingSlot, error)
	Get(ctx context.Context, id string) (*db.ParkingSlot, error)
	Update(ctx context.Context, actor auth.Actor, id string, patch service.SlotPatch) (*db.ParkingSlot, error)
	Delete(ctx context.Context, actor auth.Actor, id string) error
	List(ctx context.Context, filter entities.SlotFilter, page entities.Page) ([]db.ParkingSlot, int, error)
	FindAvailable(ctx context.Context, window entities.TimeWindow, filter entities.AvailabilityFilter) ([]db.ParkingSlot, error)
}

type SlotHandler struct {
	Service SlotAPI
}

func NewSlotHandler(svc SlotAPI) *SlotHandler {
	return &SlotHandler{Service: svc}
}

func (h *SlotHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	var req CreateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	slot, err := h.Service.Create(r.Context(), actor, service.CreateSlotInput{
		SlotNumber:  req.SlotNumber,
		Type:        entities.SlotType(req.Type),
		Size:        entities.SlotSize(req.Size),
		VehicleType: entities.VehicleType(req.VehicleType),
		IsAvailable: req.IsAvailable,
		Location:    req.Location,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

func (h *SlotHandler) Get(w http.ResponseWriter, r *http.Request) {
	slot, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (h *SlotHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	var req UpdateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	patch := service.SlotPatch{
		SlotNumber:  req.SlotNumber,
		IsAvailable: req.IsAvailable,
		Location:    req.Location,
	}
	if req.Type != nil {
		t := entities.SlotType(*req.Type)
		patch.Type = &t
	}
	if req.Size != nil {
		s := entities.SlotSize(*req.Size)
		patch.Size = &s
	}
	if req.VehicleType != nil {
		v := entities.VehicleType(*req.VehicleType)
		patch.VehicleType = &v
	}
	slot, err := h.Service.Update(r.Context(), actor, mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (h *SlotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	if err := h.Service.Delete(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Parking slot deleted successfully"})
}

func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := entities.SlotFilter{SlotNumber: q.Get("slot_number")}
	if raw := q.Get("type"); raw != "" {
		if !entities.ValidSlotType(raw) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid slot type"})
			return
		}
		t := entities.SlotType(raw)
		filter.Type = &t
	}
	if raw := q.Get("size"); raw != "" {
		if !entities.ValidSlotSize(raw) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid slot size"})
			return
		}
		s := entities.SlotSize(raw)
		filter.Size = &s
	}
	if raw := q.Get("vehicle_type"); raw != "" {
		if !entities.ValidVehicleType(raw) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid vehicle type"})
			return
		}
		v := entities.VehicleType(raw)
		filter.VehicleType = &v
	}
	switch q.Get("is_available") {
	case "true":
		v := true
		filter.IsAvailable = &v
	case "false":
		v := false
		filter.IsAvailable = &v
	}

	page := parsePage(r)
	slots, total, err := h.Service.List(r.Context(), filter, page)
	if err != nil {
		writeError(w, err)
		return
	}
	if slots == nil {
		slots = []db.ParkingSlot{}
	}
	writeJSON(w, http.StatusOK, newListResponse(slots, page, total))
}

// FindAvailable resolves availability for a time window with optional
// type/size/vehicle_type filters.
func (h *SlotHandler) FindAvailable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	window, err := parseWindow(q.Get("start_time"), q.Get("end_time"))
	if err != nil {
		writeError(w, err)
		return
	}

	filter := entities.AvailabilityFilter{}
	if raw := q.Get("type"); raw != "" {
		t := entities.SlotType(raw)
		filter.Type = &t
	}
	if raw := q.Get("size"); raw != "" {
		s := entities.SlotSize(raw)
		filter.Size = &s
	}
	if raw := q.Get("vehicle_type"); raw != "" {
		v := entities.VehicleType(raw)
		filter.VehicleType = &v
	}

	slots, err := h.Service.FindAvailable(r.Context(), window, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if slots == nil {
		slots = []db.ParkingSlot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}
