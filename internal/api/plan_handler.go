package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"parkreserve/internal/db"
	"parkreserve/internal/entities"
	"parkreserve/internal/service"
)

type PlanAPI interface {
	Create(ctx context.Context, in service.CreatePlanInput) (*db.PaymentPlan, error)
	Get(ctx context.Context, id string) (*db.PaymentPlan, error)
	Update(ctx context.Context, id string, patch service.PlanPatch) (*db.PaymentPlan, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]db.PaymentPlan, error)
}

type PlanHandler struct {
	Service PlanAPI
}

func NewPlanHandler(svc PlanAPI) *PlanHandler {
	return &PlanHandler{Service: svc}
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	plan, err := h.Service.Create(r.Context(), service.CreatePlanInput{
		Name:         req.Name,
		Type:         entities.PlanType(req.Type),
		PriceCents:   req.PriceCents,
		DurationDays: req.DurationDays,
		Description:  req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	plan, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	patch := service.PlanPatch{
		Name:         req.Name,
		PriceCents:   req.PriceCents,
		DurationDays: req.DurationDays,
		Description:  req.Description,
	}
	if req.Type != nil {
		t := entities.PlanType(*req.Type)
		patch.Type = &t
	}
	plan, err := h.Service.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Plan deleted successfully"})
}

func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if plans == nil {
		plans = []db.PaymentPlan{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
}
