package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"parkreserve/internal/auth"
	"parkreserve/internal/db"
)

type PaymentAPI interface {
	Get(ctx context.Context, actor auth.Actor, id string) (*db.Payment, error)
	ListMine(ctx context.Context, actor auth.Actor) ([]db.Payment, error)
}

type PaymentHandler struct {
	Service PaymentAPI
}

func NewPaymentHandler(svc PaymentAPI) *PaymentHandler {
	return &PaymentHandler{Service: svc}
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	payment, err := h.Service.Get(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	payments, err := h.Service.ListMine(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	if payments == nil {
		payments = []db.Payment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
}
