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

type BookingAPI interface {
	Create(ctx context.Context, actor auth.Actor, in service.CreateBookingInput) (*db.Booking, error)
	Get(ctx context.Context, actor auth.Actor, bookingID string) (*entities.BookingDetail, error)
	List(ctx context.Context, actor auth.Actor, status *entities.BookingStatus, page entities.Page) ([]db.Booking, int, error)
	Approve(ctx context.Context, actor auth.Actor, bookingID string) (*service.ApprovalResult, error)
	Reject(ctx context.Context, actor auth.Actor, bookingID string) (*db.Booking, error)
	Cancel(ctx context.Context, actor auth.Actor, bookingID string) (*db.Booking, error)
	CompleteExit(ctx context.Context, actor auth.Actor, bookingID string) (*db.Booking, error)
	RecordPayment(ctx context.Context, actor auth.Actor, bookingID string) (*db.Booking, error)
	Checkout(ctx context.Context, actor auth.Actor, bookingID string) (*entities.CheckoutSession, error)
	Receipt(ctx context.Context, actor auth.Actor, bookingID string) ([]byte, error)
}

type BookingHandler struct {
	Service BookingAPI
}

func NewBookingHandler(svc BookingAPI) *BookingHandler {
	return &BookingHandler{Service: svc}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	window, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		writeError(w, err)
		return
	}
	booking, err := h.Service.Create(r.Context(), actor, service.CreateBookingInput{
		SlotID:    req.SlotID,
		VehicleID: req.VehicleID,
		PlanID:    req.PlanID,
		Window:    window,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	detail, err := h.Service.Get(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	var status *entities.BookingStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		if !entities.ValidBookingStatus(raw) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid booking status"})
			return
		}
		s := entities.BookingStatus(raw)
		status = &s
	}

	page := parsePage(r)
	bookings, total, err := h.Service.List(r.Context(), actor, status, page)
	if err != nil {
		writeError(w, err)
		return
	}
	if bookings == nil {
		bookings = []db.Booking{}
	}
	writeJSON(w, http.StatusOK, newListResponse(bookings, page, total))
}

func (h *BookingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	result, err := h.Service.Approve(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	booking, err := h.Service.Reject(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	booking, err := h.Service.Cancel(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) CompleteExit(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	booking, err := h.Service.CompleteExit(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) Pay(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	booking, err := h.Service.RecordPayment(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	session, err := h.Service.Checkout(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Receipt serves the rendered ticket as HTML rather than a JSON envelope.
func (h *BookingHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	receipt, err := h.Service.Receipt(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(receipt)
}
