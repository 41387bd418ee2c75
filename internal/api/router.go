package api

import (
	"github.com/gorilla/mux"

	"parkreserve/internal/auth"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth     *AuthHandler
	Slots    *SlotHandler
	Vehicles *VehicleHandler
	Plans    *PlanHandler
	Bookings *BookingHandler
	Payments *PaymentHandler
	Logs     *LogHandler
}

// NewRouter mounts the public, authenticated, and admin route groups.
func NewRouter(h Handlers, jwtSecret string) *mux.Router {
	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/auth/register", h.Auth.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", h.Auth.Login).Methods("POST")
	r.HandleFunc("/api/plans", h.Plans.List).Methods("GET")
	r.HandleFunc("/api/plans/{id}", h.Plans.Get).Methods("GET")

	// Authenticated endpoints
	authed := r.PathPrefix("/api").Subrouter()
	authed.Use(auth.Middleware(jwtSecret))

	authed.HandleFunc("/slots", h.Slots.List).Methods("GET")
	authed.HandleFunc("/slots/available", h.Slots.FindAvailable).Methods("GET")
	authed.HandleFunc("/slots/{id}", h.Slots.Get).Methods("GET")

	authed.HandleFunc("/vehicles", h.Vehicles.Create).Methods("POST")
	authed.HandleFunc("/vehicles", h.Vehicles.List).Methods("GET")
	authed.HandleFunc("/vehicles/plate/{plate}", h.Vehicles.GetByPlate).Methods("GET")
	authed.HandleFunc("/vehicles/{id}", h.Vehicles.Get).Methods("GET")
	authed.HandleFunc("/vehicles/{id}", h.Vehicles.Update).Methods("PUT")
	authed.HandleFunc("/vehicles/{id}", h.Vehicles.Delete).Methods("DELETE")

	authed.HandleFunc("/bookings", h.Bookings.Create).Methods("POST")
	authed.HandleFunc("/bookings", h.Bookings.List).Methods("GET")
	authed.HandleFunc("/bookings/{id}", h.Bookings.Get).Methods("GET")
	authed.HandleFunc("/bookings/{id}/cancel", h.Bookings.Cancel).Methods("POST")
	authed.HandleFunc("/bookings/{id}/exit", h.Bookings.CompleteExit).Methods("POST")
	authed.HandleFunc("/bookings/{id}/pay", h.Bookings.Pay).Methods("POST")
	authed.HandleFunc("/bookings/{id}/checkout", h.Bookings.Checkout).Methods("POST")
	authed.HandleFunc("/bookings/{id}/receipt", h.Bookings.Receipt).Methods("GET")

	authed.HandleFunc("/payments", h.Payments.ListMine).Methods("GET")
	authed.HandleFunc("/payments/{id}", h.Payments.Get).Methods("GET")

	// Admin endpoints
	admin := r.PathPrefix("/api").Subrouter()
	admin.Use(auth.Middleware(jwtSecret), auth.RequireAdmin)

	admin.HandleFunc("/slots", h.Slots.Create).Methods("POST")
	admin.HandleFunc("/slots/{id}", h.Slots.Update).Methods("PUT")
	admin.HandleFunc("/slots/{id}", h.Slots.Delete).Methods("DELETE")

	admin.HandleFunc("/plans", h.Plans.Create).Methods("POST")
	admin.HandleFunc("/plans/{id}", h.Plans.Update).Methods("PUT")
	admin.HandleFunc("/plans/{id}", h.Plans.Delete).Methods("DELETE")

	admin.HandleFunc("/bookings/{id}/approve", h.Bookings.Approve).Methods("POST")
	admin.HandleFunc("/bookings/{id}/reject", h.Bookings.Reject).Methods("POST")

	admin.HandleFunc("/logs", h.Logs.List).Methods("GET")

	return r
}
