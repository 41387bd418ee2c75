package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"parkreserve/internal/entities"
	"parkreserve/internal/errors"
)

// Auth
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Slots
type CreateSlotRequest struct {
	SlotNumber  string `json:"slot_number"`
	Type        string `json:"type,omitempty"`
	Size        string `json:"size,omitempty"`
	VehicleType string `json:"vehicle_type,omitempty"`
	IsAvailable *bool  `json:"is_available,omitempty"`
	Location    string `json:"location,omitempty"`
}

type UpdateSlotRequest struct {
	SlotNumber  *string `json:"slot_number,omitempty"`
	Type        *string `json:"type,omitempty"`
	Size        *string `json:"size,omitempty"`
	VehicleType *string `json:"vehicle_type,omitempty"`
	IsAvailable *bool   `json:"is_available,omitempty"`
	Location    *string `json:"location,omitempty"`
}

// Vehicles
type CreateVehicleRequest struct {
	PlateNumber string          `json:"plate_number"`
	Type        string          `json:"type"`
	Size        string          `json:"size"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
}

type UpdateVehicleRequest struct {
	PlateNumber *string         `json:"plate_number,omitempty"`
	Type        *string         `json:"type,omitempty"`
	Size        *string         `json:"size,omitempty"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
}

// Plans
type CreatePlanRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	PriceCents   int64  `json:"price_cents"`
	DurationDays int    `json:"duration_days,omitempty"`
	Description  string `json:"description,omitempty"`
}

type UpdatePlanRequest struct {
	Name         *string `json:"name,omitempty"`
	Type         *string `json:"type,omitempty"`
	PriceCents   *int64  `json:"price_cents,omitempty"`
	DurationDays *int    `json:"duration_days,omitempty"`
	Description  *string `json:"description,omitempty"`
}

// Bookings
type CreateBookingRequest struct {
	SlotID    string `json:"slot_id"`
	VehicleID string `json:"vehicle_id"`
	PlanID    string `json:"plan_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ListResponse is the pagination envelope shared by the list endpoints.
type ListResponse struct {
	Items      any `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
	TotalCount int `json:"total_count"`
}

func newListResponse(items any, page entities.Page, total int) ListResponse {
	totalPages := 0
	if page.Limit > 0 {
		totalPages = (total + page.Limit - 1) / page.Limit
	}
	return ListResponse{
		Items:      items,
		Page:       page.Number,
		Limit:      page.Limit,
		TotalPages: totalPages,
		TotalCount: total,
	}
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

func parsePage(r *http.Request) entities.Page {
	page := entities.Page{Number: 1, Limit: defaultPageLimit}
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page.Number = n
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page.Limit = n
		}
	}
	if page.Limit > maxPageLimit {
		page.Limit = maxPageLimit
	}
	return page
}

func parseTime(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.InvalidInput(field + " is required")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errors.InvalidInput(field + " must be an RFC 3339 timestamp")
	}
	return t, nil
}

func parseWindow(startRaw, endRaw string) (entities.TimeWindow, error) {
	start, err := parseTime(startRaw, "start_time")
	if err != nil {
		return entities.TimeWindow{}, err
	}
	end, err := parseTime(endRaw, "end_time")
	if err != nil {
		return entities.TimeWindow{}, err
	}
	return entities.TimeWindow{Start: start, End: end}, nil
}
