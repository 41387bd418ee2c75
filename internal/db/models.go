package db

import (
	"encoding/json"
	"time"

	"parkreserve/internal/entities"
)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         entities.Role
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ParkingSlot struct {
	ID          string               `json:"id"`
	SlotNumber  string               `json:"slot_number"`
	Type        entities.SlotType    `json:"type"`
	Size        entities.SlotSize    `json:"size"`
	VehicleType entities.VehicleType `json:"vehicle_type"`
	IsAvailable bool                 `json:"is_available"`
	Location    string               `json:"location,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type Vehicle struct {
	ID          string               `json:"id"`
	UserID      string               `json:"user_id"`
	PlateNumber string               `json:"plate_number"`
	Type        entities.VehicleType `json:"type"`
	Size        entities.SlotSize    `json:"size"`
	Attributes  json.RawMessage      `json:"attributes,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type Booking struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	SlotID    string                 `json:"slot_id"`
	VehicleID string                 `json:"vehicle_id"`
	StartTime time.Time              `json:"start_time"`
	EndTime   time.Time              `json:"end_time"`
	Status    entities.BookingStatus `json:"status"`
	IsPaid    bool                   `json:"is_paid"`
	ExpiresAt time.Time              `json:"expires_at"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

type Payment struct {
	ID              string                 `json:"id"`
	BookingID       string                 `json:"booking_id"`
	UserID          string                 `json:"user_id"`
	PlanID          string                 `json:"plan_id"`
	AmountCents     int64                  `json:"amount_cents"`
	Status          entities.PaymentStatus `json:"status"`
	StripeSessionID string                 `json:"-"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

type PaymentPlan struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Type         entities.PlanType `json:"type"`
	PriceCents   int64             `json:"price_cents"`
	DurationDays int               `json:"duration_days"`
	Description  string            `json:"description,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type AuditLog struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details"`
	CreatedAt time.Time       `json:"created_at"`
}
