package entities

import "time"

// BookingDetail is the joined view of a booking handed to the notification
// sender and the receipt renderer: enough data to address an email and fill a
// ticket without further queries.
type BookingDetail struct {
	BookingID   string        `json:"booking_id"`
	Status      BookingStatus `json:"status"`
	IsPaid      bool          `json:"is_paid"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	UserName    string        `json:"user_name"`
	UserEmail   string        `json:"user_email"`
	UserPhone   string        `json:"user_phone,omitempty"`
	SlotNumber  string        `json:"slot_number"`
	SlotType    SlotType      `json:"slot_type"`
	Location    string        `json:"location,omitempty"`
	PlateNumber string        `json:"plate_number"`
	PlanName    string        `json:"plan_name"`
	AmountCents int64         `json:"amount_cents"`
	CreatedAt   time.Time     `json:"created_at"`
}

// CheckoutSession is returned when an online payment session has been opened
// for a booking.
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// SweepResult reports what a single sweep pass changed.
type SweepResult struct {
	Expired   []string `json:"expired"`
	Completed []string `json:"completed"`
}
