package entities

// Optional-field filters translated to query predicates only when present.
// This is the typed replacement for building a where clause out of request
// parameters.

type SlotFilter struct {
	Type        *SlotType
	Size        *SlotSize
	VehicleType *VehicleType
	IsAvailable *bool
	SlotNumber  string // substring match, case-insensitive
}

// AvailabilityFilter narrows the availability resolver; the administrative
// is_available flag is always enforced and is not part of the filter.
type AvailabilityFilter struct {
	Type        *SlotType
	Size        *SlotSize
	VehicleType *VehicleType
}

type VehicleFilter struct {
	UserID      string
	Type        *VehicleType
	PlateNumber string // substring match
}

type BookingFilter struct {
	UserID string // empty for admins listing everything
	Status *BookingStatus
}

// Page is 1-based; Limit is clamped by the handlers.
type Page struct {
	Number int
	Limit  int
}

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit
}
