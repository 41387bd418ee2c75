package entities

type SlotType string

const (
	SlotTypeVIP     SlotType = "VIP"
	SlotTypeRegular SlotType = "REGULAR"
)

type SlotSize string

const (
	SizeSmall  SlotSize = "SMALL"
	SizeMedium SlotSize = "MEDIUM"
	SizeLarge  SlotSize = "LARGE"
)

type VehicleType string

const (
	VehicleCar        VehicleType = "CAR"
	VehicleBike       VehicleType = "BIKE"
	VehicleMotorcycle VehicleType = "MOTORCYCLE"
	VehicleTruck      VehicleType = "TRUCK"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingApproved  BookingStatus = "APPROVED"
	BookingRejected  BookingStatus = "REJECTED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingExpired   BookingStatus = "EXPIRED"
)

// ActiveBookingStatuses are the statuses that occupy a slot: only these
// participate in overlap checks and block slot/vehicle deletion.
var ActiveBookingStatuses = []string{string(BookingPending), string(BookingApproved)}

// Terminal reports whether no further status transition is allowed.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingRejected, BookingCancelled, BookingCompleted, BookingExpired:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type PlanType string

const (
	PlanFree    PlanType = "FREE"
	PlanMonthly PlanType = "MONTHLY"
	PlanYearly  PlanType = "YEARLY"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func ValidSlotType(v string) bool {
	switch SlotType(v) {
	case SlotTypeVIP, SlotTypeRegular:
		return true
	}
	return false
}

func ValidSlotSize(v string) bool {
	switch SlotSize(v) {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

func ValidVehicleType(v string) bool {
	switch VehicleType(v) {
	case VehicleCar, VehicleBike, VehicleMotorcycle, VehicleTruck:
		return true
	}
	return false
}

func ValidBookingStatus(v string) bool {
	switch BookingStatus(v) {
	case BookingPending, BookingApproved, BookingRejected, BookingCancelled, BookingCompleted, BookingExpired:
		return true
	}
	return false
}

func ValidPlanType(v string) bool {
	switch PlanType(v) {
	case PlanFree, PlanMonthly, PlanYearly:
		return true
	}
	return false
}
