package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"parkreserve/internal/auth"
	"parkreserve/internal/db"
	"parkreserve/internal/entities"
	"parkreserve/internal/errors"
)

// gracePeriod is how long a PENDING booking may wait for an admin decision
// before the sweep expires it.
const gracePeriod = 2 * time.Hour

type BookingStore interface {
	CreateWithPayment(ctx context.Context, b *db.Booking, p *db.Payment) error
	GetByID(ctx context.Context, id string) (*db.Booking, error)
	UpdateStatus(ctx context.Context, id string, from []entities.BookingStatus, to entities.BookingStatus) error
	SetPaid(ctx context.Context, id string) error
	CountOverlapping(ctx context.Context, slotID string, window entities.TimeWindow) (int, error)
	List(ctx context.Context, filter entities.BookingFilter, page entities.Page) ([]db.Booking, int, error)
	Detail(ctx context.Context, id string) (*entities.BookingDetail, error)
	ExpirePending(ctx context.Context, now time.Time) ([]string, error)
	CompleteElapsed(ctx context.Context, now time.Time) ([]string, error)
}

type SlotGetter interface {
	GetByID(ctx context.Context, id string) (*db.ParkingSlot, error)
}

type VehicleGetter interface {
	GetByID(ctx context.Context, id string) (*db.Vehicle, error)
}

type PlanGetter interface {
	GetByID(ctx context.Context, id string) (*db.PaymentPlan, error)
}

// PaymentLedger is the payment state container driven by the engine. It never
// initiates transitions on its own.
type PaymentLedger interface {
	GetByBooking(ctx context.Context, bookingID string) (*db.Payment, error)
	MarkPaid(ctx context.Context, paymentID string) error
	MarkRefunded(ctx context.Context, paymentID string) error
	OpenCheckout(ctx context.Context, payment *db.Payment, customerEmail string) (*entities.CheckoutSession, error)
}

type BookingNotifier interface {
	NotifyBookingCreated(ctx context.Context, d *entities.BookingDetail) error
	NotifyBookingApproved(ctx context.Context, d *entities.BookingDetail, receipt []byte) error
	NotifyBookingRejected(ctx context.Context, d *entities.BookingDetail) error
}

type ReceiptRenderer interface {
	Render(d *entities.BookingDetail) ([]byte, error)
}

type Auditor interface {
	Record(ctx context.Context, userID, action string, details map[string]any) error
}

// LifecyclePolicy holds the configurable booking policy knobs.
type LifecyclePolicy struct {
	// AdminOverride lets admins reject or cancel an APPROVED booking
	// (site closure, rule violation). Owners can still only cancel PENDING.
	AdminOverride bool
	// ExpirePending: sweep moves PENDING bookings past expires_at to EXPIRED.
	ExpirePending bool
	// CompleteElapsed: sweep moves APPROVED bookings past end_time to COMPLETED.
	CompleteElapsed bool
}

func DefaultPolicy() LifecyclePolicy {
	return LifecyclePolicy{AdminOverride: true, ExpirePending: true, CompleteElapsed: true}
}

// BookingService is the booking lifecycle engine: it creates bookings under
// conflict checks, enforces the state machine and keeps payment state
// synchronized. All violations come back as typed errors, never retried here.
type BookingService struct {
	bookings BookingStore
	slots    SlotGetter
	vehicles VehicleGetter
	plans    PlanGetter
	ledger   PaymentLedger
	notifier BookingNotifier
	renderer ReceiptRenderer
	auditor  Auditor
	policy   LifecyclePolicy
}

func NewBookingService(
	bookings BookingStore,
	slots SlotGetter,
	vehicles VehicleGetter,
	plans PlanGetter,
	ledger PaymentLedger,
	notifier BookingNotifier,
	renderer ReceiptRenderer,
	auditor Auditor,
	policy LifecyclePolicy,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		slots:    slots,
		vehicles: vehicles,
		plans:    plans,
		ledger:   ledger,
		notifier: notifier,
		renderer: renderer,
		auditor:  auditor,
		policy:   policy,
	}
}

type CreateBookingInput struct {
	SlotID    string
	VehicleID string
	PlanID    string
	Window    entities.TimeWindow
}

// ApprovalResult reports a committed approval; Notified is false when the
// ticket email could not be rendered or delivered (degraded success).
type ApprovalResult struct {
	Booking  *db.Booking `json:"booking"`
	Notified bool        `json:"notified"`
}

// Create walks the checks in order: window, slot, overlap, plan, vehicle
// ownership, then the atomic booking+payment insert. The overlap check is
// re-verified inside the insert transaction, so a concurrent creation for the
// same slot and window cannot also succeed.
func (s *BookingService) Create(ctx context.Context, actor auth.Actor, in CreateBookingInput) (*db.Booking, error) {
	if err := in.Window.Validate(time.Now().UTC(), true); err != nil {
		return nil, err
	}

	slot, err := s.slots.GetByID(ctx, in.SlotID)
	if err != nil {
		return nil, err
	}
	if !slot.IsAvailable {
		return nil, errors.Conflict("parking slot is not available")
	}

	overlapping, err := s.bookings.CountOverlapping(ctx, in.SlotID, in.Window)
	if err != nil {
		return nil, err
	}
	if overlapping > 0 {
		return nil, errors.Conflict("time slot already booked")
	}

	plan, err := s.plans.GetByID(ctx, in.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.Type != entities.PlanFree && plan.PriceCents <= 0 {
		return nil, errors.InvalidInput("payment plan price must be greater than 0 for non-free plans")
	}

	vehicle, err := s.vehicles.GetByID(ctx, in.VehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.UserID != actor.UserID {
		return nil, errors.Forbidden("not authorized to book with this vehicle")
	}

	now := time.Now().UTC()
	booking := &db.Booking{
		ID:        uuid.New().String(),
		UserID:    actor.UserID,
		SlotID:    in.SlotID,
		VehicleID: in.VehicleID,
		StartTime: in.Window.Start,
		EndTime:   in.Window.End,
		Status:    entities.BookingPending,
		IsPaid:    false,
		ExpiresAt: now.Add(gracePeriod),
	}
	payment := &db.Payment{
		ID:          uuid.New().String(),
		BookingID:   booking.ID,
		UserID:      actor.UserID,
		PlanID:      plan.ID,
		AmountCents: plan.PriceCents,
		Status:      entities.PaymentPending,
	}
	if err := s.bookings.CreateWithPayment(ctx, booking, payment); err != nil {
		return nil, err
	}

	s.audit(ctx, actor.UserID, "CREATE_BOOKING", map[string]any{
		"booking_id": booking.ID,
		"slot_id":    booking.SlotID,
	})

	// Admin notification is best-effort: the booking stays committed even if
	// it fails, which is only logged.
	detail, err := s.bookings.Detail(ctx, booking.ID)
	if err != nil {
		log.Printf("booking %s created, but loading detail for notification failed: %v", booking.ID, err)
		return booking, nil
	}
	go func(d *entities.BookingDetail) {
		if err := s.notifier.NotifyBookingCreated(context.WithoutCancel(ctx), d); err != nil {
			log.Printf("booking %s created, but admin notification failed: %v", d.BookingID, err)
		}
	}(detail)

	return booking, nil
}

// Approve commits PENDING -> APPROVED, then renders the ticket and emails it
// to the owner. Side-effect failure downgrades the result, never the
// transition.
func (s *BookingService) Approve(ctx context.Context, actor auth.Actor, bookingID string) (*ApprovalResult, error) {
	if !actor.IsAdmin() {
		return nil, errors.Forbidden("admin access required")
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != entities.BookingPending {
		return nil, errors.Conflict("booking is not in PENDING status")
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, []entities.BookingStatus{entities.BookingPending}, entities.BookingApproved); err != nil {
		return nil, err
	}
	booking.Status = entities.BookingApproved

	s.audit(ctx, actor.UserID, "APPROVE_BOOKING", map[string]any{"booking_id": bookingID})

	result := &ApprovalResult{Booking: booking, Notified: false}
	detail, err := s.bookings.Detail(ctx, bookingID)
	if err != nil {
		log.Printf("booking %s approved, but loading detail failed: %v", bookingID, err)
		return result, nil
	}
	receipt, err := s.renderer.Render(detail)
	if err != nil {
		log.Printf("booking %s approved, but ticket rendering failed: %v", bookingID, err)
		return result, nil
	}
	if err := s.notifier.NotifyBookingApproved(ctx, detail, receipt); err != nil {
		log.Printf("booking %s approved, but user notification failed: %v", bookingID, err)
		return result, nil
	}
	result.Notified = true
	return result, nil
}

// Reject moves a booking to REJECTED and refunds its payment if it was PAID.
func (s *BookingService) Reject(ctx context.Context, actor auth.Actor, bookingID string) (*db.Booking, error) {
	if !actor.IsAdmin() {
		return nil, errors.Forbidden("admin access required")
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	from := []entities.BookingStatus{entities.BookingPending}
	if s.policy.AdminOverride {
		from = append(from, entities.BookingApproved)
	}
	if !statusIn(booking.Status, from) {
		return nil, errors.Conflict("booking is not in PENDING status")
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, from, entities.BookingRejected); err != nil {
		return nil, err
	}
	booking.Status = entities.BookingRejected

	if err := s.cascadeRefund(ctx, bookingID); err != nil {
		return nil, err
	}

	s.audit(ctx, actor.UserID, "REJECT_BOOKING", map[string]any{"booking_id": bookingID})

	if detail, err := s.bookings.Detail(ctx, bookingID); err == nil {
		go func(d *entities.BookingDetail) {
			if err := s.notifier.NotifyBookingRejected(context.WithoutCancel(ctx), d); err != nil {
				log.Printf("booking %s rejected, but user notification failed: %v", d.BookingID, err)
			}
		}(detail)
	}

	return booking, nil
}

// Cancel is the owner's way out of a PENDING booking. Admins may also cancel,
// including APPROVED bookings when the override policy is on.
func (s *BookingService) Cancel(ctx context.Context, actor auth.Actor, bookingID string) (*db.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	from := []entities.BookingStatus{entities.BookingPending}
	if actor.IsAdmin() {
		if s.policy.AdminOverride {
			from = append(from, entities.BookingApproved)
		}
	} else if booking.UserID != actor.UserID {
		return nil, errors.Forbidden("not authorized to cancel this booking")
	}
	if !statusIn(booking.Status, from) {
		return nil, errors.Conflict("only pending bookings can be cancelled")
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, from, entities.BookingCancelled); err != nil {
		return nil, err
	}
	booking.Status = entities.BookingCancelled

	if err := s.cascadeRefund(ctx, bookingID); err != nil {
		return nil, err
	}

	s.audit(ctx, actor.UserID, "CANCEL_BOOKING", map[string]any{"booking_id": bookingID})
	return booking, nil
}

// CompleteExit marks an APPROVED booking COMPLETED when the owner leaves the
// slot.
func (s *BookingService) CompleteExit(ctx context.Context, actor auth.Actor, bookingID string) (*db.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != actor.UserID {
		return nil, errors.Forbidden("not authorized to modify this booking")
	}
	if booking.Status != entities.BookingApproved {
		return nil, errors.Conflict("only approved bookings can be marked as completed")
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, []entities.BookingStatus{entities.BookingApproved}, entities.BookingCompleted); err != nil {
		return nil, err
	}
	booking.Status = entities.BookingCompleted

	s.audit(ctx, actor.UserID, "COMPLETE_BOOKING", map[string]any{"booking_id": bookingID})
	return booking, nil
}

// RecordPayment marks the payment PAID and the booking paid. The booking
// status does not change; payment completes an APPROVED booking in place.
func (s *BookingService) RecordPayment(ctx context.Context, actor auth.Actor, bookingID string) (*db.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != actor.UserID {
		return nil, errors.Forbidden("not authorized to pay for this booking")
	}
	if booking.Status != entities.BookingApproved {
		return nil, errors.Conflict("can only pay for approved bookings")
	}
	if booking.IsPaid {
		return nil, errors.Conflict("booking is already paid")
	}

	payment, err := s.ledger.GetByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.MarkPaid(ctx, payment.ID); err != nil {
		return nil, err
	}
	if err := s.bookings.SetPaid(ctx, bookingID); err != nil {
		return nil, err
	}
	booking.IsPaid = true

	s.audit(ctx, actor.UserID, "PAY_BOOKING", map[string]any{"booking_id": bookingID})
	return booking, nil
}

// Checkout opens an online payment session for an approved unpaid booking.
func (s *BookingService) Checkout(ctx context.Context, actor auth.Actor, bookingID string) (*entities.CheckoutSession, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != actor.UserID {
		return nil, errors.Forbidden("not authorized to pay for this booking")
	}
	if booking.Status != entities.BookingApproved {
		return nil, errors.Conflict("can only pay for approved bookings")
	}
	if booking.IsPaid {
		return nil, errors.Conflict("booking is already paid")
	}

	payment, err := s.ledger.GetByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	detail, err := s.bookings.Detail(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.ledger.OpenCheckout(ctx, payment, detail.UserEmail)
}

// Get returns the joined booking view for the owner or an admin.
func (s *BookingService) Get(ctx context.Context, actor auth.Actor, bookingID string) (*entities.BookingDetail, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, errors.Forbidden("not authorized to access this booking")
	}
	return s.bookings.Detail(ctx, bookingID)
}

// List returns the caller's bookings; admins see everyone's.
func (s *BookingService) List(ctx context.Context, actor auth.Actor, status *entities.BookingStatus, page entities.Page) ([]db.Booking, int, error) {
	filter := entities.BookingFilter{Status: status}
	if !actor.IsAdmin() {
		filter.UserID = actor.UserID
	}
	return s.bookings.List(ctx, filter, page)
}

// Receipt renders the booking receipt for the owner or an admin.
func (s *BookingService) Receipt(ctx context.Context, actor auth.Actor, bookingID string) ([]byte, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, errors.Forbidden("not authorized to access this booking")
	}
	detail, err := s.bookings.Detail(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(detail)
}

// SweepExpired applies the expiry policy. Idempotent: each affected row
// transitions at most once, so running it concurrently with itself is safe.
func (s *BookingService) SweepExpired(ctx context.Context) (*entities.SweepResult, error) {
	now := time.Now().UTC()
	result := &entities.SweepResult{}

	if s.policy.ExpirePending {
		expired, err := s.bookings.ExpirePending(ctx, now)
		if err != nil {
			return nil, err
		}
		result.Expired = expired
	}
	if s.policy.CompleteElapsed {
		completed, err := s.bookings.CompleteElapsed(ctx, now)
		if err != nil {
			return nil, err
		}
		result.Completed = completed
	}
	return result, nil
}

// cascadeRefund refunds the booking's payment if it had been paid.
func (s *BookingService) cascadeRefund(ctx context.Context, bookingID string) error {
	payment, err := s.ledger.GetByBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if payment.Status != entities.PaymentPaid {
		return nil
	}
	return s.ledger.MarkRefunded(ctx, payment.ID)
}

func (s *BookingService) audit(ctx context.Context, userID, action string, details map[string]any) {
	if err := s.auditor.Record(ctx, userID, action, details); err != nil {
		log.Printf("audit %s failed: %v", action, err)
	}
}

func statusIn(status entities.BookingStatus, set []entities.BookingStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}
