package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkreserve/internal/auth"
	"parkreserve/internal/db"
	"parkreserve/internal/entities"
	"parkreserve/internal/errors"
)

// Shared in-memory fakes for the service tests. They mimic the repository
// semantics the services rely on: UpdateStatus only transitions rows whose
// current status is in the from-set, and a miss comes back as a Conflict.

type stubBookings struct {
	mu       sync.Mutex
	bookings map[string]*db.Booking
	details  map[string]*entities.BookingDetail
	overlap  int

	created        *db.Booking
	createdPayment *db.Payment
	createErr      error
	paidIDs        []string
	expiredIDs     []string
	elapsedIDs     []string
}

func (s *stubBookings) CreateWithPayment(ctx context.Context, b *db.Booking, p *db.Payment) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = b
	s.createdPayment = p
	if s.bookings == nil {
		s.bookings = map[string]*db.Booking{}
	}
	s.bookings[b.ID] = b
	return nil
}

func (s *stubBookings) GetByID(ctx context.Context, id string) (*db.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, errors.NotFound("booking not found")
	}
	copied := *b
	return &copied, nil
}

func (s *stubBookings) UpdateStatus(ctx context.Context, id string, from []entities.BookingStatus, to entities.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return errors.Conflict("booking is not in the expected status")
	}
	for _, f := range from {
		if b.Status == f {
			b.Status = to
			return nil
		}
	}
	return errors.Conflict("booking is not in the expected status")
}

func (s *stubBookings) SetPaid(ctx context.Context, id string) error {
	s.paidIDs = append(s.paidIDs, id)
	if b, ok := s.bookings[id]; ok {
		b.IsPaid = true
	}
	return nil
}

func (s *stubBookings) CountOverlapping(ctx context.Context, slotID string, window entities.TimeWindow) (int, error) {
	return s.overlap, nil
}

func (s *stubBookings) List(ctx context.Context, filter entities.BookingFilter, page entities.Page) ([]db.Booking, int, error) {
	var out []db.Booking
	for _, b := range s.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (s *stubBookings) Detail(ctx context.Context, id string) (*entities.BookingDetail, error) {
	d, ok := s.details[id]
	if !ok {
		return nil, errors.NotFound("booking not found")
	}
	return d, nil
}

func (s *stubBookings) ExpirePending(ctx context.Context, now time.Time) ([]string, error) {
	return s.expiredIDs, nil
}

func (s *stubBookings) CompleteElapsed(ctx context.Context, now time.Time) ([]string, error) {
	return s.elapsedIDs, nil
}

type stubSlots struct {
	slots map[string]*db.ParkingSlot
}

func (s *stubSlots) GetByID(ctx context.Context, id string) (*db.ParkingSlot, error) {
	slot, ok := s.slots[id]
	if !ok {
		return nil, errors.NotFound("parking slot not found")
	}
	return slot, nil
}

type stubVehicles struct {
	vehicles map[string]*db.Vehicle
}

func (s *stubVehicles) GetByID(ctx context.Context, id string) (*db.Vehicle, error) {
	v, ok := s.vehicles[id]
	if !ok {
		return nil, errors.NotFound("vehicle not found")
	}
	return v, nil
}

type stubPlans struct {
	plans map[string]*db.PaymentPlan
}

func (s *stubPlans) GetByID(ctx context.Context, id string) (*db.PaymentPlan, error) {
	p, ok := s.plans[id]
	if !ok {
		return nil, errors.NotFound("payment plan not found")
	}
	return p, nil
}

type stubLedger struct {
	mu          sync.Mutex
	payment     *db.Payment
	paidIDs     []string
	refundedIDs []string
	session     *entities.CheckoutSession
	checkoutErr error
}

func (s *stubLedger) GetByBooking(ctx context.Context, bookingID string) (*db.Payment, error) {
	if s.payment == nil || s.payment.BookingID != bookingID {
		return nil, errors.NotFound("payment not found")
	}
	copied := *s.payment
	return &copied, nil
}

func (s *stubLedger) MarkPaid(ctx context.Context, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paidIDs = append(s.paidIDs, paymentID)
	s.payment.Status = entities.PaymentPaid
	return nil
}

func (s *stubLedger) MarkRefunded(ctx context.Context, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refundedIDs = append(s.refundedIDs, paymentID)
	s.payment.Status = entities.PaymentRefunded
	return nil
}

func (s *stubLedger) OpenCheckout(ctx context.Context, payment *db.Payment, customerEmail string) (*entities.CheckoutSession, error) {
	if s.checkoutErr != nil {
		return nil, s.checkoutErr
	}
	return s.session, nil
}

type stubNotifier struct {
	mu          sync.Mutex
	created     []string
	approved    []string
	rejected    []string
	approveErr  error
	lastReceipt []byte
}

func (s *stubNotifier) NotifyBookingCreated(ctx context.Context, d *entities.BookingDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, d.BookingID)
	return nil
}

func (s *stubNotifier) NotifyBookingApproved(ctx context.Context, d *entities.BookingDetail, receipt []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.approveErr != nil {
		return s.approveErr
	}
	s.approved = append(s.approved, d.BookingID)
	s.lastReceipt = receipt
	return nil
}

func (s *stubNotifier) NotifyBookingRejected(ctx context.Context, d *entities.BookingDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected = append(s.rejected, d.BookingID)
	return nil
}

type stubRenderer struct {
	out []byte
	err error
}

func (s *stubRenderer) Render(d *entities.BookingDetail) ([]byte, error) {
	return s.out, s.err
}

type stubAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (s *stubAuditor) Record(ctx context.Context, userID, action string, details map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
	return nil
}

type bookingFixture struct {
	bookings *stubBookings
	slots    *stubSlots
	vehicles *stubVehicles
	plans    *stubPlans
	ledger   *stubLedger
	notifier *stubNotifier
	renderer *stubRenderer
	auditor  *stubAuditor
	svc      *BookingService
}

func newBookingFixture(policy LifecyclePolicy) *bookingFixture {
	f := &bookingFixture{
		bookings: &stubBookings{
			bookings: map[string]*db.Booking{},
			details:  map[string]*entities.BookingDetail{},
		},
		slots:    &stubSlots{slots: map[string]*db.ParkingSlot{}},
		vehicles: &stubVehicles{vehicles: map[string]*db.Vehicle{}},
		plans:    &stubPlans{plans: map[string]*db.PaymentPlan{}},
		ledger:   &stubLedger{},
		notifier: &stubNotifier{},
		renderer: &stubRenderer{out: []byte("<html>ticket</html>")},
		auditor:  &stubAuditor{},
	}
	f.svc = NewBookingService(
		f.bookings, f.slots, f.vehicles, f.plans,
		f.ledger, f.notifier, f.renderer, f.auditor, policy,
	)
	return f
}

func futureWindow() entities.TimeWindow {
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	return entities.TimeWindow{Start: start, End: start.Add(2 * time.Hour)}
}

func (f *bookingFixture) seedCreateDeps() {
	f.slots.slots["s1"] = &db.ParkingSlot{ID: "s1", SlotNumber: "A-01", IsAvailable: true}
	f.vehicles.vehicles["v1"] = &db.Vehicle{ID: "v1", UserID: "u1", PlateNumber: "ABC123"}
	f.plans.plans["p1"] = &db.PaymentPlan{ID: "p1", Name: "Hourly", Type: entities.PlanMonthly, PriceCents: 1500}
}

func (f *bookingFixture) seedBooking(status entities.BookingStatus, paid bool) *db.Booking {
	b := &db.Booking{
		ID:        "b1",
		UserID:    "u1",
		SlotID:    "s1",
		VehicleID: "v1",
		StartTime: time.Now().UTC().Add(time.Hour),
		EndTime:   time.Now().UTC().Add(3 * time.Hour),
		Status:    status,
		IsPaid:    paid,
	}
	f.bookings.bookings[b.ID] = b
	f.bookings.details[b.ID] = &entities.BookingDetail{
		BookingID: b.ID,
		Status:    status,
		UserEmail: "alice@example.com",
		UserName:  "Alice",
	}
	paymentStatus := entities.PaymentPending
	if paid {
		paymentStatus = entities.PaymentPaid
	}
	f.ledger.payment = &db.Payment{
		ID:          "pay1",
		BookingID:   b.ID,
		UserID:      b.UserID,
		AmountCents: 1500,
		Status:      paymentStatus,
	}
	return b
}

var userActor = auth.Actor{UserID: "u1", Role: entities.RoleUser}
var adminActor = auth.Actor{UserID: "admin", Role: entities.RoleAdmin}

func TestBookingCreate(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedCreateDeps()

	booking, err := f.svc.Create(context.Background(), userActor, CreateBookingInput{
		SlotID:    "s1",
		VehicleID: "v1",
		PlanID:    "p1",
		Window:    futureWindow(),
	})

	require.NoError(t, err)
	assert.Equal(t, entities.BookingPending, booking.Status)
	assert.Equal(t, "u1", booking.UserID)
	assert.False(t, booking.IsPaid)
	assert.NotEmpty(t, booking.ID)
	assert.False(t, booking.ExpiresAt.IsZero())

	require.NotNil(t, f.bookings.createdPayment)
	assert.Equal(t, booking.ID, f.bookings.createdPayment.BookingID)
	assert.Equal(t, int64(1500), f.bookings.createdPayment.AmountCents)
	assert.Equal(t, entities.PaymentPending, f.bookings.createdPayment.Status)
	assert.Contains(t, f.auditor.actions, "CREATE_BOOKING")
}

func TestBookingCreateWindowInPast(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedCreateDeps()

	start := time.Now().UTC().Add(-2 * time.Hour)
	_, err := f.svc.Create(context.Background(), userActor, CreateBookingInput{
		SlotID:    "s1",
		VehicleID: "v1",
		PlanID:    "p1",
		Window:    entities.TimeWindow{Start: start, End: start.Add(time.Hour)},
	})

	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
}

func TestBookingCreateInvertedWindow(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedCreateDeps()

	start := time.Now().UTC().Add(24 * time.Hour)
	_, err := f.svc.Create(context.Background(), userActor, CreateBookingInput{
		SlotID:    "s1",
		VehicleID: "v1",
		PlanID:    "p1",
		Window:    entities.TimeWindow{Start: start, End: start.Add(-time.Hour)},
	})

	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
}

func TestBookingCreateSlotUnavailable(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedCreateDeps()
	f.slots.slots["s1"].IsAvailable = false

	_, err := f.svc.Create(context.Background(), userActor, CreateBookingInput{
		SlotID:    "s1",
		VehicleID: "v1",
		PlanID:    "p1",
		Window:    futureWindow(),
	})

	require.Error(t, err)
	assert.Equal(t, errors.KindConflict, errors.KindOf(err))
}

func TestBookingCreateOverlapConflict(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedCreateDeps()
	f.bookings.overlap = 1

	_, err := f.svc.Create(context.Background(), userActor, CreateBookingInput{
		SlotID:    "s1",
		VehicleID: "v1",
		PlanID:    "p1",
		Window:    futureWindow(),
	})

	require.Error(t, err)
	assert.Equal(t, errors.KindConflict, errors.KindOf(err))
	assert.Nil(t, f.bookings.created)
}

func TestBookingCreateZeroPricePlan(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedCreateDeps()
	f.plans.plans["p1"].PriceCents = 0

	_, err := f.svc.Create(context.Background(), userActor, CreateBookingInput{
		SlotID:    "s1",
		VehicleID: "v1",
		PlanID:    "p1",
		Window:    futureWindow(),
	})

	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
}

func TestBookingCreateFreePlan(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedCreateDeps()
	f.plans.plans["p1"].Type = entities.PlanFree
	f.plans.plans["p1"].PriceCents = 0

	booking, err := f.svc.Create(context.Background(), userActor, CreateBookingInput{
		SlotID:    "s1",
		VehicleID: "v1",
		PlanID:    "p1",
		Window:    futureWindow(),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(0), f.bookings.createdPayment.AmountCents)
	assert.Equal(t, entities.BookingPending, booking.Status)
}

func TestBookingCreateForeignVehicle(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedCreateDeps()
	f.vehicles.vehicles["v1"].UserID = "someone-else"

	_, err := f.svc.Create(context.Background(), userActor, CreateBookingInput{
		SlotID:    "s1",
		VehicleID: "v1",
		PlanID:    "p1",
		Window:    futureWindow(),
	})

	require.Error(t, err)
	assert.Equal(t, errors.KindForbidden, errors.KindOf(err))
}

func TestBookingApprove(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingPending, false)

	result, err := f.svc.Approve(context.Background(), adminActor, "b1")

	require.NoError(t, err)
	assert.Equal(t, entities.BookingApproved, result.Booking.Status)
	assert.True(t, result.Notified)
	assert.Equal(t, []string{"b1"}, f.notifier.approved)
	assert.Equal(t, []byte("<html>ticket</html>"), f.notifier.lastReceipt)
}

func TestBookingApproveNotificationFailureIsDegradedSuccess(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingPending, false)
	f.notifier.approveErr = assert.AnError

	result, err := f.svc.Approve(context.Background(), adminActor, "b1")

	require.NoError(t, err)
	assert.Equal(t, entities.BookingApproved, result.Booking.Status)
	assert.False(t, result.Notified)
}

func TestBookingApproveRequiresAdmin(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingPending, false)

	_, err := f.svc.Approve(context.Background(), userActor, "b1")

	require.Error(t, err)
	assert.Equal(t, errors.KindForbidden, errors.KindOf(err))
}

func TestBookingApproveNonPending(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingCancelled, false)

	_, err := f.svc.Approve(context.Background(), adminActor, "b1")

	require.Error(t, err)
	assert.Equal(t, errors.KindConflict, errors.KindOf(err))
}

func TestBookingRejectPendingUnpaid(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingPending, false)

	booking, err := f.svc.Reject(context.Background(), adminActor, "b1")

	require.NoError(t, err)
	assert.Equal(t, entities.BookingRejected, booking.Status)
	assert.Empty(t, f.ledger.refundedIDs, "unpaid booking must not trigger a refund")

	time.Sleep(50 * time.Millisecond) // goroutine notify
	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	assert.Equal(t, []string{"b1"}, f.notifier.rejected)
}

func TestBookingRejectPaidCascadesRefund(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingApproved, true)

	booking, err := f.svc.Reject(context.Background(), adminActor, "b1")

	require.NoError(t, err)
	assert.Equal(t, entities.BookingRejected, booking.Status)
	assert.Equal(t, []string{"pay1"}, f.ledger.refundedIDs)
	assert.Equal(t, entities.PaymentRefunded, f.ledger.payment.Status)
}

func TestBookingRejectApprovedWithoutOverride(t *testing.T) {
	policy := DefaultPolicy()
	policy.AdminOverride = false
	f := newBookingFixture(policy)
	f.seedBooking(entities.BookingApproved, false)

	_, err := f.svc.Reject(context.Background(), adminActor, "b1")

	require.Error(t, err)
	assert.Equal(t, errors.KindConflict, errors.KindOf(err))
}

func TestBookingRejectTerminalIsConflict(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingRejected, false)

	_, err := f.svc.Reject(context.Background(), adminActor, "b1")

	require.Error(t, err)
	assert.Equal(t, errors.KindConflict, errors.KindOf(err))
}

func TestBookingCancelByOwner(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingPending, false)

	booking, err := f.svc.Cancel(context.Background(), userActor, "b1")

	require.NoError(t, err)
	assert.Equal(t, entities.BookingCancelled, booking.Status)
}

func TestBookingCancelByStranger(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingPending, false)

	stranger := auth.Actor{UserID: "u2", Role: entities.RoleUser}
	_, err := f.svc.Cancel(context.Background(), stranger, "b1")

	require.Error(t, err)
	assert.Equal(t, errors.KindForbidden, errors.KindOf(err))
}

func TestBookingCancelApprovedByOwnerIsConflict(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingApproved, false)

	_, err := f.svc.Cancel(context.Background(), userActor, "b1")

	require.Error(t, err)
	assert.Equal(t, errors.KindConflict, errors.KindOf(err))
}

func TestBookingCancelApprovedByAdminWithOverride(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingApproved, true)

	booking, err := f.svc.Cancel(context.Background(), adminActor, "b1")

	require.NoError(t, err)
	assert.Equal(t, entities.BookingCancelled, booking.Status)
	assert.Equal(t, []string{"pay1"}, f.ledger.refundedIDs)
}

func TestBookingCompleteExit(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingApproved, true)

	booking, err := f.svc.CompleteExit(context.Background(), userActor, "b1")

	require.NoError(t, err)
	assert.Equal(t, entities.BookingCompleted, booking.Status)
}

func TestBookingCompleteExitPending(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingPending, false)

	_, err := f.svc.CompleteExit(context.Background(), userActor, "b1")

	require.Error(t, err)
	assert.Equal(t, errors.KindConflict, errors.KindOf(err))
}

func TestBookingRecordPayment(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingApproved, false)

	booking, err := f.svc.RecordPayment(context.Background(), userActor, "b1")

	require.NoError(t, err)
	assert.True(t, booking.IsPaid)
	assert.Equal(t, []string{"pay1"}, f.ledger.paidIDs)
	assert.Equal(t, []string{"b1"}, f.bookings.paidIDs)
}

func TestBookingRecordPaymentTwice(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingApproved, true)

	_, err := f.svc.RecordPayment(context.Background(), userActor, "b1")

	require.Error(t, err)
	assert.Equal(t, errors.KindConflict, errors.KindOf(err))
	assert.Empty(t, f.ledger.paidIDs)
}

func TestBookingRecordPaymentPending(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingPending, false)

	_, err := f.svc.RecordPayment(context.Background(), userActor, "b1")

	require.Error(t, err)
	assert.Equal(t, errors.KindConflict, errors.KindOf(err))
}

func TestBookingCheckout(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingApproved, false)
	f.ledger.session = &entities.CheckoutSession{SessionID: "cs_1", URL: "https://pay.example/cs_1"}

	session, err := f.svc.Checkout(context.Background(), userActor, "b1")

	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.SessionID)
}

func TestBookingGetOwnerAndAdmin(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingPending, false)

	_, err := f.svc.Get(context.Background(), userActor, "b1")
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), adminActor, "b1")
	require.NoError(t, err)

	stranger := auth.Actor{UserID: "u2", Role: entities.RoleUser}
	_, err = f.svc.Get(context.Background(), stranger, "b1")
	require.Error(t, err)
	assert.Equal(t, errors.KindForbidden, errors.KindOf(err))
}

func TestBookingListScopesToOwner(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.seedBooking(entities.BookingPending, false)
	f.bookings.bookings["b2"] = &db.Booking{ID: "b2", UserID: "u2", Status: entities.BookingPending}

	mine, _, err := f.svc.List(context.Background(), userActor, nil, entities.Page{Number: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "b1", mine[0].ID)

	all, _, err := f.svc.List(context.Background(), adminActor, nil, entities.Page{Number: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBookingSweepAppliesPolicy(t *testing.T) {
	f := newBookingFixture(DefaultPolicy())
	f.bookings.expiredIDs = []string{"b1", "b2"}
	f.bookings.elapsedIDs = []string{"b3"}

	result, err := f.svc.SweepExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b2"}, result.Expired)
	assert.Equal(t, []string{"b3"}, result.Completed)
}

func TestBookingSweepDisabled(t *testing.T) {
	f := newBookingFixture(LifecyclePolicy{})
	f.bookings.expiredIDs = []string{"b1"}
	f.bookings.elapsedIDs = []string{"b2"}

	result, err := f.svc.SweepExpired(context.Background())

	require.NoError(t, err)
	assert.Empty(t, result.Expired)
	assert.Empty(t, result.Completed)
}
