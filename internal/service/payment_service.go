package service

import (
	"context"
	"log"

	"parkreserve/internal/auth"
	"parkreserve/internal/db"
	"parkreserve/internal/entities"
	"parkreserve/internal/errors"
)

type PaymentStore interface {
	GetByID(ctx context.Context, id string) (*db.Payment, error)
	GetByBooking(ctx context.Context, bookingID string) (*db.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]db.Payment, error)
	SetStatus(ctx context.Context, id string, status entities.PaymentStatus) error
	SetStripeSession(ctx context.Context, id, sessionID string) error
}

// CheckoutGateway is the online payment processor. It is optional; without
// one, bookings are paid through RecordPayment only.
type CheckoutGateway interface {
	CreateCheckoutSession(amountCents int64, currency, description, customerEmail string) (url, sessionID string, err error)
	RefundBySession(sessionID string) error
}

// PaymentService is the payment ledger: one record per booking, amount fixed
// at creation, status driven exclusively by the lifecycle engine.
type PaymentService struct {
	payments PaymentStore
	gateway  CheckoutGateway // nil when online payments are disabled
}

func NewPaymentService(payments PaymentStore, gateway CheckoutGateway) *PaymentService {
	return &PaymentService{payments: payments, gateway: gateway}
}

func (s *PaymentService) GetByBooking(ctx context.Context, bookingID string) (*db.Payment, error) {
	return s.payments.GetByBooking(ctx, bookingID)
}

// Get returns a payment to its owner or an admin.
func (s *PaymentService) Get(ctx context.Context, actor auth.Actor, id string) (*db.Payment, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, errors.Forbidden("not authorized to access this payment")
	}
	return payment, nil
}

func (s *PaymentService) ListMine(ctx context.Context, actor auth.Actor) ([]db.Payment, error) {
	return s.payments.ListByUser(ctx, actor.UserID)
}

// MarkPaid is idempotent: a payment already PAID stays PAID with no error.
func (s *PaymentService) MarkPaid(ctx context.Context, paymentID string) error {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment.Status == entities.PaymentPaid {
		return nil
	}
	return s.payments.SetStatus(ctx, paymentID, entities.PaymentPaid)
}

// MarkRefunded is idempotent. When the payment went through the online
// gateway the refund is issued there too, best-effort: a gateway failure is
// logged, not propagated, so the domain cascade never rolls back.
func (s *PaymentService) MarkRefunded(ctx context.Context, paymentID string) error {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment.Status == entities.PaymentRefunded {
		return nil
	}
	if err := s.payments.SetStatus(ctx, paymentID, entities.PaymentRefunded); err != nil {
		return err
	}
	if payment.StripeSessionID != "" && s.gateway != nil {
		if err := s.gateway.RefundBySession(payment.StripeSessionID); err != nil {
			log.Printf("payment %s refunded in ledger, but gateway refund failed: %v", paymentID, err)
		}
	}
	return nil
}

// OpenCheckout creates an online payment session for the payment and records
// the session on the payment row.
func (s *PaymentService) OpenCheckout(ctx context.Context, payment *db.Payment, customerEmail string) (*entities.CheckoutSession, error) {
	if s.gateway == nil {
		return nil, errors.Conflict("online payments are not enabled")
	}
	if payment.AmountCents <= 0 {
		return nil, errors.Conflict("nothing to pay for a free plan")
	}
	url, sessionID, err := s.gateway.CreateCheckoutSession(
		payment.AmountCents, "usd", "Parking booking "+payment.BookingID, customerEmail)
	if err != nil {
		return nil, err
	}
	if err := s.payments.SetStripeSession(ctx, payment.ID, sessionID); err != nil {
		return nil, err
	}
	return &entities.CheckoutSession{SessionID: sessionID, URL: url}, nil
}
