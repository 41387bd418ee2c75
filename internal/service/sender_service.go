package service

import (
	"context"
	"fmt"
	"log"

	"parkreserve/internal/entities"
)

// AdminDirectory supplies recipients for admin-facing notifications.
type AdminDirectory interface {
	AdminEmails(ctx context.Context) ([]string, error)
}

const timeLayout = "02 Jan 2006 15:04 MST"

// SenderService implements BookingNotifier over SendGrid email and Twilio
// SMS. Delivery failures never revert the domain operation that triggered
// them; callers log and carry on.
type SenderService struct {
	admins AdminDirectory
}

func NewSenderService(admins AdminDirectory) *SenderService {
	return &SenderService{admins: admins}
}

func (s *SenderService) NotifyBookingCreated(ctx context.Context, d *entities.BookingDetail) error {
	emails, err := s.admins.AdminEmails(ctx)
	if err != nil {
		return fmt.Errorf("load admin recipients: %w", err)
	}
	if len(emails) == 0 {
		log.Printf("no admin emails configured, skipping booking-created notification for %s", d.BookingID)
		return nil
	}

	subject := fmt.Sprintf("New parking booking request - Slot %s", d.SlotNumber)
	body := fmt.Sprintf(
		"A new booking is waiting for review.\n\n"+
			"User: %s (%s)\n"+
			"Slot: %s (%s)\n"+
			"Vehicle plate: %s\n"+
			"Plan: %s\n"+
			"From: %s\n"+
			"To: %s\n",
		d.UserName, d.UserEmail,
		d.SlotNumber, d.SlotType,
		d.PlateNumber,
		d.PlanName,
		d.StartTime.Format(timeLayout),
		d.EndTime.Format(timeLayout),
	)

	var firstErr error
	for _, email := range emails {
		if err := SendEmailWithSendGrid(email, "Admin", subject, body, "", nil); err != nil {
			log.Printf("booking-created notification to %s failed: %v", email, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *SenderService) NotifyBookingApproved(ctx context.Context, d *entities.BookingDetail, receipt []byte) error {
	subject := fmt.Sprintf("Your parking booking is approved - Slot %s", d.SlotNumber)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour booking has been approved.\n\n"+
			"Slot: %s (%s)\n"+
			"Vehicle plate: %s\n"+
			"Check-in: %s\n"+
			"Check-out: %s\n\n"+
			"Your ticket is attached.\n",
		d.UserName,
		d.SlotNumber, d.SlotType,
		d.PlateNumber,
		d.StartTime.Format(timeLayout),
		d.EndTime.Format(timeLayout),
	)
	if err := SendEmailWithSendGrid(d.UserEmail, d.UserName, subject, body, "", receipt); err != nil {
		return err
	}

	if d.UserPhone != "" {
		sms := fmt.Sprintf("ParkReserve: booking for slot %s approved. Check-in: %s. Details in your email.",
			d.SlotNumber, d.StartTime.Format("02/01 15:04"))
		if err := SendSMS(d.UserPhone, sms); err != nil {
			log.Printf("approval SMS for booking %s failed: %v", d.BookingID, err)
		}
	}
	return nil
}

func (s *SenderService) NotifyBookingRejected(ctx context.Context, d *entities.BookingDetail) error {
	subject := fmt.Sprintf("Your parking booking was rejected - Slot %s", d.SlotNumber)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour booking for slot %s (%s to %s) was rejected.\n"+
			"Any completed payment will be refunded.\n",
		d.UserName,
		d.SlotNumber,
		d.StartTime.Format(timeLayout),
		d.EndTime.Format(timeLayout),
	)
	return SendEmailWithSendGrid(d.UserEmail, d.UserName, subject, body, "", nil)
}
