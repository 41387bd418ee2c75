package service

import (
	"context"
	"fmt"
	"log"

	"parkreserve/internal/entities"
)

type bookingSweeper interface {
	SweepExpired(ctx context.Context) (*entities.SweepResult, error)
}

// JobService runs the periodic booking sweep. Invoked by the cron scheduler;
// safe to re-run at any time.
type JobService struct {
	bookings bookingSweeper
}

func NewJobService(bookings bookingSweeper) *JobService {
	return &JobService{bookings: bookings}
}

func (s *JobService) SweepBookings(ctx context.Context) error {
	result, err := s.bookings.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("cron job: sweep bookings: %w", err)
	}

	if len(result.Expired) == 0 && len(result.Completed) == 0 {
		log.Println("Cron Job: no bookings to sweep.")
		return nil
	}
	if len(result.Expired) > 0 {
		log.Printf("Cron Job: marked %d pending bookings as EXPIRED. IDs: %v", len(result.Expired), result.Expired)
	}
	if len(result.Completed) > 0 {
		log.Printf("Cron Job: marked %d approved bookings as COMPLETED. IDs: %v", len(result.Completed), result.Completed)
	}
	return nil
}
