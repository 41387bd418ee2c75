package entities

import (
	"time"

	"parkreserve/internal/errors"
)

// TimeWindow is a half-open booking interval [Start, End).
type TimeWindow struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// Validate checks the window shape. When requireFuture is set the start must
// also lie strictly after now (booking creation); availability queries accept
// windows in the past.
func (w TimeWindow) Validate(now time.Time, requireFuture bool) error {
	if w.Start.IsZero() || w.End.IsZero() {
		return errors.InvalidInput("start_time and end_time are required")
	}
	if !w.Start.Before(w.End) {
		return errors.InvalidInput("start_time must be before end_time")
	}
	if requireFuture && !w.Start.After(now) {
		return errors.InvalidInput("start_time must be in the future")
	}
	return nil
}

// Overlaps is the half-open interval test: touching endpoints do not count as
// overlap, so a booking ending at T and one starting at T never conflict. The
// SQL overlap predicates use the equivalent comparison.
func (w TimeWindow) Overlaps(o TimeWindow) bool {
	return w.Start.Before(o.End) && w.End.After(o.Start)
}
