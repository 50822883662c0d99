// Package ride holds the pure lifecycle rules for a ride: which state
// transitions are legal, and the dual-confirmation predicate that gates
// completion. No I/O, no locking; callers serialize access per ride.
package ride

import (
	"fmt"
	"time"

	"github.com/example/ride-lifecycle/internal/models"
)

// transitions maps each state to the set of states reachable from it.
// Completion is additionally gated by both confirmation flags, checked in
// Complete rather than here.
var transitions = map[models.RideStatus][]models.RideStatus{
	models.StatusRequested:  {models.StatusAccepted, models.StatusCanceled},
	models.StatusAccepted:   {models.StatusInProgress, models.StatusCompleted, models.StatusCanceled},
	models.StatusInProgress: {models.StatusCompleted},
	models.StatusCompleted:  {},
	models.StatusCanceled:   {},
}

// CanTransition reports whether from -> to is a legal lifecycle edge.
func CanTransition(from, to models.RideStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Assign binds a driver to a requested ride and moves it to accepted.
// The driver ID is set atomically with the transition and never changes
// again for the life of the ride.
func Assign(r *models.Ride, driverID string) error {
	if r.Status != models.StatusRequested {
		return fmt.Errorf("%w: cannot accept ride in state %q", ErrInvalidTransition, r.Status)
	}
	if driverID == "" {
		return fmt.Errorf("%w: driver id required to accept", ErrInvalidTransition)
	}
	r.DriverID = driverID
	r.Status = models.StatusAccepted
	return nil
}

// Start moves an accepted ride to in_progress.
func Start(r *models.Ride) error {
	if r.Status != models.StatusAccepted {
		return fmt.Errorf("%w: cannot start ride in state %q", ErrInvalidTransition, r.Status)
	}
	r.Status = models.StatusInProgress
	return nil
}

// Cancel moves a requested or accepted ride to canceled. Cancellation once
// underway is not modeled; it is rejected rather than silently permitted.
func Cancel(r *models.Ride) error {
	if !CanTransition(r.Status, models.StatusCanceled) {
		return fmt.Errorf("%w: cannot cancel ride in state %q", ErrInvalidTransition, r.Status)
	}
	r.Status = models.StatusCanceled
	return nil
}

// Confirmable reports whether a completion confirmation may still be
// recorded for the ride.
func Confirmable(r *models.Ride) bool {
	return r.Status == models.StatusAccepted || r.Status == models.StatusInProgress
}

// BothConfirmed is the dual-confirmation predicate.
func BothConfirmed(r *models.Ride) bool {
	return r.RiderCompleted && r.DriverCompleted
}

// Complete finalizes a ride. It requires both confirmation flags and a state
// from which completion is reachable, and stamps CompletedAt exactly once.
func Complete(r *models.Ride, now time.Time) error {
	if !BothConfirmed(r) {
		return fmt.Errorf("%w: completion requires both confirmations", ErrInvalidTransition)
	}
	if !CanTransition(r.Status, models.StatusCompleted) {
		return fmt.Errorf("%w: cannot complete ride in state %q", ErrInvalidTransition, r.Status)
	}
	r.Status = models.StatusCompleted
	t := now.UTC()
	r.CompletedAt = &t
	return nil
}

// ValidRating reports whether v is an acceptable 1..5 rating.
func ValidRating(v int) bool { return v >= 1 && v <= 5 }
