package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/example/ride-lifecycle/internal/models"
	"github.com/example/ride-lifecycle/internal/observability"
	"github.com/example/ride-lifecycle/internal/ride"
)

// ConfirmByRider records the rider's completion signal, optionally carrying
// a 1..5 rating for the driver. Idempotent: a repeated confirmation returns
// the current status with no further effect. When this is the second signal,
// the ride is finalized in the same critical section.
func (s *Service) ConfirmByRider(ctx context.Context, rideID string, rating int) (models.ConfirmationStatus, error) {
	if rating != 0 && !ride.ValidRating(rating) {
		return models.ConfirmationStatus{}, fmt.Errorf("%w: %d", ride.ErrInvalidRating, rating)
	}
	return s.confirm(ctx, rideID, func(r *models.Ride) bool {
		if r.RiderCompleted {
			return false
		}
		r.RiderCompleted = true
		if rating != 0 && r.Rating == 0 {
			// stored now, applied to the driver's account only at
			// finalization
			r.Rating = rating
		}
		return true
	})
}

// ConfirmByDriver is the driver-side completion signal, symmetric to
// ConfirmByRider.
func (s *Service) ConfirmByDriver(ctx context.Context, rideID string) (models.ConfirmationStatus, error) {
	return s.confirm(ctx, rideID, func(r *models.Ride) bool {
		if r.DriverCompleted {
			return false
		}
		r.DriverCompleted = true
		return true
	})
}

// CompletionStatus is a pure read of the confirmation flags, safe to poll.
func (s *Service) CompletionStatus(rideID string) (models.ConfirmationStatus, error) {
	r, err := s.Store.GetRide(rideID)
	if err != nil {
		return models.ConfirmationStatus{}, err
	}
	return statusOf(r), nil
}

// confirm applies one side's completion signal under the ride lock. The
// apply func reports whether it changed anything; the "both done" check and
// the completed transition happen atomically with it, so concurrent
// confirmations resolve to exactly one finalization.
func (s *Service) confirm(ctx context.Context, rideID string, apply func(*models.Ride) bool) (models.ConfirmationStatus, error) {
	unlock := s.locks.lock(rideID)
	defer unlock()

	r, err := s.Store.GetRide(rideID)
	if err != nil {
		return models.ConfirmationStatus{}, err
	}
	if !ride.Confirmable(r) {
		return models.ConfirmationStatus{}, fmt.Errorf("%w: ride %s is %s", ride.ErrInvalidRideState, rideID, r.Status)
	}

	if !apply(r) {
		// duplicate signal: report current state, change nothing
		return statusOf(r), nil
	}

	now := time.Now().UTC()
	first := s.firstConfirm.mark(rideID, now)

	if ride.BothConfirmed(r) {
		observability.ConfirmationGap.Observe(now.Sub(first).Seconds())
		if err := s.finalizeLocked(ctx, r, now); err != nil {
			return models.ConfirmationStatus{}, err
		}
	} else if err := s.Store.UpdateRide(r); err != nil {
		return models.ConfirmationStatus{}, err
	}
	return statusOf(r), nil
}

// finalizeLocked completes the ride and fires the reward side effects.
// Callers hold the ride lock; the Confirmable guard above guarantees this
// runs at most once per ride.
func (s *Service) finalizeLocked(ctx context.Context, r *models.Ride, now time.Time) error {
	if err := ride.Complete(r, now); err != nil {
		return err
	}
	r.PointsEarned = s.Policy.Points(r.Fare, r.Rating)

	// reward hooks are best effort: a missing collaborator account must
	// not wedge an otherwise finished ride
	_ = s.Accounts.AwardPoints(r.RiderID, r.PointsEarned)
	_ = s.Accounts.IncrementRides(r.RiderID)
	driverAccount := r.DriverID
	if d := s.lookupDriver(r.DriverID); d != nil && d.UserID != "" {
		driverAccount = d.UserID
	}
	_ = s.Accounts.IncrementRides(driverAccount)
	if r.Rating != 0 {
		_ = s.Accounts.ApplyRating(driverAccount, r.Rating)
	}

	if r.PaymentHold != "" && s.Payments != nil {
		_ = s.Payments.Capture(ctx, r.PaymentHold)
	}

	if err := s.Store.UpdateRide(r); err != nil {
		return err
	}
	s.firstConfirm.drop(r.ID)
	observability.RidesCompleted.Inc()
	s.publish(r, "completed", nil, r.PointsEarned)
	return nil
}

// DriverBonus returns the driver's priority-rider completion bonus for a
// finished ride, zero when the rider does not qualify.
func (s *Service) DriverBonus(r *models.Ride) float64 {
	rider, err := s.Accounts.GetUser(r.RiderID)
	if err != nil {
		return 0
	}
	return s.Policy.DriverBonus(r.Fare, rider.Rating)
}

func statusOf(r *models.Ride) models.ConfirmationStatus {
	return models.ConfirmationStatus{
		RideID:          r.ID,
		RiderCompleted:  r.RiderCompleted,
		DriverCompleted: r.DriverCompleted,
		BothCompleted:   r.RiderCompleted && r.DriverCompleted,
	}
}
