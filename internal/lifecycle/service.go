// Package lifecycle is the ride-matching and dual-confirmation engine. It
// owns every mutation of ride state: queuing requests, binding drivers to
// pending rides, lifecycle transitions, and the two-sided completion
// protocol that finalizes a ride only once rider and driver both agree.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-lifecycle/internal/drivers"
	"github.com/example/ride-lifecycle/internal/events"
	"github.com/example/ride-lifecycle/internal/models"
	"github.com/example/ride-lifecycle/internal/observability"
	"github.com/example/ride-lifecycle/internal/payments"
	"github.com/example/ride-lifecycle/internal/queue"
	"github.com/example/ride-lifecycle/internal/rewards"
	"github.com/example/ride-lifecycle/internal/ride"
	"github.com/example/ride-lifecycle/internal/storage"
)

// Accounts is the profile collaborator the engine needs: reputation reads at
// request time and reward side effects at finalization.
type Accounts interface {
	GetUser(id string) (models.User, error)
	AwardPoints(userID string, points int) error
	ApplyRating(userID string, rating int) error
	IncrementRides(userID string) error
}

// Service wires the queue, store and collaborators together. Directory and
// Payments are optional; a nil Directory skips driver re-validation and a
// nil Payments means no holds are placed.
type Service struct {
	Store     storage.RideStore
	Queue     *queue.PendingQueue
	Accounts  Accounts
	Directory drivers.Directory
	Publisher events.Publisher
	Payments  payments.Holder
	Policy    rewards.Policy

	locks   rideLocks
	rejects rejectLog
	// firstConfirm tracks when the first completion signal arrived, to
	// observe the gap between the two confirmations.
	firstConfirm timeIndex
}

// NewService builds a Service with the given collaborators and the default
// rewards policy.
func NewService(store storage.RideStore, q *queue.PendingQueue, accounts Accounts, pub events.Publisher) *Service {
	return &Service{
		Store:     store,
		Queue:     q,
		Accounts:  accounts,
		Publisher: pub,
		Policy:    rewards.DefaultPolicy(),
	}
}

// RequestInput carries the rider's trip parameters. Fare is computed by an
// external collaborator and fixed at creation.
type RequestInput struct {
	RiderID       string
	Pickup        models.Location
	Destination   models.Location
	VehicleType   string
	PaymentMethod string
	Fare          float64
	SplitFare     bool
	SplitWith     []string
}

// RequestRide creates a ride in the requested state and enqueues it for
// matching with the rider's reputation snapshotted for priority.
func (s *Service) RequestRide(ctx context.Context, in RequestInput) (*models.Ride, error) {
	rider, err := s.Accounts.GetUser(in.RiderID)
	if err != nil {
		return nil, err
	}
	if in.Fare < 0 {
		return nil, fmt.Errorf("%w: fare must be non-negative, got %.2f", ride.ErrInvalidRequest, in.Fare)
	}
	if in.VehicleType == "" {
		in.VehicleType = "standard"
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = "cash"
	}

	r := &models.Ride{
		ID:            uuid.NewString(),
		RiderID:       rider.ID,
		Pickup:        in.Pickup,
		Destination:   in.Destination,
		Status:        models.StatusRequested,
		Fare:          in.Fare,
		VehicleType:   in.VehicleType,
		PaymentMethod: in.PaymentMethod,
		SplitFare:     in.SplitFare,
		SplitWith:     in.SplitWith,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.Store.SaveRide(r); err != nil {
		return nil, err
	}
	s.Queue.Enqueue(models.PendingRequest{
		RideID:      r.ID,
		RiderID:     rider.ID,
		RiderName:   rider.Name,
		RiderRating: rider.Rating,
		TotalRides:  rider.TotalRides,
		Pickup:      r.Pickup,
		Destination: r.Destination,
		Fare:        r.Fare,
		VehicleType: r.VehicleType,
		CreatedAt:   r.CreatedAt,
	})
	observability.RidesRequested.Inc()
	s.publish(r, "requested", nil, 0)
	return r, nil
}

// StartRide moves an accepted ride to in_progress.
func (s *Service) StartRide(ctx context.Context, rideID string) (*models.Ride, error) {
	unlock := s.locks.lock(rideID)
	defer unlock()

	r, err := s.Store.GetRide(rideID)
	if err != nil {
		return nil, err
	}
	if err := ride.Start(r); err != nil {
		return nil, err
	}
	if err := s.Store.UpdateRide(r); err != nil {
		return nil, err
	}
	s.publish(r, "started", nil, 0)
	return r, nil
}

// CancelRide cancels a requested or accepted ride and drops any pending
// queue entry atomically with the state change. Cancellation once underway
// is rejected.
func (s *Service) CancelRide(ctx context.Context, rideID string) error {
	unlock := s.locks.lock(rideID)
	defer unlock()

	r, err := s.Store.GetRide(rideID)
	if err != nil {
		return err
	}
	if err := ride.Cancel(r); err != nil {
		return err
	}
	if err := s.Store.UpdateRide(r); err != nil {
		// cancel did not commit; the ride stays requested and matchable
		return err
	}
	s.Queue.Remove(rideID)
	s.firstConfirm.drop(rideID)
	if r.PaymentHold != "" && s.Payments != nil {
		// best effort: an unreleased hold expires on its own
		_ = s.Payments.Cancel(ctx, r.PaymentHold)
	}
	observability.RidesCanceled.Inc()
	s.publish(r, "canceled", nil, 0)
	return nil
}

// RideByID returns the ride as stored.
func (s *Service) RideByID(rideID string) (*models.Ride, error) {
	return s.Store.GetRide(rideID)
}

// PotentialPoints estimates the points a ride would earn if completed with
// a top rating, for rider-facing previews.
func (s *Service) PotentialPoints(r *models.Ride) int {
	return s.Policy.Points(r.Fare, 5)
}

func (s *Service) publish(r *models.Ride, eventType string, driver *models.Driver, points int) {
	if s.Publisher == nil {
		return
	}
	_ = s.Publisher.Publish(models.RideEvent{
		RideID:    r.ID,
		Type:      eventType,
		Status:    r.Status,
		RiderID:   r.RiderID,
		DriverID:  r.DriverID,
		Driver:    driver,
		Points:    points,
		Timestamp: time.Now().UTC(),
	})
}
