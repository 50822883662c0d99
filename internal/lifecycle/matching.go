package lifecycle

import (
	"context"
	"fmt"

	"github.com/example/ride-lifecycle/internal/models"
	"github.com/example/ride-lifecycle/internal/observability"
	"github.com/example/ride-lifecycle/internal/ride"
)

// ListPending returns the priority-ordered snapshot of requests awaiting a
// driver: best-rated riders first, first-come-first-served among equals.
// When driverID is non-empty, rides that driver already rejected are
// filtered out.
func (s *Service) ListPending(driverID string) []models.PendingRequest {
	all := s.Queue.List()
	if driverID == "" {
		return all
	}
	out := all[:0]
	for _, req := range all {
		if !s.rejects.rejected(driverID, req.RideID) {
			out = append(out, req)
		}
	}
	return out
}

// BestMatch returns the single highest-priority pending request, if any.
func (s *Service) BestMatch() (models.PendingRequest, bool) {
	return s.Queue.BestMatch()
}

// AcceptRide binds a driver to a pending ride: the queue entry is claimed
// atomically and the ride transitions requested -> accepted with the driver
// ID set. A claim lost to a racing acceptance (or a cancellation) yields
// ErrAlreadyMatched, which callers treat as "try the next ride". A claim
// that fails for any other reason puts the entry back, so a transient store
// error never strands a requested ride outside the queue.
func (s *Service) AcceptRide(ctx context.Context, driverID, rideID string) (*models.Ride, error) {
	if driverID == "" {
		return nil, fmt.Errorf("%w: driver id required", ride.ErrInvalidTransition)
	}
	driver := s.lookupDriver(driverID)
	if driver != nil && !driver.Active {
		return nil, fmt.Errorf("%w: driver %s is offline", ride.ErrDriverUnavailable, driverID)
	}

	req, ok := s.Queue.Claim(rideID)
	if !ok {
		if _, err := s.Store.GetRide(rideID); err != nil {
			return nil, err
		}
		observability.AcceptConflict.Inc()
		return nil, fmt.Errorf("%w: ride %s", ride.ErrAlreadyMatched, rideID)
	}

	unlock := s.locks.lock(rideID)
	defer unlock()

	r, err := s.Store.GetRide(rideID)
	if err != nil {
		s.Queue.Enqueue(req)
		return nil, err
	}
	if err := ride.Assign(r, driverID); err != nil {
		// claimed the entry but the ride moved on, e.g. canceled by the
		// rider between our claim and the lock
		observability.AcceptConflict.Inc()
		return nil, fmt.Errorf("%w: ride %s", ride.ErrAlreadyMatched, rideID)
	}

	if s.Payments != nil && r.PaymentMethod == "card" && r.Fare > 0 {
		holdID, err := s.Payments.Hold(ctx, toCents(r.Fare), "usd", r.RiderID)
		if err == nil {
			r.PaymentHold = holdID
		}
	}

	if err := s.Store.UpdateRide(r); err != nil {
		if r.PaymentHold != "" && s.Payments != nil {
			_ = s.Payments.Cancel(ctx, r.PaymentHold)
		}
		s.Queue.Enqueue(req)
		return nil, err
	}
	observability.RidesMatched.Inc()
	s.publish(r, "accepted", driver, 0)
	return r, nil
}

// RejectRide records that the driver passed on the ride. Shared ride state
// is untouched: the ride stays requested and available to other drivers.
// Rejecting twice, or rejecting an absent ride, is a no-op.
func (s *Service) RejectRide(driverID, rideID string) {
	if driverID == "" || rideID == "" {
		return
	}
	s.rejects.add(driverID, rideID)
}

// lookupDriver fetches the driver's public profile when a directory is
// wired. A missing record is not an error here: the caller asserted the
// driver is available, the directory is defense-in-depth.
func (s *Service) lookupDriver(driverID string) *models.Driver {
	if s.Directory == nil {
		return nil
	}
	d, err := s.Directory.Get(driverID)
	if err != nil {
		return nil
	}
	return &d
}

func toCents(amount float64) int64 {
	return int64(amount*100 + 0.5)
}
