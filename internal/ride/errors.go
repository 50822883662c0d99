package ride

import "errors"

var (
	// ErrInvalidTransition is returned when a state change violates the
	// lifecycle guards, e.g. starting a ride that was never accepted.
	ErrInvalidTransition = errors.New("invalid ride state transition")

	// ErrAlreadyMatched is returned when a driver tries to accept a ride
	// another driver claimed first (or that was canceled). Recoverable:
	// the caller should move on to the next candidate.
	ErrAlreadyMatched = errors.New("ride already matched")

	// ErrInvalidRideState is returned when a completion confirmation
	// arrives for a ride that is already completed or canceled.
	ErrInvalidRideState = errors.New("ride not in a confirmable state")

	// ErrNotFound is returned when a referenced ride, rider or driver
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDriverUnavailable is returned when the fleet directory knows the
	// driver and reports them offline.
	ErrDriverUnavailable = errors.New("driver not available")

	// ErrInvalidRating is returned for ratings outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrInvalidRequest is returned for malformed ride parameters, e.g. a
	// negative fare.
	ErrInvalidRequest = errors.New("invalid ride request")
)
