package ride

import (
	"errors"
	"testing"
	"time"

	"github.com/example/ride-lifecycle/internal/models"
)

func newRide(status models.RideStatus) *models.Ride {
	return &models.Ride{ID: "r1", RiderID: "u1", Status: status, CreatedAt: time.Now()}
}

func TestAssignSetsDriverAndState(t *testing.T) {
	r := newRide(models.StatusRequested)
	if err := Assign(r, "d1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if r.DriverID != "d1" || r.Status != models.StatusAccepted {
		t.Fatalf("got driver=%q status=%q", r.DriverID, r.Status)
	}
}

func TestAssignRejectsNonRequested(t *testing.T) {
	for _, st := range []models.RideStatus{models.StatusAccepted, models.StatusInProgress, models.StatusCompleted, models.StatusCanceled} {
		r := newRide(st)
		if err := Assign(r, "d1"); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("state %s: expected ErrInvalidTransition, got %v", st, err)
		}
	}
}

func TestAssignRequiresDriverID(t *testing.T) {
	r := newRide(models.StatusRequested)
	if err := Assign(r, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestStartOnlyFromAccepted(t *testing.T) {
	r := newRide(models.StatusAccepted)
	if err := Start(r); err != nil {
		t.Fatalf("start: %v", err)
	}
	if r.Status != models.StatusInProgress {
		t.Fatalf("got status %q", r.Status)
	}
	// starting again must fail and leave state unchanged
	if err := Start(r); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if r.Status != models.StatusInProgress {
		t.Fatalf("state changed on failed start: %q", r.Status)
	}
}

func TestStartFromRequestedFails(t *testing.T) {
	r := newRide(models.StatusRequested)
	if err := Start(r); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if r.Status != models.StatusRequested {
		t.Fatalf("state changed: %q", r.Status)
	}
}

func TestCancelAllowedStates(t *testing.T) {
	for _, st := range []models.RideStatus{models.StatusRequested, models.StatusAccepted} {
		r := newRide(st)
		if err := Cancel(r); err != nil {
			t.Fatalf("cancel from %s: %v", st, err)
		}
	}
	for _, st := range []models.RideStatus{models.StatusInProgress, models.StatusCompleted, models.StatusCanceled} {
		r := newRide(st)
		if err := Cancel(r); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("cancel from %s: expected ErrInvalidTransition, got %v", st, err)
		}
	}
}

func TestCompleteRequiresBothConfirmations(t *testing.T) {
	r := newRide(models.StatusInProgress)
	r.RiderCompleted = true
	if err := Complete(r, time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	r.DriverCompleted = true
	if err := Complete(r, time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if r.Status != models.StatusCompleted || r.CompletedAt == nil {
		t.Fatalf("got status=%q completedAt=%v", r.Status, r.CompletedAt)
	}
}

func TestCompleteFromCanceledFails(t *testing.T) {
	r := newRide(models.StatusCanceled)
	r.RiderCompleted = true
	r.DriverCompleted = true
	if err := Complete(r, time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestValidRating(t *testing.T) {
	for _, v := range []int{1, 3, 5} {
		if !ValidRating(v) {
			t.Fatalf("rating %d should be valid", v)
		}
	}
	for _, v := range []int{0, -1, 6} {
		if ValidRating(v) {
			t.Fatalf("rating %d should be invalid", v)
		}
	}
}
