package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/example/ride-lifecycle/internal/accounts"
	"github.com/example/ride-lifecycle/internal/drivers"
	"github.com/example/ride-lifecycle/internal/models"
	"github.com/example/ride-lifecycle/internal/queue"
	"github.com/example/ride-lifecycle/internal/ride"
	"github.com/example/ride-lifecycle/internal/storage"
)

type capturedEvents struct {
	mu     sync.Mutex
	events []models.RideEvent
}

func (c *capturedEvents) Publish(e models.RideEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *capturedEvents) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.Type
	}
	return out
}

type fakeHolder struct {
	mu       sync.Mutex
	held     []string
	captured []string
	canceled []string
	nextID   int
}

func (f *fakeHolder) Hold(ctx context.Context, amount int64, currency, customerID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := "pi_" + string(rune('0'+f.nextID))
	f.held = append(f.held, id)
	return id, nil
}

func (f *fakeHolder) Capture(ctx context.Context, holdID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captured = append(f.captured, holdID)
	return nil
}

func (f *fakeHolder) Cancel(ctx context.Context, holdID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = append(f.canceled, holdID)
	return nil
}

// flakyStore delegates to a real store but fails a set number of writes,
// simulating transient storage outages.
type flakyStore struct {
	storage.RideStore
	mu          sync.Mutex
	failUpdates int
}

func (f *flakyStore) UpdateRide(r *models.Ride) error {
	f.mu.Lock()
	fail := f.failUpdates > 0
	if fail {
		f.failUpdates--
	}
	f.mu.Unlock()
	if fail {
		return errors.New("store write failed")
	}
	return f.RideStore.UpdateRide(r)
}

type testEnv struct {
	svc    *Service
	acct   *accounts.Store
	pubs   *capturedEvents
	holder *fakeHolder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	acct := accounts.NewStore()
	acct.Seed(models.User{ID: "rider1", Name: "Ann", Rating: 4.9})
	acct.Seed(models.User{ID: "rider2", Name: "Bob", Rating: 4.5})
	acct.Seed(models.User{ID: "drv-user1", Name: "Michael", IsDriver: true, Rating: 5.0})

	reg := drivers.NewRegistry()
	reg.Upsert(models.Driver{ID: "d1", UserID: "drv-user1", Name: "Michael", Vehicle: "Toyota Camry", Rating: 5.0, Active: true})
	reg.Upsert(models.Driver{ID: "d2", Name: "Sarah", Vehicle: "Honda Civic", Rating: 4.8, Active: true})
	reg.Upsert(models.Driver{ID: "d-offline", Name: "Off", Active: false})

	pubs := &capturedEvents{}
	holder := &fakeHolder{}

	svc := NewService(storage.NewMemoryStore(), queue.NewPendingQueue(), acct, pubs)
	svc.Directory = reg
	svc.Payments = holder
	return &testEnv{svc: svc, acct: acct, pubs: pubs, holder: holder}
}

func (e *testEnv) request(t *testing.T, riderID string, fare float64) *models.Ride {
	t.Helper()
	r, err := e.svc.RequestRide(context.Background(), RequestInput{
		RiderID:     riderID,
		Pickup:      models.Location{Latitude: 40.71, Longitude: -74.00, Name: "Downtown"},
		Destination: models.Location{Latitude: 40.75, Longitude: -73.98, Name: "Midtown"},
		Fare:        fare,
	})
	if err != nil {
		t.Fatalf("request ride: %v", err)
	}
	return r
}

func TestHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	r := env.request(t, "rider1", 20)
	if r.Status != models.StatusRequested || r.DriverID != "" {
		t.Fatalf("after request: status=%s driver=%q", r.Status, r.DriverID)
	}
	if len(env.svc.ListPending("")) != 1 {
		t.Fatal("ride should be pending")
	}

	accepted, err := env.svc.AcceptRide(ctx, "d1", r.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != models.StatusAccepted || accepted.DriverID != "d1" {
		t.Fatalf("after accept: status=%s driver=%q", accepted.Status, accepted.DriverID)
	}
	if len(env.svc.ListPending("")) != 0 {
		t.Fatal("accepted ride must leave the pending queue")
	}

	if _, err := env.svc.StartRide(ctx, r.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	st, err := env.svc.ConfirmByDriver(ctx, r.ID)
	if err != nil {
		t.Fatalf("driver confirm: %v", err)
	}
	if !st.DriverCompleted || st.RiderCompleted || st.BothCompleted {
		t.Fatalf("after driver confirm: %+v", st)
	}

	st, err = env.svc.ConfirmByRider(ctx, r.ID, 5)
	if err != nil {
		t.Fatalf("rider confirm: %v", err)
	}
	if !st.BothCompleted {
		t.Fatalf("expected both completed: %+v", st)
	}

	final, _ := env.svc.RideByID(r.ID)
	if final.Status != models.StatusCompleted {
		t.Fatalf("status=%s", final.Status)
	}
	if final.CompletedAt == nil {
		t.Fatal("completedAt not set")
	}
	if final.PointsEarned <= 0 {
		t.Fatalf("pointsEarned=%d", final.PointsEarned)
	}

	rider, _ := env.acct.GetUser("rider1")
	if rider.Points != final.PointsEarned || rider.TotalRides != 1 {
		t.Fatalf("rider account: points=%d rides=%d", rider.Points, rider.TotalRides)
	}
	// rating 5 applied to the driver's account keeps the 5.0 average
	drv, _ := env.acct.GetUser("drv-user1")
	if drv.Rating != 5.0 || drv.TotalRides != 1 {
		t.Fatalf("driver account: rating=%f rides=%d", drv.Rating, drv.TotalRides)
	}

	want := []string{"requested", "accepted", "started", "completed"}
	got := env.pubs.types()
	if len(got) != len(want) {
		t.Fatalf("event types: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestReversedConfirmationOrderSameOutcome(t *testing.T) {
	run := func(riderFirst bool) *models.Ride {
		env := newTestEnv(t)
		ctx := context.Background()
		r := env.request(t, "rider1", 20)
		if _, err := env.svc.AcceptRide(ctx, "d1", r.ID); err != nil {
			t.Fatalf("accept: %v", err)
		}
		if _, err := env.svc.StartRide(ctx, r.ID); err != nil {
			t.Fatalf("start: %v", err)
		}
		if riderFirst {
			if _, err := env.svc.ConfirmByRider(ctx, r.ID, 5); err != nil {
				t.Fatalf("rider confirm: %v", err)
			}
			if _, err := env.svc.ConfirmByDriver(ctx, r.ID); err != nil {
				t.Fatalf("driver confirm: %v", err)
			}
		} else {
			if _, err := env.svc.ConfirmByDriver(ctx, r.ID); err != nil {
				t.Fatalf("driver confirm: %v", err)
			}
			if _, err := env.svc.ConfirmByRider(ctx, r.ID, 5); err != nil {
				t.Fatalf("rider confirm: %v", err)
			}
		}
		final, _ := env.svc.RideByID(r.ID)
		return final
	}

	a := run(true)
	b := run(false)
	if a.Status != models.StatusCompleted || b.Status != models.StatusCompleted {
		t.Fatalf("status: %s vs %s", a.Status, b.Status)
	}
	if a.PointsEarned != b.PointsEarned {
		t.Fatalf("points differ by confirmation order: %d vs %d", a.PointsEarned, b.PointsEarned)
	}
}

func TestConfirmIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	r := env.request(t, "rider1", 20)
	if _, err := env.svc.AcceptRide(ctx, "d1", r.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	first, err := env.svc.ConfirmByRider(ctx, r.ID, 4)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	second, err := env.svc.ConfirmByRider(ctx, r.ID, 4)
	if err != nil {
		t.Fatalf("duplicate confirm: %v", err)
	}
	if first != second {
		t.Fatalf("duplicate confirm changed status: %+v vs %+v", first, second)
	}

	if _, err := env.svc.ConfirmByDriver(ctx, r.ID); err != nil {
		t.Fatalf("driver confirm: %v", err)
	}
	final, _ := env.svc.RideByID(r.ID)
	rider, _ := env.acct.GetUser("rider1")
	if rider.Points != final.PointsEarned {
		t.Fatalf("double award: account=%d ride=%d", rider.Points, final.PointsEarned)
	}
}

func TestConcurrentAcceptExactlyOneWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	r := env.request(t, "rider1", 20)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, driverID := range []string{"d1", "d2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := env.svc.AcceptRide(ctx, id, r.ID)
			results <- err
		}(driverID)
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ride.ErrAlreadyMatched):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("got %d successes, %d conflicts", successes, conflicts)
	}

	final, _ := env.svc.RideByID(r.ID)
	if final.DriverID != "d1" && final.DriverID != "d2" {
		t.Fatalf("driver=%q", final.DriverID)
	}
	if final.Status != models.StatusAccepted {
		t.Fatalf("status=%s", final.Status)
	}
}

func TestConcurrentConfirmationsSingleFinalization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	r := env.request(t, "rider1", 20)
	if _, err := env.svc.AcceptRide(ctx, "d1", r.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := env.svc.StartRide(ctx, r.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = env.svc.ConfirmByRider(ctx, r.ID, 5)
	}()
	go func() {
		defer wg.Done()
		_, _ = env.svc.ConfirmByDriver(ctx, r.ID)
	}()
	wg.Wait()

	final, _ := env.svc.RideByID(r.ID)
	if final.Status != models.StatusCompleted {
		t.Fatalf("status=%s", final.Status)
	}
	rider, _ := env.acct.GetUser("rider1")
	if rider.Points != final.PointsEarned || rider.TotalRides != 1 {
		t.Fatalf("finalization ran more than once: points=%d rides=%d", rider.Points, rider.TotalRides)
	}
	completed := 0
	for _, typ := range env.pubs.types() {
		if typ == "completed" {
			completed++
		}
	}
	if completed != 1 {
		t.Fatalf("completed events: %d", completed)
	}
}

func TestCancelRemovesPendingEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	r := env.request(t, "rider1", 20)

	if err := env.svc.CancelRide(ctx, r.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	final, _ := env.svc.RideByID(r.ID)
	if final.Status != models.StatusCanceled {
		t.Fatalf("status=%s", final.Status)
	}
	if len(env.svc.ListPending("")) != 0 {
		t.Fatal("canceled ride still pending")
	}

	// a late accept sees the claim fail and reports the ride as gone
	if _, err := env.svc.AcceptRide(ctx, "d1", r.ID); !errors.Is(err, ride.ErrAlreadyMatched) {
		t.Fatalf("expected ErrAlreadyMatched, got %v", err)
	}
}

func TestCancelInProgressRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	r := env.request(t, "rider1", 20)
	if _, err := env.svc.AcceptRide(ctx, "d1", r.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := env.svc.StartRide(ctx, r.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := env.svc.CancelRide(ctx, r.ID); !errors.Is(err, ride.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestStartBeforeAcceptRejected(t *testing.T) {
	env := newTestEnv(t)
	r := env.request(t, "rider1", 20)
	if _, err := env.svc.StartRide(context.Background(), r.ID); !errors.Is(err, ride.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	unchanged, _ := env.svc.RideByID(r.ID)
	if unchanged.Status != models.StatusRequested {
		t.Fatalf("status changed to %s", unchanged.Status)
	}
}

func TestConfirmOnCanceledRideRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	r := env.request(t, "rider1", 20)
	if err := env.svc.CancelRide(ctx, r.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := env.svc.ConfirmByRider(ctx, r.ID, 5); !errors.Is(err, ride.ErrInvalidRideState) {
		t.Fatalf("expected ErrInvalidRideState, got %v", err)
	}
	if _, err := env.svc.ConfirmByDriver(ctx, r.ID); !errors.Is(err, ride.ErrInvalidRideState) {
		t.Fatalf("expected ErrInvalidRideState, got %v", err)
	}
}

func TestConfirmOnCompletedRideRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	r := env.request(t, "rider1", 20)
	if _, err := env.svc.AcceptRide(ctx, "d1", r.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := env.svc.ConfirmByDriver(ctx, r.ID); err != nil {
		t.Fatalf("driver confirm: %v", err)
	}
	if _, err := env.svc.ConfirmByRider(ctx, r.ID, 5); err != nil {
		t.Fatalf("rider confirm: %v", err)
	}
	// a stale retry after finalization surfaces the client bug
	if _, err := env.svc.ConfirmByRider(ctx, r.ID, 5); !errors.Is(err, ride.ErrInvalidRideState) {
		t.Fatalf("expected ErrInvalidRideState, got %v", err)
	}
}

func TestOfflineDriverRejected(t *testing.T) {
	env := newTestEnv(t)
	r := env.request(t, "rider1", 20)
	if _, err := env.svc.AcceptRide(context.Background(), "d-offline", r.ID); !errors.Is(err, ride.ErrDriverUnavailable) {
		t.Fatalf("expected ErrDriverUnavailable, got %v", err)
	}
	if len(env.svc.ListPending("")) != 1 {
		t.Fatal("failed accept must not consume the pending entry")
	}
}

func TestAcceptUnknownRide(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.svc.AcceptRide(context.Background(), "d1", "missing"); !errors.Is(err, ride.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRejectFiltersDriverView(t *testing.T) {
	env := newTestEnv(t)
	r := env.request(t, "rider1", 20)

	env.svc.RejectRide("d1", r.ID)
	env.svc.RejectRide("d1", r.ID) // duplicate reject is a no-op

	if got := env.svc.ListPending("d1"); len(got) != 0 {
		t.Fatalf("rejected ride still offered to d1: %v", got)
	}
	if got := env.svc.ListPending("d2"); len(got) != 1 {
		t.Fatalf("other drivers should still see the ride: %v", got)
	}
	// the ride itself is untouched
	unchanged, _ := env.svc.RideByID(r.ID)
	if unchanged.Status != models.StatusRequested {
		t.Fatalf("reject changed ride state to %s", unchanged.Status)
	}
}

func TestPriorityRiderMatchedFirst(t *testing.T) {
	env := newTestEnv(t)
	low := env.request(t, "rider2", 20)  // rated 4.5
	high := env.request(t, "rider1", 20) // rated 4.9, submitted later

	best, ok := env.svc.BestMatch()
	if !ok || best.RideID != high.ID {
		t.Fatalf("best=%v, want the 4.9 rider's request", best.RideID)
	}
	list := env.svc.ListPending("")
	if list[0].RideID != high.ID || list[1].RideID != low.ID {
		t.Fatalf("order: %s, %s", list[0].RideID, list[1].RideID)
	}
}

func TestCardPaymentHoldLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	r, err := env.svc.RequestRide(ctx, RequestInput{
		RiderID:       "rider1",
		Pickup:        models.Location{Latitude: 1, Longitude: 1},
		Destination:   models.Location{Latitude: 2, Longitude: 2},
		Fare:          30,
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := env.svc.AcceptRide(ctx, "d1", r.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if len(env.holder.held) != 1 {
		t.Fatalf("holds=%d", len(env.holder.held))
	}
	if _, err := env.svc.ConfirmByDriver(ctx, r.ID); err != nil {
		t.Fatalf("driver confirm: %v", err)
	}
	if _, err := env.svc.ConfirmByRider(ctx, r.ID, 5); err != nil {
		t.Fatalf("rider confirm: %v", err)
	}
	if len(env.holder.captured) != 1 || env.holder.captured[0] != env.holder.held[0] {
		t.Fatalf("captured=%v held=%v", env.holder.captured, env.holder.held)
	}
}

func TestCardHoldReleasedOnCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	r, err := env.svc.RequestRide(ctx, RequestInput{
		RiderID:       "rider1",
		Pickup:        models.Location{Latitude: 1, Longitude: 1},
		Destination:   models.Location{Latitude: 2, Longitude: 2},
		Fare:          30,
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := env.svc.AcceptRide(ctx, "d1", r.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := env.svc.CancelRide(ctx, r.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(env.holder.canceled) != 1 {
		t.Fatalf("canceled holds=%v", env.holder.canceled)
	}
}

func TestAcceptFailureRestoresPendingEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	r := env.request(t, "rider1", 20)
	env.svc.Store = &flakyStore{RideStore: env.svc.Store, failUpdates: 1}

	if _, err := env.svc.AcceptRide(ctx, "d1", r.ID); err == nil {
		t.Fatal("expected the failed write to surface")
	} else if errors.Is(err, ride.ErrAlreadyMatched) {
		t.Fatalf("store failure misreported as a lost race: %v", err)
	}

	pending := env.svc.ListPending("")
	if len(pending) != 1 || pending[0].RideID != r.ID {
		t.Fatalf("ride vanished from pending queue: %v", pending)
	}
	unchanged, _ := env.svc.RideByID(r.ID)
	if unchanged.Status != models.StatusRequested {
		t.Fatalf("status=%s", unchanged.Status)
	}

	// once the store recovers a retry succeeds
	accepted, err := env.svc.AcceptRide(ctx, "d2", r.ID)
	if err != nil {
		t.Fatalf("retry accept: %v", err)
	}
	if accepted.DriverID != "d2" || accepted.Status != models.StatusAccepted {
		t.Fatalf("retry: driver=%q status=%s", accepted.DriverID, accepted.Status)
	}
}

func TestAcceptFailureReleasesCardHold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	r, err := env.svc.RequestRide(ctx, RequestInput{
		RiderID:       "rider1",
		Pickup:        models.Location{Latitude: 1, Longitude: 1},
		Destination:   models.Location{Latitude: 2, Longitude: 2},
		Fare:          30,
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	env.svc.Store = &flakyStore{RideStore: env.svc.Store, failUpdates: 1}

	if _, err := env.svc.AcceptRide(ctx, "d1", r.ID); err == nil {
		t.Fatal("expected the failed write to surface")
	}
	if len(env.holder.held) != 1 || len(env.holder.canceled) != 1 {
		t.Fatalf("hold not released: held=%v canceled=%v", env.holder.held, env.holder.canceled)
	}
}

func TestCancelFailureKeepsRideMatchable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	r := env.request(t, "rider1", 20)
	env.svc.Store = &flakyStore{RideStore: env.svc.Store, failUpdates: 1}

	if err := env.svc.CancelRide(ctx, r.ID); err == nil {
		t.Fatal("expected the failed write to surface")
	}
	if len(env.svc.ListPending("")) != 1 {
		t.Fatal("uncommitted cancel dropped the pending entry")
	}
	unchanged, _ := env.svc.RideByID(r.ID)
	if unchanged.Status != models.StatusRequested {
		t.Fatalf("status=%s", unchanged.Status)
	}

	if err := env.svc.CancelRide(ctx, r.ID); err != nil {
		t.Fatalf("retry cancel: %v", err)
	}
	if len(env.svc.ListPending("")) != 0 {
		t.Fatal("committed cancel left the pending entry")
	}
}

func TestRequestRejectsNegativeFare(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.RequestRide(context.Background(), RequestInput{RiderID: "rider1", Fare: -5})
	if !errors.Is(err, ride.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestTerminalRideReleasesBookkeeping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	r := env.request(t, "rider1", 20)
	if _, err := env.svc.AcceptRide(ctx, "d1", r.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := env.svc.ConfirmByDriver(ctx, r.ID); err != nil {
		t.Fatalf("driver confirm: %v", err)
	}
	if err := env.svc.CancelRide(ctx, r.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	env.svc.locks.mu.Lock()
	held := len(env.svc.locks.locks)
	env.svc.locks.mu.Unlock()
	if held != 0 {
		t.Fatalf("ride locks retained: %d", held)
	}
	env.svc.firstConfirm.mu.Lock()
	marks := len(env.svc.firstConfirm.at)
	env.svc.firstConfirm.mu.Unlock()
	if marks != 0 {
		t.Fatalf("confirmation marks retained: %d", marks)
	}
}

func TestRequestUnknownRider(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.RequestRide(context.Background(), RequestInput{RiderID: "ghost"})
	if !errors.Is(err, ride.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDriverBonusForPriorityRider(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	r := env.request(t, "rider1", 100) // rider rated 4.9, above the 4.8 cutoff
	if _, err := env.svc.AcceptRide(ctx, "d1", r.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := env.svc.ConfirmByDriver(ctx, r.ID); err != nil {
		t.Fatalf("driver confirm: %v", err)
	}
	if _, err := env.svc.ConfirmByRider(ctx, r.ID, 5); err != nil {
		t.Fatalf("rider confirm: %v", err)
	}
	final, _ := env.svc.RideByID(r.ID)
	if bonus := env.svc.DriverBonus(final); bonus != 10 {
		t.Fatalf("bonus=%f, want 10", bonus)
	}
}
