package lifecycle

import (
	"sync"
	"time"
)

// rideLocks serializes mutations per ride ID. Rides are independent of each
// other, so different IDs proceed in parallel; all guards on the same ride
// are checked and applied under its mutex. Entries are reference counted and
// removed when the last holder releases, so the map does not grow with ride
// history.
type rideLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (l *rideLocks) lock(rideID string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*lockEntry)
	}
	e, ok := l.locks[rideID]
	if !ok {
		e = &lockEntry{}
		l.locks[rideID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, rideID)
		}
		l.mu.Unlock()
	}
}

// rejectLog is the driver-local bookkeeping behind rejectRide: rejected
// rides are not re-offered to that driver in pending listings. Shared ride
// state is untouched.
type rejectLog struct {
	mu       sync.Mutex
	byDriver map[string]map[string]struct{}
}

func (l *rejectLog) add(driverID, rideID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.byDriver == nil {
		l.byDriver = make(map[string]map[string]struct{})
	}
	set, ok := l.byDriver[driverID]
	if !ok {
		set = make(map[string]struct{})
		l.byDriver[driverID] = set
	}
	set[rideID] = struct{}{}
}

func (l *rejectLog) rejected(driverID, rideID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	set, ok := l.byDriver[driverID]
	if !ok {
		return false
	}
	_, ok = set[rideID]
	return ok
}

// timeIndex records one timestamp per ride, first write wins.
type timeIndex struct {
	mu sync.Mutex
	at map[string]time.Time
}

// mark stores t for rideID if no earlier mark exists and returns the stored
// value.
func (x *timeIndex) mark(rideID string, t time.Time) time.Time {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.at == nil {
		x.at = make(map[string]time.Time)
	}
	if first, ok := x.at[rideID]; ok {
		return first
	}
	x.at[rideID] = t
	return t
}

func (x *timeIndex) drop(rideID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.at, rideID)
}
