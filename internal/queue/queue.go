// Package queue holds ride requests awaiting a driver, in matching priority
// order: higher snapshotted rider rating first, first-come-first-served among
// equally rated riders.
package queue

import (
	"sort"
	"sync"

	"github.com/example/ride-lifecycle/internal/models"
	"github.com/example/ride-lifecycle/internal/observability"
)

type entry struct {
	req models.PendingRequest
	seq uint64 // arrival order, tie-break after CreatedAt
}

// PendingQueue is an in-memory priority index over requested rides. It holds
// projections only; the ride store stays authoritative. Claim is the atomic
// compare-and-remove used to resolve accept races.
type PendingQueue struct {
	mu      sync.Mutex
	entries map[string]entry // keyed by ride ID
	nextSeq uint64
}

func NewPendingQueue() *PendingQueue {
	return &PendingQueue{entries: make(map[string]entry)}
}

// Enqueue inserts a pending request. Re-enqueueing the same ride ID replaces
// the old entry, which keeps the queue consistent if a request is retried.
func (q *PendingQueue) Enqueue(req models.PendingRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[req.RideID] = entry{req: req, seq: q.nextSeq}
	q.nextSeq++
	observability.PendingRequests.Set(float64(len(q.entries)))
}

// BestMatch returns the highest-priority pending request without removing it,
// or false when the queue is empty. A caller that wants to commit the match
// must follow up with Claim.
func (q *PendingQueue) BestMatch() (models.PendingRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var best entry
	found := false
	for _, e := range q.entries {
		if !found || higherPriority(e, best) {
			best = e
			found = true
		}
	}
	return best.req, found
}

// Claim atomically removes the entry for rideID and reports whether it was
// still present. Exactly one of any set of racing claimers succeeds.
func (q *PendingQueue) Claim(rideID string) (models.PendingRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[rideID]
	if !ok {
		return models.PendingRequest{}, false
	}
	delete(q.entries, rideID)
	observability.PendingRequests.Set(float64(len(q.entries)))
	return e.req, true
}

// Remove drops the entry for rideID if present. Idempotent: removing an
// absent ID is a no-op.
func (q *PendingQueue) Remove(rideID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.entries[rideID]; ok {
		delete(q.entries, rideID)
		observability.PendingRequests.Set(float64(len(q.entries)))
	}
}

// List returns a point-in-time snapshot of all pending requests in priority
// order.
func (q *PendingQueue) List() []models.PendingRequest {
	q.mu.Lock()
	snapshot := make([]entry, 0, len(q.entries))
	for _, e := range q.entries {
		snapshot = append(snapshot, e)
	}
	q.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool { return higherPriority(snapshot[i], snapshot[j]) })
	out := make([]models.PendingRequest, len(snapshot))
	for i, e := range snapshot {
		out[i] = e.req
	}
	return out
}

// Len reports the number of pending requests.
func (q *PendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func higherPriority(a, b entry) bool {
	if a.req.RiderRating != b.req.RiderRating {
		return a.req.RiderRating > b.req.RiderRating
	}
	if !a.req.CreatedAt.Equal(b.req.CreatedAt) {
		return a.req.CreatedAt.Before(b.req.CreatedAt)
	}
	return a.seq < b.seq
}
