// Package drivers exposes the fleet's availability records to the matching
// engine. The engine only reads them, to rank drivers and attach their public
// profile to match events; the fleet side owns the writes.
package drivers

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/ride-lifecycle/internal/models"
	"github.com/example/ride-lifecycle/internal/ride"
)

// Directory is the read surface the engine needs from the fleet.
type Directory interface {
	Get(id string) (models.Driver, error)
	Available() []models.Driver
}

// Registry is the in-memory Directory, also carrying the Upsert used by the
// driver-status consumer and local bootstrap.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]models.Driver
}

func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]models.Driver)}
}

func (r *Registry) Upsert(d models.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.Updated = time.Now().UTC()
	r.drivers[d.ID] = d
	return nil
}

func (r *Registry) Get(id string) (models.Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drivers[id]
	if !ok {
		return models.Driver{}, fmt.Errorf("%w: driver %s", ride.ErrNotFound, id)
	}
	return d, nil
}

// Available returns active drivers, best-rated first.
func (r *Registry) Available() []models.Driver {
	r.mu.RLock()
	out := make([]models.Driver, 0, len(r.drivers))
	for _, d := range r.drivers {
		if d.Active {
			out = append(out, d)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ID < out[j].ID
	})
	return out
}
