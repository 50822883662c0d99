// Package events is the publish boundary the engine uses to announce ride
// state changes. Delivery is fire-and-forget from the engine's perspective;
// transports own their own guarantees.
package events

import (
	"log/slog"

	"github.com/example/ride-lifecycle/internal/models"
)

// Publisher announces a ride event to subscribers.
type Publisher interface {
	Publish(event models.RideEvent) error
}

// Fanout publishes to every configured transport, keeping the first error.
type Fanout []Publisher

func (f Fanout) Publish(event models.RideEvent) error {
	var firstErr error
	for _, p := range f {
		if err := p.Publish(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LogPublisher writes events to the structured log, the default transport
// for local runs.
type LogPublisher struct {
	Logger *slog.Logger
}

func (l *LogPublisher) Publish(event models.RideEvent) error {
	l.Logger.Info("ride_event",
		"ride_id", event.RideID,
		"type", event.Type,
		"status", string(event.Status),
		"driver_id", event.DriverID,
	)
	return nil
}
