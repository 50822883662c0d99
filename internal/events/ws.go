package events

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/example/ride-lifecycle/internal/models"
)

// WSSession is one connected rider or driver client.
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *WSSession) Send(event models.RideEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(event)
}

// WSRegistry holds live client sessions keyed by user ID and pushes each
// ride event to the ride's participants.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*WSSession
}

func NewWSRegistry() *WSRegistry { return &WSRegistry{sessions: make(map[string]*WSSession)} }

func (r *WSRegistry) Add(userID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.sessions[userID]; ok {
		_ = old.conn.Close()
	}
	r.sessions[userID] = &WSSession{conn: conn}
}

func (r *WSRegistry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[userID]; ok {
		_ = s.conn.Close()
		delete(r.sessions, userID)
	}
}

// Publish pushes the event to the rider and, when assigned, the driver.
// Absent sessions are skipped; a client without a socket polls instead.
func (r *WSRegistry) Publish(event models.RideEvent) error {
	for _, id := range []string{event.RiderID, event.DriverID} {
		if id == "" {
			continue
		}
		r.mu.RLock()
		s, ok := r.sessions[id]
		r.mu.RUnlock()
		if !ok {
			continue
		}
		if err := s.Send(event); err != nil {
			log.Printf("ws send error user=%s: %v", id, err)
			r.Remove(id)
		}
	}
	return nil
}
