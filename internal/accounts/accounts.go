// Package accounts keeps rider and driver profiles with their points,
// levels and running rating averages. The lifecycle engine touches it only
// through narrow hooks (award points, apply rating, bump ride counters),
// keeping the reward bookkeeping outside the matching core.
package accounts

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-lifecycle/internal/models"
	"github.com/example/ride-lifecycle/internal/ride"
)

// PointsPerLevel controls level-up pacing: one level per thousand points.
const PointsPerLevel = 1000

// Store is an in-memory account registry guarded by a single RWMutex; the
// profile set is small and read-heavy.
type Store struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewStore() *Store {
	return &Store{users: make(map[string]*models.User)}
}

// CreateUser registers a profile with a fresh ID and the default 5.0 rating.
func (s *Store) CreateUser(name string, isDriver bool) *models.User {
	u := &models.User{
		ID:        uuid.NewString(),
		Name:      name,
		IsDriver:  isDriver,
		Rating:    5.0,
		Level:     1,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
	return u
}

// Seed inserts a prebuilt profile, used by tests and local bootstrap.
func (s *Store) Seed(u models.User) {
	if u.Level == 0 {
		u.Level = 1
	}
	s.mu.Lock()
	s.users[u.ID] = &u
	s.mu.Unlock()
}

// GetUser returns a copy of the profile.
func (s *Store) GetUser(id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("%w: user %s", ride.ErrNotFound, id)
	}
	return *u, nil
}

// AwardPoints adds points to a profile and applies level-ups. Points are
// only ever added; the lifecycle engine never decrements.
func (s *Store) AwardPoints(userID string, points int) error {
	if points < 0 {
		return fmt.Errorf("points must be non-negative, got %d", points)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("%w: user %s", ride.ErrNotFound, userID)
	}
	u.Points += points
	if lvl := u.Points/PointsPerLevel + 1; lvl > u.Level {
		u.Level = lvl
	}
	return nil
}

// ApplyRating folds a new 1..5 rating into the user's running average,
// weighted by their completed ride count.
func (s *Store) ApplyRating(userID string, rating int) error {
	if !ride.ValidRating(rating) {
		return fmt.Errorf("%w: %d", ride.ErrInvalidRating, rating)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("%w: user %s", ride.ErrNotFound, userID)
	}
	n := u.TotalRides
	if n < 1 {
		n = 1
	}
	avg := (u.Rating*float64(n-1) + float64(rating)) / float64(n)
	u.Rating = math.Round(avg*100) / 100
	return nil
}

// IncrementRides bumps the completed-ride counter.
func (s *Store) IncrementRides(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("%w: user %s", ride.ErrNotFound, userID)
	}
	u.TotalRides++
	return nil
}

// Leaderboard returns the top profiles ordered by points.
func (s *Store) Leaderboard(limit int) []models.User {
	s.mu.RLock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
