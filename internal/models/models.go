package models

import "time"

// Location is an opaque place descriptor. The engine stores and forwards
// locations but never computes over them.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// RideStatus is the lifecycle state of a ride.
type RideStatus string

const (
	StatusRequested  RideStatus = "requested"
	StatusAccepted   RideStatus = "accepted"
	StatusInProgress RideStatus = "in_progress"
	StatusCompleted  RideStatus = "completed"
	StatusCanceled   RideStatus = "canceled"
)

// Ride is the central lifecycle entity and the single source of truth for
// ride state. All mutations go through the lifecycle service.
type Ride struct {
	ID            string     `json:"id"`
	RiderID       string     `json:"rider_id"`
	DriverID      string     `json:"driver_id,omitempty"` // empty until matched
	Pickup        Location   `json:"pickup"`
	Destination   Location   `json:"destination"`
	Status        RideStatus `json:"status"`
	Fare          float64    `json:"fare"`
	VehicleType   string     `json:"vehicle_type"`
	PaymentMethod string     `json:"payment_method"`
	SplitFare     bool       `json:"split_fare"`
	SplitWith     []string   `json:"split_with,omitempty"`

	RiderCompleted  bool `json:"rider_completed"`
	DriverCompleted bool `json:"driver_completed"`

	Rating       int        `json:"rating,omitempty"` // 1..5, zero means not rated
	PointsEarned int        `json:"points_earned"`
	PaymentHold  string     `json:"-"` // payment intent id, if a hold was placed
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// PendingRequest is the queue projection of a requested ride, enriched with
// the rider's reputation snapshotted at request time. Immutable once created.
type PendingRequest struct {
	RideID      string    `json:"ride_id"`
	RiderID     string    `json:"rider_id"`
	RiderName   string    `json:"rider_name"`
	RiderRating float64   `json:"rider_rating"`
	TotalRides  int       `json:"total_rides"`
	Pickup      Location  `json:"pickup"`
	Destination Location  `json:"destination"`
	Fare        float64   `json:"fare"`
	VehicleType string    `json:"vehicle_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// User is a rider or driver account profile.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	IsDriver   bool      `json:"is_driver"`
	Rating     float64   `json:"rating"` // running average, 0..5
	Level      int       `json:"level"`
	Points     int       `json:"points"`
	TotalRides int       `json:"total_rides"`
	CreatedAt  time.Time `json:"created_at"`
}

// Driver is an availability record owned by the fleet directory. The engine
// reads it to rank and present drivers, never writes it.
type Driver struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Vehicle      string    `json:"vehicle"`
	LicensePlate string    `json:"license_plate"`
	Rating       float64   `json:"rating"`
	Active       bool      `json:"active"`
	Updated      time.Time `json:"updated"`
}

// ConfirmationStatus is the dual-confirmation view returned by confirm and
// status calls.
type ConfirmationStatus struct {
	RideID          string `json:"ride_id"`
	RiderCompleted  bool   `json:"rider_completed"`
	DriverCompleted bool   `json:"driver_completed"`
	BothCompleted   bool   `json:"both_completed"`
}

// RideEvent is published to subscribers on every lifecycle transition.
type RideEvent struct {
	RideID    string     `json:"ride_id"`
	Type      string     `json:"type"` // requested, accepted, started, completed, canceled
	Status    RideStatus `json:"status"`
	RiderID   string     `json:"rider_id"`
	DriverID  string     `json:"driver_id,omitempty"`
	Driver    *Driver    `json:"driver,omitempty"` // driver profile, set on accept
	Points    int        `json:"points,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
