package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/example/ride-lifecycle/internal/models"
	"github.com/example/ride-lifecycle/internal/ride"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

const rideColumns = `id, rider_id, driver_id, pickup_lat, pickup_lon, pickup_name,
	dest_lat, dest_lon, dest_name, status, fare, vehicle_type, payment_method,
	split_fare, split_with, rider_completed, driver_completed, rating,
	points_earned, payment_hold, created_at, completed_at`

func (p *PostgresStore) SaveRide(r *models.Ride) error {
	_, err := p.db.Exec(`INSERT INTO rides(`+rideColumns+`)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		r.ID, r.RiderID, nullStr(r.DriverID),
		r.Pickup.Latitude, r.Pickup.Longitude, r.Pickup.Name,
		r.Destination.Latitude, r.Destination.Longitude, r.Destination.Name,
		string(r.Status), r.Fare, r.VehicleType, r.PaymentMethod,
		r.SplitFare, pq.Array(r.SplitWith), r.RiderCompleted, r.DriverCompleted,
		nullInt(r.Rating), r.PointsEarned, nullStr(r.PaymentHold), r.CreatedAt, r.CompletedAt)
	return err
}

func (p *PostgresStore) UpdateRide(r *models.Ride) error {
	res, err := p.db.Exec(`UPDATE rides SET driver_id=$1, status=$2,
		rider_completed=$3, driver_completed=$4, rating=$5, points_earned=$6,
		payment_hold=$7, completed_at=$8 WHERE id=$9`,
		nullStr(r.DriverID), string(r.Status), r.RiderCompleted, r.DriverCompleted,
		nullInt(r.Rating), r.PointsEarned, nullStr(r.PaymentHold), r.CompletedAt, r.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: ride %s", ride.ErrNotFound, r.ID)
	}
	return nil
}

func (p *PostgresStore) GetRide(id string) (*models.Ride, error) {
	row := p.db.QueryRow(`SELECT `+rideColumns+` FROM rides WHERE id=$1`, id)
	r, err := scanRide(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: ride %s", ride.ErrNotFound, id)
	}
	return r, err
}

func (p *PostgresStore) RidesForUser(userID string, limit int) ([]*models.Ride, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := p.db.Query(`SELECT `+rideColumns+` FROM rides
		WHERE status='completed' AND (rider_id=$1 OR driver_id=$1)
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRide(row scanner) (*models.Ride, error) {
	var r models.Ride
	var driverID, paymentHold sql.NullString
	var rating sql.NullInt64
	var completedAt sql.NullTime
	var status string
	var splitWith pq.StringArray
	err := row.Scan(&r.ID, &r.RiderID, &driverID,
		&r.Pickup.Latitude, &r.Pickup.Longitude, &r.Pickup.Name,
		&r.Destination.Latitude, &r.Destination.Longitude, &r.Destination.Name,
		&status, &r.Fare, &r.VehicleType, &r.PaymentMethod,
		&r.SplitFare, &splitWith, &r.RiderCompleted, &r.DriverCompleted,
		&rating, &r.PointsEarned, &paymentHold, &r.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	r.Status = models.RideStatus(status)
	r.DriverID = driverID.String
	r.PaymentHold = paymentHold.String
	r.Rating = int(rating.Int64)
	r.SplitWith = []string(splitWith)
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return &r, nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}
