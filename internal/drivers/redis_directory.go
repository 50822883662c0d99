package drivers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/ride-lifecycle/internal/models"
	"github.com/example/ride-lifecycle/internal/ride"
)

// RedisDirectory implements Directory over Redis hashes, one hash per driver
// plus a set of active driver IDs. The consumer binary keeps it current from
// the driver-status topic.
type RedisDirectory struct {
	client *redis.Client
	ctx    context.Context
}

const activeSetKey = "drivers:active"

func NewRedisDirectory(addr, password string) *RedisDirectory {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisDirectory{client: c, ctx: context.Background()}
}

func (r *RedisDirectory) Upsert(d models.Driver) error {
	fields := map[string]interface{}{
		"user_id": d.UserID,
		"name":    d.Name,
		"vehicle": d.Vehicle,
		"plate":   d.LicensePlate,
		"rating":  fmt.Sprintf("%f", d.Rating),
		"active":  strconv.FormatBool(d.Active),
		"updated": time.Now().UTC().Format(time.RFC3339),
	}
	if err := r.client.HSet(r.ctx, metaKey(d.ID), fields).Err(); err != nil {
		return err
	}
	if d.Active {
		return r.client.SAdd(r.ctx, activeSetKey, d.ID).Err()
	}
	return r.client.SRem(r.ctx, activeSetKey, d.ID).Err()
}

func (r *RedisDirectory) Get(id string) (models.Driver, error) {
	m, err := r.client.HGetAll(r.ctx, metaKey(id)).Result()
	if err != nil {
		return models.Driver{}, err
	}
	if len(m) == 0 {
		return models.Driver{}, fmt.Errorf("%w: driver %s", ride.ErrNotFound, id)
	}
	return driverFromHash(id, m), nil
}

func (r *RedisDirectory) Available() []models.Driver {
	ids, err := r.client.SMembers(r.ctx, activeSetKey).Result()
	if err != nil {
		return nil
	}
	out := make([]models.Driver, 0, len(ids))
	for _, id := range ids {
		d, err := r.Get(id)
		if err != nil || !d.Active {
			continue
		}
		out = append(out, d)
	}
	return out
}

func driverFromHash(id string, m map[string]string) models.Driver {
	d := models.Driver{ID: id, UserID: m["user_id"], Name: m["name"], Vehicle: m["vehicle"], LicensePlate: m["plate"]}
	if v, ok := m["rating"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			d.Rating = f
		}
	}
	if v, ok := m["active"]; ok {
		d.Active = v == "true"
	}
	if v, ok := m["updated"]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			d.Updated = t
		}
	}
	return d
}

func metaKey(id string) string { return "driver:meta:" + id }
