// Package rewards holds the points and bonus policy applied when a ride is
// finalized. The exact rates are product parameters, so everything here is
// configuration rather than invariant.
package rewards

import "math"

// Policy computes rider points and driver bonuses at ride finalization.
type Policy struct {
	// PointsPerFare is the base points multiplier over the fare amount.
	PointsPerFare float64
	// RatingBonusPoints is awarded on top when the rider left a rating.
	RatingBonusPoints int
	// PriorityRatingCutoff marks a rider as a priority rider.
	PriorityRatingCutoff float64
	// PriorityBonusPercent is the driver's fare bonus for serving a
	// priority rider (0.10 means 10%).
	PriorityBonusPercent float64
}

// DefaultPolicy mirrors the production defaults: 1.2 points per fare unit,
// 5 bonus points for rating, 10% driver bonus above a 4.8 rider rating.
func DefaultPolicy() Policy {
	return Policy{
		PointsPerFare:        1.2,
		RatingBonusPoints:    5,
		PriorityRatingCutoff: 4.8,
		PriorityBonusPercent: 0.10,
	}
}

// Points returns the rider's points for a completed ride. Base points are
// proportional to fare, scaled up by rating quality when the rider rated the
// trip. Never negative.
func (p Policy) Points(fare float64, rating int) int {
	if fare < 0 {
		fare = 0
	}
	pts := fare * p.PointsPerFare
	if rating > 0 {
		// a 5-star trip earns full base, lower ratings scale down to 60%
		pts *= 0.6 + 0.08*float64(rating)
		pts += float64(p.RatingBonusPoints)
	}
	if pts < 0 {
		return 0
	}
	return int(math.Round(pts))
}

// PriorityRider reports whether a rider rating qualifies for priority perks.
func (p Policy) PriorityRider(riderRating float64) bool {
	return riderRating >= p.PriorityRatingCutoff
}

// DriverBonus returns the driver's extra payout for serving a priority
// rider, zero otherwise.
func (p Policy) DriverBonus(fare, riderRating float64) float64 {
	if fare <= 0 || !p.PriorityRider(riderRating) {
		return 0
	}
	return fare * p.PriorityBonusPercent
}
