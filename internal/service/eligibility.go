package service

import (
	"time"

	"github.com/ertantorizkyf/promotion-service/internal/models"
)

// Loyalty thresholds, in orders and currency minor units.
const (
	LoyalOrderCount    = 10
	LoyalLifetimeTotal = 1_000_000
)

// EligibilitySnapshot is everything about a user that audience targeting
// looks at.
type EligibilitySnapshot struct {
	models.UserOrderStats
	CityID int64
}

func IsLoyal(s EligibilitySnapshot) bool {
	return s.OrderCount >= LoyalOrderCount && s.LifetimeTotal >= LoyalLifetimeTotal
}

func IsNew(s EligibilitySnapshot) bool {
	return !s.HasUsedPromotion
}

// InValidityWindow reports whether the promotion is active on the given
// day. Both ends of the window are inclusive; comparison is at day
// granularity.
func InValidityWindow(p *models.Promotion, today time.Time) bool {
	day := truncateToDay(today)
	return !day.Before(truncateToDay(p.StartDate)) && !day.After(truncateToDay(p.EndDate))
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsEligible applies the audience and date filters. Redemption-time
// checks (minimum order amount, redemption caps) are the engine's job,
// since listing has no draft order amount to check against.
func IsEligible(p *models.PromotionDetail, s EligibilitySnapshot, today time.Time) bool {
	if !InValidityWindow(&p.Promotion, today) {
		return false
	}

	switch p.TargetUser {
	case models.TargetUserAll:
		return true
	case models.TargetUserLoyal:
		return IsLoyal(s)
	case models.TargetUserNew:
		return IsNew(s)
	case models.TargetUserSpecificCity:
		return p.HasCity(s.CityID)
	default:
		return false
	}
}
