package service

import (
	"testing"
	"time"

	"github.com/ertantorizkyf/promotion-service/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestIsLoyal(t *testing.T) {
	tests := []struct {
		name     string
		snapshot EligibilitySnapshot
		want     bool
	}{
		{
			name:     "both thresholds met",
			snapshot: EligibilitySnapshot{UserOrderStats: models.UserOrderStats{OrderCount: 10, LifetimeTotal: 1_000_000}},
			want:     true,
		},
		{
			name:     "count below threshold",
			snapshot: EligibilitySnapshot{UserOrderStats: models.UserOrderStats{OrderCount: 9, LifetimeTotal: 2_000_000}},
			want:     false,
		},
		{
			name:     "total below threshold",
			snapshot: EligibilitySnapshot{UserOrderStats: models.UserOrderStats{OrderCount: 25, LifetimeTotal: 999_999}},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLoyal(tt.snapshot); got != tt.want {
				t.Fatalf("IsLoyal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNew(t *testing.T) {
	used := EligibilitySnapshot{UserOrderStats: models.UserOrderStats{HasUsedPromotion: true}}
	fresh := EligibilitySnapshot{}
	if IsNew(used) {
		t.Fatal("user who redeemed before should not count as new")
	}
	if !IsNew(fresh) {
		t.Fatal("user with no redemptions should count as new")
	}
}

func TestInValidityWindow(t *testing.T) {
	promo := &models.Promotion{StartDate: day("2026-08-01"), EndDate: day("2026-08-31")}

	tests := []struct {
		name  string
		today time.Time
		want  bool
	}{
		{name: "first day inclusive", today: day("2026-08-01"), want: true},
		{name: "last day inclusive", today: day("2026-08-31"), want: true},
		{name: "late on the last day", today: day("2026-08-31").Add(23 * time.Hour), want: true},
		{name: "day before", today: day("2026-07-31"), want: false},
		{name: "day after", today: day("2026-09-01"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InValidityWindow(promo, tt.today); got != tt.want {
				t.Fatalf("InValidityWindow(%v) = %v, want %v", tt.today, got, tt.want)
			}
		})
	}
}

func TestIsEligible(t *testing.T) {
	window := models.Promotion{StartDate: day("2026-08-01"), EndDate: day("2026-08-31")}
	today := day("2026-08-15")

	loyal := EligibilitySnapshot{UserOrderStats: models.UserOrderStats{OrderCount: 12, LifetimeTotal: 1_500_000, HasUsedPromotion: true}, CityID: 1}
	newcomer := EligibilitySnapshot{CityID: 2}

	promoFor := func(target string, cities ...models.City) *models.PromotionDetail {
		p := window
		p.TargetUser = target
		return &models.PromotionDetail{Promotion: p, Cities: cities}
	}

	tests := []struct {
		name     string
		promo    *models.PromotionDetail
		snapshot EligibilitySnapshot
		want     bool
	}{
		{name: "all targets everyone", promo: promoFor(models.TargetUserAll), snapshot: newcomer, want: true},
		{name: "loyal target accepts loyal user", promo: promoFor(models.TargetUserLoyal), snapshot: loyal, want: true},
		{name: "loyal target rejects newcomer", promo: promoFor(models.TargetUserLoyal), snapshot: newcomer, want: false},
		{name: "new target accepts newcomer", promo: promoFor(models.TargetUserNew), snapshot: newcomer, want: true},
		{name: "new target rejects past redeemer", promo: promoFor(models.TargetUserNew), snapshot: loyal, want: false},
		{name: "city target matches", promo: promoFor(models.TargetUserSpecificCity, models.City{ID: 2}), snapshot: newcomer, want: true},
		{name: "city target misses", promo: promoFor(models.TargetUserSpecificCity, models.City{ID: 9}), snapshot: newcomer, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEligible(tt.promo, tt.snapshot, today); got != tt.want {
				t.Fatalf("IsEligible = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("expired promotion fails every audience", func(t *testing.T) {
		if IsEligible(promoFor(models.TargetUserAll), loyal, day("2026-09-02")) {
			t.Fatal("expired promotion must not be eligible")
		}
	})
}
