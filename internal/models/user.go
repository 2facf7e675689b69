package models

import "time"

const (
	UserRoleCustomer = "customer"
	UserRoleAdmin    = "admin"
)

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Address   string    `json:"address"`
	CityID    int64     `json:"city_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserOrderStats is the order-history aggregate used by promotion
// eligibility: OrderCount and LifetimeTotal cover committed orders only,
// HasUsedPromotion covers orders of any status.
type UserOrderStats struct {
	OrderCount       int
	LifetimeTotal    float64
	HasUsedPromotion bool
}
