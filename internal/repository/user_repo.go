package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ertantorizkyf/promotion-service/internal/models"
	"github.com/ertantorizkyf/promotion-service/pkg/db"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) GetUserByID(ctx context.Context, tx db.DBTX, id int64) (*models.User, error) {
	query := `
		SELECT id, name, email, role, address, city_id, created_at, updated_at
		FROM users
		WHERE id = $1`

	var u models.User
	err := querier(tx, r.db).QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.Role, &u.Address, &u.CityID,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// GetUserOrderStats aggregates the user's order history for eligibility
// evaluation in one scan: committed order count and lifetime total, and
// whether any order of theirs ever referenced a promotion.
func (r *UserRepo) GetUserOrderStats(ctx context.Context, tx db.DBTX, userID int64) (*models.UserOrderStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status NOT IN ($2, $3))::int,
			COALESCE(SUM(total_amount) FILTER (WHERE status NOT IN ($2, $3)), 0),
			COUNT(*) FILTER (WHERE promotion_id IS NOT NULL) > 0
		FROM orders
		WHERE user_id = $1`

	var stats models.UserOrderStats
	err := querier(tx, r.db).QueryRowContext(ctx, query,
		userID, models.OrderStatusDraft, models.OrderStatusCancelled,
	).Scan(&stats.OrderCount, &stats.LifetimeTotal, &stats.HasUsedPromotion)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
