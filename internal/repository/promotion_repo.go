package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/ertantorizkyf/promotion-service/internal/models"
	"github.com/ertantorizkyf/promotion-service/pkg/db"
)

type PromotionFilter struct {
	IDs []int64

	// ActiveOn keeps only promotions whose validity window contains the
	// given day, both ends inclusive.
	ActiveOn *time.Time
}

type PromotionRepo struct {
	db *sql.DB
}

func NewPromotionRepo(db *sql.DB) *PromotionRepo {
	return &PromotionRepo{db: db}
}

const promotionColumns = `id, name, code, COALESCE(description, ''), type, target_user,
	discount_amount, COALESCE(max_discount_amount, 0), COALESCE(min_order_amount, 0),
	start_date, end_date, max_redemptions, max_redemptions_per_user, created_at, updated_at`

func scanPromotion(row interface{ Scan(...any) error }) (*models.Promotion, error) {
	var p models.Promotion
	err := row.Scan(
		&p.ID, &p.Name, &p.Code, &p.Description, &p.Type, &p.TargetUser,
		&p.DiscountAmount, &p.MaxDiscountAmount, &p.MinOrderAmount,
		&p.StartDate, &p.EndDate, &p.MaxRedemptions, &p.MaxRedemptionsPerUser,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PromotionRepo) GetPromotions(ctx context.Context, tx db.DBTX, f PromotionFilter) ([]models.PromotionDetail, error) {
	conds := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.IDs) > 0 {
		conds = append(conds, "id = ANY("+arg(pq.Array(f.IDs))+")")
	}
	if f.ActiveOn != nil {
		day := arg(f.ActiveOn.Format("2006-01-02"))
		conds = append(conds, "start_date <= "+day+"::date", "end_date >= "+day+"::date")
	}

	query := `SELECT ` + promotionColumns + ` FROM promotions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := querier(tx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []models.PromotionDetail
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, models.PromotionDetail{Promotion: *p})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachCities(ctx, tx, details); err != nil {
		return nil, err
	}
	return details, nil
}

func (r *PromotionRepo) attachCities(ctx context.Context, tx db.DBTX, details []models.PromotionDetail) error {
	if len(details) == 0 {
		return nil
	}

	ids := make([]int64, len(details))
	byID := make(map[int64]*models.PromotionDetail, len(details))
	for i := range details {
		ids[i] = details[i].ID
		byID[details[i].ID] = &details[i]
	}

	query := `
		SELECT pc.promotion_id, c.id, c.name
		FROM promotion_cities pc
		JOIN cities c ON c.id = pc.city_id
		WHERE pc.promotion_id = ANY($1)
		ORDER BY pc.promotion_id ASC, c.id ASC`

	rows, err := querier(tx, r.db).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var promotionID int64
		var city models.City
		if err := rows.Scan(&promotionID, &city.ID, &city.Name); err != nil {
			return err
		}
		if d, ok := byID[promotionID]; ok {
			d.Cities = append(d.Cities, city)
		}
	}
	return rows.Err()
}

func (r *PromotionRepo) GetPromotionByID(ctx context.Context, tx db.DBTX, id int64) (*models.PromotionDetail, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE id = $1`
	return r.getPromotion(ctx, tx, query, id)
}

func (r *PromotionRepo) GetPromotionByCode(ctx context.Context, tx db.DBTX, code string) (*models.PromotionDetail, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE code = $1`
	return r.getPromotion(ctx, tx, query, code)
}

func (r *PromotionRepo) getPromotion(ctx context.Context, tx db.DBTX, query string, key any) (*models.PromotionDetail, error) {
	p, err := scanPromotion(querier(tx, r.db).QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	details := []models.PromotionDetail{{Promotion: *p}}
	if err := r.attachCities(ctx, tx, details); err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (r *PromotionRepo) CreatePromotion(ctx context.Context, tx db.DBTX, p *models.Promotion) error {
	query := `
		INSERT INTO promotions (name, code, description, type, target_user,
			discount_amount, max_discount_amount, min_order_amount,
			start_date, end_date, max_redemptions, max_redemptions_per_user,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := querier(tx, r.db).QueryRowContext(ctx, query,
		p.Name, p.Code, p.Description, p.Type, p.TargetUser,
		p.DiscountAmount, p.MaxDiscountAmount, p.MinOrderAmount,
		p.StartDate, p.EndDate, p.MaxRedemptions, p.MaxRedemptionsPerUser,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

func (r *PromotionRepo) UpdatePromotion(ctx context.Context, tx db.DBTX, p *models.Promotion) error {
	query := `
		UPDATE promotions
		SET name = $1, code = $2, description = $3, type = $4, target_user = $5,
		    discount_amount = $6, max_discount_amount = $7, min_order_amount = $8,
		    start_date = $9, end_date = $10, max_redemptions = $11,
		    max_redemptions_per_user = $12, updated_at = NOW()
		WHERE id = $13`

	_, err := querier(tx, r.db).ExecContext(ctx, query,
		p.Name, p.Code, p.Description, p.Type, p.TargetUser,
		p.DiscountAmount, p.MaxDiscountAmount, p.MinOrderAmount,
		p.StartDate, p.EndDate, p.MaxRedemptions, p.MaxRedemptionsPerUser,
		p.ID,
	)
	return translateErr(err)
}

func (r *PromotionRepo) DeletePromotion(ctx context.Context, tx db.DBTX, id int64) error {
	_, err := querier(tx, r.db).ExecContext(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	return err
}

func (r *PromotionRepo) DeletePromotionCities(ctx context.Context, tx db.DBTX, promotionID int64) error {
	_, err := querier(tx, r.db).ExecContext(ctx,
		`DELETE FROM promotion_cities WHERE promotion_id = $1`, promotionID)
	return err
}

func (r *PromotionRepo) BulkCreatePromotionCities(ctx context.Context, tx db.DBTX, promotionID int64, cityIDs []int64) error {
	if len(cityIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO promotion_cities (promotion_id, city_id)
		SELECT $1, unnest($2::bigint[])`

	_, err := querier(tx, r.db).ExecContext(ctx, query, promotionID, pq.Array(cityIDs))
	return translateErr(err)
}

// GetRedemptionCount derives the global redemption counter live: the
// number of committed (non-draft, non-cancelled) orders referencing the
// promotion.
func (r *PromotionRepo) GetRedemptionCount(ctx context.Context, tx db.DBTX, promotionID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM orders
		WHERE promotion_id = $1 AND status NOT IN ($2, $3)`

	var count int
	err := querier(tx, r.db).QueryRowContext(ctx, query,
		promotionID, models.OrderStatusDraft, models.OrderStatusCancelled,
	).Scan(&count)
	return count, err
}

func (r *PromotionRepo) GetRedemptionCountByUser(ctx context.Context, tx db.DBTX, promotionID, userID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM orders
		WHERE promotion_id = $1 AND user_id = $2 AND status NOT IN ($3, $4)`

	var count int
	err := querier(tx, r.db).QueryRowContext(ctx, query,
		promotionID, userID, models.OrderStatusDraft, models.OrderStatusCancelled,
	).Scan(&count)
	return count, err
}
