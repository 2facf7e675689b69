package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ertantorizkyf/promotion-service/internal/models"
	"github.com/ertantorizkyf/promotion-service/pkg/db"
)

type MenuRepo struct {
	db *sql.DB
}

func NewMenuRepo(db *sql.DB) *MenuRepo {
	return &MenuRepo{db: db}
}

func (r *MenuRepo) GetMenus(ctx context.Context) ([]models.Menu, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), price, created_at, updated_at
		FROM menus
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var menus []models.Menu
	for rows.Next() {
		var m models.Menu
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		menus = append(menus, m)
	}
	return menus, rows.Err()
}

// GetMenuByID returns nil when no menu matches; callers decide whether
// that is an error.
func (r *MenuRepo) GetMenuByID(ctx context.Context, tx db.DBTX, id int64) (*models.Menu, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), price, created_at, updated_at
		FROM menus
		WHERE id = $1`

	var m models.Menu
	err := querier(tx, r.db).QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.Name, &m.Description, &m.Price, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *MenuRepo) CreateMenu(ctx context.Context, tx db.DBTX, m *models.Menu) error {
	query := `
		INSERT INTO menus (name, description, price, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := querier(tx, r.db).QueryRowContext(ctx, query, m.Name, m.Description, m.Price).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

func (r *MenuRepo) UpdateMenu(ctx context.Context, tx db.DBTX, m *models.Menu) error {
	query := `
		UPDATE menus
		SET name = $1, description = $2, price = $3, updated_at = NOW()
		WHERE id = $4`

	_, err := querier(tx, r.db).ExecContext(ctx, query, m.Name, m.Description, m.Price, m.ID)
	return translateErr(err)
}
