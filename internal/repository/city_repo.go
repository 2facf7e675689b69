package repository

import (
	"context"
	"database/sql"

	"github.com/ertantorizkyf/promotion-service/internal/models"
)

type CityRepo struct {
	db *sql.DB
}

func NewCityRepo(db *sql.DB) *CityRepo {
	return &CityRepo{db: db}
}

func (r *CityRepo) GetCities(ctx context.Context) ([]models.City, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM cities ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cities []models.City
	for rows.Next() {
		var c models.City
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}
