// Package repository implements Postgres persistence for menus, orders,
// promotions, users and cities. Methods take a db.DBTX so callers decide
// whether they run inside a transaction; passing nil falls back to the
// repository's own connection.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ertantorizkyf/promotion-service/internal/apperr"
	"github.com/ertantorizkyf/promotion-service/pkg/db"
)

func querier(tx db.DBTX, fallback *sql.DB) db.DBTX {
	if tx != nil {
		return tx
	}
	return fallback
}

// translateErr maps driver-level constraint violations onto the engine's
// error taxonomy. 23505 is unique_violation.
func translateErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", apperr.ErrConflict, pqErr.Constraint)
	}
	return err
}
