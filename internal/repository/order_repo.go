package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/ertantorizkyf/promotion-service/internal/models"
	"github.com/ertantorizkyf/promotion-service/pkg/db"
)

type OrderFilter struct {
	IDs          []int64
	UserID       int64
	Status       string
	Statuses     []string
	PromotionID  int64
	IncludeItems bool
}

type OrderItemFilter struct {
	OrderID   int64
	OrderIDs  []int64
	MenuID    int64
	NotMenuID int64
}

type OrderRepo struct {
	db *sql.DB

	// batchSize caps the number of rows per bulk UPDATE statement.
	batchSize int
}

func NewOrderRepo(db *sql.DB, batchSize int) *OrderRepo {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &OrderRepo{db: db, batchSize: batchSize}
}

const orderColumns = `id, user_id, order_amount, promotion_id, promotion_amount, total_amount, status, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	var o models.Order
	var promotionID sql.NullInt64
	err := row.Scan(
		&o.ID, &o.UserID, &o.OrderAmount, &promotionID,
		&o.PromotionAmount, &o.TotalAmount, &o.Status,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if promotionID.Valid {
		o.PromotionID = &promotionID.Int64
	}
	return &o, nil
}

// GetCurrentDraftOrder selects the most recent draft order for the user,
// nil if there is none. When called inside a transaction the row is
// locked so concurrent pricing recalculations against the same draft
// serialize instead of interleaving.
func (r *OrderRepo) GetCurrentDraftOrder(ctx context.Context, tx db.DBTX, userID int64, includeItems bool) (*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1 AND status = $2
		ORDER BY id DESC
		LIMIT 1`
	if tx != nil {
		query += ` FOR UPDATE`
	}

	order, err := scanOrder(querier(tx, r.db).QueryRowContext(ctx, query, userID, models.OrderStatusDraft))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if includeItems {
		items, err := r.GetOrderItems(ctx, tx, OrderItemFilter{OrderID: order.ID})
		if err != nil {
			return nil, err
		}
		order.Items = items
	}
	return order, nil
}

func (r *OrderRepo) GetOrderByID(ctx context.Context, tx db.DBTX, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(querier(tx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

func (r *OrderRepo) GetOrders(ctx context.Context, tx db.DBTX, f OrderFilter) ([]models.Order, error) {
	conds := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.IDs) > 0 {
		conds = append(conds, "id = ANY("+arg(pq.Array(f.IDs))+")")
	}
	if f.UserID > 0 {
		conds = append(conds, "user_id = "+arg(f.UserID))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}
	if len(f.Statuses) > 0 {
		conds = append(conds, "status = ANY("+arg(pq.Array(f.Statuses))+")")
	}
	if f.PromotionID > 0 {
		conds = append(conds, "promotion_id = "+arg(f.PromotionID))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := querier(tx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if f.IncludeItems && len(orders) > 0 {
		ids := make([]int64, len(orders))
		byID := make(map[int64]*models.Order, len(orders))
		for i := range orders {
			ids[i] = orders[i].ID
			byID[orders[i].ID] = &orders[i]
		}
		items, err := r.GetOrderItems(ctx, tx, OrderItemFilter{OrderIDs: ids})
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if o, ok := byID[item.OrderID]; ok {
				o.Items = append(o.Items, item)
			}
		}
	}
	return orders, nil
}

func (r *OrderRepo) CreateOrder(ctx context.Context, tx db.DBTX, o *models.Order) error {
	query := `
		INSERT INTO orders (user_id, order_amount, promotion_id, promotion_amount, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	var promotionID any
	if o.PromotionID != nil {
		promotionID = *o.PromotionID
	}
	err := querier(tx, r.db).QueryRowContext(ctx, query,
		o.UserID, o.OrderAmount, promotionID, o.PromotionAmount, o.TotalAmount, o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

func (r *OrderRepo) UpdateOrder(ctx context.Context, tx db.DBTX, o *models.Order) error {
	query := `
		UPDATE orders
		SET order_amount = $1, promotion_id = $2, promotion_amount = $3,
		    total_amount = $4, status = $5, updated_at = NOW()
		WHERE id = $6`

	var promotionID any
	if o.PromotionID != nil {
		promotionID = *o.PromotionID
	}
	_, err := querier(tx, r.db).ExecContext(ctx, query,
		o.OrderAmount, promotionID, o.PromotionAmount, o.TotalAmount, o.Status, o.ID,
	)
	return translateErr(err)
}

// UpsertOrderItem inserts the line item, or replaces its quantity and
// total when the (order, menu) pair already exists. Repeat adds replace,
// they do not increment.
func (r *OrderRepo) UpsertOrderItem(ctx context.Context, tx db.DBTX, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, menu_id, quantity, total_amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id, menu_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			total_amount = EXCLUDED.total_amount`

	_, err := querier(tx, r.db).ExecContext(ctx, query,
		item.OrderID, item.MenuID, item.Quantity, item.TotalAmount,
	)
	return err
}

func (r *OrderRepo) DeleteOrderItem(ctx context.Context, tx db.DBTX, orderID, menuID int64) error {
	query := `DELETE FROM order_items WHERE order_id = $1 AND menu_id = $2`

	_, err := querier(tx, r.db).ExecContext(ctx, query, orderID, menuID)
	return err
}

func (r *OrderRepo) GetOrderItems(ctx context.Context, tx db.DBTX, f OrderItemFilter) ([]models.OrderItem, error) {
	conds := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.OrderID > 0 {
		conds = append(conds, "oi.order_id = "+arg(f.OrderID))
	}
	if len(f.OrderIDs) > 0 {
		conds = append(conds, "oi.order_id = ANY("+arg(pq.Array(f.OrderIDs))+")")
	}
	if f.MenuID > 0 {
		conds = append(conds, "oi.menu_id = "+arg(f.MenuID))
	}
	if f.NotMenuID > 0 {
		conds = append(conds, "oi.menu_id <> "+arg(f.NotMenuID))
	}

	query := `
		SELECT oi.order_id, oi.menu_id, oi.quantity, oi.total_amount,
		       m.id, m.name, COALESCE(m.description, ''), m.price
		FROM order_items oi
		JOIN menus m ON m.id = oi.menu_id`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY oi.order_id ASC, oi.menu_id ASC"

	rows, err := querier(tx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		var menu models.Menu
		err := rows.Scan(
			&item.OrderID, &item.MenuID, &item.Quantity, &item.TotalAmount,
			&menu.ID, &menu.Name, &menu.Description, &menu.Price,
		)
		if err != nil {
			return nil, err
		}
		item.Menu = &menu
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *OrderRepo) GetOrderItemByCompositeID(ctx context.Context, tx db.DBTX, orderID, menuID int64) (*models.OrderItem, error) {
	query := `
		SELECT order_id, menu_id, quantity, total_amount
		FROM order_items
		WHERE order_id = $1 AND menu_id = $2`

	var item models.OrderItem
	err := querier(tx, r.db).QueryRowContext(ctx, query, orderID, menuID).Scan(
		&item.OrderID, &item.MenuID, &item.Quantity, &item.TotalAmount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// BulkUpdateOrders persists per-row differing amounts for many orders in
// one CASE statement per batch rather than one round trip per row.
func (r *OrderRepo) BulkUpdateOrders(ctx context.Context, tx db.DBTX, orders []models.Order) error {
	for start := 0; start < len(orders); start += r.batchSize {
		end := start + r.batchSize
		if end > len(orders) {
			end = len(orders)
		}

		query, args := buildOrderBulkUpdate(orders[start:end])
		if _, err := querier(tx, r.db).ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

func buildOrderBulkUpdate(batch []models.Order) (string, []any) {
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var orderAmount, promotionID, promotionAmount, totalAmount, status strings.Builder
	ids := make([]string, 0, len(batch))
	for _, o := range batch {
		id := arg(o.ID)
		ids = append(ids, id)

		var pid any
		if o.PromotionID != nil {
			pid = *o.PromotionID
		}
		fmt.Fprintf(&orderAmount, " WHEN id = %s THEN %s::numeric", id, arg(o.OrderAmount))
		fmt.Fprintf(&promotionID, " WHEN id = %s THEN %s::bigint", id, arg(pid))
		fmt.Fprintf(&promotionAmount, " WHEN id = %s THEN %s::numeric", id, arg(o.PromotionAmount))
		fmt.Fprintf(&totalAmount, " WHEN id = %s THEN %s::numeric", id, arg(o.TotalAmount))
		fmt.Fprintf(&status, " WHEN id = %s THEN %s::text", id, arg(o.Status))
	}

	query := fmt.Sprintf(`
		UPDATE orders
		SET
			order_amount = CASE%s END,
			promotion_id = CASE%s END,
			promotion_amount = CASE%s END,
			total_amount = CASE%s END,
			status = CASE%s END,
			updated_at = NOW()
		WHERE id IN (%s)`,
		orderAmount.String(), promotionID.String(), promotionAmount.String(),
		totalAmount.String(), status.String(), strings.Join(ids, ", "),
	)
	return query, args
}

// BulkUpdateOrderItemsByMenuID rewrites the quantity and total of every
// given line item of one menu, one CASE statement per batch.
func (r *OrderRepo) BulkUpdateOrderItemsByMenuID(ctx context.Context, tx db.DBTX, menuID int64, items []models.OrderItem) error {
	for start := 0; start < len(items); start += r.batchSize {
		end := start + r.batchSize
		if end > len(items) {
			end = len(items)
		}

		query, args := buildOrderItemBulkUpdate(menuID, items[start:end])
		if _, err := querier(tx, r.db).ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

func buildOrderItemBulkUpdate(menuID int64, batch []models.OrderItem) (string, []any) {
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	menuArg := arg(menuID)
	var quantity, totalAmount strings.Builder
	ids := make([]string, 0, len(batch))
	for _, item := range batch {
		id := arg(item.OrderID)
		ids = append(ids, id)

		fmt.Fprintf(&quantity, " WHEN order_id = %s THEN %s::int", id, arg(item.Quantity))
		fmt.Fprintf(&totalAmount, " WHEN order_id = %s THEN %s::numeric", id, arg(item.TotalAmount))
	}

	query := fmt.Sprintf(`
		UPDATE order_items
		SET
			quantity = CASE%s END,
			total_amount = CASE%s END
		WHERE menu_id = %s AND order_id IN (%s)`,
		quantity.String(), totalAmount.String(), menuArg, strings.Join(ids, ", "),
	)
	return query, args
}
