package models

import "time"

const (
	OrderStatusDraft          = "draft"
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusProcessing     = "processing"
	OrderStatusCompleted      = "completed"
	OrderStatusCancelled      = "cancelled"
)

// CommittedOrderStatuses are the statuses that count as real, consumed
// orders: redemption counters and loyalty aggregates are derived from
// orders in these statuses only.
var CommittedOrderStatuses = []string{
	OrderStatusPendingPayment,
	OrderStatusProcessing,
	OrderStatusCompleted,
}

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusDraft, OrderStatusPendingPayment, OrderStatusProcessing,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID              int64       `json:"id"`
	UserID          int64       `json:"user_id"`
	OrderAmount     float64     `json:"order_amount"`
	PromotionID     *int64      `json:"promotion_id"`
	PromotionAmount float64     `json:"promotion_amount"`
	TotalAmount     float64     `json:"total_amount"`
	Status          string      `json:"status"`
	Items           []OrderItem `json:"items,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderItem is one line of an order, identified by (order_id, menu_id).
// TotalAmount is quantity times the menu unit price at the time of the
// last recalculation.
type OrderItem struct {
	OrderID     int64   `json:"order_id"`
	MenuID      int64   `json:"menu_id"`
	Quantity    int     `json:"quantity"`
	TotalAmount float64 `json:"total_amount"`
	Menu        *Menu   `json:"menu,omitempty"`
}
