package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ertantorizkyf/promotion-service/internal/apperr"
	"github.com/ertantorizkyf/promotion-service/internal/logger"
	"github.com/ertantorizkyf/promotion-service/internal/models"
	"github.com/ertantorizkyf/promotion-service/internal/repository"
	"github.com/ertantorizkyf/promotion-service/pkg/db"
	"github.com/ertantorizkyf/promotion-service/pkg/metrics"
)

// OrderService is the pricing engine for the per-user draft order. Every
// mutating operation runs as one transaction; a failure after a partial
// write rolls the whole operation back. The one exception is documented
// on SubmitDraftOrder.
type OrderService struct {
	instrumentation

	tx     TxRunner
	orders OrderStore
	menus  MenuStore
	promos PromotionStore
	users  UserStore
}

func NewOrderService(tx TxRunner, orders OrderStore, menus MenuStore, promos PromotionStore, users UserStore, log *logger.Logger, m *metrics.EngineMetrics) *OrderService {
	return &OrderService{
		instrumentation: instrumentation{log: log, metrics: m},
		tx:              tx,
		orders:          orders,
		menus:           menus,
		promos:          promos,
		users:           users,
	}
}

// UpsertItem adds a menu item to the user's draft order, or replaces the
// quantity if the item is already on it. The draft order is created on
// the first item, with its totals seeded directly from that item.
func (s *OrderService) UpsertItem(ctx context.Context, userID, menuID int64, quantity int) (err error) {
	defer s.track(ctx, "upsert_item", time.Now(), &err)

	return s.tx.RunInTx(ctx, func(tx db.DBTX) error {
		menu, err := s.menus.GetMenuByID(ctx, tx, menuID)
		if err != nil {
			return err
		}
		if menu == nil {
			return fmt.Errorf("menu %d: %w", menuID, apperr.ErrNotFound)
		}

		lineTotal, err := LineTotal(quantity, menu.Price)
		if err != nil {
			return err
		}

		order, err := s.orders.GetCurrentDraftOrder(ctx, tx, userID, false)
		if err != nil {
			return err
		}
		isNewDraft := order == nil
		if isNewDraft {
			order = &models.Order{
				UserID:      userID,
				OrderAmount: lineTotal,
				TotalAmount: lineTotal,
				Status:      models.OrderStatusDraft,
			}
			if err := s.orders.CreateOrder(ctx, tx, order); err != nil {
				return err
			}
		}

		item := models.OrderItem{
			OrderID:     order.ID,
			MenuID:      menuID,
			Quantity:    quantity,
			TotalAmount: lineTotal,
		}
		if err := s.orders.UpsertOrderItem(ctx, tx, &item); err != nil {
			return err
		}

		if isNewDraft {
			// Totals were seeded from the first item; nothing to recompute.
			return nil
		}

		others, err := s.orders.GetOrderItems(ctx, tx, repository.OrderItemFilter{
			OrderID:   order.ID,
			NotMenuID: menuID,
		})
		if err != nil {
			return err
		}
		order.OrderAmount = OrderAmount(others) + lineTotal
		return s.repriceAndSave(ctx, tx, order)
	})
}

// RemoveItem deletes a line item from the user's draft order and
// recomputes the order amounts by subtracting the removed line's total.
func (s *OrderService) RemoveItem(ctx context.Context, userID, menuID int64) (err error) {
	defer s.track(ctx, "remove_item", time.Now(), &err)

	return s.tx.RunInTx(ctx, func(tx db.DBTX) error {
		menu, err := s.menus.GetMenuByID(ctx, tx, menuID)
		if err != nil {
			return err
		}
		if menu == nil {
			return fmt.Errorf("menu %d: %w", menuID, apperr.ErrNotFound)
		}

		order, err := s.orders.GetCurrentDraftOrder(ctx, tx, userID, false)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("draft order for user %d: %w", userID, apperr.ErrNotFound)
		}

		item, err := s.orders.GetOrderItemByCompositeID(ctx, tx, order.ID, menuID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("order item (%d, %d): %w", order.ID, menuID, apperr.ErrNotFound)
		}

		if err := s.orders.DeleteOrderItem(ctx, tx, order.ID, menuID); err != nil {
			return err
		}

		order.OrderAmount -= item.TotalAmount
		return s.repriceAndSave(ctx, tx, order)
	})
}

// repriceAndSave recomputes the promotion and total amounts for the
// order's current order_amount and persists it. The promotion amount is
// always recomputed from zero so repeated recalculation with unchanged
// inputs is a no-op.
func (s *OrderService) repriceAndSave(ctx context.Context, tx db.DBTX, order *models.Order) error {
	order.PromotionAmount = 0
	if order.PromotionID != nil {
		promo, err := s.promos.GetPromotionByID(ctx, tx, *order.PromotionID)
		if err != nil {
			return err
		}
		if promo == nil {
			return fmt.Errorf("promotion %d: %w", *order.PromotionID, apperr.ErrNotFound)
		}
		order.PromotionAmount = PromotionAmount(order.OrderAmount, &promo.Promotion)
	}
	order.TotalAmount = TotalAmount(order.OrderAmount, order.PromotionAmount)
	return s.orders.UpdateOrder(ctx, tx, order)
}

// SubmitDraftOrder transitions the user's draft order to pending_payment.
// If a promotion is attached it is re-validated against current counters
// first; when that fails the promotion is cleared from the order, the
// clearing is committed, and ErrNotEligible is returned. This is the one
// operation where a reported failure still persists a change: the
// customer's eligibility changed between redemption and submission and
// the cart must reflect reality.
func (s *OrderService) SubmitDraftOrder(ctx context.Context, userID int64) (err error) {
	defer s.track(ctx, "submit_draft_order", time.Now(), &err)

	var notEligible bool
	err = s.tx.RunInTx(ctx, func(tx db.DBTX) error {
		order, err := s.orders.GetCurrentDraftOrder(ctx, tx, userID, false)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("draft order for user %d: %w", userID, apperr.ErrNotFound)
		}

		if order.PromotionID != nil {
			eligible, err := s.promotionRedeemable(ctx, tx, *order.PromotionID, userID, order.OrderAmount)
			if err != nil {
				return err
			}
			if !eligible {
				order.PromotionID = nil
				order.PromotionAmount = 0
				order.TotalAmount = TotalAmount(order.OrderAmount, 0)
				if err := s.orders.UpdateOrder(ctx, tx, order); err != nil {
					return err
				}
				notEligible = true
				return nil // commit the clearing before surfacing the failure
			}
		}

		order.Status = models.OrderStatusPendingPayment
		return s.orders.UpdateOrder(ctx, tx, order)
	})
	if err != nil {
		return err
	}
	if notEligible {
		return fmt.Errorf("promotion no longer redeemable at submission: %w", apperr.ErrNotEligible)
	}
	return nil
}

// promotionRedeemable re-checks the full redemption criteria with
// current counters: audience targeting, validity window, minimum order
// amount, and both redemption caps.
func (s *OrderService) promotionRedeemable(ctx context.Context, tx db.DBTX, promotionID, userID int64, orderAmount float64) (bool, error) {
	promo, err := s.promos.GetPromotionByID(ctx, tx, promotionID)
	if err != nil {
		return false, err
	}
	if promo == nil {
		return false, nil
	}

	snapshot, err := snapshotForUser(ctx, tx, s.users, userID)
	if err != nil {
		return false, err
	}
	if !IsEligible(promo, snapshot, time.Now().UTC()) {
		return false, nil
	}

	return redemptionWithinLimits(ctx, tx, s.promos, promo, userID, orderAmount)
}

// UpdateOrderStatus overwrites the order's status. Only the status value
// itself is validated; transition ordering is deliberately not enforced.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, status string) (err error) {
	defer s.track(ctx, "update_order_status", time.Now(), &err)

	if !models.ValidOrderStatus(status) {
		return fmt.Errorf("%w: unknown order status %q", apperr.ErrValidation, status)
	}

	return s.tx.RunInTx(ctx, func(tx db.DBTX) error {
		order, err := s.orders.GetOrderByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("order %d: %w", orderID, apperr.ErrNotFound)
		}

		order.Status = status
		return s.orders.UpdateOrder(ctx, tx, order)
	})
}

// GetCurrentDraftOrder returns the user's draft order with its line
// items and menu detail.
func (s *OrderService) GetCurrentDraftOrder(ctx context.Context, userID int64) (*models.Order, error) {
	order, err := s.orders.GetCurrentDraftOrder(ctx, nil, userID, true)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("draft order for user %d: %w", userID, apperr.ErrNotFound)
	}
	return order, nil
}

// GetOrderHistories lists the user's submitted orders, newest first.
func (s *OrderService) GetOrderHistories(ctx context.Context, userID int64) ([]models.Order, error) {
	statuses := append([]string{}, models.CommittedOrderStatuses...)
	statuses = append(statuses, models.OrderStatusCancelled)

	return s.orders.GetOrders(ctx, nil, repository.OrderFilter{
		UserID:       userID,
		Statuses:     statuses,
		IncludeItems: true,
	})
}

// snapshotForUser assembles the eligibility snapshot the audience rules
// evaluate against.
func snapshotForUser(ctx context.Context, tx db.DBTX, users UserStore, userID int64) (EligibilitySnapshot, error) {
	user, err := users.GetUserByID(ctx, tx, userID)
	if err != nil {
		return EligibilitySnapshot{}, err
	}
	if user == nil {
		return EligibilitySnapshot{}, fmt.Errorf("user %d: %w", userID, apperr.ErrNotFound)
	}

	stats, err := users.GetUserOrderStats(ctx, tx, userID)
	if err != nil {
		return EligibilitySnapshot{}, err
	}

	return EligibilitySnapshot{UserOrderStats: *stats, CityID: user.CityID}, nil
}

// redemptionWithinLimits applies the redemption-time checks that listing
// skips: the order amount must strictly exceed the promotion's floor and
// both redemption counters must be below their caps. Counters are
// derived live from committed orders, never cached.
func redemptionWithinLimits(ctx context.Context, tx db.DBTX, promos PromotionStore, promo *models.PromotionDetail, userID int64, orderAmount float64) (bool, error) {
	if orderAmount <= promo.MinOrderAmount {
		return false, nil
	}

	total, err := promos.GetRedemptionCount(ctx, tx, promo.ID)
	if err != nil {
		return false, err
	}
	if total >= promo.MaxRedemptions {
		return false, nil
	}

	byUser, err := promos.GetRedemptionCountByUser(ctx, tx, promo.ID, userID)
	if err != nil {
		return false, err
	}
	return byUser < promo.MaxRedemptionsPerUser, nil
}
