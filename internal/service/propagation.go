package service

import (
	"context"
	"fmt"

	"github.com/ertantorizkyf/promotion-service/internal/concurrency"
	"github.com/ertantorizkyf/promotion-service/internal/logger"
	"github.com/ertantorizkyf/promotion-service/internal/models"
	"github.com/ertantorizkyf/promotion-service/internal/repository"
	"github.com/ertantorizkyf/promotion-service/pkg/db"
)

// Propagator re-prices draft orders in bulk after an admin change to a
// menu price or a promotion's discount terms. Orders that left draft are
// priced history and are never touched.
//
// All methods run inside the caller's transaction so the admin change
// and the re-pricing of affected drafts commit or roll back together.
// The per-order recomputation is pure arithmetic and fans out across a
// bounded worker pool; persistence happens afterwards through the bulk
// updaters.
type Propagator struct {
	orders  OrderStore
	promos  PromotionStore
	workers int
	log     *logger.Logger
}

func NewPropagator(orders OrderStore, promos PromotionStore, workers int, log *logger.Logger) *Propagator {
	if workers <= 0 {
		workers = 1
	}
	return &Propagator{orders: orders, promos: promos, workers: workers, log: log}
}

// RepriceForMenuPrice rewrites every draft line item of the menu at its
// new unit price, then re-derives order, promotion and total amounts of
// each affected draft.
func (p *Propagator) RepriceForMenuPrice(ctx context.Context, tx db.DBTX, menu *models.Menu) error {
	lines, err := p.orders.GetOrderItems(ctx, tx, repository.OrderItemFilter{MenuID: menu.ID})
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	orderIDs := make([]int64, len(lines))
	for i, line := range lines {
		orderIDs[i] = line.OrderID
	}
	drafts, err := p.orders.GetOrders(ctx, tx, repository.OrderFilter{
		IDs:    orderIDs,
		Status: models.OrderStatusDraft,
	})
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		return nil
	}

	draftIDs := make([]int64, len(drafts))
	for i := range drafts {
		draftIDs[i] = drafts[i].ID
	}
	itemsByOrder, err := p.draftItemsByOrder(ctx, tx, draftIDs)
	if err != nil {
		return err
	}
	promosByID, err := p.promotionsForDrafts(ctx, tx, drafts)
	if err != nil {
		return err
	}

	updatedLines := make([]models.OrderItem, len(drafts))
	errs := make([]error, len(drafts))
	concurrency.ForEach(ctx, p.workers, len(drafts), func(ctx context.Context, i int) {
		order := &drafts[i]

		var sum float64
		var menuLine *models.OrderItem
		items := itemsByOrder[order.ID]
		for j := range items {
			if items[j].MenuID == menu.ID {
				items[j].TotalAmount = float64(items[j].Quantity) * menu.Price
				menuLine = &items[j]
			}
			sum += items[j].TotalAmount
		}
		if menuLine == nil {
			errs[i] = fmt.Errorf("draft order %d has no line for menu %d", order.ID, menu.ID)
			return
		}
		updatedLines[i] = *menuLine

		order.OrderAmount = sum
		order.PromotionAmount = 0
		if order.PromotionID != nil {
			order.PromotionAmount = PromotionAmount(sum, promosByID[*order.PromotionID])
		}
		order.TotalAmount = TotalAmount(order.OrderAmount, order.PromotionAmount)
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.orders.BulkUpdateOrderItemsByMenuID(ctx, tx, menu.ID, updatedLines); err != nil {
		return err
	}
	if err := p.orders.BulkUpdateOrders(ctx, tx, drafts); err != nil {
		return err
	}

	if p.log != nil {
		p.log.Info(ctx, "propagate_menu_price", fmt.Sprintf("repriced %d draft order(s) for menu %d", len(drafts), menu.ID))
	}
	return nil
}

// RepriceForPromotionTerms recomputes the promotion amount of every
// draft order holding the promotion under its new terms. A draft whose
// order amount no longer exceeds the new minimum loses the promotion
// entirely.
func (p *Propagator) RepriceForPromotionTerms(ctx context.Context, tx db.DBTX, promo *models.PromotionDetail) error {
	drafts, err := p.orders.GetOrders(ctx, tx, repository.OrderFilter{
		Status:      models.OrderStatusDraft,
		PromotionID: promo.ID,
	})
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		return nil
	}

	concurrency.ForEach(ctx, p.workers, len(drafts), func(ctx context.Context, i int) {
		order := &drafts[i]
		if order.OrderAmount <= promo.MinOrderAmount {
			order.PromotionID = nil
			order.PromotionAmount = 0
		} else {
			order.PromotionAmount = PromotionAmount(order.OrderAmount, &promo.Promotion)
		}
		order.TotalAmount = TotalAmount(order.OrderAmount, order.PromotionAmount)
	})
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.orders.BulkUpdateOrders(ctx, tx, drafts); err != nil {
		return err
	}

	if p.log != nil {
		p.log.Info(ctx, "propagate_promotion_terms", fmt.Sprintf("repriced %d draft order(s) for promotion %d", len(drafts), promo.ID))
	}
	return nil
}

// DetachPromotion strips the promotion from every draft order holding it
// and restores their totals to the plain order amount. Used before a
// promotion row is deleted.
func (p *Propagator) DetachPromotion(ctx context.Context, tx db.DBTX, promotionID int64) error {
	drafts, err := p.orders.GetOrders(ctx, tx, repository.OrderFilter{
		Status:      models.OrderStatusDraft,
		PromotionID: promotionID,
	})
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		return nil
	}

	for i := range drafts {
		drafts[i].PromotionID = nil
		drafts[i].PromotionAmount = 0
		drafts[i].TotalAmount = TotalAmount(drafts[i].OrderAmount, 0)
	}
	return p.orders.BulkUpdateOrders(ctx, tx, drafts)
}

func (p *Propagator) draftItemsByOrder(ctx context.Context, tx db.DBTX, orderIDs []int64) (map[int64][]models.OrderItem, error) {
	items, err := p.orders.GetOrderItems(ctx, tx, repository.OrderItemFilter{OrderIDs: orderIDs})
	if err != nil {
		return nil, err
	}
	byOrder := make(map[int64][]models.OrderItem, len(orderIDs))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	return byOrder, nil
}

func (p *Propagator) promotionsForDrafts(ctx context.Context, tx db.DBTX, drafts []models.Order) (map[int64]*models.Promotion, error) {
	seen := map[int64]bool{}
	var ids []int64
	for i := range drafts {
		if drafts[i].PromotionID != nil && !seen[*drafts[i].PromotionID] {
			seen[*drafts[i].PromotionID] = true
			ids = append(ids, *drafts[i].PromotionID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	details, err := p.promos.GetPromotions(ctx, tx, repository.PromotionFilter{IDs: ids})
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Promotion, len(details))
	for i := range details {
		byID[details[i].ID] = &details[i].Promotion
	}
	return byID, nil
}
