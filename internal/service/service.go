// Package service implements the draft order pricing and promotion
// engine: item upsert/removal, promotion redemption and revocation,
// order submission, and bulk re-pricing when menu prices or promotion
// terms change.
package service

import (
	"context"
	"time"

	"github.com/ertantorizkyf/promotion-service/internal/logger"
	"github.com/ertantorizkyf/promotion-service/internal/models"
	"github.com/ertantorizkyf/promotion-service/internal/repository"
	"github.com/ertantorizkyf/promotion-service/pkg/db"
	"github.com/ertantorizkyf/promotion-service/pkg/metrics"
)

// Stores required by the services (interfaces to allow mocking).

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx db.DBTX) error) error
}

type MenuStore interface {
	GetMenus(ctx context.Context) ([]models.Menu, error)
	GetMenuByID(ctx context.Context, tx db.DBTX, id int64) (*models.Menu, error)
	CreateMenu(ctx context.Context, tx db.DBTX, m *models.Menu) error
	UpdateMenu(ctx context.Context, tx db.DBTX, m *models.Menu) error
}

type OrderStore interface {
	GetCurrentDraftOrder(ctx context.Context, tx db.DBTX, userID int64, includeItems bool) (*models.Order, error)
	GetOrderByID(ctx context.Context, tx db.DBTX, id int64) (*models.Order, error)
	GetOrders(ctx context.Context, tx db.DBTX, f repository.OrderFilter) ([]models.Order, error)
	CreateOrder(ctx context.Context, tx db.DBTX, o *models.Order) error
	UpdateOrder(ctx context.Context, tx db.DBTX, o *models.Order) error
	UpsertOrderItem(ctx context.Context, tx db.DBTX, item *models.OrderItem) error
	DeleteOrderItem(ctx context.Context, tx db.DBTX, orderID, menuID int64) error
	GetOrderItems(ctx context.Context, tx db.DBTX, f repository.OrderItemFilter) ([]models.OrderItem, error)
	GetOrderItemByCompositeID(ctx context.Context, tx db.DBTX, orderID, menuID int64) (*models.OrderItem, error)
	BulkUpdateOrders(ctx context.Context, tx db.DBTX, orders []models.Order) error
	BulkUpdateOrderItemsByMenuID(ctx context.Context, tx db.DBTX, menuID int64, items []models.OrderItem) error
}

type PromotionStore interface {
	GetPromotions(ctx context.Context, tx db.DBTX, f repository.PromotionFilter) ([]models.PromotionDetail, error)
	GetPromotionByID(ctx context.Context, tx db.DBTX, id int64) (*models.PromotionDetail, error)
	GetPromotionByCode(ctx context.Context, tx db.DBTX, code string) (*models.PromotionDetail, error)
	CreatePromotion(ctx context.Context, tx db.DBTX, p *models.Promotion) error
	UpdatePromotion(ctx context.Context, tx db.DBTX, p *models.Promotion) error
	DeletePromotion(ctx context.Context, tx db.DBTX, id int64) error
	DeletePromotionCities(ctx context.Context, tx db.DBTX, promotionID int64) error
	BulkCreatePromotionCities(ctx context.Context, tx db.DBTX, promotionID int64, cityIDs []int64) error
	GetRedemptionCount(ctx context.Context, tx db.DBTX, promotionID int64) (int, error)
	GetRedemptionCountByUser(ctx context.Context, tx db.DBTX, promotionID, userID int64) (int, error)
}

type UserStore interface {
	GetUserByID(ctx context.Context, tx db.DBTX, id int64) (*models.User, error)
	GetUserOrderStats(ctx context.Context, tx db.DBTX, userID int64) (*models.UserOrderStats, error)
}

// instrumentation is embedded by the services; track records the outcome
// of an engine operation and logs its failure, if any. Both collaborators
// are optional.
type instrumentation struct {
	log     *logger.Logger
	metrics *metrics.EngineMetrics
}

func (i instrumentation) track(ctx context.Context, op string, start time.Time, err *error) {
	if i.metrics != nil {
		i.metrics.Observe(op, start, *err)
	}
	if *err != nil && i.log != nil {
		i.log.Error(ctx, op, "operation failed", *err)
	}
}
