package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ertantorizkyf/promotion-service/internal/apperr"
	"github.com/ertantorizkyf/promotion-service/internal/logger"
	"github.com/ertantorizkyf/promotion-service/internal/models"
	"github.com/ertantorizkyf/promotion-service/pkg/db"
	"github.com/ertantorizkyf/promotion-service/pkg/metrics"
)

type MenuService struct {
	instrumentation

	tx         TxRunner
	menus      MenuStore
	propagator *Propagator
}

func NewMenuService(tx TxRunner, menus MenuStore, propagator *Propagator, log *logger.Logger, m *metrics.EngineMetrics) *MenuService {
	return &MenuService{
		instrumentation: instrumentation{log: log, metrics: m},
		tx:              tx,
		menus:           menus,
		propagator:      propagator,
	}
}

func (s *MenuService) GetMenus(ctx context.Context) ([]models.Menu, error) {
	return s.menus.GetMenus(ctx)
}

func (s *MenuService) CreateMenu(ctx context.Context, menu *models.Menu) (err error) {
	defer s.track(ctx, "create_menu", time.Now(), &err)

	if err := validateMenu(menu); err != nil {
		return err
	}
	return s.menus.CreateMenu(ctx, nil, menu)
}

// UpdateMenu overwrites the menu. A price change re-prices every draft
// order containing the menu in the same transaction, so no draft ever
// observes the new price with stale totals.
func (s *MenuService) UpdateMenu(ctx context.Context, menu *models.Menu) (err error) {
	defer s.track(ctx, "update_menu", time.Now(), &err)

	if err := validateMenu(menu); err != nil {
		return err
	}

	return s.tx.RunInTx(ctx, func(tx db.DBTX) error {
		existing, err := s.menus.GetMenuByID(ctx, tx, menu.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("menu %d: %w", menu.ID, apperr.ErrNotFound)
		}

		if err := s.menus.UpdateMenu(ctx, tx, menu); err != nil {
			return err
		}

		if existing.Price != menu.Price {
			return s.propagator.RepriceForMenuPrice(ctx, tx, menu)
		}
		return nil
	})
}

func validateMenu(menu *models.Menu) error {
	if menu.Name == "" {
		return fmt.Errorf("%w: menu name is required", apperr.ErrValidation)
	}
	if menu.Price <= 0 {
		return fmt.Errorf("%w: menu price must be positive", apperr.ErrValidation)
	}
	return nil
}
