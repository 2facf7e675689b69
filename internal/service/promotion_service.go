package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ertantorizkyf/promotion-service/internal/apperr"
	"github.com/ertantorizkyf/promotion-service/internal/cache"
	"github.com/ertantorizkyf/promotion-service/internal/logger"
	"github.com/ertantorizkyf/promotion-service/internal/models"
	"github.com/ertantorizkyf/promotion-service/internal/repository"
	"github.com/ertantorizkyf/promotion-service/pkg/db"
	"github.com/ertantorizkyf/promotion-service/pkg/metrics"
)

// PromotionService owns promotion redemption on the draft order and the
// promotion admin operations. Lookups by code go through an in-memory
// cache that is invalidated on every write.
type PromotionService struct {
	instrumentation

	tx         TxRunner
	orders     OrderStore
	promos     PromotionStore
	users      UserStore
	cache      *cache.PromotionCache
	propagator *Propagator
}

func NewPromotionService(tx TxRunner, orders OrderStore, promos PromotionStore, users UserStore, c *cache.PromotionCache, propagator *Propagator, log *logger.Logger, m *metrics.EngineMetrics) *PromotionService {
	return &PromotionService{
		instrumentation: instrumentation{log: log, metrics: m},
		tx:              tx,
		orders:          orders,
		promos:          promos,
		users:           users,
		cache:           c,
		propagator:      propagator,
	}
}

// RedeemPromotion attaches the promotion identified by code to the
// user's draft order and reprices it.
//
// A promotion that exists but is outside its validity window or targeted
// at an audience the user is not part of is reported as not found, the
// same as a code that does not exist. Only the redemption limits (order
// amount floor and the two caps) surface as an eligibility failure.
func (s *PromotionService) RedeemPromotion(ctx context.Context, userID int64, code string) (err error) {
	defer s.track(ctx, "redeem_promotion", time.Now(), &err)

	return s.tx.RunInTx(ctx, func(tx db.DBTX) error {
		promo, err := s.promotionByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		if promo == nil {
			return fmt.Errorf("promotion %q: %w", code, apperr.ErrNotFound)
		}

		snapshot, err := snapshotForUser(ctx, tx, s.users, userID)
		if err != nil {
			return err
		}
		if !IsEligible(promo, snapshot, time.Now().UTC()) {
			return fmt.Errorf("promotion %q: %w", code, apperr.ErrNotFound)
		}

		order, err := s.orders.GetCurrentDraftOrder(ctx, tx, userID, false)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("draft order for user %d: %w", userID, apperr.ErrNotFound)
		}

		ok, err := redemptionWithinLimits(ctx, tx, s.promos, promo, userID, order.OrderAmount)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("promotion %q: %w", code, apperr.ErrNotEligible)
		}

		order.PromotionID = &promo.ID
		order.PromotionAmount = PromotionAmount(order.OrderAmount, &promo.Promotion)
		order.TotalAmount = TotalAmount(order.OrderAmount, order.PromotionAmount)
		return s.orders.UpdateOrder(ctx, tx, order)
	})
}

// RevokePromotionRedemption detaches whatever promotion is on the user's
// draft order and reprices it back to the plain order amount.
func (s *PromotionService) RevokePromotionRedemption(ctx context.Context, userID int64) (err error) {
	defer s.track(ctx, "revoke_promotion_redemption", time.Now(), &err)

	return s.tx.RunInTx(ctx, func(tx db.DBTX) error {
		order, err := s.orders.GetCurrentDraftOrder(ctx, tx, userID, false)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("draft order for user %d: %w", userID, apperr.ErrNotFound)
		}
		if order.PromotionID == nil {
			return fmt.Errorf("draft order %d has no promotion: %w", order.ID, apperr.ErrNotFound)
		}

		order.PromotionID = nil
		order.PromotionAmount = 0
		order.TotalAmount = TotalAmount(order.OrderAmount, 0)
		return s.orders.UpdateOrder(ctx, tx, order)
	})
}

// promotionByCode reads through the cache. Cache hits skip the database
// entirely; any write path invalidates the cached entry.
func (s *PromotionService) promotionByCode(ctx context.Context, tx db.DBTX, code string) (*models.PromotionDetail, error) {
	if promo, ok := s.cache.Get(code); ok {
		return promo, nil
	}
	promo, err := s.promos.GetPromotionByCode(ctx, tx, code)
	if err != nil || promo == nil {
		return promo, err
	}
	s.cache.Set(code, promo)
	return promo, nil
}

// GetPromotions lists every promotion with its targeted cities.
func (s *PromotionService) GetPromotions(ctx context.Context) ([]models.PromotionDetail, error) {
	return s.promos.GetPromotions(ctx, nil, repository.PromotionFilter{})
}

// GetEligiblePromotions lists the currently-active promotions whose
// audience the user belongs to. Redemption limits are not checked here;
// they only apply when a code is actually redeemed.
func (s *PromotionService) GetEligiblePromotions(ctx context.Context, userID int64) ([]models.PromotionDetail, error) {
	now := time.Now().UTC()

	snapshot, err := snapshotForUser(ctx, nil, s.users, userID)
	if err != nil {
		return nil, err
	}

	active, err := s.promos.GetPromotions(ctx, nil, repository.PromotionFilter{ActiveOn: &now})
	if err != nil {
		return nil, err
	}

	eligible := make([]models.PromotionDetail, 0, len(active))
	for i := range active {
		if IsEligible(&active[i], snapshot, now) {
			eligible = append(eligible, active[i])
		}
	}
	return eligible, nil
}

// CreatePromotion inserts the promotion and its city targeting rows.
func (s *PromotionService) CreatePromotion(ctx context.Context, promo *models.PromotionDetail) (err error) {
	defer s.track(ctx, "create_promotion", time.Now(), &err)

	if err := validatePromotion(promo); err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(tx db.DBTX) error {
		if err := s.promos.CreatePromotion(ctx, tx, &promo.Promotion); err != nil {
			return err
		}
		return s.replaceCities(ctx, tx, promo)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(promo.Code)
	return nil
}

// UpdatePromotion overwrites the promotion and its city targeting. When
// the discount terms changed, every draft order that references the
// promotion is repriced under the new terms after the commit.
func (s *PromotionService) UpdatePromotion(ctx context.Context, promo *models.PromotionDetail) (err error) {
	defer s.track(ctx, "update_promotion", time.Now(), &err)

	if err := validatePromotion(promo); err != nil {
		return err
	}

	var staleCode string
	err = s.tx.RunInTx(ctx, func(tx db.DBTX) error {
		existing, err := s.promos.GetPromotionByID(ctx, tx, promo.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("promotion %d: %w", promo.ID, apperr.ErrNotFound)
		}
		staleCode = existing.Code

		if err := s.promos.UpdatePromotion(ctx, tx, &promo.Promotion); err != nil {
			return err
		}
		if err := s.promos.DeletePromotionCities(ctx, tx, promo.ID); err != nil {
			return err
		}
		if err := s.replaceCities(ctx, tx, promo); err != nil {
			return err
		}

		if discountTermsChanged(&existing.Promotion, &promo.Promotion) {
			return s.propagator.RepriceForPromotionTerms(ctx, tx, promo)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(staleCode, promo.Code)
	return nil
}

// DeletePromotion removes a promotion. Orders that left draft keep
// their promotion reference as pricing history, so a promotion they
// point at cannot be deleted. Drafts still holding it are detached and
// restored to their plain order amount in the same transaction.
func (s *PromotionService) DeletePromotion(ctx context.Context, promotionID int64) (err error) {
	defer s.track(ctx, "delete_promotion", time.Now(), &err)

	var code string
	err = s.tx.RunInTx(ctx, func(tx db.DBTX) error {
		promo, err := s.promos.GetPromotionByID(ctx, tx, promotionID)
		if err != nil {
			return err
		}
		if promo == nil {
			return fmt.Errorf("promotion %d: %w", promotionID, apperr.ErrNotFound)
		}
		code = promo.Code

		var submitted []string
		submitted = append(submitted, models.CommittedOrderStatuses...)
		submitted = append(submitted, models.OrderStatusCancelled)
		referencing, err := s.orders.GetOrders(ctx, tx, repository.OrderFilter{
			PromotionID: promotionID,
			Statuses:    submitted,
		})
		if err != nil {
			return err
		}
		if len(referencing) > 0 {
			return fmt.Errorf("promotion %d is referenced by %d submitted order(s): %w", promotionID, len(referencing), apperr.ErrConflict)
		}

		if err := s.propagator.DetachPromotion(ctx, tx, promotionID); err != nil {
			return err
		}
		if err := s.promos.DeletePromotionCities(ctx, tx, promotionID); err != nil {
			return err
		}
		return s.promos.DeletePromotion(ctx, tx, promotionID)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(code)
	return nil
}

func (s *PromotionService) replaceCities(ctx context.Context, tx db.DBTX, promo *models.PromotionDetail) error {
	if promo.TargetUser != models.TargetUserSpecificCity {
		return nil
	}
	cityIDs := make([]int64, len(promo.Cities))
	for i, c := range promo.Cities {
		cityIDs[i] = c.ID
	}
	return s.promos.BulkCreatePromotionCities(ctx, tx, promo.ID, cityIDs)
}

// discountTermsChanged reports whether any field that feeds the discount
// computation differs. Metadata-only edits (name, description, window,
// caps) do not trigger a reprice of existing drafts.
func discountTermsChanged(old, updated *models.Promotion) bool {
	return old.Type != updated.Type ||
		old.DiscountAmount != updated.DiscountAmount ||
		old.MaxDiscountAmount != updated.MaxDiscountAmount ||
		old.MinOrderAmount != updated.MinOrderAmount
}

func validatePromotion(promo *models.PromotionDetail) error {
	switch promo.Type {
	case models.PromotionTypeFixedCut, models.PromotionTypePercentage:
	default:
		return fmt.Errorf("%w: unknown promotion type %q", apperr.ErrValidation, promo.Type)
	}
	switch promo.TargetUser {
	case models.TargetUserAll, models.TargetUserNew, models.TargetUserLoyal:
	case models.TargetUserSpecificCity:
		if len(promo.Cities) == 0 {
			return fmt.Errorf("%w: city-targeted promotion needs at least one city", apperr.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown target user %q", apperr.ErrValidation, promo.TargetUser)
	}
	if promo.Code == "" {
		return fmt.Errorf("%w: promotion code is required", apperr.ErrValidation)
	}
	if promo.DiscountAmount <= 0 {
		return fmt.Errorf("%w: discount amount must be positive", apperr.ErrValidation)
	}
	if promo.Type == models.PromotionTypePercentage && promo.DiscountAmount > 1 {
		return fmt.Errorf("%w: percentage discount must be a fraction between 0 and 1", apperr.ErrValidation)
	}
	if promo.EndDate.Before(promo.StartDate) {
		return fmt.Errorf("%w: end date precedes start date", apperr.ErrValidation)
	}
	return nil
}
