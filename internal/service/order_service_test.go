package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ertantorizkyf/promotion-service/internal/apperr"
	"github.com/ertantorizkyf/promotion-service/internal/models"
	"github.com/ertantorizkyf/promotion-service/internal/repository"
)

func seedMenu(f *engineFixture, name string, price float64) *models.Menu {
	menu := &models.Menu{Name: name, Price: price}
	_ = f.menus.CreateMenu(context.Background(), nil, menu)
	return menu
}

func seedUser(f *engineFixture, cityID int64) int64 {
	id := int64(len(f.users.users) + 1)
	f.users.users[id] = models.User{ID: id, Name: "customer", CityID: cityID}
	return id
}

// seedActivePromotion registers a currently-valid promotion open to
// everyone.
func seedActivePromotion(f *engineFixture, p models.Promotion) *models.PromotionDetail {
	now := time.Now().UTC()
	p.StartDate = now.Add(-24 * time.Hour)
	p.EndDate = now.Add(24 * time.Hour)
	if p.TargetUser == "" {
		p.TargetUser = models.TargetUserAll
	}
	_ = f.promos.CreatePromotion(context.Background(), nil, &p)
	detail := f.promos.promos[p.ID]
	return &detail
}

func TestUpsertItemCreatesSeededDraft(t *testing.T) {
	f := newEngineFixture()
	menu := seedMenu(f, "nasi goreng", 10000)
	userID := seedUser(f, 1)
	svc := f.orderService()

	if err := svc.UpsertItem(context.Background(), userID, menu.ID, 3); err != nil {
		t.Fatalf("UpsertItem: %v", err)
	}

	draft, err := f.orders.GetCurrentDraftOrder(context.Background(), nil, userID, true)
	if err != nil || draft == nil {
		t.Fatalf("expected a draft order, got %v, %v", draft, err)
	}
	if draft.OrderAmount != 30000 || draft.TotalAmount != 30000 || draft.PromotionAmount != 0 {
		t.Fatalf("seeded amounts wrong: %+v", draft)
	}
	if len(draft.Items) != 1 || draft.Items[0].TotalAmount != 30000 {
		t.Fatalf("seeded items wrong: %+v", draft.Items)
	}
	if f.tx.commits != 1 {
		t.Fatalf("commits = %d, want 1", f.tx.commits)
	}
}

func TestUpsertItemRecomputesExistingDraft(t *testing.T) {
	f := newEngineFixture()
	nasi := seedMenu(f, "nasi goreng", 10000)
	teh := seedMenu(f, "es teh", 5000)
	userID := seedUser(f, 1)
	svc := f.orderService()

	ctx := context.Background()
	if err := svc.UpsertItem(ctx, userID, nasi.ID, 2); err != nil {
		t.Fatalf("first UpsertItem: %v", err)
	}
	if err := svc.UpsertItem(ctx, userID, teh.ID, 4); err != nil {
		t.Fatalf("second UpsertItem: %v", err)
	}

	draft, _ := f.orders.GetCurrentDraftOrder(ctx, nil, userID, false)
	if draft.OrderAmount != 40000 {
		t.Fatalf("order amount = %v, want 40000", draft.OrderAmount)
	}

	// repeat add replaces the quantity, it does not increment
	if err := svc.UpsertItem(ctx, userID, nasi.ID, 1); err != nil {
		t.Fatalf("replace UpsertItem: %v", err)
	}
	draft, _ = f.orders.GetCurrentDraftOrder(ctx, nil, userID, false)
	if draft.OrderAmount != 30000 {
		t.Fatalf("order amount after replace = %v, want 30000", draft.OrderAmount)
	}
}

func TestUpsertItemRepricesAttachedPromotion(t *testing.T) {
	f := newEngineFixture()
	menu := seedMenu(f, "paket keluarga", 30000)
	userID := seedUser(f, 1)
	promo := seedActivePromotion(f, models.Promotion{
		Code: "HEMAT20", Type: models.PromotionTypePercentage,
		DiscountAmount: 0.20, MaxDiscountAmount: 15000, MinOrderAmount: 25000,
		MaxRedemptions: 100, MaxRedemptionsPerUser: 5,
	})
	svc := f.orderService()

	ctx := context.Background()
	if err := svc.UpsertItem(ctx, userID, menu.ID, 1); err != nil {
		t.Fatalf("UpsertItem: %v", err)
	}
	draft, _ := f.orders.GetCurrentDraftOrder(ctx, nil, userID, false)
	draft.PromotionID = &promo.ID
	_ = f.orders.UpdateOrder(ctx, nil, draft)

	if err := svc.UpsertItem(ctx, userID, menu.ID, 2); err != nil {
		t.Fatalf("UpsertItem with promotion: %v", err)
	}

	draft, _ = f.orders.GetCurrentDraftOrder(ctx, nil, userID, false)
	if draft.OrderAmount != 60000 || draft.PromotionAmount != 12000 {
		t.Fatalf("reprice wrong: %+v", draft)
	}
	if draft.TotalAmount != TotalAmount(60000, 12000) {
		t.Fatalf("total = %v", draft.TotalAmount)
	}
}

func TestUpsertItemErrors(t *testing.T) {
	f := newEngineFixture()
	menu := seedMenu(f, "nasi goreng", 10000)
	userID := seedUser(f, 1)
	svc := f.orderService()
	ctx := context.Background()

	if err := svc.UpsertItem(ctx, userID, 999, 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown menu: want ErrNotFound, got %v", err)
	}
	if err := svc.UpsertItem(ctx, userID, menu.ID, 0); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("zero quantity: want ErrValidation, got %v", err)
	}
	if len(f.orders.orders) != 0 {
		t.Fatal("failed upserts must not leave a draft behind")
	}
}

func TestRemoveItemSubtractsLineTotal(t *testing.T) {
	f := newEngineFixture()
	nasi := seedMenu(f, "nasi goreng", 10000)
	teh := seedMenu(f, "es teh", 5000)
	userID := seedUser(f, 1)
	svc := f.orderService()
	ctx := context.Background()

	_ = svc.UpsertItem(ctx, userID, nasi.ID, 2)
	_ = svc.UpsertItem(ctx, userID, teh.ID, 2)

	if err := svc.RemoveItem(ctx, userID, teh.ID); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}

	draft, _ := f.orders.GetCurrentDraftOrder(ctx, nil, userID, true)
	if draft.OrderAmount != 20000 || draft.TotalAmount != 20000 {
		t.Fatalf("amounts after removal wrong: %+v", draft)
	}
	if len(draft.Items) != 1 {
		t.Fatalf("items after removal = %d, want 1", len(draft.Items))
	}
}

func TestRemoveItemErrors(t *testing.T) {
	f := newEngineFixture()
	nasi := seedMenu(f, "nasi goreng", 10000)
	teh := seedMenu(f, "es teh", 5000)
	userID := seedUser(f, 1)
	svc := f.orderService()
	ctx := context.Background()

	if err := svc.RemoveItem(ctx, userID, nasi.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("no draft: want ErrNotFound, got %v", err)
	}

	_ = svc.UpsertItem(ctx, userID, nasi.ID, 1)
	if err := svc.RemoveItem(ctx, userID, teh.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("item not on order: want ErrNotFound, got %v", err)
	}
	if err := svc.RemoveItem(ctx, userID, 999); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown menu: want ErrNotFound, got %v", err)
	}
}

func TestSubmitDraftOrder(t *testing.T) {
	f := newEngineFixture()
	menu := seedMenu(f, "nasi goreng", 10000)
	userID := seedUser(f, 1)
	svc := f.orderService()
	ctx := context.Background()

	_ = svc.UpsertItem(ctx, userID, menu.ID, 3)
	if err := svc.SubmitDraftOrder(ctx, userID); err != nil {
		t.Fatalf("SubmitDraftOrder: %v", err)
	}

	orders, _ := f.orders.GetOrders(ctx, nil, repository.OrderFilter{UserID: userID})
	if len(orders) != 1 || orders[0].Status != models.OrderStatusPendingPayment {
		t.Fatalf("submitted order wrong: %+v", orders)
	}

	if err := svc.SubmitDraftOrder(ctx, userID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second submit without a draft: want ErrNotFound, got %v", err)
	}
}

func TestSubmitDraftOrderClearsIneligiblePromotion(t *testing.T) {
	f := newEngineFixture()
	menu := seedMenu(f, "paket keluarga", 30000)
	userID := seedUser(f, 1)
	promo := seedActivePromotion(f, models.Promotion{
		Code: "SEKALI", Type: models.PromotionTypeFixedCut,
		DiscountAmount: 5000, MinOrderAmount: 0,
		MaxRedemptions: 100, MaxRedemptionsPerUser: 1,
	})
	svc := f.orderService()
	ctx := context.Background()

	_ = svc.UpsertItem(ctx, userID, menu.ID, 1)
	draft, _ := f.orders.GetCurrentDraftOrder(ctx, nil, userID, false)
	draft.PromotionID = &promo.ID
	draft.PromotionAmount = 5000
	draft.TotalAmount = TotalAmount(draft.OrderAmount, 5000)
	_ = f.orders.UpdateOrder(ctx, nil, draft)

	// the user exhausts their per-user cap between redemption and submission
	f.promos.userRedemptions[userKey{promo.ID, userID}] = 1

	commitsBefore := f.tx.commits
	err := svc.SubmitDraftOrder(ctx, userID)
	if !errors.Is(err, apperr.ErrNotEligible) {
		t.Fatalf("want ErrNotEligible, got %v", err)
	}

	// the clearing write must have committed even though an error surfaced
	if f.tx.commits != commitsBefore+1 {
		t.Fatalf("clearing write did not commit: commits = %d", f.tx.commits)
	}
	draft, _ = f.orders.GetCurrentDraftOrder(ctx, nil, userID, false)
	if draft == nil || draft.Status != models.OrderStatusDraft {
		t.Fatal("order must remain a draft after a rejected submission")
	}
	if draft.PromotionID != nil || draft.PromotionAmount != 0 || draft.TotalAmount != draft.OrderAmount {
		t.Fatalf("promotion not cleared: %+v", draft)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newEngineFixture()
	menu := seedMenu(f, "nasi goreng", 10000)
	userID := seedUser(f, 1)
	svc := f.orderService()
	ctx := context.Background()

	_ = svc.UpsertItem(ctx, userID, menu.ID, 1)
	draft, _ := f.orders.GetCurrentDraftOrder(ctx, nil, userID, false)

	if err := svc.UpdateOrderStatus(ctx, draft.ID, "shipped"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("unknown status: want ErrValidation, got %v", err)
	}
	if err := svc.UpdateOrderStatus(ctx, 999, models.OrderStatusCompleted); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown order: want ErrNotFound, got %v", err)
	}
	if err := svc.UpdateOrderStatus(ctx, draft.ID, models.OrderStatusCompleted); err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}

	updated, _ := f.orders.GetOrderByID(ctx, nil, draft.ID)
	if updated.Status != models.OrderStatusCompleted {
		t.Fatalf("status = %q", updated.Status)
	}
}

func TestGetOrderHistoriesExcludesDrafts(t *testing.T) {
	f := newEngineFixture()
	menu := seedMenu(f, "nasi goreng", 10000)
	userID := seedUser(f, 1)
	svc := f.orderService()
	ctx := context.Background()

	_ = svc.UpsertItem(ctx, userID, menu.ID, 1)
	_ = svc.SubmitDraftOrder(ctx, userID)
	_ = svc.UpsertItem(ctx, userID, menu.ID, 2) // fresh draft

	histories, err := svc.GetOrderHistories(ctx, userID)
	if err != nil {
		t.Fatalf("GetOrderHistories: %v", err)
	}
	if len(histories) != 1 || histories[0].Status != models.OrderStatusPendingPayment {
		t.Fatalf("histories = %+v", histories)
	}
}
