package service

import (
	"context"
	"sort"

	"github.com/ertantorizkyf/promotion-service/internal/cache"
	"github.com/ertantorizkyf/promotion-service/internal/models"
	"github.com/ertantorizkyf/promotion-service/internal/repository"
	"github.com/ertantorizkyf/promotion-service/pkg/db"
)

// In-memory fakes behind the store interfaces. The tx passed around is
// always nil; fakeTxRunner just counts commits so tests can assert how
// many transactions actually committed.

type fakeTxRunner struct {
	commits   int
	rollbacks int
}

func (f *fakeTxRunner) RunInTx(_ context.Context, fn func(tx db.DBTX) error) error {
	if err := fn(nil); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

// --- menus ---

type fakeMenuStore struct {
	menus  map[int64]models.Menu
	nextID int64
}

func newFakeMenuStore() *fakeMenuStore {
	return &fakeMenuStore{menus: map[int64]models.Menu{}, nextID: 1}
}

func (f *fakeMenuStore) GetMenus(context.Context) ([]models.Menu, error) {
	var out []models.Menu
	for _, m := range f.menus {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMenuStore) GetMenuByID(_ context.Context, _ db.DBTX, id int64) (*models.Menu, error) {
	m, ok := f.menus[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (f *fakeMenuStore) CreateMenu(_ context.Context, _ db.DBTX, m *models.Menu) error {
	m.ID = f.nextID
	f.nextID++
	f.menus[m.ID] = *m
	return nil
}

func (f *fakeMenuStore) UpdateMenu(_ context.Context, _ db.DBTX, m *models.Menu) error {
	f.menus[m.ID] = *m
	return nil
}

// --- orders ---

type itemKey struct{ orderID, menuID int64 }

type fakeOrderStore struct {
	orders map[int64]models.Order
	items  map[itemKey]models.OrderItem
	nextID int64
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders: map[int64]models.Order{},
		items:  map[itemKey]models.OrderItem{},
		nextID: 1,
	}
}

func (f *fakeOrderStore) GetCurrentDraftOrder(ctx context.Context, tx db.DBTX, userID int64, includeItems bool) (*models.Order, error) {
	var latest *models.Order
	for id := range f.orders {
		o := f.orders[id]
		if o.UserID != userID || o.Status != models.OrderStatusDraft {
			continue
		}
		if latest == nil || o.ID > latest.ID {
			latest = &o
		}
	}
	if latest == nil {
		return nil, nil
	}
	if includeItems {
		items, _ := f.GetOrderItems(ctx, tx, repository.OrderItemFilter{OrderID: latest.ID})
		latest.Items = items
	}
	return latest, nil
}

func (f *fakeOrderStore) GetOrderByID(_ context.Context, _ db.DBTX, id int64) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (f *fakeOrderStore) GetOrders(ctx context.Context, tx db.DBTX, filter repository.OrderFilter) ([]models.Order, error) {
	idSet := map[int64]bool{}
	for _, id := range filter.IDs {
		idSet[id] = true
	}
	statusSet := map[string]bool{}
	for _, s := range filter.Statuses {
		statusSet[s] = true
	}

	var out []models.Order
	for id := range f.orders {
		o := f.orders[id]
		if len(filter.IDs) > 0 && !idSet[o.ID] {
			continue
		}
		if filter.UserID > 0 && o.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if len(filter.Statuses) > 0 && !statusSet[o.Status] {
			continue
		}
		if filter.PromotionID > 0 && (o.PromotionID == nil || *o.PromotionID != filter.PromotionID) {
			continue
		}
		if filter.IncludeItems {
			o.Items, _ = f.GetOrderItems(ctx, tx, repository.OrderItemFilter{OrderID: o.ID})
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeOrderStore) CreateOrder(_ context.Context, _ db.DBTX, o *models.Order) error {
	o.ID = f.nextID
	f.nextID++
	f.orders[o.ID] = *o
	return nil
}

func (f *fakeOrderStore) UpdateOrder(_ context.Context, _ db.DBTX, o *models.Order) error {
	f.orders[o.ID] = *o
	return nil
}

func (f *fakeOrderStore) UpsertOrderItem(_ context.Context, _ db.DBTX, item *models.OrderItem) error {
	f.items[itemKey{item.OrderID, item.MenuID}] = *item
	return nil
}

func (f *fakeOrderStore) DeleteOrderItem(_ context.Context, _ db.DBTX, orderID, menuID int64) error {
	delete(f.items, itemKey{orderID, menuID})
	return nil
}

func (f *fakeOrderStore) GetOrderItems(_ context.Context, _ db.DBTX, filter repository.OrderItemFilter) ([]models.OrderItem, error) {
	orderSet := map[int64]bool{}
	for _, id := range filter.OrderIDs {
		orderSet[id] = true
	}

	var out []models.OrderItem
	for key := range f.items {
		item := f.items[key]
		if filter.OrderID > 0 && item.OrderID != filter.OrderID {
			continue
		}
		if len(filter.OrderIDs) > 0 && !orderSet[item.OrderID] {
			continue
		}
		if filter.MenuID > 0 && item.MenuID != filter.MenuID {
			continue
		}
		if filter.NotMenuID > 0 && item.MenuID == filter.NotMenuID {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderID != out[j].OrderID {
			return out[i].OrderID < out[j].OrderID
		}
		return out[i].MenuID < out[j].MenuID
	})
	return out, nil
}

func (f *fakeOrderStore) GetOrderItemByCompositeID(_ context.Context, _ db.DBTX, orderID, menuID int64) (*models.OrderItem, error) {
	item, ok := f.items[itemKey{orderID, menuID}]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (f *fakeOrderStore) BulkUpdateOrders(_ context.Context, _ db.DBTX, orders []models.Order) error {
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return nil
}

func (f *fakeOrderStore) BulkUpdateOrderItemsByMenuID(_ context.Context, _ db.DBTX, menuID int64, items []models.OrderItem) error {
	for _, item := range items {
		key := itemKey{item.OrderID, menuID}
		if existing, ok := f.items[key]; ok {
			existing.Quantity = item.Quantity
			existing.TotalAmount = item.TotalAmount
			f.items[key] = existing
		}
	}
	return nil
}

// --- promotions ---

type userKey struct{ promotionID, userID int64 }

type fakePromotionStore struct {
	promos          map[int64]models.PromotionDetail
	redemptions     map[int64]int
	userRedemptions map[userKey]int
	nextID          int64
}

func newFakePromotionStore() *fakePromotionStore {
	return &fakePromotionStore{
		promos:          map[int64]models.PromotionDetail{},
		redemptions:     map[int64]int{},
		userRedemptions: map[userKey]int{},
		nextID:          1,
	}
}

func (f *fakePromotionStore) GetPromotions(_ context.Context, _ db.DBTX, filter repository.PromotionFilter) ([]models.PromotionDetail, error) {
	idSet := map[int64]bool{}
	for _, id := range filter.IDs {
		idSet[id] = true
	}

	var out []models.PromotionDetail
	for id := range f.promos {
		p := f.promos[id]
		if len(filter.IDs) > 0 && !idSet[p.ID] {
			continue
		}
		if filter.ActiveOn != nil {
			day := *filter.ActiveOn
			if day.Before(p.StartDate) || day.After(p.EndDate) {
				continue
			}
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakePromotionStore) GetPromotionByID(_ context.Context, _ db.DBTX, id int64) (*models.PromotionDetail, error) {
	p, ok := f.promos[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakePromotionStore) GetPromotionByCode(_ context.Context, _ db.DBTX, code string) (*models.PromotionDetail, error) {
	for id := range f.promos {
		if f.promos[id].Code == code {
			p := f.promos[id]
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakePromotionStore) CreatePromotion(_ context.Context, _ db.DBTX, p *models.Promotion) error {
	p.ID = f.nextID
	f.nextID++
	f.promos[p.ID] = models.PromotionDetail{Promotion: *p}
	return nil
}

func (f *fakePromotionStore) UpdatePromotion(_ context.Context, _ db.DBTX, p *models.Promotion) error {
	existing := f.promos[p.ID]
	existing.Promotion = *p
	f.promos[p.ID] = existing
	return nil
}

func (f *fakePromotionStore) DeletePromotion(_ context.Context, _ db.DBTX, id int64) error {
	delete(f.promos, id)
	return nil
}

func (f *fakePromotionStore) DeletePromotionCities(_ context.Context, _ db.DBTX, promotionID int64) error {
	if p, ok := f.promos[promotionID]; ok {
		p.Cities = nil
		f.promos[promotionID] = p
	}
	return nil
}

func (f *fakePromotionStore) BulkCreatePromotionCities(_ context.Context, _ db.DBTX, promotionID int64, cityIDs []int64) error {
	p, ok := f.promos[promotionID]
	if !ok {
		return nil
	}
	for _, id := range cityIDs {
		p.Cities = append(p.Cities, models.City{ID: id})
	}
	f.promos[promotionID] = p
	return nil
}

func (f *fakePromotionStore) GetRedemptionCount(_ context.Context, _ db.DBTX, promotionID int64) (int, error) {
	return f.redemptions[promotionID], nil
}

func (f *fakePromotionStore) GetRedemptionCountByUser(_ context.Context, _ db.DBTX, promotionID, userID int64) (int, error) {
	return f.userRedemptions[userKey{promotionID, userID}], nil
}

// --- users ---

type fakeUserStore struct {
	users map[int64]models.User
	stats map[int64]models.UserOrderStats
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[int64]models.User{}, stats: map[int64]models.UserOrderStats{}}
}

func (f *fakeUserStore) GetUserByID(_ context.Context, _ db.DBTX, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeUserStore) GetUserOrderStats(_ context.Context, _ db.DBTX, userID int64) (*models.UserOrderStats, error) {
	s := f.stats[userID]
	return &s, nil
}

// --- wiring helpers ---

type engineFixture struct {
	tx     *fakeTxRunner
	menus  *fakeMenuStore
	orders *fakeOrderStore
	promos *fakePromotionStore
	users  *fakeUserStore
}

func newEngineFixture() *engineFixture {
	return &engineFixture{
		tx:     &fakeTxRunner{},
		menus:  newFakeMenuStore(),
		orders: newFakeOrderStore(),
		promos: newFakePromotionStore(),
		users:  newFakeUserStore(),
	}
}

func (f *engineFixture) orderService() *OrderService {
	return NewOrderService(f.tx, f.orders, f.menus, f.promos, f.users, nil, nil)
}

func (f *engineFixture) propagator() *Propagator {
	return NewPropagator(f.orders, f.promos, 2, nil)
}

func (f *engineFixture) promotionService() (*PromotionService, *cache.PromotionCache) {
	c := cache.NewPromotionCache()
	svc := NewPromotionService(f.tx, f.orders, f.promos, f.users, c, f.propagator(), nil, nil)
	return svc, c
}

func (f *engineFixture) menuService() *MenuService {
	return NewMenuService(f.tx, f.menus, f.propagator(), nil, nil)
}
