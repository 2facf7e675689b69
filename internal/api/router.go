package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ertantorizkyf/promotion-service/internal/api/handlers"
	"github.com/ertantorizkyf/promotion-service/internal/api/middleware"
	"github.com/ertantorizkyf/promotion-service/internal/cache"
	"github.com/ertantorizkyf/promotion-service/internal/config"
	"github.com/ertantorizkyf/promotion-service/internal/logger"
	"github.com/ertantorizkyf/promotion-service/internal/repository"
	"github.com/ertantorizkyf/promotion-service/internal/service"
	"github.com/ertantorizkyf/promotion-service/pkg/db"
	"github.com/ertantorizkyf/promotion-service/pkg/metrics"
)

// NewRouter wires repositories, services and handlers and builds the
// HTTP router for the promotion-service.
func NewRouter(sqlDB *sql.DB, cfg *config.Config, log *logger.Logger) http.Handler {
	store := db.NewStore(sqlDB)
	menuRepo := repository.NewMenuRepo(sqlDB)
	orderRepo := repository.NewOrderRepo(sqlDB, cfg.QueryBatchSize)
	promoRepo := repository.NewPromotionRepo(sqlDB)
	userRepo := repository.NewUserRepo(sqlDB)
	cityRepo := repository.NewCityRepo(sqlDB)

	engineMetrics := metrics.NewEngineMetrics()
	serverMetrics := metrics.NewServerMetrics("http")
	promoCache := cache.NewPromotionCache()

	propagator := service.NewPropagator(orderRepo, promoRepo, cfg.PropagationWorkers, log)
	orderSvc := service.NewOrderService(store, orderRepo, menuRepo, promoRepo, userRepo, log, engineMetrics)
	promoSvc := service.NewPromotionService(store, orderRepo, promoRepo, userRepo, promoCache, propagator, log, engineMetrics)
	menuSvc := service.NewMenuService(store, menuRepo, propagator, log, engineMetrics)

	orderHandler := handlers.NewOrderHandler(orderSvc)
	promoHandler := handlers.NewPromotionHandler(promoSvc)
	menuHandler := handlers.NewMenuHandler(menuSvc)
	cityHandler := handlers.NewCityHandler(cityRepo)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Metrics(serverMetrics))

	r.Get("/cities", cityHandler.GetCities)

	r.Route("/menus", func(r chi.Router) {
		r.Get("/", menuHandler.GetMenus)
		r.Post("/", menuHandler.CreateMenu)
		r.Put("/{id}", menuHandler.UpdateMenu)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/item", orderHandler.UpsertItem)
		r.Delete("/item/{menuID}", orderHandler.RemoveItem)
		r.Get("/draft", orderHandler.GetCurrentDraft)
		r.Post("/draft/submission", orderHandler.SubmitDraft)
		r.Get("/histories", orderHandler.GetHistories)
		r.Patch("/{id}/status", orderHandler.UpdateStatus)
	})

	r.Route("/promotions", func(r chi.Router) {
		r.Get("/", promoHandler.GetPromotions)
		r.Post("/", promoHandler.CreatePromotion)
		r.Get("/eligible", promoHandler.GetEligiblePromotions)
		r.Post("/redemption", promoHandler.RedeemPromotion)
		r.Delete("/redemption", promoHandler.RevokeRedemption)
		r.Put("/{id}", promoHandler.UpdatePromotion)
		r.Delete("/{id}", promoHandler.DeletePromotion)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	return r
}
