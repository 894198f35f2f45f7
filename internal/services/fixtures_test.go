package services

import (
	"testing"
	"time"

	"pizzeria/internal/auth"
	"pizzeria/internal/models"
	cache "pizzeria/internal/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func margherita() *models.Product {
	return &models.Product{
		Name:        "Margherita",
		Description: "Tomato, mozzarella and basil",
		Category:    string(models.CategoryPizza),
		Pricing:     map[string]float64{"small": 300, "medium": 450, "large": 600, "thin": 0, "thick": 50},
		Toppings:    []models.Topping{{Name: "Olives", Price: 40}, {Name: "Jalapeno", Price: 10}},
		Published:   true,
	}
}

func cola() *models.Product {
	return &models.Product{
		Name:        "Cola",
		Description: "Sparkling soft drink",
		Category:    string(models.CategoryBeverages),
		Pricing:     map[string]float64{"ml330": 60, "ml500": 90, "cold": 10},
		Published:   true,
	}
}

func newTestCache(t *testing.T) (*cache.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return cache.NewFromRedis(rdb), mr
}

func newTestTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", time.Hour)
}

// checkoutEnv wires the order flow against in-memory repositories.
type checkoutEnv struct {
	products  *mockProductRepository
	carts     *mockCartRepository
	promos    *mockPromoRepository
	orders    *mockOrderRepository
	settings  *mockSettingsRepository
	notifier  *recordingNotifier
	publisher *recordingPublisher

	cartService  CartService
	promoService *promoService
	orderService *orderService
}

func newCheckoutEnv(t *testing.T) *checkoutEnv {
	logger := zap.NewNop()
	redisCache, _ := newTestCache(t)

	env := &checkoutEnv{
		products:  newMockProductRepository(margherita(), cola()),
		carts:     newMockCartRepository(),
		promos:    newMockPromoRepository(),
		settings:  newMockSettingsRepository(),
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
	}
	env.orders = newMockOrderRepository(env.promos)
	env.cartService = NewCartService(env.carts, env.products, redisCache, time.Minute, logger)
	env.promoService = NewPromoService(env.promos, logger).(*promoService)
	settings := NewSettingsService(env.settings, PricingSettings{TaxRate: 0.18, DeliveryCharge: 100}, logger)
	env.orderService = NewOrderService(OrderServiceDeps{
		OrderRepo:     env.orders,
		OrderItemRepo: mockOrderItemRepository{},
		CartRepo:      env.carts,
		Carts:         env.cartService,
		Promos:        env.promoService,
		Settings:      settings,
		Notifier:      env.notifier,
		Publisher:     env.publisher,
		Logger:        logger,
	}).(*orderService)
	return env
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
