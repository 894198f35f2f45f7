package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"pizzeria/internal/auth"
	"pizzeria/internal/config"
	"pizzeria/internal/database"
	"pizzeria/internal/events"
	"pizzeria/internal/handlers"
	"pizzeria/internal/logging"
	"pizzeria/internal/migrations"
	"pizzeria/internal/realtime"
	"pizzeria/internal/redis"
	"pizzeria/internal/repository"
	"pizzeria/internal/services"
	"pizzeria/pkg/payment"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	err = migrations.RunMigrations(ctx, db, migrations.Options{
		AdminEmail:     cfg.AdminEmail,
		AdminPassword:  cfg.AdminPassword,
		TaxRate:        cfg.TaxRate,
		DeliveryCharge: cfg.DeliveryCharge,
		SeedFile:       cfg.SeedFile,
	}, logger)
	if err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Order lifecycle events go to Kafka when brokers are configured
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		logger.Info("publishing order events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	defer publisher.Close()

	tokens := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	paymentClient := payment.NewClient(cfg.PaymentAPIURL, cfg.PaymentSecretKey)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	promoRepo := repository.NewPromoRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	orderItemRepo := repository.NewOrderItemRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Initialize services
	userService := services.NewUserService(userRepo, tokens, logger)
	productService := services.NewProductService(productRepo, logger)
	cartService := services.NewCartService(cartRepo, productRepo, redisClient, time.Duration(cfg.CacheTTL)*time.Second, logger)
	promoService := services.NewPromoService(promoRepo, logger)
	settingsService := services.NewSettingsService(settingsRepo, services.PricingSettings{
		TaxRate:        cfg.TaxRate,
		DeliveryCharge: cfg.DeliveryCharge,
	}, logger)

	var orderService services.OrderService
	hub := realtime.NewHub(redisClient, func(ctx context.Context, userID uint, isAdmin bool, orderID uint) error {
		_, err := orderService.GetOrder(ctx, userID, isAdmin, orderID)
		return err
	}, logger)
	orderService = services.NewOrderService(services.OrderServiceDeps{
		OrderRepo:     orderRepo,
		OrderItemRepo: orderItemRepo,
		CartRepo:      cartRepo,
		Carts:         cartService,
		Promos:        promoService,
		Settings:      settingsService,
		Notifier:      hub,
		Publisher:     publisher,
		Logger:        logger,
	})
	paymentService := services.NewPaymentService(orderService, paymentClient, cfg.PaymentSuccessURL, cfg.PaymentCancelURL, logger)
	uploadService := services.NewUploadService(cfg.UploadDir, cfg.PublicBaseURL, logger)

	go func() {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("order update relay stopped", zap.Error(err))
		}
	}()

	// Setup routes
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(logging.GinRecovery(logger), logging.GinLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.RegisterRoutes(router, handlers.Handlers{
		User:      handlers.NewUserHandler(userService),
		Product:   handlers.NewProductHandler(productService),
		Cart:      handlers.NewCartHandler(cartService),
		Order:     handlers.NewOrderHandler(orderService),
		Promo:     handlers.NewPromoHandler(promoService),
		Payment:   handlers.NewPaymentHandler(paymentService),
		Upload:    handlers.NewUploadHandler(uploadService),
		Settings:  handlers.NewSettingsHandler(settingsService),
		WebSocket: hub.ServeWS,
	}, tokens, cfg.UploadDir)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
