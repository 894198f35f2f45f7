package main

import (
	"context"
	"flag"
	"log"

	"pizzeria/internal/config"
	"pizzeria/internal/database"
	"pizzeria/internal/logging"
	"pizzeria/internal/migrations"
	"pizzeria/internal/models"

	"go.uber.org/zap"
)

func main() {
	reset := flag.Bool("reset", false, "drop every table before migrating (destroys all data)")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if *reset {
		logger.Warn("dropping existing tables")
		err = db.Migrator().DropTable(
			&models.OrderItem{},
			&models.Order{},
			&models.CartItem{},
			&models.Cart{},
			&models.Promo{},
			&models.Product{},
			&models.PricingSetting{},
			&models.User{},
		)
		if err != nil {
			logger.Warn("error dropping tables", zap.Error(err))
		}
	}

	opts := migrations.Options{
		AdminEmail:     cfg.AdminEmail,
		AdminPassword:  cfg.AdminPassword,
		TaxRate:        cfg.TaxRate,
		DeliveryCharge: cfg.DeliveryCharge,
		SeedFile:       cfg.SeedFile,
	}
	if err := migrations.RunMigrations(context.Background(), db, opts, logger); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	logger.Info("database initialization completed", zap.String("admin_email", cfg.AdminEmail))
}
