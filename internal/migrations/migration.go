package migrations

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"pizzeria/internal/database"
	"pizzeria/internal/models"
	"pizzeria/internal/repository"
	"pizzeria/internal/services"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type Options struct {
	AdminEmail     string
	AdminPassword  string
	TaxRate        float64
	DeliveryCharge float64
	SeedFile       string
}

// Seed is the starter catalogue read from the seed file.
type Seed struct {
	Products []SeedProduct `yaml:"products"`
	Promos   []SeedPromo   `yaml:"promos"`
}

type SeedProduct struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Category    string             `yaml:"category"`
	Image       string             `yaml:"image"`
	Pricing     map[string]float64 `yaml:"pricing"`
	Spiciness   string             `yaml:"spiciness"`
	Alcohol     string             `yaml:"alcohol"`
	Toppings    []struct {
		Name  string  `yaml:"name"`
		Price float64 `yaml:"price"`
	} `yaml:"toppings"`
	Published bool `yaml:"published"`
}

type SeedPromo struct {
	Code           string   `yaml:"code"`
	Description    string   `yaml:"description"`
	DiscountType   string   `yaml:"discountType"`
	DiscountValue  float64  `yaml:"discountValue"`
	MinOrderAmount *float64 `yaml:"minOrderAmount"`
	MaxDiscount    *float64 `yaml:"maxDiscount"`
	UsageLimit     *int     `yaml:"usageLimit"`
	ValidDays      int      `yaml:"validDays"`
}

func (p SeedProduct) toModel() *models.Product {
	product := &models.Product{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Image:       p.Image,
		Pricing:     p.Pricing,
		Attributes:  models.ProductAttributes{Spiciness: p.Spiciness, Alcohol: p.Alcohol},
		Published:   p.Published,
	}
	for _, t := range p.Toppings {
		product.Toppings = append(product.Toppings, models.Topping{Name: t.Name, Price: t.Price})
	}
	return product
}

func (p SeedPromo) toModel(now time.Time) *models.Promo {
	days := p.ValidDays
	if days <= 0 {
		days = 30
	}
	return &models.Promo{
		Code:           p.Code,
		Description:    p.Description,
		DiscountType:   p.DiscountType,
		DiscountValue:  p.DiscountValue,
		MinOrderAmount: p.MinOrderAmount,
		MaxDiscount:    p.MaxDiscount,
		UsageLimit:     p.UsageLimit,
		ValidFrom:      now,
		ValidTo:        now.AddDate(0, 0, days),
		Active:         true,
	}
}

// LoadSeed reads the seed file. A missing file yields an empty seed.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Seed{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// RunMigrations brings the schema up to date and creates the default data.
func RunMigrations(ctx context.Context, db *gorm.DB, opts Options, logger *zap.Logger) error {
	logger.Info("running database migrations")
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	seed, err := LoadSeed(opts.SeedFile)
	if err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(db)
	seeder := &Seeder{
		UserRepo: userRepo,
		Users:    services.NewUserService(userRepo, nil, logger),
		Products: services.NewProductService(repository.NewProductRepository(db), logger),
		Promos:   services.NewPromoService(repository.NewPromoRepository(db), logger),
		Settings: repository.NewSettingsRepository(db),
		Logger:   logger,
		Now:      time.Now,
	}
	if err := seeder.Seed(ctx, opts, seed); err != nil {
		logger.Warn("failed to create default data", zap.Error(err))
	}

	logger.Info("database migrations completed")
	return nil
}

// Seeder creates the admin account, the pricing settings and the starter
// catalogue. Existing rows are left untouched, so it can run on every start.
type Seeder struct {
	UserRepo repository.UserRepository
	Users    services.UserService
	Products services.ProductService
	Promos   services.PromoService
	Settings repository.SettingsRepository
	Logger   *zap.Logger
	Now      func() time.Time
}

func (s *Seeder) Seed(ctx context.Context, opts Options, seed *Seed) error {
	admin, err := s.ensureAdmin(ctx, opts)
	if err != nil {
		return err
	}
	if err := s.ensureSettings(ctx, opts, admin.ID); err != nil {
		return err
	}
	if err := s.seedProducts(ctx, seed.Products); err != nil {
		return err
	}
	return s.seedPromos(ctx, seed.Promos, admin.ID)
}

func (s *Seeder) ensureAdmin(ctx context.Context, opts Options) (*models.User, error) {
	existing, err := s.UserRepo.GetByEmail(ctx, opts.AdminEmail)
	if err == nil {
		s.Logger.Debug("admin user already exists", zap.String("email", existing.Email))
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up admin user: %w", err)
	}

	admin := &models.User{
		FirstName: "Store",
		LastName:  "Admin",
		Email:     opts.AdminEmail,
		Role:      string(models.RoleAdmin),
		IsActive:  true,
	}
	if err := s.Users.CreateUser(ctx, admin, opts.AdminPassword); err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}
	s.Logger.Info("admin user created", zap.String("email", admin.Email))
	return admin, nil
}

func (s *Seeder) ensureSettings(ctx context.Context, opts Options, adminID uint) error {
	defaults := []models.PricingSetting{
		{Name: models.SettingTaxRate, Value: opts.TaxRate},
		{Name: models.SettingDeliveryCharge, Value: opts.DeliveryCharge},
	}
	for _, setting := range defaults {
		_, err := s.Settings.GetSetting(ctx, setting.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to read setting %s: %w", setting.Name, err)
		}

		setting := setting
		setting.IsActive = true
		setting.UpdatedBy = adminID
		if err := s.Settings.UpsertSetting(ctx, &setting); err != nil {
			return fmt.Errorf("failed to create setting %s: %w", setting.Name, err)
		}
		s.Logger.Info("pricing setting created", zap.String("name", setting.Name), zap.Float64("value", setting.Value))
	}
	return nil
}

// seedProducts only runs against an empty catalogue.
func (s *Seeder) seedProducts(ctx context.Context, products []SeedProduct) error {
	existing, err := s.Products.ListProducts(ctx, repository.ProductFilter{})
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, p := range products {
		if err := s.Products.CreateProduct(ctx, p.toModel()); err != nil {
			s.Logger.Warn("skipping seed product", zap.String("name", p.Name), zap.Error(err))
		}
	}
	return nil
}

func (s *Seeder) seedPromos(ctx context.Context, promos []SeedPromo, adminID uint) error {
	now := s.Now()
	for _, p := range promos {
		err := s.Promos.CreatePromo(ctx, p.toModel(now), adminID)
		if err != nil && !errors.Is(err, services.ErrPromoCodeTaken) {
			s.Logger.Warn("skipping seed promo", zap.String("code", p.Code), zap.Error(err))
		}
	}
	return nil
}
