package services

import (
	"context"
	"errors"
	"fmt"

	"pizzeria/internal/models"
	"pizzeria/internal/repository"

	"go.uber.org/zap"
)

// PricingSettings are the checkout parameters in effect right now.
type PricingSettings struct {
	TaxRate        float64 `json:"taxRate"`
	DeliveryCharge float64 `json:"deliveryCharge"`
}

type SettingsService interface {
	Effective(ctx context.Context) (PricingSettings, error)
	ListSettings(ctx context.Context) ([]models.PricingSetting, error)
	UpdateSetting(ctx context.Context, name string, value float64, adminID uint) (*models.PricingSetting, error)
}

type settingsService struct {
	settingsRepo repository.SettingsRepository
	defaults     PricingSettings
	logger       *zap.Logger
}

// NewSettingsService falls back to defaults for any setting missing from
// the database.
func NewSettingsService(settingsRepo repository.SettingsRepository, defaults PricingSettings, logger *zap.Logger) SettingsService {
	return &settingsService{settingsRepo: settingsRepo, defaults: defaults, logger: logger}
}

func (s *settingsService) Effective(ctx context.Context) (PricingSettings, error) {
	out := s.defaults

	tax, err := s.lookup(ctx, models.SettingTaxRate)
	if err != nil {
		return PricingSettings{}, err
	}
	if tax != nil {
		out.TaxRate = *tax
	}

	delivery, err := s.lookup(ctx, models.SettingDeliveryCharge)
	if err != nil {
		return PricingSettings{}, err
	}
	if delivery != nil {
		out.DeliveryCharge = *delivery
	}
	return out, nil
}

func (s *settingsService) lookup(ctx context.Context, name string) (*float64, error) {
	setting, err := s.settingsRepo.GetSetting(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s setting: %w", name, err)
	}
	return &setting.Value, nil
}

func (s *settingsService) ListSettings(ctx context.Context) ([]models.PricingSetting, error) {
	return s.settingsRepo.ListSettings(ctx)
}

func (s *settingsService) UpdateSetting(ctx context.Context, name string, value float64, adminID uint) (*models.PricingSetting, error) {
	switch name {
	case models.SettingTaxRate:
		if value < 0 || value > 1 {
			return nil, ValidationErrors{"value": "Tax rate must be between 0 and 1"}
		}
	case models.SettingDeliveryCharge:
		if value < 0 || value > 10000 {
			return nil, ValidationErrors{"value": "Delivery charge must be between 0 and 10000"}
		}
	default:
		return nil, ErrUnknownSetting
	}

	setting := &models.PricingSetting{Name: name, Value: value, IsActive: true, UpdatedBy: adminID}
	if err := s.settingsRepo.UpsertSetting(ctx, setting); err != nil {
		return nil, fmt.Errorf("failed to save %s setting: %w", name, err)
	}
	s.logger.Info("pricing setting updated", zap.String("name", name), zap.Float64("value", value), zap.Uint("admin_id", adminID))
	return setting, nil
}
