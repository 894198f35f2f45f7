package services

import (
	"context"
	"testing"

	"pizzeria/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSettingsService_FallsBackToDefaults(t *testing.T) {
	repo := newMockSettingsRepository()
	svc := NewSettingsService(repo, PricingSettings{TaxRate: 0.18, DeliveryCharge: 100}, zap.NewNop())
	ctx := context.Background()

	got, err := svc.Effective(ctx)
	require.NoError(t, err)
	assert.Equal(t, PricingSettings{TaxRate: 0.18, DeliveryCharge: 100}, got)

	_, err = svc.UpdateSetting(ctx, models.SettingDeliveryCharge, 0, 1)
	require.NoError(t, err)

	got, err = svc.Effective(ctx)
	require.NoError(t, err)
	assert.Equal(t, PricingSettings{TaxRate: 0.18, DeliveryCharge: 0}, got)
}

func TestSettingsService_UpdateValidation(t *testing.T) {
	svc := NewSettingsService(newMockSettingsRepository(), PricingSettings{}, zap.NewNop())
	ctx := context.Background()

	_, err := svc.UpdateSetting(ctx, models.SettingTaxRate, 18, 1)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "Tax rate must be between 0 and 1", verrs["value"])

	_, err = svc.UpdateSetting(ctx, "marketing_rate", 0.1, 1)
	assert.ErrorIs(t, err, ErrUnknownSetting)

	setting, err := svc.UpdateSetting(ctx, models.SettingTaxRate, 0.12, 7)
	require.NoError(t, err)
	assert.Equal(t, uint(7), setting.UpdatedBy)
	assert.True(t, setting.IsActive)
}
