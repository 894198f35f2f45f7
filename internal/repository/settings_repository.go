package repository

import (
	"context"
	"pizzeria/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository interface {
	GetSetting(ctx context.Context, name string) (*models.PricingSetting, error)
	ListSettings(ctx context.Context) ([]models.PricingSetting, error)
	UpsertSetting(ctx context.Context, setting *models.PricingSetting) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetSetting(ctx context.Context, name string) (*models.PricingSetting, error) {
	var setting models.PricingSetting
	err := r.db.WithContext(ctx).Where("name = ? AND is_active = ?", name, true).First(&setting).Error
	if err != nil {
		return nil, translate(err)
	}
	return &setting, nil
}

func (r *settingsRepository) ListSettings(ctx context.Context) ([]models.PricingSetting, error) {
	var settings []models.PricingSetting
	err := r.db.WithContext(ctx).Order("name").Find(&settings).Error
	return settings, err
}

func (r *settingsRepository) UpsertSetting(ctx context.Context, setting *models.PricingSetting) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "is_active", "updated_by", "updated_at"}),
	}).Create(setting).Error
}
