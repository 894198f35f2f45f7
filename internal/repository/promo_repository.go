package repository

import (
	"context"
	"pizzeria/internal/models"

	"gorm.io/gorm"
)

type PromoFilter struct {
	Active       *bool
	DiscountType string
}

type PromoRepository interface {
	Create(ctx context.Context, promo *models.Promo) error
	GetByID(ctx context.Context, id uint) (*models.Promo, error)
	GetByCode(ctx context.Context, code string) (*models.Promo, error)
	List(ctx context.Context, filter PromoFilter) ([]models.Promo, error)
	Update(ctx context.Context, promo *models.Promo) error
	Delete(ctx context.Context, id uint) error
}

type promoRepository struct {
	db *gorm.DB
}

func NewPromoRepository(db *gorm.DB) PromoRepository {
	return &promoRepository{db: db}
}

func (r *promoRepository) Create(ctx context.Context, promo *models.Promo) error {
	return translate(r.db.WithContext(ctx).Create(promo).Error)
}

func (r *promoRepository) GetByID(ctx context.Context, id uint) (*models.Promo, error) {
	var promo models.Promo
	err := r.db.WithContext(ctx).First(&promo, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &promo, nil
}

func (r *promoRepository) GetByCode(ctx context.Context, code string) (*models.Promo, error) {
	var promo models.Promo
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&promo).Error
	if err != nil {
		return nil, translate(err)
	}
	return &promo, nil
}

func (r *promoRepository) List(ctx context.Context, filter PromoFilter) ([]models.Promo, error) {
	query := r.db.WithContext(ctx).Model(&models.Promo{})
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.DiscountType != "" {
		query = query.Where("discount_type = ?", filter.DiscountType)
	}

	var promos []models.Promo
	err := query.Order("created_at DESC").Find(&promos).Error
	return promos, err
}

// Update saves the admin-editable fields. UsedCount is owned by order
// creation and is never overwritten here.
func (r *promoRepository) Update(ctx context.Context, promo *models.Promo) error {
	return translate(r.db.WithContext(ctx).Model(promo).Select(
		"code", "description", "discount_type", "discount_value", "min_order_amount",
		"max_discount", "valid_from", "valid_to", "usage_limit", "active",
	).Updates(promo).Error)
}

func (r *promoRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Promo{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
