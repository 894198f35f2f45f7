package repository

import (
	"context"
	"pizzeria/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Cart, error)
	AddItem(ctx context.Context, userID uint, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, userID, itemID uint, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID uint) error
	Clear(ctx context.Context, userID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetByUserID(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, translate(err)
	}
	return &cart, nil
}

// AddItem appends the item to the user's cart, creating the cart on first
// use. A line with the same product and customization absorbs the quantity.
func (r *cartRepository) AddItem(ctx context.Context, userID uint, item *models.CartItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart := models.Cart{UserID: userID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cart).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&cart).Error; err != nil {
			return translate(err)
		}

		var existing []models.CartItem
		if err := tx.Where("cart_id = ? AND product_id = ?", cart.ID, item.ProductID).Find(&existing).Error; err != nil {
			return err
		}
		for _, line := range existing {
			if line.Customization.Key() != item.Customization.Key() {
				continue
			}
			merged := line.Quantity + item.Quantity
			if merged > models.MaxItemQuantity {
				return ErrQuantityExceeded
			}
			line.Quantity = merged
			line.UnitPrice = item.UnitPrice
			*item = line
			return tx.Save(&line).Error
		}

		item.CartID = cart.ID
		return tx.Create(item).Error
	})
}

func (r *cartRepository) UpdateItemQuantity(ctx context.Context, userID, itemID uint, quantity int) error {
	res := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ? AND cart_id = (SELECT id FROM carts WHERE user_id = ?)", itemID, userID).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, userID, itemID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = (SELECT id FROM carts WHERE user_id = ?)", itemID, userID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cartRepository) Clear(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Where("cart_id = (SELECT id FROM carts WHERE user_id = ?)", userID).
		Delete(&models.CartItem{}).Error
}
