package repository

import (
	"context"
	"pizzeria/internal/models"

	"gorm.io/gorm"
)

type ProductSales struct {
	ProductID   uint    `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int64   `json:"quantity"`
	Revenue     float64 `json:"revenue"`
}

type OrderItemRepository interface {
	TopProducts(ctx context.Context, limit int) ([]ProductSales, error)
}

type orderItemRepository struct {
	db *gorm.DB
}

func NewOrderItemRepository(db *gorm.DB) OrderItemRepository {
	return &orderItemRepository{db: db}
}

// TopProducts ranks products by units sold across non-cancelled orders.
func (r *orderItemRepository) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	var top []ProductSales
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Select("order_items.product_id, order_items.product_name, SUM(order_items.quantity) AS quantity, SUM(order_items.total_price) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status <> ?", string(models.StatusCancelled)).
		Group("order_items.product_id, order_items.product_name").
		Order("quantity DESC").
		Limit(limit).
		Scan(&top).Error
	return top, err
}
