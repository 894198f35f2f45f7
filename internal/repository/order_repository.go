package repository

import (
	"context"
	"pizzeria/internal/models"
	"time"

	"gorm.io/gorm"
)

type OrderFilter struct {
	UserID        *uint
	Status        string
	PaymentStatus string
	PaymentMode   string
}

type OrderStats struct {
	TotalOrders   int64            `json:"totalOrders"`
	TotalRevenue  float64          `json:"totalRevenue"`
	OrdersByState map[string]int64 `json:"ordersByStatus"`
}

type DailySales struct {
	Day     time.Time `json:"day"`
	Orders  int64     `json:"orders"`
	Revenue float64   `json:"revenue"`
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order, promoID *uint) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetByPaymentSession(ctx context.Context, sessionID string) (*models.Order, error)
	GetByUserID(ctx context.Context, userID uint) ([]models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	UpdateFields(ctx context.Context, id uint, expected OrderState, fields map[string]interface{}) error
	Stats(ctx context.Context) (*OrderStats, error)
	SalesByDay(ctx context.Context, since time.Time) ([]DailySales, error)
	Recent(ctx context.Context, limit int) ([]models.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create stores the order and its items. When promoID is set the promo's
// usage counter is incremented in the same transaction; if the limit has
// been reached meanwhile nothing is written and ErrPromoExhausted is returned.
func (r *orderRepository) Create(ctx context.Context, order *models.Order, promoID *uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if promoID != nil {
			res := tx.Model(&models.Promo{}).
				Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", *promoID).
				UpdateColumn("used_count", gorm.Expr("used_count + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrPromoExhausted
			}
		}
		return translate(tx.Create(order).Error)
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepository) GetByPaymentSession(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("payment_session_id = ?", sessionID).First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepository) GetByUserID(ctx context.Context, userID uint) ([]models.Order, error) {
	return r.List(ctx, OrderFilter{UserID: &userID})
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Preload("Items")
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.PaymentMode != "" {
		query = query.Where("payment_mode = ?", filter.PaymentMode)
	}

	var orders []models.Order
	err := query.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// OrderState is the status pair an update expects to find on the row.
type OrderState struct {
	Status        string
	PaymentStatus string
}

// StateOf captures the state of an order as it was read.
func StateOf(order *models.Order) OrderState {
	return OrderState{Status: order.Status, PaymentStatus: order.PaymentStatus}
}

// UpdateFields applies fields only while the order still has the expected
// status and payment status, so two concurrent transitions cannot both
// succeed.
func (r *orderRepository) UpdateFields(ctx context.Context, id uint, expected OrderState, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ? AND payment_status = ?", id, expected.Status, expected.PaymentStatus).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *orderRepository) Stats(ctx context.Context) (*OrderStats, error) {
	db := r.db.WithContext(ctx)
	stats := &OrderStats{OrdersByState: make(map[string]int64)}

	if err := db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	err := db.Model(&models.Order{}).
		Where("status <> ?", string(models.StatusCancelled)).
		Select("COALESCE(SUM(pricing_total), 0)").
		Scan(&stats.TotalRevenue).Error
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&models.Order{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.OrdersByState[row.Status] = row.Count
	}
	return stats, nil
}

func (r *orderRepository) SalesByDay(ctx context.Context, since time.Time) ([]DailySales, error) {
	var sales []DailySales
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("DATE_TRUNC('day', created_at) AS day, COUNT(*) AS orders, COALESCE(SUM(pricing_total), 0) AS revenue").
		Where("created_at >= ? AND status <> ?", since, string(models.StatusCancelled)).
		Group("day").
		Order("day").
		Scan(&sales).Error
	return sales, err
}

func (r *orderRepository) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&orders).Error
	return orders, err
}
