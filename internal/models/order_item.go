package models

import "time"

// OrderItem is an immutable snapshot of a cart line taken at checkout.
type OrderItem struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	OrderID       uint          `json:"-" gorm:"index;not null"`
	ProductID     uint          `json:"productId" gorm:"index;not null"`
	ProductName   string        `json:"productName" gorm:"not null"`
	Image         string        `json:"image"`
	Customization Customization `json:"customization" gorm:"serializer:json;type:jsonb"`
	Quantity      int           `json:"quantity" gorm:"not null"`
	UnitPrice     float64       `json:"unitPrice" gorm:"not null"`
	TotalPrice    float64       `json:"totalPrice" gorm:"not null"`
	CreatedAt     time.Time     `json:"createdAt"`
}
