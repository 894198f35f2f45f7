package models

import (
	"time"

	"gorm.io/gorm"
)

type Promo struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Code           string         `json:"code" gorm:"uniqueIndex;not null"`
	Description    string         `json:"description" gorm:"type:text"`
	DiscountType   string         `json:"discountType" gorm:"not null"` // percentage, fixed, free-shipping
	DiscountValue  float64        `json:"discountValue"`
	MinOrderAmount *float64       `json:"minOrderAmount"`
	MaxDiscount    *float64       `json:"maxDiscount"`
	ValidFrom      time.Time      `json:"validFrom" gorm:"not null"`
	ValidTo        time.Time      `json:"validTo" gorm:"not null"`
	UsageLimit     *int           `json:"usageLimit"`
	UsedCount      int            `json:"usedCount" gorm:"default:0"`
	Active         bool           `json:"active"`
	CreatedBy      uint           `json:"createdBy"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}
