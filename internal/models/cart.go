package models

import (
	"sort"
	"strings"
	"time"
)

type Cart struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	UserID     uint       `json:"userId" gorm:"uniqueIndex;not null"`
	Items      []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	Subtotal   float64    `json:"subtotal" gorm:"-"`
	TotalItems int        `json:"totalItems" gorm:"-"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type CartItem struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	CartID        uint          `json:"-" gorm:"index;not null"`
	ProductID     uint          `json:"productId" gorm:"not null"`
	ProductName   string        `json:"productName"`
	Category      string        `json:"category"`
	Image         string        `json:"image"`
	Customization Customization `json:"customization" gorm:"serializer:json;type:jsonb"`
	UnitPrice     float64       `json:"unitPrice" gorm:"not null"`
	Quantity      int           `json:"quantity" gorm:"not null"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Customization is the set of variant choices attached to a cart or order line.
type Customization struct {
	Size     string   `json:"size,omitempty"`
	Crust    string   `json:"crust,omitempty"`
	Chilling string   `json:"chilling,omitempty"`
	Toppings []string `json:"toppings,omitempty"`
}

// Key identifies a variant independent of topping order, so that adding the
// same variant twice merges into one line.
func (c Customization) Key() string {
	toppings := append([]string(nil), c.Toppings...)
	sort.Strings(toppings)
	return strings.Join([]string{c.Size, c.Crust, c.Chilling, strings.Join(toppings, ",")}, "|")
}

const (
	MinItemQuantity = 1
	MaxItemQuantity = 50
)
