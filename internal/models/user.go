package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	FirstName string         `json:"firstName" gorm:"not null"`
	LastName  string         `json:"lastName" gorm:"not null"`
	Email     string         `json:"email" gorm:"uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"not null"`
	Phone     string         `json:"phone"`
	Role      string         `json:"role" gorm:"default:'customer'"` // customer, admin
	Addresses []Address      `json:"addresses" gorm:"serializer:json;type:jsonb"`
	IsActive  bool           `json:"isActive" gorm:"default:true"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Address is a saved delivery address. At most one address of a user is the default.
type Address struct {
	Address   string `json:"address"`
	IsDefault bool   `json:"isDefault"`
}

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

// DefaultAddress returns the default address, or the first one when none is flagged.
func (u *User) DefaultAddress() string {
	for _, a := range u.Addresses {
		if a.IsDefault {
			return a.Address
		}
	}
	if len(u.Addresses) > 0 {
		return u.Addresses[0].Address
	}
	return ""
}
