package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID          uint               `json:"id" gorm:"primaryKey"`
	Name        string             `json:"name" gorm:"not null"`
	Description string             `json:"description" gorm:"type:text"`
	Category    string             `json:"category" gorm:"index;not null"` // pizza, beverages
	Image       string             `json:"image"`
	Pricing     map[string]float64 `json:"pricing" gorm:"serializer:json;type:jsonb"`
	Attributes  ProductAttributes  `json:"attributes" gorm:"serializer:json;type:jsonb"`
	Toppings    []Topping          `json:"toppings" gorm:"serializer:json;type:jsonb"`
	Published   bool               `json:"published" gorm:"default:false"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt     `json:"-" gorm:"index"`
}

type ProductAttributes struct {
	Spiciness string `json:"spiciness,omitempty"` // non-spicy, spicy
	Alcohol   string `json:"alcohol,omitempty"`   // non-alcoholic, alcoholic
}

type Topping struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image,omitempty"`
}

type ProductCategory string

const (
	CategoryPizza     ProductCategory = "pizza"
	CategoryBeverages ProductCategory = "beverages"
)

// Keys of the price table. Size keys are mandatory choices, crust and
// chilling keys are surcharges added on top of the size price.
var (
	PizzaSizes     = []string{"small", "medium", "large"}
	PizzaCrusts    = []string{"thin", "thick"}
	BeverageSizes  = []string{"ml100", "ml330", "ml500"}
	BeverageChills = []string{"warm", "cold"}
)

// PriceFor returns the unit price of the product with the given customization.
// Pizza: size + crust + selected toppings. Beverage: size + chilling.
func (p *Product) PriceFor(c Customization) (float64, error) {
	sizes, err := p.sizes()
	if err != nil {
		return 0, err
	}
	if c.Size == "" {
		return 0, fmt.Errorf("size is required")
	}
	if !contains(sizes, c.Size) {
		return 0, fmt.Errorf("unknown size %q", c.Size)
	}
	sizePrice, ok := p.Pricing[c.Size]
	if !ok || sizePrice <= 0 {
		return 0, fmt.Errorf("size %q is not available for %s", c.Size, p.Name)
	}
	total := sizePrice

	switch ProductCategory(p.Category) {
	case CategoryPizza:
		if c.Crust == "" {
			return 0, fmt.Errorf("crust is required")
		}
		if !contains(PizzaCrusts, c.Crust) {
			return 0, fmt.Errorf("unknown crust %q", c.Crust)
		}
		total += p.Pricing[c.Crust]
		for _, name := range c.Toppings {
			topping, ok := p.topping(name)
			if !ok {
				return 0, fmt.Errorf("topping %q is not offered on %s", name, p.Name)
			}
			total += topping.Price
		}
	case CategoryBeverages:
		if c.Chilling != "" {
			if !contains(BeverageChills, c.Chilling) {
				return 0, fmt.Errorf("unknown chilling %q", c.Chilling)
			}
			total += p.Pricing[c.Chilling]
		}
		if len(c.Toppings) > 0 {
			return 0, fmt.Errorf("beverages do not take toppings")
		}
	default:
		return 0, fmt.Errorf("unknown category %q", p.Category)
	}

	return total, nil
}

func (p *Product) sizes() ([]string, error) {
	switch ProductCategory(p.Category) {
	case CategoryPizza:
		return PizzaSizes, nil
	case CategoryBeverages:
		return BeverageSizes, nil
	}
	return nil, fmt.Errorf("unknown category %q", p.Category)
}

func (p *Product) topping(name string) (Topping, bool) {
	for _, t := range p.Toppings {
		if t.Name == name {
			return t, true
		}
	}
	return Topping{}, false
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
