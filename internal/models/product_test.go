package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func margherita() *Product {
	return &Product{
		Name:     "Margherita",
		Category: string(CategoryPizza),
		Pricing:  map[string]float64{"small": 199, "medium": 349, "large": 499, "thin": 0, "thick": 40},
		Toppings: []Topping{{Name: "Olives", Price: 30}, {Name: "Jalapeno", Price: 25}},
	}
}

func cola() *Product {
	return &Product{
		Name:     "Cola",
		Category: string(CategoryBeverages),
		Pricing:  map[string]float64{"ml330": 60, "ml500": 90, "cold": 10},
	}
}

func TestPriceFor_Pizza(t *testing.T) {
	price, err := margherita().PriceFor(Customization{Size: "medium", Crust: "thick", Toppings: []string{"Olives", "Jalapeno"}})
	require.NoError(t, err)
	assert.Equal(t, 349.0+40+30+25, price)
}

func TestPriceFor_PizzaRequiresCrust(t *testing.T) {
	_, err := margherita().PriceFor(Customization{Size: "small"})
	assert.Error(t, err)
}

func TestPriceFor_UnknownTopping(t *testing.T) {
	_, err := margherita().PriceFor(Customization{Size: "small", Crust: "thin", Toppings: []string{"Pineapple"}})
	assert.Error(t, err)
}

func TestPriceFor_UnavailableSize(t *testing.T) {
	_, err := cola().PriceFor(Customization{Size: "ml100"})
	assert.Error(t, err)
}

func TestPriceFor_SizeMustBeASizeKey(t *testing.T) {
	tests := []struct {
		name    string
		product *Product
		c       Customization
	}{
		{"crust as pizza size", margherita(), Customization{Size: "thick", Crust: "thick"}},
		{"beverage size on pizza", margherita(), Customization{Size: "ml330", Crust: "thin"}},
		{"chilling as beverage size", cola(), Customization{Size: "cold"}},
		{"pizza size on beverage", cola(), Customization{Size: "large"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.product.PriceFor(tt.c)
			assert.ErrorContains(t, err, "unknown size")
		})
	}
}

func TestPriceFor_Beverage(t *testing.T) {
	price, err := cola().PriceFor(Customization{Size: "ml500", Chilling: "cold"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, price)

	price, err = cola().PriceFor(Customization{Size: "ml330", Chilling: "warm"})
	require.NoError(t, err)
	assert.Equal(t, 60.0, price)
}

func TestCustomizationKey_IgnoresToppingOrder(t *testing.T) {
	a := Customization{Size: "large", Crust: "thin", Toppings: []string{"Olives", "Jalapeno"}}
	b := Customization{Size: "large", Crust: "thin", Toppings: []string{"Jalapeno", "Olives"}}
	c := Customization{Size: "large", Crust: "thick", Toppings: []string{"Jalapeno", "Olives"}}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, []string{"Olives", "Jalapeno"}, a.Toppings)
}

func TestDefaultAddress(t *testing.T) {
	u := &User{}
	assert.Equal(t, "", u.DefaultAddress())

	u.Addresses = []Address{{Address: "12 Baker Street, Pune"}, {Address: "7 MG Road, Bengaluru", IsDefault: true}}
	assert.Equal(t, "7 MG Road, Bengaluru", u.DefaultAddress())
}
