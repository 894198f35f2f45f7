package storefront

import "time"

type Address struct {
	Address   string `json:"address"`
	IsDefault bool   `json:"isDefault"`
}

type User struct {
	ID        uint      `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Addresses []Address `json:"addresses"`
}

// DefaultAddress returns the address marked as default, if any.
func (u *User) DefaultAddress() (Address, bool) {
	for _, a := range u.Addresses {
		if a.IsDefault {
			return a, true
		}
	}
	return Address{}, false
}

type Topping struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image,omitempty"`
}

type Product struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Image       string             `json:"image"`
	Pricing     map[string]float64 `json:"pricing"`
	Attributes  map[string]string  `json:"attributes"`
	Toppings    []Topping          `json:"toppings"`
}

type Customization struct {
	Size     string   `json:"size,omitempty"`
	Crust    string   `json:"crust,omitempty"`
	Chilling string   `json:"chilling,omitempty"`
	Toppings []string `json:"toppings,omitempty"`
}

type CartItem struct {
	ID            uint          `json:"id"`
	ProductID     uint          `json:"productId"`
	ProductName   string        `json:"productName"`
	Category      string        `json:"category"`
	Image         string        `json:"image"`
	Customization Customization `json:"customization"`
	UnitPrice     float64       `json:"unitPrice"`
	Quantity      int           `json:"quantity"`
}

// Cart is the last snapshot confirmed by the server.
type Cart struct {
	ID         uint       `json:"id"`
	UserID     uint       `json:"userId"`
	Items      []CartItem `json:"items"`
	Subtotal   float64    `json:"subtotal"`
	TotalItems int        `json:"totalItems"`
}

type Discount struct {
	Code         string  `json:"code"`
	Type         string  `json:"discountType"`
	Amount       float64 `json:"discount"`
	FreeDelivery bool    `json:"freeDelivery"`
}

type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type PlaceOrderRequest struct {
	Customer        Customer `json:"customer"`
	DeliveryAddress string   `json:"deliveryAddress"`
	Comment         string   `json:"comment,omitempty"`
	PaymentMode     string   `json:"paymentMode"`
	PromoCode       string   `json:"promoCode,omitempty"`
}

type OrderItem struct {
	ID            uint          `json:"id"`
	ProductID     uint          `json:"productId"`
	ProductName   string        `json:"productName"`
	Customization Customization `json:"customization"`
	UnitPrice     float64       `json:"unitPrice"`
	Quantity      int           `json:"quantity"`
}

type OrderPricing struct {
	Subtotal        float64 `json:"subtotal"`
	Taxes           float64 `json:"taxes"`
	DeliveryCharges float64 `json:"deliveryCharges"`
	Discount        float64 `json:"discount"`
	Total           float64 `json:"total"`
}

type Order struct {
	ID              uint         `json:"id"`
	OrderNumber     string       `json:"orderNumber"`
	Customer        Customer     `json:"customer"`
	Items           []OrderItem  `json:"items"`
	Pricing         OrderPricing `json:"pricing"`
	PromoCode       string       `json:"promoCode,omitempty"`
	DeliveryAddress string       `json:"deliveryAddress"`
	Comment         string       `json:"comment,omitempty"`
	PaymentMode     string       `json:"paymentMode"`
	PaymentStatus   string       `json:"paymentStatus"`
	Status          string       `json:"status"`
	RefundStatus    string       `json:"refundStatus"`
	CancelledAt     *time.Time   `json:"cancelledAt,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// CheckoutSession points the browser at the hosted card payment page.
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}
