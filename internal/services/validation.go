package services

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"pizzeria/internal/models"
	"pizzeria/internal/pricing"
)

var (
	lettersOnly = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	digitsOnly  = regexp.MustCompile(`^[0-9]+$`)
	promoCodeRe = regexp.MustCompile(`^[A-Z0-9]+$`)
)

func checkLength(errs ValidationErrors, field, label, value string, min, max int) {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	switch {
	case n == 0:
		errs.add(field, label+" is required")
	case n < min:
		errs.add(field, fmt.Sprintf("%s must be at least %d characters", label, min))
	case n > max:
		errs.add(field, fmt.Sprintf("%s must not exceed %d characters", label, max))
	}
}

func checkName(errs ValidationErrors, field, label, value string) {
	checkLength(errs, field, label, value, 2, 50)
	if _, failed := errs[field]; !failed && !lettersOnly.MatchString(value) {
		errs.add(field, label+" must contain only letters")
	}
}

func checkEmail(errs ValidationErrors, field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		errs.add(field, "Email is required")
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || !strings.Contains(value[strings.LastIndex(value, "@"):], ".") {
		errs.add(field, "Please provide a valid email address")
		return
	}
	if len(value) > 100 {
		errs.add(field, "Email must not exceed 100 characters")
	}
}

func checkPhone(errs ValidationErrors, field, value string) {
	switch {
	case len(value) < 10:
		errs.add(field, "Phone number must be at least 10 digits")
	case len(value) > 15:
		errs.add(field, "Phone number must not exceed 15 digits")
	case !digitsOnly.MatchString(value):
		errs.add(field, "Phone number must contain only numbers")
	}
}

func validateRegistration(in RegisterInput) error {
	errs := ValidationErrors{}
	checkName(errs, "firstName", "First name", in.FirstName)
	checkName(errs, "lastName", "Last name", in.LastName)
	checkEmail(errs, "email", in.Email)
	switch n := len(in.Password); {
	case n < 6:
		errs.add("password", "Password must be at least 6 characters")
	case n > 50:
		errs.add("password", "Password must not exceed 50 characters")
	}
	if in.Phone != "" {
		checkPhone(errs, "phone", in.Phone)
	}
	return errs.err()
}

func validateProfile(in ProfileInput) error {
	errs := ValidationErrors{}
	if in.FirstName != nil {
		checkName(errs, "firstName", "First name", *in.FirstName)
	}
	if in.LastName != nil {
		checkName(errs, "lastName", "Last name", *in.LastName)
	}
	if in.Phone != nil && *in.Phone != "" {
		checkPhone(errs, "phone", *in.Phone)
	}
	if in.Addresses != nil {
		for i, a := range *in.Addresses {
			checkLength(errs, fmt.Sprintf("addresses.%d", i), "Address", a.Address, 10, 500)
		}
	}
	return errs.err()
}

func validateCheckout(in PlaceOrderInput) error {
	errs := ValidationErrors{}
	checkLength(errs, "customer.firstName", "First name", in.Customer.FirstName, 2, 50)
	checkLength(errs, "customer.lastName", "Last name", in.Customer.LastName, 2, 50)
	checkEmail(errs, "customer.email", in.Customer.Email)
	checkLength(errs, "deliveryAddress", "Address", in.DeliveryAddress, 10, 500)
	switch models.PaymentMode(in.PaymentMode) {
	case models.PaymentCard, models.PaymentCash:
	case "":
		errs.add("paymentMode", "Payment method is required")
	default:
		errs.add("paymentMode", "Invalid payment method")
	}
	if utf8.RuneCountInString(in.Comment) > 500 {
		errs.add("comment", "Comment must not exceed 500 characters")
	}
	if in.PromoCode != "" {
		checkPromoCode(errs, "promoCode", in.PromoCode)
	}
	return errs.err()
}

func checkPromoCode(errs ValidationErrors, field, code string) {
	switch n := len(code); {
	case n == 0:
		errs.add(field, "Promo code is required")
	case n < 3:
		errs.add(field, "Promo code must be at least 3 characters")
	case n > 20:
		errs.add(field, "Promo code must not exceed 20 characters")
	case !promoCodeRe.MatchString(code):
		errs.add(field, "Promo code must contain only uppercase letters and numbers")
	}
}

func validatePromo(p *models.Promo) error {
	errs := ValidationErrors{}
	checkPromoCode(errs, "code", p.Code)
	checkLength(errs, "description", "Description", p.Description, 10, 500)

	kind, ok := pricing.ParseDiscountType(p.DiscountType)
	switch {
	case p.DiscountType == "":
		errs.add("discountType", "Discount type is required")
	case !ok:
		errs.add("discountType", "Invalid discount type")
	}
	if kind == pricing.DiscountPercentage || kind == pricing.DiscountFixed {
		switch {
		case p.DiscountValue <= 0:
			errs.add("discountValue", "Discount value must be a positive number")
		case kind == pricing.DiscountPercentage && p.DiscountValue > 100:
			errs.add("discountValue", "Percentage discount cannot exceed 100%")
		case kind == pricing.DiscountFixed && p.DiscountValue > 10000:
			errs.add("discountValue", "Fixed discount value is too high")
		}
	}

	if p.MinOrderAmount != nil && *p.MinOrderAmount < 0 {
		errs.add("minOrderAmount", "Minimum order amount must be a positive number")
	}
	if p.MaxDiscount != nil && *p.MaxDiscount < 0 {
		errs.add("maxDiscount", "Maximum discount must be a positive number")
	}
	if p.ValidFrom.IsZero() {
		errs.add("validFrom", "Start date is required")
	}
	if p.ValidTo.IsZero() {
		errs.add("validTo", "End date is required")
	}
	if !p.ValidFrom.IsZero() && !p.ValidTo.IsZero() && !p.ValidTo.After(p.ValidFrom) {
		errs.add("validTo", "End date must be after start date")
	}
	if p.UsageLimit != nil && *p.UsageLimit < 1 {
		errs.add("usageLimit", "Usage limit must be at least 1")
	}
	return errs.err()
}

func validateProduct(p *models.Product) error {
	errs := ValidationErrors{}
	checkLength(errs, "name", "Product name", p.Name, 3, 100)
	checkLength(errs, "description", "Description", p.Description, 10, 1000)

	var sizes, extras []string
	var ceiling float64
	switch models.ProductCategory(p.Category) {
	case models.CategoryPizza:
		sizes, extras, ceiling = models.PizzaSizes, models.PizzaCrusts, 10000
		if s := p.Attributes.Spiciness; s != "" && s != "non-spicy" && s != "spicy" {
			errs.add("attributes.spiciness", "Invalid spiciness value")
		}
		for i, t := range p.Toppings {
			if strings.TrimSpace(t.Name) == "" {
				errs.add(fmt.Sprintf("toppings.%d.name", i), fmt.Sprintf("Topping %d name is required", i+1))
			}
			if t.Price < 0 {
				errs.add(fmt.Sprintf("toppings.%d.price", i), fmt.Sprintf("Topping %d price must be a positive number", i+1))
			} else if t.Price > 500 {
				errs.add(fmt.Sprintf("toppings.%d.price", i), fmt.Sprintf("Topping %d price is too high", i+1))
			}
		}
	case models.CategoryBeverages:
		sizes, extras, ceiling = models.BeverageSizes, models.BeverageChills, 1000
		if a := p.Attributes.Alcohol; a != "" && a != "non-alcoholic" && a != "alcoholic" {
			errs.add("attributes.alcohol", "Invalid alcohol value")
		}
		if len(p.Toppings) > 0 {
			errs.add("toppings", "Beverages do not take toppings")
		}
	case "":
		errs.add("category", "Category is required")
		return errs.err()
	default:
		errs.add("category", "Invalid category")
		return errs.err()
	}

	hasPrice := false
	for key, price := range p.Pricing {
		field := "pricing." + key
		switch {
		case !oneOf(key, sizes) && !oneOf(key, extras):
			errs.add(field, "Unknown price option")
		case price < 0:
			errs.add(field, fmt.Sprintf("%s price must be a positive number", key))
		case price > ceiling:
			errs.add(field, fmt.Sprintf("%s price is too high", key))
		case oneOf(key, sizes) && price > 0:
			hasPrice = true
		}
	}
	if !hasPrice {
		errs.add("pricing", "At least one size must have a price")
	}
	return errs.err()
}

func validateQuantity(quantity int) error {
	switch {
	case quantity < models.MinItemQuantity:
		return ValidationErrors{"quantity": "Quantity must be at least 1"}
	case quantity > models.MaxItemQuantity:
		return ValidationErrors{"quantity": fmt.Sprintf("Quantity cannot exceed %d", models.MaxItemQuantity)}
	}
	return nil
}

func oneOf(v string, values []string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
