package types

import "strings"

// ShippingAddress is the delivery snapshot stored on an order.
type ShippingAddress struct {
	Recipient  string `json:"recipient" validate:"required,max=120"`
	Street     string `json:"street" validate:"required,max=200"`
	City       string `json:"city" validate:"required,max=120"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Province   string `json:"province" validate:"required,max=120"`
	Country    string `json:"country" validate:"omitempty,max=80"`
	Phone      string `json:"phone" validate:"omitempty,max=40"`
}

// Normalize trims every field and defaults the country.
func (a ShippingAddress) Normalize() ShippingAddress {
	out := ShippingAddress{
		Recipient:  strings.TrimSpace(a.Recipient),
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Province:   strings.TrimSpace(a.Province),
		Country:    strings.TrimSpace(a.Country),
		Phone:      strings.TrimSpace(a.Phone),
	}
	if out.Country == "" {
		out.Country = "España"
	}
	return out
}
