package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod is how the shopper chose to pay at checkout. Payment itself
// is settled outside this service.
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "tarjeta"
	PaymentMethodPayPal PaymentMethod = "paypal"
)

var paymentMethodLabels = map[PaymentMethod]string{
	PaymentMethodCard:   "Tarjeta de crédito",
	PaymentMethodPayPal: "PayPal",
}

func (p PaymentMethod) String() string {
	return string(p)
}

func (p PaymentMethod) IsValid() bool {
	_, ok := paymentMethodLabels[p]
	return ok
}

// Label is the name shown to shoppers, empty for unknown methods.
func (p PaymentMethod) Label() string {
	return paymentMethodLabels[p]
}

// ParsePaymentMethod accepts the stored value in any case.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	method := PaymentMethod(strings.ToLower(strings.TrimSpace(value)))
	if !method.IsValid() {
		return "", fmt.Errorf("invalid payment method %q", value)
	}
	return method, nil
}
