package orders

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

// CheckoutInput is the buyer-supplied part of an order.
type CheckoutInput struct {
	ShippingAddress types.ShippingAddress `json:"shipping_address" validate:"required"`
	PaymentMethod   enums.PaymentMethod   `json:"payment_method" validate:"required"`
	Notes           *string               `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// OrderItemDTO is one snapshotted line of an order.
type OrderItemDTO struct {
	ProductID      int64       `json:"product_id"`
	Name           string      `json:"name"`
	UnitPrice      string      `json:"unit_price"`
	UnitPriceCents money.Cents `json:"unit_price_cents"`
	Quantity       int         `json:"quantity"`
	Subtotal       string      `json:"subtotal"`
}

// OrderDTO is the order shape returned by checkout and history endpoints.
type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	Status          enums.OrderStatus     `json:"status"`
	PaymentMethod   enums.PaymentMethod   `json:"payment_method"`
	PaymentLabel    string                `json:"payment_label"`
	Total           string                `json:"total"`
	TotalCents      money.Cents           `json:"total_cents"`
	Notes           *string               `json:"notes,omitempty"`
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	Items           []OrderItemDTO        `json:"items"`
	CreatedAt       time.Time             `json:"created_at"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// NewOrderDTO converts a persisted order and its items.
func NewOrderDTO(o *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		price := money.Cents(item.UnitPriceCents)
		items = append(items, OrderItemDTO{
			ProductID:      item.ProductID,
			Name:           item.ProductName,
			UnitPrice:      price.String(),
			UnitPriceCents: price,
			Quantity:       item.Quantity,
			Subtotal:       price.Mul(item.Quantity).String(),
		})
	}
	total := money.Cents(o.TotalCents)
	return OrderDTO{
		ID:              o.ID,
		Status:          o.Status,
		PaymentMethod:   o.PaymentMethod,
		PaymentLabel:    o.PaymentMethod.Label(),
		Total:           total.String(),
		TotalCents:      total,
		Notes:           o.Notes,
		ShippingAddress: o.ShippingAddress,
		Items:           items,
		CreatedAt:       o.CreatedAt,
	}
}
