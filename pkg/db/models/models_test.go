package models

import (
	"fmt"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&Category{}, &Product{}, &User{}, &CartItem{}, &Order{}, &OrderItem{}, &NewsletterSubscriber{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestBeforeCreateAssignsIDs(t *testing.T) {
	conn := openTestDB(t)

	user := &User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Role: enums.UserRoleCustomer}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == uuid.Nil {
		t.Fatal("expected user id to be generated")
	}

	fixed := uuid.New()
	sub := &NewsletterSubscriber{ID: fixed, Email: "news@example.com"}
	if err := conn.Create(sub).Error; err != nil {
		t.Fatalf("create subscriber: %v", err)
	}
	if sub.ID != fixed {
		t.Fatal("explicit ids must be preserved")
	}
}

func TestOrderShippingAddressRoundTrip(t *testing.T) {
	conn := openTestDB(t)

	order := &Order{
		UserID:        uuid.New(),
		Status:        enums.OrderStatusPending,
		PaymentMethod: enums.PaymentMethodCard,
		TotalCents:    5000,
		ShippingAddress: types.ShippingAddress{
			Recipient:  "Ana",
			Street:     "Calle Mayor 1",
			City:       "Madrid",
			PostalCode: "28013",
			Province:   "Madrid",
			Country:    "España",
		},
		Items: []OrderItem{{ProductID: 1, ProductName: "Cafetera", UnitPriceCents: 1000, Quantity: 1}},
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}

	var loaded Order
	if err := conn.Preload("Items").First(&loaded, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if loaded.ShippingAddress.City != "Madrid" {
		t.Fatalf("expected address to round-trip, got %+v", loaded.ShippingAddress)
	}
	if len(loaded.Items) != 1 || loaded.Items[0].ID == uuid.Nil {
		t.Fatalf("expected one item with generated id, got %+v", loaded.Items)
	}
}
