// Package dbtest opens throwaway SQLite databases for repository tests.
package dbtest

import (
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns an in-memory SQLite database private to t with every storefront
// table migrated.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(log.New(io.Discard, "", 0), gormlogger.Config{LogLevel: gormlogger.Silent}),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.User{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.NewsletterSubscriber{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// ProductSeed seeds a product. Zero values get defaults: ten units in stock
// and status activo.
type ProductSeed struct {
	Name            string
	PriceCents      int64
	DiscountPercent int
	Stock           int
	OutOfStock      bool
	Status          enums.ProductStatus
	Featured        bool
	Rating          float64
	CategoryID      *int64
	ImageURL        string
}

// SeedProduct inserts a product built from seed.
func SeedProduct(t testing.TB, conn *gorm.DB, seed ProductSeed) *models.Product {
	t.Helper()
	if seed.Name == "" {
		seed.Name = "Producto"
	}
	if seed.Stock == 0 && !seed.OutOfStock {
		seed.Stock = 10
	}
	if seed.Status == "" {
		seed.Status = enums.ProductStatusActive
	}
	product := &models.Product{
		Name:            seed.Name,
		PriceCents:      seed.PriceCents,
		DiscountPercent: seed.DiscountPercent,
		Stock:           seed.Stock,
		Featured:        seed.Featured,
		Rating:          seed.Rating,
		CategoryID:      seed.CategoryID,
		Status:          seed.Status,
	}
	if seed.ImageURL != "" {
		image := seed.ImageURL
		product.ImageURL = &image
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// SeedUser inserts a customer account with the given email.
func SeedUser(t testing.TB, conn *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Name:         "Cliente",
		Email:        email,
		PasswordHash: "hash",
		Role:         enums.UserRoleCustomer,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}
