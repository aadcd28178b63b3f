package models

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Product is a sellable catalog entry. Prices are stored in cents.
type Product struct {
	ID              int64               `gorm:"column:id;primaryKey;autoIncrement"`
	Name            string              `gorm:"column:name;not null"`
	Description     *string             `gorm:"column:description"`
	PriceCents      int64               `gorm:"column:price_cents;not null"`
	Stock           int                 `gorm:"column:stock;not null;default:0"`
	SKU             *string             `gorm:"column:sku;uniqueIndex"`
	ImageURL        *string             `gorm:"column:image_url"`
	CategoryID      *int64              `gorm:"column:category_id"`
	Category        *Category           `gorm:"foreignKey:CategoryID"`
	Featured        bool                `gorm:"column:featured;not null;default:false"`
	DiscountPercent int                 `gorm:"column:discount_percent;not null;default:0"`
	Rating          float64             `gorm:"column:rating;not null;default:0"`
	Status          enums.ProductStatus `gorm:"column:status;not null;default:'activo'"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
