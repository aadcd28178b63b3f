package product

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

// ProductDTO represents the catalog product payload returned to clients.
type ProductDTO struct {
	ID              int64               `json:"id"`
	Name            string              `json:"name"`
	Description     *string             `json:"description,omitempty"`
	SKU             *string             `json:"sku,omitempty"`
	ImageURL        *string             `json:"image_url,omitempty"`
	CategoryID      *int64              `json:"category_id,omitempty"`
	Category        *CategoryDTO        `json:"category,omitempty"`
	Price           string              `json:"price"`
	PriceCents      money.Cents         `json:"price_cents"`
	FinalPrice      string              `json:"final_price"`
	FinalPriceCents money.Cents         `json:"final_price_cents"`
	DiscountPercent int                 `json:"discount_percent"`
	Stock           int                 `json:"stock"`
	Featured        bool                `json:"featured"`
	Rating          float64             `json:"rating"`
	Status          enums.ProductStatus `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
}

// CategoryDTO exposes catalog categories.
type CategoryDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description,omitempty"`
}

// FinalPriceCents applies the product discount to the list price.
func FinalPriceCents(p *models.Product) money.Cents {
	return money.Cents(p.PriceCents).ApplyPercentDiscount(float64(p.DiscountPercent))
}

// Purchasable reports whether the product can be added to a cart.
func Purchasable(p *models.Product) bool {
	return p.Status == enums.ProductStatusActive && p.Stock > 0
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(p *models.Product) *ProductDTO {
	final := FinalPriceCents(p)
	dto := &ProductDTO{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		SKU:             p.SKU,
		ImageURL:        p.ImageURL,
		CategoryID:      p.CategoryID,
		Price:           money.Cents(p.PriceCents).String(),
		PriceCents:      money.Cents(p.PriceCents),
		FinalPrice:      final.String(),
		FinalPriceCents: final,
		DiscountPercent: p.DiscountPercent,
		Stock:           p.Stock,
		Featured:        p.Featured,
		Rating:          p.Rating,
		Status:          p.Status,
		CreatedAt:       p.CreatedAt,
	}
	if p.Category != nil {
		dto.Category = NewCategoryDTO(p.Category)
	}
	return dto
}

func NewCategoryDTO(c *models.Category) *CategoryDTO {
	return &CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
	}
}
