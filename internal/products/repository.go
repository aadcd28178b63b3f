package product

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository wires together catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product with its category.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns the visible products matching filter and the unpaged count.
// Inactive products are never listed.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	scope := r.filterScope(filter)

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := r.db.WithContext(ctx).
		Scopes(scope).
		Preload("Category").
		Order(orderClause(filter.Sort)).
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *Repository) filterScope(filter ListFilter) func(*gorm.DB) *gorm.DB {
	return func(query *gorm.DB) *gorm.DB {
		query = query.Where("products.status <> ?", enums.ProductStatusInactive)
		if filter.CategoryID != nil {
			query = query.Where("products.category_id = ?", *filter.CategoryID)
		}
		if slug := strings.TrimSpace(filter.CategorySlug); slug != "" {
			query = query.Where("products.category_id IN (?)",
				r.db.Model(&models.Category{}).Select("id").Where("slug = ?", slug))
		}
		if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
			like := "%" + q + "%"
			query = query.Where("(LOWER(products.name) LIKE ? OR LOWER(COALESCE(products.description, '')) LIKE ?)", like, like)
		}
		if filter.MinPriceCents != nil {
			query = query.Where("products.price_cents >= ?", *filter.MinPriceCents)
		}
		if filter.MaxPriceCents != nil {
			query = query.Where("products.price_cents <= ?", *filter.MaxPriceCents)
		}
		if filter.Featured {
			query = query.Where("products.featured = ?", true)
		}
		if filter.OffersOnly {
			query = query.Where("products.discount_percent > 0")
		}
		return query
	}
}

// ListCategories returns active categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func orderClause(sort string) string {
	switch sort {
	case SortPriceAsc:
		return "products.price_cents ASC, products.id ASC"
	case SortPriceDesc:
		return "products.price_cents DESC, products.id ASC"
	case SortRating:
		return "products.rating DESC, products.id ASC"
	default:
		return "products.created_at DESC, products.id DESC"
	}
}
