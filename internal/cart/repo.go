package cart

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes row-level access to cart_items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) LineRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListByUser returns the user's rows with their products preloaded, oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC, product_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteExcept removes the user's rows whose product is not in keep. An empty
// keep removes every row.
func (r *Repository) DeleteExcept(ctx context.Context, userID uuid.UUID, keep []int64) error {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if len(keep) > 0 {
		query = query.Where("product_id NOT IN ?", keep)
	}
	return query.Delete(&models.CartItem{}).Error
}

// UpdateQuantity sets the quantity on an existing row.
func (r *Repository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", id).
		Update("quantity", quantity).Error
}

// Create inserts a new row.
func (r *Repository) Create(ctx context.Context, row *models.CartItem) error {
	return r.db.WithContext(ctx).Create(row).Error
}
