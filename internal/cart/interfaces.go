package cart

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LineRepository defines the persistence surface required by the remote store.
type LineRepository interface {
	WithTx(tx *gorm.DB) LineRepository
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	DeleteExcept(ctx context.Context, userID uuid.UUID, keep []int64) error
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	Create(ctx context.Context, row *models.CartItem) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
