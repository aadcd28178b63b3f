package newsletter

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"gorm.io/gorm"
)

// SubscribeRequest is the body of the subscribe endpoint.
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Subscription echoes a stored subscriber.
type Subscription struct {
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

type Service interface {
	Subscribe(ctx context.Context, email string) (*Subscription, error)
}

type Repository struct {
	db *gorm.DB
}

// NewRepository binds the subscriber table.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

func (r *Repository) Create(ctx context.Context, sub *models.NewsletterSubscriber) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

type subscriberRepository interface {
	Create(ctx context.Context, sub *models.NewsletterSubscriber) error
}

type service struct {
	repo subscriberRepository
}

func NewService(repo subscriberRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("newsletter repository required")
	}
	return &service{repo: repo}, nil
}

// Subscribe stores email once. A second subscription of the same address is a conflict.
func (s *service) Subscribe(ctx context.Context, email string) (*Subscription, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(normalized); err != nil || normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}

	sub := &models.NewsletterSubscriber{Email: normalized}
	if err := s.repo.Create(ctx, sub); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already subscribed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store subscriber")
	}
	return &Subscription{Email: sub.Email, SubscribedAt: sub.CreatedAt}, nil
}
