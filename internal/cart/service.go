package cart

import (
	"context"
	"fmt"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

// Service builds one Session per request and applies a single operation to it.
type Service interface {
	Open(ctx context.Context, owner Owner) (*Session, error)
	Get(ctx context.Context, owner Owner) (Snapshot, error)
	AddItem(ctx context.Context, owner Owner, productID int64, quantity int) (Snapshot, error)
	SetQuantity(ctx context.Context, owner Owner, productID int64, quantity int) (Snapshot, error)
	RemoveItem(ctx context.Context, owner Owner, productID int64) (Snapshot, error)
	Clear(ctx context.Context, owner Owner) (Snapshot, error)
	Claim(ctx context.Context, deviceID string, userID uuid.UUID) (Snapshot, error)
}

type catalog interface {
	GetForCart(ctx context.Context, id int64) (*models.Product, error)
}

// ServiceParams collects the collaborators of the cart service.
type ServiceParams struct {
	Remote  Store
	Device  Store
	Catalog catalog
	Config  config.CartConfig
	Logger  *logger.Logger
	Metrics metricsRecorder
}

type service struct {
	remote  Store
	device  Store
	catalog catalog
	policy  MergePolicy
	maxQty  int
	logg    *logger.Logger
	metrics metricsRecorder
}

// NewService validates the params and returns a cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.Remote == nil {
		return nil, fmt.Errorf("remote cart store required")
	}
	if params.Device == nil {
		return nil, fmt.Errorf("device cart store required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	policy, err := ParseMergePolicy(params.Config.MergePolicy)
	if err != nil {
		return nil, err
	}
	return &service{
		remote:  params.Remote,
		device:  params.Device,
		catalog: params.Catalog,
		policy:  policy,
		maxQty:  params.Config.MaxLineQuantity,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

func (s *service) newSession() *Session {
	return NewSession(SessionOptions{
		Remote:          s.remote,
		Device:          s.device,
		Policy:          s.policy,
		MaxLineQuantity: s.maxQty,
		Logger:          s.logg,
		Metrics:         s.metrics,
	})
}

// Open returns a Ready session for owner.
func (s *service) Open(ctx context.Context, owner Owner) (*Session, error) {
	session := s.newSession()
	if err := session.SwitchOwner(ctx, owner); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) Get(ctx context.Context, owner Owner) (Snapshot, error) {
	session, err := s.Open(ctx, owner)
	if err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// AddItem resolves the product snapshot from the catalog and adds it. A single
// add never asks for more units than the product has in stock.
func (s *service) AddItem(ctx context.Context, owner Owner, productID int64, quantity int) (Snapshot, error) {
	if productID <= 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	session, err := s.Open(ctx, owner)
	if err != nil {
		return Snapshot{}, err
	}
	if quantity <= 0 {
		if err := session.SetQuantity(ctx, productID, quantity); err != nil {
			return Snapshot{}, err
		}
		return session.Snapshot(), nil
	}

	item, err := s.catalog.GetForCart(ctx, productID)
	if err != nil {
		return Snapshot{}, err
	}
	candidate := Line{
		ProductID: item.ID,
		Name:      item.Name,
		UnitPrice: product.FinalPriceCents(item),
		Quantity:  min(quantity, item.Stock),
	}
	if item.ImageURL != nil {
		candidate.Image = *item.ImageURL
	}
	if err := session.AddLine(ctx, candidate); err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// SetQuantity fails with CodeNotFound when a positive quantity targets a
// product the cart does not hold. A stale session skips the check.
func (s *service) SetQuantity(ctx context.Context, owner Owner, productID int64, quantity int) (Snapshot, error) {
	session, err := s.Open(ctx, owner)
	if err != nil {
		return Snapshot{}, err
	}
	if quantity > 0 && !session.isStale() && !session.has(productID) {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart").
			WithDetails(map[string]any{"product_id": productID})
	}
	if err := session.SetQuantity(ctx, productID, quantity); err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, productID int64) (Snapshot, error) {
	session, err := s.Open(ctx, owner)
	if err != nil {
		return Snapshot{}, err
	}
	if err := session.RemoveLine(ctx, productID); err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

func (s *service) Clear(ctx context.Context, owner Owner) (Snapshot, error) {
	session, err := s.Open(ctx, owner)
	if err != nil {
		return Snapshot{}, err
	}
	if err := session.Clear(ctx); err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// Claim replays a sign-in on the device: the session starts with the
// anonymous cart and switches to the user, merging under the configured policy.
func (s *service) Claim(ctx context.Context, deviceID string, userID uuid.UUID) (Snapshot, error) {
	if deviceID == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "device id is required")
	}
	if userID == uuid.Nil {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required")
	}
	session, err := s.Open(ctx, AnonymousOwner(deviceID))
	if err != nil {
		return Snapshot{}, err
	}
	if err := session.SwitchOwner(ctx, UserOwner(userID)); err != nil {
		return Snapshot{}, err
	}
	s.logg.Info(ctx, "cart.claimed")
	return session.Snapshot(), nil
}
