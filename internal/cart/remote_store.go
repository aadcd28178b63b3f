package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

type breakerObserver interface {
	SetBreakerState(store string, state int)
}

// RemoteStoreOptions tunes the circuit breaker guarding the database.
type RemoteStoreOptions struct {
	MaxFailures uint32
	OpenTimeout time.Duration
	Observer    breakerObserver
}

// RemoteStore keeps a signed-in user's lines in cart_items. Reads join the
// live catalog, so name, image and post-discount price follow the product.
type RemoteStore struct {
	repo    LineRepository
	tx      txRunner
	breaker *gobreaker.CircuitBreaker[[]Line]
	loads   singleflight.Group
}

// NewRemoteStore builds the database-backed store.
func NewRemoteStore(repo LineRepository, tx txRunner, opts RemoteStoreOptions) (*RemoteStore, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	maxFailures := opts.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	timeout := opts.OpenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "cart_remote_store",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	if opts.Observer != nil {
		observer := opts.Observer
		settings.OnStateChange = func(_ string, _, to gobreaker.State) {
			observer.SetBreakerState(storeRemote, int(to))
		}
	}

	return &RemoteStore{
		repo:    repo,
		tx:      tx,
		breaker: gobreaker.NewCircuitBreaker[[]Line](settings),
	}, nil
}

// Load returns the user's lines. Concurrent loads for the same user share one
// query, which runs detached from any single caller's cancellation; each
// caller stops waiting when its own ctx is done.
func (s *RemoteStore) Load(ctx context.Context, owner Owner) ([]Line, error) {
	if owner.IsAnonymous() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "remote cart requires a signed-in owner")
	}

	shared := context.WithoutCancel(ctx)
	results := s.loads.DoChan(owner.UserID.String(), func() (any, error) {
		return s.breaker.Execute(func() ([]Line, error) {
			rows, err := s.repo.ListByUser(shared, owner.UserID)
			if err != nil {
				return nil, err
			}
			return linesFromRows(rows), nil
		})
	})

	select {
	case <-ctx.Done():
		return nil, wrapStoreError(ctx.Err(), "load cart")
	case res := <-results:
		if res.Err != nil {
			return nil, wrapStoreError(res.Err, "load cart")
		}
		return cloneLines(res.Val.([]Line)), nil
	}
}

// Save replaces the user's rows with lines in one transaction: rows for
// products no longer present are deleted, quantities of the rest updated and
// new products inserted.
func (s *RemoteStore) Save(ctx context.Context, owner Owner, lines []Line) error {
	if owner.IsAnonymous() {
		return pkgerrors.New(pkgerrors.CodeValidation, "remote cart requires a signed-in owner")
	}

	_, err := s.breaker.Execute(func() ([]Line, error) {
		return nil, s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.replace(ctx, s.repo.WithTx(tx), owner.UserID, lines)
		})
	})
	if err != nil {
		return wrapStoreError(err, "save cart")
	}
	return nil
}

func (s *RemoteStore) replace(ctx context.Context, repo LineRepository, userID uuid.UUID, lines []Line) error {
	existing, err := repo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	keep := make([]int64, 0, len(lines))
	for _, line := range lines {
		keep = append(keep, line.ProductID)
	}
	if err := repo.DeleteExcept(ctx, userID, keep); err != nil {
		return err
	}

	byProduct := make(map[int64]models.CartItem, len(existing))
	for _, row := range existing {
		byProduct[row.ProductID] = row
	}

	for _, line := range lines {
		row, ok := byProduct[line.ProductID]
		if ok {
			if row.Quantity != line.Quantity {
				if err := repo.UpdateQuantity(ctx, row.ID, line.Quantity); err != nil {
					return err
				}
			}
			continue
		}
		newRow := &models.CartItem{
			ID:        line.LineID,
			UserID:    userID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		}
		if err := repo.Create(ctx, newRow); err != nil {
			return err
		}
	}
	return nil
}

func linesFromRows(rows []models.CartItem) []Line {
	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		if row.Product == nil || row.Quantity <= 0 {
			continue
		}
		line := Line{
			LineID:    row.ID,
			ProductID: row.ProductID,
			Name:      row.Product.Name,
			UnitPrice: money.Cents(row.Product.PriceCents).ApplyPercentDiscount(float64(row.Product.DiscountPercent)),
			Quantity:  row.Quantity,
		}
		if row.Product.ImageURL != nil {
			line.Image = *row.Product.ImageURL
		}
		lines = append(lines, line)
	}
	return lines
}

func wrapStoreError(err error, action string) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart store unavailable")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
