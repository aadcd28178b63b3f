package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

type addCartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity"`
}

type setCartQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CartLineResponse is one line of the cart payload.
type CartLineResponse struct {
	LineID         uuid.UUID   `json:"line_id"`
	ProductID      int64       `json:"product_id"`
	Name           string      `json:"name"`
	Image          string      `json:"image,omitempty"`
	UnitPrice      string      `json:"unit_price"`
	UnitPriceCents money.Cents `json:"unit_price_cents"`
	Quantity       int         `json:"quantity"`
	Subtotal       string      `json:"subtotal"`
}

// CartResponse is the cart payload shared by every cart endpoint.
type CartResponse struct {
	Owner      string             `json:"owner"`
	State      string             `json:"state"`
	Lines      []CartLineResponse `json:"lines"`
	ItemCount  int                `json:"item_count"`
	Total      string             `json:"total"`
	TotalCents money.Cents        `json:"total_cents"`
}

func newCartResponse(snap cart.Snapshot) CartResponse {
	lines := make([]CartLineResponse, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		lines = append(lines, CartLineResponse{
			LineID:         line.LineID,
			ProductID:      line.ProductID,
			Name:           line.Name,
			Image:          line.Image,
			UnitPrice:      line.UnitPrice.String(),
			UnitPriceCents: line.UnitPrice,
			Quantity:       line.Quantity,
			Subtotal:       line.Subtotal().String(),
		})
	}
	return CartResponse{
		Owner:      snap.Owner.Kind(),
		State:      snap.State.String(),
		Lines:      lines,
		ItemCount:  snap.ItemCount(),
		Total:      snap.Total.String(),
		TotalCents: snap.Total,
	}
}

// cartOwner prefers the signed-in user and falls back to the device header.
func cartOwner(r *http.Request) (cart.Owner, error) {
	if userID := middleware.UserUUIDFromContext(r.Context()); userID != uuid.Nil {
		return cart.UserOwner(userID), nil
	}
	if deviceID := middleware.DeviceIDFromContext(r.Context()); deviceID != "" {
		return cart.AnonymousOwner(deviceID), nil
	}
	return cart.Owner{}, pkgerrors.New(pkgerrors.CodeValidation, "sign in or send "+middleware.CartDeviceHeader)
}

func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := svc.Get(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

// CartAddItem adds quantity of a product, growing an existing line.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addCartItemRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Quantity == 0 {
			body.Quantity = 1
		}

		snap, err := svc.AddItem(r.Context(), owner, body.ProductID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

// CartSetQuantity overwrites a line quantity; zero or less removes the line.
func CartSetQuantity(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseProductID(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setCartQuantityRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := svc.SetQuantity(r.Context(), owner, productID, *body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseProductID(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := svc.RemoveItem(r.Context(), owner, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := svc.Clear(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}

// CartClaim moves the device cart to the signed-in user under the merge policy.
func CartClaim(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		snap, err := svc.Claim(r.Context(), middleware.DeviceIDFromContext(r.Context()), middleware.UserUUIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snap))
	}
}
