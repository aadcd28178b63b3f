package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CartDeviceHeader carries the identifier of an anonymous browser cart.
const CartDeviceHeader = "X-Cart-Device"

const maxDeviceIDLength = 128

// CartDevice accepts an optional X-Cart-Device header. A malformed value is
// rejected; a missing one is left for the handler to decide.
func CartDevice(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID := strings.TrimSpace(r.Header.Get(CartDeviceHeader))
			if deviceID == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(deviceID) > maxDeviceIDLength || !safeIdentifier(deviceID) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid cart device id"))
				return
			}

			ctx := WithDeviceID(r.Context(), deviceID)
			if logg != nil {
				ctx = logg.WithDeviceID(ctx, deviceID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// safeIdentifier reports whether value only holds [A-Za-z0-9_-].
func safeIdentifier(value string) bool {
	for _, c := range value {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
