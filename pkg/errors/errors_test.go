package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataPolicy(t *testing.T) {
	tests := map[Code]Metadata{
		CodeValidation:   {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", ExposeMessage: true, DetailsAllowed: true},
		CodeUnauthorized: {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required", ExposeMessage: true},
		CodeForbidden:    {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied", ExposeMessage: true},
		CodeNotFound:     {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found", ExposeMessage: true},
		CodeConflict:     {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected", ExposeMessage: true},
		CodeRateLimit:    {HTTPStatus: http.StatusTooManyRequests, Retryable: true, PublicMessage: "rate limit exceeded", ExposeMessage: true},
		CodeInternal:     {HTTPStatus: http.StatusInternalServerError, PublicMessage: "internal server error"},
		CodeDependency:   {HTTPStatus: http.StatusServiceUnavailable, Retryable: true, PublicMessage: "dependency unavailable", DetailsAllowed: true},
	}
	for code, want := range tests {
		assert.Equal(t, want, MetadataFor(code), "code %s", code)
	}
	assert.Equal(t, MetadataFor(CodeInternal), MetadataFor("SOMETHING_UNKNOWN"))
}

func TestDetailsAndWrapping(t *testing.T) {
	err := New(CodeValidation, "missing quantity")
	assert.Nil(t, err.Details())
	assert.Equal(t, "VALIDATION_ERROR: missing quantity", err.Error())

	err.WithDetails(map[string]any{"field": "quantity"})
	assert.Equal(t, map[string]any{"field": "quantity"}, err.Details())

	cause := stdErrors.New("connection refused")
	wrapped := Wrap(CodeDependency, cause, "load cart")
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "DEPENDENCY_ERROR: load cart: connection refused", wrapped.Error())
}

func TestAsAndIsCodeWalkTheChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeForbidden, "no entry"))

	typed := As(err)
	require.NotNil(t, typed)
	assert.Equal(t, CodeForbidden, typed.Code())
	assert.True(t, IsCode(err, CodeForbidden))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.Nil(t, As(nil))
	assert.Nil(t, As(stdErrors.New("plain")))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "product 7 not found", Newf(CodeNotFound, "product %d not found", 7).PublicMessage())
	assert.Equal(t, "dependency unavailable", Wrap(CodeDependency, stdErrors.New("dial tcp"), "load cart").PublicMessage())
	assert.Equal(t, "validation failed", New(CodeValidation, "").PublicMessage())

	var missing *Error
	assert.Equal(t, "internal server error", missing.PublicMessage())
	assert.Equal(t, CodeInternal, missing.Code())
}
